package shuffle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptshuffle/internal/syntax"
)

func newTestRewriter(t *testing.T, mutate func(*Options)) *Rewriter {
	t.Helper()
	opts := DefaultOptions()
	opts.Syntax = syntax.NewExtractor()
	if mutate != nil {
		mutate(&opts)
	}
	r, err := NewRewriter(opts)
	require.NoError(t, err)
	return r
}

func seedp(v int64) *int64 { return &v }

func TestNewRewriter_Validation(t *testing.T) {
	t.Run("empty start marker", func(t *testing.T) {
		_, err := NewRewriter(Options{EndMarker: "]$"})
		assert.ErrorIs(t, err, ErrEmptyMarker)
	})

	t.Run("identical markers", func(t *testing.T) {
		_, err := NewRewriter(Options{StartMarker: "%%", EndMarker: "%%"})
		assert.ErrorIs(t, err, ErrEqualMarkers)
	})

	t.Run("parenthesis separator", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Separator = '('
		_, err := NewRewriter(opts)
		assert.ErrorIs(t, err, ErrBadSeparator)
	})

	t.Run("unknown seed scope", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SeedScope = "per-token"
		_, err := NewRewriter(opts)
		assert.ErrorIs(t, err, ErrBadSeedScope)
	})

	t.Run("zero fields get defaults", func(t *testing.T) {
		r, err := NewRewriter(Options{StartMarker: "$[", EndMarker: "]$"})
		require.NoError(t, err)
		assert.Equal(t, ',', r.Options().Separator)
		assert.Equal(t, SeedScopeSection, r.Options().SeedScope)
	})
}

func TestRewrite_BasicScenario(t *testing.T) {
	r := newTestRewriter(t, nil)
	prompt := "a portrait of $[a cat, wearing a hat, in the park]$, highly detailed"

	got := r.Rewrite(prompt, seedp(42))

	assert.True(t, strings.HasPrefix(got, "a portrait of "))
	assert.True(t, strings.HasSuffix(got, ", highly detailed"))
	assert.Contains(t, got, "a cat")
	assert.Contains(t, got, "wearing a hat")
	assert.Contains(t, got, "in the park")

	// Same seed, same output.
	assert.Equal(t, got, r.Rewrite(prompt, seedp(42)))

	// Some seed must move things around; all seeds mapping to the identity
	// permutation would require an astronomically unlikely RNG.
	moved := false
	for s := int64(1); s <= 20; s++ {
		if r.Rewrite(prompt, seedp(s)) != prompt {
			moved = true
			break
		}
	}
	assert.True(t, moved, "no seed in 1..20 produced a reordering")
}

func TestRewrite_SeedsDiverge(t *testing.T) {
	r := newTestRewriter(t, nil)
	prompt := "$[a, b, c, d, e, f]$"

	outputs := make(map[string]bool)
	for s := int64(0); s < 10; s++ {
		outputs[r.Rewrite(prompt, seedp(s))] = true
	}
	assert.Greater(t, len(outputs), 1, "ten seeds produced a single permutation")
}

func TestRewrite_NestedAttentionPreserved(t *testing.T) {
	r := newTestRewriter(t, nil)

	for s := int64(0); s < 10; s++ {
		got := r.Rewrite("$[red, (blue and green:1.5), yellow]$ car", seedp(s))
		assert.Contains(t, got, "(blue and green:1.5)")
		assert.Contains(t, got, "red")
		assert.Contains(t, got, "yellow")
		assert.True(t, strings.HasSuffix(got, " car"))
	}
}

func TestRewrite_MultipleSections(t *testing.T) {
	r := newTestRewriter(t, nil)

	got := r.Rewrite("$[a, b, c]$ and $[x, y, z]$", seedp(42))

	for _, tok := range []string{"a", "b", "c", "x", "y", "z"} {
		assert.Contains(t, got, tok)
	}
	assert.Contains(t, got, " and ")
}

func TestRewrite_NoSectionsByteIdentical(t *testing.T) {
	r := newTestRewriter(t, nil)

	prompts := []string{
		"a normal prompt without shuffle sections",
		"tagged prompt <lora:detail:0.8> stays put",
		"unterminated $[a, b never closes",
		"",
	}
	for _, p := range prompts {
		assert.Equal(t, p, r.Rewrite(p, seedp(42)))
	}
}

func TestRewrite_ProtectedSyntaxPassthrough(t *testing.T) {
	r := newTestRewriter(t, nil)
	prompt := "$[red car, blue car, green car]$ <lora:carmodel:0.8> <hypernet:test:1>"

	got := r.Rewrite(prompt, seedp(42))

	assert.Contains(t, got, "red car")
	assert.Contains(t, got, "blue car")
	assert.Contains(t, got, "green car")
	// Tags are re-appended at the end, in extraction order.
	assert.True(t, strings.HasSuffix(got, "<lora:carmodel:0.8> <hypernet:test:1>"))
}

func TestRewrite_CustomDelimiters(t *testing.T) {
	r := newTestRewriter(t, func(o *Options) {
		o.StartMarker = "<<"
		o.EndMarker = ">>"
	})

	got := r.Rewrite("<<one, two, three>> end", seedp(5))

	assert.Contains(t, got, "one")
	assert.Contains(t, got, "two")
	assert.Contains(t, got, "three")
	assert.True(t, strings.HasSuffix(got, " end"))
	assert.NotContains(t, got, "<<")
}

func TestRewrite_DegenerateContent(t *testing.T) {
	r := newTestRewriter(t, nil)

	assert.Equal(t, "x  y", r.Rewrite("x $[]$ y", seedp(1)))
	assert.Equal(t, "x  y", r.Rewrite("x $[ ,, ]$ y", seedp(1)))
}

func TestRewrite_Priority(t *testing.T) {
	r := newTestRewriter(t, func(o *Options) { o.Priority = true })
	prompt := "$[§1first, beta, §0alpha, gamma]$"

	got := r.Rewrite(prompt, seedp(42))

	// Lower keys first, unprioritized after, trailing separator appended.
	assert.True(t, strings.HasPrefix(got, "alpha, first, "))
	assert.True(t, strings.HasSuffix(got, ","))
	assert.Contains(t, got, "beta")
	assert.Contains(t, got, "gamma")
	assert.NotContains(t, got, "§")

	assert.Equal(t, got, r.Rewrite(prompt, seedp(42)))
}

func TestRewrite_PriorityMarkerWithoutDigits(t *testing.T) {
	r := newTestRewriter(t, func(o *Options) { o.Priority = true })

	got := r.Rewrite("$[§note, §1lead]$", seedp(3))

	assert.True(t, strings.HasPrefix(got, "lead, "))
	assert.Contains(t, got, "§note")
}

func TestRewrite_IntraGroupPermutation(t *testing.T) {
	r := newTestRewriter(t, func(o *Options) { o.Priority = true })
	prompt := "$[§1a, §1b, §1c, §1d, tail]$"

	got := r.Rewrite(prompt, seedp(11))

	trimmed := strings.TrimSuffix(got, ",")
	parts := strings.Split(trimmed, ", ")
	require.Len(t, parts, 5)
	assert.Equal(t, "tail", parts[4])
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, parts[:4])
}

func TestRewrite_SeedScopeSection(t *testing.T) {
	r := newTestRewriter(t, nil) // section scope is the default
	got := r.Rewrite("$[a, b, c, d]$|$[a, b, c, d]$", seedp(42))

	halves := strings.Split(got, "|")
	require.Len(t, halves, 2)
	// Re-seeding per section means identical content shuffles identically.
	assert.Equal(t, halves[0], halves[1])
}

func TestRewrite_SeedScopeCandidate(t *testing.T) {
	r := newTestRewriter(t, func(o *Options) { o.SeedScope = SeedScopeCandidate })
	prompt := "$[a, b, c, d]$|$[a, b, c, d]$"

	// Deterministic for a fixed seed.
	assert.Equal(t, r.Rewrite(prompt, seedp(42)), r.Rewrite(prompt, seedp(42)))

	// One stream across sections: for some seed the two identical sections
	// must land in different orders.
	diverged := false
	for s := int64(1); s <= 20; s++ {
		halves := strings.Split(r.Rewrite(prompt, seedp(s)), "|")
		require.Len(t, halves, 2)
		if halves[0] != halves[1] {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "candidate scope never diverged across sections")
}

func TestRewrite_DefaultSeedFallback(t *testing.T) {
	r := newTestRewriter(t, func(o *Options) { o.DefaultSeed = seedp(42) })
	prompt := "$[a, b, c, d, e]$"

	assert.Equal(t, r.Rewrite(prompt, nil), r.Rewrite(prompt, nil))
	assert.Equal(t, r.Rewrite(prompt, nil), r.Rewrite(prompt, seedp(42)))
}

func TestRewrite_AmbientSeedStillPermutes(t *testing.T) {
	r := newTestRewriter(t, nil) // no default seed, no explicit seed
	prompt := "$[a, b, c]$"

	got := r.Rewrite(prompt, nil)

	trimmedTokens := strings.Split(got, ", ")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, trimmedTokens)
}

func TestRewrite_SurroundingWhitespacePreserved(t *testing.T) {
	r := newTestRewriter(t, nil)

	got := r.Rewrite("  lead \n$[a, b]$\t trail  ", seedp(1))

	assert.True(t, strings.HasPrefix(got, "  lead \n"))
	assert.True(t, strings.HasSuffix(got, "\t trail  "))
}
