// Package shuffle reorders delimiter-marked sections of prompt templates.
//
// A template like
//
//	a portrait of $[a cat, wearing a hat, in the park]$, highly detailed
//
// has its marked section split on the separator (parentheses kept atomic),
// the pieces permuted with a seeded generator, and the section replaced in
// place. Text outside sections, and any protected special syntax, survives
// byte for byte.
package shuffle

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

// SeedScope selects how the per-candidate seed feeds individual sections.
type SeedScope string

const (
	// SeedScopeSection re-seeds a fresh generator from the candidate seed
	// for every section. Two sections with the same token count receive the
	// same permutation. This is the historical behavior and the default.
	SeedScopeSection SeedScope = "section"

	// SeedScopeCandidate seeds one generator per candidate and threads it
	// through every section and priority group, so later sections draw from
	// where earlier ones left off.
	SeedScopeCandidate SeedScope = "candidate"
)

var (
	ErrEmptyMarker  = errors.New("shuffle: section markers must be non-empty")
	ErrEqualMarkers = errors.New("shuffle: start and end markers must differ")
	ErrBadSeparator = errors.New("shuffle: separator must not be a parenthesis")
	ErrBadSeedScope = errors.New("shuffle: unknown seed scope")
)

// SpecialSyntax strips protected fragments before a rewrite pass and restores
// them afterwards. Implementations must be order-preserving: Append receives
// the chunks exactly as Strip produced them.
type SpecialSyntax interface {
	Strip(text string) (stripped string, chunks []string)
	Append(text string, chunks []string) string
}

// Options configures a Rewriter. Zero-valued rune and scope fields are filled
// with defaults at construction; marker fields are validated as given.
type Options struct {
	// StartMarker and EndMarker delimit a shuffle section.
	StartMarker string
	EndMarker   string

	// Separator splits section content into tokens. Default ','.
	Separator rune

	// Priority enables priority stratification: tokens prefixed with
	// PriorityMarker plus digits are emitted in ascending key order ahead of
	// unmarked tokens, and the rewritten section gains a trailing separator.
	Priority       bool
	PriorityMarker rune

	// SeedScope controls seed handling across sections of one candidate.
	SeedScope SeedScope

	// DefaultSeed is used when a rewrite is not given an explicit seed.
	// When nil as well, the permutation is drawn from ambient entropy and
	// reproducibility is forfeited.
	DefaultSeed *int64

	// Syntax is the protected-syntax collaborator. Nil disables stripping.
	Syntax SpecialSyntax
}

// DefaultOptions returns the stock configuration: $[...]$ sections, comma
// separator, priority disabled with a '§' marker, per-section seeding.
func DefaultOptions() Options {
	return Options{
		StartMarker:    "$[",
		EndMarker:      "]$",
		Separator:      ',',
		PriorityMarker: '§',
		SeedScope:      SeedScopeSection,
	}
}

// Rewriter locates marked sections in templates and replaces each with a
// reordered version. Safe for concurrent use; it holds no mutable state.
type Rewriter struct {
	opts Options
}

// NewRewriter validates opts and returns a Rewriter. Degenerate delimiters
// are rejected here, at construction, rather than surfacing mid-rewrite.
func NewRewriter(opts Options) (*Rewriter, error) {
	if opts.Separator == 0 {
		opts.Separator = ','
	}
	if opts.PriorityMarker == 0 {
		opts.PriorityMarker = '§'
	}
	if opts.SeedScope == "" {
		opts.SeedScope = SeedScopeSection
	}

	if opts.StartMarker == "" || opts.EndMarker == "" {
		return nil, ErrEmptyMarker
	}
	if opts.StartMarker == opts.EndMarker {
		return nil, ErrEqualMarkers
	}
	if opts.Separator == '(' || opts.Separator == ')' {
		return nil, ErrBadSeparator
	}
	switch opts.SeedScope {
	case SeedScopeSection, SeedScopeCandidate:
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadSeedScope, opts.SeedScope)
	}

	return &Rewriter{opts: opts}, nil
}

// Options returns a copy of the effective configuration.
func (r *Rewriter) Options() Options {
	return r.opts
}

// Rewrite transforms one candidate string: protected syntax is stripped,
// every marked section is tokenized, permuted, and substituted back, and the
// protected fragments are re-appended. Text outside sections is preserved
// verbatim. A template with no complete marker pair is returned byte
// identical. seed overrides the configured default for this candidate; nil
// falls back to DefaultSeed, then to ambient entropy.
func (r *Rewriter) Rewrite(text string, seed *int64) string {
	stripped := text
	var chunks []string
	if r.opts.Syntax != nil {
		stripped, chunks = r.opts.Syntax.Strip(text)
	}

	spans := findSections(stripped, r.opts.StartMarker, r.opts.EndMarker)
	if len(spans) == 0 {
		return text
	}

	seedVal := r.resolveSeed(seed)
	var shared *rand.Rand
	if r.opts.SeedScope == SeedScopeCandidate {
		shared = NewRand(seedVal)
	}

	var b strings.Builder
	b.Grow(len(stripped))
	prev := 0
	for _, sp := range spans {
		rng := shared
		if rng == nil {
			rng = NewRand(seedVal)
		}
		b.WriteString(stripped[prev:sp.start])
		b.WriteString(r.rewriteSection(stripped[sp.open:sp.close], rng))
		prev = sp.end
	}
	b.WriteString(stripped[prev:])

	out := b.String()
	if r.opts.Syntax != nil {
		out = r.opts.Syntax.Append(out, chunks)
	}
	return out
}

// rewriteSection permutes the content of a single section. Empty content
// (zero tokens after trimming) rewrites to the empty string in every mode.
func (r *Rewriter) rewriteSection(content string, rng *rand.Rand) string {
	parts := SplitRespectingParens(content, r.opts.Separator)
	if len(parts) == 0 {
		return ""
	}

	joiner := string(r.opts.Separator) + " "
	if !r.opts.Priority {
		return strings.Join(Strings(parts, rng), joiner)
	}

	groups, rest := Partition(parts, r.opts.PriorityMarker)
	ordered := make([]string, 0, len(parts))
	for _, g := range groups {
		ordered = append(ordered, Strings(g.Tokens, rng)...)
	}
	ordered = append(ordered, Strings(rest, rng)...)
	return strings.Join(ordered, joiner) + string(r.opts.Separator)
}

func (r *Rewriter) resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	if r.opts.DefaultSeed != nil {
		return *r.opts.DefaultSeed
	}
	return ambientSeed()
}
