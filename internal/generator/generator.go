// Package generator defines the candidate-generation contract and the
// shuffling decorator that reorders marked sections of each candidate.
package generator

// Options carries per-call generation parameters.
type Options struct {
	// Seeds assigns one seed per candidate, by index. The slice may be nil
	// or shorter than the candidate count; candidates without an entry fall
	// back to the rewriter's default seed, then to ambient entropy.
	Seeds []int64
}

// PromptGenerator produces candidate prompt strings from a template. An
// implementation may return fewer candidates than requested, or none.
type PromptGenerator interface {
	Generate(template string, count int, opts Options) ([]string, error)
}

// EchoGenerator is the trivial upstream: it repeats the template verbatim,
// once per requested candidate. Useful stand-alone and as the innermost
// element of a decorator chain.
type EchoGenerator struct{}

func (EchoGenerator) Generate(template string, count int, _ Options) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	out := make([]string, count)
	for i := range out {
		out[i] = template
	}
	return out, nil
}
