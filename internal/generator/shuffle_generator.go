package generator

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"promptshuffle/internal/shuffle"
)

// ShuffleGenerator decorates an upstream PromptGenerator, rewriting the
// marked sections of every candidate it produces. Candidates are processed
// concurrently; each owns its random generator, so results are reproducible
// per candidate regardless of scheduling.
type ShuffleGenerator struct {
	inner       PromptGenerator
	rewriter    *shuffle.Rewriter
	logger      *zap.Logger
	maxParallel int
}

// NewShuffleGenerator wraps inner with section shuffling per opts. A nil
// logger disables logging. maxParallel bounds concurrent candidate rewrites;
// values below 1 mean unbounded.
func NewShuffleGenerator(inner PromptGenerator, opts shuffle.Options, logger *zap.Logger, maxParallel int) (*ShuffleGenerator, error) {
	if inner == nil {
		return nil, fmt.Errorf("shuffle generator: inner generator is required")
	}
	rw, err := shuffle.NewRewriter(opts)
	if err != nil {
		return nil, fmt.Errorf("shuffle generator: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShuffleGenerator{
		inner:       inner,
		rewriter:    rw,
		logger:      logger,
		maxParallel: maxParallel,
	}, nil
}

// Generate obtains candidates from the upstream generator and rewrites each
// with its seed from opts.Seeds. An upstream error or empty result propagates
// unchanged — nothing is shuffled in that case.
func (g *ShuffleGenerator) Generate(template string, count int, opts Options) ([]string, error) {
	prompts, err := g.inner.Generate(template, count, opts)
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return prompts, nil
	}

	out := make([]string, len(prompts))
	var eg errgroup.Group
	if g.maxParallel > 0 {
		eg.SetLimit(g.maxParallel)
	}
	for i, prompt := range prompts {
		i, prompt := i, prompt
		eg.Go(func() error {
			out[i] = g.rewriter.Rewrite(prompt, seedFor(opts.Seeds, i))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Debug("rewrote candidates",
		zap.Int("count", len(out)),
		zap.Int("seeds", len(opts.Seeds)))
	return out, nil
}

// seedFor returns the seed assigned to candidate i, or nil when the seeds
// slice does not cover it.
func seedFor(seeds []int64, i int) *int64 {
	if i < len(seeds) {
		return &seeds[i]
	}
	return nil
}
