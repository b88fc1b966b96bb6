package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// BuildPool is the background index-build/compaction thread pool (spec
// §5 "background index builders run on a per-TableIndexEntry thread
// pool (size 4 in the snapshot)", §9 design note). It admits at most
// Size concurrent CreateIndexDo fan-outs.
type BuildPool struct {
	sem *semaphore.Weighted
}

// NewBuildPool constructs a pool with the given concurrency, defaulting
// to 4 per spec §5 when size <= 0.
func NewBuildPool(size int) *BuildPool {
	if size <= 0 {
		size = 4
	}
	return &BuildPool{sem: semaphore.NewWeighted(int64(size))}
}

// RunCreateIndexDo fans e.CreateIndexDo out across the pool, one
// admission slot per TableIndexEntry, and returns the first error
// (spec §4.3 create_index_do "Returns an error status if any sub-step
// fails").
func (p *BuildPool) RunCreateIndexDo(ctx context.Context, entries []*TableIndexEntry, progressCounter *uint64) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		e := e
		g.Go(func() error {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer p.sem.Release(1)
			return e.CreateIndexDo(progressCounter)
		})
	}
	return g.Wait()
}
