package redact

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// runChunks runs fn once per chunk, with the chunk's position in chunks, on at most workers goroutines. Chunks
// complete in no particular order. Once a chunk fails, chunks that have not started yet are skipped while chunks
// already running are left to finish; every chunk failure is reported.
func runChunks(ctx context.Context, workers int, chunks []Chunk, fn func(ctx context.Context, i int, c Chunk) error) error {
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	var errs *multierror.Error
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, i, c); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
				return err
			}
			return nil
		})
	}

	waitErr := g.Wait()
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}
	return waitErr
}
