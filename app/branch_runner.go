package app

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"gocortex/domain/inference"
	"gocortex/internal"
)

// Branch processes an independent copy of a base record. The copy is the
// branch's to mutate; the base is never handed to a branch directly.
type Branch func(ctx context.Context, rec *inference.Record) error

// BranchRunner fans a base record out to branch pipelines. Each branch
// receives base.Copy(), so branches run concurrently without synchronizing
// on the carrier. Concurrency is bounded by a weighted semaphore.
type BranchRunner struct {
	sem    *semaphore.Weighted
	logger *internal.Logger
}

// NewBranchRunner creates a runner allowing up to maxConcurrent branches
// in flight
func NewBranchRunner(maxConcurrent int64) *BranchRunner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &BranchRunner{
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: internal.DefaultLogger.WithComponent("branch_runner"),
	}
}

// Run copies the base record once per branch and runs every branch to
// completion, returning the joined branch errors. The base record is not
// mutated; the caller must not mutate it either until Run returns, since
// copies share its SDR and classification references.
func (b *BranchRunner) Run(ctx context.Context, base *inference.Record, branches []Branch) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for i, branch := range branches {
		if err := b.sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(idx int, run Branch, rec *inference.Record) {
			defer wg.Done()
			defer b.sem.Release(1)

			if err := run(ctx, rec); err != nil {
				b.logger.Warn("branch %d failed: %v", idx, err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i, branch, base.Copy())
	}

	wg.Wait()
	return errors.Join(errs...)
}
