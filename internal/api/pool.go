package api

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"
)

// ComputePool bounds how many engine calculations run at once. Callers wait
// for a slot until their context is done.
type ComputePool struct {
	sem  *semaphore.Weighted
	size int
}

// NewComputePool creates a pool with size slots (minimum 1).
func NewComputePool(size int) *ComputePool {
	if size < 1 {
		size = 1
	}
	return &ComputePool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of slots.
func (p *ComputePool) Size() int {
	return p.size
}

// Do runs fn while holding one slot.
func (p *ComputePool) Do(ctx context.Context, fn func(context.Context) error) error {
	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return eris.Wrap(err, "api: wait for compute slot")
	}
	defer p.sem.Release(1)
	poolWaitDuration.Observe(time.Since(start).Seconds())

	poolInFlight.Inc()
	defer poolInFlight.Dec()
	return fn(ctx)
}
