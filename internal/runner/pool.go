package runner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"cookbatch/internal/source"
)

// Pool runs repository pipelines with bounded parallelism and streams
// outcomes back in completion order.
type Pool struct {
	sem *semaphore.Weighted
}

func NewPool(concurrency int) (*Pool, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(concurrency))}, nil
}

// Run submits every ref to process and returns a channel that yields one
// Outcome per ref as workers finish (completion order, not submission
// order). At most the configured concurrency pipelines run at once, and a
// stuck worker never blocks the reporting of finished ones. On context
// cancellation the pool stops submitting and may yield fewer outcomes. The
// channel is always closed.
func (p *Pool) Run(ctx context.Context, refs []source.Ref, process func(context.Context, source.Ref) Outcome) <-chan Outcome {
	out := make(chan Outcome)

	go func() {
		defer close(out)

		var wg sync.WaitGroup
		for _, ref := range refs {
			if err := p.sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(ref source.Ref) {
				defer wg.Done()
				defer p.sem.Release(1)

				res := process(ctx, ref)
				select {
				case out <- res:
				case <-ctx.Done():
				}
			}(ref)
		}
		wg.Wait()
	}()

	return out
}
