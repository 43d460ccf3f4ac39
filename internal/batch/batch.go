// Package batch runs independent extractions concurrently on a bounded
// worker pool.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/panjf2000/ants/v2"
)

// Outcome is the result of one job.
type Outcome[T any] struct {
	Source string
	Value  T
	Err    error
}

// Func processes a single source. Each call must build its own extractor so
// nothing mutable is shared between workers.
type Func[T any] func(ctx context.Context, source string) (T, error)

// Runner executes jobs on an ants pool.
type Runner struct {
	workers int
	logger  hclog.Logger
}

// NewRunner creates a runner with the given worker count. Zero or a negative
// count uses GOMAXPROCS.
func NewRunner(workers int, logger hclog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{workers: workers, logger: logger}
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// Run applies fn to every source and returns outcomes in input order. A
// failing job does not stop the others; a cancelled context marks jobs that
// have not started yet with ctx.Err().
func Run[T any](ctx context.Context, r *Runner, sources []string, fn Func[T]) ([]Outcome[T], error) {
	outcomes := make([]Outcome[T], len(sources))
	if len(sources) == 0 {
		return outcomes, nil
	}

	size := min(r.workers, len(sources))
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	r.logger.Debug("starting batch", "jobs", len(sources), "workers", size)

	var wg sync.WaitGroup
	for i, source := range sources {
		i, source := i, source
		outcomes[i].Source = source
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					outcomes[i].Err = fmt.Errorf("panic while processing %s: %v", source, p)
				}
			}()
			if err := ctx.Err(); err != nil {
				outcomes[i].Err = err
				return
			}
			outcomes[i].Value, outcomes[i].Err = fn(ctx, source)
			if outcomes[i].Err != nil {
				r.logger.Debug("job failed", "source", source, "error", outcomes[i].Err)
			}
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			outcomes[i].Err = fmt.Errorf("failed to submit job: %w", err)
		}
	}
	wg.Wait()

	return outcomes, nil
}

// Failed counts outcomes carrying an error.
func Failed[T any](outcomes []Outcome[T]) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
