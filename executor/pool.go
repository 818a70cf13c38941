package executor

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/probonopd/LiberTEM/job"
)

// Pool runs tasks on a bounded set of goroutines. Results are passed to the
// sink on the goroutine that called Run, in completion order. The first
// failure cancels the remaining tasks.
type Pool struct {
	opts options
}

var _ Executor = (*Pool)(nil)

func NewPool(opts ...Option) *Pool {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Pool{opts: o}
}

type taskResult struct {
	index   int
	task    job.Task
	results []job.ResultTile
}

func (e *Pool) Run(ctx context.Context, j job.Job, sink Sink) (err error) {
	r := newRunner(e.opts, uuid.New())
	tasks, err := j.Tasks(ctx)
	if err != nil {
		return err
	}
	done := r.start(len(tasks))
	defer func() { done(err) }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)

	ch := make(chan taskResult)
	var runErr error
	go func() {
		defer close(ch)
		for i, t := range tasks {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results, err := r.run(gctx, i, t)
				if err != nil {
					return err
				}
				select {
				case ch <- taskResult{index: i, task: t, results: results}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		runErr = g.Wait()
	}()

	var sinkErr error
	for res := range ch {
		if sinkErr != nil {
			continue
		}
		if err := sink(res.index, res.task, res.results); err != nil {
			sinkErr = err
			cancel()
		}
	}

	if sinkErr != nil {
		return sinkErr
	}
	return runErr
}
