package executor

import (
	"context"

	"github.com/google/uuid"

	"github.com/probonopd/LiberTEM/job"
)

// Inline runs tasks one after another on the calling goroutine.
type Inline struct {
	opts options
}

var _ Executor = (*Inline)(nil)

func NewInline(opts ...Option) *Inline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Inline{opts: o}
}

func (e *Inline) Run(ctx context.Context, j job.Job, sink Sink) (err error) {
	r := newRunner(e.opts, uuid.New())
	tasks, err := j.Tasks(ctx)
	if err != nil {
		return err
	}
	done := r.start(len(tasks))
	defer func() { done(err) }()

	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		results, err := r.run(ctx, i, t)
		if err != nil {
			return err
		}
		if err := sink(i, t, results); err != nil {
			return err
		}
	}
	return nil
}
