// Package executor runs the tasks of a job and hands each task's result
// tiles to a sink on the caller's goroutine.
package executor

import (
	"context"

	"github.com/google/uuid"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"

	"github.com/probonopd/LiberTEM/job"
	"github.com/probonopd/LiberTEM/nd"
)

const (
	metricJobs         = "jobs"
	metricJobLatency   = "job_latency"
	metricTasksStarted = "tasks_started"
	metricTasksFailed  = "tasks_failed"
	metricResultTiles  = "result_tiles"
	metricTaskLatency  = "task_latency"
)

// Sink receives the complete results of one successful task. index is the
// task's position in the job's task list. Sinks are never called
// concurrently and never for a task that failed.
type Sink func(index int, task job.Task, results []job.ResultTile) error

// Executor runs every task of a job. Run returns the first error from the
// job, a task or the sink; errors from tasks are returned unmodified.
type Executor interface {
	Run(ctx context.Context, j job.Job, sink Sink) error
}

// Option configures an executor.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	scope   tally.Scope
	workers int
}

func defaultOptions() options {
	return options{
		logger:  zap.NewNop(),
		scope:   tally.NoopScope,
		workers: 4,
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetricsScope(s tally.Scope) Option {
	return func(o *options) {
		if s != nil {
			o.scope = s
		}
	}
}

// WithWorkers sets how many tasks a Pool runs at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// RunJob allocates the output of j, runs it on e and merges every task's
// results exactly once. The output is only returned when all tasks
// succeeded.
func RunJob(ctx context.Context, e Executor, j job.Job, opts ...job.MergerOption) (*nd.Array, error) {
	out := job.NewOutput(j)
	m, err := job.NewMerger(j, out, opts...)
	if err != nil {
		return nil, err
	}
	err = e.Run(ctx, j, func(index int, _ job.Task, results []job.ResultTile) error {
		return m.MergeTask(index, results)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// runner holds what both executors need to run a single task.
type runner struct {
	logger *zap.Logger
	scope  tally.Scope
}

func newRunner(o options, jobID uuid.UUID) runner {
	return runner{
		logger: o.logger.With(zap.String("job_id", jobID.String())),
		scope:  o.scope,
	}
}

func (r runner) run(ctx context.Context, index int, t job.Task) ([]job.ResultTile, error) {
	r.scope.Counter(metricTasksStarted).Inc(1)
	sw := r.scope.Timer(metricTaskLatency).Start()
	defer sw.Stop()

	results, err := t.Run(ctx)
	if err != nil {
		r.scope.Counter(metricTasksFailed).Inc(1)
		r.logger.Warn("task failed",
			zap.Int("task", index),
			zap.Stringer("partition", t.Partition().Slice()),
			zap.Error(err))
		return nil, err
	}

	r.scope.Counter(metricResultTiles).Inc(int64(len(results)))
	r.logger.Debug("task finished",
		zap.Int("task", index),
		zap.Stringer("partition", t.Partition().Slice()),
		zap.Int("result_tiles", len(results)))
	return results, nil
}

// start records the beginning of a job run and returns the matching stop.
func (r runner) start(tasks int) func(error) {
	r.scope.Counter(metricJobs).Inc(1)
	sw := r.scope.Timer(metricJobLatency).Start()
	r.logger.Info("job started", zap.Int("tasks", tasks))
	return func(err error) {
		sw.Stop()
		if err != nil {
			r.logger.Error("job failed", zap.Error(err))
			return
		}
		r.logger.Info("job finished")
	}
}
