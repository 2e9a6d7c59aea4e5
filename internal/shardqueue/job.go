package shardqueue

import "context"

// Job is a unit of work executed by a ShardExecutor.
// Run may be invoked several times when the executor retries.
type Job interface {
	Run(ctx context.Context) error
}

// Completer is implemented by jobs that want their final outcome: nil after a
// successful attempt, otherwise the last error (including a cancelled
// context). Complete is called exactly once per accepted job.
type Completer interface {
	Complete(err error)
}

// JobFunc is a helper to adapt a function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job for JobFunc.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }
