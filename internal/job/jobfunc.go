// Package job holds the work units the synchronization core hands to the
// shard executor.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disasterwatch/client/internal/shardqueue"
)

// ErrNilJobFunc is returned when a job has no function to run.
var ErrNilJobFunc = errors.New("nil JobFunc")

// Fetch is a refetch of one partition. Each attempt runs under Timeout (when
// set); the executor may call Run several times. Done receives the data of the
// successful attempt or the final error, exactly once.
type Fetch struct {
	Key     string
	Timeout time.Duration
	Load    func(ctx context.Context) (any, error)
	Done    func(data any, err error)

	data any
}

// Run performs one attempt.
func (f *Fetch) Run(ctx context.Context) error {
	if f.Load == nil {
		return fmt.Errorf("fetch %s: %w", f.Key, ErrNilJobFunc)
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	data, err := f.Load(ctx)
	if err != nil {
		return err
	}
	f.data = data
	return nil
}

// Complete hands the outcome to Done.
func (f *Fetch) Complete(err error) {
	if f.Done == nil {
		return
	}
	if err != nil {
		f.Done(nil, err)
		return
	}
	f.Done(f.data, nil)
}

// Notify wraps fn so that its final outcome is reported to done. It is used
// for fire-and-forget work such as enrichment calls.
func Notify(fn func(context.Context) error, done func(error)) *notifying {
	return &notifying{run: shardqueue.JobFunc(fn), done: done}
}

type notifying struct {
	run  shardqueue.JobFunc
	done func(error)
}

func (n *notifying) Run(ctx context.Context) error {
	if n.run == nil {
		return fmt.Errorf("notify: %w", ErrNilJobFunc)
	}
	return n.run.Run(ctx)
}

func (n *notifying) Complete(err error) {
	if n.done != nil {
		n.done(err)
	}
}
