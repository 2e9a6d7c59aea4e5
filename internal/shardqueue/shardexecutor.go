// Package shardqueue runs refetch and enrichment jobs off the synchronization
// loop. Jobs for the same key run one after another in submission order; jobs
// for different keys may run in parallel on other shards.
//
// Recoverable failures are retried with exponential backoff; irrecoverable
// ones fail fast. Jobs implementing Completer learn their final outcome
// exactly once.
package shardqueue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	apierrors "github.com/disasterwatch/client/internal/errors"
)

type task struct {
	ctx context.Context
	key string
	job Job
}

// ShardExecutor executes Jobs on one worker goroutine per shard. The shard is
// a stable hash of the key, so a partition's fetches never overlap.
type ShardExecutor struct {
	cfg    Config
	shards []chan task

	stopCtx context.Context // cancelled by Stop
	stop    context.CancelFunc
	closed  uint32

	wg sync.WaitGroup
}

// NewShardExecutor starts cfg.Shards workers.
func NewShardExecutor(cfg Config) *ShardExecutor {
	cfg = cfg.withDefaults()
	e := &ShardExecutor{
		cfg:    cfg,
		shards: make([]chan task, cfg.Shards),
	}
	e.stopCtx, e.stop = context.WithCancel(context.Background())
	for i := range e.shards {
		e.shards[i] = make(chan task, cfg.QueueSize)
		e.wg.Add(1)
		go e.work(i)
	}
	return e
}

// Submit queues job on the shard of key. It returns ErrExecutorClosed after
// Stop, a *QueueFullError when the shard stays full for EnqueueTimeout, or
// ctx.Err(). On error the job never runs and Complete is not called.
func (e *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	if atomic.LoadUint32(&e.closed) == 1 || e.stopCtx.Err() != nil {
		return ErrExecutorClosed
	}
	idx := e.shardFor(key)
	ch := e.shards[idx]
	t := task{ctx: ctx, key: key, job: job}

	// Common case: room in the queue, no timer needed.
	select {
	case ch <- t:
		submissionsTotal.WithLabelValues(labelFor(idx)).Inc()
		return nil
	default:
	}

	timer := time.NewTimer(e.cfg.EnqueueTimeout)
	defer timer.Stop()
	select {
	case ch <- t:
		submissionsTotal.WithLabelValues(labelFor(idx)).Inc()
		return nil
	case <-e.stopCtx.Done():
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(idx)).Inc()
		e.cfg.Logger.Warn().Str("key", key).Int("shard", idx).Msg("shardqueue: shard full")
		return &QueueFullError{Key: key, Shard: idx, Length: len(ch), Capacity: cap(ch)}
	}
}

// Stop refuses new work, lets every worker drain its queue and waits for
// them. Queued jobs still get one attempt and their Complete call; a job
// waiting for a retry completes with context.Canceled. Idempotent.
func (e *ShardExecutor) Stop() {
	if !atomic.CompareAndSwapUint32(&e.closed, 0, 1) {
		return
	}
	e.cfg.Logger.Debug().Int("shards", e.cfg.Shards).Msg("shardqueue: stopping")
	e.stop()
	e.wg.Wait()
	e.cfg.Logger.Debug().Msg("shardqueue: stopped")
}

// ------------------------- internals -------------------------

func (e *ShardExecutor) work(idx int) {
	defer e.wg.Done()
	label := labelFor(idx)
	ch := e.shards[idx]

	for {
		select {
		case t := <-ch:
			if t.job != nil {
				e.execute(label, t)
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))
		case <-e.stopCtx.Done():
			e.drain(idx, label)
			return
		}
	}
}

// drain gives every job still queued on shard idx a single attempt.
func (e *ShardExecutor) drain(idx int, label string) {
	ch := e.shards[idx]
	n := 0
	for {
		select {
		case t := <-ch:
			if t.job == nil {
				continue
			}
			e.finish(t.job, e.attempt(label, t))
			n++
		default:
			if n > 0 {
				e.cfg.Logger.Debug().Int("shard", idx).Int("drained", n).Msg("shardqueue: drained jobs")
			}
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
	}
}

// execute runs t under the retry policy and reports the outcome.
func (e *ShardExecutor) execute(label string, t task) {
	if err := t.ctx.Err(); err != nil {
		// Caller gave up before the job reached the head of the queue.
		e.handleError(err)
		e.finish(t.job, err)
		return
	}

	// Backoff waits end on Stop as well as on the caller's context.
	waitCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	unhook := context.AfterFunc(e.stopCtx, cancel)
	defer unhook()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = e.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(e.cfg.MaxAttempts-1)), waitCtx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := e.attempt(label, t)
		if err != nil && apierrors.IsIrrecoverable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		retriesTotal.WithLabelValues(label).Inc()
		e.cfg.Logger.Debug().Err(err).Str("key", t.key).Int("attempt", attempt).Dur("wait", wait).Msg("shardqueue: retrying")
	})
	if err != nil {
		e.handleError(err)
	}
	e.finish(t.job, err)
}

// attempt runs the job once. A panic becomes ErrJobPanicked so the worker
// survives and the job is still completed.
func (e *ShardExecutor) attempt(label string, t task) (err error) {
	start := time.Now()
	defer func() {
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			panicsTotal.WithLabelValues(label).Inc()
			e.cfg.Logger.Error().Interface("panic", r).Str("key", t.key).Msg("shardqueue: job panic")
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return t.job.Run(t.ctx)
}

func (e *ShardExecutor) finish(j Job, err error) {
	c, ok := j.(Completer)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.cfg.Logger.Error().Interface("panic", r).Msg("shardqueue: completion panic")
		}
	}()
	c.Complete(err)
}

func (e *ShardExecutor) handleError(err error) {
	if e.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.cfg.Logger.Error().Interface("panic", r).Msg("shardqueue: error handler panic")
		}
	}()
	e.cfg.ErrorHandler(err)
}

func (e *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(e.shards)))
}
