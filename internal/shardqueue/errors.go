package shardqueue

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull is transient back-pressure; the caller may try again.
	ErrQueueFull = errors.New("shard queue full")
	// ErrExecutorClosed is returned for every Submit after Stop.
	ErrExecutorClosed = errors.New("shard executor closed")
	// ErrJobPanicked wraps a panic recovered from Job.Run.
	ErrJobPanicked = errors.New("job panicked")
)

// QueueFullError reports which key was refused and how full its shard was.
// errors.Is(err, ErrQueueFull) holds.
type QueueFullError struct {
	Key      string
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("%s: %q on shard %d (%d/%d)", ErrQueueFull, e.Key, e.Shard, e.Length, e.Capacity)
}

func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }
