package client

import (
	"context"
	"sync"

	"github.com/disasterwatch/client/internal/shardqueue"
)

// executor abstracts the job runner behind refetches and enrichment calls.
type executor interface {
	Submit(context.Context, string, shardqueue.Job) error
	Stop()
}

// newDefaultExecutor constructs the shardqueue executor from cfg.
func newDefaultExecutor(cfg shardqueue.Config) *shardqueue.ShardExecutor {
	return shardqueue.NewShardExecutor(cfg)
}

// pending counts executor jobs whose completion has not run yet.
type pending struct {
	mu      sync.Mutex
	n       int
	waiters []chan struct{}
}

func (p *pending) add() {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
}

func (p *pending) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n--
	if p.n > 0 {
		return
	}
	for _, w := range p.waiters {
		close(w)
	}
	p.waiters = nil
}

// wait returns once the count drops to zero.
func (p *pending) wait(ctx context.Context) error {
	p.mu.Lock()
	if p.n == 0 {
		p.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
