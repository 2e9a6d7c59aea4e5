// Package reconcile is the synchronization core. It owns the freshness state
// of every tracked cache partition and decides when to refetch.
//
// All decisions run on a single loop goroutine, one task at a time: push
// signals, user-action follow-ups and fetch completions are posted as tasks.
// Network calls never run on the loop; refetches are handed to the shard
// executor and their result is posted back. Per partition at most one fetch
// is in flight, so completions for a partition apply in issue order and the
// last completed fetch wins.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/disasterwatch/client/internal/cache"
	"github.com/disasterwatch/client/internal/job"
	"github.com/disasterwatch/client/internal/notify"
	"github.com/disasterwatch/client/internal/shardqueue"
	"github.com/disasterwatch/client/internal/types"
)

// Loader fetches the full content of one partition.
type Loader func(ctx context.Context, key cache.Key) (any, error)

// Submitter runs jobs off the loop; *shardqueue.ShardExecutor satisfies it.
type Submitter interface {
	Submit(ctx context.Context, key string, j shardqueue.Job) error
}

// Config wires a Core.
type Config struct {
	Cache    *cache.Cache
	Load     Loader
	Executor Submitter

	// FetchTimeout bounds each fetch attempt. Zero means no bound.
	FetchTimeout time.Duration
	Logger       zerolog.Logger

	// OnChange runs on the loop after the cache, the tracked set or the
	// connection status changed.
	OnChange func()
	// OnError runs on the loop when a refresh finally failed.
	OnError func(key cache.Key, err error)
}

// Core is the synchronization core.
type Core struct {
	cfg Config
	log zerolog.Logger

	qmu   sync.Mutex
	queue []func()
	wake  chan struct{}

	// busy counts queued tasks plus fetches in flight; Settle waits for zero.
	imu     sync.Mutex
	busy    int
	waiters []chan struct{}

	// mu guards the fields below. Only the loop writes them.
	mu         sync.RWMutex
	partitions map[cache.Key]*partition
	connected  bool
	lastSync   time.Time

	seq    uint64
	listed map[string]struct{} // ids of the last applied disaster list; loop only
	runCtx context.Context
	now    func() time.Time
}

// New builds a Core; call Run to start it.
func New(cfg Config) (*Core, error) {
	if cfg.Cache == nil || cfg.Load == nil || cfg.Executor == nil {
		return nil, errors.New("reconcile: cache, loader and executor are required")
	}
	return &Core{
		cfg:        cfg,
		log:        cfg.Logger,
		wake:       make(chan struct{}, 1),
		partitions: make(map[cache.Key]*partition),
		runCtx:     context.Background(),
		now:        time.Now,
	}, nil
}

// Run executes tasks until ctx is done. Fetches issued by the loop inherit
// ctx, so cancelling it also abandons in-flight work.
func (c *Core) Run(ctx context.Context) error {
	c.runCtx = ctx
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wake:
		}
		for {
			task, ok := c.next()
			if !ok {
				break
			}
			task()
			c.release()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// post schedules fn on the loop. It never blocks.
func (c *Core) post(fn func()) {
	c.acquire()
	c.qmu.Lock()
	c.queue = append(c.queue, fn)
	c.qmu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Core) next() (func(), bool) {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	if len(c.queue) == 0 {
		return nil, false
	}
	fn := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return fn, true
}

func (c *Core) acquire() {
	c.imu.Lock()
	c.busy++
	c.imu.Unlock()
}

func (c *Core) release() {
	c.imu.Lock()
	defer c.imu.Unlock()
	c.busy--
	if c.busy == 0 {
		for _, w := range c.waiters {
			close(w)
		}
		c.waiters = nil
	}
}

// Settle blocks until no task is queued and no fetch is in flight.
func (c *Core) Settle(ctx context.Context) error {
	c.imu.Lock()
	if c.busy == 0 {
		c.imu.Unlock()
		return nil
	}
	w := make(chan struct{})
	c.waiters = append(c.waiters, w)
	c.imu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---------------- public operations (posted to the loop) ----------------

// Track starts following key. The first reference loads it; later calls are
// no-ops.
func (c *Core) Track(key cache.Key) {
	c.post(func() { c.track(key) })
}

// Invalidate marks key out of date. Untracked partitions are ignored.
func (c *Core) Invalidate(key cache.Key) {
	c.post(func() { c.invalidate(key) })
}

// Refresh is a user-requested reload. It tracks key when needed.
func (c *Core) Refresh(key cache.Key) {
	c.post(func() {
		if !c.track(key) {
			c.invalidate(key)
		}
	})
}

// Forget stops tracking key and drops its data.
func (c *Core) Forget(key cache.Key) {
	c.post(func() {
		c.mu.Lock()
		delete(c.partitions, key)
		c.mu.Unlock()
		c.cfg.Cache.Evict(key)
		c.changed()
	})
}

// EvictDisaster drops every partition of a deleted disaster.
func (c *Core) EvictDisaster(disasterID string) {
	c.post(func() { c.evictDisaster(disasterID) })
}

// HandleSignal applies a classified push event.
func (c *Core) HandleSignal(sig notify.Signal) {
	c.post(func() {
		for _, key := range c.keysFor(sig) {
			c.invalidate(key)
		}
	})
}

// SetConnected records the push channel status.
func (c *Core) SetConnected(connected bool) {
	c.post(func() {
		c.mu.Lock()
		c.connected = connected
		c.mu.Unlock()
		c.changed()
	})
}

// ---------------- readers (any goroutine) ----------------

// State returns the freshness of key; ok is false when it is not tracked.
func (c *Core) State(key cache.Key) (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.partitions[key]
	if !ok {
		return 0, false
	}
	return p.state, true
}

// Refreshing lists partitions with a fetch in flight.
func (c *Core) Refreshing() map[cache.Key]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[cache.Key]bool)
	for k, p := range c.partitions {
		if p.state == Refreshing {
			out[k] = true
		}
	}
	return out
}

// Tracked lists tracked partitions.
func (c *Core) Tracked() []cache.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]cache.Key, 0, len(c.partitions))
	for k := range c.partitions {
		out = append(out, k)
	}
	return out
}

// Connected reports the last recorded push channel status.
func (c *Core) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// LastSync is the time of the last successful refresh.
func (c *Core) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// ---------------- loop internals ----------------

// track reports whether key was newly tracked.
func (c *Core) track(key cache.Key) bool {
	c.mu.Lock()
	if _, ok := c.partitions[key]; ok {
		c.mu.Unlock()
		return false
	}
	p := &partition{state: Stale}
	c.partitions[key] = p
	c.mu.Unlock()

	c.startRefresh(key, p)
	return true
}

func (c *Core) invalidate(key cache.Key) {
	kind := string(key.Kind)
	c.mu.Lock()
	p, ok := c.partitions[key]
	if !ok {
		c.mu.Unlock()
		invalidationsTotal.WithLabelValues(kind, "ignored").Inc()
		return
	}
	if p.state == Refreshing {
		p.pending = true
		c.mu.Unlock()
		invalidationsTotal.WithLabelValues(kind, "coalesced").Inc()
		return
	}
	p.state = Stale
	c.mu.Unlock()

	invalidationsTotal.WithLabelValues(kind, "refresh").Inc()
	c.cfg.Cache.Invalidate(key)
	c.startRefresh(key, p)
}

func (c *Core) startRefresh(key cache.Key, p *partition) {
	c.seq++
	seq := c.seq

	c.mu.Lock()
	p.state = Refreshing
	p.pending = false
	p.seq = seq
	c.mu.Unlock()
	c.publishStates()

	name := key.String()
	fetchesByShard.WithLabelValues(job.ShardLabel(name)).Inc()
	started := c.now()

	// The fetch counts as busy until its completion task is queued.
	c.acquire()
	f := &job.Fetch{
		Key:     name,
		Timeout: c.cfg.FetchTimeout,
		Load:    func(ctx context.Context) (any, error) { return c.cfg.Load(ctx, key) },
		Done: func(data any, err error) {
			c.post(func() { c.complete(key, seq, started, data, err) })
			c.release()
		},
	}
	c.log.Debug().Str("partition", name).Uint64("seq", seq).Msg("refresh issued")
	if err := c.cfg.Executor.Submit(c.runCtx, name, f); err != nil {
		c.release()
		c.complete(key, seq, started, nil, err)
	}
}

func (c *Core) complete(key cache.Key, seq uint64, started time.Time, data any, err error) {
	kind := string(key.Kind)
	refreshDuration.WithLabelValues(kind).Observe(c.now().Sub(started).Seconds())

	c.mu.Lock()
	p, ok := c.partitions[key]
	if !ok || p.seq != seq {
		c.mu.Unlock()
		refreshesTotal.WithLabelValues(kind, "dropped").Inc()
		c.log.Debug().Str("partition", key.String()).Uint64("seq", seq).Msg("completion for untracked partition dropped")
		return
	}
	if err != nil {
		p.state = Stale
	} else {
		p.state = Fresh
		c.lastSync = c.now()
	}
	pending := p.pending
	c.mu.Unlock()

	if err != nil {
		refreshesTotal.WithLabelValues(kind, "error").Inc()
		c.log.Warn().Err(err).Str("partition", key.String()).Msg("refresh failed")
		if c.cfg.OnError != nil {
			c.cfg.OnError(key, err)
		}
	} else {
		refreshesTotal.WithLabelValues(kind, "ok").Inc()
		c.cfg.Cache.Replace(key, data)
		if key.Kind == cache.KindDisasters {
			if ds, ok := data.([]types.Disaster); ok {
				c.fanOut(ds)
			}
		}
	}

	if pending {
		c.cfg.Cache.Invalidate(key)
		c.startRefresh(key, p)
	}
	c.publishStates()
	c.changed()
}

// fanOut evicts the partitions of disasters that were in the previous list
// and are missing from ds. Ids never listed are left alone: a watch may start
// before the list that contains its disaster arrives.
func (c *Core) fanOut(ds []types.Disaster) {
	next := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		next[d.ID] = struct{}{}
	}
	prev := c.listed
	c.listed = next
	for id := range prev {
		if _, ok := next[id]; ok {
			continue
		}
		c.log.Debug().Str("disaster_id", id).Msg("disaster vanished; evicting partitions")
		c.evictDisaster(id)
	}
}

func (c *Core) evictDisaster(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	for k := range c.partitions {
		if k.DisasterID == id {
			delete(c.partitions, k)
		}
	}
	c.mu.Unlock()
	c.cfg.Cache.EvictDisaster(id)
	c.publishStates()
	c.changed()
}

// keysFor resolves a signal to the tracked partitions it invalidates.
func (c *Core) keysFor(sig notify.Signal) []cache.Key {
	switch sig.Kind {
	case notify.DisastersChanged:
		return []cache.Key{cache.DisastersKey()}
	case notify.SocialMediaChanged:
		return []cache.Key{cache.SocialMediaKey(sig.DisasterID)}
	case notify.ResourcesChanged:
		var keys []cache.Key
		c.mu.RLock()
		for k := range c.partitions {
			if k.Kind != cache.KindResources {
				continue
			}
			if sig.DisasterID == "" || k.DisasterID == sig.DisasterID {
				keys = append(keys, k)
			}
		}
		c.mu.RUnlock()
		if len(keys) == 0 {
			invalidationsTotal.WithLabelValues(string(cache.KindResources), "ignored").Inc()
		}
		return keys
	default:
		return nil
	}
}

func (c *Core) changed() {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange()
	}
}

func (c *Core) publishStates() {
	counts := map[State]int{Stale: 0, Refreshing: 0, Fresh: 0}
	c.mu.RLock()
	for _, p := range c.partitions {
		counts[p.state]++
	}
	c.mu.RUnlock()
	for s, n := range counts {
		partitionsGauge.WithLabelValues(s.String()).Set(float64(n))
	}
}
