package notify

import (
	"context"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Transport owns one connection to the push channel. Stream blocks until the
// connection drops (returning the cause) or ctx is done (returning nil). It
// calls connected once the subscription is established and deliver for every
// event, possibly from another goroutine.
type Transport interface {
	Name() string
	Stream(ctx context.Context, connected func(), deliver func(Event)) error
}

// Listener keeps a single subscription alive and fans classified signals out
// to registered handlers. Handlers must not block; they are expected to post
// work to the synchronization loop.
type Listener struct {
	transport Transport
	log       zerolog.Logger
	minWait   time.Duration
	maxWait   time.Duration

	mu         sync.RWMutex
	byKind     map[SignalKind][]func(Signal)
	onStatus   []func(bool)
	connected  bool
	runStarted bool
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithLogger sets the listener logger.
func WithLogger(l zerolog.Logger) ListenerOption {
	return func(ln *Listener) { ln.log = l }
}

// WithReconnect bounds the exponential reconnect delay.
func WithReconnect(min, max time.Duration) ListenerOption {
	return func(ln *Listener) {
		if min > 0 {
			ln.minWait = min
		}
		if max > 0 {
			ln.maxWait = max
		}
	}
}

// NewListener builds a listener on top of t.
func NewListener(t Transport, opts ...ListenerOption) *Listener {
	l := &Listener{
		transport: t,
		log:       zerolog.Nop(),
		minWait:   500 * time.Millisecond,
		maxWait:   30 * time.Second,
		byKind:    make(map[SignalKind][]func(Signal)),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// OnInvalidate registers h for signals of kind.
func (l *Listener) OnInvalidate(kind SignalKind, h func(Signal)) {
	l.mu.Lock()
	l.byKind[kind] = append(l.byKind[kind], h)
	l.mu.Unlock()
}

// OnStatus registers h for connection status changes.
func (l *Listener) OnStatus(h func(connected bool)) {
	l.mu.Lock()
	l.onStatus = append(l.onStatus, h)
	l.mu.Unlock()
}

// Connected reports the current channel status.
func (l *Listener) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connected
}

// Run maintains the subscription until ctx is done, reconnecting with
// exponential backoff after every drop. It returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.runStarted {
		l.mu.Unlock()
		return nil
	}
	l.runStarted = true
	l.mu.Unlock()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = l.minWait
	exp.MaxInterval = l.maxWait
	exp.MaxElapsedTime = 0
	exp.Reset()

	name := l.transport.Name()
	for {
		established := false
		err := l.transport.Stream(ctx, func() {
			established = true
			connectsTotal.WithLabelValues(name, "ok").Inc()
			l.setStatus(true)
		}, l.dispatch)
		l.setStatus(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !established {
			connectsTotal.WithLabelValues(name, "error").Inc()
		} else {
			exp.Reset()
		}

		wait := exp.NextBackOff()
		l.log.Warn().Err(err).Str("transport", name).Dur("retry_in", wait).Msg("push channel lost")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Listener) dispatch(ev Event) {
	sig, ok := Classify(ev)
	if !ok {
		eventsTotal.WithLabelValues(eventLabel(ev.Name), "ignored").Inc()
		l.log.Debug().Str("event", ev.Name).Msg("push event ignored")
		return
	}
	eventsTotal.WithLabelValues(eventLabel(ev.Name), "classified").Inc()
	l.log.Debug().Str("event", ev.Name).Str("signal", sig.Kind.String()).Str("disaster_id", sig.DisasterID).Msg("push event")

	l.mu.RLock()
	handlers := l.byKind[sig.Kind]
	l.mu.RUnlock()
	for _, h := range handlers {
		h(sig)
	}
}

func (l *Listener) setStatus(connected bool) {
	l.mu.Lock()
	if l.connected == connected {
		l.mu.Unlock()
		return
	}
	l.connected = connected
	handlers := l.onStatus
	l.mu.Unlock()

	if connected {
		connectedGauge.Set(1)
		l.log.Info().Str("transport", l.transport.Name()).Msg("push channel connected")
	} else {
		connectedGauge.Set(0)
	}
	for _, h := range handlers {
		h(connected)
	}
}
