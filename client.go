// Package client keeps a local picture of active disasters in sync with the
// disaster API. REST responses fill a partitioned cache; push notifications
// only invalidate partitions, which the synchronization core then refetches.
// Views derived from the cache are delivered to subscribers.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/disasterwatch/client/internal/api"
	"github.com/disasterwatch/client/internal/cache"
	"github.com/disasterwatch/client/internal/config"
	apierrors "github.com/disasterwatch/client/internal/errors"
	"github.com/disasterwatch/client/internal/gateway"
	"github.com/disasterwatch/client/internal/job"
	"github.com/disasterwatch/client/internal/notify"
	"github.com/disasterwatch/client/internal/projector"
	"github.com/disasterwatch/client/internal/reconcile"
	"github.com/disasterwatch/client/internal/session"
	"github.com/disasterwatch/client/internal/types"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

type Client struct {
	cfg          *config.Config
	log          zerolog.Logger
	http         *http.Client
	debug        bool
	transport    notify.Transport
	noticeBuffer int

	session  *session.Session
	gw       gateway.Caller
	exec     executor
	cache    *cache.Cache
	core     *reconcile.Core
	listener *notify.Listener

	subMu  sync.RWMutex
	subs   map[int]func(View)
	nextID int

	noticeMu sync.Mutex
	notices  chan Notice

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	enrichments pending

	started    uint32
	closedOnce uint32
}

// New constructs a Client from cfg (nil means DefaultConfig). It does not
// touch the network until Start.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	copied := *cfg
	c := &Client{
		cfg:          &copied,
		log:          zerolog.Nop(),
		http:         &http.Client{Timeout: cfg.HTTPTimeout},
		debug:        cfg.Debug,
		noticeBuffer: 64,
		subs:         make(map[int]func(View)),
	}

	// Auto-enable debug via env variable without changing code.
	if gateway.DebugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	sess, err := session.New(c.cfg.DefaultUser, c.cfg.Roster, c.cfg.Admins)
	if err != nil {
		return nil, err
	}
	c.session = sess
	c.notices = make(chan Notice, c.noticeBuffer)
	c.ctx, c.cancel = context.WithCancel(context.Background())

	// Identity header on every request, read from the session at send time.
	gateway.Wrap(c.http, c.session, c.debug)
	c.gw = gateway.New(c.cfg.APIBaseURL, c.http, c.log.With().Str("component", "gateway").Logger())

	qcfg := c.cfg.Queue
	qcfg.Logger = c.log.With().Str("component", "shardqueue").Logger()
	c.exec = newDefaultExecutor(qcfg)

	c.cache = cache.New()
	c.core, err = reconcile.New(reconcile.Config{
		Cache:        c.cache,
		Load:         c.load,
		Executor:     c.exec,
		FetchTimeout: c.cfg.FetchTimeout,
		Logger:       c.log.With().Str("component", "reconcile").Logger(),
		OnChange:     c.publish,
		OnError:      c.refreshFailed,
	})
	if err != nil {
		c.exec.Stop()
		return nil, err
	}

	if c.transport == nil {
		c.transport = c.defaultTransport()
	}
	c.listener = notify.NewListener(c.transport,
		notify.WithLogger(c.log.With().Str("component", "notify").Logger()),
		notify.WithReconnect(c.cfg.ReconnectMin, c.cfg.ReconnectMax),
	)
	for _, kind := range []notify.SignalKind{notify.DisastersChanged, notify.SocialMediaChanged, notify.ResourcesChanged} {
		c.listener.OnInvalidate(kind, c.core.HandleSignal)
	}
	c.listener.OnStatus(c.core.SetConnected)
	return c, nil
}

func (c *Client) defaultTransport() notify.Transport {
	log := c.log.With().Str("component", "push").Logger()
	if c.cfg.PushTransport == config.TransportMQTT {
		return notify.NewMQTT(c.cfg.MQTTBroker, c.cfg.MQTTTopicPrefix, c.cfg.MQTTClientID, log)
	}
	return notify.NewSocketIO(c.cfg.PushURL, log)
}

// Start runs the synchronization loop and the push listener and loads the
// disaster list. They stop on Close.
func (c *Client) Start() error {
	if atomic.LoadUint32(&c.closedOnce) == 1 {
		return ErrClosed
	}
	if !atomic.CompareAndSwapUint32(&c.started, 0, 1) {
		return ErrAlreadyStarted
	}
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		_ = c.core.Run(c.ctx)
	}()
	go func() {
		defer c.wg.Done()
		_ = c.listener.Run(c.ctx)
	}()
	c.core.Track(cache.DisastersKey())
	c.log.Info().Str("api", c.cfg.APIBaseURL).Str("push", c.transport.Name()).Str("user", c.session.Current()).Msg("client started")
	return nil
}

// Close stops the loop, the listener and the executor. Safe to call multiple
// times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// Settle blocks until every queued task, in-flight refresh and pending
// geocoding enrichment has finished.
func (c *Client) Settle(ctx context.Context) error {
	if err := c.enrichments.wait(ctx); err != nil {
		return err
	}
	// A finished enrichment may have invalidated the list.
	return c.core.Settle(ctx)
}

func (c *Client) closed() bool { return atomic.LoadUint32(&c.closedOnce) == 1 }

// --------------------------------------------------------------------
// Session
// --------------------------------------------------------------------

// User returns the acting user.
func (c *Client) User() string { return c.session.Current() }

// Roster lists the users SetUser accepts.
func (c *Client) Roster() []string { return c.session.Roster() }

// SetUser switches the acting user. Views are re-projected because delete
// affordances depend on it.
func (c *Client) SetUser(name string) error {
	if err := c.session.Set(name); err != nil {
		actionsTotal.WithLabelValues("set_user", "validation").Inc()
		c.notify(Error, err.Error(), err)
		return err
	}
	actionsTotal.WithLabelValues("set_user", "ok").Inc()
	c.log.Info().Str("user", name).Msg("user changed")
	c.publish()
	return nil
}

// --------------------------------------------------------------------
// Views and notices
// --------------------------------------------------------------------

// View projects the current cache.
func (c *Client) View() View {
	return projector.Project(projector.Input{
		Entries:    c.cache.Snapshot(),
		Tracked:    c.core.Tracked(),
		Refreshing: c.core.Refreshing(),
		User:       c.session.Current(),
		Admins:     c.session.Admins(),
		Connected:  c.core.Connected(),
		LastSync:   c.core.LastSync(),
	})
}

// Subscribe registers fn for every new View. fn runs on the synchronization
// loop and must return quickly. The returned func unsubscribes.
func (c *Client) Subscribe(fn func(View)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Notices delivers success and failure notices. Undrained notices beyond the
// buffer are discarded oldest first.
func (c *Client) Notices() <-chan Notice { return c.notices }

func (c *Client) publish() {
	c.subMu.RLock()
	subs := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.RUnlock()
	if len(subs) == 0 {
		return
	}
	v := c.View()
	for _, fn := range subs {
		fn(v)
	}
}

func (c *Client) refreshFailed(key cache.Key, err error) {
	c.notify(Error, fmt.Sprintf("Failed to load %s", describe(key)), err)
}

func describe(key cache.Key) string {
	name := strings.ReplaceAll(string(key.Kind), "_", " ")
	if key.DisasterID != "" {
		return name + " for disaster " + key.DisasterID
	}
	return name
}

// --------------------------------------------------------------------
// Partitions
// --------------------------------------------------------------------

// WatchSocialMedia follows the social media feed of a disaster.
func (c *Client) WatchSocialMedia(disasterID string) error {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return err
	}
	c.core.Track(cache.SocialMediaKey(disasterID))
	return nil
}

// WatchResources follows nearby resources of a disaster. A zero query uses
// the configured centre and radius.
func (c *Client) WatchResources(disasterID string, q ResourceQuery) (PartitionKey, error) {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return PartitionKey{}, err
	}
	if q.IsZero() {
		q = c.cfg.DefaultResourceQuery()
	}
	if err := types.ValidateResourceQuery(q); err != nil {
		return PartitionKey{}, err
	}
	key := cache.ResourcesKey(disasterID, q)
	c.core.Track(key)
	return key, nil
}

// WatchOfficialUpdates follows the official updates of a disaster.
func (c *Client) WatchOfficialUpdates(disasterID string) error {
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		return err
	}
	c.core.Track(cache.OfficialUpdatesKey(disasterID))
	return nil
}

// Unwatch stops following a partition and drops its data.
func (c *Client) Unwatch(key PartitionKey) { c.core.Forget(key) }

// Refresh reloads a partition now; it is the manual retry after a failure.
func (c *Client) Refresh(key PartitionKey) { c.core.Refresh(key) }

// State reports the freshness of a tracked partition.
func (c *Client) State(key PartitionKey) (PartitionState, bool) { return c.core.State(key) }

// --------------------------------------------------------------------
// Actions
// --------------------------------------------------------------------

// CreateDisaster creates a disaster owned by the acting user. When the request
// carries a location name or description a geocoding call enriches it in the
// background; its failure is reported as a warning and never undoes the
// creation.
func (c *Client) CreateDisaster(ctx context.Context, req CreateDisasterRequest) (*Disaster, error) {
	if c.closed() {
		return nil, ErrClosed
	}
	d, err := api.CreateDisaster(ctx, c.gw, req)
	if err != nil {
		c.actionFailed("create_disaster", "Failed to create disaster", err)
		return nil, err
	}
	actionsTotal.WithLabelValues("create_disaster", "ok").Inc()
	c.notify(Success, "Disaster created successfully!", nil)
	c.core.Refresh(cache.DisastersKey())

	if req.HasLocationHint() {
		c.enrich(d.ID, req)
	}
	return d, nil
}

// enrich submits the geocoding call for a new disaster.
func (c *Client) enrich(disasterID string, req CreateDisasterRequest) {
	g := types.GeocodeRequest{DisasterID: disasterID, LocationName: req.LocationName, Description: req.Description}
	c.enrichments.add()
	// Run returns the raw gateway error so transient failures are retried.
	j := job.Notify(func(ctx context.Context) error {
		_, err := api.Geocode(ctx, c.gw, g)
		return err
	}, func(err error) {
		defer c.enrichments.done()
		if err != nil {
			actionsTotal.WithLabelValues("geocode_enrichment", "error").Inc()
			c.notify(Warning, "Disaster created, but its location could not be geocoded",
				apierrors.NewEnrichmentError("geocode "+disasterID, err))
			return
		}
		actionsTotal.WithLabelValues("geocode_enrichment", "ok").Inc()
		// The server may have stored the resolved location.
		c.core.Invalidate(cache.DisastersKey())
	})
	if err := c.exec.Submit(c.ctx, "geocode/"+disasterID, j); err != nil {
		c.enrichments.done()
		c.notify(Warning, "Disaster created, but geocoding could not be scheduled",
			apierrors.NewEnrichmentError("geocode "+disasterID, err))
	}
}

// DeleteDisaster deletes a disaster. Only its owner or an admin may; the check
// runs locally before any request when the disaster is known.
func (c *Client) DeleteDisaster(ctx context.Context, disasterID string) error {
	if c.closed() {
		return ErrClosed
	}
	if err := types.ValidateIDPresent(disasterID, "disasterId"); err != nil {
		c.actionFailed("delete_disaster", "Failed to delete disaster", err)
		return err
	}
	if owner, ok := c.ownerOf(disasterID); ok && !c.session.CanModify(owner) {
		err := apierrors.NewValidationError("disasterId", "only the owner or an admin can delete this disaster")
		c.actionFailed("delete_disaster", "Failed to delete disaster", err)
		return err
	}
	if err := api.DeleteDisaster(ctx, c.gw, disasterID); err != nil {
		c.actionFailed("delete_disaster", "Failed to delete disaster", err)
		return err
	}
	actionsTotal.WithLabelValues("delete_disaster", "ok").Inc()
	c.notify(Success, "Disaster deleted successfully", nil)
	c.core.EvictDisaster(disasterID)
	c.core.Refresh(cache.DisastersKey())
	return nil
}

func (c *Client) ownerOf(disasterID string) (string, bool) {
	e, ok := c.cache.Get(cache.DisastersKey())
	if !ok {
		return "", false
	}
	ds, _ := e.Data.([]types.Disaster)
	for _, d := range ds {
		if d.ID == disasterID {
			return d.OwnerID, true
		}
	}
	return "", false
}

// SubmitReport files a citizen report. When it carries an image URL the image
// is verified and the verification returned.
func (c *Client) SubmitReport(ctx context.Context, disasterID string, req ReportRequest) (*ImageVerification, error) {
	if c.closed() {
		return nil, ErrClosed
	}
	if strings.TrimSpace(disasterID) == "" {
		err := apierrors.NewValidationError("disasterId", "please select a disaster")
		c.actionFailed("submit_report", "Failed to submit report", err)
		return nil, err
	}
	if err := types.ValidateImageURL(req.ImageURL); err != nil {
		c.actionFailed("submit_report", "Failed to submit report", err)
		return nil, err
	}

	var verification *ImageVerification
	if req.ImageURL != "" {
		v, err := api.VerifyImage(ctx, c.gw, disasterID, req.ImageURL)
		if err != nil {
			c.actionFailed("submit_report", "Failed to submit report", err)
			return nil, err
		}
		verification = v
	}
	actionsTotal.WithLabelValues("submit_report", "ok").Inc()
	c.notify(Success, "Report submitted successfully!", nil)
	return verification, nil
}

// Geocode extracts and resolves a location from free text.
func (c *Client) Geocode(ctx context.Context, description string) (*GeocodeResult, error) {
	if c.closed() {
		return nil, ErrClosed
	}
	res, err := api.Geocode(ctx, c.gw, types.GeocodeRequest{Description: description})
	if err != nil {
		c.actionFailed("geocode", "Geocoding failed", err)
		return nil, err
	}
	actionsTotal.WithLabelValues("geocode", "ok").Inc()
	return res, nil
}

func (c *Client) actionFailed(action, msg string, err error) {
	outcome := "error"
	if apierrors.IsValidation(err) {
		outcome = "validation"
		msg = msg + ": " + validationMessage(err)
	}
	actionsTotal.WithLabelValues(action, outcome).Inc()
	c.notify(Error, msg, err)
}

func validationMessage(err error) string {
	var ae *apierrors.APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
