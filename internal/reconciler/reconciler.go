package reconciler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/catalog"
	"github.com/nerrad567/gray-logic-electrolux/internal/cloud"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
)

// Defaults.
const (
	DefaultRefetchDelay  = 70 * time.Second
	DefaultRenewInterval = 12 * time.Hour

	// setupConcurrency bounds parallel cloud calls during setup and polling.
	setupConcurrency = 4

	// streamRetryDelay is the pause before reconnecting a failed stream.
	streamRetryDelay = 10 * time.Second

	// notifyQueueSize is the number of batch notifications buffered for
	// observers. A full queue drops the notification, not the update.
	notifyQueueSize = 64
)

// DefaultTimeAttributes are the time-remaining attributes watched for the
// end-of-cycle defect.
var DefaultTimeAttributes = []string{"timeToEnd"}

// Batch origins reported to observers.
const (
	OriginSetup   = "setup"
	OriginPush    = "push"
	OriginPoll    = "poll"
	OriginRefetch = "refetch"
)

// Logger defines the logging interface used by the Reconciler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Cloud is the subset of the cloud API the reconciler needs.
// *cloud.Client satisfies it.
type Cloud interface {
	ListAppliances(ctx context.Context) ([]cloud.ApplianceSummary, error)
	GetApplianceInfo(ctx context.Context, id string) (cloud.ApplianceInfo, error)
	GetCapabilities(ctx context.Context, id string) (capability.Registry, error)
	GetState(ctx context.Context, id string) (map[string]any, error)
	SendCommand(ctx context.Context, id string, payload map[string]any) error
}

// Stream delivers live update batches. *cloud.Stream satisfies it.
type Stream interface {
	Watch(ctx context.Context, ids []string, fn func(map[string]map[string]any)) error
}

// Update describes one applied batch.
type Update struct {
	// Origin is one of the Origin* constants.
	Origin string

	// Appliances lists the ids whose state changed, sorted.
	Appliances []string

	// Added holds entities created by discovery, per appliance.
	Added map[string][]*entity.Descriptor
}

// Observer is notified once per applied batch. Notifications are delivered
// in order on a single goroutine, after the batch has been merged.
type Observer interface {
	BatchApplied(ctx context.Context, u Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, u Update)

// BatchApplied calls f.
func (f ObserverFunc) BatchApplied(ctx context.Context, u Update) { f(ctx, u) }

// Options configures a Reconciler.
type Options struct {
	// Cloud is required.
	Cloud Cloud

	// Stream is optional; without it only polling keeps state fresh.
	Stream Stream

	// Registry receives the appliance states. Required.
	Registry *appliance.Registry

	// Catalogs supplies per-model catalogs. Defaults to the built-in ones.
	Catalogs *catalog.Source

	// Factory builds entities. Required.
	Factory *entity.Factory

	// StaticAttributes overrides appliance.DefaultStaticAttributes.
	StaticAttributes []string

	// TimeAttributes overrides DefaultTimeAttributes.
	TimeAttributes []string

	RefetchDelay  time.Duration
	PollInterval  time.Duration // 0 disables polling
	RenewInterval time.Duration

	Logger  Logger
	Metrics *Metrics
}

// Reconciler merges cloud updates into appliance states.
//
// Thread Safety: All methods are safe for concurrent use.
type Reconciler struct {
	cloud    Cloud
	stream   Stream
	registry *appliance.Registry
	catalogs *catalog.Source
	factory  *entity.Factory
	static   []string
	timeKeys []string

	refetchDelay  time.Duration
	pollInterval  time.Duration
	renewInterval time.Duration

	observers   []Observer
	observersMu sync.RWMutex

	// queue feeds the dispatcher; closed by Stop
	queue        chan notification
	queueMu      sync.RWMutex
	queueClosed  bool
	dispatchDone chan struct{}

	// pending deferred refetches, by appliance id
	pending   map[string]*refetchHandle
	pendingMu sync.Mutex

	// Shutdown coordination
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger  Logger
	metrics *Metrics
}

type notification struct {
	ctx context.Context
	u   Update
}

// refetchHandle is a cancellable deferred refetch.
type refetchHandle struct {
	cancel context.CancelFunc
}

// New creates a reconciler. Call Setup, then Start.
func New(opts Options) (*Reconciler, error) {
	if opts.Cloud == nil {
		return nil, fmt.Errorf("cloud client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("appliance registry is required")
	}
	if opts.Factory == nil {
		return nil, fmt.Errorf("entity factory is required")
	}

	r := &Reconciler{
		cloud:         opts.Cloud,
		stream:        opts.Stream,
		registry:      opts.Registry,
		catalogs:      opts.Catalogs,
		factory:       opts.Factory,
		static:        opts.StaticAttributes,
		timeKeys:      opts.TimeAttributes,
		refetchDelay:  opts.RefetchDelay,
		pollInterval:  opts.PollInterval,
		renewInterval: opts.RenewInterval,
		pending:       make(map[string]*refetchHandle),
		queue:         make(chan notification, notifyQueueSize),
		dispatchDone:  make(chan struct{}),
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
	if r.catalogs == nil {
		r.catalogs = catalog.NewSource()
	}
	if r.timeKeys == nil {
		r.timeKeys = DefaultTimeAttributes
	}
	if r.refetchDelay <= 0 {
		r.refetchDelay = DefaultRefetchDelay
	}
	if r.renewInterval <= 0 {
		r.renewInterval = DefaultRenewInterval
	}
	if r.logger == nil {
		r.logger = noopLogger{}
	}
	r.ctx, r.ctxCancel = context.WithCancel(context.Background())

	go r.dispatch()
	return r, nil
}

// AddObserver registers an observer for applied batches.
func (r *Reconciler) AddObserver(o Observer) {
	r.observersMu.Lock()
	defer r.observersMu.Unlock()
	r.observers = append(r.observers, o)
}

// notify queues a batch notification without waiting for observers.
func (r *Reconciler) notify(ctx context.Context, u Update) {
	r.metrics.batch(u.Origin)

	r.queueMu.RLock()
	defer r.queueMu.RUnlock()
	if r.queueClosed {
		return
	}
	// a stream session's context ends before its notifications are handled
	n := notification{ctx: context.WithoutCancel(ctx), u: u}
	select {
	case r.queue <- n:
	default:
		r.metrics.notifyDropped()
		r.logger.Warn("observer queue full, notification dropped",
			"origin", u.Origin, "appliances", u.Appliances)
	}
}

// dispatch delivers queued notifications until the queue is closed.
func (r *Reconciler) dispatch() {
	defer close(r.dispatchDone)

	for n := range r.queue {
		r.observersMu.RLock()
		observers := slices.Clone(r.observers)
		r.observersMu.RUnlock()

		for _, o := range observers {
			o.BatchApplied(n.ctx, n.u)
		}
	}
}

// Setup lists the account's appliances and sets each one up in parallel.
// A failure for one appliance is logged and skips only that appliance.
//
// Returns:
//   - error: listing failed, or ErrNoAppliances
func (r *Reconciler) Setup(ctx context.Context) error {
	list, err := r.cloud.ListAppliances(ctx)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if len(list) == 0 {
		return ErrNoAppliances
	}

	var (
		mu  sync.Mutex
		ids []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(setupConcurrency)
	for _, summary := range list {
		g.Go(func() error {
			if err := r.setupAppliance(gctx, summary); err != nil {
				r.logger.Error("appliance setup failed", "appliance_id", summary.ID, "error", err)
				return nil
			}
			mu.Lock()
			ids = append(ids, summary.ID)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(ids)
	r.metrics.setAppliances(r.registry.Len())
	r.logger.Info("appliances set up", "count", len(ids), "listed", len(list))
	r.notify(ctx, Update{Origin: OriginSetup, Appliances: ids})
	return nil
}

func (r *Reconciler) setupAppliance(ctx context.Context, summary cloud.ApplianceSummary) error {
	info, err := r.cloud.GetApplianceInfo(ctx, summary.ID)
	if err != nil {
		r.logger.Warn("appliance info unavailable", "appliance_id", summary.ID, "error", err)
	}

	doc, err := r.cloud.GetState(ctx, summary.ID)
	if err != nil {
		return err
	}

	caps, err := r.cloud.GetCapabilities(ctx, summary.ID)
	if err != nil {
		r.logger.Warn("capabilities unavailable, inferring from catalog",
			"appliance_id", summary.ID, "error", err)
		caps = nil
	}

	st := appliance.NewState(appliance.Options{
		ID:               summary.ID,
		Name:             summary.DisplayName(),
		Brand:            info.Brand,
		Model:            info.Model,
		Catalog:          r.catalogs.ForModel(info.Model),
		Factory:          r.factory,
		StaticAttributes: r.static,
		Logger:           r.logger,
	})
	entities := st.Setup(caps, doc)
	if st.ConnectionState() == "" && summary.ConnectionState != "" {
		st.SetConnectionState(summary.ConnectionState)
	}
	r.registry.Add(st)

	r.logger.Info("appliance set up",
		"appliance_id", st.ID,
		"name", st.Name,
		"model", st.Model,
		"entities", len(entities),
		"own_capabilities", st.OwnCapabilities(),
	)
	return nil
}

// ApplyUpdate merges a batch of partial states, keyed by appliance id, and
// notifies observers once. Unknown appliances are skipped.
//
// When a time-remaining attribute in the batch is in (0, 1] a deferred
// refetch is scheduled for that appliance unless one is already pending.
func (r *Reconciler) ApplyUpdate(ctx context.Context, batch map[string]map[string]any) {
	u := Update{Origin: OriginPush, Added: map[string][]*entity.Descriptor{}}

	for id, partial := range batch {
		st, err := r.registry.Get(id)
		if err != nil {
			r.logger.Debug("update for unknown appliance", "appliance_id", id)
			continue
		}
		if added := st.ApplyReported(partial); len(added) > 0 {
			u.Added[id] = added
			r.metrics.discover(len(added))
		}
		u.Appliances = append(u.Appliances, id)
	}
	if len(u.Appliances) == 0 {
		return
	}
	slices.Sort(u.Appliances)
	r.notify(ctx, u)

	for _, id := range u.Appliances {
		if r.cycleEnding(batch[id]) {
			r.scheduleRefetch(id)
		}
	}
}

// cycleEnding reports whether any time-remaining attribute is in (0, 1].
func (r *Reconciler) cycleEnding(partial map[string]any) bool {
	for _, key := range r.timeKeys {
		v, ok := entity.ToFloat(partial[key])
		if ok && v > 0 && v <= 1 {
			return true
		}
	}
	return false
}

// scheduleRefetch starts a deferred full-state fetch for an appliance. It
// reports false when one is already pending or the reconciler is stopped.
func (r *Reconciler) scheduleRefetch(id string) bool {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()

	if r.ctx.Err() != nil {
		return false
	}
	if _, ok := r.pending[id]; ok {
		r.metrics.refetch("skipped")
		r.logger.Debug("deferred refetch already pending", "appliance_id", id)
		return false
	}

	ctx, cancel := context.WithCancel(r.ctx)
	h := &refetchHandle{cancel: cancel}
	r.pending[id] = h

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.clearPending(id, h)
		defer cancel()

		timer := time.NewTimer(r.refetchDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			r.metrics.refetch("cancelled")
			return
		case <-timer.C:
		}

		if err := r.Refresh(ctx, id); err != nil {
			r.metrics.refetch("failed")
			r.logger.Warn("deferred refetch failed", "appliance_id", id, "error", err)
			return
		}
		r.metrics.refetch("done")
	}()

	r.logger.Debug("deferred refetch scheduled", "appliance_id", id, "delay", r.refetchDelay)
	return true
}

func (r *Reconciler) clearPending(id string, h *refetchHandle) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	if r.pending[id] == h {
		delete(r.pending, id)
	}
}

// RefetchPending reports whether a deferred refetch is pending for id.
func (r *Reconciler) RefetchPending(id string) bool {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	_, ok := r.pending[id]
	return ok
}

// Refresh fetches the full state of one appliance, applies it and notifies
// observers. On failure the cached state is left as is.
func (r *Reconciler) Refresh(ctx context.Context, id string) error {
	st, err := r.registry.Get(id)
	if err != nil {
		return err
	}
	doc, err := r.cloud.GetState(ctx, id)
	if err != nil {
		return err
	}

	u := Update{Origin: OriginRefetch, Appliances: []string{id}}
	if added := st.Replace(doc); len(added) > 0 {
		u.Added = map[string][]*entity.Descriptor{id: added}
		r.metrics.discover(len(added))
	}
	r.notify(ctx, u)
	return nil
}

// RefreshAll fetches the full state of every appliance in parallel and
// notifies observers once. Failed appliances keep their cached state; the
// failures are joined into the returned error.
func (r *Reconciler) RefreshAll(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
		u    = Update{Origin: OriginPoll, Added: map[string][]*entity.Descriptor{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(setupConcurrency)
	for _, st := range r.registry.All() {
		g.Go(func() error {
			doc, err := r.cloud.GetState(gctx, st.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("appliance %s: %w", st.ID, err))
				return nil
			}
			if added := st.Replace(doc); len(added) > 0 {
				u.Added[st.ID] = added
				r.metrics.discover(len(added))
			}
			u.Appliances = append(u.Appliances, st.ID)
			return nil
		})
	}
	_ = g.Wait()

	if len(u.Appliances) > 0 {
		slices.Sort(u.Appliances)
		r.notify(ctx, u)
	}
	return errors.Join(errs...)
}

// SendCommand converts input for an entity into a command and sends it.
// The entity is addressed by unique id or key. Local state is not changed;
// the appliance reports the new value through the normal update path.
//
// Returns:
//   - map[string]any: the payload sent
//   - error: unknown appliance or entity, invalid input, or cloud failure
func (r *Reconciler) SendCommand(ctx context.Context, applianceID, ref string, input any) (map[string]any, error) {
	st, err := r.registry.Get(applianceID)
	if err != nil {
		return nil, err
	}
	payload, err := st.BuildCommand(ref, input)
	if err != nil {
		r.metrics.command("rejected")
		return nil, err
	}
	if err := r.cloud.SendCommand(ctx, applianceID, payload); err != nil {
		r.metrics.command("failed")
		return payload, err
	}
	r.metrics.command("sent")
	r.logger.Info("command sent", "appliance_id", applianceID, "entity", ref)
	return payload, nil
}

// Start runs the live stream and polling loops until Stop is called or ctx
// is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.ctx.Err() != nil {
		return ErrStopped
	}

	if r.stream != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.watchLoop(ctx)
		}()
	}
	if r.pollInterval > 0 {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.pollLoop(ctx)
		}()
	}

	r.logger.Info("reconciler started",
		"appliances", r.registry.Len(),
		"stream", r.stream != nil,
		"poll_interval", r.pollInterval,
	)
	return nil
}

// watchLoop keeps one stream session open at a time. Each session is
// closed and reopened after the renewal interval.
func (r *Reconciler) watchLoop(ctx context.Context) {
	for {
		ids := r.registry.IDs()
		if len(ids) == 0 {
			r.logger.Warn("no appliances to watch")
			return
		}

		r.metrics.session()
		sessionCtx, cancel := context.WithTimeout(r.ctx, r.renewInterval)
		stopAfter := context.AfterFunc(ctx, cancel)
		err := r.stream.Watch(sessionCtx, ids, func(batch map[string]map[string]any) {
			r.ApplyUpdate(sessionCtx, batch)
		})
		stopAfter()
		cancel()

		if ctx.Err() != nil || r.ctx.Err() != nil {
			return
		}
		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			r.logger.Debug("renewing live update stream")
			continue
		}

		r.logger.Warn("live update stream failed", "error", err, "retry_in", streamRetryDelay)
		select {
		case <-time.After(streamRetryDelay):
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Reconciler) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshAll(r.ctx); err != nil {
				r.logger.Warn("polling refresh failed", "error", err)
			}
		}
	}
}

// Forget cancels any pending refetch for an appliance and removes it from
// the registry.
func (r *Reconciler) Forget(id string) {
	r.pendingMu.Lock()
	if h, ok := r.pending[id]; ok {
		h.cancel()
		delete(r.pending, id)
	}
	r.pendingMu.Unlock()

	if r.registry.Remove(id) {
		r.metrics.setAppliances(r.registry.Len())
		r.logger.Info("appliance forgotten", "appliance_id", id)
	}
}

// Stop cancels pending refetches and the live stream, waits for background
// work to finish, then delivers any queued notifications.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		// no refetch can be scheduled once the context is cancelled
		r.pendingMu.Lock()
		r.ctxCancel()
		r.pendingMu.Unlock()

		r.wg.Wait()

		r.queueMu.Lock()
		r.queueClosed = true
		close(r.queue)
		r.queueMu.Unlock()
		<-r.dispatchDone

		r.logger.Info("reconciler stopped")
	})
}
