package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/capability"
	"github.com/nerrad567/gray-logic-electrolux/internal/reconciler"
)

// Logger defines the logging interface used by the Recorder.
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

// Recorder writes entity values to a Repository whenever they change.
// It is a reconciler.Observer; buttons are never recorded.
type Recorder struct {
	repo     Repository
	registry *appliance.Registry
	logger   Logger
	now      func() time.Time

	// last recorded JSON value, by unique id
	last map[string]string
	mu   sync.Mutex
}

var _ reconciler.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder reading states from registry.
func NewRecorder(repo Repository, registry *appliance.Registry) *Recorder {
	return &Recorder{
		repo:     repo,
		registry: registry,
		logger:   noopLogger{},
		now:      time.Now,
		last:     make(map[string]string),
	}
}

// SetLogger sets the logger for write failures.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// BatchApplied records changed values of every appliance in the batch.
func (r *Recorder) BatchApplied(ctx context.Context, u reconciler.Update) {
	at := r.now()

	var entries []Entry
	var uids []string
	r.mu.Lock()
	for _, id := range u.Appliances {
		st, err := r.registry.Get(id)
		if err != nil {
			continue
		}
		for _, reading := range st.ReadAll() {
			if reading.Kind == capability.KindButton {
				continue
			}
			encoded, err := json.Marshal(reading.Value)
			if err != nil {
				continue
			}
			uid := reading.UniqueID
			if prev, ok := r.last[uid]; ok && prev == string(encoded) {
				continue
			}
			r.last[uid] = string(encoded)
			uids = append(uids, uid)
			entries = append(entries, Entry{
				ApplianceID: id,
				EntityKey:   reading.Key,
				Kind:        string(reading.Kind),
				Value:       reading.Value,
				Origin:      u.Origin,
				RecordedAt:  at,
			})
		}
	}
	r.mu.Unlock()

	if err := r.repo.Record(ctx, entries); err != nil {
		r.logger.Error("recording entity history failed", "error", err, "entries", len(entries))
		// Forget what failed so the next batch retries it.
		r.mu.Lock()
		for _, uid := range uids {
			delete(r.last, uid)
		}
		r.mu.Unlock()
	}
}

// Forget drops the change cache of an appliance, e.g. after it is removed.
func (r *Recorder) Forget(applianceID string) {
	st, err := r.registry.Get(applianceID)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range st.Entities() {
		delete(r.last, d.UniqueID())
	}
}

// RunPruner deletes history older than retention every interval until ctx
// is cancelled. It prunes once immediately.
func RunPruner(ctx context.Context, repo Repository, retention, interval time.Duration, logger Logger) {
	if retention <= 0 {
		return
	}
	if logger == nil {
		logger = noopLogger{}
	}

	prune := func() {
		n, err := repo.Prune(ctx, retention)
		if err != nil {
			logger.Warn("pruning entity history failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("pruned entity history", "rows", n)
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
