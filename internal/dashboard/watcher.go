package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicops/leadwatch/internal/observability/metrics"
	"github.com/clinicops/leadwatch/pkg/logging"
)

const cycleTimeout = 25 * time.Second

// Fetcher retrieves the combined dashboard payload.
type Fetcher interface {
	FetchDashboardData(ctx context.Context, isPolling bool) (*DashboardData, error)
}

// LeadAlerter is an optional extra alert channel for new leads (e.g. email).
type LeadAlerter interface {
	NotifyNewLead(ctx context.Context, appt Appointment) error
}

// WatcherConfig wires a Watcher.
type WatcherConfig struct {
	Fetcher     Fetcher
	CursorStore CursorStore
	Dispatcher  *Dispatcher
	Controller  *Controller
	Alerter     LeadAlerter // optional
	Metrics     *metrics.WatcherMetrics
	Poller      PollerConfig
	// OnUnauthorized is invoked once when the API rejects the session;
	// the watcher stops polling and does not retry.
	OnUnauthorized func()
	Logger         *logging.Logger
}

// Watcher owns the fetch→detect→notify→apply cycle and all of its state:
// the cursor, the poll timer and the "first load committed" gate. Lifecycle
// is explicit: Start performs the initial load and begins polling, Stop
// cancels the timer and drops results from any fetch still in flight.
type Watcher struct {
	fetcher     Fetcher
	cursorStore CursorStore
	detector    *Detector
	dispatcher  *Dispatcher
	controller  *Controller
	alerter     LeadAlerter
	metrics     *metrics.WatcherMetrics
	poller      *Poller
	onUnauth    func()
	unauthOnce  sync.Once
	logger      *logging.Logger
	tracer      trace.Tracer
	now         func() time.Time

	mu     sync.Mutex
	cursor time.Time
	loaded bool

	live atomic.Bool
}

// NewWatcher creates a watcher. Poller options (clock, scheduler) are passed
// through so tests can drive ticks by hand.
func NewWatcher(cfg WatcherConfig, opts ...PollerOption) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	w := &Watcher{
		fetcher:     cfg.Fetcher,
		cursorStore: cfg.CursorStore,
		detector:    NewDetector(),
		dispatcher:  cfg.Dispatcher,
		controller:  cfg.Controller,
		alerter:     cfg.Alerter,
		metrics:     cfg.Metrics,
		onUnauth:    cfg.OnUnauthorized,
		logger:      logger,
		tracer:      otel.Tracer("leadwatch.internal.dashboard.watcher"),
		now:         time.Now,
	}
	w.poller = NewPoller(cfg.Poller, w.tick, logger, opts...)
	return w
}

// Start loads the cursor, performs the initial operator load (change
// detection suppressed) and begins polling. An auth rejection on the initial
// load is returned to the caller; any other fetch failure is logged and left
// to the first poll cycle to retry.
func (w *Watcher) Start(ctx context.Context) error {
	w.live.Store(true)
	w.initCursor(ctx)

	data, err := w.fetcher.FetchDashboardData(ctx, false)
	switch {
	case errors.Is(err, ErrUnauthorized):
		w.handleUnauthorized()
		return err
	case err != nil:
		w.logger.Warn("initial dashboard load failed, will retry on next poll", "error", err)
	default:
		w.commit(data)
	}

	w.poller.Start()
	return nil
}

// Stop cancels the poll timer. Results from fetches still in flight are
// discarded rather than committed.
func (w *Watcher) Stop() {
	w.live.Store(false)
	w.poller.Stop()
}

// HasNewLeads reports the dispatcher's transient banner flag.
func (w *Watcher) HasNewLeads() bool {
	if w.dispatcher == nil {
		return false
	}
	return w.dispatcher.HasNewLeads()
}

// Controller returns the view state controller.
func (w *Watcher) Controller() *Controller {
	return w.controller
}

// Cursor returns the current change-detection cursor.
func (w *Watcher) Cursor() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

// initCursor loads the persisted cursor, falling back to "now" when absent
// so no historical backlog is replayed on first run.
func (w *Watcher) initCursor(ctx context.Context) {
	cursor, found, err := w.cursorStore.Load(ctx)
	if err != nil {
		w.logger.Warn("cursor load failed, starting from now", "error", err)
	}
	if !found || err != nil {
		cursor = w.now().UTC()
	}
	w.mu.Lock()
	w.cursor = cursor
	w.mu.Unlock()
	w.logger.Info("cursor initialized", "last_checked", cursor.Format(time.RFC3339))
}

func (w *Watcher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()
	w.pollOnce(ctx)
}

// pollOnce runs one background poll cycle: fetch, detect, notify, apply.
func (w *Watcher) pollOnce(ctx context.Context) {
	if !w.live.Load() {
		return
	}

	ctx, span := w.tracer.Start(ctx, "dashboard.poll_cycle")
	defer span.End()

	start := w.now()
	data, err := w.fetcher.FetchDashboardData(ctx, true)
	w.metrics.ObserveFetchLatency(w.now().Sub(start).Seconds())

	switch {
	case errors.Is(err, ErrUnauthorized):
		w.metrics.ObservePoll("unauthorized")
		w.handleUnauthorized()
		return
	case err != nil:
		// Transient: keep prior state untouched, next tick retries.
		span.RecordError(err)
		w.metrics.ObservePoll("error")
		w.logger.Warn("poll fetch failed", "error", err)
		return
	}

	if !w.live.Load() {
		// Fetch resolved after Stop; do not commit.
		w.logger.Debug("discarding poll result after stop")
		return
	}

	// Detection runs against the cursor before the new list is committed,
	// and only once a prior successful load exists; the very first payload
	// must never flag every existing appointment as new.
	w.mu.Lock()
	loaded := w.loaded
	cursor := w.cursor
	w.mu.Unlock()

	if loaded {
		result := w.detector.Detect(data.Appointments, cursor)
		if result.AdvancedCursor != nil {
			w.advanceCursor(ctx, *result.AdvancedCursor)
			w.notify(ctx, result.New)
			w.metrics.ObserveNewLeads(len(result.New))
		}
	}

	w.commit(data)
	w.metrics.ObservePoll("ok")
}

func (w *Watcher) commit(data *DashboardData) {
	w.controller.Apply(data)
	w.mu.Lock()
	w.loaded = true
	w.mu.Unlock()
}

// advanceCursor moves the cursor forward and persists it immediately so a
// restart does not re-notify already-seen leads. The cursor never moves
// backwards within a session.
func (w *Watcher) advanceCursor(ctx context.Context, next time.Time) {
	w.mu.Lock()
	if next.After(w.cursor) {
		w.cursor = next
	}
	cursor := w.cursor
	w.mu.Unlock()

	if err := w.cursorStore.Save(ctx, cursor); err != nil {
		w.logger.Warn("cursor save failed", "error", err)
	}
}

func (w *Watcher) notify(ctx context.Context, newOnes []Appointment) {
	if len(newOnes) == 0 {
		return
	}
	w.logger.Info("new appointments detected", "count", len(newOnes))

	if w.dispatcher != nil {
		if top, ok := MostRecent(newOnes); ok {
			w.dispatcher.NotifyNewLead(ctx, top)
		}
	}
	if w.alerter != nil {
		for _, appt := range newOnes {
			if err := w.alerter.NotifyNewLead(ctx, appt); err != nil {
				w.logger.Warn("lead alert channel failed", "error", err, "id", appt.ID)
			}
		}
	}
}

func (w *Watcher) handleUnauthorized() {
	w.logger.Warn("dashboard session rejected, stopping polls")
	w.poller.Stop()
	w.unauthOnce.Do(func() {
		if w.onUnauth != nil {
			w.onUnauth()
		}
	})
}
