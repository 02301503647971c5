package dashboard

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinicops/leadwatch/pkg/logging"
)

// Scheduler starts a repeating timer invoking fn every interval until the
// returned cancel function is called. Injectable so tests can count
// schedule/cancel calls without real timers.
type Scheduler func(interval time.Duration, fn func()) (cancel func())

// PollerConfig controls cadence selection.
type PollerConfig struct {
	// BusinessHourStart..BusinessHourEnd is the inclusive local-hour range
	// polled at the faster cadence. Defaults: 8..18.
	BusinessHourStart int
	BusinessHourEnd   int
	BusinessInterval  time.Duration // default 30s
	OffHoursInterval  time.Duration // default 60s
}

func (c *PollerConfig) applyDefaults() {
	if c.BusinessHourStart == 0 && c.BusinessHourEnd == 0 {
		c.BusinessHourStart = 8
		c.BusinessHourEnd = 18
	}
	if c.BusinessInterval <= 0 {
		c.BusinessInterval = 30 * time.Second
	}
	if c.OffHoursInterval <= 0 {
		c.OffHoursInterval = 60 * time.Second
	}
}

// Poller owns the single repeating poll timer. The interval is chosen from
// the local hour once per (re)start and kept until the next restart, even if
// a tick straddles the business-hours boundary. Start cancels any prior
// timer first, so at most one timer is ever active.
type Poller struct {
	mu       sync.Mutex
	cancel   func()
	tick     func()
	cfg      PollerConfig
	now      func() time.Time
	schedule Scheduler
	inFlight atomic.Bool
	logger   *logging.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithClock injects the clock used for interval selection.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		p.now = now
	}
}

// WithScheduler injects the timer primitive.
func WithScheduler(schedule Scheduler) PollerOption {
	return func(p *Poller) {
		p.schedule = schedule
	}
}

// NewPoller creates a poller invoking tick at the configured cadence.
func NewPoller(cfg PollerConfig, tick func(), logger *logging.Logger, opts ...PollerOption) *Poller {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.applyDefaults()
	p := &Poller{
		cfg:      cfg,
		tick:     tick,
		now:      time.Now,
		schedule: defaultScheduler,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IntervalFor returns the poll interval for the given local hour.
func (p *Poller) IntervalFor(hour int) time.Duration {
	if hour >= p.cfg.BusinessHourStart && hour <= p.cfg.BusinessHourEnd {
		return p.cfg.BusinessInterval
	}
	return p.cfg.OffHoursInterval
}

// Start begins polling, cancelling any previously active timer first.
// Calling Start on a running poller restarts it, re-evaluating the interval
// against the current hour.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	interval := p.IntervalFor(p.now().Hour())
	p.cancel = p.schedule(interval, p.guardedTick)
	p.logger.Info("polling started", "interval", interval.String())
}

// Stop cancels the active timer. Safe to call multiple times.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		p.logger.Info("polling stopped")
	}
}

// Running reports whether a timer is currently active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// guardedTick skips a tick while a prior one is still in flight, so a slow
// fetch can never overlap the next cycle and double-fire notifications.
func (p *Poller) guardedTick() {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Warn("poll tick skipped, previous cycle still in flight")
		return
	}
	defer p.inFlight.Store(false)
	p.tick()
}

func defaultScheduler(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
