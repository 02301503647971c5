package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clinicops/leadwatch/pkg/logging"
)

const (
	notificationAutoDismiss = 10 * time.Second
	titleFlashDuration      = 10 * time.Second
	newLeadsFlagDuration    = 5 * time.Second
	titleMarker             = "🔔 New Appointment! "
)

// afterFunc schedules fn after d and returns a stop function. Injectable for tests.
type afterFunc func(d time.Duration, fn func()) (stop func())

func defaultAfter(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Dispatcher alerts the operator about a newly detected lead. Every side
// effect (audio cue, system notification, title flash, in-app flag) is
// isolated so one failing surface never suppresses the others. The whole
// dispatcher is a no-op unless the permission provider reports granted.
type Dispatcher struct {
	perms    PermissionProvider
	audio    AudioCue
	notifier SystemNotifier
	title    TitleBar
	viewport Viewport
	logger   *logging.Logger
	after    afterFunc

	mu            sync.Mutex
	hasNewLeads   bool
	flagStop      func()
	dismissStops  map[string]func()
	origTitle     string
	flashing      bool
	titleStop     func()
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithAfter injects the delayed-call primitive used for auto-dismiss and
// flag expiry timers.
func WithAfter(after afterFunc) DispatcherOption {
	return func(d *Dispatcher) {
		d.after = after
	}
}

// NewDispatcher creates a dispatcher. Any capability may be nil, in which
// case the corresponding side effect is skipped.
func NewDispatcher(perms PermissionProvider, audio AudioCue, notifier SystemNotifier, title TitleBar, viewport Viewport, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if perms == nil {
		perms = StaticPermission(PermissionUnsupported)
	}
	d := &Dispatcher{
		perms:        perms,
		audio:        audio,
		notifier:     notifier,
		title:        title,
		viewport:     viewport,
		logger:       logger,
		after:        defaultAfter,
		dismissStops: make(map[string]func()),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NotifyNewLead alerts the operator about one new appointment.
func (d *Dispatcher) NotifyNewLead(ctx context.Context, appt Appointment) {
	if perm := d.perms.Permission(); perm != PermissionGranted {
		d.logger.Debug("lead alert suppressed", "permission", string(perm), "id", appt.ID)
		return
	}

	d.playAudio(ctx)
	d.showNotification(ctx, appt)
	d.flashTitle()
	d.markNewLeads()
}

// HasNewLeads reports the transient in-app banner flag. It clears itself
// five seconds after the last new lead was dispatched.
func (d *Dispatcher) HasNewLeads() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasNewLeads
}

func (d *Dispatcher) playAudio(ctx context.Context) {
	if d.audio == nil {
		return
	}
	if err := d.audio.Play(ctx); err != nil {
		// Playback is frequently blocked by runtime policy; never fatal.
		d.logger.Warn("audio cue failed", "error", err)
	}
}

func (d *Dispatcher) showNotification(ctx context.Context, appt Appointment) {
	if d.notifier == nil {
		return
	}

	note := LeadNotification{
		Tag:                appt.ID,
		Title:              "New Appointment Request",
		Body:               formatLeadBody(appt),
		RequireInteraction: true,
		OnClick: func() {
			if d.viewport != nil {
				d.viewport.Focus()
				d.viewport.ScrollTo(appt.ID)
			}
		},
	}

	handle, err := d.notifier.Show(ctx, note)
	if err != nil {
		d.logger.Warn("system notification failed", "error", err, "id", appt.ID)
		return
	}

	d.mu.Lock()
	if stop, ok := d.dismissStops[appt.ID]; ok {
		stop()
	}
	d.dismissStops[appt.ID] = d.after(notificationAutoDismiss, func() {
		if err := handle.Close(); err != nil {
			d.logger.Debug("notification dismiss failed", "error", err, "id", appt.ID)
		}
		d.mu.Lock()
		delete(d.dismissStops, appt.ID)
		d.mu.Unlock()
	})
	d.mu.Unlock()
}

func (d *Dispatcher) flashTitle() {
	if d.title == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.flashing {
		// Re-flash: keep the original title captured on the first flash.
		d.titleStop()
	} else {
		d.origTitle = d.title.Get()
		d.flashing = true
	}
	d.title.Set(titleMarker + d.origTitle)
	d.titleStop = d.after(titleFlashDuration, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.title.Set(d.origTitle)
		d.flashing = false
	})
}

func (d *Dispatcher) markNewLeads() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.flagStop != nil {
		d.flagStop()
	}
	d.hasNewLeads = true
	d.flagStop = d.after(newLeadsFlagDuration, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.hasNewLeads = false
		d.flagStop = nil
	})
}

func formatLeadBody(appt Appointment) string {
	return fmt.Sprintf("%s — %s\n%s at %s\n%s", appt.Name, appt.Service, appt.Date, appt.Time, appt.Phone)
}
