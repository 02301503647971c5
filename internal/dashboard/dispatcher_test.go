package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualAfter collects scheduled callbacks and lets tests fire them by hand.
type manualAfter struct {
	mu      sync.Mutex
	pending []manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped *bool
}

func (m *manualAfter) after(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	stopped := false
	m.pending = append(m.pending, manualTimer{delay: d, fn: fn, stopped: &stopped})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		stopped = true
	}
}

// fire runs every pending timer that has not been stopped, then clears the queue.
func (m *manualAfter) fire() {
	m.mu.Lock()
	timers := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, t := range timers {
		if !*t.stopped {
			t.fn()
		}
	}
}

type fakeAudio struct {
	plays int
	err   error
}

func (a *fakeAudio) Play(context.Context) error {
	a.plays++
	return a.err
}

type fakeNotifier struct {
	shown  []LeadNotification
	closed int
	err    error
}

type fakeHandle struct{ n *fakeNotifier }

func (h *fakeHandle) Close() error {
	h.n.closed++
	return nil
}

func (n *fakeNotifier) Show(_ context.Context, note LeadNotification) (NotificationHandle, error) {
	if n.err != nil {
		return nil, n.err
	}
	n.shown = append(n.shown, note)
	return &fakeHandle{n: n}, nil
}

type fakeViewport struct {
	focused  int
	scrolled []string
}

func (v *fakeViewport) Focus()            { v.focused++ }
func (v *fakeViewport) ScrollTo(id string) { v.scrolled = append(v.scrolled, id) }

func newTestDispatcher(perm Permission, audio *fakeAudio, notifier *fakeNotifier, title *MemoryTitleBar, vp *fakeViewport, after *manualAfter) *Dispatcher {
	return NewDispatcher(StaticPermission(perm), audio, notifier, title, vp, nil, WithAfter(after.after))
}

func testAppt() Appointment {
	return Appointment{
		ID:        "appt-1",
		Name:      "Amit Shah",
		Phone:     "555-0101",
		Service:   "Consultation",
		Date:      "12 March 2025",
		Time:      "10:30 AM",
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestNotifyNewLeadNoopWithoutGrant(t *testing.T) {
	for _, perm := range []Permission{PermissionDefault, PermissionDenied, PermissionUnsupported} {
		t.Run(string(perm), func(t *testing.T) {
			audio := &fakeAudio{}
			notifier := &fakeNotifier{}
			after := &manualAfter{}
			d := newTestDispatcher(perm, audio, notifier, NewMemoryTitleBar("Dashboard"), &fakeViewport{}, after)

			d.NotifyNewLead(context.Background(), testAppt())

			assert.Zero(t, audio.plays)
			assert.Empty(t, notifier.shown)
			assert.False(t, d.HasNewLeads())
		})
	}
}

func TestNotifyNewLeadFiresAllSurfaces(t *testing.T) {
	audio := &fakeAudio{}
	notifier := &fakeNotifier{}
	title := NewMemoryTitleBar("Dashboard")
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, audio, notifier, title, &fakeViewport{}, after)

	d.NotifyNewLead(context.Background(), testAppt())

	assert.Equal(t, 1, audio.plays)
	require.Len(t, notifier.shown, 1)
	note := notifier.shown[0]
	assert.Equal(t, "appt-1", note.Tag)
	assert.True(t, note.RequireInteraction)
	assert.Contains(t, note.Body, "Amit Shah")
	assert.Contains(t, note.Body, "Consultation")
	assert.Contains(t, note.Body, "555-0101")
	assert.Equal(t, titleMarker+"Dashboard", title.Get())
	assert.True(t, d.HasNewLeads())
}

func TestAudioFailureDoesNotSuppressOtherSurfaces(t *testing.T) {
	audio := &fakeAudio{err: errors.New("autoplay blocked")}
	notifier := &fakeNotifier{}
	title := NewMemoryTitleBar("Dashboard")
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, audio, notifier, title, &fakeViewport{}, after)

	d.NotifyNewLead(context.Background(), testAppt())

	assert.Len(t, notifier.shown, 1)
	assert.True(t, d.HasNewLeads())
}

func TestNotifierFailureDoesNotSuppressTitleAndFlag(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("unsupported")}
	title := NewMemoryTitleBar("Dashboard")
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, &fakeAudio{}, notifier, title, &fakeViewport{}, after)

	d.NotifyNewLead(context.Background(), testAppt())

	assert.Equal(t, titleMarker+"Dashboard", title.Get())
	assert.True(t, d.HasNewLeads())
}

func TestNotificationAutoDismissed(t *testing.T) {
	notifier := &fakeNotifier{}
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, &fakeAudio{}, notifier, NewMemoryTitleBar(""), &fakeViewport{}, after)

	d.NotifyNewLead(context.Background(), testAppt())
	require.Equal(t, 0, notifier.closed)

	after.fire()
	assert.Equal(t, 1, notifier.closed)
}

func TestTitleRestoredAfterFlash(t *testing.T) {
	title := NewMemoryTitleBar("Dashboard")
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, &fakeAudio{}, &fakeNotifier{}, title, &fakeViewport{}, after)

	d.NotifyNewLead(context.Background(), testAppt())
	require.Equal(t, titleMarker+"Dashboard", title.Get())

	after.fire()
	assert.Equal(t, "Dashboard", title.Get())
}

func TestReflashKeepsOriginalTitle(t *testing.T) {
	title := NewMemoryTitleBar("Dashboard")
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, &fakeAudio{}, &fakeNotifier{}, title, &fakeViewport{}, after)

	d.NotifyNewLead(context.Background(), testAppt())
	second := testAppt()
	second.ID = "appt-2"
	d.NotifyNewLead(context.Background(), second)

	// The marker is never stacked onto an already-flashed title.
	assert.Equal(t, titleMarker+"Dashboard", title.Get())

	after.fire()
	assert.Equal(t, "Dashboard", title.Get())
}

func TestNewLeadsFlagClears(t *testing.T) {
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, &fakeAudio{}, &fakeNotifier{}, NewMemoryTitleBar(""), &fakeViewport{}, after)

	d.NotifyNewLead(context.Background(), testAppt())
	require.True(t, d.HasNewLeads())

	after.fire()
	assert.False(t, d.HasNewLeads())
}

func TestNotificationClickFocusesAndScrolls(t *testing.T) {
	notifier := &fakeNotifier{}
	vp := &fakeViewport{}
	after := &manualAfter{}
	d := newTestDispatcher(PermissionGranted, &fakeAudio{}, notifier, NewMemoryTitleBar(""), vp, after)

	d.NotifyNewLead(context.Background(), testAppt())
	require.Len(t, notifier.shown, 1)

	notifier.shown[0].OnClick()
	assert.Equal(t, 1, vp.focused)
	assert.Equal(t, []string{"appt-1"}, vp.scrolled)
}

func TestLogSystemNotifierReplacesByTag(t *testing.T) {
	n := NewLogSystemNotifier(nil)

	h1, err := n.Show(context.Background(), LeadNotification{Tag: "x", Title: "first"})
	require.NoError(t, err)
	_, err = n.Show(context.Background(), LeadNotification{Tag: "x", Title: "second"})
	require.NoError(t, err)

	// Closing the replaced handle is a harmless no-op.
	assert.NoError(t, h1.Close())
	assert.Len(t, n.open, 1)
}
