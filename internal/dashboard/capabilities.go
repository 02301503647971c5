package dashboard

import (
	"context"
	"sync"

	"github.com/clinicops/leadwatch/pkg/logging"
)

// Permission is the alerting permission state of the runtime environment.
// It is provided by the host, not owned by this package.
type Permission string

const (
	PermissionUnsupported Permission = "unsupported"
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
)

// PermissionProvider reports the current alerting permission.
// Implementations must be safe for concurrent use.
type PermissionProvider interface {
	Permission() Permission
}

// StaticPermission is a PermissionProvider with a fixed answer.
type StaticPermission Permission

// Permission returns the fixed permission state.
func (p StaticPermission) Permission() Permission { return Permission(p) }

// AudioCue plays a short attention sound. Playback may be blocked by
// runtime policy; implementations return an error instead of panicking.
type AudioCue interface {
	Play(ctx context.Context) error
}

// LeadNotification is the payload handed to the system notifier.
type LeadNotification struct {
	// Tag deduplicates: showing a notification with an existing tag
	// replaces the previous one instead of stacking.
	Tag   string
	Title string
	Body  string
	// RequireInteraction keeps the notification visible until dismissed.
	RequireInteraction bool
	// OnClick runs when the operator interacts with the notification.
	OnClick func()
}

// NotificationHandle dismisses a shown notification.
type NotificationHandle interface {
	Close() error
}

// SystemNotifier raises system-level notifications.
type SystemNotifier interface {
	Show(ctx context.Context, n LeadNotification) (NotificationHandle, error)
}

// TitleBar exposes the host window/tab title.
type TitleBar interface {
	Get() string
	Set(title string)
}

// Viewport brings the dashboard view to the foreground and scrolls to rows.
type Viewport interface {
	Focus()
	ScrollTo(id string)
}

// ---------------------------------------------------------------------------
// Log-backed implementations for headless runs and tests.
// ---------------------------------------------------------------------------

// LogAudioCue logs instead of playing a sound.
type LogAudioCue struct {
	logger *logging.Logger
}

// NewLogAudioCue creates a log-only audio cue.
func NewLogAudioCue(logger *logging.Logger) *LogAudioCue {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogAudioCue{logger: logger}
}

// Play logs the cue.
func (a *LogAudioCue) Play(context.Context) error {
	a.logger.Info("audio cue: new lead chime")
	return nil
}

// LogSystemNotifier logs notifications and implements tag-replacement.
type LogSystemNotifier struct {
	mu     sync.Mutex
	open   map[string]*logNotificationHandle
	logger *logging.Logger
}

// NewLogSystemNotifier creates a log-only system notifier.
func NewLogSystemNotifier(logger *logging.Logger) *LogSystemNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSystemNotifier{
		open:   make(map[string]*logNotificationHandle),
		logger: logger,
	}
}

// Show logs the notification, replacing any open one with the same tag.
func (n *LogSystemNotifier) Show(_ context.Context, note LeadNotification) (NotificationHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if prev, ok := n.open[note.Tag]; ok {
		prev.closed = true
		n.logger.Debug("notification replaced", "tag", note.Tag)
	}
	handle := &logNotificationHandle{notifier: n, tag: note.Tag}
	n.open[note.Tag] = handle
	n.logger.Info("notification shown", "tag", note.Tag, "title", note.Title, "body", note.Body)
	return handle, nil
}

type logNotificationHandle struct {
	notifier *LogSystemNotifier
	tag      string
	closed   bool
}

func (h *logNotificationHandle) Close() error {
	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	delete(h.notifier.open, h.tag)
	h.notifier.logger.Debug("notification dismissed", "tag", h.tag)
	return nil
}

// MemoryTitleBar holds the title in memory.
type MemoryTitleBar struct {
	mu    sync.Mutex
	title string
}

// NewMemoryTitleBar creates a title bar with an initial title.
func NewMemoryTitleBar(title string) *MemoryTitleBar {
	return &MemoryTitleBar{title: title}
}

// Get returns the current title.
func (t *MemoryTitleBar) Get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// Set replaces the current title.
func (t *MemoryTitleBar) Set(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = title
}

// LogViewport logs focus/scroll requests.
type LogViewport struct {
	logger *logging.Logger
}

// NewLogViewport creates a log-only viewport.
func NewLogViewport(logger *logging.Logger) *LogViewport {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogViewport{logger: logger}
}

// Focus logs the foreground request.
func (v *LogViewport) Focus() {
	v.logger.Info("viewport focus requested")
}

// ScrollTo logs the scroll target.
func (v *LogViewport) ScrollTo(id string) {
	v.logger.Info("viewport scroll requested", "id", id)
}

var _ AudioCue = (*LogAudioCue)(nil)
var _ SystemNotifier = (*LogSystemNotifier)(nil)
var _ TitleBar = (*MemoryTitleBar)(nil)
var _ Viewport = (*LogViewport)(nil)
