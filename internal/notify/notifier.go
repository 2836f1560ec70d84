package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind is the visual category of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Default lifetimes per kind, matching the original surface: errors linger
// the longest, warnings a bit less, everything else five seconds.
const (
	defaultSuccessDuration = 5 * time.Second
	defaultErrorDuration   = 7 * time.Second
	defaultWarningDuration = 6 * time.Second
	defaultInfoDuration    = 5 * time.Second
)

// Handle identifies one shown notification.
type Handle string

// Notification is a transient operator-facing message.
type Notification struct {
	ID        Handle
	Message   string
	Kind      Kind
	Title     string
	CreatedAt time.Time
	// Duration of zero means sticky: the notification stays until
	// dismissed by hand.
	Duration time.Duration
}

// Sink receives every notification as it is shown, letting the CLI print
// messages the moment they arrive.
type Sink func(Notification)

// Option adjusts a single Show call.
type Option func(*Notification)

// WithTitle overrides the per-kind default title.
func WithTitle(title string) Option {
	return func(n *Notification) { n.Title = title }
}

// WithDuration overrides the per-kind default lifetime. Zero means sticky.
func WithDuration(d time.Duration) Option {
	return func(n *Notification) { n.Duration = d }
}

// Notifier is the one notification surface for the whole screen. It is an
// explicitly constructed dependency, injected into every component that
// raises messages; there is no process-wide instance.
type Notifier struct {
	logger *zap.Logger
	sink   Sink

	mu     sync.Mutex
	active []Notification
	timers map[Handle]*time.Timer
}

// New builds an empty notifier. sink may be nil.
func New(logger *zap.Logger, sink Sink) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		logger: logger,
		sink:   sink,
		timers: map[Handle]*time.Timer{},
	}
}

// Show appends a notification and schedules its automatic removal. Without
// an explicit duration the notification is sticky and stays until
// dismissed. Repeated identical messages stack; there is no deduplication.
func (n *Notifier) Show(message string, kind Kind, opts ...Option) Handle {
	notification := Notification{
		ID:        Handle(uuid.NewString()),
		Message:   message,
		Kind:      kind,
		Title:     defaultTitle(kind),
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&notification)
	}

	n.mu.Lock()
	n.active = append(n.active, notification)
	if notification.Duration > 0 {
		id := notification.ID
		n.timers[id] = time.AfterFunc(notification.Duration, func() {
			n.Dismiss(id)
		})
	}
	n.mu.Unlock()

	n.logger.Debug("notification shown",
		zap.String("kind", string(kind)),
		zap.String("message", message),
	)

	if n.sink != nil {
		n.sink(notification)
	}
	return notification.ID
}

// Success shows an auto-expiring success notification.
func (n *Notifier) Success(message string, opts ...Option) Handle {
	return n.Show(message, KindSuccess, withDefaultDuration(KindSuccess, opts)...)
}

// Error shows an auto-expiring error notification.
func (n *Notifier) Error(message string, opts ...Option) Handle {
	return n.Show(message, KindError, withDefaultDuration(KindError, opts)...)
}

// Warning shows an auto-expiring warning notification.
func (n *Notifier) Warning(message string, opts ...Option) Handle {
	return n.Show(message, KindWarning, withDefaultDuration(KindWarning, opts)...)
}

// Info shows an auto-expiring info notification.
func (n *Notifier) Info(message string, opts ...Option) Handle {
	return n.Show(message, KindInfo, withDefaultDuration(KindInfo, opts)...)
}

func withDefaultDuration(kind Kind, opts []Option) []Option {
	return append([]Option{WithDuration(defaultDuration(kind))}, opts...)
}

// Dismiss removes a notification and cancels its pending expiry. Dismissing
// an unknown or already-removed handle is a no-op.
func (n *Notifier) Dismiss(handle Handle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removeLocked(handle)
}

// DismissAll removes every active notification.
func (n *Notifier) DismissAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, notification := range n.active {
		if timer, ok := n.timers[notification.ID]; ok {
			timer.Stop()
			delete(n.timers, notification.ID)
		}
	}
	n.active = nil
}

// Active returns a snapshot of the visible notifications in insertion
// order.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	snapshot := make([]Notification, len(n.active))
	copy(snapshot, n.active)
	return snapshot
}

func (n *Notifier) removeLocked(handle Handle) {
	if timer, ok := n.timers[handle]; ok {
		timer.Stop()
		delete(n.timers, handle)
	}
	for i, notification := range n.active {
		if notification.ID == handle {
			n.active = append(n.active[:i], n.active[i+1:]...)
			return
		}
	}
}

func defaultTitle(kind Kind) string {
	switch kind {
	case KindSuccess:
		return "Success"
	case KindError:
		return "Error"
	case KindWarning:
		return "Warning"
	default:
		return "Info"
	}
}

func defaultDuration(kind Kind) time.Duration {
	switch kind {
	case KindSuccess:
		return defaultSuccessDuration
	case KindError:
		return defaultErrorDuration
	case KindWarning:
		return defaultWarningDuration
	default:
		return defaultInfoDuration
	}
}
