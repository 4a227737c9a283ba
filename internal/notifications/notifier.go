package notifications

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a transient user-facing message.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Success(msg string) Notification { return Notification{Level: LevelSuccess, Message: msg} }
func Error(msg string) Notification   { return Notification{Level: LevelError, Message: msg} }
func Info(msg string) Notification    { return Notification{Level: LevelInfo, Message: msg} }

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// WriterNotifier prints one line per notification, e.g. "error: Could not ...".
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(_ context.Context, note Notification) {
	if n == nil || n.w == nil || note.Message == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s: %s\n", note.Level, note.Message)
}

// LogNotifier records notifications as structured log entries.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) {
	if n == nil || n.logg == nil {
		return
	}
	ctx = n.logg.WithField(ctx, "notification_level", string(note.Level))
	if note.Level == LevelError {
		n.logg.Warn(ctx, note.Message)
		return
	}
	n.logg.Debug(ctx, note.Message)
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, note Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, note)
		}
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}
