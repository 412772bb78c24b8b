package infra

import (
	"log/slog"

	"escrow_go/internal/domain"
)

// LogNotifier writes every engine notification to structured logs.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a notifier backed by the given logger (or the
// default logger when nil).
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

// Notify implements domain.Notifier.
func (n *LogNotifier) Notify(ev domain.Event) {
	n.log.Info("notification",
		slog.String("event", ev.EventName()),
		slog.Any("payload", ev),
	)
}

// MultiNotifier fans one event out to several notifiers in order.
type MultiNotifier []domain.Notifier

// Notify implements domain.Notifier.
func (m MultiNotifier) Notify(ev domain.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ev)
		}
	}
}
