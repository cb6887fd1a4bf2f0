// Package notify provides a multi-channel notification system. Notifications
// are dispatched to all registered senders (Telegram, Discord, message
// buses, the status websocket) and can be filtered by event type so operators
// receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// Event types understood by the notifier.
const (
	EventOpportunity = "opportunity"
	EventStartup     = "startup"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// OpportunitySender is implemented by senders that want the structured
// opportunity instead of the rendered text.
type OpportunitySender interface {
	Sender
	SendOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error
}

// Notifier dispatches notifications to one or more Senders. It maintains a set
// of allowed event types; Notify only forwards messages whose event type is in
// the allowed set, while NotifyAll bypasses the filter.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice will be forwarded by Notify.
// If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Senders returns the names of the configured senders.
func (n *Notifier) Senders() []string {
	names := make([]string, len(n.senders))
	for i, s := range n.senders {
		names[i] = s.Name()
	}
	return names
}

// Notify sends a notification to all senders only if the event type is in the
// allowed list. If no events were configured (empty list), all events pass.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.allowed(ctx, event) {
		return nil
	}
	return n.dispatch(ctx, title, message, nil)
}

// NotifyAll sends a notification to all senders regardless of event type.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message, nil)
}

// NotifyOpportunity renders opp and delivers it on the opportunity event.
// Structured senders receive the opportunity itself.
func (n *Notifier) NotifyOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	if !n.allowed(ctx, EventOpportunity) {
		return nil
	}
	title, message := FormatOpportunity(opp)
	return n.dispatch(ctx, title, message, &opp)
}

// NotifyStartup announces that the engine is running.
func (n *Notifier) NotifyStartup(ctx context.Context, info StartupInfo) error {
	title, message := FormatStartup(info)
	return n.Notify(ctx, EventStartup, title, message)
}

func (n *Notifier) allowed(ctx context.Context, event string) bool {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return false
	}
	return true
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string, opp *domain.ArbitrageOpportunity) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		var err error
		if st, ok := s.(OpportunitySender); ok && opp != nil {
			err = st.SendOpportunity(ctx, *opp)
		} else {
			err = s.Send(ctx, title, message)
		}
		if err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
