package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ajo/internal/amqp"
	"ajo/internal/core"
	"ajo/internal/storage"
)

// Notification is one reminder addressed to one member.
type Notification struct {
	GroupID  string
	Cycle    int
	MemberID string
	Name     string
	Contact  string
	Channel  string
	Message  string
}

// Notifier delivers a single notification over its channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier simulates delivery by logging it.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) error {
	n.logger.InfoContext(ctx, "Simulated reminder delivery",
		"group_id", note.GroupID,
		"cycle", note.Cycle,
		"member_id", note.MemberID,
		"contact", note.Contact,
		"channel", note.Channel,
		"message_length", len(note.Message))
	return nil
}

// ReminderWorker turns queued reminder batches into per-member notifications.
type ReminderWorker struct {
	repo     storage.Repository
	notifier Notifier
}

// NewReminderWorker creates a worker. repo may be nil, in which case
// notifications carry member IDs only.
func NewReminderWorker(repo storage.Repository, notifier Notifier) *ReminderWorker {
	return &ReminderWorker{repo: repo, notifier: notifier}
}

// HandleReminderMessage processes a single reminder message from AMQP. Any
// failed recipient fails the message so it is redelivered.
func (w *ReminderWorker) HandleReminderMessage(ctx context.Context, msg *amqp.ReminderMessage) error {
	slog.InfoContext(ctx, "Processing reminder message",
		"id", msg.ID,
		"group_id", msg.GroupID,
		"recipients", len(msg.MemberIDs))

	members := w.lookupMembers(ctx, msg.GroupID)

	var errs []error
	delivered := 0
	for _, id := range msg.MemberIDs {
		note := Notification{
			GroupID:  msg.GroupID,
			Cycle:    msg.Cycle,
			MemberID: id,
			Channel:  msg.Channel,
			Message:  msg.Message,
		}
		if m, ok := members[id]; ok {
			note.Name = m.Name
			note.Contact = m.Contact
		}
		if err := w.notifier.Notify(ctx, note); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", id, err))
			continue
		}
		delivered++
	}

	slog.InfoContext(ctx, "Reminder message handled",
		"id", msg.ID,
		"delivered", delivered,
		"failed", len(errs))
	return errors.Join(errs...)
}

func (w *ReminderWorker) lookupMembers(ctx context.Context, groupID string) map[string]core.Member {
	if w.repo == nil || groupID == "" {
		return nil
	}
	g, err := w.repo.GetGroup(ctx, groupID)
	if err != nil {
		slog.WarnContext(ctx, "Could not load group for reminder contacts",
			"group_id", groupID, "error", err)
		return nil
	}
	out := make(map[string]core.Member, len(g.Members))
	for _, m := range g.Members {
		out[m.ID] = m
	}
	return out
}
