package services

import "context"

// ReminderMeta identifies the group and cycle a reminder batch belongs to.
// Dispatchers that forward reminders out of process attach it to the message.
type ReminderMeta struct {
	GroupID string
	Cycle   int
}

type reminderMetaKey struct{}

func WithReminderMeta(ctx context.Context, meta ReminderMeta) context.Context {
	return context.WithValue(ctx, reminderMetaKey{}, meta)
}

func ReminderMetaFrom(ctx context.Context) (ReminderMeta, bool) {
	meta, ok := ctx.Value(reminderMetaKey{}).(ReminderMeta)
	return meta, ok
}
