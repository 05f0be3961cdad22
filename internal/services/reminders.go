package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ajo/internal/core"
)

// Channel is a reminder delivery channel.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelCall     Channel = "call"
	ChannelWhatsApp Channel = "whatsapp"
)

// SMSMaxLength is the single-segment SMS limit.
const SMSMaxLength = 160

func (c Channel) IsValid() bool {
	switch c {
	case ChannelSMS, ChannelCall, ChannelWhatsApp:
		return true
	}
	return false
}

// DispatchResult reports what a dispatcher accepted.
type DispatchResult struct {
	Ref       string   `json:"ref"`
	Accepted  []string `json:"accepted"`
	Channel   Channel  `json:"channel"`
	Simulated bool     `json:"simulated"`
}

// ReminderDispatcher hands reminders to an external delivery mechanism.
type ReminderDispatcher interface {
	SendReminder(ctx context.Context, memberIDs []string, channel Channel, message string) (DispatchResult, error)
}

// Recipient is a member selected for a reminder, with the data a notifier needs.
type Recipient struct {
	MemberID string
	Name     string
	Contact  string
	Status   core.Status
}

// SelectRecipients returns current members whose record for the cycle derives
// to one of statuses. With no statuses given, overdue members are selected.
func SelectRecipients(g *core.Group, cycle int, asOf core.Date, statuses ...core.Status) ([]Recipient, error) {
	due, err := DueDateForCycle(g, cycle)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		statuses = []core.Status{core.StatusOverdue}
	}
	want := make(map[core.Status]bool, len(statuses))
	for _, s := range statuses {
		if !s.IsValid() {
			return nil, core.FieldError("status", fmt.Sprintf("Unknown status %q", s))
		}
		want[s] = true
	}

	var out []Recipient
	for _, m := range MembersInOrder(g) {
		st := core.StatusOf(due, nil, asOf)
		if r, ok := FindRecord(g, cycle, m.ID); ok {
			st = r.Status(asOf)
		}
		if want[st] {
			out = append(out, Recipient{MemberID: m.ID, Name: m.Name, Contact: m.Contact, Status: st})
		}
	}
	return out, nil
}

// ValidateReminder checks the channel and message constraints.
func ValidateReminder(channel Channel, message string) error {
	verr := core.NewValidationError()
	if !channel.IsValid() {
		verr.Add("channel", "Channel must be one of sms, call, whatsapp")
	}
	if strings.TrimSpace(message) == "" {
		verr.Add("message", "Message is required")
	} else if channel == ChannelSMS && utf8.RuneCountInString(message) > SMSMaxLength {
		verr.Add("message", fmt.Sprintf("SMS messages are limited to %d characters", SMSMaxLength))
	}
	return verr.OrNil()
}

// ReminderTemplate names a canned message.
type ReminderTemplate string

const (
	TemplateGentle ReminderTemplate = "gentle"
	TemplateUrgent ReminderTemplate = "urgent"
	TemplateFinal  ReminderTemplate = "final"
)

var reminderTemplates = map[ReminderTemplate]string{
	TemplateGentle: "Hi! This is a friendly reminder that your contribution of %s for %s (cycle %d) is due on %s. Thank you!",
	TemplateUrgent: "URGENT: Your contribution of %s for %s (cycle %d) was due on %s. Please pay as soon as possible.",
	TemplateFinal:  "FINAL NOTICE: Your contribution of %s for %s (cycle %d) due %s is still outstanding. Please settle today.",
}

// RenderTemplate fills a canned reminder for the given cycle.
func RenderTemplate(g *core.Group, tmpl ReminderTemplate, cycle int) (string, error) {
	format, ok := reminderTemplates[tmpl]
	if !ok {
		return "", core.FieldError("template", fmt.Sprintf("Unknown template %q", tmpl))
	}
	due, err := DueDateForCycle(g, cycle)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(format, g.ContributionAmount, g.Name, cycle, due), nil
}

// LogDispatcher simulates delivery by logging each reminder. It is used when
// no message broker is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendReminder(ctx context.Context, memberIDs []string, channel Channel, message string) (DispatchResult, error) {
	if err := ValidateReminder(channel, message); err != nil {
		return DispatchResult{}, err
	}
	for _, id := range memberIDs {
		d.logger.InfoContext(ctx, "Simulated reminder delivery",
			"member_id", id,
			"channel", channel,
			"message_length", len(message))
	}
	return DispatchResult{
		Accepted:  append([]string(nil), memberIDs...),
		Channel:   channel,
		Simulated: true,
	}, nil
}
