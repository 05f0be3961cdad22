package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ajo/internal/core"
	"ajo/internal/log"
	"ajo/internal/metrics"
	"ajo/internal/storage"
)

// MemberInput is a member as entered on the create-group form.
type MemberInput struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// GroupInput creates a group.
type GroupInput struct {
	Name               string
	ContributionAmount core.Money
	Frequency          core.Frequency
	StartDate          core.Date
	TotalCycles        int
	Members            []MemberInput
}

// GroupUpdate changes group settings. Nil fields are left unchanged.
type GroupUpdate struct {
	Name               *string
	ContributionAmount *core.Money
	Frequency          *core.Frequency
	StartDate          *core.Date
	TotalCycles        *int
}

// PaymentInput records a payment for (cycle, member).
type PaymentInput struct {
	Cycle    int
	MemberID string
	PaidDate *core.Date
	Amount   *core.Money
}

// PaymentUpdate edits a ledger entry. With PaidDateSet a nil PaidDate
// un-pays the record; without it the recorded paid date is kept.
type PaymentUpdate struct {
	PaidDate    *core.Date
	PaidDateSet bool
	Amount      *core.Money
}

// ReminderRequest sends a reminder for one cycle. When MemberIDs is empty the
// recipients are selected by Statuses (overdue by default).
type ReminderRequest struct {
	Cycle     int
	MemberIDs []string
	Statuses  []core.Status
	Channel   Channel
	Message   string
	Template  ReminderTemplate
}

// GroupService orchestrates group operations across storage, the per-group
// write lock and the reminder dispatcher.
type GroupService struct {
	repo       storage.Repository
	dispatcher ReminderDispatcher
	locks      *GroupLocks
	metrics    *metrics.Metrics
	logger     *log.Logger
	slog       *log.StructuredLogger
	today      func() core.Date
}

type Option func(*GroupService)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GroupService) { s.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(s *GroupService) { s.logger = l }
}

// WithClock overrides "today", used for deterministic tests.
func WithClock(today func() core.Date) Option {
	return func(s *GroupService) { s.today = today }
}

func NewGroupService(repo storage.Repository, dispatcher ReminderDispatcher, opts ...Option) *GroupService {
	s := &GroupService{
		repo:       repo,
		dispatcher: dispatcher,
		locks:      NewGroupLocks(),
		today:      core.Today,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentGroups)
	s.slog = log.NewStructuredLogger(s.logger)
	if s.dispatcher == nil {
		s.dispatcher = NewLogDispatcher(s.logger.Logger)
	}
	return s
}

// Today returns the service's notion of the current date.
func (s *GroupService) Today() core.Date {
	return s.today()
}

func (s *GroupService) CreateGroup(ctx context.Context, in GroupInput) (*core.Group, error) {
	g := &core.Group{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(in.Name),
		ContributionAmount: in.ContributionAmount,
		Frequency:          in.Frequency,
		StartDate:          in.StartDate,
		TotalCycles:        in.TotalCycles,
		CreatedAt:          time.Now().UTC(),
	}
	for i, m := range in.Members {
		g.Members = append(g.Members, core.Member{
			ID:      uuid.NewString(),
			Name:    strings.TrimSpace(m.Name),
			Contact: strings.TrimSpace(m.Contact),
			Order:   i + 1,
		})
	}
	if err := validateNewGroup(g); err != nil {
		return nil, err
	}

	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	s.logger.InfoContext(ctx, "Group created",
		log.NewFields().WithGroup(g.ID, g.Version).WithOperation(log.OpCreate).ToSlice()...)
	return g, nil
}

// validateNewGroup reports member errors keyed by form position so clients
// can match them to inputs before IDs exist.
func validateNewGroup(g *core.Group) error {
	err := g.Validate()
	if err == nil {
		return nil
	}
	fields, ok := core.ValidationFields(err)
	if !ok {
		return err
	}
	out := core.NewValidationError()
	for k, v := range fields {
		out.Add(k, v)
	}
	for i, m := range g.Members {
		for _, suffix := range []string{"name", "contact", "order"} {
			key := fmt.Sprintf("member-%s-%s", m.ID, suffix)
			if msg, exists := out.Fields[key]; exists {
				delete(out.Fields, key)
				out.Add(fmt.Sprintf("member-%d-%s", i, suffix), msg)
			}
		}
	}
	return out.OrNil()
}

func (s *GroupService) GetGroup(ctx context.Context, id string) (*core.Group, error) {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

// ListGroups returns dashboard summaries as of the given date.
func (s *GroupService) ListGroups(ctx context.Context, asOf core.Date) ([]core.GroupSummary, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	out := make([]core.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, Summarize(g, asOf))
	}
	return out, nil
}

// UpdateGroup changes group settings. Once the first cycle has come due the
// start date and frequency are frozen, the start date cannot move past a
// recorded payment, and total cycles cannot drop below a cycle that already
// has ledger entries.
func (s *GroupService) UpdateGroup(ctx context.Context, id string, upd GroupUpdate) (*core.Group, error) {
	today := s.today()
	return s.mutate(ctx, id, log.OpUpdate, func(g *core.Group) error {
		verr := core.NewValidationError()
		started := ScheduleStarted(g, today)
		if upd.Name != nil {
			g.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.ContributionAmount != nil {
			g.ContributionAmount = *upd.ContributionAmount
		}
		if upd.Frequency != nil && *upd.Frequency != g.Frequency {
			if started {
				verr.Add("frequency", "Frequency cannot change after the first cycle is due")
			}
			g.Frequency = *upd.Frequency
		}
		if upd.StartDate != nil && !upd.StartDate.Equal(g.StartDate) {
			if started {
				verr.Add("startDate", "Start date cannot change after the first cycle is due")
			}
			for _, r := range g.Records {
				if r.IsPaid() && r.PaidDate.Before(*upd.StartDate) {
					verr.Add("startDate", fmt.Sprintf("Cycle %d was paid on %s, before the new start date", r.Cycle, r.PaidDate.String()))
					break
				}
			}
			g.StartDate = *upd.StartDate
		}
		if upd.TotalCycles != nil {
			for _, r := range g.Records {
				if r.Cycle > *upd.TotalCycles {
					verr.Add("totalCycles", fmt.Sprintf("Cycle %d already has payments", r.Cycle))
					break
				}
			}
			g.TotalCycles = *upd.TotalCycles
		}
		if err := verr.OrNil(); err != nil {
			return err
		}
		if err := g.Validate(); err != nil {
			return err
		}
		// due dates follow the schedule when it is still editable
		if !started {
			for i := range g.Records {
				if due, err := DueDateForCycle(g, g.Records[i].Cycle); err == nil {
					g.Records[i].DueDate = due
				}
			}
		}
		return nil
	})
}

func (s *GroupService) DeleteGroup(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.logger.InfoContext(ctx, "Group deleted", log.FieldGroupID, id, log.FieldOperation, log.OpDelete)
	return nil
}

func (s *GroupService) AddMember(ctx context.Context, groupID string, in MemberInput) (core.Member, error) {
	var m core.Member
	_, err := s.mutate(ctx, groupID, log.OpAddMember, func(g *core.Group) error {
		var err error
		m, err = AddMember(g, in.Name, in.Contact)
		return err
	})
	return m, err
}

func (s *GroupService) RemoveMember(ctx context.Context, groupID, memberID string) error {
	_, err := s.mutate(ctx, groupID, log.OpRemoveMember, func(g *core.Group) error {
		return RemoveMember(g, memberID)
	})
	return err
}

func (s *GroupService) ReorderMember(ctx context.Context, groupID, memberID string, newOrder int) (*core.Group, error) {
	return s.mutate(ctx, groupID, log.OpReorder, func(g *core.Group) error {
		return Reorder(g, memberID, newOrder)
	})
}

func (s *GroupService) RecordPayment(ctx context.Context, groupID string, in PaymentInput) (core.PaymentRecord, error) {
	var rec core.PaymentRecord
	_, err := s.mutate(ctx, groupID, log.OpRecordPayment, func(g *core.Group) error {
		var err error
		rec, err = RecordPayment(g, in.Cycle, in.MemberID, in.PaidDate, in.Amount)
		return err
	})
	if err != nil {
		return core.PaymentRecord{}, err
	}
	s.metrics.PaymentRecorded("record")
	s.slog.LogPayment(ctx, log.OpRecordPayment, groupID, rec.ID, rec.MemberID, rec.Cycle, rec.Amount.Minor)
	return rec, nil
}

// UpdatePayment edits a record. The paid date is only touched when
// upd.PaidDateSet is true, so an amount-only edit keeps the record paid.
func (s *GroupService) UpdatePayment(ctx context.Context, groupID, recordID string, upd PaymentUpdate) (core.PaymentRecord, error) {
	var rec core.PaymentRecord
	_, err := s.mutate(ctx, groupID, log.OpUpdatePayment, func(g *core.Group) error {
		paid := upd.PaidDate
		if !upd.PaidDateSet {
			for _, r := range g.Records {
				if r.ID == recordID {
					paid = r.PaidDate
					break
				}
			}
		}
		var err error
		rec, err = UpdatePayment(g, recordID, paid, upd.Amount)
		return err
	})
	if err != nil {
		return core.PaymentRecord{}, err
	}
	s.metrics.PaymentRecorded("update")
	s.slog.LogPayment(ctx, log.OpUpdatePayment, groupID, rec.ID, rec.MemberID, rec.Cycle, rec.Amount.Minor)
	return rec, nil
}

// SendReminders selects recipients and hands them to the dispatcher. Unknown
// member IDs are rejected; an empty selection is not an error.
func (s *GroupService) SendReminders(ctx context.Context, groupID string, req ReminderRequest) (DispatchResult, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return DispatchResult{}, err
	}
	message := req.Message
	if strings.TrimSpace(message) == "" && req.Template != "" {
		if message, err = RenderTemplate(g, req.Template, req.Cycle); err != nil {
			return DispatchResult{}, err
		}
	}
	if err := ValidateReminder(req.Channel, message); err != nil {
		return DispatchResult{}, err
	}

	ids := req.MemberIDs
	if len(ids) == 0 {
		recipients, err := SelectRecipients(g, req.Cycle, s.today(), req.Statuses...)
		if err != nil {
			return DispatchResult{}, err
		}
		for _, r := range recipients {
			ids = append(ids, r.MemberID)
		}
	} else {
		if _, err := DueDateForCycle(g, req.Cycle); err != nil {
			return DispatchResult{}, err
		}
		for _, id := range ids {
			if _, ok := MemberByID(g, id); !ok {
				return DispatchResult{}, &core.NotFoundError{Kind: "member", ID: id}
			}
		}
	}
	if len(ids) == 0 {
		return DispatchResult{Channel: req.Channel}, nil
	}

	ctx = WithReminderMeta(ctx, ReminderMeta{GroupID: g.ID, Cycle: req.Cycle})
	res, err := s.dispatcher.SendReminder(ctx, ids, req.Channel, message)
	s.metrics.RemindersDispatched(string(req.Channel), len(ids), err)
	if err != nil {
		s.slog.LogError(ctx, "Failed to dispatch reminders", err, log.ErrorTypeNetwork, log.OpRemind,
			log.NewFields().WithGroup(g.ID, g.Version))
		return DispatchResult{}, fmt.Errorf("dispatch reminders: %w", err)
	}
	s.logger.InfoContext(ctx, "Reminders dispatched",
		log.FieldGroupID, g.ID,
		log.FieldCycle, req.Cycle,
		log.FieldChannel, req.Channel,
		log.FieldRecipients, len(ids))
	return res, nil
}

// mutate applies fn to a fresh copy of the group under the group's write lock
// and saves it. A version conflict reloads and retries once.
func (s *GroupService) mutate(ctx context.Context, id, op string, fn func(*core.Group) error) (*core.Group, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	for attempt := 0; ; attempt++ {
		g, err := s.repo.GetGroup(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := fn(g); err != nil {
			return nil, err
		}
		err = s.repo.SaveGroup(ctx, g)
		if err == nil {
			s.logger.DebugContext(ctx, "Group saved",
				log.NewFields().WithGroup(g.ID, g.Version).WithOperation(op).ToSlice()...)
			return g, nil
		}
		if errors.Is(err, storage.ErrVersionConflict) {
			s.metrics.VersionConflict()
			if attempt == 0 {
				s.logger.WarnContext(ctx, "Version conflict, retrying", log.FieldGroupID, id, log.FieldOperation, op)
				continue
			}
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}
