package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	BiWeekly Frequency = "bi-weekly"
	Monthly  Frequency = "monthly"
)

const (
	StatusPaid    Status = "paid"
	StatusLate    Status = "late"
	StatusOverdue Status = "overdue"
	StatusPending Status = "pending"
)

type (
	Frequency string

	// Status is derived from a record's due and paid dates, never stored.
	Status string

	Member struct {
		ID      string
		Name    string
		Contact string // phone or email, free text
		Order   int    // 1-based payout/collection position
	}

	PaymentRecord struct {
		ID       string
		Cycle    int
		MemberID string
		DueDate  Date
		PaidDate *Date
		Amount   Money
	}

	// Group is the aggregate root: it owns its members and ledger records.
	Group struct {
		ID                 string
		Name               string
		ContributionAmount Money
		Frequency          Frequency
		StartDate          Date
		TotalCycles        int
		Members            []Member
		Records            []PaymentRecord
		Version            int64 // optimistic concurrency counter, bumped on every save
		CreatedAt          time.Time
	}

	// Cycle is one scheduled contribution period shared by all members.
	Cycle struct {
		Number  int
		DueDate Date
	}
)

// ParseFrequency accepts the enum values case-insensitively, plus "biweekly".
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "bi-weekly", "biweekly":
		return BiWeekly, nil
	case "monthly":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, BiWeekly, Monthly:
		return true
	}
	return false
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPaid, StatusLate, StatusOverdue, StatusPending:
		return true
	}
	return false
}

// Settled reports whether the status counts as a completed contribution.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusLate
}

// IsPaid reports whether a paid date has been recorded.
func (r PaymentRecord) IsPaid() bool {
	return r.PaidDate != nil && !r.PaidDate.IsZero()
}

// Status derives the record status as of the given date.
func (r PaymentRecord) Status(asOf Date) Status {
	return StatusOf(r.DueDate, r.PaidDate, asOf)
}

func (m Member) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(m.Name) == "" {
		verr.Add("name", "Member name is required")
	}
	if strings.TrimSpace(m.Contact) == "" {
		verr.Add("contact", "Contact info is required")
	}
	return verr.OrNil()
}

// Validate checks the group header and every member. Field keys follow the
// create-group form so clients can show messages next to each input.
func (g Group) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(g.Name) == "" {
		verr.Add("groupName", "Group name is required")
	} else if len(g.Name) > 200 {
		verr.Add("groupName", "Group name too long (max 200 characters)")
	}
	if err := g.ContributionAmount.Validate(); err != nil {
		verr.Add("contributionAmount", "Valid contribution amount is required")
	}
	if !g.Frequency.IsValid() {
		verr.Add("frequency", "Frequency is required")
	}
	if g.TotalCycles <= 0 {
		verr.Add("totalCycles", "Valid number of cycles is required")
	}
	if err := g.StartDate.Validate(); err != nil {
		verr.Add("startDate", "Valid start date is required")
	}
	seen := make(map[int]bool, len(g.Members))
	for _, m := range g.Members {
		if strings.TrimSpace(m.Name) == "" {
			verr.Add(fmt.Sprintf("member-%s-name", m.ID), "Member name is required")
		}
		if strings.TrimSpace(m.Contact) == "" {
			verr.Add(fmt.Sprintf("member-%s-contact", m.ID), "Contact info is required")
		}
		if m.Order < 1 || m.Order > len(g.Members) || seen[m.Order] {
			verr.Add(fmt.Sprintf("member-%s-order", m.ID), "Member order must be unique and within 1..N")
		}
		seen[m.Order] = true
	}
	return verr.OrNil()
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	out := *g
	out.Members = append([]Member(nil), g.Members...)
	out.Records = make([]PaymentRecord, len(g.Records))
	for i, r := range g.Records {
		if r.PaidDate != nil {
			d := *r.PaidDate
			r.PaidDate = &d
		}
		out.Records[i] = r
	}
	return &out
}
