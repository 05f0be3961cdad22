package services

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"ajo/internal/core"
)

// PaymentFilter narrows the payment-history listing. Zero values match all.
type PaymentFilter struct {
	Search string      // case-insensitive substring of member name
	Status core.Status // empty for any
	Cycle  int         // 0 for any
}

// RecordPayment adds a ledger entry for (cycle, member). A nil paidDate creates
// an unpaid record; a nil amount defaults to the group's contribution.
func RecordPayment(g *core.Group, cycle int, memberID string, paidDate *core.Date, amount *core.Money) (core.PaymentRecord, error) {
	if _, ok := MemberByID(g, memberID); !ok {
		return core.PaymentRecord{}, &core.NotFoundError{Kind: "member", ID: memberID}
	}
	due, err := DueDateForCycle(g, cycle)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	if _, exists := FindRecord(g, cycle, memberID); exists {
		return core.PaymentRecord{}, &core.DuplicateRecordError{Cycle: cycle, MemberID: memberID}
	}
	if err := checkPaidDate(g, paidDate); err != nil {
		return core.PaymentRecord{}, err
	}
	amt := g.ContributionAmount
	if amount != nil {
		if err := amount.Validate(); err != nil {
			return core.PaymentRecord{}, core.FieldError("amount", "Amount must be positive")
		}
		amt = *amount
	}

	rec := core.PaymentRecord{
		ID:       uuid.NewString(),
		Cycle:    cycle,
		MemberID: memberID,
		DueDate:  due,
		PaidDate: copyDate(paidDate),
		Amount:   amt,
	}
	g.Records = append(g.Records, rec)
	return rec, nil
}

// UpdatePayment changes the paid date of a record; nil un-pays it. A non-nil
// newAmount replaces the recorded amount.
func UpdatePayment(g *core.Group, recordID string, newPaidDate *core.Date, newAmount *core.Money) (core.PaymentRecord, error) {
	idx := -1
	for i := range g.Records {
		if g.Records[i].ID == recordID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.PaymentRecord{}, &core.NotFoundError{Kind: "payment record", ID: recordID}
	}
	if err := checkPaidDate(g, newPaidDate); err != nil {
		return core.PaymentRecord{}, err
	}
	if newAmount != nil {
		if err := newAmount.Validate(); err != nil {
			return core.PaymentRecord{}, core.FieldError("amount", "Amount must be positive")
		}
		g.Records[idx].Amount = *newAmount
	}
	g.Records[idx].PaidDate = copyDate(newPaidDate)
	return g.Records[idx], nil
}

// FindRecord returns the record for (cycle, member) if one exists.
func FindRecord(g *core.Group, cycle int, memberID string) (core.PaymentRecord, bool) {
	for _, r := range g.Records {
		if r.Cycle == cycle && r.MemberID == memberID {
			return r, true
		}
	}
	return core.PaymentRecord{}, false
}

// RecordsForMember returns the member's records ordered by cycle.
func RecordsForMember(g *core.Group, memberID string) []core.PaymentRecord {
	var out []core.PaymentRecord
	for _, r := range g.Records {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cycle < out[j].Cycle })
	return out
}

// RecordsForCycle returns all records of one cycle, including removed members'.
func RecordsForCycle(g *core.Group, cycle int) []core.PaymentRecord {
	var out []core.PaymentRecord
	for _, r := range g.Records {
		if r.Cycle == cycle {
			out = append(out, r)
		}
	}
	return out
}

// FilterPayments lists records with derived status, newest cycle first.
func FilterPayments(g *core.Group, f PaymentFilter, asOf core.Date) []core.PaymentView {
	names := make(map[string]string, len(g.Members))
	for _, m := range g.Members {
		names[m.ID] = m.Name
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []core.PaymentView
	for _, r := range g.Records {
		if f.Cycle != 0 && r.Cycle != f.Cycle {
			continue
		}
		name := names[r.MemberID]
		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}
		st := r.Status(asOf)
		if f.Status != "" && st != f.Status {
			continue
		}
		out = append(out, core.PaymentView{
			Record:     r,
			MemberName: name,
			Status:     st,
			DaysLate:   core.DaysLate(r.DueDate, r.PaidDate, asOf),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Record.Cycle != out[j].Record.Cycle {
			return out[i].Record.Cycle > out[j].Record.Cycle
		}
		return out[i].MemberName < out[j].MemberName
	})
	return out
}

// PaymentStatsOf counts views by status and sums settled amounts.
func PaymentStatsOf(views []core.PaymentView) core.PaymentStats {
	var s core.PaymentStats
	for _, v := range views {
		switch v.Status {
		case core.StatusPaid:
			s.PaidCount++
		case core.StatusLate:
			s.LateCount++
		case core.StatusOverdue:
			s.OverdueCount++
		case core.StatusPending:
			s.PendingCount++
		}
		if v.Status.Settled() {
			s.TotalCollected = s.TotalCollected.Add(v.Record.Amount)
		}
	}
	return s
}

func checkPaidDate(g *core.Group, paid *core.Date) error {
	if paid == nil || paid.IsZero() {
		return nil
	}
	if paid.Before(g.StartDate) {
		return core.FieldError("paidDate", "Payment date cannot be before the group start date")
	}
	return nil
}

func copyDate(d *core.Date) *core.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	c := *d
	return &c
}
