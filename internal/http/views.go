package http

import (
	"time"

	"ajo/internal/core"
	"ajo/internal/services"
)

// JSON views. Amounts are rendered as decimal strings in major units.

type memberView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Order   int    `json:"order"`
}

type recordView struct {
	ID       string     `json:"id"`
	Cycle    int        `json:"cycle"`
	MemberID string     `json:"memberId"`
	DueDate  core.Date  `json:"dueDate"`
	PaidDate *core.Date `json:"paidDate"`
	Amount   string     `json:"amount"`
}

type groupView struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	ContributionAmount string         `json:"contributionAmount"`
	Frequency          core.Frequency `json:"frequency"`
	StartDate          core.Date      `json:"startDate"`
	TotalCycles        int            `json:"totalCycles"`
	Version            int64          `json:"version"`
	CreatedAt          time.Time      `json:"createdAt"`
	Members            []memberView   `json:"members"`
	Records            []recordView   `json:"records"`
}

type progressView struct {
	CompletedCycles int     `json:"completedCycles"`
	TotalCycles     int     `json:"totalCycles"`
	Percent         float64 `json:"percent"`
}

type summaryView struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	ContributionAmount string         `json:"contributionAmount"`
	Frequency          core.Frequency `json:"frequency"`
	MemberCount        int            `json:"memberCount"`
	Progress           progressView   `json:"progress"`
	CurrentCycle       int            `json:"currentCycle"`
	NextPayment        *core.Date     `json:"nextPayment"`
	Complete           bool           `json:"complete"`
}

type cycleReportView struct {
	Cycle          int       `json:"cycle"`
	DueDate        core.Date `json:"dueDate"`
	TotalDue       string    `json:"totalDue"`
	TotalPaid      string    `json:"totalPaid"`
	OnTimeCount    int       `json:"onTimeCount"`
	LateCount      int       `json:"lateCount"`
	MissedCount    int       `json:"missedCount"`
	PendingCount   int       `json:"pendingCount"`
	CompletionRate float64   `json:"completionRate"`
	Overpaid       bool      `json:"overpaid"`
}

type groupReportView struct {
	GroupID                 string            `json:"groupId"`
	GroupName               string            `json:"groupName"`
	Frequency               core.Frequency    `json:"frequency"`
	ContributionAmount      string            `json:"contributionAmount"`
	MemberCount             int               `json:"memberCount"`
	AsOf                    core.Date         `json:"asOf"`
	Period                  core.ReportPeriod `json:"period"`
	Progress                progressView      `json:"progress"`
	TotalCollected          string            `json:"totalCollected"`
	OnTimePercent           float64           `json:"onTimePercent"`
	LatePercent             float64           `json:"latePercent"`
	MissedPercent           float64           `json:"missedPercent"`
	AveragePaymentDelayDays float64           `json:"averagePaymentDelayDays"`
	Cycles                  []cycleReportView `json:"cycles"`
}

type paymentView struct {
	recordView
	MemberName string      `json:"memberName"`
	Status     core.Status `json:"status"`
	DaysLate   int         `json:"daysLate"`
}

type statsView struct {
	PaidCount      int    `json:"paidCount"`
	LateCount      int    `json:"lateCount"`
	OverdueCount   int    `json:"overdueCount"`
	PendingCount   int    `json:"pendingCount"`
	TotalCollected string `json:"totalCollected"`
}

type historyView struct {
	Payments []paymentView `json:"payments"`
	Stats    statsView     `json:"stats"`
}

type memberSummaryView struct {
	Member      memberView    `json:"member"`
	TotalPaid   string        `json:"totalPaid"`
	TotalDue    string        `json:"totalDue"`
	PaymentRate float64       `json:"paymentRate"`
	History     []paymentView `json:"history"`
}

type scheduleEntryView struct {
	Cycle     int         `json:"cycle"`
	DueDate   core.Date   `json:"dueDate"`
	Recipient *memberView `json:"recipient"`
}

type scheduleView struct {
	Cycles       []scheduleEntryView `json:"cycles"`
	CurrentCycle int                 `json:"currentCycle"`
	NextDueDate  *core.Date          `json:"nextDueDate"`
	Complete     bool                `json:"complete"`
}

func toMemberView(m core.Member) memberView {
	return memberView{ID: m.ID, Name: m.Name, Contact: m.Contact, Order: m.Order}
}

func toRecordView(r core.PaymentRecord) recordView {
	return recordView{
		ID:       r.ID,
		Cycle:    r.Cycle,
		MemberID: r.MemberID,
		DueDate:  r.DueDate,
		PaidDate: r.PaidDate,
		Amount:   r.Amount.String(),
	}
}

func toGroupView(g *core.Group) groupView {
	v := groupView{
		ID:                 g.ID,
		Name:               g.Name,
		ContributionAmount: g.ContributionAmount.String(),
		Frequency:          g.Frequency,
		StartDate:          g.StartDate,
		TotalCycles:        g.TotalCycles,
		Version:            g.Version,
		CreatedAt:          g.CreatedAt,
		Members:            make([]memberView, 0, len(g.Members)),
		Records:            make([]recordView, 0, len(g.Records)),
	}
	for _, m := range services.MembersInOrder(g) {
		v.Members = append(v.Members, toMemberView(m))
	}
	for _, r := range g.Records {
		v.Records = append(v.Records, toRecordView(r))
	}
	return v
}

func toProgressView(p core.Progress) progressView {
	return progressView{CompletedCycles: p.CompletedCycles, TotalCycles: p.TotalCycles, Percent: p.Percent}
}

func toSummaryView(s core.GroupSummary) summaryView {
	return summaryView{
		ID:                 s.ID,
		Name:               s.Name,
		ContributionAmount: s.ContributionAmount.String(),
		Frequency:          s.Frequency,
		MemberCount:        s.MemberCount,
		Progress:           toProgressView(s.Progress),
		CurrentCycle:       s.CurrentCycle,
		NextPayment:        s.NextPayment,
		Complete:           s.Complete,
	}
}

func toCycleReportView(c core.CycleReport) cycleReportView {
	return cycleReportView{
		Cycle:          c.Cycle,
		DueDate:        c.DueDate,
		TotalDue:       c.TotalDue.String(),
		TotalPaid:      c.TotalPaid.String(),
		OnTimeCount:    c.OnTimeCount,
		LateCount:      c.LateCount,
		MissedCount:    c.MissedCount,
		PendingCount:   c.PendingCount,
		CompletionRate: c.CompletionRate,
		Overpaid:       c.Overpaid,
	}
}

func toGroupReportView(r core.GroupReport) groupReportView {
	v := groupReportView{
		GroupID:                 r.GroupID,
		GroupName:               r.GroupName,
		Frequency:               r.Frequency,
		ContributionAmount:      r.ContributionAmount.String(),
		MemberCount:             r.MemberCount,
		AsOf:                    r.AsOf,
		Period:                  r.Period,
		Progress:                toProgressView(r.Progress),
		TotalCollected:          r.TotalCollected.String(),
		OnTimePercent:           r.OnTimePercent,
		LatePercent:             r.LatePercent,
		MissedPercent:           r.MissedPercent,
		AveragePaymentDelayDays: r.AveragePaymentDelayDays,
		Cycles:                  make([]cycleReportView, 0, len(r.Cycles)),
	}
	for _, c := range r.Cycles {
		v.Cycles = append(v.Cycles, toCycleReportView(c))
	}
	return v
}

func toPaymentViews(in []core.PaymentView) []paymentView {
	out := make([]paymentView, 0, len(in))
	for _, p := range in {
		out = append(out, paymentView{
			recordView: toRecordView(p.Record),
			MemberName: p.MemberName,
			Status:     p.Status,
			DaysLate:   p.DaysLate,
		})
	}
	return out
}

func toHistoryView(h services.PaymentHistory) historyView {
	return historyView{
		Payments: toPaymentViews(h.Payments),
		Stats: statsView{
			PaidCount:      h.Stats.PaidCount,
			LateCount:      h.Stats.LateCount,
			OverdueCount:   h.Stats.OverdueCount,
			PendingCount:   h.Stats.PendingCount,
			TotalCollected: h.Stats.TotalCollected.String(),
		},
	}
}

func toMemberSummaryView(s core.MemberSummary) memberSummaryView {
	return memberSummaryView{
		Member:      toMemberView(s.Member),
		TotalPaid:   s.TotalPaid.String(),
		TotalDue:    s.TotalDue.String(),
		PaymentRate: s.PaymentRate,
		History:     toPaymentViews(s.History),
	}
}

func toScheduleView(s services.ScheduleView) scheduleView {
	v := scheduleView{
		Cycles:       make([]scheduleEntryView, 0, len(s.Entries)),
		CurrentCycle: s.CurrentCycle,
		NextDueDate:  s.NextDueDate,
		Complete:     s.Complete,
	}
	for _, e := range s.Entries {
		entry := scheduleEntryView{Cycle: e.Cycle, DueDate: e.DueDate}
		if e.Recipient != nil {
			m := toMemberView(*e.Recipient)
			entry.Recipient = &m
		}
		v.Cycles = append(v.Cycles, entry)
	}
	return v
}
