package core

import (
	"fmt"
	"strings"
)

// ReportPeriod selects how many of the most recent elapsed cycles a group
// report covers.
type ReportPeriod string

const (
	PeriodAll     ReportPeriod = "all"
	PeriodLast6   ReportPeriod = "last-6"
	PeriodLast3   ReportPeriod = "last-3"
	PeriodCurrent ReportPeriod = "current"
)

// ParseReportPeriod accepts the period values case-insensitively; empty means all.
func ParseReportPeriod(s string) (ReportPeriod, error) {
	switch p := ReportPeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAll, nil
	case PeriodAll, PeriodLast6, PeriodLast3, PeriodCurrent:
		return p, nil
	}
	return "", fmt.Errorf("unknown report period %q", s)
}

// Limit is the number of cycles the period keeps, 0 for no limit.
func (p ReportPeriod) Limit() int {
	switch p {
	case PeriodLast6:
		return 6
	case PeriodLast3:
		return 3
	case PeriodCurrent:
		return 1
	}
	return 0
}

// Progress is the group-level completion rollup.
type Progress struct {
	CompletedCycles int
	TotalCycles     int
	Percent         float64
}

// CycleReport summarizes one cycle across all current members.
type CycleReport struct {
	Cycle          int
	DueDate        Date
	TotalDue       Money
	TotalPaid      Money
	OnTimeCount    int
	LateCount      int
	MissedCount    int
	PendingCount   int
	CompletionRate float64 // capped at 100
	Overpaid       bool    // TotalPaid exceeded TotalDue
}

// GroupReport is the reports-page view of a group up to a given date.
type GroupReport struct {
	GroupID                 string
	GroupName               string
	Frequency               Frequency
	ContributionAmount      Money
	MemberCount             int
	AsOf                    Date
	Period                  ReportPeriod
	Progress                Progress
	TotalCollected          Money
	OnTimePercent           float64
	LatePercent             float64
	MissedPercent           float64
	AveragePaymentDelayDays float64
	Cycles                  []CycleReport // newest first
}

// MemberSummary is the member-detail view.
type MemberSummary struct {
	Member      Member
	TotalPaid   Money
	TotalDue    Money
	PaymentRate float64
	History     []PaymentView // newest first
}

// PaymentView is a ledger row with its derived status.
type PaymentView struct {
	Record     PaymentRecord
	MemberName string
	Status     Status
	DaysLate   int
}

// PaymentStats are the counters above the payment-history table.
type PaymentStats struct {
	PaidCount      int
	LateCount      int
	OverdueCount   int
	PendingCount   int
	TotalCollected Money
}

// GroupSummary is a dashboard card.
type GroupSummary struct {
	ID                 string
	Name               string
	ContributionAmount Money
	Frequency          Frequency
	MemberCount        int
	Progress           Progress
	CurrentCycle       int
	NextPayment        *Date
	Complete           bool
}
