package services

import (
	"sort"

	"ajo/internal/core"
)

// GroupProgress counts cycles in which every current member has settled.
// Records of removed members do not count toward completion.
func GroupProgress(g *core.Group, asOf core.Date) core.Progress {
	p := core.Progress{TotalCycles: g.TotalCycles}
	if len(g.Members) == 0 || g.TotalCycles < 1 {
		return p
	}
	settled := settledByCycle(g, asOf)
	for cycle := 1; cycle <= g.TotalCycles; cycle++ {
		if settled[cycle] == len(g.Members) {
			p.CompletedCycles++
		}
	}
	p.Percent = core.Percent(float64(p.CompletedCycles), float64(p.TotalCycles))
	return p
}

// MemberPaymentRate is (paid+late)/records×100 for the member, 0 with no records.
func MemberPaymentRate(g *core.Group, memberID string) (float64, error) {
	if _, ok := MemberByID(g, memberID); !ok {
		return 0, &core.NotFoundError{Kind: "member", ID: memberID}
	}
	records := RecordsForMember(g, memberID)
	if len(records) == 0 {
		return 0, nil
	}
	settled := 0
	for _, r := range records {
		if r.IsPaid() {
			settled++
		}
	}
	return core.Percent(float64(settled), float64(len(records))), nil
}

// CycleReport summarizes collections for one cycle across current members.
func CycleReport(g *core.Group, cycle int, asOf core.Date) (core.CycleReport, error) {
	due, err := DueDateForCycle(g, cycle)
	if err != nil {
		return core.CycleReport{}, err
	}
	rep := core.CycleReport{
		Cycle:    cycle,
		DueDate:  due,
		TotalDue: g.ContributionAmount.Mul(len(g.Members)),
	}
	for _, m := range g.Members {
		var st core.Status
		if r, ok := FindRecord(g, cycle, m.ID); ok {
			st = r.Status(asOf)
			if st.Settled() {
				rep.TotalPaid = rep.TotalPaid.Add(r.Amount)
			}
		} else {
			st = core.StatusOf(due, nil, asOf)
		}
		switch st {
		case core.StatusPaid:
			rep.OnTimeCount++
		case core.StatusLate:
			rep.LateCount++
		case core.StatusOverdue:
			rep.MissedCount++
		default:
			rep.PendingCount++
		}
	}
	rate := core.Percent(float64(rep.TotalPaid.Minor), float64(rep.TotalDue.Minor))
	if rate > 100 {
		rate = 100
		rep.Overpaid = true
	}
	rep.CompletionRate = rate
	return rep, nil
}

// GroupReport rolls up the cycles whose due date is on or before asOf. The
// period keeps only the most recent of those cycles, and the totals,
// percentages and average delay cover the kept cycles only. Progress always
// spans the whole group.
func GroupReport(g *core.Group, asOf core.Date, period core.ReportPeriod) (core.GroupReport, error) {
	if period == "" {
		period = core.PeriodAll
	}
	rep := core.GroupReport{
		GroupID:            g.ID,
		GroupName:          g.Name,
		Frequency:          g.Frequency,
		ContributionAmount: g.ContributionAmount,
		MemberCount:        len(g.Members),
		AsOf:               asOf,
		Period:             period,
		Progress:           GroupProgress(g, asOf),
	}

	var elapsed []core.Cycle
	for _, c := range Schedule(g) {
		if c.DueDate.After(asOf) {
			break
		}
		elapsed = append(elapsed, c)
	}
	if n := period.Limit(); n > 0 && len(elapsed) > n {
		elapsed = elapsed[len(elapsed)-n:]
	}

	included := make(map[int]bool, len(elapsed))
	var onTime, late, missed, delaySum, delayN int
	for _, c := range elapsed {
		cr, err := CycleReport(g, c.Number, asOf)
		if err != nil {
			return core.GroupReport{}, err
		}
		included[c.Number] = true
		rep.Cycles = append(rep.Cycles, cr)
		rep.TotalCollected = rep.TotalCollected.Add(cr.TotalPaid)
		onTime += cr.OnTimeCount
		late += cr.LateCount
		missed += cr.MissedCount
	}
	for _, r := range g.Records {
		if included[r.Cycle] && r.IsPaid() && r.Status(asOf) == core.StatusLate {
			delaySum += core.DaysLate(r.DueDate, r.PaidDate, asOf)
			delayN++
		}
	}

	total := float64(onTime + late + missed)
	rep.OnTimePercent = core.Percent(float64(onTime), total)
	rep.LatePercent = core.Percent(float64(late), total)
	rep.MissedPercent = core.Percent(float64(missed), total)
	if delayN > 0 {
		rep.AveragePaymentDelayDays = float64(delaySum) / float64(delayN)
	}
	sort.Slice(rep.Cycles, func(i, j int) bool { return rep.Cycles[i].Cycle > rep.Cycles[j].Cycle })
	return rep, nil
}

// MemberSummary is the member-detail view. TotalDue covers cycles already due.
func MemberSummary(g *core.Group, memberID string, asOf core.Date) (core.MemberSummary, error) {
	m, ok := MemberByID(g, memberID)
	if !ok {
		return core.MemberSummary{}, &core.NotFoundError{Kind: "member", ID: memberID}
	}
	rate, err := MemberPaymentRate(g, memberID)
	if err != nil {
		return core.MemberSummary{}, err
	}
	sum := core.MemberSummary{Member: m, PaymentRate: rate}

	for _, c := range Schedule(g) {
		if c.DueDate.After(asOf) {
			break
		}
		sum.TotalDue = sum.TotalDue.Add(g.ContributionAmount)
	}
	records := RecordsForMember(g, memberID)
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.IsPaid() {
			sum.TotalPaid = sum.TotalPaid.Add(r.Amount)
		}
		sum.History = append(sum.History, core.PaymentView{
			Record:     r,
			MemberName: m.Name,
			Status:     r.Status(asOf),
			DaysLate:   core.DaysLate(r.DueDate, r.PaidDate, asOf),
		})
	}
	return sum, nil
}

// Summarize builds the dashboard card for a group.
func Summarize(g *core.Group, asOf core.Date) core.GroupSummary {
	s := core.GroupSummary{
		ID:                 g.ID,
		Name:               g.Name,
		ContributionAmount: g.ContributionAmount,
		Frequency:          g.Frequency,
		MemberCount:        len(g.Members),
		Progress:           GroupProgress(g, asOf),
		CurrentCycle:       CurrentCycle(g, asOf),
	}
	s.Complete = s.Progress.CompletedCycles == s.Progress.TotalCycles && s.Progress.TotalCycles > 0
	if next, ok := NextDueDate(g, asOf); ok && !s.Complete {
		s.NextPayment = &next
	}
	return s
}

// settledByCycle counts current members with a paid or late record per cycle.
func settledByCycle(g *core.Group, asOf core.Date) map[int]int {
	current := make(map[string]bool, len(g.Members))
	for _, m := range g.Members {
		current[m.ID] = true
	}
	out := make(map[int]int)
	for _, r := range g.Records {
		if current[r.MemberID] && r.Status(asOf).Settled() {
			out[r.Cycle]++
		}
	}
	return out
}
