// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for cycle scheduling. Each
// contribution frequency has its own strategy that knows how far apart two
// consecutive due dates are.

package services

import (
	"fmt"

	"ajo/internal/core"
)

// IntervalStrategy advances a start date by a number of contribution periods.
// Implementations must compute from the start date rather than chaining, so
// that month-end clamping never drifts across cycles.
type IntervalStrategy interface {
	Advance(start core.Date, steps int) core.Date
}

// DayInterval advances by a fixed number of days per step.
type DayInterval struct {
	Days int
}

func (d DayInterval) Advance(start core.Date, steps int) core.Date {
	return start.AddDays(d.Days * steps)
}

// MonthInterval advances by calendar months, clamping to the month length.
type MonthInterval struct{}

func (MonthInterval) Advance(start core.Date, steps int) core.Date {
	return start.AddMonthsClamped(steps)
}

var intervalStrategies = map[core.Frequency]IntervalStrategy{
	core.Daily:    DayInterval{Days: 1},
	core.Weekly:   DayInterval{Days: 7},
	core.BiWeekly: DayInterval{Days: 14},
	core.Monthly:  MonthInterval{},
}

// GetIntervalStrategy returns the scheduling strategy for a frequency.
func GetIntervalStrategy(freq core.Frequency) (IntervalStrategy, error) {
	s, ok := intervalStrategies[freq]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", freq)
	}
	return s, nil
}

// RegisterIntervalStrategy installs or replaces the strategy for a frequency.
func RegisterIntervalStrategy(freq core.Frequency, s IntervalStrategy) {
	intervalStrategies[freq] = s
}

// DueDateForCycle returns start + interval × (cycle-1).
func DueDateForCycle(g *core.Group, cycle int) (core.Date, error) {
	if cycle < 1 || cycle > g.TotalCycles {
		return core.Date{}, core.FieldError("cycle",
			fmt.Sprintf("Cycle must be between 1 and %d", g.TotalCycles))
	}
	s, err := GetIntervalStrategy(g.Frequency)
	if err != nil {
		return core.Date{}, core.FieldError("frequency", err.Error())
	}
	return s.Advance(g.StartDate, cycle-1), nil
}

// CurrentCycle is the smallest cycle whose due date is on or after asOf,
// clamped to [1, TotalCycles]. Past the final due date it stays at TotalCycles.
func CurrentCycle(g *core.Group, asOf core.Date) int {
	if g.TotalCycles < 1 {
		return 1
	}
	s, err := GetIntervalStrategy(g.Frequency)
	if err != nil {
		return 1
	}
	// binary search: due dates are strictly increasing in cycle
	lo, hi := 1, g.TotalCycles
	for lo < hi {
		mid := (lo + hi) / 2
		if s.Advance(g.StartDate, mid-1).Before(asOf) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Schedule lists every cycle of the group with its due date.
func Schedule(g *core.Group) []core.Cycle {
	s, err := GetIntervalStrategy(g.Frequency)
	if err != nil || g.TotalCycles < 1 {
		return nil
	}
	out := make([]core.Cycle, g.TotalCycles)
	for i := range out {
		out[i] = core.Cycle{Number: i + 1, DueDate: s.Advance(g.StartDate, i)}
	}
	return out
}

// NextDueDate returns the first due date on or after asOf. It reports false
// once every cycle's due date has passed.
func NextDueDate(g *core.Group, asOf core.Date) (core.Date, bool) {
	cycle := CurrentCycle(g, asOf)
	due, err := DueDateForCycle(g, cycle)
	if err != nil || due.Before(asOf) {
		return core.Date{}, false
	}
	return due, true
}

// ScheduleStarted reports whether the first cycle has already come due, after
// which the start date and frequency are frozen.
func ScheduleStarted(g *core.Group, asOf core.Date) bool {
	return !asOf.Before(g.StartDate)
}
