package core

import "math"

// StatusOf is the single derivation rule for payment status. It depends only on
// its arguments, so reports and views computed from the same inputs agree.
//
//	paid date ≤ due date          -> paid
//	paid date > due date          -> late
//	unpaid and due date < asOf    -> overdue
//	unpaid and due date ≥ asOf    -> pending
func StatusOf(dueDate Date, paidDate *Date, asOf Date) Status {
	if paidDate != nil && !paidDate.IsZero() {
		if paidDate.After(dueDate) {
			return StatusLate
		}
		return StatusPaid
	}
	if dueDate.Before(asOf) {
		return StatusOverdue
	}
	return StatusPending
}

// DaysLate returns whole days past the due date: for settled records it is
// measured at the paid date, for unpaid records at asOf. Never negative.
func DaysLate(dueDate Date, paidDate *Date, asOf Date) int {
	ref := asOf
	if paidDate != nil && !paidDate.IsZero() {
		ref = *paidDate
	}
	if n := dueDate.DaysUntil(ref); n > 0 {
		return n
	}
	return 0
}

// Percent computes part/whole×100, returning 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// RoundPercent rounds to the nearest integer for presentation only.
func RoundPercent(p float64) int {
	return int(math.Round(p))
}
