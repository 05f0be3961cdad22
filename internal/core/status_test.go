package core

import "testing"

func datePtr(y, m, d int) *Date {
	v := NewDate(y, m, d)
	return &v
}

func TestStatusOf(t *testing.T) {
	due := NewDate(2024, 1, 8)
	tests := []struct {
		name string
		paid *Date
		asOf Date
		want Status
	}{
		{"paid on due date", datePtr(2024, 1, 8), NewDate(2024, 2, 1), StatusPaid},
		{"paid early", datePtr(2024, 1, 7), NewDate(2024, 1, 7), StatusPaid},
		{"paid after due date", datePtr(2024, 1, 9), NewDate(2024, 1, 9), StatusLate},
		{"unpaid and past due", nil, NewDate(2024, 1, 9), StatusOverdue},
		{"unpaid on due date", nil, NewDate(2024, 1, 8), StatusPending},
		{"unpaid before due date", nil, NewDate(2024, 1, 1), StatusPending},
		{"zero paid date counts as unpaid", &Date{}, NewDate(2024, 1, 9), StatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := StatusOf(due, tt.paid, tt.asOf)
			second := StatusOf(due, tt.paid, tt.asOf)
			if first != tt.want {
				t.Errorf("StatusOf() = %v, want %v", first, tt.want)
			}
			if first != second {
				t.Errorf("StatusOf() not deterministic: %v then %v", first, second)
			}
		})
	}
}

func TestDaysLate(t *testing.T) {
	due := NewDate(2023, 12, 18)
	paid := datePtr(2023, 12, 20)
	if got := StatusOf(due, paid, NewDate(2024, 1, 1)); got != StatusLate {
		t.Fatalf("status = %v, want late", got)
	}
	if got := DaysLate(due, paid, NewDate(2024, 1, 1)); got != 2 {
		t.Fatalf("DaysLate = %d, want 2", got)
	}
	if got := DaysLate(due, nil, NewDate(2023, 12, 25)); got != 7 {
		t.Fatalf("DaysLate overdue = %d, want 7", got)
	}
	if got := DaysLate(due, datePtr(2023, 12, 17), NewDate(2024, 1, 1)); got != 0 {
		t.Fatalf("DaysLate early = %d, want 0", got)
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(3, 0); got != 0 {
		t.Errorf("Percent(3, 0) = %v, want 0", got)
	}
	if got := RoundPercent(Percent(2, 3)); got != 67 {
		t.Errorf("RoundPercent(66.67) = %d, want 67", got)
	}
}
