package services

import (
	"errors"
	"testing"

	"ajo/internal/core"
)

func TestRecordPayment(t *testing.T) {
	g := newTestGroup(2)
	rec, err := RecordPayment(g, 2, "m1", dp(2024, 1, 8), nil)
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if rec.ID == "" || rec.Cycle != 2 || rec.MemberID != "m1" {
		t.Errorf("unexpected record %+v", rec)
	}
	if !rec.DueDate.Equal(d(2024, 1, 8)) {
		t.Errorf("due date = %s, want 2024-01-08", rec.DueDate)
	}
	if rec.Amount != g.ContributionAmount {
		t.Errorf("amount = %d, want contribution default", rec.Amount.Minor)
	}
	if rec.Status(d(2024, 2, 1)) != core.StatusPaid {
		t.Errorf("status = %s, want paid", rec.Status(d(2024, 2, 1)))
	}
}

func TestRecordPayment_Errors(t *testing.T) {
	g := newTestGroup(2)
	if _, err := RecordPayment(g, 1, "m1", dp(2024, 1, 1), nil); err != nil {
		t.Fatal(err)
	}
	zero := core.Money{}

	tests := []struct {
		name   string
		cycle  int
		member string
		paid   *core.Date
		amount *core.Money
		is     error
		field  string
	}{
		{"duplicate", 1, "m1", dp(2024, 1, 2), nil, core.ErrDuplicateRecord, ""},
		{"unknown member", 1, "ghost", nil, nil, core.ErrNotFound, ""},
		{"cycle out of range", 5, "m2", nil, nil, core.ErrValidation, "cycle"},
		{"paid before start", 1, "m2", dp(2023, 12, 31), nil, core.ErrValidation, "paidDate"},
		{"non-positive amount", 1, "m2", nil, &zero, core.ErrValidation, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(g.Records)
			_, err := RecordPayment(g, tt.cycle, tt.member, tt.paid, tt.amount)
			if !errors.Is(err, tt.is) {
				t.Fatalf("error = %v, want %v", err, tt.is)
			}
			if tt.field != "" {
				if fields, _ := core.ValidationFields(err); fields[tt.field] == "" {
					t.Errorf("expected field error on %s, got %v", tt.field, err)
				}
			}
			if len(g.Records) != before {
				t.Error("failed record must not change the ledger")
			}
		})
	}

	var dup *core.DuplicateRecordError
	_, err := RecordPayment(g, 1, "m1", nil, nil)
	if !errors.As(err, &dup) || dup.Cycle != 1 || dup.MemberID != "m1" {
		t.Errorf("expected DuplicateRecordError for (1, m1), got %v", err)
	}
}

func TestUpdatePayment_UnpayMatchesNeverPaid(t *testing.T) {
	for _, asOf := range []core.Date{d(2023, 12, 31), d(2024, 1, 1), d(2024, 1, 20)} {
		g := newTestGroup(2)
		paid, err := RecordPayment(g, 1, "m1", dp(2024, 1, 1), nil)
		if err != nil {
			t.Fatal(err)
		}
		never, err := RecordPayment(g, 1, "m2", nil, nil)
		if err != nil {
			t.Fatal(err)
		}

		updated, err := UpdatePayment(g, paid.ID, nil, nil)
		if err != nil {
			t.Fatalf("UpdatePayment() error = %v", err)
		}
		if updated.IsPaid() {
			t.Fatal("record should be unpaid")
		}
		if got, want := updated.Status(asOf), never.Status(asOf); got != want {
			t.Errorf("asOf %s: unpaid status %s, never-paid status %s", asOf, got, want)
		}
	}
}

func TestUpdatePayment(t *testing.T) {
	g := newTestGroup(1)
	rec, _ := RecordPayment(g, 1, "m1", nil, nil)
	amt := core.Money{Minor: 60000}

	updated, err := UpdatePayment(g, rec.ID, dp(2024, 1, 3), &amt)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status(d(2024, 1, 3)) != core.StatusLate || updated.Amount.Minor != 60000 {
		t.Errorf("unexpected update %+v", updated)
	}
	stored, _ := FindRecord(g, 1, "m1")
	if !stored.PaidDate.Equal(d(2024, 1, 3)) {
		t.Error("update should mutate the ledger in place")
	}

	if _, err := UpdatePayment(g, "missing", nil, nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing record error = %v", err)
	}
	if _, err := UpdatePayment(g, rec.ID, dp(2023, 1, 1), nil); !errors.Is(err, core.ErrValidation) {
		t.Errorf("paid before start error = %v", err)
	}
}

func TestRecordPayment_NoCrossMemberEffects(t *testing.T) {
	g := newTestGroup(3)
	asOf := d(2024, 1, 10)
	before := FilterPayments(g, PaymentFilter{}, asOf)
	if len(before) != 0 {
		t.Fatal("expected empty ledger")
	}
	if _, err := RecordPayment(g, 1, "m2", dp(2024, 1, 1), nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := FindRecord(g, 1, "m1"); ok {
		t.Error("recording for m2 created a record for m1")
	}
	if len(RecordsForCycle(g, 1)) != 1 {
		t.Error("expected exactly one record in cycle 1")
	}
}

func TestFilterPaymentsAndStats(t *testing.T) {
	g := newTestGroup(3)
	g.Members[0].Name = "Adebayo Johnson"
	g.Members[1].Name = "Fatima Abdullahi"
	g.Members[2].Name = "Chinedu Okafor"
	mustRecord := func(cycle int, member string, paid *core.Date) {
		t.Helper()
		if _, err := RecordPayment(g, cycle, member, paid, nil); err != nil {
			t.Fatal(err)
		}
	}
	mustRecord(1, "m1", dp(2024, 1, 1)) // paid
	mustRecord(1, "m2", dp(2024, 1, 3)) // late
	mustRecord(1, "m3", nil)            // overdue
	mustRecord(2, "m1", dp(2024, 1, 8)) // paid
	mustRecord(3, "m2", nil)            // pending at asOf

	asOf := d(2024, 1, 10)
	all := FilterPayments(g, PaymentFilter{}, asOf)
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	if all[0].Record.Cycle != 3 {
		t.Errorf("expected newest cycle first, got cycle %d", all[0].Record.Cycle)
	}

	stats := PaymentStatsOf(all)
	if stats.PaidCount != 2 || stats.LateCount != 1 || stats.OverdueCount != 1 || stats.PendingCount != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.TotalCollected.Minor != 150000 {
		t.Errorf("collected = %d, want 150000", stats.TotalCollected.Minor)
	}

	late := FilterPayments(g, PaymentFilter{Status: core.StatusLate}, asOf)
	if len(late) != 1 || late[0].MemberName != "Fatima Abdullahi" || late[0].DaysLate != 2 {
		t.Errorf("unexpected late filter result %+v", late)
	}
	search := FilterPayments(g, PaymentFilter{Search: "adebayo"}, asOf)
	if len(search) != 2 {
		t.Errorf("search len = %d, want 2", len(search))
	}
	cycle1 := FilterPayments(g, PaymentFilter{Cycle: 1}, asOf)
	if len(cycle1) != 3 {
		t.Errorf("cycle filter len = %d, want 3", len(cycle1))
	}
}
