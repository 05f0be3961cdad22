package memory

import (
	"context"
	"testing"

	"ajo/internal/core"
)

func TestMemoryStoreExport(t *testing.T) {
	s := New()
	report := core.GroupReport{
		GroupID:            "g1",
		GroupName:          "Traders",
		ContributionAmount: core.Money{Minor: 50000},
		AsOf:               core.NewDate(2024, 1, 10),
		Cycles: []core.CycleReport{
			{Cycle: 2, DueDate: core.NewDate(2024, 1, 8)},
			{Cycle: 1, DueDate: core.NewDate(2024, 1, 1)},
		},
	}

	ref, err := s.ExportGroupReport(context.Background(), report)
	if err != nil {
		t.Fatalf("ExportGroupReport() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}
	exports := s.Exports()
	if len(exports) != 1 {
		t.Fatalf("exports = %d, want 1", len(exports))
	}
	rows := exports[0].Rows
	last := rows[len(rows)-1]
	if last[0] != 1 || last[1] != "2024-01-01" {
		t.Errorf("last row = %v, want cycle 1", last)
	}
}

func TestMemoryStoreRejectsAnonymousReport(t *testing.T) {
	if _, err := New().ExportGroupReport(context.Background(), core.GroupReport{}); err == nil {
		t.Error("expected error for report without group")
	}
}
