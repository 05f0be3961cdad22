package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"ajo/internal/core"
	"ajo/internal/storage"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ajo.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	paid := core.NewDate(2024, 1, 1)
	err = repo.CreateGroup(context.Background(), &core.Group{
		ID:                 "g1",
		Name:               "Market Traders",
		ContributionAmount: core.Money{Minor: 50000},
		Frequency:          core.Weekly,
		StartDate:          core.NewDate(2024, 1, 1),
		TotalCycles:        3,
		Members: []core.Member{
			{ID: "m1", Name: "Ada", Contact: "a", Order: 1},
			{ID: "m2", Name: "Bola", Contact: "b", Order: 2},
		},
		Records: []core.PaymentRecord{
			{ID: "r1", Cycle: 1, MemberID: "m1", DueDate: core.NewDate(2024, 1, 1), PaidDate: &paid, Amount: core.Money{Minor: 50000}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGroupsCommand(t *testing.T) {
	db := seedDB(t)
	out, err := run(t, "groups", "--db", db, "--as-of", "2024-01-05")
	if err != nil {
		t.Fatalf("groups error = %v", err)
	}
	if !strings.Contains(out, "Market Traders") || !strings.Contains(out, "2/3") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestScheduleCommand(t *testing.T) {
	db := seedDB(t)
	out, err := run(t, "schedule", "g1", "--db", db, "--as-of", "2024-01-05")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	for _, want := range []string{"2024-01-08", "Bola", "<- current"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "schedule", "g1", "--db", db, "--as-of", "2024-01-05", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var view struct {
		CurrentCycle int
		Entries      []json.RawMessage
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if view.CurrentCycle != 2 || len(view.Entries) != 3 {
		t.Errorf("unexpected view %+v", view)
	}
}

func TestReportCommand(t *testing.T) {
	db := seedDB(t)
	out, err := run(t, "report", "g1", "--db", db, "--as-of", "2024-01-05")
	if err != nil {
		t.Fatalf("report error = %v", err)
	}
	if !strings.Contains(out, "Collected 500.00") || !strings.Contains(out, "1000.00") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestReportCommandPeriod(t *testing.T) {
	db := seedDB(t)
	out, err := run(t, "report", "g1", "--db", db, "--as-of", "2024-01-10", "--period", "current")
	if err != nil {
		t.Fatalf("report error = %v", err)
	}
	if !strings.Contains(out, "current") || !strings.Contains(out, "Collected 0.00") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := run(t, "report", "g1", "--db", db, "--period", "fortnight"); err == nil {
		t.Error("expected --period parse error")
	}
}

func TestCommandErrors(t *testing.T) {
	db := seedDB(t)
	if _, err := run(t, "report", "missing", "--db", db); err == nil {
		t.Error("expected not-found error")
	}
	if _, err := run(t, "groups", "--db", db, "--as-of", "05/01/2024"); err == nil {
		t.Error("expected --as-of parse error")
	}
	if _, err := run(t, "schedule", "--db", db); err == nil {
		t.Error("expected argument count error")
	}
}
