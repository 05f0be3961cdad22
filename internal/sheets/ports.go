package sheets

import (
	"context"
	"fmt"

	"ajo/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter publishes a computed group report somewhere outside the
	// ledger and returns a reference to where it landed.
	ReportExporter interface {
		ExportGroupReport(ctx context.Context, report core.GroupReport) (ref string, err error)
	}
)

// CycleHeader is the header row of the per-cycle table.
var CycleHeader = []any{"Cycle", "Due date", "Total due", "Total paid", "On time", "Late", "Missed", "Pending", "Completion %"}

// ReportRows lays a report out as spreadsheet rows: a key/value block,
// a blank row, then one row per cycle in the report's order.
func ReportRows(r core.GroupReport) [][]any {
	rows := [][]any{
		{"Group", r.GroupName},
		{"As of", r.AsOf.String()},
		{"Frequency", string(r.Frequency)},
		{"Contribution", r.ContributionAmount.String()},
		{"Members", r.MemberCount},
		{"Completed cycles", fmt.Sprintf("%d/%d", r.Progress.CompletedCycles, r.Progress.TotalCycles)},
		{"Progress %", core.RoundPercent(r.Progress.Percent)},
		{"Total collected", r.TotalCollected.String()},
		{"On time %", core.RoundPercent(r.OnTimePercent)},
		{"Late %", core.RoundPercent(r.LatePercent)},
		{"Missed %", core.RoundPercent(r.MissedPercent)},
		{"Average delay (days)", fmt.Sprintf("%.1f", r.AveragePaymentDelayDays)},
		{},
		CycleHeader,
	}
	for _, c := range r.Cycles {
		rows = append(rows, []any{
			c.Cycle,
			c.DueDate.String(),
			c.TotalDue.String(),
			c.TotalPaid.String(),
			c.OnTimeCount,
			c.LateCount,
			c.MissedCount,
			c.PendingCount,
			core.RoundPercent(c.CompletionRate),
		})
	}
	return rows
}
