package services

import (
	"context"
	"errors"
	"fmt"

	"ajo/internal/cache"
	"ajo/internal/core"
	"ajo/internal/log"
	"ajo/internal/metrics"
	"ajo/internal/sheets"
)

// ErrExportDisabled is returned by Export when no exporter is configured.
var ErrExportDisabled = errors.New("report export is not configured")

// ScheduleEntry is one row of the schedule view.
type ScheduleEntry struct {
	Cycle     int
	DueDate   core.Date
	Recipient *core.Member // payout recipient by rotation; nil without members
}

// ScheduleView is the full schedule plus where the group stands on asOf.
type ScheduleView struct {
	Entries      []ScheduleEntry
	CurrentCycle int
	NextDueDate  *core.Date
	Complete     bool
}

// PaymentHistory is the filtered ledger with its header counters.
type PaymentHistory struct {
	Payments []core.PaymentView
	Stats    core.PaymentStats
}

// ReportService serves read-side views computed by the aggregation engine.
// Group reports are cached by group version, asOf and period, so any write to the
// group makes older entries unreachable.
type ReportService struct {
	groups   *GroupService
	reports  *cache.Loader[core.GroupReport]
	exporter sheets.ReportExporter
	metrics  *metrics.Metrics
	logger   *log.Logger
}

type ReportOption func(*ReportService)

func WithReportCache(store cache.Store) ReportOption {
	return func(s *ReportService) {
		if store != nil {
			s.reports = cache.NewLoader[core.GroupReport](store)
		}
	}
}

func WithExporter(e sheets.ReportExporter) ReportOption {
	return func(s *ReportService) { s.exporter = e }
}

func WithReportMetrics(m *metrics.Metrics) ReportOption {
	return func(s *ReportService) { s.metrics = m }
}

func NewReportService(groups *GroupService, opts ...ReportOption) *ReportService {
	s := &ReportService{groups: groups, logger: groups.logger.WithComponent(log.ComponentCache)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReportService) Schedule(ctx context.Context, groupID string, asOf core.Date) (ScheduleView, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return ScheduleView{}, err
	}
	view := ScheduleView{CurrentCycle: CurrentCycle(g, asOf)}
	for _, c := range Schedule(g) {
		entry := ScheduleEntry{Cycle: c.Number, DueDate: c.DueDate}
		if m, err := PayoutRecipient(g, c.Number); err == nil {
			entry.Recipient = &m
		}
		view.Entries = append(view.Entries, entry)
	}
	if next, ok := NextDueDate(g, asOf); ok {
		view.NextDueDate = &next
	} else {
		view.Complete = true
	}
	return view, nil
}

func (s *ReportService) Progress(ctx context.Context, groupID string, asOf core.Date) (core.Progress, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return core.Progress{}, err
	}
	return GroupProgress(g, asOf), nil
}

func (s *ReportService) CycleReport(ctx context.Context, groupID string, cycle int, asOf core.Date) (core.CycleReport, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return core.CycleReport{}, err
	}
	return CycleReport(g, cycle, asOf)
}

func (s *ReportService) MemberSummary(ctx context.Context, groupID, memberID string, asOf core.Date) (core.MemberSummary, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return core.MemberSummary{}, err
	}
	return MemberSummary(g, memberID, asOf)
}

func (s *ReportService) Payments(ctx context.Context, groupID string, f PaymentFilter, asOf core.Date) (PaymentHistory, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return PaymentHistory{}, err
	}
	if f.Status != "" && !f.Status.IsValid() {
		return PaymentHistory{}, core.FieldError("status", fmt.Sprintf("Unknown status %q", f.Status))
	}
	views := FilterPayments(g, f, asOf)
	return PaymentHistory{Payments: views, Stats: PaymentStatsOf(views)}, nil
}

// GroupReport returns the group report for the period, through the cache
// when one is set.
func (s *ReportService) GroupReport(ctx context.Context, groupID string, asOf core.Date, period core.ReportPeriod) (core.GroupReport, error) {
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return core.GroupReport{}, err
	}
	if period == "" {
		period = core.PeriodAll
	}
	if s.reports == nil {
		return GroupReport(g, asOf, period)
	}
	key := reportKey(g, asOf, period)
	report, hit, err := s.reports.GetOrLoad(ctx, key, func(context.Context) (core.GroupReport, error) {
		return GroupReport(g, asOf, period)
	})
	if err != nil {
		return core.GroupReport{}, err
	}
	s.metrics.ReportCache(hit)
	s.logger.DebugContext(ctx, "Group report served", log.FieldGroupID, g.ID, "period", period, "cache_hit", hit)
	return report, nil
}

// Export writes the group report through the configured exporter.
func (s *ReportService) Export(ctx context.Context, groupID string, asOf core.Date, period core.ReportPeriod) (string, error) {
	if s.exporter == nil {
		return "", ErrExportDisabled
	}
	report, err := s.GroupReport(ctx, groupID, asOf, period)
	if err != nil {
		return "", err
	}
	ref, err := s.exporter.ExportGroupReport(ctx, report)
	if err != nil {
		return "", fmt.Errorf("export report: %w", err)
	}
	s.logger.InfoContext(ctx, "Report exported",
		log.FieldGroupID, groupID,
		log.FieldExportRef, ref,
		log.FieldOperation, log.OpExport)
	return ref, nil
}

func reportKey(g *core.Group, asOf core.Date, period core.ReportPeriod) string {
	return fmt.Sprintf("report:%s:v%d:%s:%s", g.ID, g.Version, asOf, period)
}
