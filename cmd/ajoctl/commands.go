package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ajo/internal/core"
	"ajo/internal/log"
	"ajo/internal/services"
	"ajo/internal/storage"
)

type rootOptions struct {
	dbPath string
	asOf   string
	json   bool
}

// session is the per-invocation service graph over the SQLite file.
type session struct {
	repo    *storage.SQLiteRepository
	groups  *services.GroupService
	reports *services.ReportService
	asOf    core.Date
}

func (o *rootOptions) open() (*session, error) {
	repo, err := storage.NewSQLiteRepository(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dbPath, err)
	}
	logger := log.New(log.Config{Output: io.Discard})
	groups := services.NewGroupService(repo, nil, services.WithLogger(logger))

	asOf := groups.Today()
	if o.asOf != "" {
		asOf, err = core.ParseDate(o.asOf)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("--as-of: %w", err)
		}
	}
	return &session{
		repo:    repo,
		groups:  groups,
		reports: services.NewReportService(groups),
		asOf:    asOf,
	}, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ajoctl",
		Short:         "Inspect rotating savings groups stored in SQLite",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	dbDefault := os.Getenv("SQLITE_DB_PATH")
	if dbDefault == "" {
		dbDefault = "./data/ajo.db"
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", dbDefault, "SQLite database path")
	root.PersistentFlags().StringVar(&opts.asOf, "as-of", "", "evaluate statuses on this date (YYYY-MM-DD), default today")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newGroupsCmd(opts),
		newScheduleCmd(opts),
		newReportCmd(opts),
	)
	return root
}

func withSession(opts *rootOptions, fn func(ctx context.Context, s *session, out io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, err := opts.open()
		if err != nil {
			return err
		}
		defer s.repo.Close()
		return fn(cmd.Context(), s, cmd.OutOrStdout())
	}
}

func newGroupsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List groups with their progress",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(ctx context.Context, s *session, out io.Writer) error {
			list, err := s.groups.ListGroups(ctx, s.asOf)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(out, list)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tMEMBERS\tCYCLE\tPROGRESS")
			for _, g := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%.0f%%\n",
					g.ID, g.Name, g.MemberCount, g.CurrentCycle, g.Progress.TotalCycles, g.Progress.Percent)
			}
			return tw.Flush()
		}),
	}
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var groupID string
	cmd := &cobra.Command{
		Use:   "schedule GROUP_ID",
		Short: "Print the due date and payout recipient of every cycle",
		Args:  cobra.ExactArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			groupID = args[0]
		},
	}
	cmd.RunE = withSession(opts, func(ctx context.Context, s *session, out io.Writer) error {
		view, err := s.reports.Schedule(ctx, groupID, s.asOf)
		if err != nil {
			return err
		}
		if opts.json {
			return printJSON(out, view)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CYCLE\tDUE\tRECIPIENT\t")
		for _, e := range view.Entries {
			recipient := "-"
			if e.Recipient != nil {
				recipient = e.Recipient.Name
			}
			marker := ""
			if e.Cycle == view.CurrentCycle && !view.Complete {
				marker = "<- current"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Cycle, e.DueDate, recipient, marker)
		}
		return tw.Flush()
	})
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var groupID, periodFlag string
	cmd := &cobra.Command{
		Use:   "report GROUP_ID",
		Short: "Print per-cycle collection totals and overall payment behaviour",
		Args:  cobra.ExactArgs(1),
		PreRun: func(_ *cobra.Command, args []string) {
			groupID = args[0]
		},
	}
	cmd.RunE = withSession(opts, func(ctx context.Context, s *session, out io.Writer) error {
		period, err := core.ParseReportPeriod(periodFlag)
		if err != nil {
			return fmt.Errorf("--period: %w", err)
		}
		rep, err := s.reports.GroupReport(ctx, groupID, s.asOf, period)
		if err != nil {
			return err
		}
		if opts.json {
			return printJSON(out, rep)
		}
		fmt.Fprintf(out, "%s (as of %s, %s)\n", rep.GroupName, rep.AsOf, rep.Period)
		fmt.Fprintf(out, "Collected %s | on time %.1f%% | late %.1f%% | missed %.1f%% | avg delay %.1f days\n\n",
			rep.TotalCollected, rep.OnTimePercent, rep.LatePercent, rep.MissedPercent, rep.AveragePaymentDelayDays)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CYCLE\tDUE\tPAID\tEXPECTED\tON TIME\tLATE\tMISSED\tPENDING\tRATE")
		for _, c := range rep.Cycles {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%.0f%%\n",
				c.Cycle, c.DueDate, c.TotalPaid, c.TotalDue,
				c.OnTimeCount, c.LateCount, c.MissedCount, c.PendingCount, c.CompletionRate)
		}
		return tw.Flush()
	})
	cmd.Flags().StringVar(&periodFlag, "period", string(core.PeriodAll), "cycles to include: all, last-6, last-3 or current")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
