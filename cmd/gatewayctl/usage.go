package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/alchemorsel-v2/gateway/internal/database"
	"github.com/pageza/alchemorsel-v2/gateway/internal/service"
)

type ledgerFlags struct {
	dsn  string
	path string
}

func (f *ledgerFlags) open() (*service.UsageService, func(), error) {
	db, err := database.Open(f.dsn, f.path, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, nil, err
	}
	return service.NewUsageService(db), func() { database.Close(db) }, nil
}

func newUsageCommand(opts *rootOptions) *cobra.Command {
	flags := &ledgerFlags{}
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect the generation ledger",
	}
	cmd.PersistentFlags().StringVar(&flags.dsn, "database-url", envDefault("DATABASE_URL", ""), "Postgres DSN; empty uses the sqlite ledger")
	cmd.PersistentFlags().StringVar(&flags.path, "db-path", envDefault("DB_PATH", "data/gateway.db"), "Path of the sqlite ledger")

	cmd.AddCommand(newUsageSummaryCommand(opts, flags))
	cmd.AddCommand(newUsageRecentCommand(opts, flags))
	return cmd
}

func newUsageSummaryCommand(opts *rootOptions, flags *ledgerFlags) *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize turns per intent",
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer closeFn()

			summaries, err := usage.Summary(cmd.Context(), time.Now().Add(-window))
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd, summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No turns recorded")
				return nil
			}

			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.Intent,
					strconv.FormatInt(s.Turns, 10),
					strconv.FormatInt(s.Calls, 10),
					strconv.FormatInt(s.Repairs, 10),
					strconv.FormatInt(s.Failures, 10),
					fmt.Sprintf("%.0f", s.AvgLatencyMS),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Intent", "Turns", "Calls", "Repairs", "Failures", "Avg ms"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "since", 24*time.Hour, "How far back to aggregate")
	return cmd
}

func newUsageRecentCommand(opts *rootOptions, flags *ledgerFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := usage.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No turns recorded")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Endpoint,
					r.Intent,
					r.Outcome,
					strconv.Itoa(r.StatusCode),
					strconv.Itoa(r.Calls),
					strconv.FormatInt(r.LatencyMS, 10),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Time", "Endpoint", "Intent", "Outcome", "Status", "Calls", "ms"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of rows to show")
	return cmd
}
