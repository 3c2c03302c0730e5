package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/localesync/internal/history"
)

func newLocalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List the locales under the output directory with their key counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			svc, closeHistory, err := newService(cmd.Context(), cfg, 1)
			if err != nil {
				return err
			}
			defer closeHistory()

			locales, err := svc.Locales(cmd.Context(), cfg.Import.Options())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LOCALE\tKEYS")
			for _, l := range locales {
				fmt.Fprintf(tw, "%s\t%d\n", l.Locale, l.Keys)
			}
			return tw.Flush()
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent import runs (requires DATABASE_URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			svc, closeHistory, err := newService(cmd.Context(), cfg, 1)
			if err != nil {
				return err
			}
			defer closeHistory()

			runs, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tSOURCE\tSTATUS\tROWS\tLOCALES\tRUN")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Source, r.Status,
					r.RowsApplied, r.RowsRead, len(r.Locales), r.RunID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "number of runs to show")
	return cmd
}
