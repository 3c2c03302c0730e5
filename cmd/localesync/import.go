package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/localesync/internal/core"
)

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, closeHistory, err := newService(cmd.Context(), cfg, 1)
	if err != nil {
		return err
	}
	defer closeHistory()

	res, err := svc.ImportFile(cmd.Context(), cfg.Import.Options())
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), res)
}

// printResult writes a per-locale summary of an import.
func printResult(w io.Writer, res *core.Result) error {
	verb := "imported"
	if res.Status == core.RunDryRun {
		verb = "dry run of"
	}
	fmt.Fprintf(w, "%s %s: %d rows read, %d applied, %d skipped in %s\n",
		verb, res.Source, res.RowsRead, res.RowsApplied, res.RowsSkipped,
		res.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCALE\tADDED\tUPDATED\tUNCHANGED\tPRESERVED\tTOTAL\tNOTE")
	for _, l := range res.Locales {
		note := ""
		switch {
		case l.Excluded:
			note = "excluded"
		case l.Created:
			note = "new"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			l.Locale, l.Added, l.Updated, l.Unchanged, l.Preserved, l.Total, note)
	}
	return tw.Flush()
}
