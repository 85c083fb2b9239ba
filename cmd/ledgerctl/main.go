package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"spendora-backend/aggregate"
	"spendora-backend/config"
	"spendora-backend/dashboard"
	"spendora-backend/export"
	"spendora-backend/ledger"
	"spendora-backend/rates"
)

type options struct {
	currency    string
	ratesFile   string
	granularity string
	window      int
	filter      export.Filter
	format      string
	output      string
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Inspect and convert exported expense snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [flags] <snapshot.json>",
	Short: "Print totals, category distribution and trend for a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, table, err := load(args[0], opts.ratesFile)
		if err != nil {
			return err
		}
		return writeSummary(cmd.OutOrStdout(), records, table, opts, time.Now())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [flags] <snapshot.json>",
	Short: "Render a snapshot as json, pdf, doc or xlsx",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, table, err := load(args[0], opts.ratesFile)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(opts.format)
		if err != nil {
			return err
		}

		now := time.Now()
		out := opts.output
		if out == "" {
			out = format.Filename(now)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		doc := export.NewDocument(export.Summarize(records, opts.filter), opts.filter, opts.currency, table, now)
		if err := export.Render(f, format, doc); err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		config.GetLogger().WithFields(logrus.Fields{
			"file":    out,
			"records": len(doc.Records),
		}).Info("export written")
		return nil
	},
}

// load reads a snapshot file and an optional rate table. A rate file that cannot
// be parsed falls back to the built-in table with a warning.
func load(snapshotPath, ratesPath string) ([]ledger.Record, *rates.Table, error) {
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return nil, nil, err
	}
	records, err := ledger.ParseImport(data, ledger.Today(time.Now()))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", snapshotPath, err)
	}

	table := rates.Default()
	if ratesPath != "" {
		raw, err := os.ReadFile(ratesPath)
		if err != nil {
			return nil, nil, err
		}
		var ok bool
		if table, ok = rates.Parse(raw); !ok {
			config.GetLogger().WithField("file", ratesPath).Warn("unusable rate table, using defaults")
		}
	}
	return records, table, nil
}

func writeSummary(w io.Writer, records []ledger.Record, table *rates.Table, o options, now time.Time) error {
	g, err := aggregate.ParseGranularity(o.granularity)
	if err != nil {
		return err
	}
	records = o.filter.Apply(records)
	ctrl := dashboard.NewController("", dashboard.Options{
		Currency:    o.currency,
		Rates:       table,
		Granularity: g,
		Window:      o.window,
		Now:         func() time.Time { return now },
	})
	screen := ctrl.OnSnapshot(records)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Expenses\t%d\n", screen.Totals.Count)
	fmt.Fprintf(tw, "Total\t%s\n", screen.Totals.Total.Text)
	fmt.Fprintf(tw, "This month\t%s\n", screen.Totals.MonthToDate.Text)

	view := ctrl.View()
	fmt.Fprintln(tw, "\nBy category")
	for _, c := range view.Categories {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Category, rates.Format(table.ToDisplay(c.Total, screen.Currency), screen.Currency))
	}

	fmt.Fprintf(tw, "\nTrend (%s)\n", strings.ToLower(string(screen.Granularity)))
	for _, p := range view.Trend {
		fmt.Fprintf(tw, "  %s\t%s\n", p.Label, rates.Format(table.ToDisplay(p.Total, screen.Currency), screen.Currency))
	}
	return tw.Flush()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.currency, "currency", rates.BaseCurrency, "display currency code")
	pf.StringVar(&opts.ratesFile, "rates", "", "JSON file of currency code to factor")
	pf.StringVar(&opts.filter.From, "from", "", "earliest date to include (YYYY-MM-DD)")
	pf.StringVar(&opts.filter.To, "to", "", "latest date to include (YYYY-MM-DD)")
	pf.StringVar(&opts.filter.Category, "category", "", "only include this category")

	summaryCmd.Flags().StringVar(&opts.granularity, "granularity", "month", "trend bucket: day, month or year")
	summaryCmd.Flags().IntVar(&opts.window, "window", dashboard.DefaultWindow, "number of trend buckets")

	exportCmd.Flags().StringVarP(&opts.format, "format", "f", "pdf", "output format: json, pdf, doc or xlsx")
	exportCmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default expenses-<date>.<format>)")

	rootCmd.AddCommand(summaryCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
