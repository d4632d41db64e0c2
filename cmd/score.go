package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/booking-insights/internal/dashboard"
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
)

var (
	scoreSnapshot string
	scoreFetch    bool
	scoreNow      string
	scoreFormat   string
	scoreOutput   string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a snapshot and print the dashboard report",
	Example: `  booking-insights score --snapshot snapshot.json --now 2026-03-02T09:00:00Z
  booking-insights score --fetch --format table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (scoreSnapshot == "") == !scoreFetch {
			return eris.New("score: exactly one of --snapshot or --fetch is required")
		}
		if scoreFormat != "json" && scoreFormat != "table" {
			return eris.Errorf("score: unknown format %q", scoreFormat)
		}
		if err := cfg.Validate("score"); err != nil {
			return err
		}

		now, err := parseNow(scoreNow)
		if err != nil {
			return err
		}
		policy := dashboard.PolicyFromConfig(cfg)

		var snap *model.Snapshot
		if scoreFetch {
			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			from, to := policy.Range(now)
			snap, err = fetcher.FetchSnapshot(cmd.Context(), from, to)
			if err != nil {
				return err
			}
		} else {
			snap, err = readSnapshot(scoreSnapshot, cmd.InOrStdin())
			if err != nil {
				return err
			}
		}

		report, err := dashboard.Build(snap, now, policy)
		if err != nil {
			return err
		}
		zap.L().Info("score: report built",
			zap.Int("bookings", len(report.Bookings)),
			zap.Int("owner_actions", len(report.OwnerActions)),
			zap.Int("health_score", report.Health.HealthScore),
		)

		out := cmd.OutOrStdout()
		if scoreOutput != "" {
			f, err := os.Create(scoreOutput)
			if err != nil {
				return eris.Wrap(err, "score: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return writeReport(out, report, scoreFormat)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreSnapshot, "snapshot", "", "snapshot JSON file (- for stdin)")
	scoreCmd.Flags().BoolVar(&scoreFetch, "fetch", false, "fetch the snapshot from the booking backend")
	scoreCmd.Flags().StringVar(&scoreNow, "now", "", "evaluation time, RFC 3339 (default current time)")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "json", "output format: json or table")
	scoreCmd.Flags().StringVar(&scoreOutput, "output", "", "write the report to this file instead of stdout")
	rootCmd.AddCommand(scoreCmd)
}

func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "invalid --now %q", s)
	}
	return t, nil
}

func readSnapshot(path string, stdin io.Reader) (*model.Snapshot, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "score: open snapshot")
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, eris.Wrap(err, "score: decode snapshot")
	}
	return &snap, nil
}

func writeReport(w io.Writer, r *dashboard.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "score: encode report")
	}
	return writeTable(w, r)
}

func writeTable(w io.Writer, r *dashboard.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Business health\t%d (%s)\n", r.Health.HealthScore, r.Health.HealthLabel)
	for _, f := range r.Health.Factors {
		fmt.Fprintf(tw, "  %s\t%.1f\tweight %d\n", f.Name, f.Value, f.Weight)
	}

	rb := r.RevenueBreakdown
	fmt.Fprintf(tw, "\nRevenue\t%s\n", metrics.FormatPence(rb.Total))
	fmt.Fprintf(tw, "  secured\t%s\n", metrics.FormatPence(rb.Secured))
	fmt.Fprintf(tw, "  deposit\t%s\n", metrics.FormatPence(rb.Deposit))
	fmt.Fprintf(tw, "  at risk\t%s\n", metrics.FormatPence(rb.AtRisk))

	d := r.ReliabilityDistribution
	fmt.Fprintf(tw, "\nClients\t%d\texcellent %d, good %d, fair %d, poor %d\n",
		len(r.Clients), d.Excellent, d.Good, d.Fair, d.Poor)

	fmt.Fprintf(tw, "\nBOOKING\tSTART\tRISK\tSCORE\tAT RISK\tRECOMMENDATION\n")
	for _, b := range r.Bookings {
		if !b.IsUpcoming() || b.StartTime.Before(r.GeneratedAt) {
			continue
		}
		rec := string(b.RecommendedPaymentType)
		if b.RecommendedPaymentType == model.PaymentTypeDeposit {
			rec = fmt.Sprintf("deposit %.0f%%", b.RecommendedDepositPercent)
		}
		if b.ManualReview {
			rec += " (review)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\t%s\n",
			b.ID, b.StartTime.Format("Mon 02 Jan 15:04"), b.RiskLevel, b.RiskScore,
			metrics.FormatPence(b.RevenueAtRisk), rec)
	}

	if len(r.OwnerActions) > 0 {
		fmt.Fprintf(tw, "\nACTION\tSEVERITY\tMESSAGE\n")
		for _, a := range r.OwnerActions {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Type, a.Severity, a.Message)
		}
	}

	return eris.Wrap(tw.Flush(), "score: write table")
}
