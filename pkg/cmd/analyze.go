package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/c9s/hawkes/pkg/analysis"
	"github.com/c9s/hawkes/pkg/cmd/cmdutil"
	"github.com/c9s/hawkes/pkg/config"
	"github.com/c9s/hawkes/pkg/dataset"
	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/report"
	"github.com/c9s/hawkes/pkg/service"
	"github.com/c9s/hawkes/pkg/style"
)

func init() {
	AnalyzeCmd.Flags().String("results", "", "result file written by the fit command")
	AnalyzeCmd.Flags().String("run-id", "", "load the fits of this run from the database instead")
	AnalyzeCmd.Flags().Bool("only-best", false, "keep the best initial guess of every window")
	AnalyzeCmd.Flags().Float64("delay", 0, "exposure increment of the delayed harm, in seconds")
	AnalyzeCmd.Flags().Float64("target-harm", 0, "harm fraction the reaction delay is solved for")
	AnalyzeCmd.Flags().Float64("c", 0, "kernel time offset the fits were made with")
	AnalyzeCmd.Flags().Int("optima", 0, "partition the fits into at most this many local optima")
	AnalyzeCmd.Flags().String("chart", "", "render the branching factor of every window to this png file")
	AnalyzeCmd.Flags().Bool("json", false, "print the summary in json format")
	RootCmd.AddCommand(AnalyzeCmd)
}

var AnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "derive branching factor, half-life, harm and reaction delay from fits",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		resultsFile, err := cmd.Flags().GetString("results")
		if err != nil {
			return err
		}

		runID, err := cmd.Flags().GetString("run-id")
		if err != nil {
			return err
		}

		numOptima, err := cmd.Flags().GetInt("optima")
		if err != nil {
			return err
		}

		chartFile, err := cmd.Flags().GetString("chart")
		if err != nil {
			return err
		}

		printJsonFormat, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}

		results, err := loadResults(cmd.Context(), cfg, resultsFile, runID)
		if err != nil {
			return err
		}

		rows := analysis.Analyze(results, cfg.Analysis)
		summary := analysis.Summarize(rows)

		var optima []analysis.Optimum
		if numOptima > 0 {
			if optima, err = analysis.Optima(rows, numOptima); err != nil {
				return err
			}
		}

		trend, err := analysis.BranchingTrend(rows)
		if err != nil {
			if !errors.Is(err, analysis.ErrNotEnoughWindows) {
				return err
			}
			log.WithError(err).Warn("skipping the branching factor trend")
		}

		if chartFile != "" {
			title := "branching factor"
			if resultsFile != "" {
				title = filepath.Base(resultsFile)
			}

			if err := report.DrawBranching(title, rows).RenderFile(chartFile); err != nil {
				return err
			}
			log.Infof("chart written to %s", chartFile)
		}

		if printJsonFormat {
			out, err := json.MarshalIndent(analyzeReport{
				Summary: summary,
				Optima:  optima,
				Trend:   trend,
			}, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		renderSummary(cmd, summary)
		if len(optima) > 0 {
			renderOptima(cmd, optima, cfg)
		}

		if trend != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "n* trend over %s: %+.5f per window (r2 %.3f)\n",
				style.Count(trend.Windows, "window"), trend.Slope, trend.R2)
		}

		if len(rows) == 0 {
			color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "no stationary fit with defined metrics")
			return nil
		}

		best := rows[0]
		for _, r := range rows[1:] {
			if r.LogLikelihood > best.LogLikelihood {
				best = r
			}
		}

		color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(),
			"best fit: window %d loglike %.4f %s n*=%s half-life=%.1fmin harm=%.2f%%\n",
			best.Window, best.LogLikelihood, best.Params, style.BranchingString(best.BranchingFactor),
			best.HalfLife/60, best.Harm*100)
		return nil
	},
}

type analyzeReport struct {
	Summary analysis.Summary   `json:"summary"`
	Optima  []analysis.Optimum `json:"optima,omitempty"`
	Trend   *analysis.Trend    `json:"trend,omitempty"`
}

func loadResults(ctx context.Context, cfg *config.Config, resultsFile, runID string) ([]hawkes.FitResult, error) {
	if runID != "" {
		if cfg.Database == nil {
			return nil, errors.New("--run-id needs --db-dsn or the database section of the config file")
		}

		if ctx == nil {
			ctx = context.Background()
		}

		db, err := cmdutil.ConnectDatabase(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		return (&service.FitResultService{DB: db.DB}).Query(ctx, runID)
	}

	if resultsFile == "" {
		return nil, errors.New("--results or --run-id is required")
	}

	f, err := os.Open(resultsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results, err := dataset.LoadResults(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", resultsFile)
	}

	log.Infof("loaded %d fits from %s", len(results), resultsFile)
	return results, nil
}

func renderSummary(cmd *cobra.Command, summary analysis.Summary) {
	t := style.NewTable(cmd.OutOrStdout(), style.Count(summary.Count, "fit"), table.Row{"Metric", "Mean", "Median"})
	for _, m := range []struct {
		name string
		stat analysis.Statistic
	}{
		{"half-life (min)", summary.HalfLifeMinutes},
		{"branching factor n*", summary.BranchingFactor},
		{"harm (%)", summary.HarmPercent},
		{"reaction delay (s)", summary.ReactionDelay},
	} {
		t.AppendRow(table.Row{m.name, fmt.Sprintf("%.4f", m.stat.Mean), fmt.Sprintf("%.4f", m.stat.Median)})
	}
	t.Render()
}

func renderOptima(cmd *cobra.Command, optima []analysis.Optimum, cfg *config.Config) {
	t := style.NewTable(cmd.OutOrStdout(), style.Count(len(optima), "optimum"), table.Row{"Beta", "Kappa", "Theta", "n*", "Fits", "Share", "Mean LogLike"})
	for _, o := range optima {
		n := hawkes.BranchingRatio(o.Center, cfg.Analysis.C, cfg.Analysis.Alpha)
		t.AppendRow(table.Row{
			fmt.Sprintf("%.4f", o.Center.Beta),
			fmt.Sprintf("%.4f", o.Center.Kappa),
			fmt.Sprintf("%.4f", o.Center.Theta),
			style.BranchingString(n),
			o.Count,
			fmt.Sprintf("%.1f%%", o.Share*100),
			fmt.Sprintf("%.4f", o.MeanLogLikelihood),
		})
	}
	t.Render()
}
