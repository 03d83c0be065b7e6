package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c9s/hawkes/pkg/analysis"
	"github.com/c9s/hawkes/pkg/cmd/cmdutil"
	"github.com/c9s/hawkes/pkg/config"
	"github.com/c9s/hawkes/pkg/dataset"
	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/profile/timeprofile"
	"github.com/c9s/hawkes/pkg/report"
	"github.com/c9s/hawkes/pkg/service"
	"github.com/c9s/hawkes/pkg/style"
)

func init() {
	FitCmd.Flags().String("events", "", "event file: time, mark and post flag per row")
	FitCmd.Flags().String("records", "", "raw record file: time, followers, author and status per row")
	FitCmd.Flags().Float64("origin", 0, "time origin of raw records, defaults to the first record")
	FitCmd.Flags().String("output", "output", "directory of the result files")
	FitCmd.Flags().Bool("json", false, "print the fits in json format")
	fitFlags(FitCmd)
	RootCmd.AddCommand(FitCmd)
}

var FitCmd = &cobra.Command{
	Use:   "fit",
	Short: "fit the kernel on rolling windows of an event series",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		eventsFile, err := cmd.Flags().GetString("events")
		if err != nil {
			return err
		}

		recordsFile, err := cmd.Flags().GetString("records")
		if err != nil {
			return err
		}

		outputDirectory, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		printJsonFormat, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}

		if bind := viper.GetString("metrics-bind"); bind != "" {
			cmdutil.ServeMetrics(ctx, bind)
		}

		var inputs []seriesInput
		switch {
		case recordsFile != "":
			origin, err := cmd.Flags().GetFloat64("origin")
			if err != nil {
				return err
			}

			inputs = append(inputs, seriesInput{file: recordsFile, records: true, origin: origin, hasOrigin: cmd.Flags().Changed("origin")})
		case eventsFile != "":
			inputs = append(inputs, seriesInput{file: eventsFile})
		default:
			for _, f := range cfg.Events {
				inputs = append(inputs, seriesInput{file: f})
			}
		}

		if len(inputs) == 0 {
			return errors.New("--events, --records or the events of the config file is required")
		}

		var store *service.FitResultService
		if cfg.Database != nil {
			db, err := cmdutil.ConnectDatabase(ctx, cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			store = &service.FitResultService{DB: db.DB}
		}

		if err := os.MkdirAll(outputDirectory, 0755); err != nil {
			return err
		}

		for _, input := range inputs {
			series, err := input.load(cfg.Fit.Alpha)
			if err != nil {
				return err
			}

			profile := timeprofile.Start("fit " + input.file)
			results, err := hawkes.Fit(ctx, series, cfg.Fit)
			if err != nil {
				return errors.Wrapf(err, "fit %s", input.file)
			}
			profile.StopAndLog(log.StandardLogger(), log.Fields{"events": series.Len(), "fits": len(results)})

			outputFile := filepath.Join(outputDirectory, input.name()+".fits.tsv")
			if err := writeResultsFile(outputFile, results); err != nil {
				return err
			}
			log.Infof("%d fits written to %s", len(results), outputFile)

			runID := service.NewRunID()
			if store != nil {
				if err := store.Insert(ctx, runID, results); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run id: %s\n", runID)
			}

			failed := 0
			for _, r := range results {
				if r.Failed() {
					failed++
				}
			}

			if err := report.AddReportIndexRun(outputDirectory, report.Run{
				ID:      runID,
				Events:  input.file,
				Output:  outputFile,
				Options: cfg.Fit,
				Fits:    len(results),
				Failed:  failed,
				Time:    time.Now(),
			}); err != nil {
				return err
			}

			if printJsonFormat {
				out, err := json.MarshalIndent(jsonResults(results), "", "  ")
				if err != nil {
					return err
				}

				// print fits JSON to stdout
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				continue
			}

			renderBestFits(cmd, input.name(), results, cfg)
		}

		return nil
	},
}

type seriesInput struct {
	file      string
	records   bool
	origin    float64
	hasOrigin bool
}

func (i seriesInput) name() string {
	base := filepath.Base(i.file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (i seriesInput) load(alpha float64) (hawkes.Series, error) {
	f, err := os.Open(i.file)
	if err != nil {
		return hawkes.Series{}, err
	}
	defer f.Close()

	if !i.records {
		series, err := dataset.LoadEvents(f)
		return series, errors.Wrapf(err, "load %s", i.file)
	}

	records, err := dataset.LoadRecords(f)
	if err != nil {
		return hawkes.Series{}, errors.Wrapf(err, "load %s", i.file)
	}

	origin := i.origin
	if !i.hasOrigin {
		origin = math.Inf(1)
		for _, r := range records {
			origin = math.Min(origin, r.Time)
		}
	}

	return dataset.Prepare(records, alpha, origin), nil
}

func writeResultsFile(filename string, results []hawkes.FitResult) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	return dataset.WriteResults(f, results)
}

// jsonResults replaces the non-finite values encoding/json rejects with nil.
func jsonResults(results []hawkes.FitResult) []map[string]interface{} {
	finite := func(v float64) interface{} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	}

	out := make([]map[string]interface{}, len(results))
	for i, r := range results {
		out[i] = map[string]interface{}{
			"range":     r.Window,
			"solver":    r.Solver.String(),
			"guess":     r.Guess,
			"beta":      finite(r.Params.Beta),
			"kappa":     finite(r.Params.Kappa),
			"theta":     finite(r.Params.Theta),
			"loglike":   finite(r.LogLikelihood),
			"mu":        finite(r.Mu),
			"timeDelta": r.Duration,
			"events":    r.Events,
		}
		if r.Err != "" {
			out[i]["error"] = r.Err
		}
	}
	return out
}

func renderBestFits(cmd *cobra.Command, title string, results []hawkes.FitResult, cfg *config.Config) {
	best := analysis.Best(results)
	t := style.NewTable(cmd.OutOrStdout(), fmt.Sprintf("%s: best of %s", title, style.Count(len(best), "window")), table.Row{"Window", "Events", "LogLike", "Beta", "Kappa", "Theta", "n*"})
	for _, r := range best {
		n := hawkes.BranchingRatio(r.Params, cfg.Fit.C, cfg.Fit.Alpha)
		t.AppendRow(table.Row{
			r.Window,
			r.Events,
			fmt.Sprintf("%.4f", r.LogLikelihood),
			fmt.Sprintf("%.4f", r.Params.Beta),
			fmt.Sprintf("%.4f", r.Params.Kappa),
			fmt.Sprintf("%.4f", r.Params.Theta),
			style.BranchingString(n),
		})
	}
	t.Render()
}
