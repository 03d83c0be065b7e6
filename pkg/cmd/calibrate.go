package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c9s/hawkes/pkg/cmd/cmdutil"
	"github.com/c9s/hawkes/pkg/optimizer"
	"github.com/c9s/hawkes/pkg/profile/timeprofile"
	"github.com/c9s/hawkes/pkg/style"

	log "github.com/sirupsen/logrus"
)

func init() {
	CalibrateCmd.Flags().String("events", "", "event file the trials are fitted on")
	CalibrateCmd.Flags().String("optimizer-config", "optimizer.yaml", "optimizer config file")
	CalibrateCmd.Flags().String("output", "output", "directory of the trial report")
	CalibrateCmd.Flags().Bool("grid", false, "evaluate the whole matrix instead of running a study")
	CalibrateCmd.Flags().Bool("json", false, "print the report in json format")
	RootCmd.AddCommand(CalibrateCmd)
}

var CalibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "search the run options, e.g. the kernel offset c or the solver, that fit best",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		optimizerConfigFilename, err := cmd.Flags().GetString("optimizer-config")
		if err != nil {
			return err
		}

		eventsFile, err := cmd.Flags().GetString("events")
		if err != nil {
			return err
		}

		outputDirectory, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		useGrid, err := cmd.Flags().GetBool("grid")
		if err != nil {
			return err
		}

		printJsonFormat, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}

		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		if eventsFile == "" {
			if len(cfg.Events) == 0 {
				return errors.New("--events or the events of the config file is required")
			}
			eventsFile = cfg.Events[0]
		}

		optConfig, err := optimizer.LoadConfig(optimizerConfigFilename)
		if err != nil {
			return err
		}

		input := seriesInput{file: eventsFile}
		series, err := input.load(cfg.Fit.Alpha)
		if err != nil {
			return err
		}

		// the config json template used for patch
		configJson, err := json.MarshalIndent(cfg.Fit, "", "  ")
		if err != nil {
			return err
		}

		if bind := viper.GetString("metrics-bind"); bind != "" {
			cmdutil.ServeMetrics(ctx, bind)
		}

		executor := &optimizer.LocalFitExecutor{
			Series:     series,
			MaxWorkers: optConfig.Executor.LocalExecutorConfig.MaxWorkers,
		}

		profile := timeprofile.Start("calibrate " + eventsFile)

		var report *optimizer.HyperparameterOptimizeReport
		if useGrid {
			report, err = (&optimizer.GridOptimizer{Config: optConfig}).Run(ctx, executor, configJson)
		} else {
			hpo := &optimizer.HyperparameterOptimizer{
				SessionName: "hawkes-" + input.name(),
				Config:      optConfig,
			}
			report, err = hpo.Run(ctx, executor, configJson)
		}
		if err != nil {
			return err
		}

		profile.StopAndLog(log.StandardLogger(), log.Fields{"trials": len(report.Trials), "algorithm": optConfig.Algorithm})

		if err := os.MkdirAll(outputDirectory, 0755); err != nil {
			return err
		}

		reportFile := filepath.Join(outputDirectory, input.name()+".trials.tsv")
		f, err := os.Create(reportFile)
		if err != nil {
			return err
		}

		if err := optimizer.FormatResultsTsv(f, report.Parameters, report.Trials); err != nil {
			return err
		}
		log.Infof("%d trials written to %s", len(report.Trials), reportFile)

		if printJsonFormat {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}

			// print report JSON to stdout
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		if report.Best == nil {
			color.New(color.FgRed).Fprintln(cmd.OutOrStdout(), "every trial failed")
			return nil
		}

		renderBestTrial(cmd, report)
		return nil
	},
}

func renderBestTrial(cmd *cobra.Command, report *optimizer.HyperparameterOptimizeReport) {
	labels := make([]string, 0, len(report.Best.Parameters))
	for label := range report.Best.Parameters {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	t := style.NewTable(cmd.OutOrStdout(), fmt.Sprintf("best of %s", style.Count(len(report.Trials), "trial")), table.Row{"Parameter", "Value"})
	for _, label := range labels {
		t.AppendRow(table.Row{style.Title(label), fmt.Sprintf("%v", report.Best.Parameters[label])})
	}
	t.Render()

	color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "best %s: %v\n", report.Objective, report.Best.Value)
}
