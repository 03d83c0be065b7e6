package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c9s/hawkes/pkg/config"
	"github.com/c9s/hawkes/pkg/solver"
)

// loadRunConfig reads --config, or the defaults when it is not given, and
// applies the fit flags that were set on the command line.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile := viper.GetString("config"); configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Lookup("solver") != nil && flags.Changed("solver") {
		name, err := flags.GetString("solver")
		if err != nil {
			return nil, err
		}
		if cfg.Fit.Solver, err = solver.ParseMethod(name); err != nil {
			return nil, err
		}
	}

	overrides := []struct {
		flag string
		set  func() error
	}{
		{"c", func() (err error) { cfg.Fit.C, err = flags.GetFloat64("c"); cfg.Analysis.C = cfg.Fit.C; return }},
		{"window-size", func() (err error) { cfg.Fit.WindowSize, err = flags.GetInt("window-size"); return }},
		{"runs", func() (err error) { cfg.Fit.Runs, err = flags.GetInt("runs"); return }},
		{"seed", func() (err error) { cfg.Fit.Seed, err = flags.GetUint64("seed"); return }},
		{"max-workers", func() (err error) { cfg.Fit.MaxWorkers, err = flags.GetInt("max-workers"); return }},
		{"delay", func() (err error) { cfg.Analysis.Delay, err = flags.GetFloat64("delay"); return }},
		{"target-harm", func() (err error) { cfg.Analysis.TargetHarm, err = flags.GetFloat64("target-harm"); return }},
		{"only-best", func() (err error) { cfg.Analysis.OnlyBest, err = flags.GetBool("only-best"); return }},
	}

	for _, o := range overrides {
		if flags.Lookup(o.flag) == nil || !flags.Changed(o.flag) {
			continue
		}

		if err := o.set(); err != nil {
			return nil, err
		}
	}

	if driver := viper.GetString("db-driver"); driver != "" {
		cfg.Database = &config.DatabaseConfig{Driver: driver, DSN: viper.GetString("db-dsn")}
	} else if dsn := viper.GetString("db-dsn"); dsn != "" {
		cfg.Database = &config.DatabaseConfig{Driver: "sqlite3", DSN: dsn}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fitFlags are the fit options that can be overridden from the command line.
func fitFlags(cmd *cobra.Command) {
	cmd.Flags().String("solver", "", "local search backend: trust-region, sequential-quadratic, bounded-quasi-newton or interior-point")
	cmd.Flags().Float64("c", 0, "kernel time offset in seconds")
	cmd.Flags().Int("window-size", 0, "number of events per rolling window")
	cmd.Flags().Int("runs", 0, "number of initial guesses")
	cmd.Flags().Uint64("seed", 0, "seed of the initial guess sampler")
	cmd.Flags().Int("max-workers", 0, "number of guesses fitted in parallel")
}
