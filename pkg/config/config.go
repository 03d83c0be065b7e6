package config

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/c9s/hawkes/pkg/analysis"
	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/solver"
)

const (
	DefaultDelay      = 3600.0
	DefaultTargetHarm = 0.5
	DefaultMaxWorkers = 10
)

type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// Config is the run configuration of the fit and analyze commands.
type Config struct {
	// Events lists the event files to fit, one or many
	Events StringSlice `json:"events,omitempty" yaml:"events,omitempty"`

	Fit      hawkes.Options   `json:"fit" yaml:"fit"`
	Analysis analysis.Options `json:"analysis" yaml:"analysis"`
	Database *DatabaseConfig  `json:"database,omitempty" yaml:"database,omitempty"`
}

// Default returns the configuration of the production runs.
func Default() *Config {
	fit := hawkes.DefaultOptions()
	fit.MaxWorkers = DefaultMaxWorkers
	return &Config{
		Fit: fit,
		Analysis: analysis.Options{
			ImpactOptions: hawkes.ImpactOptions{
				Alpha:      fit.Alpha,
				C:          fit.C,
				Delay:      DefaultDelay,
				TargetHarm: DefaultTargetHarm,
			},
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(configFile string) (*Config, error) {
	content, err := ioutil.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	config, err := Parse(content)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configFile)
	}

	return config, nil
}

func Parse(content []byte) (*Config, error) {
	config := Default()
	config.Fit.Bounds = hawkes.Bounds{}
	config.Analysis.Alpha = 0
	config.Analysis.C = 0

	if err := yaml.Unmarshal(content, config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyDefaults fills the values that depend on other settings.
func (c *Config) applyDefaults() {
	if c.Fit.Bounds == (hawkes.Bounds{}) {
		c.Fit.Bounds = hawkes.DefaultBounds(c.Fit.Alpha)
	}

	if c.Analysis.Alpha == 0 {
		c.Analysis.Alpha = c.Fit.Alpha
	}

	if c.Analysis.C == 0 {
		c.Analysis.C = c.Fit.C
	}

	if c.Fit.Settings.Tolerance == 0 {
		c.Fit.Settings.Tolerance = solver.DefaultTolerance
	}

	if c.Fit.Settings.MaxIterations == 0 {
		c.Fit.Settings.MaxIterations = solver.DefaultMaxIterations
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	fit := c.Fit
	check(fit.Alpha > 1, "fit.alpha must be greater than 1, got %v", fit.Alpha)
	check(fit.C > 0, "fit.c must be positive, got %v", fit.C)
	check(fit.WindowSize > 0, "fit.windowSize must be positive, got %d", fit.WindowSize)
	check(fit.Runs > 0, "fit.runs must be positive, got %d", fit.Runs)
	check(fit.MaxRedraws >= 0, "fit.maxRedraws must not be negative, got %d", fit.MaxRedraws)
	check(fit.Bounds.Valid(), "fit.bounds must have min < max for every parameter, got %+v", fit.Bounds)
	check(fit.Bounds.Beta.Min >= 0 && fit.Bounds.Beta.Max <= fit.Alpha-1,
		"fit.bounds.beta must be inside [0, alpha-1], got [%v, %v]", fit.Bounds.Beta.Min, fit.Bounds.Beta.Max)
	check(fit.Bounds.Kappa.Min > 0, "fit.bounds.kappa must be positive, got min %v", fit.Bounds.Kappa.Min)
	check(fit.Bounds.Theta.Min > 0, "fit.bounds.theta must be positive, got min %v", fit.Bounds.Theta.Min)
	_, methodErr := solver.New(fit.Solver, fit.Settings)
	check(methodErr == nil, "fit.solver: %v", methodErr)

	impact := c.Analysis.ImpactOptions
	check(impact.Delay >= 0, "analysis.delay must not be negative, got %v", impact.Delay)
	check(impact.TargetHarm > 0 && impact.TargetHarm < 1, "analysis.targetHarm must be inside (0, 1), got %v", impact.TargetHarm)

	if c.Database != nil {
		check(c.Database.Driver != "", "database.driver is required")
		check(c.Database.DSN != "", "database.dsn is required")
	}

	return err
}
