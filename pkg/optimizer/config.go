package optimizer

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	selectorTypeRangeFloat = "rangeFloat"
	selectorTypeRangeInt   = "rangeInt"
	selectorTypeString     = "string"
	selectorTypeBool       = "bool"
)

// SelectorConfig is one axis of the search. Path is the JSON pointer of the
// run option it replaces, e.g. /c, /windowSize, /solver or /runs.
type SelectorConfig struct {
	Type   string   `json:"type" yaml:"type"`
	Label  string   `json:"label,omitempty" yaml:"label,omitempty"`
	Path   string   `json:"path" yaml:"path"`
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
	Min    float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max    float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step   float64  `json:"step,omitempty" yaml:"step,omitempty"`
}

type LocalExecutorConfig struct {
	// MaxNumberOfProcesses is the number of trials evaluated at once
	MaxNumberOfProcesses int `json:"maxNumberOfProcesses" yaml:"maxNumberOfProcesses"`

	// MaxWorkers is the fit parallelism inside one trial
	MaxWorkers int `json:"maxWorkers" yaml:"maxWorkers"`
}

type ExecutorConfig struct {
	Type                string               `json:"type" yaml:"type"`
	LocalExecutorConfig *LocalExecutorConfig `json:"local" yaml:"local"`
}

type Config struct {
	Executor      *ExecutorConfig  `json:"executor" yaml:"executor"`
	Matrix        []SelectorConfig `json:"matrix" yaml:"matrix"`
	Algorithm     string           `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Objective     string           `json:"objectiveBy,omitempty" yaml:"objectiveBy,omitempty"`
	MaxEvaluation int              `json:"maxEvaluation" yaml:"maxEvaluation"`
}

func defaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{
		Type:                "local",
		LocalExecutorConfig: defaultLocalExecutorConfig(),
	}
}

func defaultLocalExecutorConfig() *LocalExecutorConfig {
	return &LocalExecutorConfig{
		MaxNumberOfProcesses: 2,
		MaxWorkers:           5,
	}
}

func LoadConfig(yamlConfigFileName string) (*Config, error) {
	configYaml, err := ioutil.ReadFile(yamlConfigFileName)
	if err != nil {
		return nil, err
	}

	optConfig, err := ParseConfig(configYaml)
	if err != nil {
		return nil, errors.Wrapf(err, "optimizer config %s", yamlConfigFileName)
	}

	return optConfig, nil
}

func ParseConfig(configYaml []byte) (*Config, error) {
	var optConfig Config
	if err := yaml.Unmarshal(configYaml, &optConfig); err != nil {
		return nil, err
	}

	switch alg := strings.ToLower(optConfig.Algorithm); alg {
	case "", "default":
		optConfig.Algorithm = HpOptimizerAlgorithmTPE
	case HpOptimizerAlgorithmTPE, HpOptimizerAlgorithmCMAES, HpOptimizerAlgorithmSOBOL, HpOptimizerAlgorithmRandom:
		optConfig.Algorithm = alg
	default:
		return nil, fmt.Errorf(`unknown algorithm "%s"`, optConfig.Algorithm)
	}

	switch objective := strings.ToLower(optConfig.Objective); objective {
	case "", "default":
		optConfig.Objective = HpOptimizerObjectiveFitScore
	case HpOptimizerObjectiveFitScore, HpOptimizerObjectiveSuccessRate:
		optConfig.Objective = objective
	default:
		return nil, fmt.Errorf(`unknown objective "%s"`, optConfig.Objective)
	}

	for i, selector := range optConfig.Matrix {
		if selector.Path == "" || !strings.HasPrefix(selector.Path, "/") {
			return nil, fmt.Errorf(`matrix[%d]: path "%s" must be a JSON pointer`, i, selector.Path)
		}

		if selector.Label == "" {
			optConfig.Matrix[i].Label = strings.TrimPrefix(selector.Path, "/")
		}
	}

	if optConfig.MaxEvaluation <= 0 {
		optConfig.MaxEvaluation = 100
	}

	if optConfig.Executor == nil {
		optConfig.Executor = defaultExecutorConfig()
	}

	if optConfig.Executor.Type == "" {
		optConfig.Executor.Type = "local"
	}

	if optConfig.Executor.Type == "local" && optConfig.Executor.LocalExecutorConfig == nil {
		optConfig.Executor.LocalExecutorConfig = defaultLocalExecutorConfig()
	}

	if optConfig.Executor.Type != "local" {
		return nil, fmt.Errorf(`unsupported executor type "%s"`, optConfig.Executor.Type)
	}

	return &optConfig, nil
}
