package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/c-bata/goptuna"
	goptunaCMAES "github.com/c-bata/goptuna/cmaes"
	goptunaSOBOL "github.com/c-bata/goptuna/sobol"
	goptunaTPE "github.com/c-bata/goptuna/tpe"
	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// WARNING: the text here could only be lower cases
const (
	// HpOptimizerObjectiveFitScore maximizes the mean best log-likelihood per event
	HpOptimizerObjectiveFitScore = "fitscore"
	// HpOptimizerObjectiveSuccessRate maximizes the share of converged window fits
	HpOptimizerObjectiveSuccessRate = "successrate"
)

const (
	// HpOptimizerAlgorithmTPE is the implementation of Tree-structured Parzen Estimators
	HpOptimizerAlgorithmTPE = "tpe"
	// HpOptimizerAlgorithmCMAES is the implementation Covariance Matrix Adaptation Evolution Strategy
	HpOptimizerAlgorithmCMAES = "cmaes"
	// HpOptimizerAlgorithmSOBOL is the implementation Quasi-monte carlo sampling based on Sobol sequence
	HpOptimizerAlgorithmSOBOL = "sobol"
	// HpOptimizerAlgorithmRandom is the implementation random search
	HpOptimizerAlgorithmRandom = "random"
)

var ErrNoFittedWindow = errors.New("no window was fitted")

// MetricValueFunc extracts the value a study maximizes from a trial summary.
type MetricValueFunc func(summary *TrialSummary) (float64, error)

func FitScoreMetricValueFunc(summary *TrialSummary) (float64, error) {
	if summary.Windows == 0 || math.IsInf(summary.FitScore, 0) || math.IsNaN(summary.FitScore) {
		return 0, ErrNoFittedWindow
	}
	return summary.FitScore, nil
}

func SuccessRateMetricValueFunc(summary *TrialSummary) (float64, error) {
	return summary.SuccessRate, nil
}

func metricValueFuncOf(objective string) MetricValueFunc {
	switch objective {
	case HpOptimizerObjectiveSuccessRate:
		return SuccessRateMetricValueFunc
	default:
		return FitScoreMetricValueFunc
	}
}

type HyperparameterOptimizeTrialResult struct {
	Value      float64                `json:"value"`
	Parameters map[string]interface{} `json:"parameters"`
	ID         *int                   `json:"id,omitempty"`
	State      string                 `json:"state,omitempty"`
}

type HyperparameterOptimizeReport struct {
	Name       string                               `json:"studyName"`
	Objective  string                               `json:"objective"`
	Parameters map[string]string                    `json:"domains"`
	Best       *HyperparameterOptimizeTrialResult   `json:"best"`
	Trials     []*HyperparameterOptimizeTrialResult `json:"trials,omitempty"`
}

func buildBestHyperparameterOptimizeResult(study *goptuna.Study) *HyperparameterOptimizeTrialResult {
	val, err := study.GetBestValue()
	if err != nil {
		return nil
	}

	params, _ := study.GetBestParams()
	return &HyperparameterOptimizeTrialResult{
		Value:      val,
		Parameters: params,
	}
}

func buildHyperparameterOptimizeTrialResults(study *goptuna.Study) []*HyperparameterOptimizeTrialResult {
	trials, _ := study.GetTrials()
	results := make([]*HyperparameterOptimizeTrialResult, len(trials))
	for i, trial := range trials {
		trialId := trial.ID
		results[i] = &HyperparameterOptimizeTrialResult{
			ID:         &trialId,
			Value:      trial.Value,
			Parameters: trial.Params,
			State:      trial.State.String(),
		}
	}
	return results
}

// HyperparameterOptimizer searches the run options with a goptuna study.
type HyperparameterOptimizer struct {
	SessionName string
	Config      *Config

	// Workaround for goptuna/tpe parameter suggestion. Remove this after fixed.
	// ref: https://github.com/c-bata/goptuna/issues/236
	paramSuggestionLock sync.Mutex
}

func (o *HyperparameterOptimizer) buildStudy(trialFinishChan chan goptuna.FrozenTrial) (*goptuna.Study, error) {
	var studyOpts = make([]goptuna.StudyOption, 0, 4)

	studyOpts = append(studyOpts, goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize))

	// disable search log and collect trial progress
	studyOpts = append(studyOpts, goptuna.StudyOptionLogger(nil))
	studyOpts = append(studyOpts, goptuna.StudyOptionTrialNotifyChannel(trialFinishChan))

	var sampler goptuna.Sampler = nil
	var relativeSampler goptuna.RelativeSampler = nil
	switch o.Config.Algorithm {
	case HpOptimizerAlgorithmRandom:
		sampler = goptuna.NewRandomSampler()
	case HpOptimizerAlgorithmTPE:
		sampler = goptunaTPE.NewSampler()
	case HpOptimizerAlgorithmCMAES:
		relativeSampler = goptunaCMAES.NewSampler(goptunaCMAES.SamplerOptionNStartupTrials(5))
	case HpOptimizerAlgorithmSOBOL:
		relativeSampler = goptunaSOBOL.NewSampler()
	}
	if sampler != nil {
		studyOpts = append(studyOpts, goptuna.StudyOptionSampler(sampler))
	} else {
		studyOpts = append(studyOpts, goptuna.StudyOptionRelativeSampler(relativeSampler))
	}

	return goptuna.CreateStudy(o.SessionName, studyOpts...)
}

func (o *HyperparameterOptimizer) buildParamDomains() (map[string]string, []paramDomain) {
	labelPaths := make(map[string]string)
	domains := make([]paramDomain, 0, len(o.Config.Matrix))

	for _, selector := range o.Config.Matrix {
		base := paramDomainBase{
			label: selector.Label,
			path:  selector.Path,
		}

		var domain paramDomain
		switch selector.Type {
		case selectorTypeRangeFloat:
			if selector.Step == 0 {
				domain = &floatRangeDomain{paramDomainBase: base, min: selector.Min, max: selector.Max}
			} else {
				domain = &floatDiscreteRangeDomain{paramDomainBase: base, min: selector.Min, max: selector.Max, step: selector.Step}
			}
		case selectorTypeRangeInt:
			if selector.Step == 0 {
				domain = &intRangeDomain{paramDomainBase: base, min: int(selector.Min), max: int(selector.Max)}
			} else {
				domain = &intStepRangeDomain{paramDomainBase: base, min: int(selector.Min), max: int(selector.Max), step: int(selector.Step)}
			}
		case selectorTypeString:
			domain = &stringDomain{paramDomainBase: base, options: selector.Values}
		case selectorTypeBool:
			domain = &boolDomain{paramDomainBase: base}
		default:
			log.Warnf("skipping selector %s: unknown type %q", selector.Label, selector.Type)
			continue
		}
		labelPaths[selector.Label] = selector.Path
		domains = append(domains, domain)
	}
	return labelPaths, domains
}

func (o *HyperparameterOptimizer) buildObjective(ctx context.Context, executor Executor, configJson []byte, paramDomains []paramDomain) goptuna.FuncObjective {
	metricValueFunc := metricValueFuncOf(o.Config.Objective)

	return func(trial goptuna.Trial) (float64, error) {
		trialConfig, err := func(trialConfig []byte) ([]byte, error) {
			o.paramSuggestionLock.Lock()
			defer o.paramSuggestionLock.Unlock()

			for _, domain := range paramDomains {
				if patch, err := domain.buildPatch(&trial); err != nil {
					return nil, err
				} else if patchedConfig, err := patch.Apply(trialConfig); err != nil {
					return nil, err
				} else {
					trialConfig = patchedConfig
				}
			}
			return trialConfig, nil
		}(configJson)
		if err != nil {
			return 0.0, err
		}

		summary, err := executor.Execute(ctx, trialConfig)
		if err != nil {
			return 0.0, err
		}

		return metricValueFunc(summary)
	}
}

// splitEvaluations spreads total trials over at most processes studies.
// Earlier processes take the remainder.
func splitEvaluations(total, processes int) []int {
	if total <= 0 {
		return nil
	}

	if processes <= 0 {
		processes = 1
	}
	if processes > total {
		processes = total
	}

	out := make([]int, processes)
	for i := range out {
		out[i] = total / processes
		if i < total%processes {
			out[i]++
		}
	}
	return out
}

// trialProgress consumes finished trials, keeps the best value seen so far and
// drives the progress bar.
type trialProgress struct {
	bar    *pb.ProgressBar
	done   chan struct{}
	best   float64
	failed int
}

func startTrialProgress(total int, trials <-chan goptuna.FrozenTrial) *trialProgress {
	p := &trialProgress{
		bar:  pb.Full.Start(total),
		done: make(chan struct{}),
		best: math.Inf(-1),
	}
	p.bar.SetTemplateString(`{{ string . "log" | green}} | {{counters . }} {{bar . }} {{percent . }} {{etime . }} {{rtime . "ETA %s"}}`)

	go func() {
		defer close(p.done)
		for trial := range trials {
			p.observe(trial)
		}
	}()
	return p
}

func (p *trialProgress) observe(trial goptuna.FrozenTrial) {
	log.WithFields(logrus.Fields{"ID": trial.ID, "evaluation": trial.Value, "state": trial.State}).Debug("trial finished")

	if trial.State == goptuna.TrialStateFail {
		p.failed++
		log.WithFields(trial.Params).Errorf("failed at trial #%d", trial.ID)
	} else if trial.Value > p.best {
		p.best = trial.Value
		log.WithFields(trial.Params).Infof("new best %v at trial #%d", trial.Value, trial.ID)
	}

	p.bar.Set("log", fmt.Sprintf("best value: %v", p.best))
	p.bar.Increment()
}

// wait blocks until the trial channel is closed and drained.
func (p *trialProgress) wait() {
	<-p.done
	p.bar.Finish()
}

// Run evaluates Config.MaxEvaluation trials spread over the local processes.
// configJson is the base hawkes.Options the trial values are patched into.
func (o *HyperparameterOptimizer) Run(ctx context.Context, executor Executor, configJson []byte) (*HyperparameterOptimizeReport, error) {
	if !json.Valid(configJson) {
		return nil, errors.New("base config is not valid json")
	}

	labelPaths, paramDomains := o.buildParamDomains()
	if len(paramDomains) == 0 {
		return nil, errors.New("the matrix has no usable selector")
	}

	objective := o.buildObjective(ctx, executor, configJson, paramDomains)
	evaluations := splitEvaluations(o.Config.MaxEvaluation, o.Config.Executor.LocalExecutorConfig.MaxNumberOfProcesses)

	trialFinishChan := make(chan goptuna.FrozenTrial, 128)
	progress := startTrialProgress(o.Config.MaxEvaluation, trialFinishChan)

	study, err := o.buildStudy(trialFinishChan)
	if err != nil {
		return nil, err
	}

	eg, studyCtx := errgroup.WithContext(ctx)
	study.WithContext(studyCtx)
	for _, n := range evaluations {
		n := n
		eg.Go(func() error {
			return study.Optimize(objective, n)
		})
	}
	if err := eg.Wait(); err != nil && ctx.Err() != context.Canceled {
		return nil, err
	}
	close(trialFinishChan)
	progress.wait()

	log.Infof("study %s finished: %d trials, %d failed, best %v", o.SessionName, o.Config.MaxEvaluation, progress.failed, progress.best)

	return &HyperparameterOptimizeReport{
		Name:       o.SessionName,
		Objective:  o.Config.Objective,
		Parameters: labelPaths,
		Best:       buildBestHyperparameterOptimizeResult(study),
		Trials:     buildHyperparameterOptimizeTrialResults(study),
	}, nil
}
