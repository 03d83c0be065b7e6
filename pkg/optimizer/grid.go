package optimizer

import (
	"context"
)

type trialFunc func(configJson []byte, params map[string]interface{}) error

type OpFunc func(configJson []byte, params map[string]interface{}, next trialFunc) error

// GridOptimizer evaluates every combination of the matrix values.
type GridOptimizer struct {
	Config *Config
}

// gridValues enumerates a selector. Ranges include their maximum.
func gridValues(selector SelectorConfig) []interface{} {
	var values []interface{}
	switch selector.Type {
	case selectorTypeRangeFloat:
		step := selector.Step
		if step <= 0 {
			step = 1
		}
		for i := 0; ; i++ {
			val := selector.Min + float64(i)*step
			if val > selector.Max+step*1e-9 {
				break
			}
			values = append(values, val)
		}

	case selectorTypeRangeInt:
		step := int(selector.Step)
		if step <= 0 {
			step = 1
		}
		for val := int(selector.Min); val <= int(selector.Max); val += step {
			values = append(values, val)
		}

	case selectorTypeString:
		for _, val := range selector.Values {
			values = append(values, val)
		}

	case selectorTypeBool:
		values = append(values, false, true)
	}
	return values
}

func (o *GridOptimizer) buildOps() []OpFunc {
	var ops []OpFunc
	for _, selector := range o.Config.Matrix {
		var base = paramDomainBase{label: selector.Label, path: selector.Path}
		var values = gridValues(selector)
		if len(values) == 0 {
			log.Warnf("skipping selector %s: no values", selector.Label)
			continue
		}

		f := func(configJson []byte, params map[string]interface{}, next trialFunc) error {
			log.Debugf("%s values: %v", base.label, values)
			for _, val := range values {
				patch, err := base.replacePatch(val)
				if err != nil {
					return err
				}

				patchedConfig, err := patch.Apply(configJson)
				if err != nil {
					return err
				}

				trialParams := make(map[string]interface{}, len(params)+1)
				for k, v := range params {
					trialParams[k] = v
				}
				trialParams[base.label] = val

				if err := next(patchedConfig, trialParams); err != nil {
					return err
				}
			}

			return nil
		}
		ops = append(ops, f)
	}
	return ops
}

// Run evaluates the whole grid sequentially. A failed trial is recorded in
// the report and the grid continues; only a cancelled context stops it.
func (o *GridOptimizer) Run(ctx context.Context, executor Executor, configJson []byte) (*HyperparameterOptimizeReport, error) {
	report := &HyperparameterOptimizeReport{
		Name:       "grid",
		Objective:  o.Config.Objective,
		Parameters: map[string]string{},
	}
	for _, selector := range o.Config.Matrix {
		report.Parameters[selector.Label] = selector.Path
	}

	metricValueFunc := metricValueFuncOf(o.Config.Objective)

	var last trialFunc = func(configJson []byte, params map[string]interface{}) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := len(report.Trials)
		result := &HyperparameterOptimizeTrialResult{ID: &id, Parameters: params, State: "Complete"}
		report.Trials = append(report.Trials, result)

		summary, err := executor.Execute(ctx, configJson)
		if err == nil {
			result.Value, err = metricValueFunc(summary)
		}

		if err != nil {
			log.WithError(err).WithFields(params).Errorf("failed at trial #%d", id)
			result.State = "Fail"
			return nil
		}

		if report.Best == nil || result.Value > report.Best.Value {
			report.Best = &HyperparameterOptimizeTrialResult{Value: result.Value, Parameters: params}
		}
		return nil
	}

	var wrapper = last
	ops := o.buildOps()
	for i := len(ops) - 1; i >= 0; i-- {
		cur := ops[i]
		inner := wrapper
		wrapper = func(configJson []byte, params map[string]interface{}) error {
			return cur(configJson, params, inner)
		}
	}

	if err := wrapper(configJson, map[string]interface{}{}); err != nil {
		return report, err
	}

	return report, nil
}
