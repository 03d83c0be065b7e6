package optimizer

import (
	"encoding/json"
	"strconv"

	"github.com/c-bata/goptuna"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

type paramDomain interface {
	buildPatch(trial *goptuna.Trial) (jsonpatch.Patch, error)
}

type paramDomainBase struct {
	label string
	path  string
}

// replacePatch builds the single replace operation of a suggested value.
func (d paramDomainBase) replacePatch(value interface{}) (jsonpatch.Patch, error) {
	jsonOp, err := json.Marshal([]map[string]interface{}{
		{"op": "replace", "path": d.path, "value": value},
	})
	if err != nil {
		return nil, err
	}

	return jsonpatch.DecodePatch(jsonOp)
}

type intRangeDomain struct {
	paramDomainBase
	min int
	max int
}

func (d *intRangeDomain) buildPatch(trial *goptuna.Trial) (jsonpatch.Patch, error) {
	val, err := trial.SuggestInt(d.label, d.min, d.max)
	if err != nil {
		return nil, err
	}
	return d.replacePatch(val)
}

type intStepRangeDomain struct {
	paramDomainBase
	min  int
	max  int
	step int
}

func (d *intStepRangeDomain) buildPatch(trial *goptuna.Trial) (jsonpatch.Patch, error) {
	val, err := trial.SuggestStepInt(d.label, d.min, d.max, d.step)
	if err != nil {
		return nil, err
	}
	return d.replacePatch(val)
}

type floatRangeDomain struct {
	paramDomainBase
	min float64
	max float64
}

func (d *floatRangeDomain) buildPatch(trial *goptuna.Trial) (jsonpatch.Patch, error) {
	val, err := trial.SuggestFloat(d.label, d.min, d.max)
	if err != nil {
		return nil, err
	}
	return d.replacePatch(val)
}

type floatDiscreteRangeDomain struct {
	paramDomainBase
	min  float64
	max  float64
	step float64
}

func (d *floatDiscreteRangeDomain) buildPatch(trial *goptuna.Trial) (jsonpatch.Patch, error) {
	val, err := trial.SuggestDiscreteFloat(d.label, d.min, d.max, d.step)
	if err != nil {
		return nil, err
	}
	return d.replacePatch(val)
}

type stringDomain struct {
	paramDomainBase
	options []string
}

func (d *stringDomain) buildPatch(trial *goptuna.Trial) (jsonpatch.Patch, error) {
	val, err := trial.SuggestCategorical(d.label, d.options)
	if err != nil {
		return nil, err
	}
	return d.replacePatch(val)
}

type boolDomain struct {
	paramDomainBase
}

func (d *boolDomain) buildPatch(trial *goptuna.Trial) (jsonpatch.Patch, error) {
	valStr, err := trial.SuggestCategorical(d.label, []string{"false", "true"})
	if err != nil {
		return nil, err
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return nil, err
	}
	return d.replacePatch(val)
}
