package solver

import (
	"fmt"
	"strings"
)

// Method is the local-search backend used to minimize an objective.
type Method int

const (
	// TrustRegion is a second-order Newton method with a finite-difference Hessian
	TrustRegion Method = iota
	// SequentialQuadratic builds a quadratic model per step with BFGS updates
	SequentialQuadratic
	// BoundedQuasiNewton is limited-memory BFGS in a box-transformed space
	BoundedQuasiNewton
	// InteriorPoint minimizes a log-barrier problem with a shrinking barrier weight
	InteriorPoint
)

var methodNames = map[Method]string{
	TrustRegion:         "trust-region",
	SequentialQuadratic: "sequential-quadratic",
	BoundedQuasiNewton:  "bounded-quasi-newton",
	InteriorPoint:       "interior-point",
}

// aliases accepted when parsing configuration values, including the scipy and
// ipopt names of the backends.
var methodAliases = map[string]Method{
	"trust-region":         TrustRegion,
	"trust-constr":         TrustRegion,
	"sequential-quadratic": SequentialQuadratic,
	"slsqp":                SequentialQuadratic,
	"bounded-quasi-newton": BoundedQuasiNewton,
	"l-bfgs-b":             BoundedQuasiNewton,
	"lbfgsb":               BoundedQuasiNewton,
	"interior-point":       InteriorPoint,
	"ipopt":                InteriorPoint,
}

// Methods lists every backend in declaration order.
func Methods() []Method {
	return []Method{TrustRegion, SequentialQuadratic, BoundedQuasiNewton, InteriorPoint}
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}

	return fmt.Sprintf("method(%d)", int(m))
}

func ParseMethod(s string) (Method, error) {
	if m, ok := methodAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}

	return 0, fmt.Errorf("unknown solver method %q", s)
}

func (m Method) MarshalText() ([]byte, error) {
	if _, ok := methodNames[m]; !ok {
		return nil, fmt.Errorf("unknown solver method %d", int(m))
	}

	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}
