package packages

import (
	"strings"

	"github.com/pkg/errors"
)

// Environment answers whether a dependency's marker applies. The solver
// consults it before adding a marker-scoped dependency edge.
type Environment interface {
	Matches(marker string) (bool, error)
}

// MarkerEnv evaluates markers against a flat set of environment values,
// e.g. {"sys_platform": "linux", "python_version": "3.11"}.
//
// The accepted grammar is the subset the resolver needs: `name == "value"`
// and `name != "value"` comparisons combined with `and` and `or`, where
// `and` binds tighter. Unknown variables evaluate as empty strings.
type MarkerEnv map[string]string

func (e MarkerEnv) Matches(marker string) (bool, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return true, nil
	}

	for _, disjunct := range strings.Split(marker, " or ") {
		ok := true
		for _, conjunct := range strings.Split(disjunct, " and ") {
			got, err := e.compare(conjunct)
			if err != nil {
				return false, err
			}
			if !got {
				ok = false
				break
			}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (e MarkerEnv) compare(expr string) (bool, error) {
	expr = strings.TrimSpace(expr)

	op := "=="
	i := strings.Index(expr, "==")
	if j := strings.Index(expr, "!="); j >= 0 && (i < 0 || j < i) {
		op, i = "!=", j
	}
	if i < 0 {
		return false, errors.Errorf("unsupported marker expression %q", expr)
	}

	name := strings.TrimSpace(expr[:i])
	value := strings.TrimSpace(expr[i+2:])
	value = strings.Trim(value, `"'`)

	if op == "==" {
		return e[name] == value, nil
	}
	return e[name] != value, nil
}
