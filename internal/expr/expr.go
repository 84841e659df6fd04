// Package expr evaluates branch expressions over enrichment step results.
//
// Expressions reference step outputs through ${steps.<step>.<field>}
// placeholders and combine them with comparison and logical operators, e.g.
//
//	${steps.vt_hash.any_malicious} == True || ${steps.abuseipdb.score} >= 80
//
// Placeholders are substituted first, then the result is parsed into a small
// AST and evaluated directly. Nothing is ever handed to a general-purpose
// interpreter.
package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/morpheus-lite/soar/internal/enrich"
)

// EvaluationError reports a branch expression that could not be resolved,
// parsed, or evaluated. It carries a human-readable message suitable for
// surfacing to playbook authors.
type EvaluationError struct {
	Message string
}

func (e *EvaluationError) Error() string {
	return "expression evaluation failed: " + e.Message
}

var (
	placeholderRe = regexp.MustCompile(`\$\{steps\.([\w.]+)\}`)
	wrappedRe     = regexp.MustCompile(`^\$\{(.+)\}$`)
	bareStepRe    = regexp.MustCompile(`\bsteps\.([\w.]+)`)
	wrappedStepRe = regexp.MustCompile(`\$\{steps\.`)
)

// Placeholders returns the top-level step names referenced by an
// expression's ${steps.*} placeholders, in first-appearance order.
func Placeholders(expression string) []string {
	var steps []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(expression, -1) {
		step := strings.SplitN(m[1], ".", 2)[0]
		if step != "" && !seen[step] {
			seen[step] = true
			steps = append(steps, step)
		}
	}
	return steps
}

// Evaluate resolves every placeholder against the step results and computes
// the boolean value of the expression. All failure modes return a
// *EvaluationError: unresolved placeholders (with a hint naming any disabled
// enrichment step responsible), syntax errors, and type errors during
// evaluation. The config is consulted only for diagnostics; it never gates
// substitution.
func Evaluate(expression string, steps enrich.StepResults, cfg enrich.Config) (bool, error) {
	evaluated := strings.TrimSpace(expression)
	if evaluated == "" {
		return false, &EvaluationError{Message: "expression must be a non-empty string"}
	}

	// Legacy form: the whole expression wrapped in ${...} with bare
	// steps.x references inside. Unwrap and rewrite before substitution.
	if m := wrappedRe.FindStringSubmatch(evaluated); m != nil {
		evaluated = m[1]
		if bareStepRe.MatchString(evaluated) && !wrappedStepRe.MatchString(evaluated) {
			evaluated = bareStepRe.ReplaceAllString(evaluated, `${steps.$1}`)
		}
	}

	var missing []string
	var missingSteps []string
	hinted := make(map[string]bool)
	evaluated = placeholderRe.ReplaceAllStringFunc(evaluated, func(m string) string {
		path := strings.Split(placeholderRe.FindStringSubmatch(m)[1], ".")
		v, ok := steps.Resolve(path)
		if !ok {
			missing = append(missing, m)
			step := path[0]
			if name, known := enrich.DisplayName(step); known && !cfg.Enabled(step) && !hinted[step] {
				hinted[step] = true
				missingSteps = append(missingSteps, name)
			}
			return m
		}
		return renderLiteral(v)
	})

	if len(missing) > 0 {
		msg := fmt.Sprintf("unresolved variables found: %s. These variables may not be available in the test data.",
			strings.Join(missing, ", "))
		if len(missingSteps) > 0 {
			msg += fmt.Sprintf(" Please enable the following enrich steps: %s", strings.Join(missingSteps, ", "))
		}
		return false, &EvaluationError{Message: msg}
	}

	n, err := parse(evaluated)
	if err != nil {
		return false, &EvaluationError{Message: err.Error()}
	}
	v, err := n.eval()
	if err != nil {
		return false, &EvaluationError{Message: err.Error()}
	}
	return truthy(v), nil
}

// renderLiteral writes a resolved value back into the expression text.
// Booleans become True/False tokens, nil becomes None, numbers keep their
// decimal form, and anything else is double-quoted. Embedded quotes are not
// escaped; that matches the editor's historical behavior.
func renderLiteral(v interface{}) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "True"
		}
		return "False"
	case nil:
		return "None"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case string:
		return `"` + t + `"`
	default:
		return `"` + fmt.Sprintf("%v", t) + `"`
	}
}
