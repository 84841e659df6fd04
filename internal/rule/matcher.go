package rule

import "github.com/morpheus-lite/soar/internal/alert"

// Matches reports whether the rule fires for the given alert.
func (r *Rule) Matches(a alert.Alert) bool {
	switch r.Kind {
	case MatchAll:
		for _, c := range r.Conditions {
			if !EvalCondition(c, a) {
				return false
			}
		}
		return true
	case MatchAny:
		for _, c := range r.Conditions {
			if EvalCondition(c, a) {
				return true
			}
		}
		return false
	case MatchLegacy:
		return matchLegacy(r.Flat, a)
	default:
		return false
	}
}

// matchLegacy checks the flat {field: value} schema conjunctively. The
// count_greater_than key is a threshold on the alert's count field and
// requires that field to be numeric; every other key is an exact match.
// Absent keys are vacuously satisfied.
func matchLegacy(cond map[string]interface{}, a alert.Alert) bool {
	for key, want := range cond {
		if key == "count_greater_than" {
			got, _ := a.Field("count")
			gf, ok := strictFloat(got)
			if !ok {
				return false
			}
			wf, ok := toNumber(want)
			if !ok || gf <= wf {
				return false
			}
			continue
		}
		got, _ := a.Field(key)
		if !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// EvaluateAll applies every rule to the alert and returns the ones that
// match, preserving input order. No dedup, no short-circuit across rules.
func EvaluateAll(rules []Rule, a alert.Alert) []Rule {
	var matched []Rule
	for _, r := range rules {
		if r.Matches(a) {
			matched = append(matched, r)
		}
	}
	return matched
}
