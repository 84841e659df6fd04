package rule

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/morpheus-lite/soar/internal/alert"
)

const alertPrefix = "alert."

// EvalCondition checks one condition against an alert. It is pure and
// fail-closed: every malformed input degrades to false, nothing panics.
func EvalCondition(c Condition, a alert.Alert) bool {
	var got interface{}
	if strings.HasPrefix(c.Field, alertPrefix) {
		// Only explicitly alert-prefixed fields are traversed as nested
		// paths; everything else is a plain top-level lookup.
		got = a.Resolve(strings.Split(strings.TrimPrefix(c.Field, alertPrefix), "."))
	} else {
		got, _ = a.Field(c.Field)
	}

	switch c.Operator {
	case OpEquals:
		return looseEqual(got, c.Value)
	case OpNotEquals:
		return !looseEqual(got, c.Value)
	case OpContains:
		gs, ok := got.(string)
		if !ok {
			return false
		}
		vs, ok := c.Value.(string)
		if !ok {
			return false
		}
		return strings.Contains(gs, vs)
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		gf, ok := toNumber(got)
		if !ok {
			return false
		}
		vf, ok := toNumber(c.Value)
		if !ok {
			return false
		}
		switch c.Operator {
		case OpGreaterThan:
			return gf > vf
		case OpLessThan:
			return gf < vf
		case OpGreaterThanOrEqual:
			return gf >= vf
		case OpLessThanOrEqual:
			return gf <= vf
		}
	}
	// Unknown operator: fail closed.
	return false
}

// looseEqual compares values without cross-kind coercion: numbers compare by
// value across int/float kinds, but a number never equals its string form.
func looseEqual(a, b interface{}) bool {
	if af, aok := strictFloat(a); aok {
		bf, bok := strictFloat(b)
		return bok && af == bf
	}
	if _, bok := strictFloat(b); bok {
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return reflect.DeepEqual(a, b)
	}
}

// strictFloat accepts only genuinely numeric kinds.
func strictFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// toNumber coerces for ordering comparisons, where numeric strings are
// accepted as well.
func toNumber(v interface{}) (float64, bool) {
	if f, ok := strictFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
