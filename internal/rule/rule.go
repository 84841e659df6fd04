package rule

import (
	"gopkg.in/yaml.v3"
)

// MatchKind discriminates how a rule's conditions combine. It is resolved
// once when the rule is decoded so the matcher never has to probe raw
// mapping keys at evaluation time.
type MatchKind int

const (
	// MatchNever marks a rule with no usable conditions block; it can
	// never fire.
	MatchNever MatchKind = iota
	// MatchAll requires every condition to hold (empty list is vacuously true).
	MatchAll
	// MatchAny requires at least one condition to hold (empty list never matches).
	MatchAny
	// MatchLegacy is the flat {field: value, count_greater_than: n} schema.
	MatchLegacy
)

// Operator is a condition comparison operator.
type Operator string

const (
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpContains           Operator = "contains"
	OpGreaterThan        Operator = "greater_than"
	OpLessThan           Operator = "less_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
)

// Condition is a single field/operator/value check.
type Condition struct {
	Field    string      `yaml:"field" json:"field"`
	Operator Operator    `yaml:"operator" json:"operator"`
	Value    interface{} `yaml:"value" json:"value"`
}

// ActionRef names a response action plus its parameters.
type ActionRef struct {
	Action string                 `yaml:"action" json:"action"`
	Params map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// Rule is a named condition/action specification. Two rule schemas coexist
// in stored playbooks: the structured one (conditions.all / conditions.any)
// and the legacy flat one (if / then). Decoding normalizes both into this
// tagged form. Rules are read-only once loaded; reload replaces the whole set.
type Rule struct {
	Name       string
	Kind       MatchKind
	Conditions []Condition            // MatchAll / MatchAny
	Flat       map[string]interface{} // MatchLegacy
	Actions    []ActionRef
	Mitre      []string
}

type rawRule struct {
	Name       string                 `yaml:"name"`
	Conditions map[string]yaml.Node   `yaml:"conditions"`
	If         map[string]interface{} `yaml:"if"`
	Actions    []ActionRef            `yaml:"actions"`
	Then       []ActionRef            `yaml:"then"`
	Mitre      []string               `yaml:"mitre"`
}

// UnmarshalYAML decodes either rule schema. A conditions block whose
// all/any entry is not a sequence leaves the rule in MatchNever rather
// than failing the whole document.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	var raw rawRule
	if err := node.Decode(&raw); err != nil {
		return err
	}

	r.Name = raw.Name
	r.Mitre = raw.Mitre
	r.Actions = raw.Actions
	if len(r.Actions) == 0 {
		r.Actions = raw.Then
	}

	r.Kind = MatchNever
	if raw.Conditions != nil {
		if n, ok := raw.Conditions["all"]; ok {
			var conds []Condition
			if err := n.Decode(&conds); err == nil {
				r.Kind = MatchAll
				r.Conditions = conds
			}
			return nil
		}
		if n, ok := raw.Conditions["any"]; ok {
			var conds []Condition
			if err := n.Decode(&conds); err == nil {
				r.Kind = MatchAny
				r.Conditions = conds
			}
			return nil
		}
		return nil
	}
	if raw.If != nil {
		r.Kind = MatchLegacy
		r.Flat = raw.If
	}
	return nil
}
