package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/morpheus-lite/soar/internal/alert"
)

func TestMatches_All(t *testing.T) {
	a := alert.Alert{"type": "Brute Force", "count": 8}

	r := Rule{
		Name: "bf",
		Kind: MatchAll,
		Conditions: []Condition{
			{Field: "type", Operator: OpEquals, Value: "Brute Force"},
			{Field: "count", Operator: OpGreaterThan, Value: 5},
		},
	}
	assert.True(t, r.Matches(a))

	r.Conditions[1].Value = 10
	assert.False(t, r.Matches(a))

	// Vacuous AND: an empty all-list always matches.
	empty := Rule{Name: "empty", Kind: MatchAll}
	assert.True(t, empty.Matches(a))
}

func TestMatches_Any(t *testing.T) {
	a := alert.Alert{"type": "Brute Force", "count": 2}

	r := Rule{
		Name: "either",
		Kind: MatchAny,
		Conditions: []Condition{
			{Field: "count", Operator: OpGreaterThan, Value: 5},
			{Field: "type", Operator: OpEquals, Value: "Brute Force"},
		},
	}
	assert.True(t, r.Matches(a))

	r.Conditions[1].Value = "Phishing"
	assert.False(t, r.Matches(a))

	// An empty any-list never matches.
	empty := Rule{Name: "empty", Kind: MatchAny}
	assert.False(t, empty.Matches(a))
}

func TestMatches_NoConditions(t *testing.T) {
	r := Rule{Name: "bare"}
	assert.False(t, r.Matches(alert.Alert{"type": "anything"}))
}

func TestMatches_LegacyFlat(t *testing.T) {
	r := Rule{
		Name: "brute_force_block",
		Kind: MatchLegacy,
		Flat: map[string]interface{}{
			"type":               "Brute Force",
			"count_greater_than": 5,
		},
	}

	assert.True(t, r.Matches(alert.Alert{"id": 1, "type": "Brute Force", "count": 8, "src_ip": "1.2.3.4"}))
	assert.False(t, r.Matches(alert.Alert{"id": 2, "type": "Brute Force", "count": 3, "src_ip": "1.2.3.4"}))
	assert.False(t, r.Matches(alert.Alert{"id": 3, "type": "Phishing", "count": 8}))
	// The threshold key requires the count field to be numeric.
	assert.False(t, r.Matches(alert.Alert{"id": 4, "type": "Brute Force", "count": "8"}))
	// Missing count never satisfies the threshold.
	assert.False(t, r.Matches(alert.Alert{"id": 5, "type": "Brute Force"}))
}

func TestEvaluateAll_PreservesOrder(t *testing.T) {
	rules := []Rule{
		{Name: "first", Kind: MatchAll, Conditions: []Condition{{Field: "type", Operator: OpEquals, Value: "Brute Force"}}},
		{Name: "never", Kind: MatchAny},
		{Name: "second", Kind: MatchAll},
		{Name: "third", Kind: MatchAll, Conditions: []Condition{{Field: "count", Operator: OpGreaterThan, Value: 1}}},
	}
	a := alert.Alert{"type": "Brute Force", "count": 8}

	matched := EvaluateAll(rules, a)
	require.Len(t, matched, 3)
	assert.Equal(t, "first", matched[0].Name)
	assert.Equal(t, "second", matched[1].Name)
	assert.Equal(t, "third", matched[2].Name)
}

func TestRuleUnmarshal_StructuredSchema(t *testing.T) {
	doc := `
name: brute_force
conditions:
  all:
    - field: alert.type
      operator: equals
      value: Brute Force
    - field: count
      operator: greater_than
      value: 5
actions:
  - action: firewall_block_ip
    params:
      ip_field: src_ip
mitre:
  - T1110
`
	var r Rule
	require.NoError(t, yaml.Unmarshal([]byte(doc), &r))
	assert.Equal(t, "brute_force", r.Name)
	assert.Equal(t, MatchAll, r.Kind)
	require.Len(t, r.Conditions, 2)
	assert.Equal(t, OpEquals, r.Conditions[0].Operator)
	require.Len(t, r.Actions, 1)
	assert.Equal(t, "firewall_block_ip", r.Actions[0].Action)
	assert.Equal(t, []string{"T1110"}, r.Mitre)
}

func TestRuleUnmarshal_AnySchema(t *testing.T) {
	doc := `
name: either
conditions:
  any:
    - field: type
      operator: equals
      value: Phishing
`
	var r Rule
	require.NoError(t, yaml.Unmarshal([]byte(doc), &r))
	assert.Equal(t, MatchAny, r.Kind)
	require.Len(t, r.Conditions, 1)
}

func TestRuleUnmarshal_FlatSchema(t *testing.T) {
	doc := `
name: brute_force_block
if:
  type: Brute Force
  count_greater_than: 5
then:
  - action: firewall_block_ip
    params:
      ip_field: src_ip
`
	var r Rule
	require.NoError(t, yaml.Unmarshal([]byte(doc), &r))
	assert.Equal(t, MatchLegacy, r.Kind)
	assert.Equal(t, "Brute Force", r.Flat["type"])
	require.Len(t, r.Actions, 1)
	assert.Equal(t, "firewall_block_ip", r.Actions[0].Action)
}

func TestRuleUnmarshal_MalformedConditions(t *testing.T) {
	// conditions.all that is not a sequence leaves the rule unable to match.
	doc := `
name: broken
conditions:
  all: not-a-list
`
	var r Rule
	require.NoError(t, yaml.Unmarshal([]byte(doc), &r))
	assert.Equal(t, MatchNever, r.Kind)
	assert.False(t, r.Matches(alert.Alert{"type": "anything"}))
}
