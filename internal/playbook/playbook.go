// Package playbook owns the flat-file rule document: parsing, validation,
// atomic save, and hot reload.
package playbook

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/morpheus-lite/soar/internal/rule"
)

// ErrInvalidDocument marks a playbook document rejected during validation.
// Callers can map it to a client error.
var ErrInvalidDocument = errors.New("invalid playbook document")

// Snapshot is one immutable, fully-parsed view of a playbook. Reload never
// mutates a Snapshot; it replaces the whole thing.
type Snapshot struct {
	Rules []rule.Rule
	Doc   map[string]interface{}
	Raw   string
}

// Empty returns a snapshot with no rules.
func Empty() *Snapshot {
	return &Snapshot{Doc: map[string]interface{}{"rules": []interface{}{}}, Raw: ""}
}

type ruleDoc struct {
	Rules []rule.Rule `yaml:"rules"`
}

// Parse decodes a playbook document. A missing or malformed rules key
// degrades to an empty rule set; only YAML that fails to parse at all is an
// error.
func Parse(data []byte) (*Snapshot, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Empty(), fmt.Errorf("parse playbook: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{"rules": []interface{}{}}
	}

	var rd ruleDoc
	// A rules key that is not a sequence simply yields no rules.
	_ = yaml.Unmarshal(data, &rd)

	return &Snapshot{Rules: rd.Rules, Doc: doc, Raw: string(data)}, nil
}

// Normalize validates raw YAML for saving and returns the canonical document.
// A top-level sequence is wrapped under a rules key; a rules key that is not
// a sequence is rejected. Nothing is written here: save is validate first,
// write after.
func Normalize(yamlText string) (map[string]interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	switch d := doc.(type) {
	case nil:
		return map[string]interface{}{"rules": []interface{}{}}, nil
	case map[string]interface{}:
		rules, ok := d["rules"]
		if !ok {
			return map[string]interface{}{"rules": []interface{}{}}, nil
		}
		if _, ok := rules.([]interface{}); !ok {
			return nil, fmt.Errorf("%w: 'rules' must be a list", ErrInvalidDocument)
		}
		return d, nil
	case []interface{}:
		return map[string]interface{}{"rules": d}, nil
	default:
		return nil, fmt.Errorf("%w: top-level document must be a mapping", ErrInvalidDocument)
	}
}
