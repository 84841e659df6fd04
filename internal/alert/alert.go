package alert

import "fmt"

// Alert is an incoming security event. Alerts arrive as arbitrary JSON
// documents and rules reference their fields by name, so the model stays an
// open mapping rather than a fixed struct. An Alert is never mutated during
// evaluation.
type Alert map[string]interface{}

// ID renders the alert's "id" field as a string ("" if absent). IDs in the
// wild are sometimes numbers, sometimes strings.
func (a Alert) ID() string {
	v, ok := a["id"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Field is a direct top-level lookup with no path traversal.
func (a Alert) Field(name string) (interface{}, bool) {
	v, ok := a[name]
	return v, ok
}

// Resolve walks a dot-separated path through nested mappings. A missing key
// or a non-mapping intermediate yields nil, not an error.
func (a Alert) Resolve(path []string) interface{} {
	var cur interface{} = map[string]interface{}(a)
	for _, part := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}
