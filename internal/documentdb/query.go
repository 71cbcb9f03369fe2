package documentdb

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Condition is a single top-level field equality test.
type Condition struct {
	Field string
	Value any
}

// Query is a conjunction of conditions. The zero value matches every document.
type Query struct {
	Conditions []Condition
}

// Where returns a query with one condition.
func Where(field string, value any) Query {
	return Query{}.And(field, value)
}

// And returns a copy of q with an extra condition.
func (q Query) And(field string, value any) Query {
	conds := make([]Condition, len(q.Conditions), len(q.Conditions)+1)
	copy(conds, q.Conditions)
	return Query{Conditions: append(conds, Condition{Field: field, Value: value})}
}

// IsEmpty reports whether the query has no conditions.
func (q Query) IsEmpty() bool {
	return len(q.Conditions) == 0
}

// Validate checks every field name is a plain identifier.
func (q Query) Validate() error {
	for _, c := range q.Conditions {
		if !fieldNamePattern.MatchString(c.Field) {
			return fmt.Errorf("%w: field %q", ErrInvalidQuery, c.Field)
		}
	}
	return nil
}

// Matches evaluates the query against a JSON object body. Values are
// compared after a JSON round trip so that 100 and 100.0 are equal.
func (q Query) Matches(body json.RawMessage) bool {
	if q.IsEmpty() {
		return true
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}

	for _, c := range q.Conditions {
		got, ok := fields[c.Field]
		if !ok || !jsonEqual(got, c.Value) {
			return false
		}
	}
	return true
}

func jsonEqual(stored, want any) bool {
	data, err := json.Marshal(want)
	if err != nil {
		return false
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return false
	}
	return reflect.DeepEqual(stored, normalized)
}
