// Package query executes declarative count/sum/avg/min/max/field expressions
// over the virtual schema and builds chart series from them.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Operations.
const (
	OpCount     = "count"
	OpSum       = "sum"
	OpAvg       = "avg"
	OpMin       = "min"
	OpMax       = "max"
	OpField     = "field"
	OpDateTrunc = "date_trunc"
)

// Filter operators.
const (
	FilterEq        = "eq"
	FilterNe        = "ne"
	FilterGt        = "gt"
	FilterLt        = "lt"
	FilterGte       = "gte"
	FilterLte       = "lte"
	FilterIn        = "in"
	FilterNotIn     = "not_in"
	FilterContains  = "contains"
	FilterIContains = "icontains"
)

// Operations lists the operations accepted in metric expressions.
var Operations = []string{OpCount, OpSum, OpAvg, OpMin, OpMax, OpField}

// FilterOperators lists the accepted filter operators.
var FilterOperators = []string{FilterEq, FilterNe, FilterGt, FilterLt, FilterGte, FilterLte, FilterIn, FilterNotIn, FilterContains, FilterIContains}

// Expression is one declarative query.
type Expression struct {
	Operation string   `json:"operation"`
	Entity    string   `json:"entity,omitempty"`
	Field     string   `json:"field,omitempty"`
	Filter    Filters  `json:"filter,omitempty"`
	GroupBy   *GroupBy `json:"group_by,omitempty"`
}

// Grouped reports whether the expression partitions its records.
func (e Expression) Grouped() bool {
	return e.GroupBy != nil && e.GroupBy.Field != ""
}

// Filter is a single predicate.
type Filter struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value"`
}

// UnmarshalJSON accepts "operator" as a spelling of "op".
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field    string      `json:"field"`
		Op       string      `json:"op"`
		Operator string      `json:"operator"`
		Value    interface{} `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Field = raw.Field
	f.Op = raw.Op
	if f.Op == "" {
		f.Op = raw.Operator
	}
	f.Value = raw.Value
	return nil
}

// Filters is a conjunction. It decodes from a single object, a list or null.
type Filters []Filter

func (fs *Filters) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*fs = nil
		return nil
	case data[0] == '[':
		var list []Filter
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*fs = list
		return nil
	case data[0] == '{':
		if bytes.Equal(bytes.Join(bytes.Fields(data), nil), []byte("{}")) {
			*fs = nil
			return nil
		}
		var one Filter
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*fs = Filters{one}
		return nil
	default:
		return fmt.Errorf("filter must be an object or a list, got %s", data)
	}
}

// GroupBy names the partitioning field.
type GroupBy struct {
	Field string `json:"field"`
}

// UnmarshalJSON also accepts a bare field name.
func (g *GroupBy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &g.Field)
	}
	var raw struct {
		Field string `json:"field"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Field = raw.Field
	return nil
}

// ParseExpression decodes an expression from a generic JSON value, such as
// a sub-document of a report.
func ParseExpression(v interface{}) (Expression, error) {
	var expr Expression
	data, err := json.Marshal(v)
	if err != nil {
		return expr, err
	}
	if err := json.Unmarshal(data, &expr); err != nil {
		return expr, err
	}
	return expr, nil
}
