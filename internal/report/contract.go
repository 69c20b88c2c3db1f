package report

import (
	"fmt"
	"sort"
	"strings"

	"hr-analytics/internal/common/validation"
	"hr-analytics/internal/query"
)

// Forbidden keys: values must come from query expressions, never from the oracle.
var forbiddenKeys = []string{"demo_value", "demo_data"}

var reportSchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "report_title": {"type": "string", "minLength": 1},
    "main_metric": {"$ref": "#/definitions/metric"},
    "secondary_metrics": {"type": "array", "items": {"$ref": "#/definitions/metric"}},
    "chart": {
      "type": "object",
      "properties": {
        "graph_description": {"type": "string"},
        "chart_type": {"type": "string", "enum": ["bar", "line", "scatter", "table"]},
        "x_axis_name": {"type": "string"},
        "y_axis_name": {"type": "string"},
        "x_axis": {"type": "object"},
        "y_axis": {"type": "object"}
      }
    }
  },
  "definitions": {
    "metric": {
      "type": "object",
      "properties": {
        "label": {"type": "string"},
        "value": {"type": "object"}
      }
    }
  }
}`)

// Violation is a contract failure. Reason is fed back to the oracle verbatim.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string { return v.Reason }

func violation(format string, args ...interface{}) *Violation {
	return &Violation{Reason: fmt.Sprintf(format, args...)}
}

// checked is a document that passed the contract.
type checked struct {
	doc        map[string]interface{}
	impossible bool
	reason     string
}

// contract validates candidate reports against the query catalog.
type contract struct {
	catalog *query.Catalog
}

// check runs the ordered checks; the first violation wins.
func (c contract) check(raw interface{}) (*checked, *Violation) {
	doc, ok := raw.(map[string]interface{})
	if !ok {
		return nil, violation("response must be a JSON object, got %s", jsonKind(raw))
	}

	if imp, present := doc["impossible_query"]; present {
		if b, _ := imp.(bool); b {
			reason, _ := doc["reason"].(string)
			if strings.TrimSpace(reason) == "" {
				return nil, violation(`"impossible_query" requires a non-empty "reason"`)
			}
			return &checked{doc: doc, impossible: true, reason: reason}, nil
		}
	}

	if path, found := findForbidden(doc, ""); found {
		return nil, violation("forbidden field %q: do not invent values, describe them with query expressions only", path)
	}

	if v := checkRequired(doc); v != nil {
		return nil, v
	}

	if res := reportSchema.Validate(doc); !res.Valid {
		e := res.Errors[0]
		return nil, violation("field %q: %s", e.Field, e.Message)
	}

	if v := c.checkExpressions(doc); v != nil {
		return nil, v
	}
	return &checked{doc: doc}, nil
}

var (
	requiredTop    = []string{"report_title", "main_metric", "secondary_metrics", "chart"}
	requiredMetric = []string{"label", "value"}
	requiredChart  = []string{"graph_description", "chart_type", "x_axis_name", "y_axis_name", "x_axis", "y_axis"}
)

func checkRequired(doc map[string]interface{}) *Violation {
	for _, key := range requiredTop {
		if _, ok := doc[key]; !ok {
			return violation("missing required field %q", key)
		}
	}
	if v := requireKeys(doc["main_metric"], "main_metric", requiredMetric); v != nil {
		return v
	}
	if list, ok := doc["secondary_metrics"].([]interface{}); ok {
		for i, m := range list {
			if v := requireKeys(m, fmt.Sprintf("secondary_metrics[%d]", i), requiredMetric); v != nil {
				return v
			}
		}
	}
	return requireKeys(doc["chart"], "chart", requiredChart)
}

func requireKeys(v interface{}, path string, keys []string) *Violation {
	m, ok := v.(map[string]interface{})
	if !ok {
		return violation("field %q must be an object", path)
	}
	for _, key := range keys {
		if _, ok := m[key]; !ok {
			return violation("missing required field %q", path+"."+key)
		}
	}
	return nil
}

func (c contract) checkExpressions(doc map[string]interface{}) *Violation {
	main := doc["main_metric"].(map[string]interface{})
	if v := c.checkMetric(main["value"], "main_metric.value"); v != nil {
		return v
	}

	secondary, _ := doc["secondary_metrics"].([]interface{})
	for i, m := range secondary {
		value := m.(map[string]interface{})["value"]
		if v := c.checkMetric(value, fmt.Sprintf("secondary_metrics[%d].value", i)); v != nil {
			return v
		}
	}

	chart := doc["chart"].(map[string]interface{})
	y, err := query.ParseExpression(chart["y_axis"])
	if err != nil {
		return violation("chart.y_axis is not a valid expression: %v", err)
	}
	if err := c.catalog.Validate(y); err != nil {
		return violation("chart.y_axis: %v", err)
	}
	if strings.EqualFold(strings.TrimSpace(y.Operation), query.OpField) {
		return violation("chart.y_axis: operation %q does not aggregate; use count, sum, avg, min or max", y.Operation)
	}
	x, err := query.ParseExpression(chart["x_axis"])
	if err != nil {
		return violation("chart.x_axis is not a valid expression: %v", err)
	}
	if err := c.catalog.ValidateAxis(x, y.Entity); err != nil {
		return violation("chart.x_axis: %v", err)
	}
	return nil
}

func (c contract) checkMetric(v interface{}, path string) *Violation {
	expr, err := query.ParseExpression(v)
	if err != nil {
		return violation("%s is not a valid expression: %v", path, err)
	}
	if err := c.catalog.Validate(expr); err != nil {
		return violation("%s: %v", path, err)
	}
	return nil
}

// findForbidden walks the document in key order and returns the path of the
// first forbidden key.
func findForbidden(v interface{}, path string) (string, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := k
			if path != "" {
				p = path + "." + k
			}
			for _, f := range forbiddenKeys {
				if k == f {
					return p, true
				}
			}
			if found, ok := findForbidden(t[k], p); ok {
				return found, true
			}
		}
	case []interface{}:
		for i, item := range t {
			if found, ok := findForbidden(item, fmt.Sprintf("%s[%d]", path, i)); ok {
				return found, true
			}
		}
	}
	return "", false
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case []interface{}:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
