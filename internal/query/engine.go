package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/models"
	"hr-analytics/internal/schema"
)

// UnknownLabel groups records that have no value for the group_by field.
const UnknownLabel = "Unknown"

// DefaultTopN bounds field results and chart series when no limit is configured.
const DefaultTopN = 10

// Engine evaluates expressions against one request-scoped schema session.
type Engine struct {
	catalog *Catalog
	session *schema.Session
	topN    int
	logger  logger.Logger
}

// NewEngine binds an engine to a session. topN <= 0 selects DefaultTopN.
func NewEngine(session *schema.Session, topN int, log logger.Logger) *Engine {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Engine{
		catalog: DefaultCatalog(),
		session: session,
		topN:    topN,
		logger:  log,
	}
}

// Catalog returns the entity catalog the engine validates against.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Session returns the bound schema session.
func (e *Engine) Session() *schema.Session { return e.session }

// Validate checks expr without touching data.
func (e *Engine) Validate(expr Expression) error {
	return e.catalog.Validate(expr)
}

// Result is the outcome of Execute. Exactly one of the value kinds applies:
// a count, a number, a label list (field) or labeled groups (group_by).
type Result struct {
	Operation string
	Count     int
	Number    float64
	Labels    []string
	Groups    []models.LabeledValue
	grouped   bool
}

// Value returns the JSON-facing value: int, float64, []string or []LabeledValue.
func (r Result) Value() interface{} {
	switch {
	case r.grouped:
		if r.Groups == nil {
			return []models.LabeledValue{}
		}
		return r.Groups
	case r.Operation == OpCount:
		return r.Count
	case r.Operation == OpField:
		if r.Labels == nil {
			return []string{}
		}
		return r.Labels
	default:
		return r.Number
	}
}

// Rows is the number of entries in a list result, 1 for scalars.
func (r Result) Rows() int {
	switch {
	case r.grouped:
		return len(r.Groups)
	case r.Operation == OpField:
		return len(r.Labels)
	default:
		return 1
	}
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

// Execute validates and evaluates expr.
func (e *Engine) Execute(ctx context.Context, expr Expression) (Result, error) {
	if err := e.Validate(expr); err != nil {
		return Result{}, err
	}

	def, _ := e.catalog.Entity(expr.Entity)
	op := strings.ToLower(strings.TrimSpace(expr.Operation))
	records := e.filter(ctx, def, def.load(ctx, e.session), expr.Filter)

	var valueField Field
	if op != OpCount {
		valueField, _ = def.Field(expr.Field)
	}

	if op == OpField {
		labels := e.distinctLabels(ctx, valueField, records)
		if len(labels) > e.topN {
			labels = labels[:e.topN]
		}
		return Result{Operation: op, Labels: labels}, nil
	}

	if expr.Grouped() {
		groupField, _ := def.Field(expr.GroupBy.Field)
		groups := e.aggregateGroups(ctx, op, valueField, e.partition(ctx, groupField, records, false))
		sortByValue(groups)
		return Result{Operation: op, Groups: groups, grouped: true}, nil
	}

	if op == OpCount {
		return Result{Operation: op, Count: len(records)}, nil
	}
	return Result{Operation: op, Number: aggregate(op, e.numbers(ctx, valueField, records))}, nil
}

func (e *Engine) aggregateGroups(ctx context.Context, op string, valueField Field, parts map[string][]record) []models.LabeledValue {
	out := make([]models.LabeledValue, 0, len(parts))
	for label, recs := range parts {
		var v float64
		if op == OpCount {
			v = float64(len(recs))
		} else {
			v = aggregate(op, e.numbers(ctx, valueField, recs))
		}
		out = append(out, models.LabeledValue{Label: label, Value: v})
	}
	return out
}

func aggregate(op string, nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	switch op {
	case OpSum, OpAvg:
		var sum float64
		for _, n := range nums {
			sum += n
		}
		if op == OpAvg {
			return sum / float64(len(nums))
		}
		return sum
	case OpMin:
		m := nums[0]
		for _, n := range nums[1:] {
			if n < m {
				m = n
			}
		}
		return m
	case OpMax:
		m := nums[0]
		for _, n := range nums[1:] {
			if n > m {
				m = n
			}
		}
		return m
	}
	return float64(len(nums))
}

// sortByValue orders groups by value descending, label ascending on ties.
func sortByValue(groups []models.LabeledValue) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Value != groups[j].Value {
			return groups[i].Value > groups[j].Value
		}
		return groups[i].Label < groups[j].Label
	})
}

func (e *Engine) numbers(ctx context.Context, f Field, records []record) []float64 {
	out := make([]float64, 0, len(records))
	for _, rec := range records {
		for _, c := range e.cells(ctx, f, rec) {
			if c.numeric {
				out = append(out, c.num)
			}
		}
	}
	return out
}

func (e *Engine) distinctLabels(ctx context.Context, f Field, records []record) []string {
	freq := make(map[string]int)
	for _, rec := range records {
		for _, label := range uniqueLabels(e.cells(ctx, f, rec), false) {
			freq[label]++
		}
	}
	labels := make([]string, 0, len(freq))
	for l := range freq {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if freq[labels[i]] != freq[labels[j]] {
			return freq[labels[i]] > freq[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}

// partition splits records by the resolved label of f. A record with several
// values (tags, recruiters) lands in every matching group.
func (e *Engine) partition(ctx context.Context, f Field, records []record, truncMonth bool) map[string][]record {
	parts := make(map[string][]record)
	for _, rec := range records {
		labels := uniqueLabels(e.cells(ctx, f, rec), truncMonth)
		if len(labels) == 0 {
			labels = []string{UnknownLabel}
		}
		for _, l := range labels {
			parts[l] = append(parts[l], rec)
		}
	}
	return parts
}

func uniqueLabels(cells []cell, truncMonth bool) []string {
	var out []string
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		label := c.label
		if truncMonth && c.isTime {
			label = monthLabel(c.t)
		}
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

// cell is one resolved value of a record field.
type cell struct {
	label   string
	num     float64
	numeric bool
	t       time.Time
	isTime  bool
	id      int64
	isRef   bool
	b       bool
	isBool  bool
}

// cells resolves a record field. Missing values yield no cells.
func (e *Engine) cells(ctx context.Context, f Field, rec record) []cell {
	raw := rec[f.Name]
	switch f.Kind {
	case KindRef:
		id, _ := raw.(int64)
		if id == 0 {
			return nil
		}
		return []cell{e.refCell(ctx, f.Ref, id)}
	case KindRefList:
		ids, _ := raw.([]int64)
		out := make([]cell, 0, len(ids))
		for _, id := range ids {
			if id != 0 {
				out = append(out, e.refCell(ctx, f.Ref, id))
			}
		}
		return out
	case KindNumber:
		n, _ := raw.(float64)
		if n == 0 && f.ZeroIsEmpty {
			return nil
		}
		return []cell{{label: formatNumber(n), num: n, numeric: true}}
	case KindTime:
		t, _ := raw.(time.Time)
		if t.IsZero() {
			return nil
		}
		return []cell{{label: t.Format("2006-01-02"), t: t, isTime: true}}
	case KindBool:
		b, _ := raw.(bool)
		return []cell{{label: strconv.FormatBool(b), b: b, isBool: true}}
	case KindTextList:
		items, _ := raw.([]string)
		out := make([]cell, 0, len(items))
		for _, s := range items {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, cell{label: s})
			}
		}
		return out
	default:
		s, _ := raw.(string)
		if s = strings.TrimSpace(s); s == "" {
			return nil
		}
		return []cell{{label: s}}
	}
}

func (e *Engine) refCell(ctx context.Context, entity schema.Entity, id int64) cell {
	return cell{label: e.session.ResolveLabel(ctx, entity, id), id: id, isRef: true, num: float64(id)}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// filter keeps the records that satisfy every predicate.
func (e *Engine) filter(ctx context.Context, def *EntityDef, records []record, filters Filters) []record {
	if len(filters) == 0 {
		return records
	}
	out := make([]record, 0, len(records))
	for _, rec := range records {
		if e.matchesAll(ctx, def, rec, filters) {
			out = append(out, rec)
		}
	}
	return out
}

func (e *Engine) matchesAll(ctx context.Context, def *EntityDef, rec record, filters Filters) bool {
	for _, flt := range filters {
		f, ok := def.Field(flt.Field)
		if !ok || !e.match(ctx, f, rec, flt) {
			return false
		}
	}
	return true
}

func (e *Engine) match(ctx context.Context, f Field, rec record, flt Filter) bool {
	cs := e.cells(ctx, f, rec)
	op := strings.ToLower(strings.TrimSpace(flt.Op))

	if flt.Value == nil {
		switch op {
		case FilterEq:
			return len(cs) == 0
		case FilterNe:
			return len(cs) > 0
		default:
			return false
		}
	}

	switch op {
	case FilterNe:
		return !anyCell(cs, func(c cell) bool { return equals(c, flt.Value) })
	case FilterIn, FilterNotIn:
		targets, _ := asList(flt.Value)
		hit := anyCell(cs, func(c cell) bool {
			for _, t := range targets {
				if equals(c, t) {
					return true
				}
			}
			return false
		})
		if op == FilterIn {
			return hit
		}
		return !hit
	case FilterEq:
		return anyCell(cs, func(c cell) bool { return equals(c, flt.Value) })
	case FilterContains:
		needle := fmt.Sprint(flt.Value)
		return anyCell(cs, func(c cell) bool { return strings.Contains(c.label, needle) })
	case FilterIContains:
		needle := strings.ToLower(fmt.Sprint(flt.Value))
		return anyCell(cs, func(c cell) bool { return strings.Contains(strings.ToLower(c.label), needle) })
	case FilterGt, FilterLt, FilterGte, FilterLte:
		return anyCell(cs, func(c cell) bool {
			cmp, ok := compare(c, flt.Value)
			if !ok {
				return false
			}
			switch op {
			case FilterGt:
				return cmp > 0
			case FilterLt:
				return cmp < 0
			case FilterGte:
				return cmp >= 0
			default:
				return cmp <= 0
			}
		})
	}
	return false
}

func anyCell(cs []cell, pred func(cell) bool) bool {
	for _, c := range cs {
		if pred(c) {
			return true
		}
	}
	return false
}

// equals compares a cell with a filter target. Reference cells match by id
// or, for string targets, by label. Text compares case-insensitively.
func equals(c cell, target interface{}) bool {
	switch {
	case c.isRef:
		if n, ok := target.(float64); ok {
			return c.id == int64(n)
		}
		if n, ok := target.(int); ok {
			return c.id == int64(n)
		}
		if n, ok := target.(int64); ok {
			return c.id == n
		}
		s := strings.TrimSpace(fmt.Sprint(target))
		return strings.EqualFold(c.label, s) || s == strconv.FormatInt(c.id, 10)
	case c.numeric:
		n, ok := asNumber(target)
		return ok && n == c.num
	case c.isTime:
		s, ok := target.(string)
		if !ok {
			return false
		}
		s = strings.TrimSpace(s)
		switch len(s) {
		case len("2006-01"):
			return monthLabel(c.t) == s
		case len("2006-01-02"):
			return c.t.Format("2006-01-02") == s
		}
		t := schema.ParseTime(s)
		return !t.IsZero() && t.Equal(c.t)
	case c.isBool:
		switch v := target.(type) {
		case bool:
			return v == c.b
		default:
			b, err := strconv.ParseBool(strings.TrimSpace(fmt.Sprint(v)))
			return err == nil && b == c.b
		}
	default:
		return strings.EqualFold(c.label, strings.TrimSpace(fmt.Sprint(target)))
	}
}

// compare orders a cell against a target. ok is false when the two are not
// comparable.
func compare(c cell, target interface{}) (int, bool) {
	switch {
	case c.numeric:
		n, ok := asNumber(target)
		if !ok {
			return 0, false
		}
		return cmpFloat(c.num, n), true
	case c.isRef:
		if n, ok := asNumber(target); ok {
			return cmpFloat(float64(c.id), n), true
		}
		s, ok := target.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(c.label, s), true
	case c.isTime:
		t := schema.ParseTime(target)
		if t.IsZero() {
			if s, ok := target.(string); ok && len(strings.TrimSpace(s)) == len("2006-01") {
				return strings.Compare(monthLabel(c.t), strings.TrimSpace(s)), true
			}
			return 0, false
		}
		return c.t.Compare(t), true
	case c.isBool:
		return 0, false
	default:
		s, ok := target.(string)
		if !ok {
			if n, isNum := asNumber(target); isNum {
				if v, err := strconv.ParseFloat(c.label, 64); err == nil {
					return cmpFloat(v, n), true
				}
			}
			return 0, false
		}
		return strings.Compare(c.label, s), true
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func asList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []string:
		out := make([]interface{}, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]interface{}, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []int:
		out := make([]interface{}, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
