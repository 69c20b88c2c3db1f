package query

import (
	"context"
	"sort"
	"strings"

	"hr-analytics/internal/models"
)

// ChartData evaluates a chart: y is aggregated per group and the groups
// become the labels. y's own group_by wins, otherwise y is grouped by x's
// field. Category series are ordered by value and capped at top-N; month
// series (date_trunc or the month attribute) keep chronological order and
// the most recent top-N buckets.
func (e *Engine) ChartData(ctx context.Context, x, y Expression) (models.ChartData, error) {
	empty := models.ChartData{Labels: []string{}, Values: []float64{}}

	if err := e.Validate(y); err != nil {
		return empty, err
	}
	yop := strings.ToLower(strings.TrimSpace(y.Operation))
	if yop == OpField {
		return empty, invalid(y.Operation, "y_axis operation %q does not aggregate; expected one of count, sum, avg, min, max", y.Operation)
	}
	if err := e.catalog.ValidateAxis(x, y.Entity); err != nil {
		return empty, err
	}

	def, _ := e.catalog.Entity(y.Entity)
	records := def.load(ctx, e.session)
	records = e.filter(ctx, def, records, y.Filter)
	records = e.filter(ctx, def, records, x.Filter)

	truncMonth := strings.EqualFold(strings.TrimSpace(x.Operation), OpDateTrunc)
	var groupField Field
	if y.Grouped() {
		groupField, _ = def.Field(y.GroupBy.Field)
		if xf, ok := def.Field(x.Field); !ok || xf.Name != groupField.Name {
			truncMonth = false
		}
	} else {
		f, ok := def.Field(x.Field)
		if !ok {
			return empty, invalid(x.Field, "x_axis field %q is not a field of y_axis entity %q", x.Field, def.Name)
		}
		groupField = f
	}

	var valueField Field
	if yop != OpCount {
		valueField, _ = def.Field(y.Field)
	}
	groups := e.aggregateGroups(ctx, yop, valueField, e.partition(ctx, groupField, records, truncMonth))

	if truncMonth || groupField.Name == "month" {
		groups = chronological(groups, e.topN)
	} else {
		sortByValue(groups)
		if len(groups) > e.topN {
			groups = groups[:e.topN]
		}
	}

	out := models.ChartData{
		Labels: make([]string, 0, len(groups)),
		Values: make([]float64, 0, len(groups)),
	}
	for _, g := range groups {
		out.Labels = append(out.Labels, g.Label)
		out.Values = append(out.Values, g.Value)
	}
	return out, nil
}

// chronological sorts month buckets ascending, drops the Unknown bucket and
// keeps the last n.
func chronological(groups []models.LabeledValue, n int) []models.LabeledValue {
	kept := groups[:0]
	for _, g := range groups {
		if g.Label != UnknownLabel {
			kept = append(kept, g)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Label < kept[j].Label })
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}
