package report

import (
	"context"
	"fmt"

	"hr-analytics/internal/query"
)

// enrich attaches real_value to every metric and real_data to the chart.
// Nothing is written unless every expression evaluates; the rest of the
// document is left untouched.
func (c *Controller) enrich(ctx context.Context, doc map[string]interface{}) error {
	main := doc["main_metric"].(map[string]interface{})
	mainValue, err := c.execute(ctx, main["value"])
	if err != nil {
		return fmt.Errorf("main_metric: %w", err)
	}

	secondary, _ := doc["secondary_metrics"].([]interface{})
	values := make([]interface{}, len(secondary))
	for i, item := range secondary {
		m := item.(map[string]interface{})
		if values[i], err = c.execute(ctx, m["value"]); err != nil {
			return fmt.Errorf("secondary_metrics[%d]: %w", i, err)
		}
	}

	chart := doc["chart"].(map[string]interface{})
	x, err := query.ParseExpression(chart["x_axis"])
	if err != nil {
		return fmt.Errorf("chart.x_axis: %w", err)
	}
	y, err := query.ParseExpression(chart["y_axis"])
	if err != nil {
		return fmt.Errorf("chart.y_axis: %w", err)
	}
	data, err := c.engine.ChartData(ctx, x, y)
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}

	main["real_value"] = mainValue
	for i, item := range secondary {
		item.(map[string]interface{})["real_value"] = values[i]
	}
	chart["real_data"] = data
	return nil
}

func (c *Controller) execute(ctx context.Context, v interface{}) (interface{}, error) {
	expr, err := query.ParseExpression(v)
	if err != nil {
		return nil, err
	}
	res, err := c.engine.Execute(ctx, expr)
	if err != nil {
		return nil, err
	}
	return res.Value(), nil
}
