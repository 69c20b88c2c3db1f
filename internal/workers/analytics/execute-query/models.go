package executequery

import "hr-analytics/internal/models"

// Input carries either a single expression or a chart axis pair.
type Input struct {
	Expression interface{} `json:"expression,omitempty"`
	Chart      *ChartInput `json:"chart,omitempty"`
}

type ChartInput struct {
	XAxis interface{} `json:"x_axis"`
	YAxis interface{} `json:"y_axis"`
}

type Output struct {
	Value     interface{}       `json:"value,omitempty"`
	ChartData *models.ChartData `json:"chartData,omitempty"`
}
