package computemetric

import "hr-analytics/internal/models"

type Input struct {
	Metric     string `json:"metric"`
	WindowDays *int   `json:"windowDays,omitempty"`
	Months     *int   `json:"months,omitempty"`
}

type Output struct {
	Metric     string      `json:"metric"`
	Value      interface{} `json:"value"`
	RowCount   int         `json:"rowCount"`
	ComputedAt string      `json:"computedAt"` // RFC 3339
	Cached     bool        `json:"cached"`
}

// cacheEntry is the Redis representation of a computed metric.
type cacheEntry struct {
	Scalar     float64               `json:"scalar"`
	Rows       []models.LabeledValue `json:"rows,omitempty"`
	Tabular    bool                  `json:"tabular"`
	ComputedAt string                `json:"computedAt"`
}
