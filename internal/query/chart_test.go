package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ChartData(t *testing.T) {
	tests := []struct {
		name       string
		topN       int
		x          Expression
		y          Expression
		wantLabels []string
		wantValues []float64
	}{
		{
			name:       "grouped by x field",
			topN:       10,
			x:          Expression{Operation: "field", Field: "source"},
			y:          Expression{Operation: "count", Entity: "applicants"},
			wantLabels: []string{"LinkedIn", "Referral", "Source 999"},
			wantValues: []float64{3, 1, 1},
		},
		{
			name:       "y group_by wins",
			topN:       10,
			x:          Expression{Operation: "field", Field: "source"},
			y:          Expression{Operation: "count", Entity: "applicants", GroupBy: &GroupBy{Field: "recruiter"}},
			wantLabels: []string{"Alice Recruiter", "Bob Recruiter"},
			wantValues: []float64{4, 1},
		},
		{
			name:       "capped at top-N",
			topN:       1,
			x:          Expression{Operation: "field", Field: "source"},
			y:          Expression{Operation: "count", Entity: "applicants"},
			wantLabels: []string{"LinkedIn"},
			wantValues: []float64{3},
		},
		{
			name:       "date_trunc keeps months chronological",
			topN:       10,
			x:          Expression{Operation: "date_trunc", Field: "created"},
			y:          Expression{Operation: "count", Entity: "vacancies"},
			wantLabels: []string{"2024-03", "2024-04", "2024-05"},
			wantValues: []float64{1, 1, 1},
		},
		{
			name:       "date_trunc keeps the most recent months",
			topN:       2,
			x:          Expression{Operation: "date_trunc", Field: "created"},
			y:          Expression{Operation: "count", Entity: "vacancies"},
			wantLabels: []string{"2024-04", "2024-05"},
			wantValues: []float64{1, 1},
		},
		{
			name:       "x filter applies",
			topN:       10,
			x:          Expression{Operation: "field", Entity: "applicants", Field: "source", Filter: Filters{{Field: "source", Op: "ne", Value: "LinkedIn"}}},
			y:          Expression{Operation: "count", Entity: "applicants"},
			wantLabels: []string{"Referral", "Source 999"},
			wantValues: []float64{1, 1},
		},
		{
			name:       "y filter applies",
			topN:       10,
			x:          Expression{Operation: "field", Field: "state"},
			y:          Expression{Operation: "count", Entity: "vacancies", Filter: Filters{{Field: "state", Op: "eq", Value: "OPEN"}}},
			wantLabels: []string{"OPEN"},
			wantValues: []float64{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, tt.topN)
			data, err := engine.ChartData(context.Background(), tt.x, tt.y)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabels, data.Labels)
			assert.Equal(t, tt.wantValues, data.Values)
			assert.Len(t, data.Values, len(data.Labels))
		})
	}
}

func TestEngine_ChartDataRejects(t *testing.T) {
	engine := newTestEngine(t, 10)
	ctx := context.Background()

	tests := []struct {
		name   string
		x      Expression
		y      Expression
		wantIn string
	}{
		{"field y axis", Expression{Operation: "field", Field: "source"}, Expression{Operation: "field", Entity: "applicants", Field: "source"}, "does not aggregate"},
		{"bad x operation", Expression{Operation: "count", Field: "source"}, Expression{Operation: "count", Entity: "applicants"}, "unknown x_axis operation"},
		{"date_trunc on text", Expression{Operation: "date_trunc", Field: "email"}, Expression{Operation: "count", Entity: "applicants"}, "date_trunc needs a time field"},
		{"x entity differs from y", Expression{Operation: "field", Entity: "vacancies", Field: "state"}, Expression{Operation: "count", Entity: "applicants"}, `x_axis entity "vacancies" differs from y_axis entity "applicants"`},
		{"x field shared by both entities", Expression{Operation: "field", Entity: "sources", Field: "name"}, Expression{Operation: "count", Entity: "applicants"}, "differs from y_axis entity"},
		{"x field not on y entity", Expression{Operation: "field", Field: "state"}, Expression{Operation: "count", Entity: "applicants"}, `unknown field "state" for entity "applicants"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := engine.ChartData(ctx, tt.x, tt.y)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, tt.wantIn)
			assert.Empty(t, data.Labels)
		})
	}
}
