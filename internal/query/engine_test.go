package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/models"
	"hr-analytics/internal/schema"
	"hr-analytics/internal/schema/schematest"
)

var fixtureNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestEngine(t *testing.T, topN int) *Engine {
	log := createTestLogger(t)
	session := schema.NewSession(schematest.Fixture(fixtureNow), 0, log)
	return NewEngine(session, topN, log)
}

// generatedApplicants returns a backend holding n applicants and nothing else.
func generatedApplicants(n int) *schematest.Backend {
	b := &schematest.Backend{}
	for i := 1; i <= n; i++ {
		b.ApplicantList = append(b.ApplicantList, models.Applicant{
			ID:      int64(i),
			Created: fixtureNow.Add(-time.Duration(i) * time.Hour),
		})
	}
	return b
}

func TestEngine_ExecuteScalars(t *testing.T) {
	engine := newTestEngine(t, 10)

	tests := []struct {
		name    string
		backend *schematest.Backend
		expr    Expression
		want    interface{}
	}{
		{
			name:    "count over a hundred applicants",
			backend: generatedApplicants(100),
			expr:    Expression{Operation: "count", Entity: "applicants"},
			want:    100,
		},
		{
			name: "count all applicants",
			expr: Expression{Operation: "count", Entity: "applicants"},
			want: 5,
		},
		{
			name: "entity alias",
			expr: Expression{Operation: "count", Entity: "applicant"},
			want: 5,
		},
		{
			name: "reference filter by label",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "source", Op: "eq", Value: "LinkedIn"}}},
			want: 3,
		},
		{
			name: "reference filter by numeric id",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "source", Op: "eq", Value: float64(100)}}},
			want: 3,
		},
		{
			name: "reference filter by decimal id string with _id spelling",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "source_id", Op: "eq", Value: "100"}}},
			want: 3,
		},
		{
			name: "hires view ignores hire-sounding names",
			expr: Expression{Operation: "count", Entity: "hires"},
			want: 2,
		},
		{
			name: "active candidates",
			expr: Expression{Operation: "count", Entity: "active_candidates"},
			want: 3,
		},
		{
			name: "text filter is case-insensitive",
			expr: Expression{Operation: "count", Entity: "vacancies", Filter: Filters{{Field: "state", Op: "eq", Value: "open"}}},
			want: 2,
		},
		{
			name: "open vacancies view",
			expr: Expression{Operation: "count", Entity: "open_vacancies"},
			want: 2,
		},
		{
			name: "closed vacancies view",
			expr: Expression{Operation: "count", Entity: "closed_vacancies"},
			want: 1,
		},
		{
			name: "in list",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "status", Op: "in", Value: []interface{}{"Interview", "Offer"}}}},
			want: 2,
		},
		{
			name: "not_in list",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "status", Op: "not_in", Value: []interface{}{"Interview", "Offer"}}}},
			want: 3,
		},
		{
			name: "ne",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "source", Op: "ne", Value: "LinkedIn"}}},
			want: 2,
		},
		{
			name: "numeric gt",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "salary", Op: "gt", Value: float64(100000)}}},
			want: 2,
		},
		{
			name: "time gte",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "created", Op: "gte", Value: "2024-05-01"}}},
			want: 3,
		},
		{
			name: "icontains",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "full_name", Op: "icontains", Value: "ann"}}},
			want: 1,
		},
		{
			name: "multi-valued tags",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "tags", Op: "eq", Value: "senior"}}},
			want: 1,
		},
		{
			name: "conjunction of filters",
			expr: Expression{Operation: "count", Entity: "applicants", Filter: Filters{
				{Field: "source", Op: "eq", Value: "LinkedIn"},
				{Field: "salary", Op: "lte", Value: float64(150000)},
			}},
			want: 1,
		},
		{
			name: "avg skips missing salaries",
			expr: Expression{Operation: "avg", Entity: "applicants", Field: "salary"},
			want: 490000.0 / 3,
		},
		{
			name: "sum",
			expr: Expression{Operation: "sum", Entity: "applicants", Field: "money"},
			want: 490000.0,
		},
		{
			name: "min",
			expr: Expression{Operation: "min", Entity: "applicants", Field: "salary"},
			want: 90000.0,
		},
		{
			name: "max over vacancies salary midpoint",
			expr: Expression{Operation: "max", Entity: "vacancies", Field: "salary"},
			want: 250000.0,
		},
		{
			name: "avg over empty input is zero",
			expr: Expression{Operation: "avg", Entity: "applicants", Field: "salary", Filter: Filters{{Field: "source", Op: "eq", Value: "Nowhere"}}},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := engine
			if tt.backend != nil {
				log := createTestLogger(t)
				e = NewEngine(schema.NewSession(tt.backend, 0, log), 10, log)
			}
			res, err := e.Execute(context.Background(), tt.expr)
			require.NoError(t, err)
			if f, ok := tt.want.(float64); ok {
				assert.InDelta(t, f, res.Value(), 0.001)
				return
			}
			assert.Equal(t, tt.want, res.Value())
		})
	}
}

func TestEngine_ExecuteGroupBy(t *testing.T) {
	engine := newTestEngine(t, 10)
	ctx := context.Background()

	t.Run("sorted by value then label with fallback labels", func(t *testing.T) {
		res, err := engine.Execute(ctx, Expression{Operation: "count", Entity: "applicants", GroupBy: &GroupBy{Field: "source"}})
		require.NoError(t, err)
		assert.Equal(t, []models.LabeledValue{
			{Label: "LinkedIn", Value: 3},
			{Label: "Referral", Value: 1},
			{Label: "Source 999", Value: 1},
		}, res.Value())
		assert.Equal(t, 3, res.Rows())
	})

	t.Run("missing values group under Unknown", func(t *testing.T) {
		res, err := engine.Execute(ctx, Expression{Operation: "count", Entity: "vacancies", GroupBy: &GroupBy{Field: "division"}})
		require.NoError(t, err)
		assert.Equal(t, []models.LabeledValue{
			{Label: UnknownLabel, Value: 2},
			{Label: "Engineering", Value: 1},
		}, res.Groups)
	})

	t.Run("multi-valued recruiter field", func(t *testing.T) {
		res, err := engine.Execute(ctx, Expression{Operation: "count", Entity: "applicants", GroupBy: &GroupBy{Field: "recruiter"}})
		require.NoError(t, err)
		assert.Equal(t, []models.LabeledValue{
			{Label: "Alice Recruiter", Value: 4},
			{Label: "Bob Recruiter", Value: 1},
		}, res.Groups)
	})

	t.Run("aggregate per group", func(t *testing.T) {
		res, err := engine.Execute(ctx, Expression{Operation: "avg", Entity: "applicants", Field: "salary", GroupBy: &GroupBy{Field: "source"}})
		require.NoError(t, err)
		require.Len(t, res.Groups, 3)
		assert.Equal(t, "LinkedIn", res.Groups[0].Label)
		assert.InDelta(t, 200000, res.Groups[0].Value, 0.001)
	})
}

func TestEngine_FieldOperation(t *testing.T) {
	engine := newTestEngine(t, 2)

	res, err := engine.Execute(context.Background(), Expression{Operation: "field", Entity: "applicants", Field: "source"})
	require.NoError(t, err)
	assert.Equal(t, []string{"LinkedIn", "Referral"}, res.Value())
}

func TestEngine_DegradedSessionUsesFallbackLabels(t *testing.T) {
	log := createTestLogger(t)
	backend := schematest.Fixture(fixtureNow)
	backend.Errs = map[string]error{"sources": errors.New("unavailable")}
	session := schema.NewSession(backend, 0, log)
	engine := NewEngine(session, 10, log)

	res, err := engine.Execute(context.Background(), Expression{Operation: "count", Entity: "applicants", GroupBy: &GroupBy{Field: "source"}})
	require.NoError(t, err)
	assert.Equal(t, "Source 100", res.Groups[0].Label)
	assert.Error(t, session.Err())
}

func TestEngine_Validate(t *testing.T) {
	engine := newTestEngine(t, 10)

	tests := []struct {
		name      string
		expr      Expression
		wantToken string
		wantIn    string
	}{
		{"missing operation", Expression{Entity: "applicants"}, "operation", "missing operation"},
		{"unknown operation", Expression{Operation: "median", Entity: "applicants"}, "median", "unknown operation"},
		{"missing entity", Expression{Operation: "count"}, "entity", "missing entity"},
		{"unknown entity", Expression{Operation: "count", Entity: "employees"}, "employees", "unknown entity"},
		{"aggregate without field", Expression{Operation: "avg", Entity: "applicants"}, "field", `requires a "field"`},
		{"unknown field", Expression{Operation: "sum", Entity: "applicants", Field: "bonus"}, "bonus", "unknown field"},
		{"count with unknown field", Expression{Operation: "count", Entity: "applicants", Field: "no_such_field"}, "no_such_field", `unknown field "no_such_field"`},
		{"non-numeric field", Expression{Operation: "avg", Entity: "applicants", Field: "email"}, "email", "not numeric"},
		{"unknown filter field", Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "age", Op: "eq", Value: 3}}}, "age", "unknown filter field"},
		{"unknown filter operator", Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "email", Op: "like", Value: "x"}}}, "like", "unknown filter operator"},
		{"in without list", Expression{Operation: "count", Entity: "applicants", Filter: Filters{{Field: "source", Op: "in", Value: "LinkedIn"}}}, "source", "requires a list value"},
		{"unknown group_by field", Expression{Operation: "count", Entity: "applicants", GroupBy: &GroupBy{Field: "team"}}, "team", "unknown group_by field"},
	}

	reasons := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Validate(tt.expr)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantToken, verr.Token)
			assert.Contains(t, verr.Reason, tt.wantIn)
			assert.False(t, reasons[verr.Reason], "reasons must be distinct")
			reasons[verr.Reason] = true
		})
	}

	t.Run("execute refuses invalid expressions", func(t *testing.T) {
		_, err := engine.Execute(context.Background(), Expression{Operation: "avg", Entity: "applicants"})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestExpression_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantFilters int
		wantGroupBy string
	}{
		{"single filter object", `{"operation":"count","entity":"applicants","filter":{"field":"source","op":"eq","value":"LinkedIn"}}`, 1, ""},
		{"filter list", `{"operation":"count","entity":"applicants","filter":[{"field":"source","op":"eq","value":1},{"field":"salary","operator":"gt","value":5}]}`, 2, ""},
		{"null filter", `{"operation":"count","entity":"applicants","filter":null}`, 0, ""},
		{"empty filter object", `{"operation":"count","entity":"applicants","filter":{}}`, 0, ""},
		{"group_by object", `{"operation":"count","entity":"applicants","group_by":{"field":"source"}}`, 0, "source"},
		{"group_by string", `{"operation":"count","entity":"applicants","group_by":"status"}`, 0, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expr Expression
			require.NoError(t, json.Unmarshal([]byte(tt.input), &expr))
			assert.Len(t, expr.Filter, tt.wantFilters)
			if tt.wantGroupBy == "" {
				assert.False(t, expr.Grouped())
			} else {
				assert.Equal(t, tt.wantGroupBy, expr.GroupBy.Field)
			}
		})
	}

	var expr Expression
	require.NoError(t, json.Unmarshal([]byte(`{"operation":"count","entity":"x","filter":[{"field":"a","operator":"gte","value":1}]}`), &expr))
	assert.Equal(t, "gte", expr.Filter[0].Op)
}

func TestEngine_ExecuteFromJSON(t *testing.T) {
	engine := newTestEngine(t, 10)

	var doc interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"operation":"count","entity":"applicants","filter":{"field":"status_id","op":"in","value":[2,3]}}`), &doc))
	expr, err := ParseExpression(doc)
	require.NoError(t, err)

	res, err := engine.Execute(context.Background(), expr)
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `2`, string(out))
}
