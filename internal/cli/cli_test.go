package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-analytics/internal/analytics"
	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/models"
	"hr-analytics/internal/oracle"
	"hr-analytics/internal/schema/schematest"
)

var fixtureNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type cannedOracle string

func (o cannedOracle) Generate(context.Context, string, []oracle.Message) (string, error) {
	return string(o), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Analytics: config.AnalyticsConfig{
			Backend:               config.BackendRemote,
			ChartTopN:             10,
			TimeToHireWindowDays:  90,
			OfferAcceptanceMonths: 12,
		},
	}
}

func testApp(t *testing.T, cfg *config.Config, o oracle.Oracle) *App {
	return &App{
		LoadConfig: func(string) (*config.Config, error) { return cfg, nil },
		NewLogger:  func(bool) logger.Logger { return logger.NewTestLogger(t) },
		NewRuntime: func(_ context.Context, cfg *config.Config, log logger.Logger, _ bool) (*analytics.Runtime, func(), error) {
			return &analytics.Runtime{
				Config:  cfg,
				Backend: schematest.Fixture(fixtureNow),
				Oracle:  o,
				Clock:   clockwork.NewFakeClockAt(fixtureNow),
				Logger:  log,
			}, func() {}, nil
		},
	}
}

func run(app *App, args ...string) (string, error) {
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQueryCmd(t *testing.T) {
	app := testApp(t, testConfig(), nil)

	t.Run("count as json", func(t *testing.T) {
		out, err := run(app, "--json", "query", `{"operation":"count","entity":"applicants"}`)
		require.NoError(t, err)
		assert.Equal(t, "5\n", out)
	})

	t.Run("grouped as table", func(t *testing.T) {
		out, err := run(app, "query", `{"operation":"count","entity":"applicants","group_by":{"field":"source"}}`)
		require.NoError(t, err)
		assert.Contains(t, out, "Label")
		assert.Contains(t, out, "LinkedIn")
		assert.Contains(t, out, "Referral")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := run(app, "query", `{"operation":`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expression is not valid JSON")
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := run(app, "query", `{"operation":"count","entity":"payroll"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "payroll")
	})
}

func TestChartCmd(t *testing.T) {
	app := testApp(t, testConfig(), nil)

	out, err := run(app, "--json", "chart",
		"--x", `{"operation":"field","field":"source"}`,
		"--y", `{"operation":"count","entity":"applicants"}`)
	require.NoError(t, err)

	var data models.ChartData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, []string{"LinkedIn", "Referral", "Source 999"}, data.Labels)
	assert.Equal(t, []float64{3, 1, 1}, data.Values)

	_, err = run(app, "chart", "--x", `{"operation":"field","field":"source"}`)
	require.Error(t, err)
}

func TestMetricCmd(t *testing.T) {
	app := testApp(t, testConfig(), nil)

	tests := []struct {
		name string
		args []string
		want interface{}
	}{
		{"scalar", []string{"--json", "metric", "selection_ratio"}, 40.0},
		{"window override", []string{"--json", "metric", "time_to_hire", "--window-days", "30"}, 30.0},
		{"months override", []string{"--json", "metric", "offer_acceptance_rate", "--months", "1"},
			[]interface{}{map[string]interface{}{"label": "2024-05", "value": 50.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(app, tt.args...)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got["value"])
			assert.Equal(t, false, got["cached"])
		})
	}

	t.Run("table", func(t *testing.T) {
		out, err := run(app, "metric", "vacancies_by_state")
		require.NoError(t, err)
		assert.Contains(t, out, "OPEN")
		assert.Contains(t, out, "CLOSED")
		assert.Contains(t, out, "vacancies_by_state: computed at 2024-06-01T12:00:00Z")
	})

	t.Run("unknown metric", func(t *testing.T) {
		_, err := run(app, "metric", "headcount")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UNKNOWN_METRIC")
	})
}

func TestMetricsCmd(t *testing.T) {
	out, err := run(testApp(t, testConfig(), nil), "metrics")
	require.NoError(t, err)
	for _, name := range []string{"time_to_fill", "selection_ratio", "recruiters_by_hires"} {
		assert.Contains(t, out, name)
	}
}

func TestReportCmd(t *testing.T) {
	t.Run("out of domain", func(t *testing.T) {
		app := testApp(t, testConfig(), cannedOracle(`{"impossible_query": true, "reason": "payroll is not tracked"}`))
		out, err := run(app, "report", "what", "is", "our", "payroll?")
		require.NoError(t, err)
		assert.Contains(t, out, "out_of_domain")
		assert.Contains(t, out, "impossible query: payroll is not tracked")
	})

	t.Run("json with request id", func(t *testing.T) {
		app := testApp(t, testConfig(), cannedOracle(`{"impossible_query": true, "reason": "n/a"}`))
		out, err := run(app, "--json", "report", "--request-id", "req-7", "payroll?")
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "req-7", got["requestId"])
		assert.Equal(t, true, got["impossibleQuery"])
		assert.Equal(t, false, got["archived"])
	})

	t.Run("missing question", func(t *testing.T) {
		_, err := run(testApp(t, testConfig(), nil), "report")
		require.Error(t, err)
	})
}

func TestHistoryCmd_ArchiveDisabled(t *testing.T) {
	_, err := run(testApp(t, testConfig(), nil), "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive is not enabled")
}

func TestMigrateCmd(t *testing.T) {
	cfg := testConfig()
	cfg.Analytics.MirrorDriver = config.MirrorDriverSQLite
	cfg.Database.SQLite.Path = filepath.Join(t.TempDir(), "mirror.db")

	out, err := run(testApp(t, cfg, nil), "migrate")
	require.NoError(t, err)
	assert.Equal(t, "mirror schema up to date (sqlite)\n", out)

	// Re-running is a no-op.
	_, err = run(testApp(t, cfg, nil), "migrate")
	require.NoError(t, err)
}

func TestActivitiesCmd(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "activity-registry.json")
	app := testApp(t, testConfig(), nil)

	out, err := run(app, "activities", "validate", "--path", path)
	require.NoError(t, err)
	assert.Equal(t, "registry 1.0.0: 4 activities valid\n", out)

	out, err = run(app, "activities", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hr-generate-report")
	assert.Contains(t, out, "NOTIFICATION_SEND_FAILED")

	_, err = run(app, "activities", "validate", "--path", filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
}

func TestWriteValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  []string
	}{
		{"int", 5, []string{"Value", "5"}},
		{"float", 163333.333, []string{"163333.33"}},
		{"labels", []string{"LinkedIn", "Referral"}, []string{"#", "1", "LinkedIn", "2", "Referral"}},
		{"groups", []models.LabeledValue{{Label: "OPEN", Value: 2}}, []string{"OPEN", "2"}},
		{"chart", &models.ChartData{Labels: []string{"2024-05"}, Values: []float64{50}}, []string{"2024-05", "50"}},
		{"other", map[string]int{"a": 1}, []string{`"a": 1`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeValue(&buf, tt.value))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}

	t.Run("mismatched chart", func(t *testing.T) {
		err := writeValue(&bytes.Buffer{}, &models.ChartData{Labels: []string{"a"}})
		assert.Error(t, err)
	})
}
