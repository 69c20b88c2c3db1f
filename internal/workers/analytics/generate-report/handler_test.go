package generatereport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hr-analytics/internal/analytics"
	"hr-analytics/internal/archive"
	"hr-analytics/internal/common/config"
	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/oracle"
	"hr-analytics/internal/schema/schematest"
)

var fixtureNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const hiresReport = `{
  "report_title": "Hiring",
  "main_metric": {"label": "Hires", "value": {"operation": "count", "entity": "hires"}},
  "secondary_metrics": [],
  "chart": {
    "graph_description": "Hires by source",
    "chart_type": "bar",
    "x_axis_name": "Source",
    "y_axis_name": "Hires",
    "x_axis": {"operation": "field", "field": "source"},
    "y_axis": {"operation": "count", "entity": "hires"}
  }
}`

type fakeOracle struct {
	reply string
	err   error
	calls int32
}

func (f *fakeOracle) Generate(context.Context, string, []oracle.Message) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.reply, f.err
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestRuntime(t *testing.T, o oracle.Oracle) *analytics.Runtime {
	return &analytics.Runtime{
		Config: &config.Config{
			Analytics: config.AnalyticsConfig{ChartTopN: 10},
		},
		Backend: schematest.Fixture(fixtureNow),
		Oracle:  o,
		Clock:   clockwork.NewFakeClockAt(fixtureNow),
		Logger:  createTestLogger(t),
	}
}

func createTestArchiver(t *testing.T, status int, hits *int32, lastPath *string) *archive.Archiver {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		*lastPath = r.URL.Path
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return archive.New(client, "hr-reports", createTestLogger(t))
}

func intPtr(v int) *int { return &v }

func TestHandler_Execute_Success(t *testing.T) {
	o := &fakeOracle{reply: hiresReport}
	h := NewHandler(&Config{Timeout: 5 * time.Second}, createTestRuntime(t, o), createTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		RequestID:   "req-42",
		Query:       "How many hires do we have?",
		NotifyEmail: "hr@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "req-42", out.RequestID)
	assert.True(t, out.ValidationSuccess)
	assert.Equal(t, "valid", out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.Empty(t, out.Errors)
	assert.Equal(t, "hr@example.com", out.NotifyEmail)
	assert.False(t, out.Archived)

	main := out.Report["main_metric"].(map[string]interface{})
	assert.Equal(t, 2, main["real_value"])
}

func TestHandler_Execute_GeneratesRequestID(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second}, createTestRuntime(t, &fakeOracle{reply: hiresReport}), createTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Query: "hires?"})
	require.NoError(t, err)
	assert.Len(t, out.RequestID, 36)
}

func TestHandler_Execute_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{"empty query", Input{Query: "  "}, ErrMissingQuery},
		{"negative retries", Input{Query: "q", MaxRetries: intPtr(-1)}, ErrInvalidRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fakeOracle{reply: hiresReport}
			h := NewHandler(&Config{Timeout: time.Second}, createTestRuntime(t, o), createTestLogger(t))

			_, err := h.Execute(context.Background(), &tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, commonerrors.ErrCodeInvalidInput, standardize(err).Code)
			assert.Zero(t, o.calls)
		})
	}
}

func TestHandler_Execute_Exhausted(t *testing.T) {
	o := &fakeOracle{reply: "not a report"}
	h := NewHandler(&Config{Timeout: time.Second}, createTestRuntime(t, o), createTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Query: "q", MaxRetries: intPtr(1)})
	require.NoError(t, err)

	assert.False(t, out.ValidationSuccess)
	assert.Equal(t, "exhausted", out.State)
	assert.Equal(t, int32(2), o.calls)
	assert.Len(t, out.Errors, 2)
	assert.Equal(t, "not a report", out.Report["raw_response"])
}

func TestHandler_Execute_OracleFailure(t *testing.T) {
	o := &fakeOracle{err: &oracle.Error{Provider: "genai", Timeout: true, Err: errors.New("deadline")}}
	h := NewHandler(&Config{Timeout: time.Second}, createTestRuntime(t, o), createTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Query: "q"})
	require.Error(t, err)
	std := standardize(err)
	assert.Equal(t, commonerrors.ErrCodeOracleTimeout, std.Code)
	assert.True(t, std.Retryable)
}

func TestHandler_Execute_NoOracle(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second}, createTestRuntime(t, nil), createTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Query: "q"})
	assert.ErrorIs(t, err, ErrReportFailed)
}

func TestHandler_Execute_Archive(t *testing.T) {
	tests := []struct {
		name         string
		enabled      bool
		status       int
		wantHits     int32
		wantArchived bool
	}{
		{"disabled", false, http.StatusCreated, 0, false},
		{"stored", true, http.StatusCreated, 1, true},
		{"failure is not fatal", true, http.StatusBadRequest, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			var path string
			rt := createTestRuntime(t, &fakeOracle{reply: hiresReport})
			rt.Archiver = createTestArchiver(t, tt.status, &hits, &path)
			h := NewHandler(&Config{Timeout: 5 * time.Second, ArchiveEnabled: tt.enabled}, rt, createTestLogger(t))

			out, err := h.Execute(context.Background(), &Input{RequestID: "req-7", Query: "hires?"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantArchived, out.Archived)
			assert.Equal(t, tt.wantHits, atomic.LoadInt32(&hits))
			if tt.wantHits > 0 {
				assert.Equal(t, "/hr-reports/_doc/req-7", path)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{
		Workers: map[string]config.WorkerConfig{TaskType: {Enabled: true, Timeout: 90000}},
		Archive: config.ArchiveConfig{Enabled: true},
	}
	c := LoadConfig(cfg)
	assert.Equal(t, 90*time.Second, c.Timeout)
	assert.True(t, c.ArchiveEnabled)
}
