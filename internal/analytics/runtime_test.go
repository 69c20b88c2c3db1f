package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/database"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/oracle"
	"hr-analytics/internal/report"
	"hr-analytics/internal/schema"
	"hr-analytics/internal/schema/schematest"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type stubOracle struct{}

func (stubOracle) Generate(context.Context, string, []oracle.Message) (string, error) {
	return `{"impossible_query": true, "reason": "n/a"}`, nil
}

func testConfig(backend string) *config.Config {
	return &config.Config{
		Huntflow: config.HuntflowConfig{BaseURL: "http://huntflow.local", AccountID: 7},
		Analytics: config.AnalyticsConfig{
			Backend:   backend,
			ChartTopN: 5,
		},
	}
}

func TestNewBackend(t *testing.T) {
	log := createTestLogger(t)

	mirror, err := database.NewSQLite(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer mirror.Close()

	tests := []struct {
		name    string
		backend string
		mirror  *database.SQLClient
		want    interface{}
		wantErr bool
	}{
		{name: "remote", backend: config.BackendRemote, want: &schema.RemoteBackend{}},
		{name: "default is remote", backend: "", want: &schema.RemoteBackend{}},
		{name: "mirror", backend: config.BackendMirror, mirror: mirror, want: &schema.MirrorBackend{}},
		{name: "mirror without database", backend: config.BackendMirror, wantErr: true},
		{name: "unknown", backend: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(testConfig(tt.backend), nil, tt.mirror, log)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestRuntime_Pipeline(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	log := createTestLogger(t)
	rt := &Runtime{
		Config:  testConfig(config.BackendRemote),
		Backend: schematest.Fixture(now),
		Clock:   clockwork.NewFakeClockAt(now),
		Logger:  log,
	}

	session := rt.NewSession(log)
	engine := rt.NewEngine(session, log)
	assert.Same(t, session, engine.Session())

	_, err := rt.NewController(engine, log)
	assert.Error(t, err)

	rt.Oracle = stubOracle{}
	ctrl, err := rt.NewController(engine, log)
	require.NoError(t, err)
	out, err := ctrl.Run(context.Background(), report.Request{Question: "payroll?"})
	require.NoError(t, err)
	assert.True(t, out.ImpossibleQuery)

	env := rt.MetricEnv(session)
	assert.Equal(t, now, env.Clock.Now())
	assert.Equal(t, config.DefaultStageTypes(), env.StageTypes)
}
