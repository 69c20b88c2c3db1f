package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "hr-analytics/internal/common/errors"
)

const metricRegistry = `{
  "version": "1.0.0",
  "activities": [
    {
      "id": "compute-metric",
      "taskType": "hr-compute-metric",
      "implementationStatus": "completed",
      "timeout": "30s",
      "errorCodes": ["UNKNOWN_METRIC"],
      "inputSchema": {
        "type": "object",
        "required": ["metric"],
        "properties": {
          "metric": {"type": "string", "minLength": 1},
          "windowDays": {"type": "integer", "minimum": 1}
        }
      }
    },
    {"id": "execute-query", "taskType": "hr-execute-query"}
  ]
}`

func TestLoadRegistry_ShippedFile(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)

	for _, taskType := range []string{
		"hr-generate-report",
		"hr-execute-query",
		"hr-compute-metric",
		"hr-send-report-notification",
	} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		v, err := a.InputValidator()
		require.NoError(t, err)
		assert.NotNil(t, v, taskType)
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "none.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{`, "decode registry"},
		{"missing id", `{"activities":[{"taskType":"a"}]}`, "id is required"},
		{"duplicate id", `{"activities":[{"id":"a","taskType":"a"},{"id":"a","taskType":"b"}]}`, "a: duplicate id"},
		{"duplicate task type", `{"activities":[{"id":"a","taskType":"t"},{"id":"b","taskType":"t"}]}`, "duplicate taskType t"},
		{"bad status", `{"activities":[{"id":"a","taskType":"t","implementationStatus":"done"}]}`, `unknown implementationStatus "done"`},
		{"bad timeout", `{"activities":[{"id":"a","taskType":"t","timeout":"soon"}]}`, "a: timeout"},
		{"undeclared code", `{"activities":[{"id":"a","taskType":"t","errorCodes":["NOPE"]}]}`, "undeclared error code NOPE"},
		{"bad schema", `{"activities":[{"id":"a","taskType":"t","inputSchema":{"type":"nonsense"}}]}`, "a: inputSchema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestActivity_NoSchema(t *testing.T) {
	reg, err := Parse([]byte(metricRegistry))
	require.NoError(t, err)

	a, ok := reg.Find("hr-execute-query")
	require.True(t, ok)
	v, err := a.InputValidator()
	require.NoError(t, err)
	assert.Nil(t, v)

	_, ok = reg.Find("hr-unknown")
	assert.False(t, ok)
}

func TestInputValidator_ValidateInput(t *testing.T) {
	reg, err := Parse([]byte(metricRegistry))
	require.NoError(t, err)
	a, _ := reg.Find("hr-compute-metric")
	v, err := a.InputValidator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		variables string
		wantErr   string
	}{
		{"valid", `{"metric":"selection_ratio","windowDays":30,"processId":"p-1"}`, ""},
		{"missing metric", `{"windowDays":30}`, "metric is required"},
		{"empty metric", `{"metric":""}`, "metric"},
		{"window below minimum", `{"metric":"time_to_hire","windowDays":0}`, "windowDays"},
		{"not json", `metric`, "parse variables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.variables)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			std := commonerrors.FromError(err)
			assert.Equal(t, commonerrors.ErrCodeInvalidInput, std.Code)
			assert.Contains(t, std.Details, "hr-compute-metric")
			assert.Contains(t, std.Details, tt.wantErr)
		})
	}
}
