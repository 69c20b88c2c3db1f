package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string"},
    "kind": {"type": "string", "enum": ["bar", "line"]},
    "size": {"type": "number"}
  }
}`

func TestSchema_Validate(t *testing.T) {
	s, err := Compile(testSchema)
	require.NoError(t, err)

	tests := []struct {
		name      string
		doc       interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"name": "x", "kind": "bar", "size": 3.0}, true, ""},
		{"missing required", map[string]interface{}{"kind": "bar"}, false, "(root)"},
		{"wrong type", map[string]interface{}{"name": 1.0}, false, "name"},
		{"bad enum", map[string]interface{}{"name": "x", "kind": "pie"}, false, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Validate(tt.doc)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.True(t, res.HasErrors(tt.wantField), res.GetErrorMessages())
			}
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("hr@example.com"))
	assert.False(t, ValidateEmail("not-an-email"))
}
