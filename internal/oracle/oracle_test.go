package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hr-analytics/internal/common/config"
	"hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func conversation() []Message {
	return []Message{
		{Role: RoleUser, Content: "How many applicants?"},
		{Role: RoleAssistant, Content: "{}"},
		{Role: RoleUser, Content: "missing required field: report_title"},
	}
}

func TestGenAI_Generate(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/generate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"{\"report_title\":\"ok\"}"}`))
	}))
	defer server.Close()

	o := NewGenAI(config.OracleConfig{BaseURL: server.URL + "/", APIKey: "secret", MaxTokens: 100, Timeout: 5000}, createTestLogger(t))
	text, err := o.Generate(context.Background(), "system prompt", conversation())

	require.NoError(t, err)
	assert.Equal(t, `{"report_title":"ok"}`, text)
	assert.Equal(t, "system prompt", got.System)
	assert.Equal(t, "missing required field: report_title", got.Prompt)
	assert.Len(t, got.Messages, 3)
	assert.Equal(t, 100, got.MaxTokens)
}

func TestGenAI_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"done"}`))
	}))
	defer server.Close()

	o := NewGenAI(config.OracleConfig{BaseURL: server.URL, MaxRetries: 2, Timeout: 5000}, createTestLogger(t))
	text, err := o.Generate(context.Background(), "", conversation())

	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenAI_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	o := NewGenAI(config.OracleConfig{BaseURL: server.URL, MaxRetries: 3, Timeout: 5000}, createTestLogger(t))
	_, err := o.Generate(context.Background(), "", conversation())

	var oe *Error
	require.ErrorAs(t, err, &oe)
	assert.False(t, oe.Timeout)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, errors.ErrCodeOracleFailed, errors.FromError(err).Code)
}

func TestGenAI_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	o := NewGenAI(config.OracleConfig{BaseURL: server.URL, Timeout: 50}, createTestLogger(t))
	_, err := o.Generate(context.Background(), "", conversation())

	var oe *Error
	require.ErrorAs(t, err, &oe)
	assert.True(t, oe.Timeout)
	assert.Equal(t, errors.ErrCodeOracleTimeout, errors.FromError(err).Code)
}

func TestAnthropic_Generate(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "{\"impossible_query\": true, \"reason\": \"no payroll data\"}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	o := NewAnthropic(config.OracleConfig{BaseURL: server.URL, APIKey: "k", Timeout: 5000}, createTestLogger(t))
	text, err := o.Generate(context.Background(), "system prompt", conversation())

	require.NoError(t, err)
	assert.Contains(t, text, "impossible_query")

	msgs, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[1].(map[string]interface{})["role"])
	assert.NotNil(t, body["system"])
}

func TestAnthropic_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer server.Close()

	o := NewAnthropic(config.OracleConfig{BaseURL: server.URL, APIKey: "k", Timeout: 5000}, createTestLogger(t))
	_, err := o.Generate(context.Background(), "", conversation())

	var oe *Error
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, providerAnthropic, oe.Provider)
}

func TestNew_Providers(t *testing.T) {
	log := createTestLogger(t)
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{config.OracleGenAI, false},
		{config.OracleAnthropic, false},
		{config.OracleGemini, false},
		{"openai", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			o, err := New(context.Background(), config.OracleConfig{Provider: tt.provider, BaseURL: "http://localhost", APIKey: "k"}, log)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, o)
		})
	}
}
