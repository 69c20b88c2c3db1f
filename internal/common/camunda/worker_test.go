package camunda

import (
	"context"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"

	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
)

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(client worker.JobClient, job entities.Job) {
	m.Called(job.Key)
}

type rejectAll struct{}

func (rejectAll) ValidateInput(string) error {
	return commonerrors.NewInvalidInputError("hr-compute-metric: metric is required")
}

type acceptAll struct{}

func (acceptAll) ValidateInput(string) error { return nil }

// fakeGateway records ThrowError calls; every other RPC is unused.
type fakeGateway struct {
	pb.GatewayClient
	thrown []*pb.ThrowErrorRequest
}

func (g *fakeGateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

type fakeJobClient struct {
	worker.JobClient
	gateway *fakeGateway
}

func (c *fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, func(context.Context, error) bool { return false })
}

func testJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       key,
		Type:      "hr-compute-metric",
		Retries:   3,
		Variables: variables,
	}}
}

func TestInstrument_RejectsInvalidInput(t *testing.T) {
	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	reg := NewRegistry(nil, nil, log)
	handler := &mockHandler{}
	client := &fakeJobClient{gateway: &fakeGateway{}}

	failed := metrics.WorkerJobsFailed.WithLabelValues("hr-compute-metric", string(commonerrors.ErrCodeInvalidInput))
	before := testutil.ToFloat64(failed)

	reg.instrument("hr-compute-metric", handler, rejectAll{})(client, testJob(7, `{}`))

	handler.AssertNotCalled(t, "Handle", mock.Anything)
	require.Len(t, client.gateway.thrown, 1)
	assert.Equal(t, int64(7), client.gateway.thrown[0].JobKey)
	assert.Equal(t, "INVALID_INPUT", client.gateway.thrown[0].ErrorCode)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestInstrument_RunsHandler(t *testing.T) {
	tests := []struct {
		name      string
		validator InputValidator
	}{
		{"validated", acceptAll{}},
		{"no validator", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewZapAdapter(zaptest.NewLogger(t))
			reg := NewRegistry(nil, nil, log)
			handler := &mockHandler{}
			handler.On("Handle", int64(9)).Once()
			client := &fakeJobClient{gateway: &fakeGateway{}}

			reg.instrument("hr-compute-metric", handler, tt.validator)(client, testJob(9, `{"metric":"selection_ratio"}`))

			handler.AssertExpectations(t)
			assert.Empty(t, client.gateway.thrown)
		})
	}
}
