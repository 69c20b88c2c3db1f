package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/models"
	"hr-analytics/internal/schema/schematest"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

var fixtureNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSession_MemoizesLoads(t *testing.T) {
	backend := schematest.Fixture(fixtureNow)
	s := NewSession(backend, 0, createTestLogger(t))
	ctx := context.Background()

	first := s.Applicants(ctx)
	second := s.Applicants(ctx)
	_ = s.Links(ctx)
	_ = s.ApplicantsMapping(ctx)

	require.Len(t, first, 5)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, 1, backend.Calls("applicants"))

	s.StatusMapping(ctx)
	s.Statuses(ctx)
	assert.Equal(t, 1, backend.Calls("statuses"))
}

func TestSession_DerivesCurrentState(t *testing.T) {
	s := NewSession(schematest.Fixture(fixtureNow), 0, createTestLogger(t))
	byID := s.ApplicantsMapping(context.Background())

	assert.Equal(t, schematest.StatusOffer, byID[5].StatusID)
	assert.Equal(t, int64(10), byID[5].VacancyID)
	assert.Equal(t, schematest.StatusHired, byID[1].StatusID)
}

func TestSession_FailureDegradesToEmpty(t *testing.T) {
	backend := schematest.Fixture(fixtureNow)
	backend.Errs = map[string]error{"sources": errors.New("boom")}
	s := NewSession(backend, 0, createTestLogger(t))
	ctx := context.Background()

	assert.Empty(t, s.Sources(ctx))
	assert.Empty(t, s.Sources(ctx))
	assert.Equal(t, 1, backend.Calls("sources"), "failures are memoized too")
	assert.Len(t, s.Vacancies(ctx), 3)

	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), "sources: boom")

	s.Reset()
	assert.NoError(t, s.Err())
}

func TestSession_TTLReload(t *testing.T) {
	backend := schematest.Fixture(fixtureNow)
	s := NewSession(backend, 20*time.Millisecond, createTestLogger(t))
	ctx := context.Background()

	s.Vacancies(ctx)
	time.Sleep(40 * time.Millisecond)
	s.Vacancies(ctx)
	assert.Equal(t, 2, backend.Calls("vacancies"))
}

func TestResolveLabel(t *testing.T) {
	s := NewSession(schematest.Fixture(fixtureNow), 0, createTestLogger(t))
	ctx := context.Background()

	tests := []struct {
		entity Entity
		id     int64
		want   string
	}{
		{EntitySource, 100, "LinkedIn"},
		{EntitySource, 42, "Source 42"},
		{EntityStatus, schematest.StatusHired, "Success"},
		{EntityVacancy, 11, "Designer"},
		{EntityRecruiter, 500, "Alice Recruiter"},
		{EntityDivision, 900, "Engineering"},
		{EntityDivision, 0, "Division 0"},
		{EntityApplicant, 1, "Ann Lee"},
		{EntityApplicant, 77, "Applicant 77"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, s.ResolveLabel(ctx, tt.entity, tt.id))
			assert.Equal(t, tt.want, s.ResolveLabel(ctx, tt.entity, tt.id), "deterministic")
		})
	}
}

func TestIsHired_UsesTypeOnly(t *testing.T) {
	assert.True(t, IsHired(models.Status{Name: "Success", Type: "hired"}))
	assert.False(t, IsHired(models.Status{Name: "Hired Successfully", Type: "user"}))
	assert.True(t, IsRejected(models.Status{Name: "Anything", Type: "trash"}))
}
