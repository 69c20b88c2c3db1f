// Package schema exposes canonical recruiting entities over a remote or
// mirrored backend, memoized per request.
package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"hr-analytics/internal/common/logger"
	"hr-analytics/internal/common/metrics"
	"hr-analytics/internal/models"
)

const (
	keyApplicants = "applicants"
	keyVacancies  = "vacancies"
	keyStatuses   = "statuses"
	keySources    = "sources"
	keyRecruiters = "recruiters"
	keyDivisions  = "divisions"
)

type applicantBundle struct {
	applicants []models.Applicant
	links      []models.ApplicantLink
}

// Session is the request-scoped view of the virtual schema. Each entity is
// loaded at most once per TTL. A failed load is memoized as empty and
// recorded in Err.
type Session struct {
	backend Backend
	cache   *ttlcache.Cache[string, any]
	logger  logger.Logger

	mu     sync.Mutex
	faults map[string]error
}

// NewSession creates a session. ttl <= 0 memoizes for the session lifetime.
func NewSession(backend Backend, ttl time.Duration, log logger.Logger) *Session {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	return &Session{
		backend: backend,
		cache: ttlcache.New[string, any](
			ttlcache.WithTTL[string, any](ttl),
			ttlcache.WithDisableTouchOnHit[string, any](),
		),
		logger:  log.WithFields(map[string]interface{}{"component": "schema"}),
		faults:  make(map[string]error),
	}
}

// Err joins every load failure recorded so far, in entity order.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faults) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.faults))
	for k := range s.faults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, s.faults[k])
	}
	return errors.Join(errs...)
}

// Reset drops memoized data and recorded faults.
func (s *Session) Reset() {
	s.cache.DeleteAll()
	s.mu.Lock()
	s.faults = make(map[string]error)
	s.mu.Unlock()
}

func memo[T any](ctx context.Context, s *Session, key string, fetch func(context.Context) (T, error)) T {
	if item := s.cache.Get(key); item != nil {
		if v, ok := item.Value().(T); ok {
			return v
		}
	}

	v, err := fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.faults[key] = fmt.Errorf("%s: %w", key, err)
		s.mu.Unlock()
		metrics.SchemaLoadFaults.WithLabelValues(key).Inc()
		s.logger.Warn("Entity load failed, continuing with empty data", map[string]interface{}{
			"entity": key,
			"error":  err.Error(),
		})
		var zero T
		v = zero
	}
	s.cache.Set(key, v, ttlcache.DefaultTTL)
	return v
}

func (s *Session) bundle(ctx context.Context) applicantBundle {
	return memo(ctx, s, keyApplicants, func(ctx context.Context) (applicantBundle, error) {
		applicants, links, err := s.backend.Applicants(ctx)
		if err != nil {
			return applicantBundle{}, err
		}
		attachCurrentState(applicants, links)
		return applicantBundle{applicants: applicants, links: links}, nil
	})
}

// Applicants returns applicants with their current status and vacancy attached.
func (s *Session) Applicants(ctx context.Context) []models.Applicant {
	return s.bundle(ctx).applicants
}

// Links returns every applicant-vacancy link.
func (s *Session) Links(ctx context.Context) []models.ApplicantLink {
	return s.bundle(ctx).links
}

func (s *Session) Vacancies(ctx context.Context) []models.Vacancy {
	return memo(ctx, s, keyVacancies, s.backend.Vacancies)
}

func (s *Session) Statuses(ctx context.Context) []models.Status {
	return memo(ctx, s, keyStatuses, s.backend.Statuses)
}

func (s *Session) Sources(ctx context.Context) []models.Source {
	return memo(ctx, s, keySources, s.backend.Sources)
}

func (s *Session) Recruiters(ctx context.Context) []models.Recruiter {
	return memo(ctx, s, keyRecruiters, s.backend.Recruiters)
}

func (s *Session) Divisions(ctx context.Context) []models.Division {
	return memo(ctx, s, keyDivisions, s.backend.Divisions)
}

// StatusMapping indexes statuses by id.
func (s *Session) StatusMapping(ctx context.Context) map[int64]models.Status {
	return memo(ctx, s, "mapping:"+keyStatuses, func(ctx context.Context) (map[int64]models.Status, error) {
		out := make(map[int64]models.Status)
		for _, st := range s.Statuses(ctx) {
			out[st.ID] = st
		}
		return out, nil
	})
}

// SourcesMapping indexes source names by id.
func (s *Session) SourcesMapping(ctx context.Context) map[int64]string {
	return memo(ctx, s, "mapping:"+keySources, func(ctx context.Context) (map[int64]string, error) {
		out := make(map[int64]string)
		for _, src := range s.Sources(ctx) {
			out[src.ID] = src.Name
		}
		return out, nil
	})
}

// RecruitersMapping indexes recruiter names by id.
func (s *Session) RecruitersMapping(ctx context.Context) map[int64]string {
	return memo(ctx, s, "mapping:"+keyRecruiters, func(ctx context.Context) (map[int64]string, error) {
		out := make(map[int64]string)
		for _, r := range s.Recruiters(ctx) {
			out[r.ID] = r.Name
		}
		return out, nil
	})
}

// DivisionsMapping indexes division names by id.
func (s *Session) DivisionsMapping(ctx context.Context) map[int64]string {
	return memo(ctx, s, "mapping:"+keyDivisions, func(ctx context.Context) (map[int64]string, error) {
		out := make(map[int64]string)
		for _, d := range s.Divisions(ctx) {
			out[d.ID] = d.Name
		}
		return out, nil
	})
}

// VacanciesMapping indexes vacancies by id.
func (s *Session) VacanciesMapping(ctx context.Context) map[int64]models.Vacancy {
	return memo(ctx, s, "mapping:"+keyVacancies, func(ctx context.Context) (map[int64]models.Vacancy, error) {
		out := make(map[int64]models.Vacancy)
		for _, v := range s.Vacancies(ctx) {
			out[v.ID] = v
		}
		return out, nil
	})
}

// ApplicantsMapping indexes applicants by id.
func (s *Session) ApplicantsMapping(ctx context.Context) map[int64]models.Applicant {
	return memo(ctx, s, "mapping:"+keyApplicants, func(ctx context.Context) (map[int64]models.Applicant, error) {
		out := make(map[int64]models.Applicant)
		for _, a := range s.Applicants(ctx) {
			out[a.ID] = a
		}
		return out, nil
	})
}

// IsHired reports whether a status is a hire. Only the type is consulted.
func IsHired(status models.Status) bool {
	return status.Type == models.StatusTypeHired
}

// IsRejected reports whether a status is a rejection.
func IsRejected(status models.Status) bool {
	return status.Type == models.StatusTypeTrash
}
