package schema

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"hr-analytics/internal/models"
)

// Backend loads canonical entities from a data source. Implementations are
// interchangeable behind Session.
type Backend interface {
	Applicants(ctx context.Context) ([]models.Applicant, []models.ApplicantLink, error)
	Vacancies(ctx context.Context) ([]models.Vacancy, error)
	Statuses(ctx context.Context) ([]models.Status, error)
	Sources(ctx context.Context) ([]models.Source, error)
	Recruiters(ctx context.Context) ([]models.Recruiter, error)
	Divisions(ctx context.Context) ([]models.Division, error)
}

// Fetcher is the subset of the remote accessor RemoteBackend needs.
type Fetcher interface {
	AccountPath(suffix string) string
	Fetch(ctx context.Context, method, path string, params url.Values) (map[string]interface{}, error)
	FetchAll(ctx context.Context, path string, params url.Values) ([]map[string]interface{}, error)
}

// RemoteBackend reads entities straight from the recruiting platform API.
type RemoteBackend struct {
	api Fetcher
}

func NewRemoteBackend(api Fetcher) *RemoteBackend {
	return &RemoteBackend{api: api}
}

func (b *RemoteBackend) Applicants(ctx context.Context) ([]models.Applicant, []models.ApplicantLink, error) {
	records, err := b.api.FetchAll(ctx, b.api.AccountPath("/applicants"), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("load applicants: %w", err)
	}
	applicants := make([]models.Applicant, 0, len(records))
	var links []models.ApplicantLink
	for _, r := range records {
		a, l := normalizeApplicant(r)
		applicants = append(applicants, a)
		links = append(links, l...)
	}
	return applicants, links, nil
}

func (b *RemoteBackend) Vacancies(ctx context.Context) ([]models.Vacancy, error) {
	records, err := b.api.FetchAll(ctx, b.api.AccountPath("/vacancies"), url.Values{"opened": {"false"}})
	if err != nil {
		return nil, fmt.Errorf("load vacancies: %w", err)
	}
	out := make([]models.Vacancy, 0, len(records))
	for _, r := range records {
		out = append(out, normalizeVacancy(r))
	}
	return out, nil
}

func (b *RemoteBackend) Statuses(ctx context.Context) ([]models.Status, error) {
	items, err := b.items(ctx, "/vacancies/statuses")
	if err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}
	out := make([]models.Status, 0, len(items))
	for _, r := range items {
		out = append(out, normalizeStatus(r))
	}
	return out, nil
}

func (b *RemoteBackend) Sources(ctx context.Context) ([]models.Source, error) {
	items, err := b.items(ctx, "/applicants/sources")
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	out := make([]models.Source, 0, len(items))
	for _, r := range items {
		out = append(out, normalizeSource(r))
	}
	return out, nil
}

func (b *RemoteBackend) Recruiters(ctx context.Context) ([]models.Recruiter, error) {
	records, err := b.api.FetchAll(ctx, b.api.AccountPath("/coworkers"), nil)
	if err != nil {
		return nil, fmt.Errorf("load coworkers: %w", err)
	}
	out := make([]models.Recruiter, 0, len(records))
	for _, r := range records {
		out = append(out, normalizeRecruiter(r))
	}
	return out, nil
}

func (b *RemoteBackend) Divisions(ctx context.Context) ([]models.Division, error) {
	items, err := b.items(ctx, "/divisions")
	if err != nil {
		return nil, fmt.Errorf("load divisions: %w", err)
	}
	out := make([]models.Division, 0, len(items))
	for _, r := range items {
		out = append(out, normalizeDivision(r))
	}
	return out, nil
}

// items reads a non-paginated reference endpoint.
func (b *RemoteBackend) items(ctx context.Context, suffix string) ([]map[string]interface{}, error) {
	doc, err := b.api.Fetch(ctx, http.MethodGet, b.api.AccountPath(suffix), nil)
	if err != nil {
		return nil, err
	}
	raw, _ := doc["items"].([]interface{})
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
