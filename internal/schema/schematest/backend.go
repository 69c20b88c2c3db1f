// Package schematest provides an in-memory schema backend for tests.
package schematest

import (
	"context"
	"sync/atomic"

	"hr-analytics/internal/models"
)

// Backend serves fixed entities and counts loads per entity.
type Backend struct {
	ApplicantList []models.Applicant
	LinkList      []models.ApplicantLink
	VacancyList   []models.Vacancy
	StatusList    []models.Status
	SourceList    []models.Source
	RecruiterList []models.Recruiter
	DivisionList  []models.Division

	// Errs fails the named entity load ("applicants", "vacancies", ...).
	Errs map[string]error

	calls map[string]*int32
}

func (b *Backend) hit(name string) error {
	if b.calls == nil {
		b.calls = map[string]*int32{}
	}
	c, ok := b.calls[name]
	if !ok {
		c = new(int32)
		b.calls[name] = c
	}
	atomic.AddInt32(c, 1)
	return b.Errs[name]
}

// Calls reports how many times an entity was loaded.
func (b *Backend) Calls(name string) int {
	if c, ok := b.calls[name]; ok {
		return int(atomic.LoadInt32(c))
	}
	return 0
}

func (b *Backend) Applicants(context.Context) ([]models.Applicant, []models.ApplicantLink, error) {
	if err := b.hit("applicants"); err != nil {
		return nil, nil, err
	}
	applicants := append([]models.Applicant(nil), b.ApplicantList...)
	return applicants, append([]models.ApplicantLink(nil), b.LinkList...), nil
}

func (b *Backend) Vacancies(context.Context) ([]models.Vacancy, error) {
	if err := b.hit("vacancies"); err != nil {
		return nil, err
	}
	return b.VacancyList, nil
}

func (b *Backend) Statuses(context.Context) ([]models.Status, error) {
	if err := b.hit("statuses"); err != nil {
		return nil, err
	}
	return b.StatusList, nil
}

func (b *Backend) Sources(context.Context) ([]models.Source, error) {
	if err := b.hit("sources"); err != nil {
		return nil, err
	}
	return b.SourceList, nil
}

func (b *Backend) Recruiters(context.Context) ([]models.Recruiter, error) {
	if err := b.hit("recruiters"); err != nil {
		return nil, err
	}
	return b.RecruiterList, nil
}

func (b *Backend) Divisions(context.Context) ([]models.Division, error) {
	if err := b.hit("divisions"); err != nil {
		return nil, err
	}
	return b.DivisionList, nil
}
