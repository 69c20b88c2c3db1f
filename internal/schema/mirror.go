package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/models"
)

// MirrorBackend reads entities from the local relational mirror. Queries take
// no parameters so they run unchanged on PostgreSQL and SQLite.
type MirrorBackend struct {
	db *sql.DB
}

func NewMirrorBackend(db *sql.DB) *MirrorBackend {
	return &MirrorBackend{db: db}
}

const (
	selectApplicants = `SELECT id, first_name, last_name, middle_name, email, position, company, money, source_id, tags, created FROM applicants ORDER BY id`
	selectLinks      = `SELECT id, applicant_id, vacancy, status, updated, changed FROM applicant_links ORDER BY id`
	selectVacancies  = `SELECT id, position, company, state, created, updated, priority, account_division, account_region, coworkers, salary_from, salary_to FROM vacancies ORDER BY id`
	selectStatuses   = `SELECT id, name, type, order_number, removed FROM status_mapping ORDER BY order_number, id`
	selectSources    = `SELECT id, name, type FROM sources ORDER BY id`
	selectRecruiters = `SELECT id, name, email, type FROM recruiters ORDER BY id`
	selectDivisions  = `SELECT id, name, parent, order_number FROM divisions ORDER BY order_number, id`
)

func (b *MirrorBackend) Applicants(ctx context.Context) ([]models.Applicant, []models.ApplicantLink, error) {
	var applicants []models.Applicant
	err := b.query(ctx, selectApplicants, func(rows *sql.Rows) error {
		var a models.Applicant
		var tags, created string
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.MiddleName, &a.Email, &a.Position, &a.Company, &a.Salary, &a.SourceID, &tags, &created); err != nil {
			return err
		}
		a.Tags = splitList(tags)
		a.Created = ParseTime(created)
		applicants = append(applicants, a)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var links []models.ApplicantLink
	err = b.query(ctx, selectLinks, func(rows *sql.Rows) error {
		var l models.ApplicantLink
		var updated, changed string
		if err := rows.Scan(&l.ID, &l.ApplicantID, &l.VacancyID, &l.StatusID, &updated, &changed); err != nil {
			return err
		}
		l.Updated = ParseTime(updated)
		l.Changed = ParseTime(changed)
		links = append(links, l)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return applicants, links, nil
}

func (b *MirrorBackend) Vacancies(ctx context.Context) ([]models.Vacancy, error) {
	var out []models.Vacancy
	err := b.query(ctx, selectVacancies, func(rows *sql.Rows) error {
		var v models.Vacancy
		var created, updated, coworkers string
		if err := rows.Scan(&v.ID, &v.Position, &v.Company, &v.State, &created, &updated, &v.Priority, &v.DivisionID, &v.RegionID, &coworkers, &v.SalaryFrom, &v.SalaryTo); err != nil {
			return err
		}
		v.State = strings.ToUpper(v.State)
		v.Created = ParseTime(created)
		v.Updated = ParseTime(updated)
		for _, s := range splitList(coworkers) {
			if id, err := strconv.ParseInt(s, 10, 64); err == nil {
				v.Coworkers = append(v.Coworkers, id)
			}
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func (b *MirrorBackend) Statuses(ctx context.Context) ([]models.Status, error) {
	var out []models.Status
	err := b.query(ctx, selectStatuses, func(rows *sql.Rows) error {
		var s models.Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.Order, &s.Removed); err != nil {
			return err
		}
		s.Type = strings.ToLower(s.Type)
		out = append(out, s)
		return nil
	})
	return out, err
}

func (b *MirrorBackend) Sources(ctx context.Context) ([]models.Source, error) {
	var out []models.Source
	err := b.query(ctx, selectSources, func(rows *sql.Rows) error {
		var s models.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.Type); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func (b *MirrorBackend) Recruiters(ctx context.Context) ([]models.Recruiter, error) {
	var out []models.Recruiter
	err := b.query(ctx, selectRecruiters, func(rows *sql.Rows) error {
		var r models.Recruiter
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Type); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

func (b *MirrorBackend) Divisions(ctx context.Context) ([]models.Division, error) {
	var out []models.Division
	err := b.query(ctx, selectDivisions, func(rows *sql.Rows) error {
		var d models.Division
		if err := rows.Scan(&d.ID, &d.Name, &d.ParentID, &d.Order); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

func (b *MirrorBackend) query(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return commonerrors.NewMirrorQueryFailedError(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return commonerrors.NewMirrorQueryFailedError(fmt.Errorf("scan: %w", err))
		}
	}
	if err := rows.Err(); err != nil {
		return commonerrors.NewMirrorQueryFailedError(err)
	}
	return nil
}

// splitList decodes the comma-joined list columns.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
