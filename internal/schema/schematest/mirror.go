package schematest

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SeedMirror writes every entity of b into a migrated SQLite mirror.
func SeedMirror(ctx context.Context, db *sql.DB, b *Backend) error {
	var rows []struct {
		stmt string
		args []interface{}
	}
	add := func(stmt string, args ...interface{}) {
		rows = append(rows, struct {
			stmt string
			args []interface{}
		}{stmt, args})
	}

	for _, s := range b.StatusList {
		add(`INSERT INTO status_mapping (id, name, type, order_number, removed) VALUES (?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.Type, s.Order, s.Removed)
	}
	for _, s := range b.SourceList {
		add(`INSERT INTO sources (id, name, type) VALUES (?, ?, ?)`, s.ID, s.Name, s.Type)
	}
	for _, r := range b.RecruiterList {
		add(`INSERT INTO recruiters (id, name, email, type) VALUES (?, ?, ?, ?)`, r.ID, r.Name, r.Email, r.Type)
	}
	for _, d := range b.DivisionList {
		add(`INSERT INTO divisions (id, name, parent, order_number) VALUES (?, ?, ?, ?)`, d.ID, d.Name, d.ParentID, d.Order)
	}
	for _, v := range b.VacancyList {
		coworkers := make([]string, len(v.Coworkers))
		for i, id := range v.Coworkers {
			coworkers[i] = strconv.FormatInt(id, 10)
		}
		add(`INSERT INTO vacancies (id, position, company, state, created, updated, priority, account_division, account_region, coworkers, salary_from, salary_to)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Position, v.Company, v.State, stamp(v.Created), stamp(v.Updated), v.Priority,
			v.DivisionID, v.RegionID, strings.Join(coworkers, ","), v.SalaryFrom, v.SalaryTo)
	}
	for _, a := range b.ApplicantList {
		add(`INSERT INTO applicants (id, first_name, last_name, middle_name, email, position, company, money, source_id, tags, created)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.FirstName, a.LastName, a.MiddleName, a.Email, a.Position, a.Company, a.Salary,
			a.SourceID, strings.Join(a.Tags, ","), stamp(a.Created))
	}
	for _, l := range b.LinkList {
		add(`INSERT INTO applicant_links (id, applicant_id, vacancy, status, updated, changed) VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID, l.ApplicantID, l.VacancyID, l.StatusID, stamp(l.Updated), stamp(l.Changed))
	}

	for _, r := range rows {
		if _, err := db.ExecContext(ctx, r.stmt, r.args...); err != nil {
			return fmt.Errorf("seed mirror: %w", err)
		}
	}
	return nil
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
