package models

import (
	"strings"
	"time"
)

// Status types that carry meaning for analytics. Names are free text and
// never used for classification.
const (
	StatusTypeHired = "hired"
	StatusTypeTrash = "trash"
	StatusTypeUser  = "user"
)

// Vacancy states.
const (
	VacancyOpen   = "OPEN"
	VacancyClosed = "CLOSED"
	VacancyHold   = "HOLD"
)

// Applicant is a candidate. StatusID, VacancyID and LastLinkUpdated are
// derived from the most recently updated link.
type Applicant struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	MiddleName      string    `json:"middle_name,omitempty"`
	Email           string    `json:"email,omitempty"`
	Position        string    `json:"position,omitempty"`
	Company         string    `json:"company,omitempty"`
	Salary          float64   `json:"salary"`
	SourceID        int64     `json:"source_id"`
	Tags            []string  `json:"tags,omitempty"`
	Created         time.Time `json:"created"`
	StatusID        int64     `json:"status_id"`
	VacancyID       int64     `json:"vacancy_id"`
	LastLinkUpdated time.Time `json:"last_link_updated"`
}

// FullName joins the non-empty name parts.
func (a Applicant) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.FirstName, a.MiddleName, a.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type Vacancy struct {
	ID         int64     `json:"id"`
	Position   string    `json:"position"`
	Company    string    `json:"company,omitempty"`
	State      string    `json:"state"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
	Priority   int       `json:"priority"`
	DivisionID int64     `json:"division_id"`
	RegionID   int64     `json:"region_id"`
	Coworkers  []int64   `json:"coworkers,omitempty"`
	SalaryFrom float64   `json:"salary_from"`
	SalaryTo   float64   `json:"salary_to"`
}

// Salary is the midpoint of the non-zero salary bounds.
func (v Vacancy) Salary() float64 {
	switch {
	case v.SalaryFrom > 0 && v.SalaryTo > 0:
		return (v.SalaryFrom + v.SalaryTo) / 2
	case v.SalaryTo > 0:
		return v.SalaryTo
	default:
		return v.SalaryFrom
	}
}

type ApplicantLink struct {
	ID          int64     `json:"id"`
	ApplicantID int64     `json:"applicant_id"`
	VacancyID   int64     `json:"vacancy_id"`
	StatusID    int64     `json:"status_id"`
	Updated     time.Time `json:"updated"`
	Changed     time.Time `json:"changed"`
}

type Status struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Order   int    `json:"order"`
	Removed bool   `json:"removed"`
}

type Source struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Recruiter struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Type  string `json:"type"`
}

type Division struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
	Order    int    `json:"order"`
}
