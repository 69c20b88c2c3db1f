package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"hr-analytics/internal/models"
	"hr-analytics/internal/schema"
)

// Kind is the value type of a catalog field.
type Kind string

const (
	KindNumber   Kind = "number"
	KindText     Kind = "text"
	KindTime     Kind = "time"
	KindBool     Kind = "bool"
	KindRef      Kind = "ref"
	KindRefList  Kind = "ref_list"
	KindTextList Kind = "text_list"
)

// Field is one queryable attribute of an entity.
type Field struct {
	Name        string
	Kind        Kind
	Ref         schema.Entity
	ZeroIsEmpty bool
	Description string
}

// Numeric reports whether sum/avg/min/max may use the field.
func (f Field) Numeric() bool { return f.Kind == KindNumber }

// IsTime reports whether date_trunc may use the field.
func (f Field) IsTime() bool { return f.Kind == KindTime }

type record map[string]interface{}

// EntityDef describes a queryable entity or derived view.
type EntityDef struct {
	Name        string
	Description string
	Fields      []Field
	View        bool

	aliases map[string]string
	load    func(ctx context.Context, s *schema.Session) []record
}

// Field looks up an attribute by name, alias, or "<ref>_id" spelling.
func (d *EntityDef) Field(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := d.aliases[name]; ok {
		name = alias
	}
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	if base := strings.TrimSuffix(name, "_id"); base != name {
		for _, f := range d.Fields {
			if f.Name == base && (f.Kind == KindRef || f.Kind == KindRefList) {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Catalog is the closed set of entities the engine understands.
type Catalog struct {
	entities map[string]*EntityDef
	aliases  map[string]string
	order    []string
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the recruiting entity catalog.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = buildCatalog()
	})
	return defaultCatalog
}

// Entity resolves a name or alias.
func (c *Catalog) Entity(name string) (*EntityDef, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := c.aliases[name]; ok {
		name = alias
	}
	def, ok := c.entities[name]
	return def, ok
}

// Entities lists definitions in catalog order.
func (c *Catalog) Entities() []*EntityDef {
	out := make([]*EntityDef, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entities[name])
	}
	return out
}

// Names lists entity names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalog) add(def *EntityDef) {
	c.entities[def.Name] = def
	c.order = append(c.order, def.Name)
}

func monthLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}

var (
	applicantFields = []Field{
		{Name: "id", Kind: KindNumber},
		{Name: "first_name", Kind: KindText},
		{Name: "last_name", Kind: KindText},
		{Name: "full_name", Kind: KindText},
		{Name: "email", Kind: KindText},
		{Name: "position", Kind: KindText, Description: "desired position"},
		{Name: "company", Kind: KindText},
		{Name: "salary", Kind: KindNumber, ZeroIsEmpty: true, Description: "salary expectation"},
		{Name: "source", Kind: KindRef, Ref: schema.EntitySource},
		{Name: "status", Kind: KindRef, Ref: schema.EntityStatus, Description: "current status"},
		{Name: "status_type", Kind: KindText, Description: "type of the current status"},
		{Name: "vacancy", Kind: KindRef, Ref: schema.EntityVacancy, Description: "current vacancy"},
		{Name: "recruiter", Kind: KindRefList, Ref: schema.EntityRecruiter, Description: "recruiters of the current vacancy"},
		{Name: "division", Kind: KindRef, Ref: schema.EntityDivision, Description: "division of the current vacancy"},
		{Name: "tags", Kind: KindTextList},
		{Name: "created", Kind: KindTime},
		{Name: "month", Kind: KindText, Description: "creation month, YYYY-MM"},
	}
	applicantAliases = map[string]string{"money": "salary", "name": "full_name", "status_name": "status", "recruiters": "recruiter", "coworkers": "recruiter"}

	vacancyFields = []Field{
		{Name: "id", Kind: KindNumber},
		{Name: "position", Kind: KindText},
		{Name: "company", Kind: KindText},
		{Name: "state", Kind: KindText, Description: "OPEN, CLOSED or HOLD"},
		{Name: "priority", Kind: KindNumber},
		{Name: "salary", Kind: KindNumber, ZeroIsEmpty: true, Description: "midpoint of the salary range"},
		{Name: "salary_from", Kind: KindNumber, ZeroIsEmpty: true},
		{Name: "salary_to", Kind: KindNumber, ZeroIsEmpty: true},
		{Name: "created", Kind: KindTime},
		{Name: "updated", Kind: KindTime},
		{Name: "month", Kind: KindText, Description: "creation month, YYYY-MM"},
		{Name: "division", Kind: KindRef, Ref: schema.EntityDivision},
		{Name: "region", Kind: KindNumber},
		{Name: "recruiter", Kind: KindRefList, Ref: schema.EntityRecruiter},
	}
	vacancyAliases = map[string]string{"account_division": "division", "account_region": "region", "coworkers": "recruiter", "recruiters": "recruiter", "money": "salary"}

	linkFields = []Field{
		{Name: "id", Kind: KindNumber},
		{Name: "applicant", Kind: KindRef, Ref: schema.EntityApplicant},
		{Name: "vacancy", Kind: KindRef, Ref: schema.EntityVacancy},
		{Name: "status", Kind: KindRef, Ref: schema.EntityStatus},
		{Name: "status_type", Kind: KindText},
		{Name: "source", Kind: KindRef, Ref: schema.EntitySource, Description: "source of the applicant"},
		{Name: "recruiter", Kind: KindRefList, Ref: schema.EntityRecruiter, Description: "recruiters of the vacancy"},
		{Name: "updated", Kind: KindTime},
		{Name: "changed", Kind: KindTime},
		{Name: "month", Kind: KindText, Description: "update month, YYYY-MM"},
	}
	linkAliases = map[string]string{"recruiters": "recruiter", "coworkers": "recruiter"}

	statusFields = []Field{
		{Name: "id", Kind: KindNumber},
		{Name: "name", Kind: KindText},
		{Name: "type", Kind: KindText},
		{Name: "order", Kind: KindNumber},
		{Name: "removed", Kind: KindBool},
	}
	statusAliases = map[string]string{"order_number": "order"}

	sourceFields = []Field{
		{Name: "id", Kind: KindNumber},
		{Name: "name", Kind: KindText},
		{Name: "type", Kind: KindText},
	}

	recruiterFields = []Field{
		{Name: "id", Kind: KindNumber},
		{Name: "name", Kind: KindText},
		{Name: "email", Kind: KindText},
		{Name: "type", Kind: KindText},
	}
	recruiterAliases = map[string]string{"role": "type", "member_type": "type"}

	divisionFields = []Field{
		{Name: "id", Kind: KindNumber},
		{Name: "name", Kind: KindText},
		{Name: "parent", Kind: KindRef, Ref: schema.EntityDivision},
		{Name: "order", Kind: KindNumber},
	}
)

func buildCatalog() *Catalog {
	c := &Catalog{
		entities: make(map[string]*EntityDef),
		aliases: map[string]string{
			"applicant":         "applicants",
			"candidates":        "applicants",
			"vacancy":           "vacancies",
			"links":             "applicant_links",
			"applicant_link":    "applicant_links",
			"status":            "statuses",
			"status_mapping":    "statuses",
			"vacancy_statuses":  "statuses",
			"source":            "sources",
			"applicant_sources": "sources",
			"recruiter":         "recruiters",
			"coworkers":         "recruiters",
			"users":             "recruiters",
			"division":          "divisions",
		},
	}

	c.add(&EntityDef{Name: "applicants", Description: "candidates with their current status and vacancy", Fields: applicantFields, aliases: applicantAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return applicantRecords(ctx, s, func(models.Applicant, models.Status, models.Vacancy) bool { return true })
		}})
	c.add(&EntityDef{Name: "vacancies", Description: "job openings", Fields: vacancyFields, aliases: vacancyAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return vacancyRecords(ctx, s, "")
		}})
	c.add(&EntityDef{Name: "applicant_links", Description: "applicant-to-vacancy pipeline links", Fields: linkFields, aliases: linkAliases,
		load: linkRecords})
	c.add(&EntityDef{Name: "statuses", Description: "pipeline stages", Fields: statusFields, aliases: statusAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return statusRecords(ctx, s, false)
		}})
	c.add(&EntityDef{Name: "sources", Description: "applicant sources", Fields: sourceFields,
		load: sourceRecords})
	c.add(&EntityDef{Name: "recruiters", Description: "recruiters and hiring managers", Fields: recruiterFields, aliases: recruiterAliases,
		load: recruiterRecords})
	c.add(&EntityDef{Name: "divisions", Description: "organisation divisions", Fields: divisionFields,
		load: divisionRecords})

	c.add(&EntityDef{Name: "active_candidates", View: true, Description: "applicants currently in an OPEN vacancy, not hired or rejected", Fields: applicantFields, aliases: applicantAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return applicantRecords(ctx, s, func(_ models.Applicant, st models.Status, v models.Vacancy) bool {
				return v.State == models.VacancyOpen && !schema.IsHired(st) && !schema.IsRejected(st)
			})
		}})
	c.add(&EntityDef{Name: "hires", View: true, Description: "applicants whose current status type is hired", Fields: applicantFields, aliases: applicantAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return applicantRecords(ctx, s, func(_ models.Applicant, st models.Status, _ models.Vacancy) bool {
				return schema.IsHired(st)
			})
		}})
	c.add(&EntityDef{Name: "open_vacancies", View: true, Description: "vacancies in state OPEN", Fields: vacancyFields, aliases: vacancyAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return vacancyRecords(ctx, s, models.VacancyOpen)
		}})
	c.add(&EntityDef{Name: "closed_vacancies", View: true, Description: "vacancies in state CLOSED", Fields: vacancyFields, aliases: vacancyAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return vacancyRecords(ctx, s, models.VacancyClosed)
		}})
	c.add(&EntityDef{Name: "active_statuses", View: true, Description: "statuses not marked removed", Fields: statusFields, aliases: statusAliases,
		load: func(ctx context.Context, s *schema.Session) []record {
			return statusRecords(ctx, s, true)
		}})

	return c
}

func applicantRecords(ctx context.Context, s *schema.Session, keep func(models.Applicant, models.Status, models.Vacancy) bool) []record {
	statuses := s.StatusMapping(ctx)
	vacancies := s.VacanciesMapping(ctx)

	applicants := s.Applicants(ctx)
	out := make([]record, 0, len(applicants))
	for _, a := range applicants {
		st := statuses[a.StatusID]
		v := vacancies[a.VacancyID]
		if !keep(a, st, v) {
			continue
		}
		out = append(out, record{
			"id":          float64(a.ID),
			"first_name":  a.FirstName,
			"last_name":   a.LastName,
			"full_name":   a.FullName(),
			"email":       a.Email,
			"position":    a.Position,
			"company":     a.Company,
			"salary":      a.Salary,
			"source":      a.SourceID,
			"status":      a.StatusID,
			"status_type": st.Type,
			"vacancy":     a.VacancyID,
			"recruiter":   v.Coworkers,
			"division":    v.DivisionID,
			"tags":        a.Tags,
			"created":     a.Created,
			"month":       monthLabel(a.Created),
		})
	}
	return out
}

func vacancyRecords(ctx context.Context, s *schema.Session, state string) []record {
	vacancies := s.Vacancies(ctx)
	out := make([]record, 0, len(vacancies))
	for _, v := range vacancies {
		if state != "" && v.State != state {
			continue
		}
		out = append(out, record{
			"id":          float64(v.ID),
			"position":    v.Position,
			"company":     v.Company,
			"state":       v.State,
			"priority":    float64(v.Priority),
			"salary":      v.Salary(),
			"salary_from": v.SalaryFrom,
			"salary_to":   v.SalaryTo,
			"created":     v.Created,
			"updated":     v.Updated,
			"month":       monthLabel(v.Created),
			"division":    v.DivisionID,
			"region":      float64(v.RegionID),
			"recruiter":   v.Coworkers,
		})
	}
	return out
}

func linkRecords(ctx context.Context, s *schema.Session) []record {
	statuses := s.StatusMapping(ctx)
	vacancies := s.VacanciesMapping(ctx)
	applicants := s.ApplicantsMapping(ctx)

	links := s.Links(ctx)
	out := make([]record, 0, len(links))
	for _, l := range links {
		out = append(out, record{
			"id":          float64(l.ID),
			"applicant":   l.ApplicantID,
			"vacancy":     l.VacancyID,
			"status":      l.StatusID,
			"status_type": statuses[l.StatusID].Type,
			"source":      applicants[l.ApplicantID].SourceID,
			"recruiter":   vacancies[l.VacancyID].Coworkers,
			"updated":     l.Updated,
			"changed":     l.Changed,
			"month":       monthLabel(l.Updated),
		})
	}
	return out
}

func statusRecords(ctx context.Context, s *schema.Session, activeOnly bool) []record {
	statuses := s.Statuses(ctx)
	out := make([]record, 0, len(statuses))
	for _, st := range statuses {
		if activeOnly && st.Removed {
			continue
		}
		out = append(out, record{
			"id":      float64(st.ID),
			"name":    st.Name,
			"type":    st.Type,
			"order":   float64(st.Order),
			"removed": st.Removed,
		})
	}
	return out
}

func sourceRecords(ctx context.Context, s *schema.Session) []record {
	sources := s.Sources(ctx)
	out := make([]record, 0, len(sources))
	for _, src := range sources {
		out = append(out, record{"id": float64(src.ID), "name": src.Name, "type": src.Type})
	}
	return out
}

func recruiterRecords(ctx context.Context, s *schema.Session) []record {
	recruiters := s.Recruiters(ctx)
	out := make([]record, 0, len(recruiters))
	for _, r := range recruiters {
		out = append(out, record{"id": float64(r.ID), "name": r.Name, "email": r.Email, "type": r.Type})
	}
	return out
}

func divisionRecords(ctx context.Context, s *schema.Session) []record {
	divisions := s.Divisions(ctx)
	out := make([]record, 0, len(divisions))
	for _, d := range divisions {
		out = append(out, record{"id": float64(d.ID), "name": d.Name, "parent": d.ParentID, "order": float64(d.Order)})
	}
	return out
}
