package schema

import (
	"context"
	"fmt"
	"strings"
)

// Entity names a canonical entity for label resolution.
type Entity string

const (
	EntityApplicant Entity = "Applicant"
	EntityVacancy   Entity = "Vacancy"
	EntityStatus    Entity = "Status"
	EntitySource    Entity = "Source"
	EntityRecruiter Entity = "Recruiter"
	EntityDivision  Entity = "Division"
)

// FallbackLabel is the synthetic label for an unmapped id.
func FallbackLabel(entity Entity, id int64) string {
	return fmt.Sprintf("%s %d", entity, id)
}

// ResolveLabel maps an id to its display name. Unknown ids and empty names
// resolve to FallbackLabel; it never fails.
func (s *Session) ResolveLabel(ctx context.Context, entity Entity, id int64) string {
	var name string
	switch entity {
	case EntityApplicant:
		if a, ok := s.ApplicantsMapping(ctx)[id]; ok {
			name = a.FullName()
		}
	case EntityVacancy:
		if v, ok := s.VacanciesMapping(ctx)[id]; ok {
			name = v.Position
		}
	case EntityStatus:
		if st, ok := s.StatusMapping(ctx)[id]; ok {
			name = st.Name
		}
	case EntitySource:
		name = s.SourcesMapping(ctx)[id]
	case EntityRecruiter:
		name = s.RecruitersMapping(ctx)[id]
	case EntityDivision:
		name = s.DivisionsMapping(ctx)[id]
	}

	if name = strings.TrimSpace(name); name == "" {
		return FallbackLabel(entity, id)
	}
	return name
}
