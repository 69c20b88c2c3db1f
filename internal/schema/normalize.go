package schema

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"hr-analytics/internal/models"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// first returns the first present, non-nil value among keys.
func first(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0
		}
		return n
	case map[string]interface{}:
		return asInt64(first(t, "id"))
	default:
		return 0
	}
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		return leadingNumber(t)
	default:
		return 0
	}
}

// leadingNumber parses "150 000 RUB" or "120,000.50$" as its leading number.
func leadingNumber(s string) float64 {
	var b strings.Builder
	seenDigit := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			seenDigit = true
		case r == '.' && seenDigit:
			b.WriteRune('.')
		case (r == ',' || unicode.IsSpace(r)) && seenDigit:
			continue
		default:
			if seenDigit {
				f, _ := strconv.ParseFloat(strings.TrimRight(b.String(), "."), 64)
				return f
			}
		}
	}
	f, _ := strconv.ParseFloat(strings.TrimRight(b.String(), "."), 64)
	return f
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}

// ParseTime accepts RFC3339 with or without zone and returns UTC. Unparsable
// input yields the zero time.
func ParseTime(v interface{}) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func asIDList(v interface{}) []int64 {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		if id := asInt64(item); id != 0 {
			out = append(out, id)
		}
	}
	return out
}

func asTags(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var tag string
		switch t := item.(type) {
		case map[string]interface{}:
			if name := asString(t["name"]); name != "" {
				tag = name
			} else {
				tag = asString(first(t, "tag", "id"))
			}
		default:
			tag = asString(t)
		}
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func normalizeApplicant(m map[string]interface{}) (models.Applicant, []models.ApplicantLink) {
	a := models.Applicant{
		ID:         asInt64(m["id"]),
		FirstName:  asString(m["first_name"]),
		LastName:   asString(m["last_name"]),
		MiddleName: asString(m["middle_name"]),
		Email:      asString(m["email"]),
		Position:   asString(m["position"]),
		Company:    asString(m["company"]),
		Salary:     asFloat(first(m, "money", "salary")),
		SourceID:   asInt64(first(m, "source", "source_id")),
		Tags:       asTags(m["tags"]),
		Created:    ParseTime(m["created"]),
	}

	if a.SourceID == 0 {
		if external, ok := m["external"].([]interface{}); ok {
			for _, e := range external {
				if em, ok := e.(map[string]interface{}); ok {
					if id := asInt64(em["account_source"]); id != 0 {
						a.SourceID = id
						break
					}
				}
			}
		}
	}

	var links []models.ApplicantLink
	if raw, ok := m["links"].([]interface{}); ok {
		for _, l := range raw {
			if lm, ok := l.(map[string]interface{}); ok {
				link := normalizeLink(lm)
				link.ApplicantID = a.ID
				links = append(links, link)
			}
		}
	}
	return a, links
}

func normalizeLink(m map[string]interface{}) models.ApplicantLink {
	return models.ApplicantLink{
		ID:          asInt64(m["id"]),
		ApplicantID: asInt64(first(m, "applicant", "applicant_id")),
		VacancyID:   asInt64(first(m, "vacancy", "vacancy_id")),
		StatusID:    asInt64(first(m, "status", "status_id")),
		Updated:     ParseTime(m["updated"]),
		Changed:     ParseTime(m["changed"]),
	}
}

func normalizeVacancy(m map[string]interface{}) models.Vacancy {
	v := models.Vacancy{
		ID:         asInt64(m["id"]),
		Position:   asString(m["position"]),
		Company:    asString(m["company"]),
		State:      strings.ToUpper(asString(m["state"])),
		Created:    ParseTime(m["created"]),
		Updated:    ParseTime(m["updated"]),
		Priority:   int(asInt64(m["priority"])),
		DivisionID: asInt64(first(m, "account_division", "division", "division_id")),
		RegionID:   asInt64(first(m, "account_region", "region", "region_id")),
		Coworkers:  asIDList(m["coworkers"]),
		SalaryFrom: asFloat(m["salary_from"]),
		SalaryTo:   asFloat(m["salary_to"]),
	}
	if v.SalaryFrom == 0 && v.SalaryTo == 0 {
		money := asFloat(first(m, "money", "salary"))
		v.SalaryFrom, v.SalaryTo = money, money
	}
	return v
}

func normalizeStatus(m map[string]interface{}) models.Status {
	return models.Status{
		ID:      asInt64(m["id"]),
		Name:    asString(m["name"]),
		Type:    strings.ToLower(asString(m["type"])),
		Order:   int(asInt64(first(m, "order", "order_number"))),
		Removed: asBool(m["removed"]),
	}
}

func normalizeSource(m map[string]interface{}) models.Source {
	return models.Source{
		ID:   asInt64(m["id"]),
		Name: asString(m["name"]),
		Type: asString(m["type"]),
	}
}

func normalizeRecruiter(m map[string]interface{}) models.Recruiter {
	r := models.Recruiter{
		ID:    asInt64(m["id"]),
		Name:  asString(first(m, "name", "full_name")),
		Email: asString(m["email"]),
		Type:  asString(first(m, "type", "member_type", "role")),
	}
	if r.Name == "" {
		r.Name = strings.TrimSpace(asString(m["first_name"]) + " " + asString(m["last_name"]))
	}
	return r
}

func normalizeDivision(m map[string]interface{}) models.Division {
	return models.Division{
		ID:       asInt64(m["id"]),
		Name:     asString(m["name"]),
		ParentID: asInt64(first(m, "parent", "parent_id")),
		Order:    int(asInt64(first(m, "order", "order_number"))),
	}
}

// attachCurrentState sets each applicant's current status and vacancy from
// its most recently updated link. Ties go to the later link.
func attachCurrentState(applicants []models.Applicant, links []models.ApplicantLink) {
	latest := make(map[int64]models.ApplicantLink, len(applicants))
	for _, l := range links {
		cur, ok := latest[l.ApplicantID]
		if !ok || !l.Updated.Before(cur.Updated) {
			latest[l.ApplicantID] = l
		}
	}
	for i := range applicants {
		if l, ok := latest[applicants[i].ID]; ok {
			applicants[i].StatusID = l.StatusID
			applicants[i].VacancyID = l.VacancyID
			applicants[i].LastLinkUpdated = l.Updated
		}
	}
}
