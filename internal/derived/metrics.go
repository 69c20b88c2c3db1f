package derived

import (
	"context"

	"hr-analytics/internal/models"
	"hr-analytics/internal/schema"
)

func timeToFill(ctx context.Context, env Env) Result {
	var spans []float64
	for _, v := range env.Session.Vacancies(ctx) {
		if v.State != models.VacancyClosed || v.Created.IsZero() || v.Updated.IsZero() {
			continue
		}
		if v.Updated.Before(v.Created) {
			continue
		}
		spans = append(spans, days(v.Updated.Sub(v.Created)))
	}
	return scalar(mean(spans))
}

func timeToHire(ctx context.Context, env Env) Result {
	window := env.TimeToHireWindowDays
	if window <= 0 {
		window = 90
	}
	since := env.now().AddDate(0, 0, -window)
	statuses := env.Session.StatusMapping(ctx)

	var spans []float64
	for _, a := range env.Session.Applicants(ctx) {
		if !schema.IsHired(statuses[a.StatusID]) {
			continue
		}
		if a.Created.IsZero() || a.LastLinkUpdated.IsZero() || a.LastLinkUpdated.Before(since) {
			continue
		}
		d := a.LastLinkUpdated.Sub(a.Created)
		if d < 0 {
			continue
		}
		spans = append(spans, days(d))
	}
	return scalar(mean(spans))
}

func sourceEffectiveness(ctx context.Context, env Env) Result {
	statuses := env.Session.StatusMapping(ctx)
	total := make(map[string]int)
	hired := make(map[string]int)
	for _, a := range env.Session.Applicants(ctx) {
		label := "Unknown"
		if a.SourceID != 0 {
			label = env.Session.ResolveLabel(ctx, schema.EntitySource, a.SourceID)
		}
		total[label]++
		if schema.IsHired(statuses[a.StatusID]) {
			hired[label]++
		}
	}

	labels := make([]string, 0, len(total))
	for l := range total {
		labels = append(labels, l)
	}
	sortByCount(labels, total)

	out := make([]models.LabeledValue, 0, len(labels))
	for _, l := range labels {
		out = append(out, models.LabeledValue{Label: l, Value: percent(hired[l], total[l])})
	}
	return rows(out)
}

func applicantsPerOpening(ctx context.Context, env Env) Result {
	seen := make(map[int64]map[int64]bool)
	for _, l := range env.Session.Links(ctx) {
		if seen[l.VacancyID] == nil {
			seen[l.VacancyID] = make(map[int64]bool)
		}
		seen[l.VacancyID][l.ApplicantID] = true
	}

	var out []models.LabeledValue
	for _, v := range env.Session.Vacancies(ctx) {
		if v.State != models.VacancyOpen {
			continue
		}
		out = append(out, models.LabeledValue{
			Label: env.Session.ResolveLabel(ctx, schema.EntityVacancy, v.ID),
			Value: float64(len(seen[v.ID])),
		})
	}
	byValue(out)
	return rows(out)
}

// funnel counts, per vacancy, the distinct applicants whose link reaches
// each of the two buckets.
func funnel(ctx context.Context, env Env, from, to string) (map[int64]int, map[int64]int) {
	statuses := env.Session.StatusMapping(ctx)
	reachedFrom := make(map[int64]map[int64]bool)
	reachedTo := make(map[int64]map[int64]bool)
	mark := func(m map[int64]map[int64]bool, vacancy, applicant int64) {
		if m[vacancy] == nil {
			m[vacancy] = make(map[int64]bool)
		}
		m[vacancy][applicant] = true
	}

	for _, l := range env.Session.Links(ctx) {
		st := statuses[l.StatusID]
		if env.Reaches(st, from) {
			mark(reachedFrom, l.VacancyID, l.ApplicantID)
		}
		if env.Reaches(st, to) {
			mark(reachedTo, l.VacancyID, l.ApplicantID)
		}
	}

	fromCount := make(map[int64]int, len(reachedFrom))
	for v, apps := range reachedFrom {
		fromCount[v] = len(apps)
	}
	toCount := make(map[int64]int, len(reachedTo))
	for v, apps := range reachedTo {
		toCount[v] = len(apps)
	}
	return fromCount, toCount
}

func vacancyRatio(ctx context.Context, env Env, from, to string) Result {
	fromCount, toCount := funnel(ctx, env, from, to)
	out := make([]models.LabeledValue, 0, len(fromCount))
	for vacancy, n := range fromCount {
		if n == 0 {
			continue
		}
		out = append(out, models.LabeledValue{
			Label: env.Session.ResolveLabel(ctx, schema.EntityVacancy, vacancy),
			Value: percent(toCount[vacancy], n),
		})
	}
	byValue(out)
	return rows(out)
}

func applicationToInterview(ctx context.Context, env Env) Result {
	return vacancyRatio(ctx, env, BucketApplied, BucketInterview)
}

func interviewToOffer(ctx context.Context, env Env) Result {
	return vacancyRatio(ctx, env, BucketInterview, BucketOffer)
}

func offerAcceptanceRate(ctx context.Context, env Env) Result {
	months := env.OfferAcceptanceMonths
	if months <= 0 {
		months = 12
	}
	since := env.now().AddDate(0, -months, 0)
	statuses := env.Session.StatusMapping(ctx)

	sent := make(map[string]int)
	accepted := make(map[string]int)
	for _, l := range env.Session.Links(ctx) {
		if l.Updated.IsZero() || l.Updated.Before(since) {
			continue
		}
		st := statuses[l.StatusID]
		if !env.Reaches(st, BucketOffer) {
			continue
		}
		month := l.Updated.Format("2006-01")
		sent[month]++
		if schema.IsHired(st) {
			accepted[month]++
		}
	}

	out := make([]models.LabeledValue, 0, len(sent))
	for month, n := range sent {
		out = append(out, models.LabeledValue{Label: month, Value: percent(accepted[month], n)})
	}
	sortByLabel(out)
	return rows(out)
}

func selectionRatio(ctx context.Context, env Env) Result {
	statuses := env.Session.StatusMapping(ctx)
	applicants := env.Session.Applicants(ctx)
	hires := 0
	for _, a := range applicants {
		if schema.IsHired(statuses[a.StatusID]) {
			hires++
		}
	}
	return scalar(percent(hires, len(applicants)))
}

func vacanciesByState(ctx context.Context, env Env) Result {
	counts := make(map[string]int)
	for _, v := range env.Session.Vacancies(ctx) {
		state := v.State
		if state == "" {
			state = "Unknown"
		}
		counts[state]++
	}
	return rows(countRows(counts))
}

func applicantsByStatus(ctx context.Context, env Env) Result {
	counts := make(map[string]int)
	for _, a := range env.Session.Applicants(ctx) {
		label := "Unknown"
		if a.StatusID != 0 {
			label = env.Session.ResolveLabel(ctx, schema.EntityStatus, a.StatusID)
		}
		counts[label]++
	}
	return rows(countRows(counts))
}

func recruitersByHires(ctx context.Context, env Env) Result {
	statuses := env.Session.StatusMapping(ctx)
	vacancies := env.Session.VacanciesMapping(ctx)
	counts := make(map[string]int)
	for _, a := range env.Session.Applicants(ctx) {
		if !schema.IsHired(statuses[a.StatusID]) {
			continue
		}
		for _, id := range vacancies[a.VacancyID].Coworkers {
			counts[env.Session.ResolveLabel(ctx, schema.EntityRecruiter, id)]++
		}
	}
	return rows(countRows(counts))
}

func countRows(counts map[string]int) []models.LabeledValue {
	out := make([]models.LabeledValue, 0, len(counts))
	for label, n := range counts {
		out = append(out, models.LabeledValue{Label: label, Value: float64(n)})
	}
	byValue(out)
	return out
}
