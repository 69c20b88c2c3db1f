// Package derived holds the closed library of recruiting metrics computed on
// top of the schema session.
package derived

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"hr-analytics/internal/common/config"
	"hr-analytics/internal/models"
	"hr-analytics/internal/schema"
)

var ErrUnknownMetric = errors.New("UNKNOWN_METRIC")

// Env carries the inputs every metric reads.
type Env struct {
	Session               *schema.Session
	Clock                 clockwork.Clock
	StageTypes            map[string]string
	TimeToHireWindowDays  int
	OfferAcceptanceMonths int
}

// NewEnv builds an Env from analytics settings.
func NewEnv(session *schema.Session, cfg config.AnalyticsConfig, clock clockwork.Clock) Env {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	stages := cfg.StageTypes
	if len(stages) == 0 {
		stages = config.DefaultStageTypes()
	}
	return Env{
		Session:               session,
		Clock:                 clock,
		StageTypes:            stages,
		TimeToHireWindowDays:  cfg.TimeToHireWindowDays,
		OfferAcceptanceMonths: cfg.OfferAcceptanceMonths,
	}
}

func (env Env) now() time.Time {
	if env.Clock == nil {
		return time.Now().UTC()
	}
	return env.Clock.Now().UTC()
}

// Result is a metric value: a scalar or labeled rows.
type Result struct {
	Metric  models.MetricName
	Scalar  float64
	Rows    []models.LabeledValue
	Tabular bool
}

// Value returns float64 for scalar metrics and []LabeledValue otherwise.
func (r Result) Value() interface{} {
	if !r.Tabular {
		return r.Scalar
	}
	if r.Rows == nil {
		return []models.LabeledValue{}
	}
	return r.Rows
}

// RowCount is 1 for scalars.
func (r Result) RowCount() int {
	if !r.Tabular {
		return 1
	}
	return len(r.Rows)
}

// MetricFunc computes one metric.
type MetricFunc func(ctx context.Context, env Env) Result

// Metric is a registry entry.
type Metric struct {
	Name        models.MetricName
	Description string
	Fn          MetricFunc
}

var registry = map[models.MetricName]Metric{
	models.MetricTimeToFill:                  {models.MetricTimeToFill, "mean days from creation to close of CLOSED vacancies", timeToFill},
	models.MetricTimeToHire:                  {models.MetricTimeToHire, "mean days from application to hire within the trailing window", timeToHire},
	models.MetricSourceEffectiveness:         {models.MetricSourceEffectiveness, "hire rate per applicant source, percent", sourceEffectiveness},
	models.MetricApplicantsPerOpening:        {models.MetricApplicantsPerOpening, "distinct applicants per OPEN vacancy", applicantsPerOpening},
	models.MetricApplicationToInterviewRatio: {models.MetricApplicationToInterviewRatio, "share of applicants reaching interview per vacancy, percent", applicationToInterview},
	models.MetricInterviewToOfferRatio:       {models.MetricInterviewToOfferRatio, "share of interviewed applicants reaching offer per vacancy, percent", interviewToOffer},
	models.MetricOfferAcceptanceRate:         {models.MetricOfferAcceptanceRate, "accepted offers over sent offers per month, percent", offerAcceptanceRate},
	models.MetricSelectionRatio:              {models.MetricSelectionRatio, "hires over all applicants, percent", selectionRatio},
	models.MetricVacanciesByState:            {models.MetricVacanciesByState, "vacancy count per state", vacanciesByState},
	models.MetricApplicantsByStatus:          {models.MetricApplicantsByStatus, "applicant count per current status", applicantsByStatus},
	models.MetricRecruitersByHires:           {models.MetricRecruitersByHires, "hires per recruiter", recruitersByHires},
}

// Execute runs a registered metric.
func Execute(ctx context.Context, name models.MetricName, env Env) (Result, error) {
	m, ok := registry[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	res := m.Fn(ctx, env)
	res.Metric = name
	return res, nil
}

// Lookup returns the registry entry for name.
func Lookup(name models.MetricName) (Metric, bool) {
	m, ok := registry[name]
	return m, ok
}

// List returns every registered metric sorted by name.
func List() []Metric {
	out := make([]Metric, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func scalar(v float64) Result {
	return Result{Scalar: round2(v)}
}

func rows(r []models.LabeledValue) Result {
	for i := range r {
		r[i].Value = round2(r[i].Value)
	}
	return Result{Rows: r, Tabular: true}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}

// byValue sorts rows by value descending, label ascending on ties.
func byValue(r []models.LabeledValue) {
	sort.SliceStable(r, func(i, j int) bool {
		if r[i].Value != r[j].Value {
			return r[i].Value > r[j].Value
		}
		return r[i].Label < r[j].Label
	})
}

func sortByCount(labels []string, counts map[string]int) {
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
}

func sortByLabel(r []models.LabeledValue) {
	sort.Slice(r, func(i, j int) bool { return r[i].Label < r[j].Label })
}
