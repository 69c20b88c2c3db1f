package models

// MetricName identifies a derived metric in the closed registry.
type MetricName string

const (
	MetricTimeToFill                  MetricName = "time_to_fill"
	MetricTimeToHire                  MetricName = "time_to_hire"
	MetricSourceEffectiveness         MetricName = "source_effectiveness"
	MetricApplicantsPerOpening        MetricName = "applicants_per_opening"
	MetricApplicationToInterviewRatio MetricName = "application_to_interview_ratio"
	MetricInterviewToOfferRatio       MetricName = "interview_to_offer_ratio"
	MetricOfferAcceptanceRate         MetricName = "offer_acceptance_rate"
	MetricSelectionRatio              MetricName = "selection_ratio"
	MetricVacanciesByState            MetricName = "vacancies_by_state"
	MetricApplicantsByStatus          MetricName = "applicants_by_status"
	MetricRecruitersByHires           MetricName = "recruiters_by_hires"
)

// LabeledValue is one row of a grouped result.
type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartData is the {labels, values} payload attached to reports.
type ChartData struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}
