package schematest

import (
	"time"

	"hr-analytics/internal/models"
)

// Status ids used by Fixture.
const (
	StatusNew       int64 = 1
	StatusInterview int64 = 2
	StatusOffer     int64 = 3
	StatusHired     int64 = 4
	StatusRejected  int64 = 5
	// StatusFakeHire has a hire-sounding name but an ordinary type.
	StatusFakeHire int64 = 6
)

// Fixture returns a small recruiting dataset anchored at now:
//
//   - vacancies 10 (OPEN, Backend Developer) and 11 (CLOSED, Designer, filled in 30 days)
//     and 12 (OPEN, QA, no applicants)
//   - sources 100 (LinkedIn) and 101 (Referral)
//   - applicants 1..5 with links to vacancies 10/11
func Fixture(now time.Time) *Backend {
	day := 24 * time.Hour
	return &Backend{
		StatusList: []models.Status{
			{ID: StatusNew, Name: "New", Type: "user", Order: 1},
			{ID: StatusInterview, Name: "Interview", Type: "interview", Order: 2},
			{ID: StatusOffer, Name: "Offer", Type: "offer", Order: 3},
			{ID: StatusHired, Name: "Success", Type: models.StatusTypeHired, Order: 4},
			{ID: StatusRejected, Name: "Declined", Type: models.StatusTypeTrash, Order: 5},
			{ID: StatusFakeHire, Name: "Hired Successfully", Type: models.StatusTypeUser, Order: 6},
		},
		SourceList: []models.Source{
			{ID: 100, Name: "LinkedIn", Type: "job_site"},
			{ID: 101, Name: "Referral", Type: "referral"},
		},
		RecruiterList: []models.Recruiter{
			{ID: 500, Name: "Alice Recruiter", Type: "owner"},
			{ID: 501, Name: "Bob Recruiter", Type: "manager"},
		},
		DivisionList: []models.Division{
			{ID: 900, Name: "Engineering", Order: 1},
		},
		VacancyList: []models.Vacancy{
			{ID: 10, Position: "Backend Developer", State: models.VacancyOpen, Created: now.Add(-60 * day), DivisionID: 900, Coworkers: []int64{500}, SalaryFrom: 200000, SalaryTo: 300000},
			{ID: 11, Position: "Designer", State: models.VacancyClosed, Created: now.Add(-90 * day), Updated: now.Add(-60 * day), Coworkers: []int64{501}, SalaryFrom: 100000, SalaryTo: 100000},
			{ID: 12, Position: "QA Engineer", State: models.VacancyOpen, Created: now.Add(-10 * day)},
		},
		ApplicantList: []models.Applicant{
			{ID: 1, FirstName: "Ann", LastName: "Lee", SourceID: 100, Salary: 250000, Created: now.Add(-40 * day), Tags: []string{"senior"}},
			{ID: 2, FirstName: "Ben", LastName: "Ray", SourceID: 100, Salary: 150000, Created: now.Add(-30 * day)},
			{ID: 3, FirstName: "Cid", LastName: "Moe", SourceID: 101, Salary: 90000, Created: now.Add(-80 * day)},
			{ID: 4, FirstName: "Dee", LastName: "Fox", SourceID: 100, Created: now.Add(-20 * day)},
			{ID: 5, FirstName: "Eve", LastName: "Kim", SourceID: 999, Created: now.Add(-5 * day)},
		},
		LinkList: []models.ApplicantLink{
			{ID: 1001, ApplicantID: 1, VacancyID: 10, StatusID: StatusHired, Updated: now.Add(-10 * day)},
			{ID: 1002, ApplicantID: 2, VacancyID: 10, StatusID: StatusInterview, Updated: now.Add(-8 * day)},
			{ID: 1003, ApplicantID: 3, VacancyID: 11, StatusID: StatusHired, Updated: now.Add(-60 * day)},
			{ID: 1004, ApplicantID: 4, VacancyID: 10, StatusID: StatusFakeHire, Updated: now.Add(-3 * day)},
			{ID: 1005, ApplicantID: 5, VacancyID: 10, StatusID: StatusOffer, Updated: now.Add(-1 * day)},
			{ID: 1006, ApplicantID: 5, VacancyID: 11, StatusID: StatusRejected, Updated: now.Add(-2 * day)},
		},
	}
}
