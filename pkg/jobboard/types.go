package jobboard

import "github.com/quantumedge/backend/internal/models"

// Wire types of the API. They are aliases so callers outside this module can
// name them without importing an internal package.
type (
	Job              = models.Job
	Price            = models.Price
	CreateJobRequest = models.CreateJobRequest
	UpdateJobRequest = models.UpdateJobRequest
	DeleteResult     = models.DeleteResult

	User            = models.User
	RegisterRequest = models.RegisterRequest
	ProfileRequest  = models.ProfileRequest
	AuthResponse    = models.AuthResponse
)

const (
	JobTypeFixed    = models.JobTypeFixed
	JobTypeHourly   = models.JobTypeHourly
	JobTypeFullTime = models.JobTypeFullTime
	JobTypePartTime = models.JobTypePartTime
	JobTypeContract = models.JobTypeContract

	ExperienceEntry        = models.ExperienceEntry
	ExperienceIntermediate = models.ExperienceIntermediate
	ExperienceSenior       = models.ExperienceSenior
	ExperienceExpert       = models.ExperienceExpert

	StatusActive = models.StatusActive
	StatusClosed = models.StatusClosed
)

// ParseSkills splits a comma-separated skills string, dropping blanks.
func ParseSkills(s string) []string {
	return models.ParseSkills(s)
}
