package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job types accepted for jobType.
const (
	JobTypeFixed    = "fixed"
	JobTypeHourly   = "hourly"
	JobTypeFullTime = "full-time"
	JobTypePartTime = "part-time"
	JobTypeContract = "contract"
)

// Experience levels accepted for experienceLevel.
const (
	ExperienceEntry        = "entry"
	ExperienceIntermediate = "intermediate"
	ExperienceSenior       = "senior"
	ExperienceExpert       = "expert"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Price is the single price descriptor of a job: either a fixed budget or a
// free-text range, never both.
type Price struct {
	Fixed *float64 `json:"fixed,omitempty" bson:"fixed,omitempty"`
	Range string   `json:"range,omitempty" bson:"range,omitempty"`
}

// String renders the price the way job cards show it.
func (p *Price) String() string {
	switch {
	case p == nil:
		return "Budget not specified"
	case p.Fixed != nil:
		return "$" + strconv.FormatFloat(*p.Fixed, 'f', -1, 64)
	case p.Range != "":
		return p.Range
	default:
		return "Budget not specified"
	}
}

// Job is a single job posting stored in MongoDB.
type Job struct {
	ID              primitive.ObjectID `json:"id"              bson:"_id,omitempty"`
	Title           string             `json:"title"           bson:"title"`
	Description     string             `json:"description"     bson:"description"`
	Price           *Price             `json:"price,omitempty" bson:"price,omitempty"`
	JobType         string             `json:"jobType"         bson:"jobType"`
	Remote          bool               `json:"remote"          bson:"remote"`
	Location        string             `json:"location,omitempty" bson:"location,omitempty"`
	ExperienceLevel string             `json:"experienceLevel,omitempty" bson:"experienceLevel,omitempty"`
	FreelancerCount int                `json:"freelancerCount" bson:"freelancerCount"`
	Skills          []string           `json:"skills"          bson:"skills"`
	Deadline        *time.Time         `json:"deadline,omitempty" bson:"deadline,omitempty"`
	Status          string             `json:"status"          bson:"status"`
	CreatorEmail    string             `json:"creatorEmail"    bson:"creatorEmail"`
	CreatorName     string             `json:"creatorName"     bson:"creatorName"`
	ApplicantsCount int                `json:"applicantsCount" bson:"applicantsCount"`
	CreatedAt       time.Time          `json:"createdAt"       bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"       bson:"updatedAt"`
}

// CreateJobRequest is the JSON body for POST /api/jobs.
type CreateJobRequest struct {
	Title           string     `json:"title"           validate:"required"`
	Description     string     `json:"description"     validate:"required"`
	Price           *Price     `json:"price"`
	JobType         string     `json:"jobType"         validate:"omitempty,oneof=fixed hourly full-time part-time contract"`
	Remote          bool       `json:"remote"`
	Location        string     `json:"location"`
	ExperienceLevel string     `json:"experienceLevel" validate:"omitempty,oneof=entry intermediate senior expert"`
	FreelancerCount int        `json:"freelancerCount" validate:"omitempty,min=1"`
	Skills          []string   `json:"skills"`
	Deadline        *time.Time `json:"deadline"`
	Status          string     `json:"status"          validate:"omitempty,oneof=active closed"`
	CreatorEmail    string     `json:"creatorEmail"    validate:"required,email"`
	CreatorName     string     `json:"creatorName"`
}

// Normalize trims free-text fields and cleans the skill list in place.
func (r *CreateJobRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.CreatorEmail = strings.ToLower(strings.TrimSpace(r.CreatorEmail))
	r.CreatorName = strings.TrimSpace(r.CreatorName)
	r.Location = strings.TrimSpace(r.Location)
	r.Skills = CleanSkills(r.Skills)
}

// UpdateJobRequest is the JSON body for PUT /api/jobs/{id}. Nil fields are left
// untouched; creatorEmail and applicantsCount cannot be changed.
type UpdateJobRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Price           *Price     `json:"price"`
	JobType         *string    `json:"jobType"`
	Remote          *bool      `json:"remote"`
	Location        *string    `json:"location"`
	ExperienceLevel *string    `json:"experienceLevel"`
	FreelancerCount *int       `json:"freelancerCount"`
	Skills          []string   `json:"skills"`
	Deadline        *time.Time `json:"deadline"`
	Status          *string    `json:"status"`
}

// SetFields returns the $set document for the non-nil fields of the patch.
func (r *UpdateJobRequest) SetFields() bson.M {
	set := bson.M{}
	if r.Title != nil {
		set["title"] = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		set["description"] = strings.TrimSpace(*r.Description)
	}
	if r.Price != nil {
		set["price"] = r.Price
	}
	if r.JobType != nil {
		set["jobType"] = *r.JobType
	}
	if r.Remote != nil {
		set["remote"] = *r.Remote
	}
	if r.Location != nil {
		set["location"] = strings.TrimSpace(*r.Location)
	}
	if r.ExperienceLevel != nil {
		set["experienceLevel"] = *r.ExperienceLevel
	}
	if r.FreelancerCount != nil {
		set["freelancerCount"] = *r.FreelancerCount
	}
	if r.Skills != nil {
		set["skills"] = CleanSkills(r.Skills)
	}
	if r.Deadline != nil {
		set["deadline"] = *r.Deadline
	}
	if r.Status != nil {
		set["status"] = *r.Status
	}
	return set
}

// DeleteResult acknowledges a physical deletion.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// CleanSkills trims each skill and drops empty entries, keeping order.
func CleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseSkills splits a comma-separated skill list as typed into a form.
func ParseSkills(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return CleanSkills(strings.Split(s, ","))
}

// ValidatePrice rejects a price carrying both conventions or a negative budget.
func ValidatePrice(p *Price) error {
	if p == nil {
		return nil
	}
	if p.Fixed != nil && p.Range != "" {
		return fmt.Errorf("price must be either fixed or a range, not both")
	}
	if p.Fixed != nil && *p.Fixed < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return nil
}
