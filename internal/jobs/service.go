// Package jobs implements the job posting API: listing, ownership-checked
// creation, update and deletion over a document store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quantumedge/backend/internal/apperror"
	"github.com/quantumedge/backend/internal/auth"
	"github.com/quantumedge/backend/internal/models"
	"github.com/quantumedge/backend/internal/store"
)

// Store defines the interface for job persistence.
type Store interface {
	FindAll(ctx context.Context) ([]models.Job, error)
	FindByOwner(ctx context.Context, email string) ([]models.Job, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	Insert(ctx context.Context, job *models.Job) (primitive.ObjectID, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Job, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// Cache holds the public listing between writes. Invalidate bumps the
// version; Fill is a no-op when the version has moved since it was read.
type Cache interface {
	Get(ctx context.Context) ([]models.Job, bool, error)
	Version(ctx context.Context) (int64, error)
	Fill(ctx context.Context, version int64, jobs []models.Job) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	store    Store
	cache    Cache
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds the job service. cache may be nil.
func NewService(st Store, cache Cache) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{
		store:    st,
		cache:    cache,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListJobs returns every job in storage order.
func (s *Service) ListJobs(ctx context.Context) ([]models.Job, error) {
	fill := false
	var version int64
	if s.cache != nil {
		jobs, ok, err := s.cache.Get(ctx)
		if err != nil {
			log.Printf("jobs cache read: %v", err)
		} else if ok {
			return jobs, nil
		}
		// read before the query so a write during it voids the fill
		if version, err = s.cache.Version(ctx); err != nil {
			log.Printf("jobs cache version: %v", err)
		} else {
			fill = true
		}
	}

	jobs, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to fetch jobs", err)
	}

	if fill {
		if err := s.cache.Fill(ctx, version, jobs); err != nil {
			log.Printf("jobs cache write: %v", err)
		}
	}
	return jobs, nil
}

// ListJobsByOwner returns the jobs created by email, newest first.
func (s *Service) ListJobsByOwner(ctx context.Context, email string) ([]models.Job, error) {
	jobs, err := s.store.FindByOwner(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to fetch jobs", err)
	}
	return jobs, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*models.Job, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewNotFoundError("job not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to fetch job", err)
	}
	return job, nil
}

// CreateJob stores a new job owned by the caller.
func (s *Service) CreateJob(ctx context.Context, p *auth.Principal, req models.CreateJobRequest) (*models.Job, error) {
	req.Normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.NewValidationError(validationMessage(err), err)
	}
	if err := models.ValidatePrice(req.Price); err != nil {
		return nil, apperror.NewValidationError(err.Error(), nil)
	}
	if p == nil {
		return nil, apperror.NewAuthError("not authenticated", nil)
	}
	if !strings.EqualFold(p.Email, req.CreatorEmail) {
		return nil, apperror.NewUnauthorizedError("creatorEmail must match the signed-in user", nil)
	}

	now := s.now()
	job := &models.Job{
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		JobType:         req.JobType,
		Remote:          req.Remote,
		Location:        req.Location,
		ExperienceLevel: req.ExperienceLevel,
		FreelancerCount: req.FreelancerCount,
		Skills:          req.Skills,
		Deadline:        req.Deadline,
		Status:          req.Status,
		CreatorEmail:    req.CreatorEmail,
		CreatorName:     req.CreatorName,
		ApplicantsCount: 0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if job.JobType == "" {
		job.JobType = models.JobTypeFixed
	}
	if job.Status == "" {
		job.Status = models.StatusActive
	}
	if job.FreelancerCount == 0 {
		job.FreelancerCount = 1
	}
	if job.CreatorName == "" {
		job.CreatorName = p.Name
	}
	if job.CreatorName == "" {
		job.CreatorName = p.Email
	}

	id, err := s.store.Insert(ctx, job)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to save job", err)
	}
	job.ID = id

	s.invalidate(ctx)
	return job, nil
}

// UpdateJob merges the patch into a job the caller owns.
func (s *Service) UpdateJob(ctx context.Context, p *auth.Principal, id string, req models.UpdateJobRequest) (*models.Job, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.validateUpdate(req); err != nil {
		return nil, err
	}
	if _, err := s.ownedJob(ctx, p, oid); err != nil {
		return nil, err
	}

	set := req.SetFields()
	set["updatedAt"] = s.now()

	job, err := s.store.UpdateByID(ctx, oid, set)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewNotFoundError("job not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update job", err)
	}

	s.invalidate(ctx)
	return job, nil
}

// DeleteJob physically removes a job the caller owns.
func (s *Service) DeleteJob(ctx context.Context, p *auth.Principal, id string) (*models.DeleteResult, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedJob(ctx, p, oid); err != nil {
		return nil, err
	}

	n, err := s.store.DeleteByID(ctx, oid)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to delete job", err)
	}
	if n == 0 {
		return nil, apperror.NewNotFoundError("job not found", nil)
	}

	s.invalidate(ctx)
	return &models.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

// ownedJob loads a job and checks the caller is its creator.
func (s *Service) ownedJob(ctx context.Context, p *auth.Principal, id primitive.ObjectID) (*models.Job, error) {
	if p == nil {
		return nil, apperror.NewAuthError("not authenticated", nil)
	}
	job, err := s.store.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewNotFoundError("job not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to fetch job", err)
	}
	if !strings.EqualFold(job.CreatorEmail, p.Email) {
		return nil, apperror.NewUnauthorizedError("only the job's creator may change it", nil)
	}
	return job, nil
}

func (s *Service) validateUpdate(req models.UpdateJobRequest) error {
	checks := []struct {
		field string
		value *string
		tag   string
	}{
		{"title", req.Title, "required"},
		{"description", req.Description, "required"},
		{"jobType", req.JobType, "oneof=fixed hourly full-time part-time contract"},
		{"experienceLevel", req.ExperienceLevel, "oneof=entry intermediate senior expert"},
		{"status", req.Status, "oneof=active closed"},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := s.validate.Var(strings.TrimSpace(*c.value), c.tag); err != nil {
			return apperror.NewValidationError(fieldMessage(c.field, c.tag), err)
		}
	}
	if req.FreelancerCount != nil && *req.FreelancerCount < 1 {
		return apperror.NewValidationError("freelancerCount must be at least 1", nil)
	}
	if err := models.ValidatePrice(req.Price); err != nil {
		return apperror.NewValidationError(err.Error(), nil)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("jobs cache invalidate: %v", err)
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NewValidationError("invalid job id", err)
	}
	return oid, nil
}

// validationMessage reports the first failing field in client terms.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		return fieldMessage(fe.Field(), tag)
	}
	return "invalid job"
}

func fieldMessage(field, tag string) string {
	name, param, _ := strings.Cut(tag, "=")
	switch name {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	default:
		return field + " is invalid"
	}
}
