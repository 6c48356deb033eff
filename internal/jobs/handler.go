package jobs

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantumedge/backend/internal/apperror"
	"github.com/quantumedge/backend/internal/auth"
	"github.com/quantumedge/backend/internal/models"
)

// Handler holds job HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the job API on r. Reads are public; writes go
// through requireAuth.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/id/{id}", h.Get)
	r.Get("/{email}", h.ListByOwner)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns all jobs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListJobs(r.Context())
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, jobs)
}

// ListByOwner returns the jobs posted by one creator, newest first.
func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.ListJobsByOwner(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, jobs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
		return
	}

	p, _ := auth.FromContext(r.Context())
	job, err := h.svc.CreateJob(r.Context(), p, req)
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusCreated, job)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
		return
	}

	p, _ := auth.FromContext(r.Context())
	job, err := h.svc.UpdateJob(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, job)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	res, err := h.svc.DeleteJob(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, res)
}
