package auth

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantumedge/backend/internal/apperror"
	"github.com/quantumedge/backend/internal/models"
)

// MaxPhotoBytes caps profile photo uploads.
const MaxPhotoBytes = 5 << 20

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register creates a new user and returns a bearer token for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
		return
	}

	resp, err := h.svc.Register(r.Context(), req)
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusCreated, resp)
}

// Login authenticates a user and returns a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
		return
	}

	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ProviderURL(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.ProviderURL(r.Context())
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, resp)
}

// ProviderCallback accepts the code either as the provider's browser redirect
// (query string) or posted by a client that captured it.
func (h *Handler) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	req := models.ProviderCallbackRequest{
		Code:  r.URL.Query().Get("code"),
		State: r.URL.Query().Get("state"),
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
			return
		}
	}

	resp, err := h.svc.ProviderCallback(r.Context(), req.Code, req.State)
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, resp)
}

// Logout revokes the caller's session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		apperror.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
		return
	}
	if err := h.svc.Logout(r.Context(), p.SessionID); err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		apperror.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
		return
	}
	user, err := h.svc.Me(r.Context(), p.UserID)
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		apperror.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
		return
	}
	var req models.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.WriteError(w, r, apperror.NewBadRequestError("invalid request body", err))
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), p.UserID, req)
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, user)
}

// UploadPhoto takes the raw image as the request body.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		apperror.WriteError(w, r, apperror.NewAuthError("not authenticated", nil))
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPhotoBytes))
	if err != nil {
		apperror.WriteError(w, r, apperror.NewBadRequestError("photo too large or unreadable", err))
		return
	}

	user, err := h.svc.UploadPhoto(r.Context(), p.UserID, data, r.Header.Get("Content-Type"))
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	apperror.WriteJSON(w, http.StatusOK, user)
}

// Photo streams a user's uploaded photo.
func (h *Handler) Photo(w http.ResponseWriter, r *http.Request) {
	data, ct, err := h.svc.Photo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperror.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}
