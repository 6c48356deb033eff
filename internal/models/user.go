package models

import "time"

// Sign-in methods recorded on a user.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// User represents a row in the PostgreSQL users table.
type User struct {
	ID          string    `json:"id"          db:"id"`
	Email       string    `json:"email"       db:"email"`
	DisplayName string    `json:"displayName" db:"display_name"`
	PhotoURL    string    `json:"photoUrl"    db:"photo_url"`
	Provider    string    `json:"provider"    db:"provider"`
	Password    string    `json:"-"           db:"password"` // never serialize
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Password    string `json:"password"    validate:"required,min=6"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"    validate:"omitempty,url"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest is the JSON body for PUT /api/auth/me. Nil fields are left
// unchanged; an empty photoUrl removes the photo.
type ProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoUrl,omitempty"`
}

// AuthResponse is returned by every successful sign-in.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// ProviderURLResponse is the body of GET /api/auth/google/url.
type ProviderURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// ProviderCallbackRequest carries the authorization code back from the provider.
type ProviderCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}
