package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quantumedge/backend/internal/apperror"
	"github.com/quantumedge/backend/internal/models"
	"github.com/quantumedge/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, email, displayName, photoURL, hashedPw string) (*models.User, error)
	UpsertProviderUser(ctx context.Context, email, displayName, photoURL, provider string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, displayName, photoURL string) (*models.User, error)
	SetPhotoURL(ctx context.Context, id, photoURL string) (*models.User, error)
}

// FileStore defines the interface for profile photo storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// Service signs users in and out and manages their profiles.
type Service struct {
	users    UserStore
	sessions *SessionStore
	tokens   *TokenIssuer
	files    FileStore
	provider Provider
	validate *validator.Validate
}

// NewService wires the auth service. files and provider may be nil, which
// disables photo uploads and provider sign-in respectively.
func NewService(users UserStore, sessions *SessionStore, tokens *TokenIssuer, files FileStore, provider Provider) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		files:    files,
		provider: provider,
		validate: validator.New(),
	}
}

// Register creates a password account and signs it in.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.NewValidationError("a valid email and a password of at least 6 characters are required", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("internal error", err)
	}

	user, err := s.users.CreateUser(ctx, req.Email, req.DisplayName, req.PhotoURL, string(hashed))
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperror.NewConflictError("email already registered", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return s.signIn(ctx, user)
}

// Login checks email/password credentials.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.NewValidationError("email and password are required", err)
	}

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load user", err)
	}
	// provider accounts have no password to compare against
	if user.Password == "" {
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}
	return s.signIn(ctx, user)
}

// ProviderURL starts a provider sign-in and returns where to send the user.
func (s *Service) ProviderURL(ctx context.Context) (*models.ProviderURLResponse, error) {
	if s.provider == nil {
		return nil, apperror.NewNotFoundError("provider sign-in is not enabled", nil)
	}
	state := uuid.New().String()
	if err := s.sessions.SaveState(ctx, state); err != nil {
		return nil, apperror.NewDatabaseError("failed to start sign-in", err)
	}
	return &models.ProviderURLResponse{URL: s.provider.AuthCodeURL(state), State: state}, nil
}

// ProviderCallback finishes a provider sign-in started by ProviderURL.
func (s *Service) ProviderCallback(ctx context.Context, code, state string) (*models.AuthResponse, error) {
	if s.provider == nil {
		return nil, apperror.NewNotFoundError("provider sign-in is not enabled", nil)
	}
	if code == "" || state == "" {
		return nil, apperror.NewValidationError("code and state are required", nil)
	}

	ok, err := s.sessions.ConsumeState(ctx, state)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to verify sign-in state", err)
	}
	if !ok {
		return nil, apperror.NewAuthError("invalid or expired sign-in state", nil)
	}

	ident, err := s.provider.Identity(ctx, code)
	if err != nil {
		return nil, apperror.NewExternalServiceError(s.provider.Name()+" sign-in failed", err)
	}
	if ident.Email == "" || !ident.Verified {
		return nil, apperror.NewAuthError(s.provider.Name()+" account has no verified email", nil)
	}

	user, err := s.users.UpsertProviderUser(ctx, normalizeEmail(ident.Email), ident.Name, ident.PhotoURL, s.provider.Name())
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to save user", err)
	}
	return s.signIn(ctx, user)
}

// Logout revokes the session behind a token.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperror.NewDatabaseError("failed to end session", err)
	}
	return nil
}

// Authenticate turns a bearer token into a principal. The token must verify,
// its session must still exist, and the principal carries the current profile.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperror.NewAuthError("invalid token", err)
	}

	userID, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load session", err)
	}
	if userID == "" || userID != claims.Subject {
		return nil, apperror.NewAuthError("session expired", nil)
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewAuthError("account no longer exists", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load user", err)
	}

	return &Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.DisplayName,
		SessionID: claims.ID,
	}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load user", err)
	}
	return user, nil
}

// UpdateProfile changes the display name and photo URL. The photo URL may be
// an absolute URL or the user's own uploaded photo path.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.ProfileRequest) (*models.User, error) {
	current, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, photo := current.DisplayName, current.PhotoURL
	if req.DisplayName != nil {
		name = strings.TrimSpace(*req.DisplayName)
	}
	if req.PhotoURL != nil {
		photo = strings.TrimSpace(*req.PhotoURL)
		if photo != "" && photo != PhotoPath(userID) {
			if err := s.validate.Var(photo, "url"); err != nil {
				return nil, apperror.NewValidationError("photoUrl must be a valid URL", err)
			}
		}
	}

	user, err := s.users.UpdateProfile(ctx, userID, name, photo)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update profile", err)
	}
	return user, nil
}

// UploadPhoto stores a profile photo and points the user's photoUrl at it.
func (s *Service) UploadPhoto(ctx context.Context, userID string, data []byte, contentType string) (*models.User, error) {
	if s.files == nil {
		return nil, apperror.NewExternalServiceError("photo storage is not configured", nil)
	}
	if len(data) == 0 || !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.NewValidationError("an image body is required", nil)
	}

	if err := s.files.Upload(ctx, photoKey(userID), data, contentType); err != nil {
		return nil, apperror.NewExternalServiceError("failed to store photo", err)
	}

	user, err := s.users.SetPhotoURL(ctx, userID, PhotoPath(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to update profile", err)
	}
	return user, nil
}

// Photo returns a stored profile photo and its content type.
func (s *Service) Photo(ctx context.Context, userID string) ([]byte, string, error) {
	if s.files == nil {
		return nil, "", apperror.NewNotFoundError("photo not available", nil)
	}
	data, ct, err := s.files.Download(ctx, photoKey(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", apperror.NewNotFoundError("photo not available", nil)
	}
	if err != nil {
		return nil, "", apperror.NewExternalServiceError("failed to load photo", err)
	}
	return data, ct, nil
}

// PhotoPath is the public URL path of a user's uploaded photo.
func PhotoPath(userID string) string {
	return fmt.Sprintf("/api/users/%s/photo", userID)
}

func photoKey(userID string) string {
	return "avatars/" + userID
}

func (s *Service) signIn(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	sid, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, apperror.NewDatabaseError("session creation failed", err)
	}
	token, expiresAt, err := s.tokens.Issue(user, sid)
	if err != nil {
		return nil, apperror.NewInternalError("token creation failed", err)
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
