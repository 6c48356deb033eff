package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumedge/backend/internal/apperror"
	"github.com/quantumedge/backend/internal/models"
	"github.com/quantumedge/backend/internal/store"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*models.User{}}
}

func (f *fakeUsers) find(email string) *models.User {
	for _, u := range f.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsers) insert(email, displayName, photoURL, provider, hashedPw string) *models.User {
	f.nextID++
	u := &models.User{
		ID:          fmt.Sprintf("u-%d", f.nextID),
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Provider:    provider,
		Password:    hashedPw,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) CreateUser(_ context.Context, email, displayName, photoURL, hashedPw string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.find(email) != nil {
		return nil, store.ErrDuplicate
	}
	return f.insert(email, displayName, photoURL, models.ProviderPassword, hashedPw), nil
}

func (f *fakeUsers) UpsertProviderUser(_ context.Context, email, displayName, photoURL, provider string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.find(email); u != nil {
		u.DisplayName, u.PhotoURL = displayName, photoURL
		return u, nil
	}
	return f.insert(email, displayName, photoURL, provider, ""), nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.find(email); u != nil {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id, displayName, photoURL string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.DisplayName, u.PhotoURL = displayName, photoURL
	return u, nil
}

func (f *fakeUsers) SetPhotoURL(_ context.Context, id, photoURL string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.PhotoURL = photoURL
	return u, nil
}

type fakeFiles struct {
	data map[string][]byte
	ct   map[string]string
}

func (f *fakeFiles) Upload(_ context.Context, key string, data []byte, contentType string) error {
	f.data[key] = data
	f.ct[key] = contentType
	return nil
}

func (f *fakeFiles) Download(_ context.Context, key string) ([]byte, string, error) {
	d, ok := f.data[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return d, f.ct[key], nil
}

type fakeProvider struct {
	ident *Identity
	err   error
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Identity(_ context.Context, code string) (*Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.ident, nil
}

func newTestService(t *testing.T, provider Provider) (*Service, *fakeUsers) {
	t.Helper()
	sessions, _ := newTestSessions(t)
	users := newFakeUsers()
	files := &fakeFiles{data: map[string][]byte{}, ct: map[string]string{}}
	svc := NewService(users, sessions, NewTokenIssuer("test-secret", time.Hour), files, provider)
	return svc, users
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, users := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{
		Email:       "  Ada@Example.com ",
		Password:    "secret1",
		DisplayName: "Ada",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotEqual(t, "secret1", users.byID[resp.User.ID].Password)

	p, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, p.UserID)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "Ada", p.Name)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{Email: "not-an-email", Password: "secret1"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Register(ctx, models.RegisterRequest{Email: "a@b.com", Password: "123"})
	assert.True(t, apperror.IsValidation(err))
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, models.RegisterRequest{Email: "A@B.com", Password: "secret2"})
	assert.True(t, apperror.IsConflict(err))
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "A@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "a@b.com", Password: "wrong-pass"})
	assert.True(t, apperror.IsAuth(err))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@b.com", Password: "secret1"})
	assert.True(t, apperror.IsAuth(err))
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	p, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, p.SessionID))

	_, err = svc.Authenticate(ctx, resp.Token)
	assert.True(t, apperror.IsAuth(err))
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	svc, _ := newTestService(t, nil)
	token, _, err := NewTokenIssuer("other-secret", time.Hour).Issue(&models.User{ID: "u-1"}, "s-1")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	assert.True(t, apperror.IsAuth(err))
}

func TestProviderSignIn(t *testing.T) {
	provider := &fakeProvider{ident: &Identity{
		Email:    "Grace@Example.com",
		Name:     "Grace",
		PhotoURL: "https://example.com/g.png",
		Verified: true,
	}}
	svc, users := newTestService(t, provider)
	ctx := context.Background()

	start, err := svc.ProviderURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, start.URL, start.State)

	resp, err := svc.ProviderCallback(ctx, "code-1", start.State)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", resp.User.Email)
	assert.Equal(t, models.ProviderGoogle, users.byID[resp.User.ID].Provider)

	// state is single use
	_, err = svc.ProviderCallback(ctx, "code-1", start.State)
	assert.True(t, apperror.IsAuth(err))
}

func TestProviderCallbackFailures(t *testing.T) {
	ctx := context.Background()

	svc, _ := newTestService(t, &fakeProvider{err: errors.New("exchange failed")})
	_, err := svc.ProviderCallback(ctx, "code", "unknown-state")
	assert.True(t, apperror.IsAuth(err))

	start, err := svc.ProviderURL(ctx)
	require.NoError(t, err)
	_, err = svc.ProviderCallback(ctx, "code", start.State)
	assert.True(t, apperror.Is(err, apperror.ExternalServiceError))

	svc, _ = newTestService(t, &fakeProvider{ident: &Identity{Email: "x@y.com"}})
	start, err = svc.ProviderURL(ctx)
	require.NoError(t, err)
	_, err = svc.ProviderCallback(ctx, "code", start.State)
	assert.True(t, apperror.IsAuth(err))
}

func TestProviderDisabled(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.ProviderURL(context.Background())
	assert.True(t, apperror.IsNotFound(err))
}

func TestProfileAndPhoto(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	id := resp.User.ID

	_, err = svc.UpdateProfile(ctx, id, models.ProfileRequest{PhotoURL: strPtr("not a url")})
	assert.True(t, apperror.IsValidation(err))

	user, err := svc.UpdateProfile(ctx, id, models.ProfileRequest{DisplayName: strPtr(" Ada ")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.DisplayName)

	_, err = svc.UploadPhoto(ctx, id, []byte("hello"), "text/plain")
	assert.True(t, apperror.IsValidation(err))

	user, err = svc.UploadPhoto(ctx, id, []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, PhotoPath(id), user.PhotoURL)

	data, ct, err := svc.Photo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	_, _, err = svc.Photo(ctx, "u-missing")
	assert.True(t, apperror.IsNotFound(err))
}

func strPtr(s string) *string { return &s }

func TestRenameKeepsUploadedPhoto(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	id := resp.User.ID

	user, err := svc.UploadPhoto(ctx, id, []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	photo := user.PhotoURL

	// sending back the current photo path is accepted
	user, err = svc.UpdateProfile(ctx, id, models.ProfileRequest{
		DisplayName: strPtr("Ada"),
		PhotoURL:    strPtr(photo),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.DisplayName)
	assert.Equal(t, photo, user.PhotoURL)

	// leaving photoUrl out keeps it
	user, err = svc.UpdateProfile(ctx, id, models.ProfileRequest{DisplayName: strPtr("Ada L.")})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", user.DisplayName)
	assert.Equal(t, photo, user.PhotoURL)

	// another user's photo path is not a URL of ours to accept
	_, err = svc.UpdateProfile(ctx, id, models.ProfileRequest{PhotoURL: strPtr(PhotoPath("u-other"))})
	assert.True(t, apperror.IsValidation(err))

	// an absolute URL replaces it and an empty one clears it
	user, err = svc.UpdateProfile(ctx, id, models.ProfileRequest{PhotoURL: strPtr("https://example.com/a.png")})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", user.PhotoURL)
	user, err = svc.UpdateProfile(ctx, id, models.ProfileRequest{PhotoURL: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, user.PhotoURL)
	assert.Equal(t, "Ada L.", user.DisplayName)
}

func TestAuthenticateSeesCurrentProfile(t *testing.T) {
	svc, users := newTestService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, models.RegisterRequest{Email: "a@b.com", Password: "secret1", DisplayName: "Ada"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, resp.User.ID, models.ProfileRequest{DisplayName: strPtr("Ada Lovelace")})
	require.NoError(t, err)

	p, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.Name)

	delete(users.byID, resp.User.ID)
	_, err = svc.Authenticate(ctx, resp.Token)
	assert.True(t, apperror.IsAuth(err))
}
