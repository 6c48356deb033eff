// Package jobboard is a Go client for the job board API. It keeps the
// signed-in session and attaches its bearer token to every request.
package jobboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quantumedge/backend/internal/models"
)

// ErrUnauthorized matches any 401 or 403 response. The local session has
// already been cleared when it is returned.
var ErrUnauthorized = errors.New("jobboard: not signed in or not permitted")

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jobboard: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Client calls the job board API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session

	// OnUnauthorized runs after a 401/403 has cleared the session.
	OnUnauthorized func()
}

func NewClient(baseURL string, session *Session, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    session,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

// Register creates a password account and signs in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return c.signedIn(&resp)
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return c.signedIn(&resp)
}

// LoginWithProvider runs the Google sign-in. prompt is shown the consent URL
// and returns the authorization code the provider handed back.
func (c *Client) LoginWithProvider(ctx context.Context, prompt func(authURL string) (string, error)) (*User, error) {
	var start models.ProviderURLResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/google/url", nil, &start); err != nil {
		return nil, err
	}

	code, err := prompt(start.URL)
	if err != nil {
		return nil, err
	}

	var resp AuthResponse
	req := models.ProviderCallbackRequest{Code: strings.TrimSpace(code), State: start.State}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/google/callback", req, &resp); err != nil {
		return nil, err
	}
	return c.signedIn(&resp)
}

// Logout revokes the token on the server and always clears it locally.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	if c.session.Token() != "" {
		err = c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	}
	// a rejected token has already cleared the session
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	if clearErr := c.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the fields set in req and leaves the rest alone.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/me", req, &user); err != nil {
		return nil, err
	}
	return &user, c.session.SetUser(&user)
}

// UploadPhoto replaces the profile photo with an image.
func (c *Client) UploadPhoto(ctx context.Context, data []byte, contentType string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/auth/me/photo", bytes.NewReader(data), contentType, &user); err != nil {
		return nil, err
	}
	return &user, c.session.SetUser(&user)
}

func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := c.doJSON(ctx, http.MethodGet, "/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListJobsByOwner returns the jobs posted by email, newest first.
func (c *Client) ListJobsByOwner(ctx context.Context, email string) ([]Job, error) {
	var jobs []Job
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(email), nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/id/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	var job Job
	if err := c.doJSON(ctx, http.MethodPost, "/api/jobs", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) UpdateJob(ctx context.Context, id string, req UpdateJobRequest) (*Job, error) {
	var job Job
	if err := c.doJSON(ctx, http.MethodPut, "/api/jobs/"+url.PathEscape(id), req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) DeleteJob(ctx context.Context, id string) (*DeleteResult, error) {
	var res DeleteResult
	if err := c.doJSON(ctx, http.MethodDelete, "/api/jobs/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) signedIn(resp *AuthResponse) (*User, error) {
	if err := c.session.Set(resp); err != nil {
		return resp.User, err
	}
	return resp.User, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("jobboard %s: encode: %w", path, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

// do sends one request with the session's bearer token and decodes a 2xx
// body into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("jobboard %s: %w", path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jobboard %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := c.checkResp(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("jobboard %s: decode: %w", path, err)
	}
	return nil
}

// checkResp turns a non-2xx response into an error. A 401 or 403 ends the
// local session.
func (c *Client) checkResp(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: msg}

	if errors.Is(apiErr, ErrUnauthorized) {
		c.session.Clear()
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
	}
	return apiErr
}
