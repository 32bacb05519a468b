package client

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
)

// ErrNoSession is returned by calls that need a token when none is stored.
var ErrNoSession = errors.New("client: not logged in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s (%s)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`

	body []byte
}

// Session talks to the auth API and remembers the login in Store.
type Session struct {
	BaseURL string
	HTTP    *http.Client
	Store   TokenStore
}

// NewSession returns a session rooted at baseURL (e.g. http://localhost:5000/api).
func NewSession(baseURL string, store TokenStore) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Store:   store,
	}
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      Profile   `json:"user"`
}

type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Session) Register(ctx context.Context, in RegisterInput) (string, error) {
	env, err := s.do(ctx, http.MethodPost, "/auth/register", in, false)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (s *Session) VerifyEmail(ctx context.Context, token string) (string, error) {
	env, err := s.do(ctx, http.MethodGet, "/auth/verify-email?token="+url.QueryEscape(token), nil, false)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Login authenticates and stores the token with the returned profile.
func (s *Session) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	env, err := s.do(ctx, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password}, false)
	if err != nil {
		return nil, err
	}
	// token and user sit next to the envelope fields, not under data
	var res LoginResult
	if err := json.Unmarshal(env.body, &res); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	if res.Token == "" {
		return nil, errors.New("client: login returned no token")
	}
	user := res.User
	if err := s.Store.Save(State{Token: res.Token, User: &user}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &res, nil
}

func (s *Session) ResendVerification(ctx context.Context, email string) (string, error) {
	env, err := s.do(ctx, http.MethodPost, "/auth/resend-verification", map[string]string{"email": email}, false)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (s *Session) ForgotPassword(ctx context.Context, email string) (string, error) {
	env, err := s.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, false)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (s *Session) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	env, err := s.do(ctx, http.MethodPost, "/auth/reset-password", map[string]string{"token": token, "newPassword": newPassword}, false)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Dashboard fetches the role-scoped dashboard. A 401 drops the stored session.
func (s *Session) Dashboard(ctx context.Context, role Role) (json.RawMessage, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("client: unknown role %q", role)
	}
	env, err := s.do(ctx, http.MethodGet, "/users/"+url.PathEscape(string(role)), nil, true)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Current returns the stored session, if any.
func (s *Session) Current() (State, error) {
	return s.Store.Load()
}

// Logout forgets the token locally. Tokens are not revoked server side.
func (s *Session) Logout() error {
	return s.Store.Clear()
}

// do sends the request with the stored token, if any. auth marks calls that
// cannot work without one.
func (s *Session) do(ctx context.Context, method, path string, body any, auth bool) (*envelope, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	st, err := s.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if st.Token != "" {
		req.Header.Set("Authorization", "Bearer "+st.Token)
	} else if auth {
		return nil, ErrNoSession
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	env := envelope{body: b}
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &env, nil
	}

	if auth && resp.StatusCode == http.StatusUnauthorized {
		_ = s.Store.Clear()
	}
	apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	var detail struct {
		Code string `json:"code"`
	}
	if len(env.Error) > 0 && json.Unmarshal(env.Error, &detail) == nil {
		apiErr.Code = detail.Code
	}
	return nil, apiErr
}
