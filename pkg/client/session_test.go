package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(w http.ResponseWriter, status int, msg string, data any, code string) {
	body := map[string]any{"status": status, "success": status < 300, "message": msg}
	if data != nil {
		body["data"] = data
	}
	if code != "" {
		body["error"] = map[string]string{"code": code}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in["password"] != "P@ss1234" {
			writeEnv(w, http.StatusUnauthorized, "Invalid credentials", nil, "unauthorized")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  http.StatusOK,
			"success": true,
			"message": "Login successful",
			"token":   "tok-" + in["username"],
			"user":    map[string]string{"id": "1", "username": in["username"], "role": "manager", "fullName": "Jane Doe"},
		})
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeEnv(w, http.StatusCreated, "Registration successful. Please check your email to verify your account.", nil, "")
	})
	mux.HandleFunc("/api/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "a b" {
			writeEnv(w, http.StatusBadRequest, "Invalid verification token", nil, "validation")
			return
		}
		writeEnv(w, http.StatusOK, "Email verified successfully", nil, "")
	})
	mux.HandleFunc("/api/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		writeEnv(w, http.StatusBadRequest, "User not found", nil, "not_found")
	})
	mux.HandleFunc("/api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		writeEnv(w, http.StatusOK, "Password reset successful", nil, "")
	})
	mux.HandleFunc("/api/auth/resend-verification", func(w http.ResponseWriter, r *http.Request) {
		writeEnv(w, http.StatusOK, "Verification email resent", nil, "")
	})
	mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer tok-jane":
		case "":
			writeEnv(w, http.StatusUnauthorized, "No token, authorization denied", nil, "unauthorized")
			return
		default:
			writeEnv(w, http.StatusUnauthorized, "Token is not valid", nil, "unauthorized")
			return
		}
		if r.URL.Path == "/api/users/admin" {
			writeEnv(w, http.StatusForbidden, "Access denied", nil, "forbidden")
			return
		}
		writeEnv(w, http.StatusOK, "Welcome", map[string]string{"view": "manager"}, "")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionLoginAndDashboard(t *testing.T) {
	srv := fakeAPI(t)
	s := NewSession(srv.URL+"/api/", nil)
	ctx := context.Background()

	_, err := s.Dashboard(ctx, "manager")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = s.Login(ctx, "jane", "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, "401 Invalid credentials (unauthorized)", err.Error())

	res, err := s.Login(ctx, "jane", "P@ss1234")
	require.NoError(t, err)
	assert.Equal(t, "tok-jane", res.Token)
	assert.Equal(t, "Jane Doe", res.User.FullName)

	st, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, RoleManager, st.Role())
	assert.Equal(t, Decision{Allow: true}, NewGuard().Check("/manager", st))

	data, err := s.Dashboard(ctx, "manager")
	require.NoError(t, err)
	assert.JSONEq(t, `{"view":"manager"}`, string(data))

	_, err = s.Dashboard(ctx, "admin")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Access denied", apiErr.Message)
	assert.Equal(t, "forbidden", apiErr.Code)
	st, _ = s.Current()
	assert.Equal(t, "tok-jane", st.Token, "403 keeps the session")

	_, err = s.Dashboard(ctx, "superuser")
	assert.ErrorContains(t, err, "unknown role")

	require.NoError(t, s.Logout())
	st, _ = s.Current()
	assert.Empty(t, st.Token)
}

func TestSessionUnauthorizedClearsToken(t *testing.T) {
	srv := fakeAPI(t)
	store := NewMemoryStore()
	require.NoError(t, store.Save(State{Token: "stale", User: &Profile{Role: "user"}}))
	s := NewSession(srv.URL+"/api", store)

	_, err := s.Dashboard(context.Background(), "user")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	st, _ := store.Load()
	assert.Equal(t, State{}, st)
}

func TestSessionPublicCalls(t *testing.T) {
	srv := fakeAPI(t)
	s := NewSession(srv.URL+"/api", nil)
	ctx := context.Background()

	msg, err := s.Register(ctx, RegisterInput{FullName: "Jane Doe", Email: "jane@x.com", Username: "jane", Password: "P@ss1234"})
	require.NoError(t, err)
	assert.Contains(t, msg, "Registration successful")

	msg, err = s.VerifyEmail(ctx, "a b")
	require.NoError(t, err)
	assert.Equal(t, "Email verified successfully", msg)

	_, err = s.VerifyEmail(ctx, "other")
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	_, err = s.ForgotPassword(ctx, "ghost@x.com")
	assert.Equal(t, "400 User not found (not_found)", err.Error())

	msg, err = s.ResetPassword(ctx, "t", "N3wP@ssword")
	require.NoError(t, err)
	assert.Equal(t, "Password reset successful", msg)

	msg, err = s.ResendVerification(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Verification email resent", msg)
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, 0, StatusOf(ErrNoSession))
}

func TestSessionAttachesTokenEverywhere(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		writeEnv(w, http.StatusOK, "ok", nil, "")
	}))
	t.Cleanup(srv.Close)

	store := NewMemoryStore()
	s := NewSession(srv.URL, store)
	_, err := s.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Save(State{Token: "abc"}))
	_, err = s.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestLoginIgnoresDataWrappedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnv(w, http.StatusOK, "Login successful", map[string]any{"token": "nested"}, "")
	}))
	t.Cleanup(srv.Close)

	_, err := NewSession(srv.URL, nil).Login(context.Background(), "jane", "P@ss1234")
	assert.ErrorContains(t, err, "no token")
}
