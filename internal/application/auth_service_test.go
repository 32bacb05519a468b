package application

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
	"github.com/oksasatya/rbac-dashboard/internal/infrastructure/memory"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
)

type sentMail struct {
	kind  string
	email string
	name  string
	url   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (f *fakeNotifier) record(m sentMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeNotifier) SendVerification(_ context.Context, email, name, url string) error {
	return f.record(sentMail{"verify", email, name, url})
}

func (f *fakeNotifier) SendReset(_ context.Context, email, name, url string) error {
	return f.record(sentMail{"reset", email, name, url})
}

func (f *fakeNotifier) SendResetConfirmation(_ context.Context, email, name string) error {
	return f.record(sentMail{"reset_success", email, name, ""})
}

func (f *fakeNotifier) last(t *testing.T, kind string) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == kind {
			return f.sent[i]
		}
	}
	t.Fatalf("no %s mail sent", kind)
	return sentMail{}
}

func (f *fakeNotifier) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.kind == kind {
			n++
		}
	}
	return n
}

func tokenFrom(url string) string {
	_, tok, _ := strings.Cut(url, "?token=")
	return tok
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc   *AuthService
	repo  *memory.UserRepository
	mail  *fakeNotifier
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tokens := helpers.NewTokenManager("test-secret")
	tokens.Now = c.Now
	logger, _ := test.NewNullLogger()
	r := memory.NewUserRepository()
	mail := &fakeNotifier{}
	svc := NewAuthService(r, tokens, mail, nil, Links{
		VerifyEmailURL:   "http://app/#/verify-email",
		ResetPasswordURL: "http://app/#/reset-password",
	}, logger)
	svc.Now = c.Now
	return &fixture{svc: svc, repo: r, mail: mail, clock: c}
}

var jane = RegisterInput{FullName: "Jane Doe", Email: "jane@x.com", Username: "jane", Password: "P@ss1234"}

func (f *fixture) registerVerified(t *testing.T) *entity.User {
	t.Helper()
	_, err := f.svc.Register(context.Background(), jane)
	require.NoError(t, err)
	u, err := f.svc.VerifyEmail(context.Background(), tokenFrom(f.mail.last(t, "verify").url))
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var ae *Error
	require.True(t, errors.As(err, &ae), "want *application.Error, got %T", err)
	assert.Equal(t, kind, ae.Kind)
	assert.Equal(t, msg, ae.Message)
}

func TestKindStatus(t *testing.T) {
	tests := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindConflict:     http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindUnauthorized: http.StatusUnauthorized,
		KindExpired:      http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindDependency:   http.StatusInternalServerError,
	}
	for k, want := range tests {
		assert.Equal(t, want, k.Status(), k.String())
	}
}

func TestAsError(t *testing.T) {
	ae := AsError(errors.New("boom"), "fallback")
	assert.Equal(t, KindDependency, ae.Kind)
	assert.Equal(t, "fallback", ae.Message)

	orig := newError(KindNotFound, MsgUserNotFound, nil)
	assert.Same(t, orig, AsError(orig, "fallback"))
}

func TestRegister_PersistsUnverifiedUserWithHashedPassword(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.Register(context.Background(), jane)
	require.NoError(t, err)

	stored, err := f.repo.FindByUsername(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, entity.RoleUser, stored.Role)
	assert.NotEqual(t, jane.Password, stored.Password)
	assert.True(t, helpers.CompareHashAndPassword(stored.Password, jane.Password))

	m := f.mail.last(t, "verify")
	assert.Equal(t, "jane@x.com", m.email)
	assert.Equal(t, "Jane Doe", m.name)
	assert.True(t, strings.HasPrefix(m.url, "http://app/#/verify-email?token="))
}

func TestRegister_Conflicts(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"same email", RegisterInput{FullName: "J2", Email: "jane@x.com", Username: "jane2", Password: "P@ss1234"}},
		{"same username", RegisterInput{FullName: "J2", Email: "jane2@x.com", Username: "jane", Password: "P@ss1234"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Register(context.Background(), jane)
			require.NoError(t, err)

			_, err = f.svc.Register(context.Background(), tt.in)
			requireKind(t, err, KindConflict, MsgDuplicateAccount)
			assert.Equal(t, 1, f.repo.Len())
		})
	}
}

func TestRegister_MailFailureIsDependency(t *testing.T) {
	f := newFixture(t)
	f.mail.fail = errors.New("transport down")

	_, err := f.svc.Register(context.Background(), jane)
	requireKind(t, err, KindDependency, MsgRegisterFailed)
	assert.Equal(t, 1, f.repo.Len(), "account is kept; verification can be resent")
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), jane)
	require.NoError(t, err)
	tok := tokenFrom(f.mail.last(t, "verify").url)

	u, err := f.svc.VerifyEmail(context.Background(), tok)
	require.NoError(t, err)
	assert.True(t, u.IsVerified)

	_, err = f.svc.VerifyEmail(context.Background(), tok)
	requireKind(t, err, KindValidation, MsgAlreadyVerified)
}

func TestVerifyEmail_Failures(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), jane)
	require.NoError(t, err)
	tok := tokenFrom(f.mail.last(t, "verify").url)

	_, err = f.svc.VerifyEmail(context.Background(), "")
	requireKind(t, err, KindValidation, MsgVerifyTokenMissing)

	_, err = f.svc.VerifyEmail(context.Background(), "not.a.token")
	requireKind(t, err, KindValidation, MsgVerifyTokenInvalid)

	resetTok, _, err := f.svc.Tokens.Issue("whoever", helpers.PurposeReset, "")
	require.NoError(t, err)
	_, err = f.svc.VerifyEmail(context.Background(), resetTok)
	requireKind(t, err, KindValidation, MsgVerifyTokenInvalid)

	ghost, _, err := f.svc.Tokens.Issue("00000000-0000-0000-0000-000000000000", helpers.PurposeVerify, "")
	require.NoError(t, err)
	_, err = f.svc.VerifyEmail(context.Background(), ghost)
	requireKind(t, err, KindNotFound, MsgUserNotFound)

	f.clock.Advance(24*time.Hour + time.Second)
	_, err = f.svc.VerifyEmail(context.Background(), tok)
	requireKind(t, err, KindExpired, MsgVerifyTokenExpired)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), jane)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), "jane", "P@ss1234")
	requireKind(t, err, KindForbidden, MsgNotVerified)

	_, err = f.svc.VerifyEmail(context.Background(), tokenFrom(f.mail.last(t, "verify").url))
	require.NoError(t, err)

	res, err := f.svc.Login(context.Background(), "jane", "P@ss1234")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, res.User.Role)
	assert.Equal(t, "jane", res.User.Username)
	assert.Equal(t, "Jane Doe", res.User.FullName)
	assert.Equal(t, f.clock.t.Add(time.Hour), res.ExpiresAt)

	claims, err := f.svc.Tokens.Validate(res.Token, helpers.PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, entity.RoleUser, claims.Role)

	_, err = f.svc.Login(context.Background(), "jane", "wrong")
	requireKind(t, err, KindUnauthorized, MsgInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "nobody", "P@ss1234")
	requireKind(t, err, KindNotFound, MsgUserNotFound)
}

func TestLogin_UnverifiedWrongPasswordStillForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), jane)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), "jane", "wrong")
	requireKind(t, err, KindForbidden, MsgNotVerified)
}

func TestSessionTokenExpiresAfterOneHour(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t)
	res, err := f.svc.Login(context.Background(), "jane", "P@ss1234")
	require.NoError(t, err)

	f.clock.Advance(time.Hour - time.Second)
	_, err = f.svc.Tokens.Validate(res.Token, helpers.PurposeSession)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Second)
	_, err = f.svc.Tokens.Validate(res.Token, helpers.PurposeSession)
	assert.ErrorIs(t, err, helpers.ErrTokenExpired)
}

func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t)

	_, err := f.svc.ForgotPassword(context.Background(), "unknown@x.com")
	requireKind(t, err, KindValidation, MsgUserNotFound)

	_, err = f.svc.ForgotPassword(context.Background(), "  ")
	requireKind(t, err, KindValidation, MsgEmailRequired)

	_, err = f.svc.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, f.mail.count("reset"))
	assert.True(t, strings.HasPrefix(f.mail.last(t, "reset").url, "http://app/#/reset-password?token="))

	f.mail.fail = errors.New("down")
	_, err = f.svc.ForgotPassword(context.Background(), "jane@x.com")
	requireKind(t, err, KindDependency, MsgResetSendFailed)
}

func TestResetPassword_ChangesCredentials(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t)
	_, err := f.svc.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	tok := tokenFrom(f.mail.last(t, "reset").url)

	f.clock.Advance(time.Minute)
	_, err = f.svc.ResetPassword(context.Background(), tok, "N3wP@ssword")
	require.NoError(t, err)
	assert.Equal(t, 1, f.mail.count("reset_success"))

	_, err = f.svc.Login(context.Background(), "jane", "P@ss1234")
	requireKind(t, err, KindUnauthorized, MsgInvalidCredentials)
	_, err = f.svc.Login(context.Background(), "jane", "N3wP@ssword")
	require.NoError(t, err)

	stored, err := f.repo.FindByUsername(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, f.clock.t, stored.PasswordChangedAt)
}

func TestResetPassword_TokenCannotBeReused(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t)
	_, err := f.svc.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	tok := tokenFrom(f.mail.last(t, "reset").url)

	_, err = f.svc.ResetPassword(context.Background(), tok, "N3wP@ssword")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.svc.ResetPassword(context.Background(), tok, "Other123!")
	requireKind(t, err, KindValidation, MsgResetTokenInvalid)

	_, err = f.svc.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	_, err = f.svc.ResetPassword(context.Background(), tokenFrom(f.mail.last(t, "reset").url), "Other123!")
	require.NoError(t, err)
}

func TestResetPassword_Failures(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t)
	_, err := f.svc.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	tok := tokenFrom(f.mail.last(t, "reset").url)

	_, err = f.svc.ResetPassword(context.Background(), "", "x")
	requireKind(t, err, KindValidation, MsgResetFields)
	_, err = f.svc.ResetPassword(context.Background(), tok, "")
	requireKind(t, err, KindValidation, MsgResetFields)

	_, err = f.svc.ResetPassword(context.Background(), "garbage", "N3wP@ssword")
	requireKind(t, err, KindValidation, MsgResetTokenInvalid)

	verifyTok, _, err := f.svc.Tokens.Issue("someone", helpers.PurposeVerify, "")
	require.NoError(t, err)
	_, err = f.svc.ResetPassword(context.Background(), verifyTok, "N3wP@ssword")
	requireKind(t, err, KindValidation, MsgResetTokenInvalid)

	ghost, _, err := f.svc.Tokens.Issue("00000000-0000-0000-0000-000000000000", helpers.PurposeReset, "")
	require.NoError(t, err)
	_, err = f.svc.ResetPassword(context.Background(), ghost, "N3wP@ssword")
	requireKind(t, err, KindNotFound, MsgUserNotFound)

	f.clock.Advance(time.Hour + time.Second)
	_, err = f.svc.ResetPassword(context.Background(), tok, "N3wP@ssword")
	requireKind(t, err, KindExpired, MsgResetTokenExpired)
}

func TestResetPassword_ConfirmationFailure(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t)
	_, err := f.svc.ForgotPassword(context.Background(), "jane@x.com")
	require.NoError(t, err)
	tok := tokenFrom(f.mail.last(t, "reset").url)

	f.mail.fail = errors.New("down")
	_, err = f.svc.ResetPassword(context.Background(), tok, "N3wP@ssword")
	requireKind(t, err, KindDependency, MsgResetFailed)
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), jane)
	require.NoError(t, err)

	_, err = f.svc.ResendVerification(context.Background(), "nobody@x.com")
	requireKind(t, err, KindNotFound, MsgUserNotFound)

	_, err = f.svc.ResendVerification(context.Background(), "")
	requireKind(t, err, KindValidation, MsgEmailRequired)

	f.clock.Advance(25 * time.Hour)
	_, err = f.svc.ResendVerification(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, f.mail.count("verify"))

	_, err = f.svc.VerifyEmail(context.Background(), tokenFrom(f.mail.last(t, "verify").url))
	require.NoError(t, err)

	_, err = f.svc.ResendVerification(context.Background(), "jane@x.com")
	requireKind(t, err, KindValidation, MsgAlreadyVerified)
}

type failingRepo struct {
	repository.UserRepository
	err error
}

func (r failingRepo) FindByUsername(context.Context, string) (*entity.User, error) { return nil, r.err }
func (r failingRepo) FindByEmail(context.Context, string) (*entity.User, error)    { return nil, r.err }
func (r failingRepo) FindByEmailOrUsername(context.Context, string, string) (*entity.User, error) {
	return nil, r.err
}

func TestStoreFailuresAreDependency(t *testing.T) {
	f := newFixture(t)
	f.svc.Repo = failingRepo{err: errors.New("connection refused")}
	ctx := context.Background()

	_, err := f.svc.Register(ctx, jane)
	requireKind(t, err, KindDependency, MsgRegisterFailed)
	_, err = f.svc.Login(ctx, "jane", "x")
	requireKind(t, err, KindDependency, MsgLoginFailed)
	_, err = f.svc.ForgotPassword(ctx, "jane@x.com")
	requireKind(t, err, KindDependency, MsgResetSendFailed)
	_, err = f.svc.ResendVerification(ctx, "jane@x.com")
	requireKind(t, err, KindDependency, MsgResendFailed)
}

type recordingIndex struct{ ids []string }

func (r *recordingIndex) IndexUser(_ context.Context, u *entity.User) error {
	r.ids = append(r.ids, u.ID)
	return errors.New("es unavailable")
}

func TestIndexFailuresAreIgnored(t *testing.T) {
	f := newFixture(t)
	idx := &recordingIndex{}
	f.svc.Index = idx

	u := f.registerVerified(t)
	assert.Equal(t, []string{u.ID, u.ID}, idx.ids)
}
