package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	repo "github.com/oksasatya/rbac-dashboard/internal/domain/repository"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
)

// Messages returned to callers. They are part of the HTTP contract.
const (
	MsgRegistered         = "Registration successful. Please check your email to verify your account."
	MsgDuplicateAccount   = "Email or username already exists"
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgVerified           = "Email verified successfully"
	MsgVerifyTokenMissing = "Verification token is required"
	MsgVerifyTokenInvalid = "Invalid verification token"
	MsgVerifyTokenExpired = "Verification link has expired. Please request a new one."
	MsgVerifyFailed       = "Email verification failed. Please try again."
	MsgUserNotFound       = "User not found"
	MsgAlreadyVerified    = "Email already verified"
	MsgLoginSuccess       = "Login successful"
	MsgLoginFields        = "Username and password are required"
	MsgNotVerified        = "Please verify your email"
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "Login failed. Please try again."
	MsgResetSent          = "Password reset email sent"
	MsgEmailRequired      = "Email is required"
	MsgResetSendFailed    = "Failed to send password reset email"
	MsgResetDone          = "Password reset successful"
	MsgResetFields        = "Token and new password are required"
	MsgResetTokenInvalid  = "Invalid token"
	MsgResetTokenExpired  = "Reset token has expired"
	MsgResetFailed        = "Failed to reset password"
	MsgResent             = "Verification email resent successfully"
	MsgResendFailed       = "Failed to resend verification email"
)

// Notifier sends the transactional emails of the auth flows.
type Notifier interface {
	SendVerification(ctx context.Context, email, name, url string) error
	SendReset(ctx context.Context, email, name, url string) error
	SendResetConfirmation(ctx context.Context, email, name string) error
}

// UserIndexer mirrors user profiles into a search index. Failures are logged only.
type UserIndexer interface {
	IndexUser(ctx context.Context, u *entity.User) error
}

// Links are the client pages embedded in emails; the token is appended as ?token=.
type Links struct {
	VerifyEmailURL   string
	ResetPasswordURL string
}

type AuthService struct {
	Repo   repo.UserRepository
	Tokens *helpers.TokenManager
	Mail   Notifier
	Index  UserIndexer
	Links  Links
	Logger logrus.FieldLogger
	Now    func() time.Time
}

func NewAuthService(r repo.UserRepository, tokens *helpers.TokenManager, mail Notifier, index UserIndexer, links Links, logger logrus.FieldLogger) *AuthService {
	return &AuthService{Repo: r, Tokens: tokens, Mail: mail, Index: index, Links: links, Logger: logger, Now: time.Now}
}

type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      entity.PublicProfile
}

// Register creates an unverified account with role user and mails a
// verification link. The account is kept even when the email fails.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	existing, err := s.Repo.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil && existing != nil:
		return nil, newError(KindConflict, MsgDuplicateAccount, nil)
	case err != nil && !errors.Is(err, repo.ErrNotFound):
		return nil, s.dependency("register", MsgRegisterFailed, err, logrus.Fields{"email": in.Email})
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, s.dependency("register", MsgRegisterFailed, err, nil)
	}
	u, err := s.Repo.Save(ctx, &entity.User{
		FullName:   in.FullName,
		Email:      in.Email,
		Username:   in.Username,
		Password:   hash,
		Role:       entity.RoleUser,
		IsVerified: false,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, newError(KindConflict, MsgDuplicateAccount, err)
		}
		return nil, s.dependency("register", MsgRegisterFailed, err, logrus.Fields{"email": in.Email})
	}
	s.index(ctx, u)

	if err := s.sendVerification(ctx, u); err != nil {
		return u, s.dependency("register", MsgRegisterFailed, err, logrus.Fields{"user_id": u.ID})
	}
	return u, nil
}

// VerifyEmail marks the token's subject verified. Verifying twice is an error.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*entity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(KindValidation, MsgVerifyTokenMissing, nil)
	}
	claims, err := s.Tokens.Validate(token, helpers.PurposeVerify)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			return nil, newError(KindExpired, MsgVerifyTokenExpired, err)
		}
		return nil, newError(KindValidation, MsgVerifyTokenInvalid, err)
	}

	u, err := s.Repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(KindNotFound, MsgUserNotFound, err)
		}
		return nil, s.dependency("verify_email", MsgVerifyFailed, err, logrus.Fields{"user_id": claims.UserID})
	}
	if u.IsVerified {
		return u, newError(KindValidation, MsgAlreadyVerified, nil)
	}

	u.IsVerified = true
	u, err = s.Repo.Save(ctx, u)
	if err != nil {
		return nil, s.dependency("verify_email", MsgVerifyFailed, err, logrus.Fields{"user_id": claims.UserID})
	}
	s.index(ctx, u)
	return u, nil
}

// Login checks, in order: the user exists, is verified, and the password matches.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(KindNotFound, MsgUserNotFound, err)
		}
		return nil, s.dependency("login", MsgLoginFailed, err, logrus.Fields{"username": username})
	}
	if !u.IsVerified {
		return nil, newError(KindForbidden, MsgNotVerified, nil)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, newError(KindUnauthorized, MsgInvalidCredentials, nil)
	}

	token, exp, err := s.Tokens.Issue(u.ID, helpers.PurposeSession, u.Role)
	if err != nil {
		return nil, s.dependency("login", MsgLoginFailed, err, logrus.Fields{"user_id": u.ID})
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u.Profile()}, nil
}

// ForgotPassword mails a one hour reset link. Unknown emails are reported.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, newError(KindValidation, MsgEmailRequired, nil)
	}
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(KindValidation, MsgUserNotFound, err)
		}
		return nil, s.dependency("forgot_password", MsgResetSendFailed, err, logrus.Fields{"email": email})
	}

	token, _, err := s.Tokens.Issue(u.ID, helpers.PurposeReset, "")
	if err != nil {
		return u, s.dependency("forgot_password", MsgResetSendFailed, err, logrus.Fields{"user_id": u.ID})
	}
	link := s.Links.ResetPasswordURL + "?token=" + token
	if err := s.Mail.SendReset(ctx, u.Email, u.FullName, link); err != nil {
		return u, s.dependency("forgot_password", MsgResetSendFailed, err, logrus.Fields{"user_id": u.ID})
	}
	return u, nil
}

// ResetPassword replaces the password of the token's subject and stamps
// PasswordChangedAt, which retires every reset token issued up to now.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*entity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return nil, newError(KindValidation, MsgResetFields, nil)
	}
	claims, err := s.Tokens.Validate(token, helpers.PurposeReset)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			return nil, newError(KindExpired, MsgResetTokenExpired, err)
		}
		return nil, newError(KindValidation, MsgResetTokenInvalid, err)
	}

	u, err := s.Repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(KindNotFound, MsgUserNotFound, err)
		}
		return nil, s.dependency("reset_password", MsgResetFailed, err, logrus.Fields{"user_id": claims.UserID})
	}
	if claims.IssuedAtOrBefore(u.PasswordChangedAt) {
		return nil, newError(KindValidation, MsgResetTokenInvalid, helpers.ErrTokenInvalid)
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return nil, s.dependency("reset_password", MsgResetFailed, err, logrus.Fields{"user_id": u.ID})
	}
	u.Password = hash
	u.PasswordChangedAt = s.now()
	u, err = s.Repo.Save(ctx, u)
	if err != nil {
		return nil, s.dependency("reset_password", MsgResetFailed, err, logrus.Fields{"user_id": claims.UserID})
	}

	if err := s.Mail.SendResetConfirmation(ctx, u.Email, u.FullName); err != nil {
		return u, s.dependency("reset_password", MsgResetFailed, err, logrus.Fields{"user_id": u.ID})
	}
	return u, nil
}

// ResendVerification mails a fresh verification link to an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, newError(KindValidation, MsgEmailRequired, nil)
	}
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(KindNotFound, MsgUserNotFound, err)
		}
		return nil, s.dependency("resend_verification", MsgResendFailed, err, logrus.Fields{"email": email})
	}
	if u.IsVerified {
		return u, newError(KindValidation, MsgAlreadyVerified, nil)
	}
	if err := s.sendVerification(ctx, u); err != nil {
		return u, s.dependency("resend_verification", MsgResendFailed, err, logrus.Fields{"user_id": u.ID})
	}
	return u, nil
}

func (s *AuthService) sendVerification(ctx context.Context, u *entity.User) error {
	token, _, err := s.Tokens.Issue(u.ID, helpers.PurposeVerify, "")
	if err != nil {
		return err
	}
	link := s.Links.VerifyEmailURL + "?token=" + token
	return s.Mail.SendVerification(ctx, u.Email, u.FullName, link)
}

func (s *AuthService) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexUser(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
	}
}

func (s *AuthService) dependency(op, msg string, err error, fields logrus.Fields) *Error {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["operation"] = op
	helpers.LogError(s.Logger, msg, err, fields)
	return newError(KindDependency, msg, err)
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
