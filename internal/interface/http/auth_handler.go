package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-dashboard/internal/application"
	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	repo "github.com/oksasatya/rbac-dashboard/internal/domain/repository"
	"github.com/oksasatya/rbac-dashboard/pkg/response"
	"github.com/oksasatya/rbac-dashboard/pkg/validation"
)

const msgInvalidPayload = "Invalid payload"

type AuthHandler struct {
	Svc    *application.AuthService
	Audit  repo.AuditRepository
	Logger logrus.FieldLogger
}

func NewAuthHandler(svc *application.AuthService, audit repo.AuditRepository, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Svc: svc, Audit: audit, Logger: logger}
}

type registerRequest struct {
	FullName string `json:"fullName" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Username string `json:"username" binding:"required,uname"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// emailRequest is shared by forgot-password and resend-verification; an
// empty email is reported by the service with its own message.
type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

// loginResponse keeps token and user at the top level, next to the envelope fields.
type loginResponse struct {
	response.APIResponse[any]
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expiresAt"`
	User      entity.PublicProfile `json:"user"`
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// bind decodes the JSON body. Payloads that only miss required fields get
// requiredMsg; anything else is reported as an invalid payload.
func (h *AuthHandler) bind(c *gin.Context, dst any, requiredMsg string) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	msg := msgInvalidPayload
	if validation.HasOnlyTag(err, "required") && requiredMsg != "" {
		msg = requiredMsg
	}
	response.Error[any](c, http.StatusBadRequest, msg, validation.ToDetails(err))
	return false
}

// fail writes the envelope for a service error. Dependency failures are
// logged; callers only see the generic message.
func (h *AuthHandler) fail(c *gin.Context, op string, err error, fallback string) {
	ae := application.AsError(err, fallback)
	record(op, ae.Kind.String())
	if ae.Kind == application.KindDependency && h.Logger != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"operation":  op,
		}).Error("request failed")
	}
	response.Error[any](c, ae.Kind.Status(), ae.Message, gin.H{"code": ae.Kind.String()})
}

func (h *AuthHandler) audit(c *gin.Context, u *entity.User, email, action string, metadata map[string]any) {
	if h.Audit == nil {
		return
	}
	e := repo.AuditEntry{
		Email:     email,
		Action:    action,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	}
	if u != nil {
		e.UserID = u.ID
		if e.Email == "" {
			e.Email = u.Email
		}
	}
	if err := h.Audit.Insert(c.Request.Context(), e); err != nil && h.Logger != nil {
		h.Logger.WithError(err).WithField("action", action).Warn("audit insert failed")
	}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req, "All fields are required") {
		record("register", OutcomeInvalid)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.audit(c, u, req.Email, "register_failed", map[string]any{"username": req.Username})
		h.fail(c, "register", err, application.MsgRegisterFailed)
		return
	}
	record("register", OutcomeOK)
	h.audit(c, u, "", "register", nil)
	response.Success[any](c, http.StatusCreated, nil, application.MsgRegistered, nil)
}

// VerifyEmail GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	u, err := h.Svc.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.fail(c, "verify_email", err, application.MsgVerifyFailed)
		return
	}
	record("verify_email", OutcomeOK)
	h.audit(c, u, "", "verify_email", nil)
	response.Success[any](c, http.StatusOK, nil, application.MsgVerified, nil)
}

// Login POST /api/auth/login {username, password}
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req, application.MsgLoginFields) {
		record("login", OutcomeInvalid)
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.audit(c, nil, "", "login_failed", map[string]any{"username": req.Username})
		h.fail(c, "login", err, application.MsgLoginFailed)
		return
	}
	record("login", OutcomeOK)
	h.audit(c, &entity.User{ID: res.User.ID, Email: res.User.Email}, "", "login", nil)
	c.JSON(http.StatusOK, loginResponse{
		APIResponse: response.Head(c, http.StatusOK, application.MsgLoginSuccess),
		Token:       res.Token,
		ExpiresAt:   res.ExpiresAt,
		User:        res.User,
	})
}

// ForgotPassword POST /api/auth/forgot-password {email}
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req, "") {
		record("forgot_password", OutcomeInvalid)
		return
	}
	u, err := h.Svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.audit(c, u, req.Email, "forgot_password_failed", nil)
		h.fail(c, "forgot_password", err, application.MsgResetSendFailed)
		return
	}
	record("forgot_password", OutcomeOK)
	h.audit(c, u, "", "forgot_password", nil)
	response.Success[any](c, http.StatusOK, nil, application.MsgResetSent, nil)
}

// ResetPassword POST /api/auth/reset-password {token, newPassword}
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !h.bind(c, &req, application.MsgResetFields) {
		record("reset_password", OutcomeInvalid)
		return
	}
	u, err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		h.audit(c, u, "", "reset_password_failed", nil)
		h.fail(c, "reset_password", err, application.MsgResetFailed)
		return
	}
	record("reset_password", OutcomeOK)
	h.audit(c, u, "", "reset_password", map[string]any{"token": "redacted"})
	response.Success[any](c, http.StatusOK, nil, application.MsgResetDone, nil)
}

// ResendVerification POST /api/auth/resend-verification {email}
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !h.bind(c, &req, "") {
		record("resend_verification", OutcomeInvalid)
		return
	}
	u, err := h.Svc.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, "resend_verification", err, application.MsgResendFailed)
		return
	}
	record("resend_verification", OutcomeOK)
	h.audit(c, u, "", "resend_verification", nil)
	response.Success[any](c, http.StatusOK, nil, application.MsgResent, nil)
}
