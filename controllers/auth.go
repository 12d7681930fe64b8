package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/daromanx/qa-tracker/auth"
	"github.com/daromanx/qa-tracker/logger"
	"github.com/daromanx/qa-tracker/session"
	"github.com/daromanx/qa-tracker/validators"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	SessionCookie = "session_token"
	PendingCookie = "mfa_pending"
)

type AuthController struct {
	auth     *auth.Service
	sessions *session.Manager
	pending  *session.PendingMarker
	log      *zap.Logger
	secure   bool
}

type AuthResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// OutcomeError is the error body for every non-successful core outcome.
type OutcomeError struct {
	Code        auth.Outcome `json:"code"`
	Field       string       `json:"field,omitempty"`
	WaitMinutes *int         `json:"wait_minutes,omitempty"`
	WaitSeconds *int         `json:"wait_seconds,omitempty"`
}

func NewAuthController(svc *auth.Service, sessions *session.Manager, pending *session.PendingMarker, log *zap.Logger, secureCookies bool) *AuthController {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthController{
		auth:     svc,
		sessions: sessions,
		pending:  pending,
		log:      log,
		secure:   secureCookies,
	}
}

// sendResponse is a helper function to send consistent JSON responses
func (ac *AuthController) sendResponse(c *gin.Context, status int, message string, data interface{}, err interface{}) {
	c.JSON(status, AuthResponse{
		Status:  status,
		Message: message,
		Data:    data,
		Error:   err,
	})
}

func (ac *AuthController) internalError(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	logger.FromContext(c.Request.Context(), ac.log).Error(message, zap.Error(err))
	ac.sendResponse(c, http.StatusInternalServerError, "Internal server error", nil, message)
}

// StatusFor maps a core outcome onto an HTTP status code.
func StatusFor(o auth.Outcome) int {
	switch o {
	case auth.OutcomeSuccess, auth.OutcomeMFARequired, auth.OutcomeAuthenticated, auth.OutcomeAlreadyActive:
		return http.StatusOK
	case auth.OutcomeInvalid, auth.OutcomeNoPendingLogin:
		return http.StatusUnauthorized
	case auth.OutcomeLocked:
		return http.StatusLocked
	case auth.OutcomeInactive:
		return http.StatusForbidden
	case auth.OutcomeRateLimited:
		return http.StatusTooManyRequests
	case auth.OutcomeExpired:
		return http.StatusGone
	case auth.OutcomeValidationError:
		return http.StatusBadRequest
	case auth.OutcomeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondResult writes res with data on success and an OutcomeError body
// otherwise. Waits are also exposed through Retry-After.
func (ac *AuthController) respondResult(c *gin.Context, res *auth.Result, data interface{}) {
	status := StatusFor(res.Outcome)
	if status < http.StatusBadRequest {
		ac.sendResponse(c, status, res.Message, data, nil)
		return
	}

	body := OutcomeError{Code: res.Outcome, Field: res.Field}
	if res.Wait > 0 {
		m, s := res.WaitParts()
		body.WaitMinutes, body.WaitSeconds = &m, &s
		c.Header("Retry-After", strconv.Itoa(int((res.Wait+time.Second-1)/time.Second)))
	}
	ac.sendResponse(c, status, res.Message, nil, body)
}

func (ac *AuthController) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", ac.secure, true)
}

func (ac *AuthController) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", ac.secure, true)
}

// accountParam reads the :id path segment. Unparsable ids map to 0, which
// no account has.
func accountParam(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// Register handles account registration
func (ac *AuthController) Register(c *gin.Context) {
	req, ok := validators.ValidateRegisterRequest(c)
	if !ok {
		return
	}

	res, err := ac.auth.Register(c.Request.Context(), auth.RegisterInput{
		Email:    req.Email,
		Nick:     req.Nick,
		Password: req.Password,
	})
	if err != nil {
		ac.internalError(c, "Registration failed", err)
		return
	}
	if res.Outcome != auth.OutcomeSuccess {
		ac.respondResult(c, res, nil)
		return
	}

	ac.sendResponse(c, http.StatusCreated, res.Message, map[string]interface{}{
		"id":    res.Account.ID,
		"email": res.Account.Email,
		"nick":  res.Account.Nick,
		"slug":  res.Account.Slug,
	}, nil)
}

// Activate redeems the link mailed at registration
func (ac *AuthController) Activate(c *gin.Context) {
	res, err := ac.auth.Activate(c.Request.Context(), accountParam(c), c.Param("token"))
	if err != nil {
		ac.internalError(c, "Activation failed", err)
		return
	}
	ac.respondResult(c, res, nil)
}

func (ac *AuthController) RequestActivation(c *gin.Context) {
	req, ok := validators.ValidateEmailRequest(c)
	if !ok {
		return
	}
	res, err := ac.auth.RequestActivation(c.Request.Context(), req.Email)
	if err != nil {
		ac.internalError(c, "Activation request failed", err)
		return
	}
	ac.respondResult(c, res, nil)
}

// Login handles the credential step and hands out the pending-MFA cookie
func (ac *AuthController) Login(c *gin.Context) {
	req, ok := validators.ValidateLoginRequest(c)
	if !ok {
		return
	}

	res, err := ac.auth.SubmitCredentials(c.Request.Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		ac.internalError(c, "Login failed", err)
		return
	}
	if res.Outcome != auth.OutcomeMFARequired {
		ac.respondResult(c, res, nil)
		return
	}

	marker, err := ac.pending.Issue(res.Account.ID)
	if err != nil {
		ac.internalError(c, "Login failed", err)
		return
	}
	ac.setCookie(c, PendingCookie, marker, ac.pending.TTL())
	ac.respondResult(c, res, gin.H{"next": res.Next})
}

// VerifyMFA handles the code step and establishes the session
func (ac *AuthController) VerifyMFA(c *gin.Context) {
	req, ok := validators.ValidateMFARequest(c)
	if !ok {
		return
	}

	var accountID uint
	if marker, err := c.Cookie(PendingCookie); err == nil {
		accountID, _ = ac.pending.Parse(marker)
	}

	res, err := ac.auth.SubmitMFACode(c.Request.Context(), auth.MFAInput{AccountID: accountID, Code: req.Code})
	if err != nil {
		ac.internalError(c, "Code verification failed", err)
		return
	}
	if res.Next == auth.StateAwaitingCredentials {
		ac.clearCookie(c, PendingCookie)
	}
	if res.Outcome != auth.OutcomeAuthenticated {
		ac.respondResult(c, res, nil)
		return
	}

	sess, err := ac.sessions.Establish(c.Request.Context(), res.Account.ID, session.Client{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		ac.internalError(c, "Failed to create session", err)
		return
	}
	ac.clearCookie(c, PendingCookie)
	ac.setCookie(c, SessionCookie, sess.SessionToken, ac.sessions.TTL())

	ac.respondResult(c, res, gin.H{
		"user": gin.H{
			"id":    res.Account.ID,
			"email": res.Account.Email,
			"nick":  res.Account.Nick,
		},
		"expires_at": sess.ExpiresAt,
	})
}

func (ac *AuthController) RequestPasswordReset(c *gin.Context) {
	req, ok := validators.ValidateEmailRequest(c)
	if !ok {
		return
	}
	res, err := ac.auth.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		ac.internalError(c, "Password reset request failed", err)
		return
	}
	ac.respondResult(c, res, nil)
}

func (ac *AuthController) CheckResetToken(c *gin.Context) {
	res, err := ac.auth.CheckResetToken(c.Request.Context(), accountParam(c), c.Param("token"))
	if err != nil {
		ac.internalError(c, "Password reset check failed", err)
		return
	}
	ac.respondResult(c, res, nil)
}

func (ac *AuthController) CompletePasswordReset(c *gin.Context) {
	req, ok := validators.ValidateResetPasswordRequest(c)
	if !ok {
		return
	}
	res, err := ac.auth.CompletePasswordReset(c.Request.Context(), auth.ResetInput{
		AccountID:   accountParam(c),
		Token:       c.Param("token"),
		NewPassword: req.Password,
	})
	if err != nil {
		ac.internalError(c, "Password reset failed", err)
		return
	}
	ac.respondResult(c, res, nil)
}

// Logout handles user logout
func (ac *AuthController) Logout(c *gin.Context) {
	sessionToken, err := c.Cookie(SessionCookie)
	if err != nil {
		ac.sendResponse(c, http.StatusBadRequest, "Logout failed", nil, "No session found")
		return
	}

	if err := ac.sessions.End(c.Request.Context(), sessionToken); err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			ac.sendResponse(c, http.StatusBadRequest, "Logout failed", nil, "Invalid session")
			return
		}
		ac.internalError(c, "Failed to end session", err)
		return
	}

	ac.clearCookie(c, SessionCookie)
	ac.sendResponse(c, http.StatusOK, "Logged out successfully", nil, nil)
}

// AuthMiddleware handles authentication for protected routes
func (ac *AuthController) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, err := c.Cookie(SessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, AuthResponse{
				Status:  http.StatusUnauthorized,
				Message: "Authentication required",
				Error:   "No session found",
			})
			return
		}

		sess, err := ac.sessions.Validate(c.Request.Context(), sessionToken)
		if err != nil {
			if !errors.Is(err, session.ErrInvalidSession) {
				logger.FromContext(c.Request.Context(), ac.log).Error("session validation failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, AuthResponse{
				Status:  http.StatusUnauthorized,
				Message: "Authentication failed",
				Error:   "Invalid or expired session",
			})
			return
		}

		c.Set("accountID", sess.AccountID)
		c.Set("sessionID", sess.ID)

		c.Next()
	}
}
