package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redmonkez12/eventhub-auth/internal/httputil"
	"github.com/redmonkez12/eventhub-auth/internal/logging"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	frontendURL string
}

func NewHandler(service *Service, frontendURL string) *Handler {
	return &Handler{
		service:     service,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// SignupBody represents the signup request body
type SignupBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest is the body of forgot-password and check-email
type EmailRequest struct {
	Email string `json:"email"`
}

// ChangePasswordRequest carries the new password. The reset token may come
// in the body or in the token query parameter.
type ChangePasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// CheckEmailResponse reports whether an email can be used for signup
type CheckEmailResponse struct {
	Email     string `json:"email"`
	Available bool   `json:"available"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// errorTable gives every error kind its own status and code. ErrInternal is
// matched before this table.
var errorTable = []errorMapping{
	{ErrEmailRequired, http.StatusBadRequest, httputil.CodeEmailRequired, "email is required"},
	{ErrInvalidEmailFormat, http.StatusBadRequest, httputil.CodeInvalidEmailFormat, "invalid email format"},
	{ErrPasswordRequired, http.StatusBadRequest, httputil.CodePasswordRequired, "password is required"},
	{ErrPasswordTooShort, http.StatusBadRequest, httputil.CodePasswordTooShort, "password is too short"},
	{ErrEmailAlreadyExists, http.StatusConflict, httputil.CodeEmailAlreadyExists, "email already exists"},
	{ErrEmailNotFound, http.StatusNotFound, httputil.CodeEmailNotFound, "email not found"},
	{ErrWrongPassword, http.StatusUnauthorized, httputil.CodeWrongPassword, "wrong password"},
	{ErrEmailNotVerified, http.StatusForbidden, httputil.CodeEmailNotVerified, "email not verified, a new verification link has been sent"},
	{ErrInvalidToken, http.StatusUnauthorized, httputil.CodeInvalidToken, "invalid token"},
	{ErrTokenExpired, http.StatusGone, httputil.CodeTokenExpired, "token has expired"},
	{ErrVerificationFailed, http.StatusInternalServerError, httputil.CodeVerificationFailed, "can't verify email"},
}

// respondServiceError logs err and renders it. Client errors log at warn,
// everything else at error.
func respondServiceError(w http.ResponseWriter, logger *logging.Logger, op string, err error) {
	if !errors.Is(err, ErrInternal) {
		for _, m := range errorTable {
			if errors.Is(err, m.err) {
				if m.status >= http.StatusInternalServerError {
					logger.Error(op+" failed", "error", err.Error())
				} else {
					logger.Warn(op+" failed", "reason", Kind(err))
				}
				httputil.RespondErrorWithCode(w, m.message, m.code, m.status)
				return
			}
		}
	}

	logger.Error(op+" failed: internal error", "error", err.Error())
	httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *logging.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return false
	}
	return true
}

// Signup handles account creation
// @Summary      Sign up
// @Description  Create an unverified account. A verification link is emailed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupBody true "Signup data"
// @Success      201 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SignupBody
	if !decodeBody(w, r, logger, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	err := h.service.Signup(r.Context(), SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		respondServiceError(w, logger, "signup", err)
		return
	}

	httputil.RespondMessage(w, "Signup successful. Please check your email to verify your account.", http.StatusCreated)
}

// Verify handles email verification links
// @Summary      Verify email address
// @Description  Mark the account verified using the token sent by email
// @Tags         auth
// @Produce      json
// @Param        token query string true "Verification token"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Token missing"
// @Failure      401 {object} httputil.ErrorResponse "Invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Email not found"
// @Failure      410 {object} httputil.ErrorResponse "Token expired"
// @Failure      500 {object} httputil.ErrorResponse "Verification failed"
// @Router       /auth/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	tok := r.URL.Query().Get("token")
	if tok == "" {
		logger.Warn("email verification failed: token missing")
		httputil.RespondErrorWithCode(w, "token is required", httputil.CodeTokenRequired, http.StatusBadRequest)
		return
	}

	if err := h.service.Verify(r.Context(), tok); err != nil {
		respondServiceError(w, logger, "email verification", err)
		return
	}

	httputil.RespondMessage(w, "Email verified successfully. You can now login.", http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and receive a session token. Unverified accounts get a new verification email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthTokens
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Wrong password"
// @Failure      403 {object} httputil.ErrorResponse "Email not verified"
// @Failure      404 {object} httputil.ErrorResponse "Email not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, logger, "login", err)
		return
	}

	logger.Info("user logged in successfully")
	httputil.RespondJSON(w, tokens, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Email a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      404 {object} httputil.ErrorResponse "Email not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		respondServiceError(w, logger, "forgot password", err)
		return
	}

	httputil.RespondMessage(w, "A password reset link has been sent to your email.", http.StatusOK)
}

// ResetPasswordRedirect is the target of the emailed reset link
// @Summary      Open password reset link
// @Description  Validate the reset token and redirect to the frontend change-password page
// @Tags         auth
// @Param        token query string true "Reset token"
// @Success      302
// @Failure      400 {object} httputil.ErrorResponse "Token missing"
// @Failure      401 {object} httputil.ErrorResponse "Invalid token"
// @Failure      410 {object} httputil.ErrorResponse "Token expired"
// @Router       /auth/reset-password [get]
func (h *Handler) ResetPasswordRedirect(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	tok := r.URL.Query().Get("token")
	if tok == "" {
		logger.Warn("reset redirect failed: token missing")
		httputil.RespondErrorWithCode(w, "token is required", httputil.CodeTokenRequired, http.StatusBadRequest)
		return
	}

	if err := h.service.ValidateResetToken(r.Context(), tok); err != nil {
		respondServiceError(w, logger, "reset redirect", err)
		return
	}

	target := h.frontendURL + "/change-password?token=" + url.QueryEscape(tok)
	http.Redirect(w, r, target, http.StatusFound)
}

// ChangePassword sets a new password using a reset token
// @Summary      Change password
// @Description  Set a new password. The reset token is read from the token query parameter or the body.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token query string false "Reset token"
// @Param        request body ChangePasswordRequest true "New password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Invalid token"
// @Failure      404 {object} httputil.ErrorResponse "Email not found"
// @Failure      410 {object} httputil.ErrorResponse "Token expired"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/change-password [put]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ChangePasswordRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	tok := r.URL.Query().Get("token")
	if tok == "" {
		tok = strings.TrimSpace(req.Token)
	}
	if tok == "" {
		logger.Warn("change password failed: token missing")
		httputil.RespondErrorWithCode(w, "token is required", httputil.CodeTokenRequired, http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), tok, req.Password); err != nil {
		respondServiceError(w, logger, "change password", err)
		return
	}

	httputil.RespondMessage(w, "Password changed successfully. You can now login with your new password.", http.StatusOK)
}

// CheckEmail reports whether an email is free for signup
// @Summary      Check email availability
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email address"
// @Success      200 {object} CheckEmailResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/check-email [post]
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req EmailRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	if err := h.service.CheckEmailAvailability(r.Context(), req.Email); err != nil {
		respondServiceError(w, logger, "check email", err)
		return
	}

	httputil.RespondJSON(w, CheckEmailResponse{Email: req.Email, Available: true}, http.StatusOK)
}

// Me returns the authenticated user's profile
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing or invalid session"
// @Failure      404 {object} httputil.ErrorResponse "Email not found"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	email, ok := GetIdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.service.Profile(r.Context(), email)
	if err != nil {
		respondServiceError(w, logger, "profile", err)
		return
	}

	httputil.RespondJSON(w, UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}, http.StatusOK)
}
