package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"time"

	"github.com/redmonkez12/eventhub-auth/internal/logging"
	"github.com/redmonkez12/eventhub-auth/internal/metrics"
	"github.com/redmonkez12/eventhub-auth/internal/token"
	"github.com/redmonkez12/eventhub-auth/internal/user"
)

const maxEmailLength = 254

// Flow names used for logging and metrics.
const (
	flowSignup          = "signup"
	flowVerify          = "verify"
	flowLogin           = "login"
	flowForgotPassword  = "forgot_password"
	flowResetRedirect   = "reset_redirect"
	flowChangePassword  = "change_password"
	flowCheckEmail      = "check_email"
	flowProfile         = "profile"
	flowAuthenticate    = "authenticate"
	defaultTokenType    = "Bearer"
	defaultMinPwdLength = 8
)

// Config holds token lifetimes and password policy.
type Config struct {
	SessionTokenDuration      time.Duration
	VerificationTokenDuration time.Duration
	ResetTokenDuration        time.Duration
	MinPasswordLength         int
}

// SignupRequest is the input of Service.Signup.
type SignupRequest struct {
	Email    string
	Password string
	Name     string
}

// AuthTokens is returned by a successful login.
type AuthTokens struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service runs the account flows: signup, verification, login, password
// reset and email availability. It keeps no state between calls; the user
// directory is the only source of truth.
type Service struct {
	users      user.Directory
	hasher     Hasher
	links      token.Codec
	sessions   token.Codec
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *logging.Logger
	cfg        Config
	now        func() time.Time
}

// NewService wires the collaborators. links signs the tokens sent by email;
// sessions signs the tokens returned by Login. metrics may be nil.
func NewService(
	users user.Directory,
	hasher Hasher,
	links token.Codec,
	sessions token.Codec,
	dispatcher Dispatcher,
	m *metrics.Metrics,
	logger *logging.Logger,
	cfg Config,
) *Service {
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = defaultMinPwdLength
	}
	return &Service{
		users:      users,
		hasher:     hasher,
		links:      links,
		sessions:   sessions,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for expiry checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) observe(flow string, err *error) {
	s.metrics.RecordFlow(flow, Kind(*err))
}

// Signup creates an unverified account and emails a verification link.
// The existence check runs before any write, so a taken email leaves the
// directory untouched.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (err error) {
	defer s.observe(flowSignup, &err)

	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if err := s.validatePassword(req.Password); err != nil {
		return err
	}

	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return internalError("check email", err)
	}
	if exists {
		return ErrEmailAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return internalError("hash password", err)
	}

	created, err := s.users.Create(ctx, &user.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
	})
	if err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, user.ErrDuplicateEmail) {
			return ErrEmailAlreadyExists
		}
		return internalError("create user", err)
	}

	s.logger.Info("user signed up", "email", created.Email, "user_id", created.ID)

	return s.sendVerification(ctx, created.Email)
}

// Verify marks the token's identity as verified. Verifying an already
// verified account succeeds.
func (s *Service) Verify(ctx context.Context, rawToken string) (err error) {
	defer s.observe(flowVerify, &err)

	claims, err := s.decodeLink(rawToken, token.PurposeSignupVerification)
	if err != nil {
		return err
	}

	exists, err := s.users.EmailExists(ctx, claims.Identity)
	if err != nil {
		return internalError("check email", err)
	}
	if !exists {
		return ErrEmailNotFound
	}

	updated, err := s.users.SetVerified(ctx, claims.Identity)
	if err != nil {
		s.logger.Error("failed to set email verified", "email", claims.Identity, "error", err)
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}
	if !updated {
		return ErrVerificationFailed
	}

	s.logger.Info("email verified", "email", claims.Identity)
	return nil
}

// Login checks the password and returns a session token. An unverified
// account gets a fresh verification email and ErrEmailNotVerified on every
// attempt.
func (s *Service) Login(ctx context.Context, email, password string) (_ *AuthTokens, err error) {
	defer s.observe(flowLogin, &err)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, internalError("find user", err)
	}

	if !s.hasher.Verify(password, existing.PasswordHash) {
		return nil, ErrWrongPassword
	}

	if !existing.EmailVerified {
		if err := s.sendVerification(ctx, existing.Email); err != nil {
			return nil, err
		}
		return nil, ErrEmailNotVerified
	}

	accessToken, err := s.sessions.Issue(existing.Email, token.PurposeSession, s.cfg.SessionTokenDuration)
	if err != nil {
		return nil, internalError("issue session token", err)
	}

	// Report the deadline carried by the token, not the requested TTL.
	issued, err := s.sessions.Decode(accessToken)
	if err != nil {
		return nil, internalError("decode session token", err)
	}

	return &AuthTokens{
		AccessToken: accessToken,
		TokenType:   defaultTokenType,
		ExpiresIn:   int64(math.Ceil(issued.ExpiresAt.Sub(s.now()).Seconds())),
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

// ForgotPassword emails a password reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer s.observe(flowForgotPassword, &err)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return internalError("check email", err)
	}
	if !exists {
		return ErrEmailNotFound
	}

	resetToken, err := s.links.Issue(email, token.PurposeForgotPassword, s.cfg.ResetTokenDuration)
	if err != nil {
		return internalError("issue reset token", err)
	}

	s.dispatcher.Send(ctx, email, resetToken, token.PurposeForgotPassword)
	return nil
}

// ValidateResetToken checks a password reset token without consuming it.
// The transport uses it before redirecting to the change-password page.
func (s *Service) ValidateResetToken(_ context.Context, rawToken string) (err error) {
	defer s.observe(flowResetRedirect, &err)

	_, err = s.decodeLink(rawToken, token.PurposeForgotPassword)
	return err
}

// ChangePassword sets a new password for the identity in a reset token.
// A valid signature is proof the token was issued for that identity.
func (s *Service) ChangePassword(ctx context.Context, rawToken, newPassword string) (err error) {
	defer s.observe(flowChangePassword, &err)

	claims, err := s.decodeLink(rawToken, token.PurposeForgotPassword)
	if err != nil {
		return err
	}

	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internalError("hash password", err)
	}

	if err := s.users.UpdatePassword(ctx, claims.Identity, passwordHash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrEmailNotFound
		}
		return internalError("update password", err)
	}

	s.logger.Info("password changed", "email", claims.Identity)
	return nil
}

// CheckEmailAvailability returns nil if email is free, ErrEmailAlreadyExists
// otherwise.
func (s *Service) CheckEmailAvailability(ctx context.Context, email string) (err error) {
	defer s.observe(flowCheckEmail, &err)

	if err := validateEmail(email); err != nil {
		return err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return internalError("check email", err)
	}
	if exists {
		return ErrEmailAlreadyExists
	}
	return nil
}

// Profile returns the stored record for an authenticated identity.
func (s *Service) Profile(ctx context.Context, email string) (_ *user.User, err error) {
	defer s.observe(flowProfile, &err)

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, internalError("find user", err)
	}
	return u, nil
}

// AuthenticateSession validates a session token issued by Login.
func (s *Service) AuthenticateSession(rawToken string) (_ *token.Claims, err error) {
	defer s.observe(flowAuthenticate, &err)

	return s.decode(s.sessions, rawToken, token.PurposeSession)
}

func (s *Service) sendVerification(ctx context.Context, email string) error {
	verificationToken, err := s.links.Issue(email, token.PurposeSignupVerification, s.cfg.VerificationTokenDuration)
	if err != nil {
		return internalError("issue verification token", err)
	}

	s.dispatcher.Send(ctx, email, verificationToken, token.PurposeSignupVerification)
	return nil
}

func (s *Service) decodeLink(rawToken string, purpose token.Purpose) (*token.Claims, error) {
	return s.decode(s.links, rawToken, purpose)
}

// decode maps every codec failure and purpose mismatch to ErrInvalidToken and
// applies the expiry rule.
func (s *Service) decode(codec token.Codec, rawToken string, purpose token.Purpose) (*token.Claims, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := codec.Decode(rawToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	if claims.Expired(s.now()) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLength {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}

func (s *Service) validatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < s.cfg.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
