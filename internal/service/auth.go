package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data"
	"github.com/msccenter/hrm-ui/internal/data/cryptoutil"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/observability/metrics"
	"github.com/msccenter/hrm-ui/internal/observability/notify"
	"github.com/msccenter/hrm-ui/internal/observability/statsd"
	"github.com/msccenter/hrm-ui/internal/ports"
	"github.com/msccenter/hrm-ui/internal/service/accountnotifier"
)

// User-facing authentication errors. Handlers surface these messages to the
// login form verbatim, so keep them free of internal detail.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountPending     = errors.New("your account is awaiting admin approval")
	ErrAccountDisabled    = errors.New("your account has been disabled")
)

var errSessionExpired = errors.New("session expired")

// ssoPasswordHash marks accounts provisioned through an identity provider.
// It never verifies against any password.
const ssoPasswordHash = "*"

const defaultSessionTTL = 12 * time.Hour

// touchGranularity limits how often a session's last-seen timestamp is
// rewritten to the store.
const touchGranularity = time.Minute

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper
	Users    core.UserRepository

	// SessionTTL bounds how long a session lives. Zero means the default.
	SessionTTL time.Duration

	// Mode tags metrics with the configured auth mode ("local", "oauth", "mock").
	Mode string

	Logger   *slog.Logger
	Metrics  statsd.Sink
	Notifier *accountnotifier.Service
}

// AuthService orchestrates authentication flows: local password login and
// signup, optional provider-backed SSO, and session persistence.
type AuthService struct {
	provider   ports.AuthProvider
	sessions   ports.SessionStore
	roles      ports.RoleMapper
	users      core.UserRepository
	sessionTTL time.Duration
	mode       string
	logger     *slog.Logger
	metrics    statsd.Sink
	notifier   *accountnotifier.Service
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		roles:      opts.Roles,
		users:      opts.Users,
		sessionTTL: ttl,
		mode:       opts.Mode,
		logger:     logger,
		metrics:    opts.Metrics,
		notifier:   opts.Notifier,
	}
}

// PasswordLoginInput carries local login form input.
type PasswordLoginInput struct {
	Email    string
	Password string
}

// PasswordLogin authenticates a local account and persists a session.
// Pending and disabled accounts never get a session.
func (s *AuthService) PasswordLogin(
	ctx context.Context,
	input PasswordLoginInput,
) (*domainauth.Session, error) {
	start := time.Now()
	sess, err := s.passwordLogin(ctx, input)
	s.emitAuthMetric(metrics.AuthOpLogin, time.Since(start), err)
	return sess, err
}

func (s *AuthService) passwordLogin(
	ctx context.Context,
	input PasswordLoginInput,
) (*domainauth.Session, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if s.users == nil {
		return nil, errors.New("local login is not configured")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}

	ok, err := cryptoutil.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if err := checkAccountStatus(user.Status); err != nil {
		return nil, err
	}

	session := s.newSession(user)
	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.logger.InfoContext(ctx, "user signed in",
		"user_id", user.ID,
		"role", user.Role,
	)
	return &session, nil
}

// Signup registers a new local account. The account starts pending and
// cannot sign in until an admin approves it.
func (s *AuthService) Signup(
	ctx context.Context,
	req *model.CreateUserRequest,
) (*model.User, error) {
	start := time.Now()
	user, err := s.signup(ctx, req)
	s.emitAuthMetric(metrics.AuthOpSignup, time.Since(start), err)
	return user, err
}

func (s *AuthService) signup(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("signup request is required")
	}
	if s.users == nil {
		return nil, errors.New("signup is not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := cryptoutil.HashPassword(req.Password, cryptoutil.DefaultArgon2Params)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req, hash)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "new signup awaiting approval",
		"user_id", user.ID,
	)
	if s.notifier != nil {
		s.notifier.Notify(ctx, notify.AccountEventPayload{
			Kind:       notify.KindSignupPending,
			UserID:     user.ID,
			UserName:   user.FullName,
			Email:      user.Email,
			OccurredAt: time.Now(),
		})
	}
	return user, nil
}

// BeginLoginResult contains the result of beginning a provider login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates a provider authentication flow and returns the
// provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("provider login is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	input := ports.BeginInput{RedirectURL: redirectURL}
	authURL, state, nonce, err := s.provider.Begin(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a provider login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a provider login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin completes a provider authentication flow: it exchanges the
// code for an identity, provisions or loads the local account, and persists
// a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("provider login is not configured")
	}
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	exchangeInput := ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	}
	identity, err := s.provider.Exchange(ctx, exchangeInput)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	user, err := s.provisionIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	session := s.newSession(user)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(session.ExpiresAt) {
		session.ExpiresAt = identity.ExpiresAt
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	return &CompleteLoginResult{Session: session}, nil
}

// provisionIdentity loads the local account for an IdP identity, creating
// and activating one on first login.
func (s *AuthService) provisionIdentity(
	ctx context.Context,
	identity domainauth.Identity,
) (*model.User, error) {
	if s.users == nil {
		// Pure provider mode: role comes from the mapper, no local record.
		role := domainauth.DefaultRole
		if s.roles != nil {
			role = s.roles.Map(identity.Groups)
		}
		return &model.User{
			ID:        identity.UserID,
			Email:     identity.Email,
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
			FullName:  identity.FullName(),
			Role:      role,
			Status:    model.UserStatusActive,
		}, nil
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	if err == nil {
		if statusErr := checkAccountStatus(user.Status); statusErr != nil {
			return nil, statusErr
		}
		return user, nil
	}
	if !errors.Is(err, data.ErrUserNotFound) {
		return nil, fmt.Errorf("look up account: %w", err)
	}

	firstName, lastName := identityNames(identity)
	created, err := s.users.Create(ctx, &model.CreateUserRequest{
		Email: identity.Email,
		// Placeholder only; SSO accounts authenticate through the IdP and
		// store an unusable password hash.
		Password:  generateSessionID(),
		FirstName: firstName,
		LastName:  lastName,
	}, ssoPasswordHash)
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}

	role := domainauth.DefaultRole
	if s.roles != nil {
		role = s.roles.Map(identity.Groups)
	}
	status := model.UserStatusActive
	activated, err := s.users.Update(ctx, created.ID, model.UpdateUserRequest{
		Role:   &role,
		Status: &status,
	})
	if err != nil {
		return nil, fmt.Errorf("activate account: %w", err)
	}

	s.logger.InfoContext(ctx, "provisioned account from identity provider",
		"user_id", activated.ID,
		"role", activated.Role,
	)
	return activated, nil
}

// GetSession retrieves a session by ID. Any failure is treated as no
// session; callers redirect to login rather than assuming privileges.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Touch refreshes the session's last-seen timestamp. Writes are coalesced to
// at most one per touchGranularity. Touch failures are logged, never fatal.
func (s *AuthService) Touch(ctx context.Context, session *domainauth.Session) {
	if session == nil {
		return
	}
	now := time.Now()
	if now.Sub(session.LastSeenAt) < touchGranularity {
		return
	}
	session.LastSeenAt = now
	if err := s.sessions.Save(ctx, *session); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh session activity",
			"session_id", session.ID,
			"error", err,
		)
	}
}

// Logout removes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.emitAuthMetric(metrics.AuthOpLogout, 0, nil)
	return nil
}

// ResolveRole returns the stored role for a user. Any failure resolves to
// the default role so a broken lookup can never grant extra privileges.
func (s *AuthService) ResolveRole(ctx context.Context, userID string) domainauth.Role {
	if s.users == nil || userID == "" {
		return domainauth.DefaultRole
	}
	role, err := s.users.GetRole(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "role lookup failed, using default role",
			"user_id", userID,
			"error", err,
		)
		return domainauth.DefaultRole
	}
	return role
}

func (s *AuthService) newSession(user *model.User) domainauth.Session {
	now := time.Now()
	return domainauth.Session{
		ID:         generateSessionID(),
		UserID:     user.ID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		Role:       domainauth.ParseRole(string(user.Role)),
		ExpiresAt:  now.Add(s.sessionTTL),
		LastSeenAt: now,
	}
}

func (s *AuthService) emitAuthMetric(op string, dur time.Duration, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitAuthEvent(s.metrics, metrics.AuthMetric{
		Operation: op,
		Mode:      s.mode,
		Result:    result,
		Duration:  dur,
		Err:       err,
	})
}

// identityNames fills in missing IdP name claims from the email local part
// so provisioning always passes account validation.
func identityNames(identity domainauth.Identity) (string, string) {
	first := strings.TrimSpace(identity.FirstName)
	last := strings.TrimSpace(identity.LastName)
	if first == "" && last == "" {
		local, _, _ := strings.Cut(identity.Email, "@")
		first = local
	}
	if first == "" {
		first = last
	}
	if last == "" {
		last = first
	}
	return first, last
}

func checkAccountStatus(status model.UserStatus) error {
	switch status {
	case model.UserStatusActive:
		return nil
	case model.UserStatusPending:
		return ErrAccountPending
	case model.UserStatusDisabled:
		return ErrAccountDisabled
	default:
		return ErrAccountDisabled
	}
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// Use UUID for session ID - it's URL-safe and has good entropy
	id := uuid.New()
	return id.String()
}
