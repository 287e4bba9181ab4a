package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	pkgauth "github.com/adspotmarket/adspot-backend/pkg/auth"
	"github.com/adspotmarket/adspot-backend/pkg/auth/session"
	"github.com/adspotmarket/adspot-backend/pkg/config"
	"github.com/adspotmarket/adspot-backend/pkg/db/models"
	"github.com/adspotmarket/adspot-backend/pkg/enums"
	pkgerrors "github.com/adspotmarket/adspot-backend/pkg/errors"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/payloads"
	"github.com/adspotmarket/adspot-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sessionCache interface {
	DropCachedSession(ctx context.Context, sessionID string) error
}

// Service defines authentication and session lifecycle operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput, ip, userAgent string) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	CheckRateLimit(ctx context.Context, email, ip string) (*Decision, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	ValidateToken(ctx context.Context, token string) (*SessionInfo, error)
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	limiter *LoginLimiter
	cache   sessionCache
	jwtCfg  config.JWTConfig
	pwCfg   config.PasswordConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires authentication dependencies. The cache is optional; when
// nil, revocation skips cache invalidation and checks fall through to the
// database on their natural TTL.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	limiter *LoginLimiter,
	cache sessionCache,
	jwtCfg config.JWTConfig,
	pwCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "auth repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if limiter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login limiter required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		limiter: limiter,
		cache:   cache,
		jwtCfg:  jwtCfg,
		pwCfg:   pwCfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput, ip, userAgent string) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email, password, and full name are required")
	}

	existing, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing account")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}

	role := enums.UserRoleUser
	if input.Role != "" {
		parsed, err := enums.ParseUserRole(input.Role)
		if err != nil || parsed.IsStaff() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		role = parsed
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        input.Phone,
		Role:         role,
		IsActive:     true,
	}
	// Owners start in the KYC pipeline; plain users never enter it.
	if role == enums.UserRoleOwner {
		pending := enums.KYCStatusPending
		user.KYCStatus = &pending
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	return s.issueSession(ctx, user, ip, userAgent)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	decision, err := s.limiter.Check(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login rate limit check")
	}
	if !decision.Allowed {
		s.recordRateLimited(ctx, email, input, decision)
		rlErr := pkgerrors.New(pkgerrors.CodeRateLimit, "too many failed login attempts, try again later")
		if decision.BlockedUntil != nil {
			rlErr = rlErr.WithDetails(map[string]string{
				"blocked_until": decision.BlockedUntil.UTC().Format(time.RFC3339),
			})
		}
		return nil, rlErr
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if user == nil {
		s.recordFailure(ctx, email, input, enums.LoginFailureInvalidCredentials)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		s.recordFailure(ctx, email, input, enums.LoginFailureAccountInactive)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		s.recordFailure(ctx, email, input, enums.LoginFailureInvalidCredentials)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	s.recordSuccess(ctx, email, input)
	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "last_login update failed")
	}

	return s.issueSession(ctx, user, input.IPAddress, input.UserAgent)
}

func (s *service) issueSession(ctx context.Context, user *models.User, ip, userAgent string) (*AuthResult, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.jwtCfg.SessionTTL())
	sessionID := uuid.MustParse(session.NewAccessID())

	row := &models.UserSession{
		ID:        sessionID,
		UserID:    user.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := s.repo.CreateSession(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID:    user.ID,
		Role:      user.Role,
		KYCStatus: user.KYCStatus,
		JTI:       sessionID.String(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		KYCStatus: user.KYCStatus,
	}, nil
}

func (s *service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if _, err := s.repo.RevokeSession(ctx, sessionID, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	if err := s.dropCached(ctx, sessionID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "session cache invalidation failed")
	}
	return nil
}

// ValidateToken fails closed: any parse, lookup, or state problem yields an
// unauthorized result rather than admitting the caller.
func (s *service) ValidateToken(ctx context.Context, token string) (*SessionInfo, error) {
	claims, err := pkgauth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired token")
	}

	row, err := s.repo.FindSession(ctx, sessionID)
	if err != nil || row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found")
	}
	if !row.IsActive || s.now().After(row.ExpiresAt) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired")
	}

	return &SessionInfo{
		SessionID: sessionID,
		UserID:    claims.UserID,
		Role:      claims.Role,
		KYCStatus: claims.KYCStatus,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// RevokeAllSessions deactivates every active session for the user and drops
// their cache entries. Cache failures are logged, not returned; the database
// rows are the source of truth.
func (s *service) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	ids, err := s.repo.ListActiveSessionIDs(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active sessions")
	}
	if _, err := s.repo.RevokeAllSessions(ctx, userID, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke sessions")
	}

	var cacheErr error
	for _, id := range ids {
		cacheErr = multierr.Append(cacheErr, s.dropCached(ctx, id))
	}
	if cacheErr != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", cacheErr.Error()), "session cache invalidation incomplete")
	}
	return nil
}

func (s *service) dropCached(ctx context.Context, sessionID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.DropCachedSession(ctx, sessionID.String()); err != nil {
		return fmt.Errorf("drop session %s: %w", sessionID, err)
	}
	return nil
}

func (s *service) recordSuccess(ctx context.Context, email string, input LoginInput) {
	s.record(ctx, &models.LoginAttempt{
		Email:     email,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Success:   true,
	})
}

func (s *service) recordFailure(ctx context.Context, email string, input LoginInput, reason enums.LoginFailureReason) {
	s.record(ctx, &models.LoginAttempt{
		Email:         email,
		IPAddress:     input.IPAddress,
		UserAgent:     input.UserAgent,
		Success:       false,
		FailureReason: &reason,
	})
}

// CheckRateLimit reports the window state for an email without consuming an
// attempt. The caller's IP rides along for the audit trail only; the outer
// per-IP throttle lives in middleware.
func (s *service) CheckRateLimit(ctx context.Context, email, ip string) (*Decision, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	decision, err := s.limiter.Check(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !decision.Allowed && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "ip", ip), "login window exhausted for email")
	}
	return &decision, nil
}

func (s *service) recordRateLimited(ctx context.Context, email string, input LoginInput, decision Decision) {
	reason := enums.LoginFailureRateLimited
	blockedUntil := s.now().UTC().Add(s.limiter.window)
	if decision.BlockedUntil != nil {
		blockedUntil = decision.BlockedUntil.UTC()
	}
	attempt := &models.LoginAttempt{
		Email:         email,
		IPAddress:     input.IPAddress,
		UserAgent:     input.UserAgent,
		Success:       false,
		FailureReason: &reason,
		BlockedUntil:  &blockedUntil,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).RecordLoginAttempt(ctx, attempt); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSecurityAlert,
			AggregateType: enums.AggregateUser,
			AggregateID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(email)),
			Version:       1,
			Data: payloads.SecurityAlertEvent{
				Email:     email,
				IPAddress: input.IPAddress,
				Kind:      "login_rate_limited",
			},
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(ctx, "recording rate-limited attempt failed")
	}
}

// record persists the audit row. The audit trail is best effort; a write
// failure never changes the login outcome.
func (s *service) record(ctx context.Context, attempt *models.LoginAttempt) {
	if err := s.repo.RecordLoginAttempt(ctx, attempt); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "recording login attempt failed")
	}
}
