// Package command holds the write side of auth-service: logins, token
// rotation, session revocation and MFA enrolment.
package command

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"github.com/startupstarter/admin/auth-service/internal/totp"
	"github.com/startupstarter/admin/shared/apperrors"
	"github.com/startupstarter/admin/shared/clock"
	"github.com/startupstarter/admin/shared/cqrs"
	"github.com/startupstarter/admin/shared/logger"
	"github.com/startupstarter/admin/shared/metrics"
	"github.com/startupstarter/admin/shared/middleware"
	"github.com/startupstarter/admin/shared/models"
	"github.com/startupstarter/admin/shared/utils"
)

const refreshTokenBytes = 32

type UserStore interface {
	GetByEmail(ctx context.Context, accountID, email string) (*models.User, error)
	GetByID(ctx context.Context, accountID, id string) (*models.User, error)
	RecordFailedLogin(ctx context.Context, accountID, userID string, maxAttempts int, now time.Time) (int, bool, error)
	RecordLogin(ctx context.Context, u *models.User) error
	SaveMFA(ctx context.Context, u *models.User) error
	Permissions(ctx context.Context, accountID, userID string) ([]string, bool, error)
	CacheUserView(ctx context.Context, view *models.UserView)
}

type AccountLookup interface {
	GetBySlug(ctx context.Context, slug string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	GetByRefreshHash(ctx context.Context, hash string) (*models.Session, error)
	GetByID(ctx context.Context, accountID, id string) (*models.Session, error)
	Rotate(ctx context.Context, s *models.Session, prevHash string) error
	Revoke(ctx context.Context, id string, at time.Time) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	PublishDomainEvents(ctx context.Context, accountID, actorID string, evts []models.DomainEvent)
}

type Settings struct {
	Secret            []byte
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	MFATokenTTL       time.Duration
	MFAIssuer         string
	MaxFailedLogins   int
	PlatformAccountID string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// LoginResult carries either a token pair or, for MFA users, a challenge token.
type LoginResult struct {
	*TokenPair
	MFARequired bool   `json:"mfaRequired,omitempty"`
	MFAToken    string `json:"mfaToken,omitempty"`
}

type MFASetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauthUrl"`
}

type AuthCommandService struct {
	users     UserStore
	accounts  AccountLookup
	sessions  SessionStore
	publisher EventPublisher
	settings  Settings
	clock     clock.Clock
	log       *logger.Logger
}

func NewAuthCommandService(users UserStore, accounts AccountLookup, sessions SessionStore, publisher EventPublisher, settings Settings, clk clock.Clock, log *logger.Logger) *AuthCommandService {
	return &AuthCommandService{users: users, accounts: accounts, sessions: sessions, publisher: publisher, settings: settings, clock: clk, log: log}
}

// Login never tells the caller whether the account, the user or the password
// was wrong.
func (s *AuthCommandService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*LoginResult, error) {
	res, err := s.login(ctx, cmd)
	metrics.LoginAttemptsTotal.WithLabelValues(loginOutcome(res, err)).Inc()
	return res, err
}

func (s *AuthCommandService) login(ctx context.Context, cmd cqrs.LoginCommand) (*LoginResult, error) {
	account, err := s.accounts.GetBySlug(ctx, cmd.AccountSlug)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, apperrors.ErrAccountSuspended
	}

	user, err := s.users.GetByEmail(ctx, account.ID, cmd.Email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserLocked {
		return nil, apperrors.ErrUserLocked
	}

	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		s.recordFailure(ctx, user, "invalid password", cmd.IP)
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.MFAEnabled {
		token, err := middleware.SignToken(s.settings.Secret, middleware.Claims{
			UserID:    user.ID,
			AccountID: account.ID,
			Email:     user.Email,
			Purpose:   middleware.PurposeMFA,
		}, s.clock.Now(), s.settings.MFATokenTTL)
		if err != nil {
			return nil, apperrors.ErrInternal.WithCause(err)
		}
		return &LoginResult{MFARequired: true, MFAToken: token}, nil
	}

	pair, err := s.startSession(ctx, account, user, cmd.UserAgent, cmd.IP)
	if err != nil {
		return nil, err
	}
	return &LoginResult{TokenPair: pair}, nil
}

// VerifyMFA completes a login that was answered with an MFA challenge. Wrong
// codes count towards the lockout like wrong passwords.
func (s *AuthCommandService) VerifyMFA(ctx context.Context, cmd cqrs.VerifyMFACommand) (*TokenPair, error) {
	claims, err := middleware.ParseToken(s.settings.Secret, cmd.MFAToken, middleware.PurposeMFA, s.clock.Now())
	if err != nil {
		return nil, err
	}
	account, user, err := s.loadActive(ctx, claims.AccountID, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.MFAEnabled {
		return nil, apperrors.ErrInvalidToken
	}
	if !totp.Validate(user.MFASecret, cmd.Code, s.clock.Now()) {
		s.recordFailure(ctx, user, "invalid mfa code", cmd.IP)
		metrics.LoginAttemptsTotal.WithLabelValues("mfa_failed").Inc()
		return nil, apperrors.ErrInvalidMFACode
	}
	metrics.LoginAttemptsTotal.WithLabelValues("mfa_success").Inc()
	return s.startSession(ctx, account, user, cmd.UserAgent, cmd.IP)
}

// Refresh rotates the refresh token of a live session and re-resolves the
// caller's permissions. A locked user or inactive account ends the session.
func (s *AuthCommandService) Refresh(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*TokenPair, error) {
	now := s.clock.Now()
	prevHash := utils.HashToken(cmd.RefreshToken)
	session, err := s.sessions.GetByRefreshHash(ctx, prevHash)
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return nil, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !session.Active(now) {
		return nil, apperrors.ErrInvalidToken
	}

	account, user, err := s.loadActive(ctx, session.AccountID, session.UserID)
	if err != nil {
		if rerr := s.sessions.Revoke(ctx, session.ID, now); rerr != nil {
			s.log.Warn("Failed to revoke session", "sessionId", session.ID, "error", rerr)
		} else {
			metrics.RefreshTokensRevoked.Inc()
		}
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	raw, err := utils.RandomHex(refreshTokenBytes)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	session.RefreshHash = utils.HashToken(raw)
	session.UserAgent = lo.CoalesceOrEmpty(cmd.UserAgent, session.UserAgent)
	session.IP = lo.CoalesceOrEmpty(cmd.IP, session.IP)
	session.ExpiresAt = now.Add(s.settings.RefreshTokenTTL).UTC()
	session.LastUsedAt = now.UTC()
	if err := s.sessions.Rotate(ctx, session, prevHash); err != nil {
		return nil, err
	}
	metrics.RefreshTokensIssued.Inc()
	return s.issue(ctx, account, user, session.ID, raw)
}

// Logout revokes the session behind a refresh token owned by the caller.
func (s *AuthCommandService) Logout(ctx context.Context, cmd cqrs.LogoutCommand) error {
	session, err := s.sessions.GetByRefreshHash(ctx, utils.HashToken(cmd.RefreshToken))
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return apperrors.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if session.AccountID != cmd.AccountID || session.UserID != cmd.UserID {
		return apperrors.ErrForbidden.WithMessage("the refresh token belongs to another user")
	}
	if session.RevokedAt != nil {
		return nil
	}
	return s.revoke(ctx, session, cmd.Actor, models.EventUserLoggedOut)
}

// RevokeSession ends one of the caller's own sessions. Sessions of other users
// are reported as not found.
func (s *AuthCommandService) RevokeSession(ctx context.Context, cmd cqrs.RevokeSessionCommand) error {
	session, err := s.sessions.GetByID(ctx, cmd.AccountID, cmd.SessionID)
	if err != nil {
		return err
	}
	if session.UserID != cmd.UserID {
		return apperrors.ErrSessionNotFound
	}
	if session.RevokedAt != nil {
		return nil
	}
	return s.revoke(ctx, session, cmd.Actor, models.EventSessionRevoked)
}

// SetupMFA stores a fresh secret. Verification starts only after EnableMFA.
func (s *AuthCommandService) SetupMFA(ctx context.Context, cmd cqrs.SetupMFACommand) (*MFASetup, error) {
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	if err := user.SetupMFA(secret, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.users.SaveMFA(ctx, user); err != nil {
		return nil, err
	}
	return &MFASetup{Secret: secret, URL: totp.URL(s.settings.MFAIssuer, user.Email, secret)}, nil
}

func (s *AuthCommandService) EnableMFA(ctx context.Context, cmd cqrs.EnableMFACommand) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if user.MFAEnabled {
		return nil, apperrors.ErrMFAAlreadyEnabled
	}
	if user.MFASecret == "" {
		return nil, apperrors.ErrMFANotSetUp
	}
	if !totp.Validate(user.MFASecret, cmd.Code, s.clock.Now()) {
		return nil, apperrors.ErrInvalidMFACode
	}
	if err := user.EnableMFA(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.save(ctx, user, cmd.Actor)
}

func (s *AuthCommandService) DisableMFA(ctx context.Context, cmd cqrs.DisableMFACommand) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, cmd.AccountID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if !user.MFAEnabled {
		return nil, apperrors.ErrMFANotEnabled
	}
	if !totp.Validate(user.MFASecret, cmd.Code, s.clock.Now()) {
		return nil, apperrors.ErrInvalidMFACode
	}
	if err := user.DisableMFA(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.save(ctx, user, cmd.Actor)
}

// CleanupSessions deletes sessions that expired or were revoked.
func (s *AuthCommandService) CleanupSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.clock.Now())
}

func (s *AuthCommandService) loadActive(ctx context.Context, accountID, userID string) (*models.Account, *models.User, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsActive() {
		return nil, nil, apperrors.ErrAccountSuspended
	}
	user, err := s.users.GetByID(ctx, accountID, userID)
	if err != nil {
		return nil, nil, err
	}
	if user.Status == models.UserLocked {
		return nil, nil, apperrors.ErrUserLocked
	}
	return account, user, nil
}

func (s *AuthCommandService) startSession(ctx context.Context, account *models.Account, user *models.User, userAgent, ip string) (*TokenPair, error) {
	now := s.clock.Now()
	user.RecordLogin(now)
	if err := s.users.RecordLogin(ctx, user); err != nil {
		return nil, err
	}
	s.users.CacheUserView(ctx, models.NewUserView(user))

	raw, err := utils.RandomHex(refreshTokenBytes)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	session := &models.Session{
		ID:          utils.GenerateID("ses"),
		AccountID:   account.ID,
		UserID:      user.ID,
		RefreshHash: utils.HashToken(raw),
		UserAgent:   userAgent,
		IP:          ip,
		ExpiresAt:   now.Add(s.settings.RefreshTokenTTL).UTC(),
		CreatedAt:   now.UTC(),
		LastUsedAt:  now.UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	metrics.RefreshTokensIssued.Inc()

	pair, err := s.issue(ctx, account, user, session.ID, raw)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, user.AccountID, user.ID, authEvent(models.EventUserLoggedIn, user, session.ID, ip, "", now))
	return pair, nil
}

func (s *AuthCommandService) issue(ctx context.Context, account *models.Account, user *models.User, sessionID, refresh string) (*TokenPair, error) {
	perms, platformAdmin, err := s.permissions(ctx, account, user)
	if err != nil {
		return nil, err
	}
	access, err := middleware.SignToken(s.settings.Secret, middleware.Claims{
		UserID:        user.ID,
		AccountID:     account.ID,
		Email:         user.Email,
		SessionID:     sessionID,
		Permissions:   perms,
		PlatformAdmin: platformAdmin,
		Purpose:       middleware.PurposeAccess,
	}, s.clock.Now(), s.settings.AccessTokenTTL)
	if err != nil {
		return nil, apperrors.ErrInternal.WithCause(err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.settings.AccessTokenTTL / time.Second),
	}, nil
}

// permissions unions the role permissions. system:admin is granted only to
// holders of a system role in the platform account.
func (s *AuthCommandService) permissions(ctx context.Context, account *models.Account, user *models.User) ([]string, bool, error) {
	perms, system, err := s.users.Permissions(ctx, account.ID, user.ID)
	if err != nil {
		return nil, false, err
	}
	perms = lo.Without(perms, models.PermSystemAdmin)
	platformAdmin := system && s.settings.PlatformAccountID != "" && account.ID == s.settings.PlatformAccountID
	if platformAdmin {
		perms = append(perms, models.PermSystemAdmin)
	}
	normalized, _, _ := models.NormalizePermissions(lo.Filter(perms, func(p string, _ int) bool {
		return models.ValidPermission(p)
	}), true)
	return normalized, platformAdmin, nil
}

func (s *AuthCommandService) recordFailure(ctx context.Context, user *models.User, reason, ip string) {
	now := s.clock.Now()
	failed, locked, err := s.users.RecordFailedLogin(ctx, user.AccountID, user.ID, s.settings.MaxFailedLogins, now)
	if err != nil {
		s.log.Error("Failed to record failed login", "userId", user.ID, "error", err)
		return
	}
	user.ApplyFailedLogin(failed, locked, now)
	if locked {
		s.users.CacheUserView(ctx, models.NewUserView(user))
		s.log.Warn("User locked after failed logins", "userId", user.ID, "attempts", user.FailedLogins)
	}
	evts := append([]models.DomainEvent{authEvent(models.EventUserLoginFailed, user, "", ip, reason, now)}, user.PullEvents()...)
	s.publisher.PublishDomainEvents(ctx, user.AccountID, user.ID, evts)
}

func (s *AuthCommandService) revoke(ctx context.Context, session *models.Session, actor cqrs.Actor, eventType string) error {
	now := s.clock.Now()
	if err := s.sessions.Revoke(ctx, session.ID, now); err != nil {
		return err
	}
	metrics.RefreshTokensRevoked.Inc()
	s.publish(ctx, actor.AccountID, actor.UserID, models.DomainEvent{
		Type:       eventType,
		EntityType: models.EntitySession,
		EntityID:   session.ID,
		Data:       models.AuthEventData{UserID: session.UserID, SessionID: session.ID, IP: session.IP},
		OccurredAt: now.UTC(),
	})
	return nil
}

func (s *AuthCommandService) save(ctx context.Context, user *models.User, actor cqrs.Actor) (*models.UserView, error) {
	if err := s.users.SaveMFA(ctx, user); err != nil {
		return nil, err
	}
	view := models.NewUserView(user)
	s.users.CacheUserView(ctx, view)
	s.publisher.PublishDomainEvents(ctx, actor.AccountID, actor.UserID, user.PullEvents())
	return view, nil
}

func (s *AuthCommandService) publish(ctx context.Context, accountID, actorID string, evt models.DomainEvent) {
	s.publisher.PublishDomainEvents(ctx, accountID, actorID, []models.DomainEvent{evt})
}

func loginOutcome(res *LoginResult, err error) string {
	switch {
	case err == nil && res.MFARequired:
		return "mfa_required"
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, apperrors.ErrUserLocked):
		return "locked"
	case errors.Is(err, apperrors.ErrAccountSuspended):
		return "suspended"
	default:
		return "error"
	}
}

func authEvent(eventType string, user *models.User, sessionID, ip, reason string, now time.Time) models.DomainEvent {
	return models.DomainEvent{
		Type:       eventType,
		EntityType: models.EntitySession,
		EntityID:   lo.CoalesceOrEmpty(sessionID, user.ID),
		Data:       models.AuthEventData{UserID: user.ID, Email: user.Email, SessionID: sessionID, IP: ip, Reason: reason},
		OccurredAt: now.UTC(),
	}
}
