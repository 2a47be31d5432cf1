// Package service implements the credential and token lifecycle workflows:
// registration, login, refresh rotation, access verification and logout.
// It composes the user repository, the refresh token store and the token
// helpers, and is deliberately free of HTTP concerns so the boundary layer
// can map its error kinds to whatever transport it serves.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/utils"
)

// ErrInvalidCredentials is returned by Login for both an unknown email and
// a wrong password. One kind on purpose: the response must not reveal
// which of the two fields was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned for every way a token can be unusable:
// forged or mis-signed, expired, malformed claims, record already consumed
// or revoked, or owning account gone. One kind on purpose so callers
// cannot probe which failure they hit.
var ErrInvalidToken = errors.New("invalid token")

// TokenPair is the transient result of an issuance: one access token and
// one refresh token. It is handed to the caller and never persisted as a
// unit; the only server-side trace is the refresh token's record.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// RegisterInput carries validated registration fields. The boundary layer
// guarantees non-empty names, a well-formed email and a password of at
// least six characters before this ever runs.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UserStore is the slice of the user repository the workflows need.
type UserStore interface {
	Create(ctx context.Context, firstName, lastName, email, passwordHash string, role model.Role) (uint64, error)
	GetByEmailWithHash(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the slice of the refresh token store the workflows need.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, ttl time.Duration) (model.RefreshTokenRecord, error)
	Consume(ctx context.Context, recordID string) (uint64, error)
	Revoke(ctx context.Context, recordID string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Publisher delivers a registration event to the message broker. It is
// best-effort: Register ignores its error, and a nil Publisher disables
// publishing entirely.
type Publisher func(ctx context.Context, ev queue.UserRegisteredEvent) error

// AuthService orchestrates the auth use cases.
type AuthService struct {
	cfg     config.Config
	users   UserStore
	tokens  TokenStore
	publish Publisher
}

// NewAuthService wires an AuthService. publish may be nil.
func NewAuthService(cfg config.Config, users UserStore, tokens TokenStore, publish Publisher) *AuthService {
	return &AuthService{cfg: cfg, users: users, tokens: tokens, publish: publish}
}

// Register hashes the password, creates the account with role CUSTOMER and
// issues a token pair for it. repository.ErrEmailExists propagates as-is;
// other storage failures are wrapped. If issuance fails after the insert
// the error is reported but the account persists, so the user can still
// log in later.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, TokenPair, error) {
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.Create(ctx, in.FirstName, in.LastName, in.Email, hash, model.RoleCustomer)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, TokenPair{}, err
		}
		return model.User{}, TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	u := model.User{
		ID:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     model.NormalizeEmail(in.Email),
		Role:      model.RoleCustomer,
		IsActive:  true,
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return u, TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	if s.publish != nil {
		// Best effort; the publisher logs its own failures.
		_ = s.publish(ctx, queue.UserRegisteredEvent{
			UserID:       u.ID,
			Email:        u.Email,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Role:         string(u.Role),
			RegisteredAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return u, pair, nil
}

// Login verifies the credentials and issues a fresh token pair. An unknown
// email and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	u, err := s.users.GetByEmailWithHash(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	u.PasswordHash = ""

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return u, pair, nil
}

// Refresh rotates a refresh token: verify signature and expiry, consume
// the backing record, and issue a brand-new pair anchored to a new record.
// Consumption is atomic at the store, so replaying a rotated token, or
// racing two refreshes of one token, leaves exactly one winner and
// ErrInvalidToken for everyone else.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (model.User, TokenPair, error) {
	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, rawRefresh)
	if err != nil {
		return model.User{}, TokenPair{}, ErrInvalidToken
	}

	userID, err := s.tokens.Consume(ctx, claims.RecordID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return model.User{}, TokenPair{}, ErrInvalidToken
		}
		return model.User{}, TokenPair{}, fmt.Errorf("consume refresh record: %w", err)
	}
	// A record owned by someone other than the token's subject means the
	// token was spliced together; the record is already gone, reject.
	if userID != claims.UserID {
		return model.User{}, TokenPair{}, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, TokenPair{}, ErrInvalidToken
		}
		return model.User{}, TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return u, pair, nil
}

// VerifyAccess checks an access token's signature and expiry and returns
// its claims. No storage is consulted: access tokens are self-contained
// by design so per-request checks stay cheap.
func (s *AuthService) VerifyAccess(raw string) (utils.AccessClaims, error) {
	claims, err := utils.ParseAccessToken(s.cfg.AccessSecret, raw)
	if err != nil {
		return utils.AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes the record behind one refresh token. The token must
// still verify; revoking an already-dead record is not an error.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, rawRefresh)
	if err != nil {
		return ErrInvalidToken
	}
	return s.tokens.Revoke(ctx, claims.RecordID)
}

// LogoutAll revokes every refresh record belonging to a user, ending all
// of their sessions.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// issuePair persists one new refresh record and mints both tokens. Access
// and refresh tokens are signed with distinct secrets; the refresh token's
// expiry equals its record's TTL so they age out together.
func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	ttl := time.Duration(s.cfg.RefreshTTLDays) * 24 * time.Hour
	rec, err := s.tokens.Store(ctx, u.ID, ttl)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := utils.NewAccessToken(s.cfg.AccessSecret, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, rec.ID, rec.ExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
