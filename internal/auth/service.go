package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/optitalent/hr-backend/internal/config"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/logging"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidCredentials is the only error a caller sees for a rejected
	// login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRefreshInvalid     = errors.New("invalid or expired refresh token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUnavailable        = errors.New("authorization unavailable")
)

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	Tokens  TokenPair
	Claims  *TokenClaims
	Account *identity.Account
}

// AuthService handles credential login, rotating refresh tokens and token
// revocation.
type AuthService struct {
	store         *redisStore
	jwt           *JWTService
	accounts      identity.Store
	refreshExpiry time.Duration
	lookupTimeout time.Duration
	now           func() time.Time

	dummyOnce sync.Once
	dummy     *identity.Account
}

func NewAuthService(redisClient *redis.Client, jwtSvc *JWTService, accounts identity.Store, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		store:         newRedisStore(redisClient),
		jwt:           jwtSvc,
		accounts:      accounts,
		refreshExpiry: cfg.RefreshExpiry,
		lookupTimeout: cfg.LookupTimeout,
		now:           time.Now,
	}
}

// Authenticate verifies an email or employee id and credential and issues a
// token pair carrying the account's current role.
func (s *AuthService) Authenticate(ctx context.Context, identifier, credential string) (*Session, error) {
	lookupCtx, cancel := s.lookupContext(ctx)
	account, err := s.accounts.FindByIdentifier(lookupCtx, identifier)
	cancel()

	switch {
	case errors.Is(err, identity.ErrAccountNotFound):
		// Spend the same bcrypt time as a real account would.
		_ = identity.VerifyCredential(s.dummyAccount(), credential)
		return nil, ErrInvalidCredentials
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: identity lookup: %w", ErrUnavailable, err)
	case err != nil:
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	if err := identity.VerifyCredential(account, credential); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.Active {
		return nil, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	logging.Info("login succeeded", "account_id", account.ID, "role", account.Role)
	return session, nil
}

// Refresh rotates the refresh token and re-reads the account, so a role
// change or deactivation applies from here on.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	hash := hashString(refreshToken)

	accountIDStr, err := s.store.takeRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("retrieving refresh token: %w", err)
	}

	accountID, err := uuid.Parse(accountIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid account ID in refresh token: %w", err)
	}

	lookupCtx, cancel := s.lookupContext(ctx)
	account, err := s.accounts.FindByID(lookupCtx, accountID)
	cancel()
	if errors.Is(err, identity.ErrAccountNotFound) {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	if !account.Active {
		return nil, ErrRefreshInvalid
	}

	session, err := s.issueSession(ctx, account)
	if err != nil {
		return nil, err
	}

	logging.Info("refresh token rotated", "account_id", accountID, "role", account.Role)
	return session, nil
}

// Logout deny-lists the access token until it expires and drops the
// refresh token. Repeating it is harmless.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims, refreshToken string) error {
	if claims != nil {
		if err := s.store.denyToken(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now())); err != nil {
			return fmt.Errorf("deny-listing access token: %w", err)
		}
	}

	if refreshToken != "" {
		hash := hashString(refreshToken)
		owner, err := s.store.getRefreshToken(ctx, hash)
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("looking up refresh token: %w", err)
		}
		// Another subject's refresh token is left alone.
		if owner != "" && (claims == nil || owner == claims.AccountID.String()) {
			if err := s.store.deleteRefreshToken(ctx, hash, owner); err != nil {
				return fmt.Errorf("deleting refresh token: %w", err)
			}
		}
	}

	if claims != nil {
		logging.Info("account logged out", "account_id", claims.AccountID)
	}
	return nil
}

// RevokeSubject invalidates every access and refresh token issued to the
// account so far.
func (s *AuthService) RevokeSubject(ctx context.Context, accountID uuid.UUID) error {
	ttl := s.jwt.Expiry()
	if s.refreshExpiry > ttl {
		ttl = s.refreshExpiry
	}
	if err := s.store.revokeSubject(ctx, accountID.String(), s.now(), ttl); err != nil {
		return fmt.Errorf("revoking subject: %w", err)
	}

	logging.Warn("account tokens revoked", "account_id", accountID)
	return nil
}

// CheckRevocation returns ErrTokenRevoked for a deny-listed token or one
// issued before its subject was revoked.
func (s *AuthService) CheckRevocation(ctx context.Context, claims *TokenClaims) error {
	denied, revokedAt, err := s.store.tokenStatus(ctx, claims.TokenID, claims.AccountID.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if denied {
		return ErrTokenRevoked
	}
	if !revokedAt.IsZero() && !claims.IssuedAt.After(revokedAt) {
		return ErrTokenRevoked
	}
	return nil
}

// ValidateToken exposes the token verifier for callers holding only the
// service, such as the navigation resolve endpoint.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	return s.jwt.ValidateToken(ctx, token)
}

func (s *AuthService) issueSession(ctx context.Context, account *identity.Account) (*Session, error) {
	accessToken, claims, err := s.jwt.GenerateToken(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	rawRefresh, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	if err := s.store.storeRefreshToken(ctx, hashString(rawRefresh), account.ID.String(), s.refreshExpiry); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &Session{
		Tokens: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: rawRefresh,
			TokenType:    "Bearer",
			ExpiresAt:    claims.ExpiresAt,
		},
		Claims:  claims,
		Account: account,
	}, nil
}

func (s *AuthService) lookupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.lookupTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.lookupTimeout)
}

func (s *AuthService) dummyAccount() *identity.Account {
	s.dummyOnce.Do(func() {
		hash, err := identity.HashCredential(uuid.NewString())
		if err != nil {
			logging.Error("failed to build dummy credential", "error", err)
		}
		s.dummy = &identity.Account{CredentialHash: hash}
	})
	return s.dummy
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// returns 32 random bytes hex-encoded
func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
