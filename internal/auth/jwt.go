package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/optitalent/hr-backend/internal/identity"
	"github.com/optitalent/hr-backend/internal/rbac"
)

const (
	claimRole       = "role"
	claimDepartment = "dept"
)

var ErrTokenInvalid = errors.New("token expired or invalid")

type JWTService struct {
	signingKey jwk.Key
	issuer     string
	expiry     time.Duration
	now        func() time.Time
}

// TokenClaims is what a verified access token asserts. Role and department
// are fixed at issue time.
type TokenClaims struct {
	AccountID    uuid.UUID
	Role         rbac.Role
	DepartmentID string
	TokenID      string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

func NewJWTService(signingKey []byte, issuer string, expiry time.Duration) (*JWTService, error) {
	key, err := jwk.FromRaw(signingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK: %w", err)
	}

	if err := key.Set(jwk.AlgorithmKey, jwa.HS256); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	return &JWTService{
		signingKey: key,
		issuer:     issuer,
		expiry:     expiry,
		now:        time.Now,
	}, nil
}

func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}

func (s *JWTService) GenerateToken(ctx context.Context, account *identity.Account) (string, *TokenClaims, error) {
	now := s.now().Truncate(time.Second)
	claims := &TokenClaims{
		AccountID:    account.ID,
		Role:         account.Role,
		DepartmentID: account.DepartmentID,
		TokenID:      uuid.NewString(),
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.expiry),
	}

	token, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(account.ID.String()).
		JwtID(claims.TokenID).
		IssuedAt(claims.IssuedAt).
		Expiration(claims.ExpiresAt).
		Claim(claimRole, string(account.Role)).
		Claim(claimDepartment, account.DepartmentID).
		Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.signingKey))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), claims, nil
}

// ValidateToken verifies signature, issuer and expiry. Every failure wraps
// ErrTokenInvalid.
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	parsedToken, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, s.signingKey),
		jwt.WithIssuer(s.issuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse token: %w", ErrTokenInvalid, err)
	}

	accountID, err := uuid.Parse(parsedToken.Subject())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject: %w", ErrTokenInvalid, err)
	}

	role, ok := stringClaim(parsedToken, claimRole)
	if !ok || role == "" {
		return nil, fmt.Errorf("%w: role claim not found", ErrTokenInvalid)
	}
	dept, _ := stringClaim(parsedToken, claimDepartment)

	if parsedToken.JwtID() == "" {
		return nil, fmt.Errorf("%w: jti claim not found", ErrTokenInvalid)
	}

	return &TokenClaims{
		AccountID:    accountID,
		Role:         rbac.Role(role),
		DepartmentID: dept,
		TokenID:      parsedToken.JwtID(),
		IssuedAt:     parsedToken.IssuedAt(),
		ExpiresAt:    parsedToken.Expiration(),
	}, nil
}

func stringClaim(token jwt.Token, name string) (string, bool) {
	v, ok := token.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
