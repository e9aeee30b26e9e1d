package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aidar/teamflow/internal/domain"
)

// Claims represents JWT claims
type Claims struct {
	UserID string      `json:"user_id"`
	TeamID string      `json:"team_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 tokens. It keeps no state besides the secret.
type TokenIssuer struct {
	secret           []byte
	anonymousTTL     time.Duration
	authenticatedTTL time.Duration
	now              func() time.Time
}

// NewTokenIssuer creates a new TokenIssuer
func NewTokenIssuer(secret string, anonymousTTL, authenticatedTTL time.Duration, opts ...Option) *TokenIssuer {
	o := newOptions(opts)
	return &TokenIssuer{
		secret:           []byte(secret),
		anonymousTTL:     anonymousTTL,
		authenticatedTTL: authenticatedTTL,
		now:              o.now,
	}
}

// Lifetime returns the token lifetime for an employee join
func (t *TokenIssuer) Lifetime(authenticated bool) time.Duration {
	if authenticated {
		return t.authenticatedTTL
	}
	return t.anonymousTTL
}

// ManagerLifetime returns the token lifetime for a manager claim
func (t *TokenIssuer) ManagerLifetime() time.Duration {
	return t.authenticatedTTL
}

// Mint signs a token for the (user, team, role) triple
func (t *TokenIssuer) Mint(userID, teamID string, role domain.Role, ttl time.Duration) (string, time.Time, error) {
	issuedAt := t.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := &Claims{
		UserID: userID,
		TeamID: teamID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

var errUnexpectedAlg = errors.New("unexpected signing method")

// Verify checks the signature and expiry of a token and returns its claims
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Only HS256 is accepted; "none" and other algorithms fail here
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v", errUnexpectedAlg, token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrTokenSignatureInvalid
		default:
			return nil, domain.ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrTokenMalformed
	}
	if claims.UserID == "" || claims.TeamID == "" || !claims.Role.IsValid() {
		return nil, domain.ErrTokenMalformed
	}

	return claims, nil
}

// Authorize verifies the token and checks that it carries the required role.
// A missing or unverifiable token is ErrUnauthorized, a valid token with a
// lower role is ErrForbidden.
func (t *TokenIssuer) Authorize(tokenString string, required domain.Role) (*Claims, error) {
	if tokenString == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := t.Verify(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	if required == domain.RoleManager && !claims.IsManager() {
		return nil, domain.ErrForbidden
	}

	return claims, nil
}

// IsManager reports whether the token carries the manager role
func (c *Claims) IsManager() bool {
	return c.Role == domain.RoleManager
}
