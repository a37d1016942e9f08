package directory

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/halolight/halolight/pkg/sdk"
)

// TokenIssuerName is the iss claim of issued tokens.
const TokenIssuerName = "halolight"

// ErrInvalidToken is returned by Verify for malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user snapshot inside an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Avatar      string   `json:"avatar,omitempty"`
	Role        sdk.Role `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer creates an issuer signing with key. Tokens expire after ttl.
func NewTokenIssuer(key []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("signing key is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	return &TokenIssuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for user and returns it with its expiry.
func (i *TokenIssuer) Issue(user *sdk.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:       user.Email,
		Name:        user.Name,
		Avatar:      user.Avatar,
		Role:        user.Role,
		Permissions: user.Permissions,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses token and returns the user it was issued for.
func (i *TokenIssuer) Verify(token string) (*sdk.User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &sdk.User{
		ID:          claims.Subject,
		Email:       claims.Email,
		Name:        claims.Name,
		Avatar:      claims.Avatar,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}, nil
}
