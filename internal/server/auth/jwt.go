// Package auth issues and verifies the HS256 access and refresh tokens that
// carry an identity claim.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	MinSecretLength        = 32
	DefaultAccessValidity  = 15 * time.Minute
	DefaultRefreshValidity = 7 * 24 * time.Hour
)

// Claims is the token payload: standard registered claims plus the identity.
type Claims struct {
	jwt.RegisteredClaims
	IdentityID string `json:"identityId"`
	Email      string `json:"email"`
}

// Issuer signs and verifies tokens. Access and refresh tokens use independent
// secrets so neither verifier accepts the other kind.
type Issuer struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
	now             func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithValidity overrides the token lifetimes. Non-positive values are ignored.
func WithValidity(access, refresh time.Duration) Option {
	return func(i *Issuer) {
		if access > 0 {
			i.accessValidity = access
		}
		if refresh > 0 {
			i.refreshValidity = refresh
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer validates the secrets and builds an Issuer. It fails with
// common.ErrWeakSecret when either secret is shorter than MinSecretLength and
// with common.ErrSecretReuse when both secrets are equal.
func NewIssuer(accessSecret, refreshSecret string, opts ...Option) (*Issuer, error) {
	if len(accessSecret) < MinSecretLength {
		return nil, fmt.Errorf("access token secret: %w", common.ErrWeakSecret)
	}
	if len(refreshSecret) < MinSecretLength {
		return nil, fmt.Errorf("refresh token secret: %w", common.ErrWeakSecret)
	}
	if accessSecret == refreshSecret {
		return nil, common.ErrSecretReuse
	}

	i := &Issuer{
		accessSecret:    []byte(accessSecret),
		refreshSecret:   []byte(refreshSecret),
		accessValidity:  DefaultAccessValidity,
		refreshValidity: DefaultRefreshValidity,
		now:             time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

func (i *Issuer) AccessValidity() time.Duration  { return i.accessValidity }
func (i *Issuer) RefreshValidity() time.Duration { return i.refreshValidity }

// IssueAccessToken returns a signed access token for the identity.
func (i *Issuer) IssueAccessToken(identityID, email string) (string, error) {
	return i.sign(i.accessSecret, identityID, email, i.accessValidity, "")
}

// IssueRefreshToken returns a signed refresh token with a random jti, so two
// tokens issued for the same identity in the same second still differ.
func (i *Issuer) IssueRefreshToken(identityID, email string) (string, error) {
	return i.sign(i.refreshSecret, identityID, email, i.refreshValidity, uuid.NewString())
}

// RefreshTokenExpiry is the expiry to persist alongside a new session.
func (i *Issuer) RefreshTokenExpiry() time.Time {
	return i.now().Add(i.refreshValidity)
}

// VerifyAccessToken returns the claims of a valid access token. Every failure
// is reported as common.ErrInvalidToken.
func (i *Issuer) VerifyAccessToken(token string) (*Claims, error) {
	return i.verify(i.accessSecret, token)
}

// VerifyRefreshToken returns the claims of a valid refresh token. Every
// failure is reported as common.ErrInvalidToken.
func (i *Issuer) VerifyRefreshToken(token string) (*Claims, error) {
	return i.verify(i.refreshSecret, token)
}

func (i *Issuer) sign(secret []byte, identityID, email string, validity time.Duration, jti string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		IdentityID: identityID,
		Email:      email,
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

func (i *Issuer) verify(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid || claims.IdentityID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
