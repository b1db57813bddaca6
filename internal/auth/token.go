// Package auth is the session layer: it issues HS256 access tokens on
// sign-in and resolves the bearer token of each request into an identity.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	userentity "github.com/ovaphlow/pitchfork/service-meetup/internal/user/entity"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// ConfigFromEnv reads JWT_SECRET, JWT_ISSUER and JWT_TTL (a Go duration).
func ConfigFromEnv() Config {
	cfg := Config{
		Secret: []byte(os.Getenv("JWT_SECRET")),
		Issuer: strings.TrimSpace(os.Getenv("JWT_ISSUER")),
		TTL:    defaultTTL,
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "service-meetup"
	}
	if d, err := time.ParseDuration(os.Getenv("JWT_TTL")); err == nil && d > 0 {
		cfg.TTL = d
	}
	return cfg
}

// Claims are the access token claims. Role is informational; requests are
// authorized with the role stored on the account.
type Claims struct {
	Role userentity.Role `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

type Issuer struct {
	cfg   Config
	clock clockwork.Clock
}

func NewIssuer(cfg Config, clock clockwork.Clock) (*Issuer, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("JWT_SECRET must be at least 16 bytes")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Issuer{cfg: cfg, clock: clock}, nil
}

// Issue signs an access token for u and returns it with its expiry.
func (i *Issuer) Issue(u *userentity.User) (string, time.Time, error) {
	now := i.clock.Now()
	exp := now.Add(i.cfg.TTL)
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token and checks signature, algorithm, issuer and expiry.
func (i *Issuer) Verify(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
