package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSecretRequired = errors.New("security: cookie secret is required")
	ErrInvalidCookie  = errors.New("security: session cookie is invalid")
)

// CookieSigner signs the session cookie value. The value is an HS256 JWT whose
// subject is the viewer id, so tampering is detected on read.
type CookieSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type CookieSignerParams struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

func NewCookieSigner(params CookieSignerParams) (*CookieSigner, error) {
	if strings.TrimSpace(params.Secret) == "" {
		return nil, ErrSecretRequired
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	issuer := params.Issuer
	if issuer == "" {
		issuer = "tinyhouse"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &CookieSigner{secret: []byte(params.Secret), issuer: issuer, ttl: ttl, now: now}, nil
}

func (s *CookieSigner) TTL() time.Duration {
	return s.ttl
}

// Sign returns the cookie value carrying subject.
func (s *CookieSigner) Sign(subject string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("security: sign cookie: %w", err)
	}
	return signed, nil
}

// Verify returns the subject of a cookie value produced by Sign.
func (s *CookieSigner) Verify(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", ErrInvalidCookie
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}
