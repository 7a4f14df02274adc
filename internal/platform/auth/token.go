// Package auth signs and verifies the bearer tokens that guard alias creation.
package auth

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeCreate is carried by tokens allowed to create aliases.
const ScopeCreate = "alias:create"

// Claims is what a verified token says about its bearer.
type Claims struct {
	Subject string
	Scopes  []string
}

func (c Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// TokenService is satisfied by *HS256.
type TokenService interface {
	Sign(subject string, scopes ...string) (string, error)
	Verify(token string) (Claims, error)
}

// wire format: scope 是空格分隔的字符串（RFC 8693 的写法）。
type wireClaims struct {
	Scope string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

type HS256 struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewHS256Service(secret, issuer string, ttl time.Duration) (*HS256, error) {
	switch {
	case secret == "":
		return nil, errors.New("jwt secret is empty")
	case issuer == "":
		return nil, errors.New("jwt issuer is empty")
	case ttl <= 0:
		return nil, errors.New("jwt ttl must be > 0")
	}
	return &HS256{key: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (s *HS256) Sign(subject string, scopes ...string) (string, error) {
	if subject == "" {
		return "", errors.New("empty subject")
	}
	iat := s.now()
	wc := wireClaims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, wc).SignedString(s.key)
}

// Verify 只接受 HS256、本服务签发且带 exp 的 token。
func (s *HS256) Verify(token string) (Claims, error) {
	var wc wireClaims
	_, err := jwt.ParseWithClaims(token, &wc,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, err
	}
	return Claims{Subject: wc.Subject, Scopes: strings.Fields(wc.Scope)}, nil
}

type claimsKey struct{}

// NewContext attaches verified claims to ctx.
func NewContext(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}
