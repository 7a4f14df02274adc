package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHS256_SignVerify(t *testing.T) {
	ts, err := NewHS256Service("secret", "zoorl", time.Hour)
	if err != nil {
		t.Fatalf("NewHS256Service: %v", err)
	}
	tok, err := ts.Sign("ops", ScopeCreate)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c, err := ts.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c.Subject != "ops" || !c.HasScope(ScopeCreate) {
		t.Fatalf("claims = %+v", c)
	}
}

func TestHS256_MultipleScopes(t *testing.T) {
	ts, _ := NewHS256Service("secret", "zoorl", time.Hour)
	tok, err := ts.Sign("ops", ScopeCreate, "alias:read")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	c, err := ts.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(c.Scopes) != 2 || !c.HasScope("alias:read") || c.HasScope("alias") {
		t.Fatalf("scopes = %v", c.Scopes)
	}

	bare, _ := ts.Sign("ops")
	c, err = ts.Verify(bare)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(c.Scopes) != 0 || c.HasScope(ScopeCreate) {
		t.Fatalf("scopes = %v", c.Scopes)
	}
}

func TestHS256_Rejects(t *testing.T) {
	ts, _ := NewHS256Service("secret", "zoorl", time.Hour)
	other, _ := NewHS256Service("other-secret", "zoorl", time.Hour)
	foreign, _ := NewHS256Service("secret", "someone-else", time.Hour)

	past, _ := NewHS256Service("secret", "zoorl", time.Minute)
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }

	wrongKey, _ := other.Sign("ops", ScopeCreate)
	wrongIss, _ := foreign.Sign("ops", ScopeCreate)
	stale, _ := past.Sign("ops", ScopeCreate)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": "zoorl", "sub": "ops", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"wrong key":    wrongKey,
		"wrong issuer": wrongIss,
		"expired":      stale,
		"alg none":     none,
		"garbage":      "not.a.token",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ts.Verify(tok); err == nil {
				t.Fatal("expected verification failure")
			}
		})
	}
}

func TestNewHS256Service_Validates(t *testing.T) {
	if _, err := NewHS256Service("", "iss", time.Hour); err == nil {
		t.Fatal("empty secret accepted")
	}
	if _, err := NewHS256Service("s", "", time.Hour); err == nil {
		t.Fatal("empty issuer accepted")
	}
	if _, err := NewHS256Service("s", "iss", 0); err == nil {
		t.Fatal("zero ttl accepted")
	}
}

func TestClaimsContext(t *testing.T) {
	ctx := NewContext(context.Background(), Claims{Subject: "ops", Scopes: []string{ScopeCreate}})
	c, ok := FromContext(ctx)
	if !ok || c.Subject != "ops" {
		t.Fatalf("FromContext = %+v, %v", c, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context should carry no claims")
	}
}
