package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer("test-jwt-secret-that-is-long-enough", "blueledger-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return ti
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := newTestIssuer(t)
	uid := uuid.New()
	now := time.Now()

	token, expiry, err := ti.Mint(now, uid)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if !expiry.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiry)
	}
	got, err := ti.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != uid {
		t.Fatalf("expected %v, got %v", uid, got)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ti := newTestIssuer(t)
	uid := uuid.New()

	expired, _, _ := ti.Mint(time.Now().Add(-2*time.Hour), uid)

	other, _ := NewTokenIssuer("test-jwt-secret-that-is-long-enough", "someone-else", time.Hour)
	wrongIssuer, _, _ := other.Mint(time.Now(), uid)

	otherKey, _ := NewTokenIssuer("a-completely-different-secret-value", "blueledger-test", time.Hour)
	wrongKey, _, _ := otherKey.Mint(time.Now(), uid)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "blueledger-test",
		Subject:   uid.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	badSubject, _ := jwt.NewWithClaims(jwtSigningMethod, jwt.RegisteredClaims{
		Issuer:    "blueledger-test",
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-jwt-secret-that-is-long-enough"))

	tests := map[string]string{
		"expired":      expired,
		"wrong issuer": wrongIssuer,
		"wrong key":    wrongKey,
		"alg none":     none,
		"bad subject":  badSubject,
		"garbage":      "not.a.jwt",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ti.Parse(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	if _, err := NewTokenIssuer("", "x", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenIssuer("s", "", time.Hour); err == nil {
		t.Fatal("expected error for empty issuer")
	}
	if _, err := NewTokenIssuer("s", "x", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
