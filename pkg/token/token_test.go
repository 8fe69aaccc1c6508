package token

import (
	"encoding/base64"
	"testing"
	"time"

	"anoa.com/poemhub/internal/entity"
	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestDecodeValidToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signed(t, jwt.MapClaims{"sub": "alice", "uid": 7, "role": "ADMIN", "exp": exp.Unix()})

	claims := Decode(raw)

	role, ok := claims.Role()
	if !ok || role != entity.RoleAdmin {
		t.Fatalf("Role() = %q, %v", role, ok)
	}
	if claims.Subject() != "alice" {
		t.Fatalf("Subject() = %q", claims.Subject())
	}
	if id, ok := claims.UserID(); !ok || id != 7 {
		t.Fatalf("UserID() = %d, %v", id, ok)
	}
	if got, ok := claims.ExpiresAt(); !ok || !got.Equal(exp) {
		t.Fatalf("ExpiresAt() = %v, %v", got, ok)
	}
}

func TestDecodeIgnoresSignature(t *testing.T) {
	raw := signed(t, jwt.MapClaims{"role": "USER"})
	tampered := raw[:len(raw)-4] + "AAAA"

	if role, ok := Decode(tampered).Role(); !ok || role != entity.RoleUser {
		t.Fatalf("claims should be read without verifying, got %q %v", role, ok)
	}
}

func TestDecodeUnknownAlgorithmKeepsClaims(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XYZ","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"ROLE_ADMIN"}`))

	if role, ok := Decode(header + "." + payload + ".sig").Role(); !ok || role != entity.RoleAdmin {
		t.Fatalf("Role() = %q, %v", role, ok)
	}
}

func TestDecodeMalformed(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256"}`))
	tests := map[string]string{
		"empty":            "",
		"one segment":      "not-a-token",
		"two segments":     header + ".e30",
		"four segments":    header + ".e30.sig.extra",
		"bad base64":       header + ".!!!.sig",
		"payload not json": header + "." + base64.RawURLEncoding.EncodeToString([]byte("role=ADMIN")) + ".sig",
		"payload is array": header + "." + base64.RawURLEncoding.EncodeToString([]byte(`["ADMIN"]`)) + ".sig",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			claims := Decode(raw)
			if claims == nil || len(claims) != 0 {
				t.Fatalf("Decode(%q) = %v, want empty claims", raw, claims)
			}
			if _, ok := claims.Role(); ok {
				t.Fatal("malformed token must not yield a role")
			}
		})
	}
}

func TestRoleClaimUnknownValue(t *testing.T) {
	raw := signed(t, jwt.MapClaims{"role": "SUPERUSER"})
	if _, ok := Decode(raw).Role(); ok {
		t.Fatal("unknown role must be treated as absent")
	}
}
