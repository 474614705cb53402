package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestService(t *testing.T) TokenService {
	t.Helper()
	ts, err := NewHS256Service("unit-test-secret", "shortly", time.Hour)
	if err != nil {
		t.Fatalf("NewHS256Service: %v", err)
	}
	return ts
}

func TestSignVerifyRoundTrip(t *testing.T) {
	ts := newTestService(t)

	token, err := ts.Sign("42", "user")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "42" || claims.Role != "user" {
		t.Fatalf("claims: %+v", claims)
	}
}

func TestSignRejectsEmptyUserID(t *testing.T) {
	ts := newTestService(t)
	if _, err := ts.Sign("", "user"); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, _ := NewHS256Service("secret-a", "shortly", time.Hour)
	verifier, _ := NewHS256Service("secret-b", "shortly", time.Hour)

	token, err := signer.Sign("42", "user")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	signer, _ := NewHS256Service("shared-secret", "someone-else", time.Hour)
	verifier, _ := NewHS256Service("shared-secret", "shortly", time.Hour)

	token, err := signer.Sign("42", "user")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification failure with wrong issuer")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	ts := newTestService(t)

	// 直接构造一个过期 token，不等真实 TTL
	now := time.Now().Add(-2 * time.Hour)
	claims := jwtClaims{
		Role: "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "shortly",
			Subject:   "42",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if _, err := ts.Verify(token); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	ts := newTestService(t)

	claims := jwtClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "shortly",
			Subject:   "42",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := ts.Verify(token); err == nil {
		t.Fatal("alg=none token must be rejected")
	}
}

func TestNewHS256ServiceValidation(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		issuer string
		ttl    time.Duration
	}{
		{"empty secret", "", "shortly", time.Hour},
		{"empty issuer", "secret", "", time.Hour},
		{"zero ttl", "secret", "shortly", 0},
		{"negative ttl", "secret", "shortly", -time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewHS256Service(tc.secret, tc.issuer, tc.ttl); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}
