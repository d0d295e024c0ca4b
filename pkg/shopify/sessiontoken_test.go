package shopify

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signSession(t *testing.T, secret string, claims SessionClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestVerifySessionToken_DestAndAudience(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok := signSession(t, "test_secret", SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  []string{"test_api_key"},
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-1 * time.Minute)),
		},
		Dest: "https://bayard-dev.myshopify.com/",
	})

	got, err := VerifySessionToken(tok, "test_api_key", "test_secret", now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ShopDomain != "bayard-dev.myshopify.com" {
		t.Fatalf("shop domain mismatch: %q", got.ShopDomain)
	}
	if got.UserID != "42" {
		t.Fatalf("user id mismatch: %q", got.UserID)
	}
}

func TestVerifySessionToken_IssuerFallback(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok := signSession(t, "secret", SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://owlkids.myshopify.com/admin",
			Audience:  []string{"key"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	})

	got, err := VerifySessionToken(tok, "key", "secret", now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ShopDomain != "owlkids.myshopify.com" {
		t.Fatalf("shop domain mismatch: %q", got.ShopDomain)
	}
}

func TestVerifySessionToken_Rejects(t *testing.T) {
	now := time.Unix(1700000000, 0)
	valid := jwt.RegisteredClaims{
		Audience:  []string{"key"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}

	cases := map[string]struct {
		token  string
		apiKey string
	}{
		"expired": {token: signSession(t, "secret", SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"key"}, ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))},
			Dest:             "https://a.myshopify.com",
		}), apiKey: "key"},
		"wrong audience": {token: signSession(t, "secret", SessionClaims{RegisteredClaims: valid, Dest: "https://a.myshopify.com"}), apiKey: "other"},
		"wrong secret":   {token: signSession(t, "nope", SessionClaims{RegisteredClaims: valid, Dest: "https://a.myshopify.com"}), apiKey: "key"},
		"no shop":        {token: signSession(t, "secret", SessionClaims{RegisteredClaims: valid}), apiKey: "key"},
		"empty":          {token: "", apiKey: "key"},
	}
	for name, tc := range cases {
		if _, err := VerifySessionToken(tc.token, tc.apiKey, "secret", now); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
