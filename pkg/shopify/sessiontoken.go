package shopify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims of an embedded admin session token.
type SessionClaims struct {
	jwt.RegisteredClaims

	Dest string `json:"dest,omitempty"` // https://{shop}
	SID  string `json:"sid,omitempty"`
}

type Session struct {
	ShopDomain string
	UserID     string
	ExpiresAt  time.Time
}

// VerifySessionToken checks an HS256 session token signed with the app
// secret and returns the shop it was issued for. The audience must be the
// app's API key when apiKey is set.
func VerifySessionToken(token, apiKey, apiSecret string, now time.Time) (Session, error) {
	if token == "" {
		return Session{}, errors.New("missing session token")
	}
	if apiSecret == "" {
		return Session{}, errors.New("missing api secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if apiKey != "" {
		opts = append(opts, jwt.WithAudience(apiKey))
	}

	claims := &SessionClaims{}
	if _, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	}); err != nil {
		return Session{}, fmt.Errorf("session token: %w", err)
	}

	shop := hostOf(claims.Dest)
	if shop == "" {
		shop = hostOf(claims.Issuer)
	}
	if shop == "" {
		return Session{}, errors.New("session token: no shop in dest or iss")
	}
	return Session{
		ShopDomain: shop,
		UserID:     claims.Subject,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// hostOf returns the host of a dest or iss claim. iss carries the admin
// path (https://{shop}/admin).
func hostOf(claim string) string {
	claim = strings.TrimSpace(claim)
	if strings.Contains(claim, "://") {
		u, err := url.Parse(claim)
		if err != nil {
			return ""
		}
		return u.Host
	}
	host, _, _ := strings.Cut(NormalizeShopDomain(claim), "/")
	return host
}
