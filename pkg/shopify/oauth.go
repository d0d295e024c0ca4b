package shopify

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeAccessToken trades an authorization code for a permanent access
// token. The client does not need a token of its own for this call.
func (c *Client) ExchangeAccessToken(ctx context.Context, req TokenRequest) (AccessToken, bool) {
	env := c.Execute(ctx, http.MethodPost, "oauth/access_token", req)
	if !env.Success() {
		return AccessToken{}, false
	}
	var tok AccessToken
	if err := env.Decode(&tok); err != nil || tok.AccessToken == "" {
		c.logger.Warn("shopify token exchange returned no access_token", zap.String("shop", c.shopDomain))
		return AccessToken{}, false
	}
	return tok, true
}

// AuthorizeURL is where a merchant grants the app its scopes.
func AuthorizeURL(shopDomain, apiKey, scopes, redirectURI, state string) string {
	u := url.URL{
		Scheme: "https",
		Host:   NormalizeShopDomain(shopDomain),
		Path:   "/admin/oauth/authorize",
	}
	q := u.Query()
	q.Set("client_id", apiKey)
	q.Set("scope", strings.ReplaceAll(scopes, " ", ""))
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String()
}
