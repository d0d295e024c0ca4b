package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bundly/internal/api"
	"bundly/internal/shop"
	"bundly/pkg/config"
	"bundly/pkg/shopify"
)

const stateCookie = "oauth_state"

type ShopSaver interface {
	Upsert(ctx context.Context, domain, accessToken, scopes string) (*shop.Shop, error)
}

// TokenExchanger is implemented by a token-less *shopify.Client.
type TokenExchanger interface {
	ExchangeAccessToken(ctx context.Context, req shopify.TokenRequest) (shopify.AccessToken, bool)
}

type Handlers struct {
	Cfg    config.Config
	Shops  ShopSaver
	Logger *zap.Logger

	// Exchanger returns a client for shopDomain without an access token.
	Exchanger func(shopDomain string) TokenExchanger
}

// Install starts the OAuth grant for an authorized shop.
func (h Handlers) Install(w http.ResponseWriter, r *http.Request) {
	shopDomain := shopify.NormalizeShopDomain(r.URL.Query().Get("shop"))
	if !ValidShopDomain(shopDomain) {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing or invalid shop")
		return
	}
	if !h.Cfg.Shopify.ShopAuthorized(shopDomain) {
		h.Logger.Warn("install refused for unauthorized shop", zap.String("shop", shopDomain))
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "shop not authorized")
		return
	}

	state := randomHex(16)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.Cfg.AppEnv == "prod",
	})

	u := shopify.AuthorizeURL(shopDomain, h.Cfg.Shopify.APIKey, h.Cfg.Shopify.Scopes, h.Cfg.Shopify.RedirectURL, state)
	http.Redirect(w, r, u, http.StatusFound)
}

// Callback verifies the grant, exchanges the code for a permanent token and
// stores it with the granted scopes.
func (h Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	shopDomain := shopify.NormalizeShopDomain(qs.Get("shop"))
	code := strings.TrimSpace(qs.Get("code"))

	if !ValidShopDomain(shopDomain) || code == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing shop or code")
		return
	}
	if !h.Cfg.Shopify.ShopAuthorized(shopDomain) {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "shop not authorized")
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != qs.Get("state") {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid oauth state")
		return
	}

	if !VerifyOAuthHMAC(qs, h.Cfg.Shopify.APISecret) {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid hmac")
		return
	}

	tok, ok := h.Exchanger(shopDomain).ExchangeAccessToken(r.Context(), shopify.TokenRequest{
		ClientID:     h.Cfg.Shopify.APIKey,
		ClientSecret: h.Cfg.Shopify.APISecret,
		Code:         code,
	})
	if !ok {
		api.WriteError(w, http.StatusBadGateway, "UPSTREAM_FAILED", "token exchange failed")
		return
	}

	if _, err := h.Shops.Upsert(r.Context(), shopDomain, tok.AccessToken, tok.Scope); err != nil {
		h.Logger.Error("save shop", zap.String("shop", shopDomain), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to save shop")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})
	h.Logger.Info("shop installed", zap.String("shop", shopDomain), zap.String("scopes", tok.Scope))
	_, _ = w.Write([]byte("installed"))
}

// ValidShopDomain accepts {name}.myshopify.com hosts only.
func ValidShopDomain(shop string) bool {
	name, ok := strings.CutSuffix(shop, ".myshopify.com")
	if !ok || name == "" {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

func randomHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
