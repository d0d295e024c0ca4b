package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bundly/internal/shop"
	"bundly/pkg/config"
	"bundly/pkg/shopify"
)

// ShopStore is the part of shop.Repository the auth middleware needs.
type ShopStore interface {
	FindByDomain(ctx context.Context, domain string) (*shop.Shop, error)
	Upsert(ctx context.Context, domain, accessToken, scopes string) (*shop.Shop, error)
}

// ShopifySessionAuth validates embedded admin session tokens
// (Authorization: Bearer <JWT>) and attaches the installed shop to the
// request context.
//
// Outside prod a missing or invalid token falls back to MerchantAuth so the
// API can be driven with X-Shop-Domain during local development.
func ShopifySessionAuth(cfg config.Config, shops ShopStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fallback := MerchantAuth(shops)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				if cfg.AppEnv != "prod" {
					fallback.ServeHTTP(w, r)
					return
				}
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
				return
			}

			vs, err := shopify.VerifySessionToken(strings.TrimSpace(authz[7:]), cfg.Shopify.APIKey, cfg.Shopify.APISecret, time.Now())
			if err != nil {
				logger.Info("session token rejected", zap.Error(err))
				if cfg.AppEnv != "prod" && r.Header.Get("X-Shop-Domain") != "" {
					fallback.ServeHTTP(w, r)
					return
				}
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
				return
			}

			s, ok := resolveShop(w, r, shops, vs.ShopDomain)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithShop(r.Context(), s)))
		})
	}
}

// MerchantAuth identifies the shop by the X-Shop-Domain header or ?shop=
// query parameter. It trusts the caller and is only mounted outside prod.
func MerchantAuth(shops ShopStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shopDomain := strings.TrimSpace(r.Header.Get("X-Shop-Domain"))
			if shopDomain == "" {
				shopDomain = strings.TrimSpace(r.URL.Query().Get("shop"))
			}
			if shopDomain == "" {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
				return
			}

			s, ok := resolveShop(w, r, shops, shopify.NormalizeShopDomain(shopDomain))
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(WithShop(r.Context(), s)))
		})
	}
}

// resolveShop loads the installed shop. An offline token sent by the
// embedded app in X-Shopify-Access-Token registers an unknown shop or
// refreshes a stale token.
func resolveShop(w http.ResponseWriter, r *http.Request, shops ShopStore, domain string) (*shop.Shop, bool) {
	accessToken := strings.TrimSpace(r.Header.Get("X-Shopify-Access-Token"))

	s, err := shops.FindByDomain(r.Context(), domain)
	if err != nil {
		if accessToken == "" {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown shop")
			return nil, false
		}
		s, err = shops.Upsert(r.Context(), domain, accessToken, "")
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to register shop")
			return nil, false
		}
		return s, true
	}

	if accessToken != "" && s.AccessToken != accessToken {
		if updated, err := shops.Upsert(r.Context(), domain, accessToken, ""); err == nil {
			s = updated
		}
	}
	return s, true
}
