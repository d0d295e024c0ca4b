package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bundly/internal/api"
	"bundly/internal/shop"
	"bundly/pkg/shopify"
)

// Catalog is the read side of the store used by the merchant endpoints.
// *shopify.Client implements it.
type Catalog interface {
	FetchAll(ctx context.Context, level shopify.FilterLevel, criteria url.Values) shopify.Projection
	ProductsByVendors(ctx context.Context, vendors []string, level shopify.FilterLevel) shopify.Projection
	ProductsByTypes(ctx context.Context, productTypes []string, level shopify.FilterLevel) shopify.Projection
	ProductsByCollections(ctx context.Context, collectionIDs []string, level shopify.FilterLevel) shopify.Projection
	MainThemeID(ctx context.Context) int64
	UploadAsset(ctx context.Context, themeID int64, a shopify.Asset) bool
}

type Handlers struct {
	Catalog func(s *shop.Shop) Catalog
	Logger  *zap.Logger
}

// reserved query keys that are not product search criteria
var reserved = map[string]bool{"level": true, "shop": true}

type ProductsResponse struct {
	Level    string             `json:"level"`
	Count    int                `json:"count"`
	Skipped  int                `json:"skipped"`
	Products shopify.Projection `json:"products"`
}

// Products fetches the shop's products shaped at ?level=. Lists of
// vendor, product_type or collection_id (repeated or comma separated) fan
// out one full fetch per value; otherwise the remaining query parameters
// are passed through as search criteria.
func (h Handlers) Products(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	qs := r.URL.Query()
	level, err := shopify.ParseFilterLevel(qs.Get("level"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	c := h.Catalog(s)
	var p shopify.Projection
	switch {
	case len(list(qs, "vendor")) > 0:
		p = c.ProductsByVendors(r.Context(), list(qs, "vendor"), level)
	case len(list(qs, "product_type")) > 0:
		p = c.ProductsByTypes(r.Context(), list(qs, "product_type"), level)
	case len(list(qs, "collection_id")) > 0:
		p = c.ProductsByCollections(r.Context(), list(qs, "collection_id"), level)
	default:
		criteria := url.Values{}
		for k, vs := range qs {
			if !reserved[k] {
				criteria[k] = vs
			}
		}
		p = c.FetchAll(r.Context(), level, criteria)
	}

	if p.Skipped > 0 {
		h.Logger.Debug("products skipped by projection",
			zap.String("shop", s.Domain),
			zap.Stringer("level", p.Level),
			zap.Int("skipped", p.Skipped),
		)
	}
	api.WriteJSON(w, http.StatusOK, ProductsResponse{
		Level:    p.Level.String(),
		Count:    p.Len(),
		Skipped:  p.Skipped,
		Products: p,
	})
}

func (h Handlers) MainTheme(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	id := h.Catalog(s).MainThemeID(r.Context())
	if id == 0 {
		api.WriteError(w, http.StatusBadGateway, "UPSTREAM_FAILED", "main theme unavailable")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h Handlers) PutAsset(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	themeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || themeID <= 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid theme id")
		return
	}

	var a shopify.Asset
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	a.Key = strings.TrimSpace(a.Key)
	if a.Key == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing key")
		return
	}
	if a.Value == "" && a.Attachment == "" && a.SourceKey == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "one of value, attachment or source_key is required")
		return
	}

	if !h.Catalog(s).UploadAsset(r.Context(), themeID, a) {
		api.WriteError(w, http.StatusBadGateway, "UPSTREAM_FAILED", "asset upload failed")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"key": a.Key, "themeId": themeID})
}

func list(qs url.Values, key string) []string {
	var out []string
	for _, v := range qs[key] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
