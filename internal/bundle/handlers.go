package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bundly/internal/api"
	"bundly/internal/shop"
	"bundly/pkg/shopify"
)

// Store is implemented by *Repository.
type Store interface {
	Create(ctx context.Context, shopID string, in Input) (*Bundle, error)
	Update(ctx context.Context, shopID, id string, in Input) (*Bundle, error)
	SetShopifyID(ctx context.Context, shopID, id string, shopifyID int64) error
	Get(ctx context.Context, shopID, id string) (*Bundle, error)
	List(ctx context.Context, shopID string) ([]Bundle, error)
	SoftDelete(ctx context.Context, shopID, id string) error
}

// Publisher pushes bundles to the shop's catalog. *shopify.Client
// implements it.
type Publisher interface {
	CreateProduct(ctx context.Context, p shopify.OutboundProduct) (int64, bool)
	UpdateProduct(ctx context.Context, productID int64, p shopify.OutboundProduct) bool
}

type Handlers struct {
	Repo Store

	// Publisher returns a store client acting for s.
	Publisher func(s *shop.Shop) Publisher

	ImageBaseURL string
	Metafields   []shopify.MetafieldSpec
	Logger       *zap.Logger
}

type Response struct {
	Bundle    *Bundle `json:"bundle"`
	Published bool    `json:"published"`
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	recs, err := h.Repo.List(r.Context(), s.ID)
	if err != nil {
		h.Logger.Error("list bundles", zap.String("shop", s.Domain), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if recs == nil {
		recs = []Bundle{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": recs})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	b, err := h.Repo.Get(r.Context(), s.ID, chi.URLParam(r, "id"))
	if !h.checkRepoErr(w, s, err) {
		return
	}
	api.WriteJSON(w, http.StatusOK, b)
}

// Create stores the bundle and publishes it. A failed publish keeps the
// stored bundle and reports published=false.
func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	b, err := h.Repo.Create(r.Context(), s.ID, in)
	if err != nil {
		h.Logger.Error("create bundle", zap.String("shop", s.Domain), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	published := false
	product := shopify.AssembleProduct(ToProductInput(*b, h.ImageBaseURL), h.Metafields)
	if id, ok := h.Publisher(s).CreateProduct(r.Context(), product); ok && id != 0 {
		if err := h.Repo.SetShopifyID(r.Context(), s.ID, b.ID, id); err != nil {
			h.Logger.Error("save bundle shopify id", zap.String("shop", s.Domain), zap.String("bundle_id", b.ID), zap.Error(err))
		} else {
			b.ShopifyID = &id
			published = true
		}
	}

	api.WriteJSON(w, http.StatusCreated, Response{Bundle: b, Published: published})
}

// Update saves the bundle and, when it was published before, republishes
// it.
func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	b, err := h.Repo.Update(r.Context(), s.ID, chi.URLParam(r, "id"), in)
	if !h.checkRepoErr(w, s, err) {
		return
	}

	published := false
	if b.ShopifyID != nil {
		product := shopify.AssembleProduct(ToProductInput(*b, h.ImageBaseURL), h.Metafields)
		published = h.Publisher(s).UpdateProduct(r.Context(), *b.ShopifyID, product)
	}
	api.WriteJSON(w, http.StatusOK, Response{Bundle: b, Published: published})
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	s := api.ShopFromContext(r.Context())
	if s == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing shop identity")
		return
	}

	err := h.Repo.SoftDelete(r.Context(), s.ID, chi.URLParam(r, "id"))
	if !h.checkRepoErr(w, s, err) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return in, false
	}
	if err := in.Normalize(); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return in, false
	}
	return in, true
}

func (h Handlers) checkRepoErr(w http.ResponseWriter, s *shop.Shop, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "bundle not found")
	default:
		h.Logger.Error("bundle store", zap.String("shop", s.Domain), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
	return false
}
