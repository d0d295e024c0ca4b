package bundle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bundly/internal/api"
	"bundly/internal/shop"
	"bundly/pkg/shopify"
)

type fakeStore struct {
	bundles   map[string]*Bundle
	shopifyID map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{bundles: map[string]*Bundle{}, shopifyID: map[string]int64{}}
}

func (f *fakeStore) Create(_ context.Context, shopID string, in Input) (*Bundle, error) {
	b := &Bundle{ID: "b1", ShopID: shopID, Title: in.Title, Description: in.Description, Image: in.Image, Price: in.Price}
	for _, p := range in.Products {
		b.Products = append(b.Products, Product{Title: p.Title, SKU: p.SKU, Vendor: p.Vendor, Price: p.Price})
	}
	f.bundles[b.ID] = b
	return b, nil
}

func (f *fakeStore) Update(_ context.Context, shopID, id string, in Input) (*Bundle, error) {
	b, ok := f.bundles[id]
	if !ok || b.ShopID != shopID {
		return nil, ErrNotFound
	}
	b.Title, b.Price = in.Title, in.Price
	return b, nil
}

func (f *fakeStore) SetShopifyID(_ context.Context, _, id string, shopifyID int64) error {
	f.shopifyID[id] = shopifyID
	return nil
}

func (f *fakeStore) Get(_ context.Context, shopID, id string) (*Bundle, error) {
	b, ok := f.bundles[id]
	if !ok || b.ShopID != shopID {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) List(_ context.Context, shopID string) ([]Bundle, error) {
	var out []Bundle
	for _, b := range f.bundles {
		if b.ShopID == shopID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) SoftDelete(_ context.Context, shopID, id string) error {
	if _, err := f.Get(context.Background(), shopID, id); err != nil {
		return err
	}
	delete(f.bundles, id)
	return nil
}

type fakePublisher struct {
	createID int64
	ok       bool
	created  []shopify.OutboundProduct
	updated  map[int64]shopify.OutboundProduct
}

func (p *fakePublisher) CreateProduct(_ context.Context, op shopify.OutboundProduct) (int64, bool) {
	p.created = append(p.created, op)
	return p.createID, p.ok
}

func (p *fakePublisher) UpdateProduct(_ context.Context, id int64, op shopify.OutboundProduct) bool {
	if p.updated == nil {
		p.updated = map[int64]shopify.OutboundProduct{}
	}
	p.updated[id] = op
	return p.ok
}

var testShop = &shop.Shop{ID: "s1", Domain: "bayard-dev.myshopify.com", AccessToken: "tok"}

func newRouter(store Store, pub *fakePublisher) http.Handler {
	h := Handlers{
		Repo:         store,
		Publisher:    func(*shop.Shop) Publisher { return pub },
		ImageBaseURL: "https://bundly.example.com/bundleImages/",
		Metafields:   MetafieldSpecs,
		Logger:       zap.NewNop(),
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(api.WithShop(r.Context(), testShop)))
		})
	})
	r.Get("/bundles", h.List)
	r.Post("/bundles", h.Create)
	r.Get("/bundles/{id}", h.Get)
	r.Put("/bundles/{id}", h.Update)
	r.Delete("/bundles/{id}", h.Delete)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreate_PublishesAndStoresShopifyID(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{createID: 9001, ok: true}

	rec := do(t, newRouter(store, pub), http.MethodPost, "/bundles",
		`{"title":" Spring Reads ","description":"three books","image":"spring.png","price":"24.50","products":[{"title":"Owl Book","sku":"OWL123","vendor":"Owlkids","price":"12.95"}]}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Published)
	require.NotNil(t, resp.Bundle.ShopifyID)
	assert.EqualValues(t, 9001, *resp.Bundle.ShopifyID)
	assert.EqualValues(t, 9001, store.shopifyID["b1"])

	require.Len(t, pub.created, 1)
	p := pub.created[0]
	assert.Equal(t, "Spring Reads", p.Title)
	assert.Equal(t, ProductKind, p.Vendor)
	assert.Equal(t, ProductKind, p.ProductType)
	assert.Equal(t, ProductKind, p.Tags)
	assert.Equal(t, []shopify.OutboundImage{{Src: "https://bundly.example.com/bundleImages/spring.png"}}, p.Images)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "N/A", p.Variants[0].Barcode)
	assert.Equal(t, "N/A"+shopify.SKUSuffix, p.Variants[0].SKU)
	assert.True(t, p.Variants[0].RequiresShipping)
	assert.True(t, decimal.RequireFromString("24.5").Equal(p.Variants[0].Price))

	assert.Equal(t, []shopify.Metafield{
		{Namespace: ItemsNamespace, Key: "title-1", Value: "Owl Book", ValueType: "string"},
		{Namespace: ItemsNamespace, Key: "sku-1", Value: "OWL123", ValueType: "string"},
		{Namespace: ItemsNamespace, Key: "vendor-1", Value: "Owlkids", ValueType: "string"},
	}, p.Metafields)
}

func TestCreate_PublishFailureKeepsBundle(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{ok: false}

	rec := do(t, newRouter(store, pub), http.MethodPost, "/bundles", `{"title":"Spring","price":"10"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Published)
	assert.Nil(t, resp.Bundle.ShopifyID)
	assert.Contains(t, store.bundles, "b1")
	assert.Empty(t, store.shopifyID)
}

func TestCreate_Validation(t *testing.T) {
	router := newRouter(newFakeStore(), &fakePublisher{ok: true})

	for name, body := range map[string]string{
		"bad json":       `{`,
		"no title":       `{"title":"  "}`,
		"long title":     `{"title":"` + strings.Repeat("x", MaxTitleLen+1) + `"}`,
		"long desc":      `{"title":"t","description":"` + strings.Repeat("d", MaxDescriptionLen+1) + `"}`,
		"negative price": `{"title":"t","price":"-1"}`,
		"image path":     `{"title":"t","image":"../etc/passwd"}`,
		"long vendor":    `{"title":"t","products":[{"title":"p","vendor":"` + strings.Repeat("v", MaxVendorLen+1) + `"}]}`,
	} {
		rec := do(t, router, http.MethodPost, "/bundles", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED", name)
	}
}

func TestUpdate_RepublishesOnlyPublishedBundles(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{ok: true}
	id := int64(77)
	store.bundles["b1"] = &Bundle{ID: "b1", ShopID: "s1", Title: "Old", ShopifyID: &id}
	store.bundles["b2"] = &Bundle{ID: "b2", ShopID: "s1", Title: "Draft"}
	router := newRouter(store, pub)

	rec := do(t, router, http.MethodPut, "/bundles/b1", `{"title":"New","price":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"published":true`)
	assert.Equal(t, "New", pub.updated[77].Title)

	rec = do(t, router, http.MethodPut, "/bundles/b2", `{"title":"Still draft"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"published":false`)
	assert.Len(t, pub.updated, 1)

	rec = do(t, router, http.MethodPut, "/bundles/missing", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListGetDelete(t *testing.T) {
	store := newFakeStore()
	store.bundles["b1"] = &Bundle{ID: "b1", ShopID: "s1", Title: "Mine"}
	store.bundles["b9"] = &Bundle{ID: "b9", ShopID: "other", Title: "Theirs"}
	router := newRouter(store, &fakePublisher{})

	rec := do(t, router, http.MethodGet, "/bundles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []Bundle `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Mine", list.Items[0].Title)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/bundles/b9", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/bundles/b1", "").Code)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/bundles/b1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/bundles/b1", "").Code)

	rec = do(t, router, http.MethodGet, "/bundles", "")
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestToProductInput_NoImage(t *testing.T) {
	in := ToProductInput(Bundle{Title: "T", Price: decimal.NewFromInt(3)}, "https://x/")
	assert.Empty(t, in.Images)
	assert.Equal(t, "T", in.Variants[0].Title)
}

func TestImageBaseURL(t *testing.T) {
	assert.Equal(t, "https://bundly.example.com/bundleImages/", ImageBaseURL("https://bundly.example.com/", "/bundleImages/"))
	assert.Equal(t, "https://bundly.example.com/img/", ImageBaseURL("https://bundly.example.com", "img"))
}
