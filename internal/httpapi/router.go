package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"bundly/internal/api"
	"bundly/internal/auth"
	"bundly/internal/bundle"
	"bundly/internal/catalog"
	"bundly/internal/shop"
	"bundly/pkg/config"
)

type Dependencies struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Logger  *zap.Logger
	Shopify *ClientFactory
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	shopsRepo := shop.NewRepository(deps.DB)
	authHandlers := auth.Handlers{
		Cfg:    deps.Cfg,
		Shops:  shopsRepo,
		Logger: deps.Logger,
		Exchanger: func(shopDomain string) auth.TokenExchanger {
			return deps.Shopify.For(shopDomain, "")
		},
	}
	bundleHandlers := bundle.Handlers{
		Repo: bundle.NewRepository(deps.DB),
		Publisher: func(s *shop.Shop) bundle.Publisher {
			return deps.Shopify.For(s.Domain, s.AccessToken)
		},
		ImageBaseURL: bundle.ImageBaseURL(deps.Cfg.AppURL, deps.Cfg.BundleImagesPath),
		Metafields:   bundle.MetafieldSpecs,
		Logger:       deps.Logger,
	}
	catalogHandlers := catalog.Handlers{
		Catalog: func(s *shop.Shop) catalog.Catalog {
			return deps.Shopify.For(s.Domain, s.AccessToken)
		},
		Logger: deps.Logger,
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/auth/install", authHandlers.Install)
		r.Get("/auth/callback", authHandlers.Callback)

		// Merchant admin APIs (shop-scoped)
		r.Group(func(r chi.Router) {
			r.Use(api.ShopifySessionAuth(deps.Cfg, shopsRepo, deps.Logger))

			r.Get("/products", catalogHandlers.Products)
			r.Get("/themes/main", catalogHandlers.MainTheme)
			r.Put("/themes/{id}/assets", catalogHandlers.PutAsset)

			r.Get("/bundles", bundleHandlers.List)
			r.Post("/bundles", bundleHandlers.Create)
			r.Get("/bundles/{id}", bundleHandlers.Get)
			r.Put("/bundles/{id}", bundleHandlers.Update)
			r.Delete("/bundles/{id}", bundleHandlers.Delete)
		})
	})

	return r
}
