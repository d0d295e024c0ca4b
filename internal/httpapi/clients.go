package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"bundly/pkg/config"
	"bundly/pkg/shopify"
)

// ClientFactory builds Shopify clients sharing one HTTP client, pacing
// policy and record reference table.
type ClientFactory struct {
	httpClient *http.Client
	delay      shopify.FixedDelay
	workers    int
	refs       *shopify.RecordRefResolver
	logger     *zap.Logger
}

func NewClientFactory(cfg config.ShopifyConfig, logger *zap.Logger) (*ClientFactory, error) {
	refs, err := shopify.NewRecordRefResolver(cfg.SKUSeparator, cfg.VendorSKUPositions)
	if err != nil {
		return nil, err
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = shopify.DefaultTimeout
	}
	return &ClientFactory{
		httpClient: &http.Client{Timeout: timeout},
		delay:      shopify.FixedDelay(cfg.RequestDelay),
		workers:    cfg.PageWorkers,
		refs:       refs,
		logger:     logger,
	}, nil
}

// For returns a client acting for shopDomain. accessToken may be empty for
// the OAuth token exchange.
func (f *ClientFactory) For(shopDomain, accessToken string) *shopify.Client {
	return shopify.NewClient(shopDomain, accessToken,
		shopify.WithHTTPClient(f.httpClient),
		shopify.WithPacer(f.delay),
		shopify.WithPageWorkers(f.workers),
		shopify.WithRecordRefs(f.refs),
		shopify.WithLogger(f.logger),
	)
}
