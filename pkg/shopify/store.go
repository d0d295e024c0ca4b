package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

type productPayload struct {
	Product OutboundProduct `json:"product"`
}

// CreateProduct posts a new product and returns its Shopify id.
func (c *Client) CreateProduct(ctx context.Context, p OutboundProduct) (int64, bool) {
	env := c.Execute(ctx, http.MethodPost, "products.json", productPayload{Product: p})
	if !env.Success() {
		return 0, false
	}
	var body struct {
		Product struct {
			ID int64 `json:"id"`
		} `json:"product"`
	}
	if err := env.Decode(&body); err != nil {
		c.logger.Warn("shopify created product unreadable", zap.String("shop", c.shopDomain), zap.Error(err))
	}
	return body.Product.ID, true
}

func (c *Client) UpdateProduct(ctx context.Context, productID int64, p OutboundProduct) bool {
	env := c.Execute(ctx, http.MethodPut, fmt.Sprintf("products/%d.json", productID), productPayload{Product: p})
	return env.Success()
}

// MainThemeID returns the id of the published theme, or 0.
func (c *Client) MainThemeID(ctx context.Context) int64 {
	q := url.Values{"role": {"main"}}
	env := c.Execute(ctx, http.MethodGet, "themes.json?"+q.Encode(), nil)
	if !env.Success() {
		return 0
	}
	var body struct {
		Themes []struct {
			ID int64 `json:"id"`
		} `json:"themes"`
	}
	if err := env.Decode(&body); err != nil || len(body.Themes) == 0 {
		c.logger.Warn("shopify main theme missing", zap.String("shop", c.shopDomain), zap.ByteString("response", env.Response))
		return 0
	}
	return body.Themes[0].ID
}

// Asset is a theme file. Set Value for text content or Attachment for
// base64 encoded binary content.
type Asset struct {
	Key        string `json:"key"`
	Value      string `json:"value,omitempty"`
	Attachment string `json:"attachment,omitempty"`
	SourceKey  string `json:"source_key,omitempty"`
}

// UploadAsset creates or replaces an asset of the given theme.
func (c *Client) UploadAsset(ctx context.Context, themeID int64, a Asset) bool {
	env := c.Execute(ctx, http.MethodPut, fmt.Sprintf("themes/%d/assets.json", themeID), map[string]Asset{"asset": a})
	return env.Success()
}
