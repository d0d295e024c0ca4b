package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxPageSize is the largest page products.json serves.
const MaxPageSize = 250

// ProductCount asks products/count.json how many products match criteria.
// Pagination keys are ignored. ok is false when the count is unavailable.
func (c *Client) ProductCount(ctx context.Context, criteria url.Values) (count int, ok bool) {
	q := cloneValues(criteria)
	q.Del("limit")
	q.Del("page")

	endpoint := "products/count.json"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	env := c.Execute(ctx, http.MethodGet, endpoint, nil)
	if !env.Success() {
		return 0, false
	}
	var body struct {
		Count *int `json:"count"`
	}
	if err := env.Decode(&body); err != nil || body.Count == nil {
		c.logger.Warn("shopify products count unreadable", zap.String("shop", c.shopDomain), zap.ByteString("response", env.Response))
		return 0, false
	}
	return *body.Count, true
}

// PageCount is the number of page requests needed for total products. It is
// never below one: an unknown or zero total still issues the first page.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = MaxPageSize
	}
	n := (total + pageSize - 1) / pageSize
	if n < 1 {
		return 1
	}
	return n
}

// FetchAll fetches every product matching criteria and shapes the full set
// for level once all pages are in.
//
// A failed count degrades to a single page. A failed page is logged and its
// products are left out; the remaining pages are still fetched, so the
// result can be incomplete.
func (c *Client) FetchAll(ctx context.Context, level FilterLevel, criteria url.Values) Projection {
	pageSize := pageSizeOf(criteria)

	total, ok := c.ProductCount(ctx, criteria)
	pages := 1
	if ok {
		pages = PageCount(total, pageSize)
	} else {
		c.logger.Info("shopify products count failed, fetching a single page", zap.String("shop", c.shopDomain))
	}

	results := make([][]json.RawMessage, pages)
	fetch := func(page int) {
		results[page-1] = c.fetchPage(ctx, criteria, pageSize, page)
	}

	if c.pageWorkers < 2 || pages == 1 {
		for page := 1; page <= pages; page++ {
			if ctx.Err() != nil {
				break
			}
			fetch(page)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.pageWorkers)
		for page := 1; page <= pages; page++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				fetch(page)
				return nil
			})
		}
		_ = g.Wait()
	}

	var records []json.RawMessage
	for _, r := range results {
		records = append(records, r...)
	}
	return Project(records, level, c.refs)
}

func (c *Client) fetchPage(ctx context.Context, criteria url.Values, pageSize, page int) []json.RawMessage {
	q := cloneValues(criteria)
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))

	env := c.Execute(ctx, http.MethodGet, "products.json?"+q.Encode(), nil)
	if !env.Success() {
		c.logger.Warn("shopify products page omitted", zap.String("shop", c.shopDomain), zap.Int("page", page))
		return nil
	}
	var body productsPage
	if err := env.Decode(&body); err != nil {
		c.logger.Warn("shopify products page unreadable",
			zap.String("shop", c.shopDomain),
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil
	}
	return body.Products
}

// ProductsByVendors runs FetchAll once per vendor and concatenates the
// results without deduplication.
func (c *Client) ProductsByVendors(ctx context.Context, vendors []string, level FilterLevel) Projection {
	return c.fetchEach(ctx, "vendor", vendors, level)
}

func (c *Client) ProductsByTypes(ctx context.Context, productTypes []string, level FilterLevel) Projection {
	return c.fetchEach(ctx, "product_type", productTypes, level)
}

func (c *Client) ProductsByCollections(ctx context.Context, collectionIDs []string, level FilterLevel) Projection {
	return c.fetchEach(ctx, "collection_id", collectionIDs, level)
}

func (c *Client) fetchEach(ctx context.Context, key string, values []string, level FilterLevel) Projection {
	out := Projection{Level: level}
	for _, v := range values {
		if ctx.Err() != nil {
			break
		}
		p := c.FetchAll(ctx, level, url.Values{key: {v}})
		out.Level = p.Level
		out.Append(p)
	}
	return out
}

// pageSizeOf honours a caller supplied limit, capped at MaxPageSize.
func pageSizeOf(criteria url.Values) int {
	if s := criteria.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			if n > MaxPageSize {
				return MaxPageSize
			}
			return n
		}
	}
	return MaxPageSize
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
