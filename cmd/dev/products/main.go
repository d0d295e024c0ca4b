// Command products fetches a shop's products at a filter level and prints
// the projection as JSON.
//
//	go run ./cmd/dev/products -shop bayard-dev.myshopify.com -level handles_by_record_ref -vendor Owlkids
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"bundly/internal/httpapi"
	"bundly/internal/shop"
	"bundly/pkg/config"
	"bundly/pkg/db"
	"bundly/pkg/logging"
	"bundly/pkg/shopify"
)

func main() {
	var (
		shopDomain = flag.String("shop", "", "shop domain (e.g. your-store.myshopify.com)")
		token      = flag.String("access-token", "", "shop access token (optional; if omitted, uses the stored token for the shop)")
		levelName  = flag.String("level", "basic", "filter level: raw, detailed, basic, handles_by_barcode, handles_by_record_ref, ids_by_record_ref or 0..5")
		vendors    = flag.String("vendor", "", "comma separated vendors to fetch one by one")
		query      = flag.String("query", "", "extra search criteria as a query string, e.g. published_status=published")
	)
	flag.Parse()

	if *shopDomain == "" {
		fmt.Fprintln(os.Stderr, "missing -shop")
		os.Exit(2)
	}
	level, err := shopify.ParseFilterLevel(*levelName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	criteria, err := url.ParseQuery(*query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -query: %v\n", err)
		os.Exit(2)
	}

	cfg := config.Load()
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	accessToken := strings.TrimSpace(*token)
	if accessToken == "" {
		pool, err := db.Open(ctx, cfg)
		if err != nil {
			logger.Fatal("db open", zap.Error(err))
		}
		s, err := shop.NewRepository(pool).FindByDomain(ctx, shopify.NormalizeShopDomain(*shopDomain))
		pool.Close()
		if err != nil {
			logger.Fatal("shop lookup", zap.String("shop", *shopDomain), zap.Error(err))
		}
		accessToken = s.AccessToken
	}

	clients, err := httpapi.NewClientFactory(cfg.Shopify, logger.Named("shopify"))
	if err != nil {
		logger.Fatal("shopify client config", zap.Error(err))
	}
	client := clients.For(*shopDomain, accessToken)

	var p shopify.Projection
	if v := strings.TrimSpace(*vendors); v != "" {
		p = client.ProductsByVendors(ctx, strings.Split(v, ","), level)
	} else {
		p = client.FetchAll(ctx, level, criteria)
	}
	logger.Info("products fetched",
		zap.String("shop", client.ShopDomain()),
		zap.Stringer("level", p.Level),
		zap.Int("count", p.Len()),
		zap.Int("skipped", p.Skipped),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		logger.Fatal("encode", zap.Error(err))
	}
}
