package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string
	LogLevel       string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often a pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	// AppURL is the externally reachable URL of this app. Bundle images are
	// served from AppURL + BundleImagesPath.
	AppURL           string
	BundleImagesPath string

	Shopify ShopifyConfig
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type ShopifyConfig struct {
	APIKey      string
	APISecret   string
	Scopes      string
	RedirectURL string

	// AuthorizedShops lists the shop domains allowed to install the app.
	// Empty means any shop.
	AuthorizedShops []string

	RequestDelay   time.Duration
	RequestTimeout time.Duration
	PageWorkers    int

	// SKUSeparator splits variant SKUs; VendorSKUPositions names vendors
	// whose record reference is not the first SKU token.
	SKUSeparator       string
	VendorSKUPositions map[string]int
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "bundly"),
			User:     env("DB_USER", "bundly"),
			Password: env("DB_PASSWORD", "bundly"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		AppURL:           strings.TrimRight(os.Getenv("APP_URL"), "/"),
		BundleImagesPath: env("BUNDLE_IMAGES_PATH", "/bundleImages/"),
		Shopify: ShopifyConfig{
			APIKey:             os.Getenv("SHOPIFY_API_KEY"),
			APISecret:          os.Getenv("SHOPIFY_API_SECRET"),
			Scopes:             env("SHOPIFY_SCOPES", "read_products,write_products"),
			RedirectURL:        os.Getenv("SHOPIFY_REDIRECT_URL"),
			AuthorizedShops:    envList("SHOPIFY_AUTHORIZED_SHOPS", ""),
			RequestDelay:       envDuration("SHOPIFY_REQUEST_DELAY", 500*time.Millisecond),
			RequestTimeout:     envDuration("SHOPIFY_REQUEST_TIMEOUT", 10*time.Second),
			PageWorkers:        envInt("SHOPIFY_PAGE_WORKERS", 1),
			SKUSeparator:       os.Getenv("SHOPIFY_SKU_SEPARATOR"),
			VendorSKUPositions: envPositions("SHOPIFY_VENDOR_SKU_POSITIONS"),
		},
	}
}

// ShopAuthorized reports whether shop may install the app.
func (c ShopifyConfig) ShopAuthorized(shop string) bool {
	if len(c.AuthorizedShops) == 0 {
		return true
	}
	for _, s := range c.AuthorizedShops {
		if strings.EqualFold(s, shop) {
			return true
		}
	}
	return false
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// envPositions parses "vendor:position" pairs. Malformed pairs are skipped.
func envPositions(key string) map[string]int {
	out := map[string]int{}
	for _, pair := range envList(key, "") {
		i := strings.LastIndexByte(pair, ':')
		if i <= 0 {
			continue
		}
		pos, err := strconv.Atoi(strings.TrimSpace(pair[i+1:]))
		if err != nil || pos < 0 {
			continue
		}
		out[strings.TrimSpace(pair[:i])] = pos
	}
	return out
}
