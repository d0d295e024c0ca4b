package bundle

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"bundly/pkg/shopify"
)

const (
	MaxTitleLen       = 255
	MaxDescriptionLen = 200
	MaxVendorLen      = 100

	// ProductKind is used as vendor, product type and tags of every
	// published bundle.
	ProductKind = "Bundle"
)

type Bundle struct {
	ID            string          `json:"id"`
	ShopID        string          `json:"shopId"`
	ShopifyID     *int64          `json:"shopifyId"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	Discrepancies int             `json:"discrepancies"`
	Products      []Product       `json:"products"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

// Product is one catalog item sold as part of a bundle.
type Product struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	SKU    string          `json:"sku"`
	Vendor string          `json:"vendor"`
	Price  decimal.Decimal `json:"price"`
}

type Input struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	Discrepancies int             `json:"discrepancies"`
	Products      []ProductInput  `json:"products"`
}

type ProductInput struct {
	Title  string          `json:"title"`
	SKU    string          `json:"sku"`
	Vendor string          `json:"vendor"`
	Price  decimal.Decimal `json:"price"`
}

// ItemsNamespace holds one numbered metafield series per bundled product.
const ItemsNamespace = "bundle_items"

// MetafieldSpecs describe the metafields written for every bundle.
var MetafieldSpecs = []shopify.MetafieldSpec{
	{Namespace: ItemsNamespace, Keys: []string{"title", "sku", "vendor"}, Numbered: true},
}

var ErrValidation = errors.New("validation failed")

// Normalize trims the input and checks the column limits of the bundle
// tables.
func (in *Input) Normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)

	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case utf8.RuneCountInString(in.Title) > MaxTitleLen:
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, MaxTitleLen)
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLen:
		return fmt.Errorf("%w: description exceeds %d characters", ErrValidation, MaxDescriptionLen)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	case in.Discrepancies < 0:
		return fmt.Errorf("%w: discrepancies must not be negative", ErrValidation)
	case strings.ContainsAny(in.Image, "/\\"):
		return fmt.Errorf("%w: image must be a file name", ErrValidation)
	}

	for i := range in.Products {
		p := &in.Products[i]
		p.Title = strings.TrimSpace(p.Title)
		p.SKU = strings.TrimSpace(p.SKU)
		p.Vendor = strings.TrimSpace(p.Vendor)
		if p.Title == "" {
			return fmt.Errorf("%w: products[%d]: title is required", ErrValidation, i)
		}
		if utf8.RuneCountInString(p.Vendor) > MaxVendorLen {
			return fmt.Errorf("%w: products[%d]: vendor exceeds %d characters", ErrValidation, i, MaxVendorLen)
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("%w: products[%d]: price must not be negative", ErrValidation, i)
		}
	}
	return nil
}

// ToProductInput maps a bundle onto the single-variant product published
// to the store. The image is served by this app from imageBaseURL.
func ToProductInput(b Bundle, imageBaseURL string) shopify.ProductInput {
	in := shopify.ProductInput{
		Title:       b.Title,
		Description: b.Description,
		Keywords:    ProductKind,
		Vendor:      ProductKind,
		Type:        ProductKind,
		Variants: []shopify.VariantInput{{
			Title:            b.Title,
			ISBN13:           shopify.MetafieldNA,
			Price:            b.Price,
			RequiresShipping: true,
			RecordReference:  shopify.MetafieldNA,
		}},
	}
	if b.Image != "" {
		in.Images = []string{imageBaseURL + b.Image}
	}
	if len(b.Products) > 0 {
		items := make([]shopify.MetafieldEntry, 0, len(b.Products))
		for _, p := range b.Products {
			items = append(items, shopify.MetafieldEntry{Fields: map[string]string{
				"title":  p.Title,
				"sku":    p.SKU,
				"vendor": p.Vendor,
			}})
		}
		in.Metafields.Series = map[string][]shopify.MetafieldEntry{ItemsNamespace: items}
	}
	return in
}

// ImageBaseURL joins the public app URL and the bundle images path.
func ImageBaseURL(appURL, imagesPath string) string {
	return strings.TrimRight(appURL, "/") + "/" + strings.Trim(imagesPath, "/") + "/"
}
