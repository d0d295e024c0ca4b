package shopify

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	// SKUSuffix is appended to every assembled SKU; fulfillment scripts
	// downstream match on it.
	SKUSuffix = "n0nn1nWWW"

	// MetafieldNA replaces empty metafield values.
	MetafieldNA = "N/A"

	DefaultFulfillmentService  = "manual"
	DefaultInventoryManagement = "shopify"
	DefaultInventoryPolicy     = "deny"
	DefaultWeightUnit          = "lb"
	DefaultMetafieldValueType  = "string"
)

// DefaultWeight helps shipping rate calculation when no weight is known.
const DefaultWeight = 1.0

// ProductInput is the application-side description of a product to create
// or update.
type ProductInput struct {
	Title          string
	Description    string
	Keywords       string
	Vendor         string
	Type           string
	TemplateSuffix string
	Images         []string
	Variants       []VariantInput
	Metafields     MetafieldValues
}

// VariantInput leaves optional fields nil to get the store defaults.
type VariantInput struct {
	Title            string
	ISBN13           string
	Price            decimal.Decimal
	RequiresShipping bool
	RecordReference  string

	CompareAtPrice      *decimal.Decimal
	FulfillmentService  *string
	InventoryManagement *string
	InventoryPolicy     *string
	Taxable             *bool
	Weight              *float64
	WeightUnit          *string
}

type OutboundProduct struct {
	Title          string            `json:"title"`
	BodyHTML       string            `json:"body_html"`
	Vendor         string            `json:"vendor"`
	ProductType    string            `json:"product_type"`
	Tags           string            `json:"tags"`
	TemplateSuffix string            `json:"template_suffix,omitempty"`
	Images         []OutboundImage   `json:"images"`
	Variants       []OutboundVariant `json:"variants"`
	Metafields     []Metafield       `json:"metafields"`
}

type OutboundImage struct {
	Src string `json:"src"`
}

type OutboundVariant struct {
	Title               string           `json:"title"`
	Barcode             string           `json:"barcode"`
	Price               decimal.Decimal  `json:"price"`
	CompareAtPrice      *decimal.Decimal `json:"compare_at_price,omitempty"`
	SKU                 string           `json:"sku"`
	FulfillmentService  string           `json:"fulfillment_service"`
	InventoryManagement string           `json:"inventory_management"`
	InventoryPolicy     string           `json:"inventory_policy"`
	RequiresShipping    bool             `json:"requires_shipping"`
	Taxable             bool             `json:"taxable"`
	Weight              float64          `json:"weight"`
	WeightUnit          string           `json:"weight_unit"`
}

type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	ValueType string `json:"value_type"`
}

// MetafieldSpec describes the keys stored under one namespace. Numbered
// namespaces repeat their keys once per value entry as key-1, key-2, ...
type MetafieldSpec struct {
	Namespace string
	Keys      []string
	Numbered  bool
	ValueType string
}

// MetafieldValues feeds AssembleMetafields. Plain holds values of
// non-numbered keys by key; Series holds the entries of numbered
// namespaces by namespace.
type MetafieldValues struct {
	Plain  map[string]string
	Series map[string][]MetafieldEntry
}

// MetafieldEntry is one element of a numbered series: either one value
// shared by every key, or a value per key.
type MetafieldEntry struct {
	Value  string
	Fields map[string]string
}

func (e MetafieldEntry) valueFor(key string) string {
	if e.Fields != nil {
		return e.Fields[key]
	}
	return e.Value
}

func AssembleProduct(in ProductInput, specs []MetafieldSpec) OutboundProduct {
	out := OutboundProduct{
		Title:          in.Title,
		BodyHTML:       in.Description,
		Vendor:         in.Vendor,
		ProductType:    in.Type,
		Tags:           in.Keywords,
		TemplateSuffix: in.TemplateSuffix,
		Images:         AssembleImages(in.Images),
		Variants:       make([]OutboundVariant, 0, len(in.Variants)),
		Metafields:     AssembleMetafields(specs, in.Metafields),
	}
	for _, v := range in.Variants {
		out.Variants = append(out.Variants, AssembleVariant(v))
	}
	return out
}

// AssembleImages wraps each URL for Shopify to download. URLs are not checked.
func AssembleImages(urls []string) []OutboundImage {
	out := make([]OutboundImage, 0, len(urls))
	for _, u := range urls {
		out = append(out, OutboundImage{Src: u})
	}
	return out
}

func AssembleVariant(in VariantInput) OutboundVariant {
	out := OutboundVariant{
		Title:               in.Title,
		Barcode:             in.ISBN13,
		Price:               in.Price,
		SKU:                 in.RecordReference + SKUSuffix,
		FulfillmentService:  valueOr(in.FulfillmentService, DefaultFulfillmentService),
		InventoryManagement: valueOr(in.InventoryManagement, DefaultInventoryManagement),
		InventoryPolicy:     valueOr(in.InventoryPolicy, DefaultInventoryPolicy),
		RequiresShipping:    in.RequiresShipping,
		Taxable:             valueOr(in.Taxable, true),
		Weight:              valueOr(in.Weight, DefaultWeight),
		WeightUnit:          valueOr(in.WeightUnit, DefaultWeightUnit),
	}
	if in.CompareAtPrice != nil && !in.CompareAtPrice.IsZero() {
		p := *in.CompareAtPrice
		out.CompareAtPrice = &p
	}
	return out
}

// AssembleMetafields builds metafields in the order of specs. For a numbered
// namespace every entry yields all of the namespace's keys with the same
// 1-based index before the next entry starts.
func AssembleMetafields(specs []MetafieldSpec, values MetafieldValues) []Metafield {
	out := []Metafield{}
	for _, spec := range specs {
		vt := spec.ValueType
		if vt == "" {
			vt = DefaultMetafieldValueType
		}
		if !spec.Numbered {
			for _, key := range spec.Keys {
				out = append(out, metafield(spec.Namespace, key, values.Plain[key], vt))
			}
			continue
		}
		for i, entry := range values.Series[spec.Namespace] {
			n := strconv.Itoa(i + 1)
			for _, key := range spec.Keys {
				out = append(out, metafield(spec.Namespace, key+"-"+n, entry.valueFor(key), vt))
			}
		}
	}
	return out
}

func metafield(namespace, key, value, valueType string) Metafield {
	if value == "" {
		value = MetafieldNA
	}
	return Metafield{Namespace: namespace, Key: key, Value: value, ValueType: valueType}
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
