package shopify

import (
	"bytes"
	"encoding/json"
)

// Product is a product record as returned by GET products.json. Timestamps
// stay as sent (ISO 8601) so projections can cut them without reparsing.
type Product struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	BodyHTML       string    `json:"body_html"`
	Vendor         string    `json:"vendor"`
	ProductType    string    `json:"product_type"`
	Handle         string    `json:"handle"`
	Tags           string    `json:"tags"`
	TemplateSuffix *string   `json:"template_suffix"`
	Image          *Image    `json:"image"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
	PublishedAt    *string   `json:"published_at"`
	Variants       []Variant `json:"variants"`
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type Variant struct {
	ID                  int64           `json:"id"`
	ProductID           int64           `json:"product_id"`
	Title               string          `json:"title"`
	Price               Amount          `json:"price"`
	SKU                 string          `json:"sku"`
	Barcode             *string         `json:"barcode"`
	RequiresShipping    bool            `json:"requires_shipping"`
	InventoryManagement *string         `json:"inventory_management"`
	InventoryQuantity   int             `json:"inventory_quantity"`
	InventoryItemID     int64           `json:"inventory_item_id"`
	CreatedAt           string          `json:"created_at"`
}

type productsPage struct {
	Products []json.RawMessage `json:"products"`
}

// Amount is a price exactly as the store sent it. Older API versions send
// numbers, newer ones strings; both are kept verbatim and null becomes "".
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(b)
	return nil
}
