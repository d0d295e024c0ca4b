package shopify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FilterLevel selects how fetched products are shaped. The numeric values
// match the codes merchants already use in saved links.
type FilterLevel int

const (
	LevelRaw FilterLevel = iota
	LevelDetailed
	LevelBasic
	LevelHandlesByBarcode
	LevelHandlesByRecordRef
	LevelIDsByRecordRef
)

const DefaultFilterLevel = LevelBasic

var levelNames = map[FilterLevel]string{
	LevelRaw:                "raw",
	LevelDetailed:           "detailed",
	LevelBasic:              "basic",
	LevelHandlesByBarcode:   "handles_by_barcode",
	LevelHandlesByRecordRef: "handles_by_record_ref",
	LevelIDsByRecordRef:     "ids_by_record_ref",
}

func (l FilterLevel) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// ParseFilterLevel accepts a level name or its numeric code. Empty input
// yields DefaultFilterLevel.
func ParseFilterLevel(s string) (FilterLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultFilterLevel, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := levelNames[FilterLevel(n)]; ok {
			return FilterLevel(n), nil
		}
		return 0, fmt.Errorf("unknown filter level: %s", s)
	}
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown filter level: %s", s)
}

type DetailedProduct struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	TemplateSuffix *string           `json:"template_suffix"`
	BodyHTML       string            `json:"body_html"`
	Vendor         string            `json:"vendor"`
	ProductType    string            `json:"product_type"`
	Handle         string            `json:"handle"`
	Tags           string            `json:"tags"`
	Image          string            `json:"image"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
	PublishedAt    string            `json:"published_at"`
	Variants       []DetailedVariant `json:"variants"`
}

type DetailedVariant struct {
	ID                  int64           `json:"id"`
	Price               Amount          `json:"price"`
	Title               string          `json:"title"`
	CreatedAt           string          `json:"created_at"`
	RecordReference     string          `json:"record_reference,omitempty"`
	Barcode             *string         `json:"barcode"`
	RequiresShipping    bool            `json:"requires_shipping"`
	InventoryManagement *string         `json:"inventory_management"`
	InventoryQuantity   int             `json:"inventory_quantity"`
}

// BasicProduct is a product collapsed onto its first variant.
type BasicProduct struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Handle          string          `json:"handle"`
	Vendor          string          `json:"vendor"`
	ProductType     string          `json:"product_type"`
	Tags            string          `json:"tags"`
	VariantID       int64           `json:"variant_id"`
	Price           Amount          `json:"price"`
	Barcode         *string         `json:"barcode"`
	RecordReference string          `json:"record_reference,omitempty"`
	InventoryItemID int64           `json:"inventory_item_id"`
}

// Projection holds products shaped for one FilterLevel. Only the field
// matching Level is populated.
type Projection struct {
	Level    FilterLevel
	Raw      []json.RawMessage
	Detailed []DetailedProduct
	Basic    []BasicProduct
	Handles  map[string]string
	IDs      map[string]int64

	// Skipped counts records left out: undecodable, or without the first
	// variant the level needs.
	Skipped int
}

func (p Projection) Len() int {
	switch p.Level {
	case LevelDetailed:
		return len(p.Detailed)
	case LevelBasic:
		return len(p.Basic)
	case LevelHandlesByBarcode, LevelHandlesByRecordRef:
		return len(p.Handles)
	case LevelIDsByRecordRef:
		return len(p.IDs)
	default:
		return len(p.Raw)
	}
}

// Append concatenates o onto p. Map keys already present are overwritten.
func (p *Projection) Append(o Projection) {
	p.Raw = append(p.Raw, o.Raw...)
	p.Detailed = append(p.Detailed, o.Detailed...)
	p.Basic = append(p.Basic, o.Basic...)
	if len(o.Handles) > 0 {
		if p.Handles == nil {
			p.Handles = make(map[string]string, len(o.Handles))
		}
		for k, v := range o.Handles {
			p.Handles[k] = v
		}
	}
	if len(o.IDs) > 0 {
		if p.IDs == nil {
			p.IDs = make(map[string]int64, len(o.IDs))
		}
		for k, v := range o.IDs {
			p.IDs[k] = v
		}
	}
	p.Skipped += o.Skipped
}

// MarshalJSON writes only the active shape: a list for raw, detailed and
// basic, an object for the index levels.
func (p Projection) MarshalJSON() ([]byte, error) {
	switch p.Level {
	case LevelDetailed:
		return json.Marshal(nonNil(p.Detailed))
	case LevelBasic:
		return json.Marshal(nonNil(p.Basic))
	case LevelHandlesByBarcode, LevelHandlesByRecordRef:
		if p.Handles == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(p.Handles)
	case LevelIDsByRecordRef:
		if p.IDs == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(p.IDs)
	default:
		return json.Marshal(nonNil(p.Raw))
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var escapedNewlines = strings.NewReplacer(`\r`, "", `\n`, "")

// Project shapes raw product records for level. Unknown levels return the
// records unchanged, like LevelRaw.
func Project(records []json.RawMessage, level FilterLevel, refs *RecordRefResolver) Projection {
	if refs == nil {
		refs = DefaultRecordRefResolver()
	}
	out := Projection{Level: level}

	switch level {
	case LevelDetailed, LevelBasic, LevelHandlesByBarcode, LevelHandlesByRecordRef, LevelIDsByRecordRef:
	default:
		out.Level = LevelRaw
		out.Raw = append([]json.RawMessage(nil), records...)
		return out
	}

	for _, raw := range records {
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			out.Skipped++
			continue
		}

		if level == LevelDetailed {
			out.Detailed = append(out.Detailed, detailed(p, refs))
			continue
		}

		if len(p.Variants) == 0 {
			out.Skipped++
			continue
		}
		first := p.Variants[0]

		switch level {
		case LevelBasic:
			ref, _ := refs.Resolve(first.SKU, p.Vendor)
			out.Basic = append(out.Basic, BasicProduct{
				ID:              p.ID,
				Title:           p.Title,
				Handle:          p.Handle,
				Vendor:          p.Vendor,
				ProductType:     p.ProductType,
				Tags:            p.Tags,
				VariantID:       first.ID,
				Price:           first.Price,
				Barcode:         first.Barcode,
				RecordReference: ref,
				InventoryItemID: first.InventoryItemID,
			})
		case LevelHandlesByBarcode:
			if first.Barcode == nil || *first.Barcode == "" {
				continue
			}
			if out.Handles == nil {
				out.Handles = map[string]string{}
			}
			out.Handles[*first.Barcode] = p.Handle
		case LevelHandlesByRecordRef, LevelIDsByRecordRef:
			if first.SKU == "" {
				continue
			}
			ref, ok := refs.Resolve(first.SKU, p.Vendor)
			if !ok {
				continue
			}
			if level == LevelHandlesByRecordRef {
				if out.Handles == nil {
					out.Handles = map[string]string{}
				}
				out.Handles[ref] = p.Handle
			} else {
				if out.IDs == nil {
					out.IDs = map[string]int64{}
				}
				out.IDs[ref] = p.ID
			}
		}
	}
	return out
}

func detailed(p Product, refs *RecordRefResolver) DetailedProduct {
	d := DetailedProduct{
		ID:             p.ID,
		Title:          p.Title,
		TemplateSuffix: p.TemplateSuffix,
		BodyHTML:       escapedNewlines.Replace(p.BodyHTML),
		Vendor:         p.Vendor,
		ProductType:    p.ProductType,
		Handle:         p.Handle,
		Tags:           p.Tags,
		CreatedAt:      datePart(p.CreatedAt),
		UpdatedAt:      datePart(p.UpdatedAt),
		Variants:       make([]DetailedVariant, 0, len(p.Variants)),
	}
	if p.Image != nil {
		d.Image = p.Image.Src
	}
	// Unpublished products have no publication date.
	if p.PublishedAt != nil {
		d.PublishedAt = datePart(*p.PublishedAt)
	}
	for _, v := range p.Variants {
		ref, _ := refs.Resolve(v.SKU, p.Vendor)
		d.Variants = append(d.Variants, DetailedVariant{
			ID:                  v.ID,
			Price:               v.Price,
			Title:               v.Title,
			CreatedAt:           datePart(v.CreatedAt),
			RecordReference:     ref,
			Barcode:             v.Barcode,
			RequiresShipping:    v.RequiresShipping,
			InventoryManagement: v.InventoryManagement,
			InventoryQuantity:   v.InventoryQuantity,
		})
	}
	return d
}

func datePart(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 {
		return ts[:i]
	}
	return ts
}
