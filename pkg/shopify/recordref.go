package shopify

import (
	"fmt"
	"regexp"
)

const (
	// RecordRefLength is the only accepted length for a record reference.
	RecordRefLength = 6

	// DefaultSKUSeparator splits SKUs built as reference + SKUSuffix.
	DefaultSKUSeparator = `n[0-9]+n`
)

// RecordRefResolver extracts record references from variant SKUs. Most
// vendors put the reference first; Positions lists vendors that put it
// elsewhere in the split SKU.
type RecordRefResolver struct {
	separator *regexp.Regexp
	positions map[string]int
}

func NewRecordRefResolver(separator string, positions map[string]int) (*RecordRefResolver, error) {
	if separator == "" {
		separator = DefaultSKUSeparator
	}
	re, err := regexp.Compile(separator)
	if err != nil {
		return nil, fmt.Errorf("sku separator: %w", err)
	}
	p := make(map[string]int, len(positions))
	for vendor, pos := range positions {
		if pos < 0 {
			return nil, fmt.Errorf("vendor %q: negative sku position %d", vendor, pos)
		}
		p[vendor] = pos
	}
	return &RecordRefResolver{separator: re, positions: p}, nil
}

func DefaultRecordRefResolver() *RecordRefResolver {
	return &RecordRefResolver{separator: regexp.MustCompile(DefaultSKUSeparator), positions: map[string]int{}}
}

// Resolve returns the record reference for sku as sold by vendor. ok is false
// when the vendor's position is missing from the split SKU or the token is
// not exactly RecordRefLength bytes long.
func (r *RecordRefResolver) Resolve(sku, vendor string) (ref string, ok bool) {
	parts := r.separator.Split(sku, -1)
	if len(parts) == 0 {
		return "", false
	}
	idx := 0
	if pos, found := r.positions[vendor]; found {
		idx = pos
	}
	if idx >= len(parts) {
		return "", false
	}
	if len(parts[idx]) != RecordRefLength {
		return "", false
	}
	return parts[idx], true
}
