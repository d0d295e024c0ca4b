package shopify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProducts = `[
  {
    "id": 101, "title": "Owl Book", "vendor": "Owlkids", "product_type": "Book",
    "handle": "owl-book", "tags": "kids, owls", "template_suffix": null,
    "body_html": "<p>Hoot\\r\\n</p>\\n",
    "image": {"id": 1, "src": "https://cdn.example.com/owl.jpg"},
    "created_at": "2019-01-02T10:11:12-05:00", "updated_at": "2019-02-03T00:00:00-05:00",
    "published_at": null,
    "variants": [
      {"id": 1001, "title": "Default", "price": "12.95", "sku": "XXn0nOWL123n1nWWW", "barcode": "9781771470001",
       "requires_shipping": true, "inventory_management": "shopify", "inventory_quantity": 4,
       "inventory_item_id": 5001, "created_at": "2019-01-02T10:11:12-05:00"}
    ]
  },
  {
    "id": 102, "title": "Bayard Mag", "vendor": "Bayard", "product_type": "Magazine",
    "handle": "bayard-mag", "tags": "", "template_suffix": "mag",
    "body_html": "plain", "image": null,
    "created_at": "2020-05-06T07:08:09Z", "updated_at": "2020-05-07T07:08:09Z",
    "published_at": "2020-05-08T07:08:09Z",
    "variants": [
      {"id": 2001, "title": "Default", "price": "5.00", "sku": "BAY456n0nn1nWWW", "barcode": "",
       "requires_shipping": false, "inventory_management": null, "inventory_quantity": 0,
       "inventory_item_id": 6001, "created_at": "2020-05-06T07:08:09Z"},
      {"id": 2002, "title": "Gift", "price": "7.50", "sku": "TOOLONG1", "barcode": null,
       "requires_shipping": true, "inventory_management": "shopify", "inventory_quantity": 2,
       "inventory_item_id": 6002, "created_at": "2020-06-06T07:08:09Z"}
    ]
  },
  {
    "id": 103, "title": "Empty", "vendor": "Bayard", "product_type": "", "handle": "empty",
    "tags": "", "body_html": "", "created_at": "2021-01-01T00:00:00Z", "updated_at": "2021-01-01T00:00:00Z",
    "variants": []
  }
]`

func sampleRecords(t *testing.T) []json.RawMessage {
	t.Helper()
	var recs []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(sampleProducts), &recs))
	return recs
}

func sampleResolver(t *testing.T) *RecordRefResolver {
	t.Helper()
	r, err := NewRecordRefResolver("", map[string]int{"Owlkids": 1})
	require.NoError(t, err)
	return r
}

func TestRecordRefResolver(t *testing.T) {
	r := sampleResolver(t)

	cases := []struct {
		sku, vendor, want string
		ok               bool
	}{
		{"ABC123n0nn1nWWW", "Bayard", "ABC123", true},
		{"ABC123", "Bayard", "ABC123", true},
		{"XXn0nOWL123n1nWWW", "Owlkids", "OWL123", true},
		{"OWL123", "Owlkids", "", false}, // position 1 missing
		{"ABC12n0nn1nWWW", "Bayard", "", false},
		{"ABCD1234n0nn1nWWW", "Bayard", "", false},
		{"", "Bayard", "", false},
	}
	for _, tc := range cases {
		got, ok := r.Resolve(tc.sku, tc.vendor)
		assert.Equal(t, tc.ok, ok, tc.sku)
		assert.Equal(t, tc.want, got, tc.sku)
		if ok {
			assert.Len(t, got, RecordRefLength)
		}
		again, _ := r.Resolve(tc.sku, tc.vendor)
		assert.Equal(t, got, again)
	}
}

func TestNewRecordRefResolver_Invalid(t *testing.T) {
	_, err := NewRecordRefResolver("(", nil)
	assert.Error(t, err)
	_, err = NewRecordRefResolver("", map[string]int{"x": -1})
	assert.Error(t, err)
}

func TestProject_Raw(t *testing.T) {
	recs := sampleRecords(t)
	p := Project(recs, LevelRaw, nil)
	require.Len(t, p.Raw, 3)
	assert.JSONEq(t, string(recs[1]), string(p.Raw[1]))
	assert.Equal(t, 3, p.Len())
}

func TestProject_UnknownLevelIsRaw(t *testing.T) {
	p := Project(sampleRecords(t), FilterLevel(42), nil)
	assert.Equal(t, LevelRaw, p.Level)
	assert.Len(t, p.Raw, 3)
}

func TestProject_Detailed(t *testing.T) {
	p := Project(sampleRecords(t), LevelDetailed, sampleResolver(t))
	require.Len(t, p.Detailed, 3)

	owl := p.Detailed[0]
	assert.Equal(t, "<p>Hoot</p>", owl.BodyHTML)
	assert.Equal(t, "2019-01-02", owl.CreatedAt)
	assert.Equal(t, "2019-02-03", owl.UpdatedAt)
	assert.Equal(t, "", owl.PublishedAt)
	assert.Equal(t, "https://cdn.example.com/owl.jpg", owl.Image)
	assert.Nil(t, owl.TemplateSuffix)
	require.Len(t, owl.Variants, 1)
	assert.Equal(t, "OWL123", owl.Variants[0].RecordReference)
	assert.Equal(t, "2019-01-02", owl.Variants[0].CreatedAt)
	assert.Equal(t, Amount("12.95"), owl.Variants[0].Price)

	mag := p.Detailed[1]
	assert.Equal(t, "2020-05-08", mag.PublishedAt)
	assert.Equal(t, "", mag.Image)
	require.NotNil(t, mag.TemplateSuffix)
	assert.Equal(t, "mag", *mag.TemplateSuffix)
	require.Len(t, mag.Variants, 2)
	assert.Equal(t, "BAY456", mag.Variants[0].RecordReference)
	assert.Equal(t, "", mag.Variants[1].RecordReference)

	assert.Empty(t, p.Detailed[2].Variants)
}

func TestProject_BasicSkipsProductsWithoutVariants(t *testing.T) {
	p := Project(sampleRecords(t), LevelBasic, sampleResolver(t))
	require.Len(t, p.Basic, 2)
	assert.Equal(t, 1, p.Skipped)

	b := p.Basic[1]
	assert.EqualValues(t, 102, b.ID)
	assert.EqualValues(t, 2001, b.VariantID)
	assert.EqualValues(t, 6001, b.InventoryItemID)
	assert.Equal(t, "BAY456", b.RecordReference)
	assert.Equal(t, Amount("5.00"), b.Price)
}

func TestProject_Indexes(t *testing.T) {
	recs := sampleRecords(t)
	refs := sampleResolver(t)

	byBarcode := Project(recs, LevelHandlesByBarcode, refs)
	assert.Equal(t, map[string]string{"9781771470001": "owl-book"}, byBarcode.Handles)

	byRef := Project(recs, LevelHandlesByRecordRef, refs)
	assert.Equal(t, map[string]string{"OWL123": "owl-book", "BAY456": "bayard-mag"}, byRef.Handles)

	ids := Project(recs, LevelIDsByRecordRef, refs)
	assert.Equal(t, map[string]int64{"OWL123": 101, "BAY456": 102}, ids.IDs)
}

func TestProject_IndexSkipsUnresolvedReference(t *testing.T) {
	recs := []json.RawMessage{json.RawMessage(`{"id":1,"handle":"h","vendor":"V","variants":[{"id":2,"sku":"SHORT"}]}`)}
	p := Project(recs, LevelHandlesByRecordRef, nil)
	assert.Empty(t, p.Handles)
}

func TestProjection_MarshalJSON(t *testing.T) {
	recs := sampleRecords(t)

	b, err := json.Marshal(Project(recs, LevelIDsByRecordRef, sampleResolver(t)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"OWL123":101,"BAY456":102}`, string(b))

	b, err = json.Marshal(Project(nil, LevelBasic, nil))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))

	b, err = json.Marshal(Project(nil, LevelHandlesByBarcode, nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestProjection_Append(t *testing.T) {
	a := Projection{Level: LevelHandlesByBarcode, Handles: map[string]string{"1": "a", "2": "b"}}
	a.Append(Projection{Level: LevelHandlesByBarcode, Handles: map[string]string{"2": "c"}, Skipped: 1})
	assert.Equal(t, map[string]string{"1": "a", "2": "c"}, a.Handles)
	assert.Equal(t, 1, a.Skipped)
}

func TestParseFilterLevel(t *testing.T) {
	for in, want := range map[string]FilterLevel{
		"":                      LevelBasic,
		"raw":                   LevelRaw,
		"1":                     LevelDetailed,
		"HANDLES_BY_BARCODE":    LevelHandlesByBarcode,
		"handles_by_record_ref": LevelHandlesByRecordRef,
		"5":                     LevelIDsByRecordRef,
	} {
		got, err := ParseFilterLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFilterLevel("9")
	assert.Error(t, err)
	_, err = ParseFilterLevel("everything")
	assert.Error(t, err)
	assert.Equal(t, "basic", LevelBasic.String())
}

func TestProject_PricesKeptVerbatim(t *testing.T) {
	records := []json.RawMessage{
		json.RawMessage(`{"id":1,"handle":"a","variants":[{"id":11,"price":"19.00","barcode":"978001"}]}`),
		json.RawMessage(`{"id":2,"handle":"b","variants":[{"id":21,"price":"","barcode":"978002"}]}`),
		json.RawMessage(`{"id":3,"handle":"c","variants":[{"id":31,"price":4.5,"barcode":"978003"}]}`),
	}

	basic := Project(records, LevelBasic, nil)
	assert.Zero(t, basic.Skipped)
	require.Len(t, basic.Basic, 3)
	assert.Equal(t, Amount("19.00"), basic.Basic[0].Price)
	assert.Equal(t, Amount(""), basic.Basic[1].Price)
	assert.Equal(t, Amount("4.5"), basic.Basic[2].Price)

	out, err := json.Marshal(basic.Basic[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"price":"19.00"`)

	det := Project(records, LevelDetailed, nil)
	assert.Zero(t, det.Skipped)
	require.Len(t, det.Detailed, 3)
	assert.Equal(t, Amount("19.00"), det.Detailed[0].Variants[0].Price)

	idx := Project(records, LevelHandlesByBarcode, nil)
	assert.Zero(t, idx.Skipped)
	assert.Equal(t, map[string]string{"978001": "a", "978002": "b", "978003": "c"}, idx.Handles)
}
