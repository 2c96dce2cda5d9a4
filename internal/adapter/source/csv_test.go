package source

import (
	"path/filepath"
	"testing"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemsCSV = `id,title,category_id,price,currency_id,available_quantity,sold_quantity,condition,permalink,pictures,attributes,shipping_free_shipping,shipping_mode,seller_id,seller_nickname,warranty,category_path
MLA1,Samsung Galaxy S21,MLA1055,150000.50,,10,25,,https://example.com/MLA1,https://example.com/a.jpg|http://example.com/b.jpg,BRAND:Samsung;MODEL:Galaxy S21,si,,42,shop,12 meses,Celulares > Smartphones
MLA2,iPhone 13,MLA1055,abc,USD,x,3.0,used,https://example.com/MLA2,"[{""url"": ""https://example.com/c.jpg""}]","[{""id"": ""BRAND"", ""name"": ""Marca"", ""value_name"": ""Apple""}]",,,,,,
,No id,MLA1055,10,ARS,1,1,new,https://example.com/x,,,,,,,,
MLA4,Short row,MLA1
`

func TestCSVLoader_Load(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		l := NewCSVLoader(writeFile(t, "items.csv", itemsCSV))
		assert.Equal(t, "csv", l.Name())

		products, err := l.Load(t.Context())
		require.NoError(t, err)
		require.Len(t, products, 2)

		p := products[0]
		assert.Equal(t, "MLA1", p.ID())
		assert.Equal(t, "ARS", p.Price().Currency)
		assert.Equal(t, "new", p.Condition())
		assert.Equal(t, 25, p.SoldQuantity())

		pics := p.Pictures()
		require.Len(t, pics, 2)
		assert.Equal(t, "PIC-1", pics[0].ID)
		assert.Equal(t, "https://example.com/a.jpg", pics[0].SecureURL)
		assert.Empty(t, pics[1].SecureURL)

		brand, _ := p.Brand()
		model, _ := p.Model()
		assert.Equal(t, "Samsung", brand)
		assert.Equal(t, "Galaxy S21", model)

		require.NotNil(t, p.Shipping())
		assert.True(t, p.Shipping().FreeShipping)
		assert.Equal(t, "me2", p.Shipping().Mode)
		assert.Equal(t, "42", p.Seller().ID)
		assert.Equal(t, []string{"Celulares", "Smartphones"}, p.CategoryPath())

		p = products[1]
		assert.Equal(t, "MLA2", p.ID())
		assert.True(t, p.Price().Amount.IsZero())
		assert.Equal(t, 0, p.AvailableQuantity())
		assert.Equal(t, 3, p.SoldQuantity())
		assert.Equal(t, "https://example.com/c.jpg", p.Pictures()[0].URL)
		brand, _ = p.Brand()
		assert.Equal(t, "Apple", brand)
		assert.Nil(t, p.Shipping())
		assert.Nil(t, p.Seller())
	})

	t.Run("MissingFile", func(t *testing.T) {
		l := NewCSVLoader(filepath.Join(t.TempDir(), "absent.csv"))
		_, err := l.Load(t.Context())
		assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	})

	t.Run("Empty", func(t *testing.T) {
		l := NewCSVLoader(writeFile(t, "items.csv", ""))
		_, err := l.Load(t.Context())
		assert.ErrorIs(t, err, domain.ErrMalformedSource)
	})
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, splitList("a|b; c,d > e"))
	assert.Nil(t, splitList(""))

	assert.Equal(t, 7, parseInt("7"))
	assert.Equal(t, 7, parseInt("7.9"))
	assert.Equal(t, 0, parseInt("seven"))

	assert.True(t, parseBool("Yes"))
	assert.True(t, parseBool("sí"))
	assert.False(t, parseBool("no"))

	attrs := parseAttributes("color:Rojo;Screen size:6.1")
	require.Len(t, attrs, 2)
	assert.Equal(t, "COLOR", attrs[0].ID)
	assert.Equal(t, "SCREEN_SIZE", attrs[1].ID)
	assert.Equal(t, "6.1", attrs[1].ValueName)

	pics := parsePictures(`["https://example.com/a.jpg", {"secure_url": "https://example.com/b.jpg"}]`)
	require.Len(t, pics, 2)
	assert.Equal(t, "PIC-1", pics[0].ID)
	assert.Equal(t, "PIC-2", pics[1].ID)
	assert.Equal(t, "https://example.com/b.jpg", pics[1].URL)
}
