package schema

import (
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProductV1() ProductV1 {
	return ProductV1{
		ID:                "MLA1",
		Title:             "Samsung Galaxy S21",
		CategoryID:        "MLA1055",
		Price:             ProductPriceV1{Amount: "150000.50", Currency: "ARS"},
		AvailableQuantity: 10,
		SoldQuantity:      3,
		Condition:         "new",
		Permalink:         "https://example.com/MLA1",
		Pictures: []ProductPictureV1{
			{ID: "p1", URL: "https://example.com/p1.jpg", Size: "500x500"},
		},
		Attributes: []ProductAttributeV1{
			{ID: "BRAND", Name: "Marca", ValueName: "Samsung"},
		},
		Shipping:     &ProductShippingV1{FreeShipping: true, Mode: "me2"},
		Seller:       &ProductSellerV1{ID: "42", Nickname: "shop"},
		Warranty:     "12 months",
		CategoryPath: []string{"Celulares", "Smartphones"},
	}
}

func TestProductV1(t *testing.T) {
	var productSchema avro.Schema
	require.NotPanics(t, func() {
		productSchema = ProductV1Avro()
	})

	t.Run("Regular", func(t *testing.T) {
		vMarshal := testProductV1()

		data, err := avro.Marshal(productSchema, vMarshal)
		require.NoError(t, err)

		var vUnmarshal ProductV1
		require.NoError(t, avro.Unmarshal(productSchema, data, &vUnmarshal))
		assert.Equal(t, vMarshal, vUnmarshal)
	})

	t.Run("NullShippingAndSeller", func(t *testing.T) {
		vMarshal := testProductV1()
		vMarshal.Shipping = nil
		vMarshal.Seller = nil
		vMarshal.Pictures = nil

		data, err := avro.Marshal(productSchema, vMarshal)
		require.NoError(t, err)

		var vUnmarshal ProductV1
		require.NoError(t, avro.Unmarshal(productSchema, data, &vUnmarshal))
		assert.Nil(t, vUnmarshal.Shipping)
		assert.Nil(t, vUnmarshal.Seller)
		assert.Empty(t, vUnmarshal.Pictures)
		assert.Equal(t, vMarshal.Price, vUnmarshal.Price)
	})
}
