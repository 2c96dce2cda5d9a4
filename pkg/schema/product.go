package schema

import "github.com/hamba/avro/v2"

const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "catalog",
	"name": "product",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "title", "type": "string"},
		{"name": "category_id", "type": "string"},
		{"name": "price", "type": {
			"type": "record",
			"name": "price",
			"fields": [
				{"name": "amount", "type": "string"},
				{"name": "currency", "type": "string"}
			]
		}},
		{"name": "available_quantity", "type": "long"},
		{"name": "sold_quantity", "type": "long"},
		{"name": "condition", "type": "string"},
		{"name": "permalink", "type": "string"},
		{"name": "pictures", "type": {"type": "array", "items": {
			"type": "record",
			"name": "picture",
			"fields": [
				{"name": "id", "type": "string"},
				{"name": "url", "type": "string"},
				{"name": "secure_url", "type": "string"},
				{"name": "size", "type": "string"},
				{"name": "max_size", "type": "string"},
				{"name": "quality", "type": "string"}
			]
		}}},
		{"name": "attributes", "type": {"type": "array", "items": {
			"type": "record",
			"name": "attribute",
			"fields": [
				{"name": "id", "type": "string"},
				{"name": "name", "type": "string"},
				{"name": "value_id", "type": "string"},
				{"name": "value_name", "type": "string"},
				{"name": "group_id", "type": "string"},
				{"name": "group_name", "type": "string"}
			]
		}}},
		{"name": "shipping", "type": ["null", {
			"type": "record",
			"name": "shipping",
			"fields": [
				{"name": "free_shipping", "type": "boolean"},
				{"name": "mode", "type": "string"},
				{"name": "logistic_type", "type": "string"},
				{"name": "store_pick_up", "type": "boolean"}
			]
		}], "default": null},
		{"name": "seller", "type": ["null", {
			"type": "record",
			"name": "seller",
			"fields": [
				{"name": "id", "type": "string"},
				{"name": "nickname", "type": "string"}
			]
		}], "default": null},
		{"name": "warranty", "type": "string"},
		{"name": "category_path", "type": {"type": "array", "items": "string"}}
	]
}`

// ProductV1Avro parses [ProductSchemaTextV1] and panics on failure.
func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}

type (
	ProductV1 struct {
		ID                string               `avro:"id"`
		Title             string               `avro:"title"`
		CategoryID        string               `avro:"category_id"`
		Price             ProductPriceV1       `avro:"price"`
		AvailableQuantity int                  `avro:"available_quantity"`
		SoldQuantity      int                  `avro:"sold_quantity"`
		Condition         string               `avro:"condition"`
		Permalink         string               `avro:"permalink"`
		Pictures          []ProductPictureV1   `avro:"pictures"`
		Attributes        []ProductAttributeV1 `avro:"attributes"`
		Shipping          *ProductShippingV1   `avro:"shipping"`
		Seller            *ProductSellerV1     `avro:"seller"`
		Warranty          string               `avro:"warranty"`
		CategoryPath      []string             `avro:"category_path"`
	}

	// ProductPriceV1 keeps the amount as a decimal string.
	ProductPriceV1 struct {
		Amount   string `avro:"amount"`
		Currency string `avro:"currency"`
	}

	ProductPictureV1 struct {
		ID        string `avro:"id"`
		URL       string `avro:"url"`
		SecureURL string `avro:"secure_url"`
		Size      string `avro:"size"`
		MaxSize   string `avro:"max_size"`
		Quality   string `avro:"quality"`
	}

	ProductAttributeV1 struct {
		ID        string `avro:"id"`
		Name      string `avro:"name"`
		ValueID   string `avro:"value_id"`
		ValueName string `avro:"value_name"`
		GroupID   string `avro:"group_id"`
		GroupName string `avro:"group_name"`
	}

	ProductShippingV1 struct {
		FreeShipping bool   `avro:"free_shipping"`
		Mode         string `avro:"mode"`
		LogisticType string `avro:"logistic_type"`
		StorePickUp  bool   `avro:"store_pick_up"`
	}

	ProductSellerV1 struct {
		ID       string `avro:"id"`
		Nickname string `avro:"nickname"`
	}
)
