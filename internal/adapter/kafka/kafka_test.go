package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type MockSerde struct {
	mock.Mock
}

func (m *MockSerde) Encode(v any) ([]byte, error) {
	args := m.Called(v)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockSerde) Decode(data []byte, v any) error {
	args := m.Called(data, v)
	if fn, ok := args.Get(0).(func(any)); ok {
		fn(v)
	}
	return args.Error(1)
}

type MockProducerClient struct {
	mock.Mock
}

func (m *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (m *MockProducerClient) Close() {
	m.Called()
}

func testProduct(t *testing.T) domain.Product {
	t.Helper()
	p, err := domain.NewProduct(domain.ProductParams{
		ID:                "MLA1",
		Title:             "Samsung Galaxy S21",
		CategoryID:        "MLA1055",
		Price:             decimal.RequireFromString("150000.50"),
		CurrencyID:        "ARS",
		AvailableQuantity: 3,
		Permalink:         "https://example.com/MLA1",
		Attributes:        []domain.Attribute{{ID: domain.AttrBrand, ValueName: "Samsung"}},
		Shipping:          &domain.Shipping{FreeShipping: true, Mode: "me2"},
	})
	require.NoError(t, err)
	return p
}

func TestSchemaMapping(t *testing.T) {
	p := testProduct(t)

	s := productToSchemaV1(p)
	assert.Equal(t, "150000.5", s.Price.Amount)
	assert.Equal(t, []string{}, s.CategoryPath)
	assert.Nil(t, s.Seller)

	back, err := schemaV1ToProduct(s)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), back.ID())
	assert.True(t, p.Price().Amount.Equal(back.Price().Amount))
	brand, _ := back.Brand()
	assert.Equal(t, "Samsung", brand)
	assert.True(t, back.Shipping().FreeShipping)

	s.Price.Amount = "1,5"
	_, err = schemaV1ToProduct(s)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestProductCodec(t *testing.T) {
	serde := new(MockSerde)
	codec := productCodec{serde}

	_, err := codec.Encode("not a product")
	assert.ErrorIs(t, err, ErrInvalidValueType)

	v := schema.ProductV1{ID: "MLA1"}
	serde.On("Encode", v).Return([]byte{0, 1}, nil).Once()
	data, err := codec.Encode(v)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, data)

	serde.On("Decode", []byte{0, 1}, mock.Anything).Return(func(dst any) {
		dst.(*schema.ProductV1).ID = "MLA1"
	}, nil).Once()
	got, err := codec.Decode([]byte{0, 1})
	require.NoError(t, err)
	assert.Equal(t, "MLA1", got.(schema.ProductV1).ID)

	errBroken := errors.New("broken")
	serde.On("Decode", []byte{9}, mock.Anything).Return(nil, errBroken).Once()
	_, err = codec.Decode([]byte{9})
	assert.ErrorIs(t, err, errBroken)

	serde.AssertExpectations(t)
}

func TestProductsProducer(t *testing.T) {
	product := testProduct(t)

	t.Run("Regular", func(t *testing.T) {
		cl := new(MockProducerClient)
		serde := new(MockSerde)
		p := ProductsProducer{cl: cl, encoder: serde, opPrefix: "ProductsProducer"}

		serde.On("Encode", productToSchemaV1(product)).Return([]byte("v"), nil)
		cl.On("ProduceSync", mock.Anything, mock.MatchedBy(func(rs []*kgo.Record) bool {
			return len(rs) == 1 && string(rs[0].Key) == "MLA1" && string(rs[0].Value) == "v"
		})).Return(kgo.ProduceResults{{Record: &kgo.Record{}}})

		require.NoError(t, p.ProduceProducts(t.Context(), []domain.Product{product}))
		cl.AssertExpectations(t)
	})

	t.Run("ProduceError", func(t *testing.T) {
		cl := new(MockProducerClient)
		serde := new(MockSerde)
		p := ProductsProducer{cl: cl, encoder: serde, opPrefix: "ProductsProducer"}

		errBroker := errors.New("broker is down")
		serde.On("Encode", mock.Anything).Return([]byte("v"), nil)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Err: errBroker}})

		err := p.ProduceProducts(t.Context(), []domain.Product{product})
		assert.ErrorIs(t, err, errBroker)
	})

	t.Run("EncodeError", func(t *testing.T) {
		cl := new(MockProducerClient)
		serde := new(MockSerde)
		p := ProductsProducer{cl: cl, encoder: serde, opPrefix: "ProductsProducer"}

		errEncode := errors.New("encode")
		serde.On("Encode", mock.Anything).Return(nil, errEncode)

		err := p.ProduceProducts(t.Context(), []domain.Product{product})
		assert.ErrorIs(t, err, errEncode)
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})
}
