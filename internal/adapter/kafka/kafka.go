package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects a [kgo.Client] producing to topic.
// A nil tlsConfig means plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// ApplyTLS makes every goka client created afterwards use tlsConfig.
func ApplyTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func productToSchemaV1(p domain.Product) schema.ProductV1 {
	s := schema.ProductV1{
		ID:         p.ID(),
		Title:      p.Title(),
		CategoryID: p.CategoryID(),
		Price: schema.ProductPriceV1{
			Amount:   p.Price().Amount.String(),
			Currency: p.Price().Currency,
		},
		AvailableQuantity: p.AvailableQuantity(),
		SoldQuantity:      p.SoldQuantity(),
		Condition:         p.Condition(),
		Permalink:         p.Permalink(),
		Warranty:          p.Warranty(),
		CategoryPath:      p.CategoryPath(),
	}

	pictures := p.Pictures()
	s.Pictures = make([]schema.ProductPictureV1, len(pictures))
	for i, pic := range pictures {
		s.Pictures[i] = schema.ProductPictureV1(pic)
	}

	attrs := p.Attributes()
	s.Attributes = make([]schema.ProductAttributeV1, len(attrs))
	for i, a := range attrs {
		s.Attributes[i] = schema.ProductAttributeV1(a)
	}

	if sh := p.Shipping(); sh != nil {
		v := schema.ProductShippingV1(*sh)
		s.Shipping = &v
	}
	if sl := p.Seller(); sl != nil {
		v := schema.ProductSellerV1(*sl)
		s.Seller = &v
	}
	if s.CategoryPath == nil {
		s.CategoryPath = []string{}
	}
	return s
}

func schemaV1ToProduct(s schema.ProductV1) (domain.Product, error) {
	amount, err := decimal.NewFromString(s.Price.Amount)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: price: %w", domain.ErrInvalidProduct, err)
	}

	params := domain.ProductParams{
		ID:                s.ID,
		Title:             s.Title,
		CategoryID:        s.CategoryID,
		Price:             amount,
		CurrencyID:        s.Price.Currency,
		AvailableQuantity: s.AvailableQuantity,
		SoldQuantity:      s.SoldQuantity,
		Condition:         s.Condition,
		Permalink:         s.Permalink,
		Warranty:          s.Warranty,
		CategoryPath:      s.CategoryPath,
	}

	for _, pic := range s.Pictures {
		params.Pictures = append(params.Pictures, domain.Picture(pic))
	}
	for _, a := range s.Attributes {
		params.Attributes = append(params.Attributes, domain.Attribute(a))
	}
	if s.Shipping != nil {
		v := domain.Shipping(*s.Shipping)
		params.Shipping = &v
	}
	if s.Seller != nil {
		v := domain.Seller(*s.Seller)
		params.Seller = &v
	}
	return domain.NewProduct(params)
}
