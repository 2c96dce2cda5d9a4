package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrNoSubject    = errors.New("subject is not set")
	ErrNoIdentifier = errors.New("schema identifier is not set")
)

// A Serde encodes values into the schema registry wire format
// and decodes them back.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

func (so serdeOpts) validate() error {
	if so.subject == "" {
		return ErrNoSubject
	}
	if so.si == nil {
		return ErrNoIdentifier
	}
	return nil
}

// NewSerdeProductV1 returns a [Serde] for [ProductV1] values.
//
// Both [SubjectOpt] and [SchemaIdentifierOpt] are required.
func NewSerdeProductV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeProductV1"

	s, err := newAvroSerde(ctx, ProductSchemaTextV1, ProductV1{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func newAvroSerde(
	ctx context.Context, schemaText string, example any, opts ...Opt,
) (*sr.Serde, error) {
	var so serdeOpts
	for _, o := range opts {
		if err := o(&so); err != nil {
			return nil, err
		}
	}
	if err := so.validate(); err != nil {
		return nil, err
	}

	avroSchema, err := avro.Parse(schemaText)
	if err != nil {
		return nil, err
	}

	id, err := so.si.DetermineID(ctx, so.subject, schemaText)
	if err != nil {
		return nil, err
	}

	serde := new(sr.Serde)
	serde.Register(
		id,
		example,
		sr.EncodeFn(func(v any) ([]byte, error) {
			return avro.Marshal(avroSchema, v)
		}),
		sr.DecodeFn(func(data []byte, v any) error {
			return avro.Unmarshal(avroSchema, data, v)
		}),
	)
	return serde, nil
}
