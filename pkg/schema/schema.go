package schema

import (
	"context"

	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier resolves the registry id of a schema under a subject,
// registering the schema if the subject does not hold it yet.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, avroSchemaText string) (int, error)
}

type registryIdentifier struct {
	client *sr.Client
}

// NewRegistryIdentifier returns a [SchemaIdentifier] backed by a schema registry.
func NewRegistryIdentifier(client *sr.Client) SchemaIdentifier {
	return registryIdentifier{client}
}

func (ri registryIdentifier) DetermineID(
	ctx context.Context, subject, avroSchemaText string,
) (int, error) {
	ss, err := ri.client.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, err
	}
	return ss.ID, nil
}

// Subject returns the registry subject for the values of topic.
func Subject(topic string) string {
	return topic + "-value"
}
