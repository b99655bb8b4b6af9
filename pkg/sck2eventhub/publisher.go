package sck2eventhub

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ghalamif/sck2eventhub/internal/adapters/codec"
	"github.com/ghalamif/sck2eventhub/internal/adapters/observability"
	"github.com/ghalamif/sck2eventhub/internal/app/pipeline"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// Publisher batches records that the caller already holds, skipping the
// fetch stage. Records are ordered by timestamp before packing, exactly as
// a Runner orders fetched readings.
type Publisher struct {
	sink    ports.Sink
	encoder ports.Encoder
	policy  ports.Policy
	obs     ports.Observability
}

// PublisherConfig tunes a Publisher. Zero values use the JSON encoder and
// discard logs.
type PublisherConfig struct {
	Policy        Policy
	Encoder       Encoder
	Observability Observability
}

func NewPublisher(s Sink, cfg PublisherConfig) (*Publisher, error) {
	if s == nil {
		return nil, fmt.Errorf("sink is required")
	}
	p := &Publisher{sink: s, encoder: cfg.Encoder, policy: cfg.Policy, obs: cfg.Observability}
	if p.encoder == nil {
		p.encoder = codec.NewJSON()
	}
	if p.obs == nil {
		p.obs = observability.NewPromObs(zap.NewNop(), nil)
	}
	return p, nil
}

// Publish orders records by timestamp and sends them in as few batches as
// the sink allows. It returns the number of records delivered. The sink is
// left open.
func (p *Publisher) Publish(ctx context.Context, records ...Record) (int, error) {
	ordered := pipeline.Aggregate([][]Record{records})
	return pipeline.PackAndSend(ctx, ordered, p.encoder, p.sink, p.policy, p.obs)
}

// Close closes the underlying sink.
func (p *Publisher) Close(ctx context.Context) error {
	return p.sink.Close(ctx)
}
