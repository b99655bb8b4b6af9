package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/google/uuid"

	"github.com/ghalamif/sck2eventhub/internal/ports"
)

type EventHubsConfig struct {
	ConnectionString string `yaml:"connection_string"`
	HubName          string `yaml:"hub_name"`
	PartitionKey     string `yaml:"partition_key"`
	MaxBatchBytes    uint64 `yaml:"max_batch_bytes"`
}

func (c *EventHubsConfig) ApplyDefaults() {
	if c.PartitionKey == "" {
		c.PartitionKey = DefaultPartitionKey
	}
}

func (c *EventHubsConfig) Validate() error {
	if c.ConnectionString == "" {
		return fmt.Errorf("connection_string is required")
	}
	return nil
}

// eventDataBatch is the part of *azeventhubs.EventDataBatch a batch uses.
type eventDataBatch interface {
	AddEventData(ed *azeventhubs.EventData, options *azeventhubs.AddEventDataOptions) error
	NumEvents() int32
}

type eventHubsProducer interface {
	NewEventDataBatch(ctx context.Context, options *azeventhubs.EventDataBatchOptions) (eventDataBatch, error)
	SendEventDataBatch(ctx context.Context, batch eventDataBatch) error
	Close(ctx context.Context) error
}

// producerClient adapts *azeventhubs.ProducerClient to eventHubsProducer.
type producerClient struct {
	client *azeventhubs.ProducerClient
}

func (p producerClient) NewEventDataBatch(ctx context.Context, options *azeventhubs.EventDataBatchOptions) (eventDataBatch, error) {
	b, err := p.client.NewEventDataBatch(ctx, options)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (p producerClient) SendEventDataBatch(ctx context.Context, batch eventDataBatch) error {
	b, ok := batch.(*azeventhubs.EventDataBatch)
	if !ok {
		return fmt.Errorf("%w: %T", errForeignBatch, batch)
	}
	return p.client.SendEventDataBatch(ctx, b, nil)
}

func (p producerClient) Close(ctx context.Context) error {
	return p.client.Close(ctx)
}

// EventHubsSink sends batches through an Event Hubs producer. The batch size
// limit is negotiated with the hub when each batch is created, unless
// MaxBatchBytes lowers it.
type EventHubsSink struct {
	producer    eventHubsProducer
	opts        azeventhubs.EventDataBatchOptions
	contentType string
}

type eventHubsBatch struct {
	owner       *EventHubsSink
	batch       eventDataBatch
	contentType string
}

// DialEventHubs opens a producer client from a connection string. HubName may
// be empty when the connection string carries an EntityPath.
func DialEventHubs(cfg EventHubsConfig, contentType string) (*EventHubsSink, error) {
	client, err := azeventhubs.NewProducerClientFromConnectionString(cfg.ConnectionString, cfg.HubName, nil)
	if err != nil {
		return nil, fmt.Errorf("event hubs producer: %w", err)
	}
	return NewEventHubsSink(cfg, producerClient{client: client}, contentType), nil
}

func NewEventHubsSink(cfg EventHubsConfig, producer eventHubsProducer, contentType string) *EventHubsSink {
	s := &EventHubsSink{producer: producer, contentType: contentType}
	s.opts.MaxBytes = cfg.MaxBatchBytes
	if cfg.PartitionKey != "" {
		key := cfg.PartitionKey
		s.opts.PartitionKey = &key
	}
	return s
}

func (e *EventHubsSink) Name() string { return "eventhubs" }

func (e *EventHubsSink) CreateBatch(ctx context.Context) (ports.Batch, error) {
	opts := e.opts
	b, err := e.producer.NewEventDataBatch(ctx, &opts)
	if err != nil {
		return nil, err
	}
	return &eventHubsBatch{owner: e, batch: b, contentType: e.contentType}, nil
}

// TryAppend stamps each event with a fresh message id and the payload content
// type. A full batch reports false with no error.
func (b *eventHubsBatch) TryAppend(payload []byte) (bool, error) {
	id := uuid.NewString()
	ev := &azeventhubs.EventData{Body: payload, MessageID: &id}
	if b.contentType != "" {
		ct := b.contentType
		ev.ContentType = &ct
	}

	err := b.batch.AddEventData(ev, nil)
	if errors.Is(err, azeventhubs.ErrEventDataTooLarge) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *eventHubsBatch) Len() int { return int(b.batch.NumEvents()) }

func (e *EventHubsSink) Send(ctx context.Context, b ports.Batch) error {
	batch, ok := b.(*eventHubsBatch)
	if !ok || batch.owner != e {
		return fmt.Errorf("%w: %T", errForeignBatch, b)
	}
	return e.producer.SendEventDataBatch(ctx, batch.batch)
}

func (e *EventHubsSink) Close(ctx context.Context) error {
	return e.producer.Close(ctx)
}

var _ ports.Sink = (*EventHubsSink)(nil)
