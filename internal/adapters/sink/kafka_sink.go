package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// kafkaRecordOverhead approximates the per-record framing of a v2 record batch.
const kafkaRecordOverhead = 64

type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	PartitionKey  string        `yaml:"partition_key"`
	MaxBatchBytes int           `yaml:"max_batch_bytes"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// DefaultPartitionKey keys every message so a run lands on one partition,
// the only scope in which Kafka and Event Hubs keep order.
const DefaultPartitionKey = "sck2eventhub"

func (c *KafkaConfig) ApplyDefaults() {
	if c.PartitionKey == "" {
		c.PartitionKey = DefaultPartitionKey
	}
	if c.MaxBatchBytes == 0 {
		c.MaxBatchBytes = 1 << 20
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

func (c *KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers is required")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if c.PartitionKey == "" {
		return fmt.Errorf("partition_key is required to keep messages in order")
	}
	if c.MaxBatchBytes <= kafkaRecordOverhead {
		return fmt.Errorf("max_batch_bytes must be greater than %d", kafkaRecordOverhead)
	}
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes each batch with a single WriteMessages call. Messages share
// PartitionKey when one is configured, which keeps them on one partition and
// therefore in order.
type KafkaSink struct {
	writer      messageWriter
	key         []byte
	maxBytes    int
	contentType string
}

// NewKafkaWriter builds the kafka-go writer NewKafkaSink expects. Messages
// are hashed on their key, so one partition key means one partition.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchBytes:   int64(cfg.MaxBatchBytes),
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
	}
}

func NewKafkaSink(cfg KafkaConfig, w messageWriter, contentType string) *KafkaSink {
	s := &KafkaSink{writer: w, maxBytes: cfg.MaxBatchBytes, contentType: contentType}
	if cfg.PartitionKey != "" {
		s.key = []byte(cfg.PartitionKey)
	}
	return s
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) CreateBatch(context.Context) (ports.Batch, error) {
	return newBufferedBatch(k, k.maxBytes, 0, kafkaRecordOverhead+len(k.key)), nil
}

func (k *KafkaSink) Send(ctx context.Context, b ports.Batch) error {
	batch, err := ownedBatch(k, b)
	if err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(batch.items))
	for i, payload := range batch.items {
		msgs[i] = kafka.Message{Key: k.key, Value: payload}
		if k.contentType != "" {
			msgs[i].Headers = []kafka.Header{{Key: "content-type", Value: []byte(k.contentType)}}
		}
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

func (k *KafkaSink) Close(context.Context) error {
	return k.writer.Close()
}

var _ ports.Sink = (*KafkaSink)(nil)
