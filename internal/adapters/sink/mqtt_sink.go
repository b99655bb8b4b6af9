package sink

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ghalamif/sck2eventhub/internal/ports"
)

type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	ClientID       string        `yaml:"client_id"`
	Topic          string        `yaml:"topic"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	QoS            byte          `yaml:"qos"`
	MaxBatchBytes  int           `yaml:"max_batch_bytes"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func (c *MQTTConfig) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "sck2eventhub"
	}
	if c.MaxBatchBytes == 0 {
		c.MaxBatchBytes = 256 << 10
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

func (c *MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	if strings.ContainsAny(c.Topic, "+#") {
		return fmt.Errorf("topic %q must not contain wildcards", c.Topic)
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2")
	}
	if c.MaxBatchBytes <= 0 {
		return fmt.Errorf("max_batch_bytes must be > 0")
	}
	return nil
}

// MQTTSink publishes every payload of a batch to one topic and waits for all
// publish tokens before Send returns.
type MQTTSink struct {
	client   mqtt.Client
	topic    string
	qos      byte
	maxBytes int
}

// DialMQTT connects to the configured broker and returns a sink on that session.
func DialMQTT(cfg MQTTConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetOrderMatters(true)
	opts.SetAutoReconnect(false)

	if strings.HasPrefix(cfg.Broker, "ssl://") || strings.HasPrefix(cfg.Broker, "wss://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", cfg.Broker, err)
	}
	return NewMQTTSink(cfg, client), nil
}

func NewMQTTSink(cfg MQTTConfig, client mqtt.Client) *MQTTSink {
	return &MQTTSink{client: client, topic: cfg.Topic, qos: cfg.QoS, maxBytes: cfg.MaxBatchBytes}
}

func (m *MQTTSink) Name() string { return "mqtt" }

func (m *MQTTSink) CreateBatch(context.Context) (ports.Batch, error) {
	if !m.client.IsConnected() {
		return nil, fmt.Errorf("mqtt client is not connected")
	}
	return newBufferedBatch(m, m.maxBytes, 0, 0), nil
}

func (m *MQTTSink) Send(ctx context.Context, b ports.Batch) error {
	batch, err := ownedBatch(m, b)
	if err != nil {
		return err
	}

	tokens := make([]mqtt.Token, 0, batch.Len())
	for _, payload := range batch.items {
		tokens = append(tokens, m.client.Publish(m.topic, m.qos, false, payload))
	}

	for i, tok := range tokens {
		select {
		case <-tok.Done():
		case <-ctx.Done():
			return fmt.Errorf("publish %d of %d: %w", i+1, len(tokens), ctx.Err())
		}
		if err := tok.Error(); err != nil {
			return fmt.Errorf("publish %d of %d: %w", i+1, len(tokens), err)
		}
	}
	return nil
}

func (m *MQTTSink) Close(context.Context) error {
	m.client.Disconnect(250)
	return nil
}

var _ ports.Sink = (*MQTTSink)(nil)
