package sck2eventhub

import (
	"github.com/ghalamif/sck2eventhub/internal/adapters/observability"
	"github.com/ghalamif/sck2eventhub/internal/adapters/sink"
	"github.com/ghalamif/sck2eventhub/internal/adapters/smartcitizen"
	"github.com/ghalamif/sck2eventhub/internal/app/config"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls fetch fan-out and per-call timeouts.
	Policy = ports.Policy
	// SourceConfig selects the devices, sensors and window to fetch.
	SourceConfig = config.SourceConfig
	// SmartCitizenConfig configures the readings endpoint.
	SmartCitizenConfig = smartcitizen.Config
	// IdentifierTable is an ordered name → id table.
	IdentifierTable = config.IdentifierTable
	// SinkConfig selects and configures the ingestion sink.
	SinkConfig = config.SinkConfig
	// EventHubsConfig configures the Azure Event Hubs producer.
	EventHubsConfig = sink.EventHubsConfig
	// KafkaConfig configures the Kafka writer.
	KafkaConfig = sink.KafkaConfig
	// MQTTConfig configures the MQTT publisher.
	MQTTConfig = sink.MQTTConfig
	// TimescaleConfig configures the archive table sink.
	TimescaleConfig = sink.TimescaleConfig
	// MetricsConfig configures the Pushgateway upload.
	MetricsConfig = observability.MetricsConfig
	// LogConfig configures the zap logger.
	LogConfig = observability.LogConfig
)

// Sink kinds accepted in sink.kind.
const (
	SinkEventHubs = config.SinkEventHubs
	SinkKafka     = config.SinkKafka
	SinkMQTT      = config.SinkMQTT
	SinkTimescale = config.SinkTimescale
)

// LoadConfig loads YAML from disk, expanding ${VAR} references, applying
// defaults and validating the result.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig is LoadConfig for YAML already in memory. No environment
// expansion is done.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
