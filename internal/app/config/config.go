package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/sck2eventhub/internal/adapters/observability"
	"github.com/ghalamif/sck2eventhub/internal/adapters/sink"
	"github.com/ghalamif/sck2eventhub/internal/adapters/smartcitizen"
	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

const (
	SinkEventHubs = "eventhubs"
	SinkKafka     = "kafka"
	SinkMQTT      = "mqtt"
	SinkTimescale = "timescale"
)

type Config struct {
	Policy  ports.Policy                `yaml:"policy"`
	Source  SourceConfig                `yaml:"source"`
	Sink    SinkConfig                  `yaml:"sink"`
	Metrics observability.MetricsConfig `yaml:"metrics"`
	Log     observability.LogConfig     `yaml:"log"`
}

type SourceConfig struct {
	smartcitizen.Config `yaml:",inline"`

	From    time.Time       `yaml:"from"`
	To      time.Time       `yaml:"to"`
	Devices IdentifierTable `yaml:"devices"`
	Sensors IdentifierTable `yaml:"sensors"`
}

type SinkConfig struct {
	Kind      string               `yaml:"kind"`
	EventHubs sink.EventHubsConfig `yaml:"eventhubs"`
	Kafka     sink.KafkaConfig     `yaml:"kafka"`
	MQTT      sink.MQTTConfig      `yaml:"mqtt"`
	Timescale sink.TimescaleConfig `yaml:"timescale"`
}

// Load reads a YAML file, expanding ${VAR} references from the environment
// first so credentials can stay out of the file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse([]byte(os.ExpandEnv(string(raw))))
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Plan returns the fetch plan described by the source section.
func (c *Config) Plan() domain.Plan {
	return domain.Plan{
		Devices: append([]domain.Identifier(nil), c.Source.Devices...),
		Sensors: append([]domain.Identifier(nil), c.Source.Sensors...),
		From:    c.Source.From.UTC(),
		To:      c.Source.To.UTC(),
	}
}

// Reference job: two Smart Citizen kits, seven sensors, Q3 2021.
var (
	defaultDevices = IdentifierTable{
		{Name: "VDK09", ID: 12613},
		{Name: "VDK05", ID: 12611},
	}
	defaultSensors = IdentifierTable{
		{Name: "ECO2", ID: 112},
		{Name: "LIGHT", ID: 14},
		{Name: "NOISE", ID: 53},
		{Name: "PRESSURE", ID: 58},
		{Name: "PM2_5", ID: 87},
		{Name: "HUMIDITY", ID: 56},
		{Name: "TEMPERATURE", ID: 55},
	}
	defaultFrom = time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)
	defaultTo   = time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC)
)

func (c *Config) applyDefaults() {
	if c.Policy.FetchConcurrency == 0 {
		c.Policy.FetchConcurrency = 1
	}
	if c.Policy.SendTimeout == 0 {
		c.Policy.SendTimeout = time.Minute
	}

	c.Source.ApplyDefaults()
	if c.Source.Devices == nil {
		c.Source.Devices = append(IdentifierTable(nil), defaultDevices...)
	}
	if c.Source.Sensors == nil {
		c.Source.Sensors = append(IdentifierTable(nil), defaultSensors...)
	}
	if c.Source.From.IsZero() {
		c.Source.From = defaultFrom
	}
	if c.Source.To.IsZero() {
		c.Source.To = defaultTo
	}

	if c.Sink.Kind == "" {
		c.Sink.Kind = SinkEventHubs
	}
	c.Sink.EventHubs.ApplyDefaults()
	c.Sink.Kafka.ApplyDefaults()
	c.Sink.MQTT.ApplyDefaults()
	c.Sink.Timescale.ApplyDefaults()

	if c.Metrics.Job == "" {
		c.Metrics.Job = "sck2eventhub"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the whole configuration. Load and Parse call it; callers
// that edit a Config in code call it again.
func (c *Config) Validate() error {
	if c.Policy.FetchConcurrency < 0 {
		return fmt.Errorf("policy.fetch_concurrency must be >= 0")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Source.Devices.validate("source.devices"); err != nil {
		return err
	}
	if err := c.Source.Sensors.validate("source.sensors"); err != nil {
		return err
	}
	if !c.Source.From.Before(c.Source.To) {
		return fmt.Errorf("source.from (%s) must be before source.to (%s)",
			c.Source.From.Format(time.RFC3339), c.Source.To.Format(time.RFC3339))
	}

	var err error
	switch c.Sink.Kind {
	case SinkEventHubs:
		err = c.Sink.EventHubs.Validate()
	case SinkKafka:
		err = c.Sink.Kafka.Validate()
	case SinkMQTT:
		err = c.Sink.MQTT.Validate()
	case SinkTimescale:
		err = c.Sink.Timescale.Validate()
	default:
		return fmt.Errorf("sink.kind %q is not one of eventhubs, kafka, mqtt, timescale", c.Sink.Kind)
	}
	if err != nil {
		return fmt.Errorf("sink.%s: %w", c.Sink.Kind, err)
	}
	return nil
}
