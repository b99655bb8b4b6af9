package sck2eventhub

import (
	"net/http"
	"time"

	base "github.com/ghalamif/sck2eventhub/pkg/sck2eventhub"
	"go.uber.org/zap"
)

// Re-exported errors for convenience.
var (
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Sink kinds accepted in sink.kind.
const (
	SinkEventHubs = base.SinkEventHubs
	SinkKafka     = base.SinkKafka
	SinkMQTT      = base.SinkMQTT
	SinkTimescale = base.SinkTimescale
)

// Type aliases so consumers can import github.com/ghalamif/sck2eventhub directly.
type (
	Config               = base.Config
	Policy               = base.Policy
	SourceConfig         = base.SourceConfig
	SmartCitizenConfig   = base.SmartCitizenConfig
	IdentifierTable      = base.IdentifierTable
	SinkConfig           = base.SinkConfig
	EventHubsConfig      = base.EventHubsConfig
	KafkaConfig          = base.KafkaConfig
	MQTTConfig           = base.MQTTConfig
	TimescaleConfig      = base.TimescaleConfig
	MetricsConfig        = base.MetricsConfig
	LogConfig            = base.LogConfig
	Flow                 = base.Flow
	FlowOption           = base.FlowOption
	StreamInOption       = base.StreamInOption
	StreamOutOption      = base.StreamOutOption
	Runner               = base.Runner
	RunnerOption         = base.RunnerOption
	Summary              = base.Summary
	Record               = base.Record
	Identifier           = base.Identifier
	Plan                 = base.Plan
	Fetcher              = base.Fetcher
	Encoder              = base.Encoder
	Sink                 = base.Sink
	Batch                = base.Batch
	Observability        = base.Observability
	Field                = base.Field
	PayloadBatchFunc     = base.PayloadBatchFunc
	Publisher            = base.Publisher
	PublisherConfig      = base.PublisherConfig
	FetchError           = base.FetchError
	OversizedRecordError = base.OversizedRecordError
	SendError            = base.SendError
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RunnerOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func StreamInWindow(from, to time.Time) StreamInOption {
	return base.StreamInWindow(from, to)
}

func StreamInDevices(devices ...Identifier) StreamInOption {
	return base.StreamInDevices(devices...)
}

func StreamInSensors(sensors ...Identifier) StreamInOption {
	return base.StreamInSensors(sensors...)
}

func StreamInConcurrency(n int) StreamInOption {
	return base.StreamInConcurrency(n)
}

func StreamInRollup(rollup string) StreamInOption {
	return base.StreamInRollup(rollup)
}

func StreamInFetcher(f Fetcher) StreamInOption {
	return base.StreamInFetcher(f)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s Sink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutEncoder(e Encoder) StreamOutOption {
	return base.StreamOutEncoder(e)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, maxBytes int, fn PayloadBatchFunc) StreamOutOption {
	return base.StreamOutCallback(name, maxBytes, fn)
}

func StreamOutSendTimeout(d time.Duration) StreamOutOption {
	return base.StreamOutSendTimeout(d)
}

// Runner and options.
func NewRunner(cfg *Config, opts ...RunnerOption) (*Runner, error) {
	return base.NewRunner(cfg, opts...)
}

func WithFetcher(f Fetcher) RunnerOption {
	return base.WithFetcher(f)
}

func WithEncoder(e Encoder) RunnerOption {
	return base.WithEncoder(e)
}

func WithSink(s Sink) RunnerOption {
	return base.WithSink(s)
}

func WithObservability(obs Observability) RunnerOption {
	return base.WithObservability(obs)
}

func WithHTTPClient(c *http.Client) RunnerOption {
	return base.WithHTTPClient(c)
}

func WithLogger(l *zap.Logger) RunnerOption {
	return base.WithLogger(l)
}

// Sink adapters.
func NewCallbackSink(name string, maxBytes int, fn PayloadBatchFunc) Sink {
	return base.NewCallbackSink(name, maxBytes, fn)
}

func NewChannelSink(name string, maxBytes, buffer int) (Sink, <-chan [][]byte, func()) {
	return base.NewChannelSink(name, maxBytes, buffer)
}

// Publisher for records the caller already holds.
func NewPublisher(s Sink, cfg PublisherConfig) (*Publisher, error) {
	return base.NewPublisher(s, cfg)
}
