package sck2eventhub

import (
	"context"
	"fmt"
	"time"

	"github.com/ghalamif/sck2eventhub/internal/app/config"
)

// Flow builds a Runner in three steps: Conf loads the job, StreamIN narrows
// or replaces what is fetched, StreamOUT decides where the batches go.
//
//	flow, _ := sck2eventhub.Conf("config.yaml")
//	sum, err := flow.
//		StreamIN(sck2eventhub.StreamInWindow(from, to), sck2eventhub.StreamInConcurrency(4)).
//		Run(ctx, sck2eventhub.StreamOutCallback("stdout", 256<<10, fn))
type Flow struct {
	cfg  *Config
	opts []RunnerOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// StreamInOption edits the fetch side: the plan, its pacing, or the fetcher.
type StreamInOption func(*Flow)

// StreamOutOption edits the delivery side: encoder, sink, observability.
type StreamOutOption func(*Flow)

// Conf loads a job file and returns a Flow over it.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig returns a Flow over cfg. StreamIN options edit cfg in place.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the configuration the Runner will be built from.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw RunnerOption values.
func (f *Flow) Options(opts ...RunnerOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

func (f *Flow) StreamIN(opts ...StreamInOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// StreamOUT applies the delivery options, re-validates the possibly edited
// configuration and builds the Runner.
func (f *Flow) StreamOUT(opts ...StreamOutOption) (*Runner, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if err := f.cfg.Validate(); err != nil {
		return nil, err
	}
	return NewRunner(f.cfg, f.opts...)
}

// Run builds the Runner, performs one run and releases the runner.
func (f *Flow) Run(ctx context.Context, opts ...StreamOutOption) (Summary, error) {
	r, err := f.StreamOUT(opts...)
	if err != nil {
		return Summary{}, err
	}
	defer r.Close()
	return r.Run(ctx)
}

func WithFlowOptions(opts ...RunnerOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// StreamInWindow replaces the UTC window [from, to] every pair is fetched over.
func StreamInWindow(from, to time.Time) StreamInOption {
	return func(f *Flow) {
		if f != nil {
			f.cfg.Source.From = from.UTC()
			f.cfg.Source.To = to.UTC()
		}
	}
}

// StreamInDevices replaces the device table. Order is fetch order.
func StreamInDevices(devices ...Identifier) StreamInOption {
	return func(f *Flow) {
		if f != nil {
			f.cfg.Source.Devices = append(config.IdentifierTable{}, devices...)
		}
	}
}

// StreamInSensors replaces the sensor table. Order is fetch order within a device.
func StreamInSensors(sensors ...Identifier) StreamInOption {
	return func(f *Flow) {
		if f != nil {
			f.cfg.Source.Sensors = append(config.IdentifierTable{}, sensors...)
		}
	}
}

// StreamInConcurrency bounds how many readings requests run at once; 1 is
// strictly sequential.
func StreamInConcurrency(n int) StreamInOption {
	return func(f *Flow) {
		if f != nil {
			f.cfg.Policy.FetchConcurrency = n
		}
	}
}

// StreamInRollup sets the server-side aggregation granularity, e.g. "1s" or "1m".
func StreamInRollup(rollup string) StreamInOption {
	return func(f *Flow) {
		if f != nil && rollup != "" {
			f.cfg.Source.Rollup = rollup
		}
	}
}

// StreamInFetcher replaces the Smart Citizen fetcher, e.g. with fixtures.
func StreamInFetcher(fe Fetcher) StreamInOption {
	return func(f *Flow) {
		if f != nil && fe != nil {
			f.appendOptions(WithFetcher(fe))
		}
	}
}

func StreamInObservability(obs Observability) StreamInOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// StreamOutSink sends batches to s instead of the sink named by sink.kind.
func StreamOutSink(s Sink) StreamOutOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSink(s))
		}
	}
}

func StreamOutEncoder(e Encoder) StreamOutOption {
	return func(f *Flow) {
		if f != nil && e != nil {
			f.appendOptions(WithEncoder(e))
		}
	}
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// StreamOutCallback delivers batches of at most maxBytes payload bytes to fn.
func StreamOutCallback(name string, maxBytes int, fn PayloadBatchFunc) StreamOutOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(WithSink(NewCallbackSink(name, maxBytes, fn)))
		}
	}
}

// StreamOutSendTimeout bounds each batch send; zero leaves sends unbounded.
func StreamOutSendTimeout(d time.Duration) StreamOutOption {
	return func(f *Flow) {
		if f != nil {
			f.cfg.Policy.SendTimeout = d
		}
	}
}

func (f *Flow) appendOptions(opts ...RunnerOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
