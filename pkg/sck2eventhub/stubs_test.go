package sck2eventhub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(`
source:
  base_url: http://127.0.0.1:1
  from: 2021-07-01T00:00:00Z
  to: 2021-07-02T00:00:00Z
  devices:
    VDK09: 12613
    VDK05: 12611
  sensors:
    NOISE: 53
sink:
  kind: kafka
  kafka:
    brokers: ["127.0.0.1:9092"]
    topic: readings
log:
  level: error
`))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

// stubFetcher serves readings per device name; offsets are seconds after t0.
type stubFetcher struct {
	offsets map[string][]int
	err     error

	mu      sync.Mutex
	calls   int
	pairs   []string
	windows [][2]time.Time
}

func (s *stubFetcher) Fetch(_ context.Context, device, sensor Identifier, from, to time.Time) ([]Record, error) {
	s.mu.Lock()
	s.calls++
	s.pairs = append(s.pairs, device.Name+"/"+sensor.Name)
	s.windows = append(s.windows, [2]time.Time{from, to})
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []Record
	for _, off := range s.offsets[device.Name] {
		out = append(out, Record{
			Device:    device,
			Sensor:    sensor,
			Timestamp: t0.Add(time.Duration(off) * time.Second),
			Value:     float64(off),
		})
	}
	return out, nil
}

// stubEncoder renders "DEVICE@offset" so batches are easy to compare.
type stubEncoder struct{}

func (stubEncoder) Encode(r *Record) ([]byte, error) {
	return []byte(fmt.Sprintf("%s@%d", r.Device.Name, r.Timestamp.Sub(t0)/time.Second)), nil
}

func (stubEncoder) ContentType() string { return "text/plain" }

type stubObservability struct{}

func (s *stubObservability) LogInfo(string, ...Field)            {}
func (s *stubObservability) LogError(string, error, ...Field)    {}
func (s *stubObservability) LogCritical(string, error, ...Field) {}
func (s *stubObservability) IncCounter(string, float64)          {}
func (s *stubObservability) ObserveLatency(string, float64)      {}
func (s *stubObservability) SetGauge(string, float64)            {}

// closeTracker wraps a sink and records Close calls.
type closeTracker struct {
	Sink
	closed int
}

func (c *closeTracker) Close(ctx context.Context) error {
	c.closed++
	return c.Sink.Close(ctx)
}

func collect(batches *[][]string) PayloadBatchFunc {
	return func(_ context.Context, payloads [][]byte) error {
		var b []string
		for _, p := range payloads {
			b = append(b, string(p))
		}
		*batches = append(*batches, b)
		return nil
	}
}
