package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// countingSink accepts up to capacity payloads (and maxBytes bytes) per batch
// and records every call in order.
type countingSink struct {
	capacity int
	maxBytes int

	creates    int
	batches    []*countingBatch
	sent       [][]string
	calls      []string
	failSend   int // fail the n-th send (1-based)
	failCreate int // fail the n-th create (1-based)
	appendErr  error
}

type countingBatch struct {
	sink     *countingSink
	id       int
	payloads []string
	bytes    int
	rejected []string
}

func (s *countingSink) CreateBatch(ctx context.Context) (ports.Batch, error) {
	s.creates++
	s.calls = append(s.calls, fmt.Sprintf("create:%d", s.creates))
	if s.failCreate == s.creates {
		return nil, errors.New("namespace unavailable")
	}
	b := &countingBatch{sink: s, id: s.creates}
	s.batches = append(s.batches, b)
	return b, nil
}

func (s *countingSink) Send(ctx context.Context, b ports.Batch) error {
	cb := b.(*countingBatch)
	s.calls = append(s.calls, fmt.Sprintf("send:%d", cb.id))
	if s.failSend == len(s.sent)+1 {
		return errors.New("link detached")
	}
	s.sent = append(s.sent, append([]string(nil), cb.payloads...))
	return nil
}

func (s *countingSink) Close(context.Context) error { return nil }
func (s *countingSink) Name() string                { return "counting" }

func (s *countingSink) flattened() []string {
	var out []string
	for _, b := range s.sent {
		out = append(out, b...)
	}
	return out
}

func (b *countingBatch) Len() int { return len(b.payloads) }

func (b *countingBatch) TryAppend(payload []byte) (bool, error) {
	if b.sink.appendErr != nil {
		return false, b.sink.appendErr
	}
	tooMany := b.sink.capacity > 0 && len(b.payloads) >= b.sink.capacity
	tooBig := b.sink.maxBytes > 0 && b.bytes+len(payload) > b.sink.maxBytes
	if tooMany || tooBig {
		b.rejected = append(b.rejected, string(payload))
		return false, nil
	}
	b.payloads = append(b.payloads, string(payload))
	b.bytes += len(payload)
	return true, nil
}

// nameEncoder encodes a record as "<device>/<sensor>@<unix nanos>=<value>".
type nameEncoder struct{}

func (nameEncoder) Encode(r *domain.Record) ([]byte, error) {
	return []byte(fmt.Sprintf("%s/%s@%d=%g", r.Device.Name, r.Sensor.Name, r.Timestamp.UnixNano(), r.Value)), nil
}
func (nameEncoder) ContentType() string { return "text/plain" }

type stubFetcher struct {
	mu      sync.Mutex
	data    map[domain.Pair][]domain.Record
	delay   map[domain.Pair]time.Duration
	fail    map[domain.Pair]error
	calls   []domain.Pair
	windows [][2]time.Time
}

func (f *stubFetcher) Fetch(ctx context.Context, device, sensor domain.Identifier, from, to time.Time) ([]domain.Record, error) {
	pair := domain.Pair{Device: device, Sensor: sensor}
	f.mu.Lock()
	f.calls = append(f.calls, pair)
	f.windows = append(f.windows, [2]time.Time{from, to})
	d := f.delay[pair]
	err := f.fail[pair]
	recs := f.data[pair]
	f.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, &domain.FetchError{Device: device, Sensor: sensor, Err: err}
	}
	return recs, nil
}

type stubObs struct {
	mu        sync.Mutex
	infos     []string
	errors    []error
	criticals []error
	counters  map[string]float64
	gauges    map[string]float64
	fields    map[string][]ports.Field
}

func newStubObs() *stubObs {
	return &stubObs{
		counters: map[string]float64{},
		gauges:   map[string]float64{},
		fields:   map[string][]ports.Field{},
	}
}

func (o *stubObs) LogInfo(msg string, fields ...ports.Field) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.infos = append(o.infos, msg)
	o.fields[msg] = fields
}

func (o *stubObs) LogError(msg string, err error, fields ...ports.Field) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, err)
	o.fields[msg] = fields
}

func (o *stubObs) LogCritical(msg string, err error, fields ...ports.Field) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.criticals = append(o.criticals, err)
	o.fields[msg] = fields
}

func (o *stubObs) IncCounter(name string, v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counters[name] += v
}

func (o *stubObs) ObserveLatency(string, float64) {}

func (o *stubObs) SetGauge(name string, v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gauges[name] = v
}

func (o *stubObs) field(msg, key string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, f := range o.fields[msg] {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

var t0 = time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)

func rec(device, sensor string, offset time.Duration, v float64) domain.Record {
	return domain.Record{
		Device:    domain.Identifier{Name: device, ID: len(device)},
		Sensor:    domain.Identifier{Name: sensor, ID: len(sensor)},
		Timestamp: t0.Add(offset),
		Value:     v,
	}
}
