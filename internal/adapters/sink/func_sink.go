package sink

import (
	"context"
	"fmt"

	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// FuncSink hands every batch to a function as an ordered slice of payloads.
// Batches are bounded by maxBytes and maxItems; zero leaves a bound off.
type FuncSink struct {
	name     string
	maxBytes int
	maxItems int
	fn       func(context.Context, [][]byte) error
}

func NewFuncSink(name string, maxBytes, maxItems int, fn func(context.Context, [][]byte) error) *FuncSink {
	if name == "" {
		name = "func"
	}
	return &FuncSink{name: name, maxBytes: maxBytes, maxItems: maxItems, fn: fn}
}

func (s *FuncSink) Name() string { return s.name }

func (s *FuncSink) CreateBatch(context.Context) (ports.Batch, error) {
	if s.fn == nil {
		return nil, fmt.Errorf("sink %q: nil handler", s.name)
	}
	return newBufferedBatch(s, s.maxBytes, s.maxItems, 0), nil
}

func (s *FuncSink) Send(ctx context.Context, b ports.Batch) error {
	batch, err := ownedBatch(s, b)
	if err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}
	return s.fn(ctx, batch.items)
}

func (s *FuncSink) Close(context.Context) error { return nil }

var _ ports.Sink = (*FuncSink)(nil)
