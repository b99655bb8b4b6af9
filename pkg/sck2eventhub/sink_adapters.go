package sck2eventhub

import (
	"context"
	"errors"
	"sync"

	"github.com/ghalamif/sck2eventhub/internal/adapters/sink"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("sck2eventhub: channel sink closed")

// PayloadBatchFunc receives each batch as ordered encoded payloads. The slice
// is only valid for the duration of the call.
type PayloadBatchFunc func(ctx context.Context, payloads [][]byte) error

// NewCallbackSink adapts a PayloadBatchFunc into a Sink whose batches hold at
// most maxBytes of payload (0 means unbounded), so callers can plug arbitrary
// functions without defining structs.
func NewCallbackSink(name string, maxBytes int, fn PayloadBatchFunc) Sink {
	if name == "" {
		name = "callback"
	}
	return sink.NewFuncSink(name, maxBytes, 0, fn)
}

// NewChannelSink exposes batches via a channel; it returns the sink, the
// read-only channel, and a close function. The channel is also closed when
// the sink is closed, which Runner.Run does once the run is over.
func NewChannelSink(name string, maxBytes, buffer int) (Sink, <-chan [][]byte, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	cs := &channelSink{
		ch:     make(chan [][]byte, buffer),
		closed: make(chan struct{}),
	}
	cs.FuncSink = sink.NewFuncSink(name, maxBytes, 0, cs.deliver)
	return cs, cs.ch, cs.close
}

type channelSink struct {
	*sink.FuncSink

	mu     sync.RWMutex
	ch     chan [][]byte
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) deliver(ctx context.Context, payloads [][]byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	batch := make([][]byte, len(payloads))
	copy(batch, payloads)

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- batch:
		return nil
	}
}

func (s *channelSink) Close(context.Context) error {
	s.close()
	return nil
}

func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		// Wait for in-flight deliveries before closing the data channel.
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}
