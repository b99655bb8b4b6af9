package sink

import (
	"context"
	"errors"
	"testing"
)

func TestFuncSinkDeliversBoundedBatches(t *testing.T) {
	var got [][]string
	s := NewFuncSink("capture", 0, 2, func(_ context.Context, payloads [][]byte) error {
		var batch []string
		for _, p := range payloads {
			batch = append(batch, string(p))
		}
		got = append(got, batch)
		return nil
	})

	b, err := s.CreateBatch(context.Background())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, p := range []string{"a", "b"} {
		if ok, _ := b.TryAppend([]byte(p)); !ok {
			t.Fatalf("expected %s to fit", p)
		}
	}
	if ok, _ := b.TryAppend([]byte("c")); ok {
		t.Fatalf("expected third payload to be rejected by item limit")
	}
	if err := s.Send(context.Background(), b); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(got) != 1 || len(got[0]) != 2 || got[0][1] != "b" {
		t.Fatalf("unexpected delivery %v", got)
	}
}

func TestFuncSinkPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	s := NewFuncSink("", 64, 0, func(context.Context, [][]byte) error { return boom })
	if s.Name() != "func" {
		t.Fatalf("expected default name, got %q", s.Name())
	}
	b, _ := s.CreateBatch(context.Background())
	_, _ = b.TryAppend([]byte("x"))
	if err := s.Send(context.Background(), b); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestFuncSinkNilHandler(t *testing.T) {
	s := NewFuncSink("nil", 0, 0, nil)
	if _, err := s.CreateBatch(context.Background()); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}
