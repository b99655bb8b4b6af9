package ports

import "context"

// Batch is an open, size-bounded container owned by a Sink.
type Batch interface {
	// TryAppend adds payload to the batch. It returns false, nil when the
	// payload would exceed the batch budget; err is reserved for failures
	// unrelated to capacity.
	TryAppend(payload []byte) (bool, error)
	Len() int
}

// Sink is the ingestion endpoint. Batches it creates are only valid for Send
// on the same Sink and must not be reused after Send.
type Sink interface {
	CreateBatch(ctx context.Context) (Batch, error)
	Send(ctx context.Context, b Batch) error
	Close(ctx context.Context) error
	Name() string
}
