package ports

import "github.com/ghalamif/sck2eventhub/internal/domain"

// Encoder turns a record into the message payload handed to the sink.
type Encoder interface {
	Encode(r *domain.Record) ([]byte, error)
	ContentType() string
}
