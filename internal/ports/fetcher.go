package ports

import (
	"context"
	"time"

	"github.com/ghalamif/sck2eventhub/internal/domain"
)

// Fetcher reads every reading one sensor of one device produced in [from, to].
type Fetcher interface {
	Fetch(ctx context.Context, device, sensor domain.Identifier, from, to time.Time) ([]domain.Record, error)
}
