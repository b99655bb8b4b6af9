package sink

import (
	"errors"
	"fmt"

	"github.com/ghalamif/sck2eventhub/internal/ports"
)

var errForeignBatch = errors.New("batch was not created by this sink")

// bufferedBatch holds payloads in memory until the owning sink sends them.
// It is full once either budget would be exceeded; a zero budget is unlimited.
type bufferedBatch struct {
	owner    any
	maxBytes int
	maxItems int
	overhead int // counted against maxBytes for every item

	items [][]byte
	size  int
}

func newBufferedBatch(owner any, maxBytes, maxItems, overhead int) *bufferedBatch {
	return &bufferedBatch{owner: owner, maxBytes: maxBytes, maxItems: maxItems, overhead: overhead}
}

func (b *bufferedBatch) TryAppend(payload []byte) (bool, error) {
	if b.maxItems > 0 && len(b.items) >= b.maxItems {
		return false, nil
	}
	cost := len(payload) + b.overhead
	if b.maxBytes > 0 && b.size+cost > b.maxBytes {
		return false, nil
	}
	b.items = append(b.items, payload)
	b.size += cost
	return true, nil
}

func (b *bufferedBatch) Len() int { return len(b.items) }

// Size is the number of budget bytes consumed so far.
func (b *bufferedBatch) Size() int { return b.size }

func ownedBatch(owner any, b ports.Batch) (*bufferedBatch, error) {
	bb, ok := b.(*bufferedBatch)
	if !ok || bb.owner != owner {
		return nil, fmt.Errorf("%w: %T", errForeignBatch, b)
	}
	return bb, nil
}

var _ ports.Batch = (*bufferedBatch)(nil)
