package pipeline

import (
	"slices"

	"github.com/ghalamif/sck2eventhub/internal/domain"
)

// Aggregate flattens the per-pair sequences and orders the result by
// timestamp. Equal timestamps keep their input order: sequence by sequence,
// then position within a sequence.
func Aggregate(seqs [][]domain.Record) []domain.Record {
	n := 0
	for _, s := range seqs {
		n += len(s)
	}
	out := make([]domain.Record, 0, n)
	for _, s := range seqs {
		out = append(out, s...)
	}

	// time.Time.Compare is exact to the nanosecond.
	slices.SortStableFunc(out, func(a, b domain.Record) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
