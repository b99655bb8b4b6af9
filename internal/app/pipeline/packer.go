package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// PackAndSend greedily fills sink batches with the encoded records, in order.
// A batch is sent as soon as a record no longer fits, and the record goes
// into a fresh batch. The last batch is sent when records run out. Empty
// input creates no batch at all.
//
// It returns the number of records in batches the sink accepted. A failed
// send aborts the run; records not yet sent are not retried.
func PackAndSend(ctx context.Context, records []domain.Record, enc ports.Encoder, snk ports.Sink, pol ports.Policy, obs ports.Observability) (int, error) {
	p := &packer{ctx: ctx, sink: snk, pol: pol, obs: obs}

	for i := range records {
		payload, err := enc.Encode(&records[i])
		if err != nil {
			obs.LogError("encode_failed", err, ports.Field{Key: "record", Value: i})
			return p.sent, fmt.Errorf("record %d: %w", i, err)
		}
		if err := p.add(i, payload); err != nil {
			return p.sent, err
		}
	}

	if err := p.flush(); err != nil {
		return p.sent, err
	}
	obs.LogInfo("pack_complete",
		ports.Field{Key: "records", Value: p.sent},
		ports.Field{Key: "batches", Value: p.seq})
	return p.sent, nil
}

type packer struct {
	ctx  context.Context
	sink ports.Sink
	pol  ports.Policy
	obs  ports.Observability

	open    ports.Batch
	pending int // records appended to open
	seq     int // batches created so far; open is batch seq
	sent    int
}

func (p *packer) add(index int, payload []byte) error {
	if p.open == nil {
		if err := p.create(); err != nil {
			return err
		}
	}

	ok, err := p.tryAppend(payload)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	if p.pending == 0 {
		return p.oversized(index, payload)
	}

	if err := p.flush(); err != nil {
		return err
	}
	if err := p.create(); err != nil {
		return err
	}
	ok, err = p.tryAppend(payload)
	if err != nil {
		return err
	}
	if !ok {
		return p.oversized(index, payload)
	}
	return nil
}

func (p *packer) create() error {
	b, err := p.sink.CreateBatch(p.ctx)
	p.seq++
	if err != nil {
		serr := &domain.SendError{Op: "create", Batch: p.seq, Err: err}
		p.obs.LogError("batch_create_failed", serr, ports.Field{Key: "batch", Value: p.seq})
		return serr
	}
	p.open = b
	p.pending = 0
	return nil
}

func (p *packer) tryAppend(payload []byte) (bool, error) {
	ok, err := p.open.TryAppend(payload)
	if err != nil {
		serr := &domain.SendError{Op: "append", Batch: p.seq, Err: err}
		p.obs.LogError("batch_append_failed", serr, ports.Field{Key: "batch", Value: p.seq})
		return false, serr
	}
	if ok {
		p.pending++
	}
	return ok, nil
}

// flush sends the open batch, if any, and leaves no batch open.
func (p *packer) flush() error {
	if p.open == nil {
		return nil
	}
	b, n := p.open, p.pending
	p.open, p.pending = nil, 0

	if n == 0 {
		return nil
	}

	ctx := p.ctx
	if p.pol.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.pol.SendTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := p.sink.Send(ctx, b); err != nil {
		serr := &domain.SendError{Op: "send", Batch: p.seq, Err: err}
		p.obs.LogCritical("batch_send_failed", serr,
			ports.Field{Key: "batch", Value: p.seq},
			ports.Field{Key: "records", Value: n},
			ports.Field{Key: "records_sent_before", Value: p.sent})
		return serr
	}
	p.sent += n

	p.obs.ObserveLatency("sck_send_latency_seconds", time.Since(start).Seconds())
	p.obs.IncCounter("sck_batches_sent_total", 1)
	p.obs.IncCounter("sck_records_sent_total", float64(n))
	p.obs.SetGauge("sck_last_batch_records", float64(n))
	p.obs.LogInfo("batch_sent",
		ports.Field{Key: "sink", Value: p.sink.Name()},
		ports.Field{Key: "batch", Value: p.seq},
		ports.Field{Key: "records", Value: n},
		ports.Field{Key: "records_sent", Value: p.sent})
	return nil
}

func (p *packer) oversized(index int, payload []byte) error {
	err := &domain.OversizedRecordError{Index: index, Size: len(payload), Batch: p.seq}
	p.obs.LogCritical("record_oversized", err,
		ports.Field{Key: "record", Value: index},
		ports.Field{Key: "bytes", Value: len(payload)})
	return err
}
