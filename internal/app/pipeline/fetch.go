package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// FetchAll fetches every pair of the plan and returns the per-pair sequences
// in plan order. With pol.FetchConcurrency <= 1 requests are issued one at a
// time; otherwise up to that many run at once. The first error cancels the
// outstanding requests and is returned.
func FetchAll(ctx context.Context, f ports.Fetcher, plan domain.Plan, pol ports.Policy, obs ports.Observability) ([][]domain.Record, error) {
	pairs := plan.Pairs()
	out := make([][]domain.Record, len(pairs))

	limit := pol.FetchConcurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, pair := range pairs {
		i, pair := i, pair
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := fetchPair(gctx, f, pair, plan, pol, obs)
			if err != nil {
				return err
			}
			out[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The loop above stops early when ctx is cancelled before any fetch fails.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func fetchPair(ctx context.Context, f ports.Fetcher, pair domain.Pair, plan domain.Plan, pol ports.Policy, obs ports.Observability) ([]domain.Record, error) {
	if pol.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pol.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	records, err := f.Fetch(ctx, pair.Device, pair.Sensor, plan.From, plan.To)
	if err != nil {
		obs.LogError("fetch_failed", err, pairFields(pair)...)
		return nil, err
	}
	obs.ObserveLatency("sck_fetch_latency_seconds", time.Since(start).Seconds())
	obs.IncCounter("sck_records_fetched_total", float64(len(records)))
	obs.LogInfo("fetch_complete", append(pairFields(pair), ports.Field{Key: "records", Value: len(records)})...)
	return records, nil
}

func pairFields(p domain.Pair) []ports.Field {
	return []ports.Field{
		{Key: "device", Value: p.Device.Name},
		{Key: "device_id", Value: p.Device.ID},
		{Key: "sensor", Value: p.Sensor.Name},
		{Key: "sensor_id", Value: p.Sensor.ID},
	}
}
