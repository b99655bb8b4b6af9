package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// Summary describes a completed run.
type Summary struct {
	RunID   string
	Fetched int
	Sent    int
	Elapsed time.Duration
}

// Deps bundles the adapters a run talks to.
type Deps struct {
	Fetcher ports.Fetcher
	Encoder ports.Encoder
	Sink    ports.Sink
}

func (d Deps) validate() error {
	if d.Fetcher == nil {
		return fmt.Errorf("fetcher is nil")
	}
	if d.Encoder == nil {
		return fmt.Errorf("encoder is nil")
	}
	if d.Sink == nil {
		return fmt.Errorf("sink is nil")
	}
	return nil
}

// Run fetches every pair of the plan, orders the readings by timestamp and
// forwards them to the sink. It stops at the first failure; the returned
// error names the stage that failed. The sink is not closed.
func Run(ctx context.Context, runID string, plan domain.Plan, deps Deps, pol ports.Policy, obs ports.Observability) (sum Summary, err error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	sum.RunID = runID
	if err := deps.validate(); err != nil {
		return sum, err
	}

	start := time.Now()
	defer func() {
		sum.Elapsed = time.Since(start)
		obs.SetGauge("sck_run_duration_seconds", sum.Elapsed.Seconds())
	}()

	runField := ports.Field{Key: "run_id", Value: runID}
	obs.LogInfo("run_started",
		runField,
		ports.Field{Key: "sink", Value: deps.Sink.Name()},
		ports.Field{Key: "pairs", Value: len(plan.Devices) * len(plan.Sensors)},
		ports.Field{Key: "from", Value: plan.From.UTC().Format(time.RFC3339)},
		ports.Field{Key: "to", Value: plan.To.UTC().Format(time.RFC3339)})

	seqs, err := FetchAll(ctx, deps.Fetcher, plan, pol, obs)
	if err != nil {
		obs.LogCritical("run_failed", err, runField, ports.Field{Key: "stage", Value: "fetch"})
		return sum, fmt.Errorf("fetch: %w", err)
	}

	records := Aggregate(seqs)
	sum.Fetched = len(records)
	obs.LogInfo("aggregate_complete", runField, ports.Field{Key: "records", Value: len(records)})

	sent, err := PackAndSend(ctx, records, deps.Encoder, deps.Sink, pol, obs)
	sum.Sent = sent
	if err != nil {
		stage := "pack"
		var serr *domain.SendError
		if errors.As(err, &serr) {
			stage = "send"
		}
		obs.LogCritical("run_failed", err, runField,
			ports.Field{Key: "stage", Value: stage},
			ports.Field{Key: "records_sent", Value: sent},
			ports.Field{Key: "records_lost", Value: len(records) - sent})
		return sum, fmt.Errorf("%s: %w", stage, err)
	}

	obs.LogInfo("run_complete", runField,
		ports.Field{Key: "records", Value: sent},
		ports.Field{Key: "elapsed", Value: time.Since(start).String()})
	return sum, nil
}
