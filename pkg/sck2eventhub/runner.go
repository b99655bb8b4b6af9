package sck2eventhub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ghalamif/sck2eventhub/internal/adapters/codec"
	"github.com/ghalamif/sck2eventhub/internal/adapters/observability"
	"github.com/ghalamif/sck2eventhub/internal/adapters/sink"
	"github.com/ghalamif/sck2eventhub/internal/adapters/smartcitizen"
	"github.com/ghalamif/sck2eventhub/internal/app/config"
	"github.com/ghalamif/sck2eventhub/internal/app/pipeline"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

const sinkCloseTimeout = 10 * time.Second

// RunnerOption customizes the dependencies used by Runner.
type RunnerOption func(*runnerOverrides)

type runnerOverrides struct {
	fetcher       Fetcher
	encoder       Encoder
	sink          Sink
	observability Observability
	httpClient    *http.Client
	logger        *zap.Logger
}

// WithFetcher replaces the Smart Citizen fetcher (fixtures, another platform).
func WithFetcher(f Fetcher) RunnerOption {
	return func(o *runnerOverrides) {
		o.fetcher = f
	}
}

// WithEncoder overrides the default JSON payload encoder.
func WithEncoder(e Encoder) RunnerOption {
	return func(o *runnerOverrides) {
		o.encoder = e
	}
}

// WithSink injects a sink instead of the one named by sink.kind.
func WithSink(s Sink) RunnerOption {
	return func(o *runnerOverrides) {
		o.sink = s
	}
}

// WithObservability plugs in a custom log/metric backend. Metrics are not
// pushed when it is set.
func WithObservability(obs Observability) RunnerOption {
	return func(o *runnerOverrides) {
		o.observability = obs
	}
}

// WithHTTPClient sets the client the default fetcher uses.
func WithHTTPClient(c *http.Client) RunnerOption {
	return func(o *runnerOverrides) {
		o.httpClient = c
	}
}

// WithLogger routes the default observability backend's logs to l.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(o *runnerOverrides) {
		o.logger = l
	}
}

// Runner performs one fetch → order → batch → send pass over the configured
// plan. It is safe to call Run more than once; each call opens its own sink
// unless one was injected.
type Runner struct {
	cfg      *Config
	plan     Plan
	policy   ports.Policy
	obs      ports.Observability
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	fetcher  ports.Fetcher
	encoder  ports.Encoder
	sink     ports.Sink
}

// NewRunner bootstraps the default adapters (Smart Citizen fetcher, JSON
// encoder, zap + Prometheus observability). The sink named by sink.kind is
// opened lazily by Run.
func NewRunner(cfg *Config, opts ...RunnerOption) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runnerOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	r := &Runner{
		cfg:     cfg,
		plan:    cfg.Plan(),
		policy:  cfg.Policy,
		fetcher: overrides.fetcher,
		encoder: overrides.encoder,
		sink:    overrides.sink,
		obs:     overrides.observability,
	}

	if r.obs == nil {
		logger := overrides.logger
		if logger == nil {
			var err error
			logger, err = observability.NewLogger(cfg.Log)
			if err != nil {
				return nil, err
			}
			r.logger = logger
		}
		reg := prometheus.NewRegistry()
		r.obs = observability.NewPromObs(logger, reg)
		r.gatherer = reg
	}

	if r.fetcher == nil {
		f, err := smartcitizen.NewFetcher(cfg.Source.Config, overrides.httpClient)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		r.fetcher = f
	}

	if r.encoder == nil {
		r.encoder = codec.NewJSON()
	}

	return r, nil
}

// Plan returns the device × sensor grid the runner fetches.
func (r *Runner) Plan() Plan { return r.plan }

// Run fetches, orders and delivers every reading of the plan. The sink is
// closed before Run returns, whether or not the run succeeded, and metrics
// are pushed when metrics.push_url is set.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r == nil {
		return Summary{}, fmt.Errorf("runner is nil")
	}

	snk := r.sink
	if snk == nil {
		var err error
		snk, err = r.openSink(ctx)
		if err != nil {
			r.obs.LogCritical("sink_open_failed", err, ports.Field{Key: "sink", Value: r.cfg.Sink.Kind})
			return Summary{}, fmt.Errorf("open %s sink: %w", r.cfg.Sink.Kind, err)
		}
	}

	if stop := r.serveMetrics(); stop != nil {
		defer stop()
	}

	sum, err := pipeline.Run(ctx, "", r.plan, pipeline.Deps{
		Fetcher: r.fetcher,
		Encoder: r.encoder,
		Sink:    snk,
	}, r.policy, r.obs)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkCloseTimeout)
	defer cancel()
	if cerr := snk.Close(closeCtx); cerr != nil {
		r.obs.LogError("sink_close_failed", cerr, ports.Field{Key: "sink", Value: snk.Name()})
		err = errors.Join(err, fmt.Errorf("close sink: %w", cerr))
	}

	if r.gatherer != nil {
		if perr := observability.Push(r.cfg.Metrics, r.gatherer, sum.RunID); perr != nil {
			r.obs.LogError("metrics_push_failed", perr, ports.Field{Key: "run_id", Value: sum.RunID})
		}
	}
	return sum, err
}

// Preview fetches and orders the plan's readings without sending anything.
// n > 0 truncates the result to the first n records.
func (r *Runner) Preview(ctx context.Context, n int) ([]Record, error) {
	seqs, err := pipeline.FetchAll(ctx, r.fetcher, r.plan, r.policy, r.obs)
	if err != nil {
		return nil, err
	}
	records := pipeline.Aggregate(seqs)
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// Encode renders a record with the runner's encoder.
func (r *Runner) Encode(rec *Record) ([]byte, error) {
	return r.encoder.Encode(rec)
}

// Close flushes the logger the runner created, if any.
func (r *Runner) Close() error {
	if r == nil || r.logger == nil {
		return nil
	}
	// Sync on a terminal stderr reports EINVAL on Linux; nothing was lost.
	_ = r.logger.Sync()
	return nil
}

// serveMetrics starts the live /metrics endpoint when metrics.addr is set and
// returns the function that stops it.
func (r *Runner) serveMetrics() func() {
	if r.gatherer == nil || r.cfg.Metrics.Addr == "" {
		return nil
	}
	srv := observability.NewMetricsServer(r.cfg.Metrics.Addr, r.gatherer)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics_server_exited", err, ports.Field{Key: "addr", Value: r.cfg.Metrics.Addr})
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func (r *Runner) openSink(ctx context.Context) (ports.Sink, error) {
	sc := r.cfg.Sink
	switch sc.Kind {
	case config.SinkEventHubs:
		return sink.DialEventHubs(sc.EventHubs, r.encoder.ContentType())
	case config.SinkKafka:
		return sink.NewKafkaSink(sc.Kafka, sink.NewKafkaWriter(sc.Kafka), r.encoder.ContentType()), nil
	case config.SinkMQTT:
		return sink.DialMQTT(sc.MQTT)
	case config.SinkTimescale:
		db, err := sql.Open("postgres", sc.Timescale.ConnString)
		if err != nil {
			return nil, err
		}
		ts := sink.NewTimescaleSink(db, sc.Timescale.Table, sc.Timescale.MaxBatchRows)
		if sc.Timescale.CreateTable {
			if err := ts.EnsureTable(ctx); err != nil {
				return nil, errors.Join(err, db.Close())
			}
		}
		return ts, nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", sc.Kind)
	}
}
