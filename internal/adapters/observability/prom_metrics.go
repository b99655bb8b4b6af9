package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ghalamif/sck2eventhub/internal/ports"
)

type PromObs struct {
	log      *zap.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the run metrics with reg and logs through logger.
// A nil logger discards logs; a nil reg keeps the metrics unregistered.
func NewPromObs(logger *zap.Logger, reg prometheus.Registerer) *PromObs {
	if logger == nil {
		logger = zap.NewNop()
	}

	fetched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sck_records_fetched_total",
		Help: "Readings fetched from the Smart Citizen API.",
	})
	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sck_records_sent_total",
		Help: "Records in batches accepted by the ingestion sink.",
	})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sck_batches_sent_total",
		Help: "Batches accepted by the ingestion sink.",
	})
	fetchLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sck_fetch_latency_seconds",
		Help:    "Duration of one readings request, including body parsing.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
	sendLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sck_send_latency_seconds",
		Help:    "Duration of one batch send.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
	runDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sck_run_duration_seconds",
		Help: "Wall time of the last run.",
	})
	lastBatch := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sck_last_batch_records",
		Help: "Records in the most recently sent batch.",
	})

	if reg != nil {
		reg.MustRegister(fetched, sent, batches, fetchLatency, sendLatency, runDuration, lastBatch)
	}

	return &PromObs{
		log: logger,
		counters: map[string]prometheus.Counter{
			"sck_records_fetched_total": fetched,
			"sck_records_sent_total":    sent,
			"sck_batches_sent_total":    batches,
		},
		gauges: map[string]prometheus.Gauge{
			"sck_run_duration_seconds": runDuration,
			"sck_last_batch_records":   lastBatch,
		},
		histos: map[string]prometheus.Observer{
			"sck_fetch_latency_seconds": fetchLatency,
			"sck_send_latency_seconds":  sendLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, zapFields(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

// LogCritical marks failures that end the run. It does not exit the process.
func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(msg, append(zapFields(fields), zap.Error(err), zap.Bool("critical", true))...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func zapFields(fields []ports.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
