package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type MetricsConfig struct {
	// Addr, when set, serves /metrics for the duration of a run.
	Addr    string `yaml:"addr"`
	PushURL string `yaml:"push_url"`
	Job     string `yaml:"job"`
}

// Push replaces the job's metrics on the Pushgateway with everything g
// gathers, grouped by run id. It is a no-op when no push URL is configured.
func Push(cfg MetricsConfig, g prometheus.Gatherer, runID string) error {
	if cfg.PushURL == "" {
		return nil
	}
	job := cfg.Job
	if job == "" {
		job = "sck2eventhub"
	}
	p := push.New(cfg.PushURL, job).Gatherer(g)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("push metrics to %s: %w", cfg.PushURL, err)
	}
	return nil
}
