package ports

import "time"

type Policy struct {
	FetchConcurrency int           `yaml:"fetch_concurrency"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	SendTimeout      time.Duration `yaml:"send_timeout"`
}
