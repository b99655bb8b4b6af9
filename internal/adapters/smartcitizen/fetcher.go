package smartcitizen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// DefaultBaseURL is the public v0 API root.
const DefaultBaseURL = "https://api.smartcitizen.me/v0"

// Config captures how readings are requested from the platform.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	Rollup    string        `yaml:"rollup"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Rollup == "" {
		c.Rollup = "1s"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.UserAgent == "" {
		c.UserAgent = "sck2eventhub"
	}
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", c.BaseURL)
	}
	if strings.TrimSpace(c.Rollup) == "" {
		return fmt.Errorf("rollup is required")
	}
	return nil
}

// Fetcher reads one sensor series per request from the readings endpoint.
type Fetcher struct {
	cfg    Config
	client *http.Client
}

// NewFetcher validates cfg and returns a fetcher. A nil client gets a
// dedicated http.Client bounded by cfg.Timeout.
func NewFetcher(cfg Config, client *http.Client) (*Fetcher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{cfg: cfg, client: client}, nil
}

func (f *Fetcher) Fetch(ctx context.Context, device, sensor domain.Identifier, from, to time.Time) ([]domain.Record, error) {
	records, err := f.fetch(ctx, device, sensor, from, to)
	if err != nil {
		return nil, &domain.FetchError{Device: device, Sensor: sensor, Err: err}
	}
	return records, nil
}

func (f *Fetcher) fetch(ctx context.Context, device, sensor domain.Identifier, from, to time.Time) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.readingsURL(device, sensor, from, to), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	return decodeReadings(resp.Body, device, sensor)
}

func (f *Fetcher) readingsURL(device, sensor domain.Identifier, from, to time.Time) string {
	q := url.Values{}
	q.Set("sensor_id", strconv.Itoa(sensor.ID))
	q.Set("rollup", f.cfg.Rollup)
	q.Set("from", from.UTC().Format(time.RFC3339Nano))
	q.Set("to", to.UTC().Format(time.RFC3339Nano))
	return fmt.Sprintf("%s/devices/%d/readings?%s", strings.TrimRight(f.cfg.BaseURL, "/"), device.ID, q.Encode())
}

type readingsResponse struct {
	Readings *[]json.RawMessage `json:"readings"`
}

var errNoReadings = errors.New("response has no readings array")

func decodeReadings(body io.Reader, device, sensor domain.Identifier) ([]domain.Record, error) {
	var payload readingsResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if payload.Readings == nil {
		return nil, errNoReadings
	}

	out := make([]domain.Record, 0, len(*payload.Readings))
	for i, raw := range *payload.Readings {
		ts, value, err := decodeTuple(raw)
		if err != nil {
			return nil, fmt.Errorf("reading %d: %w", i, err)
		}
		out = append(out, domain.Record{
			Device:    device,
			Sensor:    sensor,
			Timestamp: ts,
			Value:     value,
		})
	}
	return out, nil
}

func decodeTuple(raw json.RawMessage) (time.Time, float64, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return time.Time{}, 0, fmt.Errorf("not an array: %w", err)
	}
	if len(tuple) != 2 {
		return time.Time{}, 0, fmt.Errorf("expected [timestamp, value], got %d elements", len(tuple))
	}

	var tsRaw string
	if err := json.Unmarshal(tuple[0], &tsRaw); err != nil {
		return time.Time{}, 0, fmt.Errorf("timestamp: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("timestamp: %w", err)
	}

	// A JSON null would silently decode to zero; keep it an error.
	var value *float64
	if err := json.Unmarshal(tuple[1], &value); err != nil {
		return time.Time{}, 0, fmt.Errorf("value: %w", err)
	}
	if value == nil {
		return time.Time{}, 0, fmt.Errorf("value is null")
	}
	return ts.UTC(), *value, nil
}

var _ ports.Fetcher = (*Fetcher)(nil)
