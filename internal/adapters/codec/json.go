package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

const (
	deviceKey    = "deviceId"
	timestampKey = "timestamp"
)

// JSON encodes a record as a flat object keyed by the lower-cased sensor name:
//
//	{"deviceId":"VDK09","eco2":412,"timestamp":"2021-07-01T00:00:01Z"}
//
// Keys are emitted in sorted order, so equal records encode to equal bytes.
type JSON struct{}

func NewJSON() *JSON { return &JSON{} }

func (JSON) Encode(r *domain.Record) ([]byte, error) {
	field := strings.ToLower(r.Sensor.Name)
	if field == "" || field == timestampKey || field == strings.ToLower(deviceKey) {
		return nil, fmt.Errorf("sensor name %q cannot be used as a payload field", r.Sensor.Name)
	}
	payload := map[string]any{
		deviceKey:    r.Device.Name,
		timestampKey: r.Timestamp.UTC().Format(time.RFC3339Nano),
		field:        r.Value,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", r.Device.Name, r.Sensor.Name, err)
	}
	return b, nil
}

func (JSON) ContentType() string { return "application/json" }

var _ ports.Encoder = (*JSON)(nil)
