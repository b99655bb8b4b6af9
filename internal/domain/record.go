package domain

import "time"

// Identifier pairs the symbolic name of a device or sensor with the numeric
// id the Smart Citizen platform knows it by.
type Identifier struct {
	Name string `yaml:"name" json:"name"`
	ID   int    `yaml:"id" json:"id"`
}

func (i Identifier) String() string { return i.Name }

// Record is a single (device, sensor, timestamp, value) observation.
// Records are values; nothing in the pipeline mutates one after the fetcher builds it.
type Record struct {
	Device    Identifier
	Sensor    Identifier
	Timestamp time.Time
	Value     float64
}

// Pair is one (device, sensor) combination to fetch.
type Pair struct {
	Device Identifier
	Sensor Identifier
}

// Plan describes everything a run fetches: the cross product of devices and
// sensors over [From, To].
type Plan struct {
	Devices []Identifier
	Sensors []Identifier
	From    time.Time
	To      time.Time
}

// Pairs expands the plan in device-major, sensor-minor order. This order is
// the tie-break for records sharing a timestamp.
func (p Plan) Pairs() []Pair {
	out := make([]Pair, 0, len(p.Devices)*len(p.Sensors))
	for _, d := range p.Devices {
		for _, s := range p.Sensors {
			out = append(out, Pair{Device: d, Sensor: s})
		}
	}
	return out
}
