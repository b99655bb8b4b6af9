package domain

import "fmt"

// FetchError reports a failed or unparseable readings request for one
// device/sensor pair.
type FetchError struct {
	Device Identifier
	Sensor Identifier
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch device=%s(%d) sensor=%s(%d): %v",
		e.Device.Name, e.Device.ID, e.Sensor.Name, e.Sensor.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// OversizedRecordError means a record's payload was rejected by a freshly
// created, empty batch and can never be sent.
type OversizedRecordError struct {
	Index int
	Size  int
	Batch int
}

func (e *OversizedRecordError) Error() string {
	return fmt.Sprintf("record %d (%d bytes) does not fit in empty batch %d", e.Index, e.Size, e.Batch)
}

// SendError wraps a sink failure. Op is one of "create", "append" or "send";
// Batch is the 1-based sequence number of the batch involved.
type SendError struct {
	Op    string
	Batch int
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sink %s batch %d: %v", e.Op, e.Batch, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
