package sck2eventhub

import (
	"github.com/ghalamif/sck2eventhub/internal/app/pipeline"
	"github.com/ghalamif/sck2eventhub/internal/domain"
	"github.com/ghalamif/sck2eventhub/internal/ports"
)

// Record is one reading: a device, a sensor, a UTC timestamp and a value.
type Record = domain.Record

// Identifier pairs a symbolic name with its numeric platform id.
type Identifier = domain.Identifier

// Plan is the device × sensor grid and window a run fetches.
type Plan = domain.Plan

// Fetcher retrieves one sensor series for one device over a window.
type Fetcher = ports.Fetcher

// Encoder turns a record into the payload bytes handed to a sink.
type Encoder = ports.Encoder

// Sink accepts size-bounded batches of payloads.
type Sink = ports.Sink

// Batch is a sink-owned container that reports when it is full.
type Batch = ports.Batch

// Observability emits logs and metrics about a run.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Summary reports how many records a run fetched and delivered.
type Summary = pipeline.Summary

// Errors callers can match with errors.As.
type (
	FetchError           = domain.FetchError
	OversizedRecordError = domain.OversizedRecordError
	SendError            = domain.SendError
)
