package main

import (
	"bufio"
	"strings"
	"testing"
)

func TestScanMetricsReadsLabelledSamples(t *testing.T) {
	body := `# HELP sck_records_sent_total Records in batches accepted by the ingestion sink.
# TYPE sck_records_sent_total counter
sck_records_sent_total{instance="",job="sck2eventhub",run_id="abc"} 1500
sck_batches_sent_total 3
sck_run_duration_seconds{job="sck2eventhub"} 1.25
sck_records_sent_total_other 9
`
	targets := map[string]float64{
		"sck_records_sent_total":   0,
		"sck_batches_sent_total":   0,
		"sck_run_duration_seconds": 0,
	}
	if err := scanMetrics(bufio.NewScanner(strings.NewReader(body)), targets); err != nil {
		t.Fatalf("scanMetrics returned error: %v", err)
	}
	if targets["sck_records_sent_total"] != 1500 {
		t.Fatalf("expected 1500 records sent, got %v", targets["sck_records_sent_total"])
	}
	if targets["sck_batches_sent_total"] != 3 {
		t.Fatalf("expected 3 batches, got %v", targets["sck_batches_sent_total"])
	}
	if targets["sck_run_duration_seconds"] != 1.25 {
		t.Fatalf("expected 1.25s, got %v", targets["sck_run_duration_seconds"])
	}
}
