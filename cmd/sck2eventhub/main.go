package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghalamif/sck2eventhub"
)

const defaultConfigPath = "./config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "preview":
		err = previewCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("sck2eventhub %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to job configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sck2eventhub.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	runner, err := sck2eventhub.NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: fetched %d, sent %d records to %s\n", sum.RunID, sum.Fetched, sum.Sent, cfg.Sink.Kind)
	fmt.Printf("Elapsed time: %.2f minutes\n", sum.Elapsed.Minutes())
	return nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sck2eventhub.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good: %d devices × %d sensors, %s → %s, sink %s\n",
		*cfgPath,
		len(cfg.Source.Devices), len(cfg.Source.Sensors),
		cfg.Source.From.Format(time.RFC3339), cfg.Source.To.Format(time.RFC3339),
		cfg.Sink.Kind)
	return nil
}

func previewCommand(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "Path to job configuration file")
	n := fs.Int("n", 10, "Number of payloads to print (0 prints all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := sck2eventhub.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	runner, err := sck2eventhub.NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := runner.Preview(ctx, *n)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for i := range records {
		payload, err := runner.Encode(&records[i])
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		w.Write(payload)
		w.WriteByte('\n')
	}
	return nil
}

// statsCommand polls a Pushgateway (or any exposition endpoint) and prints
// the counters of the most recently pushed run.
func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9091/metrics", "Pushgateway metrics endpoint")
	interval := fs.Duration("interval", 5*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(ctx, *url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"sck_records_fetched_total": 0,
		"sck_records_sent_total":    0,
		"sck_batches_sent_total":    0,
		"sck_run_duration_seconds":  0,
	}
	if err := scanMetrics(bufio.NewScanner(resp.Body), targets); err != nil {
		return err
	}

	fmt.Printf("[%s] fetched=%.0f sent=%.0f batches=%.0f duration=%.1fs\n",
		time.Now().Format(time.RFC3339),
		targets["sck_records_fetched_total"],
		targets["sck_records_sent_total"],
		targets["sck_batches_sent_total"],
		targets["sck_run_duration_seconds"],
	)
	return nil
}

// scanMetrics reads text exposition lines and stores the last sample seen
// for each target name, with or without labels.
func scanMetrics(scanner *bufio.Scanner, targets map[string]float64) error {
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if !strings.HasPrefix(line, key+" ") && !strings.HasPrefix(line, key+"{") {
				continue
			}
			idx := strings.LastIndexByte(line, ' ')
			var value float64
			if _, err := fmt.Sscanf(line[idx+1:], "%g", &value); err == nil {
				targets[key] = value
			}
		}
	}
	return scanner.Err()
}

func printUsage() {
	fmt.Printf(`sck2eventhub CLI

Usage:
  sck2eventhub <command> [flags]

Commands:
  run        Fetch the configured window and send it to the configured sink
  validate   Load and validate a config file without contacting anything
  preview    Fetch and print the first ordered payloads without sending them
  stats      Poll a Pushgateway and print the counters of the last run

Examples:
  sck2eventhub run -config ./config.yaml
  sck2eventhub validate -config ./config.yaml
  sck2eventhub preview -config ./config.yaml -n 20
  sck2eventhub stats -url http://localhost:9091/metrics -interval 5s
`)
}
