package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/sck2eventhub"
)

func main() {
	flow, err := sck2eventhub.Conf("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := flow.Run(ctx)
	if err != nil {
		log.Fatalf("run failed after %d records: %v", sum.Sent, err)
	}
	log.Printf("run %s sent %d of %d records in %s", sum.RunID, sum.Sent, sum.Fetched, sum.Elapsed)
}
