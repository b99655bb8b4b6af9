package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ghalamif/sck2eventhub"
)

func main() {
	flow, err := sck2eventhub.Conf("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sink, batches, closeBatches := sck2eventhub.NewChannelSink("fanout", 64<<10, 32)
	defer closeBatches()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fanoutWorker("ingest", batches)
	}()

	if _, err := flow.Run(context.Background(), sck2eventhub.StreamOutSink(sink)); err != nil {
		log.Fatalf("run error: %v", err)
	}
	// Run closes the sink, which ends the worker's range loop.
	wg.Wait()
}

func fanoutWorker(name string, batches <-chan [][]byte) {
	for batch := range batches {
		var size int
		for _, p := range batch {
			size += len(p)
		}
		fmt.Printf("[%s] forwarding %d payloads (%d bytes) at %s\n", name, len(batch), size, time.Now().Format(time.RFC3339))
	}
}
