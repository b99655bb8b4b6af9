package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ghalamif/sck2eventhub/pkg/sck2eventhub"
)

func main() {
	flow, err := sck2eventhub.Conf("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	batchNo := 0
	callback := func(_ context.Context, payloads [][]byte) error {
		batchNo++
		for _, p := range payloads {
			fmt.Printf("batch=%d %s\n", batchNo, p)
		}
		return nil
	}

	// 256 KiB batches, the Event Hubs standard tier limit.
	if _, err := flow.Run(context.Background(), sck2eventhub.StreamOutCallback("stdout", 256<<10, callback)); err != nil {
		log.Fatalf("run error: %v", err)
	}
}
