package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	predpost "github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard"
)

func main() {
	sink, batches, closeBatches := predpost.NewChannelSink("fanout", 32)
	defer closeBatches()

	m, err := predpost.Conf("../../config.example.yaml", predpost.WithJournalSink(sink))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go criticalWorker(batches)

	if err := m.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

// criticalWorker prints only the alerts that call for an emergency shutdown review.
func criticalWorker(batches <-chan []predpost.Alert) {
	for batch := range batches {
		for _, a := range batch {
			if a.Severity != predpost.SeverityCritical {
				continue
			}
			fmt.Printf("[%s] CRITICAL machine=%s: %v\n",
				time.Now().Format(time.RFC3339), a.Record.MachineID, a.Recommendations)
		}
	}
}
