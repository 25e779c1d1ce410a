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
	callback := func(batch []predpost.Alert) error {
		for _, a := range batch {
			fmt.Printf("%s machine=%s severity=%s temperature=%.1f vibration=%.2f\n",
				a.Record.Timestamp.Format(time.RFC3339),
				a.Record.MachineID,
				a.Severity,
				a.Record.Temperature,
				a.Record.Vibration,
			)
		}
		return nil
	}

	m, err := predpost.Conf("../../config.example.yaml",
		predpost.WithJournalSink(predpost.NewCallbackSink("stdout", callback)))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
