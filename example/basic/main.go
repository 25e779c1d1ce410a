package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	predpost "github.com/gdgarcadevarunteja30042006-collab/predpost-dashboard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := predpost.Run(ctx, "../../config.example.yaml"); err != nil && err != context.Canceled {
		log.Fatalf("monitor exited: %v", err)
	}
}
