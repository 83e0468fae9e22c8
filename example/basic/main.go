// Minimal embedding: load a YAML config and run the engine until interrupted.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/HenilJainIO/trapsight/pkg/trapsight"
)

func main() {
	cfg, err := trapsight.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	engine, err := trapsight.New(cfg)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("engine exited: %v", err)
	}
}
