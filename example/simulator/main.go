// Runs the engine against an in-process simulated fleet and prints the
// aggregate after each cycle. Useful for demos with no telemetry backend.
package main

import (
	"context"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/HenilJainIO/trapsight/pkg/trapsight"
)

type simSource struct{}

func (simSource) ListDevices(context.Context) ([]trapsight.Device, error) {
	return []trapsight.Device{
		{ID: "trap-east-1", TypeID: "STEAM_TRAP3"},
		{ID: "trap-east-2", TypeID: "STEAM_TRAP3"},
		{ID: "trap-west-1", TypeID: "steamtrap"},
	}, nil
}

func (simSource) Metadata(_ context.Context, id string) (*trapsight.DeviceMetadata, error) {
	return &trapsight.DeviceMetadata{DeviceID: id, Name: "Simulated " + id, TypeName: "SteamTrap"}, nil
}

func (simSource) LatestReadings(_ context.Context, id string) ([]trapsight.SensorReading, error) {
	codes := []float64{1, 1, 1, 3, 6, 9}
	now := time.Now()
	return []trapsight.SensorReading{
		{Label: "Trap Status", Value: trapsight.NumberValue(codes[rand.Intn(len(codes))]), ObservedAt: now},
		{Label: "Inlet Temp", Value: trapsight.NumberValue(180 + rand.Float64()*40), ObservedAt: now},
		{Label: "Outlet Temp", Value: trapsight.NumberValue(60 + rand.Float64()*40), ObservedAt: now},
	}, nil
}

func main() {
	cfg := &trapsight.Config{}
	cfg.Fleet.CardRefresh = 2 * time.Second
	cfg.API.Addr = ":8080"
	cfg.Metrics.Addr = ":9100"

	engine, err := trapsight.New(cfg, trapsight.WithTelemetrySource(simSource{}))
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				k := engine.Orchestrator().KPIs()
				log.Printf("fleet: total=%d online=%d efficiency=%.1f%% loss=%.0f",
					k.Total, k.Online, k.EfficiencyPct, k.EnergyLossUnits)
			}
		}
	}()

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("engine exited: %v", err)
	}
}
