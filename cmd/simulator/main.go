// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// The fleet simulator: posts vehicle telemetry into the backend so the
// chat client has live traffic to display.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/swarm-squad/ep2-tui/internal/api"
	"github.com/swarm-squad/ep2-tui/internal/config"
	"github.com/swarm-squad/ep2-tui/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	fleetSize := flag.Int("fleet", 0, "number of vehicles (overrides config)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed for the fleet")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("simulator: %v", err)
	}
	if *fleetSize > 0 {
		cfg.Simulator.Fleet = *fleetSize
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fleet := sim.NewFleet(cfg.Simulator.Fleet, *seed)
	runner := sim.NewRunner(client, fleet,
		time.Duration(cfg.Simulator.TickMS)*time.Millisecond,
		cfg.Simulator.NeighborKM)

	log.Printf("simulator: %d vehicles posting to %s every %dms",
		cfg.Simulator.Fleet, cfg.API.BaseURL, cfg.Simulator.TickMS)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("simulator: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
