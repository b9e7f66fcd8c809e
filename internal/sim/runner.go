// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package sim

import (
	"context"
	"log"
	"time"

	"github.com/swarm-squad/ep2-tui/internal/api"
	"github.com/swarm-squad/ep2-tui/internal/model"
)

// Runner drives a fleet: every tick each vehicle advances one step and
// narrates its telemetry into its broadcast rooms through the backend.
type Runner struct {
	client     *api.Client
	fleet      []*Vehicle
	tick       time.Duration
	neighborKM float64
}

// NewRunner builds a runner over an existing fleet.
func NewRunner(client *api.Client, fleet []*Vehicle, tick time.Duration, neighborKM float64) *Runner {
	return &Runner{
		client:     client,
		fleet:      fleet,
		tick:       tick,
		neighborKM: neighborKM,
	}
}

// Run loops until the context is canceled. Post failures are logged and
// retried implicitly on the next tick; the simulator never gives up on a
// flaky backend.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.step(ctx)
		}
	}
}

func (r *Runner) step(ctx context.Context) {
	for _, v := range r.fleet {
		v.Step()
		narration := v.Narrate()
		state := v.State()
		now := time.Now().UTC().Format(time.RFC3339)

		for _, room := range BroadcastRooms(v, r.fleet, r.neighborKM) {
			msg := model.Message{
				RoomID:      room,
				EntityID:    v.ID,
				Content:     narration,
				Timestamp:   now,
				MessageType: model.TypeVehicleUpdate,
				State:       state,
			}
			if _, err := r.client.PostMessage(ctx, msg); err != nil {
				log.Printf("sim: post for %s to %s failed: %v", v.ID, room, err)
			}
		}
	}
}
