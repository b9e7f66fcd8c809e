// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package sim implements the vehicle fleet simulator: a handful of
// vehicles wandering a map, drifting speed and battery, and narrating
// their telemetry into the backend so the chat client has live traffic.
package sim

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/swarm-squad/ep2-tui/internal/model"
)

// Vehicle statuses.
const (
	StatusMoving     = "moving"
	StatusStationary = "stationary"
	StatusCharging   = "charging"
)

// Starting area for the fleet random walk.
const (
	baseLat = 37.7749
	baseLon = -122.4194
)

// Vehicle is one simulated fleet member.
type Vehicle struct {
	ID      string
	Lat     float64
	Lon     float64
	Speed   float64 // km/h
	Battery float64 // percent
	Status  string

	rng *rand.Rand
}

// NewVehicle creates a vehicle scattered near the base coordinates.
// The seed makes a fleet reproducible run to run.
func NewVehicle(id string, seed int64) *Vehicle {
	rng := rand.New(rand.NewSource(seed))
	return &Vehicle{
		ID:      id,
		Lat:     baseLat + (rng.Float64()-0.5)*0.2,
		Lon:     baseLon + (rng.Float64()-0.5)*0.2,
		Speed:   20 + rng.Float64()*40,
		Battery: 60 + rng.Float64()*40,
		Status:  StatusMoving,
		rng:     rng,
	}
}

// NewFleet creates n vehicles with ids v1..vn.
func NewFleet(n int, seed int64) []*Vehicle {
	fleet := make([]*Vehicle, n)
	for i := range fleet {
		fleet[i] = NewVehicle(fmt.Sprintf("v%d", i+1), seed+int64(i))
	}
	return fleet
}

// Step advances the vehicle one tick: a small random walk on position,
// drift on speed, and battery drain proportional to speed. A drained
// vehicle stops to charge until it is back above 20 percent.
func (v *Vehicle) Step() {
	if v.Status == StatusCharging {
		v.Battery = math.Min(100, v.Battery+2+v.rng.Float64()*3)
		v.Speed = 0
		if v.Battery >= 20 {
			v.Status = StatusMoving
		}
		return
	}

	v.Lat += (v.rng.Float64() - 0.5) * 0.02
	v.Lon += (v.rng.Float64() - 0.5) * 0.02

	v.Speed += (v.rng.Float64() - 0.5) * 10
	v.Speed = math.Max(0, math.Min(120, v.Speed))

	v.Battery -= 0.1 + v.Speed*0.005
	v.Battery = math.Max(0, v.Battery)

	switch {
	case v.Battery < 5:
		v.Status = StatusCharging
	case v.Speed < 1:
		v.Status = StatusStationary
	default:
		v.Status = StatusMoving
	}
}

// DistanceTo returns the great-circle distance to another vehicle in km.
func (v *Vehicle) DistanceTo(o *Vehicle) float64 {
	const earthRadiusKM = 6371.0

	lat1 := v.Lat * math.Pi / 180
	lat2 := o.Lat * math.Pi / 180
	dLat := (o.Lat - v.Lat) * math.Pi / 180
	dLon := (o.Lon - v.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// statusDescription renders the status clause of the telemetry sentence.
func (v *Vehicle) statusDescription() string {
	switch v.Status {
	case StatusStationary:
		return "is currently stationary"
	case StatusCharging:
		return "is currently charging"
	default:
		return "is currently in motion"
	}
}

// Narrate renders the telemetry sentence the chat client colorizes.
func (v *Vehicle) Narrate() string {
	return fmt.Sprintf(
		"Vehicle %s %s at coordinates (%.2f, %.2f). It's traveling at %.1f km/h with %.1f%% battery remaining.",
		v.ID, v.statusDescription(), v.Lat, v.Lon, v.Speed, v.Battery)
}

// State returns the structured telemetry matching the narration.
func (v *Vehicle) State() model.VehicleState {
	return model.VehicleState{
		Latitude:  model.Float(v.Lat),
		Longitude: model.Float(v.Lon),
		Speed:     model.Float(v.Speed),
		Battery:   model.Float(v.Battery),
		Status:    v.Status,
	}
}

// BridgeRoom returns the vehicle-agent bridge room for a vehicle id
// (v1 -> vl1).
func BridgeRoom(vehicleID string) string {
	return "vl" + strings.TrimPrefix(vehicleID, "v")
}

// BroadcastRooms returns the rooms one update fans out to: the vehicle's
// own room, its bridge room, and the room of every fleet member within
// neighborKM.
func BroadcastRooms(v *Vehicle, fleet []*Vehicle, neighborKM float64) []string {
	rooms := []string{v.ID, BridgeRoom(v.ID)}
	for _, o := range fleet {
		if o.ID == v.ID {
			continue
		}
		if v.DistanceTo(o) <= neighborKM {
			rooms = append(rooms, o.ID)
		}
	}
	return rooms
}
