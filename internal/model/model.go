// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package model contains the data structures shared by the chat client,
// the dev server, and the fleet simulator.
package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// =============================================================================
// ROOM TYPES
// =============================================================================

// RoomType classifies a room. This is an open, string-tagged set: servers
// are free to introduce new types and the client treats unknown types as
// plain text rooms.
type RoomType string

const (
	RoomVehicle RoomType = "vehicle" // Vehicle-to-vehicle traffic
	RoomAgent   RoomType = "agent"   // Agent-to-agent traffic
	RoomVeh2LLM RoomType = "veh2llm" // Vehicle-to-agent bridge rooms
	RoomLLM     RoomType = "llm"     // LLM deliberation rooms
	RoomText    RoomType = "text"    // Human text channels
	RoomVoice   RoomType = "voice"   // Voice channels (rendered as placeholders)
)

// String returns the string representation of the room type.
func (t RoomType) String() string {
	return string(t)
}

// DisplayName returns a human-readable section label for the room type.
func (t RoomType) DisplayName() string {
	switch t {
	case RoomVehicle:
		return "VEHICLE CHANNELS"
	case RoomAgent:
		return "AGENT CHANNELS"
	case RoomVeh2LLM:
		return "VEHICLE-AGENT CHANNELS"
	case RoomLLM:
		return "LLM CHANNELS"
	case RoomVoice:
		return "VOICE CHANNELS"
	case RoomText:
		return "TEXT CHANNELS"
	default:
		return "CHANNELS"
	}
}

// Room is a chat channel. Identity is ID; rooms are immutable for the
// lifetime of a session once the directory has resolved them.
type Room struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type RoomType `json:"type"`
}

// =============================================================================
// VEHICLE STATE
// =============================================================================

// VehicleState is the structured telemetry attached to vehicle updates.
// Every numeric field is optional: a nil pointer means the producer did not
// report that reading, which is distinct from a zero value.
type VehicleState struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Battery   *float64 `json:"battery,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// IsZero reports whether no telemetry field is set.
func (s VehicleState) IsZero() bool {
	return s.Latitude == nil && s.Longitude == nil && s.Speed == nil &&
		s.Battery == nil && s.Status == ""
}

// Float returns a pointer to v. Convenience for building states literally.
func Float(v float64) *float64 {
	return &v
}

// =============================================================================
// MESSAGES
// =============================================================================

// Message type tags used across the wire. Like RoomType this is an open
// set; unknown tags are rendered as plain chat.
const (
	TypeVehicleUpdate = "vehicle_update"
	TypeAgentResponse = "agent_response"
	TypeUserMessage   = "user_message"
	TypeSystemAlert   = "system_alert"
)

// Message is a single chat message.
//
// ID is an opaque string. Servers assign numeric database ids and the
// realtime client synthesizes "entity-millis-counter" ids; both live in the
// same string space and are only ever used as rendering keys, never
// compared across sources or treated arithmetically.
type Message struct {
	ID          string       `json:"id"`
	RoomID      string       `json:"room_id"`
	EntityID    string       `json:"entity_id"`
	Content     string       `json:"content"`
	Timestamp   string       `json:"timestamp"`
	MessageType string       `json:"message_type"`
	State       VehicleState `json:"state"`
}

// Time parses the message timestamp. Timestamps travel as RFC 3339 strings;
// unparseable ones sort to the zero time rather than failing the caller.
func (m *Message) Time() time.Time {
	if t, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
		return t
	}
	return time.Time{}
}

// Before reports whether m was sent before other, by timestamp.
func (m *Message) Before(other *Message) bool {
	return m.Time().Before(other.Time())
}

// =============================================================================
// ENTITIES
// =============================================================================

// Entity statuses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Entity is a known speaker: a vehicle, an agent, or a human.
type Entity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Status string `json:"status"`
}

// Online reports whether the entity is currently online.
func (e *Entity) Online() bool {
	return e.Status == StatusOnline
}

// =============================================================================
// WIRE DECODING
// =============================================================================

// WireMessage mirrors the JSON envelope the server and the legacy
// simulator emit. Field names drifted over time, so the decoder accepts
// both shapes: "content" with "message" as the legacy fallback, and ids
// that may be JSON numbers or strings.
type WireMessage struct {
	ID          json.RawMessage `json:"id"`
	RoomID      string          `json:"room_id"`
	EntityID    string          `json:"entity_id"`
	Content     string          `json:"content"`
	LegacyBody  string          `json:"message"`
	Timestamp   string          `json:"timestamp"`
	MessageType string          `json:"message_type"`
	State       *VehicleState   `json:"state"`
}

// Body returns the message text, preferring "content" over the legacy
// "message" field.
func (w *WireMessage) Body() string {
	if w.Content != "" {
		return w.Content
	}
	return w.LegacyBody
}

// StringID normalizes the raw id to the opaque string space. Numbers are
// rendered in decimal; quoted strings are unwrapped; anything else (null,
// absent, objects) yields "".
func (w *WireMessage) StringID() string {
	if len(w.ID) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(w.ID, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(w.ID, &n); err == nil {
		// Database ids are integral; render without a fraction.
		return strconv.FormatInt(int64(n), 10)
	}
	return ""
}

// Valid reports whether the wire message is structurally sound: entity id
// and timestamp present, and at least one of the body fields set. Records
// failing this check are dropped by both the history loader and the
// realtime client.
func (w *WireMessage) Valid() bool {
	return w.EntityID != "" && w.Timestamp != "" && w.Body() != ""
}

// Normalize converts a wire message into a Message, filling in the
// defaults the legacy producers omit: message_type defaults to
// vehicle_update, room_id to the sender's own room, and state to empty.
// The id is left as-is; callers that need a guaranteed-unique id (the
// realtime client) synthesize one when StringID is empty.
func (w *WireMessage) Normalize() Message {
	msg := Message{
		ID:          w.StringID(),
		RoomID:      w.RoomID,
		EntityID:    w.EntityID,
		Content:     w.Body(),
		Timestamp:   w.Timestamp,
		MessageType: w.MessageType,
	}
	if msg.MessageType == "" {
		msg.MessageType = TypeVehicleUpdate
	}
	if msg.RoomID == "" {
		msg.RoomID = w.EntityID
	}
	if w.State != nil {
		msg.State = *w.State
	}
	return msg
}
