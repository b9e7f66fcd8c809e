// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package storage persists rooms, entities, and messages for the dev
// backend in a local SQLite database.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/swarm-squad/ep2-tui/internal/model"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	// modernc's driver is single-writer; serialize access through one
	// connection instead of letting database/sql pool them.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS entities (
		id      TEXT PRIMARY KEY,
		name    TEXT NOT NULL,
		type    TEXT NOT NULL,
		room_id TEXT NOT NULL,
		status  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		id           TEXT PRIMARY KEY,
		room_id      TEXT NOT NULL,
		entity_id    TEXT NOT NULL,
		content      TEXT NOT NULL,
		timestamp    TEXT NOT NULL,
		message_type TEXT NOT NULL,
		state        TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, timestamp);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

// =============================================================================
// SEEDING
// =============================================================================

// SeedFleet installs the default rooms and entities for a fleet of n
// vehicles: a vehicle room and a vehicle-agent bridge room per vehicle.
// Existing rows are left alone.
func (s *Store) SeedFleet(n int) error {
	for i := 1; i <= n; i++ {
		vid := fmt.Sprintf("v%d", i)
		bid := fmt.Sprintf("vl%d", i)

		if err := s.UpsertRoom(model.Room{ID: vid, Name: "Vehicle " + vid, Type: model.RoomVehicle}); err != nil {
			return err
		}
		if err := s.UpsertRoom(model.Room{ID: bid, Name: "Bridge " + vid, Type: model.RoomVeh2LLM}); err != nil {
			return err
		}
		if err := s.UpsertEntity(model.Entity{
			ID: vid, Name: "Vehicle " + vid, Type: "vehicle", RoomID: vid, Status: model.StatusOnline,
		}); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRoom inserts or updates a room.
func (s *Store) UpsertRoom(r model.Room) error {
	_, err := s.db.Exec(`
		INSERT INTO rooms (id, name, type) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type`,
		r.ID, r.Name, string(r.Type))
	if err != nil {
		return fmt.Errorf("storage: upsert room %s: %w", r.ID, err)
	}
	return nil
}

// UpsertEntity inserts or updates an entity.
func (s *Store) UpsertEntity(e model.Entity) error {
	_, err := s.db.Exec(`
		INSERT INTO entities (id, name, type, room_id, status) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, type = excluded.type,
			room_id = excluded.room_id, status = excluded.status`,
		e.ID, e.Name, e.Type, e.RoomID, e.Status)
	if err != nil {
		return fmt.Errorf("storage: upsert entity %s: %w", e.ID, err)
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Rooms returns all rooms ordered by id.
func (s *Store) Rooms() ([]model.Room, error) {
	rows, err := s.db.Query(`SELECT id, name, type FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list rooms: %w", err)
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var r model.Room
		var typ string
		if err := rows.Scan(&r.ID, &r.Name, &typ); err != nil {
			return nil, err
		}
		r.Type = model.RoomType(typ)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Entities returns entities, optionally filtered by room, ordered by id.
func (s *Store) Entities(roomID string) ([]model.Entity, error) {
	query := `SELECT id, name, type, room_id, status FROM entities`
	args := []any{}
	if roomID != "" {
		query += ` WHERE room_id = ?`
		args = append(args, roomID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list entities: %w", err)
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var e model.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.RoomID, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertMessage stores a message, assigning a fresh id when the caller
// did not provide one, and returns the stored message.
func (s *Store) InsertMessage(m model.Message) (model.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	state, err := json.Marshal(m.State)
	if err != nil {
		return m, fmt.Errorf("storage: encode state: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO messages (id, room_id, entity_id, content, timestamp, message_type, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.RoomID, m.EntityID, m.Content, m.Timestamp, m.MessageType, string(state))
	if err != nil {
		return m, fmt.Errorf("storage: insert message: %w", err)
	}
	return m, nil
}

// Messages returns the most recent messages in ascending timestamp order,
// optionally filtered by room. limit <= 0 means 50.
func (s *Store) Messages(roomID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	// Take the newest rows, then flip them into display order.
	query := `SELECT id, room_id, entity_id, content, timestamp, message_type, state FROM messages`
	args := []any{}
	if roomID != "" {
		query += ` WHERE room_id = ?`
		args = append(args, roomID)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list messages: %w", err)
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		var m model.Message
		var state string
		if err := rows.Scan(&m.ID, &m.RoomID, &m.EntityID, &m.Content,
			&m.Timestamp, &m.MessageType, &state); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(state), &m.State); err != nil {
			m.State = model.VehicleState{}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// SetEntityStatus flips an entity's online flag.
func (s *Store) SetEntityStatus(entityID, status string) error {
	_, err := s.db.Exec(`UPDATE entities SET status = ? WHERE id = ?`, status, entityID)
	if err != nil {
		return fmt.Errorf("storage: set status for %s: %w", entityID, err)
	}
	return nil
}
