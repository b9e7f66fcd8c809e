// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/swarm-squad/ep2-tui/internal/model"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
}

// =============================================================================
// ROOM DIRECTORY TESTS
// =============================================================================

func TestListRooms_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rooms" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`[{"id":"v1","name":"Vehicle v1","type":"vehicle"},
			{"id":"vl1","name":"Bridge v1","type":"veh2llm"}]`))
	}))
	defer srv.Close()

	rooms := newTestClient(srv).ListRooms(context.Background())
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms, want 2", len(rooms))
	}
	if rooms[1].Type != model.RoomVeh2LLM {
		t.Errorf("rooms[1].Type = %q", rooms[1].Type)
	}
}

func TestListRooms_FallbackCases(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				// 200 with nothing in it
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"not":"an array"`))
			},
		},
		{
			name: "empty array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			rooms := newTestClient(srv).ListRooms(context.Background())
			if len(rooms) != 3 {
				t.Fatalf("got %d fallback rooms, want 3", len(rooms))
			}
			want := []string{"v1", "v2", "v3"}
			for i, r := range rooms {
				if r.ID != want[i] {
					t.Errorf("rooms[%d].ID = %q, want %q", i, r.ID, want[i])
				}
				if r.Type != model.RoomVehicle {
					t.Errorf("rooms[%d].Type = %q, want vehicle", i, r.Type)
				}
			}
		})
	}
}

func TestListRooms_TransportFailure(t *testing.T) {
	// Point at a server that is already closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	rooms := newTestClient(srv).ListRooms(context.Background())
	if len(rooms) != 3 {
		t.Fatalf("got %d fallback rooms, want 3", len(rooms))
	}
}

// =============================================================================
// MESSAGE HISTORY TESTS
// =============================================================================

func TestListMessages_DropsInvalidRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		w.Write([]byte(`[
			{"id":1,"entity_id":"v1","timestamp":"2024-01-01T00:00:00Z","content":"ok"},
			{"entity_id":"","timestamp":"2024-01-01T00:00:01Z","content":"no entity"},
			{"id":2,"entity_id":"v2","timestamp":"2024-01-01T00:00:02Z","message":"legacy body"}
		]`))
	}))
	defer srv.Close()

	msgs, err := newTestClient(srv).ListMessages(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (invalid record dropped)", len(msgs))
	}
	if msgs[0].ID != "1" {
		t.Errorf("msgs[0].ID = %q, want \"1\"", msgs[0].ID)
	}
	if msgs[1].Content != "legacy body" {
		t.Errorf("msgs[1].Content = %q", msgs[1].Content)
	}
}

func TestListMessages_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListMessages(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrTypeInvalidResponse {
		t.Errorf("error = %v, want ErrTypeInvalidResponse", err)
	}
}

func TestListMessagesByRoom_Filters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("room_id"); got != "vl2" {
			t.Errorf("room_id = %q, want vl2", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	msgs, err := newTestClient(srv).ListMessagesByRoom(context.Background(), "vl2", 0)
	if err != nil {
		t.Fatalf("ListMessagesByRoom: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages, want 0", len(msgs))
	}
}

// =============================================================================
// ENTITY TESTS
// =============================================================================

func TestListEntities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"v1","name":"Vehicle 1","type":"vehicle","room_id":"v1","status":"online"}]`))
	}))
	defer srv.Close()

	entities, err := newTestClient(srv).ListEntities(context.Background(), "")
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 1 || !entities[0].Online() {
		t.Errorf("entities = %+v", entities)
	}
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSendMessage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var env map[string]any
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if env["entity_id"] != "user" {
			t.Errorf("entity_id = %v, want user", env["entity_id"])
		}
		if env["message_type"] != "user_message" {
			t.Errorf("message_type = %v", env["message_type"])
		}
		if env["room_id"] != "v1" || env["content"] != "hello fleet" {
			t.Errorf("envelope = %v", env)
		}
		if _, ok := env["state"].(map[string]any); !ok {
			t.Errorf("state should be an object, got %T", env["state"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if !newTestClient(srv).SendMessage(context.Background(), "v1", "hello fleet") {
		t.Error("SendMessage should report success")
	}
}

func TestSendMessage_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if newTestClient(srv).SendMessage(context.Background(), "v1", "hello") {
		t.Error("SendMessage should report failure on 5xx")
	}

	// Transport failure also maps to false, never a panic.
	srv.Close()
	if newTestClient(srv).SendMessage(context.Background(), "v1", "hello") {
		t.Error("SendMessage should report failure when unreachable")
	}
}
