// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// =============================================================================
// BACKOFF TESTS
// =============================================================================

func TestBackoffDelay_Sequence(t *testing.T) {
	base := 2 * time.Second
	capDelay := 30 * time.Second

	want := []time.Duration{
		2 * time.Second,  // attempt 1
		4 * time.Second,  // attempt 2
		8 * time.Second,  // attempt 3
		16 * time.Second, // attempt 4
		30 * time.Second, // attempt 5, capped from 32s
		30 * time.Second, // attempt 6, stays capped
	}
	for i, w := range want {
		if got := backoffDelay(i+1, base, capDelay); got != w {
			t.Errorf("backoffDelay(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffDelay_LargeAttemptStaysCapped(t *testing.T) {
	// A long outage must not overflow the doubling.
	got := backoffDelay(500, 2*time.Second, 30*time.Second)
	if got != 30*time.Second {
		t.Errorf("backoffDelay(500) = %v, want 30s", got)
	}
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestOpen_RefusesZeroRooms(t *testing.T) {
	m := New(Options{URL: "ws://localhost:1/ws"}, func(Event) {})
	if err := m.Open(nil); err != ErrNoRooms {
		t.Errorf("Open(nil) = %v, want ErrNoRooms", err)
	}
	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}
}

func TestConnectURL_JoinsRooms(t *testing.T) {
	m := New(Options{URL: "ws://example.test/ws"}, func(Event) {})
	m.rooms = []string{"v1", "v2", "vl3"}

	got, err := m.connectURL()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "rooms=v1%2Cv2%2Cvl3") && !strings.Contains(got, "rooms=v1,v2,vl3") {
		t.Errorf("connectURL() = %q, want comma-joined rooms param", got)
	}
}

// =============================================================================
// FRAME HANDLING TESTS
// =============================================================================

func collectEvents() (func(Event), chan Event) {
	ch := make(chan Event, 32)
	return func(ev Event) { ch <- ev }, ch
}

func TestHandleFrame_NormalizesLegacyFrame(t *testing.T) {
	emit, events := collectEvents()
	m := New(Options{URL: "ws://x/ws"}, emit)

	m.handleFrame([]byte(`{"entity_id":"v1","timestamp":"2024-01-01T00:00:00Z","message":"Vehicle v1 at (1.23, 4.56), 30.5 km/h, 80.0%"}`))

	select {
	case ev := <-events:
		if ev.Kind != EventMessage {
			t.Fatalf("kind = %v, want message", ev.Kind)
		}
		msg := ev.Message
		if msg.Content == "" || msg.MessageType != "vehicle_update" || msg.RoomID != "v1" {
			t.Errorf("normalized = %+v", msg)
		}
		if !strings.HasPrefix(msg.ID, "v1-") {
			t.Errorf("synthesized id = %q, want v1-<millis>-<n>", msg.ID)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestHandleFrame_DropsBadFrames(t *testing.T) {
	emit, events := collectEvents()
	m := New(Options{URL: "ws://x/ws"}, emit)

	m.handleFrame(nil)
	m.handleFrame([]byte(`{{{`))
	m.handleFrame([]byte(`{"entity_id":"v1","content":"no timestamp"}`))

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v for invalid frames", ev)
	default:
	}
}

func TestNextID_StrictlyIncreasingCounter(t *testing.T) {
	m := New(Options{URL: "ws://x/ws"}, func(Event) {})

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := m.nextID("v1")
		if seen[id] {
			t.Fatalf("duplicate synthesized id %q", id)
		}
		seen[id] = true
	}
}

// =============================================================================
// CONNECTION TESTS
// =============================================================================

var upgrader = websocket.Upgrader{}

// startWSServer runs a websocket endpoint driving each connection with fn.
func startWSServer(t *testing.T, fn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fn(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func waitFor(t *testing.T, events chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %v", kind)
		}
	}
}

func TestManager_DeliversServerFrames(t *testing.T) {
	srv := startWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"entity_id":"v2","timestamp":"2024-01-01T00:00:00Z","content":"hi"}`))
		// Hold the connection open until the client hangs up.
		conn.ReadMessage()
	})

	emit, events := collectEvents()
	m := New(Options{URL: wsURL(srv)}, emit)
	if err := m.Open([]string{"v1", "v2"}); err != nil {
		t.Fatal(err)
	}
	defer m.Dispose()

	waitFor(t, events, EventConnected)
	ev := waitFor(t, events, EventMessage)
	if ev.Message.EntityID != "v2" || ev.Message.Content != "hi" {
		t.Errorf("message = %+v", ev.Message)
	}
}

func TestManager_NormalCloseDoesNotReconnect(t *testing.T) {
	srv := startWSServer(t, func(conn *websocket.Conn) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
			time.Now().Add(time.Second))
		conn.ReadMessage()
		conn.Close()
	})

	emit, events := collectEvents()
	m := New(Options{URL: wsURL(srv)}, emit)
	if err := m.Open([]string{"v1"}); err != nil {
		t.Fatal(err)
	}
	defer m.Dispose()

	waitFor(t, events, EventConnected)
	ev := waitFor(t, events, EventDisconnected)
	if ev.Reconnecting {
		t.Error("close code 1000 must not trigger a reconnect")
	}
	if ev.Code != websocket.CloseNormalClosure {
		t.Errorf("close code = %d, want 1000", ev.Code)
	}
}

func TestManager_AbnormalCloseSchedulesReconnect(t *testing.T) {
	srv := startWSServer(t, func(conn *websocket.Conn) {
		// Drop the link without a close handshake.
		conn.Close()
	})

	emit, events := collectEvents()
	m := New(Options{
		URL:       wsURL(srv),
		BaseDelay: 10 * time.Millisecond,
		CapDelay:  20 * time.Millisecond,
		JitterMax: time.Millisecond,
	}, emit)
	if err := m.Open([]string{"v1"}); err != nil {
		t.Fatal(err)
	}
	defer m.Dispose()

	waitFor(t, events, EventConnected)
	ev := waitFor(t, events, EventDisconnected)
	if !ev.Reconnecting {
		t.Error("abnormal close must schedule a reconnect")
	}
	// The link comes back by itself.
	waitFor(t, events, EventConnected)
}
