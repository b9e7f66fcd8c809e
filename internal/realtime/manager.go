// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package realtime maintains the WebSocket channel that delivers live
// fleet messages. A Manager owns the connection lifecycle: dialing,
// normalizing inbound frames, and reconnecting with exponential backoff
// when the link drops for any reason other than a deliberate close.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/swarm-squad/ep2-tui/internal/model"
)

// =============================================================================
// STATES AND EVENTS
// =============================================================================

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event is delivered to the owner through the callback passed to New.
// Exactly one field group is populated per event, discriminated by Kind.
type Event struct {
	Kind EventKind

	// Message is set for EventMessage.
	Message model.Message

	// Err is set for EventError.
	Err error

	// Code and Reconnecting are set for EventDisconnected.
	Code         int
	Reconnecting bool
	// Delay is the pause before the next attempt when Reconnecting.
	Delay time.Duration
}

// EventKind discriminates Event payloads.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventMessage
	EventError
)

// ErrNoRooms is surfaced when Open is called without any room ids.
var ErrNoRooms = errors.New("realtime: refusing to connect with zero rooms")

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Manager.
type Options struct {
	// URL is the WebSocket endpoint; room ids are appended as ?rooms=a,b,c
	URL string

	// BaseDelay is the first reconnect delay (default 2s).
	BaseDelay time.Duration

	// CapDelay bounds the exponential backoff (default 30s).
	CapDelay time.Duration

	// JitterMax bounds the random jitter added to every reconnect delay
	// (default 1s). The jitter keeps a fleet of clients from thundering
	// back in lockstep.
	JitterMax time.Duration
}

func (o *Options) fillDefaults() {
	if o.BaseDelay <= 0 {
		o.BaseDelay = 2 * time.Second
	}
	if o.CapDelay <= 0 {
		o.CapDelay = 30 * time.Second
	}
	if o.JitterMax <= 0 {
		o.JitterMax = time.Second
	}
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns one realtime channel. All lifecycle state lives on the
// struct; creating a second Manager gives a fully independent channel.
//
// The emit callback is invoked from the Manager's internal goroutine.
// Owners that are not thread-safe (the Bubble Tea model) should forward
// events into their own loop, e.g. via tea.Program.Send.
type Manager struct {
	opts Options
	emit func(Event)

	mu       sync.Mutex
	state    State
	rooms    []string
	conn     *websocket.Conn
	attempt  int
	counter  uint64
	manual   bool
	disposed bool
	cancel   chan struct{}
}

// New creates a Manager. emit must be non-nil.
func New(opts Options, emit func(Event)) *Manager {
	opts.fillDefaults()
	return &Manager{
		opts: opts,
		emit: emit,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Open connects to the channel subscribed to the given rooms. Calling
// Open resets the reconnect attempt counter and clears any previous
// error state. Opening with zero rooms is refused.
func (m *Manager) Open(rooms []string) error {
	if len(rooms) == 0 {
		return ErrNoRooms
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return errors.New("realtime: manager disposed")
	}
	if m.conn != nil || m.state == StateConnecting || m.state == StateReconnecting {
		m.mu.Unlock()
		return errors.New("realtime: already open")
	}
	m.rooms = append([]string(nil), rooms...)
	m.attempt = 0
	m.manual = false
	m.state = StateConnecting
	m.cancel = make(chan struct{})
	cancel := m.cancel
	m.mu.Unlock()

	go m.run(cancel)
	return nil
}

// Close shuts the channel down deliberately: a close frame with code 1000
// is sent and no reconnect follows. Safe to call in any state.
func (m *Manager) Close() {
	m.mu.Lock()
	m.manual = true
	conn := m.conn
	cancel := m.cancel
	m.cancel = nil
	if m.state != StateClosed {
		m.state = StateClosed
	}
	m.mu.Unlock()

	if cancel != nil {
		close(cancel)
	}
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), deadline)
		conn.Close()
	}
}

// Dispose closes the channel and drops the event callback. Events from
// any straggling goroutine are discarded after Dispose returns.
func (m *Manager) Dispose() {
	m.Close()
	m.mu.Lock()
	m.disposed = true
	m.mu.Unlock()
}

// =============================================================================
// CONNECTION LOOP
// =============================================================================

// connectURL builds the dial URL with the comma-joined room subscription.
func (m *Manager) connectURL() (string, error) {
	u, err := url.Parse(m.opts.URL)
	if err != nil {
		return "", fmt.Errorf("realtime: bad endpoint: %w", err)
	}
	q := u.Query()
	q.Set("rooms", strings.Join(m.rooms, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (m *Manager) run(cancel chan struct{}) {
	for {
		target, err := m.connectURL()
		if err != nil {
			m.deliver(Event{Kind: EventError, Err: err})
			m.setState(StateDisconnected)
			return
		}

		conn, _, err := websocket.DefaultDialer.Dial(target, nil)
		if err != nil {
			m.deliver(Event{Kind: EventError, Err: fmt.Errorf("realtime: dial failed: %w", err)})
			if !m.scheduleReconnect(cancel, 0) {
				return
			}
			continue
		}

		m.mu.Lock()
		if m.manual || m.disposed {
			m.mu.Unlock()
			conn.Close()
			return
		}
		m.conn = conn
		m.state = StateConnected
		m.attempt = 0
		m.mu.Unlock()
		m.deliver(Event{Kind: EventConnected})

		code := m.readLoop(conn)

		m.mu.Lock()
		m.conn = nil
		manual := m.manual
		m.mu.Unlock()

		if manual || code == websocket.CloseNormalClosure {
			// Deliberate shutdown, ours or the server's.
			m.setState(StateClosed)
			m.deliver(Event{Kind: EventDisconnected, Code: code, Reconnecting: false})
			return
		}

		if !m.scheduleReconnect(cancel, code) {
			return
		}
	}
}

// readLoop consumes frames until the connection drops and returns the
// close code (websocket.CloseNormalClosure for a clean 1000, otherwise
// the peer's code or CloseAbnormalClosure).
func (m *Manager) readLoop(conn *websocket.Conn) int {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return ce.Code
			}
			return websocket.CloseAbnormalClosure
		}
		m.handleFrame(data)
	}
}

// handleFrame parses, validates, and normalizes one inbound frame.
// Invalid frames are dropped with a warning; they never tear the
// connection down.
func (m *Manager) handleFrame(data []byte) {
	if len(data) == 0 {
		log.Printf("realtime: dropping empty frame")
		return
	}
	var wire model.WireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		log.Printf("realtime: dropping unparseable frame: %v", err)
		return
	}
	if !wire.Valid() {
		log.Printf("realtime: dropping invalid frame (entity=%q)", wire.EntityID)
		return
	}

	msg := wire.Normalize()
	if msg.ID == "" {
		msg.ID = m.nextID(msg.EntityID)
	}
	m.deliver(Event{Kind: EventMessage, Message: msg})
}

// nextID synthesizes a session-unique id for frames the server sent
// without one. The counter is strictly increasing for the life of the
// Manager, so two frames in the same millisecond still get distinct ids.
func (m *Manager) nextID(entityID string) string {
	m.mu.Lock()
	m.counter++
	n := m.counter
	m.mu.Unlock()
	return fmt.Sprintf("%s-%d-%d", entityID, time.Now().UnixMilli(), n)
}

// scheduleReconnect sleeps out the backoff delay, honoring cancellation.
// Returns false when the reconnect loop should stop.
func (m *Manager) scheduleReconnect(cancel chan struct{}, code int) bool {
	m.mu.Lock()
	if m.manual || m.disposed {
		m.mu.Unlock()
		return false
	}
	m.attempt++
	attempt := m.attempt
	m.state = StateReconnecting
	m.mu.Unlock()

	delay := backoffDelay(attempt, m.opts.BaseDelay, m.opts.CapDelay)
	delay += time.Duration(rand.Int63n(int64(m.opts.JitterMax)))

	m.deliver(Event{Kind: EventDisconnected, Code: code, Reconnecting: true, Delay: delay})

	select {
	case <-cancel:
		return false
	case <-time.After(delay):
	}

	m.mu.Lock()
	if m.manual || m.disposed {
		m.mu.Unlock()
		return false
	}
	m.state = StateConnecting
	m.mu.Unlock()
	return true
}

// backoffDelay is the deterministic part of the reconnect delay:
// base doubled per attempt, bounded by cap. Attempt numbering starts at 1.
func backoffDelay(attempt int, base, cap time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// deliver forwards an event unless the Manager has been disposed.
func (m *Manager) deliver(ev Event) {
	m.mu.Lock()
	disposed := m.disposed
	m.mu.Unlock()
	if disposed {
		return
	}
	m.emit(ev)
}
