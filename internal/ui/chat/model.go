// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package chat implements the Bubble Tea model for the Swarm Squad chat
// view: a room sidebar, a message viewport, and an input line, fed by the
// REST history loader and the realtime channel.
//
// All mutable view state lives on Model and changes only inside Update.
// The realtime manager runs its own goroutine but reaches the model
// exclusively through forwarded tea messages.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/swarm-squad/ep2-tui/internal/api"
	"github.com/swarm-squad/ep2-tui/internal/config"
	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/realtime"
	"github.com/swarm-squad/ep2-tui/internal/store"
	"github.com/swarm-squad/ep2-tui/internal/ui/styles"
)

const sidebarWidth = 28

// Model is the root Bubble Tea model.
type Model struct {
	cfg     *config.Config
	api     *api.Client
	manager *realtime.Manager
	theme   *styles.Theme
	store   *store.Store

	rooms    []model.Room
	entities []model.Entity
	selected int // index into rooms, -1 before the directory resolves

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool

	connState    realtime.State
	errText      string
	loadingRooms bool
	shuttingDown bool
}

// New builds the chat model. The manager may be nil in tests; the model
// then skips channel lifecycle calls.
func New(cfg *config.Config, client *api.Client, manager *realtime.Manager) *Model {
	input := textinput.New()
	input.Placeholder = "Message the fleet..."
	input.CharLimit = 500
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		cfg:          cfg,
		api:          client,
		manager:      manager,
		theme:        styles.DefaultTheme(),
		store:        store.New(cfg.UI.BufferCap),
		selected:     -1,
		input:        input,
		spin:         spin,
		loadingRooms: true,
	}
}

// Init starts the spinner and kicks off the room directory fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetchRooms())
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *Model) callTimeout() time.Duration {
	return time.Duration(m.cfg.API.TimeoutSecs) * time.Second
}

func (m *Model) fetchRooms() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout())
		defer cancel()
		return RoomsLoadedMsg{Rooms: m.api.ListRooms(ctx)}
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	limit := m.cfg.UI.HistoryLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout())
		defer cancel()
		msgs, err := m.api.ListMessages(ctx, limit)
		if err != nil {
			return HistoryFailedMsg{Err: err}
		}
		return HistoryLoadedMsg{Messages: msgs}
	}
}

func (m *Model) fetchEntities() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout())
		defer cancel()
		entities, err := m.api.ListEntities(ctx, "")
		if err != nil {
			// The roster is decoration; live without it.
			return EntitiesLoadedMsg{}
		}
		return EntitiesLoadedMsg{Entities: entities}
	}
}

func (m *Model) sendMessage(roomID, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.callTimeout())
		defer cancel()
		return SendResultMsg{
			OK:      m.api.SendMessage(ctx, roomID, content),
			Content: content,
		}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all state transitions.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case RoomsLoadedMsg:
		if m.shuttingDown {
			return m, nil
		}
		m.loadingRooms = false
		m.rooms = msg.Rooms
		if len(m.rooms) > 0 {
			m.selected = 0
		}
		cmds := []tea.Cmd{m.fetchHistory(), m.fetchEntities()}
		if m.manager != nil {
			ids := make([]string, len(m.rooms))
			for i, r := range m.rooms {
				ids[i] = r.ID
			}
			if err := m.manager.Open(ids); err != nil {
				m.errText = err.Error()
			}
		}
		m.refreshViewport()
		return m, tea.Batch(cmds...)

	case HistoryLoadedMsg:
		if m.shuttingDown {
			// A fetch that completes after shutdown is dropped whole.
			return m, nil
		}
		m.store.SeedHistory(msg.Messages)
		m.refreshViewport()
		return m, nil

	case HistoryFailedMsg:
		if !m.shuttingDown {
			m.errText = "history unavailable: " + msg.Err.Error()
		}
		return m, nil

	case EntitiesLoadedMsg:
		if !m.shuttingDown {
			m.entities = msg.Entities
		}
		return m, nil

	case ChannelEventMsg:
		return m.handleChannelEvent(msg.Event)

	case SendResultMsg:
		if !msg.OK {
			m.errText = "failed to send message"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleChannelEvent(ev realtime.Event) (tea.Model, tea.Cmd) {
	if m.shuttingDown {
		return m, nil
	}
	switch ev.Kind {
	case realtime.EventConnected:
		m.connState = realtime.StateConnected
		m.errText = ""
	case realtime.EventDisconnected:
		if ev.Reconnecting {
			m.connState = realtime.StateReconnecting
		} else {
			m.connState = realtime.StateClosed
		}
	case realtime.EventMessage:
		m.store.Append(ev.Message)
		m.refreshViewport()
	case realtime.EventError:
		m.errText = ev.Err.Error()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m.shutdown()

	case "tab":
		m.cycleRoom(1)
		return m, nil

	case "shift+tab":
		m.cycleRoom(-1)
		return m, nil

	case "enter":
		content := m.input.Value()
		if content == "" || m.selected < 0 {
			return m, nil
		}
		m.input.Reset()
		return m, m.sendMessage(m.rooms[m.selected].ID, content)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// shutdown closes the realtime channel deliberately (code 1000) and quits.
func (m *Model) shutdown() (tea.Model, tea.Cmd) {
	m.shuttingDown = true
	if m.manager != nil {
		m.manager.Dispose()
	}
	return m, tea.Quit
}

func (m *Model) cycleRoom(delta int) {
	if len(m.rooms) == 0 {
		return
	}
	m.selected = (m.selected + delta + len(m.rooms)) % len(m.rooms)
	m.refreshViewport()
}

// SelectedRoom returns the focused room, or nil before the directory
// resolves.
func (m *Model) SelectedRoom() *model.Room {
	if m.selected < 0 || m.selected >= len(m.rooms) {
		return nil
	}
	return &m.rooms[m.selected]
}
