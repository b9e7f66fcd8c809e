// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package server implements the dev backend: the REST API the chat client
// and simulator talk to, and the WebSocket fanout the client subscribes
// to for live traffic.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/swarm-squad/ep2-tui/internal/config"
	"github.com/swarm-squad/ep2-tui/internal/model"
	"github.com/swarm-squad/ep2-tui/internal/server/storage"
)

// Server is the dev backend.
type Server struct {
	store    *storage.Store
	hub      *Hub
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// New builds a server over the given store.
func New(cfg *config.ServerConfig, store *storage.Store) *Server {
	s := &Server{
		store:   store,
		hub:     NewHub(),
		limiter: rate.NewLimiter(rate.Limit(cfg.PostRatePerSec), cfg.PostBurst),
		upgrader: websocket.Upgrader{
			// The dev backend serves localhost tooling; skip origin checks.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
	}
	return s
}

// Handler returns the route mux. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/rooms", s.handleRooms)
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/entities", s.handleEntities)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe runs until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	log.Printf("server: listening on %s", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Hub exposes the fanout hub, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// =============================================================================
// HANDLERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rooms, err := s.store.Rooms()
	if err != nil {
		log.Printf("server: list rooms: %v", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entities, err := s.store.Entities(r.URL.Query().Get("room_id"))
	if err != nil {
		log.Printf("server: list entities: %v", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	if entities == nil {
		entities = []model.Entity{}
	}
	writeJSON(w, http.StatusOK, entities)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMessages(w, r)
	case http.MethodPost:
		s.postMessage(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		limit = n
	}
	msgs, err := s.store.Messages(r.URL.Query().Get("room_id"), limit)
	if err != nil {
		log.Printf("server: list messages: %v", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "slow down")
		return
	}

	var wire model.WireMessage
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, http.StatusBadRequest, "malformed message")
		return
	}
	if !wire.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "entity_id, timestamp, and content are required")
		return
	}

	msg := wire.Normalize()
	msg.ID = "" // the server owns message ids
	stored, err := s.store.InsertMessage(msg)
	if err != nil {
		log.Printf("server: insert message: %v", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	if payload, err := json.Marshal(stored); err == nil {
		s.hub.Broadcast(stored.RoomID, payload)
	}

	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	roomsParam := r.URL.Query().Get("rooms")
	var rooms []string
	for _, id := range strings.Split(roomsParam, ",") {
		if id = strings.TrimSpace(id); id != "" {
			rooms = append(rooms, id)
		}
	}
	if len(rooms) == 0 {
		writeError(w, http.StatusBadRequest, "rooms query parameter is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: upgrade failed: %v", err)
		return
	}
	s.hub.register(conn, rooms)
}
