// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

// Package api provides the HTTP client for the Swarm Squad backend REST API:
// the room directory, historical messages, entities, and outbound sends.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/swarm-squad/ep2-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend API client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeEmptyBody
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrTimeout   = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrEmptyBody = &ClientError{Type: ErrTypeEmptyBody, Message: "server returned an empty body"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the API client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for requests (default: 10s)
	Timeout time.Duration

	// FallbackRooms are assumed when the room directory cannot be read
	// (default: v1, v2, v3)
	FallbackRooms []string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://localhost:8000",
		Timeout:       10 * time.Second,
		FallbackRooms: []string{"v1", "v2", "v3"},
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the backend REST API.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new API client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new API client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if len(config.FallbackRooms) == 0 {
		config.FallbackRooms = []string{"v1", "v2", "v3"}
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// get performs a GET and returns the body, mapping failures to typed errors.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ClientError{Type: ErrTypeStatus, Message: "unexpected status: " + resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to read body", Cause: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

// =============================================================================
// ROOM DIRECTORY
// =============================================================================

// ListRooms fetches the room directory.
//
// The directory is advisory: any failure (transport, non-2xx status, empty
// or malformed body) yields the fixed fallback rooms so the client can
// still subscribe to the default fleet. A single attempt is made; errors
// never escape this method.
func (c *Client) ListRooms(ctx context.Context) []model.Room {
	body, err := c.get(ctx, "/rooms", nil)
	if err != nil {
		log.Printf("api: room directory unavailable, using fallback rooms: %v", err)
		return c.fallbackRooms()
	}

	var rooms []model.Room
	if err := json.Unmarshal(body, &rooms); err != nil {
		log.Printf("api: malformed room directory, using fallback rooms: %v", err)
		return c.fallbackRooms()
	}
	if len(rooms) == 0 {
		return c.fallbackRooms()
	}
	return rooms
}

func (c *Client) fallbackRooms() []model.Room {
	rooms := make([]model.Room, 0, len(c.config.FallbackRooms))
	for _, id := range c.config.FallbackRooms {
		rooms = append(rooms, model.Room{
			ID:   id,
			Name: "Vehicle " + id,
			Type: model.RoomVehicle,
		})
	}
	return rooms
}

// =============================================================================
// MESSAGE HISTORY
// =============================================================================

// ListMessages fetches up to limit recent messages across all rooms.
// Structurally invalid records are dropped; a malformed payload is an error.
func (c *Client) ListMessages(ctx context.Context, limit int) ([]model.Message, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.fetchMessages(ctx, q)
}

// ListMessagesByRoom fetches recent messages for a single room.
func (c *Client) ListMessagesByRoom(ctx context.Context, roomID string, limit int) ([]model.Message, error) {
	q := url.Values{}
	q.Set("room_id", roomID)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.fetchMessages(ctx, q)
}

func (c *Client) fetchMessages(ctx context.Context, q url.Values) ([]model.Message, error) {
	body, err := c.get(ctx, "/messages", q)
	if err != nil {
		return nil, err
	}

	var wire []model.WireMessage
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed message history", Cause: err}
	}

	msgs := make([]model.Message, 0, len(wire))
	for i := range wire {
		if !wire[i].Valid() {
			log.Printf("api: dropping invalid history record (entity=%q)", wire[i].EntityID)
			continue
		}
		msgs = append(msgs, wire[i].Normalize())
	}
	return msgs, nil
}

// =============================================================================
// ENTITIES
// =============================================================================

// ListEntities fetches the known entities, optionally filtered by room.
func (c *Client) ListEntities(ctx context.Context, roomID string) ([]model.Entity, error) {
	q := url.Values{}
	if roomID != "" {
		q.Set("room_id", roomID)
	}
	body, err := c.get(ctx, "/entities", q)
	if err != nil {
		return nil, err
	}

	var entities []model.Entity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed entity list", Cause: err}
	}
	return entities, nil
}

// =============================================================================
// OUTBOUND SEND
// =============================================================================

// sendEnvelope is the fixed payload shape for user-authored messages.
type sendEnvelope struct {
	RoomID      string         `json:"room_id"`
	EntityID    string         `json:"entity_id"`
	Content     string         `json:"content"`
	MessageType string         `json:"message_type"`
	Timestamp   string         `json:"timestamp"`
	State       map[string]any `json:"state"`
}

// PostMessage posts an arbitrary message envelope, returning the stored
// message as the server recorded it. Used by telemetry producers; the
// interactive client goes through SendMessage instead.
func (c *Client) PostMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return model.Message{}, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode message", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return model.Message{}, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return model.Message{}, ErrTimeout
		}
		return model.Message{}, &ClientError{Type: ErrTypeConnection, Message: "post failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return model.Message{}, &ClientError{Type: ErrTypeStatus, Message: "post rejected: " + resp.Status}
	}

	var stored model.Message
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return model.Message{}, &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed post reply", Cause: err}
	}
	return stored, nil
}

// SendMessage posts a user message to a room and reports success.
//
// Delivery is fire-and-report: transport failures, non-2xx statuses, and
// undecodable replies all map to false. The method never panics and never
// returns an error value; the boolean is the whole contract.
func (c *Client) SendMessage(ctx context.Context, roomID, content string) bool {
	env := sendEnvelope{
		RoomID:      roomID,
		EntityID:    "user",
		Content:     content,
		MessageType: model.TypeUserMessage,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		State:       map[string]any{},
	}

	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("api: failed to encode outbound message: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		log.Printf("api: failed to create send request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("api: send failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("api: send rejected: %s", resp.Status)
		return false
	}
	return true
}
