package websocket

import "time"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventTick    Event = "tick"
	EventExpired Event = "expired"
	EventPong    Event = "pong"
)

// TickResponse reports the time left on a running attempt.
type TickResponse struct {
	Event            Event     `json:"event"`
	SessionID        string    `json:"session_id"`
	RemainingSeconds int       `json:"remaining_seconds"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// ExpiredResponse is the last event of a clock stream.
type ExpiredResponse struct {
	Event     Event     `json:"event"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
