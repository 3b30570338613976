// Package observerproto is the read-only spectator protocol. It is separate
// from the player protocol and never carries actions.
package observerproto

import "undercroft.game/internal/protocol"

// Version is the observer protocol version (separate from the player WS protocol).
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeStatus    = "STATUS"
)

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to change the push interval.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	IntervalMS      int    `json:"interval_ms,omitempty"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Tick            uint64 `json:"tick"`
	Inputs          uint64 `json:"inputs"`
}

// Server -> Client. Sent whenever the run moved on since the last push.
type StatusMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Inputs          uint64 `json:"inputs"`
	Actors          int    `json:"actors"`
	Attached        bool   `json:"attached"`
	GameOver        bool   `json:"game_over,omitempty"`

	Player *PlayerState     `json:"player,omitempty"`
	Recent []protocol.Event `json:"recent,omitempty"`
}

type PlayerState struct {
	Pos     [2]int `json:"pos"`
	Wounds  int    `json:"wounds"`
	Shocked bool   `json:"shocked,omitempty"`
}
