package model

import (
	"time"

	"github.com/google/uuid"
)

// Broker channel consumed by the worker binary. Manual admin broadcasts do
// not go through the broker: they dispatch inline so the admin gets the
// sent/failed counts back in the response.
const ChannelStatusChanged = "storegate.status_changed"

// StatusChangedEvent is published when the evaluated status kind flips.
type StatusChangedEvent struct {
	ID       uuid.UUID  `json:"id"`
	From     StatusKind `json:"from"`
	To       StatusKind `json:"to"`
	IsOpen   bool       `json:"is_open"`
	Title    string     `json:"title,omitempty"`
	Message  string     `json:"message"`
	Occurred time.Time  `json:"occurred_at"`
}
