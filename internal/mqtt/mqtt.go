// Package mqtt provides the MQTT transport for the shifter daemon: chain state
// and lifecycle events out, commands in. Real and fake clients share the
// interfaces below so the daemon can be tested without a broker.
package mqtt

import (
	"encoding/json"
	"time"
)

const (
	// TopicState carries the retained chain state after every apply.
	TopicState = "shifter/state"

	// TopicSystem carries lifecycle events (STARTUP, SHUTDOWN, OFFLINE).
	TopicSystem = "shifter/system"

	// TopicCommand is subscribed to for control commands.
	TopicCommand = "shifter/command"
)

// Publisher publishes chain state and system events.
type Publisher interface {
	// PublishState sends a retained chain state payload.
	// Returns error if publishing fails (should not crash the process).
	PublishState(payload []byte) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// Subscriber delivers command payloads.
type Subscriber interface {
	// Subscribe registers handler for every message on TopicCommand.
	// handler runs on the client's goroutine and must not block.
	Subscribe(handler func(payload []byte)) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// SystemPayload is the message body for events without a status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}

// willPayload is registered with the broker and sent if we drop off
// without a clean disconnect. It has no timestamp since it is built at
// connect time.
func willPayload() []byte {
	data, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "CONNECTION_LOST"})
	return data
}
