package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Registers     []RegisterJSON `json:"registers"`
	Inverted      bool           `json:"inverted"`
	TotalBits     int            `json:"total_bits"`
	Applies       int            `json:"applies"`
	LastApply     string         `json:"last_apply,omitempty"`
	LastError     string         `json:"last_error,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// RegisterJSON is the JSON representation of one register.
type RegisterJSON struct {
	Index  int    `json:"index"`
	Width  int    `json:"width"`
	State  uint64 `json:"state"`
	Binary string `json:"binary"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip     string `json:"chip"`
	PinData  int    `json:"pin_data"`
	PinLatch int    `json:"pin_latch"`
	PinClock int    `json:"pin_clock"`
	Widths   []int  `json:"widths"`
	Broker   string `json:"broker"`
	HTTPAddr string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	regs := make([]RegisterJSON, len(snap.Registers))
	total := 0
	for i, r := range snap.Registers {
		regs[i] = RegisterJSON{Index: i, Width: r.Width, State: r.State, Binary: r.String()}
		total += r.Width
	}

	inner := StatusInner{
		Registers:     regs,
		Inverted:      snap.Inverted,
		TotalBits:     total,
		Applies:       snap.Applies,
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Chip:     snap.Config.Chip,
			PinData:  snap.Config.PinData,
			PinLatch: snap.Config.PinLatch,
			PinClock: snap.Config.PinClock,
			Widths:   snap.Config.Widths,
			Broker:   snap.Config.Broker,
			HTTPAddr: snap.Config.HTTPAddr,
		},
	}
	if !snap.LastApply.IsZero() {
		inner.LastApply = snap.LastApply.UTC().Format(time.RFC3339)
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// StateJSON is the payload published on the state topic after every apply.
type StateJSON struct {
	Registers []RegisterJSON `json:"registers"`
	Inverted  bool           `json:"inverted"`
	Timestamp string         `json:"timestamp"`
}

// FormatState returns the compact chain state for the MQTT state topic.
func FormatState(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.Marshal(StateJSON{
		Registers: inner.Registers,
		Inverted:  inner.Inverted,
		Timestamp: inner.Timestamp,
	})
	return data
}
