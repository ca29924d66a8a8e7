// Package status provides a thread-safe status tracker for the shifter daemon.
// The run loop writes to it; HTTP handlers and MQTT events read from it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/shift-chain/internal/shift"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Chip     string
	PinData  int
	PinLatch int
	PinClock int
	Widths   []int
	Broker   string
	HTTPAddr string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type; Registers is a private copy.
type Snapshot struct {
	Registers     []shift.Register
	Inverted      bool
	Applies       int
	LastApply     time.Time
	LastError     string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores a copy of the chain state.
func (t *Tracker) Update(regs []shift.Register, inverted bool) {
	cp := make([]shift.Register, len(regs))
	copy(cp, regs)
	t.mu.Lock()
	t.snap.Registers = cp
	t.snap.Inverted = inverted
	t.mu.Unlock()
}

// RecordApply counts a successful apply and clears the last error.
func (t *Tracker) RecordApply(at time.Time) {
	t.mu.Lock()
	t.snap.Applies++
	t.snap.LastApply = at
	t.snap.LastError = ""
	t.mu.Unlock()
}

// RecordError stores the most recent command or apply failure.
func (t *Tracker) RecordError(err error) {
	t.mu.Lock()
	t.snap.LastError = err.Error()
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Registers = make([]shift.Register, len(t.snap.Registers))
	copy(s.Registers, t.snap.Registers)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
