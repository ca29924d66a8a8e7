package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/shift-chain/internal/shift"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Chip: "gpiochip0", PinData: 21, Widths: []int{8, 8}, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PinData != 21 {
		t.Errorf("Config.PinData: got %d, want 21", snap.Config.PinData)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.Applies != 0 {
		t.Errorf("expected Applies=0 initially, got %d", snap.Applies)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	regs := []shift.Register{{Width: 8, State: 0x81}, {Width: 4, State: 0x3}}
	tr.Update(regs, true)
	regs[0].State = 0

	snap := tr.Snapshot()
	if len(snap.Registers) != 2 {
		t.Fatalf("expected 2 registers, got %d", len(snap.Registers))
	}
	if snap.Registers[0].State != 0x81 {
		t.Errorf("tracker must copy registers, got %#x", snap.Registers[0].State)
	}
	if !snap.Inverted {
		t.Error("expected Inverted=true")
	}

	snap.Registers[1].State = 0
	if tr.Snapshot().Registers[1].State != 0x3 {
		t.Error("snapshot must not alias tracker state")
	}
}

func TestRecordApplyClearsError(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.RecordError(errors.New("line stuck"))
	if tr.Snapshot().LastError != "line stuck" {
		t.Errorf("LastError: got %q", tr.Snapshot().LastError)
	}

	tr.RecordApply(at)
	tr.RecordApply(at.Add(time.Second))
	snap := tr.Snapshot()
	if snap.Applies != 2 {
		t.Errorf("Applies: got %d, want 2", snap.Applies)
	}
	if !snap.LastApply.Equal(at.Add(time.Second)) {
		t.Errorf("LastApply: got %v", snap.LastApply)
	}
	if snap.LastError != "" {
		t.Errorf("LastError should clear on apply, got %q", snap.LastError)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})
	snap := tr.Snapshot()
	if snap.Network == nil || snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network: got %+v", snap.Network)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tr.Update([]shift.Register{{Width: 8, State: uint64(i)}}, i%2 == 0)
			tr.RecordApply(time.Now())
		}(i)
		go func() {
			defer wg.Done()
			FormatJSON(tr.Snapshot())
		}()
	}
	wg.Wait()

	if tr.Snapshot().Applies != 10 {
		t.Errorf("Applies: got %d, want 10", tr.Snapshot().Applies)
	}
}

func TestUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	if snap.Uptime() != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", snap.Uptime())
	}
}

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Registers:     []shift.Register{{Width: 8, State: 11}, {Width: 8, State: 0}},
		Inverted:      true,
		Applies:       3,
		LastApply:     start.Add(time.Minute),
		StartTime:     start,
		Now:           start.Add(2 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Chip: "gpiochip0", Widths: []int{8, 8}, Broker: "tcp://localhost:1883"},
	}
}

func TestFormatJSON(t *testing.T) {
	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(testSnapshot()), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(sj.Status.Registers) != 2 {
		t.Fatalf("expected 2 registers, got %d", len(sj.Status.Registers))
	}
	if sj.Status.Registers[0].Binary != "0b00001011" {
		t.Errorf("Binary: got %q", sj.Status.Registers[0].Binary)
	}
	if sj.Status.Registers[1].Index != 1 {
		t.Errorf("Index: got %d, want 1", sj.Status.Registers[1].Index)
	}
	if sj.Status.TotalBits != 16 {
		t.Errorf("TotalBits: got %d, want 16", sj.Status.TotalBits)
	}
	if !sj.Status.Inverted {
		t.Error("expected Inverted=true")
	}
	if sj.Status.UptimeSeconds != 120 {
		t.Errorf("UptimeSeconds: got %d, want 120", sj.Status.UptimeSeconds)
	}
	if sj.Status.LastApply != "2026-01-01T00:01:00Z" {
		t.Errorf("LastApply: got %q", sj.Status.LastApply)
	}
	if sj.Status.Event != "" {
		t.Errorf("web JSON should have no event, got %q", sj.Status.Event)
	}
	if sj.Status.Network != nil {
		t.Error("Network should be omitted when unset")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(testSnapshot(), "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
}

func TestFormatState(t *testing.T) {
	var st StateJSON
	if err := json.Unmarshal(FormatState(testSnapshot()), &st); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(st.Registers) != 2 || st.Registers[0].State != 11 {
		t.Errorf("Registers: got %+v", st.Registers)
	}
	if st.Timestamp != "2026-01-01T00:02:00Z" {
		t.Errorf("Timestamp: got %q", st.Timestamp)
	}
}
