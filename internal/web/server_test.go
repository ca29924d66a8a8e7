package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/shift-chain/internal/shift"
	"github.com/sweeney/shift-chain/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Chip:     "gpiochip0",
		PinData:  21,
		PinLatch: 20,
		PinClock: 16,
		Widths:   []int{8, 8},
		Broker:   "tcp://192.168.1.200:1883",
		HTTPAddr: ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func getBody(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update([]shift.Register{{Width: 8, State: 0xa5}, {Width: 8}}, true)
	tr.RecordApply(time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC))
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(sj.Status.Registers) != 2 {
		t.Fatalf("expected 2 registers, got %d", len(sj.Status.Registers))
	}
	if sj.Status.Registers[0].Binary != "0b10100101" {
		t.Errorf("register 0: got %q", sj.Status.Registers[0].Binary)
	}
	if !sj.Status.Inverted {
		t.Error("expected Inverted=true")
	}
	if sj.Status.Applies != 1 {
		t.Errorf("Applies: got %d, want 1", sj.Status.Applies)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Config.PinData != 21 {
		t.Errorf("Config.PinData: got %d, want 21", sj.Status.Config.PinData)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update([]shift.Register{{Width: 4, State: 0b0101}}, false)

	resp, body := getBody(t, ts.URL+"/")

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	if !strings.Contains(body, "0b0101") {
		t.Error("expected register state in page")
	}
	if strings.Count(body, `class="pin on"`) != 2 {
		t.Errorf("expected 2 lit pins, got %d", strings.Count(body, `class="pin on"`))
	}
	if !strings.Contains(body, "normal") {
		t.Error("expected normal polarity in page")
	}
}

func TestHTMLEndpointEmptyChain(t *testing.T) {
	ts, _ := newTestServer(t)

	_, body := getBody(t, ts.URL+"/index.html")
	if !strings.Contains(body, "no registers") {
		t.Error("expected empty chain message")
	}
	if !strings.Contains(body, "never") {
		t.Error("expected last apply to read never")
	}
}

func TestHTMLShowsLastError(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordError(errors.New("latch low: line stuck"))

	_, body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "latch low: line stuck") {
		t.Error("expected last error in page")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestWriteMethodsRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/", "/index.json"} {
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(`{"op":"apply"}`))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, resp.StatusCode)
		}
		if allow := resp.Header.Get("Allow"); allow != "GET, HEAD" {
			t.Errorf("POST %s: Allow header %q", path, allow)
		}
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 status.StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if len(sj1.Status.Registers) != 0 {
		t.Error("expected no registers initially")
	}

	tr.Update([]shift.Register{{Width: 8, State: 1}}, false)

	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 status.StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if len(sj2.Status.Registers) != 1 || sj2.Status.Registers[0].State != 1 {
		t.Errorf("registers after update: %+v", sj2.Status.Registers)
	}
}
