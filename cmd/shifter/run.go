package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/shift-chain/internal/control"
	"github.com/sweeney/shift-chain/internal/heartbeat"
	"github.com/sweeney/shift-chain/internal/mqtt"
	"github.com/sweeney/shift-chain/internal/shift"
	"github.com/sweeney/shift-chain/internal/status"
	"github.com/sweeney/shift-chain/internal/web"
)

var (
	broker    string
	clientID  string
	httpAddr  string
	refresh   time.Duration
	beatEvery time.Duration
)

// commandQueue bounds how many MQTT commands can wait for the run loop.
const commandQueue = 64

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the MQTT-controlled daemon",
	Long: `Run as a daemon. Commands arrive as JSON on the shifter/command topic,
the chain state is published (retained) to shifter/state after every apply,
and a status page is served over HTTP.

Command payloads:
  {"op":"set","register":0,"data":255,"apply":true}
  {"op":"high","register":1,"pin":3}
  {"op":"low","register":1,"pin":3,"apply":true}
  {"op":"invert","apply":true}
  {"op":"apply"}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateRunFlags(refresh, beatEvery); err != nil {
			return err
		}
		return runDaemon()
	},
}

func init() {
	runCmd.Flags().StringVar(&broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	runCmd.Flags().StringVar(&clientID, "client-id", "shifter", "MQTT client ID")
	runCmd.Flags().StringVar(&httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	runCmd.Flags().DurationVar(&refresh, "refresh", 10*time.Second, "status refresh interval")
	runCmd.Flags().DurationVar(&beatEvery, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	rootCmd.AddCommand(runCmd)
}

// validateRunFlags rejects intervals that would only fail once the GPIO
// lines and broker connection are already held.
func validateRunFlags(refresh, beat time.Duration) error {
	if refresh <= 0 {
		return fmt.Errorf("--refresh must be positive, got %v", refresh)
	}
	if beat < 0 {
		return fmt.Errorf("--heartbeat must be zero (disabled) or positive, got %v", beat)
	}
	if beat > 0 && beat < refresh {
		return fmt.Errorf("--heartbeat %v is shorter than --refresh %v", beat, refresh)
	}
	return nil
}

func runDaemon() error {
	sh, lines, err := openShifter()
	if err != nil {
		return err
	}
	defer lines.Close()

	// Known starting point: every output low (high when inverted).
	if err := sh.Apply(); err != nil {
		return fmt.Errorf("initial apply: %w", err)
	}

	client, err := mqtt.NewRealClient(broker, clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	cmds := make(chan []byte, commandQueue)
	if err := client.Subscribe(enqueue(cmds)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	started := time.Now()
	tracker := status.NewTracker(started, status.Config{
		Chip:     chipName,
		PinData:  pinData,
		PinLatch: pinLatch,
		PinClock: pinClock,
		Widths:   widths,
		Broker:   broker,
		HTTPAddr: httpAddr,
	})
	tracker.Update(sh.Registers(), sh.Inverted())
	tracker.RecordApply(time.Now())
	tracker.SetMQTTConnected(client.IsConnected())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	startup := mqtt.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""),
	}
	if err := client.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}
	publishState(client, tracker)

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: registers=%v bits=%d inverted=%v broker=%s heartbeat=%v", widths, sh.TotalBits(), sh.Inverted(), broker, beatEvery)

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	beat := heartbeat.New(started, beatEvery)
	return runLoop(sh, cmds, client, client, tracker, beat, time.Now, ticker.C, sigCh)
}

// enqueue hands command payloads from the MQTT goroutine to the run loop.
// It never blocks the client; commands are dropped when the queue is full.
func enqueue(cmds chan<- []byte) func(payload []byte) {
	return func(payload []byte) {
		select {
		case cmds <- payload:
		default:
			log.Printf("command queue full, dropping %s", payload)
		}
	}
}

// runLoop owns the Shifter: every command is executed here, on one goroutine.
func runLoop(sh *shift.Shifter, cmds <-chan []byte, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, beat *heartbeat.Scheduler, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case payload := <-cmds:
			handleCommand(sh, payload, publisher, tracker, now)

		case <-tick:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			if !beat.Enabled() {
				continue
			}
			if hb := beat.Check(now()); hb != nil {
				snap := tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v applies=%d", hb.Uptime, snap.Applies)
				event := mqtt.SystemEvent{
					Timestamp:  hb.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func handleCommand(sh *shift.Shifter, payload []byte, publisher mqtt.Publisher, tracker *status.Tracker, now func() time.Time) {
	cmd, err := control.Parse(payload)
	if err != nil {
		log.Printf("command rejected: %v", err)
		tracker.RecordError(err)
		return
	}

	applied, err := control.Execute(sh, cmd)
	tracker.Update(sh.Registers(), sh.Inverted())
	if err != nil {
		log.Printf("command %s failed: %v", cmd.Op, err)
		tracker.RecordError(err)
		return
	}
	if !applied {
		return
	}
	tracker.RecordApply(now())
	publishState(publisher, tracker)
}

func publishState(publisher mqtt.Publisher, tracker *status.Tracker) {
	if err := publisher.PublishState(status.FormatState(tracker.Snapshot())); err != nil {
		log.Printf("publish state error: %v", err)
		// Don't crash on publish failure
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
