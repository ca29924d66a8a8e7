package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// bufferCapacity bounds how many messages are held while disconnected.
const bufferCapacity = 100

// RealClient talks to an actual MQTT broker.
type RealClient struct {
	client paho.Client

	mu      sync.Mutex
	buf     *ringBuffer
	handler func(payload []byte)
}

// NewRealClient connects to the given broker. The broker is told to publish
// an OFFLINE system event if the connection drops uncleanly.
func NewRealClient(broker, clientID string) (*RealClient, error) {
	c := &RealClient{buf: newRingBuffer(bufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, willPayload(), 1, true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

// onConnect restores the command subscription and replays anything
// published while the connection was down.
func (c *RealClient) onConnect(client paho.Client) {
	c.mu.Lock()
	handler := c.handler
	msgs, dropped := c.buf.drainAll()
	c.mu.Unlock()

	if handler != nil {
		if err := c.subscribe(client, handler); err != nil {
			log.Printf("mqtt: resubscribe: %v", err)
		}
	}
	if dropped > 0 {
		log.Printf("mqtt: %d buffered messages dropped while disconnected", dropped)
	}
	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay to %s timed out", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay to %s: %v", m.topic, err)
		}
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: replayed %d buffered messages", len(msgs))
	}
}

// publish sends straight to the broker when connected and buffers otherwise.
// The connection check and the push share mu with onConnect's drain, so a
// message is either replayed by the reconnect or published directly, never
// stranded in the buffer until the next one.
func (c *RealClient) publish(topic string, qos byte, retained bool, payload []byte) error {
	c.mu.Lock()
	if !c.client.IsConnectionOpen() {
		c.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// PublishState sends the chain state, retained so new subscribers see the
// current outputs straight away.
func (c *RealClient) PublishState(payload []byte) error {
	return c.publish(TopicState, 1, true, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once): shutdown events must get through
	return c.publish(TopicSystem, 1, event.Retained, payload)
}

// Subscribe delivers every command payload to handler. The subscription is
// restored automatically after a reconnect.
func (c *RealClient) Subscribe(handler func(payload []byte)) error {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
	return c.subscribe(c.client, handler)
}

func (c *RealClient) subscribe(client paho.Client, handler func(payload []byte)) error {
	token := client.Subscribe(TopicCommand, 1, func(_ paho.Client, m paho.Message) {
		handler(m.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s timeout", TopicCommand)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicCommand, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is currently up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
