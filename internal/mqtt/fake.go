package mqtt

// FakeClient records published messages and lets tests inject commands.
type FakeClient struct {
	// StatePayloads contains every state payload that was published.
	StatePayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishStateError, if set, will be returned by PublishState.
	PublishStateError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	handler func(payload []byte)
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// PublishState records the state payload.
func (f *FakeClient) PublishState(payload []byte) error {
	if f.PublishStateError != nil {
		return f.PublishStateError
	}
	f.StatePayloads = append(f.StatePayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakeClient) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Subscribe stores the handler for Deliver.
func (f *FakeClient) Subscribe(handler func(payload []byte)) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.handler = handler
	return nil
}

// Deliver passes payload to the subscribed handler, as if it arrived on
// TopicCommand. It reports false if nothing is subscribed.
func (f *FakeClient) Deliver(payload []byte) bool {
	if f.handler == nil {
		return false
	}
	f.handler(payload)
	return true
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages and injected errors.
func (f *FakeClient) Reset() {
	f.StatePayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.PublishStateError = nil
	f.PublishSystemError = nil
	f.SubscribeError = nil
	f.Closed = false
	f.Connected = false
}
