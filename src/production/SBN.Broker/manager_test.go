package broker

import (
	"testing"
	"time"

	config "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			BrokerHost:        "localhost",
			BrokerPort:        1883,
			ClientID:          "test-client",
			KeepAlive:         30 * time.Second,
			PingTimeout:       10 * time.Second,
			ReconnectInterval: time.Second,
			CommandTimeout:    time.Second,
		},
	}
	return NewManager(cfg, testLogger())
}

type stubMessage struct {
	topic   string
	payload []byte
}

func (s stubMessage) Duplicate() bool   { return false }
func (s stubMessage) Qos() byte         { return 0 }
func (s stubMessage) Retained() bool    { return false }
func (s stubMessage) Topic() string     { return s.topic }
func (s stubMessage) MessageID() uint16 { return 0 }
func (s stubMessage) Payload() []byte   { return s.payload }
func (s stubMessage) Ack()              {}

func TestManagerStartsDisconnected(t *testing.T) {
	m := newTestManager(t)

	if got := m.Status(); got != StatusDisconnected {
		t.Errorf("Status() = %q, want %q", got, StatusDisconnected)
	}
}

func TestPublishBeforeConnectFailsFast(t *testing.T) {
	m := newTestManager(t)

	err := m.Publish("bins/BIN_01/config", 1, true, []byte(`{"threshold":85}`))
	if err != ErrNotConnected {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestStatusTransitionsAreObservable(t *testing.T) {
	m := newTestManager(t)

	transitions := []Status{StatusConnecting, StatusConnected, StatusReconnecting, StatusConnected}
	for _, status := range transitions {
		m.setStatus(status)
		if got := m.Status(); got != status {
			t.Errorf("Status() = %q after setStatus(%q)", got, status)
		}
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	t.Cleanup(m.Disconnect)

	if err := m.Connect(); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	m.mu.RLock()
	first := m.client
	m.mu.RUnlock()
	if first == nil {
		t.Fatal("Connect() did not create a client")
	}

	if err := m.Connect(); err != nil {
		t.Fatalf("second Connect() error: %v", err)
	}

	m.mu.RLock()
	second := m.client
	m.mu.RUnlock()
	if second != first {
		t.Error("second Connect() replaced the client")
	}
}

func TestOnMessageDeliversToInbound(t *testing.T) {
	m := newTestManager(t)

	m.onMessage(nil, stubMessage{topic: "bins/BIN_01/status", payload: []byte("online")})

	select {
	case msg := <-m.Messages():
		if msg.Topic != "bins/BIN_01/status" || string(msg.Payload) != "online" {
			t.Errorf("got %+v, want status message", msg)
		}
	case <-time.After(time.Second):
		t.Error("message not delivered to inbound channel")
	}
}

func TestMessageAfterDisconnectIsDropped(t *testing.T) {
	m := newTestManager(t)
	m.Disconnect()

	// Must not panic on the closed inbound channel.
	m.onMessage(nil, stubMessage{topic: "bins/BIN_01/status", payload: []byte("online")})

	// Repeated Disconnect is also a no-op.
	m.Disconnect()
}

func TestDisconnectClosesInboundChannel(t *testing.T) {
	m := newTestManager(t)

	m.Disconnect()

	select {
	case _, ok := <-m.Messages():
		if ok {
			t.Error("Messages() delivered a message after Disconnect")
		}
	case <-time.After(time.Second):
		t.Error("Messages() not closed after Disconnect")
	}

	if got := m.Status(); got != StatusDisconnected {
		t.Errorf("Status() = %q after Disconnect, want %q", got, StatusDisconnected)
	}
}
