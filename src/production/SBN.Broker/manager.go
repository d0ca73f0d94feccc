package broker

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Config"
	logger "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Logger"
)

// Status is the broker connection state. It is the only thing the
// dashboard sees of the transport layer; faults never propagate past
// this value.
type Status string

const (
	StatusDisconnected Status = "Disconnected"
	StatusConnecting   Status = "Connecting"
	StatusConnected    Status = "Connected"
	StatusReconnecting Status = "Reconnecting"
	StatusError        Status = "Error"
)

// ErrNotConnected is returned by publish attempts while the connection
// is not in the Connected state.
var ErrNotConnected = errors.New("mqtt broker not connected")

// Topic filters the manager subscribes to on every (re)connect.
var subscriptions = map[string]byte{
	"bins/+/data":       1,
	"bins/+/status":     1,
	"bins/+/get-config": 1,
}

// Message is one inbound bus message handed to the router.
type Message struct {
	Topic   string
	Payload []byte
}

// Publisher is the outbound side of the connection, implemented by the
// Manager and by fake transports in tests.
type Publisher interface {
	Status() Status
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Manager owns the single long-lived MQTT connection for the process.
// Connect is lazy and idempotent; once a client exists, paho's retry
// loop owns reconnection and the manager only tracks state.
type Manager struct {
	cfg    config.MQTTConfig
	url    string
	logger *logger.Logger

	mu     sync.RWMutex
	client mqtt.Client
	status Status
	closed bool

	inbound chan Message
}

func NewManager(cfg *config.Config, log *logger.Logger) *Manager {
	return &Manager{
		cfg:     cfg.MQTT,
		url:     cfg.GetMQTTBrokerURL(),
		logger:  log.WithComponent("broker"),
		status:  StatusDisconnected,
		inbound: make(chan Message, 4096),
	}
}

// Connect creates the shared connection if absent. Calling it while
// connected or while a reconnect attempt is in flight is a no-op. The
// initial connect retries forever at the configured interval, so the
// manager never gives up permanently.
func (m *Manager) Connect() error {
	m.mu.Lock()
	if m.client != nil {
		m.mu.Unlock()
		return nil
	}
	m.status = StatusConnecting

	opts := mqtt.NewClientOptions().
		AddBroker(m.url).
		SetClientID(m.cfg.ClientID).
		SetKeepAlive(m.cfg.KeepAlive).
		SetPingTimeout(m.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(m.cfg.ReconnectInterval).
		SetMaxReconnectInterval(m.cfg.ReconnectInterval).
		SetCleanSession(false)

	if m.cfg.BrokerUser != "" {
		opts.SetUsername(m.cfg.BrokerUser)
		opts.SetPassword(m.cfg.BrokerPass)
	}

	if m.cfg.UseTLS {
		tlsCfg, err := m.tlsConfig(m.cfg.CACertPath)
		if err != nil {
			m.status = StatusError
			m.mu.Unlock()
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnect = func(c mqtt.Client) {
		m.setStatus(StatusConnected)
		m.logger.Info("MQTT connected, subscribing to bin topics")
		if token := c.SubscribeMultiple(subscriptions, m.onMessage); token.Wait() && token.Error() != nil {
			// Subscribe failure is not fatal and does not change the
			// connection state; the next reconnect retries it.
			m.logger.ErrorWithError(token.Error(), "Failed to subscribe to bin topics")
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		m.setStatus(StatusReconnecting)
		m.logger.ErrorWithError(err, "MQTT connection lost")
	}
	opts.OnReconnecting = func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		m.setStatus(StatusReconnecting)
		m.logger.Warn("MQTT client reconnecting")
	}

	client := mqtt.NewClient(opts)
	m.client = client
	m.mu.Unlock()

	token := client.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			m.setStatus(StatusError)
			m.logger.ErrorWithError(token.Error(), "MQTT connect failed")
		}
	}()

	return nil
}

// Status returns the current connection state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Messages returns the inbound channel drained by the router's single
// dispatch goroutine.
func (m *Manager) Messages() <-chan Message {
	return m.inbound
}

// Publish sends one message on the bus. It fails immediately when the
// connection is not in the Connected state. For QoS > 0 it blocks until
// broker acknowledgment or the configured command timeout.
func (m *Manager) Publish(topic string, qos byte, retained bool, payload []byte) error {
	m.mu.RLock()
	client := m.client
	status := m.status
	m.mu.RUnlock()

	if client == nil || status != StatusConnected {
		return ErrNotConnected
	}

	token := client.Publish(topic, qos, retained, payload)
	if qos > 0 {
		if !token.WaitTimeout(m.cfg.CommandTimeout) {
			return fmt.Errorf("publish to %s: no broker ack within %s", topic, m.cfg.CommandTimeout)
		}
	}
	return token.Error()
}

// Disconnect tears down the connection at process shutdown and closes
// the inbound channel so the router loop drains and exits.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	client := m.client
	m.client = nil
	m.status = StatusDisconnected
	m.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(500)
	}
	close(m.inbound)
}

// onMessage holds the read lock across the send so Disconnect cannot
// close the channel underneath an in-flight delivery; messages arriving
// after the closed flag is set are dropped.
func (m *Manager) onMessage(_ mqtt.Client, msg mqtt.Message) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	m.inbound <- Message{Topic: msg.Topic(), Payload: msg.Payload()}
}

func (m *Manager) setStatus(status Status) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Manager) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
