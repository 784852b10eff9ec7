package mqtt

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ConnectionState is the explicit lifecycle state of the broker connection.
// It is owned by the Client; callers never consult ambient/global flags.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	CleanSession      bool
	KeepAlive         int // seconds
	ConnectTimeout    int // seconds
	ReconnectAttempts int
	ReconnectDelay    time.Duration
}

// Client wraps the paho client with an explicit connection lifecycle:
// connect, reconnect-with-retry on a lost connection, disconnect. Exhausting
// the reconnect budget invokes the fatal handler, because a silently dead
// listener makes every station appear offline.
type Client struct {
	client mqtt.Client
	config *Config

	mu      sync.Mutex
	state   ConnectionState
	closing bool

	onStateChange func(ConnectionState)
	onFatal       func(err error)
	logf          func(format string, args ...interface{})
}

type MessageHandler func(topic string, payload []byte)

type Option func(*Client)

// WithFatalHandler sets the callback invoked when the reconnect budget is
// exhausted.
func WithFatalHandler(fn func(err error)) Option {
	return func(c *Client) { c.onFatal = fn }
}

// WithStateHandler sets a callback observing connection-state transitions.
func WithStateHandler(fn func(ConnectionState)) Option {
	return func(c *Client) { c.onStateChange = fn }
}

// WithLogf overrides the client's log function.
func WithLogf(fn func(format string, args ...interface{})) Option {
	return func(c *Client) { c.logf = fn }
}

func NewClient(config *Config, opts ...Option) *Client {
	c := &Client{
		config: config,
		state:  StateDisconnected,
		logf:   func(format string, args ...interface{}) {},
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(config.Broker)
	clientOpts.SetClientID(config.ClientID)
	clientOpts.SetUsername(config.Username)
	clientOpts.SetPassword(config.Password)
	clientOpts.SetCleanSession(config.CleanSession)
	clientOpts.SetKeepAlive(time.Duration(config.KeepAlive) * time.Second)
	clientOpts.SetConnectTimeout(time.Duration(config.ConnectTimeout) * time.Second)
	// Reconnection is handled by this wrapper so the attempt budget applies.
	clientOpts.SetAutoReconnect(false)

	clientOpts.SetOnConnectHandler(func(client mqtt.Client) {
		c.setState(StateConnected)
		c.logf("mqtt client connected to %s", config.Broker)
	})

	clientOpts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		c.logf("mqtt connection lost: %v", err)
		go c.reconnect()
	})

	c.client = mqtt.NewClient(clientOpts)
	return c
}

// Connect establishes the connection, retrying up to the configured attempt
// count with a fixed delay between attempts.
func (c *Client) Connect() error {
	c.setState(StateConnecting)

	attempts := c.config.ReconnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		token := c.client.Connect()
		token.Wait()

		if lastErr = token.Error(); lastErr == nil {
			c.setState(StateConnected)
			return nil
		}

		c.logf("mqtt connect attempt %d/%d failed: %v", attempt, attempts, lastErr)
		if attempt < attempts {
			time.Sleep(c.config.ReconnectDelay)
		}
	}

	c.setState(StateDisconnected)
	return fmt.Errorf("failed to connect to MQTT broker after %d attempts: %w", attempts, lastErr)
}

// reconnect runs after a lost connection. It retries with the same budget as
// Connect; exhaustion is fatal to the listener and surfaced via the fatal
// handler.
func (c *Client) reconnect() {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	c.state = StateReconnecting
	c.mu.Unlock()
	c.notifyState(StateReconnecting)

	if err := c.Connect(); err != nil {
		c.logf("mqtt reconnect exhausted: %v", err)
		if c.onFatal != nil {
			c.onFatal(err)
		}
	}
}

// Subscribe subscribes to a topic filter with the given handler.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(client mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})

	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	c.logf("subscribed to topic %s (qos %d)", topic, qos)
	return nil
}

// Publish publishes a message to a topic.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from the given topics.
func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()
	return token.Error()
}

// Disconnect closes the connection and stops any pending reconnects.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	c.client.Disconnect(250)
	c.setState(StateDisconnected)
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the underlying client is connected.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *Client) setState(state ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.notifyState(state)
}

func (c *Client) notifyState(state ConnectionState) {
	if c.onStateChange != nil {
		c.onStateChange(state)
	}
}
