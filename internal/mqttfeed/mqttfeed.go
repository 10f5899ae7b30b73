// Package mqttfeed collects scalar telemetry published on MQTT topics and
// exposes it as per-topic float series.
//
// The feed has two modes. Scan mode subscribes to the '#' wildcard to
// discover which topics a broker carries without retaining payloads.
// Subscribed topics retain every payload received, in arrival order.
package mqttfeed

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rjboer/jsonplot/internal/logging"
)

// AuthorizedPorts lists broker ports the feed will connect to: standard,
// TLS, and websocket.
var AuthorizedPorts = []int{1883, 8883, 9001}

// Feed errors.
var (
	// ErrUnauthorizedPort indicates a broker port outside AuthorizedPorts.
	ErrUnauthorizedPort = errors.New("port is not an authorized MQTT port")

	// ErrNotConnected indicates no broker connection is established.
	ErrNotConnected = errors.New("not connected to a broker")
)

const connectTimeout = 10 * time.Second

// Feed accumulates payloads per MQTT topic. The MQTT topic name is the
// topic in the source-adapter sense; the payload is the scalar sample.
type Feed struct {
	mu         sync.Mutex
	client     mqtt.Client
	logger     logging.Logger
	scanning   bool
	topics     []string
	topicSeen  map[string]struct{}
	subscribed map[string]struct{}
	data       map[string][]string
}

// New builds a disconnected feed.
func New(logger logging.Logger) *Feed {
	if logger == nil {
		logger = logging.Default()
	}
	return &Feed{
		logger:     logger,
		topicSeen:  make(map[string]struct{}),
		subscribed: make(map[string]struct{}),
		data:       make(map[string][]string),
	}
}

func clientID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return "jsonplot_" + hex.EncodeToString(b)
}

// Connect validates the port and establishes the broker connection,
// replacing any existing one. Collected data survives a reconnect.
func (f *Feed) Connect(host string, port int) error {
	authorized := false
	for _, p := range AuthorizedPorts {
		if p == port {
			authorized = true
			break
		}
	}
	if !authorized {
		return fmt.Errorf("%w: %d", ErrUnauthorizedPort, port)
	}

	f.mu.Lock()
	if f.client != nil {
		f.client.Disconnect(250)
		f.client = nil
	}
	f.mu.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(clientID())
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetDefaultPublishHandler(f.onMessage)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		f.logger.Warn("broker connection lost", logging.Field{Key: "error", Value: err})
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		f.logger.Info("connected to broker",
			logging.Field{Key: "host", Value: host},
			logging.Field{Key: "port", Value: port},
		)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connect to broker %s:%d: timeout", host, port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker %s:%d: %w", host, port, err)
	}

	f.mu.Lock()
	f.client = client
	f.mu.Unlock()
	return nil
}

// Disconnect drops the broker connection. Collected data is kept.
func (f *Feed) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		f.client.Disconnect(250)
		f.client = nil
	}
}

// Subscribe starts retaining payloads for the topic. While scanning, the
// wildcard subscription already covers delivery, so no individual broker
// subscription is issued.
func (f *Feed) Subscribe(topic string) error {
	f.mu.Lock()
	client := f.client
	scanning := f.scanning
	f.subscribed[topic] = struct{}{}
	if _, ok := f.data[topic]; !ok {
		f.data[topic] = nil
	}
	f.mu.Unlock()

	if client == nil {
		return ErrNotConnected
	}
	if scanning {
		return nil
	}
	token := client.Subscribe(topic, 0, nil)
	token.Wait()
	return token.Error()
}

// StartScan subscribes to every topic to discover what the broker carries.
func (f *Feed) StartScan() error {
	f.mu.Lock()
	client := f.client
	f.scanning = true
	f.mu.Unlock()
	if client == nil {
		return ErrNotConnected
	}
	token := client.Subscribe("#", 0, nil)
	token.Wait()
	return token.Error()
}

// StopScan drops the wildcard subscription and re-issues the individual
// subscriptions gathered while scanning.
func (f *Feed) StopScan() error {
	f.mu.Lock()
	client := f.client
	f.scanning = false
	topics := make([]string, 0, len(f.subscribed))
	for t := range f.subscribed {
		topics = append(topics, t)
	}
	f.mu.Unlock()
	if client == nil {
		return ErrNotConnected
	}
	token := client.Unsubscribe("#")
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	for _, t := range topics {
		sub := client.Subscribe(t, 0, nil)
		sub.Wait()
		if err := sub.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Topics returns every MQTT topic seen so far, first-seen order.
func (f *Feed) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.topics))
	copy(out, f.topics)
	return out
}

// Values returns the payloads retained for the topic, cast to float64.
// Payloads that do not parse as numbers are dropped with a diagnostic.
func (f *Feed) Values(topic string) []float64 {
	f.mu.Lock()
	payloads := append([]string(nil), f.data[topic]...)
	f.mu.Unlock()

	var values []float64
	for _, p := range payloads {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			f.logger.Warn("payload cannot be safely cast to a float",
				logging.Field{Key: "topic", Value: topic},
				logging.Field{Key: "payload", Value: p},
			)
			continue
		}
		values = append(values, v)
	}
	return values
}

// RawValues returns the retained payload strings unconverted.
func (f *Feed) RawValues(topic string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []any
	for _, p := range f.data[topic] {
		out = append(out, p)
	}
	return out
}

// Clear erases all collected payloads; discovered topics are kept.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = make(map[string][]string)
}

// onMessage tracks topic discovery on every message and retains the
// payload when the topic is subscribed.
func (f *Feed) onMessage(_ mqtt.Client, msg mqtt.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()

	topic := msg.Topic()
	if _, ok := f.topicSeen[topic]; !ok {
		f.topicSeen[topic] = struct{}{}
		f.topics = append(f.topics, topic)
	}
	if _, ok := f.subscribed[topic]; ok {
		f.data[topic] = append(f.data[topic], string(msg.Payload()))
	}
}
