package notify

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MQTT receives push events from a broker. The server publishes each event on
// <prefix>/<event name> with the JSON payload as message body.
type MQTT struct {
	Broker         string
	TopicPrefix    string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	Log            zerolog.Logger
}

// NewMQTT returns an MQTT transport.
func NewMQTT(broker, topicPrefix, clientID string, log zerolog.Logger) *MQTT {
	return &MQTT{Broker: broker, TopicPrefix: topicPrefix, ClientID: clientID, ConnectTimeout: 5 * time.Second, Log: log}
}

// Name implements Transport.
func (m *MQTT) Name() string { return "mqtt" }

// Topic is the subscription filter.
func (m *MQTT) Topic() string {
	return strings.TrimSuffix(m.TopicPrefix, "/") + "/#"
}

// Stream implements Transport. Reconnection is left to the Listener so both
// transports share one backoff policy.
func (m *MQTT) Stream(ctx context.Context, connected func(), deliver func(Event)) error {
	lost := make(chan error, 1)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.Broker)
	// Unique per process so several dashboards can share a broker.
	opts.SetClientID(fmt.Sprintf("%s-%s", m.ClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(false)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOrderMatters(false)
	if m.Username != "" {
		opts.SetUsername(m.Username)
		opts.SetPassword(m.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})

	client := mqtt.NewClient(opts)
	timeout := m.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		client.Disconnect(0)
		return fmt.Errorf("mqtt: connect to %s timed out", m.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: connect: %w", err)
	}
	defer client.Disconnect(250)

	// QoS 1 so a signal is delivered at least once; duplicates are harmless.
	sub := client.Subscribe(m.Topic(), 1, func(_ mqtt.Client, msg mqtt.Message) {
		deliver(Event{Name: EventFromTopic(msg.Topic()), Payload: msg.Payload()})
	})
	if !sub.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt: subscribe %s timed out", m.Topic())
	}
	if err := sub.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", m.Topic(), err)
	}
	m.Log.Debug().Str("topic", m.Topic()).Msg("mqtt: subscribed")
	connected()

	select {
	case <-ctx.Done():
		return nil
	case err := <-lost:
		return fmt.Errorf("mqtt: connection lost: %w", err)
	}
}

// EventFromTopic returns the event name carried by a topic: its last segment.
func EventFromTopic(topic string) string {
	return path.Base(strings.TrimSuffix(topic, "/"))
}
