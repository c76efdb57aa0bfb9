package notify

import (
	"fmt"
	"strconv"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sprinklerd/sprinklerd/controller"
)

// MQTTSink publishes every event to sprinklerd/events/<kind> on a
// connected broker.
type MQTTSink struct {
	client paho.Client
}

// NewMQTTSink connects to broker (e.g. "tcp://localhost:1883") and
// returns a sink publishing under the given client ID.
func NewMQTTSink(broker, clientID string) (*MQTTSink, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTTSink{client: client}, nil
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Send(e controller.Event) error {
	topic := "sprinklerd/events/" + e.Kind.String()
	token := s.client.Publish(topic, 0, false, formatPayload(e))
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt publish timeout")
	}
	return token.Error()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(1000)
}

func formatPayload(e controller.Event) string {
	payload := e.At.UTC().Format(time.RFC3339)
	switch {
	case e.Uint != nil:
		payload += " " + strconv.FormatUint(uint64(*e.Uint), 10)
	case e.Float != nil:
		payload += " " + strconv.FormatFloat(*e.Float, 'f', 2, 64)
	case e.String != nil:
		payload += " " + *e.String
	}
	return payload
}
