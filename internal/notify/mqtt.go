package notify

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"hotlabcore/pkg/domain"
)

// DefaultAlertTopicPrefix is the MQTT topic prefix used when none is
// configured; the alert kind is appended as the final topic level.
const DefaultAlertTopicPrefix = "hotlab/alerts"

// MQTTConfig holds broker settings for the MQTT notifier.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

// MQTTNotifier publishes alerts to an MQTT broker, one topic per alert kind
// (e.g. hotlab/alerts/critical), so displays can subscribe selectively.
type MQTTNotifier struct {
	client mqtt.Client
	prefix string
	qos    byte
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker: %w", token.Error())
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = DefaultAlertTopicPrefix
	}
	return &MQTTNotifier{client: client, prefix: prefix, qos: cfg.QoS}, nil
}

// Notify publishes the alert as JSON.
func (n *MQTTNotifier) Notify(_ context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s", n.prefix, alert.Kind)
	token := n.client.Publish(topic, n.qos, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
