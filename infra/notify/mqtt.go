package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/tguellec/qcdispatch/infra/logger"
)

// publisher is the subset of the paho client used by the notifier.
type publisher interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes one message per task notification on a
// personnel-specific topic.
type MQTTNotifier struct {
	client publisher
	prefix string
	qos    byte
	log    logger.Logger
}

// message is the JSON payload published for each notification.
type message struct {
	MessageID   string    `json:"message_id"`
	PersonnelID string    `json:"personnel_id"`
	Locator     string    `json:"locator"`
	SentAt      time.Time `json:"sent_at"`
}

// NewMQTTNotifier connects to the broker and returns a notifier.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return newMQTTNotifier(client, cfg), nil
}

func newMQTTNotifier(client publisher, cfg MQTTConfig) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		prefix: cfg.TopicPrefix,
		qos:    cfg.QoS,
		log:    logger.New("mqtt-notify"),
	}
}

// Notify publishes the notification and waits for broker confirmation.
func (n *MQTTNotifier) Notify(_ context.Context, personnelID, locator string) error {
	payload, err := json.Marshal(message{
		MessageID:   uuid.NewString(),
		PersonnelID: personnelID,
		Locator:     locator,
		SentAt:      time.Now(),
	})
	if err != nil {
		return err
	}
	topic := fmt.Sprintf("%s/%s", n.prefix, personnelID)
	token := n.client.Publish(topic, n.qos, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	n.log.Debugf("published notification for %s on %s", personnelID, topic)
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.client.IsConnected() {
		n.client.Disconnect(250)
	}
}
