// Package notify provides transport implementations for task notifications.
package notify

import "fmt"

// Config selects and configures the notification transport.
type Config struct {
	// Mode selects the transport: "log" or "mqtt".
	Mode string     `json:"mode"`
	MQTT MQTTConfig `json:"mqtt"`
}

// MQTTConfig holds broker settings for the MQTT transport.
type MQTTConfig struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "log"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "qc/tasks"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "qcdispatch"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Mode {
	case "log":
		return nil
	case "mqtt":
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt broker is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown notifier mode %s", c.Mode)
	}
}
