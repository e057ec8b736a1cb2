package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the broker connection used for notifications.
type MQTTConfig struct {
	BrokerURL      string
	ClientID       string
	QoS            byte
	Retain         bool
	ConnectTimeout time.Duration
}

// MQTTTransport publishes notifications to an MQTT broker.
type MQTTTransport struct {
	client mqtt.Client
	cfg    MQTTConfig
	logger *slog.Logger
}

func NewMQTTTransport(cfg MQTTConfig, logger *slog.Logger) *MQTTTransport {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	t := &MQTTTransport{cfg: cfg, logger: logger}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Second)
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.BrokerURL)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", cfg.BrokerURL, "error", err)
	})

	t.client = mqtt.NewClient(opts)
	return t
}

// Connect dials the broker and waits for the CONNACK or ctx. When ctx ends
// first the client keeps retrying in the background.
func (t *MQTTTransport) Connect(ctx context.Context) error {
	token := t.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connect to %s: %w", t.cfg.BrokerURL, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connect to %s: %w", t.cfg.BrokerURL, ctx.Err())
	}
}

func (t *MQTTTransport) Publish(ctx context.Context, topic string, payload []byte) error {
	token := t.client.Publish(topic, t.cfg.QoS, t.cfg.Retain, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connected reports whether the broker connection is currently up.
func (t *MQTTTransport) Connected() bool {
	return t.client.IsConnectionOpen()
}

func (t *MQTTTransport) Close() {
	t.client.Disconnect(250)
}

// LogTransport writes notifications to a logger instead of a broker. It is
// used when no broker is configured.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Publish(ctx context.Context, topic string, payload []byte) error {
	t.logger.DebugContext(ctx, "notification", "topic", topic, "payload", string(payload))
	return nil
}
