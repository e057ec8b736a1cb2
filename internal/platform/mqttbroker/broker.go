// Package mqttbroker runs an in-process MQTT broker so the service can be
// started without external infrastructure.
package mqttbroker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
)

// Broker wraps a mochi MQTT server listening on a single TCP address.
type Broker struct {
	mu       sync.Mutex
	server   *mqtt.Server
	addr     string
	logger   *slog.Logger
	running  bool
	received atomic.Int64
}

func New(addr string, logger *slog.Logger) (*Broker, error) {
	if addr == "" {
		return nil, errors.New("broker address is required")
	}

	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       logger,
	})

	b := &Broker{server: server, addr: addr, logger: logger}

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("add allow hook: %w", err)
	}
	if err := server.AddHook(&publishHook{broker: b}, nil); err != nil {
		return nil, fmt.Errorf("add publish hook: %w", err)
	}
	return b, nil
}

// Start adds the TCP listener and serves in the background.
func (b *Broker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return errors.New("broker is already running")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	listener := listeners.NewTCP(listeners.Config{ID: "bff-tcp", Address: b.addr})
	if err := b.server.AddListener(listener); err != nil {
		return fmt.Errorf("add listener: %w", err)
	}

	go func() {
		if err := b.server.Serve(); err != nil {
			b.logger.Error("mqtt broker error", "error", err)
		}
	}()

	b.running = true
	b.logger.Info("embedded mqtt broker started", "addr", b.addr)
	return nil
}

// Stop closes the server, giving up when ctx is done.
func (b *Broker) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- b.server.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("broker shutdown: %w", ctx.Err())
	}
}

// Subscribe registers an in-process handler for messages matching filter.
func (b *Broker) Subscribe(filter string, id int, fn func(topic string, payload []byte)) error {
	return b.server.Subscribe(filter, id, func(_ *mqtt.Client, _ packets.Subscription, pk packets.Packet) {
		fn(pk.TopicName, pk.Payload)
	})
}

// Received is the number of PUBLISH packets accepted from clients.
func (b *Broker) Received() int64 {
	return b.received.Load()
}

type publishHook struct {
	mqtt.HookBase
	broker *Broker
}

func (h *publishHook) ID() string {
	return "bff-publish"
}

func (h *publishHook) Provides(b byte) bool {
	return bytes.Contains([]byte{mqtt.OnPublished}, []byte{b})
}

func (h *publishHook) OnPublished(cl *mqtt.Client, pk packets.Packet) {
	h.broker.received.Add(1)
	h.broker.logger.Debug("mqtt message received", "client", cl.ID, "topic", pk.TopicName, "bytes", len(pk.Payload))
}
