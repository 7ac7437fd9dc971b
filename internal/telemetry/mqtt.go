package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/modem-scraper/modem-scraper-pro/internal/models"
)

// MQTTEmitter publishes whole snapshots to <prefix>/snapshot and per-channel
// points to <prefix>/downstream and <prefix>/upstream.
type MQTTEmitter struct {
	client mqtt.Client
	prefix string
}

// NewMQTTEmitter connects to the broker and returns the emitter.
func NewMQTTEmitter(broker, clientID, username, password, prefix string) (*MQTTEmitter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", broker, token.Error())
	}

	return &MQTTEmitter{client: client, prefix: prefix}, nil
}

// Name identifies the emitter in logs.
func (e *MQTTEmitter) Name() string { return "mqtt" }

// Emit publishes the snapshot and its channel points.
func (e *MQTTEmitter) Emit(ctx context.Context, snap *models.Snapshot) error {
	if err := e.publish(e.prefix+"/snapshot", snap); err != nil {
		return err
	}
	for _, ch := range snap.Downstream {
		if err := e.publish(e.prefix+"/downstream", ch); err != nil {
			return err
		}
	}
	for _, ch := range snap.Upstream {
		if err := e.publish(e.prefix+"/upstream", ch); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (e *MQTTEmitter) publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal point: %w", err)
	}
	token := e.client.Publish(topic, 0, false, data)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (e *MQTTEmitter) Close() {
	e.client.Disconnect(250)
}
