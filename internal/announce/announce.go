/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package announce publishes retained state messages to an MQTT broker so
// home automation systems can observe presence, playback, and relay state.
package announce

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/friendsincode/crescendo/internal/config"
	"github.com/friendsincode/crescendo/internal/events"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
	keepAlive         = 60 * time.Second

	qosAtLeastOnce = 1
)

// Announcer mirrors bus events onto retained MQTT topics.
type Announcer struct {
	client pahomqtt.Client
	prefix string
	logger zerolog.Logger

	bus  *events.Bus
	subs map[events.EventType]events.Subscriber
	done chan struct{}
}

// Connect dials the broker and returns a ready announcer. The broker reports
// the service offline via the status topic if the connection drops.
func Connect(cfg *config.Config, bus *events.Bus, logger zerolog.Logger) (*Announcer, error) {
	a := &Announcer{
		prefix: cfg.MQTTTopicPrefix,
		logger: logger.With().Str("component", "announce").Logger(),
		bus:    bus,
		subs:   make(map[events.EventType]events.Subscriber),
		done:   make(chan struct{}),
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)
	opts.SetWill(a.topic("status"), statusPayload(cfg.MQTTClientID, "offline"), qosAtLeastOnce, true)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		a.publish("status", map[string]any{"status": "online", "client_id": cfg.MQTTClientID})
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		a.logger.Warn().Err(err).Msg("broker connection lost")
	})

	a.client = pahomqtt.NewClient(opts)
	token := a.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect: timeout after %v", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return a, nil
}

// Run forwards bus events to the broker until Close is called.
func (a *Announcer) Run() {
	forward := []events.EventType{
		events.EventPresenceDetected,
		events.EventPresenceLost,
		events.EventPlaybackStarted,
		events.EventPlaybackStopped,
		events.EventPlaybackError,
		events.EventRelayOn,
		events.EventRelayOff,
		events.EventSensorError,
		events.EventPlaylistChange,
	}
	for _, eventType := range forward {
		a.subs[eventType] = a.bus.Subscribe(eventType)
		go a.forward(eventType, a.subs[eventType])
	}
}

func (a *Announcer) forward(eventType events.EventType, sub events.Subscriber) {
	for {
		select {
		case <-a.done:
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			a.publish(topicFor(eventType), map[string]any(payload))
		}
	}
}

// topicFor maps an event type onto a state topic. Transitions of the same
// subject land on the same topic so retained messages always hold the
// latest state.
func topicFor(eventType events.EventType) string {
	switch eventType {
	case events.EventPresenceDetected, events.EventPresenceLost:
		return "presence"
	case events.EventPlaybackStarted, events.EventPlaybackStopped, events.EventPlaybackError:
		return "playback"
	case events.EventRelayOn, events.EventRelayOff:
		return "relay"
	case events.EventSensorError:
		return "sensor"
	default:
		return string(eventType)
	}
}

func (a *Announcer) publish(subtopic string, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		body[key] = value
	}
	body["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(body)
	if err != nil {
		a.logger.Error().Err(err).Str("topic", subtopic).Msg("marshal announcement")
		return
	}

	token := a.client.Publish(a.topic(subtopic), qosAtLeastOnce, true, data)
	if !token.WaitTimeout(publishTimeout) {
		a.logger.Warn().Str("topic", subtopic).Msg("publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		a.logger.Warn().Err(err).Str("topic", subtopic).Msg("publish failed")
	}
}

func (a *Announcer) topic(subtopic string) string {
	return a.prefix + "/" + subtopic
}

// Close publishes a graceful offline status and disconnects.
func (a *Announcer) Close() {
	close(a.done)
	for eventType, sub := range a.subs {
		a.bus.Unsubscribe(eventType, sub)
	}
	if a.client.IsConnected() {
		optsReader := a.client.OptionsReader()
		token := a.client.Publish(a.topic("status"), qosAtLeastOnce, true,
			statusPayload(optsReader.ClientID(), "offline"))
		token.WaitTimeout(publishTimeout)
	}
	a.client.Disconnect(disconnectQuiesce)
}

func statusPayload(clientID, status string) string {
	return fmt.Sprintf(`{"status":%q,"client_id":%q,"timestamp":%q}`,
		status, clientID, time.Now().UTC().Format(time.RFC3339))
}
