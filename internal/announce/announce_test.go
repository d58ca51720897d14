/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package announce

import (
	"encoding/json"
	"testing"

	"github.com/friendsincode/crescendo/internal/events"
)

func TestTopicForCollapsesTransitions(t *testing.T) {
	cases := []struct {
		event events.EventType
		topic string
	}{
		{events.EventPresenceDetected, "presence"},
		{events.EventPresenceLost, "presence"},
		{events.EventPlaybackStarted, "playback"},
		{events.EventPlaybackStopped, "playback"},
		{events.EventPlaybackError, "playback"},
		{events.EventRelayOn, "relay"},
		{events.EventRelayOff, "relay"},
		{events.EventSensorError, "sensor"},
	}
	for _, tc := range cases {
		if got := topicFor(tc.event); got != tc.topic {
			t.Errorf("topicFor(%s) = %q, want %q", tc.event, got, tc.topic)
		}
	}
}

func TestStatusPayloadIsValidJSON(t *testing.T) {
	var body map[string]string
	if err := json.Unmarshal([]byte(statusPayload("crescendo", "offline")), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "offline" || body["client_id"] != "crescendo" {
		t.Fatalf("unexpected payload: %v", body)
	}
	if body["timestamp"] == "" {
		t.Fatal("missing timestamp")
	}
}
