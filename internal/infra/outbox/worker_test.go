package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicFor(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		event  string
		want   string
	}{
		{name: "dotted event name", event: "request.accepted", want: "request.events.v1"},
		{name: "deeply dotted", event: "calendar.overbooking_prevented", want: "calendar.events.v1"},
		{name: "no dot", event: "heartbeat", want: "heartbeat.events.v1"},
		{name: "with prefix", prefix: "staging.", event: "item.listed", want: "staging.item.events.v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Worker{TopicPrefix: tt.prefix}
			assert.Equal(t, tt.want, w.topicFor(tt.event))
		})
	}
}

func TestFormatPayloadCloudEvents(t *testing.T) {
	w := &Worker{Source: "app://instrent-test"}
	doc := &EventDocument{
		ID:         "ev-1",
		Name:       "request.accepted",
		Aggregate:  "req-1",
		Payload:    []byte(`{"request_id":"req-1"}`),
		OccurredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	payload, headers, err := w.formatPayload(doc)
	require.NoError(t, err)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "request.accepted.v1", evt["type"])
	assert.Equal(t, "app://instrent-test", evt["source"])
	assert.NotEmpty(t, evt["id"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "req-1", data["request_id"])
}

func TestFormatPayloadRejectsBadJSON(t *testing.T) {
	w := &Worker{}
	doc := &EventDocument{ID: "ev-1", Name: "x", Payload: []byte("not json")}
	_, _, err := w.formatPayload(doc)
	assert.Error(t, err)
}

func TestNextRetryFollowsBackoffSchedule(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, 5 * time.Second}}
	start := time.Now()

	first := w.nextRetry(0)
	assert.WithinDuration(t, start.Add(time.Second), first, 100*time.Millisecond)

	second := w.nextRetry(1)
	assert.WithinDuration(t, start.Add(5*time.Second), second, 100*time.Millisecond)

	// attempts past the schedule keep the last step
	third := w.nextRetry(7)
	assert.WithinDuration(t, start.Add(5*time.Second), third, 100*time.Millisecond)
}
