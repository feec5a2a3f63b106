package sqs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paridu/ai-outreach-optimizer/internal/consumer"
	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

func TestNewEventMessage(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 500, time.FixedZone("CET", 3600))

	msg := NewEventMessage(domain.MarketingEvent{
		EventID:    "E1",
		CustomerID: "C1",
		EventType:  "cart_abandoned",
		Platform:   "ios",
		Metadata:   map[string]interface{}{"cart_value": 42.5},
		Timestamp:  ts,
	})

	assert.Equal(t, "E1", msg.EventID)
	assert.Equal(t, "ios", msg.Platform)
	assert.Equal(t, "2026-03-01T11:30:00.0000005Z", msg.Timestamp)
}

func TestNewEventMessage_ZeroTimestampOmitted(t *testing.T) {
	body, err := json.Marshal(NewEventMessage(domain.MarketingEvent{
		EventID:    "E2",
		CustomerID: "C2",
		EventType:  "location_entry",
	}))
	require.NoError(t, err)

	assert.NotContains(t, string(body), "timestamp")
	assert.NotContains(t, string(body), "metadata")
}

func TestEventMessage_ReadByConsumerParser(t *testing.T) {
	event := domain.MarketingEvent{
		EventID:    "E3",
		CustomerID: "C3",
		EventType:  "cart_abandoned",
		Metadata:   map[string]interface{}{"store": "berlin"},
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := json.Marshal(NewEventMessage(event))
	require.NoError(t, err)

	parsed, err := consumer.NewJSONEventParser().Parse(body)
	require.NoError(t, err)

	assert.Equal(t, event.EventID, parsed.EventID)
	assert.Equal(t, event.CustomerID, parsed.CustomerID)
	assert.Equal(t, event.EventType, parsed.EventType)
	assert.Equal(t, "berlin", parsed.Metadata["store"])
	assert.True(t, event.Timestamp.Equal(parsed.Timestamp))
}
