package consumer

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// JSONEventParser implements MessageParser for JSON-formatted event messages
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON message body into a MarketingEvent. Required fields are
// not checked here; the engine rejects incomplete events itself.
func (p *JSONEventParser) Parse(body []byte) (*domain.MarketingEvent, error) {
	var msgBody map[string]interface{}
	if err := json.Unmarshal(body, &msgBody); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}
	if msgBody == nil {
		return nil, fmt.Errorf("message body is not a JSON object")
	}

	timestamp, err := getTimeField(msgBody, "timestamp")
	if err != nil {
		return nil, err
	}

	metadata, _ := msgBody["metadata"].(map[string]interface{})

	return &domain.MarketingEvent{
		EventID:    getStringField(msgBody, "event_id"),
		CustomerID: getStringField(msgBody, "customer_id"),
		EventType:  getStringField(msgBody, "event_type"),
		Platform:   getStringField(msgBody, "platform"),
		Metadata:   metadata,
		Timestamp:  timestamp,
	}, nil
}

// Helper functions for extracting fields from parsed JSON
func getStringField(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// getTimeField accepts RFC 3339 strings and unix seconds, fractions included.
// A missing field yields the zero time.
func getTimeField(m map[string]interface{}, key string) (time.Time, error) {
	switch val := m[key].(type) {
	case nil:
		return time.Time{}, nil
	case float64:
		sec, frac := math.Modf(val)
		return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("invalid %s: unsupported type %T", key, val)
	}
}
