package domain

import "time"

// MarketingEvent is a single customer behavioral event entering the engine
type MarketingEvent struct {
	EventID    string
	CustomerID string
	EventType  string
	Platform   string
	Metadata   map[string]interface{}
	Timestamp  time.Time
}
