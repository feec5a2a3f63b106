package dto

import (
	"time"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// TriggerEventRequest represents a marketing event submitted to the engine
type TriggerEventRequest struct {
	EventID    string                 `json:"event_id" example:"evt_1a2b3c4d"`
	CustomerID string                 `json:"customer_id" binding:"required" example:"cust_8842"`
	EventType  string                 `json:"event_type" binding:"required" example:"cart_abandoned"`
	Platform   string                 `json:"platform" example:"ios"`
	Metadata   map[string]interface{} `json:"metadata" swaggertype:"object,string" example:"cart_value:129.99,store:downtown"`
	Timestamp  *time.Time             `json:"timestamp" example:"2024-08-12T15:13:32Z"`
}

// ToDomain converts the request into a marketing event
func (r *TriggerEventRequest) ToDomain() domain.MarketingEvent {
	event := domain.MarketingEvent{
		EventID:    r.EventID,
		CustomerID: r.CustomerID,
		EventType:  r.EventType,
		Platform:   r.Platform,
		Metadata:   r.Metadata,
	}
	if r.Timestamp != nil {
		event.Timestamp = *r.Timestamp
	}
	return event
}

// GetDeliveryReportRequest represents a delivery report query request
type GetDeliveryReportRequest struct {
	From    int64  `form:"from" binding:"required" example:"1723475612"`
	To      int64  `form:"to" binding:"required" example:"1723562012"`
	GroupBy string `form:"group_by" example:"campaign"`
}
