package dto

import (
	"time"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"customer_id is required"`
}

// ExecutionResponse represents the stored record of a decisioning run
type ExecutionResponse struct {
	ExecutionID         string    `json:"execution_id" example:"0b8f7c52-4a44-5d1e-9a7e-5f0b1c2d3e4f"`
	EventID             string    `json:"event_id" example:"evt_1a2b3c4d"`
	CustomerID          string    `json:"customer_id" example:"cust_8842"`
	EventType           string    `json:"event_type" example:"cart_abandoned"`
	Status              string    `json:"status" example:"success"`
	ActionTaken         string    `json:"action_taken" example:"Recovery-v1"`
	TargetChannel       string    `json:"target_channel" example:"push"`
	PersonalizedContent string    `json:"personalized_content,omitempty" example:"Hey User_cust, your items are waiting!"`
	Personalized        bool      `json:"personalized" example:"true"`
	Outcome             string    `json:"outcome" example:"delivered"`
	OutcomeDetail       string    `json:"outcome_detail,omitempty" example:"status 503"`
	CreatedAt           time.Time `json:"created_at" example:"2024-08-12T15:13:32Z"`
}

// NewExecutionResponse converts an execution record into its response form
func NewExecutionResponse(rec domain.ExecutionRecord) ExecutionResponse {
	return ExecutionResponse{
		ExecutionID:         rec.ExecutionID.String(),
		EventID:             rec.EventID,
		CustomerID:          rec.CustomerID,
		EventType:           rec.EventType,
		Status:              string(rec.Status),
		ActionTaken:         rec.ActionTaken,
		TargetChannel:       string(rec.TargetChannel),
		PersonalizedContent: rec.PersonalizedContent,
		Personalized:        rec.Personalized,
		Outcome:             string(rec.Outcome),
		OutcomeDetail:       rec.OutcomeDetail,
		CreatedAt:           rec.CreatedAt,
	}
}

// AcceptedResponse represents a fire-and-forget submission acknowledgement
type AcceptedResponse struct {
	Status  string `json:"status" example:"accepted"`
	EventID string `json:"event_id" example:"evt_1a2b3c4d"`
}

// HealthResponse represents the liveness probe response
type HealthResponse struct {
	Status string `json:"status" example:"online"`
	Engine string `json:"engine" example:"active"`
}

// ReloadRulesResponse represents a successful rule table reload
type ReloadRulesResponse struct {
	Version string `json:"version" example:"a3f9c0d1e2b4c5d6"`
	Rules   int    `json:"rules" example:"3"`
}

// DeliveryGroupData represents aggregated delivery counts for a specific group
type DeliveryGroupData struct {
	GroupValue   string `json:"group_value" example:"Recovery-v1"`
	TotalCount   uint64 `json:"total_count" example:"1500"`
	SuccessCount uint64 `json:"success_count" example:"1420"`
}

// GetDeliveryReportResponse represents the delivery report query response
type GetDeliveryReportResponse struct {
	From            int64               `json:"from" example:"1723475612"`
	To              int64               `json:"to" example:"1723562012"`
	TotalCount      uint64              `json:"total_count" example:"5000"`
	SuccessCount    uint64              `json:"success_count" example:"4700"`
	UniqueCustomers uint64              `json:"unique_customers" example:"2500"`
	GroupBy         string              `json:"group_by,omitempty" example:"campaign"`
	Groups          []DeliveryGroupData `json:"groups,omitempty"`
}
