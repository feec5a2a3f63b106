package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExecutionStatus string

const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

type OutcomeClass string

const (
	OutcomeDelivered        OutcomeClass = "delivered"
	OutcomeTransientFailure OutcomeClass = "transient_failure"
	OutcomePermanentFailure OutcomeClass = "permanent_failure"
)

// Failed reports whether the class marks the execution as failed.
func (c OutcomeClass) Failed() bool {
	return c != OutcomeDelivered
}

// DispatchOutcome is the classified result of one delivery attempt
type DispatchOutcome struct {
	Class    OutcomeClass
	Detail   string
	Duration time.Duration
}

// Status maps the outcome to the execution status stored on the record
func (o DispatchOutcome) Status() ExecutionStatus {
	if o.Class.Failed() {
		return ExecutionStatusFailed
	}
	return ExecutionStatusSuccess
}

// executionNamespace scopes execution ids derived from event ids.
var executionNamespace = uuid.MustParse("6f1c2a0e-3b4d-5e6f-8a9b-0c1d2e3f4a5b")

// ExecutionIDFor derives the stable execution id of an event
func ExecutionIDFor(eventID string) uuid.UUID {
	return uuid.NewSHA1(executionNamespace, []byte(eventID))
}

// ExecutionRecord is the audit record of one decisioning run.
// Created once per distinct event id and never mutated afterwards.
type ExecutionRecord struct {
	ExecutionID         uuid.UUID       `json:"execution_id"`
	EventID             string          `json:"event_id"`
	CustomerID          string          `json:"customer_id"`
	EventType           string          `json:"event_type"`
	Status              ExecutionStatus `json:"status"`
	ActionTaken         string          `json:"action_taken"`
	TargetChannel       Channel         `json:"target_channel"`
	PersonalizedContent string          `json:"personalized_content,omitempty"`
	Personalized        bool            `json:"personalized"`
	Outcome             OutcomeClass    `json:"outcome"`
	OutcomeDetail       string          `json:"outcome_detail,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}
