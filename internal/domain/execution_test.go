package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchOutcome_Status(t *testing.T) {
	tests := []struct {
		class OutcomeClass
		want  ExecutionStatus
	}{
		{OutcomeDelivered, ExecutionStatusSuccess},
		{OutcomeTransientFailure, ExecutionStatusFailed},
		{OutcomePermanentFailure, ExecutionStatusFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			assert.Equal(t, tt.want, DispatchOutcome{Class: tt.class}.Status())
		})
	}
}

func TestExecutionIDFor_Deterministic(t *testing.T) {
	assert.Equal(t, ExecutionIDFor("E1"), ExecutionIDFor("E1"))
	assert.NotEqual(t, ExecutionIDFor("E1"), ExecutionIDFor("E2"))
}
