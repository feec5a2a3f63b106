package dispatch

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes the action to the log and reports it delivered.
// Used for channels that have no provider configured.
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(_ context.Context, msg Message) Result {
	t.log.Info("Dispatching action",
		zap.String("channel", string(msg.Channel)),
		zap.String("customer_id", msg.CustomerID),
		zap.String("campaign", msg.Campaign),
		zap.String("content", msg.Content))
	return Result{}
}
