package consumer

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/config"
	"github.com/paridu/ai-outreach-optimizer/internal/queue"
)

// Consumer orchestrates a pipeline of stages that feed SQS events into the engine
type Consumer struct {
	receiver *Receiver
	parser   *ParserStage
	executor *ExecutorStage
}

// NewConsumer creates a new consumer with a pipeline architecture
func NewConsumer(cfg *config.Config, queueConsumer queue.QueueConsumer, executor EventExecutor, log *zap.Logger) *Consumer {
	receiver := NewReceiver(queueConsumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
	}, log)

	parser := NewParserStage(queueConsumer, NewJSONEventParser(), log)

	return &Consumer{
		receiver: receiver,
		parser:   parser,
		executor: NewExecutorStage(executor, cfg.Consumer.Concurrency, log),
	}
}

// Start runs the pipeline until ctx is cancelled and every in-flight event
// has been settled
func (c *Consumer) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	envelopeChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup

	wg.Add(3)

	// Stage 1: Receive messages from SQS
	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messageChan)
	}()

	// Stage 2: Parse messages into envelopes
	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messageChan, envelopeChan)
	}()

	// Stage 3: Execute events and settle their messages
	go func() {
		defer wg.Done()
		c.executor.Start(ctx, envelopeChan)
	}()

	wg.Wait()
	return nil
}
