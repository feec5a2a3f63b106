package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/config"
	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

func TestConsumer_Start_PipelineCoordination(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockExecutor := new(MockEventExecutor)
	mockParser := new(MockMessageParser)
	log := zap.NewNop()

	mockConsumer.On("QueueURL").Return(testQueueURL)

	messages := []types.Message{
		{
			MessageId:     aws.String("msg-1"),
			Body:          aws.String(`{"event_id": "E1"}`),
			ReceiptHandle: aws.String("receipt-1"),
		},
	}

	event := &domain.MarketingEvent{
		EventID:    "E1",
		CustomerID: "C1",
		EventType:  "cart_abandoned",
		Timestamp:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	mockParser.On("Parse", []byte(`{"event_id": "E1"}`)).Return(event, nil)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&sqs.DeleteMessageOutput{}, nil)

	mockExecutor.On("Execute", mock.Anything, *event).
		Return(domain.ExecutionRecord{EventID: "E1", Status: domain.ExecutionStatusSuccess}, nil).Once()

	// Create consumer with mocked components
	consumer := &Consumer{
		receiver: NewReceiver(mockConsumer, testReceiverConfig(), log),
		parser:   NewParserStage(mockConsumer, mockParser, log),
		executor: NewExecutorStage(mockExecutor, 2, log),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := consumer.Start(ctx)

	assert.NoError(t, err)
	mockExecutor.AssertExpectations(t)
	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}

func TestConsumer_Start_GracefulShutdown(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockExecutor := new(MockEventExecutor)
	log := zap.NewNop()

	cfg := &config.Config{
		Consumer: config.Consumer{Concurrency: 4},
	}

	mockConsumer.On("QueueURL").Return(testQueueURL).Maybe()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	consumer := NewConsumer(cfg, mockConsumer, mockExecutor, log)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool)
	go func() {
		err := consumer.Start(ctx)
		assert.NoError(t, err)
		done <- true
	}()

	// Let it run for a bit
	time.Sleep(50 * time.Millisecond)

	// Cancel context to trigger shutdown
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Graceful shutdown took too long")
	}
}

func TestConsumer_NewConsumer_ComponentInitialization(t *testing.T) {
	cfg := &config.Config{
		Consumer: config.Consumer{Concurrency: 8},
	}

	consumer := NewConsumer(cfg, new(MockQueueConsumer), new(MockEventExecutor), zap.NewNop())

	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.receiver)
	assert.NotNil(t, consumer.parser)
	assert.NotNil(t, consumer.executor)
	assert.Equal(t, 8, consumer.executor.concurrency)
	assert.Equal(t, int32(10), consumer.receiver.config.MaxMessages)
}

func TestConsumer_Start_EmptyQueueScenario(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockExecutor := new(MockEventExecutor)

	cfg := &config.Config{
		Consumer: config.Consumer{Concurrency: 1},
	}

	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&sqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	consumer := NewConsumer(cfg, mockConsumer, mockExecutor, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := consumer.Start(ctx)

	assert.NoError(t, err)
	mockExecutor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}
