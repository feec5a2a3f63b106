package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const confirmTimeout = 10 * time.Second

// AMQPPublisher publishes actions to a topic exchange with publisher confirms.
// Routing keys are action.<channel>; the channel workers behind the exchange
// own the last mile.
type AMQPPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	log        *zap.Logger
	mu         sync.Mutex
	connClosed chan *amqp.Error
	chanClosed chan *amqp.Error
	closeOnce  sync.Once
	healthy    atomic.Bool
	done       chan struct{}
}

// NewAMQPPublisher dials url, declares exchange and enables publisher confirms
func NewAMQPPublisher(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	p := &AMQPPublisher{
		conn:       conn,
		channel:    ch,
		exchange:   exchange,
		log:        log,
		connClosed: make(chan *amqp.Error, 1),
		chanClosed: make(chan *amqp.Error, 1),
		done:       make(chan struct{}),
	}
	p.healthy.Store(true)

	conn.NotifyClose(p.connClosed)
	ch.NotifyClose(p.chanClosed)
	go p.watch()

	log.Info("Connected to RabbitMQ", zap.String("exchange", exchange))
	return p, nil
}

func (p *AMQPPublisher) watch() {
	select {
	case err := <-p.connClosed:
		p.healthy.Store(false)
		p.log.Warn("RabbitMQ connection closed", zap.Any("error", err))
	case err := <-p.chanClosed:
		p.healthy.Store(false)
		p.log.Warn("RabbitMQ channel closed", zap.Any("error", err))
	case <-p.done:
	}
}

// Send publishes msg and waits for the broker confirm.
// A NACK or a lost connection is transient.
func (p *AMQPPublisher) Send(ctx context.Context, msg Message) Result {
	start := time.Now()

	if !p.IsHealthy() {
		return Result{Error: fmt.Errorf("broker connection is closed"), Duration: time.Since(start)}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return Result{Error: fmt.Errorf("marshal: %w", err), Permanent: true, Duration: time.Since(start)}
	}

	p.mu.Lock()
	deferred, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		"action."+string(msg.Channel),
		false,
		false,
		amqp.Publishing{
			Headers: amqp.Table{
				"event_id":     msg.EventID,
				"execution_id": msg.ExecutionID,
			},
			MessageId:    msg.ExecutionID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    start,
			Body:         body,
		},
	)
	p.mu.Unlock()
	if err != nil {
		return Result{Error: fmt.Errorf("publish: %w", err), Duration: time.Since(start)}
	}

	select {
	case <-ctx.Done():
		return Result{Error: ctx.Err(), Duration: time.Since(start)}
	case <-deferred.Done():
		if !deferred.Acked() {
			return Result{Error: fmt.Errorf("broker NACK: message not persisted"), Duration: time.Since(start)}
		}
		return Result{Duration: time.Since(start)}
	case <-time.After(confirmTimeout):
		return Result{Error: fmt.Errorf("publisher confirm timeout"), Duration: time.Since(start)}
	}
}

// IsHealthy returns true while the connection and channel are open
func (p *AMQPPublisher) IsHealthy() bool {
	return p.healthy.Load()
}

// Close shuts down the channel and connection
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.log.Info("Closing RabbitMQ publisher")
		close(p.done)
		if p.channel != nil {
			p.channel.Close()
		}
		if p.conn != nil {
			p.conn.Close()
		}
	})
	return nil
}
