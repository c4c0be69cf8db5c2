// Package notify delivers ledger notifications and treasury payout
// instructions over RabbitMQ. Queues are durable and deliveries persistent.
// Notification failures are logged and swallowed so ledger operations never
// fail on delivery; payout publishing reports its error because treasury
// withdrawal must not proceed without a confirmed handoff.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/tessera-live/tessera/internal/domain"
)

const (
	transferQueue = "ledger.transfer"
	approvalQueue = "ledger.approval"
	payoutQueue   = "treasury.payout"
)

type Publisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

// NewPublisher dials the broker and declares the queues it publishes to.
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	for _, queue := range []string{transferQueue, approvalQueue, payoutQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}
	return &Publisher{conn: conn, ch: ch, logger: logger}, nil
}

func (p *Publisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}

type transferMessage struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Value uint64 `json:"value"`
}

type approvalMessage struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Value   uint64 `json:"value"`
}

type payoutMessage struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (p *Publisher) TransferOccurred(ctx context.Context, ev domain.TransferEvent) {
	msg := transferMessage{Value: ev.Value}
	if ev.From != nil {
		msg.From = string(*ev.From)
	}
	if ev.To != nil {
		msg.To = string(*ev.To)
	}
	if err := p.publish(ctx, transferQueue, msg); err != nil {
		p.logger.Warn("transfer notification dropped", zap.Error(err))
	}
}

func (p *Publisher) ApprovalGranted(ctx context.Context, ev domain.ApprovalEvent) {
	msg := approvalMessage{
		Owner:   string(ev.Owner),
		Spender: string(ev.Spender),
		Value:   ev.Value,
	}
	if err := p.publish(ctx, approvalQueue, msg); err != nil {
		p.logger.Warn("approval notification dropped", zap.Error(err))
	}
}

// Payout hands a treasury withdrawal to the environment's payment channel.
// The error matters: the caller keeps the treasury balance intact when the
// instruction cannot be confirmed.
func (p *Publisher) Payout(ctx context.Context, to domain.Account, amount uint64) error {
	return p.publish(ctx, payoutQueue, payoutMessage{
		To:     string(to),
		Amount: amount,
	})
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", queue, err)
	}
	err = p.ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	return nil
}
