package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/service"
)

// Publisher implements service.Notifier by publishing EmailEvents to a
// durable queue. The connection is opened lazily and dropped on any
// failure so the next publish redials.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
	now   func() time.Time
	// dialTimeout bounds the TCP connect and the AMQP handshake.
	dialTimeout time.Duration

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, log: log, now: time.Now, dialTimeout: 5 * time.Second}
}

func (p *Publisher) PasswordReset(ctx context.Context, m service.PasswordResetEmail) error {
	return p.publish(ctx, EmailEvent{Type: TypePasswordReset, PasswordReset: &m, CreatedAt: p.now().UTC()})
}

func (p *Publisher) Welcome(ctx context.Context, m service.WelcomeEmail) error {
	return p.publish(ctx, EmailEvent{Type: TypeWelcome, Welcome: &m, CreatedAt: p.now().UTC()})
}

func (p *Publisher) publish(ctx context.Context, ev EmailEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.CreatedAt,
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	p.log.Debug("email event published", zap.String("type", ev.Type), zap.String("queue", p.queue))
	return nil
}

// connect must be called with mu held.
func (p *Publisher) connect() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
