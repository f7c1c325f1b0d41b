package mailer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/service"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Mailer renders and sends synchronously. The queue consumer uses it.
type Mailer struct {
	render *Renderer
	sender Sender
}

func New(render *Renderer, sender Sender) *Mailer {
	return &Mailer{render: render, sender: sender}
}

func (m *Mailer) PasswordReset(ctx context.Context, e service.PasswordResetEmail) error {
	msg, err := m.render.PasswordReset(e)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

func (m *Mailer) Welcome(ctx context.Context, e service.WelcomeEmail) error {
	msg, err := m.render.Welcome(e)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, msg)
}

// AsyncNotifier hands every message to next on a background goroutine
// with its own timeout, so a request never waits on SMTP or the broker.
type AsyncNotifier struct {
	next    service.Notifier
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewAsyncNotifier(next service.Notifier, log *zap.Logger) *AsyncNotifier {
	return &AsyncNotifier{next: next, timeout: 30 * time.Second, log: log}
}

func (n *AsyncNotifier) PasswordReset(ctx context.Context, e service.PasswordResetEmail) error {
	n.goSend(ctx, "password_reset", func(ctx context.Context) error { return n.next.PasswordReset(ctx, e) })
	return nil
}

func (n *AsyncNotifier) Welcome(ctx context.Context, e service.WelcomeEmail) error {
	n.goSend(ctx, "welcome", func(ctx context.Context) error { return n.next.Welcome(ctx, e) })
	return nil
}

func (n *AsyncNotifier) goSend(parent context.Context, kind string, fn func(context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), n.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			n.log.Error("email delivery failed", zap.String("type", kind), zap.Error(err))
		}
	}()
}

// Wait blocks until every pending send has finished.
func (n *AsyncNotifier) Wait() {
	n.wg.Wait()
}
