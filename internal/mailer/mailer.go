// File: internal/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/platform/worker"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a message synchronously.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Service queues email for best-effort background delivery.
// Delivery failures are logged and never reach the caller.
type Service interface {
	SendAsync(msg Message)
}

// NewMailer returns an SMTP mailer when SMTP_HOST is set, otherwise a mailer that only logs.
func NewMailer(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.SMTPHost == "" {
		logger.Info("SMTP_HOST not configured; outgoing email will only be logged.")
		return &logMailer{logger: logger.Named("LogMailer")}
	}
	return &smtpMailer{cfg: cfg, from: cfg.MailFrom}
}

type smtpMailer struct {
	cfg  *config.Config
	from string
}

func (m *smtpMailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30 * time.Second),
	}
	if m.cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.SMTPUsername),
			mail.WithPassword(m.cfg.SMTPPassword),
		)
	}
	return mail.NewClient(m.cfg.SMTPHost, opts...)
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	out, err := buildMessage(m.from, msg)
	if err != nil {
		return err
	}
	client, err := m.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// buildMessage validates the addresses and leaves header and body encoding to go-mail.
func buildMessage(from string, msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}

type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("Email (not sent, SMTP disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// AsyncDispatcher hands messages to the worker pool.
type AsyncDispatcher struct {
	mailer Mailer
	pool   *worker.Pool
	logger *zap.Logger
}

// NewAsyncDispatcher creates the best-effort email Service.
func NewAsyncDispatcher(m Mailer, pool *worker.Pool, logger *zap.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{mailer: m, pool: pool, logger: logger.Named("Mailer")}
}

// SendAsync implements Service.
func (d *AsyncDispatcher) SendAsync(msg Message) {
	if strings.TrimSpace(msg.To) == "" {
		d.logger.Debug("Skipping email without recipient", zap.String("subject", msg.Subject))
		return
	}
	d.pool.Submit("email:"+msg.Subject, func(ctx context.Context) error {
		return d.mailer.Send(ctx, msg)
	})
}
