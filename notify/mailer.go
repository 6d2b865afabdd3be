// Package notify delivers the run report by e-mail.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SendFunc hands a composed message to the SMTP transport.
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// Options configures a Mailer.
type Options struct {
	To       string // comma separated recipients
	From     string // defaults to Username, then "dupwatch@<hostname>"
	Username string
	Password string
	Hostname string
	Port     int
	Logger   *slog.Logger
}

// Mailer sends report bodies over SMTP with PLAIN auth when a username is set.
// STARTTLS is used when the server offers it.
type Mailer struct {
	from   string
	to     []string
	send   SendFunc
	logger *slog.Logger
}

// NewMailer validates options and creates a mailer backed by a go-mail client.
func NewMailer(options Options) (*Mailer, error) {
	if options.Hostname == "" {
		return nil, errors.New("smtp hostname is required")
	}
	to := splitRecipients(options.To)
	if len(to) == 0 {
		return nil, errors.New("at least one recipient is required")
	}
	port := options.Port
	if port == 0 {
		port = 587
	}

	from := options.From
	if from == "" {
		from = options.Username
	}
	if from == "" {
		from = "dupwatch@" + options.Hostname
	}

	clientOptions := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if options.Username != "" {
		clientOptions = append(clientOptions,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(options.Username),
			mail.WithPassword(options.Password),
		)
	}
	client, err := mail.NewClient(options.Hostname, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Mailer{
		from: from,
		to:   to,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		logger: logger,
	}, nil
}

// WithSender replaces the transport. Used by tests.
func (m *Mailer) WithSender(send SendFunc) *Mailer {
	m.send = send
	return m
}

// Send mails body with the given subject. An empty body is not sent.
// Dialing and delivery are bounded by ctx.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if strings.TrimSpace(body) == "" {
		m.logger.Debug("empty report, mail skipped")
		return nil
	}

	msg, err := m.compose(subject, body, time.Now())
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("sending report to %s: %w", strings.Join(m.to, ", "), err)
	}
	m.logger.Info("report mailed", "to", strings.Join(m.to, ", "), "bytes", len(body))
	return nil
}

func (m *Mailer) compose(subject, body string, now time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(m.to...); err != nil {
		return nil, fmt.Errorf("invalid recipients %q: %w", strings.Join(m.to, ", "), err)
	}
	msg.Subject(sanitizeHeader(subject))
	msg.SetDateWithValue(now)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func splitRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
