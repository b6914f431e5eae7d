package digest

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"

	"expenses/internal/log"
)

// Message is one outgoing digest e-mail.
type Message struct {
	Subject        string
	Text           string
	AttachmentName string
	Attachment     []byte
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Mailer sends digests over SMTP with PLAIN auth
type Mailer struct {
	cfg    SMTPConfig
	logger *log.Logger
	send   func(addr string, a smtp.Auth, e *email.Email) error
}

func NewMailer(cfg SMTPConfig, logger *log.Logger) *Mailer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Mailer{
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentDigest),
		send: func(addr string, a smtp.Auth, e *email.Email) error {
			return e.Send(addr, a)
		},
	}
}

func (m *Mailer) build(msg Message) (*email.Email, error) {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = append([]string(nil), m.cfg.To...)
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if len(msg.Attachment) > 0 {
		if _, err := e.Attach(bytes.NewReader(msg.Attachment), msg.AttachmentName, "application/pdf"); err != nil {
			return nil, fmt.Errorf("attach %s: %w", msg.AttachmentName, err)
		}
	}
	return e, nil
}

// Send builds and delivers msg to every configured recipient.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, err := m.build(msg)
	if err != nil {
		return err
	}

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, e); err != nil {
		m.logger.ErrorContext(ctx, "Failed to send digest", "to", m.cfg.To, log.FieldError, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.InfoContext(ctx, "Digest sent", "to", m.cfg.To, "subject", msg.Subject)
	return nil
}
