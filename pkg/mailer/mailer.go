package mailer

import (
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/seanutri/seanutri-api/pkg/config"
)

// Attachment is an optional file attached to an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Message describes an outgoing email.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers email messages.
type Mailer interface {
	Send(msg Message) error
}

// New returns an SMTP mailer when the relay is configured, otherwise a
// simulated mailer that only logs.
func New(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		logger.Warn("smtp relay not configured, using simulated delivery")
		return &SimulatedMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// Send dials the relay and delivers a single message.
func (m *SMTPMailer) Send(msg Message) error {
	mail := gomail.NewMessage()
	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	mail.SetHeader("From", from)
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		mail.SetBody("text/plain", msg.Text)
	}
	if msg.HTML != "" {
		if msg.Text != "" {
			mail.AddAlternative("text/html", msg.HTML)
		} else {
			mail.SetBody("text/html", msg.HTML)
		}
	}
	for _, att := range msg.Attachments {
		content := att.Content
		mail.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(mail); err != nil {
		m.logger.Error("smtp delivery failed", zap.String("to", msg.To), zap.Error(err))
		return err
	}
	m.logger.Debug("email delivered", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// SimulatedMailer logs messages instead of delivering them. Used in
// development and test environments without a configured relay.
type SimulatedMailer struct {
	logger *zap.Logger
}

// Send records the message and reports success.
func (m *SimulatedMailer) Send(msg Message) error {
	m.logger.Info("simulated email send",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
