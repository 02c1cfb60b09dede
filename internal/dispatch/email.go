package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/telhawk-systems/hookrelay/internal/formatter"
	"github.com/telhawk-systems/hookrelay/internal/models"
	"github.com/wneessen/go-mail"
)

const DefaultSMTPPort = 587

// EmailConfig holds SMTP settings. The sender address doubles as the
// SMTP username.
type EmailConfig struct {
	Sender   string
	Password string
	Receiver string
	Host     string
	Port     int
	Timeout  time.Duration
}

func (c EmailConfig) validate() error {
	switch {
	case c.Sender == "":
		return fmt.Errorf("%w: email sender not set", ErrSinkMisconfigured)
	case c.Password == "":
		return fmt.Errorf("%w: email password not set", ErrSinkMisconfigured)
	case c.Receiver == "":
		return fmt.Errorf("%w: email receiver not set", ErrSinkMisconfigured)
	case c.Host == "":
		return fmt.Errorf("%w: smtp host not set", ErrSinkMisconfigured)
	}
	return nil
}

// EmailSink sends payloads as plain-text mail over STARTTLS.
type EmailSink struct {
	cfg  EmailConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewEmailSink(cfg EmailConfig) *EmailSink {
	if cfg.Port == 0 {
		cfg.Port = DefaultSMTPPort
	}
	s := &EmailSink{cfg: cfg}
	s.send = s.dialAndSend
	return s
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, format models.FormatName, payload models.FormattedPayload) error {
	if err := s.cfg.validate(); err != nil {
		return err
	}

	msg, err := s.message(payload)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *EmailSink) message(payload models.FormattedPayload) (*mail.Msg, error) {
	record := models.Record(payload)

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.Sender); err != nil {
		return nil, fmt.Errorf("%w: sender: %v", ErrSinkMisconfigured, err)
	}
	if err := msg.To(s.cfg.Receiver); err != nil {
		return nil, fmt.Errorf("%w: receiver: %v", ErrSinkMisconfigured, err)
	}
	msg.Subject(record.Text("subject", formatter.DefaultEmailSubject))
	msg.SetBodyString(mail.TypeTextPlain, record.Text("body", record.String()))
	return msg, nil
}

func (s *EmailSink) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Sender),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
