package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"smartblog/config"
	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	defaultSMTPTimeout = 10 * time.Second
	implicitTLSPort    = 465
)

type smtpSender struct {
	cfg        config.SMTPConfig
	from       string
	senderName string
	auth       smtp.Auth
	logger     *slog.Logger
}

// NewSMTPSender creates a sender delivering through the configured SMTP relay.
// Port 465 uses implicit TLS, every other port upgrades with STARTTLS.
func NewSMTPSender(cfg *config.MailConfig, logger *slog.Logger) (service.MailSender, error) {
	if cfg == nil || cfg.SMTP.Host == "" || cfg.SMTP.Port == 0 {
		return nil, errors.New("smtp host and port are required for the smtp sender")
	}

	from := cfg.From
	if from == "" {
		from = cfg.SMTP.Username
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, errors.Wrapf(err, "invalid sender address %q", from)
	}

	var auth smtp.Auth
	if cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host)
	}

	return &smtpSender{
		cfg:        cfg.SMTP,
		from:       from,
		senderName: cfg.SenderName,
		auth:       auth,
		logger:     logger,
	}, nil
}

func (s *smtpSender) Send(ctx context.Context, n entity.Notification) error {
	if _, err := mail.ParseAddress(n.Recipient); err != nil {
		return errors.Wrapf(err, "invalid recipient %q", n.Recipient)
	}

	msg := s.buildMessage(n, time.Now())
	address := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	conn, err := s.dial(ctx, address)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to SMTP server %s", address)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout()))
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return errors.Wrap(err, "failed to create SMTP client")
	}
	defer client.Close()

	if s.cfg.Port != implicitTLSPort {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return errors.Wrap(err, "failed to start TLS")
		}
	}

	if err := s.deliver(client, n.Recipient, msg); err != nil {
		return err
	}

	s.logger.Debug("Mail delivered over SMTP",
		slog.String("recipient", n.Recipient),
		slog.String("request_id", n.RequestID),
	)

	return nil
}

func (s *smtpSender) dial(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: s.timeout()}
	if s.cfg.Port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.cfg.Host}}

		return tlsDialer.DialContext(ctx, "tcp", address)
	}

	return dialer.DialContext(ctx, "tcp", address)
}

func (s *smtpSender) deliver(client *smtp.Client, recipient string, msg []byte) error {
	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return errors.Wrap(err, "SMTP authentication failed")
		}
	}
	if err := client.Mail(s.from); err != nil {
		return errors.Wrap(err, "failed to set sender")
	}
	if err := client.Rcpt(recipient); err != nil {
		return errors.Wrapf(err, "failed to set recipient %s", recipient)
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "failed to get data writer")
	}
	if _, err := w.Write(msg); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to close data writer")
	}

	return errors.WithStack(client.Quit())
}

func (s *smtpSender) timeout() time.Duration {
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}

	return defaultSMTPTimeout
}

func (s *smtpSender) buildMessage(n entity.Notification, now time.Time) []byte {
	from := s.from
	if s.senderName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.senderName), s.from)
	}

	return fmt.Appendf(nil,
		"Message-ID: <%s@%s>\r\n"+
			"Date: %s\r\n"+
			"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
			"\r\n"+
			"%s",
		uuid.NewString(), s.cfg.Host, now.Format(time.RFC1123Z), n.Recipient, from,
		mime.QEncoding.Encode("utf-8", n.Subject), n.Body,
	)
}

func (s *smtpSender) Close() error {
	return nil
}
