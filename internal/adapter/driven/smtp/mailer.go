// Package smtp implements the Mailer port over SMTP for deployments without
// Graph mail access.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Mailer = (*Mailer)(nil)

// DialFunc opens the connection to the relay.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config describes the relay and the envelope sender.
type Config struct {
	Addr     string // host:port
	From     string
	Username string // empty disables AUTH
	Password string
}

// Mailer submits each message to one SMTP relay.
type Mailer struct {
	cfg  Config
	dial DialFunc
	now  func() time.Time
}

// NewMailer creates a Mailer. A nil dial uses a net.Dialer.
func NewMailer(cfg Config, dial DialFunc) *Mailer {
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	return &Mailer{cfg: cfg, dial: dial, now: time.Now}
}

// SendMail composes msg as a single text/html message addressed to every
// recipient and submits it in one SMTP transaction. The connection is closed
// as soon as ctx ends.
func (m *Mailer) SendMail(ctx context.Context, msg model.MailMessage) error {
	if len(msg.To) == 0 {
		return errors.New("send mail: no recipients")
	}

	from, err := mail.ParseAddress(m.cfg.From)
	if err != nil {
		return fmt.Errorf("parse sender %q: %w", m.cfg.From, err)
	}

	raw, err := m.compose(from, msg)
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	conn, err := m.dial(ctx, "tcp", m.cfg.Addr)
	if err != nil {
		return m.sendError(ctx, fmt.Errorf("dial: %w", err))
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c := gosmtp.NewClient(conn)
	defer func() { _ = c.Close() }()

	if err := m.submit(c, from.Address, msg.To, raw); err != nil {
		return m.sendError(ctx, err)
	}
	return nil
}

func (m *Mailer) submit(c *gosmtp.Client, from string, to []string, raw []byte) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		host, _, err := net.SplitHostPort(m.cfg.Addr)
		if err != nil {
			return fmt.Errorf("parse smtp addr %q: %w", m.cfg.Addr, err)
		}
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.SendMail(from, to, bytes.NewReader(raw)); err != nil {
		return err
	}
	return c.Quit()
}

// sendError prefers the context's error so callers can tell cancellation
// from a relay rejection.
func (m *Mailer) sendError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("smtp send via %s: %w (%v)", m.cfg.Addr, ctxErr, err)
	}
	return fmt.Errorf("smtp send via %s: %w", m.cfg.Addr, err)
}

func (m *Mailer) compose(from *mail.Address, msg model.MailMessage) ([]byte, error) {
	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("parse recipient %q: %w", addr, err)
		}
		to = append(to, parsed)
	}

	var h mail.Header
	h.SetDate(m.now())
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.HTMLBody); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close writer: %w", err)
	}
	return buf.Bytes(), nil
}
