// Package mailer delivers email through an SMTP relay.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cmc-renewal/cms-api/pkg/config"
)

// Message is an outgoing email. HTML and Text may both be set.
type Message struct {
	To      []string
	From    string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTP sends mail with STARTTLS, or implicit TLS when the port is 465.
type SMTP struct {
	host     string
	port     int
	username string
	password string
	from     string
	replyTo  string
	timeout  time.Duration
}

// NewSMTP builds a sender from the email configuration.
func NewSMTP(cfg config.EmailConfig) *SMTP {
	return &SMTP{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.DefaultFrom,
		replyTo:  cfg.DefaultReplyTo,
		timeout:  15 * time.Second,
	}
}

// Send delivers msg, filling From and Reply-To from the defaults when empty.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}
	if msg.ReplyTo == "" {
		msg.ReplyTo = s.replyTo
	}
	if len(msg.To) == 0 {
		return errors.New("mailer: no recipients")
	}

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return fmt.Errorf("mailer: invalid sender %q: %w", msg.From, err)
	}
	rcpts := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		addr, err := mail.ParseAddress(to)
		if err != nil {
			return fmt.Errorf("mailer: invalid recipient %q: %w", to, err)
		}
		rcpts = append(rcpts, addr.Address)
	}

	body, err := Build(msg, time.Now())
	if err != nil {
		return err
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return fmt.Errorf("mailer: auth: %w", err)
		}
	}
	if err := client.Mail(from.Address); err != nil {
		return fmt.Errorf("mailer: MAIL FROM: %w", err)
	}
	for _, rcpt := range rcpts {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("mailer: RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("mailer: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mailer: close body: %w", err)
	}
	return client.Quit()
}

func (s *SMTP) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	dialer := &net.Dialer{Timeout: s.timeout}
	tlsConfig := &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}

	var conn net.Conn
	var err error
	if s.port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("mailer: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(2 * s.timeout))
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mailer: handshake: %w", err)
	}
	if s.port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("mailer: starttls: %w", err)
			}
		}
	}
	return client, nil
}

// Build renders msg as an RFC 5322 message. Both bodies produce multipart/alternative.
func Build(msg Message, now time.Time) ([]byte, error) {
	if msg.Text == "" && msg.HTML == "" {
		return nil, errors.New("mailer: empty body")
	}

	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	header("From", msg.From)
	header("To", strings.Join(msg.To, ", "))
	if msg.ReplyTo != "" {
		header("Reply-To", msg.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@cms-api>")
	header("MIME-Version", "1.0")

	switch {
	case msg.Text != "" && msg.HTML != "":
		boundary := "cms-" + strings.ReplaceAll(uuid.NewString(), "-", "")
		header("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
		buf.WriteString("\r\n")
		for _, part := range []struct{ kind, body string }{{"text/plain", msg.Text}, {"text/html", msg.HTML}} {
			buf.WriteString("--" + boundary + "\r\n")
			if err := writePart(&buf, part.kind, part.body); err != nil {
				return nil, err
			}
		}
		buf.WriteString("--" + boundary + "--\r\n")
	case msg.HTML != "":
		if err := writePart(&buf, "text/html", msg.HTML); err != nil {
			return nil, err
		}
	default:
		if err := writePart(&buf, "text/plain", msg.Text); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writePart(buf *bytes.Buffer, contentType, body string) error {
	buf.WriteString("Content-Type: " + contentType + "; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	if err := qp.Close(); err != nil {
		return err
	}
	buf.WriteString("\r\n")
	return nil
}
