package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// Sender is the SMTP implementation of Transport.
type Sender struct {
	cfg Config
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	conn, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !s.cfg.Secure {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.cfg.User != "" {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.FromEmail); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening data: %w", err)
	}

	if _, err := w.Write(buildMessage(s.cfg.FromName, s.cfg.FromEmail, to, subject, body)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	return client.Quit()
}

func (s *Sender) dial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer

	if s.cfg.Secure {
		td := &tls.Dialer{NetDialer: &d, Config: &tls.Config{ServerName: s.cfg.Host}}
		return td.DialContext(ctx, "tcp", addr)
	}

	return d.DialContext(ctx, "tcp", addr)
}

// buildMessage assembles an RFC 5322 text/plain message with CRLF framing.
// The subject is Q-encoded so accented Portuguese subjects survive transit.
func buildMessage(fromName, fromEmail, to, subject, body string) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "From: %s <%s>\r\n", fromName, fromEmail)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return []byte(sb.String())
}
