package mail

import "context"

// Transport delivers a rendered notification to a recipient. Implementations
// are supplied to the notification dispatcher at construction time; nothing
// in the core knows how the message actually travels.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Config holds the SMTP collaborator settings. The core treats it as opaque.
type Config struct {
	Host      string
	Port      int
	Secure    bool // implicit TLS (typically port 465); otherwise STARTTLS when offered
	User      string
	Password  string
	FromEmail string
	FromName  string
}
