package email

import "context"

// Attachment is a named document attached to an outbound message.
type Attachment struct {
	FileName    string
	Content     []byte
	ContentType string
}

// Message is an outbound email.
type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Provider sends email and returns the provider message id.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NoOpProvider swallows messages; used where mail is not configured.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) (string, error) {
	return "noop", nil
}
