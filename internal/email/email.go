package email

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrSMTPConnectionFailed = errors.New("SMTP connection failed")
	ErrSMTPAuthFailed       = errors.New("SMTP authentication failed")
	ErrInvalidRecipient     = errors.New("invalid email recipient")
)

// Draft is the working state of one email, revised in place until it is
// sent or abandoned.
type Draft struct {
	RecipientName  string
	RecipientEmail string
	Subject        string
	Requirements   string
	Body           string
	Revisions      int
}

func (d *Draft) Message() Message {
	return Message{
		To:      strings.TrimSpace(d.RecipientEmail),
		ToName:  strings.TrimSpace(d.RecipientName),
		Subject: d.Subject,
		Body:    d.Body,
	}
}

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
