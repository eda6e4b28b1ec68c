package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// ParseRecipient validates a single recipient address.
func ParseRecipient(raw string) (*mail.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: address is empty", ErrInvalidRecipient)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, trimmed, err)
	}
	return addr, nil
}

// BuildMessage renders msg as a plain-text RFC 5322 message. Non-ASCII
// subjects are encoded as MIME words and the body as quoted-printable.
func BuildMessage(from string, msg Message) ([]byte, error) {
	sender, err := mail.ParseAddress(strings.TrimSpace(from))
	if err != nil {
		return nil, fmt.Errorf("parse sender %q: %w", from, err)
	}
	recipient, err := ParseRecipient(msg.To)
	if err != nil {
		return nil, err
	}
	if msg.ToName != "" && recipient.Name == "" {
		recipient.Name = msg.ToName
	}

	var header mail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*mail.Address{sender})
	header.SetAddressList("To", []*mail.Address{recipient})
	header.SetSubject(msg.Subject)
	if err := header.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}
	header.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	writer, err := mail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if _, err := io.WriteString(writer, msg.Body); err != nil {
		return nil, fmt.Errorf("write message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}
	return buf.Bytes(), nil
}
