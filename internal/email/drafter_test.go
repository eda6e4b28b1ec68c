package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/llm"
)

type scriptedClient struct {
	replies []string
	err     error
	prompts []string
}

func (c *scriptedClient) Complete(_ context.Context, prompt string) (llm.Completion, error) {
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return llm.Completion{}, c.err
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return llm.Completion{Text: reply}, nil
}

func TestDraftThenRefine(t *testing.T) {
	client := &scriptedClient{replies: []string{"Hi Ana, here are the numbers.", "Hello Ana, the figures are below."}}
	drafter := NewDrafter(client)
	draft := &Draft{RecipientName: "Ana", RecipientEmail: "ana@example.com", Subject: "Sales", Requirements: "friendly tone"}
	resultText := "| Total | 2328.60 |"

	if err := drafter.Draft(context.Background(), draft, resultText); err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if draft.Body != "Hi Ana, here are the numbers." || draft.Revisions != 0 {
		t.Fatalf("draft = %#v", draft)
	}
	for _, want := range []string{resultText, "Recipient Name: Ana", "friendly tone", "just the body of the email"} {
		if !strings.Contains(client.prompts[0], want) {
			t.Fatalf("draft prompt missing %q", want)
		}
	}

	if err := drafter.Refine(context.Background(), draft, resultText, "more formal"); err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if draft.Body != "Hello Ana, the figures are below." || draft.Revisions != 1 {
		t.Fatalf("draft = %#v", draft)
	}
	for _, want := range []string{"Hi Ana, here are the numbers.", "more formal", "friendly tone", resultText} {
		if !strings.Contains(client.prompts[1], want) {
			t.Fatalf("refine prompt missing %q", want)
		}
	}
}

func TestDraftKeepsBodyOnError(t *testing.T) {
	drafter := NewDrafter(&scriptedClient{err: llm.ErrConnectivity})
	draft := &Draft{Body: "previous"}

	if err := drafter.Refine(context.Background(), draft, "r", "f"); !errors.Is(err, llm.ErrConnectivity) {
		t.Fatalf("Refine() error = %v", err)
	}
	if draft.Body != "previous" || draft.Revisions != 0 {
		t.Fatalf("draft mutated on error: %#v", draft)
	}
}

func TestBuildMessage(t *testing.T) {
	raw, err := BuildMessage("reports@example.com", Message{To: "ana@example.com", ToName: "Ana", Subject: "Résumé des ventes", Body: "Total: 42"})
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}
	text := string(raw)
	for _, want := range []string{"From: <reports@example.com>", "<ana@example.com>", "Subject: =?utf-8?", "Content-Type: text/plain", "Message-Id:", "Total: 42"} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Résumé") {
		t.Fatalf("subject not encoded:\n%s", text)
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	if _, err := BuildMessage("reports@example.com", Message{To: "nobody"}); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("BuildMessage() error = %v, want ErrInvalidRecipient", err)
	}
}

func TestDraftMessage(t *testing.T) {
	draft := &Draft{RecipientName: " Ana ", RecipientEmail: " ana@example.com ", Subject: "S", Body: "B"}
	msg := draft.Message()
	if msg.To != "ana@example.com" || msg.ToName != "Ana" || msg.Subject != "S" || msg.Body != "B" {
		t.Fatalf("Message() = %#v", msg)
	}
}
