package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
)

type Drafter struct {
	client llm.Client
}

func NewDrafter(client llm.Client) *Drafter {
	return &Drafter{client: client}
}

// Draft asks the model for an email body and stores it on draft.
func (d *Drafter) Draft(ctx context.Context, draft *Draft, resultText string) error {
	prompt := BuildDraftPrompt(resultText, draft.RecipientName, draft.Requirements)
	completion, err := llm.CompleteObserved(ctx, d.client, "draft_email", prompt)
	observability.ObserveEmail("draft", err)
	if err != nil {
		return fmt.Errorf("draft email: %w", err)
	}
	draft.Body = completion.Text
	return nil
}

// Refine rewrites the current body according to feedback.
func (d *Drafter) Refine(ctx context.Context, draft *Draft, resultText, feedback string) error {
	prompt := BuildRefinePrompt(resultText, draft.RecipientName, draft.Requirements, draft.Body, feedback)
	completion, err := llm.CompleteObserved(ctx, d.client, "refine_email", prompt)
	observability.ObserveEmail("refine", err)
	if err != nil {
		return fmt.Errorf("refine email: %w", err)
	}
	draft.Body = completion.Text
	draft.Revisions++
	return nil
}

func BuildDraftPrompt(resultText, recipientName, requirements string) string {
	return fmt.Sprintf(`Based on the following query result, recipient name, and user requirements, draft a professional email:

Query Result:
%s

Recipient Name: %s

User Requirements:
%s

The email should be concise, professional, and address the user's specific requirements while incorporating relevant information from the query result.
Do not include any email headers or footers, just the body of the email.`,
		strings.TrimSpace(resultText), strings.TrimSpace(recipientName), strings.TrimSpace(requirements))
}

func BuildRefinePrompt(resultText, recipientName, requirements, previousBody, feedback string) string {
	return fmt.Sprintf(`Revise the following email draft based on the query result, recipient name, original requirements, and the user's feedback.

Query Result:
%s

Recipient Name: %s

Original Requirements:
%s

Current Draft:
%s

Feedback:
%s

Keep the email concise and professional, apply every point of the feedback, and keep the relevant information from the query result.
Do not include any email headers or footers, just the body of the email.`,
		strings.TrimSpace(resultText), strings.TrimSpace(recipientName), strings.TrimSpace(requirements),
		strings.TrimSpace(previousBody), strings.TrimSpace(feedback))
}
