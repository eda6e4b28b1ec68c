package nl2sql

import (
	"context"
	"fmt"

	"github.com/askdb/askdb/internal/llm"
)

type Interpreter struct {
	client llm.Client
}

func NewInterpreter(client llm.Client) *Interpreter {
	return &Interpreter{client: client}
}

// Interpret summarises resultText, which is the rendered result or the
// execution error, as an answer to question.
func (i *Interpreter) Interpret(ctx context.Context, question, sqlText, resultText string) (string, error) {
	completion, err := llm.CompleteObserved(ctx, i.client, "interpret", BuildInterpretPrompt(question, sqlText, resultText))
	if err != nil {
		return "", fmt.Errorf("interpret result: %w", err)
	}
	return completion.Text, nil
}
