package llm

import (
	"context"
	"time"

	"github.com/askdb/askdb/internal/observability"
)

// Provider names the backend behind a client for metric labels.
func Provider(client Client) string {
	switch client.(type) {
	case *AnthropicClient:
		return providerAnthropic
	case *OpenAIClient:
		return providerOpenAI
	default:
		return "other"
	}
}

// CompleteObserved calls client.Complete and records the call under operation.
func CompleteObserved(ctx context.Context, client Client, operation, prompt string) (Completion, error) {
	start := time.Now()
	completion, err := client.Complete(ctx, prompt)
	observability.ObserveModelRequest(operation, Provider(client), time.Since(start), err)
	return completion, err
}
