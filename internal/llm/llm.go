package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/config"
)

var (
	ErrConnectivity      = errors.New("model service unreachable")
	ErrAuthentication    = errors.New("model service rejected credentials")
	ErrRateLimited       = errors.New("model service rate limited the request")
	ErrMalformedResponse = errors.New("model service returned a malformed response")
)

type Completion struct {
	Text     string
	Provider string
	Model    string
}

// Client sends a single text prompt and returns the text completion. Errors
// wrap one of the sentinel errors above when the failure can be classified.
type Client interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func ConfigFrom(cfg config.AIConfig) Config {
	return Config{
		Provider:    cfg.Provider,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
}

func New(cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderAnthropic, "":
		return NewAnthropicClient(cfg)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func classifyStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuthentication
	case status == 429:
		return ErrRateLimited
	case status >= 500:
		return ErrConnectivity
	default:
		return nil
	}
}
