package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicClientCompletes(t *testing.T) {
	var gotKey, gotPath, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPath = r.URL.Path
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "The Chinook store has 275 artists."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 8}
		}`))
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(Config{BaseURL: srv.URL, APIKey: "ak", Model: "claude-test"})
	if err != nil {
		t.Fatalf("NewAnthropicClient() error = %v", err)
	}
	completion, err := client.Complete(context.Background(), "how many artists?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.Text != "The Chinook store has 275 artists." {
		t.Fatalf("Text = %q", completion.Text)
	}
	if completion.Provider != providerAnthropic || completion.Model != "claude-test" {
		t.Fatalf("completion = %#v", completion)
	}
	if gotKey != "ak" || gotPath != "/v1/messages" || gotModel != "claude-test" {
		t.Fatalf("request key=%q path=%q model=%q", gotKey, gotPath, gotModel)
	}
}

func TestAnthropicClientClassifiesAuthenticationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(Config{BaseURL: srv.URL, APIKey: "bad"})
	if err != nil {
		t.Fatalf("NewAnthropicClient() error = %v", err)
	}
	_, err = client.Complete(context.Background(), "q")
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("Complete() error = %v, want ErrAuthentication", err)
	}
}

func TestAnthropicClientRejectsEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"m","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`))
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(Config{BaseURL: srv.URL, APIKey: "ak"})
	if err != nil {
		t.Fatalf("NewAnthropicClient() error = %v", err)
	}
	_, err = client.Complete(context.Background(), "q")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Complete() error = %v, want ErrMalformedResponse", err)
	}
}

func TestNewAnthropicClientRequiresAPIKey(t *testing.T) {
	if _, err := NewAnthropicClient(Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
