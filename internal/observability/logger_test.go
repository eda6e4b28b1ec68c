package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/config"
)

func TestNewLoggerJSONRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{
		Profile:       config.ProfileDev,
		Service:       config.ServiceConfig{Name: "askdb"},
		Observability: config.ObservabilityConfig{LogLevel: slog.LevelInfo, LogJSON: true},
	}
	logger := NewLogger(cfg, &buf)
	logger.Info("smtp login", "smtp_password", "hunter2", "model_api_key", "sk-123", "user", "ana@example.com")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["smtp_password"] != redacted || line["model_api_key"] != redacted {
		t.Fatalf("secrets not redacted: %v", line)
	}
	if line["user"] != "ana@example.com" || line["service"] != "askdb" || line["profile"] != "dev" {
		t.Fatalf("line = %v", line)
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Observability: config.ObservabilityConfig{LogLevel: slog.LevelWarn}}
	logger := NewLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestLoggerFromContextAddsQueryID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	LoggerFromContext(ContextWithQueryID(context.Background(), "q-42"), base).Info("query executed")
	if !strings.Contains(buf.String(), "query_id=q-42") {
		t.Fatalf("output = %q", buf.String())
	}
	if LoggerFromContext(context.Background(), nil) == nil {
		t.Fatal("expected a discard logger")
	}
}
