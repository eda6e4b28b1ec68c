package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandlerExposesDomainMetrics(t *testing.T) {
	IncrementQuestions()
	ObserveQuery(3, 12*time.Millisecond, nil)
	ObserveModelRequest("translate", "fake", time.Second, errors.New("boom"))

	rr := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		"askdb_questions_total",
		"askdb_query_executions_total",
		`askdb_model_requests_total{operation="translate",outcome="error",provider="fake"}`,
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestStartMetricsServerServesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	addr, err := StartMetricsServer(ctx, "127.0.0.1:0", logger)
	if err != nil {
		t.Fatalf("StartMetricsServer() error = %v", err)
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestQueryIDContextHelpers(t *testing.T) {
	ctx := ContextWithQueryID(context.Background(), "abc123")
	if got := QueryIDFromContext(ctx); got != "abc123" {
		t.Fatalf("QueryIDFromContext() = %q", got)
	}
	if got := QueryIDFromContext(context.Background()); got != "" {
		t.Fatalf("QueryIDFromContext() = %q, want empty", got)
	}
}
