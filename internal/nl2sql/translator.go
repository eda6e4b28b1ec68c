package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
)

// ErrNoSQL reports a model response that contained no recognisable SQL.
var ErrNoSQL = errors.New("model response contains no SQL statement")

var statementKeywords = map[string]struct{}{
	"SELECT": {}, "WITH": {}, "VALUES": {}, "PRAGMA": {}, "EXPLAIN": {},
	"SHOW": {}, "DESCRIBE": {}, "INSERT": {}, "UPDATE": {}, "DELETE": {},
	"REPLACE": {}, "CREATE": {}, "DROP": {}, "ALTER": {},
}

type Request struct {
	Question string
	Schema   schema.Map
	Dialect  database.Dialect
}

type Result struct {
	SQL      string
	Raw      string
	Provider string
	Model    string
}

type Translator struct {
	client llm.Client
}

func NewTranslator(client llm.Client) *Translator {
	return &Translator{client: client}
}

func (t *Translator) Translate(ctx context.Context, req Request) (Result, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Result{}, fmt.Errorf("question is required")
	}
	prompt := BuildSQLPrompt(req.Schema.Format(), req.Dialect, question)
	completion, err := llm.CompleteObserved(ctx, t.client, "generate_sql", prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate sql: %w", err)
	}

	result := Result{Raw: completion.Text, Provider: completion.Provider, Model: completion.Model}
	sqlText, fallback := extract(completion.Text)
	if fallback {
		observability.IncrementExtractionFallback()
		if _, ok := statementKeywords[query.LeadingKeyword(sqlText)]; !ok {
			return result, ErrNoSQL
		}
	}
	result.SQL = sqlText
	return result, nil
}
