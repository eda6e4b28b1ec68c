package session

import (
	"time"

	"github.com/askdb/askdb/internal/export"
	"github.com/askdb/askdb/internal/query"
)

// Record is everything produced while answering one question.
type Record struct {
	ID             string
	Question       string
	RawResponse    string
	SQL            string
	Result         query.Result
	ExecErr        error
	Interpretation string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// HasResult reports whether the statement ran and returned at least one row.
func (r Record) HasResult() bool {
	return r.ExecErr == nil && !r.Result.Empty()
}

// ResultText is what the interpreter and email drafter see: the rendered
// table, or the execution error.
func (r Record) ResultText() string {
	if r.ExecErr != nil {
		return "Error executing query: " + r.ExecErr.Error()
	}
	return r.Result.Text()
}

func (r Record) ExportRecord() export.Record {
	return export.Record{
		ID:             r.ID,
		Question:       r.Question,
		SQL:            r.SQL,
		Interpretation: r.Interpretation,
		Result:         r.Result,
	}
}
