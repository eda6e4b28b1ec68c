package query

import (
	"context"
	"errors"
	"time"
)

var ErrReadOnly = errors.New("statement is not read-only")

type Request struct {
	SQL string
	// RowLimit caps the rows collected; zero means unlimited.
	RowLimit int
}

type Result struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
}

func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}
