package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/email"
	"github.com/askdb/askdb/internal/export"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/storage"
)

type Translator interface {
	Translate(ctx context.Context, req nl2sql.Request) (nl2sql.Result, error)
}

type Interpreter interface {
	Interpret(ctx context.Context, question, sqlText, resultText string) (string, error)
}

type Drafter interface {
	Draft(ctx context.Context, draft *email.Draft, resultText string) error
	Refine(ctx context.Context, draft *email.Draft, resultText, feedback string) error
}

type Exporter interface {
	Export(ctx context.Context, record export.Record) (storage.Object, error)
	Location() string
}

type Options struct {
	Schema   schema.Map
	Dialect  database.Dialect
	RowLimit int

	Translator  Translator
	Engine      query.Engine
	Interpreter Interpreter
	// Drafter and Sender are both required for the email branch.
	Drafter Drafter
	Sender  email.Sender
	// Exporter is optional.
	Exporter Exporter

	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
}

type Session struct {
	opts    Options
	in      *bufio.Reader
	out     io.Writer
	logger  *slog.Logger
	state   State
	history []Record

	lines       chan lineRead
	readerStart sync.Once
}

type lineRead struct {
	text string
	err  error
}

func New(opts Options) (*Session, error) {
	if opts.Translator == nil || opts.Engine == nil || opts.Interpreter == nil {
		return nil, fmt.Errorf("translator, engine and interpreter are required")
	}
	in := opts.In
	if in == nil {
		in = strings.NewReader("")
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		opts:   opts,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
		state:  StateAwaitingQuestion,
		lines:  make(chan lineRead),
	}, nil
}

func (s *Session) State() State {
	return s.state
}

// History returns the records answered so far, oldest first.
func (s *Session) History() []Record {
	return append([]Record(nil), s.history...)
}

func (s *Session) emailEnabled() bool {
	return s.opts.Drafter != nil && s.opts.Sender != nil
}

// Run reads questions until "exit", end of input, or ctx is cancelled.
// Per-question failures are printed and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	if s.emailEnabled() {
		s.println("AI-powered SQL assistant with email functionality initialized. Ready for queries!")
	} else {
		s.println("AI-powered SQL assistant initialized. Ready for queries!")
	}

	for {
		s.transition(ctx, StateAwaitingQuestion)
		if err := ctx.Err(); err != nil {
			s.transition(ctx, StateDone)
			return nil
		}
		question, ok := s.prompt(ctx, "Enter your question about the database (or 'exit' to quit): ")
		if !ok || strings.EqualFold(question, "exit") {
			s.transition(ctx, StateDone)
			return nil
		}
		if question == "" {
			continue
		}

		s.transition(ctx, StateProcessing)
		record, err := s.Ask(ctx, question)
		if err != nil {
			s.printf("Error processing query: %v\n", err)
			if errors.Is(err, nl2sql.ErrNoSQL) && record.RawResponse != "" {
				s.printf("Assistant's response: %s\n", record.RawResponse)
			}
			continue
		}
		s.printRecord(record)

		if !record.HasResult() {
			continue
		}
		if !s.offerExport(ctx, record) {
			s.transition(ctx, StateDone)
			return nil
		}
		if !s.offerEmail(ctx, record) {
			s.transition(ctx, StateDone)
			return nil
		}
	}
}

// Ask turns one question into SQL, runs it and interprets the outcome.
// Execution failures are recorded on the Record and still interpreted; model
// failures are returned.
func (s *Session) Ask(ctx context.Context, question string) (Record, error) {
	observability.IncrementQuestions()
	record := Record{ID: uuid.NewString(), Question: question, StartedAt: time.Now().UTC()}
	ctx = observability.ContextWithQueryID(ctx, record.ID)
	logger := observability.LoggerFromContext(ctx, s.logger)

	translated, err := s.opts.Translator.Translate(ctx, nl2sql.Request{
		Question: question,
		Schema:   s.opts.Schema,
		Dialect:  s.opts.Dialect,
	})
	record.RawResponse = translated.Raw
	if err != nil {
		logger.Warn("sql generation failed", "error", err)
		return record, err
	}
	record.SQL = translated.SQL
	logger.Debug("sql generated", "provider", translated.Provider, "model", translated.Model, "sql", record.SQL)

	result, err := s.opts.Engine.Execute(ctx, query.Request{SQL: record.SQL, RowLimit: s.opts.RowLimit})
	observability.ObserveQuery(len(result.Rows), result.Duration, err)
	if err != nil {
		logger.Warn("query execution failed", "error", err)
		record.ExecErr = err
	} else {
		record.Result = result
		logger.Info("query executed", "rows", len(result.Rows), "truncated", result.Truncated, "duration_ms", result.Duration.Milliseconds())
	}

	interpretation, err := s.opts.Interpreter.Interpret(ctx, question, record.SQL, record.ResultText())
	if err != nil {
		logger.Warn("interpretation failed", "error", err)
		return record, err
	}
	record.Interpretation = interpretation
	record.FinishedAt = time.Now().UTC()
	s.history = append(s.history, record)
	return record, nil
}

func (s *Session) printRecord(record Record) {
	s.printf("\nGenerated SQL:\n%s\n\n", record.SQL)
	if record.ExecErr != nil {
		s.printf("Query failed: %v\n\n", record.ExecErr)
	} else {
		s.printf("%s\n\n", record.Result.Text())
	}
	s.printf("Assistant's response: %s\n", record.Interpretation)
}

// offerExport returns false when input ended.
func (s *Session) offerExport(ctx context.Context, record Record) bool {
	if s.opts.Exporter == nil {
		return true
	}
	answer, ok := s.prompt(ctx, fmt.Sprintf("Would you like to export this result to %s? (yes/no): ", s.opts.Exporter.Location()))
	if !ok {
		return false
	}
	if !isYes(answer) {
		return true
	}
	info, err := s.opts.Exporter.Export(observability.ContextWithQueryID(ctx, record.ID), record.ExportRecord())
	if err != nil {
		s.printf("Error exporting result: %v\n", err)
		return true
	}
	s.printf("Result exported to %s\n", info.Location)
	return true
}

// offerEmail runs the draft, refine and send rounds. It returns false when
// input ended.
func (s *Session) offerEmail(ctx context.Context, record Record) bool {
	if !s.emailEnabled() {
		return true
	}
	answer, ok := s.prompt(ctx, "Would you like to draft and send an email based on this result? (yes/no): ")
	if !ok {
		return false
	}
	if !isYes(answer) {
		return true
	}
	ctx = observability.ContextWithQueryID(ctx, record.ID)

	draft := &email.Draft{}
	if draft.RecipientName, ok = s.prompt(ctx, "Enter the recipient's name: "); !ok {
		return false
	}
	for {
		if draft.RecipientEmail, ok = s.prompt(ctx, "Enter the recipient's email: "); !ok {
			return false
		}
		if _, err := email.ParseRecipient(draft.RecipientEmail); err != nil {
			if draft.RecipientEmail == "" {
				s.println("Email cancelled.")
				return true
			}
			s.printf("Error: %v\n", err)
			continue
		}
		break
	}
	if draft.Subject, ok = s.prompt(ctx, "Enter the email subject: "); !ok {
		return false
	}
	if draft.Requirements, ok = s.prompt(ctx, "What specific requirements do you have for this email? (e.g., purpose, tone, key points to include): "); !ok {
		return false
	}

	s.transition(ctx, StateDraftingEmail)
	resultText := record.ResultText()
	if err := s.opts.Drafter.Draft(ctx, draft, resultText); err != nil {
		s.printf("Error drafting email: %v\n", err)
		return true
	}
	s.printf("\nDrafted Email:\n%s\n", draft.Body)

	answer, ok = s.prompt(ctx, "\nWould you like to refine this email? (yes/no): ")
	for ok && isYes(answer) {
		s.transition(ctx, StateRefiningEmail)
		feedback, fok := s.prompt(ctx, "Please provide feedback or additional requirements for the email: ")
		if !fok {
			return false
		}
		if err := s.opts.Drafter.Refine(ctx, draft, resultText, feedback); err != nil {
			s.printf("Error refining email: %v\n", err)
		} else {
			s.printf("\nUpdated Email:\n%s\n", draft.Body)
		}
		answer, ok = s.prompt(ctx, "\nWould you like to refine this email further? (yes/no): ")
	}
	if !ok {
		return false
	}

	answer, ok = s.prompt(ctx, "\nWould you like to send this email? (yes/no): ")
	if !ok {
		return false
	}
	if !isYes(answer) {
		s.println("Email discarded.")
		return true
	}
	s.transition(ctx, StateSending)
	if err := s.opts.Sender.Send(ctx, draft.Message()); err != nil {
		s.printf("Error sending email: %v\n", err)
		return true
	}
	s.println("Email sent successfully!")
	return true
}

func (s *Session) transition(ctx context.Context, next State) {
	if s.state == next {
		return
	}
	observability.LoggerFromContext(ctx, s.logger).Debug("session state", "from", s.state.String(), "to", next.String())
	s.state = next
}

// prompt writes label and reads one line. ok is false at end of input or
// once ctx is done; a pending console read does not hold the loop open.
func (s *Session) prompt(ctx context.Context, label string) (string, bool) {
	s.readerStart.Do(func() { go s.readLines() })
	_, _ = io.WriteString(s.out, label)
	select {
	case <-ctx.Done():
		_, _ = io.WriteString(s.out, "\n")
		return "", false
	case read, open := <-s.lines:
		if !open {
			_, _ = io.WriteString(s.out, "\n")
			return "", false
		}
		if read.err != nil && !(errors.Is(read.err, io.EOF) && read.text != "") {
			_, _ = io.WriteString(s.out, "\n")
			return "", false
		}
		return strings.TrimSpace(read.text), true
	}
}

// readLines feeds prompt one line at a time and closes lines after the first
// read error.
func (s *Session) readLines() {
	defer close(s.lines)
	for {
		text, err := s.in.ReadString('\n')
		s.lines <- lineRead{text: text, err: err}
		if err != nil {
			return
		}
	}
}

func (s *Session) println(line string) {
	_, _ = fmt.Fprintln(s.out, line)
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func isYes(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}
