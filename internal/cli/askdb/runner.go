package askdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/email"
	"github.com/askdb/askdb/internal/llm"
)

const serviceName = "askdb"

type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Lookup config.LookupFunc

	// NewModelClient and NewSender replace the real model and SMTP clients.
	NewModelClient func(cfg llm.Config) (llm.Client, error)
	NewSender      func(cfg email.SMTPConfig, logger *slog.Logger) (email.Sender, error)
}

// cmdControl carries state shared by every askdb command.
type cmdControl struct {
	opts         Options
	flagDatabase string
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fail(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

// Run executes the askdb command line and returns the process exit code.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.NewModelClient == nil {
		opts.NewModelClient = llm.New
	}
	if opts.NewSender == nil {
		opts.NewSender = func(cfg email.SMTPConfig, logger *slog.Logger) (email.Sender, error) {
			return email.NewSMTPSender(cfg, logger)
		}
	}

	common := &cmdControl{opts: opts}
	app := common.command()
	app.SetArgs(args)
	app.SetIn(opts.Stdin)
	app.SetOut(opts.Stdout)
	app.SetErr(opts.Stderr)

	err := app.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			_, _ = fmt.Fprintln(opts.Stderr, exit.err)
		}
		return exit.code
	}
	_, _ = fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
	return 2
}

func (c *cmdControl) command() *cobra.Command {
	ask := cmdAsk{common: c}
	app := &cobra.Command{
		Use:               "askdb",
		Short:             "Ask questions about a SQL database in plain language",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE:              ask.run,
	}
	app.PersistentFlags().StringVarP(&c.flagDatabase, "database", "d", "", "Database path or DSN (overrides ASKDB_DATABASE_DSN)")

	schemaCmd := cmdSchema{common: c}
	app.AddCommand(schemaCmd.command())
	return app
}

// lookup layers command-line flags over the configured lookup.
func (c *cmdControl) lookup() config.LookupFunc {
	base := c.opts.Lookup
	if base == nil {
		base = config.MapLookup(nil)
	}
	flags := map[string]string{}
	if dsn := strings.TrimSpace(c.flagDatabase); dsn != "" {
		flags["ASKDB_DATABASE_DSN"] = dsn
	}
	return config.ChainLookup(config.MapLookup(flags), base)
}

func (c *cmdControl) openDatabase(ctx context.Context, cfg config.Config) (*database.DB, error) {
	db, err := database.Open(ctx, database.DBConfig{
		DSN:             cfg.Database.DSN,
		ReadOnly:        cfg.Query.ReadOnly,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fail(1, "Error connecting to the database: %v", err)
	}
	return db, nil
}
