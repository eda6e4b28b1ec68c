package askdb

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/email"
	"github.com/askdb/askdb/internal/export"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query/sqlengine"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/session"
)

type cmdAsk struct {
	common *cmdControl
}

func (c *cmdAsk) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	opts := c.common.opts
	out := cmd.OutOrStdout()

	cfg, err := config.Load(serviceName, c.common.lookup())
	if err != nil {
		return fail(1, "configuration error: %v", err)
	}
	logger := observability.NewLogger(cfg, opts.Stderr)

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		if _, err := observability.StartMetricsServer(ctx, addr, logger); err != nil {
			return fail(1, "start metrics server: %v", err)
		}
	}

	db, err := c.common.openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tables, err := schema.Introspect(ctx, db, db.Target.Dialect)
	if err != nil {
		return fail(1, "Error getting schemas: %v", err)
	}
	cmd.Println("Successfully connected to the database.")
	cmd.Printf("Tables in the database: %v\n", tables.TableNames())

	model, err := opts.NewModelClient(llm.ConfigFrom(cfg.AI))
	if err != nil {
		return fail(1, "init model client: %v", err)
	}

	sessionOpts := session.Options{
		Schema:     tables,
		Dialect:    db.Target.Dialect,
		RowLimit:   cfg.Query.RowLimit,
		Translator: nl2sql.NewTranslator(model),
		Engine: sqlengine.NewEngine(db.DB, sqlengine.Options{
			Timeout:    cfg.Query.Timeout,
			ReadOnly:   cfg.Query.ReadOnly,
			Dialect:    db.Target.Dialect,
			ReadOnlyTx: db.Target.Dialect == database.DialectPostgres,
		}),
		Interpreter: nl2sql.NewInterpreter(model),
		In:          cmd.InOrStdin(),
		Out:         out,
		Logger:      logger,
	}

	if cfg.Email.Enabled {
		sender, err := opts.NewSender(email.SMTPConfigFrom(cfg.Email), logger)
		if err != nil {
			return fail(1, "init email sender: %v", err)
		}
		sessionOpts.Drafter = email.NewDrafter(model)
		sessionOpts.Sender = sender
	}

	exporter, err := export.FromConfig(ctx, cfg, logger)
	if err != nil {
		return fail(1, "init exporter: %v", err)
	}
	if exporter != nil {
		sessionOpts.Exporter = exporter
	}

	s, err := session.New(sessionOpts)
	if err != nil {
		return fail(1, "init session: %v", err)
	}
	logger.Debug("session starting",
		slog.String("dialect", string(db.Target.Dialect)),
		slog.Int("tables", tables.Len()),
		slog.Bool("email", cfg.Email.Enabled),
		slog.String("export", cfg.Export.Target),
	)
	return s.Run(ctx)
}
