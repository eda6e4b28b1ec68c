package askdb

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/schema"
)

type cmdSchema struct {
	common *cmdControl
}

func (c *cmdSchema) command() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List the tables and columns of the database",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
}

func (c *cmdSchema) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.LoadForSchema(serviceName, c.common.lookup())
	if err != nil {
		return fail(1, "configuration error: %v", err)
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
	writeSchema(cmd.OutOrStdout(), tables)
	return nil
}

func writeSchema(out io.Writer, tables schema.Map) {
	_, _ = io.WriteString(out, "Tables in the database:\n")
	for _, name := range tables.TableNames() {
		_, _ = io.WriteString(out, name+"\n")
	}
	for _, table := range tables.Tables() {
		_, _ = io.WriteString(out, "\nSchema for "+table.Name+":\n")
		writer := tablewriter.NewWriter(out)
		writer.SetHeader([]string{"Column", "Type", "Not Null", "Primary Key"})
		writer.SetAutoFormatHeaders(false)
		writer.SetAutoWrapText(false)
		for _, column := range table.Columns {
			writer.Append([]string{column.Name, column.Type, yesNo(column.NotNull), yesNo(column.PrimaryKey)})
		}
		writer.Render()
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return ""
}
