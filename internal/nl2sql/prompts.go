package nl2sql

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/database"
)

const sqlExample = "-- Assuming \"top albums\" means albums with the most tracks\n" +
	"```sql\n" +
	"SELECT a.Title, ar.Name AS ArtistName, COUNT(t.TrackId) AS TrackCount\n" +
	"FROM Album a\n" +
	"JOIN Artist ar ON a.ArtistId = ar.ArtistId\n" +
	"JOIN Track t ON a.AlbumId = t.AlbumId\n" +
	"GROUP BY a.AlbumId\n" +
	"ORDER BY TrackCount DESC\n" +
	"LIMIT 10;\n" +
	"```"

func dialectName(dialect database.Dialect) string {
	switch dialect {
	case database.DialectDuckDB:
		return "DuckDB"
	case database.DialectPostgres:
		return "PostgreSQL"
	default:
		return "SQLite"
	}
}

func dialectNote(dialect database.Dialect) string {
	switch dialect {
	case database.DialectDuckDB:
		return "This is a DuckDB database, which uses PostgreSQL-like syntax and doesn't support the TOP keyword. Use LIMIT instead for selecting a specific number of rows."
	case database.DialectPostgres:
		return "This is a PostgreSQL database, which doesn't support the TOP keyword. Use LIMIT instead for selecting a specific number of rows, and double-quote mixed-case identifiers."
	default:
		return "This is a SQLite database, which doesn't support the TOP keyword. Use LIMIT instead for selecting a specific number of rows."
	}
}

// BuildSQLPrompt asks the model for a commented SQL statement in a fenced
// sql block, grounded on the formatted schema.
func BuildSQLPrompt(schemaText string, dialect database.Dialect, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI assistant helping with SQL queries for a %s database. Here are the schemas of the tables in the database:\n\n", dialectName(dialect))
	b.WriteString(schemaText)
	fmt.Fprintf(&b, "\n\nUser query: %s\n\n", strings.TrimSpace(question))
	b.WriteString("Please note:\n")
	fmt.Fprintf(&b, "1. %s\n", dialectNote(dialect))
	b.WriteString("2. When asked about \"top\" items, consider what criteria might be appropriate (e.g., most tracks, highest sales, most recent, etc.).\n")
	b.WriteString("3. If the query is ambiguous, make a reasonable assumption and explain your interpretation in a comment.\n\n")
	b.WriteString("Based on the schemas provided and these notes, please suggest an appropriate SQL query to answer the user's question. Your response should include:\n")
	b.WriteString("1. A brief comment explaining your interpretation of the query and any assumptions made.\n")
	b.WriteString("2. The SQL query itself, enclosed in triple backticks with the sql language specifier.\n\n")
	b.WriteString("Example:\n")
	b.WriteString(sqlExample)
	return b.String()
}

// BuildInterpretPrompt asks for a prose answer. result carries either the
// rendered rows or the execution error text.
func BuildInterpretPrompt(question, sqlText, result string) string {
	return fmt.Sprintf(`You are an AI assistant helping with SQL queries for a database. The user asked the following question:

%s

The following SQL query was executed:

%s

And here are the results:

%s

Please interpret these results and answer the user's question in natural language. Provide a concise summary of the information, highlighting key points or interesting findings. If the result is empty or if there's an error, please mention that as well.`,
		strings.TrimSpace(question), strings.TrimSpace(sqlText), strings.TrimSpace(result))
}
