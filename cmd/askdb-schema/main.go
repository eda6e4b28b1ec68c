// Command askdb-schema prints the tables and columns of the configured
// database. It is equivalent to "askdb schema".
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/askdb/askdb/internal/cli/askdb"
	"github.com/askdb/askdb/internal/config"
)

func main() {
	lookup, err := config.LayeredLookup(os.LookupEnv)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	code := askdb.Run(context.Background(), append([]string{"schema"}, os.Args[1:]...), askdb.Options{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Lookup: lookup,
	})
	os.Exit(code)
}
