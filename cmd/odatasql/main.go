// Command odatasql translates OData v2 read requests into SQL.
package main

import (
	"fmt"
	"os"

	"github.com/nlstn/go-odata-sql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
