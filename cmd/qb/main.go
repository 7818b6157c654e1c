// Command qb builds, edits, renders and validates nested AND/OR queries.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/querybuilder/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
