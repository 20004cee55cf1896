// Command recmap maps local objects to remote database records.
package main

import (
	"os"

	"github.com/roach88/recmap/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
