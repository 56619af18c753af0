// Command litenc encodes typed values as SQL literal expressions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/litenc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
