// Command sqlprobe records and inspects SQL execution episodes.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sqlprobe/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
