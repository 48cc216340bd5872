// Command ssvep runs SSVEP stimulation sessions and emits phase markers.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ssvep/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
