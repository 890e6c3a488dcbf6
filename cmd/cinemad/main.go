// Command cinemad loads Cinema database specifications and serves their
// displays.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/cinemad/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
