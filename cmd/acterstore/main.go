// Command acterstore decodes Matrix room state events into typed models and
// persists them with their index memberships.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/acterstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "acterstore:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
