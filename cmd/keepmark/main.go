// Command keepmark marks the classes, members and resource files of a
// described JVM program that are reachable from its keep directives.
//
// Usage:
//
//	keepmark [flags] <command>
//
// Run "keepmark help" for the list of commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/keepmark/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil {
		// JSON commands already wrote their error envelope to stdout.
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
