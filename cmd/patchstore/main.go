package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/patchstore/internal/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cmd := cli.NewRootCommand()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
