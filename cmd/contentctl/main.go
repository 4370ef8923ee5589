package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gogotex/contentstore/internal/cli"
	"github.com/gogotex/contentstore/pkg/logger"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// commands print their own errors; this covers flag and argument errors
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
