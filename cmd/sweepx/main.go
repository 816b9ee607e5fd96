package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/sweepx/internal/app"
	"github.com/vk/sweepx/internal/cli"
	"github.com/vk/sweepx/internal/hcl"
)

// main is the entrypoint for the sweepx CLI.
func main() {
	// Minimal logger until the app configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the application logic for easier testing and error
// handling.
func run(outW, errW io.Writer, args []string) error {
	invocation, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	application := app.New(outW, errW, invocation.App, hcl.NewLoader())

	ctx := context.Background()
	switch {
	case invocation.Run != nil:
		return application.Run(ctx, *invocation.Run)
	case invocation.Sum != nil:
		return application.Sum(ctx, *invocation.Sum)
	}
	return nil
}
