package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"course-notes-admin/internal/config"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := newCLIApp(cfg)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
