package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/doeshing/wintool/internal/infrastructure/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cli.Options{Verbose: isVerbose()}

	root, cleanup, err := cli.NewRootCmd(ctx, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer cleanup()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("WINTOOL_DEBUG"), "1") || strings.EqualFold(os.Getenv("WINTOOL_DEBUG"), "true")
}
