package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doeshing/dexter/internal/app"
	"github.com/doeshing/dexter/internal/infrastructure/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &app.Options{Verbose: isVerbose()}
	root := cli.NewRootCmd(opts)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("DEXTER_DEBUG"), "1") || strings.EqualFold(os.Getenv("DEXTER_DEBUG"), "true")
}
