package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/semtiles/internal/cli"
	errs "github.com/matzehuels/semtiles/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", errs.UserMessage(err))
		var e *errs.Error
		if errors.As(err, &e) && e.Cause != nil {
			fmt.Fprintln(os.Stderr, "  caused by:", e.Cause)
		}
		if errs.Recoverable(err) {
			fmt.Fprintln(os.Stderr, "This may be temporary; try again, or use --verbose for details.")
		}
		os.Exit(1)
	}
}
