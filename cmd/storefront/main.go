package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return newCLI(stdout, stderr).execute(ctx, args)
}

func (c *cli) execute(ctx context.Context, args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(ctx)
	if closeErr := c.close(ctx); closeErr != nil && err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}
	// Services already surfaced their own failures through the notifier.
	if !c.reported() {
		fmt.Fprintln(c.stderr, "error:", errorText(err))
	}
	return 1
}

// errorText prefers the user-facing message of typed errors.
func errorText(err error) string {
	if pkgerrors.As(err) != nil {
		return pkgerrors.UserMessage(err)
	}
	return err.Error()
}
