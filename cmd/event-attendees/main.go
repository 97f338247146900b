// Command event-attendees runs the synthetic event attendees workload against a SQL database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func main() {
	os.Exit(submain(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func submain(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "loading .env: %s\n", err)
	}

	cmd := newRootCommand(viper.New(), stdout, stderr)
	cmd.SetArgs(args)

	ctx = withSignalCancel(ctx)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "%s\n", err)
		}
		return 1
	}

	return 0
}

func withSignalCancel(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()

	return ctx
}
