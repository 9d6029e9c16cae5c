package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/obcdbg/internal/cli"
	"github.com/five82/obcdbg/internal/telemetry"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitNoDevice = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and maps its error to an exit code. A port
// that cannot be opened gets its own code so scripts can retry.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	err := cli.Execute(ctx, args)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "obcdbg: %v\n", err)
	if errors.Is(err, telemetry.ErrPortUnavailable) {
		return exitNoDevice
	}
	return exitFailure
}
