package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

// Exit codes for different failure modes
const (
	ExitSuccess          = 0 // Every dataset passed
	ExitValidationFailed = 1 // One or more datasets did not pass
	ExitError            = 2 // Configuration, lookup or open error
)

// ValidationFailedError indicates that validation ran to completion, but at
// least one dataset did not pass its specification.
type ValidationFailedError struct {
	Message string
}

func (e *ValidationFailedError) Error() string {
	return e.Message
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var failed *ValidationFailedError
	if errors.As(err, &failed) {
		return ExitValidationFailed
	}
	return ExitError
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
