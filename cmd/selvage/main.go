// Command selvage parses pattern documents from the command line or opens
// them in the desktop viewer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/selvage/pkg/perr"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the root command and maps the error to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *perr.ExitError
	if errors.As(err, &exit) {
		fmt.Fprintln(stderr, summaryOf(exit.Err))
		return exit.Code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func summaryOf(err error) string {
	var pe *perr.Error
	if errors.As(err, &pe) {
		return pe.Summary()
	}
	return err.Error()
}
