package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// configPath is bound to the global --config flag.
var configPath string

// exitError ends the process with code once its message (if any) has been
// printed by the command itself.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "soulsearch",
		Short:         "Find Soulseek files matching catalog tracks through slskd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	cmd.AddCommand(
		cmdSearch(),
		cmdAnalyze(),
		cmdBatch(),
		cmdValidate(),
		cmdExtract(),
		cmdServe(),
	)
	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	color.New(color.FgRed).Fprintln(os.Stderr, err)
	os.Exit(1)
}
