package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowtrace/internal/config"
	"flowtrace/internal/logging"
	"flowtrace/internal/trace"
)

// setupLogging builds the diagnostic logger from the environment and the
// persistent log flags.
func setupLogging(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	root := cmd.Root()

	level, err := root.PersistentFlags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	dev, err := root.PersistentFlags().GetBool("log-dev")
	if err != nil {
		return nil, fmt.Errorf("failed to get log-dev flag: %w", err)
	}

	lc := cfg.Log.Logging()
	if level != "" {
		lc.Level = level
	}
	if dev {
		lc.Development = true
	}
	log, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}
	return log, nil
}

// setupTracing creates the tracer for cmd, attaches it to the command
// context and returns a cleanup function that flushes it. The cleanup
// function is safe to call more than once.
func setupTracing(cmd *cobra.Command, settings trace.Settings, log *zap.Logger) (*trace.Tracer, func()) {
	tracer := trace.New(settings.Config(log.Named("trace")))

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	cleanup := func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
		_ = log.Sync()
	}
	return tracer, cleanup
}
