package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flowtrace/internal/config"
	"flowtrace/internal/observ"
	"flowtrace/internal/trace"
	"flowtrace/internal/workload"
)

var (
	recordPrefix    string
	recordWorkload  string
	recordThreads   int
	recordSteps     int
	recordArenaSize int
	recordMaxSlots  int
	recordTimings   bool
)

func init() {
	recordCmd.Flags().StringVar(&recordPrefix, "prefix", "", "trace output prefix (default $FLOWTRACE_PATH)")
	recordCmd.Flags().StringVar(&recordWorkload, "workload", "", "TOML file with a [workload] section")
	recordCmd.Flags().IntVar(&recordThreads, "threads", 0, "override the number of worker threads")
	recordCmd.Flags().IntVar(&recordSteps, "steps", 0, "override the number of graph steps")
	recordCmd.Flags().IntVar(&recordArenaSize, "arena-size", 0, "per-thread trace buffer in bytes (default $FLOWTRACE_ARENA_SIZE)")
	recordCmd.Flags().IntVar(&recordMaxSlots, "max-slots", 0, "maximum traced threads (default $FLOWTRACE_MAX_SLOTS)")
	recordCmd.Flags().BoolVar(&recordTimings, "timings", false, "print run and flush timings")
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run a synthetic executor workload with tracing",
	Long: `record runs worker goroutines that schedule and compute the nodes of a
synthetic graph. With a prefix set, each worker writes <prefix>.trace.N and
<prefix>.meta.N. SIGINT and SIGTERM stop the workers and still flush.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := setupLogging(cmd, cfg)
		if err != nil {
			return err
		}

		settings := cfg.Trace
		if recordPrefix != "" {
			settings.Path = recordPrefix
		}
		if recordArenaSize > 0 {
			settings.ArenaSize = recordArenaSize
		}
		if recordMaxSlots > 0 {
			settings.MaxSlots = recordMaxSlots
		}

		wl := workload.Default()
		if recordWorkload != "" {
			if wl, err = workload.Load(recordWorkload); err != nil {
				return err
			}
		}
		if recordThreads > 0 {
			wl.Threads = recordThreads
		}
		if recordSteps > 0 {
			wl.Steps = recordSteps
		}
		if err := wl.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		timer := observ.NewTimer()
		tracer, cleanup := setupTracing(cmd, settings, log)
		defer cleanup()

		run := timer.Begin("run")
		err = workload.Run(cmd.Context(), tracer, wl)
		timer.End(run, fmt.Sprintf("%d threads", wl.Threads))
		if errors.Is(err, context.Canceled) {
			log.Warn("workload interrupted, flushing partial trace")
			err = nil
		}
		if err != nil {
			return err
		}
		flush := timer.Begin("flush")
		if err := tracer.Close(); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
		timer.End(flush, "")

		elapsed := timer.Total()
		log.Debug("workload finished", zap.Duration("elapsed", elapsed), zap.Int("threads", wl.Threads))
		printRecordSummary(cmd.OutOrStdout(), tracer, elapsed)
		if recordTimings {
			timer.WriteSummary(cmd.OutOrStdout())
		}
		return nil
	},
}

var (
	summaryHeader = color.New(color.Bold)
	summaryWarn   = color.New(color.FgRed, color.Bold)
)

func printRecordSummary(out io.Writer, tracer *trace.Tracer, elapsed time.Duration) {
	if !tracer.Enabled() {
		fmt.Fprintf(out, "workload finished in %s (tracing disabled, set --prefix or FLOWTRACE_PATH)\n", elapsed.Round(time.Microsecond))
		return
	}
	act := tracer.Activation()
	summaryHeader.Fprintf(out, "trace %s", act.Prefix)
	fmt.Fprintf(out, " (%s)\n", elapsed.Round(time.Microsecond))
	for _, st := range tracer.Stats() {
		fmt.Fprintf(out, "  slot %-4d %8d events %10d bytes", st.Slot, st.Events, st.Bytes)
		if st.Dropped > 0 {
			summaryWarn.Fprintf(out, "  %d dropped", st.Dropped)
		}
		if st.Rejected > 0 {
			summaryWarn.Fprintf(out, "  %d rejected", st.Rejected)
		}
		fmt.Fprintln(out)
	}
}
