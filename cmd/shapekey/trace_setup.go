package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"shapekey/internal/dispatch"
	"shapekey/internal/trace"
)

// setupTracing builds the tracer described by cfg and the remaining trace
// flags and attaches it to the command context. The cleanup takes the
// command's result: it writes out the flight recorder (always in ring mode,
// on failure in both mode), then flushes and closes the tracer.
func setupTracing(cmd *cobra.Command, cfg fileConfig) (func(error), error) {
	root := cmd.Root()

	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(cfg.Trace.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(error) {}, nil
	}
	mode, err := trace.ParseMode(cfg.Trace.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: cfg.Trace.Output,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval, dispatchStatus)
	}

	ring := trace.RingOf(tracer)
	return func(runErr error) {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if ring != nil {
			if err := dumpRing(cmd, ring, mode, cfg.Trace.Output, runErr); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}

// dumpRing writes the recorder's window. Ring mode writes it to the trace
// output when the command ends. Both mode already streams to that output,
// so the window goes to stderr as text and only when the command failed.
func dumpRing(cmd *cobra.Command, ring *trace.RingTracer, mode trace.StorageMode, output string, runErr error) error {
	if mode != trace.ModeRing {
		if runErr == nil {
			return nil
		}
		w := cmd.ErrOrStderr()
		fmt.Fprintf(w, "trace: last events before failure (%d dropped)\n", ring.Dropped())
		return ring.Dump(w, trace.FormatText)
	}
	var w io.Writer = cmd.ErrOrStderr()
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to open trace output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return ring.Dump(w, trace.DetectFormat(output))
}

// dispatchStatus summarises the process-wide dispatcher for heartbeats.
func dispatchStatus() string {
	d := dispatch.Default()
	if d == nil {
		return "uninitialized"
	}
	st := d.Stats()
	return fmt.Sprintf("hits=%d misses=%d uncached=%d table=%d", st.Cache.Hits+st.Table.Hits, st.Cache.Misses, st.Cache.Uncached, st.Table.Filled)
}
