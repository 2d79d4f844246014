package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"

	"github.com/scienceol/caffeinate/internal/executor"
	"github.com/scienceol/caffeinate/internal/power"
	"github.com/scienceol/caffeinate/internal/session"
	"github.com/scienceol/caffeinate/internal/ui"
)

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// startFunc returns how the session's child is obtained: a wrapped
// command wins over a watched PID.
func startFunc(sc *sessionConfig) session.StartFunc {
	switch {
	case len(sc.command) > 0:
		return func(ctx context.Context) (session.Child, error) {
			p, err := executor.Start(ctx, sc.command[0], sc.command[1:]...)
			if err != nil {
				return nil, fmt.Errorf("start wrapped command: %w", err)
			}
			if sc.cfg.Verbose {
				ui.Info("Started %s (pid %d)", sc.command[0], p.Pid())
			}
			return p, nil
		}
	case sc.waitPID > 0:
		return func(context.Context) (session.Child, error) {
			w, err := executor.Watch(sc.waitPID)
			if err != nil {
				return nil, fmt.Errorf("wait for pid %d: %w", sc.waitPID, err)
			}
			return w, nil
		}
	default:
		return nil
	}
}

func run(ctx context.Context, sc *sessionConfig, stdout io.Writer) error {
	logger := newLogger(sc.cfg.Verbose, stdout)

	ctx, stop := signal.NotifyContext(ctx, signalsToNotify()...)
	defer stop()

	mode := session.ResolveMode(sc.timeout, startFunc(sc))
	if sc.cfg.Verbose {
		printSummary(sc, mode)
	}

	opts := session.Options{
		Logger:        logger,
		Interval:      sc.cfg.Interval,
		WatchInterval: sc.cfg.WatchInterval,
		Nudge:         sc.cfg.Nudge,
	}
	if sc.cfg.Verbose {
		opts.OnTick = func(t session.Tick) {
			ui.Meter(t.N, t.Elapsed)
		}
	}

	ctrl := power.NewController(newPrimitive(), logger)
	driver := session.New(ctrl, opts)

	out := driver.Run(ctx, sc.request, mode)

	if sc.cfg.Verbose {
		if out.FailedReapplies > 0 {
			ui.Warn("%d of %d re-assertions failed", out.FailedReapplies, out.Reapplies)
		}
		ui.Success("Released (%s)", out.Reason)
	}

	if out.Err != nil {
		return &ExitError{code: out.ExitCode, message: out.Err.Error()}
	}
	if out.ExitCode != 0 {
		return &ExitError{code: out.ExitCode}
	}
	return nil
}

func printSummary(sc *sessionConfig, mode session.Mode) {
	ui.Banner(version)
	ui.KeyValue("Holding", power.ComposeFlags(sc.request).String())
	switch mode.Kind {
	case session.Timeout:
		ui.KeyValue("Mode", "timeout "+mode.Timeout.String())
	case session.WrapCommand:
		if len(sc.command) > 0 {
			ui.KeyValue("Mode", "wrap "+strings.Join(sc.command, " "))
		} else {
			ui.KeyValue("Mode", "wait for pid "+strconv.Itoa(sc.waitPID))
		}
	default:
		ui.KeyValue("Mode", "indefinite "+ui.Dim("(Ctrl+C to stop)"))
	}
	interval := sc.cfg.Interval
	if mode.Kind == session.WrapCommand {
		interval = sc.cfg.WatchInterval
	}
	ui.KeyValue("Interval", interval.String())
	ui.Separator()
}
