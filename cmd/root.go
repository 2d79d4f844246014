package cmd

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"time"

	"github.com/scienceol/caffeinate/internal/config"
	"github.com/scienceol/caffeinate/internal/power"
	"github.com/scienceol/caffeinate/internal/ui"
	"github.com/spf13/cobra"
)

// maxTimeoutSeconds is the longest -t that fits in a time.Duration.
const maxTimeoutSeconds = math.MaxInt64 / int64(time.Second)

// newPrimitive is swapped out in tests.
var newPrimitive = power.New

type options struct {
	display       bool
	idle          bool
	system        bool
	userPresent   bool
	timeout       int
	waitPID       int
	verbose       bool
	nudge         bool
	interval      time.Duration
	watchInterval time.Duration
}

// sessionConfig is a validated command line.
type sessionConfig struct {
	request power.Request
	timeout time.Duration
	command []string
	waitPID int
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "caffeinate [-d] [-i|-s] [-u] [-t seconds] [-w pid] [-- command [args...]]",
		Short: "Keep the machine awake",
		Long: `caffeinate prevents the system from sleeping, the display from turning off,
or the machine from going idle.

The hold lasts until the timeout elapses (-t), until the wrapped command
exits (everything after --), until the process given with -w exits, or until
you interrupt it with Ctrl+C. At least one of -d, -i/-s or -u is required.

When a command is wrapped, caffeinate exits with the command's exit code.`,
		Example: `  caffeinate -d                 keep the display on until Ctrl+C
  caffeinate -i -t 3600         keep the system awake for an hour
  caffeinate -s -- make build   keep the system awake while make runs`,
		Version:               version,
		Args:                  cobra.ArbitraryArgs,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := validateAndParse(cmd, opts, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), sc, cmd.OutOrStdout())
		},
	}
	cmd.SetVersionTemplate(versionTemplate)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ValidationError{msg: err.Error()}
	})

	f := cmd.Flags()
	f.BoolVarP(&opts.display, "display", "d", false, "Prevent the display from sleeping")
	f.BoolVarP(&opts.idle, "idle", "i", false, "Prevent the system from idle sleeping")
	f.BoolVarP(&opts.system, "system", "s", false, "Prevent the system from sleeping (alias of -i)")
	f.BoolVarP(&opts.userPresent, "user-present", "u", false, "Signal user activity once, waking the display")
	f.IntVarP(&opts.timeout, "timeout", "t", 0, "Hold for this many seconds")
	f.IntVarP(&opts.waitPID, "wait-pid", "w", 0, "Hold until the process with this PID exits")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Print diagnostics to standard output")
	f.BoolVarP(&opts.nudge, "nudge", "n", false, "Send a synthetic F15 keypress every cycle (Windows)")
	f.DurationVar(&opts.interval, "interval", 0, "Re-assertion interval (default 50s)")
	f.DurationVar(&opts.watchInterval, "watch-interval", 0, "Re-assertion interval while a command or PID is watched (default 10s)")

	return cmd
}

// validateAndParse turns the parsed flags and positional arguments into a
// sessionConfig. Nothing here touches OS state.
func validateAndParse(cmd *cobra.Command, opts options, args []string) (*sessionConfig, error) {
	req := power.Request{
		KeepDisplayAwake: opts.display,
		KeepSystemAwake:  opts.idle || opts.system,
		PulseUserPresent: opts.userPresent,
	}
	if !req.Valid() {
		return nil, validationErrorf("at least one of -d, -i/-s or -u must be specified")
	}

	if cmd.Flags().Changed("timeout") && opts.timeout <= 0 {
		return nil, validationErrorf("timeout must be a positive number of seconds, got %d", opts.timeout)
	}
	if int64(opts.timeout) > maxTimeoutSeconds {
		return nil, validationErrorf("timeout too large, at most %d seconds", maxTimeoutSeconds)
	}
	if cmd.Flags().Changed("wait-pid") && opts.waitPID <= 0 {
		return nil, validationErrorf("wait-pid must be a positive process ID, got %d", opts.waitPID)
	}

	dash := cmd.ArgsLenAtDash()
	var command []string
	switch {
	case dash < 0 && len(args) > 0:
		return nil, validationErrorf("unexpected argument %q (put the command to wrap after --)", args[0])
	case dash > 0:
		return nil, validationErrorf("unexpected argument %q before --", args[0])
	case dash == 0:
		if len(args) == 0 {
			return nil, validationErrorf("command required after --")
		}
		command = args
	}

	cfg, err := config.Load(config.Flags{
		Interval:      opts.interval,
		WatchInterval: opts.watchInterval,
		Verbose:       opts.verbose,
		Nudge:         opts.nudge,
	})
	if err != nil {
		return nil, &ValidationError{msg: "configuration error: " + err.Error()}
	}

	return &sessionConfig{
		request: req,
		timeout: time.Duration(opts.timeout) * time.Second,
		command: command,
		waitPID: opts.waitPID,
		cfg:     cfg,
	}, nil
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	ui.SetOutput(stdout, stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		if msg := ee.Message(); msg != "" {
			ui.Error("%s", msg)
		}
		return ee.Code()
	}
	ui.Error("%s", err)
	return 1
}
