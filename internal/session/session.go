// Package session runs one keep-awake session: it acquires the
// execution-state assertion, re-asserts it on a fixed cadence until the
// session's termination condition is met, and releases it on every exit
// path.
package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/scienceol/caffeinate/internal/power"
)

const (
	// DefaultInterval is the re-assertion cadence, well under any
	// OS-imposed assertion expiry.
	DefaultInterval = 50 * time.Second
	// DefaultWatchInterval is the cadence while a child is wrapped, so
	// its exit is noticed promptly.
	DefaultWatchInterval = 10 * time.Second
)

// State is the lifecycle position of a session.
type State int

const (
	Starting State = iota
	Holding
	Terminating
	Cleared
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Holding:
		return "holding"
	case Terminating:
		return "terminating"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Reason records why a session ended.
type Reason int

const (
	ReasonCancelled Reason = iota
	ReasonTimeout
	ReasonChildExited
	ReasonApplyFailed
	ReasonSpawnFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonCancelled:
		return "cancelled"
	case ReasonTimeout:
		return "timeout"
	case ReasonChildExited:
		return "child-exited"
	case ReasonApplyFailed:
		return "apply-failed"
	case ReasonSpawnFailed:
		return "spawn-failed"
	default:
		return "unknown"
	}
}

// SpawnError reports that the session's child could not be started.
// The StartFunc's error already names what was being started.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string { return e.Err.Error() }

func (e *SpawnError) Unwrap() error { return e.Err }

// Asserter is the assertion controller the driver writes through.
type Asserter interface {
	Apply(flags power.Flags) error
	Clear() error
	PulseUserPresent() error
	Nudge() error
}

// Session is the mutable state of one run, owned by Driver.Run.
type Session struct {
	Mode            Mode
	Request         power.Request
	StartedAt       time.Time
	State           State
	Cancelled       bool
	LastApplyFailed bool
}

// Outcome is the result of a finished session.
type Outcome struct {
	Reason          Reason
	ExitCode        int
	Reapplies       int
	FailedReapplies int
	// Err is set for fatal outcomes only.
	Err error
}

// Tick describes one re-assertion of a holding session.
type Tick struct {
	N       int // 1-based
	Elapsed time.Duration
	Err     error
}

// Options configures a Driver. Zero values select the defaults.
type Options struct {
	Clock         clockwork.Clock
	Logger        *slog.Logger
	Interval      time.Duration
	WatchInterval time.Duration
	// Nudge sends a synthetic keypress on every tick.
	Nudge bool
	// OnTick, if set, is called after every re-assertion.
	OnTick func(Tick)
}

// Driver runs sessions against a single Asserter.
type Driver struct {
	asserter      Asserter
	clock         clockwork.Clock
	logger        *slog.Logger
	interval      time.Duration
	watchInterval time.Duration
	nudge         bool
	onTick        func(Tick)
}

// New creates a Driver writing through a.
func New(a Asserter, opts Options) *Driver {
	d := &Driver{
		asserter:      a,
		clock:         opts.Clock,
		logger:        opts.Logger,
		interval:      opts.Interval,
		watchInterval: opts.WatchInterval,
		nudge:         opts.Nudge,
		onTick:        opts.OnTick,
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	if d.watchInterval <= 0 {
		d.watchInterval = DefaultWatchInterval
	}
	return d
}

// Run holds req until mode's termination condition or ctx cancellation.
// The assertion is cleared exactly once before Run returns, whichever
// way the session ends, including a panic.
func (d *Driver) Run(ctx context.Context, req power.Request, mode Mode) Outcome {
	s := &Session{
		Mode:      mode.normalize(),
		Request:   req,
		StartedAt: d.clock.Now(),
		State:     Starting,
	}
	logger := d.logger.With("mode", s.Mode.Kind.String())
	logger.Debug("session starting", "timeout", s.Mode.Timeout)

	defer func() {
		d.transition(logger, s, Cleared)
		if err := d.asserter.Clear(); err != nil {
			logger.Warn("failed to clear assertion", "error", err)
		}
	}()

	flags := power.ComposeFlags(req)
	if req.PulseUserPresent {
		// Pulse before the hold: the pulse replaces the held flags.
		if err := d.asserter.PulseUserPresent(); err != nil {
			logger.Warn("user-present pulse failed", "error", err)
		}
	}
	if err := d.asserter.Apply(flags); err != nil {
		return d.finish(logger, s, Outcome{Reason: ReasonApplyFailed, ExitCode: 1, Err: err})
	}
	d.nudgeOnce(logger)

	if ctx.Err() != nil {
		s.Cancelled = true
		return d.finish(logger, s, Outcome{Reason: ReasonCancelled})
	}

	var child Child
	if s.Mode.Kind == WrapCommand {
		c, err := s.Mode.Start(ctx)
		if err != nil {
			return d.finish(logger, s, Outcome{Reason: ReasonSpawnFailed, ExitCode: 1, Err: &SpawnError{Err: err}})
		}
		child = c
	}

	return d.hold(ctx, logger, s, flags, child)
}

func (d *Driver) hold(ctx context.Context, logger *slog.Logger, s *Session, flags power.Flags, child Child) Outcome {
	d.transition(logger, s, Holding)

	cadence := d.interval
	if s.Mode.Kind == WrapCommand {
		cadence = d.watchInterval
	}

	var out Outcome
	for {
		select {
		case <-ctx.Done():
		case <-d.clock.After(cadence):
			out.Reapplies++
			err := d.asserter.Apply(flags)
			if err != nil {
				out.FailedReapplies++
				logger.Warn("re-assertion failed, still holding", "error", err)
			}
			s.LastApplyFailed = err != nil
			d.nudgeOnce(logger)
			if d.onTick != nil {
				d.onTick(Tick{N: out.Reapplies, Elapsed: d.clock.Since(s.StartedAt), Err: err})
			}
		}

		switch {
		case ctx.Err() != nil:
			s.Cancelled = true
			if child != nil {
				if err := child.Stop(); err != nil {
					logger.Warn("failed to stop wrapped command", "error", err)
				}
			}
			out.Reason = ReasonCancelled
			return d.finish(logger, s, out)
		case child != nil && child.Exited():
			out.Reason = ReasonChildExited
			out.ExitCode = child.ExitCode()
			if out.ExitCode < 0 {
				out.ExitCode = 1
			}
			return d.finish(logger, s, out)
		case s.Mode.Kind == Timeout && d.clock.Now().Sub(s.StartedAt) >= s.Mode.Timeout:
			out.Reason = ReasonTimeout
			return d.finish(logger, s, out)
		}
	}
}

func (d *Driver) nudgeOnce(logger *slog.Logger) {
	if !d.nudge {
		return
	}
	if err := d.asserter.Nudge(); err != nil {
		logger.Warn("synthetic keypress failed", "error", err)
	}
}

func (d *Driver) finish(logger *slog.Logger, s *Session, out Outcome) Outcome {
	d.transition(logger, s, Terminating)
	attrs := []any{
		"reason", out.Reason.String(),
		"exit_code", out.ExitCode,
		"reapplies", out.Reapplies,
		"elapsed", d.clock.Now().Sub(s.StartedAt),
	}
	if out.Err != nil {
		attrs = append(attrs, "error", out.Err)
	}
	logger.Debug("session ending", attrs...)
	return out
}

func (d *Driver) transition(logger *slog.Logger, s *Session, next State) {
	logger.Debug("state", "from", s.State.String(), "to", next.String())
	s.State = next
}
