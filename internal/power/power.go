// Package power holds the machine awake.
//
// A Controller translates a Request into an execution-state bitmask and
// hands it to the platform Primitive. The bitmask is applied atomically:
// every Apply replaces whatever was held before, and Clear drops every
// hold by sending the continuous marker on its own.
package power

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Flags is an execution-state bitmask. The values match the Windows
// ES_* constants; other platforms translate them.
type Flags uint32

const (
	FlagSystemRequired  Flags = 0x00000001
	FlagDisplayRequired Flags = 0x00000002
	FlagUserPresent     Flags = 0x00000004
	FlagContinuous      Flags = 0x80000000
)

const (
	// ClearFlags releases every hold.
	ClearFlags = FlagContinuous
	// PulseFlags signals user activity once without holding anything.
	PulseFlags = FlagContinuous | FlagUserPresent
)

func (f Flags) String() string {
	var parts []string
	if f&FlagContinuous != 0 {
		parts = append(parts, "continuous")
	}
	if f&FlagSystemRequired != 0 {
		parts = append(parts, "system")
	}
	if f&FlagDisplayRequired != 0 {
		parts = append(parts, "display")
	}
	if f&FlagUserPresent != 0 {
		parts = append(parts, "user-present")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Request describes what to keep awake.
type Request struct {
	KeepDisplayAwake bool
	KeepSystemAwake  bool
	// PulseUserPresent is a one-shot activity signal, not a held flag.
	PulseUserPresent bool
}

// Valid reports whether the request asks for anything at all.
func (r Request) Valid() bool {
	return r.KeepDisplayAwake || r.KeepSystemAwake || r.PulseUserPresent
}

// ComposeFlags maps a request to the bitmask held for the session. A
// user-present pulse only makes sense with the display on, so it implies
// the display flag.
func ComposeFlags(r Request) Flags {
	f := FlagContinuous
	if r.KeepDisplayAwake || r.PulseUserPresent {
		f |= FlagDisplayRequired
	}
	if r.KeepSystemAwake {
		f |= FlagSystemRequired
	}
	return f
}

// ErrUnsupported is returned by primitives that cannot express a flag
// combination on the current platform.
var ErrUnsupported = errors.New("not supported on this platform")

// Primitive is the raw OS call that sets the execution state. A nil
// error means the OS accepted the flags.
type Primitive interface {
	SetExecutionState(flags Flags) error
}

// Nudger synthesizes a keypress that input-watching applications see as
// activity.
type Nudger interface {
	Nudge() error
}

// ApplyError reports a rejected execution-state change.
type ApplyError struct {
	Flags Flags
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("set execution state %s: %v", e.Flags, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Controller is the single writer of the process-wide execution state.
// Create one per process; calls must not overlap.
type Controller struct {
	prim   Primitive
	logger *slog.Logger
}

// NewController returns a Controller driving prim. A nil logger discards.
func NewController(prim Primitive, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{prim: prim, logger: logger}
}

// Apply sends flags to the OS exactly once. It never retries.
func (c *Controller) Apply(flags Flags) error {
	if err := c.prim.SetExecutionState(flags); err != nil {
		c.logger.Debug("apply failed", "flags", flags.String(), "error", err)
		return &ApplyError{Flags: flags, Err: err}
	}
	c.logger.Debug("applied", "flags", flags.String())
	return nil
}

// Clear drops every hold. Clearing when nothing is held succeeds.
func (c *Controller) Clear() error {
	return c.Apply(ClearFlags)
}

// PulseUserPresent signals user activity once, e.g. to wake a dimmed
// display.
func (c *Controller) PulseUserPresent() error {
	return c.Apply(PulseFlags)
}

// Nudge sends a synthetic F15 keypress when the primitive supports it.
func (c *Controller) Nudge() error {
	n, ok := c.prim.(Nudger)
	if !ok {
		return fmt.Errorf("synthetic input: %w", ErrUnsupported)
	}
	if err := n.Nudge(); err != nil {
		return fmt.Errorf("synthetic input: %w", err)
	}
	return nil
}

// New returns the Primitive for the current platform.
// See inhibit_windows.go, inhibit_darwin.go, inhibit_linux.go, inhibit_other.go.
func New() Primitive {
	return newPrimitive()
}
