package session

import (
	"context"
	"time"
)

// Kind selects what ends a session.
type Kind int

const (
	// Indefinite sessions end only on cancellation.
	Indefinite Kind = iota
	// Timeout sessions end once the wall-clock duration has elapsed.
	Timeout
	// WrapCommand sessions end when the wrapped child exits.
	WrapCommand
)

func (k Kind) String() string {
	switch k {
	case Indefinite:
		return "indefinite"
	case Timeout:
		return "timeout"
	case WrapCommand:
		return "wrap-command"
	default:
		return "unknown"
	}
}

// Child is a supervised process whose lifetime bounds the session.
type Child interface {
	// Exited reports, without blocking, whether the child has exited.
	Exited() bool
	// ExitCode returns the child's exit status once it has exited.
	ExitCode() int
	// Stop asks the child to terminate.
	Stop() error
}

// StartFunc launches the child of a WrapCommand session.
type StartFunc func(ctx context.Context) (Child, error)

// Mode is the termination policy of one session.
type Mode struct {
	Kind    Kind
	Timeout time.Duration
	Start   StartFunc
}

// ResolveMode picks the termination policy. A child wins over a timeout.
// A zero or negative timeout means no timeout at all.
func ResolveMode(timeout time.Duration, start StartFunc) Mode {
	switch {
	case start != nil:
		return Mode{Kind: WrapCommand, Start: start}
	case timeout > 0:
		return Mode{Kind: Timeout, Timeout: timeout}
	default:
		return Mode{Kind: Indefinite}
	}
}

func (m Mode) normalize() Mode {
	switch {
	case m.Start != nil:
		return Mode{Kind: WrapCommand, Start: m.Start}
	case m.Kind == Timeout && m.Timeout > 0:
		return Mode{Kind: Timeout, Timeout: m.Timeout}
	default:
		return Mode{Kind: Indefinite}
	}
}
