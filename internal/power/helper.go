//go:build darwin || linux

package power

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// helperPrimitive holds the execution state by supervising a helper
// process (caffeinate on darwin, systemd-inhibit on linux) whose
// lifetime is the hold. Re-applying unchanged flags keeps the running
// helper; a helper that died is restarted.
type helperPrimitive struct {
	mu    sync.Mutex
	cmd   *exec.Cmd
	done  chan struct{}
	flags Flags

	// command builds the helper invocation for the held flags.
	command func(held Flags) (*exec.Cmd, error)

	// pulse runs the one-shot user-present signal; nil when unsupported.
	pulse func() (*exec.Cmd, error)
}

func (h *helperPrimitive) SetExecutionState(flags Flags) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if flags&FlagUserPresent != 0 {
		return h.pulseLocked()
	}

	held := flags & (FlagDisplayRequired | FlagSystemRequired)
	if held == 0 || flags&FlagContinuous == 0 {
		h.stopLocked()
		return nil
	}

	if h.cmd != nil && h.flags == held && h.aliveLocked() {
		return nil
	}
	h.stopLocked()

	cmd, err := h.command(held)
	if err != nil {
		return err
	}
	done, err := startOnLockedThread(cmd)
	if err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	h.cmd = cmd
	h.done = done
	h.flags = held
	return nil
}

// startOnLockedThread starts cmd from a goroutine that stays on one OS
// thread until the helper is reaped. Linux delivers Pdeathsig when the
// forking thread exits, not the process, so that thread must outlive the
// helper. The returned channel is closed once the helper has been reaped.
func startOnLockedThread(cmd *exec.Cmd) (chan struct{}, error) {
	started := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		// Never unlocked: the thread is discarded when the goroutine returns.
		runtime.LockOSThread()
		if err := cmd.Start(); err != nil {
			started <- err
			return
		}
		started <- nil
		_ = cmd.Wait()
		close(done)
	}()
	if err := <-started; err != nil {
		return nil, err
	}
	return done, nil
}

func (h *helperPrimitive) pulseLocked() error {
	if h.pulse == nil {
		return fmt.Errorf("user-present pulse: %w", ErrUnsupported)
	}
	cmd, err := h.pulse()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	go cmd.Wait()
	return nil
}

func (h *helperPrimitive) aliveLocked() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *helperPrimitive) stopLocked() {
	if h.cmd != nil && h.cmd.Process != nil {
		terminateHelper(h.cmd.Process)
		<-h.done
	}
	h.cmd = nil
	h.done = nil
	h.flags = 0
}
