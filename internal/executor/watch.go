package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

const pidProbeTimeout = 2 * time.Second

// Watched is a process we did not start. We can only observe whether it
// still exists; its exit status belongs to its real parent.
type Watched struct {
	pid    int32
	exists func(ctx context.Context, pid int32) (bool, error)
	gone   bool
}

// Watch attaches to an already running process.
func Watch(pid int) (*Watched, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid %d", pid)
	}
	w := &Watched{pid: int32(pid), exists: process.PidExistsWithContext}
	if w.Exited() {
		return nil, errors.New("process is not running")
	}
	return w, nil
}

// Exited reports whether the watched process has gone away. A probe
// error is treated as still running; the next poll retries.
func (w *Watched) Exited() bool {
	if w.gone {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), pidProbeTimeout)
	defer cancel()

	ok, err := w.exists(ctx, w.pid)
	if err != nil {
		return false
	}
	w.gone = !ok
	return w.gone
}

// ExitCode is always 0: the status of a process we did not start is not
// ours to report.
func (w *Watched) ExitCode() int { return 0 }

// Stop is a no-op; a watched process is never ours to terminate.
func (w *Watched) Stop() error { return nil }
