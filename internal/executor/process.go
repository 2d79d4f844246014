package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// Process is a wrapped child command. Its liveness is polled with
// Exited; nothing blocks on it except the reaper goroutine.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{} // closed when the process exits

	mu       sync.Mutex
	exitCode int
}

// Start launches name with args, sharing this process's stdin, stdout
// and stderr so the child's output passes through unmodified.
func Start(ctx context.Context, name string, args ...string) (*Process, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("command not found: %s: %w", name, err)
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go p.waitLoop()
	return p, nil
}

func (p *Process) waitLoop() {
	err := p.cmd.Wait()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()
	close(p.done)
}

// Pid returns the child's process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Exited reports whether the child has exited and been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the child's exit status. It is -1 while the child is
// running or when it was terminated by a signal.
func (p *Process) ExitCode() int {
	if !p.Exited() {
		return -1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Stop asks the child to terminate. It does not wait for it.
func (p *Process) Stop() error {
	if p.Exited() {
		return nil
	}
	return stopProcess(p.cmd.Process)
}
