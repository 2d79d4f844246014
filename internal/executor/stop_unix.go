//go:build !windows

package executor

import "os"

func stopProcess(proc *os.Process) error {
	return proc.Signal(os.Interrupt)
}
