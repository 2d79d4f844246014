//go:build windows

package executor

import "os"

// Windows cannot deliver os.Interrupt to another process.
func stopProcess(proc *os.Process) error {
	return proc.Kill()
}
