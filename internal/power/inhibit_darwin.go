//go:build darwin

package power

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// caffeinatePath is the system helper. It is never looked up on PATH,
// where this binary may shadow it.
const caffeinatePath = "/usr/bin/caffeinate"

func newPrimitive() Primitive {
	return &helperPrimitive{
		command: caffeinateCommand,
		pulse:   caffeinatePulse,
	}
}

func terminateHelper(p *os.Process) {
	_ = p.Kill()
}

func caffeinateArgs(held Flags, pid int) []string {
	var args []string
	if held&FlagDisplayRequired != 0 {
		args = append(args, "-d")
	}
	// -i: prevent idle sleep
	// -s: prevent system sleep (AC power)
	if held&FlagSystemRequired != 0 {
		args = append(args, "-i", "-s")
	}
	// -w <pid>: exit automatically when this process dies
	return append(args, "-w", strconv.Itoa(pid))
}

func caffeinateCommand(held Flags) (*exec.Cmd, error) {
	if _, err := os.Stat(caffeinatePath); err != nil {
		return nil, fmt.Errorf("caffeinate not found: %w", err)
	}
	return exec.Command(caffeinatePath, caffeinateArgs(held, os.Getpid())...), nil
}

func caffeinatePulse() (*exec.Cmd, error) {
	if _, err := os.Stat(caffeinatePath); err != nil {
		return nil, fmt.Errorf("caffeinate not found: %w", err)
	}
	return exec.Command(caffeinatePath, "-u", "-t", "1"), nil
}
