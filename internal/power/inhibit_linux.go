//go:build linux

package power

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func newPrimitive() Primitive {
	return &helperPrimitive{command: systemdInhibitCommand}
}

// inhibitWhat maps held flags to systemd-inhibit lock types. Display
// blanking is driven by idle detection, so the display flag takes the
// idle lock.
func inhibitWhat(held Flags) string {
	switch {
	case held&FlagSystemRequired != 0 && held&FlagDisplayRequired != 0:
		return "idle:sleep"
	case held&FlagSystemRequired != 0:
		return "sleep"
	default:
		return "idle"
	}
}

func systemdInhibitArgs(held Flags) []string {
	return []string{
		"--what=" + inhibitWhat(held),
		"--who=caffeinate",
		"--why=Keeping " + held.String() + " awake",
		"--mode=block",
		"sleep", "infinity",
	}
}

func systemdInhibitCommand(held Flags) (*exec.Cmd, error) {
	path, err := exec.LookPath("systemd-inhibit")
	if err != nil {
		return nil, fmt.Errorf("systemd-inhibit not found: %w", err)
	}
	cmd := exec.Command(path, systemdInhibitArgs(held)...)
	cmd.SysProcAttr = helperSysProcAttr()
	return cmd, nil
}

// helperSysProcAttr puts systemd-inhibit and its sleep child in their own
// process group, and has the kernel SIGTERM systemd-inhibit when the
// thread that started it exits (see startOnLockedThread).
func helperSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true, Pdeathsig: unix.SIGTERM}
}

// terminateHelper signals the helper's whole process group, so the
// inhibitor's child does not linger. A helper outside its own group is
// killed directly.
func terminateHelper(p *os.Process) {
	if err := unix.Kill(-p.Pid, unix.SIGTERM); err != nil {
		_ = p.Kill()
	}
}
