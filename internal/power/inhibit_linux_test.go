//go:build linux

package power

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestInhibitWhat(t *testing.T) {
	assert.Equal(t, "idle", inhibitWhat(FlagDisplayRequired))
	assert.Equal(t, "sleep", inhibitWhat(FlagSystemRequired))
	assert.Equal(t, "idle:sleep", inhibitWhat(FlagDisplayRequired|FlagSystemRequired))
}

func TestSystemdInhibitArgs(t *testing.T) {
	args := systemdInhibitArgs(FlagSystemRequired)
	assert.Equal(t, "--what=sleep", args[0])
	assert.Contains(t, args, "--mode=block")
	assert.Equal(t, []string{"sleep", "infinity"}, args[len(args)-2:])
}

func TestHelperSysProcAttr(t *testing.T) {
	attr := helperSysProcAttr()
	assert.True(t, attr.Setpgid)
	assert.Equal(t, unix.SIGTERM, attr.Pdeathsig)
}

func TestTerminateHelperSignalsGroup(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 60 & wait")
	cmd.SysProcAttr = helperSysProcAttr()
	done, err := startOnLockedThread(cmd)
	require.NoError(t, err)

	terminateHelper(cmd.Process)
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("helper group survived SIGTERM")
	}
	ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	assert.Equal(t, syscall.SIGTERM, ws.Signal())
}

func TestTerminateHelperOutsideGroup(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	done, err := startOnLockedThread(cmd)
	require.NoError(t, err)

	terminateHelper(cmd.Process)
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("helper survived")
	}
}
