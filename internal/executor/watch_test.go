package executor

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchSelf(t *testing.T) {
	w, err := Watch(os.Getpid())
	require.NoError(t, err)
	assert.False(t, w.Exited())
	assert.Equal(t, 0, w.ExitCode())
	assert.NoError(t, w.Stop())
}

func TestWatchGoneProcess(t *testing.T) {
	_, err := Watch(2147483646)
	require.Error(t, err)
	assert.Equal(t, "process is not running", err.Error())
}

func TestWatchInvalidPid(t *testing.T) {
	_, err := Watch(0)
	assert.Error(t, err)
	_, err = Watch(-5)
	assert.Error(t, err)
}

func TestWatchedExitIsSticky(t *testing.T) {
	calls := 0
	alive := true
	w := &Watched{pid: 1234, exists: func(context.Context, int32) (bool, error) {
		calls++
		return alive, nil
	}}

	assert.False(t, w.Exited())
	alive = false
	assert.True(t, w.Exited())
	alive = true
	assert.True(t, w.Exited(), "a process that went away stays gone")
	assert.Equal(t, 2, calls)
}

func TestWatchedProbeErrorKeepsWaiting(t *testing.T) {
	w := &Watched{pid: 1234, exists: func(context.Context, int32) (bool, error) {
		return false, errors.New("permission denied")
	}}
	assert.False(t, w.Exited())
}
