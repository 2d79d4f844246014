//go:build darwin || linux

package power

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleepHelper(t *testing.T, started *[]Flags) func(Flags) (*exec.Cmd, error) {
	t.Helper()
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}
	return func(held Flags) (*exec.Cmd, error) {
		*started = append(*started, held)
		return exec.Command(path, "60"), nil
	}
}

func TestHelperReapplyKeepsRunningHelper(t *testing.T) {
	var started []Flags
	h := &helperPrimitive{command: sleepHelper(t, &started)}
	t.Cleanup(func() { _ = h.SetExecutionState(ClearFlags) })

	flags := FlagContinuous | FlagSystemRequired
	require.NoError(t, h.SetExecutionState(flags))
	first := h.cmd
	require.NoError(t, h.SetExecutionState(flags))

	assert.Same(t, first, h.cmd)
	assert.Equal(t, []Flags{FlagSystemRequired}, started)
}

func TestHelperRestartsOnFlagChange(t *testing.T) {
	var started []Flags
	h := &helperPrimitive{command: sleepHelper(t, &started)}
	t.Cleanup(func() { _ = h.SetExecutionState(ClearFlags) })

	require.NoError(t, h.SetExecutionState(FlagContinuous|FlagSystemRequired))
	require.NoError(t, h.SetExecutionState(FlagContinuous|FlagDisplayRequired))

	assert.Equal(t, []Flags{FlagSystemRequired, FlagDisplayRequired}, started)
	assert.Equal(t, FlagDisplayRequired, h.flags)
}

func TestHelperRestartsDeadHelper(t *testing.T) {
	var started []Flags
	h := &helperPrimitive{command: sleepHelper(t, &started)}
	t.Cleanup(func() { _ = h.SetExecutionState(ClearFlags) })

	flags := FlagContinuous | FlagDisplayRequired
	require.NoError(t, h.SetExecutionState(flags))
	require.NoError(t, h.cmd.Process.Kill())
	<-h.done

	require.NoError(t, h.SetExecutionState(flags))
	assert.Len(t, started, 2)
	assert.True(t, h.aliveLocked())
}

func TestHelperClearStopsAndIsIdempotent(t *testing.T) {
	var started []Flags
	h := &helperPrimitive{command: sleepHelper(t, &started)}

	require.NoError(t, h.SetExecutionState(FlagContinuous|FlagSystemRequired))
	done := h.done

	require.NoError(t, h.SetExecutionState(ClearFlags))
	assert.Nil(t, h.cmd)
	select {
	case <-done:
	default:
		t.Fatal("helper still running after clear")
	}

	require.NoError(t, h.SetExecutionState(ClearFlags))
	assert.Nil(t, h.cmd)
}

func TestHelperPulseUnsupported(t *testing.T) {
	h := &helperPrimitive{}
	assert.ErrorIs(t, h.SetExecutionState(PulseFlags), ErrUnsupported)
}

func TestHelperStartFailure(t *testing.T) {
	h := &helperPrimitive{command: func(Flags) (*exec.Cmd, error) {
		return exec.Command("/nonexistent/helper"), nil
	}}
	assert.Error(t, h.SetExecutionState(FlagContinuous|FlagDisplayRequired))
	assert.Nil(t, h.cmd)
}
