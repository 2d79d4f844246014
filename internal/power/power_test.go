package power

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Primitive that records every call and fails on demand.
type recorder struct {
	calls []Flags
	fail  func(call int, flags Flags) error
}

func (r *recorder) SetExecutionState(flags Flags) error {
	r.calls = append(r.calls, flags)
	if r.fail != nil {
		return r.fail(len(r.calls), flags)
	}
	return nil
}

type nudgingRecorder struct {
	recorder
	nudges int
}

func (n *nudgingRecorder) Nudge() error {
	n.nudges++
	return nil
}

func TestComposeFlags(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want Flags
	}{
		{"display", Request{KeepDisplayAwake: true}, FlagContinuous | FlagDisplayRequired},
		{"system", Request{KeepSystemAwake: true}, FlagContinuous | FlagSystemRequired},
		{"both", Request{KeepDisplayAwake: true, KeepSystemAwake: true}, FlagContinuous | FlagDisplayRequired | FlagSystemRequired},
		{"pulse implies display", Request{PulseUserPresent: true}, FlagContinuous | FlagDisplayRequired},
		{"pulse and system", Request{PulseUserPresent: true, KeepSystemAwake: true}, FlagContinuous | FlagDisplayRequired | FlagSystemRequired},
		{"empty", Request{}, FlagContinuous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeFlags(tt.req)
			assert.Equal(t, tt.want, got)
			assert.NotZero(t, got&FlagContinuous, "held flags always carry the continuous marker")
			assert.Zero(t, got&FlagUserPresent, "the pulse flag is never held")
		})
	}
}

func TestRequestValid(t *testing.T) {
	assert.False(t, Request{}.Valid())
	assert.True(t, Request{KeepDisplayAwake: true}.Valid())
	assert.True(t, Request{KeepSystemAwake: true}.Valid())
	assert.True(t, Request{PulseUserPresent: true}.Valid())
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, "continuous", ClearFlags.String())
	assert.Equal(t, "continuous|system|display", (FlagContinuous | FlagSystemRequired | FlagDisplayRequired).String())
	assert.Equal(t, "continuous|user-present", PulseFlags.String())
}

func TestControllerApply(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec, nil)

	flags := ComposeFlags(Request{KeepSystemAwake: true})
	require.NoError(t, c.Apply(flags))
	assert.Equal(t, []Flags{flags}, rec.calls)
}

func TestControllerApplyFailureDoesNotRetry(t *testing.T) {
	osErr := errors.New("access denied")
	rec := &recorder{fail: func(int, Flags) error { return osErr }}
	c := NewController(rec, nil)

	err := c.Apply(FlagContinuous | FlagDisplayRequired)
	require.Error(t, err)

	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, FlagContinuous|FlagDisplayRequired, applyErr.Flags)
	assert.ErrorIs(t, err, osErr)
	assert.Len(t, rec.calls, 1)
}

func TestControllerClearSendsContinuousOnly(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec, nil)

	require.NoError(t, c.Clear())
	assert.Equal(t, []Flags{FlagContinuous}, rec.calls)
}

func TestControllerClearIdempotent(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec, nil)

	require.NoError(t, c.Clear())
	require.NoError(t, c.Clear())
	assert.Equal(t, []Flags{ClearFlags, ClearFlags}, rec.calls)
}

func TestControllerPulse(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec, nil)

	require.NoError(t, c.PulseUserPresent())
	assert.Equal(t, []Flags{FlagContinuous | FlagUserPresent}, rec.calls)
}

func TestControllerNudge(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		c := NewController(&recorder{}, nil)
		assert.ErrorIs(t, c.Nudge(), ErrUnsupported)
	})

	t.Run("supported", func(t *testing.T) {
		n := &nudgingRecorder{}
		c := NewController(n, nil)
		require.NoError(t, c.Nudge())
		assert.Equal(t, 1, n.nudges)
		assert.Empty(t, n.calls, "nudging does not touch the execution state")
	})
}

func TestNewReturnsPrimitive(t *testing.T) {
	require.NotNil(t, New())
}
