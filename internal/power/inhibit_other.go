//go:build !darwin && !linux && !windows

package power

type unsupportedPrimitive struct{}

func newPrimitive() Primitive {
	return unsupportedPrimitive{}
}

func (unsupportedPrimitive) SetExecutionState(Flags) error { return ErrUnsupported }
