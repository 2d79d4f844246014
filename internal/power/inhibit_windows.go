//go:build windows

package power

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                    = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")

	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard = 1
	keyEventKeyUp = 0x0002
	virtualKeyF15 = 0x7E
)

// The execution state belongs to the calling thread, and goroutines
// migrate between threads. Every call is therefore serviced by a single
// goroutine locked to its OS thread for the life of the process.
type windowsPrimitive struct {
	once sync.Once
	reqs chan stateRequest
}

type stateRequest struct {
	flags  Flags
	result chan error
}

func newPrimitive() Primitive {
	return &windowsPrimitive{}
}

func (w *windowsPrimitive) SetExecutionState(flags Flags) error {
	if err := procSetThreadExecutionState.Find(); err != nil {
		return fmt.Errorf("SetThreadExecutionState: %w", ErrUnsupported)
	}
	w.once.Do(func() {
		w.reqs = make(chan stateRequest)
		go w.serve()
	})
	req := stateRequest{flags: flags, result: make(chan error, 1)}
	w.reqs <- req
	return <-req.result
}

func (w *windowsPrimitive) serve() {
	runtime.LockOSThread()
	for req := range w.reqs {
		r, _, err := procSetThreadExecutionState.Call(uintptr(req.flags))
		if r == 0 {
			req.result <- fmt.Errorf("SetThreadExecutionState(0x%08X): %w", uint32(req.flags), err)
			continue
		}
		req.result <- nil
	}
}

// keyboardInput mirrors INPUT with a KEYBDINPUT payload, padded to the
// size of the union's largest member (MOUSEINPUT).
type keyboardInput struct {
	typ uint32
	ki  keybdInput
	_   [8]byte
}

type keybdInput struct {
	vk        uint16
	scan      uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
}

// Nudge synthesizes an F15 press and release. F15 is absent from
// almost every keyboard, so applications ignore it while still seeing
// input activity.
func (w *windowsPrimitive) Nudge() error {
	if err := procSendInput.Find(); err != nil {
		return fmt.Errorf("SendInput: %w", ErrUnsupported)
	}
	in := [2]keyboardInput{
		{typ: inputKeyboard, ki: keybdInput{vk: virtualKeyF15}},
		{typ: inputKeyboard, ki: keybdInput{vk: virtualKeyF15, flags: keyEventKeyUp}},
	}
	n, _, err := procSendInput.Call(
		uintptr(len(in)),
		uintptr(unsafe.Pointer(&in[0])),
		unsafe.Sizeof(in[0]),
	)
	if int(n) != len(in) {
		return fmt.Errorf("SendInput inserted %d of %d events: %w", n, len(in), err)
	}
	return nil
}
