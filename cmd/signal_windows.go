//go:build windows

package cmd

import "os"

// signalsToNotify returns the signals that end a session.
// On Windows, we only handle Interrupt (Ctrl+C).
func signalsToNotify() []os.Signal {
	return []os.Signal{os.Interrupt}
}
