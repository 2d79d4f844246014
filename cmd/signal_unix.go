//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// signalsToNotify returns the signals that end a session.
func signalsToNotify() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
}
