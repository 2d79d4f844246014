package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// ANSI color/style codes
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	yellow = "\033[33m"
	red    = "\033[31m"
	brown  = "\033[38;5;130m"
	white  = "\033[97m"
)

var (
	// out receives status lines; errOut receives fatal diagnostics.
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

// SetOutput redirects status lines and diagnostics.
func SetOutput(status, diagnostics io.Writer) {
	out = status
	errOut = diagnostics
}

// isTTY reports whether w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// s wraps text with ANSI codes only when w is a TTY.
func s(w io.Writer, codes, text string) string {
	if !isTTY(w) {
		return text
	}
	return codes + text + reset
}

var cup = []string{
	`    ((`,
	`     ))     ((`,
	`  _______)___`,
	` /            \`,
	`|   _     _    |`,
	`|  |_|   |_|   |`,
	` \            /`,
	`  -------------`,
	`   \         /`,
	`    \_______/`,
}

// Banner prints the coffee cup and version.
func Banner(version string) {
	fmt.Fprintln(out)
	for _, line := range cup {
		fmt.Fprintf(out, "  %s\n", s(out, brown, line))
	}
	fmt.Fprintf(out, "\n  %s %s\n", s(out, bold+cyan, "caffeinate"), s(out, dim, "v"+version))
}

// KeyValue prints a labeled line:  ▸ label  value
func KeyValue(label, value string) {
	fmt.Fprintf(out, "  %s %-11s %s\n", s(out, cyan, "▸"), s(out, dim, label), s(out, white, value))
}

// Info prints an info line:  ● message
func Info(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	fmt.Fprintf(out, "  %s %s\n", s(out, cyan, "●"), msg)
}

// Success prints a success line:  ✔ message
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	fmt.Fprintf(out, "  %s %s\n", s(out, green, "✔"), msg)
}

// Warn prints a warning line:  ▲ message
func Warn(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	fmt.Fprintf(out, "  %s %s\n", s(out, yellow, "▲"), msg)
}

// Error prints a one-line diagnostic to the diagnostics stream.
func Error(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	fmt.Fprintf(errOut, "%s %s\n", s(errOut, red, "caffeinate:"), msg)
}

var meterStages = []string{
	"[█         ] Brewing…",
	"[███       ] Percolating",
	"[█████     ] Smells good",
	"[███████   ] Almost ☕",
	"[█████████ ] Caffeine!",
}

// Meter prints the coffee meter for the n-th re-assertion (1-based).
// The stages cycle every five ticks.
func Meter(n int, elapsed time.Duration) {
	if n < 1 {
		n = 1
	}
	stage := meterStages[(n-1)%len(meterStages)]
	fmt.Fprintf(out, "  %s %s\n", s(out, brown, stage), s(out, dim, elapsed.Round(time.Second).String()))
}

// Separator prints a dim horizontal line.
func Separator() {
	fmt.Fprintf(out, "  %s\n", s(out, dim, strings.Repeat("─", 48)))
}

// Dim wraps text in dim style (for use in other formatted output).
func Dim(text string) string {
	return s(out, dim, text)
}
