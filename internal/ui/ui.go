// Package ui prints timestamped progress for the terminal. It is
// deliberately stateless: each helper formats and writes, nothing more.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

var (
	out io.Writer = os.Stdout
	err io.Writer = os.Stderr
)

// SetOutput redirects all ui output, for tests.
func SetOutput(stdout, stderr io.Writer) {
	out, err = stdout, stderr
}

func stamp() string {
	return time.Now().Format("15:04:05")
}

func Logf(format string, args ...any) {
	fmt.Fprintf(out, "[%s] %s\n", stamp(), fmt.Sprintf(format, args...))
}

func Successf(format string, args ...any) {
	fmt.Fprintf(out, "[%s] ✅ %s\n", stamp(), fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	fmt.Fprintf(out, "[%s] ⚠️  %s\n", stamp(), fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	fmt.Fprintf(err, "[%s] ❌ %s\n", stamp(), fmt.Sprintf(format, args...))
}

// Header prints a banner around a short title.
func Header(title string) {
	fmt.Fprintln(out, "╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(out, "║  %s  ║\n", title)
	fmt.Fprintln(out, "╚══════════════════════════════════════════════════════════════╝")
}

// Print writes raw output without a timestamp, for relaying remote
// command output verbatim.
func Print(s string) {
	fmt.Fprintln(out, s)
}
