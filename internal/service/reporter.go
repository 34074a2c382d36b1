package service

import (
	"fmt"
	"io"
	"sync"
)

// Reporter writes user-facing status lines.
type Reporter interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// consoleReporter writes informational lines to out and problems to errOut.
type consoleReporter struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewConsoleReporter creates a Reporter writing to the given streams.
func NewConsoleReporter(out, errOut io.Writer) Reporter {
	return &consoleReporter{out: out, errOut: errOut}
}

func (r *consoleReporter) Info(msg string) {
	r.write(r.out, "", msg)
}

func (r *consoleReporter) Warning(msg string) {
	r.write(r.errOut, "Warning: ", msg)
}

func (r *consoleReporter) Error(msg string) {
	r.write(r.errOut, "Error: ", msg)
}

func (r *consoleReporter) write(w io.Writer, prefix, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	//nolint:errcheck // Console output failures are not actionable
	fmt.Fprintf(w, "%s%s\n", prefix, msg)
}
