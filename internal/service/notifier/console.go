package notifier

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// ConsoleSink echoes messages to a writer, one per line.
type ConsoleSink struct {
	w  io.Writer
	mu sync.Mutex
}

// NewConsoleSink creates a sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Write prints the message. Output errors are ignored.
func (c *ConsoleSink) Write(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = fmt.Fprintln(c.w, message)
}

// StdoutSink returns a sink on stdout when the agent runs interactively
// outside production, and nil otherwise.
func StdoutSink(production bool) *ConsoleSink {
	if production {
		return nil
	}

	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}

	return NewConsoleSink(os.Stdout)
}
