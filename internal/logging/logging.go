// Package logging hands out per-component charmbracelet loggers and lets the
// CLI adjust all of them at once.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	loggers []*log.Logger
	out     io.Writer = os.Stderr
)

// New returns a logger prefixed with the component name. The logger stays
// registered so later SetLevel and SetFormatter calls reach it.
func New(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	loggers = append(loggers, l)
	return l
}

// SetLevel sets the level of every registered logger.
func SetLevel(level log.Level) {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range loggers {
		l.SetLevel(level)
	}
}

// SetFormatter switches every registered logger to the given formatter.
func SetFormatter(f log.Formatter) {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range loggers {
		l.SetFormatter(f)
	}
}

// SetOutput redirects every registered logger, and loggers created later.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}
