// Package logger hands out grove component loggers configured for altsync:
// one output, one level and one format shared by every component.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/grovetools/core/logging"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var debugEnabled = os.Getenv("ALTSYNC_DEBUG") == "true" || os.Getenv("DEBUG") == "true"

type settings struct {
	out        io.Writer
	verbose    bool
	jsonFormat bool
}

var (
	mu      sync.Mutex
	current = settings{out: os.Stderr}
	loggers = make(map[string]*logrus.Logger)
)

// Configure sets the output, level and formatter of every component logger,
// including the ones already handed out.
func Configure(out io.Writer, verbose, jsonFormat bool) {
	mu.Lock()
	defer mu.Unlock()

	current = settings{out: out, verbose: verbose, jsonFormat: jsonFormat}
	for _, l := range loggers {
		apply(l)
	}
}

// New returns the logger for component
func New(component string) *logrus.Entry {
	entry := logging.NewLogger(component)

	mu.Lock()
	defer mu.Unlock()
	loggers[component] = entry.Logger
	apply(entry.Logger)
	return entry
}

func apply(l *logrus.Logger) {
	// No .grove/logs file sink: altsync runs inside repository checkouts.
	l.ReplaceHooks(make(logrus.LevelHooks))
	l.SetReportCaller(false)
	l.SetOutput(current.out)

	if current.verbose || debugEnabled {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	switch {
	case current.jsonFormat:
		l.SetFormatter(&logrus.JSONFormatter{})
	case isTerminal(current.out):
		l.SetFormatter(&logging.TextFormatter{Config: logging.FormatConfig{DisableTimestamp: true}})
	default:
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
