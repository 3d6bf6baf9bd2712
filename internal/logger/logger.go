// Package logger builds the charm loggers shared by the server and the CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// New returns a logger writing to stderr at level in format ("text",
// "json" or "logfmt").
func New(level, format string) (*log.Logger, error) {
	return NewTo(os.Stderr, level, format)
}

func NewTo(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	var f log.Formatter
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		f = log.TextFormatter
	case "json":
		f = log.JSONFormatter
	case "logfmt":
		f = log.LogfmtFormatter
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       f,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}), nil
}

// Discard is a logger for tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
