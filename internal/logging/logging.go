// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Supported log formats (from config: log_format)
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds a logger writing to w in the given format.
// Debug lowers the level from Info to Debug.
func New(w io.Writer, format string, debug bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	switch strings.ToLower(format) {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Setup builds a logger with New and installs it as the slog default
func Setup(w io.Writer, format string, debug bool) error {
	logger, err := New(w, format, debug)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
