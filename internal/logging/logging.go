// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	Level  string    // zerolog level name (default info)
	Format string    // console (default) or json
	Writer io.Writer // Destination (default os.Stderr)
}

// New returns a timestamped logger. The console format is meant for
// people, json for log collectors and the IPC server, whose stdout is
// reserved for responses.
func New(opts Options) (zerolog.Logger, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	if opts.Level == "" {
		opts.Level = zerolog.InfoLevel.String()
	}
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}

	var w io.Writer
	switch opts.Format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: opts.Writer, TimeFormat: time.TimeOnly}
	case "json":
		w = opts.Writer
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", opts.Format)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
