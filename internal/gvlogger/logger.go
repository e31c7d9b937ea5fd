// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package gvlogger routes messages from gVisor packages (used for CPU
// vendor identification) into log/slog.
package gvlogger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gvlog "gvisor.dev/gvisor/pkg/log"
)

// Emitter implements gVisor's log.Emitter on top of slog.Logger.
type Emitter struct {
	logger *slog.Logger
}

// New initializes the wrapper around slog.Logger.
func New(logger *slog.Logger) *Emitter {
	return &Emitter{
		logger: logger,
	}
}

// Emit implements gvlog.Emitter. gVisor's levels map to slog's warn, info and
// debug; the timestamp is dropped because slog stamps records itself.
func (e *Emitter) Emit(_ int, level gvlog.Level, _ time.Time, format string, args ...any) {
	e.logger.Log(context.Background(), slogLevel(level), fmt.Sprintf(format, args...))
}

func slogLevel(level gvlog.Level) slog.Level {
	switch level {
	case gvlog.Warning:
		return slog.LevelWarn
	case gvlog.Info:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Install makes e the target of gVisor's global logger, at a verbosity that
// matches level.
func Install(logger *slog.Logger, level slog.Level) {
	gvlog.SetTarget(New(logger))

	switch {
	case level <= slog.LevelDebug:
		gvlog.SetLevel(gvlog.Debug)
	case level <= slog.LevelInfo:
		gvlog.SetLevel(gvlog.Info)
	default:
		gvlog.SetLevel(gvlog.Warning)
	}
}
