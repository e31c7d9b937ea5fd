// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package util packages logging helpers shared by the command and libraries.
package util

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// log/slog does not implement trace logging by default, but is flexible.
const (
	LogLevelTrace = slog.Level(-8)
)

// TraceLog sends trace-level logging to log/slog.Logger.
func TraceLog(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LogLevelTrace, msg, args...)
}

// ParseLevel parses error, warning, info, debug and trace.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return LogLevelTrace, nil
	case "warning":
		return slog.LevelWarn, nil
	}

	var level slog.Level

	err := level.UnmarshalText([]byte(s))

	return level, err
}

// NewLogger returns a text logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// slog prints "DEBUG-4" for the custom level.
			if a.Key == slog.LevelKey && a.Value.Any() == LogLevelTrace {
				a.Value = slog.StringValue("TRACE")
			}

			return a
		},
	}))
}
