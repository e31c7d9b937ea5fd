// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package gvlogger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	gvlog "gvisor.dev/gvisor/pkg/log"
)

func TestEmit(t *testing.T) {
	tests := []struct {
		level gvlog.Level
		want  string
	}{
		{gvlog.Warning, "level=WARN"},
		{gvlog.Info, "level=INFO"},
		{gvlog.Debug, "level=DEBUG"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		e := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
		e.Emit(1, tt.level, time.Now(), "cpu %d: %s", 3, "hello")

		out := buf.String()
		if !strings.Contains(out, tt.want) || !strings.Contains(out, `msg="cpu 3: hello"`) {
			t.Errorf("Emit(%v) wrote %q, want %s", tt.level, out, tt.want)
		}
	}
}
