// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package affinity binds goroutines to logical CPUs, so that per-CPU work such
// as feature detection runs on the CPU it describes.
package affinity

import "errors"

var (
	// ErrNotPinned is returned when the calling thread may run on several CPUs.
	ErrNotPinned = errors.New("thread is not pinned to a single cpu")

	// ErrUnsupported is returned on platforms without thread affinity.
	ErrUnsupported = errors.New("cpu affinity is not supported on this platform")
)

// Indexer reports the CPU the calling goroutine is pinned to. It returns -1
// when the goroutine is not pinned, which every per-CPU store rejects.
type Indexer struct{}

// Current implements percpu.Indexer.
func (Indexer) Current() int {
	cpu, err := Current()
	if err != nil {
		return -1
	}

	return cpu
}
