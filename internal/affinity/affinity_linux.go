// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// cpuSetSize is CPU_SETSIZE, the capacity of unix.CPUSet.
const cpuSetSize = 1024

// Pin locks the calling goroutine to its OS thread and binds the thread to
// cpu. The returned function restores the previous mask and unlocks.
func Pin(cpu int) (func(), error) {
	runtime.LockOSThread()

	var old unix.CPUSet
	if err := unix.SchedGetaffinity(0, &old); err != nil {
		runtime.UnlockOSThread()

		return nil, fmt.Errorf("error reading affinity: %w", err)
	}

	var set unix.CPUSet

	set.Set(cpu)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()

		return nil, fmt.Errorf("error pinning to cpu %d: %w", cpu, err)
	}

	return func() {
		// a thread that cannot be restored must not go back to the pool
		if err := unix.SchedSetaffinity(0, &old); err != nil {
			return
		}

		runtime.UnlockOSThread()
	}, nil
}

// Current returns the CPU the calling thread is bound to.
func Current() (int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return -1, fmt.Errorf("error reading affinity: %w", err)
	}

	if set.Count() != 1 {
		return -1, ErrNotPinned
	}

	for cpu := range cpuSetSize {
		if set.IsSet(cpu) {
			return cpu, nil
		}
	}

	return -1, ErrNotPinned
}
