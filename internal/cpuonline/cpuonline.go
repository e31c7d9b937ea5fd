// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package cpuonline lists the logical CPUs the kernel has brought online.
package cpuonline

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Path is the sysfs list of online CPUs.
const Path = "/sys/devices/system/cpu/online"

// ErrInvalidList is returned for a malformed CPU list.
var ErrInvalidList = errors.New("invalid cpu list")

// Online reads Path and returns the online CPU indexes in ascending order.
func Online() ([]int, error) {
	data, err := os.ReadFile(Path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", Path, err)
	}

	return Parse(string(data))
}

// Parse parses the kernel cpulist format, e.g. "0-3,5,7-8".
func Parse(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var cpus []int

	for _, part := range strings.Split(list, ",") {
		lo, hi, isRange := strings.Cut(part, "-")

		first, err := strconv.Atoi(lo)
		if err != nil || first < 0 {
			return nil, fmt.Errorf("%q: %w", part, ErrInvalidList)
		}

		last := first

		if isRange {
			last, err = strconv.Atoi(hi)
			if err != nil || last < first {
				return nil, fmt.Errorf("%q: %w", part, ErrInvalidList)
			}
		}

		if len(cpus) > 0 && first <= cpus[len(cpus)-1] {
			return nil, fmt.Errorf("%q is not ascending: %w", part, ErrInvalidList)
		}

		for c := first; c <= last; c++ {
			cpus = append(cpus, c)
		}
	}

	return cpus, nil
}
