// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package affinity

// Pin is not available outside Linux.
func Pin(_ int) (func(), error) {
	return nil, ErrUnsupported
}

// Current is not available outside Linux.
func Current() (int, error) {
	return -1, ErrUnsupported
}
