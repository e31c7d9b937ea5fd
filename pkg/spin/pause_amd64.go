// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package spin

// pause executes the PAUSE instruction, implemented in pause_amd64.s.
//
//go:noescape
func pause()
