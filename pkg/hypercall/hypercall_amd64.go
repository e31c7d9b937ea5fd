// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package hypercall

// implemented in hypercall_amd64.s
func vmcall(nr, p0, p1, p2, p3 uintptr) uintptr
func vmmcall(nr, p0, p1, p2, p3 uintptr) uintptr
