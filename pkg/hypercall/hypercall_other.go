// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

//go:build !amd64

package hypercall

// There is no KVM x86 hypercall outside amd64.

func vmcall(nr, p0, p1, p2, p3 uintptr) uintptr {
	return Unavailable(nr, p0, p1, p2, p3)
}

func vmmcall(nr, p0, p1, p2, p3 uintptr) uintptr {
	return Unavailable(nr, p0, p1, p2, p3)
}
