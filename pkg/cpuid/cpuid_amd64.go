// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package cpuid

// native executes the CPUID instruction, implemented in cpuid_amd64.s.
//
//go:noescape
func native(leaf, subleaf uint32) (eax, ebx, ecx, edx uint32)
