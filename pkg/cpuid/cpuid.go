// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package cpuid exposes the CPU identification query used for hypervisor
// detection.
//
// gVisor's cpuid package only answers the architectural leaves it knows about
// and filters out the hypervisor range, so the raw query is issued by a
// small assembly stub and gVisor is used for vendor identification only.
package cpuid

import "fmt"

// Regs holds the registers returned by a CPUID query.
type Regs struct {
	EAX, EBX, ECX, EDX uint32
}

// String converts the registers to string, useful for debugging.
func (r Regs) String() string {
	return fmt.Sprintf("eax=%08x ebx=%08x ecx=%08x edx=%08x", r.EAX, r.EBX, r.ECX, r.EDX)
}

// Querier issues a CPU identification query.
type Querier interface {
	Query(leaf, subleaf uint32) Regs
}

// Native queries the CPU the calling goroutine currently runs on.
type Native struct{}

// Query implements Querier.
func (Native) Query(leaf, subleaf uint32) Regs {
	eax, ebx, ecx, edx := native(leaf, subleaf)

	return Regs{EAX: eax, EBX: ebx, ECX: ecx, EDX: edx}
}

// Static answers queries from a fixed table. Missing leaves read as zero,
// like leaves above the maximum on real hardware.
type Static map[uint32]Regs

// Query implements Querier. The subleaf is ignored.
func (s Static) Query(leaf, _ uint32) Regs {
	return s[leaf]
}
