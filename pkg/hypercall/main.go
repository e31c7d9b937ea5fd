// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package hypercall issues KVM hypercalls from a guest.
//
// A hypercall traps to the host with the hypercall number in RAX and up to
// four parameters in RBX, RCX, RDX and RSI. The result comes back in RAX.
// Intel CPUs trap on VMCALL and AMD CPUs on VMMCALL; the instruction is
// chosen once, when the Gateway is created.
//
// The trap is only legal at CPL 0. From user space it raises #UD and the
// process dies with SIGILL, so ordinary programs should use NewWithTrap.
//
// - https://docs.kernel.org/virt/kvm/x86/hypercalls.html
package hypercall
