// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package kvmabi holds the guest-visible KVM paravirtual ABI: CPUID leaves,
// feature bits, hypercall numbers, synthetic MSRs, error codes and the
// fixed-layout records the hypervisor publishes in guest memory.
//
// References:
//
// - https://docs.kernel.org/virt/kvm/x86/cpuid.html
// - https://docs.kernel.org/virt/kvm/x86/hypercalls.html
// - https://docs.kernel.org/virt/kvm/x86/msr.html
package kvmabi
