// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

//go:build !amd64

package cpuid

// HostVendor returns VendorUnknown outside amd64.
func HostVendor() Vendor {
	return VendorUnknown
}

// HypervisorBit is always false outside amd64.
func HypervisorBit() bool {
	return false
}
