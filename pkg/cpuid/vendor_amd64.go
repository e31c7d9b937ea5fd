// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package cpuid

import (
	"sync"

	gvcpuid "gvisor.dev/gvisor/pkg/cpuid"
)

var hostOnce sync.Once

// initHost fills gVisor's host feature set. HostFeatureSet reads as empty
// until this has run.
func initHost() {
	hostOnce.Do(gvcpuid.Initialize)
}

// HostVendor returns the vendor of the host CPU.
func HostVendor() Vendor {
	initHost()

	fs := gvcpuid.HostFeatureSet()

	switch {
	case fs.Intel():
		return VendorIntel
	case fs.AMD():
		return VendorAMD
	default:
		return VendorUnknown
	}
}

// HypervisorBit reports CPUID.1:ECX[31], which every hypervisor sets for its
// guests. It says nothing about which hypervisor is present.
func HypervisorBit() bool {
	initHost()

	fs := gvcpuid.HostFeatureSet()

	return fs.HasFeature(gvcpuid.X86FeatureHypervisor)
}
