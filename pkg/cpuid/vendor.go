// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package cpuid

import (
	"errors"
	"fmt"
	"strings"
)

// Vendor identifies the CPU vendor, which selects the hypercall instruction.
type Vendor string

// Known vendors.
const (
	VendorAuto    Vendor = "auto"
	VendorIntel   Vendor = "intel"
	VendorAMD     Vendor = "amd"
	VendorUnknown Vendor = "unknown"
)

// ErrUnknownVendor is returned for vendor names that are not recognised.
var ErrUnknownVendor = errors.New("unknown cpu vendor")

// ParseVendor parses a vendor name as found in configuration.
func ParseVendor(s string) (Vendor, error) {
	switch v := Vendor(strings.ToLower(strings.TrimSpace(s))); v {
	case VendorAuto, VendorIntel, VendorAMD:
		return v, nil
	case "":
		return VendorAuto, nil
	default:
		return VendorUnknown, fmt.Errorf("%q: %w", s, ErrUnknownVendor)
	}
}

// Resolve turns VendorAuto into the host vendor and leaves other values alone.
func (v Vendor) Resolve() Vendor {
	if v == VendorAuto {
		return HostVendor()
	}

	return v
}
