// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package cpuid

import (
	"errors"
	"testing"
)

func TestParseVendor(t *testing.T) {
	tests := []struct {
		in      string
		want    Vendor
		wantErr error
	}{
		{"", VendorAuto, nil},
		{"auto", VendorAuto, nil},
		{"Intel", VendorIntel, nil},
		{" amd ", VendorAMD, nil},
		{"via", VendorUnknown, ErrUnknownVendor},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVendor(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseVendor(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("ParseVendor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveKeepsExplicitVendor(t *testing.T) {
	if got := VendorAMD.Resolve(); got != VendorAMD {
		t.Errorf("VendorAMD.Resolve() = %q", got)
	}

	if got := VendorAuto.Resolve(); got == VendorAuto {
		t.Errorf("VendorAuto.Resolve() must not stay auto")
	}
}

func TestStaticMissingLeafIsZero(t *testing.T) {
	s := Static{0x40000000: {EAX: 1}}

	if got := s.Query(0x40000001, 0); got != (Regs{}) {
		t.Errorf("missing leaf = %v, want zero", got)
	}

	if got := s.Query(0x40000000, 7); got.EAX != 1 {
		t.Errorf("present leaf = %v", got)
	}
}
