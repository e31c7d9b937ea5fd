// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package feature models the paravirtual features a hypervisor advertises as
// a set of named flags. The raw CPUID bit layout is confined to Decode.
package feature

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strings"

	"github.com/siderolabs/pvguest/pkg/kvmabi"
)

// Feature is a single paravirtual feature.
type Feature uint8

// Known features. The order is internal and has no relation to CPUID bits.
const (
	AsyncPreemptionHint Feature = iota
	PVUnhalt
	PVSendIPI
	PVSchedYield
	Clocksource
	Clocksource2
	ClocksourceStable
	NopIODelay
	MMUOp
	AsyncPF
	AsyncPFVMExit
	AsyncPFInt
	StealTime
	PVEOI
	PVTLBFlush
	PollControl
	MSIExtDestID
	HCMapGPARange
	MigrationControl

	numFeatures
)

var names = [numFeatures]string{
	AsyncPreemptionHint: "async_preemption_hint",
	PVUnhalt:            "pv_unhalt",
	PVSendIPI:           "pv_send_ipi",
	PVSchedYield:        "pv_sched_yield",
	Clocksource:         "clocksource",
	Clocksource2:        "clocksource2",
	ClocksourceStable:   "clocksource_stable",
	NopIODelay:          "nop_io_delay",
	MMUOp:               "mmu_op",
	AsyncPF:             "async_pf",
	AsyncPFVMExit:       "async_pf_vmexit",
	AsyncPFInt:          "async_pf_int",
	StealTime:           "steal_time",
	PVEOI:               "pv_eoi",
	PVTLBFlush:          "pv_tlb_flush",
	PollControl:         "poll_control",
	MSIExtDestID:        "msi_ext_dest_id",
	HCMapGPARange:       "hc_map_gpa_range",
	MigrationControl:    "migration_control",
}

// String returns the feature name.
func (f Feature) String() string {
	if f < numFeatures {
		return names[f]
	}

	return "unknown"
}

// All returns every known feature.
func All() []Feature {
	all := make([]Feature, 0, numFeatures)
	for f := range numFeatures {
		all = append(all, f)
	}

	return all
}

// Set is a set of features. The zero value is the empty set.
type Set struct {
	bits uint32
}

// Of returns a set holding the given features.
func Of(fs ...Feature) Set {
	var s Set
	for _, f := range fs {
		s = s.With(f)
	}

	return s
}

// Has reports whether f is in the set.
func (s Set) Has(f Feature) bool {
	return f < numFeatures && s.bits&(1<<f) != 0
}

// With returns the set with f added.
func (s Set) With(f Feature) Set {
	if f < numFeatures {
		s.bits |= 1 << f
	}

	return s
}

// Without returns the set with f removed.
func (s Set) Without(f Feature) Set {
	if f < numFeatures {
		s.bits &^= 1 << f
	}

	return s
}

// Empty reports whether the set holds no feature.
func (s Set) Empty() bool {
	return s.bits == 0
}

// Len returns the number of features in the set.
func (s Set) Len() int {
	return bits.OnesCount32(s.bits)
}

// List returns the features in the set in declaration order.
func (s Set) List() []Feature {
	list := make([]Feature, 0, s.Len())

	for _, f := range All() {
		if s.Has(f) {
			list = append(list, f)
		}
	}

	return list
}

// Names returns the feature names in the set.
func (s Set) Names() []string {
	list := s.List()
	out := make([]string, len(list))

	for i, f := range list {
		out[i] = f.String()
	}

	return out
}

// String joins the feature names with commas.
func (s Set) String() string {
	return strings.Join(s.Names(), ",")
}

// MarshalYAML renders the set as a list of names.
func (s Set) MarshalYAML() (any, error) {
	return s.Names(), nil
}

var eaxBits = []struct {
	mask    uint32
	feature Feature
}{
	{kvmabi.FeatureClocksource, Clocksource},
	{kvmabi.FeatureNopIODelay, NopIODelay},
	{kvmabi.FeatureMMUOp, MMUOp},
	{kvmabi.FeatureClocksource2, Clocksource2},
	{kvmabi.FeatureAsyncPF, AsyncPF},
	{kvmabi.FeatureStealTime, StealTime},
	{kvmabi.FeaturePVEOI, PVEOI},
	{kvmabi.FeaturePVUnhalt, PVUnhalt},
	{kvmabi.FeaturePVTLBFlush, PVTLBFlush},
	{kvmabi.FeatureAsyncPFVMExit, AsyncPFVMExit},
	{kvmabi.FeaturePVSendIPI, PVSendIPI},
	{kvmabi.FeaturePollControl, PollControl},
	{kvmabi.FeaturePVSchedYield, PVSchedYield},
	{kvmabi.FeatureAsyncPFInt, AsyncPFInt},
	{kvmabi.FeatureMSIExtDestID, MSIExtDestID},
	{kvmabi.FeatureHCMapGPARange, HCMapGPARange},
	{kvmabi.FeatureMigrationControl, MigrationControl},
	{kvmabi.FeatureClocksourceStableBit, ClocksourceStable},
}

// Decode converts the EAX (features) and EDX (hints) registers of the
// features leaf into a set. Unknown bits are dropped.
func Decode(eax, edx uint32) Set {
	var s Set

	for _, b := range eaxBits {
		if eax&b.mask != 0 {
			s = s.With(b.feature)
		}
	}

	if edx&kvmabi.HintsRealtime != 0 {
		s = s.With(AsyncPreemptionHint)
	}

	return s
}

// Encode is the inverse of Decode: it returns the EAX and EDX values a host
// advertising s would report.
func Encode(s Set) (eax, edx uint32) {
	for _, b := range eaxBits {
		if s.Has(b.feature) {
			eax |= b.mask
		}
	}

	if s.Has(AsyncPreemptionHint) {
		edx |= kvmabi.HintsRealtime
	}

	return eax, edx
}

// ErrUnknownFeature is returned by Parse for names that are not features.
var ErrUnknownFeature = errors.New("unknown feature")

// Parse builds a set from feature names.
func Parse(list []string) (Set, error) {
	var s Set

	for _, n := range list {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}

		idx := slices.Index(names[:], n)
		if idx < 0 {
			return Set{}, fmt.Errorf("%q: %w", n, ErrUnknownFeature)
		}

		s = s.With(Feature(idx))
	}

	return s, nil
}
