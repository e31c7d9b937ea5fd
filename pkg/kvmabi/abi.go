// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package kvmabi

// CPUID leaves reserved for the hypervisor.
const (
	CPUIDSignature uint32 = 0x40000000
	CPUIDFeatures  uint32 = 0x40000001
)

// Signature registers returned by CPUIDSignature ("KVMKVMKVM\0\0\0").
const (
	SignatureEBX uint32 = 0x4b4d564b
	SignatureECX uint32 = 0x564b4d56
	SignatureEDX uint32 = 0x4d
)

// Feature bits in EAX of CPUIDFeatures.
const (
	FeatureClocksource          uint32 = 1 << 0
	FeatureNopIODelay           uint32 = 1 << 1
	FeatureMMUOp                uint32 = 1 << 2
	FeatureClocksource2         uint32 = 1 << 3
	FeatureAsyncPF              uint32 = 1 << 4
	FeatureStealTime            uint32 = 1 << 5
	FeaturePVEOI                uint32 = 1 << 6
	FeaturePVUnhalt             uint32 = 1 << 7
	FeaturePVTLBFlush           uint32 = 1 << 9
	FeatureAsyncPFVMExit        uint32 = 1 << 10
	FeaturePVSendIPI            uint32 = 1 << 11
	FeaturePollControl          uint32 = 1 << 12
	FeaturePVSchedYield         uint32 = 1 << 13
	FeatureAsyncPFInt           uint32 = 1 << 14
	FeatureMSIExtDestID         uint32 = 1 << 15
	FeatureHCMapGPARange        uint32 = 1 << 16
	FeatureMigrationControl     uint32 = 1 << 17
	FeatureClocksourceStableBit uint32 = 1 << 24
)

// Hint bits in EDX of CPUIDFeatures.
const (
	// HintsRealtime means vCPUs are never preempted for an unlimited time.
	HintsRealtime uint32 = 1 << 0
)

// Hypercall numbers.
const (
	HCVAPICPollIRQ uintptr = 1
	HCKickCPU      uintptr = 5
	HCClockPairing uintptr = 9
	HCSendIPI      uintptr = 10
	HCSchedYield   uintptr = 11
)

// Error codes returned negated in the hypercall result register.
const (
	ENOSYS     = 1000
	EFAULT     = 14
	EINVAL     = 22
	E2BIG      = 7
	EPERM      = 1
	EOPNOTSUPP = 95
)

// Synthetic MSRs.
const (
	MSRWallClock  uint32 = 0x11
	MSRSystemTime uint32 = 0x12

	MSRWallClockNew     uint32 = 0x4b564d00
	MSRSystemTimeNew    uint32 = 0x4b564d01
	MSRAsyncPFEn        uint32 = 0x4b564d02
	MSRStealTime        uint32 = 0x4b564d03
	MSREOIEn            uint32 = 0x4b564d04
	MSRPollControl      uint32 = 0x4b564d05
	MSRAsyncPFInt       uint32 = 0x4b564d06
	MSRAsyncPFAck       uint32 = 0x4b564d07
	MSRMigrationControl uint32 = 0x4b564d08
)

// Flags of VCPUTimeInfo.Flags.
const (
	ClockTSCStable    uint8 = 1 << 0
	ClockGuestStopped uint8 = 1 << 1
)
