// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package kvmabi

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// The records below mirror packed structures shared with the hypervisor. Go's
// natural alignment produces the same layout, which layout_test.go checks.

// Record sizes in bytes.
const (
	WallClockSize    = 12
	VCPUTimeInfoSize = 32
	StealTimeSize    = 64
)

// ErrShortRecord is returned when a buffer does not hold a whole record.
var ErrShortRecord = errors.New("buffer too short for record")

// WallClock is written by the host at the address given to MSRWallClockNew.
type WallClock struct {
	Version uint32
	Sec     uint32
	Nsec    uint32
}

// VCPUTimeInfo is the per-vCPU clock record registered with MSRSystemTimeNew.
type VCPUTimeInfo struct {
	Version        uint32
	Pad0           uint32
	TSCTimestamp   uint64
	SystemTime     uint64
	TSCToSystemMul uint32
	TSCShift       int8
	Flags          uint8
	Pad            [2]uint8
}

// StealTime is the per-vCPU accounting record registered with MSRStealTime.
type StealTime struct {
	Steal     uint64
	Version   uint32
	Flags     uint32
	Preempted uint8
	U8Pad     [3]uint8
	Pad       [11]uint32
}

func checkLen(name string, b []byte, want int) error {
	if len(b) < want {
		return fmt.Errorf("%s: have %d bytes, need %d: %w", name, len(b), want, ErrShortRecord)
	}

	return nil
}

// UnmarshalBinary decodes a little-endian snapshot of the record.
func (w *WallClock) UnmarshalBinary(b []byte) error {
	if err := checkLen("wall clock", b, WallClockSize); err != nil {
		return err
	}

	w.Version = binary.LittleEndian.Uint32(b[0:])
	w.Sec = binary.LittleEndian.Uint32(b[4:])
	w.Nsec = binary.LittleEndian.Uint32(b[8:])

	return nil
}

// UnmarshalBinary decodes a little-endian snapshot of the record.
func (t *VCPUTimeInfo) UnmarshalBinary(b []byte) error {
	if err := checkLen("vcpu time info", b, VCPUTimeInfoSize); err != nil {
		return err
	}

	t.Version = binary.LittleEndian.Uint32(b[0:])
	t.Pad0 = binary.LittleEndian.Uint32(b[4:])
	t.TSCTimestamp = binary.LittleEndian.Uint64(b[8:])
	t.SystemTime = binary.LittleEndian.Uint64(b[16:])
	t.TSCToSystemMul = binary.LittleEndian.Uint32(b[24:])
	t.TSCShift = int8(b[28])
	t.Flags = b[29]
	copy(t.Pad[:], b[30:32])

	return nil
}

// UnmarshalBinary decodes a little-endian snapshot of the record.
func (s *StealTime) UnmarshalBinary(b []byte) error {
	if err := checkLen("steal time", b, StealTimeSize); err != nil {
		return err
	}

	s.Steal = binary.LittleEndian.Uint64(b[0:])
	s.Version = binary.LittleEndian.Uint32(b[8:])
	s.Flags = binary.LittleEndian.Uint32(b[12:])
	s.Preempted = b[16]
	copy(s.U8Pad[:], b[17:20])

	for i := range s.Pad {
		s.Pad[i] = binary.LittleEndian.Uint32(b[20+4*i:])
	}

	return nil
}
