// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package percpu

import (
	"errors"
	"testing"

	"github.com/siderolabs/pvguest/pkg/feature"
)

func TestNewStoreCapacity(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewStore(n); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("NewStore(%d) error = %v, want ErrInvalidCapacity", n, err)
		}
	}

	s, err := NewStore(4)
	if err != nil {
		t.Fatalf("NewStore(4): %v", err)
	}

	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestSlotBounds(t *testing.T) {
	s, err := NewStore(2)
	if err != nil {
		t.Fatal(err)
	}

	for _, cpu := range []int{-1, 2, 100} {
		if _, err := s.Slot(cpu); !errors.Is(err, ErrCPUOutOfRange) {
			t.Errorf("Slot(%d) error = %v, want ErrCPUOutOfRange", cpu, err)
		}
	}
}

func TestSlotsAreIndependent(t *testing.T) {
	s, err := NewStore(2)
	if err != nil {
		t.Fatal(err)
	}

	r0, _ := s.Slot(0)
	r0.Active = true
	r0.Features = feature.Of(feature.PVSchedYield)
	r0.SpinCount = 7

	r1, err := s.Snapshot(1)
	if err != nil {
		t.Fatal(err)
	}

	if r1 != (Record{}) {
		t.Errorf("slot 1 changed through slot 0: %+v", r1)
	}

	again, _ := s.Slot(0)
	if again != r0 {
		t.Errorf("Slot(0) must return the same record")
	}

	r0.Reset()

	if snap, _ := s.Snapshot(0); snap != (Record{}) {
		t.Errorf("Reset left %+v", snap)
	}
}

func TestIndexers(t *testing.T) {
	if Fixed(3).Current() != 3 {
		t.Errorf("Fixed(3).Current() = %d", Fixed(3).Current())
	}

	n := 0
	idx := IndexFunc(func() int { n++; return n })

	if idx.Current() != 1 || idx.Current() != 2 {
		t.Errorf("IndexFunc must call through on every Current")
	}
}
