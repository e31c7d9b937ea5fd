// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package percpu holds one paravirtual feature record per logical CPU.
//
// Every slot is owned by the CPU it describes: only that CPU writes it during
// bring-up and only that CPU reads or updates it afterwards. The store does no
// locking.
package percpu

import (
	"errors"
	"fmt"

	"github.com/siderolabs/pvguest/pkg/feature"
)

var (
	// ErrInvalidCapacity is returned when a store would hold no slot.
	ErrInvalidCapacity = errors.New("store capacity must be at least one cpu")

	// ErrCPUOutOfRange is returned for a cpu index outside the store.
	ErrCPUOutOfRange = errors.New("cpu index out of range")
)

// Record is the feature state of one logical CPU.
type Record struct {
	// Active is set once KVM has been identified on this CPU.
	Active bool
	// Features advertised by the hypervisor; empty while inactive.
	Features feature.Set
	// SpinCount counts busy-wait iterations since the last yield.
	SpinCount uint32
}

// Reset returns the record to the "no hypervisor" state.
func (r *Record) Reset() {
	*r = Record{}
}

// Store is a fixed-capacity array of records indexed by logical CPU.
type Store struct {
	slots []Record
}

// NewStore allocates a store for cpus logical CPUs.
func NewStore(cpus int) (*Store, error) {
	if cpus < 1 {
		return nil, fmt.Errorf("%d: %w", cpus, ErrInvalidCapacity)
	}

	return &Store{slots: make([]Record, cpus)}, nil
}

// Len returns the number of slots.
func (s *Store) Len() int {
	return len(s.slots)
}

// Slot returns the record of cpu.
func (s *Store) Slot(cpu int) (*Record, error) {
	if cpu < 0 || cpu >= len(s.slots) {
		return nil, fmt.Errorf("cpu %d, capacity %d: %w", cpu, len(s.slots), ErrCPUOutOfRange)
	}

	return &s.slots[cpu], nil
}

// Snapshot returns a copy of the record of cpu.
func (s *Store) Snapshot(cpu int) (Record, error) {
	r, err := s.Slot(cpu)
	if err != nil {
		return Record{}, err
	}

	return *r, nil
}

// Indexer returns the logical index of the CPU the caller runs on.
type Indexer interface {
	Current() int
}

// IndexFunc adapts a function to an Indexer.
type IndexFunc func() int

// Current implements Indexer.
func (f IndexFunc) Current() int {
	return f()
}

// Fixed is an Indexer that always reports the same CPU, for code that has
// already been bound to one CPU.
type Fixed int

// Current implements Indexer.
func (f Fixed) Current() int {
	return int(f)
}
