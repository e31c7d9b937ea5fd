// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package spin decides, on every busy-wait iteration of a lock, whether to
// pause the core or ask the host scheduler to run something else.
//
// A vCPU spinning on a lock may be waiting for a holder the host has
// descheduled. After Threshold iterations the engine issues a SCHED_YIELD
// hypercall, unless the host promises not to preempt vCPUs
// (async preemption hint) or does not offer the hypercall at all.
package spin

import (
	"errors"
	"fmt"

	"github.com/siderolabs/pvguest/pkg/feature"
	"github.com/siderolabs/pvguest/pkg/kvmabi"
	"github.com/siderolabs/pvguest/pkg/percpu"
)

// DefaultThreshold is the number of busy-wait iterations between yields.
const DefaultThreshold uint32 = 4000

var (
	// ErrNotSupported is returned by SchedYield when no yield hypercall
	// should be issued on this CPU.
	ErrNotSupported = errors.New("pv sched yield not supported")

	// ErrInvalidThreshold is returned for a zero threshold.
	ErrInvalidThreshold = errors.New("spin threshold must be at least 1")
)

// Hypercaller issues a hypercall without parameters.
type Hypercaller interface {
	Call0(nr uintptr) uintptr
}

// Pauser executes one hardware pause.
type Pauser interface {
	Pause()
}

// PauseFunc adapts a function to a Pauser.
type PauseFunc func()

// Pause implements Pauser.
func (f PauseFunc) Pause() {
	f()
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold sets the number of spins before a yield.
func WithThreshold(n uint32) Option {
	return func(e *Engine) {
		e.threshold = n
	}
}

// WithPauser replaces the hardware pause.
func WithPauser(p Pauser) Option {
	return func(e *Engine) {
		e.pause = p
	}
}

// Engine is the spin-wait policy. It keeps no state of its own: the spin
// counter lives in the record of the CPU that calls it.
type Engine struct {
	store     *percpu.Store
	indexer   percpu.Indexer
	hc        Hypercaller
	pause     Pauser
	threshold uint32
}

// New returns an engine reading records from store.
func New(store *percpu.Store, indexer percpu.Indexer, hc Hypercaller, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:     store,
		indexer:   indexer,
		hc:        hc,
		pause:     PauseFunc(pause),
		threshold: DefaultThreshold,
	}

	for _, o := range opts {
		o(e)
	}

	if e.threshold == 0 {
		return nil, ErrInvalidThreshold
	}

	return e, nil
}

// Threshold returns the configured threshold.
func (e *Engine) Threshold() uint32 {
	return e.threshold
}

// yieldUseful reports whether a SCHED_YIELD hypercall can help on the CPU
// described by rec.
func yieldUseful(rec *percpu.Record) bool {
	return rec.Active && rec.Features.Has(feature.PVSchedYield) && !rec.Features.Has(feature.AsyncPreemptionHint)
}

// Escalates reports whether SpinWait and SchedYield issue hypercalls on a
// CPU described by rec.
func Escalates(rec percpu.Record) bool {
	return yieldUseful(&rec)
}

// SpinWait is called once per iteration of a busy-wait loop.
//
// A CPU outside the store is treated like bare metal.
func (e *Engine) SpinWait() {
	rec, err := e.store.Slot(e.indexer.Current())
	if err != nil || !yieldUseful(rec) {
		e.pause.Pause()

		return
	}

	e.pause.Pause()
	rec.SpinCount++

	if rec.SpinCount >= e.threshold {
		e.hc.Call0(kvmabi.HCSchedYield)
		rec.SpinCount = 0
	}
}

// SchedYield asks the host to run another vCPU. It returns ErrNotSupported
// when the hypervisor is absent, hints that vCPUs are not preempted, or does
// not advertise the hypercall. The hypercall result is not interpreted.
func (e *Engine) SchedYield() error {
	rec, err := e.store.Slot(e.indexer.Current())
	if err != nil {
		return fmt.Errorf("sched yield: %w", err)
	}

	if !yieldUseful(rec) {
		return ErrNotSupported
	}

	e.hc.Call0(kvmabi.HCSchedYield)

	return nil
}
