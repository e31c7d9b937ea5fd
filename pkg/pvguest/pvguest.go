// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package pvguest wires detection, the per-CPU store and the spin engine
// together behind the three calls a lock or scheduler subsystem needs:
// InitFeatureDetection during CPU bring-up, SpinWait in busy-wait loops and
// SchedYield as an explicit yield.
package pvguest

import (
	"fmt"
	"log/slog"

	"github.com/siderolabs/pvguest/pkg/cpuid"
	"github.com/siderolabs/pvguest/pkg/detect"
	"github.com/siderolabs/pvguest/pkg/percpu"
	"github.com/siderolabs/pvguest/pkg/spin"
)

// Config holds the build-time knobs.
type Config struct {
	// MaxCPUs is the number of per-CPU slots.
	MaxCPUs int
	// SpinThreshold is the number of spins between yields. Zero selects
	// spin.DefaultThreshold.
	SpinThreshold uint32
	// Pauser replaces the hardware pause when set.
	Pauser spin.Pauser
}

// Guest is the paravirtual integration of one guest.
type Guest struct {
	logger   *slog.Logger
	store    *percpu.Store
	detector *detect.Detector
	engine   *spin.Engine
}

// New builds a guest. Nothing is detected until InitFeatureDetection runs on
// each CPU.
func New(logger *slog.Logger, cfg Config, q cpuid.Querier, idx percpu.Indexer, hc spin.Hypercaller) (*Guest, error) {
	store, err := percpu.NewStore(cfg.MaxCPUs)
	if err != nil {
		return nil, fmt.Errorf("error allocating per-cpu store: %w", err)
	}

	var opts []spin.Option

	if cfg.SpinThreshold != 0 {
		opts = append(opts, spin.WithThreshold(cfg.SpinThreshold))
	}

	if cfg.Pauser != nil {
		opts = append(opts, spin.WithPauser(cfg.Pauser))
	}

	engine, err := spin.New(store, idx, hc, opts...)
	if err != nil {
		return nil, fmt.Errorf("error configuring spin engine: %w", err)
	}

	logger.Debug("initialized", "max_cpus", cfg.MaxCPUs, "spin_threshold", engine.Threshold())

	return &Guest{
		logger:   logger,
		store:    store,
		detector: detect.New(logger.With("module", "detect"), q, idx, store),
		engine:   engine,
	}, nil
}

// InitFeatureDetection detects the hypervisor on the calling CPU. Call it
// once per CPU during bring-up, before that CPU spins or yields.
func (g *Guest) InitFeatureDetection() error {
	if _, err := g.detector.DetectCurrent(); err != nil {
		return fmt.Errorf("feature detection failed: %w", err)
	}

	return nil
}

// SpinWait is called once per busy-wait iteration.
func (g *Guest) SpinWait() {
	g.engine.SpinWait()
}

// SchedYield yields to the host scheduler, or returns spin.ErrNotSupported.
func (g *Guest) SchedYield() error {
	return g.engine.SchedYield()
}

// Record returns a copy of the record of cpu.
func (g *Guest) Record(cpu int) (percpu.Record, error) {
	return g.store.Snapshot(cpu)
}

// SpinThreshold returns the number of spins between yields in effect.
func (g *Guest) SpinThreshold() uint32 {
	return g.engine.Threshold()
}

// MaxCPUs returns the number of per-CPU slots.
func (g *Guest) MaxCPUs() int {
	return g.store.Len()
}
