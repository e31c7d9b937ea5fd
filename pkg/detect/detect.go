// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package detect identifies KVM on the current CPU and records the
// paravirtual features it advertises.
package detect

import (
	"log/slog"

	"github.com/siderolabs/pvguest/internal/util"
	"github.com/siderolabs/pvguest/pkg/cpuid"
	"github.com/siderolabs/pvguest/pkg/feature"
	"github.com/siderolabs/pvguest/pkg/kvmabi"
	"github.com/siderolabs/pvguest/pkg/percpu"
)

// Detector fills the per-CPU store during bring-up.
type Detector struct {
	logger  *slog.Logger
	query   cpuid.Querier
	indexer percpu.Indexer
	store   *percpu.Store
}

// New returns a detector writing into store.
func New(logger *slog.Logger, query cpuid.Querier, indexer percpu.Indexer, store *percpu.Store) *Detector {
	return &Detector{
		logger:  logger,
		query:   query,
		indexer: indexer,
		store:   store,
	}
}

// Identify checks the signature leaf. It returns the highest hypervisor leaf
// and whether the signature is KVM's with the features leaf available.
func Identify(q cpuid.Querier) (uint32, bool) {
	sig := q.Query(kvmabi.CPUIDSignature, 0)

	if sig.EBX != kvmabi.SignatureEBX || sig.ECX != kvmabi.SignatureECX || sig.EDX != kvmabi.SignatureEDX {
		return sig.EAX, false
	}

	return sig.EAX, sig.EAX >= kvmabi.CPUIDFeatures
}

// DetectCurrent runs detection for the calling CPU and stores the result in
// its slot. It must run on that CPU before the first spin-wait or yield there.
// An absent hypervisor is not an error: the record is left inactive.
func (d *Detector) DetectCurrent() (percpu.Record, error) {
	cpu := d.indexer.Current()

	rec, err := d.store.Slot(cpu)
	if err != nil {
		return percpu.Record{}, err
	}

	rec.Reset()

	l := d.logger.With("cpu", cpu)

	maxLeaf, ok := Identify(d.query)
	if !ok {
		l.Debug("kvm not detected", "max_leaf", maxLeaf)

		return *rec, nil
	}

	regs := d.query.Query(kvmabi.CPUIDFeatures, 0)
	util.TraceLog(l, "features leaf", "regs", regs.String())

	rec.Features = feature.Decode(regs.EAX, regs.EDX)
	rec.Active = true

	l.Debug("kvm detected", "max_leaf", maxLeaf, "features", rec.Features.String())

	return *rec, nil
}
