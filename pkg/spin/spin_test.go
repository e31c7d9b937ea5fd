// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package spin

import (
	"errors"
	"testing"

	"github.com/siderolabs/pvguest/pkg/feature"
	"github.com/siderolabs/pvguest/pkg/kvmabi"
	"github.com/siderolabs/pvguest/pkg/percpu"
)

type fakeGateway struct {
	calls []uintptr
}

func (f *fakeGateway) Call0(nr uintptr) uintptr {
	f.calls = append(f.calls, nr)

	return 0
}

type harness struct {
	store  *percpu.Store
	gw     *fakeGateway
	pauses int
	engine *Engine
}

func newHarness(t *testing.T, rec percpu.Record, threshold uint32) *harness {
	t.Helper()

	store, err := percpu.NewStore(2)
	if err != nil {
		t.Fatal(err)
	}

	slot, _ := store.Slot(1)
	*slot = rec

	h := &harness{store: store, gw: &fakeGateway{}}

	h.engine, err = New(store, percpu.Fixed(1), h.gw,
		WithThreshold(threshold),
		WithPauser(PauseFunc(func() { h.pauses++ })),
	)
	if err != nil {
		t.Fatal(err)
	}

	return h
}

func (h *harness) spinCount() uint32 {
	rec, _ := h.store.Snapshot(1)

	return rec.SpinCount
}

func TestNewRejectsZeroThreshold(t *testing.T) {
	store, _ := percpu.NewStore(1)

	if _, err := New(store, percpu.Fixed(0), &fakeGateway{}, WithThreshold(0)); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("error = %v, want ErrInvalidThreshold", err)
	}

	e, err := New(store, percpu.Fixed(0), &fakeGateway{})
	if err != nil {
		t.Fatal(err)
	}

	if e.Threshold() != DefaultThreshold {
		t.Errorf("Threshold() = %d, want %d", e.Threshold(), DefaultThreshold)
	}
}

// Scenario A: no hypervisor, only pauses.
func TestSpinWaitBareMetal(t *testing.T) {
	h := newHarness(t, percpu.Record{}, DefaultThreshold)

	for range 10_000 {
		h.engine.SpinWait()
	}

	if len(h.gw.calls) != 0 {
		t.Errorf("issued %d hypercalls on bare metal", len(h.gw.calls))
	}

	if h.pauses != 10_000 {
		t.Errorf("pauses = %d, want 10000", h.pauses)
	}

	if h.spinCount() != 0 {
		t.Errorf("spin count = %d, want 0", h.spinCount())
	}
}

// Scenario B: the threshold-th call yields, earlier ones do not.
func TestSpinWaitEscalatesAtThreshold(t *testing.T) {
	h := newHarness(t, percpu.Record{Active: true, Features: feature.Of(feature.PVSchedYield)}, 4000)

	for i := 1; i < 4000; i++ {
		h.engine.SpinWait()

		if len(h.gw.calls) != 0 {
			t.Fatalf("call %d issued a hypercall", i)
		}
	}

	if h.spinCount() != 3999 {
		t.Fatalf("spin count = %d before threshold, want 3999", h.spinCount())
	}

	h.engine.SpinWait()

	if len(h.gw.calls) != 1 || h.gw.calls[0] != kvmabi.HCSchedYield {
		t.Fatalf("hypercalls = %v, want one SCHED_YIELD", h.gw.calls)
	}

	if h.spinCount() != 0 {
		t.Errorf("spin count = %d after yield, want 0", h.spinCount())
	}

	if h.pauses != 4000 {
		t.Errorf("pauses = %d, want 4000", h.pauses)
	}
}

func TestSpinWaitOneYieldPerThreshold(t *testing.T) {
	tests := []struct {
		threshold uint32
		calls     int
	}{
		{1, 10},
		{3, 10},
		{7, 70},
		{100, 1050},
	}

	for _, tt := range tests {
		h := newHarness(t, percpu.Record{Active: true, Features: feature.Of(feature.PVSchedYield, feature.PVUnhalt)}, tt.threshold)

		for i := 1; i <= tt.calls; i++ {
			before := len(h.gw.calls)
			h.engine.SpinWait()

			if len(h.gw.calls) != before && h.spinCount() != 0 {
				t.Fatalf("threshold %d call %d: spin count %d after yield", tt.threshold, i, h.spinCount())
			}
		}

		if want := tt.calls / int(tt.threshold); len(h.gw.calls) != want {
			t.Errorf("threshold %d, %d calls: %d yields, want %d", tt.threshold, tt.calls, len(h.gw.calls), want)
		}
	}
}

func TestSpinWaitNeverEscalates(t *testing.T) {
	tests := []struct {
		name string
		rec  percpu.Record
	}{
		{"async preemption hint", percpu.Record{Active: true, Features: feature.Of(feature.AsyncPreemptionHint, feature.PVSchedYield)}},
		{"hint without yield", percpu.Record{Active: true, Features: feature.Of(feature.AsyncPreemptionHint)}},
		{"no sched yield", percpu.Record{Active: true, Features: feature.Of(feature.PVUnhalt, feature.PVSendIPI)}},
		{"stale features while inactive", percpu.Record{Features: feature.Of(feature.PVSchedYield)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.rec.SpinCount = 5

			h := newHarness(t, tt.rec, 2)

			for range 1000 {
				h.engine.SpinWait()
			}

			if len(h.gw.calls) != 0 {
				t.Errorf("issued %d hypercalls", len(h.gw.calls))
			}

			if h.spinCount() != 5 {
				t.Errorf("spin count changed to %d", h.spinCount())
			}
		})
	}
}

func TestSpinWaitOutOfRangeCPU(t *testing.T) {
	store, _ := percpu.NewStore(1)
	gw := &fakeGateway{}
	pauses := 0

	e, err := New(store, percpu.Fixed(4), gw, WithThreshold(1), WithPauser(PauseFunc(func() { pauses++ })))
	if err != nil {
		t.Fatal(err)
	}

	e.SpinWait()

	if pauses != 1 || len(gw.calls) != 0 {
		t.Errorf("pauses = %d, hypercalls = %d; want 1, 0", pauses, len(gw.calls))
	}

	if err := e.SchedYield(); !errors.Is(err, percpu.ErrCPUOutOfRange) {
		t.Errorf("SchedYield error = %v, want ErrCPUOutOfRange", err)
	}
}

// TestSchedYieldPolicy pins the single escalation policy shared with
// SpinWait: yield only when the host offers SCHED_YIELD and does not
// promise preemption-free vCPUs.
func TestSchedYieldPolicy(t *testing.T) {
	tests := []struct {
		name    string
		rec     percpu.Record
		wantErr error
	}{
		{"bare metal", percpu.Record{}, ErrNotSupported},
		{"kvm without features", percpu.Record{Active: true}, ErrNotSupported},
		{"async preemption hint", percpu.Record{Active: true, Features: feature.Of(feature.AsyncPreemptionHint, feature.PVSchedYield)}, ErrNotSupported},
		{"no sched yield", percpu.Record{Active: true, Features: feature.Of(feature.PVUnhalt)}, ErrNotSupported},
		{"stale features while inactive", percpu.Record{Features: feature.Of(feature.PVSchedYield)}, ErrNotSupported},
		{"sched yield", percpu.Record{Active: true, Features: feature.Of(feature.PVSchedYield)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Escalates(tt.rec) != (tt.wantErr == nil) {
				t.Errorf("Escalates() = %v disagrees with SchedYield", Escalates(tt.rec))
			}

			h := newHarness(t, tt.rec, DefaultThreshold)

			for range 3 {
				if err := h.engine.SchedYield(); !errors.Is(err, tt.wantErr) {
					t.Fatalf("SchedYield() = %v, want %v", err, tt.wantErr)
				}
			}

			want := 0
			if tt.wantErr == nil {
				want = 3
			}

			if len(h.gw.calls) != want {
				t.Errorf("hypercalls = %d, want %d", len(h.gw.calls), want)
			}

			if h.pauses != 0 {
				t.Errorf("SchedYield paused %d times", h.pauses)
			}
		})
	}
}
