// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("pvguest %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}

	return out.String()
}

type simResult struct {
	KVM        bool     `yaml:"kvm"`
	Features   []string `yaml:"features"`
	Pauses     uint64   `yaml:"pauses"`
	Yields     uint64   `yaml:"yields"`
	SpinCount  uint32   `yaml:"spin_count"`
	SchedYield string   `yaml:"sched_yield"`
}

func simulateYAML(t *testing.T, args ...string) simResult {
	t.Helper()

	out := run(t, append([]string{"simulate", "-o", "yaml"}, args...)...)

	var r simResult
	if err := yaml.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("bad yaml %q: %v", out, err)
	}

	return r
}

func TestSimulate(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantKVM    bool
		wantYields uint64
		wantCount  uint32
		wantSched  string
	}{
		{
			name:       "yield at threshold",
			args:       []string{"--spin-threshold=4000", "--iterations=4000", "--features=pv_sched_yield"},
			wantKVM:    true,
			wantYields: 1,
			wantSched:  "yielded",
		},
		{
			name:      "one short of threshold",
			args:      []string{"--spin-threshold=4000", "--iterations=3999", "--features=pv_sched_yield"},
			wantKVM:   true,
			wantCount: 3999,
			wantSched: "yielded",
		},
		{
			name:      "realtime hint",
			args:      []string{"--spin-threshold=10", "--iterations=1000", "--features=pv_sched_yield,async_preemption_hint"},
			wantKVM:   true,
			wantSched: "not supported",
		},
		{
			name:      "bare metal",
			args:      []string{"--spin-threshold=10", "--iterations=10000", "--no-kvm"},
			wantSched: "not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// flags keep their values between runs of the same command
			simNoKVM = false

			r := simulateYAML(t, tt.args...)

			if r.KVM != tt.wantKVM || r.Yields != tt.wantYields || r.SpinCount != tt.wantCount || r.SchedYield != tt.wantSched {
				t.Errorf("got %+v", r)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	out := run(t, "layout", "-o", "text")

	for _, want := range []string{"wall_clock", "vcpu_time_info", "steal_time", "64 bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("layout output lacks %q:\n%s", want, out)
		}
	}
}
