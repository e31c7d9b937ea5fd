// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/pvguest/internal/config"
	"github.com/siderolabs/pvguest/pkg/cpuid"
	"github.com/siderolabs/pvguest/pkg/feature"
	"github.com/siderolabs/pvguest/pkg/hypercall"
	"github.com/siderolabs/pvguest/pkg/kvmabi"
	"github.com/siderolabs/pvguest/pkg/percpu"
	"github.com/siderolabs/pvguest/pkg/pvguest"
	"github.com/siderolabs/pvguest/pkg/spin"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "run the spin-wait policy against a simulated host",
	Long:  "feeds a simulated CPUID table to the detector and counts the pauses and hypercalls the spin-wait engine would issue",
	Args:  cobra.NoArgs,
	RunE:  simulate,
}

var (
	simIterations uint64
	simFeatures   []string
	simNoKVM      bool
)

func init() {
	f := simulateCmd.Flags()
	f.Uint64Var(&simIterations, "iterations", 10_000, "number of busy-wait iterations")
	f.StringSliceVar(&simFeatures, "features", []string{feature.PVSchedYield.String()}, "features the simulated host advertises")
	f.BoolVar(&simNoKVM, "no-kvm", false, "simulate bare metal")
	rootCmd.AddCommand(simulateCmd)
}

type simReport struct {
	KVM        bool        `yaml:"kvm"`
	Features   feature.Set `yaml:"features"`
	Threshold  uint32      `yaml:"spin_threshold"`
	Iterations uint64      `yaml:"iterations"`
	Pauses     uint64      `yaml:"pauses"`
	Yields     uint64      `yaml:"yields"`
	SpinCount  uint32      `yaml:"spin_count"`
	SchedYield string      `yaml:"sched_yield"`
}

// hostTable returns the CPUID leaves of a simulated KVM host.
func hostTable(fs feature.Set) cpuid.Static {
	eax, edx := feature.Encode(fs)

	return cpuid.Static{
		kvmabi.CPUIDSignature: {
			EAX: kvmabi.CPUIDFeatures,
			EBX: kvmabi.SignatureEBX,
			ECX: kvmabi.SignatureECX,
			EDX: kvmabi.SignatureEDX,
		},
		kvmabi.CPUIDFeatures: {EAX: eax, EDX: edx},
	}
}

func simulate(cmd *cobra.Command, _ []string) error {
	fs, err := feature.Parse(simFeatures)
	if err != nil {
		return err
	}

	table := hostTable(fs)
	if simNoKVM {
		table = cpuid.Static{}
	}

	var (
		report simReport
		yields uint64
	)

	gw := hypercall.NewWithTrap("simulated", func(nr, _, _, _, _ uintptr) uintptr {
		if nr == kvmabi.HCSchedYield {
			yields++
		}

		return 0
	})

	guest, err := pvguest.New(logger.With("module", "pvguest"), pvguest.Config{
		MaxCPUs:       1,
		SpinThreshold: settings.SpinThreshold,
		Pauser:        spin.PauseFunc(func() { report.Pauses++ }),
	}, table, percpu.Fixed(0), gw)
	if err != nil {
		return err
	}

	if err = guest.InitFeatureDetection(); err != nil {
		return err
	}

	for range simIterations {
		guest.SpinWait()
	}

	rec, err := guest.Record(0)
	if err != nil {
		return err
	}

	report.KVM = rec.Active
	report.Features = rec.Features
	report.Threshold = guest.SpinThreshold()
	report.Iterations = simIterations
	report.SpinCount = rec.SpinCount
	report.Yields = yields

	switch err := guest.SchedYield(); {
	case errors.Is(err, spin.ErrNotSupported):
		report.SchedYield = "not supported"
	case err != nil:
		return err
	default:
		report.SchedYield = "yielded"
	}

	logger.Debug("simulation done", "yields", report.Yields, "pauses", report.Pauses)

	return writeSimReport(cmd.OutOrStdout(), report)
}

func writeSimReport(w io.Writer, r simReport) error {
	if settings.Output == config.OutputYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck

		return enc.Encode(r)
	}

	_, err := fmt.Fprintf(w,
		"kvm: %t\nfeatures: %s\nspin threshold: %d\niterations: %d\npauses: %d\nyield hypercalls: %d\nspin count: %d\nsched_yield: %s\n",
		r.KVM, r.Features, r.Threshold, r.Iterations, r.Pauses, r.Yields, r.SpinCount, r.SchedYield)

	return err
}
