// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/pvguest/internal/affinity"
	"github.com/siderolabs/pvguest/internal/config"
	"github.com/siderolabs/pvguest/internal/cpuonline"
	"github.com/siderolabs/pvguest/pkg/cpuid"
	"github.com/siderolabs/pvguest/pkg/feature"
	"github.com/siderolabs/pvguest/pkg/hypercall"
	"github.com/siderolabs/pvguest/pkg/percpu"
	"github.com/siderolabs/pvguest/pkg/pvguest"
	"github.com/siderolabs/pvguest/pkg/spin"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "detect KVM and its paravirtual features on every online cpu",
	Long:  "pins a thread to each online cpu in turn, runs the CPUID based detection there and prints one record per cpu",
	Args:  cobra.NoArgs,
	RunE:  detect,
}

var detectCPUList string

func init() {
	detectCmd.Flags().StringVar(&detectCPUList, "cpus", "", "cpu list to probe, e.g. 0-3,6 (default: all online cpus)")
	rootCmd.AddCommand(detectCmd)
}

type cpuReport struct {
	CPU      int         `yaml:"cpu"`
	KVM      bool        `yaml:"kvm"`
	Features feature.Set `yaml:"features"`
	Policy   string      `yaml:"spin_policy"`
}

type detectReport struct {
	Vendor        cpuid.Vendor `yaml:"vendor"`
	HypervisorBit bool         `yaml:"hypervisor_bit"`
	Hypercall     string       `yaml:"hypercall"`
	SpinThreshold uint32       `yaml:"spin_threshold"`
	CPUs          []cpuReport  `yaml:"cpus"`
}

func policy(rec percpu.Record, threshold uint32) string {
	if spin.Escalates(rec) {
		return fmt.Sprintf("yield every %d spins", threshold)
	}

	return "pause"
}

func cpusToProbe() ([]int, error) {
	if detectCPUList != "" {
		return cpuonline.Parse(detectCPUList)
	}

	return cpuonline.Online()
}

// gateway returns the hypercall gateway for the configured vendor. Hosts
// without one still get a report.
func gateway(l *slog.Logger) *hypercall.Gateway {
	gw, err := hypercall.New(l, settings.Vendor)
	if err != nil {
		l.Warn("no hypercall instruction available", "err", err)

		return hypercall.NewWithTrap("none", hypercall.Unavailable)
	}

	return gw
}

func detect(cmd *cobra.Command, _ []string) error {
	cpus, err := cpusToProbe()
	if err != nil {
		return err
	}

	gw := gateway(logger.With("module", "hypercall"))

	guest, err := pvguest.New(logger.With("module", "pvguest"), pvguest.Config{
		MaxCPUs:       settings.MaxCPUs,
		SpinThreshold: settings.SpinThreshold,
	}, cpuid.Native{}, affinity.Indexer{}, gw)
	if err != nil {
		return err
	}

	probed := make([]int, 0, len(cpus))

	var eg errgroup.Group

	for _, cpu := range cpus {
		if cpu >= guest.MaxCPUs() {
			logger.Warn("cpu beyond max-cpus, skipping", "cpu", cpu, "max_cpus", guest.MaxCPUs())

			continue
		}

		probed = append(probed, cpu)

		eg.Go(func() error {
			return bringUp(guest, cpu)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	report := detectReport{
		Vendor:        settings.Vendor.Resolve(),
		HypervisorBit: cpuid.HypervisorBit(),
		Hypercall:     gw.Mechanism(),
		SpinThreshold: guest.SpinThreshold(),
	}

	for _, cpu := range probed {
		rec, err := guest.Record(cpu)
		if err != nil {
			return err
		}

		report.CPUs = append(report.CPUs, cpuReport{
			CPU:      cpu,
			KVM:      rec.Active,
			Features: rec.Features,
			Policy:   policy(rec, guest.SpinThreshold()),
		})
	}

	return writeDetectReport(cmd.OutOrStdout(), report)
}

// bringUp runs detection for cpu on a thread pinned to it.
func bringUp(guest *pvguest.Guest, cpu int) error {
	unpin, err := affinity.Pin(cpu)
	if err != nil {
		return err
	}

	defer unpin()

	return guest.InitFeatureDetection()
}

func writeDetectReport(w io.Writer, r detectReport) error {
	if settings.Output == config.OutputYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck

		return enc.Encode(r)
	}

	fmt.Fprintf(w, "vendor: %s  hypervisor bit: %t  hypercall: %s  spin threshold: %d\n\n",
		r.Vendor, r.HypervisorBit, r.Hypercall, r.SpinThreshold)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CPU\tKVM\tSPIN POLICY\tFEATURES")

	for _, c := range r.CPUs {
		fmt.Fprintf(tw, "%d\t%t\t%s\t%s\n", c.CPU, c.KVM, c.Policy, c.Features)
	}

	return tw.Flush()
}
