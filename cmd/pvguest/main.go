// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package main is the main package invoking the tool
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/siderolabs/pvguest/internal/config"
	"github.com/siderolabs/pvguest/internal/gvlogger"
	"github.com/siderolabs/pvguest/internal/util"
	"github.com/siderolabs/pvguest/internal/version"
)

var rootCmd = &cobra.Command{
	Use:               "pvguest",
	Short:             "KVM paravirtual feature detection for guests",
	Long:              "detects KVM on every logical cpu, reports the paravirtual features it offers and exercises the spin-wait yield policy",
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var (
	logger   *slog.Logger
	settings config.Settings
)

func setup(cmd *cobra.Command, _ []string) error {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	settings = s
	logger = util.NewLogger(os.Stderr, s.LogLevel).With("command", cmd.Name())

	gvlogger.Install(logger.With("module", "gvisor"), s.LogLevel)

	hello := fmt.Sprintf("%s © 2025 Siderolabs", version.Name)
	logger.Debug(hello, "version", version.Tag, "max_cpus", s.MaxCPUs, "spin_threshold", s.SpinThreshold, "vendor", s.Vendor)

	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	config.RegisterFlags(pf)

	if err := config.Bind(viper.GetViper(), pf); err != nil {
		panic(err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
