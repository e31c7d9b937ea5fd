// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/pvguest/internal/config"
	"github.com/siderolabs/pvguest/pkg/kvmabi"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "print the layout of the clock and steal time records",
	Args:  cobra.NoArgs,
	RunE:  layout,
}

func init() {
	rootCmd.AddCommand(layoutCmd)
}

func layout(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	layouts := kvmabi.Layouts()

	if settings.Output == config.OutputYAML {
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck

		return enc.Encode(layouts)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, l := range layouts {
		fmt.Fprintf(tw, "%s (msr %#x, %d bytes)\n", l.Name, l.MSR, l.Size)

		for _, f := range l.Fields {
			fmt.Fprintf(tw, "\t%s\t+%d\t%d\n", f.Name, f.Offset, f.Size)
		}
	}

	return tw.Flush()
}
