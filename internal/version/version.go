// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package version contains variables such as project name, tag and sha. It's a proper alternative to using
// -ldflags '-X ...'.
package version

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

var (
	// Tag declares project git tag.
	//go:embed data/tag
	Tag string
	// SHA declares project git SHA.
	//go:embed data/sha
	SHA string
	// Name declares project name.
	Name = func() string {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return "pvguest"
		}

		if _, tail, found := strings.Cut(info.Path, "github.com/siderolabs/"); found {
			before, _, _ := strings.Cut(tail, "/")

			return before
		}

		return "community-project"
	}()
)

// Revision returns SHA, falling back to the VCS revision stamped by the Go toolchain.
func Revision() string {
	sha := strings.TrimSpace(SHA)
	if sha != "" && sha != "undefined" {
		return sha
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}

	return "unknown"
}
