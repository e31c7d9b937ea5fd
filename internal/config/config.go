// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

// Package config turns viper settings into validated configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/siderolabs/pvguest/internal/util"
	"github.com/siderolabs/pvguest/pkg/cpuid"
	"github.com/siderolabs/pvguest/pkg/spin"
)

// Keys understood by Load. Each is also a flag and, upper-cased with an
// PVGUEST_ prefix, an environment variable.
const (
	KeyConfig        = "config"
	KeyLogLevel      = "log-level"
	KeyMaxCPUs       = "max-cpus"
	KeySpinThreshold = "spin-threshold"
	KeyVendor        = "vendor"
	KeyOutput        = "output"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "pvguest"

// Output formats.
const (
	OutputText = "text"
	OutputYAML = "yaml"
)

var (
	// ErrInvalidMaxCPUs is returned for a non-positive cpu count.
	ErrInvalidMaxCPUs = errors.New("max-cpus must be at least 1")

	// ErrInvalidThreshold is returned for a zero or out of range threshold.
	ErrInvalidThreshold = errors.New("spin-threshold must be between 1 and 4294967295")

	// ErrInvalidOutput is returned for an unknown output format.
	ErrInvalidOutput = errors.New("output must be text or yaml")
)

// Settings is the validated configuration.
type Settings struct {
	LogLevel      slog.Level
	MaxCPUs       int
	SpinThreshold uint32
	Vendor        cpuid.Vendor
	Output        string
}

// RegisterFlags adds the persistent flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfig, "", "path to a YAML configuration file")
	fs.String(KeyLogLevel, "info", "log level (error, warning, info, debug, trace)")
	fs.Int(KeyMaxCPUs, runtime.NumCPU(), "number of per-cpu feature slots")
	fs.Uint32(KeySpinThreshold, spin.DefaultThreshold, "busy-wait iterations before a sched yield hypercall")
	fs.String(KeyVendor, string(cpuid.VendorAuto), "hypercall instruction vendor (auto, intel, amd)")
	fs.StringP(KeyOutput, "o", OutputText, "output format (text, yaml)")
}

// Bind wires environment variables and fs into v.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`-`, `_`))
	v.SetEnvPrefix(EnvPrefix)

	return v.BindPFlags(fs)
}

// Load reads the optional config file and validates every key.
func Load(v *viper.Viper) (Settings, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	level, err := util.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Settings{}, fmt.Errorf("error parsing log level: %w", err)
	}

	maxCPUs := v.GetInt(KeyMaxCPUs)
	if maxCPUs < 1 {
		return Settings{}, fmt.Errorf("%d: %w", maxCPUs, ErrInvalidMaxCPUs)
	}

	threshold := v.GetInt64(KeySpinThreshold)
	if threshold < 1 || threshold > int64(^uint32(0)) {
		return Settings{}, fmt.Errorf("%d: %w", threshold, ErrInvalidThreshold)
	}

	vendor, err := cpuid.ParseVendor(v.GetString(KeyVendor))
	if err != nil {
		return Settings{}, err
	}

	output := strings.ToLower(v.GetString(KeyOutput))
	if output != OutputText && output != OutputYAML {
		return Settings{}, fmt.Errorf("%q: %w", output, ErrInvalidOutput)
	}

	return Settings{
		LogLevel:      level,
		MaxCPUs:       maxCPUs,
		SpinThreshold: uint32(threshold),
		Vendor:        vendor,
		Output:        output,
	}, nil
}
