// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package hypercall

import (
	"fmt"
	"log/slog"

	"github.com/siderolabs/pvguest/pkg/cpuid"
)

// Trap executes one hypercall and returns the result register.
type Trap func(nr, p0, p1, p2, p3 uintptr) uintptr

// Frame models the registers of one hypercall.
type Frame struct {
	Nr     uintptr
	Params [4]uintptr
}

// String converts the frame to string, useful for debugging.
func (f Frame) String() string {
	return fmt.Sprintf("nr=%d p0=%x p1=%x p2=%x p3=%x", f.Nr, f.Params[0], f.Params[1], f.Params[2], f.Params[3])
}

// Gateway issues hypercalls through a trap selected at construction.
type Gateway struct {
	trap      Trap
	mechanism string
}

// New returns a gateway using the trap instruction of vendor. VendorAuto is
// resolved against the host CPU.
func New(logger *slog.Logger, vendor cpuid.Vendor) (*Gateway, error) {
	resolved := vendor.Resolve()

	var g *Gateway

	switch resolved {
	case cpuid.VendorIntel:
		g = NewWithTrap("vmcall", vmcall)
	case cpuid.VendorAMD:
		g = NewWithTrap("vmmcall", vmmcall)
	default:
		return nil, fmt.Errorf("no hypercall instruction for %q: %w", resolved, cpuid.ErrUnknownVendor)
	}

	logger.Debug("hypercall gateway ready", "vendor", resolved, "mechanism", g.mechanism)

	return g, nil
}

// NewWithTrap returns a gateway using t. The name is reported by Mechanism.
func NewWithTrap(name string, t Trap) *Gateway {
	return &Gateway{trap: t, mechanism: name}
}

// Mechanism returns the name of the trap in use.
func (g *Gateway) Mechanism() string {
	return g.mechanism
}

// Call4 issues hypercall nr with four parameters.
//
// The trap is an assembly routine the compiler cannot see through, so memory
// accesses are not reordered across it.
func (g *Gateway) Call4(nr, p0, p1, p2, p3 uintptr) uintptr {
	return g.trap(nr, p0, p1, p2, p3)
}

// Call3 issues hypercall nr with three parameters.
func (g *Gateway) Call3(nr, p0, p1, p2 uintptr) uintptr {
	return g.Call4(nr, p0, p1, p2, 0)
}

// Call2 issues hypercall nr with two parameters.
func (g *Gateway) Call2(nr, p0, p1 uintptr) uintptr {
	return g.Call4(nr, p0, p1, 0, 0)
}

// Call1 issues hypercall nr with one parameter.
func (g *Gateway) Call1(nr, p0 uintptr) uintptr {
	return g.Call4(nr, p0, 0, 0, 0)
}

// Call0 issues hypercall nr without parameters.
func (g *Gateway) Call0(nr uintptr) uintptr {
	return g.Call4(nr, 0, 0, 0, 0)
}

// Call issues the hypercall described by f.
func (g *Gateway) Call(f Frame) uintptr {
	return g.Call4(f.Nr, f.Params[0], f.Params[1], f.Params[2], f.Params[3])
}
