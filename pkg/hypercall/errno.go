// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

package hypercall

import (
	"fmt"

	"github.com/siderolabs/pvguest/pkg/kvmabi"
)

// Errno is a hypervisor error code, stored positive.
//
// The Gateway never produces an Errno on its own: callers that want to
// inspect a result pass it through Result.
type Errno int

// Error codes defined by KVM.
const (
	ENOSYS     Errno = kvmabi.ENOSYS
	EFAULT     Errno = kvmabi.EFAULT
	EINVAL     Errno = kvmabi.EINVAL
	E2BIG      Errno = kvmabi.E2BIG
	EPERM      Errno = kvmabi.EPERM
	EOPNOTSUPP Errno = kvmabi.EOPNOTSUPP
)

func (e Errno) Error() string {
	switch e {
	case ENOSYS:
		return "kvm: hypercall not implemented (ENOSYS)"
	case EFAULT:
		return "kvm: bad guest address (EFAULT)"
	case EINVAL:
		return "kvm: invalid argument (EINVAL)"
	case E2BIG:
		return "kvm: argument too large (E2BIG)"
	case EPERM:
		return "kvm: permission denied (EPERM)"
	case EOPNOTSUPP:
		return "kvm: operation not supported (EOPNOTSUPP)"
	default:
		return fmt.Sprintf("kvm: unknown error code %d", int(e))
	}
}

// Result converts a raw hypercall result: non-negative values are success,
// negative values carry a negated Errno.
func Result(ret uintptr) (uintptr, error) {
	if v := int(ret); v < 0 {
		return 0, Errno(-v)
	}

	return ret, nil
}

// Unavailable is a Trap for hosts without a hypercall instruction. It
// reports ENOSYS without trapping.
func Unavailable(_, _, _, _, _ uintptr) uintptr {
	return negated(kvmabi.ENOSYS)
}

func negated(code int) uintptr {
	return uintptr(-code)
}
