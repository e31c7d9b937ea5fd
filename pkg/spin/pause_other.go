// SPDX-FileCopyrightText: Copyright (c) 2025 Siderolabs
// SPDX-License-Identifier: Apache-2.0

//go:build !amd64

package spin

// pause is a no-op on architectures without a pause hint wired up.
func pause() {}
