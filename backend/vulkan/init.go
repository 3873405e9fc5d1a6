// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package vulkan registers the Vulkan HAL backend on import:
//
//	import _ "github.com/gogpu/upload/backend/vulkan"
package vulkan

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/upload/backend"
)

func init() {
	backend.Register(backend.BackendVulkan, createInstance)
}

func createInstance() (hal.Instance, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, backend.ErrBackendNotAvailable
	}
	return b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
}
