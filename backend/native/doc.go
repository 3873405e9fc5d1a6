// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements the upload interfaces over gogpu/wgpu HAL.
//
// A Device wraps a hal.Device and hal.Queue. It creates device-local
// Buffers, host-writable HostBuffers, Images, Recorders and Fences:
//
//	dev, err := native.NewDevice(halDevice, halQueue, native.DeviceConfig{})
//	vbo, err := dev.CreateBuffer(native.BufferDescriptor{Size: 4096, Usage: gputypes.BufferUsageVertex})
//	rec := dev.NewRecorder("frame")
//	fence := dev.NewFence()
//
//	s := upload.NewSession(dev, rec)
//	s.Begin()
//	s.PushBufferUpload(vertices, vbo, 0, upload.AccessVertexRead, upload.StageVertexInput)
//	s.Process()
//	s.End(dev.Queue(), fence, time.Second)
//
// HostBuffer mappings are host shadows: Flush writes the flushed range
// with hal.Queue.WriteBuffer. Fences track HAL submission indices and are
// signaled once hal.Queue.PollCompleted reaches them. Barriers are translated to WebGPU usage
// transitions; pipeline stages are implied by the usages.
//
// Applications that already own a device through gpucontext use
// NewFromProvider.
package native
