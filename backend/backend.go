// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upload/backend/native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or cannot create an instance.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoAdapter is returned when an instance exposes no adapters.
	ErrNoAdapter = errors.New("backend: no adapters found")
)

// Backend is an opened HAL device wrapped for uploads.
//
// Close releases the upload device, the HAL device and the instance.
type Backend struct {
	name     string
	adapter  string
	instance hal.Instance
	device   hal.Device
	dev      *native.Device
}

// Name returns the registered backend name (e.g., "vulkan", "noop").
func (b *Backend) Name() string { return b.name }

// Adapter returns the name of the adapter the device was opened on.
func (b *Backend) Adapter() string { return b.adapter }

// Device returns the upload device.
func (b *Backend) Device() *native.Device { return b.dev }

// Close releases all backend resources.
func (b *Backend) Close() {
	if b.dev != nil {
		b.dev.Close()
		b.dev = nil
	}
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
}

// open creates an instance with factory and opens the first hardware
// adapter, falling back to the first adapter of any kind.
func open(name string, factory InstanceFactory, cfg native.DeviceConfig) (*Backend, error) {
	instance, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendNotAvailable, name, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, name)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open %s device: %w", name, err)
	}
	if cfg.Label == "" {
		cfg.Label = name
	}
	dev, err := native.NewDevice(openDev.Device, openDev.Queue, cfg)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	slogger().Info("backend: device opened", "backend", name, "adapter", selected.Info.Name)
	return &Backend{
		name:     name,
		adapter:  selected.Info.Name,
		instance: instance,
		device:   openDev.Device,
		dev:      dev,
	}, nil
}
