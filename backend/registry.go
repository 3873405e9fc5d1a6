// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/upload/backend/native"
)

// Backend names.
const (
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// InstanceFactory creates a HAL instance.
type InstanceFactory func() (hal.Instance, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]InstanceFactory)
	// Priority order for backend selection (first available wins).
	// Real GPUs before the noop device.
	backendPriority = []string{BackendVulkan, BackendNoop}
)

func init() {
	Register(BackendNoop, func() (hal.Instance, error) {
		api := noop.API{}
		return api.CreateInstance(nil)
	})
}

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory InstanceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(factories))
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens a device on the named backend.
func Open(name string, cfg native.DeviceConfig) (*Backend, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrBackendNotAvailable
	}
	return open(name, factory, cfg)
}

// Default opens the best available backend based on priority, then any
// other registered backend in name order.
// Returns ErrBackendNotAvailable if none can be opened.
func Default(cfg native.DeviceConfig) (*Backend, error) {
	names := slices.Clone(backendPriority)
	for _, name := range Available() {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if !IsRegistered(name) {
			continue
		}
		b, err := Open(name, cfg)
		if err == nil {
			return b, nil
		}
		slogger().Warn("backend: unavailable, trying next", "backend", name, "error", err)
	}
	return nil, ErrBackendNotAvailable
}
