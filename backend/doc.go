// Package backend opens HAL devices for uploads by backend name.
//
// Backends are registered via init() functions and selected at runtime.
// The noop backend is always registered; GPU backends register when their
// package is imported:
//
//	import _ "github.com/gogpu/upload/backend/vulkan"
//
// # Backend Selection
//
// Use Default() to open the best available backend, or Open() to request
// a specific backend by name:
//
//	b, err := backend.Default(native.DeviceConfig{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	dev := b.Device()
//	s := upload.NewSession(dev, dev.NewRecorder("frame"))
//
// # Available Backends
//
//   - "vulkan": Vulkan through gogpu/wgpu (backend/vulkan)
//   - "noop": a device that accepts every command and does nothing
package backend
