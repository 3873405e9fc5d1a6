// Package upload moves CPU-side data into GPU buffers and images.
//
// # Overview
//
// Callers push write requests at any time during a frame ("copy these
// bytes into this buffer at this offset", "fill these mip levels of this
// texture"). A Session collects them, orders them by destination and
// offset, and turns them into host writes and recorded GPU commands with
// the barriers each destination needs. Requests that race on the same
// bytes resolve in push order: the last push wins.
//
// # Quick Start
//
//	import "github.com/gogpu/upload"
//
//	s := upload.NewSession(dev, rec)
//	defer s.Close()
//
//	s.Begin()
//	s.PushBufferUpload(vertices, vbo, 0, upload.AccessVertexRead, upload.StageVertexInput)
//	s.Process()
//	if _, err := s.End(queue, fence, time.Second); err != nil {
//		// handle error
//	}
//
// # Upload Paths
//
// A request is either Direct, with bytes the session writes through a host
// mapping or a staging belt, or Staged, naming a buffer that already holds
// the data. Direct writes to host-visible buffers record no commands;
// everything else becomes a copy command bracketed by barriers.
//
// # Mapped Ranges
//
// Host mappings must start and end on the device's map alignment.
// PlanMappedRange computes the aligned window covering a request and the
// offset of the request inside it; MapRange returns a MappedRegion whose
// Release flushes and unmaps exactly that window.
//
// # Resource State
//
// A Registry assigns every destination a stable id and remembers the
// access, stage and layout it was last left in. Sessions sharing a
// Registry see each other's transitions.
//
// # Backends
//
// The interfaces in this package are implemented over gogpu/wgpu HAL by
// the backend/native package. Tests use in-memory fakes.
package upload

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
