// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import "time"

// Device is the GPU device the uploads target.
type Device interface {
	// MapAlignment returns the minimum alignment of mapped ranges
	// (e.g. Vulkan's nonCoherentAtomSize). It must be a power of two.
	MapAlignment() uint64

	// CreateStagingBuffer creates a host-visible buffer usable as a
	// copy source.
	CreateStagingBuffer(size uint64) (HostBuffer, error)

	// DestroyBuffer releases a buffer created by CreateStagingBuffer.
	DestroyBuffer(b Buffer)
}

// Buffer is a destination or source GPU buffer.
// Implementations must be comparable (typically a pointer).
type Buffer interface {
	Size() uint64
}

// HostBuffer is a buffer whose memory can be mapped on the host.
type HostBuffer interface {
	Buffer

	// Lock maps [offset, offset+size) and returns the mapped bytes.
	// size may be WholeSize, in which case the whole buffer is mapped
	// and offset is 0.
	Lock(offset, size uint64) ([]byte, error)

	// Flush makes host writes to the given range visible to the device.
	Flush(offset, size uint64) error

	// Unlock releases the mapping obtained by Lock.
	Unlock() error
}

// Image is a destination GPU image.
// Implementations must be comparable (typically a pointer).
type Image interface {
	Dimension() ImageDimension
	Extent() Extent3D
	MipLevels() uint32
	ArrayLayers() uint32
}

// Recorder records GPU commands.
// Recording methods do not return errors; implementations that can fail
// keep the first error and report it from End.
type Recorder interface {
	Begin() error
	End() error

	// Discard drops everything recorded since Begin.
	Discard()

	BufferBarrier(before, after Stage, b BufferBarrier)
	ImageBarrier(before, after Stage, b ImageBarrier)
	CopyBuffer(src, dst Buffer, regions []BufferCopy)
	CopyBufferToImage(src Buffer, dst Image, layout Layout, regions []BufferImageCopy)
}

// Queue submits recorded work to the device.
type Queue interface {
	// Submit submits the commands of an ended recorder. fence may be nil.
	// It returns the semaphores the submission signals, if any.
	Submit(rec Recorder, fence Fence) ([]Semaphore, error)
}

// Fence is signaled when submitted work completes.
type Fence interface {
	// Wait blocks until the fence is signaled or timeout elapses.
	// A zero timeout polls. It reports whether the fence is signaled.
	Wait(timeout time.Duration) (bool, error)
}

// Semaphore is an opaque GPU-side synchronization primitive returned by a
// submission, used to chain later submissions.
type Semaphore any

// BufferBarrier describes an access transition on a buffer range.
type BufferBarrier struct {
	Buffer    Buffer
	Offset    uint64
	Size      uint64
	SrcAccess Access
	DstAccess Access
}

// ImageBarrier describes a layout and access transition on an image
// subresource range.
type ImageBarrier struct {
	Image     Image
	Range     SubresourceRange
	OldLayout Layout
	NewLayout Layout
	SrcAccess Access
	DstAccess Access
}

// BufferCopy is one region of a buffer to buffer copy.
type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// BufferImageCopy is one region of a buffer to image copy.
type BufferImageCopy struct {
	// BufferOffset is the byte offset of the region in the source buffer.
	BufferOffset uint64
	// BytesPerRow is the source row pitch.
	BytesPerRow uint32
	// RowsPerImage is the number of rows per 2D slice in the source.
	RowsPerImage uint32

	Aspect     Aspect
	MipLevel   uint32
	ArrayLayer uint32
	LayerCount uint32
	Origin     Origin3D
	Extent     Extent3D
}

// Extent3D is a size in texels.
type Extent3D struct {
	Width, Height, Depth uint32
}

// Origin3D is a texel offset.
type Origin3D struct {
	X, Y, Z uint32
}

// mip returns the extent of the given mip level.
func (e Extent3D) mip(level uint32) Extent3D {
	return Extent3D{
		Width:  max(1, e.Width>>level),
		Height: max(1, e.Height>>level),
		Depth:  max(1, e.Depth>>level),
	}
}
