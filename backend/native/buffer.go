// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upload"
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used. CopyDst is always added
	// so the buffer can receive uploads.
	Usage gputypes.BufferUsage
}

// Buffer is a device-local GPU buffer. It only receives data through copy
// commands, so direct uploads to it go through the session's staging belt.
type Buffer struct {
	raw   hal.Buffer
	desc  BufferDescriptor
	alloc uint64
}

// Size returns the size requested at creation.
func (b *Buffer) Size() uint64 { return b.desc.Size }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.desc.Usage }

// Label returns the buffer's debug label.
func (b *Buffer) Label() string { return b.desc.Label }

// String returns the label, used in upload error messages.
func (b *Buffer) String() string { return b.desc.Label }

// Raw returns the underlying HAL buffer handle.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// rawBuffer is implemented by Buffer and HostBuffer.
type rawBuffer interface {
	Raw() hal.Buffer
}

// HostBuffer is a buffer the CPU writes through a mapping. The mapping is
// a host shadow of the buffer; Flush pushes the flushed range to the
// device with hal.Queue.WriteBuffer.
//
// Thread Safety: HostBuffer is safe for concurrent use, but only one
// mapping may be open at a time.
type HostBuffer struct {
	*Buffer

	mu     sync.Mutex
	queue  hal.Queue
	shadow []byte
	locked bool
}

// Lock opens a mapping of size bytes at offset. size may be
// upload.WholeSize. The range may extend to the allocation size, which is
// the requested size rounded up to the device's map alignment.
func (b *HostBuffer) Lock(offset, size uint64) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shadow == nil {
		return nil, ErrDestroyed
	}
	if b.locked {
		return nil, ErrBufferLocked
	}
	end, err := b.rangeEnd(offset, size)
	if err != nil {
		return nil, err
	}
	b.locked = true
	return b.shadow[offset:end:end], nil
}

// Flush writes the range to the device. The range must lie inside the
// current mapping's allocation.
func (b *HostBuffer) Flush(offset, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.locked {
		return ErrBufferNotLocked
	}
	end, err := b.rangeEnd(offset, size)
	if err != nil {
		return err
	}
	if end > offset {
		if err := b.queue.WriteBuffer(b.raw, offset, b.shadow[offset:end]); err != nil {
			return fmt.Errorf("native: write buffer %q: %w", b.desc.Label, err)
		}
	}
	return nil
}

// Unlock closes the mapping.
func (b *HostBuffer) Unlock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.locked {
		return ErrBufferNotLocked
	}
	b.locked = false
	return nil
}

// Contents returns a copy of the host shadow. It reflects every flushed
// write but not writes done on the device.
func (b *HostBuffer) Contents() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, b.desc.Size)
	copy(out, b.shadow)
	return out
}

func (b *HostBuffer) rangeEnd(offset, size uint64) (uint64, error) {
	n := uint64(len(b.shadow))
	if size == upload.WholeSize {
		if offset > n {
			return 0, fmt.Errorf("native: offset %d past allocation of %d bytes", offset, n)
		}
		return n, nil
	}
	if offset > n || size > n-offset {
		return 0, fmt.Errorf("native: range [%d, +%d) past allocation of %d bytes", offset, size, n)
	}
	return offset + size, nil
}

func (b *HostBuffer) destroy() {
	b.mu.Lock()
	b.shadow = nil
	b.mu.Unlock()
}
