// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"fmt"
	"slices"
)

// Staging defaults.
const (
	// DefaultStagingChunkSize is the default size of one staging chunk (4 MB).
	DefaultStagingChunkSize = 4 << 20

	// DefaultStagingAlignment is the default alignment of staged data.
	// It satisfies the buffer offset rules of every copy command.
	DefaultStagingAlignment = 256
)

// BeltConfig configures a StagingBelt.
type BeltConfig struct {
	// ChunkSize is the size of newly created chunks.
	// Defaults to DefaultStagingChunkSize if zero.
	ChunkSize uint64

	// Alignment is the alignment of every allocation in a chunk.
	// Defaults to DefaultStagingAlignment if zero; must be a power of two.
	Alignment uint64
}

// StagingBelt sub-allocates host-visible staging buffers for data that
// must be copied to the device by a command. Chunks written during a
// session are retired with the session's fence and reused once the fence
// has signaled.
//
// A StagingBelt is not safe for concurrent use.
type StagingBelt struct {
	dev Device
	cfg BeltConfig

	active   []*stagingChunk
	free     []*stagingChunk
	inFlight []retiredChunks

	// unfenced holds chunks submitted without a fence. The next fenced
	// submission covers them, since the queue completes work in order.
	unfenced []*stagingChunk
}

type stagingChunk struct {
	buf  HostBuffer
	used uint64
}

type retiredChunks struct {
	fence  Fence
	chunks []*stagingChunk
}

// NewStagingBelt creates a belt allocating chunks from dev.
func NewStagingBelt(dev Device, cfg BeltConfig) *StagingBelt {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultStagingChunkSize
	}
	if cfg.Alignment == 0 || cfg.Alignment&(cfg.Alignment-1) != 0 {
		cfg.Alignment = DefaultStagingAlignment
	}
	return &StagingBelt{dev: dev, cfg: cfg}
}

// Write copies data into a staging chunk and returns the chunk and the
// offset the data starts at.
func (b *StagingBelt) Write(data []byte) (Buffer, uint64, error) {
	n := uint64(len(data))
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: empty staging write", ErrOutOfBounds)
	}
	c, off, err := b.allocate(n)
	if err != nil {
		return nil, 0, err
	}
	region, err := MapRange(c.buf, off, n, b.dev.MapAlignment())
	if err != nil {
		return nil, 0, fmt.Errorf("map staging chunk: %w", err)
	}
	copy(region.Bytes(), data)
	if err := region.Release(); err != nil {
		return nil, 0, fmt.Errorf("flush staging chunk: %w", err)
	}
	return c.buf, off, nil
}

// allocate reserves n bytes in an active chunk, taking a free chunk or
// creating a new one when none has room.
func (b *StagingBelt) allocate(n uint64) (*stagingChunk, uint64, error) {
	for _, c := range b.active {
		off := alignUp(c.used, b.cfg.Alignment)
		if off+n <= c.buf.Size() {
			c.used = off + n
			return c, off, nil
		}
	}
	for i, c := range b.free {
		if n <= c.buf.Size() {
			b.free = slices.Delete(b.free, i, i+1)
			c.used = n
			b.active = append(b.active, c)
			return c, 0, nil
		}
	}
	size := max(b.cfg.ChunkSize, alignUp(n, b.cfg.Alignment))
	buf, err := b.dev.CreateStagingBuffer(size)
	if err != nil {
		return nil, 0, fmt.Errorf("create staging buffer of %d bytes: %w", size, err)
	}
	slogger().Debug("upload: staging chunk created", "size", size)
	c := &stagingChunk{buf: buf, used: n}
	b.active = append(b.active, c)
	return c, 0, nil
}

// Finish retires the chunks written since the last Finish. They become
// reusable once fence signals. Chunks retired with a nil fence are held
// back and retired with the next non-nil fence, which signals only after
// the earlier submissions completed.
func (b *StagingBelt) Finish(fence Fence) {
	if fence == nil {
		b.unfenced = append(b.unfenced, b.active...)
		b.active = nil
		return
	}
	chunks := append(b.unfenced, b.active...)
	b.unfenced, b.active = nil, nil
	if len(chunks) == 0 {
		return
	}
	b.inFlight = append(b.inFlight, retiredChunks{fence: fence, chunks: chunks})
}

// Recall makes the chunks of every signaled submission reusable. It polls
// fences without blocking.
func (b *StagingBelt) Recall() {
	kept := b.inFlight[:0]
	for _, r := range b.inFlight {
		ok, err := r.fence.Wait(0)
		if err != nil {
			slogger().Warn("upload: staging fence poll failed", "error", err)
		}
		if !ok {
			kept = append(kept, r)
			continue
		}
		for _, c := range r.chunks {
			c.used = 0
			b.free = append(b.free, c)
		}
	}
	clear(b.inFlight[len(kept):])
	b.inFlight = kept
}

// InFlight returns the number of submissions whose chunks are not yet
// reusable. Chunks waiting for a fence count as one.
func (b *StagingBelt) InFlight() int {
	if len(b.unfenced) > 0 {
		return len(b.inFlight) + 1
	}
	return len(b.inFlight)
}

// Chunks returns the number of staging chunks the belt holds.
func (b *StagingBelt) Chunks() int {
	n := len(b.active) + len(b.free) + len(b.unfenced)
	for _, r := range b.inFlight {
		n += len(r.chunks)
	}
	return n
}

// Close destroys every chunk. The caller must ensure the device no longer
// reads from them.
func (b *StagingBelt) Close() {
	for _, c := range b.active {
		b.dev.DestroyBuffer(c.buf)
	}
	for _, c := range b.free {
		b.dev.DestroyBuffer(c.buf)
	}
	for _, c := range b.unfenced {
		b.dev.DestroyBuffer(c.buf)
	}
	for _, r := range b.inFlight {
		for _, c := range r.chunks {
			b.dev.DestroyBuffer(c.buf)
		}
	}
	b.active, b.free, b.inFlight, b.unfenced = nil, nil, nil, nil
}
