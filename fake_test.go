// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// fakeBuffer is a device-local buffer that cannot be mapped.
type fakeBuffer struct {
	name string
	size uint64
}

func (b *fakeBuffer) Size() uint64   { return b.size }
func (b *fakeBuffer) String() string { return b.name }

// fakeHostBuffer is a host-visible buffer backed by a byte slice. It
// records every lock and flush so tests can check the mapped ranges.
type fakeHostBuffer struct {
	name string
	mem  []byte

	locked  bool
	locks   [][2]uint64
	flushes [][2]uint64
	unlocks int

	lockErr  error
	flushErr error
}

func newHostBuffer(name string, size int) *fakeHostBuffer {
	return &fakeHostBuffer{name: name, mem: make([]byte, size)}
}

func (b *fakeHostBuffer) Size() uint64   { return uint64(len(b.mem)) }
func (b *fakeHostBuffer) String() string { return b.name }

// Lock returns the mapped window. Ranges past the end of the buffer, up to
// the alignment the mapping was planned with, are served from a padded
// copy so tests can observe that nothing outside the buffer is written.
func (b *fakeHostBuffer) Lock(offset, size uint64) ([]byte, error) {
	if b.lockErr != nil {
		return nil, b.lockErr
	}
	if b.locked {
		return nil, errors.New("fake: already locked")
	}
	if size == WholeSize {
		size = uint64(len(b.mem)) - offset
	}
	if offset > uint64(len(b.mem)) {
		return nil, fmt.Errorf("fake: lock offset %d past %d", offset, len(b.mem))
	}
	b.locked = true
	b.locks = append(b.locks, [2]uint64{offset, size})
	end := min(offset+size, uint64(len(b.mem)))
	return b.mem[offset:end:end], nil
}

func (b *fakeHostBuffer) Flush(offset, size uint64) error {
	if !b.locked {
		return errors.New("fake: flush without lock")
	}
	b.flushes = append(b.flushes, [2]uint64{offset, size})
	return b.flushErr
}

func (b *fakeHostBuffer) Unlock() error {
	if !b.locked {
		return errors.New("fake: unlock without lock")
	}
	b.locked = false
	b.unlocks++
	return nil
}

// fakeImage is an image with fixed properties.
type fakeImage struct {
	name   string
	dim    ImageDimension
	extent Extent3D
	levels uint32
	layers uint32
}

func (i *fakeImage) Dimension() ImageDimension { return i.dim }
func (i *fakeImage) Extent() Extent3D          { return i.extent }
func (i *fakeImage) MipLevels() uint32         { return i.levels }
func (i *fakeImage) ArrayLayers() uint32       { return i.layers }
func (i *fakeImage) String() string            { return i.name }

// fakeDevice creates host buffers for the staging belt.
type fakeDevice struct {
	align     uint64
	created   []*fakeHostBuffer
	destroyed []Buffer
	createErr error
}

func (d *fakeDevice) MapAlignment() uint64 {
	if d.align == 0 {
		return 4
	}
	return d.align
}

func (d *fakeDevice) CreateStagingBuffer(size uint64) (HostBuffer, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	b := newHostBuffer(fmt.Sprintf("staging%d", len(d.created)), int(size))
	d.created = append(d.created, b)
	return b, nil
}

func (d *fakeDevice) DestroyBuffer(b Buffer) {
	d.destroyed = append(d.destroyed, b)
}

// fakeRecorder logs every call as a short string.
type fakeRecorder struct {
	calls []string

	bufferBarriers []BufferBarrier
	imageBarriers  []ImageBarrier
	bufferCopies   []BufferCopy
	copyPairs      [][2]Buffer // src, dst per buffer copy region
	imageCopies    []BufferImageCopy

	beginErr error
	endErr   error
}

func (r *fakeRecorder) Begin() error {
	r.calls = append(r.calls, "begin")
	return r.beginErr
}

func (r *fakeRecorder) End() error {
	r.calls = append(r.calls, "end")
	return r.endErr
}

func (r *fakeRecorder) Discard() { r.calls = append(r.calls, "discard") }

func (r *fakeRecorder) BufferBarrier(before, after Stage, b BufferBarrier) {
	r.calls = append(r.calls, fmt.Sprintf("bufbarrier %v %v->%v", b.Buffer, b.SrcAccess, b.DstAccess))
	r.bufferBarriers = append(r.bufferBarriers, b)
}

func (r *fakeRecorder) ImageBarrier(before, after Stage, b ImageBarrier) {
	r.calls = append(r.calls, fmt.Sprintf("imgbarrier %v %v->%v", b.Image, b.OldLayout, b.NewLayout))
	r.imageBarriers = append(r.imageBarriers, b)
}

func (r *fakeRecorder) CopyBuffer(src, dst Buffer, regions []BufferCopy) {
	for _, c := range regions {
		r.calls = append(r.calls, fmt.Sprintf("copy %v->%v @%d+%d", src, dst, c.DstOffset, c.Size))
		r.copyPairs = append(r.copyPairs, [2]Buffer{src, dst})
	}
	r.bufferCopies = append(r.bufferCopies, regions...)
}

func (r *fakeRecorder) CopyBufferToImage(src Buffer, dst Image, layout Layout, regions []BufferImageCopy) {
	r.calls = append(r.calls, fmt.Sprintf("copyimg %v->%v %d regions", src, dst, len(regions)))
	r.imageCopies = append(r.imageCopies, regions...)
}

// replayCopies applies the recorded buffer copies between host buffers in
// recording order, the way the device would run them.
func (r *fakeRecorder) replayCopies() {
	for i, c := range r.bufferCopies {
		src, ok1 := r.copyPairs[i][0].(*fakeHostBuffer)
		dst, ok2 := r.copyPairs[i][1].(*fakeHostBuffer)
		if !ok1 || !ok2 {
			continue
		}
		copy(dst.mem[c.DstOffset:c.DstOffset+c.Size], src.mem[c.SrcOffset:c.SrcOffset+c.Size])
	}
}

// commands returns the recorded calls except begin/end/discard.
func (r *fakeRecorder) commands() []string {
	var out []string
	for _, c := range r.calls {
		switch c {
		case "begin", "end", "discard":
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *fakeRecorder) has(prefix string) bool {
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// fakeFence signals after a configurable number of polls.
type fakeFence struct {
	signaled bool
	waits    []time.Duration
	err      error
}

func (f *fakeFence) Wait(timeout time.Duration) (bool, error) {
	f.waits = append(f.waits, timeout)
	return f.signaled, f.err
}

// fakeQueue records submissions and returns one semaphore per submit.
type fakeQueue struct {
	submits int
	fences  []Fence
	err     error
}

func (q *fakeQueue) Submit(rec Recorder, fence Fence) ([]Semaphore, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.submits++
	q.fences = append(q.fences, fence)
	return []Semaphore{q.submits}, nil
}
