// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"fmt"
	"sync"
)

// BufferState is the tracked access state of a buffer.
type BufferState struct {
	Access Access
	Stage  Stage
}

// ImageState is the tracked layout and access state of an image.
type ImageState struct {
	Layout Layout
	Access Access
	Stage  Stage
}

// Registry tracks the identity and current state of every resource the
// upload engine has written to. Destination ordering uses the identity,
// which is assigned in first-seen order.
//
// A Registry may be shared by several sessions and is safe for concurrent
// use. Sessions sharing a registry must still target disjoint resources.
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	buffers map[Buffer]*bufferEntry
	images  map[Image]*imageEntry
}

type bufferEntry struct {
	id    uint64
	state BufferState

	// writer is the executor that recorded a transfer write into the
	// buffer which is not known to have completed, or nil.
	writer any
}

type imageEntry struct {
	id    uint64
	state ImageState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nextID:  1,
		buffers: make(map[Buffer]*bufferEntry),
		images:  make(map[Image]*imageEntry),
	}
}

func (r *Registry) buffer(b Buffer) *bufferEntry {
	e, ok := r.buffers[b]
	if !ok {
		e = &bufferEntry{id: r.nextID, state: BufferState{Stage: StageTopOfPipe}}
		r.nextID++
		r.buffers[b] = e
	}
	return e
}

func (r *Registry) image(img Image) *imageEntry {
	e, ok := r.images[img]
	if !ok {
		e = &imageEntry{id: r.nextID, state: ImageState{Layout: LayoutUndefined, Stage: StageTopOfPipe}}
		r.nextID++
		r.images[img] = e
	}
	return e
}

// bufferID returns the identity of b, registering it if needed.
func (r *Registry) bufferID(b Buffer) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffer(b).id
}

// imageID returns the identity of img, registering it if needed.
func (r *Registry) imageID(img Image) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.image(img).id
}

// BufferState returns the tracked state of b. ok is false if b was never
// seen by the registry.
func (r *Registry) BufferState(b Buffer) (s BufferState, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buffers[b]
	if !ok {
		return BufferState{}, false
	}
	return e.state, true
}

// ImageState returns the tracked state of img. ok is false if img was
// never seen by the registry.
func (r *Registry) ImageState(img Image) (s ImageState, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.images[img]
	if !ok {
		return ImageState{}, false
	}
	return e.state, true
}

// transitionBuffer sets the state of b and returns the previous one.
func (r *Registry) transitionBuffer(b Buffer, s BufferState) BufferState {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.buffer(b)
	prev := e.state
	e.state = s
	return prev
}

// transitionImage sets the state of img and returns the previous one.
func (r *Registry) transitionImage(img Image, s ImageState) ImageState {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.image(img)
	prev := e.state
	e.state = s
	return prev
}

// markGPUWrite records that owner recorded a transfer write into b.
func (r *Registry) markGPUWrite(b Buffer, owner any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer(b).writer = owner
}

// gpuWritePending reports whether a recorded transfer write into b may
// still be pending on the device. Host writes to b must then be ordered
// behind it on the queue.
func (r *Registry) gpuWritePending(b Buffer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.buffers[b]
	return ok && e.writer != nil
}

// settleGPUWrites clears the transfer writes recorded by owner once the
// device has completed them.
func (r *Registry) settleGPUWrites(owner any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.buffers {
		if e.writer == owner {
			e.writer = nil
		}
	}
}

// Forget drops a resource from the registry, typically when it is
// destroyed. res must be a Buffer or an Image.
func (r *Registry) Forget(res any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := res.(Buffer); ok {
		delete(r.buffers, b)
	}
	if img, ok := res.(Image); ok {
		delete(r.images, img)
	}
}

// describeBuffer names b for diagnostics.
func (r *Registry) describeBuffer(b Buffer) string {
	return describe("buffer", b, r.bufferID(b))
}

// describeImage names img for diagnostics.
func (r *Registry) describeImage(img Image) string {
	return describe("image", img, r.imageID(img))
}

func describe(kind string, res any, id uint64) string {
	if s, ok := res.(fmt.Stringer); ok {
		return fmt.Sprintf("%s#%d %q", kind, id, s.String())
	}
	return fmt.Sprintf("%s#%d (%T)", kind, id, res)
}
