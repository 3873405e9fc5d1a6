package native

import (
	"errors"
	"unsafe"

	"github.com/gogpu/wgpu/hal"
)

// =============================================================================
// Mock Types for Testing
// =============================================================================

// The mocks embed the HAL interfaces and override only the methods the
// backend calls. Calling anything else panics on the nil embedded value.

var errMock = errors.New("mock failure")

// mockDevice is a test double for hal.Device.
type mockDevice struct {
	hal.Device

	buffers   []*hal.BufferDescriptor
	textures  []*hal.TextureDescriptor
	encoders  []*mockEncoder
	destroyed []hal.Buffer
	texFreed  int
	cmdFreed  int
	idleWaits int
	queue     *mockQueue

	createBufferErr  error
	createTextureErr error
	createEncoderErr error
	mapErr           error
	waitErr          error
	beginErr         error
	endErr           error
}

func (d *mockDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if d.createBufferErr != nil {
		return nil, d.createBufferErr
	}
	d.buffers = append(d.buffers, desc)
	return &mockBuffer{desc: *desc, data: make([]byte, desc.Size)}, nil
}

func (d *mockDevice) DestroyBuffer(b hal.Buffer) {
	d.destroyed = append(d.destroyed, b)
}

func (d *mockDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.createTextureErr != nil {
		return nil, d.createTextureErr
	}
	d.textures = append(d.textures, desc)
	return &mockTexture{desc: *desc}, nil
}

func (d *mockDevice) DestroyTexture(_ hal.Texture) { d.texFreed++ }

func (d *mockDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	if d.createEncoderErr != nil {
		return nil, d.createEncoderErr
	}
	enc := &mockEncoder{label: desc.Label, beginErr: d.beginErr, endErr: d.endErr}
	d.encoders = append(d.encoders, enc)
	return enc, nil
}

func (d *mockDevice) FreeCommandBuffer(_ hal.CommandBuffer) { d.cmdFreed++ }

func (d *mockDevice) MapBuffer(b hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	if d.mapErr != nil {
		return hal.BufferMapping{}, d.mapErr
	}
	mb := b.(*mockBuffer)
	if offset+size > uint64(len(mb.data)) {
		return hal.BufferMapping{}, errMock
	}
	mb.mapped = true
	return hal.BufferMapping{Ptr: unsafe.Pointer(&mb.data[offset]), IsCoherent: true}, nil
}

func (d *mockDevice) UnmapBuffer(b hal.Buffer) error {
	b.(*mockBuffer).mapped = false
	return nil
}

func (d *mockDevice) WaitIdle() error {
	d.idleWaits++
	if d.queue != nil {
		d.queue.completed = d.queue.submitted
	}
	return d.waitErr
}

// lastEncoder returns the most recently created encoder.
func (d *mockDevice) lastEncoder() *mockEncoder {
	if len(d.encoders) == 0 {
		return nil
	}
	return d.encoders[len(d.encoders)-1]
}

// mockQueue is a test double for hal.Queue. Submissions complete when
// the test raises completed.
type mockQueue struct {
	hal.Queue

	writes    []mockWrite
	submits   [][]hal.CommandBuffer
	submitted uint64
	completed uint64
	submitErr error
	writeErr  error
}

type mockWrite struct {
	buffer hal.Buffer
	offset uint64
	data   []byte
}

func (q *mockQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	if q.submitErr != nil {
		return 0, q.submitErr
	}
	q.submits = append(q.submits, cmds)
	q.submitted++
	return q.submitted, nil
}

func (q *mockQueue) PollCompleted() uint64 { return q.completed }

func (q *mockQueue) WriteBuffer(b hal.Buffer, offset uint64, data []byte) error {
	if q.writeErr != nil {
		return q.writeErr
	}
	q.writes = append(q.writes, mockWrite{buffer: b, offset: offset, data: append([]byte(nil), data...)})
	return nil
}

// mockEncoder is a test double for hal.CommandEncoder.
type mockEncoder struct {
	hal.CommandEncoder

	label     string
	began     bool
	ended     bool
	discarded bool
	beginErr  error
	endErr    error

	bufferBarriers  []hal.BufferBarrier
	textureBarriers []hal.TextureBarrier
	bufferCopies    []hal.BufferCopy
	textureCopies   []hal.BufferTextureCopy
}

func (e *mockEncoder) BeginEncoding(_ string) error {
	if e.beginErr != nil {
		return e.beginErr
	}
	e.began = true
	return nil
}

func (e *mockEncoder) EndEncoding() (hal.CommandBuffer, error) {
	if e.endErr != nil {
		return nil, e.endErr
	}
	e.ended = true
	return &mockCommandBuffer{}, nil
}

func (e *mockEncoder) DiscardEncoding() { e.discarded = true }

func (e *mockEncoder) TransitionBuffers(barriers []hal.BufferBarrier) {
	e.bufferBarriers = append(e.bufferBarriers, barriers...)
}

func (e *mockEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	e.textureBarriers = append(e.textureBarriers, barriers...)
}

// CopyBufferToBuffer records regions and applies them right away.
func (e *mockEncoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	e.bufferCopies = append(e.bufferCopies, regions...)
	s, sok := src.(*mockBuffer)
	d, dok := dst.(*mockBuffer)
	if !sok || !dok {
		return
	}
	for _, r := range regions {
		copy(d.data[r.DstOffset:r.DstOffset+r.Size], s.data[r.SrcOffset:r.SrcOffset+r.Size])
	}
}

func (e *mockEncoder) CopyBufferToTexture(_ hal.Buffer, _ hal.Texture, regions []hal.BufferTextureCopy) {
	e.textureCopies = append(e.textureCopies, regions...)
}

type mockCommandBuffer struct {
	hal.CommandBuffer
}

type mockBuffer struct {
	hal.Buffer
	desc   hal.BufferDescriptor
	data   []byte
	mapped bool
}

func (b *mockBuffer) Destroy()              {}
func (b *mockBuffer) NativeHandle() uintptr { return 0 }

type mockTexture struct {
	hal.Texture
	desc hal.TextureDescriptor
}

func (t *mockTexture) Destroy()              {}
func (t *mockTexture) NativeHandle() uintptr { return 0 }

// newMockDevice returns a Device over fresh mocks.
func newMockDevice(t interface {
	Helper()
	Fatalf(string, ...any)
}, cfg DeviceConfig) (*Device, *mockDevice, *mockQueue) {
	t.Helper()
	mq := &mockQueue{}
	md := &mockDevice{queue: mq}
	d, err := NewDevice(md, mq, cfg)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	return d, md, mq
}
