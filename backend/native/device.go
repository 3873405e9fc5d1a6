// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upload"
)

// DefaultMapAlignment is the default alignment of host writes. It is the
// WebGPU copy alignment required by hal.Queue.WriteBuffer.
const DefaultMapAlignment = 4

// DefaultReadbackTimeout is the default time ReadBuffer waits for its copy.
const DefaultReadbackTimeout = 5 * time.Second

// DeviceConfig configures a Device.
type DeviceConfig struct {
	// Label prefixes the labels of objects the device creates.
	Label string

	// MapAlignment is the alignment of host writes.
	// Defaults to DefaultMapAlignment if zero; must be a power of two.
	MapAlignment uint64

	// StagingUsage is added to the usage of staging buffers.
	StagingUsage gputypes.BufferUsage

	// ReadbackTimeout bounds how long ReadBuffer waits for its copy.
	// Defaults to DefaultReadbackTimeout if zero.
	ReadbackTimeout time.Duration
}

// Device implements upload.Device over a HAL device and queue.
//
// Thread Safety: Device is safe for concurrent use.
type Device struct {
	device hal.Device
	queue  hal.Queue
	cfg    DeviceConfig

	mu      sync.Mutex
	buffers map[upload.Buffer]struct{}
	images  map[*Image]struct{}
	q       *Queue
}

// NewDevice wraps a HAL device and queue.
func NewDevice(device hal.Device, queue hal.Queue, cfg DeviceConfig) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilHALDevice
	}
	if cfg.MapAlignment == 0 || cfg.MapAlignment&(cfg.MapAlignment-1) != 0 {
		cfg.MapAlignment = DefaultMapAlignment
	}
	if cfg.Label == "" {
		cfg.Label = "upload"
	}
	if cfg.ReadbackTimeout <= 0 {
		cfg.ReadbackTimeout = DefaultReadbackTimeout
	}
	d := &Device{
		device:  device,
		queue:   queue,
		cfg:     cfg,
		buffers: make(map[upload.Buffer]struct{}),
		images:  make(map[*Image]struct{}),
	}
	d.q = &Queue{device: device, queue: queue, label: cfg.Label}
	slogger().Debug("native: device created", "label", cfg.Label, "mapAlignment", cfg.MapAlignment)
	return d, nil
}

// MapAlignment returns the alignment of host writes.
func (d *Device) MapAlignment() uint64 { return d.cfg.MapAlignment }

// HAL returns the underlying HAL device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Queue returns the device's submission queue.
func (d *Device) Queue() *Queue { return d.q }

// CreateBuffer creates a device-local buffer.
func (d *Device) CreateBuffer(desc BufferDescriptor) (*Buffer, error) {
	b, err := d.createBuffer(desc, gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	d.track(b)
	return b, nil
}

// CreateHostBuffer creates a buffer the CPU writes through a mapping.
func (d *Device) CreateHostBuffer(desc BufferDescriptor) (*HostBuffer, error) {
	b, err := d.createBuffer(desc, gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	hb := &HostBuffer{Buffer: b, queue: d.queue, shadow: make([]byte, b.alloc)}
	d.track(hb)
	return hb, nil
}

// CreateStagingBuffer creates a host buffer that copy commands read from.
// It implements upload.Device.
func (d *Device) CreateStagingBuffer(size uint64) (upload.HostBuffer, error) {
	b, err := d.createBuffer(BufferDescriptor{
		Label: d.cfg.Label + "_staging",
		Size:  size,
		Usage: d.cfg.StagingUsage,
	}, gputypes.BufferUsageCopySrc|gputypes.BufferUsageMapWrite)
	if err != nil {
		return nil, err
	}
	hb := &HostBuffer{Buffer: b, queue: d.queue, shadow: make([]byte, b.alloc)}
	d.track(hb)
	return hb, nil
}

func (d *Device) createBuffer(desc BufferDescriptor, extra gputypes.BufferUsage) (*Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer %q has zero size", ErrInvalidSize, desc.Label)
	}
	desc.Usage |= extra
	a := d.cfg.MapAlignment
	alloc := (desc.Size + a - 1) &^ (a - 1)
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alloc,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	return &Buffer{raw: raw, desc: desc, alloc: alloc}, nil
}

// CreateImage creates an image.
func (d *Device) CreateImage(desc ImageDescriptor) (*Image, error) {
	desc.normalize()
	if desc.Extent.Width == 0 || desc.Extent.Height == 0 {
		return nil, fmt.Errorf("%w: image %q is %dx%d", ErrInvalidSize, desc.Label, desc.Extent.Width, desc.Extent.Height)
	}
	raw, err := d.device.CreateTexture(desc.halDescriptor())
	if err != nil {
		return nil, fmt.Errorf("create image %q: %w", desc.Label, err)
	}
	img := &Image{raw: raw, desc: desc}
	d.mu.Lock()
	d.images[img] = struct{}{}
	d.mu.Unlock()
	return img, nil
}

func (d *Device) track(b upload.Buffer) {
	d.mu.Lock()
	d.buffers[b] = struct{}{}
	d.mu.Unlock()
}

// DestroyBuffer releases a buffer created by d. It implements
// upload.Device. Buffers from other devices are ignored.
func (d *Device) DestroyBuffer(b upload.Buffer) {
	d.mu.Lock()
	_, ok := d.buffers[b]
	delete(d.buffers, b)
	d.mu.Unlock()
	if !ok {
		return
	}
	if hb, isHost := b.(*HostBuffer); isHost {
		hb.destroy()
	}
	if rb, isRaw := b.(rawBuffer); isRaw {
		d.device.DestroyBuffer(rb.Raw())
	}
}

// DestroyImage releases an image created by d.
func (d *Device) DestroyImage(img *Image) {
	d.mu.Lock()
	_, ok := d.images[img]
	delete(d.images, img)
	d.mu.Unlock()
	if ok {
		d.device.DestroyTexture(img.raw)
	}
}

// NewRecorder creates a command recorder.
func (d *Device) NewRecorder(label string) *Recorder {
	if label == "" {
		label = d.cfg.Label
	}
	return &Recorder{device: d.device, label: label}
}

// NewFence creates a fence for Queue.Submit.
func (d *Device) NewFence() *Fence {
	return &Fence{q: d.q}
}

// ReadBuffer copies len(dst) bytes at offset of b back to the host. It
// copies the range into a MapRead buffer, waits up to ReadbackTimeout for
// the copy and every earlier submission, then maps the copy.
func (d *Device) ReadBuffer(b upload.Buffer, offset uint64, dst []byte) error {
	rb, ok := b.(rawBuffer)
	if !ok {
		return ErrForeignResource
	}
	if len(dst) == 0 {
		return nil
	}
	if n := b.Size(); offset > n || uint64(len(dst)) > n-offset {
		return fmt.Errorf("%w: read [%d, +%d) past %d bytes", ErrInvalidSize, offset, len(dst), n)
	}
	// Buffer copies work on 4-byte units.
	start := offset &^ 3
	size := (offset + uint64(len(dst)) - start + 3) &^ 3

	staging, err := d.createBuffer(BufferDescriptor{
		Label: d.cfg.Label + "_readback",
		Size:  size,
	}, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("read buffer: %w", err)
	}
	d.track(staging)

	rec := d.NewRecorder(d.cfg.Label + "_readback")
	if err := rec.Begin(); err != nil {
		d.DestroyBuffer(staging)
		return fmt.Errorf("read buffer: %w", err)
	}
	rec.enc.CopyBufferToBuffer(rb.Raw(), staging.raw, []hal.BufferCopy{{SrcOffset: start, Size: size}})
	if err := rec.End(); err != nil {
		d.DestroyBuffer(staging)
		return fmt.Errorf("read buffer: %w", err)
	}
	index, err := d.q.submit(rec.take())
	if err != nil {
		d.DestroyBuffer(staging)
		return fmt.Errorf("read buffer: %w", err)
	}
	if !d.q.waitIndex(index, d.cfg.ReadbackTimeout) {
		// The copy may still be running. Close destroys the readback
		// buffer after the device goes idle.
		return ErrReadbackTimeout
	}
	defer d.DestroyBuffer(staging)

	m, err := d.device.MapBuffer(staging.raw, 0, size)
	if err != nil {
		return fmt.Errorf("read buffer: map: %w", err)
	}
	copy(dst, unsafe.Slice((*byte)(m.Ptr), size)[offset-start:])
	if err := d.device.UnmapBuffer(staging.raw); err != nil {
		return fmt.Errorf("read buffer: unmap: %w", err)
	}
	return nil
}

// Close waits for outstanding submissions and releases every resource the
// device created. The HAL device itself is owned by the caller.
func (d *Device) Close() {
	d.q.Close()
	d.mu.Lock()
	bufs := make([]upload.Buffer, 0, len(d.buffers))
	for b := range d.buffers {
		bufs = append(bufs, b)
	}
	imgs := make([]*Image, 0, len(d.images))
	for img := range d.images {
		imgs = append(imgs, img)
	}
	d.mu.Unlock()
	for _, b := range bufs {
		d.DestroyBuffer(b)
	}
	for _, img := range imgs {
		d.DestroyImage(img)
	}
}
