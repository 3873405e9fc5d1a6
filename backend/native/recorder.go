// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upload"
)

// Recorder implements upload.Recorder with a HAL command encoder.
//
// Recording methods have no error result. The first failure is kept and
// returned by End, which then discards the encoding.
//
// A Recorder is not safe for concurrent use.
type Recorder struct {
	device hal.Device
	label  string

	enc       hal.CommandEncoder
	recording bool
	cmd       hal.CommandBuffer
	err       error
}

// Begin starts a new encoding. A finished command buffer that was never
// submitted is freed.
func (r *Recorder) Begin() error {
	if r.recording {
		return fmt.Errorf("native: recorder %q already recording", r.label)
	}
	r.freeCommands()
	enc, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: r.label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(r.label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	r.enc = enc
	r.recording = true
	r.err = nil
	return nil
}

// End finishes the encoding. The command buffer is handed to the next
// Queue.Submit.
func (r *Recorder) End() error {
	if !r.recording {
		return ErrNotRecording
	}
	r.recording = false
	if r.err != nil {
		r.enc.DiscardEncoding()
		err := r.err
		r.err = nil
		return err
	}
	cmd, err := r.enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	r.cmd = cmd
	return nil
}

// Discard drops the current encoding or unsubmitted command buffer.
func (r *Recorder) Discard() {
	if r.recording {
		r.enc.DiscardEncoding()
		r.recording = false
	}
	r.err = nil
	r.freeCommands()
}

// Err returns the first recording failure since Begin.
func (r *Recorder) Err() error { return r.err }

// take hands the finished command buffer to a submission.
func (r *Recorder) take() hal.CommandBuffer {
	cmd := r.cmd
	r.cmd = nil
	return cmd
}

func (r *Recorder) freeCommands() {
	if r.cmd != nil {
		r.device.FreeCommandBuffer(r.cmd)
		r.cmd = nil
	}
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// ready reports whether commands can be recorded, noting the failure if not.
func (r *Recorder) ready() bool {
	if !r.recording {
		r.fail(ErrNotRecording)
		return false
	}
	return r.err == nil
}

// BufferBarrier records a buffer usage transition. HAL barriers carry
// usages, not stages; the stages are implied by the usages.
func (r *Recorder) BufferBarrier(_, _ upload.Stage, b upload.BufferBarrier) {
	if !r.ready() {
		return
	}
	rb, ok := b.Buffer.(rawBuffer)
	if !ok {
		r.fail(fmt.Errorf("%w: barrier on %T", ErrForeignResource, b.Buffer))
		return
	}
	r.enc.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: rb.Raw(),
		Usage: hal.BufferUsageTransition{
			OldUsage: bufferUsage(b.SrcAccess),
			NewUsage: bufferUsage(b.DstAccess),
		},
	}})
}

// ImageBarrier records a texture usage transition over b.Range.
func (r *Recorder) ImageBarrier(_, _ upload.Stage, b upload.ImageBarrier) {
	if !r.ready() {
		return
	}
	img, ok := b.Image.(*Image)
	if !ok {
		r.fail(fmt.Errorf("%w: barrier on %T", ErrForeignResource, b.Image))
		return
	}
	rng := b.Range
	layers := rng.LayerCount
	base := rng.BaseArrayLayer
	if img.Dimension() == upload.Dimension3D {
		// Depth slices share the image's single layer.
		base, layers = 0, 1
	}
	r.enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: img.raw,
		Range: hal.TextureRange{
			Aspect:          textureAspect(rng.Aspect),
			BaseMipLevel:    rng.BaseMipLevel,
			MipLevelCount:   rng.LevelCount,
			BaseArrayLayer:  base,
			ArrayLayerCount: layers,
		},
		Usage: hal.TextureUsageTransition{
			OldUsage: textureUsage(b.OldLayout),
			NewUsage: textureUsage(b.NewLayout),
		},
	}})
}

// CopyBuffer records a buffer to buffer copy.
func (r *Recorder) CopyBuffer(src, dst upload.Buffer, regions []upload.BufferCopy) {
	if !r.ready() {
		return
	}
	s, ok1 := src.(rawBuffer)
	d, ok2 := dst.(rawBuffer)
	if !ok1 || !ok2 {
		r.fail(fmt.Errorf("%w: copy %T -> %T", ErrForeignResource, src, dst))
		return
	}
	out := make([]hal.BufferCopy, len(regions))
	for i, c := range regions {
		out[i] = hal.BufferCopy{SrcOffset: c.SrcOffset, DstOffset: c.DstOffset, Size: c.Size}
	}
	r.enc.CopyBufferToBuffer(s.Raw(), d.Raw(), out)
}

// CopyBufferToImage records a buffer to texture copy. The layout is
// implied by the preceding barrier.
func (r *Recorder) CopyBufferToImage(src upload.Buffer, dst upload.Image, _ upload.Layout, regions []upload.BufferImageCopy) {
	if !r.ready() {
		return
	}
	s, ok1 := src.(rawBuffer)
	img, ok2 := dst.(*Image)
	if !ok1 || !ok2 {
		r.fail(fmt.Errorf("%w: copy %T -> %T", ErrForeignResource, src, dst))
		return
	}
	r.enc.CopyBufferToTexture(s.Raw(), img.raw, textureCopies(img, regions))
}

// textureCopies converts copy regions to HAL form. Array layers are
// addressed through the Z origin, as in WebGPU.
func textureCopies(img *Image, regions []upload.BufferImageCopy) []hal.BufferTextureCopy {
	out := make([]hal.BufferTextureCopy, len(regions))
	for i, c := range regions {
		depth := c.LayerCount
		z := c.ArrayLayer
		if img.Dimension() == upload.Dimension3D {
			depth = c.Extent.Depth
			z = c.Origin.Z
		}
		out[i] = hal.BufferTextureCopy{
			BufferLayout: hal.ImageDataLayout{
				Offset:       c.BufferOffset,
				BytesPerRow:  c.BytesPerRow,
				RowsPerImage: c.RowsPerImage,
			},
			TextureBase: hal.ImageCopyTexture{
				Texture:  img.raw,
				MipLevel: c.MipLevel,
				Origin:   hal.Origin3D{X: c.Origin.X, Y: c.Origin.Y, Z: z},
				Aspect:   textureAspect(c.Aspect),
			},
			Size: hal.Extent3D{Width: c.Extent.Width, Height: c.Extent.Height, DepthOrArrayLayers: depth},
		}
	}
	return out
}
