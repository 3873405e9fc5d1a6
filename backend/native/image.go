// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upload"
)

// ImageDescriptor describes an image to create.
type ImageDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Dimension is the image dimension (1D, 2D, 3D).
	Dimension upload.ImageDimension

	// Extent is the size of mip level 0. Depth is the depth of 3D images
	// and must be 1 otherwise.
	Extent upload.Extent3D

	// MipLevels defaults to 1 if zero.
	MipLevels uint32

	// ArrayLayers defaults to 1 if zero. 3D images have one layer.
	ArrayLayers uint32

	// Format is the texel format.
	Format gputypes.TextureFormat

	// Usage specifies how the image will be used. CopyDst is always added
	// so the image can receive uploads.
	Usage gputypes.TextureUsage
}

// Image is a GPU texture that can receive uploads.
type Image struct {
	raw  hal.Texture
	desc ImageDescriptor
}

// Dimension returns the image dimension.
func (i *Image) Dimension() upload.ImageDimension { return i.desc.Dimension }

// Extent returns the size of mip level 0.
func (i *Image) Extent() upload.Extent3D { return i.desc.Extent }

// MipLevels returns the number of mip levels.
func (i *Image) MipLevels() uint32 { return i.desc.MipLevels }

// ArrayLayers returns the number of array layers.
func (i *Image) ArrayLayers() uint32 { return i.desc.ArrayLayers }

// Format returns the texel format.
func (i *Image) Format() gputypes.TextureFormat { return i.desc.Format }

// Descriptor returns a copy of the image descriptor.
func (i *Image) Descriptor() ImageDescriptor { return i.desc }

// String returns the label, used in upload error messages.
func (i *Image) String() string { return i.desc.Label }

// Raw returns the underlying HAL texture handle.
func (i *Image) Raw() hal.Texture { return i.raw }

// halDescriptor converts d into a HAL texture descriptor.
func (d *ImageDescriptor) halDescriptor() *hal.TextureDescriptor {
	depth := d.ArrayLayers
	if d.Dimension == upload.Dimension3D {
		depth = d.Extent.Depth
	}
	return &hal.TextureDescriptor{
		Label: d.Label,
		Size: hal.Extent3D{
			Width:              d.Extent.Width,
			Height:             d.Extent.Height,
			DepthOrArrayLayers: depth,
		},
		MipLevelCount: d.MipLevels,
		SampleCount:   1,
		Dimension:     textureDimension(d.Dimension),
		Format:        d.Format,
		Usage:         d.Usage | gputypes.TextureUsageCopyDst,
	}
}

// normalize applies defaults.
func (d *ImageDescriptor) normalize() {
	if d.MipLevels == 0 {
		d.MipLevels = 1
	}
	if d.ArrayLayers == 0 || d.Dimension == upload.Dimension3D {
		d.ArrayLayers = 1
	}
	if d.Extent.Depth == 0 || d.Dimension != upload.Dimension3D {
		d.Extent.Depth = 1
	}
	if d.Dimension == upload.Dimension1D {
		d.Extent.Height = 1
	}
}
