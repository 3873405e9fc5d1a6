// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/upload"
)

// bufferUsage maps an access mask to the WebGPU buffer usage HAL barriers
// are expressed in. Host access maps to the mapping usages; accesses the
// HAL does not track map to no usage.
func bufferUsage(a upload.Access) gputypes.BufferUsage {
	var u gputypes.BufferUsage
	if a&upload.AccessHostWrite != 0 {
		u |= gputypes.BufferUsageMapWrite
	}
	if a&upload.AccessHostRead != 0 {
		u |= gputypes.BufferUsageMapRead
	}
	if a&upload.AccessTransferRead != 0 {
		u |= gputypes.BufferUsageCopySrc
	}
	if a&upload.AccessTransferWrite != 0 {
		u |= gputypes.BufferUsageCopyDst
	}
	if a&upload.AccessIndexRead != 0 {
		u |= gputypes.BufferUsageIndex
	}
	if a&upload.AccessVertexRead != 0 {
		u |= gputypes.BufferUsageVertex
	}
	if a&upload.AccessUniformRead != 0 {
		u |= gputypes.BufferUsageUniform
	}
	if a&(upload.AccessShaderRead|upload.AccessShaderWrite) != 0 {
		u |= gputypes.BufferUsageStorage
	}
	if a&upload.AccessIndirectRead != 0 {
		u |= gputypes.BufferUsageIndirect
	}
	return u
}

// textureUsage maps an image layout to a WebGPU texture usage. Undefined
// maps to no usage, which HAL barriers treat as discarding the contents.
func textureUsage(l upload.Layout) gputypes.TextureUsage {
	switch l {
	case upload.LayoutGeneral:
		return gputypes.TextureUsageStorageBinding
	case upload.LayoutTransferSrc:
		return gputypes.TextureUsageCopySrc
	case upload.LayoutTransferDst:
		return gputypes.TextureUsageCopyDst
	case upload.LayoutShaderReadOnly, upload.LayoutDepthStencilReadOnly:
		return gputypes.TextureUsageTextureBinding
	case upload.LayoutColorAttachment, upload.LayoutDepthStencilAttachment, upload.LayoutPresent:
		return gputypes.TextureUsageRenderAttachment
	default:
		return 0
	}
}

// textureAspect maps an aspect mask to a WebGPU aspect.
func textureAspect(a upload.Aspect) gputypes.TextureAspect {
	switch {
	case a == upload.AspectDepth:
		return gputypes.TextureAspectDepthOnly
	case a == upload.AspectStencil:
		return gputypes.TextureAspectStencilOnly
	default:
		return gputypes.TextureAspectAll
	}
}

// textureDimension maps an image dimension to a WebGPU dimension.
func textureDimension(d upload.ImageDimension) gputypes.TextureDimension {
	switch d {
	case upload.Dimension1D:
		return gputypes.TextureDimension1D
	case upload.Dimension3D:
		return gputypes.TextureDimension3D
	default:
		return gputypes.TextureDimension2D
	}
}
