// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import "fmt"

// UploadPath selects how a request reaches its destination.
// It is either Direct or Staged.
type UploadPath interface {
	uploadPath()
}

// Direct writes the source bytes through a host mapping of the
// destination. Destinations that cannot be mapped go through the
// session's staging belt.
type Direct struct{}

// Staged copies from a buffer that already holds the data on the device.
type Staged struct {
	Buffer Buffer
	Offset uint64
}

func (Direct) uploadPath() {}
func (Staged) uploadPath() {}

// BufferUploadRequest is one pending write into a buffer.
type BufferUploadRequest struct {
	// Data is borrowed until the request is processed. It may be nil for
	// Staged requests.
	Data []byte
	// Path defaults to Direct when nil.
	Path UploadPath

	Dst    Buffer
	Offset uint64
	// Size defaults to len(Data).
	Size uint64

	// Access and Stage are the state the destination is left in.
	Access Access
	Stage  Stage

	key bufferKey
}

// ImageUploadRequest is one pending write into an image.
type ImageUploadRequest struct {
	// Data is borrowed until the request is processed. It may be nil for
	// Staged requests.
	Data []byte
	// Path defaults to Direct when nil. Direct image data is always
	// written through the staging belt.
	Path UploadPath

	Dst    Image
	Layout SourceLayout
	Range  SubresourceRange

	// After and Stage are the layout and stage the destination is left in.
	After Layout
	Stage Stage

	key imageKey
}

// SubresourceRange is the slice of an image a command applies to.
type SubresourceRange struct {
	Aspect         Aspect
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// Empty reports whether the range addresses no subresource.
func (r SubresourceRange) Empty() bool {
	return r.LevelCount == 0 || r.LayerCount == 0
}

func (r SubresourceRange) String() string {
	return fmt.Sprintf("levels [%d,%d) layers [%d,%d)",
		r.BaseMipLevel, r.BaseMipLevel+r.LevelCount,
		r.BaseArrayLayer, r.BaseArrayLayer+r.LayerCount)
}

// within reports whether r fits an image with the given level and layer
// counts. 3D images are addressed by depth slice.
func (r SubresourceRange) within(img Image) bool {
	if r.Empty() {
		return false
	}
	levels := uint64(img.MipLevels())
	layers := uint64(img.ArrayLayers())
	if img.Dimension() == Dimension3D {
		layers = uint64(img.Extent().Depth)
	}
	return uint64(r.BaseMipLevel)+uint64(r.LevelCount) <= levels &&
		uint64(r.BaseArrayLayer)+uint64(r.LayerCount) <= layers
}

// SourceLayout describes how image data is laid out in the source bytes.
//
// Unless Offsets is set, the source is tightly packed layer-major: every
// addressed level of the first addressed layer, then every level of the
// next one. Offsets are relative to the start of the source and indexed
// relative to the addressed range ([layer-BaseArrayLayer][level-BaseMipLevel]).
type SourceLayout struct {
	Dimension ImageDimension
	// Extent is the extent of mip level 0.
	Extent Extent3D
	// BytesPerTexel is the size of one texel.
	BytesPerTexel uint32
	// RowAlignment is the row pitch alignment; 0 or 1 means tightly packed.
	RowAlignment uint32

	Offsets [][]uint64
}

// RowPitch returns the byte pitch of one row of the given level.
func (l SourceLayout) RowPitch(level uint32) uint32 {
	pitch := l.Extent.mip(level).Width * l.BytesPerTexel
	if a := l.RowAlignment; a > 1 {
		pitch = (pitch + a - 1) / a * a
	}
	return pitch
}

// LevelSize returns the byte size of one layer of the given level.
func (l SourceLayout) LevelSize(level uint32) uint64 {
	e := l.levelExtent(level)
	return uint64(l.RowPitch(level)) * uint64(e.Height) * uint64(e.Depth)
}

// levelExtent returns the extent of a level; depth is 1 unless the
// layout is 3D.
func (l SourceLayout) levelExtent(level uint32) Extent3D {
	e := l.Extent.mip(level)
	if l.Dimension != Dimension3D {
		e.Depth = 1
	}
	if l.Dimension == Dimension1D {
		e.Height = 1
	}
	return e
}

// region returns the texel origin and extent of the copy for one level
// of r. For 3D layouts the addressed layers are depth slices: the copy
// covers slices [BaseArrayLayer, BaseArrayLayer+LayerCount) shifted right
// by level, at least one slice and never past the end of the level.
func (l SourceLayout) region(r SubresourceRange, level uint32) (Origin3D, Extent3D) {
	e := l.levelExtent(level)
	if l.Dimension != Dimension3D {
		return Origin3D{}, e
	}
	z := r.BaseArrayLayer >> level
	if z >= e.Depth {
		z = e.Depth - 1
	}
	e.Depth = min(max(1, r.LayerCount>>level), e.Depth-z)
	return Origin3D{Z: z}, e
}

// regionSize returns the number of source bytes for one layer of one
// level of r.
func (l SourceLayout) regionSize(r SubresourceRange, level uint32) uint64 {
	_, e := l.region(r, level)
	return uint64(l.RowPitch(level)) * uint64(e.Height) * uint64(e.Depth)
}

// offsets returns the byte offset of every (layer, level) pair addressed
// by r and the number of source bytes the range needs.
func (l SourceLayout) offsets(r SubresourceRange) ([][]uint64, uint64) {
	layers := r.LayerCount
	if l.Dimension == Dimension3D {
		layers = 1
	}
	out := make([][]uint64, layers)
	var end uint64
	for i := range out {
		out[i] = make([]uint64, r.LevelCount)
		for j := range out[i] {
			level := r.BaseMipLevel + uint32(j)
			if l.Offsets != nil {
				if i < len(l.Offsets) && j < len(l.Offsets[i]) {
					out[i][j] = l.Offsets[i][j]
				}
				end = max(end, out[i][j]+l.regionSize(r, level))
				continue
			}
			out[i][j] = end
			end += l.regionSize(r, level)
		}
	}
	return out, end
}

// RequiredSize returns the number of source bytes needed to upload r.
func (l SourceLayout) RequiredSize(r SubresourceRange) uint64 {
	_, n := l.offsets(r)
	return n
}
