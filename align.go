// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import "fmt"

// WholeSize maps or writes a buffer from its start to its end.
const WholeSize = ^uint64(0)

// MappedRangePlan is the range that must be mapped to write a sub-range of
// a buffer whose mappings must be aligned.
type MappedRangePlan struct {
	// Offset and Size are the range to lock and flush. Size is WholeSize
	// for full-size maps.
	Offset uint64
	Size   uint64

	// CopyOffset is where the caller's data starts inside the mapping.
	CopyOffset uint64

	// FullSize is set when the whole buffer is mapped.
	FullSize bool
}

// End returns the end of the mapped range, or bufferSize for full-size maps.
func (p MappedRangePlan) End(bufferSize uint64) uint64 {
	if p.FullSize {
		return bufferSize
	}
	return p.Offset + p.Size
}

// PlanMappedRange computes the mapped range needed to write size bytes at
// offset into a buffer of bufferSize bytes whose mappings must be aligned
// to alignment.
//
// Writes that cover the whole buffer (offset 0 and size >= bufferSize, or
// size == WholeSize) map the whole buffer and copy to offset 0.
// Otherwise the range is [floor(offset), ceil(offset+size)) in units of
// alignment, which may extend past bufferSize up to the next alignment
// boundary.
func PlanMappedRange(offset, size, bufferSize, alignment uint64) (MappedRangePlan, error) {
	if alignment == 0 || alignment&(alignment-1) != 0 {
		return MappedRangePlan{}, fmt.Errorf("%w: %d is not a power of two", ErrInvalidAlignment, alignment)
	}
	if size == WholeSize || (offset == 0 && size >= bufferSize) {
		return MappedRangePlan{Offset: 0, Size: WholeSize, FullSize: true}, nil
	}
	if offset > bufferSize || size > bufferSize-offset {
		return MappedRangePlan{}, fmt.Errorf("%w: [%d, +%d) exceeds buffer size %d",
			ErrOutOfBounds, offset, size, bufferSize)
	}

	var p MappedRangePlan
	p.Offset = alignDown(offset, alignment)
	if offset < p.Offset {
		return MappedRangePlan{}, fmt.Errorf("%w: mapped offset %d is past %d", ErrInvalidAlignment, p.Offset, offset)
	}
	p.CopyOffset = offset - p.Offset
	p.Size = alignUp(p.CopyOffset+size, alignment)

	if p.Offset+p.Size > alignUp(bufferSize, alignment) {
		return MappedRangePlan{}, fmt.Errorf("%w: mapped range [%d, +%d) exceeds buffer size %d",
			ErrOutOfBounds, p.Offset, p.Size, bufferSize)
	}
	if p.Offset%alignment != 0 || p.Size%alignment != 0 {
		return MappedRangePlan{}, fmt.Errorf("%w: [%d, +%d) for alignment %d",
			ErrMisalignedResult, p.Offset, p.Size, alignment)
	}
	return p, nil
}

func alignDown(v, a uint64) uint64 { return v &^ (a - 1) }
func alignUp(v, a uint64) uint64   { return (v + a - 1) &^ (a - 1) }
