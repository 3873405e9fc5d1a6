// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"fmt"
)

// Stats counts the work done by one or more Execute calls.
type Stats struct {
	Barriers     int
	Copies       int
	DirectWrites int
	StagedBytes  uint64
	DirectBytes  uint64
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Barriers += o.Barriers
	s.Copies += o.Copies
	s.DirectWrites += o.DirectWrites
	s.StagedBytes += o.StagedBytes
	s.DirectBytes += o.DirectBytes
}

// Commands returns the number of recorded commands.
func (s Stats) Commands() int { return s.Barriers + s.Copies }

// Executor turns a PendingSet into host writes and recorded commands.
// Buffers are written before images; within each group requests run in
// the set's sorted order.
type Executor struct {
	rec   Recorder
	reg   *Registry
	belt  *StagingBelt
	align uint64
}

// NewExecutor creates an executor recording into rec. belt may be nil, in
// which case every image request and every direct request to a buffer
// that is not a HostBuffer must use a Staged path.
func NewExecutor(rec Recorder, reg *Registry, belt *StagingBelt, alignment uint64) *Executor {
	return &Executor{rec: rec, reg: reg, belt: belt, align: alignment}
}

// Execute realizes every request of set. All requests are validated
// before any of them runs; the first invalid one aborts the batch with a
// *RequestError. Execute does not reset set.
func (e *Executor) Execute(set *PendingSet) (Stats, error) {
	var st Stats
	if err := e.validate(set); err != nil {
		return st, err
	}
	for i := range set.buffers {
		if err := e.uploadBuffer(&set.buffers[i], &st); err != nil {
			return st, e.bufferError(&set.buffers[i], err)
		}
	}
	for i := range set.images {
		if err := e.uploadImage(&set.images[i], &st); err != nil {
			return st, e.imageError(&set.images[i], err)
		}
	}
	return st, nil
}

func (e *Executor) validate(set *PendingSet) error {
	// Buffers receiving a recorded copy earlier in this batch.
	copied := make(map[Buffer]bool)
	for i := range set.buffers {
		req := &set.buffers[i]
		if err := e.validateBuffer(req, copied[req.Dst]); err != nil {
			return e.bufferError(req, err)
		}
		if !e.writesDirect(req, copied[req.Dst]) {
			copied[req.Dst] = true
		}
	}
	for i := range set.images {
		if err := e.validateImage(&set.images[i]); err != nil {
			return e.imageError(&set.images[i], err)
		}
	}
	return nil
}

func (e *Executor) validateBuffer(req *BufferUploadRequest, copiedBefore bool) error {
	size := req.Dst.Size()
	if req.Offset > size || req.Size > size-req.Offset {
		return fmt.Errorf("%w: end %d exceeds destination size %d", ErrOutOfBounds, req.Offset+req.Size, size)
	}
	switch path := req.Path.(type) {
	case Staged:
		srcSize := path.Buffer.Size()
		if path.Offset > srcSize || req.Size > srcSize-path.Offset {
			return fmt.Errorf("%w: end %d exceeds staging size %d", ErrOutOfBounds, path.Offset+req.Size, srcSize)
		}
	case Direct:
		if req.Size > uint64(len(req.Data)) {
			return fmt.Errorf("%w: size %d exceeds %d data bytes", ErrOutOfBounds, req.Size, len(req.Data))
		}
		if !e.writesDirect(req, copiedBefore) && e.belt == nil {
			return ErrNotMappable
		}
	}
	return nil
}

// writesDirect reports whether req is written through a host mapping.
// A direct request falls back to a staged copy when the destination is
// not host-visible, or when a recorded copy into it may still be pending:
// that copy runs on the queue after any host write made now.
func (e *Executor) writesDirect(req *BufferUploadRequest, copiedBefore bool) bool {
	if _, ok := req.Path.(Direct); !ok {
		return false
	}
	if _, ok := req.Dst.(HostBuffer); !ok {
		return false
	}
	return !copiedBefore && !e.reg.gpuWritePending(req.Dst)
}

func (e *Executor) validateImage(req *ImageUploadRequest) error {
	if !req.Range.within(req.Dst) {
		return fmt.Errorf("%w: %v outside %d levels, %d layers",
			ErrOutOfBounds, req.Range, req.Dst.MipLevels(), req.Dst.ArrayLayers())
	}
	need := e.sourceLayout(req).RequiredSize(req.Range)
	if need == 0 {
		return fmt.Errorf("%w: source layout addresses no bytes", ErrOutOfBounds)
	}
	switch path := req.Path.(type) {
	case Staged:
		srcSize := path.Buffer.Size()
		if path.Offset > srcSize || need > srcSize-path.Offset {
			return fmt.Errorf("%w: needs %d bytes at %d, staging size is %d", ErrOutOfBounds, need, path.Offset, srcSize)
		}
	case Direct:
		if e.belt == nil {
			return ErrNotMappable
		}
		if need > uint64(len(req.Data)) {
			return fmt.Errorf("%w: needs %d source bytes, got %d", ErrOutOfBounds, need, len(req.Data))
		}
	}
	return nil
}

func (e *Executor) uploadBuffer(req *BufferUploadRequest, st *Stats) error {
	switch path := req.Path.(type) {
	case Staged:
		e.copyBuffer(req, path, st)
		return nil
	case Direct:
		if e.writesDirect(req, false) {
			return e.writeDirect(req, req.Dst.(HostBuffer), st)
		}
		src, off, err := e.belt.Write(req.Data[:req.Size])
		if err != nil {
			return err
		}
		e.copyBuffer(req, Staged{Buffer: src, Offset: off}, st)
		return nil
	default:
		return fmt.Errorf("%w: unknown upload path %T", ErrInvalidState, path)
	}
}

// writeDirect writes through a host mapping. No command is recorded; the
// registry records the host write so later barriers start from it.
func (e *Executor) writeDirect(req *BufferUploadRequest, host HostBuffer, st *Stats) error {
	region, err := MapRange(host, req.Offset, req.Size, e.align)
	if err != nil {
		return err
	}
	copy(region.Bytes(), req.Data[:req.Size])
	if err := region.Release(); err != nil {
		return err
	}
	e.reg.transitionBuffer(req.Dst, BufferState{Access: AccessHostWrite, Stage: StageHost})
	st.DirectWrites++
	st.DirectBytes += req.Size
	return nil
}

func (e *Executor) copyBuffer(req *BufferUploadRequest, src Staged, st *Stats) {
	transfer := BufferState{Access: AccessTransferWrite, Stage: StageTransfer}
	want := BufferState{Access: req.Access, Stage: req.Stage}

	cur := e.reg.transitionBuffer(req.Dst, transfer)
	if cur != transfer {
		e.rec.BufferBarrier(cur.Stage.orTop(), StageTransfer, BufferBarrier{
			Buffer:    req.Dst,
			Offset:    req.Offset,
			Size:      req.Size,
			SrcAccess: cur.Access,
			DstAccess: AccessTransferWrite,
		})
		st.Barriers++
	}

	e.rec.CopyBuffer(src.Buffer, req.Dst, []BufferCopy{{
		SrcOffset: src.Offset,
		DstOffset: req.Offset,
		Size:      req.Size,
	}})
	st.Copies++
	st.StagedBytes += req.Size

	if want != transfer {
		e.rec.BufferBarrier(StageTransfer, want.Stage.orTop(), BufferBarrier{
			Buffer:    req.Dst,
			Offset:    req.Offset,
			Size:      req.Size,
			SrcAccess: AccessTransferWrite,
			DstAccess: want.Access,
		})
		st.Barriers++
	}
	e.reg.transitionBuffer(req.Dst, want)
	e.reg.markGPUWrite(req.Dst, e)
}

// sourceLayout returns the request's layout with the destination's
// dimension, which decides how layers are addressed.
func (e *Executor) sourceLayout(req *ImageUploadRequest) SourceLayout {
	l := req.Layout
	l.Dimension = req.Dst.Dimension()
	return l
}

func (e *Executor) uploadImage(req *ImageUploadRequest, st *Stats) error {
	var src Staged
	switch path := req.Path.(type) {
	case Staged:
		src = path
	case Direct:
		layout := e.sourceLayout(req)
		need := layout.RequiredSize(req.Range)
		buf, off, err := e.belt.Write(req.Data[:need])
		if err != nil {
			return err
		}
		src = Staged{Buffer: buf, Offset: off}
	default:
		return fmt.Errorf("%w: unknown upload path %T", ErrInvalidState, path)
	}

	rng := req.Range
	layout := e.sourceLayout(req)
	cur := e.reg.transitionImage(req.Dst, ImageState{
		Layout: LayoutTransferDst,
		Access: AccessTransferWrite,
		Stage:  StageTransfer,
	})
	e.rec.ImageBarrier(cur.Stage.orTop(), StageTransfer, ImageBarrier{
		Image:     req.Dst,
		Range:     rng,
		OldLayout: LayoutUndefined,
		NewLayout: LayoutTransferDst,
		SrcAccess: cur.Access,
		DstAccess: AccessTransferWrite,
	})
	st.Barriers++

	regions := e.imageRegions(req, layout, src.Offset)
	e.rec.CopyBufferToImage(src.Buffer, req.Dst, LayoutTransferDst, regions)
	st.Copies++
	st.StagedBytes += layout.RequiredSize(rng)

	after := ImageState{Layout: req.After, Access: layoutAccess(req.After), Stage: req.Stage}
	e.rec.ImageBarrier(StageTransfer, after.Stage.orTop(), ImageBarrier{
		Image:     req.Dst,
		Range:     rng,
		OldLayout: LayoutTransferDst,
		NewLayout: after.Layout,
		SrcAccess: AccessTransferWrite,
		DstAccess: after.Access,
	})
	st.Barriers++
	e.reg.transitionImage(req.Dst, after)
	return nil
}

// imageRegions builds the copy regions of req. 3D images get one region
// per level, starting at depth slice BaseArrayLayer>>level; other images
// get one region per (layer, level).
func (e *Executor) imageRegions(req *ImageUploadRequest, layout SourceLayout, base uint64) []BufferImageCopy {
	rng := req.Range
	offsets, _ := layout.offsets(rng)

	layers := rng.LayerCount
	if layout.Dimension == Dimension3D {
		layers = 1
	}
	regions := make([]BufferImageCopy, 0, int(layers)*int(rng.LevelCount))
	for i := uint32(0); i < layers; i++ {
		for j := uint32(0); j < rng.LevelCount; j++ {
			level := rng.BaseMipLevel + j
			origin, extent := layout.region(rng, level)
			r := BufferImageCopy{
				BufferOffset: base + offsets[i][j],
				BytesPerRow:  layout.RowPitch(level),
				RowsPerImage: extent.Height,
				Aspect:       rng.Aspect,
				MipLevel:     level,
				ArrayLayer:   rng.BaseArrayLayer + i,
				LayerCount:   1,
				Origin:       origin,
				Extent:       extent,
			}
			if layout.Dimension == Dimension3D {
				r.ArrayLayer = 0
			}
			regions = append(regions, r)
		}
	}
	return regions
}

// layoutAccess returns the access implied by an image layout.
func layoutAccess(l Layout) Access {
	switch l {
	case LayoutGeneral:
		return AccessShaderRead | AccessShaderWrite
	case LayoutTransferSrc:
		return AccessTransferRead
	case LayoutTransferDst:
		return AccessTransferWrite
	case LayoutShaderReadOnly:
		return AccessShaderRead
	case LayoutColorAttachment:
		return AccessColorAttachmentRead | AccessColorAttachmentWrite
	case LayoutDepthStencilAttachment:
		return AccessDepthStencilRead | AccessDepthStencilWrite
	case LayoutDepthStencilReadOnly:
		return AccessDepthStencilRead
	default:
		return AccessNone
	}
}

func (e *Executor) bufferError(req *BufferUploadRequest, err error) error {
	return &RequestError{
		Op:     "buffer",
		Dest:   e.reg.describeBuffer(req.Dst),
		Offset: req.Offset,
		Size:   req.Size,
		Err:    err,
	}
}

func (e *Executor) imageError(req *ImageUploadRequest, err error) error {
	return &RequestError{
		Op:     "image",
		Dest:   e.reg.describeImage(req.Dst),
		Size:   uint64(len(req.Data)),
		Err:    fmt.Errorf("%v: %w", req.Range, err),
	}
}
