// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"cmp"
	"slices"
	"sort"
)

// bufferKey orders buffer requests by destination, then offset, then
// insertion.
type bufferKey struct {
	dest   uint64
	offset uint64
	seq    uint64
}

func (k bufferKey) compare(o bufferKey) int {
	if c := cmp.Compare(k.dest, o.dest); c != 0 {
		return c
	}
	if c := cmp.Compare(k.offset, o.offset); c != 0 {
		return c
	}
	return cmp.Compare(k.seq, o.seq)
}

// imageKey orders image requests by destination, then base layer, then
// base level, then insertion.
type imageKey struct {
	dest  uint64
	layer uint32
	level uint32
	seq   uint64
}

func (k imageKey) compare(o imageKey) int {
	if c := cmp.Compare(k.dest, o.dest); c != 0 {
		return c
	}
	if c := cmp.Compare(k.layer, o.layer); c != 0 {
		return c
	}
	if c := cmp.Compare(k.level, o.level); c != 0 {
		return c
	}
	return cmp.Compare(k.seq, o.seq)
}

// PendingSet holds the requests pushed since the last Process, sorted by
// destination. Requests are never merged: overlapping writes all execute
// in order, so the last one pushed wins.
type PendingSet struct {
	reg     *Registry
	seq     uint64
	buffers []BufferUploadRequest
	images  []ImageUploadRequest
}

// NewPendingSet creates an empty set that takes destination identities
// from reg.
func NewPendingSet(reg *Registry) *PendingSet {
	if reg == nil {
		reg = NewRegistry()
	}
	return &PendingSet{reg: reg}
}

// PushBuffer inserts a buffer request at its sorted position. Requests
// without data or with a zero size are dropped. It reports whether the
// request was kept.
func (p *PendingSet) PushBuffer(req BufferUploadRequest) bool {
	if req.Dst == nil {
		return false
	}
	if req.Path == nil {
		req.Path = Direct{}
	}
	if req.Size == 0 {
		req.Size = uint64(len(req.Data))
	}
	switch path := req.Path.(type) {
	case Direct:
		if len(req.Data) == 0 {
			return false
		}
	case Staged:
		if path.Buffer == nil {
			return false
		}
	}
	if req.Size == 0 {
		return false
	}

	p.seq++
	req.key = bufferKey{dest: p.reg.bufferID(req.Dst), offset: req.Offset, seq: p.seq}
	i := sort.Search(len(p.buffers), func(i int) bool {
		return p.buffers[i].key.compare(req.key) > 0
	})
	p.buffers = slices.Insert(p.buffers, i, req)
	return true
}

// PushImage inserts an image request at its sorted position. Requests
// without data or with an empty subresource range are dropped. It reports
// whether the request was kept.
func (p *PendingSet) PushImage(req ImageUploadRequest) bool {
	if req.Dst == nil || req.Range.Empty() {
		return false
	}
	if req.Path == nil {
		req.Path = Direct{}
	}
	switch path := req.Path.(type) {
	case Direct:
		if len(req.Data) == 0 {
			return false
		}
	case Staged:
		if path.Buffer == nil {
			return false
		}
	}

	p.seq++
	req.key = imageKey{
		dest:  p.reg.imageID(req.Dst),
		layer: req.Range.BaseArrayLayer,
		level: req.Range.BaseMipLevel,
		seq:   p.seq,
	}
	i := sort.Search(len(p.images), func(i int) bool {
		return p.images[i].key.compare(req.key) > 0
	})
	p.images = slices.Insert(p.images, i, req)
	return true
}

// Buffers returns the pending buffer requests in execution order.
// The slice is valid until the next push or Reset.
func (p *PendingSet) Buffers() []BufferUploadRequest { return p.buffers }

// Images returns the pending image requests in execution order.
// The slice is valid until the next push or Reset.
func (p *PendingSet) Images() []ImageUploadRequest { return p.images }

// Len returns the number of pending requests.
func (p *PendingSet) Len() int { return len(p.buffers) + len(p.images) }

// Empty reports whether no request is pending.
func (p *PendingSet) Empty() bool { return p.Len() == 0 }

// Reset drops every pending request and releases the borrowed source
// slices. The backing arrays are kept for reuse.
func (p *PendingSet) Reset() {
	clear(p.buffers)
	clear(p.images)
	p.buffers = p.buffers[:0]
	p.images = p.images[:0]
}
