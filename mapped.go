// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"errors"
	"fmt"
)

// MappedRegion is a locked range of a HostBuffer. Release flushes and
// unlocks it; call it with defer right after MapRange succeeds.
type MappedRegion struct {
	buf  HostBuffer
	plan MappedRangePlan
	data []byte
	size uint64
	done bool
}

// MapRange locks the range needed to write size bytes at offset into buf.
func MapRange(buf HostBuffer, offset, size, alignment uint64) (*MappedRegion, error) {
	plan, err := PlanMappedRange(offset, size, buf.Size(), alignment)
	if err != nil {
		return nil, err
	}
	data, err := buf.Lock(plan.Offset, plan.Size)
	if err != nil {
		return nil, fmt.Errorf("lock [%d, +%d): %w", plan.Offset, plan.Size, err)
	}
	if size == WholeSize {
		size = buf.Size()
	}
	if plan.CopyOffset+size > uint64(len(data)) {
		_ = buf.Unlock()
		return nil, fmt.Errorf("%w: mapping of %d bytes cannot hold %d bytes at %d",
			ErrOutOfBounds, len(data), size, plan.CopyOffset)
	}
	return &MappedRegion{buf: buf, plan: plan, data: data, size: size}, nil
}

// Plan returns the mapped range.
func (m *MappedRegion) Plan() MappedRangePlan { return m.plan }

// Bytes returns the caller's window into the mapping: size bytes starting
// at the requested offset.
func (m *MappedRegion) Bytes() []byte {
	return m.data[m.plan.CopyOffset : m.plan.CopyOffset+m.size]
}

// Release flushes the mapped range and unlocks the buffer. Calls after
// the first return nil.
func (m *MappedRegion) Release() error {
	if m.done {
		return nil
	}
	m.done = true
	m.data = nil
	ferr := m.buf.Flush(m.plan.Offset, m.plan.Size)
	uerr := m.buf.Unlock()
	return errors.Join(ferr, uerr)
}
