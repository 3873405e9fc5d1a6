// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"errors"
	"fmt"
)

// Upload errors.
var (
	// ErrInvalidState is returned when the session API is misused, such as
	// pushing while not recording.
	ErrInvalidState = errors.New("upload: invalid session state")

	// ErrPendingWorkNotFlushed is returned by End when pushed requests were
	// not processed.
	ErrPendingWorkNotFlushed = fmt.Errorf("%w: pending work not flushed", ErrInvalidState)

	// ErrNotMappable is returned when a direct upload targets a buffer that
	// cannot be mapped and no staging belt is available.
	ErrNotMappable = fmt.Errorf("%w: destination is not host-mappable", ErrInvalidState)

	// ErrOutOfBounds is returned when a request exceeds its destination.
	ErrOutOfBounds = errors.New("upload: out of bounds")

	// ErrInvalidAlignment is returned when the map alignment is not a
	// power of two or the planned range does not contain the request.
	ErrInvalidAlignment = errors.New("upload: invalid alignment")

	// ErrMisalignedResult is returned when a planned range is not aligned.
	// It indicates a defect in the planner.
	ErrMisalignedResult = errors.New("upload: misaligned mapped range")

	// ErrSubmission is returned when the queue or fence reports a failure.
	ErrSubmission = errors.New("upload: submission failed")

	// ErrTimedOut is returned when a fence wait exceeds its timeout.
	// The submission is still in flight; waiting again is valid.
	ErrTimedOut = errors.New("upload: fence wait timed out")
)

// RequestError records a failed upload request and the destination it
// targeted.
type RequestError struct {
	Op     string // "buffer" or "image"
	Dest   string // destination description
	Offset uint64
	Size   uint64
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("upload: %s request to %s [offset %d, size %d]: %v",
		e.Op, e.Dest, e.Offset, e.Size, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }
