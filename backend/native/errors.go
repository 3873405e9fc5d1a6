// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrNilHALDevice is returned when a backend object is created without
	// a HAL device or queue.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrNoHALProvider is returned when a device provider does not expose
	// HAL types.
	ErrNoHALProvider = errors.New("native: provider does not expose HAL types")

	// ErrInvalidSize is returned when a buffer or image size is zero.
	ErrInvalidSize = errors.New("native: invalid size")

	// ErrDestroyed is returned when operating on a destroyed resource.
	ErrDestroyed = errors.New("native: resource has been destroyed")

	// ErrForeignResource is returned when a recorder or queue receives an
	// object created by another backend.
	ErrForeignResource = errors.New("native: resource does not belong to this backend")

	// ErrNotRecording is returned when commands are recorded outside
	// Begin and End.
	ErrNotRecording = errors.New("native: recorder is not recording")

	// ErrBufferLocked is returned when locking a buffer that is already locked.
	ErrBufferLocked = errors.New("native: buffer is already locked")

	// ErrBufferNotLocked is returned by Flush or Unlock without a Lock.
	ErrBufferNotLocked = errors.New("native: buffer is not locked")

	// ErrNothingToSubmit is returned by Queue.Submit when the recorder holds
	// no finished command buffer.
	ErrNothingToSubmit = errors.New("native: recorder has no finished commands")

	// ErrReadbackTimeout is returned by Device.ReadBuffer when the copy to
	// the readback buffer does not complete in time.
	ErrReadbackTimeout = errors.New("native: readback timed out")
)
