// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"errors"
	"time"
)

// Uploadable is implemented by resources that push their pending data
// into a session, such as meshes or texture caches.
type Uploadable interface {
	Upload(s *Session) error
}

// Upload calls Upload on every item, stopping at the first error.
func (s *Session) Upload(items ...Uploadable) error {
	for _, it := range items {
		if err := it.Upload(s); err != nil {
			return err
		}
	}
	return nil
}

// DefaultInstantTimeout is the fence wait used by Instant when no
// positive timeout is given.
const DefaultInstantTimeout = 5 * time.Second

// Instant runs a complete session on a fresh Session: Begin, fn, Process,
// then End waiting for fence. It is meant for one-off uploads at load
// time. fence is required; a non-positive timeout means
// DefaultInstantTimeout.
//
// The session's staging memory is released before Instant returns unless
// the wait timed out, in which case it is left to the garbage collector
// together with the in-flight submission.
func Instant(dev Device, rec Recorder, q Queue, fence Fence, timeout time.Duration, fn func(*Session) error, opts ...Option) error {
	if timeout <= 0 {
		timeout = DefaultInstantTimeout
	}
	s := NewSession(dev, rec, opts...)
	if err := s.Begin(); err != nil {
		return errors.Join(err, s.Close())
	}
	if err := fn(s); err != nil {
		return errors.Join(err, s.Close())
	}
	if err := s.Process(); err != nil {
		return errors.Join(err, s.Close())
	}
	if _, err := s.End(q, fence, timeout); err != nil {
		if errors.Is(err, ErrTimedOut) {
			return err
		}
		return errors.Join(err, s.Close())
	}
	return s.Close()
}
