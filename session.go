// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateIdle is the state of a new session.
	StateIdle State = iota

	// StateRecording accepts pushes and Process calls.
	StateRecording

	// StateEnded follows End. Begin starts a new recording.
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRecording:
		return "Recording"
	case StateEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// Session collects upload requests and turns them into GPU work recorded
// into a caller-supplied Recorder.
//
// A typical frame:
//
//	s.Begin()
//	s.PushBufferUpload(vertices, vbo, 0, upload.AccessVertexRead, upload.StageVertexInput)
//	s.PushImageUpload(pixels, tex, layout, rng, upload.LayoutShaderReadOnly, upload.StageFragmentShader)
//	s.Process()
//	s.End(queue, fence, time.Second)
//
// A Session is not safe for concurrent use. Sessions used from different
// goroutines must target disjoint resources.
type Session struct {
	dev  Device
	rec  Recorder
	reg  *Registry
	belt *StagingBelt

	ownBelt bool
	label   string

	pending *PendingSet
	exec    *Executor
	state   State

	// recorded is the number of commands recorded since Begin.
	recorded int
	stats    Stats
}

// NewSession creates an idle session for dev recording into rec.
func NewSession(dev Device, rec Recorder, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	ownBelt := false
	if o.belt == nil {
		o.belt = NewStagingBelt(dev, o.beltCfg)
		ownBelt = true
	}
	align := o.alignment
	if align == 0 {
		align = dev.MapAlignment()
	}
	return &Session{
		dev:     dev,
		rec:     rec,
		reg:     o.registry,
		belt:    o.belt,
		ownBelt: ownBelt,
		label:   o.label,
		pending: NewPendingSet(o.registry),
		exec:    NewExecutor(rec, o.registry, o.belt, align),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Registry returns the registry tracking resource state.
func (s *Session) Registry() *Registry { return s.reg }

// Pending returns the number of requests pushed since the last Process.
func (s *Session) Pending() int { return s.pending.Len() }

// Stats returns the work done since the session was created.
func (s *Session) Stats() Stats { return s.stats }

// Begin starts recording. Staging chunks of completed submissions are
// recycled first.
func (s *Session) Begin() error {
	if s.state == StateRecording {
		return fmt.Errorf("%w: Begin while recording", ErrInvalidState)
	}
	s.belt.Recall()
	if err := s.rec.Begin(); err != nil {
		return fmt.Errorf("begin recording: %w", err)
	}
	s.state = StateRecording
	s.recorded = 0
	return nil
}

// PushBuffer queues a buffer request. Requests without data are dropped.
func (s *Session) PushBuffer(req BufferUploadRequest) error {
	if s.state != StateRecording {
		return fmt.Errorf("%w: push while %v", ErrInvalidState, s.state)
	}
	s.pending.PushBuffer(req)
	return nil
}

// PushImage queues an image request. Requests without data or with an
// empty range are dropped.
func (s *Session) PushImage(req ImageUploadRequest) error {
	if s.state != StateRecording {
		return fmt.Errorf("%w: push while %v", ErrInvalidState, s.state)
	}
	s.pending.PushImage(req)
	return nil
}

// PushBufferUpload queues a write of data at offset into dst, leaving dst
// ready for access at stage. data must stay valid until Process returns.
func (s *Session) PushBufferUpload(data []byte, dst Buffer, offset uint64, access Access, stage Stage) error {
	return s.PushBuffer(BufferUploadRequest{
		Data:   data,
		Path:   Direct{},
		Dst:    dst,
		Offset: offset,
		Access: access,
		Stage:  stage,
	})
}

// PushStagedBufferUpload queues a copy of size bytes at srcOffset in src,
// a buffer already holding the data, to dstOffset in dst.
func (s *Session) PushStagedBufferUpload(src Buffer, srcOffset, size uint64, dst Buffer, dstOffset uint64, access Access, stage Stage) error {
	return s.PushBuffer(BufferUploadRequest{
		Path:   Staged{Buffer: src, Offset: srcOffset},
		Dst:    dst,
		Offset: dstOffset,
		Size:   size,
		Access: access,
		Stage:  stage,
	})
}

// PushImageUpload queues a write of data, laid out as described by
// layout, into the subresources rng of dst, leaving them in layout after
// for use at stage. data must stay valid until Process returns.
func (s *Session) PushImageUpload(data []byte, dst Image, layout SourceLayout, rng SubresourceRange, after Layout, stage Stage) error {
	return s.PushImage(ImageUploadRequest{
		Data:   data,
		Path:   Direct{},
		Dst:    dst,
		Layout: layout,
		Range:  rng,
		After:  after,
		Stage:  stage,
	})
}

// Process executes every pending request and clears the pending set, even
// when a request fails. It may be called several times before End.
func (s *Session) Process() error {
	if s.state != StateRecording {
		return fmt.Errorf("%w: Process while %v", ErrInvalidState, s.state)
	}
	if s.pending.Empty() {
		return nil
	}
	n := s.pending.Len()
	st, err := s.exec.Execute(s.pending)
	s.pending.Reset()
	s.recorded += st.Commands()
	s.stats.Add(st)
	if err != nil {
		return err
	}
	slogger().Debug("upload: processed",
		"session", s.label,
		"requests", n,
		"barriers", st.Barriers,
		"copies", st.Copies,
		"direct", st.DirectWrites,
		"stagedBytes", st.StagedBytes,
		"directBytes", st.DirectBytes)
	return nil
}

// End submits the recorded commands to q. fence may be nil. When timeout
// is positive, End waits for fence for at most timeout; ErrTimedOut is
// returned if it does not signal, and the session is ended anyway.
//
// End returns the semaphores signaled by the submission. It fails with
// ErrPendingWorkNotFlushed if requests were pushed after the last Process.
func (s *Session) End(q Queue, fence Fence, timeout time.Duration) ([]Semaphore, error) {
	if s.state != StateRecording {
		return nil, fmt.Errorf("%w: End while %v", ErrInvalidState, s.state)
	}
	if !s.pending.Empty() {
		return nil, fmt.Errorf("%w: %d requests", ErrPendingWorkNotFlushed, s.pending.Len())
	}
	if timeout > 0 && fence == nil {
		return nil, fmt.Errorf("%w: wait requested without a fence", ErrInvalidState)
	}

	if s.recorded == 0 && fence == nil {
		s.rec.Discard()
		s.state = StateEnded
		return nil, nil
	}
	if err := s.rec.End(); err != nil {
		s.rec.Discard()
		s.state = StateEnded
		return nil, fmt.Errorf("%w: end recording: %w", ErrSubmission, err)
	}
	sems, err := q.Submit(s.rec, fence)
	s.state = StateEnded
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmission, err)
	}
	s.belt.Finish(fence)

	if timeout <= 0 {
		return sems, nil
	}
	ok, err := fence.Wait(timeout)
	if err != nil {
		return sems, fmt.Errorf("%w: wait: %w", ErrSubmission, err)
	}
	if !ok {
		slogger().Warn("upload: fence wait timed out", "session", s.label, "timeout", timeout)
		return sems, ErrTimedOut
	}
	s.belt.Recall()
	s.reg.settleGPUWrites(s.exec)
	return sems, nil
}

// Close releases the session's own staging belt. The caller must ensure
// the device has finished every submission of the session.
func (s *Session) Close() error {
	if s.state == StateRecording {
		s.rec.Discard()
		s.pending.Reset()
	}
	s.state = StateEnded
	if s.ownBelt {
		s.belt.Close()
	}
	return nil
}
