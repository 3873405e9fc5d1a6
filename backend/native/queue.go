// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upload"
)

// Poll intervals used while waiting for a submission index.
const (
	minPollInterval = 50 * time.Microsecond
	maxPollInterval = 2 * time.Millisecond
)

// Fence implements upload.Fence over HAL submission indices. It is
// signaled once the HAL queue reports the index of the last submission
// that used it as completed.
type Fence struct {
	q *Queue

	mu    sync.Mutex
	index uint64
}

// signalAt records the submission index of the last submission.
func (f *Fence) signalAt(index uint64) {
	f.mu.Lock()
	f.index = index
	f.mu.Unlock()
}

// Value returns the submission index of the last submission using f.
func (f *Fence) Value() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

// Wait waits until the last submission using f completes. A zero timeout
// polls once. A fence that was never submitted is signaled.
func (f *Fence) Wait(timeout time.Duration) (bool, error) {
	index := f.Value()
	if index == 0 {
		return true, nil
	}
	return f.q.waitIndex(index, timeout), nil
}

// Queue implements upload.Queue over a HAL queue. It keeps submitted
// command buffers alive until the queue reports them complete.
//
// Thread Safety: Queue is safe for concurrent use.
type Queue struct {
	device hal.Device
	queue  hal.Queue
	label  string

	mu       sync.Mutex
	inFlight []submission
}

type submission struct {
	cmd   hal.CommandBuffer
	index uint64
}

// Submit submits the commands finished by rec, which must be a *Recorder.
// fence may be nil; the submission is still tracked until it completes.
//
// HAL queues order submissions internally, so no semaphores are returned.
func (q *Queue) Submit(rec upload.Recorder, fence upload.Fence) ([]upload.Semaphore, error) {
	r, ok := rec.(*Recorder)
	if !ok {
		return nil, fmt.Errorf("%w: recorder %T", ErrForeignResource, rec)
	}
	var f *Fence
	if fence != nil {
		if f, ok = fence.(*Fence); !ok {
			return nil, fmt.Errorf("%w: fence %T", ErrForeignResource, fence)
		}
	}
	cmd := r.take()
	if cmd == nil {
		return nil, ErrNothingToSubmit
	}

	index, err := q.submit(cmd)
	if err != nil {
		return nil, err
	}
	if f != nil {
		f.signalAt(index)
	}
	return nil, nil
}

// submit submits cmd and keeps it until the queue reports its index
// complete. cmd is freed when the submission fails.
func (q *Queue) submit(cmd hal.CommandBuffer) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reclaimLocked()
	index, err := q.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		q.device.FreeCommandBuffer(cmd)
		return 0, fmt.Errorf("submit: %w", err)
	}
	q.inFlight = append(q.inFlight, submission{cmd: cmd, index: index})
	slogger().Debug("native: submitted", "queue", q.label, "index", index, "inFlight", len(q.inFlight))
	return index, nil
}

// waitIndex polls the HAL queue until index completes or timeout passes.
func (q *Queue) waitIndex(index uint64, timeout time.Duration) bool {
	if q.queue.PollCompleted() >= index {
		return true
	}
	if timeout <= 0 {
		return false
	}
	deadline := time.Now().Add(timeout)
	interval := minPollInterval
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return q.queue.PollCompleted() >= index
		}
		time.Sleep(min(interval, left))
		if q.queue.PollCompleted() >= index {
			return true
		}
		interval = min(2*interval, maxPollInterval)
	}
}

// reclaimLocked frees the command buffers of completed submissions.
func (q *Queue) reclaimLocked() {
	done := q.queue.PollCompleted()
	kept := q.inFlight[:0]
	for _, s := range q.inFlight {
		if s.index <= done {
			q.device.FreeCommandBuffer(s.cmd)
			continue
		}
		kept = append(kept, s)
	}
	clear(q.inFlight[len(kept):])
	q.inFlight = kept
}

// InFlight returns the number of submissions not yet known to be complete.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reclaimLocked()
	return len(q.inFlight)
}

// Close waits for the device to go idle and frees every outstanding
// command buffer.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.inFlight) == 0 {
		return
	}
	if err := q.device.WaitIdle(); err != nil {
		slogger().Warn("native: wait idle failed", "queue", q.label, "error", err)
	}
	for _, s := range q.inFlight {
		q.device.FreeCommandBuffer(s.cmd)
	}
	q.inFlight = nil
}
