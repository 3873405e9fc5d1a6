package native

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/upload"
)

func TestCreateBuffer(t *testing.T) {
	d, md, _ := newMockDevice(t, DeviceConfig{MapAlignment: 16})

	b, err := d.CreateBuffer(BufferDescriptor{Label: "vbo", Size: 100, Usage: gputypes.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if b.Size() != 100 {
		t.Errorf("Size() = %d, want 100", b.Size())
	}
	if b.String() != "vbo" || b.Label() != "vbo" {
		t.Errorf("label = %q", b.String())
	}
	if len(md.buffers) != 1 {
		t.Fatalf("created %d HAL buffers, want 1", len(md.buffers))
	}
	got := md.buffers[0]
	if got.Size != 112 {
		t.Errorf("HAL size = %d, want 112 (rounded to alignment)", got.Size)
	}
	want := gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	if got.Usage != want || b.Usage() != want {
		t.Errorf("usage = %v, want %v", got.Usage, want)
	}
	if _, isHost := any(b).(upload.HostBuffer); isHost {
		t.Error("device-local Buffer must not be host-mappable")
	}
}

func TestCreateBufferErrors(t *testing.T) {
	d, md, _ := newMockDevice(t, DeviceConfig{})

	if _, err := d.CreateBuffer(BufferDescriptor{Label: "empty"}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero size error = %v, want ErrInvalidSize", err)
	}
	md.createBufferErr = errMock
	if _, err := d.CreateHostBuffer(BufferDescriptor{Size: 8}); !errors.Is(err, errMock) {
		t.Errorf("HAL failure error = %v, want wrapped errMock", err)
	}
}

func TestHostBufferLockFlush(t *testing.T) {
	d, _, mq := newMockDevice(t, DeviceConfig{})
	hb, err := d.CreateHostBuffer(BufferDescriptor{Label: "ubo", Size: 16})
	if err != nil {
		t.Fatalf("CreateHostBuffer() error = %v", err)
	}

	mem, err := hb.Lock(4, 8)
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if len(mem) != 8 {
		t.Fatalf("len(mem) = %d, want 8", len(mem))
	}
	copy(mem, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	if _, err := hb.Lock(0, 4); !errors.Is(err, ErrBufferLocked) {
		t.Errorf("second Lock() error = %v, want ErrBufferLocked", err)
	}
	if err := hb.Flush(4, 8); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if err := hb.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	if len(mq.writes) != 1 {
		t.Fatalf("queue writes = %d, want 1", len(mq.writes))
	}
	w := mq.writes[0]
	if w.buffer != hb.Raw() || w.offset != 4 || !bytes.Equal(w.data, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("write = {%v %d %v}", w.buffer, w.offset, w.data)
	}
	want := []byte{0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0}
	if got := hb.Contents(); !bytes.Equal(got, want) {
		t.Errorf("Contents() = %v, want %v", got, want)
	}
}

func TestHostBufferWholeSize(t *testing.T) {
	d, _, mq := newMockDevice(t, DeviceConfig{})
	hb, err := d.CreateHostBuffer(BufferDescriptor{Size: 6})
	if err != nil {
		t.Fatalf("CreateHostBuffer() error = %v", err)
	}
	mem, err := hb.Lock(0, upload.WholeSize)
	if err != nil {
		t.Fatalf("Lock(WholeSize) error = %v", err)
	}
	if len(mem) != 8 {
		t.Errorf("len(mem) = %d, want 8 (allocation size)", len(mem))
	}
	if err := hb.Flush(0, upload.WholeSize); err != nil {
		t.Fatalf("Flush(WholeSize) error = %v", err)
	}
	if len(mq.writes) != 1 || len(mq.writes[0].data) != 8 {
		t.Errorf("writes = %+v, want one 8-byte write", mq.writes)
	}
	if got := len(hb.Contents()); got != 6 {
		t.Errorf("len(Contents()) = %d, want 6", got)
	}
}

func TestHostBufferFlushWriteError(t *testing.T) {
	d, _, mq := newMockDevice(t, DeviceConfig{})
	hb, err := d.CreateHostBuffer(BufferDescriptor{Label: "ubo", Size: 16})
	if err != nil {
		t.Fatalf("CreateHostBuffer() error = %v", err)
	}
	if _, err := hb.Lock(0, 8); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	mq.writeErr = errMock
	if err := hb.Flush(0, 8); !errors.Is(err, errMock) {
		t.Errorf("Flush() error = %v, want wrapped errMock", err)
	}
	if err := hb.Unlock(); err != nil {
		t.Errorf("Unlock() after failed Flush error = %v", err)
	}
}

func TestHostBufferErrors(t *testing.T) {
	d, _, _ := newMockDevice(t, DeviceConfig{})
	hb, err := d.CreateHostBuffer(BufferDescriptor{Size: 16})
	if err != nil {
		t.Fatalf("CreateHostBuffer() error = %v", err)
	}

	if err := hb.Flush(0, 4); !errors.Is(err, ErrBufferNotLocked) {
		t.Errorf("Flush unlocked error = %v, want ErrBufferNotLocked", err)
	}
	if err := hb.Unlock(); !errors.Is(err, ErrBufferNotLocked) {
		t.Errorf("Unlock unlocked error = %v, want ErrBufferNotLocked", err)
	}
	if _, err := hb.Lock(8, 12); err == nil {
		t.Error("Lock past allocation should fail")
	}
	if _, err := hb.Lock(20, upload.WholeSize); err == nil {
		t.Error("Lock(WholeSize) past allocation should fail")
	}

	d.DestroyBuffer(hb)
	if _, err := hb.Lock(0, 4); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Lock destroyed error = %v, want ErrDestroyed", err)
	}
}

func TestCreateStagingBuffer(t *testing.T) {
	d, md, _ := newMockDevice(t, DeviceConfig{Label: "frame", StagingUsage: gputypes.BufferUsageStorage})
	buf, err := d.CreateStagingBuffer(1000)
	if err != nil {
		t.Fatalf("CreateStagingBuffer() error = %v", err)
	}
	if buf.Size() != 1000 {
		t.Errorf("Size() = %d, want 1000", buf.Size())
	}
	desc := md.buffers[0]
	if desc.Label != "frame_staging" {
		t.Errorf("label = %q, want frame_staging", desc.Label)
	}
	want := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageMapWrite
	if desc.Usage != want {
		t.Errorf("usage = %v, want %v", desc.Usage, want)
	}
}
