package texdata

import "github.com/gogpu/upload"

type stubDevice struct{}

func (stubDevice) MapAlignment() uint64 { return 4 }

func (stubDevice) CreateStagingBuffer(size uint64) (upload.HostBuffer, error) {
	return &stubHostBuffer{mem: make([]byte, size)}, nil
}

func (stubDevice) DestroyBuffer(upload.Buffer) {}

type stubHostBuffer struct {
	mem []byte
}

func (b *stubHostBuffer) Size() uint64 { return uint64(len(b.mem)) }

func (b *stubHostBuffer) Lock(offset, size uint64) ([]byte, error) {
	if size == upload.WholeSize {
		return b.mem, nil
	}
	return b.mem[offset : offset+size], nil
}

func (b *stubHostBuffer) Flush(_, _ uint64) error { return nil }
func (b *stubHostBuffer) Unlock() error           { return nil }

type stubImage struct {
	levels uint32
	extent upload.Extent3D
}

func (i *stubImage) Dimension() upload.ImageDimension { return upload.Dimension2D }
func (i *stubImage) Extent() upload.Extent3D          { return i.extent }
func (i *stubImage) MipLevels() uint32                { return i.levels }
func (i *stubImage) ArrayLayers() uint32              { return 1 }

// stubRecorder keeps the image copy regions.
type stubRecorder struct {
	regions []upload.BufferImageCopy
}

func (r *stubRecorder) Begin() error { return nil }
func (r *stubRecorder) End() error   { return nil }
func (r *stubRecorder) Discard()     {}

func (r *stubRecorder) BufferBarrier(_, _ upload.Stage, _ upload.BufferBarrier) {}
func (r *stubRecorder) ImageBarrier(_, _ upload.Stage, _ upload.ImageBarrier)   {}
func (r *stubRecorder) CopyBuffer(_, _ upload.Buffer, _ []upload.BufferCopy)    {}

func (r *stubRecorder) CopyBufferToImage(_ upload.Buffer, _ upload.Image, _ upload.Layout, regions []upload.BufferImageCopy) {
	r.regions = append(r.regions, regions...)
}
