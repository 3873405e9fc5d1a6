// Command uploaddemo runs a batch of buffer and image uploads on a HAL
// backend (noop by default) and logs what was recorded.
package main

import (
	"errors"
	"flag"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/upload"
	"github.com/gogpu/upload/backend"
	"github.com/gogpu/upload/backend/native"
	_ "github.com/gogpu/upload/backend/vulkan"
	"github.com/gogpu/upload/texdata"
)

func main() {
	var (
		bufferSize = flag.Uint64("buffer-size", 64*1024, "vertex buffer size in bytes")
		imageSize  = flag.Int("image-size", 256, "texture width and height")
		mips       = flag.Uint("mips", 0, "mip levels (0 = full chain)")
		layers     = flag.Int("layers", 1, "texture array layers")
		chunk      = flag.Uint64("chunk", upload.DefaultStagingChunkSize, "staging chunk size in bytes")
		timeout    = flag.Duration("timeout", time.Second, "fence wait timeout")
		verbose    = flag.Bool("v", false, "debug logging")
		name       = flag.String("backend", backend.BackendNoop, "backend name, or \"auto\" for the best available")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	upload.SetLogger(logger)

	b, err := openBackend(*name)
	if err != nil {
		log.Fatalf("Failed to open backend %q: %v (available: %v)", *name, err, backend.Available())
	}
	defer b.Close()
	logger.Info("device opened", "backend", b.Name(), "adapter", b.Adapter())

	cfg := demoConfig{
		bufferSize: *bufferSize,
		imageSize:  *imageSize,
		mips:       uint32(*mips), //nolint:gosec // flag value is small
		layers:     *layers,
		chunk:      *chunk,
		timeout:    *timeout,
	}
	if err := run(b.Device(), cfg, logger); err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
}

type demoConfig struct {
	bufferSize uint64
	imageSize  int
	mips       uint32
	layers     int
	chunk      uint64
	timeout    time.Duration
}

func openBackend(name string) (*backend.Backend, error) {
	cfg := native.DeviceConfig{Label: "uploaddemo"}
	if name == "auto" {
		return backend.Default(cfg)
	}
	return backend.Open(name, cfg)
}

func run(d *native.Device, cfg demoConfig, logger *slog.Logger) error {
	vbo, err := d.CreateBuffer(native.BufferDescriptor{
		Label: "vertices",
		Size:  cfg.bufferSize,
		Usage: gputypes.BufferUsageVertex,
	})
	if err != nil {
		return err
	}
	ubo, err := d.CreateHostBuffer(native.BufferDescriptor{
		Label: "uniforms",
		Size:  256,
		Usage: gputypes.BufferUsageUniform,
	})
	if err != nil {
		return err
	}

	pictures := make([]image.Image, cfg.layers)
	for i := range pictures {
		pictures[i] = checkerboard(cfg.imageSize, i)
	}
	builder := texdata.NewBuilder(texdata.BuilderConfig{
		Options: texdata.Options{MipLevels: cfg.mips, Filter: texdata.FilterCatmullRom},
	})
	defer builder.Close()
	tex, err := builder.Build("checker", pictures...)
	if err != nil {
		return err
	}
	img, err := d.CreateImage(native.ImageDescriptor{
		Label:       "checker",
		Dimension:   upload.Dimension2D,
		Extent:      tex.Layout.Extent,
		MipLevels:   tex.Range.LevelCount,
		ArrayLayers: tex.Range.LayerCount,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Usage:       gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return err
	}
	fence := d.NewFence()

	s := upload.NewSession(d, d.NewRecorder("frame"),
		upload.WithLabel("demo"),
		upload.WithStagingChunkSize(cfg.chunk))
	defer s.Close()

	if err := s.Begin(); err != nil {
		return err
	}
	vertices := make([]byte, cfg.bufferSize)
	for i := range vertices {
		vertices[i] = byte(i)
	}
	if err := s.PushBufferUpload(vertices, vbo, 0, upload.AccessVertexRead, upload.StageVertexInput); err != nil {
		return err
	}
	if err := s.Upload(tex.To(img, upload.LayoutShaderReadOnly, upload.StageFragmentShader)); err != nil {
		return err
	}
	if err := s.Process(); err != nil {
		return err
	}
	if _, err := s.End(d.Queue(), fence, cfg.timeout); err != nil {
		if !errors.Is(err, upload.ErrTimedOut) {
			return err
		}
		logger.Warn("frame upload still in flight", "error", err)
	}
	st := s.Stats()
	logger.Info("frame uploaded",
		"barriers", st.Barriers,
		"copies", st.Copies,
		"stagedBytes", st.StagedBytes,
		"directBytes", st.DirectBytes,
		"mipLevels", tex.Range.LevelCount)

	head := make([]byte, min(8, len(vertices)))
	if err := d.ReadBuffer(vbo, 0, head); err != nil {
		return err
	}
	logger.Info("vertex buffer read back", "head", head)

	// Uniforms go straight through the host mapping.
	params := []byte("uploaddemo")
	err = upload.Instant(d, d.NewRecorder("instant"), d.Queue(), fence, cfg.timeout, func(s *upload.Session) error {
		return s.PushBufferUpload(params, ubo, 0, upload.AccessUniformRead, upload.StageVertexShader)
	})
	if err != nil && !errors.Is(err, upload.ErrTimedOut) {
		return err
	}
	logger.Info("uniforms uploaded", "bytes", len(params), "shadow", string(ubo.Contents()[:len(params)]))
	return nil
}

// checkerboard returns a size x size checkerboard tinted per layer.
func checkerboard(size, layer int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	tint := color.RGBA{R: uint8(64 * layer), G: 128, B: 255, A: 255} //nolint:gosec // wraps for many layers
	cell := max(1, size/8)
	for y := range size {
		for x := range size {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, tint)
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	return img
}
