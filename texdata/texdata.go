// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package texdata prepares image.Image data for image uploads.
//
// It converts images to tightly packed RGBA8, builds mip chains with
// golang.org/x/image/draw and lays the levels out the way
// upload.SourceLayout describes them:
//
//	tex, err := texdata.New(img, texdata.Options{Filter: texdata.FilterCatmullRom})
//	if err != nil {
//		return err
//	}
//	return s.Upload(tex.To(gpuImage, upload.LayoutShaderReadOnly, upload.StageFragmentShader))
package texdata

import (
	"errors"
	"fmt"
	"image"
	"math/bits"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/upload"
)

// BytesPerTexel is the texel size of the RGBA8 data this package produces.
const BytesPerTexel = 4

var (
	// ErrEmptyImage is returned for images with no pixels.
	ErrEmptyImage = errors.New("texdata: empty image")

	// ErrSizeMismatch is returned when array layers differ in size.
	ErrSizeMismatch = errors.New("texdata: layer size mismatch")

	// ErrTooManyLevels is returned when more mip levels are requested
	// than the image size allows.
	ErrTooManyLevels = errors.New("texdata: too many mip levels")
)

// Filter selects the resampling kernel used to build mip levels.
type Filter uint8

const (
	// FilterApproxBiLinear is fast and good enough for most textures.
	FilterApproxBiLinear Filter = iota
	// FilterBiLinear is exact bilinear filtering.
	FilterBiLinear
	// FilterCatmullRom is the sharpest and slowest kernel.
	FilterCatmullRom
	// FilterNearest picks the nearest texel.
	FilterNearest
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterApproxBiLinear:
		return "ApproxBiLinear"
	case FilterBiLinear:
		return "BiLinear"
	case FilterCatmullRom:
		return "CatmullRom"
	case FilterNearest:
		return "Nearest"
	default:
		return fmt.Sprintf("Filter(%d)", uint8(f))
	}
}

func (f Filter) interpolator() xdraw.Interpolator {
	switch f {
	case FilterBiLinear:
		return xdraw.BiLinear
	case FilterCatmullRom:
		return xdraw.CatmullRom
	case FilterNearest:
		return xdraw.NearestNeighbor
	default:
		return xdraw.ApproxBiLinear
	}
}

// Options configures New and NewArray.
type Options struct {
	// MipLevels is the number of levels to build. Zero builds the full
	// chain down to 1x1.
	MipLevels uint32

	// Filter is the kernel used to downsample each level.
	Filter Filter

	// RowAlignment pads every row to a multiple of this many bytes.
	// 0 or 1 packs rows tightly.
	RowAlignment uint32
}

// Texture is image data ready for Session.PushImageUpload.
type Texture struct {
	Data   []byte
	Layout upload.SourceLayout
	Range  upload.SubresourceRange
}

// MipLevelCount returns the number of levels of a full mip chain for an
// image of the given size.
func MipLevelCount(width, height int) uint32 {
	return uint32(bits.Len(uint(max(width, height, 1))))
}

// ToRGBA returns img as an *image.RGBA with its origin at (0, 0) and a
// stride of exactly 4*width. An *image.RGBA already in that form is
// returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == b.Dx()*BytesPerTexel {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// MipChain returns levels images, each half the size of the previous one
// (rounded down, at least 1). Level 0 is img converted with ToRGBA.
func MipChain(img image.Image, levels uint32, f Filter) ([]*image.RGBA, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	full := MipLevelCount(b.Dx(), b.Dy())
	if levels == 0 {
		levels = full
	}
	if levels > full {
		return nil, fmt.Errorf("%w: %d requested, %dx%d allows %d", ErrTooManyLevels, levels, b.Dx(), b.Dy(), full)
	}

	chain := make([]*image.RGBA, levels)
	chain[0] = ToRGBA(img)
	kernel := f.interpolator()
	for i := uint32(1); i < levels; i++ {
		w := max(1, b.Dx()>>i)
		h := max(1, b.Dy()>>i)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		prev := chain[i-1]
		kernel.Scale(dst, dst.Bounds(), prev, prev.Bounds(), xdraw.Src, nil)
		chain[i] = dst
	}
	return chain, nil
}

// New builds a single-layer texture from img.
func New(img image.Image, opts Options) (*Texture, error) {
	return NewArray([]image.Image{img}, opts)
}

// NewArray builds an array texture with one layer per image. Every image
// must have the same size. The data is layer-major: every level of layer
// 0, then every level of layer 1.
func NewArray(layers []image.Image, opts Options) (*Texture, error) {
	if err := checkLayers(layers); err != nil {
		return nil, err
	}
	chains := make([][]*image.RGBA, len(layers))
	for i, img := range layers {
		chain, err := MipChain(img, opts.MipLevels, opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		chains[i] = chain
	}
	return assemble(chains, opts), nil
}

// checkLayers reports an error unless layers is non-empty and every layer
// has the size of layer 0.
func checkLayers(layers []image.Image) error {
	if len(layers) == 0 {
		return ErrEmptyImage
	}
	size := layers[0].Bounds().Size()
	for i, img := range layers[1:] {
		if s := img.Bounds().Size(); s != size {
			return fmt.Errorf("%w: layer %d is %v, layer 0 is %v", ErrSizeMismatch, i+1, s, size)
		}
	}
	return nil
}

// assemble packs per-layer mip chains into one layer-major Texture.
func assemble(chains [][]*image.RGBA, opts Options) *Texture {
	size := chains[0][0].Bounds().Size()
	t := &Texture{
		Layout: upload.SourceLayout{
			Dimension:     upload.Dimension2D,
			Extent:        upload.Extent3D{Width: uint32(size.X), Height: uint32(size.Y), Depth: 1}, //nolint:gosec // image sizes fit uint32
			BytesPerTexel: BytesPerTexel,
			RowAlignment:  opts.RowAlignment,
		},
		Range: upload.SubresourceRange{
			Aspect:     upload.AspectColor,
			LevelCount: uint32(len(chains[0])), //nolint:gosec // at most 32 levels
			LayerCount: uint32(len(chains)),    //nolint:gosec // layer count is small
		},
	}
	t.Data = make([]byte, t.Layout.RequiredSize(t.Range))

	var off uint64
	for _, chain := range chains {
		for level, img := range chain {
			pitch := int(t.Layout.RowPitch(uint32(level))) //nolint:gosec // level < 32
			pack(t.Data[off:], img, pitch)
			off += t.Layout.LevelSize(uint32(level)) //nolint:gosec // level < 32
		}
	}
	return t
}

// pack copies the rows of img into dst, pitch bytes apart.
func pack(dst []byte, img *image.RGBA, pitch int) {
	row := img.Bounds().Dx() * BytesPerTexel
	for y := range img.Bounds().Dy() {
		src := img.Pix[y*img.Stride : y*img.Stride+row]
		copy(dst[y*pitch:], src)
	}
}

// To returns an upload of t into dst that leaves dst in the after layout
// for stage. The texture is uploaded starting at layer 0 and level 0.
func (t *Texture) To(dst upload.Image, after upload.Layout, stage upload.Stage) upload.Uploadable {
	return &imageUpload{tex: t, dst: dst, after: after, stage: stage}
}

type imageUpload struct {
	tex   *Texture
	dst   upload.Image
	after upload.Layout
	stage upload.Stage
}

// Upload implements upload.Uploadable.
func (u *imageUpload) Upload(s *upload.Session) error {
	return s.PushImageUpload(u.tex.Data, u.dst, u.tex.Layout, u.tex.Range, u.after, u.stage)
}
