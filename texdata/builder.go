// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texdata

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/upload/internal/lru"
	"github.com/gogpu/upload/internal/parallel"
)

// DefaultCacheSize is the number of textures a Builder keeps by default.
const DefaultCacheSize = 32

// ErrBuilderClosed is returned by Build after Close.
var ErrBuilderClosed = errors.New("texdata: builder closed")

// BuilderConfig configures a Builder.
type BuilderConfig struct {
	// Options apply to every texture the builder produces.
	Options Options

	// Workers is the number of goroutines building mip chains.
	// 0 uses GOMAXPROCS.
	Workers int

	// CacheSize is the number of built textures kept by name.
	// 0 uses DefaultCacheSize.
	CacheSize int
}

// CacheStats describes the Builder's texture cache.
type CacheStats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Builder builds textures with one goroutine per array layer and keeps
// recently built textures by name, so a texture that is uploaded every
// frame is only resampled once.
//
// Thread safety: Builder is safe for concurrent use. Textures returned by
// Build are shared and must not be modified.
type Builder struct {
	opts  Options
	pool  *parallel.Pool
	cache *lru.Cache[string, *Texture]

	mu     sync.RWMutex
	closed bool
}

// NewBuilder starts a Builder. Call Close to stop its workers.
func NewBuilder(cfg BuilderConfig) *Builder {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Builder{
		opts:  cfg.Options,
		pool:  parallel.NewPool(cfg.Workers),
		cache: lru.New[string, *Texture](size),
	}
}

// Build returns the texture cached under name, or builds one from layers
// and caches it. Layers are only read on a cache miss.
func (b *Builder) Build(name string, layers ...image.Image) (*Texture, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBuilderClosed
	}
	if t, ok := b.cache.Get(name); ok {
		return t, nil
	}
	if err := checkLayers(layers); err != nil {
		return nil, fmt.Errorf("texdata: build %q: %w", name, err)
	}

	chains := make([][]*image.RGBA, len(layers))
	tasks := make([]func() error, len(layers))
	for i, img := range layers {
		tasks[i] = func() error {
			chain, err := MipChain(img, b.opts.MipLevels, b.opts.Filter)
			if err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			chains[i] = chain
			return nil
		}
	}
	if err := b.pool.Run(tasks); err != nil {
		return nil, fmt.Errorf("texdata: build %q: %w", name, err)
	}

	t := assemble(chains, b.opts)
	b.cache.Set(name, t)
	return t, nil
}

// Forget drops the texture cached under name and reports whether there
// was one.
func (b *Builder) Forget(name string) bool {
	return b.cache.Delete(name)
}

// CacheStats returns statistics for the texture cache.
func (b *Builder) CacheStats() CacheStats {
	s := b.cache.Stats()
	return CacheStats{
		Len:       s.Len,
		Capacity:  s.Capacity,
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
	}
}

// Close stops the workers and empties the cache. Close waits for builds
// in progress and is safe to call multiple times.
func (b *Builder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.pool.Close()
	b.cache.Clear()
}
