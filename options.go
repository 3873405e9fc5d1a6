// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

// Option configures a Session during creation.
// Use functional options to customize Session behavior.
//
// Example:
//
//	// Defaults: private registry, 4 MB staging chunks.
//	s := upload.NewSession(dev, rec)
//
//	// Share resource state with other sessions.
//	s := upload.NewSession(dev, rec, upload.WithRegistry(reg), upload.WithLabel("meshes"))
type Option func(*sessionOptions)

// sessionOptions holds optional configuration for Session creation.
type sessionOptions struct {
	registry  *Registry
	belt      *StagingBelt
	beltCfg   BeltConfig
	alignment uint64
	label     string
}

// defaultOptions returns the default session options.
func defaultOptions() sessionOptions {
	return sessionOptions{
		registry: nil, // Will be created if nil
		belt:     nil, // Will be created from beltCfg if nil
	}
}

// WithRegistry sets the registry tracking resource identity and state.
// Sessions that share a registry see each other's state transitions.
func WithRegistry(r *Registry) Option {
	return func(o *sessionOptions) {
		o.registry = r
	}
}

// WithStagingBelt sets the staging belt used for image data and for
// buffers that cannot be mapped. The session does not close a belt
// provided this way.
func WithStagingBelt(b *StagingBelt) Option {
	return func(o *sessionOptions) {
		o.belt = b
	}
}

// WithStagingChunkSize sets the chunk size of the session's own staging
// belt. It is ignored when WithStagingBelt is used.
func WithStagingChunkSize(n uint64) Option {
	return func(o *sessionOptions) {
		o.beltCfg.ChunkSize = n
	}
}

// WithAlignment overrides the device's map alignment for direct writes.
// Zero keeps the device value.
func WithAlignment(a uint64) Option {
	return func(o *sessionOptions) {
		o.alignment = a
	}
}

// WithLabel sets a debug name used in log records.
func WithLabel(label string) Option {
	return func(o *sessionOptions) {
		o.label = label
	}
}
