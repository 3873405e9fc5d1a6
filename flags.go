// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package upload

import "strings"

// Access describes the kind of memory access a resource is (or will be)
// used for. Values are bit flags and may be combined.
type Access uint32

const (
	// AccessNone means no access is pending on the resource.
	AccessNone Access = 0

	AccessHostWrite Access = 1 << iota
	AccessHostRead
	AccessTransferRead
	AccessTransferWrite
	AccessIndexRead
	AccessVertexRead
	AccessUniformRead
	AccessShaderRead
	AccessShaderWrite
	AccessIndirectRead
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessDepthStencilRead
	AccessDepthStencilWrite
)

var accessNames = []struct {
	flag Access
	name string
}{
	{AccessHostWrite, "HostWrite"},
	{AccessHostRead, "HostRead"},
	{AccessTransferRead, "TransferRead"},
	{AccessTransferWrite, "TransferWrite"},
	{AccessIndexRead, "IndexRead"},
	{AccessVertexRead, "VertexRead"},
	{AccessUniformRead, "UniformRead"},
	{AccessShaderRead, "ShaderRead"},
	{AccessShaderWrite, "ShaderWrite"},
	{AccessIndirectRead, "IndirectRead"},
	{AccessColorAttachmentRead, "ColorAttachmentRead"},
	{AccessColorAttachmentWrite, "ColorAttachmentWrite"},
	{AccessDepthStencilRead, "DepthStencilRead"},
	{AccessDepthStencilWrite, "DepthStencilWrite"},
}

// String returns the flags joined with '|', or "None".
func (a Access) String() string {
	if a == AccessNone {
		return "None"
	}
	var parts []string
	for _, n := range accessNames {
		if a&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Stage identifies a pipeline stage. Values are bit flags and may be
// combined.
type Stage uint32

const (
	// StageNone is the zero stage. Barriers treat it as StageTopOfPipe.
	StageNone Stage = 0

	StageTopOfPipe Stage = 1 << iota
	StageHost
	StageTransfer
	StageDrawIndirect
	StageVertexInput
	StageVertexShader
	StageFragmentShader
	StageComputeShader
	StageColorAttachmentOutput
	StageEarlyFragmentTests
	StageLateFragmentTests
	StageBottomOfPipe
)

var stageNames = []struct {
	flag Stage
	name string
}{
	{StageTopOfPipe, "TopOfPipe"},
	{StageHost, "Host"},
	{StageTransfer, "Transfer"},
	{StageDrawIndirect, "DrawIndirect"},
	{StageVertexInput, "VertexInput"},
	{StageVertexShader, "VertexShader"},
	{StageFragmentShader, "FragmentShader"},
	{StageComputeShader, "ComputeShader"},
	{StageColorAttachmentOutput, "ColorAttachmentOutput"},
	{StageEarlyFragmentTests, "EarlyFragmentTests"},
	{StageLateFragmentTests, "LateFragmentTests"},
	{StageBottomOfPipe, "BottomOfPipe"},
}

// String returns the flags joined with '|', or "None".
func (s Stage) String() string {
	if s == StageNone {
		return "None"
	}
	var parts []string
	for _, n := range stageNames {
		if s&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// orTop maps StageNone to StageTopOfPipe.
func (s Stage) orTop() Stage {
	if s == StageNone {
		return StageTopOfPipe
	}
	return s
}

// Layout is the memory layout of an image subresource.
type Layout uint8

const (
	// LayoutUndefined discards the previous contents.
	LayoutUndefined Layout = iota
	LayoutGeneral
	LayoutTransferSrc
	LayoutTransferDst
	LayoutShaderReadOnly
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutDepthStencilReadOnly
	LayoutPresent
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutUndefined:
		return "Undefined"
	case LayoutGeneral:
		return "General"
	case LayoutTransferSrc:
		return "TransferSrc"
	case LayoutTransferDst:
		return "TransferDst"
	case LayoutShaderReadOnly:
		return "ShaderReadOnly"
	case LayoutColorAttachment:
		return "ColorAttachment"
	case LayoutDepthStencilAttachment:
		return "DepthStencilAttachment"
	case LayoutDepthStencilReadOnly:
		return "DepthStencilReadOnly"
	case LayoutPresent:
		return "Present"
	default:
		return "Unknown"
	}
}

// Aspect selects which aspect of an image a command applies to.
type Aspect uint8

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
)

// ImageDimension is the dimensionality of an image.
type ImageDimension uint8

const (
	Dimension1D ImageDimension = iota
	Dimension2D
	Dimension3D
)

// String returns "1D", "2D" or "3D".
func (d ImageDimension) String() string {
	switch d {
	case Dimension1D:
		return "1D"
	case Dimension2D:
		return "2D"
	case Dimension3D:
		return "3D"
	default:
		return "Unknown"
	}
}
