/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package mxr

import (
	"strings"

	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/mtl"
)

type TextureDimension uint32

const (
	TextureDimension1D TextureDimension = iota + 1
	TextureDimension2D
	TextureDimension3D
)

type TextureViewDimension uint32

const (
	TextureViewDimension1D TextureViewDimension = iota + 1
	TextureViewDimension2D
	TextureViewDimension3D
	TextureViewDimensionCube
)

func mapTextureType(dimension TextureDimension, samples uint32, arraySize uint32) mtl.TextureType {
	switch dimension {
	case TextureDimension1D:
		if samples > 1 {
			abort("Multisampling not supported for 1D textures")
		}
		if arraySize > 1 {
			return mtl.TextureType1DArray
		}
		return mtl.TextureType1D
	case TextureDimension2D:
		if arraySize > 1 {
			if samples > 1 {
				return mtl.TextureType2DMultisampleArray
			}
			return mtl.TextureType2DArray
		}
		if samples > 1 {
			return mtl.TextureType2DMultisample
		}
		return mtl.TextureType2D
	case TextureDimension3D:
		if samples > 1 {
			abort("Multisampling not supported for 3D textures")
		}
		return mtl.TextureType3D
	}
	abort("Unknown TextureDimension: %d", dimension)
	return mtl.TextureType2D
}

func mapTextureViewType(dimension TextureViewDimension, samples uint32, arraySize uint32) mtl.TextureType {
	switch dimension {
	case TextureViewDimension1D:
		return mapTextureType(TextureDimension1D, samples, arraySize)
	case TextureViewDimension2D:
		return mapTextureType(TextureDimension2D, samples, arraySize)
	case TextureViewDimension3D:
		return mapTextureType(TextureDimension3D, samples, arraySize)
	case TextureViewDimensionCube:
		return mtl.TextureTypeCube
	}
	abort("Unknown TextureViewDimension: %d", dimension)
	return mtl.TextureType2D
}

type CullMode uint32

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

func mapCullMode(m CullMode) mtl.CullMode {
	switch m {
	case CullModeNone:
		return mtl.CullModeNone
	case CullModeFront:
		return mtl.CullModeFront
	case CullModeBack:
		return mtl.CullModeBack
	}
	abort("Unknown CullMode: %d", m)
	return mtl.CullModeNone
}

type FrontFace uint32

const (
	FrontFaceCounterClockwise FrontFace = iota
	FrontFaceClockwise
)

func mapWinding(f FrontFace) mtl.Winding {
	if f == FrontFaceClockwise {
		return mtl.WindingClockwise
	}
	return mtl.WindingCounterClockwise
}

type VertexTopology uint32

const (
	VertexTopologyPointList VertexTopology = iota
	VertexTopologyLineList
	VertexTopologyLineStrip
	VertexTopologyTriangleList
	VertexTopologyTriangleStrip
	VertexTopologyTriangleFan
)

func (t VertexTopology) String() string {
	switch t {
	case VertexTopologyPointList:
		return "PointList"
	case VertexTopologyLineList:
		return "LineList"
	case VertexTopologyLineStrip:
		return "LineStrip"
	case VertexTopologyTriangleList:
		return "TriangleList"
	case VertexTopologyTriangleStrip:
		return "TriangleStrip"
	case VertexTopologyTriangleFan:
		return "TriangleFan"

	default:
		abort("Unknown VertexTopology: %d", t)
		return ""
	}
}

func mapPrimitiveTopologyClass(t VertexTopology) mtl.PrimitiveTopologyClass {
	switch t {
	case VertexTopologyPointList:
		return mtl.PrimitiveTopologyClassPoint
	case VertexTopologyLineList, VertexTopologyLineStrip:
		return mtl.PrimitiveTopologyClassLine
	case VertexTopologyTriangleList, VertexTopologyTriangleStrip:
		return mtl.PrimitiveTopologyClassTriangle
	}
	abort("Unsupported VertexTopology: %s", t)
	return mtl.PrimitiveTopologyClassUnspecified
}

func mapPrimitiveType(t VertexTopology) mtl.PrimitiveType {
	switch t {
	case VertexTopologyPointList:
		return mtl.PrimitiveTypePoint
	case VertexTopologyLineList:
		return mtl.PrimitiveTypeLine
	case VertexTopologyLineStrip:
		return mtl.PrimitiveTypeLineStrip
	case VertexTopologyTriangleList:
		return mtl.PrimitiveTypeTriangle
	case VertexTopologyTriangleStrip:
		return mtl.PrimitiveTypeTriangleStrip
	}
	abort("Unsupported VertexTopology: %s", t)
	return mtl.PrimitiveTypePoint
}

type InputClassification uint32

const (
	InputClassificationPerVertex InputClassification = iota
	InputClassificationPerInstance
)

func mapVertexStepFunction(c InputClassification) mtl.VertexStepFunction {
	switch c {
	case InputClassificationPerVertex:
		return mtl.VertexStepFunctionPerVertex
	case InputClassificationPerInstance:
		return mtl.VertexStepFunctionPerInstance
	}
	abort("Unknown InputClassification: %d", c)
	return mtl.VertexStepFunctionPerVertex
}

type BlendFactor uint32

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcColor
	BlendFactorOneMinusSrcColor
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
	BlendFactorDstColor
	BlendFactorOneMinusDstColor
	BlendFactorSrcAlphaSaturate
	BlendFactorConstant
	BlendFactorOneMinusConstant
	BlendFactorSrc1Color
	BlendFactorOneMinusSrc1Color
	BlendFactorSrc1Alpha
	BlendFactorOneMinusSrc1Alpha
)

func mapBlendFactor(f BlendFactor) mtl.BlendFactor {
	switch f {
	case BlendFactorZero:
		return mtl.BlendFactorZero
	case BlendFactorOne:
		return mtl.BlendFactorOne
	case BlendFactorSrcColor:
		return mtl.BlendFactorSourceColor
	case BlendFactorOneMinusSrcColor:
		return mtl.BlendFactorOneMinusSourceColor
	case BlendFactorSrcAlpha:
		return mtl.BlendFactorSourceAlpha
	case BlendFactorOneMinusSrcAlpha:
		return mtl.BlendFactorOneMinusSourceAlpha
	case BlendFactorDstAlpha:
		return mtl.BlendFactorDestinationAlpha
	case BlendFactorOneMinusDstAlpha:
		return mtl.BlendFactorOneMinusDestinationAlpha
	case BlendFactorDstColor:
		return mtl.BlendFactorDestinationColor
	case BlendFactorOneMinusDstColor:
		return mtl.BlendFactorOneMinusDestinationColor
	case BlendFactorSrcAlphaSaturate:
		return mtl.BlendFactorSourceAlphaSaturated
	case BlendFactorConstant:
		return mtl.BlendFactorBlendColor
	case BlendFactorOneMinusConstant:
		return mtl.BlendFactorOneMinusBlendColor
	case BlendFactorSrc1Color:
		return mtl.BlendFactorSource1Color
	case BlendFactorOneMinusSrc1Color:
		return mtl.BlendFactorOneMinusSource1Color
	case BlendFactorSrc1Alpha:
		return mtl.BlendFactorSource1Alpha
	case BlendFactorOneMinusSrc1Alpha:
		return mtl.BlendFactorOneMinusSource1Alpha
	}
	abort("Unknown BlendFactor: %d", f)
	return mtl.BlendFactorZero
}

type BlendOp uint32

const (
	BlendOpAdd BlendOp = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

func mapBlendOp(op BlendOp) mtl.BlendOperation {
	switch op {
	case BlendOpAdd:
		return mtl.BlendOperationAdd
	case BlendOpSubtract:
		return mtl.BlendOperationSubtract
	case BlendOpReverseSubtract:
		return mtl.BlendOperationReverseSubtract
	case BlendOpMin:
		return mtl.BlendOperationMin
	case BlendOpMax:
		return mtl.BlendOperationMax
	}
	abort("Unknown BlendOp: %d", op)
	return mtl.BlendOperationAdd
}

type CompareOp uint32

const (
	CompareOpNever CompareOp = iota
	CompareOpLess
	CompareOpEqual
	CompareOpLessOrEqual
	CompareOpGreater
	CompareOpNotEqual
	CompareOpGreaterOrEqual
	CompareOpAlways
)

func mapCompareOp(op CompareOp) mtl.CompareFunction {
	switch op {
	case CompareOpNever:
		return mtl.CompareFunctionNever
	case CompareOpLess:
		return mtl.CompareFunctionLess
	case CompareOpEqual:
		return mtl.CompareFunctionEqual
	case CompareOpLessOrEqual:
		return mtl.CompareFunctionLessEqual
	case CompareOpGreater:
		return mtl.CompareFunctionGreater
	case CompareOpNotEqual:
		return mtl.CompareFunctionNotEqual
	case CompareOpGreaterOrEqual:
		return mtl.CompareFunctionGreaterEqual
	case CompareOpAlways:
		return mtl.CompareFunctionAlways
	}
	abort("Unknown CompareOp: %d", op)
	return mtl.CompareFunctionNever
}

type StencilOp uint32

const (
	StencilOpKeep StencilOp = iota
	StencilOpZero
	StencilOpReplace
	StencilOpIncrementAndClamp
	StencilOpDecrementAndClamp
	StencilOpInvert
	StencilOpIncrementAndWrap
	StencilOpDecrementAndWrap
)

func mapStencilOp(op StencilOp) mtl.StencilOperation {
	switch op {
	case StencilOpKeep:
		return mtl.StencilOperationKeep
	case StencilOpZero:
		return mtl.StencilOperationZero
	case StencilOpReplace:
		return mtl.StencilOperationReplace
	case StencilOpIncrementAndClamp:
		return mtl.StencilOperationIncrementClamp
	case StencilOpDecrementAndClamp:
		return mtl.StencilOperationDecrementClamp
	case StencilOpInvert:
		return mtl.StencilOperationInvert
	case StencilOpIncrementAndWrap:
		return mtl.StencilOperationIncrementWrap
	case StencilOpDecrementAndWrap:
		return mtl.StencilOperationDecrementWrap
	}
	abort("Unknown StencilOp: %d", op)
	return mtl.StencilOperationKeep
}

type ColorComponentFlags uint32

const (
	ColorComponentR ColorComponentFlags = 1 << iota
	ColorComponentG
	ColorComponentB
	ColorComponentA

	ColorComponentAll = ColorComponentR | ColorComponentG | ColorComponentB | ColorComponentA
)

func mapColorWriteMask(f ColorComponentFlags) mtl.ColorWriteMask {
	ret := mtl.ColorWriteMaskNone
	if hasBits(f, ColorComponentR) {
		ret |= mtl.ColorWriteMaskRed
	}
	if hasBits(f, ColorComponentG) {
		ret |= mtl.ColorWriteMaskGreen
	}
	if hasBits(f, ColorComponentB) {
		ret |= mtl.ColorWriteMaskBlue
	}
	if hasBits(f, ColorComponentA) {
		ret |= mtl.ColorWriteMaskAlpha
	}
	return ret
}

type SamplerFilter uint32

const (
	SamplerFilterNearest SamplerFilter = iota
	SamplerFilterLinear
)

func mapSamplerFilter(f SamplerFilter) mtl.SamplerMinMagFilter {
	switch f {
	case SamplerFilterNearest:
		return mtl.SamplerMinMagFilterNearest
	case SamplerFilterLinear:
		return mtl.SamplerMinMagFilterLinear
	}
	abort("Unknown SamplerFilter: %d", f)
	return mtl.SamplerMinMagFilterNearest
}

type SamplerMipMapMode uint32

const (
	SamplerMipMapModeNearest SamplerMipMapMode = iota
	SamplerMipMapModeLinear
)

func mapSamplerMipMapMode(m SamplerMipMapMode) mtl.SamplerMipFilter {
	switch m {
	case SamplerMipMapModeNearest:
		return mtl.SamplerMipFilterNearest
	case SamplerMipMapModeLinear:
		return mtl.SamplerMipFilterLinear
	}
	abort("Unknown SamplerMipMapMode: %d", m)
	return mtl.SamplerMipFilterNearest
}

type SamplerAddressMode uint32

const (
	SamplerAddressModeRepeat SamplerAddressMode = iota
	SamplerAddressModeMirroredRepeat
	SamplerAddressModeClampToEdge
	SamplerAddressModeClampToBorder
	SamplerAddressModeMirroredClampToEdge
)

func mapSamplerAddressMode(m SamplerAddressMode) mtl.SamplerAddressMode {
	switch m {
	case SamplerAddressModeRepeat:
		return mtl.SamplerAddressModeRepeat
	case SamplerAddressModeMirroredRepeat:
		return mtl.SamplerAddressModeMirrorRepeat
	case SamplerAddressModeClampToEdge:
		return mtl.SamplerAddressModeClampToEdge
	case SamplerAddressModeClampToBorder:
		return mtl.SamplerAddressModeClampToBorderColor
	case SamplerAddressModeMirroredClampToEdge:
		return mtl.SamplerAddressModeMirrorClampToEdge
	}
	abort("Unknown SamplerAddressMode: %d", m)
	return mtl.SamplerAddressModeRepeat
}

type SamplerBorderColor uint32

const (
	SamplerBorderColorTransparentBlack SamplerBorderColor = iota
	SamplerBorderColorOpaqueBlack
	SamplerBorderColorOpaqueWhite
)

func mapSamplerBorderColor(c SamplerBorderColor) mtl.SamplerBorderColor {
	switch c {
	case SamplerBorderColorTransparentBlack:
		return mtl.SamplerBorderColorTransparentBlack
	case SamplerBorderColorOpaqueBlack:
		return mtl.SamplerBorderColorOpaqueBlack
	case SamplerBorderColorOpaqueWhite:
		return mtl.SamplerBorderColorOpaqueWhite
	}
	abort("Unknown SamplerBorderColor: %d", c)
	return mtl.SamplerBorderColorTransparentBlack
}

type HeapType uint32

const (
	HeapTypeDefault HeapType = iota
	HeapTypeUpload
	HeapTypeReadback
	HeapTypeGPUUpload
)

func (h HeapType) String() string {
	switch h {
	case HeapTypeDefault:
		return "Default"
	case HeapTypeUpload:
		return "Upload"
	case HeapTypeReadback:
		return "Readback"
	case HeapTypeGPUUpload:
		return "GPUUpload"
	}
	return "Unknown"
}

func mapResourceOptions(h HeapType) mtl.ResourceOptions {
	switch h {
	case HeapTypeDefault:
		return mtl.ResourceStorageModePrivate
	case HeapTypeUpload, HeapTypeReadback, HeapTypeGPUUpload:
		return mtl.ResourceStorageModeShared
	}
	abort("Unknown HeapType: %d", h)
	return mtl.ResourceStorageModePrivate
}

type Swizzle uint8

const (
	SwizzleIdentity Swizzle = iota
	SwizzleZero
	SwizzleOne
	SwizzleR
	SwizzleG
	SwizzleB
	SwizzleA
)

type ComponentMapping struct {
	R, G, B, A Swizzle
}

func mapSwizzle(s Swizzle, identity mtl.TextureSwizzle) mtl.TextureSwizzle {
	switch s {
	case SwizzleIdentity:
		return identity
	case SwizzleZero:
		return mtl.TextureSwizzleZero
	case SwizzleOne:
		return mtl.TextureSwizzleOne
	case SwizzleR:
		return mtl.TextureSwizzleRed
	case SwizzleG:
		return mtl.TextureSwizzleGreen
	case SwizzleB:
		return mtl.TextureSwizzleBlue
	case SwizzleA:
		return mtl.TextureSwizzleAlpha
	}
	abort("Unknown Swizzle: %d", s)
	return identity
}

func mapComponentMapping(m ComponentMapping) mtl.TextureSwizzleChannels {
	return mtl.TextureSwizzleChannels{
		Red:   mapSwizzle(m.R, mtl.TextureSwizzleRed),
		Green: mapSwizzle(m.G, mtl.TextureSwizzleGreen),
		Blue:  mapSwizzle(m.B, mtl.TextureSwizzleBlue),
		Alpha: mapSwizzle(m.A, mtl.TextureSwizzleAlpha),
	}
}

type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute

	ShaderStageGraphics = ShaderStageVertex | ShaderStageFragment
	ShaderStageAll      = ShaderStageGraphics | ShaderStageCompute
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "Vertex"
	case ShaderStageFragment:
		return "Fragment"
	case ShaderStageCompute:
		return "Compute"
	case ShaderStageGraphics:
		return "Graphics"
	case ShaderStageAll:
		return "All"
	case 0:
		return "None"
	}
	str := ""
	if hasBits(s, ShaderStageVertex) {
		str += "Vertex|"
	}
	if hasBits(s, ShaderStageFragment) {
		str += "Fragment|"
	}
	if hasBits(s, ShaderStageCompute) {
		str += "Compute|"
	}
	return strings.TrimSuffix(str, "|")
}

func (s ShaderStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts stage names joined by "|", as produced by String.
func (s *ShaderStage) UnmarshalText(data []byte) error {
	ret := ShaderStage(0)
	for _, name := range strings.Split(string(data), "|") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "vertex":
			ret |= ShaderStageVertex
		case "fragment":
			ret |= ShaderStageFragment
		case "compute":
			ret |= ShaderStageCompute
		case "graphics":
			ret |= ShaderStageGraphics
		case "all":
			ret |= ShaderStageAll
		case "none", "":
		default:
			return debug.Errorf("Unknown shader stage: %q", name)
		}
	}
	*s = ret
	return nil
}
