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

type Format uint32

const (
	FORMAT_UNKNOWN Format = iota

	FORMAT_R32G32B32A32_TYPELESS
	FORMAT_R32G32B32A32_FLOAT
	FORMAT_R32G32B32A32_UINT
	FORMAT_R32G32B32A32_SINT

	FORMAT_R32G32B32_TYPELESS
	FORMAT_R32G32B32_FLOAT
	FORMAT_R32G32B32_UINT
	FORMAT_R32G32B32_SINT

	FORMAT_R16G16B16A16_TYPELESS
	FORMAT_R16G16B16A16_FLOAT
	FORMAT_R16G16B16A16_UNORM
	FORMAT_R16G16B16A16_UINT
	FORMAT_R16G16B16A16_SNORM
	FORMAT_R16G16B16A16_SINT

	FORMAT_R32G32_TYPELESS
	FORMAT_R32G32_FLOAT
	FORMAT_R32G32_UINT
	FORMAT_R32G32_SINT

	FORMAT_R32G8X24_TYPELESS
	FORMAT_D32_FLOAT_S8X24_UINT

	FORMAT_R10G10B10A2_TYPELESS
	FORMAT_R10G10B10A2_UNORM
	FORMAT_R10G10B10A2_UINT

	FORMAT_R8G8B8A8_TYPELESS
	FORMAT_R8G8B8A8_UNORM
	FORMAT_R8G8B8A8_UINT
	FORMAT_R8G8B8A8_SNORM
	FORMAT_R8G8B8A8_SINT

	FORMAT_B8G8R8A8_UNORM

	FORMAT_R16G16_TYPELESS
	FORMAT_R16G16_FLOAT
	FORMAT_R16G16_UNORM
	FORMAT_R16G16_UINT
	FORMAT_R16G16_SNORM
	FORMAT_R16G16_SINT

	FORMAT_R32_TYPELESS
	FORMAT_D32_FLOAT
	FORMAT_R32_FLOAT
	FORMAT_R32_UINT
	FORMAT_R32_SINT

	FORMAT_R8G8_TYPELESS
	FORMAT_R8G8_UNORM
	FORMAT_R8G8_UINT
	FORMAT_R8G8_SNORM
	FORMAT_R8G8_SINT

	FORMAT_R16_TYPELESS
	FORMAT_R16_FLOAT
	FORMAT_D16_UNORM
	FORMAT_R16_UNORM
	FORMAT_R16_UINT
	FORMAT_R16_SNORM
	FORMAT_R16_SINT

	FORMAT_R8_TYPELESS
	FORMAT_R8_UNORM
	FORMAT_R8_UINT
	FORMAT_R8_SNORM
	FORMAT_R8_SINT

	FORMAT_BC1_TYPELESS
	FORMAT_BC1_UNORM
	FORMAT_BC1_UNORM_SRGB

	FORMAT_BC2_TYPELESS
	FORMAT_BC2_UNORM
	FORMAT_BC2_UNORM_SRGB

	FORMAT_BC3_TYPELESS
	FORMAT_BC3_UNORM
	FORMAT_BC3_UNORM_SRGB

	FORMAT_BC4_TYPELESS
	FORMAT_BC4_UNORM
	FORMAT_BC4_SNORM

	FORMAT_BC5_TYPELESS
	FORMAT_BC5_UNORM
	FORMAT_BC5_SNORM

	FORMAT_BC6H_TYPELESS
	FORMAT_BC6H_UF16
	FORMAT_BC6H_SF16

	FORMAT_BC7_TYPELESS
	FORMAT_BC7_UNORM
	FORMAT_BC7_UNORM_SRGB
	formatCount
)

var formatNames = [formatCount]string{
	FORMAT_UNKNOWN: "UNKNOWN",

	FORMAT_R32G32B32A32_TYPELESS: "R32G32B32A32_TYPELESS",
	FORMAT_R32G32B32A32_FLOAT:    "R32G32B32A32_FLOAT",
	FORMAT_R32G32B32A32_UINT:     "R32G32B32A32_UINT",
	FORMAT_R32G32B32A32_SINT:     "R32G32B32A32_SINT",

	FORMAT_R32G32B32_TYPELESS: "R32G32B32_TYPELESS",
	FORMAT_R32G32B32_FLOAT:    "R32G32B32_FLOAT",
	FORMAT_R32G32B32_UINT:     "R32G32B32_UINT",
	FORMAT_R32G32B32_SINT:     "R32G32B32_SINT",

	FORMAT_R16G16B16A16_TYPELESS: "R16G16B16A16_TYPELESS",
	FORMAT_R16G16B16A16_FLOAT:    "R16G16B16A16_FLOAT",
	FORMAT_R16G16B16A16_UNORM:    "R16G16B16A16_UNORM",
	FORMAT_R16G16B16A16_UINT:     "R16G16B16A16_UINT",
	FORMAT_R16G16B16A16_SNORM:    "R16G16B16A16_SNORM",
	FORMAT_R16G16B16A16_SINT:     "R16G16B16A16_SINT",

	FORMAT_R32G32_TYPELESS: "R32G32_TYPELESS",
	FORMAT_R32G32_FLOAT:    "R32G32_FLOAT",
	FORMAT_R32G32_UINT:     "R32G32_UINT",
	FORMAT_R32G32_SINT:     "R32G32_SINT",

	FORMAT_R32G8X24_TYPELESS:    "R32G8X24_TYPELESS",
	FORMAT_D32_FLOAT_S8X24_UINT: "D32_FLOAT_S8X24_UINT",

	FORMAT_R10G10B10A2_TYPELESS: "R10G10B10A2_TYPELESS",
	FORMAT_R10G10B10A2_UNORM:    "R10G10B10A2_UNORM",
	FORMAT_R10G10B10A2_UINT:     "R10G10B10A2_UINT",

	FORMAT_R8G8B8A8_TYPELESS: "R8G8B8A8_TYPELESS",
	FORMAT_R8G8B8A8_UNORM:    "R8G8B8A8_UNORM",
	FORMAT_R8G8B8A8_UINT:     "R8G8B8A8_UINT",
	FORMAT_R8G8B8A8_SNORM:    "R8G8B8A8_SNORM",
	FORMAT_R8G8B8A8_SINT:     "R8G8B8A8_SINT",

	FORMAT_B8G8R8A8_UNORM: "B8G8R8A8_UNORM",

	FORMAT_R16G16_TYPELESS: "R16G16_TYPELESS",
	FORMAT_R16G16_FLOAT:    "R16G16_FLOAT",
	FORMAT_R16G16_UNORM:    "R16G16_UNORM",
	FORMAT_R16G16_UINT:     "R16G16_UINT",
	FORMAT_R16G16_SNORM:    "R16G16_SNORM",
	FORMAT_R16G16_SINT:     "R16G16_SINT",

	FORMAT_R32_TYPELESS: "R32_TYPELESS",
	FORMAT_D32_FLOAT:    "D32_FLOAT",
	FORMAT_R32_FLOAT:    "R32_FLOAT",
	FORMAT_R32_UINT:     "R32_UINT",
	FORMAT_R32_SINT:     "R32_SINT",

	FORMAT_R8G8_TYPELESS: "R8G8_TYPELESS",
	FORMAT_R8G8_UNORM:    "R8G8_UNORM",
	FORMAT_R8G8_UINT:     "R8G8_UINT",
	FORMAT_R8G8_SNORM:    "R8G8_SNORM",
	FORMAT_R8G8_SINT:     "R8G8_SINT",

	FORMAT_R16_TYPELESS: "R16_TYPELESS",
	FORMAT_R16_FLOAT:    "R16_FLOAT",
	FORMAT_D16_UNORM:    "D16_UNORM",
	FORMAT_R16_UNORM:    "R16_UNORM",
	FORMAT_R16_UINT:     "R16_UINT",
	FORMAT_R16_SNORM:    "R16_SNORM",
	FORMAT_R16_SINT:     "R16_SINT",

	FORMAT_R8_TYPELESS: "R8_TYPELESS",
	FORMAT_R8_UNORM:    "R8_UNORM",
	FORMAT_R8_UINT:     "R8_UINT",
	FORMAT_R8_SNORM:    "R8_SNORM",
	FORMAT_R8_SINT:     "R8_SINT",

	FORMAT_BC1_TYPELESS:   "BC1_TYPELESS",
	FORMAT_BC1_UNORM:      "BC1_UNORM",
	FORMAT_BC1_UNORM_SRGB: "BC1_UNORM_SRGB",

	FORMAT_BC2_TYPELESS:   "BC2_TYPELESS",
	FORMAT_BC2_UNORM:      "BC2_UNORM",
	FORMAT_BC2_UNORM_SRGB: "BC2_UNORM_SRGB",

	FORMAT_BC3_TYPELESS:   "BC3_TYPELESS",
	FORMAT_BC3_UNORM:      "BC3_UNORM",
	FORMAT_BC3_UNORM_SRGB: "BC3_UNORM_SRGB",

	FORMAT_BC4_TYPELESS: "BC4_TYPELESS",
	FORMAT_BC4_UNORM:    "BC4_UNORM",
	FORMAT_BC4_SNORM:    "BC4_SNORM",

	FORMAT_BC5_TYPELESS: "BC5_TYPELESS",
	FORMAT_BC5_UNORM:    "BC5_UNORM",
	FORMAT_BC5_SNORM:    "BC5_SNORM",

	FORMAT_BC6H_TYPELESS: "BC6H_TYPELESS",
	FORMAT_BC6H_UF16:     "BC6H_UF16",
	FORMAT_BC6H_SF16:     "BC6H_SF16",

	FORMAT_BC7_TYPELESS:   "BC7_TYPELESS",
	FORMAT_BC7_UNORM:      "BC7_UNORM",
	FORMAT_BC7_UNORM_SRGB: "BC7_UNORM_SRGB",
}

func (f Format) String() string {
	if f >= formatCount {
		return "INVALID"
	}
	return formatNames[f]
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(data []byte) error {
	name := strings.TrimPrefix(strings.ToUpper(string(data)), "FORMAT_")
	for i, n := range formatNames {
		if n == name {
			*f = Format(i)
			return nil
		}
	}
	return debug.Errorf("Unknown format: %q", string(data))
}

type formatInfo struct {
	pixel  mtl.PixelFormat
	vertex mtl.VertexFormat
	// size is the number of bytes per texel, or per block for block compressed formats.
	size       uint32
	blockWidth uint32
	typeless   bool
	depth      bool
	stencil    bool
}

var formatTable = [formatCount]formatInfo{
	FORMAT_UNKNOWN: {},

	FORMAT_R32G32B32A32_TYPELESS: {pixel: mtl.PixelFormatRGBA32Float, size: 16, typeless: true},
	FORMAT_R32G32B32A32_FLOAT:    {pixel: mtl.PixelFormatRGBA32Float, vertex: mtl.VertexFormatFloat4, size: 16},
	FORMAT_R32G32B32A32_UINT:     {pixel: mtl.PixelFormatRGBA32Uint, vertex: mtl.VertexFormatUInt4, size: 16},
	FORMAT_R32G32B32A32_SINT:     {pixel: mtl.PixelFormatRGBA32Sint, vertex: mtl.VertexFormatInt4, size: 16},

	FORMAT_R32G32B32_TYPELESS: {pixel: mtl.PixelFormatRGBA32Float, size: 12, typeless: true},
	FORMAT_R32G32B32_FLOAT:    {pixel: mtl.PixelFormatRGBA32Float, vertex: mtl.VertexFormatFloat3, size: 12},
	FORMAT_R32G32B32_UINT:     {pixel: mtl.PixelFormatRGBA32Uint, vertex: mtl.VertexFormatUInt3, size: 12},
	FORMAT_R32G32B32_SINT:     {pixel: mtl.PixelFormatRGBA32Sint, vertex: mtl.VertexFormatInt3, size: 12},

	FORMAT_R16G16B16A16_TYPELESS: {pixel: mtl.PixelFormatRGBA16Float, size: 8, typeless: true},
	FORMAT_R16G16B16A16_FLOAT:    {pixel: mtl.PixelFormatRGBA16Float, vertex: mtl.VertexFormatHalf4, size: 8},
	FORMAT_R16G16B16A16_UNORM:    {pixel: mtl.PixelFormatRGBA16Unorm, vertex: mtl.VertexFormatUShort4Normalized, size: 8},
	FORMAT_R16G16B16A16_UINT:     {pixel: mtl.PixelFormatRGBA16Uint, vertex: mtl.VertexFormatUShort4, size: 8},
	FORMAT_R16G16B16A16_SNORM:    {pixel: mtl.PixelFormatRGBA16Snorm, vertex: mtl.VertexFormatShort4Normalized, size: 8},
	FORMAT_R16G16B16A16_SINT:     {pixel: mtl.PixelFormatRGBA16Sint, vertex: mtl.VertexFormatShort4, size: 8},

	FORMAT_R32G32_TYPELESS: {pixel: mtl.PixelFormatRG32Float, size: 8, typeless: true},
	FORMAT_R32G32_FLOAT:    {pixel: mtl.PixelFormatRG32Float, vertex: mtl.VertexFormatFloat2, size: 8},
	FORMAT_R32G32_UINT:     {pixel: mtl.PixelFormatRG32Uint, vertex: mtl.VertexFormatUInt2, size: 8},
	FORMAT_R32G32_SINT:     {pixel: mtl.PixelFormatRG32Sint, vertex: mtl.VertexFormatInt2, size: 8},

	FORMAT_R32G8X24_TYPELESS:    {pixel: mtl.PixelFormatDepth32Float_Stencil8, size: 8, typeless: true, depth: true, stencil: true},
	FORMAT_D32_FLOAT_S8X24_UINT: {pixel: mtl.PixelFormatDepth32Float_Stencil8, size: 8, depth: true, stencil: true},

	FORMAT_R10G10B10A2_TYPELESS: {size: 4, typeless: true},
	FORMAT_R10G10B10A2_UNORM:    {size: 4},
	FORMAT_R10G10B10A2_UINT:     {size: 4},

	FORMAT_R8G8B8A8_TYPELESS: {pixel: mtl.PixelFormatRGBA8Unorm, size: 4, typeless: true},
	FORMAT_R8G8B8A8_UNORM:    {pixel: mtl.PixelFormatRGBA8Unorm, vertex: mtl.VertexFormatUChar4Normalized, size: 4},
	FORMAT_R8G8B8A8_UINT:     {pixel: mtl.PixelFormatRGBA8Uint, vertex: mtl.VertexFormatUChar4, size: 4},
	FORMAT_R8G8B8A8_SNORM:    {pixel: mtl.PixelFormatRGBA8Snorm, vertex: mtl.VertexFormatChar4Normalized, size: 4},
	FORMAT_R8G8B8A8_SINT:     {pixel: mtl.PixelFormatRGBA8Sint, vertex: mtl.VertexFormatChar4, size: 4},

	FORMAT_B8G8R8A8_UNORM: {pixel: mtl.PixelFormatBGRA8Unorm, vertex: mtl.VertexFormatUChar4Normalized_BGRA, size: 4},

	FORMAT_R16G16_TYPELESS: {pixel: mtl.PixelFormatRG16Float, size: 4, typeless: true},
	FORMAT_R16G16_FLOAT:    {pixel: mtl.PixelFormatRG16Float, vertex: mtl.VertexFormatHalf2, size: 4},
	FORMAT_R16G16_UNORM:    {pixel: mtl.PixelFormatRG16Unorm, vertex: mtl.VertexFormatUShort2Normalized, size: 4},
	FORMAT_R16G16_UINT:     {pixel: mtl.PixelFormatRG16Uint, vertex: mtl.VertexFormatUShort2, size: 4},
	FORMAT_R16G16_SNORM:    {pixel: mtl.PixelFormatRG16Snorm, vertex: mtl.VertexFormatShort2Normalized, size: 4},
	FORMAT_R16G16_SINT:     {pixel: mtl.PixelFormatRG16Sint, vertex: mtl.VertexFormatShort2, size: 4},

	FORMAT_R32_TYPELESS: {pixel: mtl.PixelFormatR32Float, size: 4, typeless: true},
	FORMAT_D32_FLOAT:    {pixel: mtl.PixelFormatDepth32Float, size: 4, depth: true},
	FORMAT_R32_FLOAT:    {pixel: mtl.PixelFormatR32Float, vertex: mtl.VertexFormatFloat, size: 4},
	FORMAT_R32_UINT:     {pixel: mtl.PixelFormatR32Uint, vertex: mtl.VertexFormatUInt, size: 4},
	FORMAT_R32_SINT:     {pixel: mtl.PixelFormatR32Sint, vertex: mtl.VertexFormatInt, size: 4},

	FORMAT_R8G8_TYPELESS: {pixel: mtl.PixelFormatRG8Unorm, size: 2, typeless: true},
	FORMAT_R8G8_UNORM:    {pixel: mtl.PixelFormatRG8Unorm, vertex: mtl.VertexFormatUChar2Normalized, size: 2},
	FORMAT_R8G8_UINT:     {pixel: mtl.PixelFormatRG8Uint, vertex: mtl.VertexFormatUChar2, size: 2},
	FORMAT_R8G8_SNORM:    {pixel: mtl.PixelFormatRG8Snorm, vertex: mtl.VertexFormatChar2Normalized, size: 2},
	FORMAT_R8G8_SINT:     {pixel: mtl.PixelFormatRG8Sint, vertex: mtl.VertexFormatChar2, size: 2},

	FORMAT_R16_TYPELESS: {pixel: mtl.PixelFormatR16Float, size: 2, typeless: true},
	FORMAT_R16_FLOAT:    {pixel: mtl.PixelFormatR16Float, vertex: mtl.VertexFormatHalf, size: 2},
	FORMAT_D16_UNORM:    {pixel: mtl.PixelFormatDepth16Unorm, size: 2, depth: true},
	FORMAT_R16_UNORM:    {pixel: mtl.PixelFormatR16Unorm, vertex: mtl.VertexFormatUShortNormalized, size: 2},
	FORMAT_R16_UINT:     {pixel: mtl.PixelFormatR16Uint, vertex: mtl.VertexFormatUShort, size: 2},
	FORMAT_R16_SNORM:    {pixel: mtl.PixelFormatR16Snorm, vertex: mtl.VertexFormatShortNormalized, size: 2},
	FORMAT_R16_SINT:     {pixel: mtl.PixelFormatR16Sint, vertex: mtl.VertexFormatShort, size: 2},

	FORMAT_R8_TYPELESS: {pixel: mtl.PixelFormatR8Unorm, size: 1, typeless: true},
	FORMAT_R8_UNORM:    {pixel: mtl.PixelFormatR8Unorm, vertex: mtl.VertexFormatUCharNormalized, size: 1},
	FORMAT_R8_UINT:     {pixel: mtl.PixelFormatR8Uint, vertex: mtl.VertexFormatUChar, size: 1},
	FORMAT_R8_SNORM:    {pixel: mtl.PixelFormatR8Snorm, vertex: mtl.VertexFormatCharNormalized, size: 1},
	FORMAT_R8_SINT:     {pixel: mtl.PixelFormatR8Sint, vertex: mtl.VertexFormatChar, size: 1},

	FORMAT_BC1_TYPELESS:   {pixel: mtl.PixelFormatBC1RGBA, size: 8, blockWidth: 4, typeless: true},
	FORMAT_BC1_UNORM:      {pixel: mtl.PixelFormatBC1RGBA, size: 8, blockWidth: 4},
	FORMAT_BC1_UNORM_SRGB: {pixel: mtl.PixelFormatBC1RGBA_sRGB, size: 8, blockWidth: 4},
	FORMAT_BC2_TYPELESS:   {pixel: mtl.PixelFormatBC2RGBA, size: 16, blockWidth: 4, typeless: true},
	FORMAT_BC2_UNORM:      {pixel: mtl.PixelFormatBC2RGBA, size: 16, blockWidth: 4},
	FORMAT_BC2_UNORM_SRGB: {pixel: mtl.PixelFormatBC2RGBA_sRGB, size: 16, blockWidth: 4},
	FORMAT_BC3_TYPELESS:   {pixel: mtl.PixelFormatBC3RGBA, size: 16, blockWidth: 4, typeless: true},
	FORMAT_BC3_UNORM:      {pixel: mtl.PixelFormatBC3RGBA, size: 16, blockWidth: 4},
	FORMAT_BC3_UNORM_SRGB: {pixel: mtl.PixelFormatBC3RGBA_sRGB, size: 16, blockWidth: 4},
	FORMAT_BC4_TYPELESS:   {pixel: mtl.PixelFormatBC4_RUnorm, size: 8, blockWidth: 4, typeless: true},
	FORMAT_BC4_UNORM:      {pixel: mtl.PixelFormatBC4_RUnorm, size: 8, blockWidth: 4},
	FORMAT_BC4_SNORM:      {pixel: mtl.PixelFormatBC4_RSnorm, size: 8, blockWidth: 4},
	FORMAT_BC5_TYPELESS:   {pixel: mtl.PixelFormatBC5_RGUnorm, size: 16, blockWidth: 4, typeless: true},
	FORMAT_BC5_UNORM:      {pixel: mtl.PixelFormatBC5_RGUnorm, size: 16, blockWidth: 4},
	FORMAT_BC5_SNORM:      {pixel: mtl.PixelFormatBC5_RGSnorm, size: 16, blockWidth: 4},
	FORMAT_BC6H_TYPELESS:  {pixel: mtl.PixelFormatBC6H_RGBFloat, size: 16, blockWidth: 4, typeless: true},
	FORMAT_BC6H_UF16:      {pixel: mtl.PixelFormatBC6H_RGBUfloat, size: 16, blockWidth: 4},
	FORMAT_BC6H_SF16:      {pixel: mtl.PixelFormatBC6H_RGBFloat, size: 16, blockWidth: 4},
	FORMAT_BC7_TYPELESS:   {pixel: mtl.PixelFormatBC7_RGBAUnorm, size: 16, blockWidth: 4, typeless: true},
	FORMAT_BC7_UNORM:      {pixel: mtl.PixelFormatBC7_RGBAUnorm, size: 16, blockWidth: 4},
	FORMAT_BC7_UNORM_SRGB: {pixel: mtl.PixelFormatBC7_RGBAUnorm_sRGB, size: 16, blockWidth: 4},
}

var renderFormats = map[mtl.PixelFormat]Format{}

func init() {
	for f := Format(1); f < formatCount; f++ {
		info := formatTable[f]
		if info.typeless || info.pixel == mtl.PixelFormatInvalid {
			continue
		}
		switch f {
		case FORMAT_R32G32B32_FLOAT, FORMAT_R32G32B32_UINT, FORMAT_R32G32B32_SINT:
			continue
		}
		if _, found := renderFormats[info.pixel]; found {
			abort("Pixel format %d mapped by more than one typed Format", info.pixel)
		}
		renderFormats[info.pixel] = f
	}
}

func (f Format) info() formatInfo {
	if f >= formatCount {
		abort("Unknown format: %d", f)
	}
	return formatTable[f]
}

// Supported reports whether f has a native pixel format.
func (f Format) Supported() bool {
	return f < formatCount && (f == FORMAT_UNKNOWN || formatTable[f].pixel != mtl.PixelFormatInvalid)
}

func (f Format) IsTypeless() bool {
	return f.info().typeless
}

func FormatSize(f Format) uint32 {
	return f.info().size
}

// FormatBlockWidth returns the width in texels of one block, 1 for uncompressed formats.
func FormatBlockWidth(f Format) uint32 {
	return max(f.info().blockWidth, 1)
}

func FormatIsDepth(f Format) bool {
	return f.info().depth
}

func FormatHasStencil(f Format) bool {
	return f.info().stencil
}

func mapPixelFormat(f Format) mtl.PixelFormat {
	if f == FORMAT_UNKNOWN {
		return mtl.PixelFormatInvalid
	}
	info := f.info()
	if info.pixel == mtl.PixelFormatInvalid {
		abort("Format %s is not supported", f)
	}
	return info.pixel
}

func mapFormat(f mtl.PixelFormat) Format {
	if f == mtl.PixelFormatInvalid {
		return FORMAT_UNKNOWN
	}
	if ret, found := renderFormats[f]; found {
		return ret
	}
	abort("Unknown pixel format: %d", f)
	return FORMAT_UNKNOWN
}

func mapVertexFormat(f Format) mtl.VertexFormat {
	if f == FORMAT_UNKNOWN {
		return mtl.VertexFormatInvalid
	}
	ret := f.info().vertex
	if ret == mtl.VertexFormatInvalid {
		abort("Format %s is not supported as a vertex format", f)
	}
	return ret
}

func mapIndexType(f Format) (mtl.IndexType, uint32) {
	switch f {
	case FORMAT_R16_UINT:
		return mtl.IndexTypeUInt16, 2
	case FORMAT_R32_UINT:
		return mtl.IndexTypeUInt32, 4
	}
	abort("Format %s is not supported as an index type", f)
	return mtl.IndexTypeUInt16, 2
}
