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
	"testing"

	"github.com/stretchr/testify/require"
	"goarrg.com/rhi/mxr/mtl"
)

func TestFormatRoundTrip(t *testing.T) {
	for f := Format(1); f < formatCount; f++ {
		if !f.Supported() || f.IsTypeless() {
			continue
		}
		switch f {
		case FORMAT_R32G32B32_FLOAT, FORMAT_R32G32B32_UINT, FORMAT_R32G32B32_SINT:
			continue
		}
		require.Equal(t, f, mapFormat(mapPixelFormat(f)), f.String())
	}

	require.Equal(t, FORMAT_UNKNOWN, mapFormat(mtl.PixelFormatInvalid))
	require.Equal(t, mtl.PixelFormatInvalid, mapPixelFormat(FORMAT_UNKNOWN))
	require.Equal(t, FORMAT_R32G32B32A32_FLOAT, mapFormat(mapPixelFormat(FORMAT_R32G32B32_FLOAT)))
}

func TestFormatSupport(t *testing.T) {
	require.False(t, FORMAT_R10G10B10A2_UNORM.Supported())
	require.Panics(t, func() { mapPixelFormat(FORMAT_R10G10B10A2_UNORM) })
	require.False(t, Format(formatCount).Supported())
	require.Equal(t, "INVALID", Format(formatCount).String())

	require.True(t, FormatIsDepth(FORMAT_D32_FLOAT_S8X24_UINT))
	require.True(t, FormatHasStencil(FORMAT_D32_FLOAT_S8X24_UINT))
	require.False(t, FormatHasStencil(FORMAT_D16_UNORM))
	require.Equal(t, uint32(4), FormatBlockWidth(FORMAT_BC7_UNORM))
	require.Equal(t, uint32(1), FormatBlockWidth(FORMAT_R8G8B8A8_UNORM))
	require.Equal(t, uint32(16), FormatSize(FORMAT_BC7_UNORM))

	require.Equal(t, mtl.VertexFormatFloat3, mapVertexFormat(FORMAT_R32G32B32_FLOAT))
	require.Panics(t, func() { mapVertexFormat(FORMAT_D32_FLOAT) })

	it, size := mapIndexType(FORMAT_R16_UINT)
	require.Equal(t, mtl.IndexTypeUInt16, it)
	require.Equal(t, uint32(2), size)
	require.Panics(t, func() { mapIndexType(FORMAT_R8_UINT) })
}

func TestFormatText(t *testing.T) {
	var f Format
	require.NoError(t, f.UnmarshalText([]byte("r8g8b8a8_unorm")))
	require.Equal(t, FORMAT_R8G8B8A8_UNORM, f)
	require.NoError(t, f.UnmarshalText([]byte("FORMAT_D16_UNORM")))
	require.Equal(t, FORMAT_D16_UNORM, f)
	require.Error(t, f.UnmarshalText([]byte("R8G8B8A8")))

	text, err := FORMAT_BC6H_SF16.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "BC6H_SF16", string(text))
}
