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

func TestTextureViewClamp(t *testing.T) {
	c := newTestContext(t)
	tex := c.device.NewTexture(TextureDesc{
		Dimension: TextureDimension2D,
		Format:    FORMAT_R8G8B8A8_TYPELESS,
		Width:     64,
		Height:    64,
		MipLevels: 4,
		ArraySize: 6,
	})
	defer tex.Destroy()
	require.Equal(t, mtl.TextureType2DArray, tex.mtl.TextureType())
	require.Equal(t, mtl.PixelFormatRGBA8Unorm, tex.mtl.PixelFormat())

	v := tex.NewView(TextureViewDesc{
		Dimension:  TextureViewDimension2D,
		Format:     FORMAT_R8G8B8A8_UINT,
		MipSlice:   2,
		MipLevels:  8,
		ArrayIndex: 4,
		ArraySize:  8,
		ComponentMapping: ComponentMapping{
			R: SwizzleB,
			B: SwizzleR,
			A: SwizzleOne,
		},
	})
	defer v.Destroy()
	require.Equal(t, uint64(2), v.mtl.MipmapLevelCount())
	require.Equal(t, uint64(2), v.mtl.ArrayLength())
	require.Equal(t, mtl.TextureType2DArray, v.mtl.TextureType())
	require.Equal(t, mtl.TextureSwizzleChannels{
		Red:   mtl.TextureSwizzleBlue,
		Green: mtl.TextureSwizzleGreen,
		Blue:  mtl.TextureSwizzleRed,
		Alpha: mtl.TextureSwizzleOne,
	}, mapComponentMapping(v.desc.ComponentMapping))

	single := tex.NewView(TextureViewDesc{Dimension: TextureViewDimension2D, MipLevels: 1, ArrayIndex: 5, ArraySize: 1})
	defer single.Destroy()
	require.Equal(t, mtl.TextureType2D, single.mtl.TextureType())
	require.Equal(t, FORMAT_R8G8B8A8_TYPELESS, single.Desc().Format)

	require.Panics(t, func() { tex.NewView(TextureViewDesc{Dimension: TextureViewDimension2D, MipSlice: 4}) })
	require.Panics(t, func() { tex.NewView(TextureViewDesc{Dimension: TextureViewDimension2D, ArrayIndex: 6}) })
}

func TestBufferFormattedView(t *testing.T) {
	c := newTestContext(t)
	b := c.device.NewBuffer(BufferDesc{Size: 100, Heap: HeapTypeUpload, Flags: BufferFlagFormatted | BufferFlagUnorderedAccess})
	defer b.Destroy()

	v := b.NewFormattedView(FORMAT_R32_FLOAT)
	defer v.Destroy()
	require.Equal(t, mtl.TextureTypeTextureBuffer, v.texture.TextureType())
	require.Equal(t, uint64(25), v.texture.Width())
	require.Equal(t, mtl.TextureUsageShaderRead|mtl.TextureUsageShaderWrite, v.texture.Usage())

	plain := c.device.NewBuffer(BufferDesc{Size: 16})
	defer plain.Destroy()
	require.Panics(t, func() { plain.NewFormattedView(FORMAT_R32_FLOAT) })
	small := c.device.NewBuffer(BufferDesc{Size: 8, Flags: BufferFlagFormatted})
	defer small.Destroy()
	require.Panics(t, func() { small.NewFormattedView(FORMAT_R32G32B32A32_FLOAT) })
	require.Panics(t, func() { plain.Map() })
}

func TestBufferMap(t *testing.T) {
	c := newTestContext(t)
	b := c.device.NewBuffer(BufferDesc{Size: 16, Heap: HeapTypeUpload})
	defer b.Destroy()

	b.HostWrite(4, []byte{1, 2, 3, 4})
	b.Unmap(BufferRange{})
	require.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, b.Map()[:8])
	require.Panics(t, func() { b.DeviceAddress() })
	require.Panics(t, func() { c.device.NewBuffer(BufferDesc{}) })
}
