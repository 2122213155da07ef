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
	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr/mtl"
	"goarrg.com/rhi/mxr/mtl/headless"
)

func TestDescriptorSetLayoutGaps(t *testing.T) {
	l := newDescriptorSetLayout(16384, DescriptorSetDesc{Layout: DescriptorSetLayoutDesc{
		Ranges: []DescriptorRange{
			{Binding: 0, Count: 1, Type: DescriptorRangeTypeTexture},
			{Binding: 2, Count: 1, Type: DescriptorRangeTypeConstantBuffer},
			{Binding: 5, Count: 1, Type: DescriptorRangeTypeSampler},
		},
	}})

	require.Len(t, l.arguments, 6)
	require.Equal(t, uint32(3), l.descriptorCount())
	for i, a := range l.arguments {
		require.Equal(t, uint64(i), a.Index)
	}
	require.Equal(t, mtl.DataTypeTexture, l.arguments[0].DataType)
	require.Equal(t, mtl.DataTypePointer, l.arguments[1].DataType)
	require.Equal(t, mtl.DataTypePointer, l.arguments[2].DataType)
	require.Equal(t, mtl.DataTypeSampler, l.arguments[5].DataType)
	require.Nil(t, l.binding(1))
	require.Equal(t, uint32(5), l.binding(5).binding)
}

func TestDescriptorSetLayoutBoundless(t *testing.T) {
	const maxTextureSize = 16384
	l := newDescriptorSetLayout(maxTextureSize, DescriptorSetDesc{
		Layout: DescriptorSetLayoutDesc{
			Ranges: []DescriptorRange{
				{Binding: 0, Count: 1, Type: DescriptorRangeTypeTexture},
				{Binding: 1, Count: 0, Type: DescriptorRangeTypeSampler},
			},
			LastRangeIsBoundless: true,
		},
		BoundlessRangeSize: 100,
	})

	require.Len(t, l.arguments, 2)
	require.Equal(t, uint64(maxTextureSize), l.arguments[1].ArrayLength)
	require.Equal(t, uint32(101), l.descriptorCount())
	require.Equal(t, uint32(100), l.binding(1).count)

	// Arrays occupy one argument index per element, the gap before the
	// boundless range is padded like any other.
	padded := newDescriptorSetLayout(maxTextureSize, DescriptorSetDesc{
		Layout: DescriptorSetLayoutDesc{
			Ranges: []DescriptorRange{
				{Binding: 0, Count: 2, Type: DescriptorRangeTypeTexture},
				{Binding: 5, Count: 0, Type: DescriptorRangeTypeSampler},
			},
			LastRangeIsBoundless: true,
		},
		BoundlessRangeSize: 3,
	})
	require.Len(t, padded.arguments, 5)
	require.Equal(t, uint64(2), padded.arguments[0].ArrayLength)
	for i, a := range padded.arguments[1:4] {
		require.Equal(t, uint64(i+2), a.Index)
		require.Equal(t, mtl.DataTypePointer, a.DataType)
	}
	require.Equal(t, uint64(5), padded.arguments[4].Index)
	require.Equal(t, mtl.DataTypeSampler, padded.arguments[4].DataType)
	require.Equal(t, uint32(5), padded.descriptorCount())

	require.Panics(t, func() {
		newDescriptorSetLayout(maxTextureSize, DescriptorSetDesc{
			Layout: DescriptorSetLayoutDesc{
				Ranges: []DescriptorRange{
					{Binding: 4, Count: 1, Type: DescriptorRangeTypeTexture},
					{Binding: 1, Count: 0, Type: DescriptorRangeTypeTexture},
				},
				LastRangeIsBoundless: true,
			},
		})
	})
}

func TestDescriptorSetLayoutValidation(t *testing.T) {
	c := newTestContext(t)
	sampler := c.device.NewSampler(SamplerDesc{})
	defer sampler.Destroy()

	require.Panics(t, func() {
		newDescriptorSetLayout(16384, DescriptorSetDesc{Layout: DescriptorSetLayoutDesc{
			Ranges: []DescriptorRange{{Binding: 0, Count: 1, Type: DescriptorRangeTypeTexture, ImmutableSamplers: []*Sampler{sampler}}},
		}})
	})
	require.Panics(t, func() {
		newDescriptorSetLayout(16384, DescriptorSetDesc{Layout: DescriptorSetLayoutDesc{
			Ranges: []DescriptorRange{{Binding: 0, Count: 2, Type: DescriptorRangeTypeSampler, ImmutableSamplers: []*Sampler{sampler}}},
		}})
	})
	require.Panics(t, func() {
		newDescriptorSetLayout(16384, DescriptorSetDesc{Layout: DescriptorSetLayoutDesc{
			Ranges: []DescriptorRange{{Binding: MaxBindingNumber, Count: 1, Type: DescriptorRangeTypeTexture}},
		}})
	})
	require.Panics(t, func() {
		newDescriptorSetLayout(16384, DescriptorSetDesc{Layout: DescriptorSetLayoutDesc{
			Ranges: []DescriptorRange{
				{Binding: 0, Count: 4, Type: DescriptorRangeTypeTexture},
				{Binding: 2, Count: 1, Type: DescriptorRangeTypeTexture},
			},
		}})
	})
}

func TestDescriptorSetBinds(t *testing.T) {
	c := newTestContext(t)
	desc := DescriptorSetDesc{
		Layout: DescriptorSetLayoutDesc{
			Ranges: []DescriptorRange{
				{Binding: 0, Count: 2, Type: DescriptorRangeTypeStructuredBuffer},
				{Binding: 3, Count: 1, Type: DescriptorRangeTypeTexture},
				{Binding: 4, Count: 0, Type: DescriptorRangeTypeSampler},
			},
			LastRangeIsBoundless: true,
		},
		BoundlessRangeSize: 4,
	}
	set := c.device.NewDescriptorSet(desc)
	defer set.Destroy()
	other := c.device.NewDescriptorSet(desc)
	defer other.Destroy()
	require.Same(t, set.layout, other.layout)

	require.Equal(t, uint32(7), set.DescriptorCount())
	require.Equal(t, uint32(2), set.MaxDescriptorCount(0))
	require.Equal(t, uint32(4), set.MaxDescriptorCount(4))

	buffer := c.device.NewBuffer(BufferDesc{Size: 256, Heap: HeapTypeUpload, Flags: BufferFlagStorage})
	defer buffer.Destroy()
	texture := c.device.NewTexture(TextureDesc{Dimension: TextureDimension2D, Format: FORMAT_R8G8B8A8_UNORM, Width: 4, Height: 4})
	defer texture.Destroy()
	sampler := c.device.NewSampler(SamplerDesc{})
	defer sampler.Destroy()

	encoder := set.encoder.(*headless.ArgumentEncoder)

	set.Bind(1, DescriptorBufferInfo{Buffer: buffer, StructuredView: &BufferStructuredView{FirstElement: 4, StructureByteStride: 16}})
	require.Equal(t, headless.BufferArgument{Buffer: buffer.mtl.(*headless.Buffer), Offset: 64}, encoder.Argument(1))
	require.Len(t, set.resources, int(set.DescriptorCount()))

	set.Bind(2, DescriptorTextureInfo{Texture: texture})
	require.Equal(t, texture.mtl, encoder.Argument(3))

	set.Bind(6, DescriptorSamplerInfo{Sampler: sampler})
	require.Equal(t, sampler.mtl, encoder.Argument(7))
	require.Nil(t, set.resources[6].resource)
	require.Len(t, set.resources, int(set.DescriptorCount()))

	used := map[mtl.Resource]mtl.ResourceUsage{}
	set.useResources(func(r mtl.Resource, u mtl.ResourceUsage) { used[r] = u })
	require.Len(t, used, 2)
	require.Equal(t, mtl.ResourceUsageRead, used[texture.mtl])

	set.SetTexture(2, nil, nil)
	require.Nil(t, encoder.Argument(3))
	require.Nil(t, set.resources[2].resource)
	require.Len(t, set.resources, int(set.DescriptorCount()))

	require.Panics(t, func() { set.SetTexture(0, texture, nil) })
	require.Panics(t, func() { set.SetSampler(7, sampler) })
}

func TestDescriptorSetRetainsResources(t *testing.T) {
	c := newTestContext(t)
	layoutDesc := DescriptorSetLayoutDesc{
		Ranges: []DescriptorRange{
			{Binding: 0, Count: 1, Type: DescriptorRangeTypeTexture},
			{Binding: 1, Count: 1, Type: DescriptorRangeTypeStructuredBuffer},
		},
	}
	set := c.device.NewDescriptorSet(DescriptorSetDesc{Layout: layoutDesc})
	layout := c.layout(t, PipelineLayoutDesc{DescriptorSetLayouts: []DescriptorSetLayoutDesc{layoutDesc}})
	pipeline := c.computePipeline(t, layout)

	replaced := c.device.NewTexture(TextureDesc{Dimension: TextureDimension2D, Format: FORMAT_R8G8B8A8_UNORM, Width: 4, Height: 4})
	texture := c.device.NewTexture(TextureDesc{Dimension: TextureDimension2D, Format: FORMAT_R8G8B8A8_UNORM, Width: 4, Height: 4})
	buffer := c.device.NewBuffer(BufferDesc{Size: 64, Flags: BufferFlagStorage})
	nativeReplaced := replaced.mtl.(*headless.Texture)
	nativeTexture := texture.mtl.(*headless.Texture)
	nativeBuffer := buffer.mtl.(*headless.Buffer)

	set.SetTexture(0, replaced, nil)
	set.SetTexture(0, texture, nil)
	set.SetBuffer(1, buffer, 64, nil, nil)
	replaced.Destroy()
	require.True(t, nativeReplaced.Released())

	texture.Destroy()
	buffer.Destroy()
	require.False(t, nativeTexture.Released())
	require.False(t, nativeBuffer.Released())

	cl := c.commandList(t)
	cl.Begin()
	cl.SetComputePipelineLayout(layout)
	cl.SetComputeDescriptorSet(set, 0)
	cl.SetPipeline(pipeline)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.End()
	cb := c.submit(t, cl)

	uses := cb.EncodersOfKind(headless.EncoderKindCompute)[0].Calls(headless.OpUseResource)
	require.Len(t, uses, 2)
	require.Same(t, nativeTexture, uses[0].Arg(0))
	require.Same(t, nativeBuffer, uses[1].Arg(0))

	set.SetTexture(0, nil, nil)
	require.True(t, nativeTexture.Released())
	set.Destroy()
	require.True(t, nativeBuffer.Released())
}
