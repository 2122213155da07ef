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

package managed

import (
	"testing"

	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr"
	"goarrg.com/rhi/mxr/mtl/headless"
)

func newTestDevice(t *testing.T) (*mxr.Device, *headless.Device, *mxr.CommandQueue) {
	t.Helper()
	driver := headless.NewDriver()
	d, err := mxr.NewDevice(driver, mxr.Config{})
	require.NoError(t, err)
	q := d.NewCommandQueue()
	t.Cleanup(func() {
		q.Destroy()
		d.Destroy()
	})
	return d, driver.DefaultDevice().(*headless.Device), q
}

func bindlessLayout(rangeType mxr.DescriptorRangeType) mxr.DescriptorSetLayoutDesc {
	return mxr.DescriptorSetLayoutDesc{
		Ranges: []mxr.DescriptorRange{
			{Binding: 0, Count: 1, Type: mxr.DescriptorRangeTypeConstantBuffer},
			{Binding: 1, Count: 0, Type: rangeType},
		},
		LastRangeIsBoundless: true,
	}
}

func newBindlessSet(t *testing.T, d *mxr.Device, rangeType mxr.DescriptorRangeType, size uint32) *mxr.DescriptorSet {
	t.Helper()
	set := d.NewDescriptorSet(mxr.DescriptorSetDesc{
		Layout:             bindlessLayout(rangeType),
		BoundlessRangeSize: size,
	})
	t.Cleanup(set.Destroy)
	return set
}

func TestDescriptorArrayTexture(t *testing.T) {
	d, _, _ := newTestDevice(t)
	set := newBindlessSet(t, d, mxr.DescriptorRangeTypeTexture, 2)
	array := NewDescriptorArrayTexture(set, 1)

	textures := make([]*mxr.Texture, 3)
	for i := range textures {
		textures[i] = d.NewTexture(mxr.TextureDesc{Dimension: mxr.TextureDimension2D, Format: mxr.FORMAT_R8G8B8A8_UNORM, Width: 4, Height: 4})
		defer textures[i].Destroy()
	}

	require.Equal(t, uint32(0), array.Push(mxr.DescriptorTextureInfo{Texture: textures[0]}))
	require.Equal(t, uint32(1), array.Push(mxr.DescriptorTextureInfo{Texture: textures[1]}))
	require.Equal(t, uint32(0), array.Push(mxr.DescriptorTextureInfo{Texture: textures[0]}))
	require.Equal(t, 2, array.Len())
	require.Panics(t, func() { array.Push(mxr.DescriptorTextureInfo{Texture: textures[2]}) })

	array.Pop(nil, mxr.DescriptorTextureInfo{Texture: textures[0]})
	require.Equal(t, 1, array.Len())
	require.Equal(t, uint32(0), array.Push(mxr.DescriptorTextureInfo{Texture: textures[2]}))

	require.Panics(t, func() { NewDescriptorArrayTexture(set, 2) })
}

func TestDescriptorArrayDeferredReuse(t *testing.T) {
	d, native, q := newTestDevice(t)
	set := newBindlessSet(t, d, mxr.DescriptorRangeTypeSampler, 2)
	array := NewDescriptorArraySampler(set, 1)
	fence := d.NewCommandFence()
	defer fence.Destroy()

	samplers := make([]*mxr.Sampler, 3)
	for i := range samplers {
		samplers[i] = d.NewSampler(mxr.SamplerDesc{})
		defer samplers[i].Destroy()
	}
	require.Equal(t, uint32(0), array.Push(samplers[0]))
	require.Equal(t, uint32(1), array.Push(samplers[1]))

	cl := q.NewCommandList()
	defer cl.Destroy()
	native.HoldCompletion(true)
	cl.Begin()
	cl.End()
	q.ExecuteCommandLists([]*mxr.CommandList{cl}, nil, nil, fence)

	array.Pop(fence, samplers[0])
	require.Panics(t, func() { array.Push(samplers[2]) })

	native.HoldCompletion(false)
	require.True(t, fence.Completed())
	require.Equal(t, uint32(0), array.Push(samplers[2]))
	require.Panics(t, func() { array.Push(samplers[0]) })
}

func TestDescriptorArrayBuffer(t *testing.T) {
	d, _, _ := newTestDevice(t)
	set := newBindlessSet(t, d, mxr.DescriptorRangeTypeStructuredBuffer, 4)
	array := NewDescriptorArrayBuffer(set, 1)

	buffer := d.NewBuffer(mxr.BufferDesc{Size: 256, Flags: mxr.BufferFlagStorage})
	defer buffer.Destroy()

	whole := mxr.DescriptorBufferInfo{Buffer: buffer}
	half := mxr.DescriptorBufferInfo{Buffer: buffer, Size: 128}
	require.Equal(t, uint32(0), array.Push(whole))
	require.Equal(t, uint32(1), array.Push(half))
	require.Equal(t, uint32(1), array.Push(half))
	require.Equal(t, uint32(2), set.DescriptorIndex(1, 1))

	array.Pop(nil, whole)
	array.Pop(nil, whole)
	require.Equal(t, 1, array.Len())
}

// dispatchWithSet records a dispatch reading set and returns the resources its
// encoder declared used.
func dispatchWithSet(t *testing.T, d *mxr.Device, native *headless.Device, q *mxr.CommandQueue, set *mxr.DescriptorSet) []headless.Call {
	t.Helper()
	layout := d.NewPipelineLayout(mxr.PipelineLayoutDesc{DescriptorSetLayouts: []mxr.DescriptorSetLayoutDesc{set.Layout()}})
	defer layout.Destroy()
	shader, err := d.NewShader(mxr.ShaderDesc{
		Source:     "kernel void csMain(uint id [[thread_position_in_grid]]) {}",
		EntryPoint: "csMain",
	})
	require.NoError(t, err)
	defer shader.Destroy()
	pipeline := d.NewComputePipeline(mxr.ComputePipelineDesc{
		Layout:          layout,
		Shader:          shader,
		ThreadGroupSize: gmath.Extent3u32{X: 1, Y: 1, Z: 1},
	})
	defer pipeline.Destroy()

	cl := q.NewCommandList()
	defer cl.Destroy()
	cl.Begin()
	cl.SetComputePipelineLayout(layout)
	cl.SetComputeDescriptorSet(set, 0)
	cl.SetPipeline(pipeline)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.End()
	q.ExecuteCommandLists([]*mxr.CommandList{cl}, nil, nil, nil)

	cbs := native.CommandBuffers()
	encoders := cbs[len(cbs)-1].EncodersOfKind(headless.EncoderKindCompute)
	require.Len(t, encoders, 1)
	return encoders[0].Calls(headless.OpUseResource)
}

func TestDescriptorArrayPopClearsElement(t *testing.T) {
	d, native, q := newTestDevice(t)
	set := newBindlessSet(t, d, mxr.DescriptorRangeTypeTexture, 4)
	array := NewDescriptorArrayTexture(set, 1)
	fence := d.NewCommandFence()
	defer fence.Destroy()

	textures := make([]*mxr.Texture, 4)
	for i := range textures {
		textures[i] = d.NewTexture(mxr.TextureDesc{Dimension: mxr.TextureDimension2D, Format: mxr.FORMAT_R8G8B8A8_UNORM, Width: 4, Height: 4})
	}
	defer textures[2].Destroy()
	defer textures[3].Destroy()
	for _, tex := range textures[:3] {
		array.Push(mxr.DescriptorTextureInfo{Texture: tex})
	}
	require.Len(t, dispatchWithSet(t, d, native, q, set), 3)

	// Destroyed textures are never declared used once popped.
	array.Pop(nil, mxr.DescriptorTextureInfo{Texture: textures[0]})
	textures[0].Destroy()
	require.Len(t, dispatchWithSet(t, d, native, q, set), 2)

	cl := q.NewCommandList()
	defer cl.Destroy()
	native.HoldCompletion(true)
	cl.Begin()
	cl.End()
	q.ExecuteCommandLists([]*mxr.CommandList{cl}, nil, nil, fence)

	array.Pop(fence, mxr.DescriptorTextureInfo{Texture: textures[1]})
	textures[1].Destroy()
	require.Len(t, dispatchWithSet(t, d, native, q, set), 2)

	native.HoldCompletion(false)
	require.True(t, fence.Completed())
	require.Equal(t, uint32(1), array.Push(mxr.DescriptorTextureInfo{Texture: textures[3]}))
	require.Len(t, dispatchWithSet(t, d, native, q, set), 2)
	require.Equal(t, 2, array.Len())
}
