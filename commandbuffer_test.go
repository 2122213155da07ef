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
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
	"goarrg.com/rhi/mxr/mtl/headless"
)

func kinds(encoders []*headless.Encoder) []headless.EncoderKind {
	ret := make([]headless.EncoderKind, len(encoders))
	for i, e := range encoders {
		ret[i] = e.Kind
	}
	return ret
}

func TestCommandListClearAndDraw(t *testing.T) {
	c := newTestContext(t)
	target := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 64, 64)
	fb := c.framebuffer(t, target, nil)
	pipeline := c.graphicsPipeline(t, c.layout(t, PipelineLayoutDesc{}), FORMAT_R8G8B8A8_UNORM)

	cl := c.commandList(t)
	cl.Begin()
	cl.SetFramebuffer(fb)
	cl.ClearColor(0, ClearColorValue{R: 0.25, G: 0.5, B: 0.75, A: 1}, nil)
	cl.SetPipeline(pipeline)
	cl.DrawInstanced(3, 1, 0, 0)
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.EncodersOfKind(headless.EncoderKindRender)
	require.Len(t, encoders, 1)
	require.Len(t, cb.Encoders(), 1)

	enc := encoders[0]
	require.True(t, enc.Ended)
	require.Equal(t, "Graphics Render Encoder", enc.Label)
	require.Len(t, enc.Pass.ColorAttachments, 1)
	require.Equal(t, mtl.LoadActionClear, enc.Pass.ColorAttachments[0].LoadAction)
	require.Equal(t, mtl.ClearColor{Red: 0.25, Green: 0.5, Blue: 0.75, Alpha: 1}, enc.Pass.ColorAttachments[0].ClearColor)

	draws := enc.Calls(headless.OpDrawPrimitives)
	require.Len(t, draws, 1)
	require.Equal(t, mtl.PrimitiveTypeTriangle, draws[0].Arg(0))
	require.Equal(t, uint64(3), draws[0].Arg(2))
	require.Equal(t, uint64(1), draws[0].Arg(3))
}

func TestCommandListPendingClearsFlushedOnEnd(t *testing.T) {
	c := newTestContext(t)
	color := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 32, 32)
	depth := c.renderTarget(t, FORMAT_D32_FLOAT, 32, 32)
	fb := c.framebuffer(t, color, depth)

	cl := c.commandList(t)
	cl.Begin()
	cl.SetFramebuffer(fb)
	cl.ClearDepthStencil(true, true, 1, 7, nil)
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.EncodersOfKind(headless.EncoderKindRender)
	require.Len(t, encoders, 1)
	pass := encoders[0].Pass
	require.Equal(t, mtl.LoadActionLoad, pass.ColorAttachments[0].LoadAction)
	require.NotNil(t, pass.DepthAttachment)
	require.Equal(t, mtl.LoadActionClear, pass.DepthAttachment.LoadAction)
	require.Equal(t, float64(1), pass.DepthAttachment.ClearDepth)
	require.Nil(t, pass.StencilAttachment)
	require.Zero(t, encoders[0].Count(headless.OpDrawPrimitives))
}

func TestCommandListRepeatedDrawsBindOnce(t *testing.T) {
	c := newTestContext(t)
	target := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 64, 64)
	fb := c.framebuffer(t, target, nil)
	layout := c.layout(t, PipelineLayoutDesc{
		PushConstantRanges: []PushConstantRange{{Binding: 0, Size: 16, Stages: ShaderStageGraphics}},
	})
	pipeline := c.graphicsPipeline(t, layout, FORMAT_R8G8B8A8_UNORM)
	vertices := c.device.NewBuffer(BufferDesc{Size: 256, Heap: HeapTypeUpload, Flags: BufferFlagVertex})
	defer vertices.Destroy()

	cl := c.commandList(t)
	cl.Begin()
	cl.SetFramebuffer(fb)
	cl.SetPipeline(pipeline)
	cl.SetGraphicsPipelineLayout(layout)
	cl.SetGraphicsPushConstants(0, util.BytesOf([]float32{1, 2, 3, 4}), 0, 0)
	cl.SetVertexBuffers(0, []*Buffer{vertices}, nil)
	cl.SetViewports([]Viewport{{Width: 64, Height: 64, MaxDepth: 1}})
	cl.SetScissors([]gmath.Recti32{{W: 64, H: 64}})
	for range 3 {
		cl.SetPipeline(pipeline)
		cl.SetViewports([]Viewport{{Width: 64, Height: 64, MaxDepth: 1}})
		cl.SetGraphicsPushConstants(0, util.BytesOf([]float32{1, 2, 3, 4}), 0, 0)
		cl.DrawInstanced(3, 1, 0, 0)
	}
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.EncodersOfKind(headless.EncoderKindRender)
	require.Len(t, encoders, 1)
	enc := encoders[0]
	require.Equal(t, 3, enc.Count(headless.OpDrawPrimitives))
	require.Equal(t, 1, enc.Count(headless.OpSetRenderPipelineState))
	require.Equal(t, 1, enc.Count(headless.OpSetViewports))
	require.Equal(t, 1, enc.Count(headless.OpSetScissorRects))
	require.Equal(t, 1, enc.Count(headless.OpSetFragmentBytes))

	vertexBuffers := enc.Calls(headless.OpSetVertexBuffer)
	require.Len(t, vertexBuffers, 1)
	require.Equal(t, uint64(vertexBufferSlotBase), vertexBuffers[0].Arg(2))

	pushConstants := enc.Calls(headless.OpSetVertexBytes)
	require.Len(t, pushConstants, 1)
	require.Equal(t, uint64(pushConstantSlotBase), pushConstants[0].Arg(1))
}

func TestCommandListCopyClosesRenderEncoder(t *testing.T) {
	c := newTestContext(t)
	target := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 64, 64)
	fb := c.framebuffer(t, target, nil)
	pipeline := c.graphicsPipeline(t, c.layout(t, PipelineLayoutDesc{}), FORMAT_R8G8B8A8_UNORM)
	src := c.device.NewBuffer(BufferDesc{Size: 128, Heap: HeapTypeUpload})
	defer src.Destroy()
	dst := c.device.NewBuffer(BufferDesc{Size: 128, Heap: HeapTypeDefault})
	defer dst.Destroy()

	cl := c.commandList(t)
	cl.Begin()
	cl.SetFramebuffer(fb)
	cl.SetPipeline(pipeline)
	cl.DrawInstanced(3, 1, 0, 0)
	cl.CopyBuffer(dst, src)
	cl.CopyBufferRegion(BufferReference{Buffer: dst, Offset: 64}, BufferReference{Buffer: src}, 32)
	cl.End()
	cb := c.submit(t, cl)

	require.Equal(t, []headless.EncoderKind{headless.EncoderKindRender, headless.EncoderKindBlit}, kinds(cb.Encoders()))
	blit := cb.EncodersOfKind(headless.EncoderKindBlit)[0]
	copies := blit.Calls(headless.OpCopyFromBuffer)
	require.Len(t, copies, 2)
	require.Equal(t, uint64(128), copies[0].Arg(4))
	require.Equal(t, uint64(64), copies[1].Arg(3))
	require.Equal(t, uint64(32), copies[1].Arg(4))

	cl.Begin()
	require.Panics(t, func() {
		cl.CopyBufferRegion(BufferReference{Buffer: dst, Offset: 120}, BufferReference{Buffer: src}, 32)
	})
	cl.End()
	c.submit(t, cl)
}

func TestCommandListPartialClearRestoresState(t *testing.T) {
	c := newTestContext(t)
	target := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 64, 64)
	fb := c.framebuffer(t, target, nil)
	pipeline := c.graphicsPipeline(t, c.layout(t, PipelineLayoutDesc{}), FORMAT_R8G8B8A8_UNORM)

	cl := c.commandList(t)
	cl.Begin()
	cl.SetFramebuffer(fb)
	cl.SetPipeline(pipeline)
	cl.SetViewports([]Viewport{{X: 8, Y: 8, Width: 32, Height: 32, MaxDepth: 1}})
	cl.SetScissors([]gmath.Recti32{{X: 8, Y: 8, W: 32, H: 32}})
	cl.SetDepthBias(1, 0, 1)
	cl.DrawInstanced(3, 1, 0, 0)

	before := cl.graphics.cache.clone()
	require.Same(t, pipeline, before.pipeline)
	cl.ClearColor(0, ClearColorValue{A: 1}, []gmath.Recti32{{X: 0, Y: 0, W: 16, H: 16}, {X: 16, Y: 16, W: 16, H: 16}})
	require.Equal(t, before, cl.graphics.cache)

	cl.DrawInstanced(3, 1, 0, 0)
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.EncodersOfKind(headless.EncoderKindRender)
	require.Len(t, encoders, 1)
	enc := encoders[0]
	require.Equal(t, 3, enc.Count(headless.OpSetRenderPipelineState))
	require.Equal(t, 1, enc.Count(headless.OpPushDebugGroup))

	draws := enc.Calls(headless.OpDrawPrimitives)
	require.Len(t, draws, 3)
	require.Equal(t, uint64(12), draws[1].Arg(2))
	require.Equal(t, uint64(1), draws[1].Arg(3))
	require.Len(t, enc.Calls(headless.OpSetFragmentBytes)[0].Arg(0), 2*16)

	scissors := enc.Calls(headless.OpSetScissorRects)
	require.Len(t, scissors, 3)
	require.Equal(t, []mtl.ScissorRect{{X: 8, Y: 8, Width: 32, Height: 32}}, scissors[2].Arg(0))
}

func TestClearVertices(t *testing.T) {
	v := clearVertices([]gmath.Recti32{{X: 0, Y: 0, W: 50, H: 50}}, 100, 100)
	require.Equal(t, [][2]float32{
		{-1, 1}, {-1, 0}, {0, 0},
		{0, 0}, {0, 1}, {-1, 1},
	}, v)

	// The clear shader picks the rect of a vertex from its index.
	require.Len(t, clearVertices(make([]gmath.Recti32, 3), 8, 8), 3*6)
	require.Contains(t, clearShaderSource, "out.rect_index = vid / 6;")
	require.NotContains(t, clearShaderSource, "instance_id")
}

func TestCommandListDebugGroups(t *testing.T) {
	c := newTestContext(t)
	src := c.device.NewBuffer(BufferDesc{Size: 64, Heap: HeapTypeUpload})
	defer src.Destroy()
	dst := c.device.NewBuffer(BufferDesc{Size: 64})
	defer dst.Destroy()
	pipeline := c.computePipeline(t, c.layout(t, PipelineLayoutDesc{}))

	cl := c.commandList(t)
	cl.Begin()
	cl.BeginDebugGroup("Frame")
	cl.CopyBuffer(dst, src)
	cl.SetPipeline(pipeline)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.EndDebugGroup()
	cl.End()
	cb := c.submit(t, cl)

	require.Equal(t, []headless.EncoderKind{headless.EncoderKindBlit, headless.EncoderKindCompute}, kinds(cb.Encoders()))
	for _, enc := range cb.Encoders() {
		groups := enc.Calls(headless.OpPushDebugGroup)
		require.NotEmpty(t, groups)
		require.Equal(t, "Frame", groups[0].Arg(0))
		require.Equal(t, len(groups), enc.Count(headless.OpPopDebugGroup))
	}

	unbalanced := c.queue.NewCommandList()
	unbalanced.Begin()
	unbalanced.BeginDebugGroup("Open")
	require.Panics(t, unbalanced.End)
}

func TestCommandListStateMachine(t *testing.T) {
	c := newTestContext(t)
	cl := c.commandList(t)

	require.Panics(t, cl.End)
	require.Panics(t, func() { cl.DrawInstanced(3, 1, 0, 0) })

	cl.Begin()
	require.Panics(t, cl.Begin)
	require.Panics(t, func() { cl.DrawInstanced(3, 1, 0, 0) })
	cl.End()
	require.Panics(t, cl.Begin)
	c.submit(t, cl)

	cl.Begin()
	cl.End()
	c.submit(t, cl)
}

func TestCommandListBarriers(t *testing.T) {
	c := newTestContext(t)
	src := c.device.NewBuffer(BufferDesc{Size: 64, Heap: HeapTypeUpload})
	defer src.Destroy()
	dst := c.device.NewBuffer(BufferDesc{Size: 64, Flags: BufferFlagUnorderedAccess})
	defer dst.Destroy()
	pipeline := c.computePipeline(t, c.layout(t, PipelineLayoutDesc{}))

	cl := c.commandList(t)
	cl.Begin()
	cl.CopyBuffer(dst, src)
	cl.Barriers(PipelineStageCompute, []*Buffer{dst}, nil)
	cl.SetPipeline(pipeline)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.Barriers(PipelineStageCopy, []*Buffer{dst}, nil)
	cl.CopyBuffer(src, dst)
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.Encoders()
	require.Equal(t, []headless.EncoderKind{headless.EncoderKindBlit, headless.EncoderKindCompute, headless.EncoderKindBlit}, kinds(encoders))

	firstCopy := encoders[0].Calls(headless.OpUpdateFence)
	require.Len(t, firstCopy, 1)
	computeWaits := encoders[1].Calls(headless.OpWaitForFence)
	require.Len(t, computeWaits, 1)
	require.Same(t, firstCopy[0].Arg(0), computeWaits[0].Arg(0))

	computeUpdates := encoders[1].Calls(headless.OpUpdateFence)
	require.Len(t, computeUpdates, 1)
	copyWaits := encoders[2].Calls(headless.OpWaitForFence)
	require.NotEmpty(t, copyWaits)
	found := false
	for _, w := range copyWaits {
		found = found || w.Arg(0) == computeUpdates[0].Arg(0)
	}
	require.True(t, found)
	require.Equal(t, PipelineStageCopy, dst.barrierStages)
}

func TestCommandListDispatch(t *testing.T) {
	c := newTestContext(t)
	layout := c.layout(t, PipelineLayoutDesc{
		PushConstantRanges: []PushConstantRange{{Binding: 1, Size: 8, Stages: ShaderStageCompute}},
	})
	pipeline := c.computePipeline(t, layout)

	cl := c.commandList(t)
	cl.Begin()
	cl.SetComputePipelineLayout(layout)
	cl.SetPipeline(pipeline)
	cl.SetComputePushConstants(0, util.BytesOf([]uint32{1, 2}), 0, 0)
	cl.Dispatch(gmath.Extent3u32{X: 4, Y: 4, Z: 1})
	cl.Dispatch(gmath.Extent3u32{X: 4, Y: 0, Z: 1})
	cl.Dispatch(gmath.Extent3u32{X: 2, Y: 1, Z: 1})
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.EncodersOfKind(headless.EncoderKindCompute)
	require.Len(t, encoders, 1)
	enc := encoders[0]
	require.Equal(t, "Compute Encoder", enc.Label)
	require.Equal(t, 1, enc.Count(headless.OpSetComputePipelineState))

	dispatches := enc.Calls(headless.OpDispatchThreadgroups)
	require.Len(t, dispatches, 2)
	require.Equal(t, mtl.Size{Width: 4, Height: 4, Depth: 1}, dispatches[0].Arg(0))
	require.Equal(t, mtl.Size{Width: 8, Height: 8, Depth: 1}, dispatches[0].Arg(1))

	bytes := enc.Calls(headless.OpSetBytes)
	require.Len(t, bytes, 1)
	require.Equal(t, uint64(pushConstantSlotBase+1), bytes[0].Arg(1))
	require.Len(t, bytes[0].Arg(0), 16)
}

func TestCommandListFailedPipelineSkipsWork(t *testing.T) {
	c := newTestContext(t)
	target := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 16, 16)
	fb := c.framebuffer(t, target, nil)
	layout := c.layout(t, PipelineLayoutDesc{})

	c.native.FailPipelineCreation(true)
	pipeline := c.device.NewGraphicsPipeline(GraphicsPipelineDesc{
		Layout:              layout,
		VertexShader:        c.shader(t, "vsMain"),
		RenderTargetFormats: []Format{FORMAT_R8G8B8A8_UNORM},
	})
	defer pipeline.Destroy()
	c.native.FailPipelineCreation(false)
	require.False(t, pipeline.IsValid())

	cl := c.commandList(t)
	cl.Begin()
	cl.SetFramebuffer(fb)
	cl.SetPipeline(pipeline)
	cl.DrawInstanced(3, 1, 0, 0)
	cl.End()
	cb := c.submit(t, cl)
	require.Empty(t, cb.Encoders())
}

func TestCommandListResolveTexture(t *testing.T) {
	c := newTestContext(t)
	src := c.device.NewTexture(TextureDesc{
		Dimension:   TextureDimension2D,
		Format:      FORMAT_R8G8B8A8_UNORM,
		Width:       32,
		Height:      32,
		SampleCount: 4,
		Flags:       TextureFlagRenderTarget,
	})
	defer src.Destroy()
	dst := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 32, 32)

	cl := c.commandList(t)
	cl.Begin()
	cl.ResolveTexture(dst, src)
	cl.ResolveTextureRegion(dst, 4, 4, src, &gmath.Recti32{X: 0, Y: 0, W: 20, H: 9})
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.Encoders()
	require.Equal(t, []headless.EncoderKind{headless.EncoderKindRender, headless.EncoderKindCompute}, kinds(encoders))
	pass := encoders[0].Pass
	require.Equal(t, mtl.StoreActionMultisampleResolve, pass.ColorAttachments[0].StoreAction)
	require.Equal(t, dst.mtl, pass.ColorAttachments[0].ResolveTexture)

	dispatches := encoders[1].Calls(headless.OpDispatchThreadgroups)
	require.Len(t, dispatches, 1)
	require.Equal(t, mtl.Size{Width: 3, Height: 2, Depth: 1}, dispatches[0].Arg(0))
	require.Equal(t, 2, encoders[1].Count(headless.OpSetTexture))
}

func TestCommandListBarriersFlushPendingClears(t *testing.T) {
	c := newTestContext(t)
	target := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 16, 16)
	fb := c.framebuffer(t, target, nil)
	pipeline := c.computePipeline(t, c.layout(t, PipelineLayoutDesc{}))

	cl := c.commandList(t)
	cl.Begin()
	cl.SetFramebuffer(fb)
	cl.SetPipeline(pipeline)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.ClearColor(0, ClearColorValue{G: 1, A: 1}, nil)
	cl.Barriers(PipelineStageCompute, nil, []*Texture{target})
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.Encoders()
	require.Equal(t, []headless.EncoderKind{headless.EncoderKindCompute, headless.EncoderKindRender, headless.EncoderKindCompute}, kinds(encoders))
	require.Equal(t, mtl.LoadActionClear, encoders[1].Pass.ColorAttachments[0].LoadAction)
	require.Equal(t, mtl.ClearColor{Green: 1, Alpha: 1}, encoders[1].Pass.ColorAttachments[0].ClearColor)

	// The clear is part of the barrier source, the next dispatch waits on it.
	updates := encoders[1].Calls(headless.OpUpdateFence)
	require.Len(t, updates, 1)
	waits := encoders[2].Calls(headless.OpWaitForFence)
	found := false
	for _, w := range waits {
		found = found || w.Arg(0) == updates[0].Arg(0)
	}
	require.True(t, found)
}

func textureSetLayout() DescriptorSetLayoutDesc {
	return DescriptorSetLayoutDesc{
		Ranges: []DescriptorRange{{Binding: 0, Count: 1, Type: DescriptorRangeTypeTexture}},
	}
}

func slotsOf(calls []headless.Call, slotArg int) []uint64 {
	ret := make([]uint64, len(calls))
	for i, c := range calls {
		ret[i] = c.Arg(slotArg).(uint64)
	}
	return ret
}

func usesOf(calls []headless.Call, r mtl.Resource) int {
	n := 0
	for _, c := range calls {
		if c.Arg(0) == any(r) {
			n++
		}
	}
	return n
}

func TestCommandListGraphicsDescriptorSets(t *testing.T) {
	c := newTestContext(t)
	target := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 16, 16)
	fb := c.framebuffer(t, target, nil)
	layout := c.layout(t, PipelineLayoutDesc{
		DescriptorSetLayouts: []DescriptorSetLayoutDesc{textureSetLayout(), textureSetLayout()},
	})
	other := c.layout(t, PipelineLayoutDesc{
		PushConstantRanges:   []PushConstantRange{{Binding: 0, Size: 16, Stages: ShaderStageGraphics}},
		DescriptorSetLayouts: []DescriptorSetLayoutDesc{textureSetLayout()},
	})
	pipeline := c.graphicsPipeline(t, layout, FORMAT_R8G8B8A8_UNORM)

	texture := c.device.NewTexture(TextureDesc{Dimension: TextureDimension2D, Format: FORMAT_R8G8B8A8_UNORM, Width: 4, Height: 4})
	defer texture.Destroy()
	a := c.device.NewDescriptorSet(DescriptorSetDesc{Layout: textureSetLayout()})
	defer a.Destroy()
	b := c.device.NewDescriptorSet(DescriptorSetDesc{Layout: textureSetLayout()})
	defer b.Destroy()
	a.SetTexture(0, texture, nil)
	b.SetTexture(0, texture, nil)

	cl := c.commandList(t)
	cl.Begin()
	require.Panics(t, func() { cl.SetGraphicsDescriptorSet(a, 0) })
	cl.SetFramebuffer(fb)
	cl.SetPipeline(pipeline)
	cl.SetGraphicsPipelineLayout(layout)
	require.Panics(t, func() { cl.SetGraphicsDescriptorSet(a, 2) })
	cl.SetGraphicsDescriptorSet(a, 0)
	cl.SetGraphicsDescriptorSet(b, 1)
	cl.DrawInstanced(3, 1, 0, 0)
	cl.SetGraphicsDescriptorSet(a, 0)
	cl.DrawInstanced(3, 1, 0, 0)
	cl.SetGraphicsDescriptorSet(a, 1)
	cl.DrawInstanced(3, 1, 0, 0)

	cl.SetGraphicsPipelineLayout(other)
	require.Nil(t, cl.graphics.sets[0])
	require.Nil(t, cl.graphics.sets[1])
	require.Panics(t, func() { cl.SetGraphicsDescriptorSet(b, 1) })
	cl.SetGraphicsDescriptorSet(b, 0)
	cl.SetGraphicsPushConstants(0, util.BytesOf([]float32{1, 2, 3, 4}), 0, 0)
	cl.DrawInstanced(3, 1, 0, 0)
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.EncodersOfKind(headless.EncoderKindRender)
	require.Len(t, encoders, 1)
	enc := encoders[0]

	binds := enc.Calls(headless.OpSetFragmentBuffer)
	require.Equal(t, []uint64{
		descriptorSetSlotBase, descriptorSetSlotBase + 1,
		descriptorSetSlotBase + 1,
		descriptorSetSlotBase,
	}, slotsOf(binds, 2))
	require.Equal(t, a.argumentBuffer, binds[0].Arg(0))
	require.Equal(t, b.argumentBuffer, binds[1].Arg(0))
	require.Equal(t, a.argumentBuffer, binds[2].Arg(0))
	require.Equal(t, b.argumentBuffer, binds[3].Arg(0))
	require.Len(t, enc.Calls(headless.OpSetVertexBytes), 1)

	uses := enc.Calls(headless.OpUseResource)
	require.Equal(t, 1, usesOf(uses, texture.mtl))
	for _, u := range uses {
		if u.Arg(0) == any(texture.mtl) {
			require.Equal(t, mtl.ResourceUsageRead, u.Arg(1))
		}
	}
}

func TestCommandListComputeDescriptorSets(t *testing.T) {
	c := newTestContext(t)
	rwLayout := DescriptorSetLayoutDesc{
		Ranges: []DescriptorRange{{Binding: 0, Count: 1, Type: DescriptorRangeTypeRWTexture}},
	}
	layout := c.layout(t, PipelineLayoutDesc{
		DescriptorSetLayouts: []DescriptorSetLayoutDesc{textureSetLayout(), rwLayout},
	})
	other := c.layout(t, PipelineLayoutDesc{
		DescriptorSetLayouts: []DescriptorSetLayoutDesc{textureSetLayout(), rwLayout},
		PushConstantRanges:   []PushConstantRange{{Binding: 0, Size: 8, Stages: ShaderStageCompute}},
	})
	pipeline := c.computePipeline(t, layout)

	texture := c.device.NewTexture(TextureDesc{
		Dimension: TextureDimension2D, Format: FORMAT_R8G8B8A8_UNORM, Width: 4, Height: 4,
		Flags: TextureFlagUnorderedAccess,
	})
	defer texture.Destroy()
	read := c.device.NewDescriptorSet(DescriptorSetDesc{Layout: textureSetLayout()})
	defer read.Destroy()
	write := c.device.NewDescriptorSet(DescriptorSetDesc{Layout: rwLayout})
	defer write.Destroy()
	read.SetTexture(0, texture, nil)
	write.SetTexture(0, texture, nil)

	cl := c.commandList(t)
	cl.Begin()
	cl.SetPipeline(pipeline)
	cl.SetComputePipelineLayout(layout)
	cl.SetComputeDescriptorSet(read, 0)
	cl.SetComputeDescriptorSet(write, 1)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.SetComputeDescriptorSet(write, 1)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.SetComputeDescriptorSet(nil, 1)
	cl.SetComputeDescriptorSet(write, 1)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})

	cl.SetComputePipelineLayout(other)
	cl.SetComputeDescriptorSet(write, 1)
	cl.SetComputePushConstants(0, util.BytesOf([]uint32{7, 8}), 0, 0)
	cl.Dispatch(gmath.Extent3u32{X: 1, Y: 1, Z: 1})
	cl.End()
	cb := c.submit(t, cl)

	encoders := cb.EncodersOfKind(headless.EncoderKindCompute)
	require.Len(t, encoders, 1)
	enc := encoders[0]

	// The layout switch drops set 0, only set 1 is rebound.
	binds := enc.Calls(headless.OpSetBuffer)
	require.Equal(t, []uint64{
		descriptorSetSlotBase, descriptorSetSlotBase + 1,
		descriptorSetSlotBase + 1,
		descriptorSetSlotBase + 1,
	}, slotsOf(binds, 2))
	require.Len(t, enc.Calls(headless.OpSetBytes), 1)

	uses := enc.Calls(headless.OpUseResource)
	require.Equal(t, 1, usesOf(uses, texture.mtl))
	for _, u := range uses {
		if u.Arg(0) == any(texture.mtl) {
			require.Equal(t, mtl.ResourceUsageRead|mtl.ResourceUsageWrite, u.Arg(1))
		}
	}
}
