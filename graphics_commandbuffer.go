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
	"bytes"
	"slices"

	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr/internal/container"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

const maxViewports = 16

const renderStages = mtl.RenderStageVertex | mtl.RenderStageFragment

type Viewport struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

type ClearKind uint32

const (
	ClearKindColor ClearKind = iota
	ClearKindDepth
	ClearKindStencil
)

type ClearColorValue struct {
	R, G, B, A float32
}

// ClearValue holds the field selected by Kind, the others are ignored.
type ClearValue struct {
	Kind    ClearKind
	Color   ClearColorValue
	Depth   float32
	Stencil uint32
}

const (
	pendingClearDepth   = MaxColorAttachments
	pendingClearStencil = MaxColorAttachments + 1
)

// pendingClears are the load actions of the next render pass, indexed by color
// attachment with depth and stencil after the colors.
type pendingClears struct {
	active  bool
	actions [MaxColorAttachments + 2]mtl.LoadAction
	values  [MaxColorAttachments + 2]ClearValue
}

func (p *pendingClears) reset() {
	p.active = false
	for i := range p.actions {
		p.actions[i] = mtl.LoadActionLoad
	}
	clear(p.values[:])
}

func (p *pendingClears) set(index int, v ClearValue) {
	p.active = true
	p.actions[index] = mtl.LoadActionClear
	p.values[index] = v
}

type graphicsDirty struct {
	pipeline      bool
	viewports     bool
	scissors      bool
	depthBias     bool
	sets          bool
	pushConstants bool
	// setIndex is the lowest descriptor set index that needs a rebind.
	setIndex    uint32
	vertexSlots container.BitSet32
}

func (d *graphicsDirty) setAll() {
	d.pipeline = true
	d.viewports = true
	d.scissors = true
	d.depthBias = true
	d.sets = true
	d.pushConstants = true
	d.setIndex = 0
	d.vertexSlots.SetAll()
}

type vertexBufferBinding struct {
	buffer mtl.Buffer
	offset uint64
}

type indexBufferBinding struct {
	buffer    mtl.Buffer
	offset    uint64
	indexType mtl.IndexType
	size      uint32
}

type pushConstantData struct {
	binding uint32
	stages  ShaderStage
	// data is nil until the range is first written.
	data []byte
}

// renderStateCache is the state last bound on the active render encoder.
type renderStateCache struct {
	pipeline      *GraphicsPipeline
	viewports     []mtl.Viewport
	scissors      []mtl.ScissorRect
	depthBias     depthBiasState
	pushConstants [MaxPushConstantBindings][]byte
}

func (c *renderStateCache) clone() renderStateCache {
	ret := renderStateCache{
		pipeline:  c.pipeline,
		viewports: slices.Clone(c.viewports),
		scissors:  slices.Clone(c.scissors),
		depthBias: c.depthBias,
	}
	for i, p := range c.pushConstants {
		ret.pushConstants[i] = slices.Clone(p)
	}
	return ret
}

type graphicsState struct {
	framebuffer   *Framebuffer
	pipeline      *GraphicsPipeline
	layout        *PipelineLayout
	sets          [MaxDescriptorSetBindings]*DescriptorSet
	pushConstants []pushConstantData
	vertexBuffers [MaxVertexBufferBindings]vertexBufferBinding
	indexBuffer   indexBufferBinding
	viewports     []mtl.Viewport
	scissors      []mtl.ScissorRect
	depthBias     depthBiasState

	dirty  graphicsDirty
	cache  renderStateCache
	clears pendingClears
}

func (s *graphicsState) reset() {
	*s = graphicsState{}
	s.dirty.setAll()
	s.clears.reset()
}

func newPushConstants(layout *PipelineLayout) []pushConstantData {
	if layout == nil {
		return nil
	}
	ret := make([]pushConstantData, len(layout.pushConstantRanges))
	for i, r := range layout.pushConstantRanges {
		ret[i] = pushConstantData{binding: r.Binding, stages: r.Stages}
	}
	return ret
}

func writePushConstants(layout *PipelineLayout, pcs []pushConstantData, rangeIndex uint32, data []byte, offset, size uint32) {
	if layout == nil {
		abort("Push constants set without a pipeline layout")
	}
	if rangeIndex >= uint32(len(pcs)) {
		abort("Push constant range %d outside of layout with %d ranges", rangeIndex, len(pcs))
	}
	r := layout.pushConstantRanges[rangeIndex]
	if size == 0 {
		size = r.Size - min(offset, r.Size)
	}
	if offset+size > r.Size {
		abort("Push constant write [%d, %d) outside of range of size %d", offset, offset+size, r.Size)
	}
	if uint32(len(data)) < size {
		abort("Push constant write of %d bytes with only %d bytes of data", size, len(data))
	}

	pc := &pcs[rangeIndex]
	if pc.data == nil {
		pc.data = make([]byte, alignUp(r.Size, 16))
	}
	copy(pc.data[offset:], data[:size])
}

// SetPipeline binds a GraphicsPipeline or a ComputePipeline, pipelines that
// failed to compile are bound but every draw or dispatch using them is skipped.
func (cl *CommandList) SetPipeline(p Pipeline) {
	cl.checkRecording("SetPipeline")
	switch p := p.(type) {
	case *GraphicsPipeline:
		p.noCopy.Check()
		if cl.graphics.pipeline != p {
			cl.graphics.pipeline = p
			cl.graphics.dirty.pipeline = true
			cl.graphics.dirty.depthBias = true
		}
	case *ComputePipeline:
		p.noCopy.Check()
		if cl.compute.pipeline != p {
			cl.compute.pipeline = p
			cl.compute.dirty.pipeline = true
		}
	default:
		abort("Unknown pipeline type: %T", p)
	}
}

func (cl *CommandList) SetGraphicsPipelineLayout(layout *PipelineLayout) {
	cl.checkRecording("SetGraphicsPipelineLayout")
	layout.noCopy.Check()
	s := &cl.graphics
	if s.layout == layout {
		return
	}
	s.layout = layout
	s.sets = [MaxDescriptorSetBindings]*DescriptorSet{}
	s.pushConstants = newPushConstants(layout)
	s.cache.pushConstants = [MaxPushConstantBindings][]byte{}
	s.dirty.sets = true
	s.dirty.setIndex = 0
	s.dirty.pushConstants = true
}

func (cl *CommandList) SetGraphicsDescriptorSet(set *DescriptorSet, index uint32) {
	cl.checkRecording("SetGraphicsDescriptorSet")
	s := &cl.graphics
	if s.layout == nil {
		abort("SetGraphicsDescriptorSet called without a graphics pipeline layout")
	}
	if index >= s.layout.setLayoutCount {
		abort("Descriptor set index %d outside of layout with %d sets", index, s.layout.setLayoutCount)
	}
	if set != nil {
		set.noCopy.Check()
	}
	if s.sets[index] == set {
		return
	}
	s.sets[index] = set
	s.dirty.sets = true
	s.dirty.setIndex = min(s.dirty.setIndex, index)
}

/*
SetGraphicsPushConstants copies size bytes of data into the push constant
range at offset, a size of 0 copies the rest of the range.
*/
func (cl *CommandList) SetGraphicsPushConstants(rangeIndex uint32, data []byte, offset, size uint32) {
	cl.checkRecording("SetGraphicsPushConstants")
	s := &cl.graphics
	writePushConstants(s.layout, s.pushConstants, rangeIndex, data, offset, size)
	s.dirty.pushConstants = true
}

func (cl *CommandList) SetIndexBuffer(buffer *Buffer, offset uint64, format Format) {
	cl.checkRecording("SetIndexBuffer")
	if buffer == nil {
		cl.graphics.indexBuffer = indexBufferBinding{}
		return
	}
	buffer.noCopy.Check()
	indexType, size := mapIndexType(format)
	cl.graphics.indexBuffer = indexBufferBinding{
		buffer:    buffer.mtl,
		offset:    offset,
		indexType: indexType,
		size:      size,
	}
}

// SetVertexBuffers binds buffers to the consecutive slots starting at
// startSlot, a nil buffer binds an empty buffer.
func (cl *CommandList) SetVertexBuffers(startSlot uint32, buffers []*Buffer, offsets []uint64) {
	cl.checkRecording("SetVertexBuffers")
	if startSlot+uint32(len(buffers)) > MaxVertexBufferBindings {
		abort("Vertex buffer slots [%d, %d) outside of [0, %d)", startSlot, startSlot+uint32(len(buffers)), MaxVertexBufferBindings)
	}
	if len(offsets) != 0 && len(offsets) != len(buffers) {
		abort("SetVertexBuffers called with %d buffers and %d offsets", len(buffers), len(offsets))
	}
	for i, b := range buffers {
		binding := vertexBufferBinding{buffer: cl.device.nullBuffer.mtl}
		if b != nil {
			b.noCopy.Check()
			binding.buffer = b.mtl
			if len(offsets) > 0 {
				binding.offset = offsets[i]
			}
		}
		slot := startSlot + uint32(i)
		cl.graphics.vertexBuffers[slot] = binding
		cl.graphics.dirty.vertexSlots.Set(slot)
	}
}

func (cl *CommandList) SetViewports(viewports []Viewport) {
	cl.checkRecording("SetViewports")
	if len(viewports) > maxViewports {
		abort("SetViewports called with %d viewports, the maximum is %d", len(viewports), maxViewports)
	}
	s := &cl.graphics
	s.viewports = s.viewports[:0]
	for _, v := range viewports {
		s.viewports = append(s.viewports, mtl.Viewport{
			OriginX: float64(v.X),
			OriginY: float64(v.Y),
			Width:   float64(v.Width),
			Height:  float64(v.Height),
			ZNear:   float64(v.MinDepth),
			ZFar:    float64(v.MaxDepth),
		})
	}
	if !slices.Equal(s.viewports, s.cache.viewports) {
		s.dirty.viewports = true
	}
}

func clampScissor(r gmath.Recti32, width, height int32) mtl.ScissorRect {
	left := min(max(r.X, 0), width)
	top := min(max(r.Y, 0), height)
	right := min(max(r.X+r.W, 0), width)
	bottom := min(max(r.Y+r.H, 0), height)
	if right <= left || bottom <= top {
		return mtl.ScissorRect{}
	}
	return mtl.ScissorRect{
		X:      uint64(left),
		Y:      uint64(top),
		Width:  uint64(right - left),
		Height: uint64(bottom - top),
	}
}

// SetScissors clamps every rect to the current framebuffer, rects that end up
// empty become zero sized.
func (cl *CommandList) SetScissors(rects []gmath.Recti32) {
	cl.checkRecording("SetScissors")
	if len(rects) > maxViewports {
		abort("SetScissors called with %d rects, the maximum is %d", len(rects), maxViewports)
	}
	s := &cl.graphics
	if s.framebuffer == nil {
		abort("SetScissors called without a framebuffer")
	}
	s.scissors = s.scissors[:0]
	for _, r := range rects {
		s.scissors = append(s.scissors, clampScissor(r, int32(s.framebuffer.width), int32(s.framebuffer.height)))
	}
	if !slices.Equal(s.scissors, s.cache.scissors) {
		s.dirty.scissors = true
	}
}

// SetDepthBias only applies to pipelines created with DynamicDepthBiasEnabled.
func (cl *CommandList) SetDepthBias(constant, clamp, slope float32) {
	cl.checkRecording("SetDepthBias")
	s := &cl.graphics
	bias := depthBiasState{constant: constant, clamp: clamp, slope: slope}
	if s.depthBias != bias {
		s.depthBias = bias
		s.dirty.depthBias = true
	}
}

func (cl *CommandList) SetFramebuffer(fb *Framebuffer) {
	cl.checkRecording("SetFramebuffer")
	if fb != nil {
		fb.noCopy.Check()
	}
	cl.endOtherEncoders(encoderTypeRender)
	cl.endRenderEncoder()
	cl.handlePendingClears()

	cl.activeType = encoderTypeRender
	cl.graphics.framebuffer = fb
	cl.graphics.dirty.setAll()
	cl.graphics.clears.reset()
}

func (fb *Framebuffer) renderPassDescriptor(clears *pendingClears) mtl.RenderPassDescriptor {
	pass := mtl.RenderPassDescriptor{}
	for i, c := range fb.colors {
		a := mtl.RenderPassColorAttachmentDescriptor{
			Texture:     c.mtl,
			LoadAction:  clears.actions[i],
			StoreAction: mtl.StoreActionStore,
		}
		if a.LoadAction == mtl.LoadActionClear {
			v := clears.values[i].Color
			a.ClearColor = mtl.ClearColor{Red: float64(v.R), Green: float64(v.G), Blue: float64(v.B), Alpha: float64(v.A)}
		}
		pass.ColorAttachments = append(pass.ColorAttachments, a)
	}
	if fb.depth != nil {
		pass.DepthAttachment = &mtl.RenderPassDepthAttachmentDescriptor{
			Texture:     fb.depth.mtl,
			LoadAction:  clears.actions[pendingClearDepth],
			StoreAction: mtl.StoreActionStore,
			ClearDepth:  float64(clears.values[pendingClearDepth].Depth),
		}
		if fb.hasStencil() {
			pass.StencilAttachment = &mtl.RenderPassStencilAttachmentDescriptor{
				Texture:      fb.depth.mtl,
				LoadAction:   clears.actions[pendingClearStencil],
				StoreAction:  mtl.StoreActionStore,
				ClearStencil: clears.values[pendingClearStencil].Stencil,
			}
		}
	}
	if fb.sampleCount > 1 {
		pass.SamplePositions = fb.samplePositions
	}
	return pass
}

/*
checkActiveRenderEncoder opens a render encoder on the current framebuffer if
none is open. Pending clears always start a new render pass so they become its
load actions.
*/
func (cl *CommandList) checkActiveRenderEncoder() mtl.RenderCommandEncoder {
	fb := cl.graphics.framebuffer
	if fb == nil {
		abort("Render command recorded without a framebuffer")
	}
	cl.endOtherEncoders(encoderTypeRender)
	if cl.graphics.clears.active {
		cl.endRenderEncoder()
	}
	cl.activeType = encoderTypeRender
	if cl.renderEncoder != nil {
		return cl.renderEncoder
	}

	pass := fb.renderPassDescriptor(&cl.graphics.clears)
	enc := cl.mtl.RenderCommandEncoder(&pass)
	cl.renderEncoder = enc
	cl.openEncoder(enc, "Graphics Render Encoder")
	cl.fences.waits(barrierStageGraphics, func(f mtl.Fence) { enc.WaitForFence(f, renderStages) })
	cl.graphics.clears.reset()
	cl.graphics.dirty.setAll()
	return enc
}

func (cl *CommandList) handlePendingClears() {
	if !cl.graphics.clears.active {
		return
	}
	cl.checkActiveRenderEncoder()
	cl.endRenderEncoder()
}

func (cl *CommandList) endRenderEncoder() {
	enc := cl.renderEncoder
	if enc == nil {
		return
	}
	cl.useResources(func(r mtl.Resource, usage mtl.ResourceUsage) { enc.UseResource(r, usage, renderStages) })
	if f := cl.fences.updateFence(cl.device, barrierStageGraphics); f != nil {
		enc.UpdateFence(f, renderStages)
	}
	cl.closeEncoder(enc)
	cl.renderEncoder = nil
	cl.graphics.dirty.setAll()
	cl.graphics.cache = renderStateCache{}
}

func (cl *CommandList) flushGraphicsState(enc mtl.RenderCommandEncoder) {
	s := &cl.graphics
	p := s.pipeline

	if s.dirty.pipeline {
		enc.SetRenderPipelineState(p.mtl)
		if p.depthStencil != nil {
			enc.SetDepthStencilState(p.depthStencil)
		}
		enc.SetDepthClipMode(p.depthClipMode)
		enc.SetCullMode(p.cullMode)
		enc.SetFrontFacingWinding(p.winding)
		enc.SetStencilReferenceValue(p.stencilRef)
		s.cache.pipeline = p
		s.dirty.pipeline = false
	}

	if s.dirty.viewports && len(s.viewports) > 0 {
		enc.SetViewports(s.viewports)
		s.cache.viewports = slices.Clone(s.viewports)
		s.dirty.viewports = false
	}

	if s.dirty.depthBias {
		bias := p.depthBias
		if p.dynamicDepthBias {
			bias = s.depthBias
		}
		enc.SetDepthBias(bias.constant, bias.slope, bias.clamp)
		s.cache.depthBias = bias
		s.dirty.depthBias = false
	}

	if s.dirty.scissors && len(s.scissors) > 0 {
		enc.SetScissorRects(s.scissors)
		s.cache.scissors = slices.Clone(s.scissors)
		s.dirty.scissors = false
	}

	s.dirty.vertexSlots.ForEach(func(slot uint32) {
		if slot >= MaxVertexBufferBindings {
			return
		}
		b := s.vertexBuffers[slot]
		if b.buffer == nil {
			return
		}
		enc.SetVertexBuffer(b.buffer, b.offset, uint64(vertexBufferSlotBase+slot))
	})
	s.dirty.vertexSlots = 0

	if s.dirty.sets {
		for i := s.dirty.setIndex; i < MaxDescriptorSetBindings; i++ {
			set := s.sets[i]
			if set == nil {
				continue
			}
			enc.SetVertexBuffer(set.argumentBuffer, 0, uint64(descriptorSetSlotBase+i))
			enc.SetFragmentBuffer(set.argumentBuffer, 0, uint64(descriptorSetSlotBase+i))
			cl.trackDescriptorSet(set)
		}
		s.dirty.sets = false
		s.dirty.setIndex = MaxDescriptorSetBindings
	}

	if s.dirty.pushConstants {
		for i, pc := range s.pushConstants {
			if pc.data == nil || bytes.Equal(pc.data, s.cache.pushConstants[i]) {
				continue
			}
			slot := uint64(pushConstantSlotBase + pc.binding)
			if hasAnyBits(pc.stages, ShaderStageVertex) {
				enc.SetVertexBytes(pc.data, slot)
			}
			if hasAnyBits(pc.stages, ShaderStageFragment) {
				enc.SetFragmentBytes(pc.data, slot)
			}
			s.cache.pushConstants[i] = append(s.cache.pushConstants[i][:0], pc.data...)
		}
		s.dirty.pushConstants = false
	}
}

// prepareDraw returns nil if the draw must be skipped.
func (cl *CommandList) prepareDraw(op string) mtl.RenderCommandEncoder {
	cl.checkRecording(op)
	p := cl.graphics.pipeline
	if p == nil {
		abort("%s called without a graphics pipeline", op)
	}
	if p.mtl == nil {
		instance.logger.WPrintf("%s skipped, pipeline %s failed to compile", op, p.name)
		return nil
	}
	enc := cl.checkActiveRenderEncoder()
	cl.flushGraphicsState(enc)
	return enc
}

func (cl *CommandList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
	enc := cl.prepareDraw("DrawInstanced")
	if enc == nil {
		return
	}
	enc.DrawPrimitives(cl.graphics.pipeline.primitiveType,
		uint64(startVertex), uint64(vertexCountPerInstance), uint64(instanceCount), uint64(startInstance))
}

func (cl *CommandList) DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	cl.checkRecording("DrawIndexedInstanced")
	if cl.graphics.indexBuffer.buffer == nil {
		abort("DrawIndexedInstanced called without an index buffer")
	}
	enc := cl.prepareDraw("DrawIndexedInstanced")
	if enc == nil {
		return
	}
	ib := cl.graphics.indexBuffer
	enc.DrawIndexedPrimitives(cl.graphics.pipeline.primitiveType, uint64(indexCountPerInstance), ib.indexType, ib.buffer,
		ib.offset+uint64(startIndex)*uint64(ib.size), uint64(instanceCount), int64(baseVertex), uint64(startInstance))
}

// clearVertices returns two triangles per rect in clip space, TL BL BR BR TR TL.
func clearVertices(rects []gmath.Recti32, width, height uint32) [][2]float32 {
	w := float32(width)
	h := float32(height)
	vertices := make([][2]float32, 0, 6*len(rects))
	for _, r := range rects {
		left := 2*float32(r.X)/w - 1
		right := 2*float32(r.X+r.W)/w - 1
		top := -(2*float32(r.Y)/h - 1)
		bottom := -(2*float32(r.Y+r.H)/h - 1)
		vertices = append(vertices,
			[2]float32{left, top}, [2]float32{left, bottom}, [2]float32{right, bottom},
			[2]float32{right, bottom}, [2]float32{right, top}, [2]float32{left, top},
		)
	}
	return vertices
}

func (cl *CommandList) setCommonClearState(enc mtl.RenderCommandEncoder, fb *Framebuffer) {
	viewport := mtl.Viewport{Width: float64(fb.width), Height: float64(fb.height), ZFar: 1}
	scissor := mtl.ScissorRect{Width: uint64(fb.width), Height: uint64(fb.height)}
	enc.SetViewports([]mtl.Viewport{viewport})
	enc.SetScissorRects([]mtl.ScissorRect{scissor})
	enc.SetTriangleFillMode(mtl.TriangleFillModeFill)
	enc.SetCullMode(mtl.CullModeNone)
	enc.SetDepthBias(0, 0, 0)

	cl.graphics.cache.pipeline = nil
	cl.graphics.cache.viewports = []mtl.Viewport{viewport}
	cl.graphics.cache.scissors = []mtl.ScissorRect{scissor}
	cl.graphics.cache.depthBias = depthBiasState{}
}

/*
drawClear draws rects with a clear pipeline on the render encoder. The state
cache is restored afterwards and all state marked dirty so the next draw
rebinds everything the clear replaced.
*/
func (cl *CommandList) drawClear(group string, pipeline mtl.RenderPipelineState, depthStencil mtl.DepthStencilState,
	stencilRef *uint32, rects []gmath.Recti32, fragmentBytes []byte,
) {
	fb := cl.graphics.framebuffer
	enc := cl.checkActiveRenderEncoder()
	saved := cl.graphics.cache.clone()

	enc.PushDebugGroup(group)
	enc.SetRenderPipelineState(pipeline)
	if depthStencil != nil {
		enc.SetDepthStencilState(depthStencil)
	}
	if stencilRef != nil {
		enc.SetStencilReferenceValue(*stencilRef)
	}
	cl.setCommonClearState(enc, fb)
	enc.SetVertexBytes(util.BytesOf(clearVertices(rects, fb.width, fb.height)), 0)
	enc.SetFragmentBytes(fragmentBytes, 0)
	enc.DrawPrimitives(mtl.PrimitiveTypeTriangle, 0, uint64(6*len(rects)), 1, 0)
	enc.PopDebugGroup()

	cl.graphics.cache = saved
	cl.graphics.dirty.setAll()
}

/*
ClearColor clears the color attachment at index. Without rects the clear
becomes the load action of the next render pass, otherwise every rect is
cleared by a draw inside the current one.
*/
func (cl *CommandList) ClearColor(index uint32, color ClearColorValue, rects []gmath.Recti32) {
	cl.checkRecording("ClearColor")
	fb := cl.graphics.framebuffer
	if fb == nil {
		abort("ClearColor called without a framebuffer")
	}
	if index >= uint32(len(fb.colors)) {
		abort("ClearColor attachment %d outside of framebuffer with %d color attachments", index, len(fb.colors))
	}
	if len(rects) > MaxClearRects {
		abort("ClearColor called with %d rects, the maximum is %d", len(rects), MaxClearRects)
	}

	if len(rects) == 0 {
		cl.graphics.clears.set(int(index), ClearValue{Kind: ClearKindColor, Color: color})
		return
	}

	pipeline := cl.device.clearPipelines.createOrRetrieve(cl.device, fb.clearKey(false, false, index))
	if pipeline == nil {
		return
	}
	var depthStencil mtl.DepthStencilState
	if fb.depth != nil {
		depthStencil = cl.device.clear.noDepthWriteState
	}
	colors := make([]ClearColorValue, len(rects))
	for i := range colors {
		colors[i] = color
	}
	cl.drawClear("ColorClear", pipeline, depthStencil, nil, rects, util.BytesOf(colors))
}

// ClearDepthStencil clears the depth and or stencil aspect of the depth
// attachment, see ClearColor for how rects are handled.
func (cl *CommandList) ClearDepthStencil(clearDepth, clearStencil bool, depth float32, stencil uint32, rects []gmath.Recti32) {
	cl.checkRecording("ClearDepthStencil")
	fb := cl.graphics.framebuffer
	if fb == nil {
		abort("ClearDepthStencil called without a framebuffer")
	}
	if fb.depth == nil {
		abort("ClearDepthStencil called on a framebuffer without a depth attachment")
	}
	if len(rects) > MaxClearRects {
		abort("ClearDepthStencil called with %d rects, the maximum is %d", len(rects), MaxClearRects)
	}
	clearStencil = clearStencil && fb.hasStencil()
	if !clearDepth && !clearStencil {
		return
	}

	if len(rects) == 0 {
		if clearDepth {
			cl.graphics.clears.set(pendingClearDepth, ClearValue{Kind: ClearKindDepth, Depth: depth})
		}
		if clearStencil {
			cl.graphics.clears.set(pendingClearStencil, ClearValue{Kind: ClearKindStencil, Stencil: stencil})
		}
		return
	}

	pipeline := cl.device.clearPipelines.createOrRetrieve(cl.device, fb.clearKey(clearDepth, clearStencil, 0))
	if pipeline == nil {
		return
	}
	depthStencil := cl.device.clear.depthStencilState
	switch {
	case !clearStencil:
		depthStencil = cl.device.clear.depthState
	case !clearDepth:
		depthStencil = cl.device.clear.stencilState
	}
	var stencilRef *uint32
	if clearStencil {
		stencilRef = &stencil
	}

	depths := make([]float32, alignUp(uint32(len(rects)), 4))
	for i := range rects {
		depths[i] = depth
	}
	cl.drawClear("DepthClear", pipeline, depthStencil, stencilRef, rects, util.BytesOf(depths))
}
