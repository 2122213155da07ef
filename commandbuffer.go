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
	"fmt"

	"github.com/google/uuid"
	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr/internal/container"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

type encoderType uint32

const (
	encoderTypeNone encoderType = iota
	encoderTypeRender
	encoderTypeCompute
	encoderTypeBlit
	encoderTypeResolve
)

func (t encoderType) String() string {
	switch t {
	case encoderTypeNone:
		return "None"
	case encoderTypeRender:
		return "Render"
	case encoderTypeCompute:
		return "Compute"
	case encoderTypeBlit:
		return "Blit"
	case encoderTypeResolve:
		return "Resolve"
	}
	return "Unknown"
}

// Indices of the per stage fences, bit i of a PipelineStage is barrier stage i.
const (
	barrierStageGraphics uint32 = iota
	barrierStageCompute
	barrierStageCopy
)

var barrierStageNames = [pipelineStageCount]string{"Graphics", "Compute", "Copy"}

/*
barrierFences orders encoders across a barrier. Every stage owns a list of
native fences, update[s] is the index of the fence the next encoder of stage s
updates on close and wait[d][s] the index of the fence of stage s the next
encoder of stage d waits on when it opens, -1 for none.
*/
type barrierFences struct {
	fences [pipelineStageCount][]mtl.Fence
	wait   [pipelineStageCount][pipelineStageCount]int32
	update [pipelineStageCount]int32
	dirty  container.BitSet32
}

func (f *barrierFences) reset() {
	f.dirty.SetAll()
	for i := range f.wait {
		for j := range f.wait[i] {
			f.wait[i][j] = -1
		}
		f.update[i] = -1
	}
}

func (f *barrierFences) set(src, dst PipelineStage) {
	container.BitSet32(src).ForEach(func(s uint32) {
		container.BitSet32(dst).ForEach(func(d uint32) {
			f.wait[d][s] = f.update[s]
		})
		f.wait[s][s] = f.update[s]
		f.dirty.Set(s)
	})
}

// waits calls wait with every fence stage has to wait on and forgets them.
func (f *barrierFences) waits(stage uint32, wait func(mtl.Fence)) {
	for s, index := range f.wait[stage] {
		if index < 0 {
			continue
		}
		wait(f.fences[s][index])
		f.wait[stage][s] = -1
	}
}

// updateFence returns the fence the closing encoder of stage must update, nil
// if no barrier referenced the stage since Begin.
func (f *barrierFences) updateFence(d *Device, stage uint32) mtl.Fence {
	if f.dirty.Has(stage) {
		f.dirty.Clear(stage)
		f.update[stage]++
	}
	index := f.update[stage]
	if index < 0 {
		return nil
	}
	for int32(len(f.fences[stage])) <= index {
		fence := d.mtl.NewFence()
		fence.SetLabel(fmt.Sprintf("%s Fence %d", barrierStageNames[stage], len(f.fences[stage])))
		f.fences[stage] = append(f.fences[stage], fence)
	}
	return f.fences[stage][index]
}

func (f *barrierFences) destroy() {
	for i := range f.fences {
		for _, fence := range f.fences[i] {
			fence.Release()
		}
		f.fences[i] = nil
	}
}

type commandListState uint32

const (
	commandListStateInitial commandListState = iota
	commandListStateRecording
	commandListStateExecutable
)

type CommandList struct {
	noCopy util.NoCopy
	id     string
	name   string
	device *Device
	queue  *CommandQueue

	state commandListState
	mtl   mtl.CommandBuffer

	activeType     encoderType
	renderEncoder  mtl.RenderCommandEncoder
	computeEncoder mtl.ComputeCommandEncoder
	blitEncoder    mtl.BlitCommandEncoder
	resolveEncoder mtl.ComputeCommandEncoder

	// encoderSets are the descriptor sets bound since the active encoder opened.
	encoderSets []*DescriptorSet
	debugGroups container.Stack[string]
	fences      barrierFences

	graphics graphicsState
	compute  computeState
}

func (q *CommandQueue) NewCommandList() *CommandList {
	q.noCopy.Check()
	cl := CommandList{
		id:     uuid.New().String(),
		device: q.device,
		queue:  q,
	}
	cl.name = "CommandList_" + cl.id
	cl.noCopy.Init()
	q.device.stats.commandLists.Add(1)
	return &cl
}

func (cl *CommandList) SetName(name string) {
	cl.noCopy.Check()
	cl.name = name
}

func (cl *CommandList) checkRecording(op string) {
	cl.noCopy.Check()
	if cl.state != commandListStateRecording {
		abort("%s called on command list %q outside of Begin/End", op, cl.name)
	}
}

/*
Begin starts recording into a new native command buffer. The list must not be
recording already nor hold an End-ed command buffer that was never submitted.
*/
func (cl *CommandList) Begin() {
	cl.noCopy.Check()
	if cl.state != commandListStateInitial {
		abort("Begin called on command list %q that was not submitted", cl.name)
	}
	cl.mtl = cl.queue.mtl.CommandBufferWithUnretainedReferences()
	cl.mtl.SetLabel(cl.name)
	cl.state = commandListStateRecording
	cl.activeType = encoderTypeNone
	cl.fences.reset()
	cl.graphics.reset()
	cl.compute.reset()
}

func (cl *CommandList) End() {
	cl.checkRecording("End")
	cl.endRenderEncoder()
	cl.handlePendingClears()
	cl.endResolveEncoder()
	cl.endBlitEncoder()
	cl.endComputeEncoder()
	if !cl.debugGroups.Empty() {
		abort("End called on command list %q with %d open debug groups", cl.name, cl.debugGroups.Len())
	}
	cl.activeType = encoderTypeNone
	cl.graphics.framebuffer = nil
	cl.graphics.vertexBuffers = [MaxVertexBufferBindings]vertexBufferBinding{}
	cl.state = commandListStateExecutable
}

// submitted hands the command buffer over to the queue and makes the list
// ready for the next Begin.
func (cl *CommandList) submitted() mtl.CommandBuffer {
	cl.noCopy.Check()
	if cl.state != commandListStateExecutable {
		abort("Command list %q submitted without Begin/End", cl.name)
	}
	ret := cl.mtl
	cl.mtl = nil
	cl.state = commandListStateInitial
	return ret
}

func (cl *CommandList) Destroy() {
	if cl == nil {
		return
	}
	cl.noCopy.Check()
	if cl.state == commandListStateRecording {
		abort("Destroy called on command list %q while recording", cl.name)
	}
	cl.fences.destroy()
	cl.encoderSets = nil
	cl.device.stats.commandLists.Add(-1)
	cl.noCopy.Close()
}

func (cl *CommandList) BeginDebugGroup(name string) {
	cl.checkRecording("BeginDebugGroup")
	cl.debugGroups.Push(name)
	if enc := cl.activeEncoder(); enc != nil {
		enc.PushDebugGroup(name)
	}
}

func (cl *CommandList) EndDebugGroup() {
	cl.checkRecording("EndDebugGroup")
	if cl.debugGroups.Empty() {
		abort("EndDebugGroup called without a matching BeginDebugGroup")
	}
	cl.debugGroups.Pop()
	if enc := cl.activeEncoder(); enc != nil {
		enc.PopDebugGroup()
	}
}

func (cl *CommandList) activeEncoder() mtl.CommandEncoder {
	switch {
	case cl.activeType == encoderTypeRender && cl.renderEncoder != nil:
		return cl.renderEncoder
	case cl.activeType == encoderTypeCompute && cl.computeEncoder != nil:
		return cl.computeEncoder
	case cl.activeType == encoderTypeBlit && cl.blitEncoder != nil:
		return cl.blitEncoder
	case cl.activeType == encoderTypeResolve && cl.resolveEncoder != nil:
		return cl.resolveEncoder
	}
	return nil
}

// Debug groups outlive encoders, they are closed with the encoder and reopened
// on the next one.
func (cl *CommandList) openEncoder(enc mtl.CommandEncoder, label string) {
	enc.SetLabel(label)
	for _, g := range cl.debugGroups.Data() {
		enc.PushDebugGroup(g)
	}
}

func (cl *CommandList) closeEncoder(enc mtl.CommandEncoder) {
	for range cl.debugGroups.Len() {
		enc.PopDebugGroup()
	}
	enc.EndEncoding()
	cl.encoderSets = cl.encoderSets[:0]
}

func (cl *CommandList) trackDescriptorSet(s *DescriptorSet) {
	for _, t := range cl.encoderSets {
		if t == s {
			return
		}
	}
	cl.encoderSets = append(cl.encoderSets, s)
}

type resourceUse struct {
	resource mtl.Resource
	usage    mtl.ResourceUsage
}

/*
useResources declares every device addressable buffer and every resource of
the descriptor sets bound to the closing encoder. Each resource is declared
once with the union of the usages it was bound with.
*/
func (cl *CommandList) useResources(f func(mtl.Resource, mtl.ResourceUsage)) {
	var uses []resourceUse
	indices := map[mtl.Resource]int{}
	add := func(r mtl.Resource, usage mtl.ResourceUsage) {
		if i, found := indices[r]; found {
			uses[i].usage |= usage
			return
		}
		indices[r] = len(uses)
		uses = append(uses, resourceUse{resource: r, usage: usage})
	}

	for _, b := range cl.device.addressable.snapshot() {
		add(b, mtl.ResourceUsageRead)
	}
	for _, s := range cl.encoderSets {
		s.useResources(add)
	}
	for _, u := range uses {
		f(u.resource, u.usage)
	}
}

// endOtherEncoders closes the active encoder if it is not of type t, leaving
// the render encoder also flushes the pending clears.
func (cl *CommandList) endOtherEncoders(t encoderType) {
	if cl.activeType == t {
		return
	}
	switch cl.activeType {
	case encoderTypeRender:
		cl.endRenderEncoder()
		cl.handlePendingClears()
	case encoderTypeCompute:
		cl.endComputeEncoder()
	case encoderTypeBlit:
		cl.endBlitEncoder()
	case encoderTypeResolve:
		cl.endResolveEncoder()
	}
}

// endActiveEncoder closes whichever encoder is active and then flushes the
// pending clears, they must land before any work recorded after the call.
func (cl *CommandList) endActiveEncoder() {
	switch cl.activeType {
	case encoderTypeRender:
		cl.endRenderEncoder()
	case encoderTypeCompute:
		cl.endComputeEncoder()
	case encoderTypeBlit:
		cl.endBlitEncoder()
	case encoderTypeResolve:
		cl.endResolveEncoder()
	}
	cl.handlePendingClears()
}

/*
Barriers makes the encoders of stages recorded after the call wait for every
encoder that last used buffers or textures. Resources remember the stages of
their last barrier so the source stages do not need to be given.
*/
func (cl *CommandList) Barriers(stages PipelineStage, buffers []*Buffer, textures []*Texture) {
	cl.checkRecording("Barriers")
	if len(buffers) == 0 && len(textures) == 0 {
		return
	}
	cl.endActiveEncoder()

	src := PipelineStageNone
	for _, b := range buffers {
		b.noCopy.Check()
		src |= b.barrierStages
		b.barrierStages = stages
	}
	for _, t := range textures {
		t.noCopy.Check()
		src |= t.barrierStages
		t.barrierStages = stages
	}
	cl.fences.set(src, stages)
}

func (cl *CommandList) checkActiveBlitEncoder() mtl.BlitCommandEncoder {
	cl.endOtherEncoders(encoderTypeBlit)
	cl.activeType = encoderTypeBlit
	if cl.blitEncoder != nil {
		return cl.blitEncoder
	}
	cl.blitEncoder = cl.mtl.BlitCommandEncoder()
	cl.openEncoder(cl.blitEncoder, "Copy Blit Encoder")
	cl.fences.waits(barrierStageCopy, cl.blitEncoder.WaitForFence)
	return cl.blitEncoder
}

func (cl *CommandList) endBlitEncoder() {
	if cl.blitEncoder == nil {
		return
	}
	if f := cl.fences.updateFence(cl.device, barrierStageCopy); f != nil {
		cl.blitEncoder.UpdateFence(f)
	}
	cl.closeEncoder(cl.blitEncoder)
	cl.blitEncoder = nil
}

func (cl *CommandList) checkActiveResolveEncoder() mtl.ComputeCommandEncoder {
	cl.endOtherEncoders(encoderTypeResolve)
	cl.activeType = encoderTypeResolve
	if cl.resolveEncoder != nil {
		return cl.resolveEncoder
	}
	cl.resolveEncoder = cl.mtl.ComputeCommandEncoder()
	cl.openEncoder(cl.resolveEncoder, "Resolve Texture Encoder")
	cl.resolveEncoder.SetComputePipelineState(cl.device.resolvePipeline)
	cl.fences.waits(barrierStageCopy, cl.resolveEncoder.WaitForFence)
	return cl.resolveEncoder
}

func (cl *CommandList) endResolveEncoder() {
	if cl.resolveEncoder == nil {
		return
	}
	if f := cl.fences.updateFence(cl.device, barrierStageCopy); f != nil {
		cl.resolveEncoder.UpdateFence(f)
	}
	cl.closeEncoder(cl.resolveEncoder)
	cl.resolveEncoder = nil
}

type BufferReference struct {
	Buffer *Buffer
	Offset uint64
}

func (cl *CommandList) CopyBufferRegion(dst, src BufferReference, size uint64) {
	cl.checkRecording("CopyBufferRegion")
	dst.Buffer.noCopy.Check()
	src.Buffer.noCopy.Check()
	if src.Offset+size > src.Buffer.desc.Size {
		abort("CopyBufferRegion source range [%d, %d) outside of buffer of size %d", src.Offset, src.Offset+size, src.Buffer.desc.Size)
	}
	if dst.Offset+size > dst.Buffer.desc.Size {
		abort("CopyBufferRegion destination range [%d, %d) outside of buffer of size %d", dst.Offset, dst.Offset+size, dst.Buffer.desc.Size)
	}
	enc := cl.checkActiveBlitEncoder()
	enc.CopyFromBuffer(src.Buffer.mtl, src.Offset, dst.Buffer.mtl, dst.Offset, size)
}

func (cl *CommandList) CopyBuffer(dst, src *Buffer) {
	cl.checkRecording("CopyBuffer")
	dst.noCopy.Check()
	src.noCopy.Check()
	if src.desc.Size < dst.desc.Size {
		abort("CopyBuffer source of size %d is smaller than destination of size %d", src.desc.Size, dst.desc.Size)
	}
	enc := cl.checkActiveBlitEncoder()
	enc.PushDebugGroup("CopyBuffer")
	enc.CopyFromBuffer(src.mtl, 0, dst.mtl, 0, dst.desc.Size)
	enc.PopDebugGroup()
}

func (cl *CommandList) CopyTexture(dst, src *Texture) {
	cl.checkRecording("CopyTexture")
	dst.noCopy.Check()
	src.noCopy.Check()
	enc := cl.checkActiveBlitEncoder()
	enc.CopyTexture(src.mtl, dst.mtl)
}

type TextureCopyType uint32

const (
	TextureCopyTypeSubresource TextureCopyType = iota
	TextureCopyTypePlacedFootprint
)

/*
PlacedFootprint describes texel data laid out in a buffer, RowWidth is the
width in texels of one row, rows are padded out to it.
*/
type PlacedFootprint struct {
	Offset   uint64
	Format   Format
	Width    uint32
	Height   uint32
	Depth    uint32
	RowWidth uint32
}

type TextureCopyLocation struct {
	Type       TextureCopyType
	Texture    *Texture
	MipLevel   uint32
	ArrayIndex uint32
	Buffer     *Buffer
	Footprint  PlacedFootprint
}

func TextureCopyLocationSubresource(texture *Texture, mipLevel, arrayIndex uint32) TextureCopyLocation {
	return TextureCopyLocation{
		Type:       TextureCopyTypeSubresource,
		Texture:    texture,
		MipLevel:   mipLevel,
		ArrayIndex: arrayIndex,
	}
}

func TextureCopyLocationPlacedFootprint(buffer *Buffer, footprint PlacedFootprint) TextureCopyLocation {
	return TextureCopyLocation{
		Type:      TextureCopyTypePlacedFootprint,
		Buffer:    buffer,
		Footprint: footprint,
	}
}

type TextureRegion struct {
	Offset gmath.Vector3i32
	Extent gmath.Extent3i32
}

func (t *Texture) mipExtent(mip uint32) gmath.Extent3i32 {
	return gmath.Extent3i32{
		X: int32(max(t.desc.Width>>mip, 1)),
		Y: int32(max(t.desc.Height>>mip, 1)),
		Z: int32(max(t.desc.Depth>>mip, 1)),
	}
}

/*
CopyTextureRegion copies a buffer footprint or a texture region into dst, which
must be a subresource. When src is a texture, srcRegion selects the copied texels
and nil copies the whole source subresource.
*/
func (cl *CommandList) CopyTextureRegion(dst TextureCopyLocation, dstOffset gmath.Vector3i32, src TextureCopyLocation, srcRegion *TextureRegion) {
	cl.checkRecording("CopyTextureRegion")
	if dst.Type != TextureCopyTypeSubresource || dst.Texture == nil {
		abort("CopyTextureRegion destination must be a texture subresource")
	}
	dst.Texture.noCopy.Check()
	if dstOffset.X < 0 || dstOffset.Y < 0 || dstOffset.Z < 0 {
		abort("CopyTextureRegion destination offset [%d,%d,%d] must not be negative", dstOffset.X, dstOffset.Y, dstOffset.Z)
	}
	dstOrigin := mtl.Origin{X: uint64(dstOffset.X), Y: uint64(dstOffset.Y), Z: uint64(dstOffset.Z)}

	switch src.Type {
	case TextureCopyTypePlacedFootprint:
		if src.Buffer == nil {
			abort("CopyTextureRegion placed footprint source without a buffer")
		}
		src.Buffer.noCopy.Check()
		fp := src.Footprint
		block := FormatBlockWidth(fp.Format)
		bytesPerRow := uint64((max(fp.RowWidth, fp.Width)+block-1)/block) * uint64(FormatSize(fp.Format))
		bytesPerImage := bytesPerRow * uint64((max(fp.Height, 1)+block-1)/block)
		if fp.Offset+bytesPerImage*uint64(max(fp.Depth, 1)) > src.Buffer.desc.Size {
			abort("CopyTextureRegion footprint of %d bytes at offset %d outside of buffer of size %d",
				bytesPerImage*uint64(max(fp.Depth, 1)), fp.Offset, src.Buffer.desc.Size)
		}

		enc := cl.checkActiveBlitEncoder()
		enc.PushDebugGroup("CopyTextureRegion")
		enc.CopyFromBufferToTexture(src.Buffer.mtl, fp.Offset, bytesPerRow, bytesPerImage,
			mtl.Size{Width: uint64(fp.Width), Height: uint64(max(fp.Height, 1)), Depth: uint64(max(fp.Depth, 1))},
			dst.Texture.mtl, uint64(dst.ArrayIndex), uint64(dst.MipLevel), dstOrigin)
		enc.PopDebugGroup()

	case TextureCopyTypeSubresource:
		if src.Texture == nil {
			abort("CopyTextureRegion subresource source without a texture")
		}
		src.Texture.noCopy.Check()
		region := TextureRegion{Extent: src.Texture.mipExtent(src.MipLevel)}
		if srcRegion != nil {
			region = *srcRegion
		}
		if region.Offset.X < 0 || region.Offset.Y < 0 || region.Offset.Z < 0 ||
			region.Extent.X <= 0 || region.Extent.Y <= 0 || region.Extent.Z <= 0 {
			abort("CopyTextureRegion invalid source region %+v", region)
		}

		enc := cl.checkActiveBlitEncoder()
		enc.CopyFromTexture(src.Texture.mtl, uint64(src.ArrayIndex), uint64(src.MipLevel),
			mtl.Origin{X: uint64(region.Offset.X), Y: uint64(region.Offset.Y), Z: uint64(region.Offset.Z)},
			mtl.Size{Width: uint64(region.Extent.X), Height: uint64(region.Extent.Y), Depth: uint64(region.Extent.Z)},
			dst.Texture.mtl, uint64(dst.ArrayIndex), uint64(dst.MipLevel), dstOrigin)

	default:
		abort("Unknown TextureCopyType: %d", src.Type)
	}
}

// ResolveTexture resolves every sample of src into dst through a render pass
// that only loads and resolves.
func (cl *CommandList) ResolveTexture(dst, src *Texture) {
	cl.checkRecording("ResolveTexture")
	dst.noCopy.Check()
	src.noCopy.Check()
	if src.desc.SampleCount <= 1 {
		abort("ResolveTexture source is not multisampled")
	}
	if dst.desc.SampleCount != 1 {
		abort("ResolveTexture destination must have a single sample")
	}
	cl.endActiveEncoder()
	cl.activeType = encoderTypeNone

	enc := cl.mtl.RenderCommandEncoder(&mtl.RenderPassDescriptor{
		ColorAttachments: []mtl.RenderPassColorAttachmentDescriptor{{
			Texture:        src.mtl,
			ResolveTexture: dst.mtl,
			LoadAction:     mtl.LoadActionLoad,
			StoreAction:    mtl.StoreActionMultisampleResolve,
		}},
	})
	cl.openEncoder(enc, "Resolve Texture Encoder")
	cl.closeEncoder(enc)
}

/*
ResolveTextureRegion resolves the srcRect of src into dst at (dstX, dstY). A
region covering both textures falls back to ResolveTexture, anything else runs
the resolve kernel which requires dst to allow shader writes. A nil srcRect
selects the whole source.
*/
func (cl *CommandList) ResolveTextureRegion(dst *Texture, dstX, dstY uint32, src *Texture, srcRect *gmath.Recti32) {
	cl.checkRecording("ResolveTextureRegion")
	dst.noCopy.Check()
	src.noCopy.Check()

	rect := gmath.Recti32{W: int32(src.desc.Width), H: int32(src.desc.Height)}
	if srcRect != nil {
		rect = *srcRect
	}
	if rect.X < 0 || rect.Y < 0 || rect.W <= 0 || rect.H <= 0 {
		abort("ResolveTextureRegion invalid source rect %+v", rect)
	}

	if dstX == 0 && dstY == 0 && rect.X == 0 && rect.Y == 0 &&
		uint32(rect.W) == src.desc.Width && uint32(rect.H) == src.desc.Height &&
		src.desc.Width == dst.desc.Width && src.desc.Height == dst.desc.Height {
		cl.ResolveTexture(dst, src)
		return
	}
	if !hasBits(dst.mtl.Usage(), mtl.TextureUsageShaderWrite) {
		abort("ResolveTextureRegion destination must allow shader writes for a partial resolve")
	}

	params := resolveParams{
		dstOffset:   [2]uint32{dstX, dstY},
		srcOffset:   [2]uint32{uint32(rect.X), uint32(rect.Y)},
		resolveSize: [2]uint32{uint32(rect.W), uint32(rect.H)},
	}
	enc := cl.checkActiveResolveEncoder()
	enc.SetTexture(src.mtl, 0)
	enc.SetTexture(dst.mtl, 1)
	enc.SetBytes(util.BytesOf([]resolveParams{params}), 0)
	enc.DispatchThreadgroups(
		mtl.Size{Width: uint64((rect.W + 7) / 8), Height: uint64((rect.H + 7) / 8), Depth: 1},
		mtl.Size{Width: 8, Height: 8, Depth: 1},
	)
}
