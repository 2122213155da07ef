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

package metal

/*
#include <stdlib.h>
#include "metal_darwin.h"
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"unsafe"

	"goarrg.com/rhi/mxr/mtl"
)

type commandQueue struct {
	object
}

var _ mtl.CommandQueue = (*commandQueue)(nil)

func (q *commandQueue) CommandBuffer() mtl.CommandBuffer {
	return newCommandBuffer(C.mtlQueueCommandBuffer(q.ref, false))
}

func (q *commandQueue) CommandBufferWithUnretainedReferences() mtl.CommandBuffer {
	return newCommandBuffer(C.mtlQueueCommandBuffer(q.ref, true))
}

type commandBuffer struct {
	object
}

var _ mtl.CommandBuffer = (*commandBuffer)(nil)

func newCommandBuffer(ref C.CFTypeRef) *commandBuffer {
	cb := &commandBuffer{object{ref: ref}}
	runtime.SetFinalizer(cb, (*commandBuffer).Release)
	return cb
}

func (cb *commandBuffer) Status() mtl.CommandBufferStatus {
	return mtl.CommandBufferStatus(C.mtlCommandBufferStatus(cb.ref))
}

func (cb *commandBuffer) Enqueue() {
	C.mtlCommandBufferEnqueue(cb.ref)
}

func (cb *commandBuffer) Commit() {
	C.mtlCommandBufferCommit(cb.ref)
}

func (cb *commandBuffer) WaitUntilCompleted() {
	C.mtlCommandBufferWaitUntilCompleted(cb.ref)
}

func (cb *commandBuffer) EncodeWaitForEvent(event mtl.SharedEvent, value uint64) {
	C.mtlCommandBufferEncodeWait(cb.ref, refOf(event), C.uint64_t(value))
}

func (cb *commandBuffer) EncodeSignalEvent(event mtl.SharedEvent, value uint64) {
	C.mtlCommandBufferEncodeSignal(cb.ref, refOf(event), C.uint64_t(value))
}

// Handlers run on a Metal completion thread and are deleted after their only call.
func (cb *commandBuffer) AddScheduledHandler(f func()) {
	C.mtlCommandBufferAddScheduledHandler(cb.ref, C.uintptr_t(cgo.NewHandle(f)))
}

func (cb *commandBuffer) AddCompletedHandler(f func()) {
	C.mtlCommandBufferAddCompletedHandler(cb.ref, C.uintptr_t(cgo.NewHandle(f)))
}

func (cb *commandBuffer) RenderCommandEncoder(desc *mtl.RenderPassDescriptor) mtl.RenderCommandEncoder {
	cDesc := C.mtlRenderPassDescriptor{}
	for i, c := range desc.ColorAttachments[:min(len(desc.ColorAttachments), C.MTL_MAX_COLOR_ATTACHMENTS)] {
		cDesc.colorAttachments[i] = C.mtlRenderPassColorAttachment{
			texture:        refOf(c.Texture),
			resolveTexture: refOf(c.ResolveTexture),
			loadAction:     C.uint64_t(c.LoadAction),
			storeAction:    C.uint64_t(c.StoreAction),
			clearColor: [4]C.double{
				C.double(c.ClearColor.Red), C.double(c.ClearColor.Green),
				C.double(c.ClearColor.Blue), C.double(c.ClearColor.Alpha),
			},
		}
		cDesc.colorAttachmentCount++
	}
	if d := desc.DepthAttachment; d != nil {
		cDesc.hasDepthAttachment = true
		cDesc.depthAttachment = C.mtlRenderPassDepthStencilAttachment{
			texture:     refOf(d.Texture),
			loadAction:  C.uint64_t(d.LoadAction),
			storeAction: C.uint64_t(d.StoreAction),
			clearDepth:  C.double(d.ClearDepth),
		}
	}
	if s := desc.StencilAttachment; s != nil {
		cDesc.hasStencilAttachment = true
		cDesc.stencilAttachment = C.mtlRenderPassDepthStencilAttachment{
			texture:      refOf(s.Texture),
			loadAction:   C.uint64_t(s.LoadAction),
			storeAction:  C.uint64_t(s.StoreAction),
			clearStencil: C.uint32_t(s.ClearStencil),
		}
	}
	for i, p := range desc.SamplePositions[:min(len(desc.SamplePositions), C.MTL_MAX_SAMPLE_POSITIONS)] {
		cDesc.samplePositions[i] = [2]C.float{C.float(p.X), C.float(p.Y)}
		cDesc.samplePositionCount++
	}

	ref := C.mtlCommandBufferRenderEncoder(cb.ref, &cDesc)
	if ref == nil {
		return nil
	}
	return &renderCommandEncoder{commandEncoder{object{ref: ref}}}
}

func (cb *commandBuffer) ComputeCommandEncoder() mtl.ComputeCommandEncoder {
	ref := C.mtlCommandBufferComputeEncoder(cb.ref)
	if ref == nil {
		return nil
	}
	return &computeCommandEncoder{commandEncoder{object{ref: ref}}}
}

func (cb *commandBuffer) BlitCommandEncoder() mtl.BlitCommandEncoder {
	ref := C.mtlCommandBufferBlitEncoder(cb.ref)
	if ref == nil {
		return nil
	}
	return &blitCommandEncoder{commandEncoder{object{ref: ref}}}
}

type commandEncoder struct {
	object
}

// EndEncoding also drops the reference, the encoder is unusable afterwards.
func (e *commandEncoder) EndEncoding() {
	C.mtlEncoderEnd(e.ref)
	e.Release()
}

func (e *commandEncoder) PushDebugGroup(name string) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	C.mtlEncoderPushDebugGroup(e.ref, cName)
}

func (e *commandEncoder) PopDebugGroup() {
	C.mtlEncoderPopDebugGroup(e.ref)
}

func bytesOf(data []byte) (unsafe.Pointer, C.uint64_t) {
	if len(data) == 0 {
		return nil, 0
	}
	return unsafe.Pointer(&data[0]), C.uint64_t(len(data))
}

type renderCommandEncoder struct {
	commandEncoder
}

var _ mtl.RenderCommandEncoder = (*renderCommandEncoder)(nil)

func (e *renderCommandEncoder) SetRenderPipelineState(p mtl.RenderPipelineState) {
	C.mtlRenderEncSetPipeline(e.ref, refOf(p))
}

func (e *renderCommandEncoder) SetDepthStencilState(s mtl.DepthStencilState) {
	C.mtlRenderEncSetDepthStencilState(e.ref, refOf(s))
}

func (e *renderCommandEncoder) SetDepthClipMode(mode mtl.DepthClipMode) {
	C.mtlRenderEncSetDepthClipMode(e.ref, C.uint64_t(mode))
}

func (e *renderCommandEncoder) SetCullMode(mode mtl.CullMode) {
	C.mtlRenderEncSetCullMode(e.ref, C.uint64_t(mode))
}

func (e *renderCommandEncoder) SetFrontFacingWinding(winding mtl.Winding) {
	C.mtlRenderEncSetFrontFacingWinding(e.ref, C.uint64_t(winding))
}

func (e *renderCommandEncoder) SetStencilReferenceValue(value uint32) {
	C.mtlRenderEncSetStencilReference(e.ref, C.uint32_t(value))
}

func (e *renderCommandEncoder) SetTriangleFillMode(mode mtl.TriangleFillMode) {
	C.mtlRenderEncSetTriangleFillMode(e.ref, C.uint64_t(mode))
}

func (e *renderCommandEncoder) SetViewports(viewports []mtl.Viewport) {
	if len(viewports) == 0 {
		return
	}
	cViewports := make([]C.mtlViewport, len(viewports))
	for i, v := range viewports {
		cViewports[i] = C.mtlViewport{
			originX: C.double(v.OriginX),
			originY: C.double(v.OriginY),
			width:   C.double(v.Width),
			height:  C.double(v.Height),
			znear:   C.double(v.ZNear),
			zfar:    C.double(v.ZFar),
		}
	}
	C.mtlRenderEncSetViewports(e.ref, &cViewports[0], C.uint64_t(len(cViewports)))
}

func (e *renderCommandEncoder) SetScissorRects(rects []mtl.ScissorRect) {
	if len(rects) == 0 {
		return
	}
	cRects := make([]C.mtlScissorRect, len(rects))
	for i, r := range rects {
		cRects[i] = C.mtlScissorRect{x: C.uint64_t(r.X), y: C.uint64_t(r.Y), width: C.uint64_t(r.Width), height: C.uint64_t(r.Height)}
	}
	C.mtlRenderEncSetScissorRects(e.ref, &cRects[0], C.uint64_t(len(cRects)))
}

func (e *renderCommandEncoder) SetDepthBias(depthBias, slopeScale, clamp float32) {
	C.mtlRenderEncSetDepthBias(e.ref, C.float(depthBias), C.float(slopeScale), C.float(clamp))
}

func (e *renderCommandEncoder) SetVertexBuffer(buffer mtl.Buffer, offset, index uint64) {
	C.mtlRenderEncSetVertexBuffer(e.ref, refOf(buffer), C.uint64_t(offset), C.uint64_t(index))
}

func (e *renderCommandEncoder) SetVertexBytes(data []byte, index uint64) {
	ptr, length := bytesOf(data)
	C.mtlRenderEncSetVertexBytes(e.ref, ptr, length, C.uint64_t(index))
}

func (e *renderCommandEncoder) SetFragmentBuffer(buffer mtl.Buffer, offset, index uint64) {
	C.mtlRenderEncSetFragmentBuffer(e.ref, refOf(buffer), C.uint64_t(offset), C.uint64_t(index))
}

func (e *renderCommandEncoder) SetFragmentBytes(data []byte, index uint64) {
	ptr, length := bytesOf(data)
	C.mtlRenderEncSetFragmentBytes(e.ref, ptr, length, C.uint64_t(index))
}

func (e *renderCommandEncoder) DrawPrimitives(primitive mtl.PrimitiveType, vertexStart, vertexCount, instanceCount, baseInstance uint64) {
	C.mtlRenderEncDraw(e.ref, C.uint64_t(primitive), C.uint64_t(vertexStart), C.uint64_t(vertexCount),
		C.uint64_t(instanceCount), C.uint64_t(baseInstance))
}

func (e *renderCommandEncoder) DrawIndexedPrimitives(primitive mtl.PrimitiveType, indexCount uint64, indexType mtl.IndexType, indexBuffer mtl.Buffer,
	indexBufferOffset, instanceCount uint64, baseVertex int64, baseInstance uint64,
) {
	C.mtlRenderEncDrawIndexed(e.ref, C.uint64_t(primitive), C.uint64_t(indexCount), C.uint64_t(indexType),
		refOf(indexBuffer), C.uint64_t(indexBufferOffset), C.uint64_t(instanceCount), C.int64_t(baseVertex), C.uint64_t(baseInstance))
}

func (e *renderCommandEncoder) UseResource(resource mtl.Resource, usage mtl.ResourceUsage, stages mtl.RenderStages) {
	C.mtlRenderEncUseResource(e.ref, refOf(resource), C.uint64_t(usage), C.uint64_t(stages))
}

func (e *renderCommandEncoder) WaitForFence(f mtl.Fence, stages mtl.RenderStages) {
	C.mtlRenderEncWaitForFence(e.ref, refOf(f), C.uint64_t(stages))
}

func (e *renderCommandEncoder) UpdateFence(f mtl.Fence, stages mtl.RenderStages) {
	C.mtlRenderEncUpdateFence(e.ref, refOf(f), C.uint64_t(stages))
}

type computeCommandEncoder struct {
	commandEncoder
}

var _ mtl.ComputeCommandEncoder = (*computeCommandEncoder)(nil)

func (e *computeCommandEncoder) SetComputePipelineState(p mtl.ComputePipelineState) {
	C.mtlComputeEncSetPipeline(e.ref, refOf(p))
}

func (e *computeCommandEncoder) SetBuffer(buffer mtl.Buffer, offset, index uint64) {
	C.mtlComputeEncSetBuffer(e.ref, refOf(buffer), C.uint64_t(offset), C.uint64_t(index))
}

func (e *computeCommandEncoder) SetBytes(data []byte, index uint64) {
	ptr, length := bytesOf(data)
	C.mtlComputeEncSetBytes(e.ref, ptr, length, C.uint64_t(index))
}

func (e *computeCommandEncoder) SetTexture(texture mtl.Texture, index uint64) {
	C.mtlComputeEncSetTexture(e.ref, refOf(texture), C.uint64_t(index))
}

func (e *computeCommandEncoder) DispatchThreadgroups(threadgroups, threadsPerThreadgroup mtl.Size) {
	C.mtlComputeEncDispatch(e.ref,
		C.uint64_t(threadgroups.Width), C.uint64_t(threadgroups.Height), C.uint64_t(threadgroups.Depth),
		C.uint64_t(threadsPerThreadgroup.Width), C.uint64_t(threadsPerThreadgroup.Height), C.uint64_t(threadsPerThreadgroup.Depth))
}

func (e *computeCommandEncoder) UseResource(resource mtl.Resource, usage mtl.ResourceUsage) {
	C.mtlComputeEncUseResource(e.ref, refOf(resource), C.uint64_t(usage))
}

func (e *computeCommandEncoder) WaitForFence(f mtl.Fence) {
	C.mtlComputeEncWaitForFence(e.ref, refOf(f))
}

func (e *computeCommandEncoder) UpdateFence(f mtl.Fence) {
	C.mtlComputeEncUpdateFence(e.ref, refOf(f))
}

type blitCommandEncoder struct {
	commandEncoder
}

var _ mtl.BlitCommandEncoder = (*blitCommandEncoder)(nil)

func sizeOf(s mtl.Size) [3]C.uint64_t {
	return [3]C.uint64_t{C.uint64_t(s.Width), C.uint64_t(s.Height), C.uint64_t(s.Depth)}
}

func originOf(o mtl.Origin) [3]C.uint64_t {
	return [3]C.uint64_t{C.uint64_t(o.X), C.uint64_t(o.Y), C.uint64_t(o.Z)}
}

func (e *blitCommandEncoder) CopyFromBuffer(src mtl.Buffer, srcOffset uint64, dst mtl.Buffer, dstOffset uint64, size uint64) {
	C.mtlBlitEncCopyBuffer(e.ref, refOf(src), C.uint64_t(srcOffset), refOf(dst), C.uint64_t(dstOffset), C.uint64_t(size))
}

func (e *blitCommandEncoder) CopyFromBufferToTexture(src mtl.Buffer, srcOffset, srcBytesPerRow, srcBytesPerImage uint64, srcSize mtl.Size,
	dst mtl.Texture, dstSlice, dstLevel uint64, dstOrigin mtl.Origin,
) {
	size := sizeOf(srcSize)
	origin := originOf(dstOrigin)
	C.mtlBlitEncCopyBufferToTexture(e.ref, refOf(src), C.uint64_t(srcOffset), C.uint64_t(srcBytesPerRow),
		C.uint64_t(srcBytesPerImage), &size[0], refOf(dst), C.uint64_t(dstSlice), C.uint64_t(dstLevel), &origin[0])
}

func (e *blitCommandEncoder) CopyFromTexture(src mtl.Texture, srcSlice, srcLevel uint64, srcOrigin mtl.Origin, srcSize mtl.Size,
	dst mtl.Texture, dstSlice, dstLevel uint64, dstOrigin mtl.Origin,
) {
	from := originOf(srcOrigin)
	size := sizeOf(srcSize)
	to := originOf(dstOrigin)
	C.mtlBlitEncCopyTextureRegion(e.ref, refOf(src), C.uint64_t(srcSlice), C.uint64_t(srcLevel), &from[0], &size[0],
		refOf(dst), C.uint64_t(dstSlice), C.uint64_t(dstLevel), &to[0])
}

func (e *blitCommandEncoder) CopyTexture(src, dst mtl.Texture) {
	C.mtlBlitEncCopyTexture(e.ref, refOf(src), refOf(dst))
}

func (e *blitCommandEncoder) WaitForFence(f mtl.Fence) {
	C.mtlBlitEncWaitForFence(e.ref, refOf(f))
}

func (e *blitCommandEncoder) UpdateFence(f mtl.Fence) {
	C.mtlBlitEncUpdateFence(e.ref, refOf(f))
}
