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

package headless

import (
	"slices"

	"goarrg.com/rhi/mxr/mtl"
)

type EncoderKind int

const (
	EncoderKindRender EncoderKind = iota
	EncoderKindCompute
	EncoderKindBlit
)

func (k EncoderKind) String() string {
	switch k {
	case EncoderKindRender:
		return "Render"
	case EncoderKindCompute:
		return "Compute"
	case EncoderKindBlit:
		return "Blit"
	}
	return "Unknown"
}

type Op string

const (
	OpSetRenderPipelineState  Op = "SetRenderPipelineState"
	OpSetDepthStencilState    Op = "SetDepthStencilState"
	OpSetDepthClipMode        Op = "SetDepthClipMode"
	OpSetCullMode             Op = "SetCullMode"
	OpSetFrontFacingWinding   Op = "SetFrontFacingWinding"
	OpSetStencilReference     Op = "SetStencilReferenceValue"
	OpSetTriangleFillMode     Op = "SetTriangleFillMode"
	OpSetViewports            Op = "SetViewports"
	OpSetScissorRects         Op = "SetScissorRects"
	OpSetDepthBias            Op = "SetDepthBias"
	OpSetVertexBuffer         Op = "SetVertexBuffer"
	OpSetVertexBytes          Op = "SetVertexBytes"
	OpSetFragmentBuffer       Op = "SetFragmentBuffer"
	OpSetFragmentBytes        Op = "SetFragmentBytes"
	OpDrawPrimitives          Op = "DrawPrimitives"
	OpDrawIndexedPrimitives   Op = "DrawIndexedPrimitives"
	OpSetComputePipelineState Op = "SetComputePipelineState"
	OpSetBuffer               Op = "SetBuffer"
	OpSetBytes                Op = "SetBytes"
	OpSetTexture              Op = "SetTexture"
	OpDispatchThreadgroups    Op = "DispatchThreadgroups"
	OpCopyFromBuffer          Op = "CopyFromBuffer"
	OpCopyFromBufferToTexture Op = "CopyFromBufferToTexture"
	OpCopyFromTexture         Op = "CopyFromTexture"
	OpCopyTexture             Op = "CopyTexture"
	OpUseResource             Op = "UseResource"
	OpWaitForFence            Op = "WaitForFence"
	OpUpdateFence             Op = "UpdateFence"
	OpPushDebugGroup          Op = "PushDebugGroup"
	OpPopDebugGroup           Op = "PopDebugGroup"
)

type Call struct {
	Op   Op
	Args []any
}

// Arg returns the i'th argument of the call.
func (c Call) Arg(i int) any {
	return c.Args[i]
}

type Encoder struct {
	Kind  EncoderKind
	Label string
	// Pass is the render pass the encoder was opened with, nil for compute and blit encoders.
	Pass  *mtl.RenderPassDescriptor
	Ended bool

	cb     *CommandBuffer
	calls  []Call
	groups int
}

func (e *Encoder) record(op Op, args ...any) {
	if e.Ended {
		abort("%s called on ended %s encoder %q", op, e.Kind, e.Label)
	}
	e.calls = append(e.calls, Call{Op: op, Args: args})
}

func (e *Encoder) SetLabel(l string) {
	e.Label = l
}

func (e *Encoder) EndEncoding() {
	if e.Ended {
		abort("EndEncoding called twice on %s encoder %q", e.Kind, e.Label)
	}
	if e.groups != 0 {
		abort("%s encoder %q ended with %d open debug groups", e.Kind, e.Label, e.groups)
	}
	e.Ended = true
	e.cb.endEncoder(e)
}

func (e *Encoder) PushDebugGroup(name string) {
	e.record(OpPushDebugGroup, name)
	e.groups++
}

func (e *Encoder) PopDebugGroup() {
	if e.groups == 0 {
		abort("PopDebugGroup without matching push")
	}
	e.record(OpPopDebugGroup)
	e.groups--
}

// Calls returns every recorded call, or only those with the given ops.
func (e *Encoder) Calls(ops ...Op) []Call {
	if len(ops) == 0 {
		return slices.Clone(e.calls)
	}
	var ret []Call
	for _, c := range e.calls {
		if slices.Contains(ops, c.Op) {
			ret = append(ret, c)
		}
	}
	return ret
}

// Count returns how many times op was recorded.
func (e *Encoder) Count(op Op) int {
	n := 0
	for _, c := range e.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func checkLive(resource mtl.Resource) {
	if r, ok := resource.(interface{ Released() bool }); ok && r.Released() {
		abort("UseResource called with a released resource")
	}
}

type RenderEncoder struct {
	*Encoder
}

var _ mtl.RenderCommandEncoder = (*RenderEncoder)(nil)

func (e *RenderEncoder) SetRenderPipelineState(s mtl.RenderPipelineState) {
	if s == nil {
		abort("SetRenderPipelineState called with nil")
	}
	e.record(OpSetRenderPipelineState, s)
}

func (e *RenderEncoder) SetDepthStencilState(s mtl.DepthStencilState) {
	e.record(OpSetDepthStencilState, s)
}

func (e *RenderEncoder) SetDepthClipMode(m mtl.DepthClipMode) {
	e.record(OpSetDepthClipMode, m)
}

func (e *RenderEncoder) SetCullMode(m mtl.CullMode) {
	e.record(OpSetCullMode, m)
}

func (e *RenderEncoder) SetFrontFacingWinding(w mtl.Winding) {
	e.record(OpSetFrontFacingWinding, w)
}

func (e *RenderEncoder) SetStencilReferenceValue(v uint32) {
	e.record(OpSetStencilReference, v)
}

func (e *RenderEncoder) SetTriangleFillMode(m mtl.TriangleFillMode) {
	e.record(OpSetTriangleFillMode, m)
}

func (e *RenderEncoder) SetViewports(v []mtl.Viewport) {
	e.record(OpSetViewports, slices.Clone(v))
}

func (e *RenderEncoder) SetScissorRects(r []mtl.ScissorRect) {
	if e.Pass != nil && len(e.Pass.ColorAttachments) > 0 && e.Pass.ColorAttachments[0].Texture != nil {
		t := e.Pass.ColorAttachments[0].Texture
		for _, s := range r {
			if s.X+s.Width > t.Width() || s.Y+s.Height > t.Height() {
				abort("Scissor rect %+v outside of render target %dx%d", s, t.Width(), t.Height())
			}
		}
	}
	e.record(OpSetScissorRects, slices.Clone(r))
}

func (e *RenderEncoder) SetDepthBias(depthBias, slopeScale, clamp float32) {
	e.record(OpSetDepthBias, depthBias, slopeScale, clamp)
}

func (e *RenderEncoder) SetVertexBuffer(buffer mtl.Buffer, offset, index uint64) {
	e.record(OpSetVertexBuffer, buffer, offset, index)
}

func (e *RenderEncoder) SetVertexBytes(data []byte, index uint64) {
	if len(data) > 4096 {
		abort("SetVertexBytes called with %d bytes", len(data))
	}
	e.record(OpSetVertexBytes, slices.Clone(data), index)
}

func (e *RenderEncoder) SetFragmentBuffer(buffer mtl.Buffer, offset, index uint64) {
	e.record(OpSetFragmentBuffer, buffer, offset, index)
}

func (e *RenderEncoder) SetFragmentBytes(data []byte, index uint64) {
	if len(data) > 4096 {
		abort("SetFragmentBytes called with %d bytes", len(data))
	}
	e.record(OpSetFragmentBytes, slices.Clone(data), index)
}

func (e *RenderEncoder) DrawPrimitives(primitive mtl.PrimitiveType, vertexStart, vertexCount, instanceCount, baseInstance uint64) {
	e.record(OpDrawPrimitives, primitive, vertexStart, vertexCount, instanceCount, baseInstance)
}

func (e *RenderEncoder) DrawIndexedPrimitives(primitive mtl.PrimitiveType, indexCount uint64, indexType mtl.IndexType, indexBuffer mtl.Buffer,
	indexBufferOffset, instanceCount uint64, baseVertex int64, baseInstance uint64,
) {
	if indexBuffer == nil {
		abort("DrawIndexedPrimitives called without an index buffer")
	}
	e.record(OpDrawIndexedPrimitives, primitive, indexCount, indexType, indexBuffer, indexBufferOffset, instanceCount, baseVertex, baseInstance)
}

func (e *RenderEncoder) UseResource(resource mtl.Resource, usage mtl.ResourceUsage, stages mtl.RenderStages) {
	checkLive(resource)
	e.record(OpUseResource, resource, usage, stages)
}

func (e *RenderEncoder) WaitForFence(fence mtl.Fence, stages mtl.RenderStages) {
	e.record(OpWaitForFence, fence, stages)
}

func (e *RenderEncoder) UpdateFence(fence mtl.Fence, stages mtl.RenderStages) {
	e.record(OpUpdateFence, fence, stages)
}

type ComputeEncoder struct {
	*Encoder
}

var _ mtl.ComputeCommandEncoder = (*ComputeEncoder)(nil)

func (e *ComputeEncoder) SetComputePipelineState(s mtl.ComputePipelineState) {
	if s == nil {
		abort("SetComputePipelineState called with nil")
	}
	e.record(OpSetComputePipelineState, s)
}

func (e *ComputeEncoder) SetBuffer(buffer mtl.Buffer, offset, index uint64) {
	e.record(OpSetBuffer, buffer, offset, index)
}

func (e *ComputeEncoder) SetBytes(data []byte, index uint64) {
	if len(data) > 4096 {
		abort("SetBytes called with %d bytes", len(data))
	}
	e.record(OpSetBytes, slices.Clone(data), index)
}

func (e *ComputeEncoder) SetTexture(texture mtl.Texture, index uint64) {
	e.record(OpSetTexture, texture, index)
}

func (e *ComputeEncoder) DispatchThreadgroups(threadgroups, threadsPerThreadgroup mtl.Size) {
	if threadsPerThreadgroup.Width*threadsPerThreadgroup.Height*threadsPerThreadgroup.Depth > 1024 {
		abort("Thread group size %+v exceeds 1024 threads", threadsPerThreadgroup)
	}
	e.record(OpDispatchThreadgroups, threadgroups, threadsPerThreadgroup)
}

func (e *ComputeEncoder) UseResource(resource mtl.Resource, usage mtl.ResourceUsage) {
	checkLive(resource)
	e.record(OpUseResource, resource, usage)
}

func (e *ComputeEncoder) WaitForFence(fence mtl.Fence) {
	e.record(OpWaitForFence, fence)
}

func (e *ComputeEncoder) UpdateFence(fence mtl.Fence) {
	e.record(OpUpdateFence, fence)
}

type BlitEncoder struct {
	*Encoder
}

var _ mtl.BlitCommandEncoder = (*BlitEncoder)(nil)

func (e *BlitEncoder) CopyFromBuffer(src mtl.Buffer, srcOffset uint64, dst mtl.Buffer, dstOffset uint64, size uint64) {
	if srcOffset+size > src.Length() || dstOffset+size > dst.Length() {
		abort("CopyFromBuffer of %d bytes out of bounds", size)
	}
	if s, d := src.Contents(), dst.Contents(); s != nil && d != nil {
		copy(d[dstOffset:dstOffset+size], s[srcOffset:srcOffset+size])
	}
	e.record(OpCopyFromBuffer, src, srcOffset, dst, dstOffset, size)
}

func (e *BlitEncoder) CopyFromBufferToTexture(src mtl.Buffer, srcOffset, srcBytesPerRow, srcBytesPerImage uint64, srcSize mtl.Size,
	dst mtl.Texture, dstSlice, dstLevel uint64, dstOrigin mtl.Origin,
) {
	e.record(OpCopyFromBufferToTexture, src, srcOffset, srcBytesPerRow, srcBytesPerImage, srcSize, dst, dstSlice, dstLevel, dstOrigin)
}

func (e *BlitEncoder) CopyFromTexture(src mtl.Texture, srcSlice, srcLevel uint64, srcOrigin mtl.Origin, srcSize mtl.Size,
	dst mtl.Texture, dstSlice, dstLevel uint64, dstOrigin mtl.Origin,
) {
	e.record(OpCopyFromTexture, src, srcSlice, srcLevel, srcOrigin, srcSize, dst, dstSlice, dstLevel, dstOrigin)
}

func (e *BlitEncoder) CopyTexture(src, dst mtl.Texture) {
	e.record(OpCopyTexture, src, dst)
}

func (e *BlitEncoder) WaitForFence(fence mtl.Fence) {
	e.record(OpWaitForFence, fence)
}

func (e *BlitEncoder) UpdateFence(fence mtl.Fence) {
	e.record(OpUpdateFence, fence)
}
