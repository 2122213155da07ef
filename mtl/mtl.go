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

/*
Package mtl describes the subset of the Metal object model mxr is built on.

Every native object is an interface so that mxr can run on the Metal binding in
mtl/metal as well as on the recording device in mtl/headless. Enum values match
the values of the native Metal enums so bindings can pass them through unchanged.
*/
package mtl

type Driver interface {
	Devices() []Device
	DefaultDevice() Device
}

type Releaser interface {
	Release()
}

// Resource is released once every Retain has been matched by a Release.
type Resource interface {
	Releaser
	Retain()
	SetLabel(string)
	StorageMode() StorageMode
}

type Device interface {
	Releaser

	Name() string
	SupportsFamily(GPUFamily) bool
	HasUnifiedMemory() bool
	RecommendedMaxWorkingSetSize() uint64
	SupportsTextureSampleCount(count uint64) bool
	ProgrammableSamplePositionsSupported() bool
	MinimumLinearTextureAlignmentForPixelFormat(PixelFormat) uint64

	NewCommandQueue() CommandQueue
	NewBuffer(length uint64, options ResourceOptions) Buffer
	NewTexture(TextureDescriptor) Texture
	NewSamplerState(SamplerDescriptor) SamplerState
	NewDepthStencilState(DepthStencilDescriptor) DepthStencilState
	NewLibraryWithSource(source string) (Library, error)
	NewLibraryWithData(data []byte) (Library, error)
	NewRenderPipelineState(*RenderPipelineDescriptor) (RenderPipelineState, error)
	NewComputePipelineState(Function) (ComputePipelineState, error)
	NewArgumentEncoder([]ArgumentDescriptor) ArgumentEncoder
	NewFence() Fence
	NewSharedEvent() SharedEvent

	StartCapture() bool
	StopCapture()
}

type Buffer interface {
	Resource

	Length() uint64
	// Contents returns the CPU visible memory of the buffer, nil for private storage.
	Contents() []byte
	DidModifyRange(offset, length uint64)
	GPUAddress() uint64
	NewTexture(desc TextureDescriptor, offset, bytesPerRow uint64) Texture
}

type Texture interface {
	Resource

	TextureType() TextureType
	PixelFormat() PixelFormat
	Width() uint64
	Height() uint64
	Depth() uint64
	MipmapLevelCount() uint64
	ArrayLength() uint64
	SampleCount() uint64
	Usage() TextureUsage
	NewTextureView(format PixelFormat, textureType TextureType, levels, slices Range, swizzle TextureSwizzleChannels) Texture
}

type SamplerState interface {
	Releaser
}

type DepthStencilState interface {
	Releaser
}

type RenderPipelineState interface {
	Releaser
}

type ComputePipelineState interface {
	Releaser
	MaxTotalThreadsPerThreadgroup() uint64
}

type Library interface {
	Releaser
	NewFunction(name string) (Function, error)
	NewFunctionWithConstants(name string, constants []FunctionConstantValue) (Function, error)
}

type Function interface {
	Releaser
	Name() string
}

type Fence interface {
	Releaser
	SetLabel(string)
}

type SharedEvent interface {
	Releaser
	SignaledValue() uint64
}

type ArgumentEncoder interface {
	Releaser

	EncodedLength() uint64
	SetArgumentBuffer(buffer Buffer, offset uint64)
	SetBuffer(buffer Buffer, offset uint64, index uint64)
	SetTexture(texture Texture, index uint64)
	SetSamplerState(sampler SamplerState, index uint64)
}

type CommandQueue interface {
	Releaser
	SetLabel(string)
	CommandBuffer() CommandBuffer
	CommandBufferWithUnretainedReferences() CommandBuffer
}

type CommandBuffer interface {
	SetLabel(string)
	Status() CommandBufferStatus

	Enqueue()
	Commit()
	WaitUntilCompleted()

	EncodeWaitForEvent(event SharedEvent, value uint64)
	EncodeSignalEvent(event SharedEvent, value uint64)
	AddScheduledHandler(func())
	AddCompletedHandler(func())

	RenderCommandEncoder(*RenderPassDescriptor) RenderCommandEncoder
	ComputeCommandEncoder() ComputeCommandEncoder
	BlitCommandEncoder() BlitCommandEncoder
}

type CommandEncoder interface {
	SetLabel(string)
	EndEncoding()
	PushDebugGroup(string)
	PopDebugGroup()
}

type RenderCommandEncoder interface {
	CommandEncoder

	SetRenderPipelineState(RenderPipelineState)
	SetDepthStencilState(DepthStencilState)
	SetDepthClipMode(DepthClipMode)
	SetCullMode(CullMode)
	SetFrontFacingWinding(Winding)
	SetStencilReferenceValue(uint32)
	SetTriangleFillMode(TriangleFillMode)
	SetViewports([]Viewport)
	SetScissorRects([]ScissorRect)
	SetDepthBias(depthBias, slopeScale, clamp float32)

	SetVertexBuffer(buffer Buffer, offset, index uint64)
	SetVertexBytes(data []byte, index uint64)
	SetFragmentBuffer(buffer Buffer, offset, index uint64)
	SetFragmentBytes(data []byte, index uint64)

	DrawPrimitives(primitive PrimitiveType, vertexStart, vertexCount, instanceCount, baseInstance uint64)
	DrawIndexedPrimitives(primitive PrimitiveType, indexCount uint64, indexType IndexType, indexBuffer Buffer,
		indexBufferOffset, instanceCount uint64, baseVertex int64, baseInstance uint64)

	UseResource(resource Resource, usage ResourceUsage, stages RenderStages)
	WaitForFence(fence Fence, stages RenderStages)
	UpdateFence(fence Fence, stages RenderStages)
}

type ComputeCommandEncoder interface {
	CommandEncoder

	SetComputePipelineState(ComputePipelineState)
	SetBuffer(buffer Buffer, offset, index uint64)
	SetBytes(data []byte, index uint64)
	SetTexture(texture Texture, index uint64)
	DispatchThreadgroups(threadgroups, threadsPerThreadgroup Size)

	UseResource(resource Resource, usage ResourceUsage)
	WaitForFence(Fence)
	UpdateFence(Fence)
}

type BlitCommandEncoder interface {
	CommandEncoder

	CopyFromBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64)
	CopyFromBufferToTexture(src Buffer, srcOffset, srcBytesPerRow, srcBytesPerImage uint64, srcSize Size,
		dst Texture, dstSlice, dstLevel uint64, dstOrigin Origin)
	CopyFromTexture(src Texture, srcSlice, srcLevel uint64, srcOrigin Origin, srcSize Size,
		dst Texture, dstSlice, dstLevel uint64, dstOrigin Origin)
	CopyTexture(src, dst Texture)

	WaitForFence(Fence)
	UpdateFence(Fence)
}

// Layer is the drawable provider of a window, a CAMetalLayer on darwin.
type Layer interface {
	SetDevice(Device)
	SetPixelFormat(PixelFormat)
	PixelFormat() PixelFormat
	SetMaximumDrawableCount(uint64)
	SetDrawableSize(width, height uint64)
	DrawableSize() (width, height uint64)
	SetDisplaySyncEnabled(bool)
	DisplaySyncEnabled() bool
	// NextDrawable returns nil when no drawable is available.
	NextDrawable() Drawable
}

type Drawable interface {
	Texture() Texture
	Present()
}
