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

package mtl

type Size struct {
	Width  uint64
	Height uint64
	Depth  uint64
}

type Origin struct {
	X uint64
	Y uint64
	Z uint64
}

type Range struct {
	Location uint64
	Length   uint64
}

type Viewport struct {
	OriginX float64
	OriginY float64
	Width   float64
	Height  float64
	ZNear   float64
	ZFar    float64
}

type ScissorRect struct {
	X      uint64
	Y      uint64
	Width  uint64
	Height uint64
}

type SamplePosition struct {
	X float32
	Y float32
}

type ClearColor struct {
	Red   float64
	Green float64
	Blue  float64
	Alpha float64
}

type FunctionConstantValue struct {
	Index uint64
	Value uint32
}

type TextureDescriptor struct {
	TextureType      TextureType
	PixelFormat      PixelFormat
	Width            uint64
	Height           uint64
	Depth            uint64
	MipmapLevelCount uint64
	ArrayLength      uint64
	SampleCount      uint64
	StorageMode      StorageMode
	Usage            TextureUsage
}

type SamplerDescriptor struct {
	Label                  string
	MinFilter              SamplerMinMagFilter
	MagFilter              SamplerMinMagFilter
	MipFilter              SamplerMipFilter
	SAddressMode           SamplerAddressMode
	TAddressMode           SamplerAddressMode
	RAddressMode           SamplerAddressMode
	MaxAnisotropy          uint64
	CompareFunction        CompareFunction
	LodMinClamp            float32
	LodMaxClamp            float32
	BorderColor            SamplerBorderColor
	SupportArgumentBuffers bool
}

type StencilDescriptor struct {
	StencilCompareFunction    CompareFunction
	StencilFailureOperation   StencilOperation
	DepthFailureOperation     StencilOperation
	DepthStencilPassOperation StencilOperation
	ReadMask                  uint32
	WriteMask                 uint32
}

type DepthStencilDescriptor struct {
	Label                string
	DepthCompareFunction CompareFunction
	DepthWriteEnabled    bool
	FrontFaceStencil     *StencilDescriptor
	BackFaceStencil      *StencilDescriptor
}

type ArgumentDescriptor struct {
	DataType    DataType
	Index       uint64
	ArrayLength uint64
	Access      BindingAccess
	TextureType TextureType
}

type VertexBufferLayoutDescriptor struct {
	Stride       uint64
	StepFunction VertexStepFunction
	StepRate     uint64
}

type VertexAttributeDescriptor struct {
	Format      VertexFormat
	Offset      uint64
	BufferIndex uint64
}

type VertexDescriptor struct {
	// Layouts and Attributes are keyed by buffer index and attribute location.
	Layouts    map[uint64]VertexBufferLayoutDescriptor
	Attributes map[uint64]VertexAttributeDescriptor
}

type RenderPipelineColorAttachmentDescriptor struct {
	PixelFormat                 PixelFormat
	BlendingEnabled             bool
	SourceRGBBlendFactor        BlendFactor
	DestinationRGBBlendFactor   BlendFactor
	RGBBlendOperation           BlendOperation
	SourceAlphaBlendFactor      BlendFactor
	DestinationAlphaBlendFactor BlendFactor
	AlphaBlendOperation         BlendOperation
	WriteMask                   ColorWriteMask
}

type RenderPipelineDescriptor struct {
	Label                        string
	VertexFunction               Function
	FragmentFunction             Function
	VertexDescriptor             *VertexDescriptor
	ColorAttachments             []RenderPipelineColorAttachmentDescriptor
	DepthAttachmentPixelFormat   PixelFormat
	StencilAttachmentPixelFormat PixelFormat
	RasterSampleCount            uint64
	AlphaToCoverageEnabled       bool
	InputPrimitiveTopology       PrimitiveTopologyClass
}

type RenderPassColorAttachmentDescriptor struct {
	Texture        Texture
	ResolveTexture Texture
	LoadAction     LoadAction
	StoreAction    StoreAction
	ClearColor     ClearColor
}

type RenderPassDepthAttachmentDescriptor struct {
	Texture     Texture
	LoadAction  LoadAction
	StoreAction StoreAction
	ClearDepth  float64
}

type RenderPassStencilAttachmentDescriptor struct {
	Texture      Texture
	LoadAction   LoadAction
	StoreAction  StoreAction
	ClearStencil uint32
}

type RenderPassDescriptor struct {
	ColorAttachments  []RenderPassColorAttachmentDescriptor
	DepthAttachment   *RenderPassDepthAttachmentDescriptor
	StencilAttachment *RenderPassStencilAttachmentDescriptor
	SamplePositions   []SamplePosition
}
