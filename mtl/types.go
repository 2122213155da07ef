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

type PixelFormat uint64

const (
	PixelFormatInvalid PixelFormat = 0

	PixelFormatR8Unorm PixelFormat = 10
	PixelFormatR8Snorm PixelFormat = 12
	PixelFormatR8Uint  PixelFormat = 13
	PixelFormatR8Sint  PixelFormat = 14

	PixelFormatR16Unorm PixelFormat = 20
	PixelFormatR16Snorm PixelFormat = 22
	PixelFormatR16Uint  PixelFormat = 23
	PixelFormatR16Sint  PixelFormat = 24
	PixelFormatR16Float PixelFormat = 25

	PixelFormatRG8Unorm PixelFormat = 30
	PixelFormatRG8Snorm PixelFormat = 32
	PixelFormatRG8Uint  PixelFormat = 33
	PixelFormatRG8Sint  PixelFormat = 34

	PixelFormatR32Uint  PixelFormat = 53
	PixelFormatR32Sint  PixelFormat = 54
	PixelFormatR32Float PixelFormat = 55

	PixelFormatRG16Unorm PixelFormat = 60
	PixelFormatRG16Snorm PixelFormat = 62
	PixelFormatRG16Uint  PixelFormat = 63
	PixelFormatRG16Sint  PixelFormat = 64
	PixelFormatRG16Float PixelFormat = 65

	PixelFormatRGBA8Unorm PixelFormat = 70
	PixelFormatRGBA8Snorm PixelFormat = 72
	PixelFormatRGBA8Uint  PixelFormat = 73
	PixelFormatRGBA8Sint  PixelFormat = 74

	PixelFormatBGRA8Unorm PixelFormat = 80

	PixelFormatRG32Uint  PixelFormat = 103
	PixelFormatRG32Sint  PixelFormat = 104
	PixelFormatRG32Float PixelFormat = 105

	PixelFormatRGBA16Unorm PixelFormat = 110
	PixelFormatRGBA16Snorm PixelFormat = 112
	PixelFormatRGBA16Uint  PixelFormat = 113
	PixelFormatRGBA16Sint  PixelFormat = 114
	PixelFormatRGBA16Float PixelFormat = 115

	PixelFormatRGBA32Uint  PixelFormat = 123
	PixelFormatRGBA32Sint  PixelFormat = 124
	PixelFormatRGBA32Float PixelFormat = 125

	PixelFormatBC1RGBA            PixelFormat = 130
	PixelFormatBC1RGBA_sRGB       PixelFormat = 131
	PixelFormatBC2RGBA            PixelFormat = 132
	PixelFormatBC2RGBA_sRGB       PixelFormat = 133
	PixelFormatBC3RGBA            PixelFormat = 134
	PixelFormatBC3RGBA_sRGB       PixelFormat = 135
	PixelFormatBC4_RUnorm         PixelFormat = 140
	PixelFormatBC4_RSnorm         PixelFormat = 141
	PixelFormatBC5_RGUnorm        PixelFormat = 142
	PixelFormatBC5_RGSnorm        PixelFormat = 143
	PixelFormatBC6H_RGBFloat      PixelFormat = 150
	PixelFormatBC6H_RGBUfloat     PixelFormat = 151
	PixelFormatBC7_RGBAUnorm      PixelFormat = 152
	PixelFormatBC7_RGBAUnorm_sRGB PixelFormat = 153

	PixelFormatDepth16Unorm          PixelFormat = 250
	PixelFormatDepth32Float          PixelFormat = 252
	PixelFormatDepth32Float_Stencil8 PixelFormat = 260
)

type VertexFormat uint64

const (
	VertexFormatInvalid               VertexFormat = 0
	VertexFormatUChar2                VertexFormat = 1
	VertexFormatUChar4                VertexFormat = 3
	VertexFormatChar2                 VertexFormat = 4
	VertexFormatChar4                 VertexFormat = 6
	VertexFormatUChar2Normalized      VertexFormat = 7
	VertexFormatUChar4Normalized      VertexFormat = 9
	VertexFormatChar2Normalized       VertexFormat = 10
	VertexFormatChar4Normalized       VertexFormat = 12
	VertexFormatUShort2               VertexFormat = 13
	VertexFormatUShort4               VertexFormat = 15
	VertexFormatShort2                VertexFormat = 16
	VertexFormatShort4                VertexFormat = 18
	VertexFormatUShort2Normalized     VertexFormat = 19
	VertexFormatUShort4Normalized     VertexFormat = 21
	VertexFormatShort2Normalized      VertexFormat = 22
	VertexFormatShort4Normalized      VertexFormat = 24
	VertexFormatHalf2                 VertexFormat = 25
	VertexFormatHalf4                 VertexFormat = 27
	VertexFormatFloat                 VertexFormat = 28
	VertexFormatFloat2                VertexFormat = 29
	VertexFormatFloat3                VertexFormat = 30
	VertexFormatFloat4                VertexFormat = 31
	VertexFormatInt                   VertexFormat = 32
	VertexFormatInt2                  VertexFormat = 33
	VertexFormatInt3                  VertexFormat = 34
	VertexFormatInt4                  VertexFormat = 35
	VertexFormatUInt                  VertexFormat = 36
	VertexFormatUInt2                 VertexFormat = 37
	VertexFormatUInt3                 VertexFormat = 38
	VertexFormatUInt4                 VertexFormat = 39
	VertexFormatUChar4Normalized_BGRA VertexFormat = 42
	VertexFormatUChar                 VertexFormat = 45
	VertexFormatChar                  VertexFormat = 46
	VertexFormatUCharNormalized       VertexFormat = 47
	VertexFormatCharNormalized        VertexFormat = 48
	VertexFormatUShort                VertexFormat = 49
	VertexFormatShort                 VertexFormat = 50
	VertexFormatUShortNormalized      VertexFormat = 51
	VertexFormatShortNormalized       VertexFormat = 52
	VertexFormatHalf                  VertexFormat = 53
)

type IndexType uint64

const (
	IndexTypeUInt16 IndexType = 0
	IndexTypeUInt32 IndexType = 1
)

type StorageMode uint64

const (
	StorageModeShared     StorageMode = 0
	StorageModeManaged    StorageMode = 1
	StorageModePrivate    StorageMode = 2
	StorageModeMemoryless StorageMode = 3
)

type ResourceOptions uint64

const (
	ResourceStorageModeShift = 4

	ResourceCPUCacheModeDefaultCache    ResourceOptions = 0
	ResourceCPUCacheModeWriteCombined   ResourceOptions = 1
	ResourceStorageModeShared           ResourceOptions = ResourceOptions(StorageModeShared) << ResourceStorageModeShift
	ResourceStorageModeManaged          ResourceOptions = ResourceOptions(StorageModeManaged) << ResourceStorageModeShift
	ResourceStorageModePrivate          ResourceOptions = ResourceOptions(StorageModePrivate) << ResourceStorageModeShift
	ResourceHazardTrackingModeUntracked ResourceOptions = 1 << 8
)

func (o ResourceOptions) StorageMode() StorageMode {
	return StorageMode((o >> ResourceStorageModeShift) & 0xF)
}

type TextureType uint64

const (
	TextureType1D                 TextureType = 0
	TextureType1DArray            TextureType = 1
	TextureType2D                 TextureType = 2
	TextureType2DArray            TextureType = 3
	TextureType2DMultisample      TextureType = 4
	TextureTypeCube               TextureType = 5
	TextureTypeCubeArray          TextureType = 6
	TextureType3D                 TextureType = 7
	TextureType2DMultisampleArray TextureType = 8
	TextureTypeTextureBuffer      TextureType = 9
)

type TextureUsage uint64

const (
	TextureUsageUnknown         TextureUsage = 0
	TextureUsageShaderRead      TextureUsage = 1 << 0
	TextureUsageShaderWrite     TextureUsage = 1 << 1
	TextureUsageRenderTarget    TextureUsage = 1 << 2
	TextureUsagePixelFormatView TextureUsage = 1 << 4
)

type TextureSwizzle uint8

const (
	TextureSwizzleZero  TextureSwizzle = 0
	TextureSwizzleOne   TextureSwizzle = 1
	TextureSwizzleRed   TextureSwizzle = 2
	TextureSwizzleGreen TextureSwizzle = 3
	TextureSwizzleBlue  TextureSwizzle = 4
	TextureSwizzleAlpha TextureSwizzle = 5
)

type TextureSwizzleChannels struct {
	Red   TextureSwizzle
	Green TextureSwizzle
	Blue  TextureSwizzle
	Alpha TextureSwizzle
}

func IdentitySwizzle() TextureSwizzleChannels {
	return TextureSwizzleChannels{
		Red:   TextureSwizzleRed,
		Green: TextureSwizzleGreen,
		Blue:  TextureSwizzleBlue,
		Alpha: TextureSwizzleAlpha,
	}
}

type LoadAction uint64

const (
	LoadActionDontCare LoadAction = 0
	LoadActionLoad     LoadAction = 1
	LoadActionClear    LoadAction = 2
)

func (a LoadAction) String() string {
	switch a {
	case LoadActionDontCare:
		return "DontCare"
	case LoadActionLoad:
		return "Load"
	case LoadActionClear:
		return "Clear"
	}
	return "Unknown"
}

type StoreAction uint64

const (
	StoreActionDontCare                   StoreAction = 0
	StoreActionStore                      StoreAction = 1
	StoreActionMultisampleResolve         StoreAction = 2
	StoreActionStoreAndMultisampleResolve StoreAction = 3
)

type PrimitiveType uint64

const (
	PrimitiveTypePoint         PrimitiveType = 0
	PrimitiveTypeLine          PrimitiveType = 1
	PrimitiveTypeLineStrip     PrimitiveType = 2
	PrimitiveTypeTriangle      PrimitiveType = 3
	PrimitiveTypeTriangleStrip PrimitiveType = 4
)

type PrimitiveTopologyClass uint64

const (
	PrimitiveTopologyClassUnspecified PrimitiveTopologyClass = 0
	PrimitiveTopologyClassPoint       PrimitiveTopologyClass = 1
	PrimitiveTopologyClassLine        PrimitiveTopologyClass = 2
	PrimitiveTopologyClassTriangle    PrimitiveTopologyClass = 3
)

type CullMode uint64

const (
	CullModeNone  CullMode = 0
	CullModeFront CullMode = 1
	CullModeBack  CullMode = 2
)

type Winding uint64

const (
	WindingClockwise        Winding = 0
	WindingCounterClockwise Winding = 1
)

type DepthClipMode uint64

const (
	DepthClipModeClip  DepthClipMode = 0
	DepthClipModeClamp DepthClipMode = 1
)

type TriangleFillMode uint64

const (
	TriangleFillModeFill  TriangleFillMode = 0
	TriangleFillModeLines TriangleFillMode = 1
)

type BlendFactor uint64

const (
	BlendFactorZero                     BlendFactor = 0
	BlendFactorOne                      BlendFactor = 1
	BlendFactorSourceColor              BlendFactor = 2
	BlendFactorOneMinusSourceColor      BlendFactor = 3
	BlendFactorSourceAlpha              BlendFactor = 4
	BlendFactorOneMinusSourceAlpha      BlendFactor = 5
	BlendFactorDestinationColor         BlendFactor = 6
	BlendFactorOneMinusDestinationColor BlendFactor = 7
	BlendFactorDestinationAlpha         BlendFactor = 8
	BlendFactorOneMinusDestinationAlpha BlendFactor = 9
	BlendFactorSourceAlphaSaturated     BlendFactor = 10
	BlendFactorBlendColor               BlendFactor = 11
	BlendFactorOneMinusBlendColor       BlendFactor = 12
	BlendFactorBlendAlpha               BlendFactor = 13
	BlendFactorOneMinusBlendAlpha       BlendFactor = 14
	BlendFactorSource1Color             BlendFactor = 15
	BlendFactorOneMinusSource1Color     BlendFactor = 16
	BlendFactorSource1Alpha             BlendFactor = 17
	BlendFactorOneMinusSource1Alpha     BlendFactor = 18
)

type BlendOperation uint64

const (
	BlendOperationAdd             BlendOperation = 0
	BlendOperationSubtract        BlendOperation = 1
	BlendOperationReverseSubtract BlendOperation = 2
	BlendOperationMin             BlendOperation = 3
	BlendOperationMax             BlendOperation = 4
)

type ColorWriteMask uint64

const (
	ColorWriteMaskNone  ColorWriteMask = 0
	ColorWriteMaskAlpha ColorWriteMask = 1 << 0
	ColorWriteMaskBlue  ColorWriteMask = 1 << 1
	ColorWriteMaskGreen ColorWriteMask = 1 << 2
	ColorWriteMaskRed   ColorWriteMask = 1 << 3
	ColorWriteMaskAll   ColorWriteMask = 0xF
)

type CompareFunction uint64

const (
	CompareFunctionNever        CompareFunction = 0
	CompareFunctionLess         CompareFunction = 1
	CompareFunctionEqual        CompareFunction = 2
	CompareFunctionLessEqual    CompareFunction = 3
	CompareFunctionGreater      CompareFunction = 4
	CompareFunctionNotEqual     CompareFunction = 5
	CompareFunctionGreaterEqual CompareFunction = 6
	CompareFunctionAlways       CompareFunction = 7
)

type StencilOperation uint64

const (
	StencilOperationKeep           StencilOperation = 0
	StencilOperationZero           StencilOperation = 1
	StencilOperationReplace        StencilOperation = 2
	StencilOperationIncrementClamp StencilOperation = 3
	StencilOperationDecrementClamp StencilOperation = 4
	StencilOperationInvert         StencilOperation = 5
	StencilOperationIncrementWrap  StencilOperation = 6
	StencilOperationDecrementWrap  StencilOperation = 7
)

type SamplerMinMagFilter uint64

const (
	SamplerMinMagFilterNearest SamplerMinMagFilter = 0
	SamplerMinMagFilterLinear  SamplerMinMagFilter = 1
)

type SamplerMipFilter uint64

const (
	SamplerMipFilterNotMipmapped SamplerMipFilter = 0
	SamplerMipFilterNearest      SamplerMipFilter = 1
	SamplerMipFilterLinear       SamplerMipFilter = 2
)

type SamplerAddressMode uint64

const (
	SamplerAddressModeClampToEdge        SamplerAddressMode = 0
	SamplerAddressModeMirrorClampToEdge  SamplerAddressMode = 1
	SamplerAddressModeRepeat             SamplerAddressMode = 2
	SamplerAddressModeMirrorRepeat       SamplerAddressMode = 3
	SamplerAddressModeClampToZero        SamplerAddressMode = 4
	SamplerAddressModeClampToBorderColor SamplerAddressMode = 5
)

type SamplerBorderColor uint64

const (
	SamplerBorderColorTransparentBlack SamplerBorderColor = 0
	SamplerBorderColorOpaqueBlack      SamplerBorderColor = 1
	SamplerBorderColorOpaqueWhite      SamplerBorderColor = 2
)

type VertexStepFunction uint64

const (
	VertexStepFunctionConstant    VertexStepFunction = 0
	VertexStepFunctionPerVertex   VertexStepFunction = 1
	VertexStepFunctionPerInstance VertexStepFunction = 2
)

type DataType uint64

const (
	DataTypeNone                           DataType = 0
	DataTypeUInt                           DataType = 33
	DataTypeTexture                        DataType = 58
	DataTypeSampler                        DataType = 59
	DataTypePointer                        DataType = 60
	DataTypePrimitiveAccelerationStructure DataType = 117
)

type BindingAccess uint64

const (
	BindingAccessReadOnly  BindingAccess = 0
	BindingAccessReadWrite BindingAccess = 1
	BindingAccessWriteOnly BindingAccess = 2
)

type ResourceUsage uint64

const (
	ResourceUsageRead  ResourceUsage = 1 << 0
	ResourceUsageWrite ResourceUsage = 1 << 1
)

type RenderStages uint64

const (
	RenderStageVertex   RenderStages = 1 << 0
	RenderStageFragment RenderStages = 1 << 1
)

type GPUFamily int64

const (
	GPUFamilyApple1  GPUFamily = 1001
	GPUFamilyApple2  GPUFamily = 1002
	GPUFamilyApple3  GPUFamily = 1003
	GPUFamilyApple4  GPUFamily = 1004
	GPUFamilyApple5  GPUFamily = 1005
	GPUFamilyApple6  GPUFamily = 1006
	GPUFamilyApple7  GPUFamily = 1007
	GPUFamilyApple8  GPUFamily = 1008
	GPUFamilyApple9  GPUFamily = 1009
	GPUFamilyMac2    GPUFamily = 2002
	GPUFamilyCommon1 GPUFamily = 3001
	GPUFamilyCommon2 GPUFamily = 3002
	GPUFamilyCommon3 GPUFamily = 3003
	GPUFamilyMetal3  GPUFamily = 5001
)

type CommandBufferStatus uint64

const (
	CommandBufferStatusNotEnqueued CommandBufferStatus = 0
	CommandBufferStatusEnqueued    CommandBufferStatus = 1
	CommandBufferStatusCommitted   CommandBufferStatus = 2
	CommandBufferStatusScheduled   CommandBufferStatus = 3
	CommandBufferStatusCompleted   CommandBufferStatus = 4
	CommandBufferStatusError       CommandBufferStatus = 5
)
