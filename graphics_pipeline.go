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
	"fmt"

	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

type Pipeline interface {
	IsValid() bool
	Layout() *PipelineLayout
	Destroy()

	pipelineStage() PipelineStage
}

type BlendDesc struct {
	BlendEnabled   bool
	SrcBlend       BlendFactor
	DstBlend       BlendFactor
	BlendOp        BlendOp
	SrcBlendAlpha  BlendFactor
	DstBlendAlpha  BlendFactor
	BlendOpAlpha   BlendOp
	ColorWriteMask ColorComponentFlags
}

type StencilFaceDesc struct {
	FailOp      StencilOp
	DepthFailOp StencilOp
	PassOp      StencilOp
	CompareOp   CompareOp
}

type InputSlot struct {
	Index uint32
	// Stride 0 repeats the first element for every vertex.
	Stride         uint32
	Classification InputClassification
}

type InputElement struct {
	Location          uint32
	SlotIndex         uint32
	Format            Format
	AlignedByteOffset uint32
}

type GraphicsPipelineDesc struct {
	Layout         *PipelineLayout
	VertexShader   *Shader
	FragmentShader *Shader
	SpecConstants  []SpecConstant
	Topology       VertexTopology

	SampleCount     uint32
	AlphaToCoverage bool

	RenderTargetFormats []Format
	// RenderTargetBlend is indexed like RenderTargetFormats, missing entries
	// disable blending and write every component.
	RenderTargetBlend []BlendDesc
	DepthTargetFormat Format

	DepthEnabled      bool
	DepthWriteEnabled bool
	DepthFunction     CompareOp
	DepthClipEnabled  bool

	StencilEnabled   bool
	StencilFrontFace StencilFaceDesc
	StencilBackFace  StencilFaceDesc
	StencilReadMask  uint32
	StencilWriteMask uint32
	StencilReference uint32

	CullMode  CullMode
	FrontFace FrontFace

	DepthBias               int32
	DepthBiasClamp          float32
	SlopeScaledDepthBias    float32
	DynamicDepthBiasEnabled bool

	InputSlots    []InputSlot
	InputElements []InputElement
}

type depthBiasState struct {
	constant float32
	clamp    float32
	slope    float32
}

type GraphicsPipeline struct {
	noCopy util.NoCopy
	id     string
	name   string
	device *Device
	layout *PipelineLayout

	mtl           mtl.RenderPipelineState
	depthStencil  mtl.DepthStencilState
	primitiveType mtl.PrimitiveType
	cullMode      mtl.CullMode
	winding       mtl.Winding
	depthClipMode mtl.DepthClipMode
	stencilRef    uint32

	dynamicDepthBias bool
	depthBias        depthBiasState
}

var _ Pipeline = (*GraphicsPipeline)(nil)

func (desc *GraphicsPipelineDesc) validate() {
	if desc.Layout == nil {
		abort("GraphicsPipelineDesc.Layout must not be nil")
	}
	if desc.VertexShader == nil {
		abort("GraphicsPipelineDesc.VertexShader must not be nil")
	}
	if len(desc.RenderTargetFormats) > MaxColorAttachments {
		abort("GraphicsPipelineDesc has %d render targets, the maximum is %d", len(desc.RenderTargetFormats), MaxColorAttachments)
	}
	if len(desc.RenderTargetBlend) > len(desc.RenderTargetFormats) {
		abort("GraphicsPipelineDesc has more blend descriptions than render targets")
	}
	for i, f := range desc.RenderTargetFormats {
		if f == FORMAT_UNKNOWN || FormatIsDepth(f) {
			abort("GraphicsPipelineDesc.RenderTargetFormats[%d] is not a color format: %s", i, f)
		}
	}
	if desc.DepthTargetFormat != FORMAT_UNKNOWN && !FormatIsDepth(desc.DepthTargetFormat) {
		abort("GraphicsPipelineDesc.DepthTargetFormat is not a depth format: %s", desc.DepthTargetFormat)
	}
	for i, s := range desc.InputSlots {
		if s.Index >= MaxVertexBufferBindings {
			abort("GraphicsPipelineDesc.InputSlots[%d] index %d is outside of [0, %d)", i, s.Index, MaxVertexBufferBindings)
		}
	}
	for i, e := range desc.InputElements {
		if e.SlotIndex >= MaxVertexBufferBindings {
			abort("GraphicsPipelineDesc.InputElements[%d] slot %d is outside of [0, %d)", i, e.SlotIndex, MaxVertexBufferBindings)
		}
	}
}

func (desc *GraphicsPipelineDesc) vertexDescriptor() *mtl.VertexDescriptor {
	if len(desc.InputSlots) == 0 && len(desc.InputElements) == 0 {
		return nil
	}
	vd := mtl.VertexDescriptor{
		Layouts:    map[uint64]mtl.VertexBufferLayoutDescriptor{},
		Attributes: map[uint64]mtl.VertexAttributeDescriptor{},
	}
	for _, s := range desc.InputSlots {
		index := uint64(vertexBufferSlotBase + s.Index)
		if s.Stride == 0 {
			vd.Layouts[index] = mtl.VertexBufferLayoutDescriptor{
				Stride:       1,
				StepFunction: mtl.VertexStepFunctionConstant,
			}
			continue
		}
		vd.Layouts[index] = mtl.VertexBufferLayoutDescriptor{
			Stride:       uint64(s.Stride),
			StepFunction: mapVertexStepFunction(s.Classification),
			StepRate:     1,
		}
	}
	for _, e := range desc.InputElements {
		vd.Attributes[uint64(e.Location)] = mtl.VertexAttributeDescriptor{
			Format:      mapVertexFormat(e.Format),
			Offset:      uint64(e.AlignedByteOffset),
			BufferIndex: uint64(vertexBufferSlotBase + e.SlotIndex),
		}
	}
	return &vd
}

func (desc *GraphicsPipelineDesc) depthStencilDescriptor(label string) mtl.DepthStencilDescriptor {
	dsd := mtl.DepthStencilDescriptor{
		Label:                label,
		DepthCompareFunction: mtl.CompareFunctionAlways,
	}
	if desc.DepthTargetFormat == FORMAT_UNKNOWN {
		return dsd
	}

	dsd.DepthWriteEnabled = desc.DepthWriteEnabled
	if desc.DepthEnabled {
		dsd.DepthCompareFunction = mapCompareOp(desc.DepthFunction)
	}
	if desc.StencilEnabled {
		face := func(f StencilFaceDesc) *mtl.StencilDescriptor {
			return &mtl.StencilDescriptor{
				StencilCompareFunction:    mapCompareOp(f.CompareOp),
				StencilFailureOperation:   mapStencilOp(f.FailOp),
				DepthFailureOperation:     mapStencilOp(f.DepthFailOp),
				DepthStencilPassOperation: mapStencilOp(f.PassOp),
				ReadMask:                  desc.StencilReadMask,
				WriteMask:                 desc.StencilWriteMask,
			}
		}
		dsd.FrontFaceStencil = face(desc.StencilFrontFace)
		dsd.BackFaceStencil = face(desc.StencilBackFace)
	}
	return dsd
}

/*
NewGraphicsPipeline bakes every piece of fixed function state into the pipeline.
A pipeline whose native compile failed is still returned so callers can keep
their handles uniform, IsValid reports false and binding it is a contract
violation.
*/
func (d *Device) NewGraphicsPipeline(desc GraphicsPipelineDesc) *GraphicsPipeline {
	d.noCopy.Check()
	desc.validate()
	desc.SampleCount = max(desc.SampleCount, 1)

	p := GraphicsPipeline{
		device:        d,
		layout:        desc.Layout,
		primitiveType: mapPrimitiveType(desc.Topology),
		cullMode:      mapCullMode(desc.CullMode),
		winding:       mapWinding(desc.FrontFace),
		depthClipMode: mtl.DepthClipModeClamp,
	}
	if desc.DepthClipEnabled {
		p.depthClipMode = mtl.DepthClipModeClip
	}
	if desc.StencilEnabled {
		p.stencilRef = desc.StencilReference
	}
	if desc.DynamicDepthBiasEnabled {
		p.dynamicDepthBias = true
	} else if desc.DepthBias != 0 || desc.SlopeScaledDepthBias != 0 {
		p.depthBias = depthBiasState{
			constant: float32(desc.DepthBias),
			clamp:    desc.DepthBiasClamp,
			slope:    desc.SlopeScaledDepthBias,
		}
	}

	{
		fragment := "nil"
		if desc.FragmentShader != nil {
			fragment = desc.FragmentShader.name
		}
		p.name = fmt.Sprintf("[%s,%s,%s,%s]", desc.VertexShader.name, fragment, desc.Topology, jsonString(desc.SpecConstants))
		p.id = genID(desc.VertexShader.id, desc.Layout.id, p.name)
	}

	d.stats.pipelines.Add(1)
	p.noCopy.Init()

	vertexFunction, err := desc.VertexShader.createFunction(desc.SpecConstants)
	if err != nil {
		instance.logger.EPrintf("Failed to create vertex function for pipeline %s: %v", p.name, err)
		return &p
	}
	defer vertexFunction.Release()

	rpd := mtl.RenderPipelineDescriptor{
		Label:                  p.name,
		VertexFunction:         vertexFunction,
		VertexDescriptor:       desc.vertexDescriptor(),
		RasterSampleCount:      uint64(desc.SampleCount),
		AlphaToCoverageEnabled: desc.AlphaToCoverage,
		InputPrimitiveTopology: mapPrimitiveTopologyClass(desc.Topology),
	}
	if desc.FragmentShader != nil {
		fragmentFunction, err := desc.FragmentShader.createFunction(desc.SpecConstants)
		if err != nil {
			instance.logger.EPrintf("Failed to create fragment function for pipeline %s: %v", p.name, err)
			return &p
		}
		defer fragmentFunction.Release()
		rpd.FragmentFunction = fragmentFunction
	}
	for i, f := range desc.RenderTargetFormats {
		blend := BlendDesc{ColorWriteMask: ColorComponentAll}
		if i < len(desc.RenderTargetBlend) {
			blend = desc.RenderTargetBlend[i]
		}
		rpd.ColorAttachments = append(rpd.ColorAttachments, mtl.RenderPipelineColorAttachmentDescriptor{
			PixelFormat:                 mapPixelFormat(f),
			BlendingEnabled:             blend.BlendEnabled,
			SourceRGBBlendFactor:        mapBlendFactor(blend.SrcBlend),
			DestinationRGBBlendFactor:   mapBlendFactor(blend.DstBlend),
			RGBBlendOperation:           mapBlendOp(blend.BlendOp),
			SourceAlphaBlendFactor:      mapBlendFactor(blend.SrcBlendAlpha),
			DestinationAlphaBlendFactor: mapBlendFactor(blend.DstBlendAlpha),
			AlphaBlendOperation:         mapBlendOp(blend.BlendOpAlpha),
			WriteMask:                   mapColorWriteMask(blend.ColorWriteMask),
		})
	}
	if desc.DepthTargetFormat != FORMAT_UNKNOWN {
		rpd.DepthAttachmentPixelFormat = mapPixelFormat(desc.DepthTargetFormat)
		if FormatHasStencil(desc.DepthTargetFormat) {
			rpd.StencilAttachmentPixelFormat = rpd.DepthAttachmentPixelFormat
		}
	}

	p.depthStencil = d.mtl.NewDepthStencilState(desc.depthStencilDescriptor(p.name))
	p.mtl, err = d.mtl.NewRenderPipelineState(&rpd)
	if err != nil {
		instance.logger.EPrintf("Failed to create graphics pipeline %s: %v", p.name, err)
		p.mtl = nil
	}
	return &p
}

func (p *GraphicsPipeline) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"id\": %q,", p.id))
	buff.WriteString(fmt.Sprintf("\"name\": %q,", p.name))
	buff.WriteString(fmt.Sprintf("\"valid\": %t,", p.mtl != nil))
	buff.WriteString(fmt.Sprintf("\"layout\": %s,", jsonString(p.layout)))
	buff.WriteString(fmt.Sprintf("\"dynamicDepthBias\": %t", p.dynamicDepthBias))

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (p *GraphicsPipeline) IsValid() bool {
	p.noCopy.Check()
	return p.mtl != nil
}

func (p *GraphicsPipeline) Layout() *PipelineLayout {
	p.noCopy.Check()
	return p.layout
}

func (p *GraphicsPipeline) pipelineStage() PipelineStage {
	return PipelineStageGraphics
}

func (p *GraphicsPipeline) Destroy() {
	if p == nil {
		return
	}
	p.noCopy.Check()
	if p.mtl != nil {
		p.mtl.Release()
	}
	if p.depthStencil != nil {
		p.depthStencil.Release()
	}
	p.device.stats.pipelines.Add(-1)
	p.noCopy.Close()
}
