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
	"strings"

	"github.com/google/uuid"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

type TextureFlags uint32

const (
	TextureFlagRenderTarget TextureFlags = 1 << iota
	TextureFlagDepthTarget
	TextureFlagUnorderedAccess
	TextureFlagCube
)

func (f TextureFlags) HasBits(want TextureFlags) bool {
	return hasBits(f, want)
}

func (f TextureFlags) String() string {
	str := ""
	if f.HasBits(TextureFlagRenderTarget) {
		str += "RenderTarget|"
	}
	if f.HasBits(TextureFlagDepthTarget) {
		str += "DepthTarget|"
	}
	if f.HasBits(TextureFlagUnorderedAccess) {
		str += "UnorderedAccess|"
	}
	if f.HasBits(TextureFlagCube) {
		str += "Cube|"
	}
	return strings.TrimSuffix(str, "|")
}

func mapTextureUsage(f TextureFlags) mtl.TextureUsage {
	usage := mtl.TextureUsageShaderRead | mtl.TextureUsagePixelFormatView
	if f.HasBits(TextureFlagRenderTarget) || f.HasBits(TextureFlagDepthTarget) {
		usage |= mtl.TextureUsageRenderTarget
	}
	if f.HasBits(TextureFlagUnorderedAccess) {
		usage |= mtl.TextureUsageShaderWrite
	}
	return usage
}

type TextureDesc struct {
	Dimension   TextureDimension
	Format      Format
	Width       uint32
	Height      uint32
	Depth       uint32
	MipLevels   uint32
	ArraySize   uint32
	SampleCount uint32
	Flags       TextureFlags
}

func (desc *TextureDesc) setDefaults() {
	desc.Height = max(desc.Height, 1)
	desc.Depth = max(desc.Depth, 1)
	desc.MipLevels = max(desc.MipLevels, 1)
	desc.ArraySize = max(desc.ArraySize, 1)
	desc.SampleCount = max(desc.SampleCount, 1)
}

type Texture struct {
	noCopy util.NoCopy
	device *Device
	desc   TextureDesc
	mtl    mtl.Texture

	// drawable textures belong to a SwapChain and are released by it.
	drawable      bool
	barrierStages PipelineStage
}

func (d *Device) NewTexture(desc TextureDesc) *Texture {
	d.noCopy.Check()
	desc.setDefaults()
	if desc.Width == 0 {
		abort("Texture width must be > 0")
	}
	if desc.Format == FORMAT_UNKNOWN {
		abort("Texture format must not be FORMAT_UNKNOWN")
	}

	usage := mapTextureUsage(desc.Flags)
	if desc.SampleCount == 1 && hasBits(usage, mtl.TextureUsageRenderTarget) {
		usage |= mtl.TextureUsageShaderWrite
	}

	t := Texture{
		device: d,
		desc:   desc,
		mtl: d.mtl.NewTexture(mtl.TextureDescriptor{
			TextureType:      mapTextureType(desc.Dimension, desc.SampleCount, desc.ArraySize),
			PixelFormat:      mapPixelFormat(desc.Format),
			Width:            uint64(desc.Width),
			Height:           uint64(desc.Height),
			Depth:            uint64(desc.Depth),
			MipmapLevelCount: uint64(desc.MipLevels),
			ArrayLength:      uint64(desc.ArraySize),
			SampleCount:      uint64(desc.SampleCount),
			StorageMode:      mtl.StorageModePrivate,
			Usage:            usage,
		}),
		barrierStages: PipelineStageAll,
	}
	t.noCopy.Init()
	d.stats.textures.Add(1)
	return &t
}

func newDrawableTexture(d *Device, native mtl.Texture) *Texture {
	t := Texture{
		device: d,
		desc: TextureDesc{
			Dimension:   TextureDimension2D,
			Format:      mapFormat(native.PixelFormat()),
			Width:       uint32(native.Width()),
			Height:      uint32(native.Height()),
			Depth:       1,
			MipLevels:   1,
			ArraySize:   1,
			SampleCount: 1,
			Flags:       TextureFlagRenderTarget,
		},
		mtl:           native,
		drawable:      true,
		barrierStages: PipelineStageAll,
	}
	t.noCopy.Init()
	return &t
}

func (t *Texture) SetName(name string) {
	t.noCopy.Check()
	t.mtl.SetLabel(name)
}

func (t *Texture) Desc() TextureDesc {
	t.noCopy.Check()
	return t.desc
}

func (t *Texture) Destroy() {
	if t == nil {
		return
	}
	t.noCopy.Check()
	if t.drawable {
		abort("Destroy called on a SwapChain texture")
	}
	t.mtl.Release()
	t.device.stats.textures.Add(-1)
	t.noCopy.Close()
}

type TextureViewDesc struct {
	Dimension        TextureViewDimension
	Format           Format
	ComponentMapping ComponentMapping
	MipSlice         uint32
	MipLevels        uint32
	ArrayIndex       uint32
	ArraySize        uint32
}

type TextureView struct {
	noCopy  util.NoCopy
	texture *Texture
	desc    TextureViewDesc
	mtl     mtl.Texture
}

/*
NewView creates a view of the texture, the mip and array ranges are clamped to
what remains of the texture after MipSlice and ArrayIndex so a MipLevels or
ArraySize larger than available selects every remaining level or layer.
*/
func (t *Texture) NewView(desc TextureViewDesc) *TextureView {
	t.noCopy.Check()
	if desc.MipSlice >= t.desc.MipLevels {
		abort("View MipSlice %d outside of texture with %d levels", desc.MipSlice, t.desc.MipLevels)
	}
	if desc.ArrayIndex >= t.desc.ArraySize {
		abort("View ArrayIndex %d outside of texture with %d layers", desc.ArrayIndex, t.desc.ArraySize)
	}
	if desc.Format == FORMAT_UNKNOWN {
		desc.Format = t.desc.Format
	}

	mipLevels := min(desc.MipLevels, t.desc.MipLevels-desc.MipSlice)
	arraySize := min(desc.ArraySize, t.desc.ArraySize-desc.ArrayIndex)

	v := TextureView{
		texture: t,
		desc:    desc,
		mtl: t.mtl.NewTextureView(
			mapPixelFormat(desc.Format),
			mapTextureViewType(desc.Dimension, t.desc.SampleCount, arraySize),
			mtl.Range{Location: uint64(desc.MipSlice), Length: uint64(mipLevels)},
			mtl.Range{Location: uint64(desc.ArrayIndex), Length: uint64(arraySize)},
			mapComponentMapping(desc.ComponentMapping),
		),
	}
	v.noCopy.Init()
	return &v
}

func (v *TextureView) Texture() *Texture {
	v.noCopy.Check()
	return v.texture
}

func (v *TextureView) Desc() TextureViewDesc {
	v.noCopy.Check()
	return v.desc
}

func (v *TextureView) Destroy() {
	if v == nil {
		return
	}
	v.noCopy.Check()
	v.mtl.Release()
	v.noCopy.Close()
}

type SamplerDesc struct {
	MinFilter     SamplerFilter
	MagFilter     SamplerFilter
	MipMapMode    SamplerMipMapMode
	AddressU      SamplerAddressMode
	AddressV      SamplerAddressMode
	AddressW      SamplerAddressMode
	MaxAnisotropy uint32
	CompareEnable bool
	CompareOp     CompareOp
	MinLOD        float32
	MaxLOD        float32
	BorderColor   SamplerBorderColor
}

type Sampler struct {
	noCopy util.NoCopy
	id     uuid.UUID
	desc   SamplerDesc
	mtl    mtl.SamplerState
}

func (d *Device) NewSampler(desc SamplerDesc) *Sampler {
	d.noCopy.Check()
	compare := mtl.CompareFunctionNever
	if desc.CompareEnable {
		compare = mapCompareOp(desc.CompareOp)
	}

	s := Sampler{
		id:   uuid.New(),
		desc: desc,
		mtl: d.mtl.NewSamplerState(mtl.SamplerDescriptor{
			MinFilter:              mapSamplerFilter(desc.MinFilter),
			MagFilter:              mapSamplerFilter(desc.MagFilter),
			MipFilter:              mapSamplerMipMapMode(desc.MipMapMode),
			SAddressMode:           mapSamplerAddressMode(desc.AddressU),
			TAddressMode:           mapSamplerAddressMode(desc.AddressV),
			RAddressMode:           mapSamplerAddressMode(desc.AddressW),
			MaxAnisotropy:          uint64(max(desc.MaxAnisotropy, 1)),
			CompareFunction:        compare,
			LodMinClamp:            desc.MinLOD,
			LodMaxClamp:            desc.MaxLOD,
			BorderColor:            mapSamplerBorderColor(desc.BorderColor),
			SupportArgumentBuffers: true,
		}),
	}
	s.noCopy.Init()
	return &s
}

func (s *Sampler) Desc() SamplerDesc {
	s.noCopy.Check()
	return s.desc
}

func (s *Sampler) Destroy() {
	if s == nil {
		return
	}
	s.noCopy.Check()
	s.mtl.Release()
	s.noCopy.Close()
}
