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
	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

// FramebufferAttachment targets View when set, otherwise the first mip level
// and layer of Texture.
type FramebufferAttachment struct {
	Texture *Texture
	View    *TextureView
}

func (a FramebufferAttachment) resolve() (*Texture, mtl.Texture, Format, uint32) {
	if a.View != nil {
		a.View.noCopy.Check()
		return a.View.texture, a.View.mtl, a.View.desc.Format, a.View.desc.MipSlice
	}
	if a.Texture == nil {
		abort("FramebufferAttachment has neither a Texture nor a View")
	}
	a.Texture.noCopy.Check()
	return a.Texture, a.Texture.mtl, a.Texture.desc.Format, 0
}

// SampleLocation is in 1/16th of a pixel relative to the pixel center, so
// [-8, 7] covers the whole pixel.
type SampleLocation struct {
	X int8
	Y int8
}

type FramebufferDesc struct {
	ColorAttachments        []FramebufferAttachment
	DepthAttachment         *FramebufferAttachment
	DepthAttachmentReadOnly bool
	SampleLocations         []SampleLocation
}

type framebufferAttachment struct {
	texture *Texture
	mtl     mtl.Texture
	format  Format
}

type Framebuffer struct {
	noCopy util.NoCopy
	device *Device

	colors          []framebufferAttachment
	depth           *framebufferAttachment
	depthReadOnly   bool
	width           uint32
	height          uint32
	sampleCount     uint32
	samplePositions []mtl.SamplePosition
}

func (d *Device) NewFramebuffer(desc FramebufferDesc) *Framebuffer {
	d.noCopy.Check()
	if len(desc.ColorAttachments) > MaxColorAttachments {
		abort("FramebufferDesc has %d color attachments, the maximum is %d", len(desc.ColorAttachments), MaxColorAttachments)
	}
	if len(desc.ColorAttachments) == 0 && desc.DepthAttachment == nil {
		abort("FramebufferDesc has no attachments")
	}

	fb := Framebuffer{
		device:        d,
		depthReadOnly: desc.DepthAttachmentReadOnly,
	}
	setSize := func(t *Texture, mip uint32) {
		if fb.width != 0 {
			return
		}
		fb.width = max(t.desc.Width>>mip, 1)
		fb.height = max(t.desc.Height>>mip, 1)
		fb.sampleCount = t.desc.SampleCount
	}

	for i, a := range desc.ColorAttachments {
		t, native, format, mip := a.resolve()
		if !t.desc.Flags.HasBits(TextureFlagRenderTarget) {
			abort("FramebufferDesc.ColorAttachments[%d] texture was not created with TextureFlagRenderTarget", i)
		}
		setSize(t, mip)
		fb.colors = append(fb.colors, framebufferAttachment{texture: t, mtl: native, format: format})
	}
	if desc.DepthAttachment != nil {
		t, native, format, mip := desc.DepthAttachment.resolve()
		if !t.desc.Flags.HasBits(TextureFlagDepthTarget) {
			abort("FramebufferDesc.DepthAttachment texture was not created with TextureFlagDepthTarget")
		}
		setSize(t, mip)
		fb.depth = &framebufferAttachment{texture: t, mtl: native, format: format}
	}

	if len(desc.SampleLocations) > 0 {
		if !d.properties.Capabilities.SampleLocations {
			abort("Device does not support custom sample locations")
		}
		if uint32(len(desc.SampleLocations)) != fb.sampleCount {
			abort("FramebufferDesc has %d sample locations for %d samples", len(desc.SampleLocations), fb.sampleCount)
		}
		for i, l := range desc.SampleLocations {
			if !gmath.InRange(l.X, -8, 7) || !gmath.InRange(l.Y, -8, 7) {
				abort("FramebufferDesc.SampleLocations[%d] %+v is outside of [-8, 7]", i, l)
			}
			fb.samplePositions = append(fb.samplePositions, mtl.SamplePosition{
				X: float32(l.X)/16 + 0.5,
				Y: float32(l.Y)/16 + 0.5,
			})
		}
	}

	fb.noCopy.Init()
	return &fb
}

func (fb *Framebuffer) Width() uint32 {
	fb.noCopy.Check()
	return fb.width
}

func (fb *Framebuffer) Height() uint32 {
	fb.noCopy.Check()
	return fb.height
}

func (fb *Framebuffer) SampleCount() uint32 {
	fb.noCopy.Check()
	return fb.sampleCount
}

func (fb *Framebuffer) ColorAttachmentCount() uint32 {
	fb.noCopy.Check()
	return uint32(len(fb.colors))
}

func (fb *Framebuffer) hasStencil() bool {
	return fb.depth != nil && FormatHasStencil(fb.depth.format)
}

// clearKey returns the key of the clear pipeline compatible with the framebuffer.
func (fb *Framebuffer) clearKey(depth, stencil bool, colorTarget uint32) clearPipelineKey {
	key := clearPipelineKey{
		depthClear:   depth,
		stencilClear: stencil,
		sampleCount:  uint8(fb.sampleCount),
		colorTarget:  uint8(colorTarget),
	}
	for i, c := range fb.colors {
		key.colorFormats[i] = uint8(c.format)
	}
	if fb.depth != nil {
		key.depthFormat = uint8(fb.depth.format)
	}
	return key
}

func (fb *Framebuffer) fullRect() gmath.Recti32 {
	return gmath.Recti32{X: 0, Y: 0, W: int32(fb.width), H: int32(fb.height)}
}

func (fb *Framebuffer) Destroy() {
	if fb == nil {
		return
	}
	fb.noCopy.Check()
	fb.colors = nil
	fb.depth = nil
	fb.noCopy.Close()
}
