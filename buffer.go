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

	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

type BufferFlags uint32

const (
	BufferFlagVertex BufferFlags = 1 << iota
	BufferFlagIndex
	BufferFlagStorage
	BufferFlagConstant
	BufferFlagFormatted
	BufferFlagUnorderedAccess
	BufferFlagDeviceAddressable
	BufferFlagIndirect
)

func (f BufferFlags) HasBits(want BufferFlags) bool {
	return hasBits(f, want)
}

func (f BufferFlags) String() string {
	str := ""
	if f.HasBits(BufferFlagVertex) {
		str += "Vertex|"
	}
	if f.HasBits(BufferFlagIndex) {
		str += "Index|"
	}
	if f.HasBits(BufferFlagStorage) {
		str += "Storage|"
	}
	if f.HasBits(BufferFlagConstant) {
		str += "Constant|"
	}
	if f.HasBits(BufferFlagFormatted) {
		str += "Formatted|"
	}
	if f.HasBits(BufferFlagUnorderedAccess) {
		str += "UnorderedAccess|"
	}
	if f.HasBits(BufferFlagDeviceAddressable) {
		str += "DeviceAddressable|"
	}
	if f.HasBits(BufferFlagIndirect) {
		str += "Indirect|"
	}
	return strings.TrimSuffix(str, "|")
}

type BufferDesc struct {
	Size  uint64
	Heap  HeapType
	Flags BufferFlags
}

// BufferRange selects Size bytes starting at Offset, a zero Size selects
// everything after Offset.
type BufferRange struct {
	Offset uint64
	Size   uint64
}

type Buffer struct {
	noCopy util.NoCopy
	device *Device
	desc   BufferDesc
	mtl    mtl.Buffer

	// barrierStages are the stages of the last barrier the buffer was part of,
	// all stages before the first one.
	barrierStages PipelineStage
}

var _ interface {
	util.HostWriter
	Destroyer
} = (*Buffer)(nil)

func (d *Device) NewBuffer(desc BufferDesc) *Buffer {
	d.noCopy.Check()
	if desc.Size == 0 {
		abort("Buffer size must be > 0")
	}
	if desc.Flags.HasBits(BufferFlagDeviceAddressable) && !d.properties.Capabilities.BufferDeviceAddress {
		abort("Device does not support BufferFlagDeviceAddressable")
	}

	b := Buffer{
		device: d,
		desc:   desc,
		mtl:    d.mtl.NewBuffer(desc.Size, mapResourceOptions(desc.Heap)),

		barrierStages: PipelineStageAll,
	}
	b.noCopy.Init()

	if desc.Flags.HasBits(BufferFlagDeviceAddressable) {
		d.addressable.add(&b)
	}
	d.stats.buffers.Add(1)
	return &b
}

func (b *Buffer) SetName(name string) {
	b.noCopy.Check()
	b.mtl.SetLabel(name)
}

func (b *Buffer) Desc() BufferDesc {
	b.noCopy.Check()
	return b.desc
}

func (b *Buffer) Size() uint64 {
	b.noCopy.Check()
	return b.desc.Size
}

// Map returns the CPU visible memory of the buffer, buffers on HeapTypeDefault
// cannot be mapped.
func (b *Buffer) Map() []byte {
	b.noCopy.Check()
	contents := b.mtl.Contents()
	if contents == nil {
		abort("Map called on buffer in heap %s", b.desc.Heap)
	}
	return contents
}

func (b *Buffer) Unmap(r BufferRange) {
	b.noCopy.Check()
	if b.mtl.StorageMode() != mtl.StorageModeManaged {
		return
	}
	if r.Offset > b.desc.Size {
		abort("Unmap offset %d outside of buffer of size %d", r.Offset, b.desc.Size)
	}
	if r.Size == 0 {
		r.Size = b.desc.Size - r.Offset
	}
	b.mtl.DidModifyRange(r.Offset, r.Size)
}

func (b *Buffer) HostWrite(offset uintptr, data []byte) {
	b.noCopy.Check()
	util.Bytes(b.Map()).HostWrite(offset, data)
}

func (b *Buffer) DeviceAddress() uint64 {
	b.noCopy.Check()
	if !b.desc.Flags.HasBits(BufferFlagDeviceAddressable) {
		abort("DeviceAddress called on buffer without BufferFlagDeviceAddressable")
	}
	return b.mtl.GPUAddress()
}

func (b *Buffer) Destroy() {
	if b == nil {
		return
	}
	b.noCopy.Check()
	if b.desc.Flags.HasBits(BufferFlagDeviceAddressable) {
		b.device.addressable.remove(b)
	}
	b.mtl.Release()
	b.device.stats.buffers.Add(-1)
	b.noCopy.Close()
}

type BufferFormattedView struct {
	noCopy  util.NoCopy
	buffer  *Buffer
	format  Format
	texture mtl.Texture
}

func (b *Buffer) NewFormattedView(format Format) *BufferFormattedView {
	b.noCopy.Check()
	if !b.desc.Flags.HasBits(BufferFlagFormatted) {
		abort("NewFormattedView called on buffer without BufferFlagFormatted")
	}
	pixelFormat := mapPixelFormat(format)
	width := b.desc.Size / uint64(FormatSize(format))
	if width == 0 {
		abort("Buffer of size %d is too small for a view of format %s", b.desc.Size, format)
	}

	usage := mtl.TextureUsageShaderRead
	if b.desc.Flags.HasBits(BufferFlagUnorderedAccess) {
		usage |= mtl.TextureUsageShaderWrite
	}

	v := BufferFormattedView{
		buffer: b,
		format: format,
		texture: b.mtl.NewTexture(mtl.TextureDescriptor{
			TextureType:      mtl.TextureTypeTextureBuffer,
			PixelFormat:      pixelFormat,
			Width:            width,
			Height:           1,
			Depth:            1,
			MipmapLevelCount: 1,
			ArrayLength:      1,
			SampleCount:      1,
			StorageMode:      b.mtl.StorageMode(),
			Usage:            usage,
		}, 0, alignUp(b.desc.Size, b.device.mtl.MinimumLinearTextureAlignmentForPixelFormat(pixelFormat))),
	}
	v.noCopy.Init()
	return &v
}

func (v *BufferFormattedView) Format() Format {
	v.noCopy.Check()
	return v.format
}

func (v *BufferFormattedView) Buffer() *Buffer {
	v.noCopy.Check()
	return v.buffer
}

func (v *BufferFormattedView) Destroy() {
	if v == nil {
		return
	}
	v.noCopy.Check()
	v.texture.Release()
	v.noCopy.Close()
}
