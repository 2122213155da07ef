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
	"unsafe"

	"goarrg.com/rhi/mxr/mtl"
)

func textureDescriptor(desc mtl.TextureDescriptor) C.mtlTextureDescriptor {
	return C.mtlTextureDescriptor{
		textureType:      C.uint64_t(desc.TextureType),
		pixelFormat:      C.uint64_t(desc.PixelFormat),
		width:            C.uint64_t(desc.Width),
		height:           C.uint64_t(max(desc.Height, 1)),
		depth:            C.uint64_t(max(desc.Depth, 1)),
		mipmapLevelCount: C.uint64_t(max(desc.MipmapLevelCount, 1)),
		arrayLength:      C.uint64_t(max(desc.ArrayLength, 1)),
		sampleCount:      C.uint64_t(max(desc.SampleCount, 1)),
		storageMode:      C.uint64_t(desc.StorageMode),
		usage:            C.uint64_t(desc.Usage),
	}
}

type buffer struct {
	object
}

var _ mtl.Buffer = (*buffer)(nil)

func (b *buffer) StorageMode() mtl.StorageMode {
	return mtl.StorageMode(C.mtlResourceStorageMode(b.ref))
}

func (b *buffer) Length() uint64 {
	return uint64(C.mtlBufferLength(b.ref))
}

func (b *buffer) Contents() []byte {
	if b.StorageMode() == mtl.StorageModePrivate {
		return nil
	}
	ptr := C.mtlBufferContents(b.ref)
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), b.Length())
}

func (b *buffer) DidModifyRange(offset, length uint64) {
	if b.StorageMode() == mtl.StorageModeManaged {
		C.mtlBufferDidModifyRange(b.ref, C.uint64_t(offset), C.uint64_t(length))
	}
}

func (b *buffer) GPUAddress() uint64 {
	return uint64(C.mtlBufferGPUAddress(b.ref))
}

func (b *buffer) NewTexture(desc mtl.TextureDescriptor, offset, bytesPerRow uint64) mtl.Texture {
	cDesc := textureDescriptor(desc)
	ref := C.mtlBufferNewTexture(b.ref, &cDesc, C.uint64_t(offset), C.uint64_t(bytesPerRow))
	if ref == nil {
		return nil
	}
	return newTexture(ref)
}

type texture struct {
	object
	desc mtl.TextureDescriptor
}

var _ mtl.Texture = (*texture)(nil)

func newTexture(ref C.CFTypeRef) *texture {
	var cDesc C.mtlTextureDescriptor
	C.mtlTextureDescribe(ref, &cDesc)
	return &texture{
		object: object{ref: ref},
		desc: mtl.TextureDescriptor{
			TextureType:      mtl.TextureType(cDesc.textureType),
			PixelFormat:      mtl.PixelFormat(cDesc.pixelFormat),
			Width:            uint64(cDesc.width),
			Height:           uint64(cDesc.height),
			Depth:            uint64(cDesc.depth),
			MipmapLevelCount: uint64(cDesc.mipmapLevelCount),
			ArrayLength:      uint64(cDesc.arrayLength),
			SampleCount:      uint64(cDesc.sampleCount),
			StorageMode:      mtl.StorageMode(cDesc.storageMode),
			Usage:            mtl.TextureUsage(cDesc.usage),
		},
	}
}

// Drawable textures are never released by their owner.
func newDrawableTexture(ref C.CFTypeRef) *texture {
	t := newTexture(ref)
	runtime.SetFinalizer(t, (*texture).Release)
	return t
}

func (t *texture) StorageMode() mtl.StorageMode { return t.desc.StorageMode }
func (t *texture) TextureType() mtl.TextureType { return t.desc.TextureType }
func (t *texture) PixelFormat() mtl.PixelFormat { return t.desc.PixelFormat }
func (t *texture) Width() uint64                { return t.desc.Width }
func (t *texture) Height() uint64               { return t.desc.Height }
func (t *texture) Depth() uint64                { return t.desc.Depth }
func (t *texture) MipmapLevelCount() uint64     { return t.desc.MipmapLevelCount }
func (t *texture) ArrayLength() uint64          { return t.desc.ArrayLength }
func (t *texture) SampleCount() uint64          { return t.desc.SampleCount }
func (t *texture) Usage() mtl.TextureUsage      { return t.desc.Usage }

func (t *texture) NewTextureView(format mtl.PixelFormat, textureType mtl.TextureType, levels, slices mtl.Range, swizzle mtl.TextureSwizzleChannels) mtl.Texture {
	s := [4]C.uint8_t{C.uint8_t(swizzle.Red), C.uint8_t(swizzle.Green), C.uint8_t(swizzle.Blue), C.uint8_t(swizzle.Alpha)}
	ref := C.mtlTextureNewView(t.ref, C.uint64_t(format), C.uint64_t(textureType),
		C.uint64_t(levels.Location), C.uint64_t(levels.Length),
		C.uint64_t(slices.Location), C.uint64_t(slices.Length), &s[0])
	if ref == nil {
		return nil
	}
	return newTexture(ref)
}

type samplerState struct {
	object
}

type depthStencilState struct {
	object
}

type renderPipelineState struct {
	object
}

type computePipelineState struct {
	object
}

var (
	_ mtl.SamplerState         = (*samplerState)(nil)
	_ mtl.DepthStencilState    = (*depthStencilState)(nil)
	_ mtl.RenderPipelineState  = (*renderPipelineState)(nil)
	_ mtl.ComputePipelineState = (*computePipelineState)(nil)
)

func (p *computePipelineState) MaxTotalThreadsPerThreadgroup() uint64 {
	return uint64(C.mtlComputePipelineMaxTotalThreadsPerThreadgroup(p.ref))
}

type library struct {
	object
}

var _ mtl.Library = (*library)(nil)

func (l *library) NewFunction(name string) (mtl.Function, error) {
	return l.NewFunctionWithConstants(name, nil)
}

func (l *library) NewFunctionWithConstants(name string, constants []mtl.FunctionConstantValue) (mtl.Function, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	indices := make([]C.uint64_t, len(constants)+1)
	values := make([]C.uint32_t, len(constants)+1)
	for i, c := range constants {
		indices[i] = C.uint64_t(c.Index)
		values[i] = C.uint32_t(c.Value)
	}

	var err *C.char
	ref := C.mtlLibraryNewFunction(l.ref, cName, &indices[0], &values[0], C.uint64_t(len(constants)), &err)
	if ref == nil {
		return nil, takeError(err)
	}
	return &function{object: object{ref: ref}, name: name}, nil
}

type function struct {
	object
	name string
}

var _ mtl.Function = (*function)(nil)

func (f *function) Name() string {
	return f.name
}

type fence struct {
	object
}

var _ mtl.Fence = (*fence)(nil)

type sharedEvent struct {
	object
}

var _ mtl.SharedEvent = (*sharedEvent)(nil)

func (e *sharedEvent) SignaledValue() uint64 {
	return uint64(C.mtlSharedEventSignaledValue(e.ref))
}

type argumentEncoder struct {
	object
}

var _ mtl.ArgumentEncoder = (*argumentEncoder)(nil)

func (e *argumentEncoder) EncodedLength() uint64 {
	return uint64(C.mtlArgumentEncoderEncodedLength(e.ref))
}

func (e *argumentEncoder) SetArgumentBuffer(buffer mtl.Buffer, offset uint64) {
	C.mtlArgumentEncoderSetArgumentBuffer(e.ref, refOf(buffer), C.uint64_t(offset))
}

func (e *argumentEncoder) SetBuffer(buffer mtl.Buffer, offset uint64, index uint64) {
	C.mtlArgumentEncoderSetBuffer(e.ref, refOf(buffer), C.uint64_t(offset), C.uint64_t(index))
}

func (e *argumentEncoder) SetTexture(texture mtl.Texture, index uint64) {
	C.mtlArgumentEncoderSetTexture(e.ref, refOf(texture), C.uint64_t(index))
}

func (e *argumentEncoder) SetSamplerState(sampler mtl.SamplerState, index uint64) {
	C.mtlArgumentEncoderSetSamplerState(e.ref, refOf(sampler), C.uint64_t(index))
}
