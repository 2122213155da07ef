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
#cgo CFLAGS: -xobjective-c -fmodules -fobjc-arc
#cgo LDFLAGS: -framework Foundation -framework Metal -framework QuartzCore -framework CoreGraphics

#include <stdlib.h>
#include "metal_darwin.h"
*/
import "C"

import (
	"runtime/cgo"
	"sync/atomic"
	"unsafe"

	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/mtl"
)

type nativeObject interface {
	nativeRef() C.CFTypeRef
}

// object owns one reference to ref plus one for every outstanding Retain.
type object struct {
	ref     C.CFTypeRef
	retains atomic.Int32
}

func (o *object) nativeRef() C.CFTypeRef {
	return o.ref
}

func (o *object) Retain() {
	if o.ref == nil {
		panic(debug.Errorf("Retain called on a released object"))
	}
	o.retains.Add(1)
	C.CFRetain(o.ref)
}

func (o *object) Release() {
	if o.ref == nil {
		return
	}
	C.CFRelease(o.ref)
	if o.retains.Add(-1) >= 0 {
		return
	}
	o.retains.Store(0)
	o.ref = nil
}

func (o *object) SetLabel(label string) {
	cLabel := C.CString(label)
	defer C.free(unsafe.Pointer(cLabel))
	C.mtlSetLabel(o.ref, cLabel)
}

func refOf(v any) C.CFTypeRef {
	if n, ok := v.(nativeObject); ok {
		return n.nativeRef()
	}
	return nil
}

func takeError(err *C.char) error {
	defer C.free(unsafe.Pointer(err))
	return debug.Errorf("%s", C.GoString(err))
}

//export mtlGoCommandBufferHandler
func mtlGoCommandBufferHandler(handle C.uintptr_t) {
	h := cgo.Handle(handle)
	f := h.Value().(func())
	h.Delete()
	f()
}

type Driver struct {
	devices []mtl.Device
}

var _ mtl.Driver = (*Driver)(nil)

// NewDriver enumerates every Metal device in the system, falling back to the
// system default device where enumeration is unavailable.
func NewDriver() *Driver {
	d := Driver{}
	if all := C.mtlCopyAllDevices(); all != nil {
		for i := range uint64(C.mtlArrayCount(all)) {
			d.devices = append(d.devices, newDevice(C.mtlArrayRetainAt(all, C.uint64_t(i))))
		}
		C.CFRelease(all)
	}
	if len(d.devices) == 0 {
		if ref := C.mtlCreateSystemDefaultDevice(); ref != nil {
			d.devices = append(d.devices, newDevice(ref))
		}
	}
	return &d
}

func (d *Driver) Devices() []mtl.Device {
	return d.devices
}

func (d *Driver) DefaultDevice() mtl.Device {
	if len(d.devices) == 0 {
		return nil
	}
	return d.devices[0]
}

type device struct {
	object
	name string
}

var _ mtl.Device = (*device)(nil)

func newDevice(ref C.CFTypeRef) *device {
	name := C.mtlDeviceName(ref)
	defer C.free(unsafe.Pointer(name))
	return &device{object: object{ref: ref}, name: C.GoString(name)}
}

func (d *device) Name() string {
	return d.name
}

func (d *device) SupportsFamily(family mtl.GPUFamily) bool {
	return bool(C.mtlDeviceSupportsFamily(d.ref, C.int64_t(family)))
}

func (d *device) HasUnifiedMemory() bool {
	return bool(C.mtlDeviceHasUnifiedMemory(d.ref))
}

func (d *device) RecommendedMaxWorkingSetSize() uint64 {
	return uint64(C.mtlDeviceRecommendedMaxWorkingSetSize(d.ref))
}

func (d *device) SupportsTextureSampleCount(count uint64) bool {
	return bool(C.mtlDeviceSupportsTextureSampleCount(d.ref, C.uint64_t(count)))
}

func (d *device) ProgrammableSamplePositionsSupported() bool {
	return bool(C.mtlDeviceProgrammableSamplePositionsSupported(d.ref))
}

func (d *device) MinimumLinearTextureAlignmentForPixelFormat(format mtl.PixelFormat) uint64 {
	return uint64(C.mtlDeviceMinimumLinearTextureAlignment(d.ref, C.uint64_t(format)))
}

func (d *device) NewCommandQueue() mtl.CommandQueue {
	return &commandQueue{object{ref: C.mtlDeviceNewCommandQueue(d.ref)}}
}

func (d *device) NewBuffer(length uint64, options mtl.ResourceOptions) mtl.Buffer {
	ref := C.mtlDeviceNewBuffer(d.ref, C.uint64_t(length), C.uint64_t(options))
	if ref == nil {
		return nil
	}
	return &buffer{object{ref: ref}}
}

func (d *device) NewTexture(desc mtl.TextureDescriptor) mtl.Texture {
	cDesc := textureDescriptor(desc)
	ref := C.mtlDeviceNewTexture(d.ref, &cDesc)
	if ref == nil {
		return nil
	}
	return newTexture(ref)
}

func (d *device) NewSamplerState(desc mtl.SamplerDescriptor) mtl.SamplerState {
	cDesc := C.mtlSamplerDescriptor{
		minFilter:              C.uint64_t(desc.MinFilter),
		magFilter:              C.uint64_t(desc.MagFilter),
		mipFilter:              C.uint64_t(desc.MipFilter),
		sAddressMode:           C.uint64_t(desc.SAddressMode),
		tAddressMode:           C.uint64_t(desc.TAddressMode),
		rAddressMode:           C.uint64_t(desc.RAddressMode),
		maxAnisotropy:          C.uint64_t(max(desc.MaxAnisotropy, 1)),
		compareFunction:        C.uint64_t(desc.CompareFunction),
		lodMinClamp:            C.float(desc.LodMinClamp),
		lodMaxClamp:            C.float(desc.LodMaxClamp),
		borderColor:            C.uint64_t(desc.BorderColor),
		supportArgumentBuffers: C.bool(desc.SupportArgumentBuffers),
	}
	if desc.Label != "" {
		cDesc.label = C.CString(desc.Label)
		defer C.free(unsafe.Pointer(cDesc.label))
	}
	ref := C.mtlDeviceNewSamplerState(d.ref, &cDesc)
	if ref == nil {
		return nil
	}
	return &samplerState{object{ref: ref}}
}

func stencilDescriptor(desc *mtl.StencilDescriptor) C.mtlStencilDescriptor {
	return C.mtlStencilDescriptor{
		compareFunction:           C.uint64_t(desc.StencilCompareFunction),
		stencilFailureOperation:   C.uint64_t(desc.StencilFailureOperation),
		depthFailureOperation:     C.uint64_t(desc.DepthFailureOperation),
		depthStencilPassOperation: C.uint64_t(desc.DepthStencilPassOperation),
		readMask:                  C.uint32_t(desc.ReadMask),
		writeMask:                 C.uint32_t(desc.WriteMask),
	}
}

func (d *device) NewDepthStencilState(desc mtl.DepthStencilDescriptor) mtl.DepthStencilState {
	cDesc := C.mtlDepthStencilDescriptor{
		depthCompareFunction: C.uint64_t(desc.DepthCompareFunction),
		depthWriteEnabled:    C.bool(desc.DepthWriteEnabled),
	}
	if desc.Label != "" {
		cDesc.label = C.CString(desc.Label)
		defer C.free(unsafe.Pointer(cDesc.label))
	}
	if desc.FrontFaceStencil != nil {
		cDesc.hasFrontFaceStencil = true
		cDesc.frontFaceStencil = stencilDescriptor(desc.FrontFaceStencil)
	}
	if desc.BackFaceStencil != nil {
		cDesc.hasBackFaceStencil = true
		cDesc.backFaceStencil = stencilDescriptor(desc.BackFaceStencil)
	}
	ref := C.mtlDeviceNewDepthStencilState(d.ref, &cDesc)
	if ref == nil {
		return nil
	}
	return &depthStencilState{object{ref: ref}}
}

func (d *device) NewLibraryWithSource(source string) (mtl.Library, error) {
	cSource := C.CString(source)
	defer C.free(unsafe.Pointer(cSource))
	var err *C.char
	ref := C.mtlDeviceNewLibraryWithSource(d.ref, cSource, &err)
	if ref == nil {
		return nil, takeError(err)
	}
	return &library{object{ref: ref}}, nil
}

func (d *device) NewLibraryWithData(data []byte) (mtl.Library, error) {
	if len(data) == 0 {
		return nil, debug.Errorf("Empty library data")
	}
	var err *C.char
	ref := C.mtlDeviceNewLibraryWithData(d.ref, unsafe.Pointer(&data[0]), C.size_t(len(data)), &err)
	if ref == nil {
		return nil, takeError(err)
	}
	return &library{object{ref: ref}}, nil
}

func (d *device) NewRenderPipelineState(desc *mtl.RenderPipelineDescriptor) (mtl.RenderPipelineState, error) {
	if len(desc.ColorAttachments) > C.MTL_MAX_COLOR_ATTACHMENTS {
		return nil, debug.Errorf("Render pipeline %q has %d color attachments", desc.Label, len(desc.ColorAttachments))
	}

	cDesc := C.mtlRenderPipelineDescriptor{
		vertexFunction:               refOf(desc.VertexFunction),
		fragmentFunction:             refOf(desc.FragmentFunction),
		depthAttachmentPixelFormat:   C.uint64_t(desc.DepthAttachmentPixelFormat),
		stencilAttachmentPixelFormat: C.uint64_t(desc.StencilAttachmentPixelFormat),
		rasterSampleCount:            C.uint64_t(max(desc.RasterSampleCount, 1)),
		alphaToCoverageEnabled:       C.bool(desc.AlphaToCoverageEnabled),
		inputPrimitiveTopology:       C.uint64_t(desc.InputPrimitiveTopology),
	}
	if desc.Label != "" {
		cDesc.label = C.CString(desc.Label)
		defer C.free(unsafe.Pointer(cDesc.label))
	}

	if v := desc.VertexDescriptor; v != nil {
		if len(v.Attributes) > C.MTL_MAX_VERTEX_ATTRIBUTES || len(v.Layouts) > C.MTL_MAX_VERTEX_LAYOUTS {
			return nil, debug.Errorf("Render pipeline %q has too many vertex inputs", desc.Label)
		}
		cDesc.hasVertexDescriptor = true
		for location, a := range v.Attributes {
			cDesc.attributes[cDesc.attributeCount] = C.mtlVertexAttributeDescriptor{
				location:    C.uint64_t(location),
				format:      C.uint64_t(a.Format),
				offset:      C.uint64_t(a.Offset),
				bufferIndex: C.uint64_t(a.BufferIndex),
			}
			cDesc.attributeCount++
		}
		for index, l := range v.Layouts {
			cDesc.layouts[cDesc.layoutCount] = C.mtlVertexLayoutDescriptor{
				bufferIndex:  C.uint64_t(index),
				stride:       C.uint64_t(l.Stride),
				stepFunction: C.uint64_t(l.StepFunction),
				stepRate:     C.uint64_t(l.StepRate),
			}
			cDesc.layoutCount++
		}
	}

	for i, c := range desc.ColorAttachments {
		cDesc.colorAttachments[i] = C.mtlColorAttachmentDescriptor{
			pixelFormat:                 C.uint64_t(c.PixelFormat),
			blendingEnabled:             C.bool(c.BlendingEnabled),
			sourceRGBBlendFactor:        C.uint64_t(c.SourceRGBBlendFactor),
			destinationRGBBlendFactor:   C.uint64_t(c.DestinationRGBBlendFactor),
			rgbBlendOperation:           C.uint64_t(c.RGBBlendOperation),
			sourceAlphaBlendFactor:      C.uint64_t(c.SourceAlphaBlendFactor),
			destinationAlphaBlendFactor: C.uint64_t(c.DestinationAlphaBlendFactor),
			alphaBlendOperation:         C.uint64_t(c.AlphaBlendOperation),
			writeMask:                   C.uint64_t(c.WriteMask),
		}
	}
	cDesc.colorAttachmentCount = C.uint64_t(len(desc.ColorAttachments))

	var err *C.char
	ref := C.mtlDeviceNewRenderPipelineState(d.ref, &cDesc, &err)
	if ref == nil {
		return nil, takeError(err)
	}
	return &renderPipelineState{object{ref: ref}}, nil
}

func (d *device) NewComputePipelineState(f mtl.Function) (mtl.ComputePipelineState, error) {
	fn := refOf(f)
	if fn == nil {
		return nil, debug.Errorf("Invalid compute function")
	}
	var err *C.char
	ref := C.mtlDeviceNewComputePipelineState(d.ref, fn, &err)
	if ref == nil {
		return nil, takeError(err)
	}
	return &computePipelineState{object{ref: ref}}, nil
}

func (d *device) NewArgumentEncoder(args []mtl.ArgumentDescriptor) mtl.ArgumentEncoder {
	if len(args) == 0 {
		return nil
	}
	cArgs := make([]C.mtlArgumentDescriptor, len(args))
	for i, a := range args {
		cArgs[i] = C.mtlArgumentDescriptor{
			dataType:    C.uint64_t(a.DataType),
			index:       C.uint64_t(a.Index),
			arrayLength: C.uint64_t(a.ArrayLength),
			access:      C.uint64_t(a.Access),
			textureType: C.uint64_t(a.TextureType),
		}
	}
	ref := C.mtlDeviceNewArgumentEncoder(d.ref, &cArgs[0], C.uint64_t(len(cArgs)))
	if ref == nil {
		return nil
	}
	return &argumentEncoder{object{ref: ref}}
}

func (d *device) NewFence() mtl.Fence {
	return &fence{object{ref: C.mtlDeviceNewFence(d.ref)}}
}

func (d *device) NewSharedEvent() mtl.SharedEvent {
	return &sharedEvent{object{ref: C.mtlDeviceNewSharedEvent(d.ref)}}
}

func (d *device) StartCapture() bool {
	return bool(C.mtlDeviceStartCapture(d.ref))
}

func (d *device) StopCapture() {
	C.mtlDeviceStopCapture()
}
