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
	"sync"

	"github.com/google/uuid"
	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

const (
	MaxClearRects            = 16
	MaxBindingNumber         = 128
	MaxDescriptorSetBindings = 8
	MaxPushConstantBindings  = 4
	MaxVertexBufferBindings  = 19
	MaxDrawables             = 3
	MaxColorAttachments      = 8
)

// Native buffer slots, shared by the vertex, fragment and compute stages.
const (
	descriptorSetSlotBase = 0
	pushConstantSlotBase  = descriptorSetSlotBase + MaxDescriptorSetBindings
	vertexBufferSlotBase  = pushConstantSlotBase + MaxPushConstantBindings
)

const clearShaderSource = `
#include <metal_stdlib>
using namespace metal;

struct DepthClearFragmentOut {
    float depth [[depth(any)]];
};

struct VertexOutput {
    float4 position [[position]];
    uint rect_index [[flat]];
};

// Every rect is two triangles drawn in a single instance.
vertex VertexOutput clearVert(uint vid [[vertex_id]],
                              constant float2* vertices [[buffer(0)]])
{
    VertexOutput out;
    out.position = float4(vertices[vid], 0, 1);
    out.rect_index = vid / 6;
    return out;
}

struct ColorClearFragmentOut {
    float4 color0 [[color(0)]];
    float4 color1 [[color(1)]];
    float4 color2 [[color(2)]];
    float4 color3 [[color(3)]];
    float4 color4 [[color(4)]];
    float4 color5 [[color(5)]];
    float4 color6 [[color(6)]];
    float4 color7 [[color(7)]];
};

fragment ColorClearFragmentOut clearColorFrag(VertexOutput in [[stage_in]],
                                              constant float4* clearColors [[buffer(0)]])
{
    float4 color = clearColors[in.rect_index];
    return {color, color, color, color, color, color, color, color};
}

fragment DepthClearFragmentOut clearDepthFrag(VertexOutput in [[stage_in]],
                                              constant float* clearDepths [[buffer(0)]])
{
    DepthClearFragmentOut out;
    out.depth = clearDepths[in.rect_index];
    return out;
}
`

const resolveShaderSource = `
#include <metal_stdlib>
using namespace metal;

struct ResolveParams {
    uint2 dstOffset;
    uint2 srcOffset;
    uint2 resolveSize;
};

kernel void msaaResolve(texture2d_ms<float> source [[texture(0)]],
                        texture2d<float, access::write> destination [[texture(1)]],
                        constant ResolveParams& params [[buffer(0)]],
                        uint2 gid [[thread_position_in_grid]])
{
    if (gid.x >= params.resolveSize.x || gid.y >= params.resolveSize.y) return;
    uint2 dstPos = gid + params.dstOffset;
    uint2 srcPos = gid + params.srcOffset;
    float4 color = float4(0);
    for (uint s = 0; s < source.get_num_samples(); s++) {
        color += source.read(srcPos, s);
    }
    color /= float(source.get_num_samples());
    destination.write(color, dstPos);
}
`

type resolveParams struct {
	dstOffset   [2]uint32
	srcOffset   [2]uint32
	resolveSize [2]uint32
}

type addressableBuffers struct {
	mutex   sync.Mutex
	buffers map[*Buffer]struct{}
}

func (a *addressableBuffers) add(b *Buffer) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.buffers[b] = struct{}{}
}

func (a *addressableBuffers) remove(b *Buffer) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	delete(a.buffers, b)
}

func (a *addressableBuffers) snapshot() []mtl.Buffer {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	ret := make([]mtl.Buffer, 0, len(a.buffers))
	for b := range a.buffers {
		ret = append(ret, b.mtl)
	}
	return ret
}

type clearState struct {
	vertexFunction mtl.Function
	colorFunction  mtl.Function
	depthFunction  mtl.Function

	depthState        mtl.DepthStencilState
	depthStencilState mtl.DepthStencilState
	stencilState      mtl.DepthStencilState
	noDepthWriteState mtl.DepthStencilState
}

type Device struct {
	noCopy     util.NoCopy
	config     config
	mtl        mtl.Device
	properties Properties
	stats      deviceStats

	addressable          addressableBuffers
	descriptorSetLayouts descriptorSetLayoutCache
	clearPipelines       clearPipelineCache

	clear           clearState
	resolvePipeline mtl.ComputePipelineState
	nullBuffer      *Buffer
}

func selectDevice(driver mtl.Driver, preferred string) mtl.Device {
	if preferred != "" {
		for _, d := range driver.Devices() {
			if d.Name() == preferred {
				return d
			}
		}
		instance.logger.WPrintf("Preferred device %q not found, using default device", preferred)
	}
	return driver.DefaultDevice()
}

/*
NewDevice selects the preferred device by name, or the driver's default device,
and creates the internal clear and resolve pipelines. ErrorDeviceNotFound is
returned when the driver has no device.
*/
func NewDevice(driver mtl.Driver, config Config) (*Device, error) {
	config.validate()
	instance.logger.IPrintf("User requested config: %s", prettyString(&config))

	if driver == nil {
		return nil, debug.ErrorWrapf(ErrorDeviceNotFound{}, "No driver")
	}
	native := selectDevice(driver, config.PreferredDevice)
	if native == nil {
		return nil, debug.ErrorWrapf(ErrorDeviceNotFound{}, "Failed to find a device")
	}

	d := Device{
		mtl: native,
		properties: Properties{
			ID:                   uuid.New(),
			Name:                 native.Name(),
			DedicatedVideoMemory: native.RecommendedMaxWorkingSetSize(),
			Capabilities:         newCapabilities(native),
		},
		addressable:          addressableBuffers{buffers: map[*Buffer]struct{}{}},
		descriptorSetLayouts: descriptorSetLayoutCache{cache: map[string]*descriptorSetLayout{}},
		clearPipelines:       clearPipelineCache{cache: map[clearPipelineKey]mtl.RenderPipelineState{}},
	}
	d.noCopy.Init()
	d.config.use(config)
	instance.logger.IPrintf("%s", prettyString(&d.properties))

	if err := d.initClearState(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to create clear shaders")
	}
	if err := d.initResolvePipeline(); err != nil {
		d.releaseClearState()
		return nil, debug.ErrorWrapf(err, "Failed to create resolve pipeline")
	}
	d.nullBuffer = d.NewBuffer(BufferDesc{Size: 16, Heap: HeapTypeDefault, Flags: BufferFlagVertex})
	d.nullBuffer.SetName("NullVertexBuffer")

	if len(config.WarmClearFormats) > 0 {
		if err := d.WarmClearPipelines(config.WarmClearFormats, config.WarmClearSampleCount); err != nil {
			instance.logger.WPrintf("Failed to warm clear pipelines: %v", err)
		}
	}

	instance.logger.IPrintf("Initialization Completed")
	return &d, nil
}

func (d *Device) initClearState() error {
	library, err := d.mtl.NewLibraryWithSource(clearShaderSource)
	if err != nil {
		return err
	}
	defer library.Release()

	if d.clear.vertexFunction, err = library.NewFunction("clearVert"); err != nil {
		return err
	}
	if d.clear.colorFunction, err = library.NewFunction("clearColorFrag"); err != nil {
		return err
	}
	if d.clear.depthFunction, err = library.NewFunction("clearDepthFrag"); err != nil {
		return err
	}

	stencil := mtl.StencilDescriptor{
		StencilCompareFunction:    mtl.CompareFunctionAlways,
		StencilFailureOperation:   mtl.StencilOperationKeep,
		DepthFailureOperation:     mtl.StencilOperationKeep,
		DepthStencilPassOperation: mtl.StencilOperationReplace,
		ReadMask:                  0xFFFFFFFF,
		WriteMask:                 0xFFFFFFFF,
	}
	d.clear.depthState = d.mtl.NewDepthStencilState(mtl.DepthStencilDescriptor{
		Label:                "ClearDepth",
		DepthCompareFunction: mtl.CompareFunctionAlways,
		DepthWriteEnabled:    true,
	})
	d.clear.depthStencilState = d.mtl.NewDepthStencilState(mtl.DepthStencilDescriptor{
		Label:                "ClearDepthStencil",
		DepthCompareFunction: mtl.CompareFunctionAlways,
		DepthWriteEnabled:    true,
		FrontFaceStencil:     &stencil,
		BackFaceStencil:      &stencil,
	})
	d.clear.stencilState = d.mtl.NewDepthStencilState(mtl.DepthStencilDescriptor{
		Label:                "ClearStencil",
		DepthCompareFunction: mtl.CompareFunctionAlways,
		FrontFaceStencil:     &stencil,
		BackFaceStencil:      &stencil,
	})
	d.clear.noDepthWriteState = d.mtl.NewDepthStencilState(mtl.DepthStencilDescriptor{
		Label:                "ClearColorNoDepthWrite",
		DepthCompareFunction: mtl.CompareFunctionAlways,
	})
	return nil
}

func (d *Device) releaseClearState() {
	for _, r := range []mtl.Releaser{
		d.clear.vertexFunction, d.clear.colorFunction, d.clear.depthFunction,
		d.clear.depthState, d.clear.depthStencilState, d.clear.stencilState, d.clear.noDepthWriteState,
	} {
		if r != nil {
			r.Release()
		}
	}
	d.clear = clearState{}
}

func (d *Device) initResolvePipeline() error {
	library, err := d.mtl.NewLibraryWithSource(resolveShaderSource)
	if err != nil {
		return err
	}
	defer library.Release()

	function, err := library.NewFunction("msaaResolve")
	if err != nil {
		return err
	}
	defer function.Release()

	d.resolvePipeline, err = d.mtl.NewComputePipelineState(function)
	return err
}

func (d *Device) Properties() Properties {
	d.noCopy.Check()
	return d.properties
}

func (d *Device) Capabilities() Capabilities {
	d.noCopy.Check()
	return d.properties.Capabilities
}

func (d *Device) Name() string {
	d.noCopy.Check()
	return d.properties.Name
}

// SampleCountsSupported returns a bit mask of the supported sample counts, bit
// n set means 1<<n samples are supported.
func (d *Device) SampleCountsSupported(format Format) uint32 {
	d.noCopy.Check()
	if !format.Supported() {
		return 0
	}
	supported := uint32(0)
	for count := uint64(1); count <= 64; count <<= 1 {
		if d.mtl.SupportsTextureSampleCount(count) {
			supported |= uint32(count)
		}
	}
	return supported
}

func (d *Device) BeginCapture() bool {
	d.noCopy.Check()
	return d.mtl.StartCapture()
}

func (d *Device) EndCapture() bool {
	d.noCopy.Check()
	d.mtl.StopCapture()
	return true
}

func (d *Device) Destroy() {
	if d == nil {
		return
	}
	d.noCopy.Check()

	instance.logger.VPrintf("descriptorSetLayoutCache: %s", prettyString(&d.descriptorSetLayouts))
	instance.logger.VPrintf("clearPipelineCache: %s", prettyString(&d.clearPipelines))
	instance.logger.IPrintf("%s", d.BuildStatsString(false))

	d.clearPipelines.destroy()
	d.descriptorSetLayouts.destroy()
	d.nullBuffer.Destroy()
	d.resolvePipeline.Release()
	d.releaseClearState()
	d.mtl.Release()
	d.noCopy.Close()
}
