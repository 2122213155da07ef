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
Package headless implements the mtl interfaces without a GPU.

Every encoder command is recorded so the resulting command stream can be
inspected, and command buffers complete as soon as they are committed unless
completion is held with Device.HoldCompletion. Libraries are created from MSL
source (or from data holding MSL source) and expose every vertex, fragment and
kernel function declared in it.
*/
package headless

import (
	"sync"
	"sync/atomic"

	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/mtl"
)

var instance = struct {
	logger *debug.Logger
}{
	logger: debug.NewLogger("mxr", "headless"),
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	panic("Fatal Error")
}

var nextID atomic.Uint64

func newID() uint64 {
	return nextID.Add(1)
}

type DeviceOptions struct {
	Name               string
	Families           []mtl.GPUFamily
	UnifiedMemory      bool
	MaxWorkingSetSize  uint64
	SampleCounts       []uint64
	SamplePositions    bool
	LinearTextureAlign uint64
}

// DefaultDeviceOptions describes an Apple silicon class device.
func DefaultDeviceOptions() DeviceOptions {
	return DeviceOptions{
		Name:               "Headless Device",
		Families:           []mtl.GPUFamily{mtl.GPUFamilyApple3, mtl.GPUFamilyApple7, mtl.GPUFamilyMac2, mtl.GPUFamilyMetal3},
		UnifiedMemory:      true,
		MaxWorkingSetSize:  8 << 30,
		SampleCounts:       []uint64{1, 2, 4, 8},
		SamplePositions:    true,
		LinearTextureAlign: 16,
	}
}

type Driver struct {
	devices []*Device
}

var _ mtl.Driver = (*Driver)(nil)

// NewDriver creates a driver exposing one device per options, or a single
// device with DefaultDeviceOptions if none are given.
func NewDriver(options ...DeviceOptions) *Driver {
	if len(options) == 0 {
		options = []DeviceOptions{DefaultDeviceOptions()}
	}
	d := Driver{}
	for _, o := range options {
		d.devices = append(d.devices, NewDevice(o))
	}
	return &d
}

func (d *Driver) Devices() []mtl.Device {
	ret := make([]mtl.Device, len(d.devices))
	for i, dev := range d.devices {
		ret[i] = dev
	}
	return ret
}

func (d *Driver) DefaultDevice() mtl.Device {
	if len(d.devices) == 0 {
		return nil
	}
	return d.devices[0]
}

type Device struct {
	options DeviceOptions

	mutex          sync.Mutex
	holdCompletion bool
	pending        []*CommandBuffer
	commandBuffers []*CommandBuffer
	failPipelines  bool
	capturing      bool

	renderPipelineStates  atomic.Int64
	computePipelineStates atomic.Int64
	buffers               atomic.Int64
	textures              atomic.Int64
	released              atomic.Int64
}

var _ mtl.Device = (*Device)(nil)

func NewDevice(options DeviceOptions) *Device {
	if options.LinearTextureAlign == 0 {
		options.LinearTextureAlign = 16
	}
	return &Device{options: options}
}

func (d *Device) Release() {
	d.released.Add(1)
}

func (d *Device) Name() string {
	return d.options.Name
}

func (d *Device) SupportsFamily(f mtl.GPUFamily) bool {
	for _, family := range d.options.Families {
		if family == f {
			return true
		}
	}
	return false
}

func (d *Device) HasUnifiedMemory() bool {
	return d.options.UnifiedMemory
}

func (d *Device) RecommendedMaxWorkingSetSize() uint64 {
	return d.options.MaxWorkingSetSize
}

func (d *Device) SupportsTextureSampleCount(count uint64) bool {
	for _, c := range d.options.SampleCounts {
		if c == count {
			return true
		}
	}
	return false
}

func (d *Device) ProgrammableSamplePositionsSupported() bool {
	return d.options.SamplePositions
}

func (d *Device) MinimumLinearTextureAlignmentForPixelFormat(mtl.PixelFormat) uint64 {
	return d.options.LinearTextureAlign
}

func (d *Device) NewCommandQueue() mtl.CommandQueue {
	return &CommandQueue{device: d}
}

func (d *Device) NewBuffer(length uint64, options mtl.ResourceOptions) mtl.Buffer {
	d.buffers.Add(1)
	b := Buffer{
		id:      newID(),
		device:  d,
		options: options,
		address: newID() << 32,
	}
	if options.StorageMode() != mtl.StorageModePrivate {
		b.contents = make([]byte, length)
	}
	b.length = length
	return &b
}

func (d *Device) NewTexture(desc mtl.TextureDescriptor) mtl.Texture {
	d.textures.Add(1)
	return newTexture(d, desc)
}

func (d *Device) NewSamplerState(desc mtl.SamplerDescriptor) mtl.SamplerState {
	return &SamplerState{ID: newID(), Desc: desc}
}

func (d *Device) NewDepthStencilState(desc mtl.DepthStencilDescriptor) mtl.DepthStencilState {
	ret := DepthStencilState{ID: newID(), Desc: desc}
	if desc.FrontFaceStencil != nil {
		s := *desc.FrontFaceStencil
		ret.Desc.FrontFaceStencil = &s
	}
	if desc.BackFaceStencil != nil {
		s := *desc.BackFaceStencil
		ret.Desc.BackFaceStencil = &s
	}
	return &ret
}

func (d *Device) NewLibraryWithSource(source string) (mtl.Library, error) {
	return newLibrary(source)
}

func (d *Device) NewLibraryWithData(data []byte) (mtl.Library, error) {
	return newLibrary(string(data))
}

// FailPipelineCreation makes every following pipeline creation fail until called with false.
func (d *Device) FailPipelineCreation(fail bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.failPipelines = fail
}

func (d *Device) shouldFailPipelines() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.failPipelines
}

func (d *Device) NewRenderPipelineState(desc *mtl.RenderPipelineDescriptor) (mtl.RenderPipelineState, error) {
	if d.shouldFailPipelines() {
		return nil, debug.Errorf("Pipeline creation disabled on device %q", d.options.Name)
	}
	if desc.VertexFunction == nil {
		return nil, debug.Errorf("Render pipeline %q has no vertex function", desc.Label)
	}
	if len(desc.ColorAttachments) > 8 {
		return nil, debug.Errorf("Render pipeline %q has %d color attachments", desc.Label, len(desc.ColorAttachments))
	}
	d.renderPipelineStates.Add(1)
	ret := RenderPipelineState{ID: newID(), Desc: *desc}
	ret.Desc.ColorAttachments = append([]mtl.RenderPipelineColorAttachmentDescriptor{}, desc.ColorAttachments...)
	return &ret, nil
}

func (d *Device) NewComputePipelineState(f mtl.Function) (mtl.ComputePipelineState, error) {
	if d.shouldFailPipelines() {
		return nil, debug.Errorf("Pipeline creation disabled on device %q", d.options.Name)
	}
	fn, ok := f.(*Function)
	if !ok || fn == nil {
		return nil, debug.Errorf("Invalid compute function")
	}
	if fn.Kind != FunctionKindKernel {
		return nil, debug.Errorf("Function %q is not a kernel", fn.FunctionName)
	}
	d.computePipelineStates.Add(1)
	return &ComputePipelineState{ID: newID(), Function: fn}, nil
}

func (d *Device) NewArgumentEncoder(args []mtl.ArgumentDescriptor) mtl.ArgumentEncoder {
	return newArgumentEncoder(args)
}

func (d *Device) NewFence() mtl.Fence {
	return &Fence{ID: newID()}
}

func (d *Device) NewSharedEvent() mtl.SharedEvent {
	return &SharedEvent{ID: newID()}
}

func (d *Device) StartCapture() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.capturing {
		return false
	}
	d.capturing = true
	return true
}

func (d *Device) StopCapture() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.capturing = false
}

// HoldCompletion stops committed command buffers from completing until Complete is called.
func (d *Device) HoldCompletion(hold bool) {
	d.mutex.Lock()
	d.holdCompletion = hold
	d.mutex.Unlock()
	if !hold {
		d.Complete()
	}
}

// Complete finishes every committed command buffer in commit order.
func (d *Device) Complete() {
	d.mutex.Lock()
	pending := d.pending
	d.pending = nil
	d.mutex.Unlock()

	for _, cb := range pending {
		cb.complete()
	}
}

func (d *Device) commit(cb *CommandBuffer) {
	d.mutex.Lock()
	d.commandBuffers = append(d.commandBuffers, cb)
	if d.holdCompletion {
		d.pending = append(d.pending, cb)
		d.mutex.Unlock()
		return
	}
	d.mutex.Unlock()
	cb.complete()
}

// CommandBuffers returns every committed command buffer in commit order.
func (d *Device) CommandBuffers() []*CommandBuffer {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]*CommandBuffer{}, d.commandBuffers...)
}

// PendingCount returns the number of committed command buffers waiting for Complete.
func (d *Device) PendingCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return len(d.pending)
}

func (d *Device) RenderPipelineStateCount() int {
	return int(d.renderPipelineStates.Load())
}

func (d *Device) ComputePipelineStateCount() int {
	return int(d.computePipelineStates.Load())
}

func (d *Device) BufferCount() int {
	return int(d.buffers.Load())
}

func (d *Device) TextureCount() int {
	return int(d.textures.Load())
}

type SamplerState struct {
	ID   uint64
	Desc mtl.SamplerDescriptor
}

func (*SamplerState) Release() {}

type DepthStencilState struct {
	ID   uint64
	Desc mtl.DepthStencilDescriptor
}

func (*DepthStencilState) Release() {}

type RenderPipelineState struct {
	ID   uint64
	Desc mtl.RenderPipelineDescriptor
}

func (*RenderPipelineState) Release() {}

type ComputePipelineState struct {
	ID       uint64
	Function *Function
}

func (*ComputePipelineState) Release() {}

func (*ComputePipelineState) MaxTotalThreadsPerThreadgroup() uint64 {
	return 1024
}

type Fence struct {
	ID    uint64
	Label string
}

func (*Fence) Release() {}

func (f *Fence) SetLabel(l string) {
	f.Label = l
}

type SharedEvent struct {
	ID    uint64
	value atomic.Uint64
}

func (*SharedEvent) Release() {}

func (e *SharedEvent) SignaledValue() uint64 {
	return e.value.Load()
}

func (e *SharedEvent) signal(v uint64) {
	for {
		cur := e.value.Load()
		if cur >= v || e.value.CompareAndSwap(cur, v) {
			return
		}
	}
}
