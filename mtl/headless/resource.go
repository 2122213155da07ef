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

package headless

import (
	"regexp"
	"sync"
	"sync/atomic"

	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/mtl"
)

type Buffer struct {
	id       uint64
	device   *Device
	label    string
	options  mtl.ResourceOptions
	length   uint64
	contents []byte
	address  uint64
	retains  atomic.Int32
	released bool

	mutex    sync.Mutex
	modified []mtl.Range
}

var _ mtl.Buffer = (*Buffer)(nil)

func (b *Buffer) ID() uint64 {
	return b.id
}

func (b *Buffer) Label() string {
	return b.label
}

func (b *Buffer) SetLabel(l string) {
	b.label = l
}

func (b *Buffer) Retain() {
	if b.released {
		abort("Retain called on released buffer %q", b.label)
	}
	b.retains.Add(1)
}

func (b *Buffer) Release() {
	if b.retains.Add(-1) >= 0 {
		return
	}
	b.retains.Store(0)
	b.released = true
	b.device.released.Add(1)
}

func (b *Buffer) Released() bool {
	return b.released
}

func (b *Buffer) StorageMode() mtl.StorageMode {
	return b.options.StorageMode()
}

func (b *Buffer) Length() uint64 {
	return b.length
}

func (b *Buffer) Contents() []byte {
	return b.contents
}

func (b *Buffer) DidModifyRange(offset, length uint64) {
	if offset+length > b.length {
		abort("DidModifyRange [%d, %d) outside of buffer of length %d", offset, offset+length, b.length)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.modified = append(b.modified, mtl.Range{Location: offset, Length: length})
}

// ModifiedRanges returns every range passed to DidModifyRange.
func (b *Buffer) ModifiedRanges() []mtl.Range {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]mtl.Range{}, b.modified...)
}

func (b *Buffer) GPUAddress() uint64 {
	return b.address
}

func (b *Buffer) NewTexture(desc mtl.TextureDescriptor, offset, bytesPerRow uint64) mtl.Texture {
	if bytesPerRow%b.device.options.LinearTextureAlign != 0 {
		abort("bytesPerRow %d is not aligned to %d", bytesPerRow, b.device.options.LinearTextureAlign)
	}
	t := newTexture(b.device, desc)
	t.parentBuffer = b
	t.bufferOffset = offset
	t.bytesPerRow = bytesPerRow
	return t
}

type Texture struct {
	id       uint64
	label    string
	desc     mtl.TextureDescriptor
	swizzle  mtl.TextureSwizzleChannels
	retains  atomic.Int32
	released bool

	parent       *Texture
	levels       mtl.Range
	slices       mtl.Range
	parentBuffer *Buffer
	bufferOffset uint64
	bytesPerRow  uint64
}

var _ mtl.Texture = (*Texture)(nil)

func newTexture(d *Device, desc mtl.TextureDescriptor) *Texture {
	if desc.Width == 0 {
		abort("Texture width must be > 0")
	}
	if desc.Height == 0 {
		desc.Height = 1
	}
	if desc.Depth == 0 {
		desc.Depth = 1
	}
	if desc.MipmapLevelCount == 0 {
		desc.MipmapLevelCount = 1
	}
	if desc.ArrayLength == 0 {
		desc.ArrayLength = 1
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	if desc.SampleCount > 1 && !d.SupportsTextureSampleCount(desc.SampleCount) {
		abort("Unsupported sample count: %d", desc.SampleCount)
	}
	return &Texture{
		id:      newID(),
		desc:    desc,
		swizzle: mtl.IdentitySwizzle(),
		levels:  mtl.Range{Location: 0, Length: desc.MipmapLevelCount},
		slices:  mtl.Range{Location: 0, Length: desc.ArrayLength},
	}
}

func (t *Texture) ID() uint64 {
	return t.id
}

func (t *Texture) Label() string {
	return t.label
}

func (t *Texture) SetLabel(l string) {
	t.label = l
}

func (t *Texture) Retain() {
	if t.released {
		abort("Retain called on released texture %q", t.label)
	}
	t.retains.Add(1)
}

func (t *Texture) Release() {
	if t.retains.Add(-1) >= 0 {
		return
	}
	t.retains.Store(0)
	t.released = true
}

func (t *Texture) Released() bool {
	return t.released
}

func (t *Texture) StorageMode() mtl.StorageMode {
	return t.desc.StorageMode
}

func (t *Texture) TextureType() mtl.TextureType {
	return t.desc.TextureType
}

func (t *Texture) PixelFormat() mtl.PixelFormat {
	return t.desc.PixelFormat
}

func (t *Texture) Width() uint64 {
	return t.desc.Width
}

func (t *Texture) Height() uint64 {
	return t.desc.Height
}

func (t *Texture) Depth() uint64 {
	return t.desc.Depth
}

func (t *Texture) MipmapLevelCount() uint64 {
	return t.desc.MipmapLevelCount
}

func (t *Texture) ArrayLength() uint64 {
	return t.desc.ArrayLength
}

func (t *Texture) SampleCount() uint64 {
	return t.desc.SampleCount
}

func (t *Texture) Usage() mtl.TextureUsage {
	return t.desc.Usage
}

// Parent returns the texture a view was created from.
func (t *Texture) Parent() *Texture {
	return t.parent
}

func (t *Texture) Levels() mtl.Range {
	return t.levels
}

func (t *Texture) Slices() mtl.Range {
	return t.slices
}

func (t *Texture) Swizzle() mtl.TextureSwizzleChannels {
	return t.swizzle
}

// Buffer returns the buffer backing a texture buffer along with its offset and row pitch.
func (t *Texture) Buffer() (*Buffer, uint64, uint64) {
	return t.parentBuffer, t.bufferOffset, t.bytesPerRow
}

func (t *Texture) NewTextureView(format mtl.PixelFormat, textureType mtl.TextureType, levels, slices mtl.Range, swizzle mtl.TextureSwizzleChannels) mtl.Texture {
	if levels.Location+levels.Length > t.desc.MipmapLevelCount {
		abort("View levels [%d, %d) outside of texture with %d levels", levels.Location, levels.Location+levels.Length, t.desc.MipmapLevelCount)
	}
	if slices.Location+slices.Length > t.desc.ArrayLength {
		abort("View slices [%d, %d) outside of texture with %d slices", slices.Location, slices.Location+slices.Length, t.desc.ArrayLength)
	}
	desc := t.desc
	desc.PixelFormat = format
	desc.TextureType = textureType
	desc.MipmapLevelCount = levels.Length
	desc.ArrayLength = slices.Length
	return &Texture{
		id:      newID(),
		desc:    desc,
		swizzle: swizzle,
		parent:  t,
		levels:  levels,
		slices:  slices,
	}
}

type FunctionKind int

const (
	FunctionKindVertex FunctionKind = iota
	FunctionKindFragment
	FunctionKindKernel
)

type Function struct {
	ID           uint64
	FunctionName string
	Kind         FunctionKind
	Constants    []mtl.FunctionConstantValue
}

var _ mtl.Function = (*Function)(nil)

func (*Function) Release() {}

func (f *Function) Name() string {
	return f.FunctionName
}

type Library struct {
	ID        uint64
	functions map[string]FunctionKind
}

var _ mtl.Library = (*Library)(nil)

var functionPattern = regexp.MustCompile(`(?m)\b(vertex|fragment|kernel)\s+[A-Za-z_][A-Za-z0-9_<>:,\s]*?\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

func newLibrary(source string) (*Library, error) {
	l := Library{ID: newID(), functions: map[string]FunctionKind{}}
	for _, m := range functionPattern.FindAllStringSubmatch(source, -1) {
		switch m[1] {
		case "vertex":
			l.functions[m[2]] = FunctionKindVertex
		case "fragment":
			l.functions[m[2]] = FunctionKindFragment
		case "kernel":
			l.functions[m[2]] = FunctionKindKernel
		}
	}
	if len(l.functions) == 0 {
		return nil, debug.Errorf("Library has no entry points")
	}
	return &l, nil
}

func (*Library) Release() {}

func (l *Library) NewFunction(name string) (mtl.Function, error) {
	return l.NewFunctionWithConstants(name, nil)
}

func (l *Library) NewFunctionWithConstants(name string, constants []mtl.FunctionConstantValue) (mtl.Function, error) {
	kind, ok := l.functions[name]
	if !ok {
		return nil, debug.Errorf("Function %q not found in library", name)
	}
	return &Function{
		ID:           newID(),
		FunctionName: name,
		Kind:         kind,
		Constants:    append([]mtl.FunctionConstantValue{}, constants...),
	}, nil
}

// Functions returns the names and kinds of every entry point in the library.
func (l *Library) Functions() map[string]FunctionKind {
	ret := make(map[string]FunctionKind, len(l.functions))
	for k, v := range l.functions {
		ret[k] = v
	}
	return ret
}

const argumentSlotSize = 8

type ArgumentEncoder struct {
	ID        uint64
	Arguments []mtl.ArgumentDescriptor

	length  uint64
	offsets map[uint64]uint64
	buffer  *Buffer
	offset  uint64

	mutex  sync.Mutex
	writes map[uint64]any
}

var _ mtl.ArgumentEncoder = (*ArgumentEncoder)(nil)

func newArgumentEncoder(args []mtl.ArgumentDescriptor) *ArgumentEncoder {
	e := ArgumentEncoder{
		ID:        newID(),
		Arguments: append([]mtl.ArgumentDescriptor{}, args...),
		offsets:   map[uint64]uint64{},
		writes:    map[uint64]any{},
	}
	for _, a := range args {
		if _, found := e.offsets[a.Index]; found {
			abort("Duplicate argument index: %d", a.Index)
		}
		e.offsets[a.Index] = e.length
		e.length += max(a.ArrayLength, 1) * argumentSlotSize
	}
	return &e
}

func (*ArgumentEncoder) Release() {}

func (e *ArgumentEncoder) EncodedLength() uint64 {
	return e.length
}

func (e *ArgumentEncoder) SetArgumentBuffer(buffer mtl.Buffer, offset uint64) {
	b, ok := buffer.(*Buffer)
	if !ok || b == nil {
		abort("Invalid argument buffer")
	}
	if offset+e.length > b.length {
		abort("Argument buffer of length %d too small for %d bytes at offset %d", b.length, e.length, offset)
	}
	e.buffer = b
	e.offset = offset
}

func (e *ArgumentEncoder) checkSlot(index uint64, want mtl.DataType) {
	if e.buffer == nil {
		abort("No argument buffer set")
	}
	var base *mtl.ArgumentDescriptor
	for i := range e.Arguments {
		a := &e.Arguments[i]
		if index >= a.Index && index < a.Index+max(a.ArrayLength, 1) {
			base = a
			break
		}
	}
	if base == nil {
		abort("Argument index %d not found in encoder", index)
	}
	if base.DataType != want {
		abort("Argument index %d has data type %d, encoding %d", index, base.DataType, want)
	}
}

func (e *ArgumentEncoder) write(index uint64, v any) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if v == nil {
		delete(e.writes, index)
		return
	}
	e.writes[index] = v
}

type BufferArgument struct {
	Buffer *Buffer
	Offset uint64
}

func (e *ArgumentEncoder) SetBuffer(buffer mtl.Buffer, offset uint64, index uint64) {
	e.checkSlot(index, mtl.DataTypePointer)
	if buffer == nil {
		e.write(index, nil)
		return
	}
	e.write(index, BufferArgument{Buffer: buffer.(*Buffer), Offset: offset})
}

func (e *ArgumentEncoder) SetTexture(texture mtl.Texture, index uint64) {
	e.checkSlot(index, mtl.DataTypeTexture)
	if texture == nil {
		e.write(index, nil)
		return
	}
	e.write(index, texture.(*Texture))
}

func (e *ArgumentEncoder) SetSamplerState(sampler mtl.SamplerState, index uint64) {
	e.checkSlot(index, mtl.DataTypeSampler)
	if sampler == nil {
		e.write(index, nil)
		return
	}
	e.write(index, sampler.(*SamplerState))
}

// Argument returns what was last encoded at index: a BufferArgument, *Texture, *SamplerState or nil.
func (e *ArgumentEncoder) Argument(index uint64) any {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.writes[index]
}

// Buffer returns the argument buffer the encoder writes into.
func (e *ArgumentEncoder) Buffer() *Buffer {
	return e.buffer
}
