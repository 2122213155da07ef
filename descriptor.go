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
	"slices"
	"strings"

	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

type DescriptorRangeType uint32

const (
	DescriptorRangeTypeTexture DescriptorRangeType = iota
	DescriptorRangeTypeRWTexture
	DescriptorRangeTypeFormattedBuffer
	DescriptorRangeTypeRWFormattedBuffer
	DescriptorRangeTypeStructuredBuffer
	DescriptorRangeTypeRWStructuredBuffer
	DescriptorRangeTypeByteAddressBuffer
	DescriptorRangeTypeRWByteAddressBuffer
	DescriptorRangeTypeConstantBuffer
	DescriptorRangeTypeSampler
	DescriptorRangeTypeAccelerationStructure
)

func (t DescriptorRangeType) String() string {
	switch t {
	case DescriptorRangeTypeTexture:
		return "Texture"
	case DescriptorRangeTypeRWTexture:
		return "RWTexture"

	case DescriptorRangeTypeFormattedBuffer:
		return "FormattedBuffer"
	case DescriptorRangeTypeRWFormattedBuffer:
		return "RWFormattedBuffer"

	case DescriptorRangeTypeStructuredBuffer:
		return "StructuredBuffer"
	case DescriptorRangeTypeRWStructuredBuffer:
		return "RWStructuredBuffer"

	case DescriptorRangeTypeByteAddressBuffer:
		return "ByteAddressBuffer"
	case DescriptorRangeTypeRWByteAddressBuffer:
		return "RWByteAddressBuffer"

	case DescriptorRangeTypeConstantBuffer:
		return "ConstantBuffer"

	case DescriptorRangeTypeSampler:
		return "Sampler"

	case DescriptorRangeTypeAccelerationStructure:
		return "AccelerationStructure"

	default:
		abort("Unknown DescriptorRangeType: %d", t)
	}

	return ""
}

func (t DescriptorRangeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DescriptorRangeType) UnmarshalText(data []byte) error {
	for i := DescriptorRangeTypeTexture; i <= DescriptorRangeTypeAccelerationStructure; i++ {
		if strings.EqualFold(i.String(), string(data)) {
			*t = i
			return nil
		}
	}
	return debug.Errorf("Unknown descriptor range type: %q", string(data))
}

func mapDataType(t DescriptorRangeType) mtl.DataType {
	switch t {
	case DescriptorRangeTypeTexture, DescriptorRangeTypeRWTexture,
		DescriptorRangeTypeFormattedBuffer, DescriptorRangeTypeRWFormattedBuffer:
		return mtl.DataTypeTexture

	case DescriptorRangeTypeAccelerationStructure:
		return mtl.DataTypePrimitiveAccelerationStructure

	case DescriptorRangeTypeStructuredBuffer, DescriptorRangeTypeRWStructuredBuffer,
		DescriptorRangeTypeByteAddressBuffer, DescriptorRangeTypeRWByteAddressBuffer,
		DescriptorRangeTypeConstantBuffer:
		return mtl.DataTypePointer

	case DescriptorRangeTypeSampler:
		return mtl.DataTypeSampler

	default:
		abort("Unknown DescriptorRangeType: %d", t)
	}

	return mtl.DataTypeNone
}

// mapResourceUsage returns 0 for samplers, they are not resources and are never declared used.
func mapResourceUsage(t DescriptorRangeType) mtl.ResourceUsage {
	switch t {
	case DescriptorRangeTypeTexture, DescriptorRangeTypeFormattedBuffer,
		DescriptorRangeTypeStructuredBuffer, DescriptorRangeTypeByteAddressBuffer,
		DescriptorRangeTypeConstantBuffer, DescriptorRangeTypeAccelerationStructure:
		return mtl.ResourceUsageRead

	case DescriptorRangeTypeRWTexture, DescriptorRangeTypeRWFormattedBuffer,
		DescriptorRangeTypeRWStructuredBuffer, DescriptorRangeTypeRWByteAddressBuffer:
		return mtl.ResourceUsageRead | mtl.ResourceUsageWrite

	case DescriptorRangeTypeSampler:
		return 0

	default:
		abort("Unknown DescriptorRangeType: %d", t)
	}

	return 0
}

func mapBindingAccess(t DescriptorRangeType) mtl.BindingAccess {
	if hasBits(mapResourceUsage(t), mtl.ResourceUsageWrite) {
		return mtl.BindingAccessReadWrite
	}
	return mtl.BindingAccessReadOnly
}

type DescriptorRange struct {
	Binding uint32
	Count   uint32
	Type    DescriptorRangeType
	// ImmutableSamplers is either empty or holds Count samplers, they must
	// outlive every DescriptorSet created with the range.
	ImmutableSamplers []*Sampler
}

type DescriptorSetLayoutDesc struct {
	Ranges []DescriptorRange
	// LastRangeIsBoundless makes the last range, which must also have the
	// highest binding number, sized by DescriptorSetDesc.BoundlessRangeSize.
	LastRangeIsBoundless bool
}

type DescriptorSetDesc struct {
	Layout             DescriptorSetLayoutDesc
	BoundlessRangeSize uint32
}

type descriptorSetBinding struct {
	binding           uint32
	count             uint32
	rangeType         DescriptorRangeType
	immutableSamplers []*Sampler
}

func (b descriptorSetBinding) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"binding\": %d,", b.binding))
	buff.WriteString(fmt.Sprintf("\"count\": %d,", b.count))
	buff.WriteString(fmt.Sprintf("\"type\": %q,", b.rangeType.String()))
	buff.WriteString(fmt.Sprintf("\"immutableSamplers\": %d", len(b.immutableSamplers)))

	buff.WriteString("}")
	return buff.Bytes(), nil
}

type descriptorSetLayout struct {
	id             string
	bindingToIndex [MaxBindingNumber]int32
	bindings       []descriptorSetBinding

	// Parallel arrays with one entry per flat descriptor index.
	descriptorIndexBases     []uint32
	descriptorBindingIndices []uint32

	arguments []mtl.ArgumentDescriptor
}

func (l *descriptorSetLayout) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"id\": %q,", l.id))
	buff.WriteString(fmt.Sprintf("\"descriptors\": %d,", len(l.descriptorIndexBases)))
	buff.WriteString(fmt.Sprintf("\"arguments\": %d,", len(l.arguments)))

	buff.WriteString("\"bindings\": [")
	if len(l.bindings) > 0 {
		for _, binding := range l.bindings {
			buff.WriteString(fmt.Sprintf("%s,", jsonString(binding)))
		}
		buff.Truncate(buff.Len() - 1)
	}
	buff.WriteString("]")

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func descriptorSetLayoutID(desc DescriptorSetDesc) string {
	items := []any{}
	if desc.Layout.LastRangeIsBoundless {
		items = append(items, "boundless", max(desc.BoundlessRangeSize, 1))
	}
	for _, r := range desc.Layout.Ranges {
		items = append(items, r.Binding, r.Count, r.Type)
		for _, s := range r.ImmutableSamplers {
			items = append(items, s.id.String())
		}
	}
	return genID(items...)
}

func newArgumentDescriptor(r DescriptorRange, arrayLength uint64) mtl.ArgumentDescriptor {
	arg := mtl.ArgumentDescriptor{
		DataType:    mapDataType(r.Type),
		Index:       uint64(r.Binding),
		ArrayLength: arrayLength,
		Access:      mapBindingAccess(r.Type),
	}
	switch r.Type {
	case DescriptorRangeTypeTexture, DescriptorRangeTypeRWTexture:
		arg.TextureType = mtl.TextureType2D
	case DescriptorRangeTypeFormattedBuffer, DescriptorRangeTypeRWFormattedBuffer:
		arg.TextureType = mtl.TextureTypeTextureBuffer
	}
	return arg
}

/*
newDescriptorSetLayout flattens the ranges into per descriptor lookup tables and
builds the argument layout. Argument indices are binding numbers, binding
numbers no range covers are filled with zero length pointer arguments so the
encoded layout matches what the shader compiler emits.
*/
func newDescriptorSetLayout(maxTextureSize uint32, desc DescriptorSetDesc) *descriptorSetLayout {
	ranges := desc.Layout.Ranges
	if len(ranges) == 0 {
		abort("Descriptor set layout has no ranges")
	}

	l := descriptorSetLayout{id: descriptorSetLayoutID(desc)}
	for i := range l.bindingToIndex {
		l.bindingToIndex[i] = -1
	}

	boundlessSize := max(desc.BoundlessRangeSize, 1)
	for i, r := range ranges {
		if r.Binding >= MaxBindingNumber {
			abort("Descriptor binding %d is >= MaxBindingNumber(%d)", r.Binding, MaxBindingNumber)
		}
		if len(r.ImmutableSamplers) > 0 {
			if r.Type != DescriptorRangeTypeSampler {
				abort("Immutable samplers on binding %d of type %s", r.Binding, r.Type)
			}
			if uint32(len(r.ImmutableSamplers)) != r.Count {
				abort("Binding %d has %d immutable samplers for %d descriptors", r.Binding, len(r.ImmutableSamplers), r.Count)
			}
		}

		count := r.Count
		if desc.Layout.LastRangeIsBoundless && i == len(ranges)-1 {
			count = boundlessSize
		}
		base := uint32(len(l.descriptorIndexBases))
		for j := uint32(0); j < count; j++ {
			l.descriptorIndexBases = append(l.descriptorIndexBases, base)
			l.descriptorBindingIndices = append(l.descriptorBindingIndices, r.Binding)
		}
	}

	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b DescriptorRange) int {
		return int(a.Binding) - int(b.Binding)
	})

	fixed := sorted
	if desc.Layout.LastRangeIsBoundless {
		if sorted[len(sorted)-1].Binding != ranges[len(ranges)-1].Binding {
			abort("Boundless range at binding %d is not the highest binding", ranges[len(ranges)-1].Binding)
		}
		fixed = sorted[:len(sorted)-1]
	}

	curBinding := uint32(0)
	for _, r := range fixed {
		if r.Binding < curBinding {
			abort("Descriptor binding %d overlaps the previous range", r.Binding)
		}
		l.bindingToIndex[r.Binding] = int32(len(l.bindings))
		l.bindings = append(l.bindings, descriptorSetBinding{
			binding:           r.Binding,
			count:             r.Count,
			rangeType:         r.Type,
			immutableSamplers: r.ImmutableSamplers,
		})

		for ; curBinding < r.Binding; curBinding++ {
			l.arguments = append(l.arguments, mtl.ArgumentDescriptor{
				DataType: mtl.DataTypePointer,
				Index:    uint64(curBinding),
			})
		}
		curBinding += max(r.Count, 1)

		arrayLength := uint64(0)
		if r.Count > 1 {
			arrayLength = uint64(r.Count)
		}
		l.arguments = append(l.arguments, newArgumentDescriptor(r, arrayLength))
	}

	if desc.Layout.LastRangeIsBoundless {
		r := sorted[len(sorted)-1]
		if r.Binding < curBinding {
			abort("Descriptor binding %d overlaps the previous range", r.Binding)
		}
		l.bindingToIndex[r.Binding] = int32(len(l.bindings))
		l.bindings = append(l.bindings, descriptorSetBinding{
			binding:           r.Binding,
			count:             boundlessSize,
			rangeType:         r.Type,
			immutableSamplers: r.ImmutableSamplers,
		})
		for ; curBinding < r.Binding; curBinding++ {
			l.arguments = append(l.arguments, mtl.ArgumentDescriptor{
				DataType: mtl.DataTypePointer,
				Index:    uint64(curBinding),
			})
		}
		l.arguments = append(l.arguments, newArgumentDescriptor(r, uint64(maxTextureSize)))
	}

	if len(l.arguments) == 0 {
		abort("Descriptor set layout has no arguments")
	}
	return &l
}

func (l *descriptorSetLayout) descriptorCount() uint32 {
	return uint32(len(l.descriptorIndexBases))
}

func (l *descriptorSetLayout) binding(bindingNumber uint32) *descriptorSetBinding {
	if bindingNumber >= MaxBindingNumber {
		return nil
	}
	if i := l.bindingToIndex[bindingNumber]; i >= 0 {
		return &l.bindings[i]
	}
	return nil
}

type DescriptorInfo interface {
	isDescriptorInfo()
}

type BufferStructuredView struct {
	FirstElement        uint64
	StructureByteStride uint32
}

type DescriptorBufferInfo struct {
	Buffer *Buffer
	// Size of the bound range, 0 binds everything after the view's offset.
	Size           uint64
	StructuredView *BufferStructuredView
	FormattedView  *BufferFormattedView
}

func (DescriptorBufferInfo) isDescriptorInfo() {}

type DescriptorTextureInfo struct {
	Texture *Texture
	View    *TextureView
}

func (DescriptorTextureInfo) isDescriptorInfo() {}

type DescriptorSamplerInfo struct {
	Sampler *Sampler
}

func (DescriptorSamplerInfo) isDescriptorInfo() {}

type descriptorResource struct {
	// owner keeps the bound object reachable, resource holds a native retain
	// released on overwrite and on Destroy.
	owner     any
	resource  mtl.Resource
	rangeType DescriptorRangeType
}

type DescriptorSet struct {
	noCopy         util.NoCopy
	device         *Device
	desc           DescriptorSetDesc
	layout         *descriptorSetLayout
	argumentBuffer mtl.Buffer
	encoder        mtl.ArgumentEncoder
	resources      []descriptorResource
}

func (d *Device) NewDescriptorSet(desc DescriptorSetDesc) *DescriptorSet {
	d.noCopy.Check()
	if desc.Layout.LastRangeIsBoundless {
		desc.BoundlessRangeSize = max(desc.BoundlessRangeSize, 1)
	}

	s := DescriptorSet{
		device: d,
		desc:   desc,
		layout: d.descriptorSetLayouts.createOrRetrieve(d.properties.Capabilities.MaxTextureSize, desc),
	}
	s.encoder = d.mtl.NewArgumentEncoder(s.layout.arguments)
	s.argumentBuffer = d.mtl.NewBuffer(alignUp(s.encoder.EncodedLength(), 256), mtl.ResourceStorageModeShared)
	s.argumentBuffer.SetLabel(fmt.Sprintf("DescriptorSet_%s", s.layout.id))
	s.encoder.SetArgumentBuffer(s.argumentBuffer, 0)
	s.resources = make([]descriptorResource, s.layout.descriptorCount())
	s.noCopy.Init()

	for _, b := range s.layout.bindings {
		for i, sampler := range b.immutableSamplers {
			sampler.noCopy.Check()
			s.encoder.SetSamplerState(sampler.mtl, uint64(b.binding)+uint64(i))
		}
	}
	s.markModified()

	d.stats.descriptorSets.Add(1)
	return &s
}

func (s *DescriptorSet) Layout() DescriptorSetLayoutDesc {
	s.noCopy.Check()
	return s.desc.Layout
}

// MaxDescriptorCount returns how many descriptors the binding holds, for the
// boundless range this is the BoundlessRangeSize the set was created with.
func (s *DescriptorSet) MaxDescriptorCount(bindingNumber uint32) uint32 {
	s.noCopy.Check()
	b := s.layout.binding(bindingNumber)
	if b == nil {
		abort("Binding %d not found in descriptor set layout", bindingNumber)
	}
	return b.count
}

// DescriptorCount returns the number of flat descriptor indices in the set.
func (s *DescriptorSet) DescriptorCount() uint32 {
	s.noCopy.Check()
	return s.layout.descriptorCount()
}

// DescriptorIndex returns the flat descriptor index of element in the range at bindingNumber.
func (s *DescriptorSet) DescriptorIndex(bindingNumber, element uint32) uint32 {
	s.noCopy.Check()
	b := s.layout.binding(bindingNumber)
	if b == nil {
		abort("Binding %d not found in descriptor set layout", bindingNumber)
	}
	if element >= b.count {
		abort("Element %d outside of binding %d with %d descriptors", element, bindingNumber, b.count)
	}
	i := slices.Index(s.layout.descriptorBindingIndices, bindingNumber)
	return s.layout.descriptorIndexBases[i] + element
}

func (s *DescriptorSet) resolve(index uint32) (uint64, *descriptorSetBinding) {
	if index >= s.layout.descriptorCount() {
		abort("Descriptor index %d outside of set with %d descriptors", index, s.layout.descriptorCount())
	}
	base := s.layout.descriptorIndexBases[index]
	bindingNumber := s.layout.descriptorBindingIndices[index]
	return uint64(index-base) + uint64(bindingNumber), s.layout.binding(bindingNumber)
}

func (s *DescriptorSet) markModified() {
	if s.argumentBuffer.StorageMode() == mtl.StorageModeManaged {
		s.argumentBuffer.DidModifyRange(0, s.argumentBuffer.Length())
	}
}

func (s *DescriptorSet) setDescriptor(index uint32, want mtl.DataType, owner any, resource mtl.Resource, encode func(slot uint64)) {
	slot, binding := s.resolve(index)
	if dataType := mapDataType(binding.rangeType); dataType != want {
		abort("Descriptor index %d has type %s", index, binding.rangeType)
	}

	prev := s.resources[index].resource
	s.resources[index] = descriptorResource{rangeType: binding.rangeType}
	encode(slot)
	if want != mtl.DataTypeSampler && owner != nil {
		resource.Retain()
		s.resources[index].owner = owner
		s.resources[index].resource = resource
	}
	if prev != nil {
		prev.Release()
	}
	s.markModified()
}

/*
SetBuffer binds buffer at the flat descriptor index, a nil buffer clears the
descriptor. Formatted views bind their texture buffer, structured views offset
the binding by FirstElement * StructureByteStride.
*/
func (s *DescriptorSet) SetBuffer(index uint32, buffer *Buffer, size uint64, structuredView *BufferStructuredView, formattedView *BufferFormattedView) {
	s.noCopy.Check()
	if buffer == nil {
		_, binding := s.resolve(index)
		if mapDataType(binding.rangeType) == mtl.DataTypeTexture {
			s.setDescriptor(index, mtl.DataTypeTexture, nil, nil, func(slot uint64) { s.encoder.SetTexture(nil, slot) })
		} else {
			s.setDescriptor(index, mtl.DataTypePointer, nil, nil, func(slot uint64) { s.encoder.SetBuffer(nil, 0, slot) })
		}
		return
	}
	buffer.noCopy.Check()

	if formattedView != nil {
		if structuredView != nil {
			abort("Cannot use a structured view and a formatted view at the same time")
		}
		formattedView.noCopy.Check()
		if formattedView.buffer != buffer {
			abort("Formatted view does not belong to the bound buffer")
		}
		s.setDescriptor(index, mtl.DataTypeTexture, formattedView, formattedView.texture, func(slot uint64) {
			s.encoder.SetTexture(formattedView.texture, slot)
		})
		return
	}

	offset := uint64(0)
	if structuredView != nil {
		if structuredView.StructureByteStride == 0 {
			abort("Structured view with a StructureByteStride of 0")
		}
		offset = structuredView.FirstElement * uint64(structuredView.StructureByteStride)
	}
	if offset+size > buffer.desc.Size {
		abort("Binding %d bytes at offset %d outside of buffer of size %d", size, offset, buffer.desc.Size)
	}
	s.setDescriptor(index, mtl.DataTypePointer, buffer, buffer.mtl, func(slot uint64) {
		s.encoder.SetBuffer(buffer.mtl, offset, slot)
	})
}

// SetTexture binds the view if given, otherwise the whole texture.
func (s *DescriptorSet) SetTexture(index uint32, texture *Texture, view *TextureView) {
	s.noCopy.Check()
	if texture == nil {
		s.setDescriptor(index, mtl.DataTypeTexture, nil, nil, func(slot uint64) { s.encoder.SetTexture(nil, slot) })
		return
	}
	texture.noCopy.Check()

	if view != nil {
		view.noCopy.Check()
		if view.texture != texture {
			abort("Texture view does not belong to the bound texture")
		}
		s.setDescriptor(index, mtl.DataTypeTexture, view, view.mtl, func(slot uint64) {
			s.encoder.SetTexture(view.mtl, slot)
		})
		return
	}
	s.setDescriptor(index, mtl.DataTypeTexture, texture, texture.mtl, func(slot uint64) {
		s.encoder.SetTexture(texture.mtl, slot)
	})
}

func (s *DescriptorSet) SetSampler(index uint32, sampler *Sampler) {
	s.noCopy.Check()
	if sampler == nil {
		s.setDescriptor(index, mtl.DataTypeSampler, nil, nil, func(slot uint64) { s.encoder.SetSamplerState(nil, slot) })
		return
	}
	sampler.noCopy.Check()
	s.setDescriptor(index, mtl.DataTypeSampler, sampler, nil, func(slot uint64) {
		s.encoder.SetSamplerState(sampler.mtl, slot)
	})
}

// SetAccelerationStructure is not supported, the descriptor is left untouched.
func (s *DescriptorSet) SetAccelerationStructure(index uint32, accelerationStructure any) {
	s.noCopy.Check()
	s.resolve(index)
	instance.logger.WPrintf("Acceleration structures are not supported, ignoring bind to descriptor index %d", index)
}

func (s *DescriptorSet) Bind(index uint32, info DescriptorInfo) {
	s.noCopy.Check()
	switch i := info.(type) {
	case DescriptorBufferInfo:
		s.SetBuffer(index, i.Buffer, i.Size, i.StructuredView, i.FormattedView)
	case DescriptorTextureInfo:
		s.SetTexture(index, i.Texture, i.View)
	case DescriptorSamplerInfo:
		s.SetSampler(index, i.Sampler)
	default:
		abort("Trying to bind unknown descriptor info: %#v", info)
	}
}

// useResources calls f once for every bound resource with the usage its binding
// type requires.
func (s *DescriptorSet) useResources(f func(mtl.Resource, mtl.ResourceUsage)) {
	for _, r := range s.resources {
		if r.resource == nil {
			continue
		}
		if usage := mapResourceUsage(r.rangeType); usage != 0 {
			f(r.resource, usage)
		}
	}
}

func (s *DescriptorSet) Destroy() {
	if s == nil {
		return
	}
	s.noCopy.Check()
	for _, r := range s.resources {
		if r.resource != nil {
			r.resource.Release()
		}
	}
	clear(s.resources)
	s.encoder.Release()
	s.argumentBuffer.Release()
	s.device.stats.descriptorSets.Add(-1)
	s.noCopy.Close()
}
