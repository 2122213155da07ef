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


package managed

import (
	"goarrg.com/rhi/mxr"
	"goarrg.com/rhi/mxr/internal/container"
	"goarrg.com/rhi/mxr/internal/util"
)

type retiredIndex struct {
	fence *mxr.CommandFence
	value uint64
	index uint32
}

type descriptorArray[K comparable] struct {
	noCopy             util.NoCopy
	set                *mxr.DescriptorSet
	binding            uint32
	next               uint32
	freeStack          container.Stack[uint32]
	retired            []retiredIndex
	managedDescriptors map[K]uint32
	// empty is bound into freed elements so the set stops referencing their resources.
	empty mxr.DescriptorInfo
}

func (d *descriptorArray[K]) init(set *mxr.DescriptorSet, binding uint32, empty mxr.DescriptorInfo) {
	// Validates the binding.
	set.MaxDescriptorCount(binding)
	d.set = set
	d.binding = binding
	d.empty = empty
	d.managedDescriptors = map[K]uint32{}
	d.noCopy.Init()
}

func (d *descriptorArray[K]) free(i uint32) {
	d.set.Bind(d.set.DescriptorIndex(d.binding, i), d.empty)
	d.freeStack.Push(i)
}

func (d *descriptorArray[K]) reclaim() {
	kept := d.retired[:0]
	for _, r := range d.retired {
		if r.fence.Reached(r.value) {
			d.free(r.index)
		} else {
			kept = append(kept, r)
		}
	}
	clear(d.retired[len(kept):])
	d.retired = kept
}

func (d *descriptorArray[K]) push(key K, info mxr.DescriptorInfo) uint32 {
	d.noCopy.Check()
	if i, found := d.managedDescriptors[key]; found {
		return i
	}
	d.reclaim()

	var i uint32
	if d.freeStack.Empty() {
		if d.next >= d.set.MaxDescriptorCount(d.binding) {
			abort("Trying to push descriptor into a full array at binding %d", d.binding)
		}
		i = d.next
		d.next++
	} else {
		i = d.freeStack.Pop()
	}
	d.managedDescriptors[key] = i
	d.set.Bind(d.set.DescriptorIndex(d.binding, i), info)
	return i
}

/*
pop removes key from the array. Its element is cleared and handed out again
only after fence has completed every submission made before the call, so
shaders still reading the old descriptor are never affected. A nil fence frees
the element immediately.
*/
func (d *descriptorArray[K]) pop(fence *mxr.CommandFence, key K) {
	d.noCopy.Check()
	i, found := d.managedDescriptors[key]
	if !found {
		return
	}
	delete(d.managedDescriptors, key)
	if fence == nil {
		d.free(i)
		return
	}
	d.retired = append(d.retired, retiredIndex{fence: fence, value: fence.PendingValue(), index: i})
	d.reclaim()
}

func (d *descriptorArray[K]) Len() int {
	d.noCopy.Check()
	return len(d.managedDescriptors)
}

/*
DescriptorArrayBuffer manages inserting and removing Buffers from a descriptor array,
it is the user's responsibility to handle sync.
*/
type DescriptorArrayBuffer struct {
	descriptorArray[mxr.DescriptorBufferInfo]
}

func NewDescriptorArrayBuffer(set *mxr.DescriptorSet, binding uint32) *DescriptorArrayBuffer {
	ret := DescriptorArrayBuffer{}
	ret.init(set, binding, mxr.DescriptorBufferInfo{})
	return &ret
}

// Push returns the array element holding info, the same info always maps to the same element.
func (d *DescriptorArrayBuffer) Push(info mxr.DescriptorBufferInfo) uint32 {
	return d.push(info, info)
}

func (d *DescriptorArrayBuffer) Pop(fence *mxr.CommandFence, info mxr.DescriptorBufferInfo) {
	d.pop(fence, info)
}

/*
DescriptorArrayTexture manages inserting and removing Textures from a descriptor array,
it is the user's responsibility to handle sync.
*/
type DescriptorArrayTexture struct {
	descriptorArray[mxr.DescriptorTextureInfo]
}

func NewDescriptorArrayTexture(set *mxr.DescriptorSet, binding uint32) *DescriptorArrayTexture {
	ret := DescriptorArrayTexture{}
	ret.init(set, binding, mxr.DescriptorTextureInfo{})
	return &ret
}

func (d *DescriptorArrayTexture) Push(info mxr.DescriptorTextureInfo) uint32 {
	return d.push(info, info)
}

func (d *DescriptorArrayTexture) Pop(fence *mxr.CommandFence, info mxr.DescriptorTextureInfo) {
	d.pop(fence, info)
}

type DescriptorArraySampler struct {
	descriptorArray[*mxr.Sampler]
}

func NewDescriptorArraySampler(set *mxr.DescriptorSet, binding uint32) *DescriptorArraySampler {
	ret := DescriptorArraySampler{}
	ret.init(set, binding, mxr.DescriptorSamplerInfo{})
	return &ret
}

func (d *DescriptorArraySampler) Push(sampler *mxr.Sampler) uint32 {
	return d.push(sampler, mxr.DescriptorSamplerInfo{Sampler: sampler})
}

func (d *DescriptorArraySampler) Pop(fence *mxr.CommandFence, sampler *mxr.Sampler) {
	d.pop(fence, sampler)
}
