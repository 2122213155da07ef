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
	"goarrg.com/rhi/mxr/mtl"
)

type computeDirty struct {
	pipeline      bool
	sets          bool
	pushConstants bool
	setIndex      uint32
}

func (d *computeDirty) setAll() {
	d.pipeline = true
	d.sets = true
	d.pushConstants = true
	d.setIndex = 0
}

type computeState struct {
	pipeline      *ComputePipeline
	layout        *PipelineLayout
	sets          [MaxDescriptorSetBindings]*DescriptorSet
	pushConstants []pushConstantData
	dirty         computeDirty
}

func (s *computeState) reset() {
	*s = computeState{}
	s.dirty.setAll()
}

func (cl *CommandList) SetComputePipelineLayout(layout *PipelineLayout) {
	cl.checkRecording("SetComputePipelineLayout")
	layout.noCopy.Check()
	s := &cl.compute
	if s.layout == layout {
		return
	}
	s.layout = layout
	s.sets = [MaxDescriptorSetBindings]*DescriptorSet{}
	s.pushConstants = newPushConstants(layout)
	s.dirty.sets = true
	s.dirty.setIndex = 0
	s.dirty.pushConstants = true
}

func (cl *CommandList) SetComputeDescriptorSet(set *DescriptorSet, index uint32) {
	cl.checkRecording("SetComputeDescriptorSet")
	s := &cl.compute
	if s.layout == nil {
		abort("SetComputeDescriptorSet called without a compute pipeline layout")
	}
	if index >= s.layout.setLayoutCount {
		abort("Descriptor set index %d outside of layout with %d sets", index, s.layout.setLayoutCount)
	}
	if set != nil {
		set.noCopy.Check()
	}
	if s.sets[index] == set {
		return
	}
	s.sets[index] = set
	s.dirty.sets = true
	s.dirty.setIndex = min(s.dirty.setIndex, index)
}

func (cl *CommandList) SetComputePushConstants(rangeIndex uint32, data []byte, offset, size uint32) {
	cl.checkRecording("SetComputePushConstants")
	s := &cl.compute
	writePushConstants(s.layout, s.pushConstants, rangeIndex, data, offset, size)
	s.dirty.pushConstants = true
}

func (cl *CommandList) checkActiveComputeEncoder() mtl.ComputeCommandEncoder {
	cl.endOtherEncoders(encoderTypeCompute)
	cl.activeType = encoderTypeCompute
	if cl.computeEncoder != nil {
		return cl.computeEncoder
	}
	cl.computeEncoder = cl.mtl.ComputeCommandEncoder()
	cl.openEncoder(cl.computeEncoder, "Compute Encoder")
	cl.fences.waits(barrierStageCompute, cl.computeEncoder.WaitForFence)
	cl.compute.dirty.setAll()
	return cl.computeEncoder
}

func (cl *CommandList) endComputeEncoder() {
	enc := cl.computeEncoder
	if enc == nil {
		return
	}
	cl.useResources(enc.UseResource)
	if f := cl.fences.updateFence(cl.device, barrierStageCompute); f != nil {
		enc.UpdateFence(f)
	}
	cl.closeEncoder(enc)
	cl.computeEncoder = nil
	cl.compute.dirty.setAll()
}

func (cl *CommandList) flushComputeState(enc mtl.ComputeCommandEncoder) {
	s := &cl.compute

	if s.dirty.pipeline {
		enc.SetComputePipelineState(s.pipeline.mtl)
		s.dirty.pipeline = false
	}

	if s.dirty.sets {
		for i := s.dirty.setIndex; i < MaxDescriptorSetBindings; i++ {
			set := s.sets[i]
			if set == nil {
				continue
			}
			enc.SetBuffer(set.argumentBuffer, 0, uint64(descriptorSetSlotBase+i))
			cl.trackDescriptorSet(set)
		}
		s.dirty.sets = false
		s.dirty.setIndex = MaxDescriptorSetBindings
	}

	if s.dirty.pushConstants {
		for _, pc := range s.pushConstants {
			if pc.data == nil || !hasAnyBits(pc.stages, ShaderStageCompute) {
				continue
			}
			enc.SetBytes(pc.data, uint64(pushConstantSlotBase+pc.binding))
		}
		s.dirty.pushConstants = false
	}
}

// Dispatch runs groups thread groups of the size the pipeline was created with.
func (cl *CommandList) Dispatch(groups gmath.Extent3u32) {
	cl.checkRecording("Dispatch")
	p := cl.compute.pipeline
	if p == nil {
		abort("Dispatch called without a compute pipeline")
	}
	if groups.X == 0 || groups.Y == 0 || groups.Z == 0 {
		return
	}
	if p.mtl == nil {
		instance.logger.WPrintf("Dispatch skipped, pipeline %s failed to compile", p.name)
		return
	}
	enc := cl.checkActiveComputeEncoder()
	cl.flushComputeState(enc)
	enc.DispatchThreadgroups(
		mtl.Size{Width: uint64(groups.X), Height: uint64(groups.Y), Depth: uint64(groups.Z)},
		mtl.Size{Width: uint64(p.localSize.X), Height: uint64(p.localSize.Y), Depth: uint64(p.localSize.Z)},
	)
}
