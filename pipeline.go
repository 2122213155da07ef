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

	"goarrg.com/rhi/mxr/internal/util"
)

type PipelineStage uint32

const (
	PipelineStageGraphics PipelineStage = 1 << iota
	PipelineStageCompute
	PipelineStageCopy
	pipelineStageCount = iota

	PipelineStageNone PipelineStage = 0

	PipelineStageAll = PipelineStageGraphics | PipelineStageCompute | PipelineStageCopy
)

func (s PipelineStage) String() string {
	str := ""
	if hasBits(s, PipelineStageGraphics) {
		str += "Graphics|"
	}
	if hasBits(s, PipelineStageCompute) {
		str += "Compute|"
	}
	if hasBits(s, PipelineStageCopy) {
		str += "Copy|"
	}
	if str == "" {
		return "None"
	}
	return strings.TrimSuffix(str, "|")
}

type PushConstantRange struct {
	// Binding selects one of the MaxPushConstantBindings native slots.
	Binding uint32
	Set     uint32
	Offset  uint32
	Size    uint32
	Stages  ShaderStage
}

type PipelineLayoutDesc struct {
	PushConstantRanges   []PushConstantRange
	DescriptorSetLayouts []DescriptorSetLayoutDesc
}

type PipelineLayout struct {
	noCopy             util.NoCopy
	id                 string
	name               string
	pushConstantRanges []PushConstantRange
	setLayoutCount     uint32
}

func (d *Device) NewPipelineLayout(desc PipelineLayoutDesc) *PipelineLayout {
	d.noCopy.Check()

	if len(desc.DescriptorSetLayouts) > MaxDescriptorSetBindings {
		abort("PipelineLayout has %d descriptor sets, the maximum is %d", len(desc.DescriptorSetLayouts), MaxDescriptorSetBindings)
	}
	if len(desc.PushConstantRanges) > MaxPushConstantBindings {
		abort("PipelineLayout has %d push constant ranges, the maximum is %d", len(desc.PushConstantRanges), MaxPushConstantBindings)
	}

	layout := PipelineLayout{
		pushConstantRanges: slices.Clone(desc.PushConstantRanges),
		setLayoutCount:     uint32(len(desc.DescriptorSetLayouts)),
	}

	used := [MaxPushConstantBindings]bool{}
	for i, r := range layout.pushConstantRanges {
		if r.Binding >= MaxPushConstantBindings {
			abort("PushConstantRange [%d] binding %d is outside of [0, %d)", i, r.Binding, MaxPushConstantBindings)
		}
		if used[r.Binding] {
			abort("PushConstantRange [%d] reuses binding %d", i, r.Binding)
		}
		if r.Size == 0 {
			abort("PushConstantRange [%d] has a size of 0", i)
		}
		if r.Stages == 0 {
			abort("PushConstantRange [%d] has no shader stages", i)
		}
		used[r.Binding] = true
		layout.id += genID(r.Binding, r.Set, r.Offset, r.Size, uint32(r.Stages))
		layout.name += fmt.Sprintf("[%d,%d,%d,%d,%s]", r.Binding, r.Set, r.Offset, r.Size, r.Stages)
	}
	for _, s := range desc.DescriptorSetLayouts {
		id := descriptorSetLayoutID(DescriptorSetDesc{Layout: s})
		layout.id += id
		layout.name += id
	}
	if layout.id == "" {
		layout.id = "[]"
		layout.name = "[]"
	}

	layout.noCopy.Init()
	return &layout
}

func (l *PipelineLayout) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"id\": %q,", l.id))
	buff.WriteString(fmt.Sprintf("\"name\": %q,", l.name))
	buff.WriteString(fmt.Sprintf("\"setLayoutCount\": %d,", l.setLayoutCount))

	buff.WriteString("\"pushConstantRanges\": [")
	if len(l.pushConstantRanges) > 0 {
		for _, r := range l.pushConstantRanges {
			buff.WriteString(fmt.Sprintf("{\"binding\": %d, \"set\": %d, \"offset\": %d, \"size\": %d, \"stages\": %q},",
				r.Binding, r.Set, r.Offset, r.Size, r.Stages.String()))
		}
		buff.Truncate(buff.Len() - 1)
	}
	buff.WriteString("]")

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (l *PipelineLayout) PushConstantRanges() []PushConstantRange {
	l.noCopy.Check()
	return slices.Clone(l.pushConstantRanges)
}

func (l *PipelineLayout) SetLayoutCount() uint32 {
	l.noCopy.Check()
	return l.setLayoutCount
}

func (l *PipelineLayout) Destroy() {
	if l == nil {
		return
	}
	l.noCopy.Check()
	l.noCopy.Close()
}
