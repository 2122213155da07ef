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

	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

const maxThreadsPerThreadgroup = 1024

var maxThreadgroupSize = gmath.Extent3u32{X: 1024, Y: 1024, Z: 64}

type ComputePipelineDesc struct {
	Layout          *PipelineLayout
	Shader          *Shader
	SpecConstants   []SpecConstant
	ThreadGroupSize gmath.Extent3u32
}

type ComputePipeline struct {
	noCopy    util.NoCopy
	id        string
	name      string
	device    *Device
	layout    *PipelineLayout
	mtl       mtl.ComputePipelineState
	localSize gmath.Extent3u32
}

var _ Pipeline = (*ComputePipeline)(nil)

func (d *Device) NewComputePipeline(desc ComputePipelineDesc) *ComputePipeline {
	d.noCopy.Check()
	if desc.Layout == nil {
		abort("ComputePipelineDesc.Layout must not be nil")
	}
	if desc.Shader == nil {
		abort("ComputePipelineDesc.Shader must not be nil")
	}

	localSize := desc.ThreadGroupSize
	if localSize.X == 0 || localSize.Y == 0 || localSize.Z == 0 {
		abort("ComputePipelineDesc.ThreadGroupSize [%d,%d,%d] must be > 0 in every dimension",
			localSize.X, localSize.Y, localSize.Z)
	}
	if !localSize.InRange(gmath.Extent3[uint32]{}, maxThreadgroupSize) {
		abort("ComputePipelineDesc.ThreadGroupSize [%d,%d,%d] is greater than [%d,%d,%d]",
			localSize.X, localSize.Y, localSize.Z, maxThreadgroupSize.X, maxThreadgroupSize.Y, maxThreadgroupSize.Z)
	}
	if localSize.Volume() > maxThreadsPerThreadgroup {
		abort("ComputePipelineDesc.ThreadGroupSize [%d*%d*%d] is greater than %d threads",
			localSize.X, localSize.Y, localSize.Z, maxThreadsPerThreadgroup)
	}

	p := ComputePipeline{
		device:    d,
		name:      fmt.Sprintf("[%s,%s]", desc.Shader.name, jsonString(desc.SpecConstants)),
		layout:    desc.Layout,
		localSize: localSize,
	}
	p.id = genID(desc.Shader.id, desc.Layout.id, p.name)
	p.noCopy.Init()
	d.stats.pipelines.Add(1)

	function, err := desc.Shader.createFunction(desc.SpecConstants)
	if err != nil {
		instance.logger.EPrintf("Failed to create compute function for pipeline %s: %v", p.name, err)
		return &p
	}
	defer function.Release()

	p.mtl, err = d.mtl.NewComputePipelineState(function)
	if err != nil {
		instance.logger.EPrintf("Failed to create compute pipeline %s: %v", p.name, err)
		p.mtl = nil
		return &p
	}
	if uint64(localSize.Volume()) > p.mtl.MaxTotalThreadsPerThreadgroup() {
		abort("ComputePipelineDesc.ThreadGroupSize [%d*%d*%d] is greater than the pipeline's limit of %d threads",
			localSize.X, localSize.Y, localSize.Z, p.mtl.MaxTotalThreadsPerThreadgroup())
	}
	return &p
}

func (p *ComputePipeline) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"id\": %q,", p.id))
	buff.WriteString(fmt.Sprintf("\"name\": %q,", p.name))
	buff.WriteString(fmt.Sprintf("\"valid\": %t,", p.mtl != nil))
	buff.WriteString(fmt.Sprintf("\"layout\": %s,", jsonString(p.layout)))
	buff.WriteString(fmt.Sprintf("\"localSize\": [%d,%d,%d]", p.localSize.X, p.localSize.Y, p.localSize.Z))

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (p *ComputePipeline) IsValid() bool {
	p.noCopy.Check()
	return p.mtl != nil
}

func (p *ComputePipeline) Layout() *PipelineLayout {
	p.noCopy.Check()
	return p.layout
}

func (p *ComputePipeline) ThreadGroupSize() gmath.Extent3u32 {
	p.noCopy.Check()
	return p.localSize
}

func (p *ComputePipeline) pipelineStage() PipelineStage {
	return PipelineStageCompute
}

func (p *ComputePipeline) Destroy() {
	if p == nil {
		return
	}
	p.noCopy.Check()
	if p.mtl != nil {
		p.mtl.Release()
	}
	p.device.stats.pipelines.Add(-1)
	p.noCopy.Close()
}
