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

	"github.com/google/uuid"
	"goarrg.com/rhi/mxr/mtl"
)

type (
	Capabilities struct {
		MaxTextureSize           uint32
		SampleLocations          bool
		ResolveModes             bool
		ScalarBlockLayout        bool
		PresentWait              bool
		PreferHDR                bool
		DynamicDepthBias         bool
		UMA                      bool
		GPUUploadHeap            bool
		QueryPools               bool
		SamplerMirrorClampToEdge bool
		DescriptorIndexing       bool
		BufferDeviceAddress      bool
		Raytracing               bool
	}
	Properties struct {
		// ID identifies this Device instance, it is not stable across runs.
		ID                   uuid.UUID
		Name                 string
		DedicatedVideoMemory uint64
		Capabilities         Capabilities
	}
)

func newCapabilities(device mtl.Device) Capabilities {
	c := Capabilities{
		MaxTextureSize:           8192,
		SampleLocations:          device.ProgrammableSamplePositionsSupported(),
		ScalarBlockLayout:        true,
		PresentWait:              true,
		PreferHDR:                device.RecommendedMaxWorkingSetSize() > (512 << 20),
		DynamicDepthBias:         true,
		UMA:                      device.HasUnifiedMemory(),
		SamplerMirrorClampToEdge: true,
		DescriptorIndexing:       true,
		BufferDeviceAddress:      device.SupportsFamily(mtl.GPUFamilyApple3) && device.SupportsFamily(mtl.GPUFamilyMetal3),
	}
	if device.SupportsFamily(mtl.GPUFamilyApple3) {
		c.MaxTextureSize = 16384
	}
	c.GPUUploadHeap = c.UMA
	return c
}

func (p *Properties) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"ID\": %q,", p.ID.String()))
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", p.Name))
	buff.WriteString(fmt.Sprintf("\"DedicatedVideoMemory\": %d,", p.DedicatedVideoMemory))
	buff.WriteString(fmt.Sprintf("\"Capabilities\": %s,", jsonString(p.Capabilities)))

	buff.Truncate(buff.Len() - 1)
	buff.WriteString("}")
	return buff.Bytes(), nil
}
