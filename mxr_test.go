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
	"testing"

	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr/mtl/headless"
)

const testShaderSource = `
#include <metal_stdlib>
using namespace metal;

struct VertexOut {
	float4 position [[position]];
};

vertex VertexOut vsMain(uint vid [[vertex_id]]) {
	VertexOut out;
	out.position = float4(0, 0, 0, 1);
	return out;
}

fragment float4 fsMain(VertexOut in [[stage_in]]) {
	return float4(1, 0, 0, 1);
}

kernel void csMain(device uint* data [[buffer(0)]], uint id [[thread_position_in_grid]]) {
	data[id] = id;
}
`

type testContext struct {
	device *Device
	native *headless.Device
	queue  *CommandQueue
}

func newTestContext(t *testing.T) *testContext {
	t.Helper()
	driver := headless.NewDriver()
	d, err := NewDevice(driver, Config{})
	require.NoError(t, err)
	q := d.NewCommandQueue()
	t.Cleanup(func() {
		q.Destroy()
		d.Destroy()
	})
	return &testContext{
		device: d,
		native: driver.DefaultDevice().(*headless.Device),
		queue:  q,
	}
}

func (c *testContext) shader(t *testing.T, entryPoint string) *Shader {
	t.Helper()
	s, err := c.device.NewShader(ShaderDesc{Source: testShaderSource, EntryPoint: entryPoint})
	require.NoError(t, err)
	t.Cleanup(s.Destroy)
	return s
}

func (c *testContext) renderTarget(t *testing.T, format Format, width, height uint32) *Texture {
	t.Helper()
	flags := TextureFlagRenderTarget
	if FormatIsDepth(format) {
		flags = TextureFlagDepthTarget
	}
	tex := c.device.NewTexture(TextureDesc{
		Dimension: TextureDimension2D,
		Format:    format,
		Width:     width,
		Height:    height,
		Flags:     flags,
	})
	t.Cleanup(tex.Destroy)
	return tex
}

func (c *testContext) framebuffer(t *testing.T, color *Texture, depth *Texture) *Framebuffer {
	t.Helper()
	desc := FramebufferDesc{ColorAttachments: []FramebufferAttachment{{Texture: color}}}
	if depth != nil {
		desc.DepthAttachment = &FramebufferAttachment{Texture: depth}
	}
	fb := c.device.NewFramebuffer(desc)
	t.Cleanup(fb.Destroy)
	return fb
}

func (c *testContext) graphicsPipeline(t *testing.T, layout *PipelineLayout, format Format) *GraphicsPipeline {
	t.Helper()
	p := c.device.NewGraphicsPipeline(GraphicsPipelineDesc{
		Layout:              layout,
		VertexShader:        c.shader(t, "vsMain"),
		FragmentShader:      c.shader(t, "fsMain"),
		Topology:            VertexTopologyTriangleList,
		RenderTargetFormats: []Format{format},
	})
	require.True(t, p.IsValid())
	t.Cleanup(p.Destroy)
	return p
}

func (c *testContext) computePipeline(t *testing.T, layout *PipelineLayout) *ComputePipeline {
	t.Helper()
	p := c.device.NewComputePipeline(ComputePipelineDesc{
		Layout:          layout,
		Shader:          c.shader(t, "csMain"),
		ThreadGroupSize: gmath.Extent3u32{X: 8, Y: 8, Z: 1},
	})
	require.True(t, p.IsValid())
	t.Cleanup(p.Destroy)
	return p
}

func (c *testContext) layout(t *testing.T, desc PipelineLayoutDesc) *PipelineLayout {
	t.Helper()
	l := c.device.NewPipelineLayout(desc)
	t.Cleanup(l.Destroy)
	return l
}

func (c *testContext) commandList(t *testing.T) *CommandList {
	t.Helper()
	cl := c.queue.NewCommandList()
	t.Cleanup(cl.Destroy)
	return cl
}

// submit executes cl and returns the native command buffer it was recorded into.
func (c *testContext) submit(t *testing.T, cl *CommandList) *headless.CommandBuffer {
	t.Helper()
	before := len(c.native.CommandBuffers())
	c.queue.ExecuteCommandLists([]*CommandList{cl}, nil, nil, nil)
	cbs := c.native.CommandBuffers()
	require.Len(t, cbs, before+1)
	return cbs[len(cbs)-1]
}
