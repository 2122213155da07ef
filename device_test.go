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
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"goarrg.com/rhi/mxr/mtl"
	"goarrg.com/rhi/mxr/mtl/headless"
)

func TestNewDeviceSelection(t *testing.T) {
	_, err := NewDevice(nil, Config{})
	require.True(t, errors.Is(err, ErrorDeviceNotFound{}))

	_, err = NewDevice(&headless.Driver{}, Config{})
	require.ErrorIs(t, err, ErrorDeviceNotFound{})

	small := headless.DefaultDeviceOptions()
	small.Name = "Small"
	small.Families = []mtl.GPUFamily{mtl.GPUFamilyMac2}
	small.UnifiedMemory = false
	small.MaxWorkingSetSize = 256 << 20
	big := headless.DefaultDeviceOptions()
	big.Name = "Big"
	driver := headless.NewDriver(small, big)

	d, err := NewDevice(driver, Config{PreferredDevice: "Big"})
	require.NoError(t, err)
	require.Equal(t, "Big", d.Name())
	caps := d.Capabilities()
	require.Equal(t, uint32(16384), caps.MaxTextureSize)
	require.True(t, caps.UMA)
	require.True(t, caps.PreferHDR)
	require.True(t, caps.DynamicDepthBias)
	require.True(t, caps.DescriptorIndexing)
	d.Destroy()

	d, err = NewDevice(driver, Config{PreferredDevice: "Missing"})
	require.NoError(t, err)
	require.Equal(t, "Small", d.Name())
	caps = d.Capabilities()
	require.Equal(t, uint32(8192), caps.MaxTextureSize)
	require.False(t, caps.UMA)
	require.False(t, caps.PreferHDR)
	require.False(t, caps.BufferDeviceAddress)
	require.Panics(t, func() {
		d.NewBuffer(BufferDesc{Size: 16, Flags: BufferFlagDeviceAddressable})
	})
	d.Destroy()
}

func TestDeviceSampleCounts(t *testing.T) {
	c := newTestContext(t)
	require.Equal(t, uint32(1|2|4|8), c.device.SampleCountsSupported(FORMAT_R8G8B8A8_UNORM))
	require.Zero(t, c.device.SampleCountsSupported(Format(formatCount)))
}

func TestDeviceStatsString(t *testing.T) {
	c := newTestContext(t)
	buffer := c.device.NewBuffer(BufferDesc{Size: 64})
	defer buffer.Destroy()
	set := c.device.NewDescriptorSet(DescriptorSetDesc{Layout: DescriptorSetLayoutDesc{
		Ranges: []DescriptorRange{{Binding: 0, Count: 1, Type: DescriptorRangeTypeConstantBuffer}},
	}})
	defer set.Destroy()

	stats := struct {
		Device   string
		Name     string
		Counters map[string]int64

		ClearPipelines           int
		DescriptorSetLayoutCache json.RawMessage
		ClearPipelineCache       json.RawMessage
	}{}
	require.NoError(t, json.Unmarshal([]byte(c.device.BuildStatsString(true)), &stats))
	require.Equal(t, c.device.Properties().ID.String(), stats.Device)
	require.Equal(t, "Headless Device", stats.Name)
	// The null vertex buffer is always alive.
	require.Equal(t, int64(2), stats.Counters["Buffers"])
	require.Equal(t, int64(1), stats.Counters["DescriptorSets"])
	require.NotEmpty(t, stats.DescriptorSetLayoutCache)
	require.NotEmpty(t, stats.ClearPipelineCache)

	require.True(t, json.Valid([]byte(c.device.BuildStatsString(false))))
}

func TestClearPipelineCacheSingleCompile(t *testing.T) {
	c := newTestContext(t)
	before := c.native.RenderPipelineStateCount()

	key := clearPipelineKey{sampleCount: 1}
	key.colorFormats[0] = uint8(FORMAT_R8G8B8A8_UNORM)

	wg := sync.WaitGroup{}
	results := make([]mtl.RenderPipelineState, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.device.clearPipelines.createOrRetrieve(c.device, key)
		}()
	}
	wg.Wait()

	require.Equal(t, before+1, c.native.RenderPipelineStateCount())
	for _, r := range results {
		require.NotNil(t, r)
		require.Same(t, results[0], r)
	}
	require.Equal(t, 1, c.device.clearPipelines.len())

	require.NoError(t, c.device.WarmClearPipelines([]Format{FORMAT_R8G8B8A8_UNORM, FORMAT_B8G8R8A8_UNORM}, 1))
	require.Equal(t, before+2, c.native.RenderPipelineStateCount())
	require.Equal(t, 2, c.device.clearPipelines.len())
	require.Error(t, c.device.WarmClearPipelines([]Format{FORMAT_D32_FLOAT}, 1))

	c.native.FailPipelineCreation(true)
	defer c.native.FailPipelineCreation(false)
	failed := clearPipelineKey{sampleCount: 4}
	failed.colorFormats[0] = uint8(FORMAT_R8G8B8A8_UNORM)
	require.Nil(t, c.device.clearPipelines.createOrRetrieve(c.device, failed))
	require.Equal(t, 2, c.device.clearPipelines.len())
}

func TestClearPipelineKey(t *testing.T) {
	c := newTestContext(t)
	a := c.renderTarget(t, FORMAT_R8G8B8A8_UNORM, 8, 8)
	b := c.renderTarget(t, FORMAT_R16G16B16A16_FLOAT, 8, 8)
	depth := c.renderTarget(t, FORMAT_D32_FLOAT, 8, 8)
	fb := c.device.NewFramebuffer(FramebufferDesc{
		ColorAttachments: []FramebufferAttachment{{Texture: a}, {Texture: b}},
		DepthAttachment:  &FramebufferAttachment{Texture: depth},
	})
	defer fb.Destroy()

	key := fb.clearKey(false, false, 1)
	require.Equal(t, uint8(1), key.colorTarget)
	require.Equal(t, uint8(FORMAT_R16G16B16A16_FLOAT), key.colorFormats[1])
	require.Equal(t, uint8(FORMAT_D32_FLOAT), key.depthFormat)

	desc := key.pipelineDescriptor(&c.device.clear)
	require.Len(t, desc.ColorAttachments, 2)
	require.Equal(t, mtl.ColorWriteMaskNone, desc.ColorAttachments[0].WriteMask)
	require.Equal(t, mtl.ColorWriteMaskAll, desc.ColorAttachments[1].WriteMask)
	require.Equal(t, mtl.PixelFormatDepth32Float, desc.DepthAttachmentPixelFormat)

	depthKey := fb.clearKey(true, false, 0)
	desc = depthKey.pipelineDescriptor(&c.device.clear)
	for _, a := range desc.ColorAttachments {
		require.Equal(t, mtl.ColorWriteMaskNone, a.WriteMask)
	}
	require.NotEqual(t, key, depthKey)
}
