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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"goarrg.com/rhi/mxr/mtl/headless"
)

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(strings.NewReader(`
preferred_device = "Headless Device"
max_frame_latency = 3
warm_clear_formats = ["R8G8B8A8_UNORM", "b8g8r8a8_unorm"]
warm_clear_sample_count = 4
`))
	require.NoError(t, err)
	require.Equal(t, Config{
		PreferredDevice:      "Headless Device",
		MaxFrameLatency:      3,
		WarmClearFormats:     []Format{FORMAT_R8G8B8A8_UNORM, FORMAT_B8G8R8A8_UNORM},
		WarmClearSampleCount: 4,
	}, c)

	_, err = LoadConfig(strings.NewReader(`max_latency = 3`))
	require.Error(t, err)
	_, err = LoadConfig(strings.NewReader(`warm_clear_formats = ["NOT_A_FORMAT"]`))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	c := Config{}
	c.validate()
	require.Equal(t, uint32(2), c.MaxFrameLatency)
	require.Equal(t, uint32(1), c.WarmClearSampleCount)

	require.Panics(t, func() { (&Config{MaxFrameLatency: 5}).validate() })
	require.Panics(t, func() { (&Config{WarmClearSampleCount: 3}).validate() })
	require.Panics(t, func() { (&Config{WarmClearFormats: []Format{FORMAT_D32_FLOAT}}).validate() })
	require.Panics(t, func() { (&Config{WarmClearFormats: []Format{FORMAT_R10G10B10A2_UNORM}}).validate() })
}

func TestConfigWarmsClearPipelines(t *testing.T) {
	c, err := LoadConfig(strings.NewReader(`warm_clear_formats = ["R16G16B16A16_FLOAT"]`))
	require.NoError(t, err)

	driver := headless.NewDriver()
	d, err := NewDevice(driver, c)
	require.NoError(t, err)
	defer d.Destroy()
	require.Equal(t, 1, d.clearPipelines.len())
	require.Equal(t, uint32(2), d.config.maxFrameLatency)
}
