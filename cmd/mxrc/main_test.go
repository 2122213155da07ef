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

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"
	"goarrg.com/rhi/mxr"
)

const testManifest = `
source = "quad.metal"
entry_points = ["quad_vs", "quad_fs"]

[[push_constants]]
binding = 0
offset = 0
size = 64
stages = "vertex|fragment"

[[descriptor_sets]]
ranges = [
	{ binding = 0, count = 1, type = "ConstantBuffer" },
	{ binding = 1, count = 0, type = "texture" },
]
last_range_is_boundless = true
boundless_range_size = 4
`

const testSource = `
vertex float4 quad_vs(uint id [[vertex_id]]) { return float4(0); }
fragment float4 quad_fs() { return float4(1); }
`

func decodeManifest(t *testing.T, text string) manifest {
	t.Helper()
	var m manifest
	require.NoError(t, toml.NewDecoder(strings.NewReader(text)).DisallowUnknownFields().Decode(&m))
	return m
}

func TestManifestLayout(t *testing.T) {
	m := decodeManifest(t, testManifest)
	require.Equal(t, "quad.metal", m.Source)

	desc, boundless := m.layout()
	require.Equal(t, []uint32{4}, boundless)
	require.Equal(t, []mxr.PushConstantRange{{Size: 64, Stages: mxr.ShaderStageGraphics}}, desc.PushConstantRanges)
	require.Len(t, desc.DescriptorSetLayouts, 1)
	require.True(t, desc.DescriptorSetLayouts[0].LastRangeIsBoundless)
	require.Equal(t, mxr.DescriptorRangeTypeTexture, desc.DescriptorSetLayouts[0].Ranges[1].Type)

	var bad manifest
	err := toml.NewDecoder(strings.NewReader(`sources = "a.metal"`)).DisallowUnknownFields().Decode(&bad)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	m := decodeManifest(t, testManifest)
	meta := validate(&m, testSource)
	require.Equal(t, []string{"quad_vs", "quad_fs"}, meta.EntryPoints)
	require.Equal(t, []uint32{5}, meta.DescriptorCounts)

	m.EntryPoints = append(m.EntryPoints, "missing")
	require.Panics(t, func() { validate(&m, testSource) })
}

func TestMacros(t *testing.T) {
	m := macros{}
	require.NoError(t, m.UnmarshalText([]byte("USE_ALPHA")))
	require.NoError(t, m.UnmarshalText([]byte("COUNT=4")))
	require.Error(t, m.UnmarshalText([]byte("=4")))
	text, err := m.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "#define USE_ALPHA\n#define COUNT 4", string(text))
}

func TestGenerator(t *testing.T) {
	var g generator
	require.NoError(t, g.UnmarshalText([]byte("go")))
	require.Equal(t, generatorGO, g)
	require.Error(t, g.UnmarshalText([]byte("yaml")))
	_, err := generator(5).MarshalText()
	require.Error(t, err)

	require.Equal(t, "shaders_quad_v2", funcName("shaders/quad.v2"))
}

func TestGenJson(t *testing.T) {
	dir := t.TempDir()
	m := decodeManifest(t, testManifest)
	meta := validate(&m, testSource)
	meta.Name = "quad"
	genJson(dir, meta)

	data, err := os.ReadFile(filepath.Join(dir, "quad.json"))
	require.NoError(t, err)
	var got metadata
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, meta, got)
}
