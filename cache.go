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
	"math"
	"runtime"
	"slices"
	"strings"
	"sync"

	"goarrg.com/debug"
	"goarrg.com/rhi/mxr/mtl"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type descriptorSetLayoutCache struct {
	mutex sync.Mutex
	cache map[string]*descriptorSetLayout
}

func (c *descriptorSetLayoutCache) MarshalJSON() ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	buff := bytes.Buffer{}
	buff.WriteString("{")

	{
		err := mapRunFuncSorted(c.cache, func(k string, v *descriptorSetLayout) error {
			buff.WriteString(fmt.Sprintf("%q: %s,", k, jsonString(v)))
			return nil
		})
		if err == nil {
			buff.Truncate(buff.Len() - 1)
		}
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *descriptorSetLayoutCache) createOrRetrieve(maxTextureSize uint32, desc DescriptorSetDesc) *descriptorSetLayout {
	id := descriptorSetLayoutID(desc)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	layout, ok := c.cache[id]
	if !ok {
		layout = newDescriptorSetLayout(maxTextureSize, desc)
		c.cache[id] = layout
	}
	return layout
}

func (c *descriptorSetLayoutCache) destroy() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	clear(c.cache)
}

func init() {
	if formatCount > math.MaxUint8 {
		abort("Format count %d no longer fits in clearPipelineKey", formatCount)
	}
}

/*
clearPipelineKey stores formats as uint8, checked against formatCount in init.
Color clears write every output of the fragment shader so colorTarget selects
the attachment through the write masks.
*/
type clearPipelineKey struct {
	depthClear   bool
	stencilClear bool
	sampleCount  uint8
	colorTarget  uint8
	colorFormats [MaxColorAttachments]uint8
	depthFormat  uint8
}

func (k clearPipelineKey) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("depth=%t,stencil=%t,samples=%d,target=%d,colors=[", k.depthClear, k.stencilClear, k.sampleCount, k.colorTarget))
	for i, f := range k.colorFormats {
		if i > 0 {
			sb.WriteRune(',')
		}
		sb.WriteString(Format(f).String())
	}
	sb.WriteString(fmt.Sprintf("],depthFormat=%s", Format(k.depthFormat)))
	return sb.String()
}

func (k clearPipelineKey) pipelineDescriptor(clear *clearState) mtl.RenderPipelineDescriptor {
	isDepth := k.depthClear || k.stencilClear
	desc := mtl.RenderPipelineDescriptor{
		Label:                  "Clear_" + k.String(),
		VertexFunction:         clear.vertexFunction,
		FragmentFunction:       clear.colorFunction,
		RasterSampleCount:      uint64(max(k.sampleCount, 1)),
		InputPrimitiveTopology: mtl.PrimitiveTopologyClassTriangle,
	}
	if isDepth {
		desc.FragmentFunction = clear.depthFunction
	}

	numColors := 0
	for i, f := range k.colorFormats {
		if f != 0 {
			numColors = i + 1
		}
	}
	for i, f := range k.colorFormats[:numColors] {
		attachment := mtl.RenderPipelineColorAttachmentDescriptor{
			PixelFormat: mapPixelFormat(Format(f)),
			WriteMask:   mtl.ColorWriteMaskNone,
		}
		if !isDepth && f != 0 && i == int(k.colorTarget) {
			attachment.WriteMask = mtl.ColorWriteMaskAll
		}
		desc.ColorAttachments = append(desc.ColorAttachments, attachment)
	}

	if depth := Format(k.depthFormat); depth != FORMAT_UNKNOWN {
		desc.DepthAttachmentPixelFormat = mapPixelFormat(depth)
		if FormatHasStencil(depth) {
			desc.StencilAttachmentPixelFormat = desc.DepthAttachmentPixelFormat
		}
	}
	return desc
}

/*
clearPipelineCache compiles every key at most once, concurrent callers asking
for the same key wait on the compile in flight. The lock is only held for the
lookup and the insert.
*/
type clearPipelineCache struct {
	mutex sync.Mutex
	cache map[clearPipelineKey]mtl.RenderPipelineState
	group singleflight.Group
}

func (c *clearPipelineCache) MarshalJSON() ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	buff := bytes.Buffer{}
	buff.WriteString("{")

	{
		buff.WriteString("\"cache\": [")
		keys := maps.Keys(c.cache)
		names := make([]string, 0, len(keys))
		for _, k := range keys {
			names = append(names, k.String())
		}
		slices.Sort(names)
		if len(names) > 0 {
			for _, n := range names {
				buff.WriteString(fmt.Sprintf("%q,", n))
			}
			buff.Truncate(buff.Len() - 1)
		}
		buff.WriteString("]")
	}

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *clearPipelineCache) lookup(key clearPipelineKey) (mtl.RenderPipelineState, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	p, ok := c.cache[key]
	return p, ok
}

func (c *clearPipelineCache) len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.cache)
}

// createOrRetrieve returns nil if the pipeline failed to compile, the error is logged.
func (c *clearPipelineCache) createOrRetrieve(d *Device, key clearPipelineKey) mtl.RenderPipelineState {
	if p, ok := c.lookup(key); ok {
		return p
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		if p, ok := c.lookup(key); ok {
			return p, nil
		}
		desc := key.pipelineDescriptor(&d.clear)
		p, err := d.mtl.NewRenderPipelineState(&desc)
		if err != nil {
			return nil, err
		}

		c.mutex.Lock()
		c.cache[key] = p
		c.mutex.Unlock()
		return p, nil
	})
	if err != nil {
		instance.logger.EPrintf("Failed to create clear pipeline %s: %v", key, err)
		return nil
	}
	return v.(mtl.RenderPipelineState)
}

func (c *clearPipelineCache) destroy() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, p := range c.cache {
		p.Release()
	}
	clear(c.cache)
}

// WarmClearPipelines compiles the single attachment color clear pipelines for
// formats in parallel so the first partial clear does not stall on a compile.
func (d *Device) WarmClearPipelines(formats []Format, sampleCount uint32) error {
	d.noCopy.Check()
	sampleCount = max(sampleCount, 1)

	for _, f := range formats {
		if f == FORMAT_UNKNOWN || !f.Supported() || f.IsTypeless() || FormatIsDepth(f) {
			return debug.Errorf("Invalid clear format: %s", f)
		}
	}

	group := errgroup.Group{}
	group.SetLimit(runtime.GOMAXPROCS(0))
	for _, f := range formats {
		key := clearPipelineKey{sampleCount: uint8(sampleCount)}
		key.colorFormats[0] = uint8(f)
		group.Go(func() error {
			if d.clearPipelines.createOrRetrieve(d, key) == nil {
				return debug.Errorf("Failed to create clear pipeline for %s", f)
			}
			return nil
		})
	}
	return group.Wait()
}
