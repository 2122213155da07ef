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

package headless

import (
	"sync"
	"sync/atomic"

	"goarrg.com/rhi/mxr/mtl"
)

// Layer hands out at most MaximumDrawableCount drawables that have not been
// presented, NextDrawable returns nil once they are all in flight.
type Layer struct {
	mutex        sync.Mutex
	device       mtl.Device
	pixelFormat  mtl.PixelFormat
	maxDrawables uint64
	width        uint64
	height       uint64
	displaySync  bool
	failNext     bool
	outstanding  uint64

	presented atomic.Uint64
}

var _ mtl.Layer = (*Layer)(nil)

func NewLayer() *Layer {
	return &Layer{
		pixelFormat:  mtl.PixelFormatBGRA8Unorm,
		maxDrawables: 3,
		displaySync:  true,
	}
}

func (l *Layer) SetDevice(d mtl.Device) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.device = d
}

func (l *Layer) SetPixelFormat(f mtl.PixelFormat) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.pixelFormat = f
}

func (l *Layer) PixelFormat() mtl.PixelFormat {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.pixelFormat
}

func (l *Layer) SetMaximumDrawableCount(c uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if c < 2 || c > 3 {
		abort("Maximum drawable count must be 2 or 3, got %d", c)
	}
	l.maxDrawables = c
}

func (l *Layer) MaximumDrawableCount() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.maxDrawables
}

func (l *Layer) SetDrawableSize(w, h uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.width = w
	l.height = h
}

func (l *Layer) DrawableSize() (uint64, uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.width, l.height
}

func (l *Layer) SetDisplaySyncEnabled(b bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.displaySync = b
}

func (l *Layer) DisplaySyncEnabled() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.displaySync
}

// FailNextDrawable makes NextDrawable return nil until called with false.
func (l *Layer) FailNextDrawable(fail bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.failNext = fail
}

func (l *Layer) NextDrawable() mtl.Drawable {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.device == nil {
		abort("NextDrawable called on layer without a device")
	}
	if l.failNext || l.width == 0 || l.height == 0 || l.outstanding >= l.maxDrawables {
		return nil
	}
	l.outstanding++

	t := l.device.NewTexture(mtl.TextureDescriptor{
		TextureType: mtl.TextureType2D,
		PixelFormat: l.pixelFormat,
		Width:       l.width,
		Height:      l.height,
		StorageMode: mtl.StorageModePrivate,
		Usage:       mtl.TextureUsageRenderTarget,
	})
	return &Drawable{layer: l, texture: t}
}

// Presented returns the number of drawables presented through the layer.
func (l *Layer) Presented() uint64 {
	return l.presented.Load()
}

type Drawable struct {
	layer     *Layer
	texture   mtl.Texture
	presented bool
}

var _ mtl.Drawable = (*Drawable)(nil)

func (d *Drawable) Texture() mtl.Texture {
	return d.texture
}

func (d *Drawable) Present() {
	if d.presented {
		abort("Drawable presented twice")
	}
	d.presented = true
	d.layer.mutex.Lock()
	d.layer.outstanding--
	d.layer.mutex.Unlock()
	d.layer.presented.Add(1)
}
