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

package metal

/*
#include "metal_darwin.h"
*/
import "C"

import (
	"runtime"
	"unsafe"

	"goarrg.com/rhi/mxr/mtl"
)

type Layer struct {
	object
}

var _ mtl.Layer = (*Layer)(nil)

// NewLayer creates a CAMetalLayer that the caller attaches to a view.
func NewLayer() *Layer {
	return &Layer{object{ref: C.mtlNewLayer()}}
}

// LayerFromPointer retains an existing CAMetalLayer, such as the one created
// by a windowing library for a metal view.
func LayerFromPointer(ptr unsafe.Pointer) *Layer {
	if ptr == nil {
		return nil
	}
	return &Layer{object{ref: C.CFRetain(C.CFTypeRef(ptr))}}
}

// Pointer returns the CAMetalLayer reference.
func (l *Layer) Pointer() unsafe.Pointer {
	return unsafe.Pointer(l.ref)
}

func (l *Layer) SetDevice(d mtl.Device) {
	C.mtlLayerSetDevice(l.ref, refOf(d))
}

func (l *Layer) SetPixelFormat(format mtl.PixelFormat) {
	C.mtlLayerSetPixelFormat(l.ref, C.uint64_t(format))
}

func (l *Layer) PixelFormat() mtl.PixelFormat {
	return mtl.PixelFormat(C.mtlLayerPixelFormat(l.ref))
}

func (l *Layer) SetMaximumDrawableCount(count uint64) {
	C.mtlLayerSetMaximumDrawableCount(l.ref, C.uint64_t(count))
}

func (l *Layer) SetDrawableSize(width, height uint64) {
	C.mtlLayerSetDrawableSize(l.ref, C.double(width), C.double(height))
}

func (l *Layer) DrawableSize() (uint64, uint64) {
	var w, h C.double
	C.mtlLayerDrawableSize(l.ref, &w, &h)
	return uint64(w), uint64(h)
}

func (l *Layer) SetDisplaySyncEnabled(enabled bool) {
	C.mtlLayerSetDisplaySyncEnabled(l.ref, C.bool(enabled))
}

func (l *Layer) DisplaySyncEnabled() bool {
	return bool(C.mtlLayerDisplaySyncEnabled(l.ref))
}

func (l *Layer) NextDrawable() mtl.Drawable {
	ref := C.mtlLayerNextDrawable(l.ref)
	if ref == nil {
		return nil
	}
	d := &drawable{object: object{ref: ref}}
	runtime.SetFinalizer(d, (*drawable).Release)
	return d
}

type drawable struct {
	object
	texture *texture
}

var _ mtl.Drawable = (*drawable)(nil)

func (d *drawable) Texture() mtl.Texture {
	if d.texture == nil {
		d.texture = newDrawableTexture(C.mtlDrawableTexture(d.ref))
	}
	return d.texture
}

func (d *drawable) Present() {
	C.mtlDrawablePresent(d.ref)
}
