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


package util

import (
	"unsafe"

	"goarrg.com"
	"goarrg.com/debug"
	"golang.org/x/exp/constraints"
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

var instance = struct {
	platform goarrg.PlatformInterface
	logger   *debug.Logger
}{
	platform: platform{},
	logger:   debug.NewLogger("mxr", "internal", "util"),
}

func abort(fmt string, args ...any) {
	instance.logger.EPrintf(fmt, args...)
	instance.platform.Abort()
}

func Init(platform goarrg.PlatformInterface) {
	instance.platform = platform
}

// AlignUp rounds v up to a multiple of alignment, which must be a power of two.
func AlignUp[N constraints.Unsigned](v, alignment N) N {
	if alignment == 0 || alignment&(alignment-1) != 0 {
		abort("Alignment must be a power of two: %d", alignment)
	}
	return (v + alignment - 1) &^ (alignment - 1)
}

type HostWriter interface {
	HostWrite(offset uintptr, data []byte)
}

// Bytes wraps CPU visible memory, such as a mapped buffer, as a HostWriter.
type Bytes []byte

func (b Bytes) HostWrite(offset uintptr, data []byte) {
	if offset+uintptr(len(data)) > uintptr(len(b)) {
		abort("Host write of %d bytes at offset %d outside of %d bytes", len(data), offset, len(b))
	}
	copy(b[offset:], data)
}

func HostWrite[T comparable](target HostWriter, offset uintptr, data T) uintptr {
	target.HostWrite(offset,
		unsafe.Slice((*byte)(unsafe.Pointer(&data)), unsafe.Sizeof(data)),
	)
	return unsafe.Sizeof(data)
}

func HostWriteSlice[T comparable](target HostWriter, offset uintptr, data []T) uintptr {
	if len(data) == 0 {
		return 0
	}
	target.HostWrite(offset,
		unsafe.Slice(
			(*byte)(unsafe.Pointer(unsafe.SliceData(data))), uint64(unsafe.Sizeof(data[0]))*uint64(len(data)),
		),
	)
	return unsafe.Sizeof(data[0]) * uintptr(len(data))
}

// BytesOf returns the in memory representation of data.
func BytesOf[T comparable](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), uintptr(len(data))*unsafe.Sizeof(data[0]))
}
