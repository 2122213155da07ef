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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type noCopyTarget struct {
	noCopy NoCopy
}

func TestNoCopy(t *testing.T) {
	a := &noCopyTarget{}
	a.noCopy.Init()
	require.NotPanics(t, a.noCopy.Check)
	require.True(t, a.noCopy.Alive())

	b := *a
	require.Panics(t, b.noCopy.Check)

	a.noCopy.Close()
	require.False(t, a.noCopy.Alive())
	require.Panics(t, a.noCopy.Check)

	c := &noCopyTarget{}
	require.True(t, c.noCopy.InitLazy())
	require.False(t, c.noCopy.InitLazy())
	require.Panics(t, c.noCopy.Init)
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		v, alignment, want uint64
	}{
		{0, 16, 0},
		{1, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{300, 256, 512},
	}
	for _, test := range tests {
		require.Equal(t, test.want, AlignUp(test.v, test.alignment))
	}
	require.Panics(t, func() { AlignUp(uint32(3), 12) })
}

func TestHostWrite(t *testing.T) {
	mem := make(Bytes, 16)

	n := HostWrite(mem, 4, uint32(0xAABBCCDD))
	require.Equal(t, uintptr(4), n)
	require.Equal(t, uint32(0xAABBCCDD), binary.NativeEndian.Uint32(mem[4:]))

	n = HostWriteSlice(mem, 8, []uint16{1, 2, 3, 4})
	require.Equal(t, uintptr(8), n)
	require.Equal(t, uint16(3), binary.NativeEndian.Uint16(mem[12:]))

	require.Zero(t, HostWriteSlice(mem, 0, []uint32{}))
	require.Panics(t, func() { HostWrite(mem, 14, uint32(0)) })
	require.Len(t, BytesOf([]float32{1, 2}), 8)
}
