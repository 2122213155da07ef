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


package container

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	s := Stack[uint32]{}
	require.True(t, s.Empty())

	s.Push(1)
	s.Push(2)
	s.Push(3)
	require.Equal(t, 3, s.Len())
	require.Equal(t, []uint32{1, 2, 3}, s.Data())
	require.Equal(t, uint32(3), s.Pop())
	require.Equal(t, uint32(2), s.Pop())

	s.Resize(4)
	require.Equal(t, []uint32{1, 0, 0, 0}, s.Data())
	s.Resize(0)
	require.True(t, s.Empty())
}

func TestBitSet32(t *testing.T) {
	var b BitSet32
	require.True(t, b.Empty())

	b.Set(12)
	b.Set(0)
	b.Set(30)
	require.True(t, b.Has(12))
	require.False(t, b.Has(13))
	require.Equal(t, 3, b.Len())

	var got []uint32
	b.ForEach(func(i uint32) { got = append(got, i) })
	require.Equal(t, []uint32{0, 12, 30}, got)

	b.Clear(12)
	require.False(t, b.Has(12))

	b.SetAll()
	require.Equal(t, 32, b.Len())
}
