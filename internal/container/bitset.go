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

import "math/bits"

// BitSet32 is a set of the integers [0, 32).
type BitSet32 uint32

func (b *BitSet32) Set(i uint32) {
	*b |= 1 << i
}

func (b *BitSet32) SetAll() {
	*b = ^BitSet32(0)
}

func (b *BitSet32) Clear(i uint32) {
	*b &^= 1 << i
}

func (b BitSet32) Has(i uint32) bool {
	return b&(1<<i) != 0
}

func (b BitSet32) Empty() bool {
	return b == 0
}

func (b BitSet32) Len() int {
	return bits.OnesCount32(uint32(b))
}

// ForEach calls f for every member in ascending order.
func (b BitSet32) ForEach(f func(uint32)) {
	for b != 0 {
		i := uint32(bits.TrailingZeros32(uint32(b)))
		f(i)
		b &^= 1 << i
	}
}
