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
	"sync"

	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

/*
CommandSemaphore orders command buffers on the GPU. Every signal and every wait
uses the current value, a wait moves the value forward so the next signal pairs
with the next wait.
*/
type CommandSemaphore struct {
	noCopy util.NoCopy
	mtl    mtl.SharedEvent
	value  uint64
}

var _ Destroyer = (*CommandSemaphore)(nil)

func (d *Device) NewCommandSemaphore() *CommandSemaphore {
	d.noCopy.Check()
	s := CommandSemaphore{
		mtl:   d.mtl.NewSharedEvent(),
		value: 1,
	}
	s.noCopy.Init()
	return &s
}

// Value returns the value the next signal or wait uses.
func (s *CommandSemaphore) Value() uint64 {
	s.noCopy.Check()
	return s.value
}

// SignaledValue returns the last value the GPU signaled.
func (s *CommandSemaphore) SignaledValue() uint64 {
	s.noCopy.Check()
	return s.mtl.SignaledValue()
}

func (s *CommandSemaphore) encodeSignal(cb mtl.CommandBuffer) {
	s.noCopy.Check()
	cb.EncodeSignalEvent(s.mtl, s.value)
}

func (s *CommandSemaphore) encodeWait(cb mtl.CommandBuffer) {
	s.noCopy.Check()
	cb.EncodeWaitForEvent(s.mtl, s.value)
	s.value++
}

func (s *CommandSemaphore) Destroy() {
	if s == nil {
		return
	}
	s.noCopy.Check()
	s.mtl.Release()
	s.noCopy.Close()
}

/*
CommandFence is signaled by the host side completion of a submission. Every
submission using the fence raises pendingSignal, the completion handler raises
value to it.
*/
type CommandFence struct {
	noCopy        util.NoCopy
	mutex         sync.Mutex
	cond          *sync.Cond
	pendingSignal uint64
	value         uint64
}

var _ Destroyer = (*CommandFence)(nil)

func (d *Device) NewCommandFence() *CommandFence {
	d.noCopy.Check()
	f := CommandFence{}
	f.cond = sync.NewCond(&f.mutex)
	f.noCopy.Init()
	return &f
}

func (f *CommandFence) submit() uint64 {
	f.noCopy.Check()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.pendingSignal++
	return f.pendingSignal
}

func (f *CommandFence) signal(v uint64) {
	f.mutex.Lock()
	f.value = max(f.value, v)
	f.mutex.Unlock()
	f.cond.Broadcast()
}

// PendingValue returns the value the fence reaches once every submission made
// before the call has completed.
func (f *CommandFence) PendingValue() uint64 {
	f.noCopy.Check()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.pendingSignal
}

func (f *CommandFence) Reached(v uint64) bool {
	f.noCopy.Check()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.value >= v
}

// Completed reports whether every submission using the fence has completed.
func (f *CommandFence) Completed() bool {
	f.noCopy.Check()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.value >= f.pendingSignal
}

// Wait blocks until every submission made before the call has completed.
func (f *CommandFence) Wait() {
	f.noCopy.Check()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	target := f.pendingSignal
	for f.value < target {
		f.cond.Wait()
	}
}

func (f *CommandFence) Destroy() {
	if f == nil {
		return
	}
	f.noCopy.Check()
	f.Wait()
	f.noCopy.Close()
}
