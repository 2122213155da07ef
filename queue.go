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
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

type CommandQueue struct {
	noCopy util.NoCopy
	device *Device
	mtl    mtl.CommandQueue
}

var _ Destroyer = (*CommandQueue)(nil)

func (d *Device) NewCommandQueue() *CommandQueue {
	d.noCopy.Check()
	q := CommandQueue{
		device: d,
		mtl:    d.mtl.NewCommandQueue(),
	}
	q.mtl.SetLabel("CommandQueue_" + d.properties.ID.String())
	q.noCopy.Init()
	return &q
}

func (q *CommandQueue) SetName(name string) {
	q.noCopy.Check()
	q.mtl.SetLabel(name)
}

/*
ExecuteCommandLists commits lists in order. Waits are encoded on a separate
command buffer committed first, signals and the fence are attached to the last
list. Every list must have been recorded with Begin/End and can be recorded
again right after the call.
*/
func (q *CommandQueue) ExecuteCommandLists(lists []*CommandList, waits []*CommandSemaphore, signals []*CommandSemaphore, fence *CommandFence) {
	q.noCopy.Check()
	if len(lists) == 0 {
		abort("ExecuteCommandLists called without command lists")
	}

	if len(waits) > 0 {
		cb := q.mtl.CommandBufferWithUnretainedReferences()
		cb.SetLabel("Wait Command Buffer")
		for _, s := range waits {
			s.encodeWait(cb)
		}
		cb.Commit()
	}

	for i, cl := range lists {
		if cl.queue != q {
			abort("Command list %q was created on a different queue", cl.name)
		}
		cb := cl.submitted()
		if i == len(lists)-1 {
			for _, s := range signals {
				s.encodeSignal(cb)
			}
			if fence != nil {
				v := fence.submit()
				cb.AddCompletedHandler(func() { fence.signal(v) })
			}
		}
		cb.Commit()
	}
	q.device.stats.submissions.Add(1)
}

// WaitForCommandFence blocks until every submission made with fence so far has completed.
func (q *CommandQueue) WaitForCommandFence(fence *CommandFence) {
	q.noCopy.Check()
	fence.Wait()
}

func (q *CommandQueue) Destroy() {
	if q == nil {
		return
	}
	q.noCopy.Check()
	q.mtl.Release()
	q.noCopy.Close()
}
