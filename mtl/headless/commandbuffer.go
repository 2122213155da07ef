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
	"slices"
	"sync"

	"goarrg.com/rhi/mxr/mtl"
)

type CommandQueue struct {
	device *Device
	label  string
}

var _ mtl.CommandQueue = (*CommandQueue)(nil)

func (*CommandQueue) Release() {}

func (q *CommandQueue) SetLabel(l string) {
	q.label = l
}

func (q *CommandQueue) CommandBuffer() mtl.CommandBuffer {
	return &CommandBuffer{ID: newID(), queue: q}
}

func (q *CommandQueue) CommandBufferWithUnretainedReferences() mtl.CommandBuffer {
	return &CommandBuffer{ID: newID(), queue: q, Unretained: true}
}

type EventValue struct {
	Event *SharedEvent
	Value uint64
}

type CommandBuffer struct {
	ID         uint64
	Label      string
	Unretained bool

	queue *CommandQueue

	mutex     sync.Mutex
	status    mtl.CommandBufferStatus
	enqueued  bool
	encoders  []*Encoder
	active    *Encoder
	waits     []EventValue
	signals   []EventValue
	scheduled []func()
	completed []func()
	done      chan struct{}
}

var _ mtl.CommandBuffer = (*CommandBuffer)(nil)

func (cb *CommandBuffer) SetLabel(l string) {
	cb.Label = l
}

func (cb *CommandBuffer) Status() mtl.CommandBufferStatus {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.status
}

func (cb *CommandBuffer) checkRecording() {
	if cb.status >= mtl.CommandBufferStatusCommitted {
		abort("Command buffer %q used after commit", cb.Label)
	}
}

func (cb *CommandBuffer) Enqueue() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.checkRecording()
	cb.enqueued = true
	cb.status = mtl.CommandBufferStatusEnqueued
}

func (cb *CommandBuffer) Commit() {
	cb.mutex.Lock()
	cb.checkRecording()
	if cb.active != nil {
		cb.mutex.Unlock()
		abort("Command buffer %q committed with an open %s encoder", cb.Label, cb.active.Kind)
	}
	cb.status = mtl.CommandBufferStatusCommitted
	cb.done = make(chan struct{})
	cb.mutex.Unlock()
	cb.queue.device.commit(cb)
}

func (cb *CommandBuffer) complete() {
	cb.mutex.Lock()
	cb.status = mtl.CommandBufferStatusScheduled
	scheduled := cb.scheduled
	cb.mutex.Unlock()
	for _, f := range scheduled {
		f()
	}

	cb.mutex.Lock()
	for _, s := range cb.signals {
		s.Event.signal(s.Value)
	}
	cb.status = mtl.CommandBufferStatusCompleted
	completed := cb.completed
	cb.mutex.Unlock()
	for _, f := range completed {
		f()
	}
	close(cb.done)
}

func (cb *CommandBuffer) WaitUntilCompleted() {
	cb.mutex.Lock()
	done := cb.done
	cb.mutex.Unlock()
	if done == nil {
		abort("WaitUntilCompleted called on uncommitted command buffer %q", cb.Label)
	}
	<-done
}

func (cb *CommandBuffer) EncodeWaitForEvent(event mtl.SharedEvent, value uint64) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.checkRecording()
	if cb.active != nil {
		abort("EncodeWaitForEvent called with an open encoder")
	}
	cb.waits = append(cb.waits, EventValue{Event: event.(*SharedEvent), Value: value})
}

func (cb *CommandBuffer) EncodeSignalEvent(event mtl.SharedEvent, value uint64) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.checkRecording()
	if cb.active != nil {
		abort("EncodeSignalEvent called with an open encoder")
	}
	cb.signals = append(cb.signals, EventValue{Event: event.(*SharedEvent), Value: value})
}

func (cb *CommandBuffer) AddScheduledHandler(f func()) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.checkRecording()
	cb.scheduled = append(cb.scheduled, f)
}

func (cb *CommandBuffer) AddCompletedHandler(f func()) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.checkRecording()
	cb.completed = append(cb.completed, f)
}

func (cb *CommandBuffer) newEncoder(kind EncoderKind, pass *mtl.RenderPassDescriptor) *Encoder {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.checkRecording()
	if cb.active != nil {
		abort("Opening a %s encoder while a %s encoder is open", kind, cb.active.Kind)
	}
	e := Encoder{Kind: kind, Pass: pass, cb: cb}
	cb.encoders = append(cb.encoders, &e)
	cb.active = &e
	return &e
}

func (cb *CommandBuffer) endEncoder(e *Encoder) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	if cb.active != e {
		abort("Ending an encoder that is not active")
	}
	cb.active = nil
}

func (cb *CommandBuffer) RenderCommandEncoder(pass *mtl.RenderPassDescriptor) mtl.RenderCommandEncoder {
	if pass == nil {
		abort("RenderCommandEncoder called without a render pass descriptor")
	}
	p := *pass
	p.ColorAttachments = slices.Clone(pass.ColorAttachments)
	p.SamplePositions = slices.Clone(pass.SamplePositions)
	if pass.DepthAttachment != nil {
		d := *pass.DepthAttachment
		p.DepthAttachment = &d
	}
	if pass.StencilAttachment != nil {
		s := *pass.StencilAttachment
		p.StencilAttachment = &s
	}
	return &RenderEncoder{Encoder: cb.newEncoder(EncoderKindRender, &p)}
}

func (cb *CommandBuffer) ComputeCommandEncoder() mtl.ComputeCommandEncoder {
	return &ComputeEncoder{Encoder: cb.newEncoder(EncoderKindCompute, nil)}
}

func (cb *CommandBuffer) BlitCommandEncoder() mtl.BlitCommandEncoder {
	return &BlitEncoder{Encoder: cb.newEncoder(EncoderKindBlit, nil)}
}

// Encoders returns every encoder opened on the command buffer in creation order.
func (cb *CommandBuffer) Encoders() []*Encoder {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return slices.Clone(cb.encoders)
}

// EncodersOfKind returns the encoders of kind in creation order.
func (cb *CommandBuffer) EncodersOfKind(kind EncoderKind) []*Encoder {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	var ret []*Encoder
	for _, e := range cb.encoders {
		if e.Kind == kind {
			ret = append(ret, e)
		}
	}
	return ret
}

func (cb *CommandBuffer) Waits() []EventValue {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return slices.Clone(cb.waits)
}

func (cb *CommandBuffer) Signals() []EventValue {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return slices.Clone(cb.signals)
}

func (cb *CommandBuffer) Enqueued() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.enqueued
}
