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
	"time"

	"goarrg.com/gmath"
	"goarrg.com/rhi/mxr/internal/util"
	"goarrg.com/rhi/mxr/mtl"
)

const swapChainWaitTimeout = time.Second

// Window is implemented by the host platform, Layer may return nil while the
// window has no surface.
type Window interface {
	Layer() mtl.Layer
	Size() (width, height uint32)
	RefreshRate() uint32
}

type SwapChainDesc struct {
	Format Format
	// MaxFrameLatency defaults to Config.MaxFrameLatency when 0.
	MaxFrameLatency uint32
}

type drawableState uint8

const (
	drawableAvailable drawableState = iota
	drawableAcquired
	drawablePresenting
)

func (s drawableState) String() string {
	switch s {
	case drawableAvailable:
		return "Available"
	case drawableAcquired:
		return "Acquired"
	case drawablePresenting:
		return "Presenting"
	default:
		return "Unknown"
	}
}

type swapChainDrawable struct {
	state   drawableState
	native  mtl.Drawable
	texture *Texture
}

type SwapChain struct {
	noCopy          util.NoCopy
	queue           *CommandQueue
	window          Window
	layer           mtl.Layer
	format          Format
	maxFrameLatency uint64

	mutex                         sync.Mutex
	cond                          *sync.Cond
	width                         uint32
	height                        uint32
	drawables                     [MaxDrawables]swapChainDrawable
	currentAvailableDrawableIndex uint32
	currentPresentID              uint64
	lastPresentedID               uint64
}

var _ Destroyer = (*SwapChain)(nil)

func (q *CommandQueue) NewSwapChain(window Window, desc SwapChainDesc) *SwapChain {
	q.noCopy.Check()

	if desc.Format == FORMAT_UNKNOWN {
		desc.Format = FORMAT_B8G8R8A8_UNORM
	}
	if !desc.Format.Supported() || desc.Format.IsTypeless() || FormatIsDepth(desc.Format) {
		abort("SwapChain format %s is not a color format", desc.Format)
	}
	if desc.MaxFrameLatency == 0 {
		desc.MaxFrameLatency = q.device.config.maxFrameLatency
	}
	if !gmath.InRange(desc.MaxFrameLatency, 1, MaxDrawables) {
		abort("SwapChainDesc.MaxFrameLatency is outside of valid range [1, %d]", MaxDrawables)
	}

	s := SwapChain{
		queue:           q,
		window:          window,
		layer:           window.Layer(),
		format:          desc.Format,
		maxFrameLatency: uint64(desc.MaxFrameLatency),
	}
	s.cond = sync.NewCond(&s.mutex)
	s.width, s.height = window.Size()

	if s.layer != nil {
		s.layer.SetDevice(q.device.mtl)
		s.layer.SetPixelFormat(mapPixelFormat(desc.Format))
		s.layer.SetMaximumDrawableCount(MaxDrawables)
		s.layer.SetDrawableSize(uint64(s.width), uint64(s.height))
	}

	s.noCopy.Init()
	return &s
}

/*
AcquireTexture reserves the next available drawable and returns its index. The
returned index is never one that is still acquired or being presented. signal,
when not nil, is signaled once the drawable can be rendered to.
*/
func (s *SwapChain) AcquireTexture(signal *CommandSemaphore) (uint32, bool) {
	s.noCopy.Check()
	if s.layer == nil {
		instance.logger.WPrintf("AcquireTexture called on SwapChain without a layer")
		return 0, false
	}

	s.mutex.Lock()
	index := uint32(MaxDrawables)
	for i := uint32(0); i < MaxDrawables; i++ {
		j := (s.currentAvailableDrawableIndex + i) % MaxDrawables
		if s.drawables[j].state == drawableAvailable {
			index = j
			break
		}
	}
	if index == MaxDrawables {
		s.mutex.Unlock()
		instance.logger.WPrintf("No more drawables available")
		return 0, false
	}

	native := s.layer.NextDrawable()
	if native == nil {
		s.mutex.Unlock()
		instance.logger.WPrintf("No more drawables available")
		return 0, false
	}
	slot := &s.drawables[index]
	slot.state = drawableAcquired
	slot.native = native
	slot.texture = newDrawableTexture(s.queue.device, native.Texture())
	s.mutex.Unlock()

	if signal != nil {
		cb := s.queue.mtl.CommandBufferWithUnretainedReferences()
		cb.SetLabel("Acquire Drawable Command Buffer")
		cb.Enqueue()
		signal.encodeSignal(cb)
		cb.Commit()
	}
	return index, true
}

/*
Present schedules the acquired drawable at index for presentation after every
semaphore in waits is signaled. The slot becomes available again once the
present command buffer completes.
*/
func (s *SwapChain) Present(index uint32, waits []*CommandSemaphore) bool {
	s.noCopy.Check()
	if index >= MaxDrawables {
		abort("SwapChain texture index %d out of range [0, %d)", index, MaxDrawables)
	}

	s.mutex.Lock()
	slot := &s.drawables[index]
	if slot.state != drawableAcquired {
		s.mutex.Unlock()
		abort("Present called on SwapChain texture %d in state %s", index, slot.state)
	}
	slot.state = drawablePresenting
	s.currentPresentID++
	presentID := s.currentPresentID
	drawable := slot.native
	s.mutex.Unlock()

	cb := s.queue.mtl.CommandBufferWithUnretainedReferences()
	cb.SetLabel("Present Command Buffer")
	cb.Enqueue()
	for _, w := range waits {
		w.encodeWait(cb)
	}
	cb.AddScheduledHandler(drawable.Present)
	cb.AddCompletedHandler(func() {
		s.mutex.Lock()
		slot.state = drawableAvailable
		slot.native = nil
		s.currentAvailableDrawableIndex = (index + 1) % MaxDrawables
		s.lastPresentedID = max(s.lastPresentedID, presentID)
		s.mutex.Unlock()
		s.cond.Broadcast()
	})
	cb.Commit()

	s.queue.device.stats.presents.Add(1)
	return true
}

func (s *SwapChain) waitPresented(target uint64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		s.mutex.Lock()
		s.cond.Broadcast()
		s.mutex.Unlock()
	})
	defer timer.Stop()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for s.lastPresentedID < target {
		if !time.Now().Before(deadline) {
			return false
		}
		s.cond.Wait()
	}
	return true
}

/*
Wait blocks until fewer than the maximum frame latency presents are in flight
or a second has passed, it returns false on timeout.
*/
func (s *SwapChain) Wait() bool {
	s.noCopy.Check()
	s.mutex.Lock()
	current := s.currentPresentID
	s.mutex.Unlock()
	if current < s.maxFrameLatency {
		return true
	}
	if !s.waitPresented(current-(s.maxFrameLatency-1), swapChainWaitTimeout) {
		instance.logger.WPrintf("SwapChain.Wait timed out waiting for present %d", current-(s.maxFrameLatency-1))
		return false
	}
	return true
}

// Resize matches the layer to the window size, it returns false when the window has no area.
func (s *SwapChain) Resize() bool {
	s.noCopy.Check()
	w, h := s.window.Size()
	if w == 0 || h == 0 || s.layer == nil {
		return false
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	lw, lh := s.layer.DrawableSize()
	if lw != uint64(w) || lh != uint64(h) {
		s.layer.SetDrawableSize(uint64(w), uint64(h))
	}
	s.width = w
	s.height = h
	return true
}

func (s *SwapChain) NeedsResize() bool {
	s.noCopy.Check()
	if s.layer == nil {
		return true
	}
	w, h := s.window.Size()
	lw, lh := s.layer.DrawableSize()
	return lw != uint64(w) || lh != uint64(h)
}

func (s *SwapChain) SetVSync(enabled bool) {
	s.noCopy.Check()
	if s.layer != nil {
		s.layer.SetDisplaySyncEnabled(enabled)
	}
}

func (s *SwapChain) VSync() bool {
	s.noCopy.Check()
	return s.layer != nil && s.layer.DisplaySyncEnabled()
}

func (s *SwapChain) Format() Format {
	s.noCopy.Check()
	return s.format
}

func (s *SwapChain) Width() uint32 {
	s.noCopy.Check()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.width
}

func (s *SwapChain) Height() uint32 {
	s.noCopy.Check()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.height
}

func (s *SwapChain) Extent() gmath.Extent3i32 {
	s.noCopy.Check()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return gmath.Extent3i32{X: int32(s.width), Y: int32(s.height), Z: 1}
}

// Texture returns the texture of the last drawable acquired into index, or nil.
func (s *SwapChain) Texture(index uint32) *Texture {
	s.noCopy.Check()
	if index >= MaxDrawables {
		abort("SwapChain texture index %d out of range [0, %d)", index, MaxDrawables)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.drawables[index].texture
}

func (s *SwapChain) TextureCount() uint32 {
	s.noCopy.Check()
	return MaxDrawables
}

func (s *SwapChain) IsEmpty() bool {
	s.noCopy.Check()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.layer == nil || s.width == 0 || s.height == 0
}

func (s *SwapChain) RefreshRate() uint32 {
	s.noCopy.Check()
	return s.window.RefreshRate()
}

func (s *SwapChain) Destroy() {
	if s == nil {
		return
	}
	s.noCopy.Check()
	s.mutex.Lock()
	current := s.currentPresentID
	s.mutex.Unlock()
	if !s.waitPresented(current, swapChainWaitTimeout) {
		instance.logger.WPrintf("SwapChain destroyed with presents in flight")
	}
	s.noCopy.Close()
}
