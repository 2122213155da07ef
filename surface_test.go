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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"goarrg.com/rhi/mxr/mtl"
	"goarrg.com/rhi/mxr/mtl/headless"
)

type testWindow struct {
	mutex  sync.Mutex
	layer  *headless.Layer
	width  uint32
	height uint32
}

func (w *testWindow) Layer() mtl.Layer {
	if w.layer == nil {
		return nil
	}
	return w.layer
}

func (w *testWindow) Size() (uint32, uint32) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.width, w.height
}

func (w *testWindow) setSize(width, height uint32) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.width, w.height = width, height
}

func (*testWindow) RefreshRate() uint32 {
	return 60
}

func (c *testContext) swapChain(t *testing.T, w *testWindow, desc SwapChainDesc) *SwapChain {
	t.Helper()
	s := c.queue.NewSwapChain(w, desc)
	t.Cleanup(func() {
		c.native.HoldCompletion(false)
		s.Destroy()
	})
	return s
}

func TestSwapChainAcquireSkipsInFlight(t *testing.T) {
	c := newTestContext(t)
	w := &testWindow{layer: headless.NewLayer(), width: 64, height: 32}
	s := c.swapChain(t, w, SwapChainDesc{})
	require.Equal(t, FORMAT_B8G8R8A8_UNORM, s.Format())
	require.Equal(t, mtl.PixelFormatBGRA8Unorm, w.layer.PixelFormat())
	require.Equal(t, uint64(MaxDrawables), w.layer.MaximumDrawableCount())

	c.native.HoldCompletion(true)
	for want := uint32(0); want < MaxDrawables; want++ {
		index, ok := s.AcquireTexture(nil)
		require.True(t, ok)
		require.Equal(t, want, index)
		tex := s.Texture(index)
		require.NotNil(t, tex)
		require.Equal(t, FORMAT_B8G8R8A8_UNORM, tex.desc.Format)
		require.Equal(t, uint32(64), tex.desc.Width)
		require.True(t, s.Present(index, nil))
	}

	_, ok := s.AcquireTexture(nil)
	require.False(t, ok)
	require.Zero(t, w.layer.Presented())

	c.native.Complete()
	require.Equal(t, uint64(MaxDrawables), w.layer.Presented())

	index, ok := s.AcquireTexture(nil)
	require.True(t, ok)
	require.Equal(t, uint32(0), index)

	next, ok := s.AcquireTexture(nil)
	require.True(t, ok)
	require.Equal(t, uint32(1), next)

	require.True(t, s.Present(next, nil))
	require.True(t, s.Present(index, nil))
	require.Equal(t, int64(MaxDrawables+2), c.device.stats.presents.Load())
}

func TestSwapChainPresentState(t *testing.T) {
	c := newTestContext(t)
	w := &testWindow{layer: headless.NewLayer(), width: 16, height: 16}
	s := c.swapChain(t, w, SwapChainDesc{Format: FORMAT_R8G8B8A8_UNORM})

	require.Panics(t, func() { s.Present(0, nil) })
	require.Panics(t, func() { s.Present(MaxDrawables, nil) })
	require.Panics(t, func() { s.Texture(MaxDrawables) })

	index, ok := s.AcquireTexture(nil)
	require.True(t, ok)
	require.True(t, s.Present(index, nil))
	require.Panics(t, func() { s.Present(index, nil) })

	w.layer.FailNextDrawable(true)
	_, ok = s.AcquireTexture(nil)
	require.False(t, ok)
	w.layer.FailNextDrawable(false)

	require.Panics(t, func() { c.queue.NewSwapChain(w, SwapChainDesc{Format: FORMAT_D32_FLOAT}) })
	require.Panics(t, func() { c.queue.NewSwapChain(w, SwapChainDesc{MaxFrameLatency: MaxDrawables + 1}) })
}

func TestSwapChainSemaphores(t *testing.T) {
	c := newTestContext(t)
	w := &testWindow{layer: headless.NewLayer(), width: 16, height: 16}
	s := c.swapChain(t, w, SwapChainDesc{})
	acquire := c.device.NewCommandSemaphore()
	defer acquire.Destroy()
	render := c.device.NewCommandSemaphore()
	defer render.Destroy()

	before := len(c.native.CommandBuffers())
	index, ok := s.AcquireTexture(acquire)
	require.True(t, ok)
	cbs := c.native.CommandBuffers()[before:]
	require.Len(t, cbs, 1)
	require.Equal(t, "Acquire Drawable Command Buffer", cbs[0].Label)
	require.Equal(t, []headless.EventValue{{Event: acquire.mtl.(*headless.SharedEvent), Value: 1}}, cbs[0].Signals())

	w.layer.FailNextDrawable(true)
	before = len(c.native.CommandBuffers())
	_, ok = s.AcquireTexture(acquire)
	require.False(t, ok)
	require.Len(t, c.native.CommandBuffers(), before)
	w.layer.FailNextDrawable(false)

	before = len(c.native.CommandBuffers())
	require.True(t, s.Present(index, []*CommandSemaphore{render}))
	cbs = c.native.CommandBuffers()[before:]
	require.Len(t, cbs, 1)
	require.Equal(t, "Present Command Buffer", cbs[0].Label)
	require.Equal(t, []headless.EventValue{{Event: render.mtl.(*headless.SharedEvent), Value: 1}}, cbs[0].Waits())
	require.Equal(t, uint64(2), render.Value())
}

func TestSwapChainWait(t *testing.T) {
	c := newTestContext(t)
	w := &testWindow{layer: headless.NewLayer(), width: 16, height: 16}
	s := c.swapChain(t, w, SwapChainDesc{MaxFrameLatency: 2})

	require.True(t, s.Wait())

	c.native.HoldCompletion(true)
	for range 2 {
		index, ok := s.AcquireTexture(nil)
		require.True(t, ok)
		s.Present(index, nil)
	}

	done := make(chan bool)
	go func() {
		done <- s.Wait()
	}()
	select {
	case <-done:
		t.Fatal("Wait returned with two presents in flight")
	case <-time.After(50 * time.Millisecond):
	}

	c.native.Complete()
	select {
	case ok := <-done:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the presents completed")
	}
}

func TestSwapChainResize(t *testing.T) {
	c := newTestContext(t)
	w := &testWindow{layer: headless.NewLayer(), width: 32, height: 16}
	s := c.swapChain(t, w, SwapChainDesc{})

	require.False(t, s.NeedsResize())
	require.False(t, s.IsEmpty())
	require.Equal(t, uint32(32), s.Width())
	require.Equal(t, uint32(16), s.Height())
	require.Equal(t, int32(1), s.Extent().Z)
	require.Equal(t, uint32(60), s.RefreshRate())
	require.Equal(t, uint32(MaxDrawables), s.TextureCount())

	w.setSize(48, 24)
	require.True(t, s.NeedsResize())
	require.True(t, s.Resize())
	require.False(t, s.NeedsResize())
	lw, lh := w.layer.DrawableSize()
	require.Equal(t, uint64(48), lw)
	require.Equal(t, uint64(24), lh)
	require.Equal(t, uint32(48), s.Width())

	w.setSize(0, 24)
	require.False(t, s.Resize())
	require.Equal(t, uint32(48), s.Width())

	require.True(t, s.VSync())
	s.SetVSync(false)
	require.False(t, s.VSync())
	require.False(t, w.layer.DisplaySyncEnabled())
}

func TestSwapChainWithoutLayer(t *testing.T) {
	c := newTestContext(t)
	w := &testWindow{width: 16, height: 16}
	s := c.swapChain(t, w, SwapChainDesc{})

	require.True(t, s.IsEmpty())
	require.True(t, s.NeedsResize())
	require.False(t, s.Resize())
	require.False(t, s.VSync())
	_, ok := s.AcquireTexture(nil)
	require.False(t, ok)
}
