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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"goarrg.com/rhi/mxr/mtl/headless"
)

func TestQueueSubmissionOrder(t *testing.T) {
	c := newTestContext(t)
	wait := c.device.NewCommandSemaphore()
	defer wait.Destroy()
	signal := c.device.NewCommandSemaphore()
	defer signal.Destroy()

	first := c.commandList(t)
	first.SetName("first")
	second := c.commandList(t)
	second.SetName("second")
	for _, cl := range []*CommandList{first, second} {
		cl.Begin()
		cl.End()
	}

	before := len(c.native.CommandBuffers())
	c.queue.ExecuteCommandLists([]*CommandList{first, second}, []*CommandSemaphore{wait}, []*CommandSemaphore{signal}, nil)
	cbs := c.native.CommandBuffers()[before:]
	require.Len(t, cbs, 3)

	require.Equal(t, "Wait Command Buffer", cbs[0].Label)
	require.Equal(t, []headless.EventValue{{Event: wait.mtl.(*headless.SharedEvent), Value: 1}}, cbs[0].Waits())
	require.Empty(t, cbs[0].Signals())
	require.Equal(t, uint64(2), wait.Value())

	require.Equal(t, "first", cbs[1].Label)
	require.Empty(t, cbs[1].Signals())
	require.Equal(t, "second", cbs[2].Label)
	require.Equal(t, []headless.EventValue{{Event: signal.mtl.(*headless.SharedEvent), Value: 1}}, cbs[2].Signals())
	require.Equal(t, uint64(1), signal.SignaledValue())
	require.Equal(t, uint64(1), signal.Value())

	require.Panics(t, func() { c.queue.ExecuteCommandLists([]*CommandList{first}, nil, nil, nil) })
	require.Panics(t, func() { c.queue.ExecuteCommandLists(nil, nil, nil, nil) })

	other := c.device.NewCommandQueue()
	defer other.Destroy()
	first.Begin()
	first.End()
	require.Panics(t, func() { other.ExecuteCommandLists([]*CommandList{first}, nil, nil, nil) })
	c.queue.ExecuteCommandLists([]*CommandList{first}, nil, nil, nil)
}

func TestQueueCommandFence(t *testing.T) {
	c := newTestContext(t)
	fence := c.device.NewCommandFence()
	defer fence.Destroy()
	require.True(t, fence.Completed())

	cl := c.commandList(t)
	c.native.HoldCompletion(true)
	defer c.native.HoldCompletion(false)

	for range 2 {
		cl.Begin()
		cl.End()
		c.queue.ExecuteCommandLists([]*CommandList{cl}, nil, nil, fence)
	}
	require.False(t, fence.Completed())
	require.Equal(t, 2, c.native.PendingCount())

	done := make(chan struct{})
	go func() {
		c.queue.WaitForCommandFence(fence)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitForCommandFence returned before completion")
	case <-time.After(50 * time.Millisecond):
	}

	c.native.Complete()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	require.True(t, fence.Completed())
}

func TestQueueStats(t *testing.T) {
	c := newTestContext(t)
	cl := c.commandList(t)
	cl.Begin()
	cl.End()
	c.submit(t, cl)

	stats := c.device.stats.snapshot()
	require.Equal(t, int64(1), stats["CommandLists"])
	require.Equal(t, int64(1), stats["Submissions"])
	require.Contains(t, c.device.BuildStatsString(false), "\"Submissions\": 1")
}
