// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package headless_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/codevr/gfx"
	"github.com/devblok/codevr/gfx/headless"
)

func open(c *qt.C) (*headless.Surface, *headless.Device) {
	adapter := headless.DefaultAdapter()
	device, _, err := adapter.Open(0)
	c.Assert(err, qt.IsNil)
	return headless.NewSurface(headless.DefaultCapabilities()), device.(*headless.Device)
}

func swapchainDescriptor(surface gfx.Surface) gfx.SwapchainDescriptor {
	return gfx.SwapchainDescriptor{
		Surface:     surface,
		ImageCount:  2,
		Format:      gfx.FormatB8G8R8A8Srgb,
		Extent:      gfx.Extent2D{Width: 800, Height: 600},
		PresentMode: gfx.PresentModeFifo,
	}
}

func TestSwapchainValidation(t *testing.T) {
	c := qt.New(t)
	surface, device := open(c)

	desc := swapchainDescriptor(surface)
	desc.ImageCount = 1
	_, err := device.CreateSwapchain(desc)
	c.Assert(err, qt.ErrorMatches, "headless: image count 1 below minimum 2")

	desc = swapchainDescriptor(surface)
	desc.Extent = gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}
	_, err = device.CreateSwapchain(desc)
	c.Assert(err, qt.ErrorMatches, "headless: invalid swapchain extent .*")

	desc = swapchainDescriptor(surface)
	desc.PresentMode = gfx.PresentModeFifoRelaxed
	_, err = device.CreateSwapchain(desc)
	c.Assert(err, qt.ErrorMatches, "headless: present mode fifo-relaxed not supported")

	desc = swapchainDescriptor(surface)
	desc.Format = gfx.FormatR8G8B8A8Unorm
	_, err = device.CreateSwapchain(desc)
	c.Assert(err, qt.ErrorMatches, "headless: format r8g8b8a8-unorm not supported")

	c.Assert(device.Live().Swapchains, qt.Equals, 0)
}

func TestAcquireSubmitPresent(t *testing.T) {
	c := qt.New(t)
	surface, device := open(c)
	queue := device.Queue()

	sc, err := device.CreateSwapchain(swapchainDescriptor(surface))
	c.Assert(err, qt.IsNil)
	c.Assert(sc.Images(), qt.HasLen, 2)

	pass, err := device.CreateRenderPass(gfx.RenderPassDescriptor{ColorFormat: sc.Format(), DepthFormat: gfx.FormatD16Unorm})
	c.Assert(err, qt.IsNil)
	depth, err := device.CreateDepthImage(sc.Extent(), gfx.FormatD16Unorm)
	c.Assert(err, qt.IsNil)
	fb, err := device.CreateFramebuffer(gfx.FramebufferDescriptor{
		RenderPass: pass,
		Color:      sc.Images()[0],
		Depth:      depth,
		Extent:     sc.Extent().Volume(),
	})
	c.Assert(err, qt.IsNil)

	pool, err := device.CreateCommandPool()
	c.Assert(err, qt.IsNil)
	cmd, err := pool.Allocate()
	c.Assert(err, qt.IsNil)

	// not recorded yet
	_, err = queue.Submit(cmd, sc)
	c.Assert(err, qt.ErrorMatches, "headless: command buffer not executable")

	c.Assert(cmd.Begin(), qt.IsNil)
	cmd.BeginRenderPass(pass, fb, gfx.ClearValues{})
	c.Assert(cmd.End(), qt.ErrorMatches, "headless: render pass still open")
	cmd.EndRenderPass()
	c.Assert(cmd.End(), qt.IsNil)

	_, err = queue.Submit(cmd, sc)
	c.Assert(err, qt.ErrorMatches, "headless: submission waits on an image that was never acquired")

	image, err := sc.AcquireNextImage(0)
	c.Assert(err, qt.IsNil)
	c.Assert(image, qt.Equals, uint32(0))
	submission, err := queue.Submit(cmd, sc)
	c.Assert(err, qt.IsNil)
	c.Assert(submission.Done(), qt.IsTrue)
	c.Assert(queue.Present(sc, 1), qt.ErrorMatches, "headless: presenting image 1 that is not acquired")
	c.Assert(queue.Present(sc, image), qt.IsNil)
	c.Assert(queue.Presented(), qt.DeepEquals, []uint32{0})

	// reset makes earlier buffers unusable
	c.Assert(pool.Reset(), qt.IsNil)
	c.Assert(cmd.Begin(), qt.ErrorMatches, "headless: command buffer belongs to a reset pool")

	c.Assert(submission.Wait(0), qt.IsNil)
	submission.Release()
	c.Assert(submission.Wait(0), qt.Equals, headless.ErrReleased)
	c.Assert(device.Live().Submissions, qt.Equals, 0)
}

func TestScriptedResults(t *testing.T) {
	c := qt.New(t)
	surface, device := open(c)
	sc, err := device.CreateSwapchain(swapchainDescriptor(surface))
	c.Assert(err, qt.IsNil)

	surface.QueueAcquireResults(gfx.ErrTimeout, gfx.ErrSuboptimal, nil)
	_, err = sc.AcquireNextImage(0)
	c.Assert(err, qt.Equals, gfx.ErrTimeout)
	image, err := sc.AcquireNextImage(0)
	c.Assert(err, qt.Equals, gfx.ErrSuboptimal)
	c.Assert(image, qt.Equals, uint32(0))

	surface.QueuePresentResults(gfx.ErrOutOfDate)
	c.Assert(device.Queue().Present(sc, image), qt.Equals, gfx.ErrOutOfDate)

	image, err = sc.AcquireNextImage(0)
	c.Assert(err, qt.IsNil)
	c.Assert(image, qt.Equals, uint32(1))
	c.Assert(device.Queue().Present(sc, image), qt.IsNil)

	next, err := device.CreateSwapchain(gfx.SwapchainDescriptor{
		Surface:     surface,
		ImageCount:  3,
		Format:      gfx.FormatB8G8R8A8Unorm,
		Extent:      gfx.Extent2D{Width: 640, Height: 480},
		PresentMode: gfx.PresentModeMailbox,
		Previous:    sc,
	})
	c.Assert(err, qt.IsNil)
	_, err = sc.AcquireNextImage(0)
	c.Assert(err, qt.Equals, gfx.ErrOutOfDate)
	c.Assert(next.Images(), qt.HasLen, 3)

	sc.Release()
	c.Assert(device.Live().Swapchains, qt.Equals, 1)
}

func TestSwapchainPreviousRetiredOnFailure(t *testing.T) {
	c := qt.New(t)
	surface, device := open(c)
	sc, err := device.CreateSwapchain(swapchainDescriptor(surface))
	c.Assert(err, qt.IsNil)

	device.FailNext(headless.OpSwapchain, gfx.ErrDeviceLost)
	desc := swapchainDescriptor(surface)
	desc.Previous = sc
	_, err = device.CreateSwapchain(desc)
	c.Assert(err, qt.Equals, gfx.ErrDeviceLost)
	c.Assert(sc.(*headless.Swapchain).Retired(), qt.IsTrue)

	_, err = device.CreateSwapchain(desc)
	c.Assert(err, qt.ErrorMatches, "headless: previous swapchain already retired")

	sc.Release()
	_, err = device.CreateSwapchain(desc)
	c.Assert(err, qt.ErrorMatches, "headless: previous swapchain already retired")

	desc.Previous = nil
	next, err := device.CreateSwapchain(desc)
	c.Assert(err, qt.IsNil)
	c.Assert(next.(*headless.Swapchain).Retired(), qt.IsFalse)
	c.Assert(device.Live().Swapchains, qt.Equals, 1)
}

func TestSwapchainEmptyExtent(t *testing.T) {
	c := qt.New(t)
	surface, device := open(c)

	desc := swapchainDescriptor(surface)
	desc.Extent = gfx.Extent2D{Width: 800}
	_, err := device.CreateSwapchain(desc)
	c.Assert(err, qt.ErrorMatches, "headless: invalid swapchain extent 800x0")
}

func TestFramebufferValidation(t *testing.T) {
	c := qt.New(t)
	surface, device := open(c)
	sc, err := device.CreateSwapchain(swapchainDescriptor(surface))
	c.Assert(err, qt.IsNil)
	pass, err := device.CreateRenderPass(gfx.RenderPassDescriptor{ColorFormat: gfx.FormatB8G8R8A8Unorm})
	c.Assert(err, qt.IsNil)
	depth, err := device.CreateDepthImage(gfx.Extent2D{Width: 640, Height: 480}, gfx.FormatD16Unorm)
	c.Assert(err, qt.IsNil)

	_, err = device.CreateFramebuffer(gfx.FramebufferDescriptor{
		RenderPass: pass,
		Color:      sc.Images()[0],
		Depth:      depth,
		Extent:     sc.Extent().Volume(),
	})
	c.Assert(err, qt.ErrorMatches, "headless: color format b8g8r8a8-srgb does not match render pass b8g8r8a8-unorm")

	pass, err = device.CreateRenderPass(gfx.RenderPassDescriptor{ColorFormat: sc.Format()})
	c.Assert(err, qt.IsNil)
	_, err = device.CreateFramebuffer(gfx.FramebufferDescriptor{
		RenderPass: pass,
		Color:      sc.Images()[0],
		Depth:      depth,
		Extent:     sc.Extent().Volume(),
	})
	c.Assert(err, qt.ErrorMatches, "headless: attachment extents do not match framebuffer 800x600x1")

	_, err = device.CreateRenderPass(gfx.RenderPassDescriptor{})
	c.Assert(err, qt.ErrorMatches, "headless: undefined color format")
}

func TestReleasedDevice(t *testing.T) {
	c := qt.New(t)
	surface, device := open(c)

	device.Release()
	c.Assert(device.WaitIdle(), qt.Equals, headless.ErrReleased)
	_, err := device.CreateSwapchain(swapchainDescriptor(surface))
	c.Assert(err, qt.Equals, headless.ErrReleased)

	adapter := headless.DefaultAdapter()
	surface.Release()
	_, err = adapter.SupportsPresent(0, surface)
	c.Assert(err, qt.Equals, headless.ErrReleased)
	_, err = adapter.Capabilities(surface)
	c.Assert(err, qt.Equals, headless.ErrReleased)
}
