// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
	"github.com/devblok/codevr/gfx/headless"
	"github.com/devblok/codevr/renderer"
)

func TestFrameTargetsRebuild(t *testing.T) {
	c := qt.New(t)
	caps := headless.DefaultCapabilities()
	caps.MinImageCount = 3
	f := newFixture(c, caps)

	sc, images, err := renderer.CreateSwapchain(f.surface, f.adapter, f.device, nil, renderer.SwapchainConfig{})
	c.Assert(err, qt.IsNil)
	pass, err := f.device.CreateRenderPass(gfx.RenderPassDescriptor{ColorFormat: sc.Format(), DepthFormat: renderer.DepthFormat})
	c.Assert(err, qt.IsNil)

	targets := renderer.NewFrameTargets(f.device)
	c.Assert(targets.Rebuild(pass, images), qt.IsNil)
	c.Assert(targets.Len(), qt.Equals, len(images))
	c.Assert(targets.Depth().Extent(), qt.Equals, sc.Extent())
	c.Assert(targets.Depth().Format(), qt.Equals, renderer.DepthFormat)
	for idx, fb := range targets.Framebuffers() {
		c.Assert(fb.Extent(), qt.Equals, images[idx].Extent().Volume())
		c.Assert(fb.(*headless.Framebuffer).Color(), qt.Equals, images[idx])
		c.Assert(fb.(*headless.Framebuffer).Depth(), qt.Equals, targets.Depth())
	}
	c.Assert(f.device.Live(), qt.Equals, headless.Counts{
		Swapchains:   1,
		DepthImages:  1,
		RenderPasses: 1,
		Framebuffers: 3,
		CommandPools: 3,
	})

	// rebuilding for a new swapchain replaces everything
	f.surface.SetCurrentExtent(gfx.Extent2D{Width: 1280, Height: 720})
	next, nextImages, err := renderer.CreateSwapchain(f.surface, f.adapter, f.device, sc, renderer.SwapchainConfig{})
	c.Assert(err, qt.IsNil)
	targets.Release()
	sc.Release()
	c.Assert(targets.Rebuild(pass, nextImages), qt.IsNil)
	c.Assert(targets.Depth().Extent(), qt.Equals, next.Extent())
	for _, fb := range targets.Framebuffers() {
		c.Assert(fb.Extent(), qt.Equals, gfx.Extent3D{Width: 1280, Height: 720, Depth: 1})
	}
	c.Assert(f.device.Live().Framebuffers, qt.Equals, 3)
	c.Assert(f.device.Live().DepthImages, qt.Equals, 1)

	targets.Release()
	c.Assert(targets.Len(), qt.Equals, 0)
	c.Assert(targets.Depth(), qt.IsNil)
	c.Assert(f.device.Live().Framebuffers, qt.Equals, 0)
	c.Assert(f.device.Live().CommandPools, qt.Equals, 0)
	c.Assert(f.device.Live().DepthImages, qt.Equals, 0)
}

func TestFrameTargetsRebuildFailure(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, headless.DefaultCapabilities())

	sc, images, err := renderer.CreateSwapchain(f.surface, f.adapter, f.device, nil, renderer.SwapchainConfig{})
	c.Assert(err, qt.IsNil)
	pass, err := f.device.CreateRenderPass(gfx.RenderPassDescriptor{ColorFormat: sc.Format(), DepthFormat: renderer.DepthFormat})
	c.Assert(err, qt.IsNil)
	targets := renderer.NewFrameTargets(f.device)

	f.device.FailNext(headless.OpDepthImage, gfx.ErrDeviceLost)
	err = targets.Rebuild(pass, images)
	c.Assert(errors.Cause(err), qt.Equals, gfx.ErrDeviceLost)
	c.Assert(err, qt.ErrorMatches, "create depth buffer: device lost")

	f.device.FailNext(headless.OpFramebuffer, gfx.ErrDeviceLost)
	err = targets.Rebuild(pass, images)
	c.Assert(err, qt.ErrorMatches, `create framebuffer\[0\]: device lost`)
	c.Assert(targets.Len(), qt.Equals, 0)

	f.device.FailNext(headless.OpCommandPool, gfx.ErrDeviceLost)
	err = targets.Rebuild(pass, images)
	c.Assert(err, qt.ErrorMatches, `create command pool\[0\]: device lost`)

	c.Assert(f.device.Live().Framebuffers, qt.Equals, 0)
	c.Assert(f.device.Live().CommandPools, qt.Equals, 0)
	c.Assert(f.device.Live().DepthImages, qt.Equals, 0)

	// a framebuffer cannot bind images of a released swapchain
	sc.Release()
	err = targets.Rebuild(pass, images)
	c.Assert(err, qt.ErrorMatches, `create framebuffer\[0\]: headless: invalid color attachment`)

	err = targets.Rebuild(pass, nil)
	c.Assert(err, qt.ErrorMatches, "create framebuffer: no images")
}
