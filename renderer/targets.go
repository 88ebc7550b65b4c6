// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// DepthFormat is the format of the shared depth attachment.
const DepthFormat = gfx.FormatD16Unorm

// NewFrameTargets creates an empty target set for the device.
func NewFrameTargets(device gfx.Device) *FrameTargets {
	return &FrameTargets{device: device}
}

// FrameTargets owns the depth buffer and one framebuffer and command pool
// per swapchain image. Index i of every slice belongs to swapchain image i.
type FrameTargets struct {
	device gfx.Device

	depth        gfx.Image
	framebuffers []gfx.Framebuffer
	pools        []gfx.CommandPool
}

// Rebuild releases the current targets and builds new ones for images.
// All images must share one extent. On failure the set is left empty.
func (ft *FrameTargets) Rebuild(pass gfx.RenderPass, images []gfx.Image) error {
	ft.Release()
	if len(images) == 0 {
		return errors.Wrap(errors.New("no images"), stageFramebuffer)
	}

	extent := images[0].Extent()
	depth, err := ft.device.CreateDepthImage(extent, DepthFormat)
	if err != nil {
		return errors.Wrap(err, stageDepthBuffer)
	}
	ft.depth = depth

	ft.framebuffers = make([]gfx.Framebuffer, 0, len(images))
	ft.pools = make([]gfx.CommandPool, 0, len(images))
	for idx, image := range images {
		fb, err := ft.device.CreateFramebuffer(gfx.FramebufferDescriptor{
			RenderPass: pass,
			Color:      image,
			Depth:      depth,
			Extent:     image.Extent().Volume(),
		})
		if err != nil {
			ft.Release()
			return errors.Wrapf(err, "%s[%d]", stageFramebuffer, idx)
		}
		ft.framebuffers = append(ft.framebuffers, fb)

		pool, err := ft.device.CreateCommandPool()
		if err != nil {
			ft.Release()
			return errors.Wrapf(err, "%s[%d]", stageCommandPool, idx)
		}
		ft.pools = append(ft.pools, pool)
	}
	return nil
}

// Len returns the number of framebuffers.
func (ft *FrameTargets) Len() int {
	return len(ft.framebuffers)
}

// Depth returns the shared depth buffer.
func (ft *FrameTargets) Depth() gfx.Image {
	return ft.depth
}

// Framebuffers returns the framebuffers in swapchain image order.
func (ft *FrameTargets) Framebuffers() []gfx.Framebuffer {
	return ft.framebuffers
}

// Pools returns the command pools in swapchain image order.
func (ft *FrameTargets) Pools() []gfx.CommandPool {
	return ft.pools
}

// Release frees every target, framebuffers before the depth buffer they bind.
func (ft *FrameTargets) Release() {
	for _, pool := range ft.pools {
		pool.Release()
	}
	ft.pools = nil

	for _, fb := range ft.framebuffers {
		fb.Release()
	}
	ft.framebuffers = nil

	if ft.depth != nil {
		ft.depth.Release()
		ft.depth = nil
	}
}
