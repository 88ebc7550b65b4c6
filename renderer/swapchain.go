// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/pkg/errors"

	"github.com/devblok/codevr/core"
	"github.com/devblok/codevr/gfx"
)

// MinUsableResolution is the largest placeholder resolution component,
// the surface decides the extent when either component is at or below it.
const MinUsableResolution = 240

var fallbackExtent = gfx.Extent2D{Width: 800, Height: 600}

// SwapchainConfig is the part of the configuration a swapchain depends on.
type SwapchainConfig struct {
	Resolution [2]uint32
	Vsync      bool
}

// NewSwapchainConfig extracts the swapchain settings from cfg.
func NewSwapchainConfig(cfg core.Configuration) SwapchainConfig {
	return SwapchainConfig{
		Resolution: cfg.Window.Resolution,
		Vsync:      cfg.Graphics.Vsync,
	}
}

// ResolveExtent picks the swapchain extent. A usable configured resolution
// is taken as is, even past the surface maximum. Otherwise the surface
// current extent is used (800x600 when the surface leaves it undefined),
// raised to the minimum extent where smaller.
func ResolveExtent(caps gfx.Capabilities, resolution [2]uint32) gfx.Extent2D {
	if resolution[0] > MinUsableResolution && resolution[1] > MinUsableResolution {
		return gfx.Extent2D{Width: resolution[0], Height: resolution[1]}
	}

	extent := fallbackExtent
	if caps.CurrentExtent.Defined() {
		extent = caps.CurrentExtent
	}
	return extent.Max(caps.MinExtent)
}

// ChoosePresentMode prefers mailbox when vsync is on and the surface
// supports it, otherwise the first supported mode is taken.
func ChoosePresentMode(caps gfx.Capabilities, vsync bool) gfx.PresentMode {
	if vsync && caps.SupportsPresentMode(gfx.PresentModeMailbox) {
		return gfx.PresentModeMailbox
	}
	return caps.PresentModes[0]
}

// CreateSwapchain builds a swapchain for the surface. The previous swapchain,
// if any, is handed to the driver for reuse and is retired by it; the caller
// still owns it and must release it together with everything built on its images.
func CreateSwapchain(surface gfx.Surface, adapter gfx.Adapter, device gfx.Device, previous gfx.Swapchain, cfg SwapchainConfig) (gfx.Swapchain, []gfx.Image, error) {
	caps, err := ResolveCapabilities(surface, adapter)
	if err != nil {
		return nil, nil, err
	}

	desc := gfx.SwapchainDescriptor{
		Surface:        surface,
		ImageCount:     caps.MinImageCount,
		Format:         caps.Formats[0],
		ColorSpace:     caps.ColorSpaceOf(0),
		Extent:         ResolveExtent(caps, cfg.Resolution),
		Usage:          caps.Usage,
		PresentMode:    ChoosePresentMode(caps, cfg.Vsync),
		CompositeAlpha: caps.CompositeAlpha[0],
		Previous:       previous,
	}

	swapchain, err := device.CreateSwapchain(desc)
	if err != nil {
		return nil, nil, errors.Wrap(err, stageSwapchain)
	}

	images := swapchain.Images()
	if len(images) == 0 {
		swapchain.Release()
		return nil, nil, errors.Wrap(errors.New("swapchain has no images"), stageSwapchain)
	}
	return swapchain, images, nil
}
