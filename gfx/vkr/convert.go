// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

var formats = map[gfx.Format]vk.Format{
	gfx.FormatB8G8R8A8Unorm: vk.FormatB8g8r8a8Unorm,
	gfx.FormatB8G8R8A8Srgb:  vk.FormatB8g8r8a8Srgb,
	gfx.FormatR8G8B8A8Unorm: vk.FormatR8g8b8a8Unorm,
	gfx.FormatR8G8B8A8Srgb:  vk.FormatR8g8b8a8Srgb,
	gfx.FormatD16Unorm:      vk.FormatD16Unorm,
}

var presentModes = map[gfx.PresentMode]vk.PresentMode{
	gfx.PresentModeImmediate:   vk.PresentModeImmediate,
	gfx.PresentModeMailbox:     vk.PresentModeMailbox,
	gfx.PresentModeFifo:        vk.PresentModeFifo,
	gfx.PresentModeFifoRelaxed: vk.PresentModeFifoRelaxed,
}

// in order of preference when the surface reports several
var compositeAlphas = []struct {
	alpha gfx.CompositeAlpha
	bit   vk.CompositeAlphaFlagBits
}{
	{gfx.CompositeAlphaOpaque, vk.CompositeAlphaOpaqueBit},
	{gfx.CompositeAlphaPreMultiplied, vk.CompositeAlphaPreMultipliedBit},
	{gfx.CompositeAlphaPostMultiplied, vk.CompositeAlphaPostMultipliedBit},
	{gfx.CompositeAlphaInherit, vk.CompositeAlphaInheritBit},
}

var imageUsages = []struct {
	usage gfx.ImageUsage
	bit   vk.ImageUsageFlagBits
}{
	{gfx.ImageUsageTransferSrc, vk.ImageUsageTransferSrcBit},
	{gfx.ImageUsageTransferDst, vk.ImageUsageTransferDstBit},
	{gfx.ImageUsageSampled, vk.ImageUsageSampledBit},
	{gfx.ImageUsageStorage, vk.ImageUsageStorageBit},
	{gfx.ImageUsageColorAttachment, vk.ImageUsageColorAttachmentBit},
	{gfx.ImageUsageDepthStencilAttachment, vk.ImageUsageDepthStencilAttachmentBit},
	{gfx.ImageUsageTransientAttachment, vk.ImageUsageTransientAttachmentBit},
}

var adapterTypes = map[vk.PhysicalDeviceType]gfx.AdapterType{
	vk.PhysicalDeviceTypeIntegratedGpu: gfx.AdapterTypeIntegrated,
	vk.PhysicalDeviceTypeDiscreteGpu:   gfx.AdapterTypeDiscrete,
	vk.PhysicalDeviceTypeVirtualGpu:    gfx.AdapterTypeVirtual,
	vk.PhysicalDeviceTypeCpu:           gfx.AdapterTypeCPU,
}

func toVkFormat(f gfx.Format) (vk.Format, error) {
	if vf, ok := formats[f]; ok {
		return vf, nil
	}
	return vk.FormatUndefined, errors.Errorf("vkr: unsupported format %s", f)
}

func fromVkFormat(vf vk.Format) (gfx.Format, bool) {
	for f, candidate := range formats {
		if candidate == vf {
			return f, true
		}
	}
	return gfx.FormatUndefined, false
}

// fromVkSurfaceFormats keeps the formats gfx can name, in reported order,
// each paired with its color space. A lone undefined format means the
// surface takes any format.
func fromVkSurfaceFormats(surfaceFormats []vk.SurfaceFormat) ([]gfx.Format, []gfx.ColorSpace) {
	var (
		formats     []gfx.Format
		colorSpaces []gfx.ColorSpace
	)
	for _, sf := range surfaceFormats {
		sf.Deref()
		f, ok := fromVkFormat(sf.Format)
		if len(surfaceFormats) == 1 && sf.Format == vk.FormatUndefined {
			f, ok = gfx.FormatB8G8R8A8Unorm, true
		}
		if !ok {
			continue
		}
		formats = append(formats, f)
		colorSpaces = append(colorSpaces, gfx.ColorSpace(sf.ColorSpace))
	}
	return formats, colorSpaces
}

func fromVkPresentMode(vm vk.PresentMode) (gfx.PresentMode, bool) {
	for m, candidate := range presentModes {
		if candidate == vm {
			return m, true
		}
	}
	return 0, false
}

func toVkCompositeAlpha(a gfx.CompositeAlpha) vk.CompositeAlphaFlagBits {
	for _, c := range compositeAlphas {
		if c.alpha == a {
			return c.bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func fromVkCompositeAlpha(flags vk.CompositeAlphaFlags) []gfx.CompositeAlpha {
	var out []gfx.CompositeAlpha
	for _, c := range compositeAlphas {
		if flags&vk.CompositeAlphaFlags(c.bit) != 0 {
			out = append(out, c.alpha)
		}
	}
	return out
}

func toVkImageUsage(u gfx.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	for _, c := range imageUsages {
		if u&c.usage != 0 {
			flags |= vk.ImageUsageFlags(c.bit)
		}
	}
	return flags
}

func fromVkImageUsage(flags vk.ImageUsageFlags) gfx.ImageUsage {
	var u gfx.ImageUsage
	for _, c := range imageUsages {
		if flags&vk.ImageUsageFlags(c.bit) != 0 {
			u |= c.usage
		}
	}
	return u
}

func fromVkExtent(e vk.Extent2D) gfx.Extent2D {
	e.Deref()
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}

// result converts a vulkan result into an error naming the call.
// Results the renderer reacts to are mapped onto the gfx errors.
func result(call string, res vk.Result) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Timeout:
		return errors.Wrap(gfx.ErrTimeout, call)
	case vk.NotReady:
		return errors.Wrap(gfx.ErrNotReady, call)
	case vk.Suboptimal:
		return errors.Wrap(gfx.ErrSuboptimal, call)
	case vk.ErrorOutOfDate:
		return errors.Wrap(gfx.ErrOutOfDate, call)
	case vk.ErrorDeviceLost:
		return errors.Wrap(gfx.ErrDeviceLost, call)
	}
	if err := vk.Error(res); err != nil {
		return errors.Wrap(err, call)
	}
	return nil
}

func safeString(s string) string {
	return fmt.Sprintf("%s\x00", s)
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}
