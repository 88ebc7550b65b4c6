// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// Device implements gfx.Device.
type Device struct {
	device    vk.Device
	family    uint32
	queue     *Queue
	allocator *MemoryAllocator
}

// Handle returns the vulkan device.
func (d *Device) Handle() vk.Device {
	return d.device
}

// CreateSwapchain implements interface
func (d *Device) CreateSwapchain(desc gfx.SwapchainDescriptor) (gfx.Swapchain, error) {
	surface, err := surfaceOf(desc.Surface)
	if err != nil {
		return nil, err
	}
	format, err := toVkFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	presentMode, ok := presentModes[desc.PresentMode]
	if !ok {
		return nil, errors.Errorf("vkr: unsupported present mode %s", desc.PresentMode)
	}

	var oldSwapchain vk.Swapchain
	if prev, ok := desc.Previous.(*Swapchain); ok && prev != nil {
		oldSwapchain = prev.swapchain
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surface,
		MinImageCount:   desc.ImageCount,
		ImageFormat:     format,
		ImageColorSpace: vk.ColorSpace(desc.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
		},
		ImageUsage:       toVkImageUsage(desc.Usage),
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   toVkCompositeAlpha(desc.CompositeAlpha),
		PresentMode:      presentMode,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     oldSwapchain,
	}

	var swapchain vk.Swapchain
	if err := result("vk.CreateSwapchain()", vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return nil, err
	}

	sc := &Swapchain{
		device:      d.device,
		swapchain:   swapchain,
		format:      desc.Format,
		extent:      desc.Extent,
		presentMode: desc.PresentMode,
	}
	if err := sc.prepare(format); err != nil {
		sc.Release()
		return nil, err
	}
	return sc, nil
}

// CreateRenderPass implements interface. The color attachment is cleared
// and stored for presentation, the depth attachment cleared and discarded.
func (d *Device) CreateRenderPass(desc gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	colorFormat, err := toVkFormat(desc.ColorFormat)
	if err != nil {
		return nil, err
	}
	depthFormat, err := toVkFormat(desc.DepthFormat)
	if err != nil {
		return nil, err
	}

	attachments := []vk.AttachmentDescription{{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}, {
		Format:         depthFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	depthAttachmentRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorAttachmentRef)),
		PColorAttachments:       colorAttachmentRef,
		PDepthStencilAttachment: &depthAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := result("vk.CreateRenderPass()", vk.CreateRenderPass(d.device, &rpci, nil, &renderPass)); err != nil {
		return nil, err
	}
	return &RenderPass{
		device:     d.device,
		renderPass: renderPass,
		color:      desc.ColorFormat,
		depth:      desc.DepthFormat,
	}, nil
}

// CreateDepthImage implements interface
func (d *Device) CreateDepthImage(extent gfx.Extent2D, format gfx.Format) (gfx.Image, error) {
	depthFormat, err := toVkFormat(format)
	if err != nil {
		return nil, err
	}

	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    depthFormat,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
	}

	var image vk.Image
	if err := result("vk.CreateImage()", vk.CreateImage(d.device, &ici, nil, &image)); err != nil {
		return nil, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &memoryRequirements)
	memoryRequirements.Deref()

	memory, err := d.allocator.Malloc(memoryRequirements, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(d.device, image, nil)
		return nil, err
	}

	depth := &Image{
		device: d.device,
		image:  image,
		memory: &memory,
		extent: extent,
		format: format,
	}
	if err := result("vk.BindImageMemory()", vk.BindImageMemory(d.device, image, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		depth.Release()
		return nil, err
	}
	if err := depth.createView(depthFormat, vk.ImageAspectDepthBit); err != nil {
		depth.Release()
		return nil, err
	}
	return depth, nil
}

// CreateFramebuffer implements interface
func (d *Device) CreateFramebuffer(desc gfx.FramebufferDescriptor) (gfx.Framebuffer, error) {
	pass, ok := desc.RenderPass.(*RenderPass)
	if !ok {
		return nil, errors.New("vkr: render pass was not created by this driver")
	}
	color, ok := desc.Color.(*Image)
	if !ok {
		return nil, errors.New("vkr: color attachment was not created by this driver")
	}
	depth, ok := desc.Depth.(*Image)
	if !ok {
		return nil, errors.New("vkr: depth attachment was not created by this driver")
	}

	attachments := []vk.ImageView{
		color.view,
		depth.view,
	}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.renderPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           desc.Extent.Width,
		Height:          desc.Extent.Height,
		Layers:          desc.Extent.Depth,
	}

	var framebuffer vk.Framebuffer
	if err := result("vk.CreateFramebuffer()", vk.CreateFramebuffer(d.device, &fci, nil, &framebuffer)); err != nil {
		return nil, err
	}
	return &Framebuffer{
		device:      d.device,
		framebuffer: framebuffer,
		extent:      desc.Extent,
	}, nil
}

// CreateCommandPool implements interface
func (d *Device) CreateCommandPool() (gfx.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.family,
	}

	var commandPool vk.CommandPool
	if err := result("vk.CreateCommandPool()", vk.CreateCommandPool(d.device, &cpci, nil, &commandPool)); err != nil {
		return nil, err
	}
	return &CommandPool{
		device: d.device,
		pool:   commandPool,
	}, nil
}

// WaitIdle implements interface
func (d *Device) WaitIdle() error {
	return result("vk.DeviceWaitIdle()", vk.DeviceWaitIdle(d.device))
}

// Release implements interface
func (d *Device) Release() {
	vk.DestroyDevice(d.device, nil)
}
