// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"time"

	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// Swapchain implements gfx.Swapchain.
type Swapchain struct {
	device      vk.Device
	swapchain   vk.Swapchain
	format      gfx.Format
	extent      gfx.Extent2D
	presentMode gfx.PresentMode
	images      []gfx.Image

	// imageAvailable rotates, one more than there are images so a
	// semaphore is never reused while its image is still acquired.
	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	next           int
	acquired       vk.Semaphore
	current        uint32
}

func (s *Swapchain) prepare(format vk.Format) error {
	var numImages uint32
	if err := result("vk.GetSwapchainImages(num)", vk.GetSwapchainImages(s.device, s.swapchain, &numImages, nil)); err != nil {
		return err
	}
	handles := make([]vk.Image, numImages)
	if err := result("vk.GetSwapchainImages(images)", vk.GetSwapchainImages(s.device, s.swapchain, &numImages, handles)); err != nil {
		return err
	}

	for idx, handle := range handles {
		img := &Image{
			device:    s.device,
			image:     handle,
			extent:    s.extent,
			format:    s.format,
			swapchain: true,
		}
		if err := img.createView(format, vk.ImageAspectColorBit); err != nil {
			return errors.Wrapf(err, "swapchain image %d", idx)
		}
		s.images = append(s.images, img)
	}

	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for idx := 0; idx <= len(handles); idx++ {
		var semaphore vk.Semaphore
		if err := result("vk.CreateSemaphore()", vk.CreateSemaphore(s.device, &sci, nil, &semaphore)); err != nil {
			return err
		}
		s.imageAvailable = append(s.imageAvailable, semaphore)
	}
	for range handles {
		var semaphore vk.Semaphore
		if err := result("vk.CreateSemaphore()", vk.CreateSemaphore(s.device, &sci, nil, &semaphore)); err != nil {
			return err
		}
		s.renderFinished = append(s.renderFinished, semaphore)
	}
	return nil
}

// Images implements interface
func (s *Swapchain) Images() []gfx.Image {
	return s.images
}

// Format implements interface
func (s *Swapchain) Format() gfx.Format {
	return s.format
}

// Extent implements interface
func (s *Swapchain) Extent() gfx.Extent2D {
	return s.extent
}

// PresentMode implements interface
func (s *Swapchain) PresentMode() gfx.PresentMode {
	return s.presentMode
}

// AcquireNextImage implements interface. A suboptimal acquire still
// returns a usable index alongside gfx.ErrSuboptimal.
func (s *Swapchain) AcquireNextImage(timeout time.Duration) (uint32, error) {
	semaphore := s.imageAvailable[s.next]

	var index uint32
	res := vk.AcquireNextImage(s.device, s.swapchain, uint(timeout.Nanoseconds()), semaphore, nil, &index)
	if res != vk.Success && res != vk.Suboptimal {
		return 0, result("vk.AcquireNextImage()", res)
	}

	s.next = (s.next + 1) % len(s.imageAvailable)
	s.acquired = semaphore
	s.current = index
	return index, result("vk.AcquireNextImage()", res)
}

// Release implements interface
func (s *Swapchain) Release() {
	for _, semaphore := range s.imageAvailable {
		vk.DestroySemaphore(s.device, semaphore, nil)
	}
	for _, semaphore := range s.renderFinished {
		vk.DestroySemaphore(s.device, semaphore, nil)
	}
	for _, img := range s.images {
		img.Release()
	}
	s.imageAvailable, s.renderFinished, s.images = nil, nil, nil
	vk.DestroySwapchain(s.device, s.swapchain, nil)
}

// Image implements gfx.Image.
type Image struct {
	device vk.Device
	image  vk.Image
	view   vk.ImageView
	memory *Memory
	extent gfx.Extent2D
	format gfx.Format

	// images owned by a swapchain only have their view destroyed
	swapchain bool
}

func (i *Image) createView(format vk.Format, aspect vk.ImageAspectFlagBits) error {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(aspect),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if err := result("vk.CreateImageView()", vk.CreateImageView(i.device, &ivci, nil, &view)); err != nil {
		return err
	}
	i.view = view
	return nil
}

// Extent implements interface
func (i *Image) Extent() gfx.Extent2D {
	return i.extent
}

// Format implements interface
func (i *Image) Format() gfx.Format {
	return i.format
}

// Release implements interface
func (i *Image) Release() {
	if i.view != nil {
		vk.DestroyImageView(i.device, i.view, nil)
		i.view = nil
	}
	if i.swapchain {
		return
	}
	vk.DestroyImage(i.device, i.image, nil)
	if i.memory != nil {
		i.memory.Release()
		i.memory = nil
	}
}
