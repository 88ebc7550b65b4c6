// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package headless

import (
	"time"

	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// Swapchain implements gfx.Swapchain.
type Swapchain struct {
	device  *Device
	surface *Surface

	images      []gfx.Image
	format      gfx.Format
	colorSpace  gfx.ColorSpace
	extent      gfx.Extent2D
	presentMode gfx.PresentMode
	alpha       gfx.CompositeAlpha

	next     uint32
	current  uint32
	acquired bool
	retired  bool
	released bool
}

// Images implements interface
func (s *Swapchain) Images() []gfx.Image { return s.images }

// Format implements interface
func (s *Swapchain) Format() gfx.Format { return s.format }

// Extent implements interface
func (s *Swapchain) Extent() gfx.Extent2D { return s.extent }

// PresentMode implements interface
func (s *Swapchain) PresentMode() gfx.PresentMode { return s.presentMode }

// ColorSpace returns the color space the swapchain was created with.
func (s *Swapchain) ColorSpace() gfx.ColorSpace { return s.colorSpace }

// CompositeAlpha returns the alpha mode the swapchain was created with.
func (s *Swapchain) CompositeAlpha() gfx.CompositeAlpha { return s.alpha }

// Retired reports whether a newer swapchain replaced this one.
func (s *Swapchain) Retired() bool { return s.retired }

// AcquireNextImage implements interface. Images are handed out round-robin.
func (s *Swapchain) AcquireNextImage(timeout time.Duration) (uint32, error) {
	if s.released {
		return 0, ErrReleased
	}
	if s.retired {
		return 0, gfx.ErrOutOfDate
	}
	// suboptimal still hands out an image
	res := s.surface.nextAcquireResult()
	if res != nil && res != gfx.ErrSuboptimal {
		return 0, res
	}
	s.current, s.acquired = s.next, true
	s.next = (s.next + 1) % uint32(len(s.images))
	return s.current, res
}

func (s *Swapchain) present(image uint32) error {
	if s.released {
		return ErrReleased
	}
	if !s.acquired || image != s.current {
		return errors.Errorf("headless: presenting image %d that is not acquired", image)
	}
	s.acquired = false
	return s.surface.nextPresentResult()
}

func (s *Swapchain) retire() {
	s.retired = true
}

// Release implements interface
func (s *Swapchain) Release() {
	if s.released {
		return
	}
	s.released = true
	for _, img := range s.images {
		img.(*Image).released = true
	}
	s.device.track(&s.device.live.Swapchains, -1)
}

// Image implements gfx.Image.
type Image struct {
	device   *Device
	extent   gfx.Extent2D
	format   gfx.Format
	owned    bool
	released bool
}

// Extent implements interface
func (i *Image) Extent() gfx.Extent2D { return i.extent }

// Format implements interface
func (i *Image) Format() gfx.Format { return i.format }

// Release implements interface. Swapchain images are released with
// their swapchain.
func (i *Image) Release() {
	if !i.owned || i.released {
		return
	}
	i.released = true
	i.device.track(&i.device.live.DepthImages, -1)
}

// RenderPass implements gfx.RenderPass.
type RenderPass struct {
	device   *Device
	color    gfx.Format
	depth    gfx.Format
	released bool
}

// ColorFormat implements interface
func (r *RenderPass) ColorFormat() gfx.Format { return r.color }

// DepthFormat implements interface
func (r *RenderPass) DepthFormat() gfx.Format { return r.depth }

// Release implements interface
func (r *RenderPass) Release() {
	if r.released {
		return
	}
	r.released = true
	r.device.track(&r.device.live.RenderPasses, -1)
}

// Framebuffer implements gfx.Framebuffer.
type Framebuffer struct {
	device   *Device
	extent   gfx.Extent3D
	color    *Image
	depth    *Image
	released bool
}

// Extent implements interface
func (f *Framebuffer) Extent() gfx.Extent3D { return f.extent }

// Color returns the bound color attachment.
func (f *Framebuffer) Color() gfx.Image { return f.color }

// Depth returns the bound depth attachment.
func (f *Framebuffer) Depth() gfx.Image { return f.depth }

// Release implements interface
func (f *Framebuffer) Release() {
	if f.released {
		return
	}
	f.released = true
	f.device.track(&f.device.live.Framebuffers, -1)
}

// CommandPool implements gfx.CommandPool.
type CommandPool struct {
	device     *Device
	generation int
	allocated  int
	released   bool
}

// Allocated returns the number of buffers allocated since the last reset.
func (p *CommandPool) Allocated() int { return p.allocated }

// Allocate implements interface
func (p *CommandPool) Allocate() (gfx.CommandBuffer, error) {
	if p.released {
		return nil, ErrReleased
	}
	p.allocated++
	return &CommandBuffer{pool: p, generation: p.generation}, nil
}

// Reset implements interface
func (p *CommandPool) Reset() error {
	if p.released {
		return ErrReleased
	}
	p.generation++
	p.allocated = 0
	return nil
}

// Release implements interface
func (p *CommandPool) Release() {
	if p.released {
		return
	}
	p.released = true
	p.device.track(&p.device.live.CommandPools, -1)
}

func (p *CommandPool) stale(cb *CommandBuffer) bool {
	return p.released || cb.generation != p.generation
}

type commandState int

const (
	stateInitial commandState = iota
	stateRecording
	stateExecutable
)

// CommandBuffer implements gfx.CommandBuffer.
type CommandBuffer struct {
	pool       *CommandPool
	generation int
	state      commandState
	inPass     bool

	framebuffer *Framebuffer
	clear       gfx.ClearValues
	passes      int
}

// Framebuffer returns the framebuffer of the last render pass recorded.
func (c *CommandBuffer) Framebuffer() gfx.Framebuffer { return c.framebuffer }

// ClearValues returns the clear values of the last render pass recorded.
func (c *CommandBuffer) ClearValues() gfx.ClearValues { return c.clear }

// Passes returns the number of render passes recorded.
func (c *CommandBuffer) Passes() int { return c.passes }

// Begin implements interface
func (c *CommandBuffer) Begin() error {
	if c.pool.stale(c) {
		return errors.Errorf("headless: command buffer belongs to a reset pool")
	}
	if c.state == stateRecording {
		return errors.Errorf("headless: command buffer already recording")
	}
	c.state = stateRecording
	return nil
}

// BeginRenderPass implements interface
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, fb gfx.Framebuffer, clear gfx.ClearValues) {
	c.inPass = true
	c.framebuffer, _ = fb.(*Framebuffer)
	c.clear = clear
	c.passes++
}

// EndRenderPass implements interface
func (c *CommandBuffer) EndRenderPass() {
	c.inPass = false
}

// End implements interface
func (c *CommandBuffer) End() error {
	if c.state != stateRecording {
		return errors.Errorf("headless: command buffer not recording")
	}
	if c.inPass {
		return errors.Errorf("headless: render pass still open")
	}
	c.state = stateExecutable
	return nil
}
