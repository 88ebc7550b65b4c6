// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package headless

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// Operations that can be made to fail with Device.FailNext
const (
	OpSwapchain   = "swapchain"
	OpRenderPass  = "renderpass"
	OpDepthImage  = "depthimage"
	OpFramebuffer = "framebuffer"
	OpCommandPool = "commandpool"
	OpSubmit      = "submit"
)

// Counts is a snapshot of live device objects.
type Counts struct {
	Swapchains   int
	DepthImages  int
	RenderPasses int
	Framebuffers int
	CommandPools int
	Submissions  int
}

// Device implements gfx.Device.
type Device struct {
	adapter *Adapter
	family  uint32
	queue   *Queue

	mu       sync.Mutex
	live     Counts
	failures map[string]error
	released bool
}

// Family returns the queue family the device was opened with.
func (d *Device) Family() uint32 {
	return d.family
}

// Queue returns the device queue.
func (d *Device) Queue() *Queue {
	return d.queue
}

// Live returns the number of objects created and not yet released.
func (d *Device) Live() Counts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// Released reports whether the device was released.
func (d *Device) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// FailNext makes the next operation of the kind fail with err.
func (d *Device) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failures == nil {
		d.failures = make(map[string]error)
	}
	d.failures[op] = err
}

func (d *Device) take(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return ErrReleased
	}
	err := d.failures[op]
	delete(d.failures, op)
	return err
}

func (d *Device) track(counter *int, delta int) {
	d.mu.Lock()
	*counter += delta
	d.mu.Unlock()
}

// CreateSwapchain implements interface. The previous swapchain is retired
// even when creation fails, and a retired swapchain is refused as previous.
func (d *Device) CreateSwapchain(desc gfx.SwapchainDescriptor) (gfx.Swapchain, error) {
	surface, ok := desc.Surface.(*Surface)
	if !ok {
		return nil, errors.Errorf("headless: foreign surface")
	}
	if prev, ok := desc.Previous.(*Swapchain); ok && prev != nil {
		if prev.retired || prev.released {
			return nil, errors.Errorf("headless: previous swapchain already retired")
		}
		prev.retire()
	}
	if err := d.take(OpSwapchain); err != nil {
		return nil, err
	}
	caps, err := surface.capabilities()
	if err != nil {
		return nil, err
	}
	if desc.ImageCount < caps.MinImageCount {
		return nil, errors.Errorf("headless: image count %d below minimum %d", desc.ImageCount, caps.MinImageCount)
	}
	if desc.Extent.Empty() || !desc.Extent.Defined() {
		return nil, errors.Errorf("headless: invalid swapchain extent %s", desc.Extent)
	}
	if !caps.SupportsPresentMode(desc.PresentMode) {
		return nil, errors.Errorf("headless: present mode %s not supported", desc.PresentMode)
	}
	if !containsFormat(caps.Formats, desc.Format) {
		return nil, errors.Errorf("headless: format %s not supported", desc.Format)
	}

	sc := &Swapchain{
		device:      d,
		surface:     surface,
		format:      desc.Format,
		colorSpace:  desc.ColorSpace,
		extent:      desc.Extent,
		presentMode: desc.PresentMode,
		alpha:       desc.CompositeAlpha,
	}
	sc.images = make([]gfx.Image, desc.ImageCount)
	for idx := range sc.images {
		sc.images[idx] = &Image{extent: desc.Extent, format: desc.Format}
	}
	d.track(&d.live.Swapchains, 1)
	return sc, nil
}

// CreateRenderPass implements interface
func (d *Device) CreateRenderPass(desc gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	if err := d.take(OpRenderPass); err != nil {
		return nil, err
	}
	if desc.ColorFormat == gfx.FormatUndefined {
		return nil, errors.Errorf("headless: undefined color format")
	}
	d.track(&d.live.RenderPasses, 1)
	return &RenderPass{device: d, color: desc.ColorFormat, depth: desc.DepthFormat}, nil
}

// CreateDepthImage implements interface
func (d *Device) CreateDepthImage(extent gfx.Extent2D, format gfx.Format) (gfx.Image, error) {
	if err := d.take(OpDepthImage); err != nil {
		return nil, err
	}
	if extent.Width == 0 || extent.Height == 0 {
		return nil, errors.Errorf("headless: invalid depth extent %s", extent)
	}
	d.track(&d.live.DepthImages, 1)
	return &Image{device: d, extent: extent, format: format, owned: true}, nil
}

// CreateFramebuffer implements interface
func (d *Device) CreateFramebuffer(desc gfx.FramebufferDescriptor) (gfx.Framebuffer, error) {
	if err := d.take(OpFramebuffer); err != nil {
		return nil, err
	}
	rp, ok := desc.RenderPass.(*RenderPass)
	if !ok || rp.released {
		return nil, errors.Errorf("headless: invalid render pass")
	}
	color, ok := desc.Color.(*Image)
	if !ok || color.released {
		return nil, errors.Errorf("headless: invalid color attachment")
	}
	depth, ok := desc.Depth.(*Image)
	if !ok || depth.released {
		return nil, errors.Errorf("headless: invalid depth attachment")
	}
	if color.format != rp.color {
		return nil, errors.Errorf("headless: color format %s does not match render pass %s", color.format, rp.color)
	}
	if color.extent.Volume() != desc.Extent || depth.extent.Volume() != desc.Extent {
		return nil, errors.Errorf("headless: attachment extents do not match framebuffer %dx%dx%d",
			desc.Extent.Width, desc.Extent.Height, desc.Extent.Depth)
	}
	d.track(&d.live.Framebuffers, 1)
	return &Framebuffer{device: d, extent: desc.Extent, color: color, depth: depth}, nil
}

// CreateCommandPool implements interface
func (d *Device) CreateCommandPool() (gfx.CommandPool, error) {
	if err := d.take(OpCommandPool); err != nil {
		return nil, err
	}
	d.track(&d.live.CommandPools, 1)
	return &CommandPool{device: d}, nil
}

// WaitIdle implements interface
func (d *Device) WaitIdle() error {
	if d.Released() {
		return ErrReleased
	}
	return nil
}

// Release implements interface
func (d *Device) Release() {
	d.mu.Lock()
	d.released = true
	d.mu.Unlock()
}

// Queue implements gfx.Queue and records what went through it.
type Queue struct {
	device *Device

	mu        sync.Mutex
	submitted []*CommandBuffer
	presented []uint32
}

// Submitted returns the number of accepted submissions.
func (q *Queue) Submitted() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.submitted)
}

// SubmittedBuffers returns the command buffers accepted so far, in submission order.
func (q *Queue) SubmittedBuffers() []*CommandBuffer {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*CommandBuffer(nil), q.submitted...)
}

// Presented returns the image indices presented so far.
func (q *Queue) Presented() []uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uint32(nil), q.presented...)
}

// Submit implements interface
func (q *Queue) Submit(cmd gfx.CommandBuffer, swapchain gfx.Swapchain) (gfx.Submission, error) {
	if err := q.device.take(OpSubmit); err != nil {
		return nil, err
	}
	cb, ok := cmd.(*CommandBuffer)
	if !ok || cb.state != stateExecutable || cb.pool.stale(cb) {
		return nil, errors.Errorf("headless: command buffer not executable")
	}
	if sc, ok := swapchain.(*Swapchain); ok && sc != nil && !sc.acquired {
		return nil, errors.Errorf("headless: submission waits on an image that was never acquired")
	}
	q.mu.Lock()
	q.submitted = append(q.submitted, cb)
	q.mu.Unlock()
	q.device.track(&q.device.live.Submissions, 1)
	return &Submission{device: q.device}, nil
}

// Present implements interface
func (q *Queue) Present(swapchain gfx.Swapchain, image uint32) error {
	sc, ok := swapchain.(*Swapchain)
	if !ok {
		return errors.Errorf("headless: foreign swapchain")
	}
	if err := sc.present(image); err != nil {
		return err
	}
	q.mu.Lock()
	q.presented = append(q.presented, image)
	q.mu.Unlock()
	return nil
}

// Submission implements gfx.Submission, work completes instantly.
type Submission struct {
	device   *Device
	released bool
}

// Wait implements interface
func (s *Submission) Wait(timeout time.Duration) error {
	if s.released {
		return ErrReleased
	}
	return nil
}

// Done implements interface
func (s *Submission) Done() bool {
	return true
}

// Release implements interface
func (s *Submission) Release() {
	if s.released {
		return
	}
	s.released = true
	s.device.track(&s.device.live.Submissions, -1)
}

func containsFormat(formats []gfx.Format, f gfx.Format) bool {
	for _, c := range formats {
		if c == f {
			return true
		}
	}
	return false
}
