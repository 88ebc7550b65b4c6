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

// RenderPass implements gfx.RenderPass.
type RenderPass struct {
	device     vk.Device
	renderPass vk.RenderPass
	color      gfx.Format
	depth      gfx.Format
}

// ColorFormat implements interface
func (r *RenderPass) ColorFormat() gfx.Format {
	return r.color
}

// DepthFormat implements interface
func (r *RenderPass) DepthFormat() gfx.Format {
	return r.depth
}

// Release implements interface
func (r *RenderPass) Release() {
	vk.DestroyRenderPass(r.device, r.renderPass, nil)
}

// Framebuffer implements gfx.Framebuffer.
type Framebuffer struct {
	device      vk.Device
	framebuffer vk.Framebuffer
	extent      gfx.Extent3D
}

// Extent implements interface
func (f *Framebuffer) Extent() gfx.Extent3D {
	return f.extent
}

// Release implements interface
func (f *Framebuffer) Release() {
	vk.DestroyFramebuffer(f.device, f.framebuffer, nil)
}

// CommandPool implements gfx.CommandPool. Buffers allocated before a
// reset are handed out again instead of allocating new ones.
type CommandPool struct {
	device  vk.Device
	pool    vk.CommandPool
	buffers []*CommandBuffer
	used    int
}

// Allocate implements interface
func (p *CommandPool) Allocate() (gfx.CommandBuffer, error) {
	if p.used < len(p.buffers) {
		cb := p.buffers[p.used]
		p.used++
		return cb, nil
	}

	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := result("vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(p.device, &cbai, commandBuffers)); err != nil {
		return nil, err
	}

	cb := &CommandBuffer{buffer: commandBuffers[0]}
	p.buffers = append(p.buffers, cb)
	p.used++
	return cb, nil
}

// Reset implements interface
func (p *CommandPool) Reset() error {
	if err := result("vk.ResetCommandPool()", vk.ResetCommandPool(p.device, p.pool, 0)); err != nil {
		return err
	}
	p.used = 0
	return nil
}

// Release implements interface
func (p *CommandPool) Release() {
	if len(p.buffers) > 0 {
		handles := make([]vk.CommandBuffer, 0, len(p.buffers))
		for _, cb := range p.buffers {
			handles = append(handles, cb.buffer)
		}
		vk.FreeCommandBuffers(p.device, p.pool, uint32(len(handles)), handles)
		p.buffers = nil
	}
	vk.DestroyCommandPool(p.device, p.pool, nil)
}

// CommandBuffer implements gfx.CommandBuffer.
type CommandBuffer struct {
	buffer vk.CommandBuffer
}

// Begin implements interface
func (c *CommandBuffer) Begin() error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return result("vk.BeginCommandBuffer()", vk.BeginCommandBuffer(c.buffer, &cbbi))
}

// BeginRenderPass implements interface
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, fb gfx.Framebuffer, clear gfx.ClearValues) {
	renderPass := pass.(*RenderPass)
	framebuffer := fb.(*Framebuffer)

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(clear.Color[:])
	clearValues[1].SetDepthStencil(clear.Depth, 0)

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass.renderPass,
		Framebuffer: framebuffer.framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{
				X: 0, Y: 0,
			},
			Extent: vk.Extent2D{
				Width:  framebuffer.extent.Width,
				Height: framebuffer.extent.Height,
			},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.buffer, &rpbi, vk.SubpassContentsInline)
}

// EndRenderPass implements interface
func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.buffer)
}

// End implements interface
func (c *CommandBuffer) End() error {
	return result("vk.EndCommandBuffer()", vk.EndCommandBuffer(c.buffer))
}

// Queue implements gfx.Queue.
type Queue struct {
	device *Device
	queue  vk.Queue
}

// Submit implements interface
func (q *Queue) Submit(cmd gfx.CommandBuffer, swapchain gfx.Swapchain) (gfx.Submission, error) {
	cb, ok := cmd.(*CommandBuffer)
	if !ok {
		return nil, errors.New("vkr: command buffer was not created by this driver")
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.buffer},
	}
	if sc, ok := swapchain.(*Swapchain); ok && sc != nil {
		si.WaitSemaphoreCount = 1
		si.PWaitSemaphores = []vk.Semaphore{sc.acquired}
		si.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
		si.SignalSemaphoreCount = 1
		si.PSignalSemaphores = []vk.Semaphore{sc.renderFinished[sc.current]}
	}

	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	var fence vk.Fence
	if err := result("vk.CreateFence()", vk.CreateFence(q.device.device, &fci, nil, &fence)); err != nil {
		return nil, err
	}

	if err := result("vk.QueueSubmit()", vk.QueueSubmit(q.queue, 1, []vk.SubmitInfo{si}, fence)); err != nil {
		vk.DestroyFence(q.device.device, fence, nil)
		return nil, err
	}
	return &Submission{device: q.device.device, fence: fence}, nil
}

// Present implements interface
func (q *Queue) Present(swapchain gfx.Swapchain, image uint32) error {
	sc, ok := swapchain.(*Swapchain)
	if !ok || sc == nil {
		return errors.New("vkr: swapchain was not created by this driver")
	}
	if int(image) >= len(sc.renderFinished) {
		return errors.Errorf("vkr: image index %d out of range", image)
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{sc.renderFinished[image]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.swapchain},
		PImageIndices:      []uint32{image},
	}
	return result("vk.QueuePresent()", vk.QueuePresent(q.queue, &presentInfo))
}

// Submission implements gfx.Submission on top of a fence.
type Submission struct {
	device vk.Device
	fence  vk.Fence
}

// Wait implements interface
func (s *Submission) Wait(timeout time.Duration) error {
	return result("vk.WaitForFences()", vk.WaitForFences(s.device, 1, []vk.Fence{s.fence}, vk.True, uint(timeout.Nanoseconds())))
}

// Done implements interface
func (s *Submission) Done() bool {
	return vk.GetFenceStatus(s.device, s.fence) == vk.Success
}

// Release implements interface
func (s *Submission) Release() {
	vk.DestroyFence(s.device, s.fence, nil)
}
