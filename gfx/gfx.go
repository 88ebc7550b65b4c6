// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the rendering device vocabulary that drivers must implement.
package gfx

import (
	"fmt"
	"math"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
)

// UndefinedExtent is reported as the current extent width and height
// when the surface lets the swapchain decide its own size.
const UndefinedExtent = math.MaxUint32

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Extent2D is a width/height pair in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Defined reports whether the extent holds a real size.
func (e Extent2D) Defined() bool {
	return e.Width != UndefinedExtent && e.Height != UndefinedExtent
}

// Max returns the component-wise maximum of both extents.
func (e Extent2D) Max(o Extent2D) Extent2D {
	if o.Width > e.Width {
		e.Width = o.Width
	}
	if o.Height > e.Height {
		e.Height = o.Height
	}
	return e
}

// Volume extends the extent into a single layer 3D extent.
func (e Extent2D) Volume() Extent3D {
	return Extent3D{Width: e.Width, Height: e.Height, Depth: 1}
}

// Empty reports whether the extent has no area, as for a minimized window.
func (e Extent2D) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Extent3D is a width/height/depth triple.
type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// PresentMode is the policy used by the present engine to show images.
type PresentMode int

// Present modes known to the drivers
const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFifo
	PresentModeFifoRelaxed
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", int(p))
}

// CompositeAlpha describes how the window system blends the surface alpha.
type CompositeAlpha int

// Composite alpha modes
const (
	CompositeAlphaOpaque CompositeAlpha = iota
	CompositeAlphaPreMultiplied
	CompositeAlphaPostMultiplied
	CompositeAlphaInherit
)

// Format identifies an image pixel format.
type Format int

// Formats used by the renderer
const (
	FormatUndefined Format = iota
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
	FormatR8G8B8A8Unorm
	FormatR8G8B8A8Srgb
	FormatD16Unorm
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "undefined"
	case FormatB8G8R8A8Unorm:
		return "b8g8r8a8-unorm"
	case FormatB8G8R8A8Srgb:
		return "b8g8r8a8-srgb"
	case FormatR8G8B8A8Unorm:
		return "r8g8b8a8-unorm"
	case FormatR8G8B8A8Srgb:
		return "r8g8b8a8-srgb"
	case FormatD16Unorm:
		return "d16-unorm"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ColorSpace identifies how presented colors are interpreted. Values other
// than ColorSpaceSrgbNonlinear are passed through from the driver as reported.
type ColorSpace int

// ColorSpaceSrgbNonlinear is the color space every presenting surface supports.
const ColorSpaceSrgbNonlinear ColorSpace = 0

// ImageUsage is a set of image usage flags.
type ImageUsage uint32

// Image usage flags
const (
	ImageUsageTransferSrc ImageUsage = 1 << iota
	ImageUsageTransferDst
	ImageUsageSampled
	ImageUsageStorage
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
	ImageUsageTransientAttachment
)

// Capabilities is the result of querying an adapter/surface pair.
type Capabilities struct {
	MinImageCount uint32
	MaxImageCount uint32

	MinExtent     Extent2D
	MaxExtent     Extent2D
	CurrentExtent Extent2D

	// Ordered as reported, first entry is the default pick. Present modes
	// and formats a driver has no name for are left out, so Formats[0] is
	// the first reported format gfx can name.
	PresentModes   []PresentMode
	CompositeAlpha []CompositeAlpha
	Formats        []Format

	// ColorSpaces[i] is the color space reported with Formats[i].
	ColorSpaces []ColorSpace
	Usage       ImageUsage
}

// ColorSpaceOf returns the color space paired with Formats[idx].
func (c Capabilities) ColorSpaceOf(idx int) ColorSpace {
	if idx < len(c.ColorSpaces) {
		return c.ColorSpaces[idx]
	}
	return ColorSpaceSrgbNonlinear
}

// SupportsPresentMode checks if the mode is in the supported set.
func (c Capabilities) SupportsPresentMode(mode PresentMode) bool {
	for _, m := range c.PresentModes {
		if m == mode {
			return true
		}
	}
	return false
}

// AdapterType classifies physical devices.
type AdapterType int

// Adapter types
const (
	AdapterTypeOther AdapterType = iota
	AdapterTypeIntegrated
	AdapterTypeDiscrete
	AdapterTypeVirtual
	AdapterTypeCPU
)

func (t AdapterType) String() string {
	switch t {
	case AdapterTypeOther:
		return "other"
	case AdapterTypeIntegrated:
		return "integrated"
	case AdapterTypeDiscrete:
		return "discrete"
	case AdapterTypeVirtual:
		return "virtual"
	case AdapterTypeCPU:
		return "cpu"
	}
	return fmt.Sprintf("AdapterType(%d)", int(t))
}

// AdapterInfo describes available physical properties of a rendering device
type AdapterInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Type          AdapterType
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint64
}

// QueueFamily describes a family of queues exposed by an adapter.
type QueueFamily struct {
	Index    uint32
	Count    uint32
	Graphics bool
	Compute  bool
	Transfer bool
}

// Instance is the entry point of a driver.
type Instance interface {
	Releasable

	// Adapters returns the physical devices in enumeration order.
	Adapters() ([]Adapter, error)
}

// Adapter is a physical device.
type Adapter interface {
	Info() AdapterInfo

	// QueueFamilies returns the queue families in index order.
	QueueFamilies() []QueueFamily

	// SupportsPresent checks if the family can present to the surface.
	SupportsPresent(family uint32, surface Surface) (bool, error)

	// Capabilities queries the surface capabilities for this adapter.
	Capabilities(surface Surface) (Capabilities, error)

	// Open creates a logical device with a single queue from the family.
	Open(family uint32) (Device, Queue, error)
}

// Surface is the presentable part of a window.
type Surface interface {
	Releasable
}

// SwapchainDescriptor configures a new swapchain.
type SwapchainDescriptor struct {
	Surface        Surface
	ImageCount     uint32
	Format         Format
	ColorSpace     ColorSpace
	Extent         Extent2D
	Usage          ImageUsage
	PresentMode    PresentMode
	CompositeAlpha CompositeAlpha

	// Previous is retired by the driver once the new swapchain exists.
	Previous Swapchain
}

// RenderPassDescriptor configures the single pass of the renderer,
// the color attachment is cleared and stored, depth cleared and discarded.
type RenderPassDescriptor struct {
	ColorFormat Format
	DepthFormat Format
}

// FramebufferDescriptor binds attachments to a render pass.
type FramebufferDescriptor struct {
	RenderPass RenderPass
	Color      Image
	Depth      Image
	Extent     Extent3D
}

// ClearValues are used at the start of the render pass.
type ClearValues struct {
	Color glm.Vec4
	Depth float32
}

// Device is a logical device.
type Device interface {
	Releasable

	CreateSwapchain(desc SwapchainDescriptor) (Swapchain, error)
	CreateRenderPass(desc RenderPassDescriptor) (RenderPass, error)

	// CreateDepthImage allocates a transient depth attachment.
	CreateDepthImage(extent Extent2D, format Format) (Image, error)

	CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error)
	CreateCommandPool() (CommandPool, error)

	// WaitIdle blocks until all submitted work is finished.
	WaitIdle() error
}

// Queue accepts command buffers and presents swapchain images.
type Queue interface {
	// Submit submits the command buffer. When swapchain is not nil the
	// execution waits for its last acquired image.
	Submit(cmd CommandBuffer, swapchain Swapchain) (Submission, error)

	// Present queues the image for presentation after the last submission.
	Present(swapchain Swapchain, image uint32) error
}

// Swapchain is an ordered set of presentable images.
type Swapchain interface {
	Releasable

	Images() []Image
	Format() Format
	Extent() Extent2D
	PresentMode() PresentMode

	// AcquireNextImage blocks for up to timeout waiting for an image index.
	AcquireNextImage(timeout time.Duration) (uint32, error)
}

// Image is a 2D image usable as an attachment.
type Image interface {
	Releasable

	Extent() Extent2D
	Format() Format
}

// RenderPass is a compiled render pass description.
type RenderPass interface {
	Releasable

	ColorFormat() Format
	DepthFormat() Format
}

// Framebuffer is a set of attachments matched to a render pass.
type Framebuffer interface {
	Releasable

	Extent() Extent3D
}

// CommandPool allocates command buffers. A pool and everything allocated
// from it must only be used by one goroutine at a time.
type CommandPool interface {
	Releasable

	Allocate() (CommandBuffer, error)

	// Reset recycles every command buffer allocated from the pool.
	Reset() error
}

// CommandBuffer records device commands.
type CommandBuffer interface {
	Begin() error
	BeginRenderPass(pass RenderPass, fb Framebuffer, clear ClearValues)
	EndRenderPass()
	End() error
}

// Submission is an in-flight command buffer execution.
type Submission interface {
	Releasable

	// Wait blocks until the work is done or the timeout passes.
	Wait(timeout time.Duration) error

	// Done polls the execution state.
	Done() bool
}
