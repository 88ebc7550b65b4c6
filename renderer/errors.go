// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/pkg/errors"
)

// renderer errors, compare against errors.Cause
var (
	// ErrNoDevice is returned by Create when no adapter can be used.
	ErrNoDevice = errors.New("no rendering device available")

	// ErrNoQueueFamily is returned by Create when no graphics queue
	// family of the chosen adapter can present to the surface.
	ErrNoQueueFamily = errors.New("couldn't find a graphical queue family")

	// ErrNotReady is returned when an operation is called in the wrong state.
	ErrNotReady = errors.New("renderer is not ready")

	// ErrFrameSkipped is a transient Render failure, the next frame may succeed.
	ErrFrameSkipped = errors.New("frame skipped")

	// ErrResizeRequired means the surface no longer matches the swapchain,
	// Resize must be called before rendering again.
	ErrResizeRequired = errors.New("surface changed, resize required")
)

// Stages named in wrapped errors
const (
	stageAdapters     = "enumerate adapters"
	stageWindow       = "build window"
	stageQueueFamily  = "select queue family"
	stageDevice       = "create device"
	stageCapabilities = "query surface capabilities"
	stageSwapchain    = "create swapchain"
	stageRenderPass   = "create render pass"
	stageDepthBuffer  = "create depth buffer"
	stageFramebuffer  = "create framebuffer"
	stageCommandPool  = "create command pool"
	stageRecord       = "record command buffers"
	stageAcquire      = "acquire next image"
	stageSubmit       = "submit command buffer"
	stagePresent      = "present image"
	stageRetire       = "retire submission"
	stageWaitIdle     = "wait for device idle"
	stageResize       = "resize"
	stageRender       = "render"
)

// IsTransient reports whether err only cost the current frame.
func IsTransient(err error) bool {
	return errors.Cause(err) == ErrFrameSkipped
}

// NeedsResize reports whether err asks for a swapchain recreation.
func NeedsResize(err error) bool {
	return errors.Cause(err) == ErrResizeRequired
}
