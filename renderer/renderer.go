// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderer owns the rendering device, the swapchain of a window
// surface, and the framebuffers and submissions built on top of them.
//
// A Renderer is not safe for concurrent use. Create, Resize, Render and
// Release must be called from the same goroutine, and Resize only
// between frames.
package renderer

import (
	"fmt"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/codevr/core"
	"github.com/devblok/codevr/gfx"
)

// DefaultAcquireTimeout bounds the wait for a presentable image.
const DefaultAcquireTimeout = time.Second

// DefaultClearValues clear to a light blue and the far plane.
var DefaultClearValues = gfx.ClearValues{
	Color: glm.Vec4{0.2, 0.4, 0.8, 1.0},
	Depth: 1.0,
}

// State is the lifecycle state of a Renderer.
type State int

// Renderer states
const (
	StateUninitialized State = iota
	StateReady
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateResizing:
		return "resizing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Window is a window with a presentable surface.
type Window interface {
	Surface() gfx.Surface
}

// WindowBuilder creates the window once the driver instance exists.
type WindowBuilder interface {
	Build(instance gfx.Instance) (Window, error)
}

// Option configures a Renderer at creation.
type Option func(*Renderer)

// WithLogger sets the logger, logrus.StandardLogger is used otherwise.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Renderer) {
		r.log = log
	}
}

// WithDeviceSelector replaces FirstAdapter as the adapter selection strategy.
func WithDeviceSelector(selector DeviceSelector) Option {
	return func(r *Renderer) {
		r.selectDevice = selector
	}
}

// WithClearValues replaces DefaultClearValues.
func WithClearValues(clear gfx.ClearValues) Option {
	return func(r *Renderer) {
		r.recorder.clear = clear
	}
}

// Renderer drives the acquire, submit and present cycle of one surface.
type Renderer struct {
	log          logrus.FieldLogger
	selectDevice DeviceSelector
	recorder     recorder

	swapchainConfig SwapchainConfig
	acquireTimeout  time.Duration

	state    State
	window   Window
	instance gfx.Instance
	adapter  gfx.Adapter
	family   uint32
	device   gfx.Device
	queue    gfx.Queue

	swapchain  gfx.Swapchain
	images     []gfx.Image
	renderPass gfx.RenderPass
	targets    *FrameTargets

	// one slot per swapchain image, indexed by the acquired image
	submissions []gfx.Submission
	submitted   uint64
}

// Create selects the device and queue, builds the window and the swapchain
// for its surface, and everything needed to render to it. The window is
// returned to the caller, who keeps driving its events.
func Create(instance gfx.Instance, builder WindowBuilder, cfg core.Configuration, opts ...Option) (*Renderer, Window, error) {
	r := &Renderer{
		log:             logrus.StandardLogger(),
		selectDevice:    FirstAdapter,
		recorder:        recorder{workers: cfg.Graphics.RecordWorkers, clear: DefaultClearValues},
		swapchainConfig: NewSwapchainConfig(cfg),
		acquireTimeout:  cfg.Graphics.AcquireTimeout,
		instance:        instance,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.acquireTimeout <= 0 {
		r.acquireTimeout = DefaultAcquireTimeout
	}

	if err := r.create(builder); err != nil {
		r.Release()
		if r.window != nil {
			r.window.Surface().Release()
		}
		return nil, nil, err
	}
	return r, r.window, nil
}

func (r *Renderer) create(builder WindowBuilder) error {
	adapters, err := r.instance.Adapters()
	if err != nil {
		return errors.Wrap(err, stageAdapters)
	}
	adapter, err := r.selectDevice(adapters)
	if err != nil {
		return errors.Wrap(err, stageAdapters)
	}
	r.adapter = adapter
	info := adapter.Info()
	r.log.WithFields(logrus.Fields{
		"adapter": info.Name,
		"vendor":  info.VendorID,
		"memory":  info.Memory,
	}).Info("Rendering adapter selected")

	window, err := builder.Build(r.instance)
	if err != nil {
		return errors.Wrap(err, stageWindow)
	}
	r.window = window

	family, err := selectQueueFamily(adapter, window.Surface())
	if err != nil {
		return err
	}
	r.family = family

	device, queue, err := adapter.Open(family)
	if err != nil {
		return errors.Wrap(err, stageDevice)
	}
	r.device, r.queue = device, queue
	r.log.WithField("family", family).Debug("Logical device created")

	swapchain, images, err := CreateSwapchain(window.Surface(), adapter, device, nil, r.swapchainConfig)
	if err != nil {
		return err
	}
	r.swapchain, r.images = swapchain, images
	r.logSwapchain("Swapchain created")

	if err := r.createRenderPass(); err != nil {
		return err
	}

	r.targets = NewFrameTargets(device)
	if err := r.targets.Rebuild(r.renderPass, r.images); err != nil {
		return err
	}
	r.submissions = make([]gfx.Submission, len(r.images))
	r.state = StateReady
	return nil
}

func (r *Renderer) createRenderPass() error {
	pass, err := r.device.CreateRenderPass(gfx.RenderPassDescriptor{
		ColorFormat: r.images[0].Format(),
		DepthFormat: DepthFormat,
	})
	if err != nil {
		return errors.Wrap(err, stageRenderPass)
	}
	r.renderPass = pass
	return nil
}

// Resize recreates the swapchain for the current surface state, handing
// the old one over for reuse, and rebuilds every target on its images.
// The caller calls it whenever the window reports a size change or
// Render returns ErrResizeRequired.
//
// A surface without area, such as a minimized window, leaves everything
// untouched and returns ErrFrameSkipped. After a failed swapchain creation
// the old swapchain is released and the next Resize starts without one.
func (r *Renderer) Resize() error {
	if r.state != StateReady && r.state != StateResizing {
		return errors.Wrap(ErrNotReady, stageResize)
	}
	previous := r.state
	r.state = StateResizing

	caps, err := ResolveCapabilities(r.window.Surface(), r.adapter)
	if err != nil {
		return err
	}
	if caps.CurrentExtent.Empty() || ResolveExtent(caps, r.swapchainConfig.Resolution).Empty() {
		r.state = previous
		return errors.WithMessage(ErrFrameSkipped, stageResize+": surface extent "+caps.CurrentExtent.String())
	}

	if err := r.device.WaitIdle(); err != nil {
		return errors.Wrap(err, stageWaitIdle)
	}
	r.releaseSubmissions()
	// framebuffers reference the images of the swapchain being replaced
	r.targets.Release()

	swapchain, images, err := CreateSwapchain(r.window.Surface(), r.adapter, r.device, r.swapchain, r.swapchainConfig)
	if err != nil {
		// a failed creation may already have retired the old swapchain,
		// the next attempt starts without one
		if r.swapchain != nil {
			r.swapchain.Release()
			r.swapchain, r.images = nil, nil
		}
		return err
	}
	if r.swapchain != nil {
		r.swapchain.Release()
	}
	r.swapchain, r.images = swapchain, images
	r.logSwapchain("Swapchain recreated")

	if r.renderPass != nil && r.renderPass.ColorFormat() != images[0].Format() {
		r.log.WithFields(logrus.Fields{
			"from": r.renderPass.ColorFormat(),
			"to":   images[0].Format(),
		}).Info("Swapchain format changed, recreating render pass")
		r.renderPass.Release()
		r.renderPass = nil
	}
	if r.renderPass == nil {
		if err := r.createRenderPass(); err != nil {
			return err
		}
	}

	if err := r.targets.Rebuild(r.renderPass, r.images); err != nil {
		return err
	}
	r.submissions = make([]gfx.Submission, len(r.images))
	r.state = StateReady
	return nil
}

// Render records a command buffer per framebuffer, acquires the next image
// and submits and presents the buffer recorded for it. ErrFrameSkipped and
// ErrResizeRequired leave the renderer usable, any other error is fatal.
func (r *Renderer) Render() error {
	if r.state != StateReady {
		return errors.Wrap(ErrNotReady, stageRender)
	}

	// command pools are reset by recording, their previous work must be done
	if err := r.retire(); err != nil {
		return err
	}

	cmds, err := r.recorder.record(r.renderPass, r.targets)
	if err != nil {
		return err
	}

	image, err := r.swapchain.AcquireNextImage(r.acquireTimeout)
	suboptimal := false
	switch errors.Cause(err) {
	case nil:
	case gfx.ErrSuboptimal:
		suboptimal = true
	case gfx.ErrTimeout, gfx.ErrNotReady:
		return errors.WithMessage(ErrFrameSkipped, stageAcquire+": "+err.Error())
	case gfx.ErrOutOfDate:
		return errors.WithMessage(ErrResizeRequired, stageAcquire+": "+err.Error())
	default:
		return errors.Wrap(err, stageAcquire)
	}
	if int(image) >= len(cmds) {
		return errors.Errorf("%s: image index %d out of %d", stageAcquire, image, len(cmds))
	}

	submission, err := r.queue.Submit(cmds[image], r.swapchain)
	if err != nil {
		return errors.Wrap(err, stageSubmit)
	}
	r.submissions[image] = submission
	r.submitted++

	err = r.queue.Present(r.swapchain, image)
	switch errors.Cause(err) {
	case nil:
	case gfx.ErrSuboptimal, gfx.ErrOutOfDate:
		return errors.WithMessage(ErrResizeRequired, stagePresent+": "+err.Error())
	default:
		return errors.Wrap(err, stagePresent)
	}

	if suboptimal {
		return errors.WithMessage(ErrResizeRequired, stageAcquire+": "+gfx.ErrSuboptimal.Error())
	}
	return nil
}

// retire waits for and releases every in-flight submission.
func (r *Renderer) retire() error {
	for idx, s := range r.submissions {
		if s == nil {
			continue
		}
		if err := s.Wait(r.acquireTimeout); err != nil {
			if errors.Cause(err) == gfx.ErrTimeout {
				return errors.WithMessage(ErrFrameSkipped, stageRetire+": "+err.Error())
			}
			return errors.Wrap(err, stageRetire)
		}
		s.Release()
		r.submissions[idx] = nil
	}
	return nil
}

func (r *Renderer) releaseSubmissions() {
	for idx, s := range r.submissions {
		if s != nil {
			s.Release()
			r.submissions[idx] = nil
		}
	}
}

func (r *Renderer) logSwapchain(msg string) {
	r.log.WithFields(logrus.Fields{
		"extent":      r.swapchain.Extent(),
		"format":      r.swapchain.Format(),
		"presentMode": r.swapchain.PresentMode(),
		"images":      len(r.images),
	}).Info(msg)
}

// State returns the lifecycle state.
func (r *Renderer) State() State {
	return r.state
}

// Adapter returns the selected adapter.
func (r *Renderer) Adapter() gfx.Adapter {
	return r.adapter
}

// Device returns the logical device.
func (r *Renderer) Device() gfx.Device {
	return r.device
}

// QueueFamily returns the index of the family the queue was taken from.
func (r *Renderer) QueueFamily() uint32 {
	return r.family
}

// Swapchain returns the current swapchain.
func (r *Renderer) Swapchain() gfx.Swapchain {
	return r.swapchain
}

// Images returns the current swapchain images.
func (r *Renderer) Images() []gfx.Image {
	return r.images
}

// RenderPass returns the render pass.
func (r *Renderer) RenderPass() gfx.RenderPass {
	return r.renderPass
}

// Targets returns the depth buffer and framebuffers of the current swapchain.
func (r *Renderer) Targets() *FrameTargets {
	return r.targets
}

// FramesSubmitted returns the number of command buffers submitted so far.
func (r *Renderer) FramesSubmitted() uint64 {
	return r.submitted
}

// InFlight returns the number of submissions not yet retired.
func (r *Renderer) InFlight() int {
	var n int
	for _, s := range r.submissions {
		if s != nil {
			n++
		}
	}
	return n
}

// Release waits for the device and frees everything the renderer owns,
// in reverse order of creation. The window is left to its owner.
func (r *Renderer) Release() {
	if r.device != nil {
		if err := r.device.WaitIdle(); err != nil {
			r.log.WithError(err).Warn("Device did not idle before release")
		}
	}
	r.releaseSubmissions()
	r.submissions = nil

	if r.targets != nil {
		r.targets.Release()
		r.targets = nil
	}
	if r.renderPass != nil {
		r.renderPass.Release()
		r.renderPass = nil
	}
	if r.swapchain != nil {
		r.swapchain.Release()
		r.swapchain = nil
		r.images = nil
	}
	if r.device != nil {
		r.device.Release()
		r.device = nil
		r.queue = nil
	}
	r.state = StateUninitialized
}
