// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/codevr/core"
	"github.com/devblok/codevr/gfx"
	"github.com/devblok/codevr/gfx/headless"
	"github.com/devblok/codevr/gfx/vkr"
	"github.com/devblok/codevr/renderer"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
)

// windowSize is the configured resolution, or the default for unusable ones.
func windowSize(cfg core.WindowConfiguration) (int32, int32) {
	w, h := cfg.Resolution[0], cfg.Resolution[1]
	if w <= renderer.MinUsableResolution || h <= renderer.MinUsableResolution {
		return defaultWidth, defaultHeight
	}
	return int32(w), int32(h)
}

func newWindow(cfg core.WindowConfiguration) (*sdl.Window, error) {
	width, height := windowSize(cfg)
	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		width,
		height,
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return window, nil
}

// sdlWindow is a window whose surface was created by SDL.
type sdlWindow struct {
	window  *sdl.Window
	surface *vkr.Surface
}

func (w *sdlWindow) Surface() gfx.Surface {
	return w.surface
}

// pollEvents drains the SDL event queue.
func (w *sdlWindow) pollEvents() windowEvent {
	result := eventNone
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				return eventQuit
			}
		case *sdl.QuitEvent:
			return eventQuit
		case *sdl.WindowEvent:
			if et.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				result = eventResized
			}
		}
	}
	return result
}

// sdlBuilder creates the surface of an existing SDL window.
type sdlBuilder struct {
	window *sdl.Window
}

func (b sdlBuilder) Build(instance gfx.Instance) (renderer.Window, error) {
	vkInstance, ok := instance.(*vkr.Instance)
	if !ok {
		return nil, errors.New("sdl window needs a vulkan instance")
	}
	srf, err := b.window.VulkanCreateSurface(vkInstance.Handle())
	if err != nil {
		return nil, errors.Wrap(err, "window.VulkanCreateSurface()")
	}
	return &sdlWindow{
		window:  b.window,
		surface: vkr.NewSurface(vkInstance, srf),
	}, nil
}

// headlessWindow has an in-memory surface and never sees events.
type headlessWindow struct {
	surface *headless.Surface
}

func (w *headlessWindow) Surface() gfx.Surface {
	return w.surface
}

type headlessBuilder struct {
	cfg core.WindowConfiguration
}

func (b headlessBuilder) Build(gfx.Instance) (renderer.Window, error) {
	caps := headless.DefaultCapabilities()
	width, height := windowSize(b.cfg)
	caps.CurrentExtent = gfx.Extent2D{Width: uint32(width), Height: uint32(height)}
	return &headlessWindow{surface: headless.NewSurface(caps)}, nil
}
