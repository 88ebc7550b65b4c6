// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"io"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/codevr/core"
	"github.com/devblok/codevr/gfx"
	"github.com/devblok/codevr/gfx/headless"
	"github.com/devblok/codevr/renderer"
)

type scriptedRenderer struct {
	renders   []error
	resizes   []error
	rendered  int
	resized   int
	submitted uint64
}

func (s *scriptedRenderer) Render() error {
	var err error
	if s.rendered < len(s.renders) {
		err = s.renders[s.rendered]
	}
	s.rendered++
	if err == nil {
		s.submitted++
	}
	return err
}

func (s *scriptedRenderer) Resize() error {
	var err error
	if s.resized < len(s.resizes) {
		err = s.resizes[s.resized]
	}
	s.resized++
	return err
}

func (s *scriptedRenderer) FramesSubmitted() uint64 {
	return s.submitted
}

func quietLogger() *log.Logger {
	l := log.New()
	l.Out = io.Discard
	return l
}

func TestFrame(t *testing.T) {
	c := qt.New(t)
	r := &scriptedRenderer{
		renders: []error{
			nil,
			errors.WithMessage(renderer.ErrFrameSkipped, "acquire next image"),
			errors.WithMessage(renderer.ErrResizeRequired, "present image"),
			nil,
		},
		resizes: []error{
			errors.WithMessage(renderer.ErrFrameSkipped, "resize: surface extent 0x0"),
			nil,
		},
	}
	l := &loop{renderer: r, log: quietLogger()}

	c.Assert(l.frame(), qt.IsNil)
	c.Assert(l.frame(), qt.IsNil)
	c.Assert(l.pendingResize, qt.IsFalse)

	c.Assert(l.frame(), qt.IsNil)
	c.Assert(l.pendingResize, qt.IsTrue)

	// postponed resize does not render
	c.Assert(l.frame(), qt.IsNil)
	c.Assert(r.resized, qt.Equals, 1)
	c.Assert(r.rendered, qt.Equals, 3)
	c.Assert(l.pendingResize, qt.IsTrue)

	c.Assert(l.frame(), qt.IsNil)
	c.Assert(r.resized, qt.Equals, 2)
	c.Assert(r.rendered, qt.Equals, 4)
	c.Assert(l.pendingResize, qt.IsFalse)
	c.Assert(r.FramesSubmitted(), qt.Equals, uint64(2))
}

func TestFrameFatal(t *testing.T) {
	c := qt.New(t)

	r := &scriptedRenderer{renders: []error{errors.Wrap(gfx.ErrDeviceLost, "submit command buffer")}}
	l := &loop{renderer: r, log: quietLogger()}
	c.Assert(errors.Cause(l.frame()), qt.Equals, gfx.ErrDeviceLost)

	r = &scriptedRenderer{resizes: []error{errors.Wrap(gfx.ErrDeviceLost, "wait for device idle")}}
	l = &loop{renderer: r, log: quietLogger(), pendingResize: true}
	c.Assert(errors.Cause(l.frame()), qt.Equals, gfx.ErrDeviceLost)
	c.Assert(r.rendered, qt.Equals, 0)

	// only a skipped resize is postponed
	r = &scriptedRenderer{resizes: []error{errors.Wrap(gfx.ErrOutOfDate, "create swapchain")}}
	l = &loop{renderer: r, log: quietLogger(), pendingResize: true}
	c.Assert(errors.Cause(l.frame()), qt.Equals, gfx.ErrOutOfDate)
	c.Assert(r.rendered, qt.Equals, 0)
}

func TestFrameMinimizedWindow(t *testing.T) {
	c := qt.New(t)

	cfg := core.DefaultConfiguration()
	instance := headless.NewInstance(headless.DefaultAdapter())
	defer instance.Release()
	r, w, err := renderer.Create(instance, headlessBuilder{cfg: cfg.Window}, cfg, renderer.WithLogger(quietLogger()))
	c.Assert(err, qt.IsNil)
	defer w.Surface().Release()
	defer r.Release()

	surface := w.Surface().(*headless.Surface)
	minimized := headless.DefaultCapabilities()
	minimized.MinExtent = gfx.Extent2D{}
	minimized.MaxExtent = gfx.Extent2D{}
	minimized.CurrentExtent = gfx.Extent2D{}
	surface.SetCapabilities(minimized)

	l := &loop{renderer: r, log: quietLogger(), pendingResize: true}
	c.Assert(l.frame(), qt.IsNil)
	c.Assert(l.pendingResize, qt.IsTrue)
	c.Assert(r.FramesSubmitted(), qt.Equals, uint64(0))
	c.Assert(r.State(), qt.Equals, renderer.StateReady)

	restored := headless.DefaultCapabilities()
	restored.CurrentExtent = gfx.Extent2D{Width: 1024, Height: 768}
	surface.SetCapabilities(restored)
	c.Assert(l.frame(), qt.IsNil)
	c.Assert(l.pendingResize, qt.IsFalse)
	c.Assert(r.FramesSubmitted(), qt.Equals, uint64(1))
	c.Assert(r.Swapchain().Extent(), qt.Equals, gfx.Extent2D{Width: 1024, Height: 768})
}

func TestRunQuit(t *testing.T) {
	c := qt.New(t)
	timeService := core.NewTime(core.TimeConfiguration{FramesPerSecond: 1, EventPollDelay: 1})
	defer timeService.Stop()

	r := &scriptedRenderer{}
	l := &loop{
		renderer: r,
		time:     timeService,
		poll:     func() windowEvent { return eventQuit },
		log:      quietLogger(),
	}
	c.Assert(l.run(context.Background()), qt.IsNil)
}

func TestRunHeadlessFrames(t *testing.T) {
	c := qt.New(t)

	cfg := core.DefaultConfiguration()
	cfg.Time.FramesPerSecond = 0
	instance := headless.NewInstance(headless.DefaultAdapter())
	defer instance.Release()

	r, w, err := renderer.Create(instance, headlessBuilder{cfg: cfg.Window}, cfg, renderer.WithLogger(quietLogger()))
	c.Assert(err, qt.IsNil)
	defer w.Surface().Release()
	defer r.Release()
	c.Assert(r.Swapchain().Extent(), qt.Equals, gfx.Extent2D{Width: defaultWidth, Height: defaultHeight})

	timeService := core.NewTime(cfg.Time)
	defer timeService.Stop()
	l := &loop{
		renderer:  r,
		time:      timeService,
		poll:      func() windowEvent { return eventNone },
		log:       quietLogger(),
		maxFrames: 5,
	}
	c.Assert(l.run(context.Background()), qt.IsNil)
	c.Assert(r.FramesSubmitted(), qt.Equals, uint64(5))
}

func TestWindowSize(t *testing.T) {
	c := qt.New(t)

	w, h := windowSize(core.WindowConfiguration{Resolution: [2]uint32{1280, 720}})
	c.Assert([2]int32{w, h}, qt.Equals, [2]int32{1280, 720})

	w, h = windowSize(core.WindowConfiguration{Resolution: [2]uint32{1280, 100}})
	c.Assert([2]int32{w, h}, qt.Equals, [2]int32{defaultWidth, defaultHeight})
}
