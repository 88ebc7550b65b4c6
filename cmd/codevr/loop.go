// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/codevr/core"
	"github.com/devblok/codevr/renderer"
)

// windowEvent is what the event loop learned from the window system.
type windowEvent int

const (
	eventNone windowEvent = iota
	eventResized
	eventQuit
)

// frameRenderer is the part of the renderer driven by the loop.
type frameRenderer interface {
	Render() error
	Resize() error
	FramesSubmitted() uint64
}

// loop renders on every frame tick and polls window events on every event tick.
type loop struct {
	renderer frameRenderer
	time     *core.Time
	poll     func() windowEvent
	log      log.FieldLogger

	// maxFrames stops the loop after that many rendered frames, 0 runs until quit
	maxFrames uint64

	pendingResize bool
}

func (l *loop) run(ctx context.Context) error {
	report := time.NewTicker(time.Second)
	defer report.Stop()
	var lastCount uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-report.C:
			count := l.renderer.FramesSubmitted()
			l.log.WithField("fps", count-lastCount).Debug("Frame count")
			lastCount = count
		case <-l.time.EventTicker().C:
			switch l.poll() {
			case eventQuit:
				l.log.Info("Event loop exited")
				return nil
			case eventResized:
				l.pendingResize = true
			}
		case <-l.time.FpsTicker().C:
			if err := l.frame(); err != nil {
				return err
			}
			if l.maxFrames > 0 && l.renderer.FramesSubmitted() >= l.maxFrames {
				return nil
			}
		}
	}
}

// frame renders a single frame, recreating the swapchain first when asked to.
func (l *loop) frame() error {
	if l.pendingResize {
		if err := l.renderer.Resize(); err != nil {
			// a minimized window cannot get a swapchain, retry on the next tick
			if renderer.IsTransient(err) {
				l.log.WithError(err).Warn("Resize postponed")
				return nil
			}
			return err
		}
		l.pendingResize = false
	}

	err := l.renderer.Render()
	switch {
	case err == nil:
	case renderer.IsTransient(err):
		l.log.WithError(err).Debug("Frame skipped")
	case renderer.NeedsResize(err):
		l.pendingResize = true
	default:
		return err
	}
	return nil
}
