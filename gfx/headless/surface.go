// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package headless

import (
	"sync"

	"github.com/devblok/codevr/gfx"
)

// DefaultCapabilities resemble a common desktop compositor.
func DefaultCapabilities() gfx.Capabilities {
	return gfx.Capabilities{
		MinImageCount:  2,
		MaxImageCount:  8,
		MinExtent:      gfx.Extent2D{Width: 1, Height: 1},
		MaxExtent:      gfx.Extent2D{Width: 16384, Height: 16384},
		CurrentExtent:  gfx.Extent2D{Width: 800, Height: 600},
		PresentModes:   []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox, gfx.PresentModeImmediate},
		CompositeAlpha: []gfx.CompositeAlpha{gfx.CompositeAlphaOpaque},
		Formats:        []gfx.Format{gfx.FormatB8G8R8A8Srgb, gfx.FormatB8G8R8A8Unorm},
		ColorSpaces:    []gfx.ColorSpace{gfx.ColorSpaceSrgbNonlinear, gfx.ColorSpaceSrgbNonlinear},
		Usage:          gfx.ImageUsageColorAttachment | gfx.ImageUsageTransferDst,
	}
}

// NewSurface creates a surface reporting the given capabilities.
func NewSurface(caps gfx.Capabilities) *Surface {
	return &Surface{caps: caps}
}

// Surface implements gfx.Surface. Its results can be changed between
// frames to simulate window resizes and present engine hiccups.
type Surface struct {
	mu sync.Mutex

	caps    gfx.Capabilities
	capsErr error

	acquireResults []error
	presentResults []error

	released bool
}

// SetCapabilities replaces the reported capabilities.
func (s *Surface) SetCapabilities(caps gfx.Capabilities) {
	s.mu.Lock()
	s.caps = caps
	s.mu.Unlock()
}

// SetCurrentExtent changes only the current extent, as a window resize would.
func (s *Surface) SetCurrentExtent(extent gfx.Extent2D) {
	s.mu.Lock()
	s.caps.CurrentExtent = extent
	s.mu.Unlock()
}

// FailCapabilities makes every capability query fail with err, nil restores.
func (s *Surface) FailCapabilities(err error) {
	s.mu.Lock()
	s.capsErr = err
	s.mu.Unlock()
}

// QueueAcquireResults queues results returned by the next acquisitions,
// in order. A nil entry lets the acquisition succeed.
func (s *Surface) QueueAcquireResults(errs ...error) {
	s.mu.Lock()
	s.acquireResults = append(s.acquireResults, errs...)
	s.mu.Unlock()
}

// QueuePresentResults queues results returned by the next presentations.
func (s *Surface) QueuePresentResults(errs ...error) {
	s.mu.Lock()
	s.presentResults = append(s.presentResults, errs...)
	s.mu.Unlock()
}

// Release implements interface
func (s *Surface) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}

// Released reports whether Release was called.
func (s *Surface) Released() bool {
	return s.isReleased()
}

func (s *Surface) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *Surface) capabilities() (gfx.Capabilities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return gfx.Capabilities{}, ErrReleased
	}
	if s.capsErr != nil {
		return gfx.Capabilities{}, s.capsErr
	}
	caps := s.caps
	caps.PresentModes = append([]gfx.PresentMode(nil), s.caps.PresentModes...)
	caps.CompositeAlpha = append([]gfx.CompositeAlpha(nil), s.caps.CompositeAlpha...)
	caps.Formats = append([]gfx.Format(nil), s.caps.Formats...)
	return caps, nil
}

func (s *Surface) nextAcquireResult() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.acquireResults) == 0 {
		return nil
	}
	err := s.acquireResults[0]
	s.acquireResults = s.acquireResults[1:]
	return err
}

func (s *Surface) nextPresentResult() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.presentResults) == 0 {
		return nil
	}
	err := s.presentResults[0]
	s.presentResults = s.presentResults[1:]
	return err
}
