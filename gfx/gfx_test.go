// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/codevr/gfx"
)

func TestExtent2D(t *testing.T) {
	c := qt.New(t)

	e := gfx.Extent2D{Width: 640, Height: 480}
	c.Assert(e.Defined(), qt.IsTrue)
	c.Assert(gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}.Defined(), qt.IsFalse)
	c.Assert(e.Max(gfx.Extent2D{Width: 800, Height: 100}), qt.Equals, gfx.Extent2D{Width: 800, Height: 480})
	c.Assert(e.Max(gfx.Extent2D{}), qt.Equals, e)
	c.Assert(e.Volume(), qt.Equals, gfx.Extent3D{Width: 640, Height: 480, Depth: 1})
	c.Assert(e.String(), qt.Equals, "640x480")
}

func TestStringers(t *testing.T) {
	c := qt.New(t)

	c.Assert(gfx.PresentModeMailbox.String(), qt.Equals, "mailbox")
	c.Assert(gfx.PresentModeFifoRelaxed.String(), qt.Equals, "fifo-relaxed")
	c.Assert(gfx.PresentMode(42).String(), qt.Equals, "PresentMode(42)")
	c.Assert(gfx.FormatB8G8R8A8Srgb.String(), qt.Equals, "b8g8r8a8-srgb")
	c.Assert(gfx.Format(42).String(), qt.Equals, "Format(42)")
	c.Assert(gfx.AdapterTypeDiscrete.String(), qt.Equals, "discrete")
	c.Assert(gfx.AdapterType(42).String(), qt.Equals, "AdapterType(42)")
}

func TestSupportsPresentMode(t *testing.T) {
	c := qt.New(t)

	caps := gfx.Capabilities{PresentModes: []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeImmediate}}
	c.Assert(caps.SupportsPresentMode(gfx.PresentModeFifo), qt.IsTrue)
	c.Assert(caps.SupportsPresentMode(gfx.PresentModeMailbox), qt.IsFalse)
	c.Assert(gfx.Capabilities{}.SupportsPresentMode(gfx.PresentModeFifo), qt.IsFalse)
}

func TestExtent2DEmpty(t *testing.T) {
	c := qt.New(t)

	c.Assert(gfx.Extent2D{}.Empty(), qt.IsTrue)
	c.Assert(gfx.Extent2D{Width: 800}.Empty(), qt.IsTrue)
	c.Assert(gfx.Extent2D{Height: 600}.Empty(), qt.IsTrue)
	c.Assert(gfx.Extent2D{Width: 1, Height: 1}.Empty(), qt.IsFalse)
	c.Assert(gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}.Empty(), qt.IsFalse)
}

func TestColorSpaceOf(t *testing.T) {
	c := qt.New(t)

	caps := gfx.Capabilities{
		Formats:     []gfx.Format{gfx.FormatB8G8R8A8Unorm, gfx.FormatB8G8R8A8Srgb},
		ColorSpaces: []gfx.ColorSpace{7},
	}
	c.Assert(caps.ColorSpaceOf(0), qt.Equals, gfx.ColorSpace(7))
	c.Assert(caps.ColorSpaceOf(1), qt.Equals, gfx.ColorSpaceSrgbNonlinear)
	c.Assert(gfx.Capabilities{}.ColorSpaceOf(0), qt.Equals, gfx.ColorSpaceSrgbNonlinear)
}
