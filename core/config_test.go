// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"

	"github.com/devblok/codevr/core"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := core.LoadConfiguration(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, core.DefaultConfiguration())
	c.Assert(cfg.Graphics.AcquireTimeout, qt.Equals, time.Second)
	c.Assert(cfg.Window.Resolution, qt.Equals, [2]uint32{0, 0})
}

func TestLoadConfigurationFile(t *testing.T) {
	c := qt.New(t)

	file := strings.Join([]string{
		"CODEVR_WINDOW_TITLE=demo",
		"CODEVR_RESOLUTION=1280x720",
		"CODEVR_VSYNC=false",
		"CODEVR_RECORD_WORKERS=4",
		"CODEVR_ACQUIRE_TIMEOUT=250ms",
		"CODEVR_FPS=144",
		"CODEVR_LOG_LEVEL=debug",
	}, "\n")

	cfg, err := core.LoadConfiguration(strings.NewReader(file))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Window.Title, qt.Equals, "demo")
	c.Assert(cfg.Window.Resolution, qt.Equals, [2]uint32{1280, 720})
	c.Assert(cfg.Graphics.Vsync, qt.Equals, false)
	c.Assert(cfg.Graphics.RecordWorkers, qt.Equals, 4)
	c.Assert(cfg.Graphics.AcquireTimeout, qt.Equals, 250*time.Millisecond)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 144)
	c.Assert(cfg.LogLevel, qt.Equals, "debug")
}

func TestLoadConfigurationEnvironmentOverrides(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		envy.Set(core.KeyVsync, "true")
		envy.Set(core.KeyResolution, "1920x1080")

		cfg, err := core.LoadConfiguration(strings.NewReader("CODEVR_VSYNC=false\nCODEVR_RESOLUTION=640x480\n"))
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Graphics.Vsync, qt.Equals, true)
		c.Assert(cfg.Window.Resolution, qt.Equals, [2]uint32{1920, 1080})
	})
}

func TestLoadConfigurationErrors(t *testing.T) {
	for _, test := range []struct {
		name  string
		file  string
		match string
	}{
		{"resolution", "CODEVR_RESOLUTION=wide", `CODEVR_RESOLUTION: resolution "wide" is not WIDTHxHEIGHT`},
		{"vsync", "CODEVR_VSYNC=maybe", `CODEVR_VSYNC: .*invalid syntax`},
		{"workers", "CODEVR_RECORD_WORKERS=0", `CODEVR_RECORD_WORKERS: must be at least 1, got 0`},
		{"timeout", "CODEVR_ACQUIRE_TIMEOUT=soon", `CODEVR_ACQUIRE_TIMEOUT: .*`},
	} {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			_, err := core.LoadConfiguration(strings.NewReader(test.file))
			c.Assert(err, qt.ErrorMatches, test.match)
		})
	}
}

func TestParseResolution(t *testing.T) {
	c := qt.New(t)

	res, err := core.ParseResolution("800X600")
	c.Assert(err, qt.IsNil)
	c.Assert(res, qt.Equals, [2]uint32{800, 600})

	res, err = core.ParseResolution(" 0 x 0 ")
	c.Assert(err, qt.IsNil)
	c.Assert(res, qt.Equals, [2]uint32{0, 0})

	_, err = core.ParseResolution("800x-1")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestNewTime(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 50})
	defer tm.Stop()
	c.Assert(tm.Fps(), qt.Equals, 50)
	c.Assert(tm.FrameInterval(), qt.Equals, 20*time.Millisecond)
	c.Assert(tm.EventInterval(), qt.Equals, 10*time.Millisecond)

	unlimited := core.NewTime(core.TimeConfiguration{EventPollDelay: 50})
	defer unlimited.Stop()
	c.Assert(unlimited.FrameInterval(), qt.Equals, time.Nanosecond)
	c.Assert(unlimited.EventInterval(), qt.Equals, 50*time.Millisecond)
}
