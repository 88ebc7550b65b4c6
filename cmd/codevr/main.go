// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/codevr/core"
	"github.com/devblok/codevr/gfx/headless"
	"github.com/devblok/codevr/gfx/vkr"
	"github.com/devblok/codevr/renderer"
)

func init() {
	runtime.LockOSThread()
}

var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	headlessMode = flag.Bool("headless", false, "Render to an in-memory device without a window")
	frames       = flag.Uint64("frames", 0, "Stop after rendering this many frames, 0 runs until quit")
	rankAdapters = flag.Bool("rank", false, "Prefer discrete adapters over the first one found")
)

// StaticResources holds the default configuration.
var StaticResources packr.Box

func init() {
	StaticResources = packr.NewBox("./resources")
}

// settings are the command line choices.
type settings struct {
	cpuProfile string
	debug      bool
	headless   bool
	frames     uint64
	rank       bool
}

func loadConfiguration() (core.Configuration, error) {
	defaults, err := StaticResources.FindString("default.env")
	if err != nil {
		return core.Configuration{}, errors.Wrap(err, "default.env")
	}
	return core.LoadConfiguration(strings.NewReader(defaults))
}

func main() {
	flag.Parse()

	// run returns only after its deferred teardown, profiles included
	if err := run(settings{
		cpuProfile: *cpuProfile,
		debug:      *debug,
		headless:   *headlessMode,
		frames:     *frames,
		rank:       *rankAdapters,
	}); err != nil {
		log.Fatal(err)
	}
}

func run(s settings) error {
	if s.cpuProfile != "" {
		f, err := os.Create(s.cpuProfile)
		if err != nil {
			return errors.Wrap(err, "cpu profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	configuration, err := loadConfiguration()
	if err != nil {
		return err
	}
	if level, err := log.ParseLevel(configuration.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithError(err).Warn("Unknown log level")
	}
	configuration.Graphics.Debug = configuration.Graphics.Debug || s.debug

	if s.headless {
		return runHeadless(configuration, s)
	}
	return runWindowed(configuration, s)
}

func options(s settings) []renderer.Option {
	opts := []renderer.Option{renderer.WithLogger(log.StandardLogger())}
	if s.rank {
		opts = append(opts, renderer.WithDeviceSelector(renderer.RankAdapters))
	}
	return opts
}

func runWindowed(configuration core.Configuration, s settings) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrap(err, "sdl.Init()")
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}
	defer sdl.VulkanUnloadLibrary()

	// the instance extensions are only known once a window exists
	window, err := newWindow(configuration.Window)
	if err != nil {
		return err
	}
	defer window.Destroy()

	instance, err := vkr.NewInstance(vkr.DefaultApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), vkr.InstanceConfiguration{
		Debug:      configuration.Graphics.Debug,
		Extensions: window.VulkanGetInstanceExtensions(),
	})
	if err != nil {
		return err
	}
	defer instance.Release()

	r, w, err := renderer.Create(instance, sdlBuilder{window: window}, configuration, options(s)...)
	if err != nil {
		return err
	}
	defer w.Surface().Release()
	defer r.Release()

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	l := &loop{
		renderer:  r,
		time:      timeService,
		poll:      w.(*sdlWindow).pollEvents,
		log:       log.StandardLogger(),
		maxFrames: s.frames,
	}
	return l.run(context.Background())
}

func runHeadless(configuration core.Configuration, s settings) error {
	instance := headless.NewInstance(headless.DefaultAdapter())
	defer instance.Release()

	r, w, err := renderer.Create(instance, headlessBuilder{cfg: configuration.Window}, configuration, options(s)...)
	if err != nil {
		return err
	}
	defer w.Surface().Release()
	defer r.Release()

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	l := &loop{
		renderer:  r,
		time:      timeService,
		poll:      func() windowEvent { return eventNone },
		log:       log.StandardLogger(),
		maxFrames: s.frames,
	}
	if err := l.run(context.Background()); err != nil {
		return err
	}
	log.WithField("frames", r.FramesSubmitted()).Info("Headless run finished")
	return nil
}
