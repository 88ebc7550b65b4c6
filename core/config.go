// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Configuration keys, read from the defaults file and overridden by the environment
const (
	KeyWindowTitle    = "CODEVR_WINDOW_TITLE"
	KeyResolution     = "CODEVR_RESOLUTION"
	KeyVsync          = "CODEVR_VSYNC"
	KeyRecordWorkers  = "CODEVR_RECORD_WORKERS"
	KeyAcquireTimeout = "CODEVR_ACQUIRE_TIMEOUT"
	KeyDebug          = "CODEVR_DEBUG"
	KeyFramesPerSec   = "CODEVR_FPS"
	KeyEventPollDelay = "CODEVR_EVENT_POLL_DELAY"
	KeyLogLevel       = "CODEVR_LOG_LEVEL"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Window   WindowConfiguration
	Graphics GraphicsConfiguration
	Time     TimeConfiguration

	LogLevel string
}

// WindowConfiguration is used to configure the window and its surface
type WindowConfiguration struct {
	Title string

	// Resolution with any component at or below 240 lets
	// the surface decide the swapchain extent.
	Resolution [2]uint32
}

// GraphicsConfiguration is used to configure the renderer
type GraphicsConfiguration struct {
	Vsync bool

	// RecordWorkers is the number of goroutines recording
	// command buffers, 1 records sequentially.
	RecordWorkers int

	AcquireTimeout time.Duration

	// Debug loads validation layers
	Debug bool
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the window event polling interval in milliseconds
	EventPollDelay int
}

// DefaultConfiguration returns the configuration used when nothing is set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Title: "codevr",
		},
		Graphics: GraphicsConfiguration{
			Vsync:          true,
			RecordWorkers:  1,
			AcquireTimeout: time.Second,
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  10,
		},
		LogLevel: "info",
	}
}

// LoadConfiguration reads KEY=VALUE defaults from r on top of DefaultConfiguration.
// Every key may be overridden from the environment.
func LoadConfiguration(r io.Reader) (Configuration, error) {
	values := map[string]string{}
	if r != nil {
		parsed, err := godotenv.Parse(r)
		if err != nil {
			return Configuration{}, errors.Wrap(err, "parse configuration")
		}
		values = parsed
	}

	lookup := func(key string) string {
		return strings.TrimSpace(envy.Get(key, values[key]))
	}

	cfg := DefaultConfiguration()
	if v := lookup(KeyWindowTitle); v != "" {
		cfg.Window.Title = v
	}
	if v := lookup(KeyResolution); v != "" {
		res, err := ParseResolution(v)
		if err != nil {
			return Configuration{}, errors.Wrap(err, KeyResolution)
		}
		cfg.Window.Resolution = res
	}
	if v := lookup(KeyVsync); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Configuration{}, errors.Wrap(err, KeyVsync)
		}
		cfg.Graphics.Vsync = b
	}
	if v := lookup(KeyRecordWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Configuration{}, errors.Wrap(err, KeyRecordWorkers)
		}
		if n < 1 {
			return Configuration{}, errors.Errorf("%s: must be at least 1, got %d", KeyRecordWorkers, n)
		}
		cfg.Graphics.RecordWorkers = n
	}
	if v := lookup(KeyAcquireTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Configuration{}, errors.Wrap(err, KeyAcquireTimeout)
		}
		cfg.Graphics.AcquireTimeout = d
	}
	if v := lookup(KeyDebug); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Configuration{}, errors.Wrap(err, KeyDebug)
		}
		cfg.Graphics.Debug = b
	}
	if v := lookup(KeyFramesPerSec); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Configuration{}, errors.Wrap(err, KeyFramesPerSec)
		}
		cfg.Time.FramesPerSecond = n
	}
	if v := lookup(KeyEventPollDelay); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Configuration{}, errors.Wrap(err, KeyEventPollDelay)
		}
		cfg.Time.EventPollDelay = n
	}
	if v := lookup(KeyLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// ParseResolution parses WIDTHxHEIGHT.
func ParseResolution(s string) ([2]uint32, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return [2]uint32{}, errors.Errorf("resolution %q is not WIDTHxHEIGHT", s)
	}
	var res [2]uint32
	for idx, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return [2]uint32{}, errors.Wrapf(err, "resolution %q", s)
		}
		res[idx] = uint32(n)
	}
	return res, nil
}
