// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

const defaultEventPollDelay = 10 * time.Millisecond

// NewTime creates a new time service, the tickers run until Stop.
func NewTime(cfg TimeConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond <= 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	eventDelay := time.Duration(cfg.EventPollDelay) * time.Millisecond
	if eventDelay <= 0 {
		eventDelay = defaultEventPollDelay
	}

	return &Time{
		fps:         cfg.FramesPerSecond,
		interval:    interval,
		fpsTicker:   time.NewTicker(interval),
		eventDelay:  eventDelay,
		eventTicker: time.NewTicker(eventDelay),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	interval  time.Duration
	fpsTicker *time.Ticker

	eventDelay  time.Duration
	eventTicker *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FrameInterval is the time between two frame ticks
func (t *Time) FrameInterval() time.Duration {
	return t.interval
}

// EventInterval is the time between two event loop ticks
func (t *Time) EventInterval() time.Duration {
	return t.eventDelay
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Stop stops both tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
