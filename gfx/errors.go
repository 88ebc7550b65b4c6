// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "errors"

// driver errors
var (
	ErrTimeout        = errors.New("operation timed out")
	ErrNotReady       = errors.New("resource not ready")
	ErrOutOfDate      = errors.New("surface out of date")
	ErrSuboptimal     = errors.New("swapchain suboptimal for surface")
	ErrDeviceLost     = errors.New("device lost")
	ErrNoCapabilities = errors.New("surface capabilities unavailable")
)
