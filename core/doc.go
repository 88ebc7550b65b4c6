// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the engine configuration and time services shared
// by the renderer and the binaries.
package core
