// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package headless implements an in-memory rendering driver. It performs
// no rendering but validates resource usage the way a real driver would,
// and lets the caller script surface capabilities and frame results.
package headless

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// ErrReleased is returned when a released object is used.
var ErrReleased = errors.New("headless: object already released")

// NewInstance creates a driver instance exposing the given adapters.
func NewInstance(adapters ...*Adapter) *Instance {
	return &Instance{adapters: adapters}
}

// Instance implements gfx.Instance.
type Instance struct {
	adapters []*Adapter
	released bool
}

// Adapters implements interface
func (i *Instance) Adapters() ([]gfx.Adapter, error) {
	if i.released {
		return nil, ErrReleased
	}
	out := make([]gfx.Adapter, len(i.adapters))
	for idx, a := range i.adapters {
		out[idx] = a
	}
	return out, nil
}

// Release implements interface
func (i *Instance) Release() {
	i.released = true
}

// NewAdapter creates an adapter with the queue families given. Families
// listed in presentable can present to any surface.
func NewAdapter(info gfx.AdapterInfo, families []gfx.QueueFamily, presentable ...uint32) *Adapter {
	present := make(map[uint32]bool, len(presentable))
	for _, p := range presentable {
		present[p] = true
	}
	return &Adapter{
		info:     info,
		families: families,
		present:  present,
	}
}

// DefaultAdapter is a cpu adapter with a single graphics and present family.
func DefaultAdapter() *Adapter {
	return NewAdapter(gfx.AdapterInfo{
		Name:   "headless",
		Type:   gfx.AdapterTypeCPU,
		Memory: 1 << 30,
	}, []gfx.QueueFamily{{
		Index:    0,
		Count:    1,
		Graphics: true,
		Compute:  true,
		Transfer: true,
	}}, 0)
}

// Adapter implements gfx.Adapter.
type Adapter struct {
	info     gfx.AdapterInfo
	families []gfx.QueueFamily
	present  map[uint32]bool

	mu      sync.Mutex
	devices []*Device
}

// Info implements interface
func (a *Adapter) Info() gfx.AdapterInfo {
	return a.info
}

// QueueFamilies implements interface
func (a *Adapter) QueueFamilies() []gfx.QueueFamily {
	return a.families
}

// SupportsPresent implements interface
func (a *Adapter) SupportsPresent(family uint32, surface gfx.Surface) (bool, error) {
	s, ok := surface.(*Surface)
	if !ok {
		return false, errors.New("headless: foreign surface")
	}
	if s.isReleased() {
		return false, ErrReleased
	}
	return a.present[family], nil
}

// Capabilities implements interface
func (a *Adapter) Capabilities(surface gfx.Surface) (gfx.Capabilities, error) {
	s, ok := surface.(*Surface)
	if !ok {
		return gfx.Capabilities{}, errors.New("headless: foreign surface")
	}
	return s.capabilities()
}

// Open implements interface
func (a *Adapter) Open(family uint32) (gfx.Device, gfx.Queue, error) {
	if int(family) >= len(a.families) {
		return nil, nil, errors.New("headless: queue family out of range")
	}
	d := &Device{adapter: a, family: family}
	d.queue = &Queue{device: d}

	a.mu.Lock()
	a.devices = append(a.devices, d)
	a.mu.Unlock()
	return d, d.queue, nil
}

// Devices returns every device opened on the adapter.
func (a *Adapter) Devices() []*Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Device(nil), a.devices...)
}
