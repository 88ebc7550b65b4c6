// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx driver on top of Vulkan.
package vkr

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

var (
	_ gfx.Instance      = (*Instance)(nil)
	_ gfx.Adapter       = (*Adapter)(nil)
	_ gfx.Device        = (*Device)(nil)
	_ gfx.Queue         = (*Queue)(nil)
	_ gfx.Swapchain     = (*Swapchain)(nil)
	_ gfx.Image         = (*Image)(nil)
	_ gfx.RenderPass    = (*RenderPass)(nil)
	_ gfx.Framebuffer   = (*Framebuffer)(nil)
	_ gfx.CommandPool   = (*CommandPool)(nil)
	_ gfx.CommandBuffer = (*CommandBuffer)(nil)
	_ gfx.Submission    = (*Submission)(nil)
)

// DefaultApplicationInfo describes the application to the Vulkan loader.
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   safeString("codevr"),
	PEngineName:        safeString("codevr"),
}

// validationLayer is enabled in debug mode.
const validationLayer = "VK_LAYER_LUNARG_standard_validation"

// InstanceConfiguration lists what the instance is created with.
type InstanceConfiguration struct {
	Debug      bool
	Extensions []string
	Layers     []string
}

// NewInstance loads Vulkan and creates an instance. procAddr is the
// vkGetInstanceProcAddr of a windowing library, nil uses the default loader.
func NewInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration) (*Instance, error) {
	if cfg.Debug {
		cfg.Layers = append(cfg.Layers, validationLayer)
		cfg.Extensions = append(cfg.Extensions, "VK_EXT_debug_report")
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: safeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     safeStrings(cfg.Layers),
	}

	var instance vk.Instance
	if err := result("vk.CreateInstance()", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, err
	}
	vk.InitInstance(instance)

	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}

	adapters := make([]*Adapter, len(physicalDevices))
	for idx, pd := range physicalDevices {
		adapters[idx] = newAdapter(pd)
	}

	return &Instance{
		configuration: cfg,
		instance:      instance,
		adapters:      adapters,
	}, nil
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := result("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, err
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := result("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, err
	}
	return availableDevices, nil
}

// Instance implements gfx.Instance.
type Instance struct {
	configuration InstanceConfiguration

	instance vk.Instance
	adapters []*Adapter
}

// Handle returns the vulkan instance, for window libraries creating surfaces.
func (i *Instance) Handle() vk.Instance {
	return i.instance
}

// Extensions returns the enabled instance extensions.
func (i *Instance) Extensions() []string {
	return i.configuration.Extensions
}

// Adapters implements interface
func (i *Instance) Adapters() ([]gfx.Adapter, error) {
	out := make([]gfx.Adapter, len(i.adapters))
	for idx, a := range i.adapters {
		out[idx] = a
	}
	return out, nil
}

// Release implements interface
func (i *Instance) Release() {
	i.adapters = nil
	vk.DestroyInstance(i.instance, nil)
}

// NewSurface wraps a surface created by a window library for the instance.
func NewSurface(instance *Instance, pSurface unsafe.Pointer) *Surface {
	return &Surface{
		instance: instance.instance,
		surface:  vk.SurfaceFromPointer(uintptr(pSurface)),
	}
}

// Surface implements gfx.Surface.
type Surface struct {
	instance vk.Instance
	surface  vk.Surface
}

// Release implements interface
func (s *Surface) Release() {
	vk.DestroySurface(s.instance, s.surface, nil)
}

func surfaceOf(s gfx.Surface) (vk.Surface, error) {
	surface, ok := s.(*Surface)
	if !ok || surface == nil {
		return vk.NullSurface, errors.New("vkr: surface was not created by this driver")
	}
	return surface.surface, nil
}
