// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

var requiredDeviceExtensions = []string{
	vk.KhrSwapchainExtensionName,
}

func newAdapter(pd vk.PhysicalDevice) *Adapter {
	a := &Adapter{physicalDevice: pd}
	a.info = a.queryInfo()
	a.families = a.queryQueueFamilies()
	return a
}

// Adapter implements gfx.Adapter over a physical device.
type Adapter struct {
	physicalDevice vk.PhysicalDevice

	info     gfx.AdapterInfo
	families []gfx.QueueFamily
}

// Info implements interface
func (a *Adapter) Info() gfx.AdapterInfo {
	return a.info
}

// QueueFamilies implements interface
func (a *Adapter) QueueFamilies() []gfx.QueueFamily {
	return a.families
}

func (a *Adapter) queryInfo() gfx.AdapterInfo {
	var info gfx.AdapterInfo

	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(a.physicalDevice, "", &numDeviceExtensions, nil)); err != nil {
		info.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(a.physicalDevice, "", &numDeviceExtensions, deviceExt)); err != nil {
		info.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(a.physicalDevice, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(a.physicalDevice, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(a.physicalDevice, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		info.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(a.physicalDevice, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	info.Type = adapterTypes[properties.DeviceType]

	// the renderer cannot present without a swapchain
	if !info.Invalid && !hasExtensions(info.Extensions, requiredDeviceExtensions) {
		info.Invalid = true
	}
	return info
}

func hasExtensions(available, required []string) bool {
	set := make(map[string]bool, len(available))
	for _, ext := range available {
		set[ext] = true
	}
	for _, ext := range required {
		if !set[ext] {
			return false
		}
	}
	return true
}

func (a *Adapter) queryQueueFamilies() []gfx.QueueFamily {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(a.physicalDevice, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(a.physicalDevice, &queueFamilyCount, queueFamilies)

	families := make([]gfx.QueueFamily, queueFamilyCount)
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		flags := queueFamilies[i].QueueFlags
		families[i] = gfx.QueueFamily{
			Index:    uint32(i),
			Count:    queueFamilies[i].QueueCount,
			Graphics: flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Compute:  flags&vk.QueueFlags(vk.QueueComputeBit) != 0,
			Transfer: flags&vk.QueueFlags(vk.QueueTransferBit) != 0,
		}
	}
	return families
}

// SupportsPresent implements interface
func (a *Adapter) SupportsPresent(family uint32, surface gfx.Surface) (bool, error) {
	s, err := surfaceOf(surface)
	if err != nil {
		return false, err
	}
	var supported vk.Bool32
	if err := result("vk.GetPhysicalDeviceSurfaceSupport()", vk.GetPhysicalDeviceSurfaceSupport(a.physicalDevice, family, s, &supported)); err != nil {
		return false, err
	}
	return supported.B(), nil
}

// Capabilities implements interface. Formats and present modes unknown
// to gfx are left out, each kept format carries its reported color space.
func (a *Adapter) Capabilities(surface gfx.Surface) (gfx.Capabilities, error) {
	s, err := surfaceOf(surface)
	if err != nil {
		return gfx.Capabilities{}, err
	}

	var surfaceCapabilities vk.SurfaceCapabilities
	if err := result("vk.GetPhysicalDeviceSurfaceCapabilities()", vk.GetPhysicalDeviceSurfaceCapabilities(a.physicalDevice, s, &surfaceCapabilities)); err != nil {
		return gfx.Capabilities{}, err
	}
	surfaceCapabilities.Deref()

	caps := gfx.Capabilities{
		MinImageCount:  surfaceCapabilities.MinImageCount,
		MaxImageCount:  surfaceCapabilities.MaxImageCount,
		MinExtent:      fromVkExtent(surfaceCapabilities.MinImageExtent),
		MaxExtent:      fromVkExtent(surfaceCapabilities.MaxImageExtent),
		CurrentExtent:  fromVkExtent(surfaceCapabilities.CurrentExtent),
		CompositeAlpha: fromVkCompositeAlpha(surfaceCapabilities.SupportedCompositeAlpha),
		Usage:          fromVkImageUsage(surfaceCapabilities.SupportedUsageFlags),
	}

	var surfaceFormatCount uint32
	if err := result("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(a.physicalDevice, s, &surfaceFormatCount, nil)); err != nil {
		return gfx.Capabilities{}, err
	}
	surfaceFormats := make([]vk.SurfaceFormat, surfaceFormatCount)
	if err := result("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(a.physicalDevice, s, &surfaceFormatCount, surfaceFormats)); err != nil {
		return gfx.Capabilities{}, err
	}
	caps.Formats, caps.ColorSpaces = fromVkSurfaceFormats(surfaceFormats)

	var presentModeCount uint32
	if err := result("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(a.physicalDevice, s, &presentModeCount, nil)); err != nil {
		return gfx.Capabilities{}, err
	}
	modes := make([]vk.PresentMode, presentModeCount)
	if err := result("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(a.physicalDevice, s, &presentModeCount, modes)); err != nil {
		return gfx.Capabilities{}, err
	}
	for _, vm := range modes {
		if m, ok := fromVkPresentMode(vm); ok {
			caps.PresentModes = append(caps.PresentModes, m)
		}
	}
	return caps, nil
}

// Open implements interface
func (a *Adapter) Open(family uint32) (gfx.Device, gfx.Queue, error) {
	if int(family) >= len(a.families) {
		return nil, nil, errors.Errorf("vkr: queue family %d out of range", family)
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(requiredDeviceExtensions)),
		PpEnabledExtensionNames: safeStrings(requiredDeviceExtensions),
	}

	var vkDevice vk.Device
	if err := result("vk.CreateDevice()", vk.CreateDevice(a.physicalDevice, &dci, nil, &vkDevice)); err != nil {
		return nil, nil, err
	}

	var deviceQueue vk.Queue
	vk.GetDeviceQueue(vkDevice, family, 0, &deviceQueue)

	d := &Device{
		device:    vkDevice,
		family:    family,
		allocator: NewMemoryAllocator(vkDevice, a.physicalDevice),
	}
	d.queue = &Queue{device: d, queue: deviceQueue}
	return d, d.queue, nil
}
