// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"
)

// Memory defines an allocated memory region.
type Memory struct {
	len, offset uint
	device      vk.Device
	memory      vk.DeviceMemory
}

// Len returns the length of assigned memory.
func (m *Memory) Len() uint {
	return m.len
}

// Offset returns the start location of assigned memory.
func (m *Memory) Offset() uint {
	return m.offset
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Release frees the memory.
func (m *Memory) Release() {
	vk.FreeMemory(m.device, m.memory, nil)
}

// NewMemoryAllocator creates a new memory allocator. Allocates for the logical device,
// reads memory properties of the physical device to influence allocation.
func NewMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) *MemoryAllocator {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()

	return &MemoryAllocator{
		device:        device,
		memProperties: memProperties,
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Malloc returns a usable memory chunk ready for use.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlagBits) (Memory, error) {
	memTypeIdx, err := ma.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return Memory{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := result("vk.AllocateMemory()", vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return Memory{}, err
	}

	return Memory{
		len:    uint(req.Size),
		device: ma.device,
		memory: memory,
	}, nil
}

func (ma *MemoryAllocator) findMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < ma.memProperties.MemoryTypeCount; idx++ {
		ma.memProperties.MemoryTypes[idx].Deref()
		if filter&(1<<idx) != 0 && (ma.memProperties.MemoryTypes[idx].PropertyFlags&prop) == prop {
			return idx, nil
		}
	}
	return 0, errors.New("suitable memory type not found")
}
