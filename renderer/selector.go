// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// DeviceSelector picks the adapter to render with from the enumerated ones.
type DeviceSelector func(adapters []gfx.Adapter) (gfx.Adapter, error)

// FirstAdapter selects the first enumerated adapter.
func FirstAdapter(adapters []gfx.Adapter) (gfx.Adapter, error) {
	if len(adapters) == 0 {
		return nil, ErrNoDevice
	}
	return adapters[0], nil
}

var adapterTypeRank = map[gfx.AdapterType]int{
	gfx.AdapterTypeDiscrete:   4,
	gfx.AdapterTypeIntegrated: 3,
	gfx.AdapterTypeVirtual:    2,
	gfx.AdapterTypeCPU:        1,
}

// RankAdapters selects the best valid adapter: discrete before integrated
// before virtual before cpu, then by memory size. Ties keep enumeration order.
func RankAdapters(adapters []gfx.Adapter) (gfx.Adapter, error) {
	type ranked struct {
		adapter gfx.Adapter
		info    gfx.AdapterInfo
	}

	candidates := make([]ranked, 0, len(adapters))
	for _, a := range adapters {
		info := a.Info()
		if info.Invalid {
			continue
		}
		candidates = append(candidates, ranked{adapter: a, info: info})
	}
	if len(candidates) == 0 {
		return nil, ErrNoDevice
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := adapterTypeRank[candidates[i].info.Type], adapterTypeRank[candidates[j].info.Type]
		if ri != rj {
			return ri > rj
		}
		return candidates[i].info.Memory > candidates[j].info.Memory
	})
	return candidates[0].adapter, nil
}

// selectQueueFamily returns the first family that supports graphics
// and that the surface accepts for presentation.
func selectQueueFamily(adapter gfx.Adapter, surface gfx.Surface) (uint32, error) {
	for _, family := range adapter.QueueFamilies() {
		if !family.Graphics {
			continue
		}
		supported, err := adapter.SupportsPresent(family.Index, surface)
		if err != nil {
			// treated as unsupported
			continue
		}
		if supported {
			return family.Index, nil
		}
	}
	return 0, errors.Wrap(ErrNoQueueFamily, stageQueueFamily)
}
