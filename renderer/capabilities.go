// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/pkg/errors"

	"github.com/devblok/codevr/gfx"
)

// ResolveCapabilities queries what the adapter can do with the surface.
// A pair that reports no present mode, format or composite alpha
// fails with gfx.ErrNoCapabilities.
func ResolveCapabilities(surface gfx.Surface, adapter gfx.Adapter) (gfx.Capabilities, error) {
	caps, err := adapter.Capabilities(surface)
	if err != nil {
		return gfx.Capabilities{}, errors.Wrap(err, stageCapabilities)
	}
	if len(caps.PresentModes) == 0 || len(caps.Formats) == 0 || len(caps.CompositeAlpha) == 0 {
		return gfx.Capabilities{}, errors.Wrap(gfx.ErrNoCapabilities, stageCapabilities)
	}
	return caps, nil
}
