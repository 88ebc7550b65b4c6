// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/codevr/gfx"
)

// recorder fills one command buffer per framebuffer. Each task owns the
// command pool of its framebuffer so tasks never share a pool.
type recorder struct {
	workers int
	clear   gfx.ClearValues
}

func (r recorder) record(pass gfx.RenderPass, targets *FrameTargets) ([]gfx.CommandBuffer, error) {
	framebuffers := targets.Framebuffers()
	pools := targets.Pools()
	cmds := make([]gfx.CommandBuffer, len(framebuffers))

	if r.workers <= 1 {
		for idx := range framebuffers {
			cmd, err := recordClear(pools[idx], pass, framebuffers[idx], r.clear)
			if err != nil {
				return nil, errors.Wrapf(err, "%s[%d]", stageRecord, idx)
			}
			cmds[idx] = cmd
		}
		return cmds, nil
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	for idx := range framebuffers {
		idx := idx
		g.Go(func() error {
			cmd, err := recordClear(pools[idx], pass, framebuffers[idx], r.clear)
			if err != nil {
				return errors.Wrapf(err, "%s[%d]", stageRecord, idx)
			}
			cmds[idx] = cmd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// recordClear records a render pass that only clears its attachments.
// Scene drawing would be recorded between begin and end of the pass.
func recordClear(pool gfx.CommandPool, pass gfx.RenderPass, fb gfx.Framebuffer, clear gfx.ClearValues) (gfx.CommandBuffer, error) {
	if err := pool.Reset(); err != nil {
		return nil, err
	}
	cmd, err := pool.Allocate()
	if err != nil {
		return nil, err
	}
	if err := cmd.Begin(); err != nil {
		return nil, err
	}
	cmd.BeginRenderPass(pass, fb, clear)
	cmd.EndRenderPass()
	if err := cmd.End(); err != nil {
		return nil, err
	}
	return cmd, nil
}
