// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/codevr/gfx"
	"github.com/devblok/codevr/gfx/headless"
)

func TestDescribe(t *testing.T) {
	c := qt.New(t)

	discrete := headless.NewAdapter(gfx.AdapterInfo{Name: "discrete", Type: gfx.AdapterTypeDiscrete, Memory: 1 << 33},
		[]gfx.QueueFamily{{Index: 0, Count: 16, Graphics: true, Compute: true, Transfer: true}}, 0)
	instance := headless.NewInstance(headless.DefaultAdapter(), discrete)

	reports, err := describe(instance)
	c.Assert(err, qt.IsNil)
	c.Assert(reports, qt.HasLen, 2)
	c.Assert(reports[1].Name, qt.Equals, "discrete")
	c.Assert(reports[1].TypeName, qt.Equals, "discrete")
	c.Assert(reports[1].QueueFamilies, qt.DeepEquals, discrete.QueueFamilies())

	bytes, err := json.Marshal(reports)
	c.Assert(err, qt.IsNil)
	var decoded []map[string]interface{}
	c.Assert(json.Unmarshal(bytes, &decoded), qt.IsNil)
	c.Assert(decoded[1]["Name"], qt.Equals, "discrete")
	c.Assert(decoded[1]["Memory"], qt.Equals, float64(1<<33))
}
