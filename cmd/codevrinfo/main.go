// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command codevrinfo prints the rendering adapters as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/codevr/gfx"
	"github.com/devblok/codevr/gfx/headless"
	"github.com/devblok/codevr/gfx/vkr"
)

var (
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	headlessMode = flag.Bool("headless", false, "Describe the in-memory adapter")
)

type adapterReport struct {
	gfx.AdapterInfo
	TypeName      string            `json:"TypeName"`
	QueueFamilies []gfx.QueueFamily `json:"QueueFamilies"`
}

func describe(instance gfx.Instance) ([]adapterReport, error) {
	adapters, err := instance.Adapters()
	if err != nil {
		return nil, err
	}
	reports := make([]adapterReport, 0, len(adapters))
	for _, a := range adapters {
		info := a.Info()
		reports = append(reports, adapterReport{
			AdapterInfo:   info,
			TypeName:      info.Type.String(),
			QueueFamilies: a.QueueFamilies(),
		})
	}
	return reports, nil
}

func main() {
	flag.Parse()

	var instance gfx.Instance
	if *headlessMode {
		instance = headless.NewInstance(headless.DefaultAdapter())
	} else {
		vi, err := vkr.NewInstance(vkr.DefaultApplicationInfo, nil, vkr.InstanceConfiguration{Debug: *debug})
		if err != nil {
			log.Fatal(err)
		}
		instance = vi
	}
	defer instance.Release()

	reports, err := describe(instance)
	if err != nil {
		log.Fatal(err)
	}
	bytes, err := json.Marshal(reports)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s", bytes)
}
