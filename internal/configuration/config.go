// Copyright 2019 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package configuration loads the benchmark workload definitions.
package configuration

import (
	"fmt"
	"runtime"
)

// The main configuration struct that drives the sharedstring benchmark
type Config struct {
	// optional prefix for metric names when reporting to a Wavefront proxy.
	StatsPrefix string `yaml:"statsPrefix"`

	// glob patterns selecting which internal metrics appear in reports.
	MetricAllowList []string `yaml:"metricAllowList"`
	MetricDenyList  []string `yaml:"metricDenyList"`

	// list of workloads, executed in order. At least 1 is required.
	Workloads []*WorkloadConfig `yaml:"workloads"`
}

// WorkloadConfig describes one interning churn scenario.
type WorkloadConfig struct {
	Name string `yaml:"name"`

	// number of concurrent workers. Defaults to the number of cores.
	Workers int `yaml:"workers"`

	// interning operations performed by each worker. Defaults to 100000.
	Iterations int `yaml:"iterations"`

	// number of distinct content values the workers draw from. Defaults to 100.
	Distinct int `yaml:"distinct"`

	// length of each generated value. Defaults to 32.
	ValueLength int `yaml:"valueLength"`

	// fraction of operations cloning an already held handle instead of
	// interning anew. Must be within [0, 1]. Defaults to 0.
	CloneRatio float64 `yaml:"cloneRatio"`

	// run against the rune-width pool instead of the byte-width pool.
	Wide bool `yaml:"wide"`
}

// ApplyDefaults fills unset workload fields.
func (w *WorkloadConfig) ApplyDefaults() {
	if w.Workers < 1 {
		w.Workers = runtime.NumCPU()
	}
	if w.Iterations <= 0 {
		w.Iterations = 100000
	}
	if w.Distinct <= 0 {
		w.Distinct = 100
	}
	if w.ValueLength <= 0 {
		w.ValueLength = 32
	}
}

func (c *Config) Validate() error {
	if len(c.Workloads) == 0 {
		return fmt.Errorf("no workloads configured")
	}
	for i, w := range c.Workloads {
		if w.Name == "" {
			return fmt.Errorf("workload %d: name is required", i)
		}
		if w.CloneRatio < 0 || w.CloneRatio > 1 {
			return fmt.Errorf("workload %s: cloneRatio must be within [0, 1]", w.Name)
		}
	}
	return nil
}
