// Copyright 2018-2019 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// BenchRunOptions holds the command line configuration of the benchmark.
type BenchRunOptions struct {
	Version    bool
	ConfigFile string
	LogLevel   string

	Workers     int
	Iterations  int
	Distinct    int
	ValueLength int
	CloneRatio  float64

	MetricAllowList []string
	MetricDenyList  []string
	ReportJSON      bool

	ProxyAddress   string
	ReportInterval time.Duration
}

func NewBenchRunOptions() *BenchRunOptions {
	return &BenchRunOptions{
		LogLevel:       "info",
		Iterations:     100000,
		Distinct:       100,
		ValueLength:    32,
		ReportInterval: 5 * time.Second,
	}
}

func (opts *BenchRunOptions) Parse(fs *pflag.FlagSet, args []string) error {
	fs.BoolVar(&opts.Version, "version", false, "print version info and exit")
	fs.StringVar(&opts.ConfigFile, "config-file", "", "optional workload configuration file")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "one of info, debug or trace")
	fs.IntVar(&opts.Workers, "workers", opts.Workers, "number of concurrent workers. Less than 1 for the number of cores")
	fs.IntVar(&opts.Iterations, "iterations", opts.Iterations, "interning operations performed per worker")
	fs.IntVar(&opts.Distinct, "distinct", opts.Distinct, "number of distinct content values to draw from")
	fs.IntVar(&opts.ValueLength, "value-length", opts.ValueLength, "length of each generated value")
	fs.Float64Var(&opts.CloneRatio, "clone-ratio", opts.CloneRatio, "fraction of operations cloning a held handle instead of interning")
	fs.StringSliceVar(&opts.MetricAllowList, "metric-allow-list", nil, "glob patterns of internal metrics to report")
	fs.StringSliceVar(&opts.MetricDenyList, "metric-deny-list", nil, "glob patterns of internal metrics to drop from reports")
	fs.BoolVar(&opts.ReportJSON, "json", false, "emit the final report as JSON")
	fs.StringVar(&opts.ProxyAddress, "proxy-address", "", "optional Wavefront proxy (host:port) to report internal metrics to")
	fs.DurationVar(&opts.ReportInterval, "report-interval", opts.ReportInterval, "interval for reporting metrics to the proxy")
	return fs.Parse(args)
}

func (opts *BenchRunOptions) Validate() error {
	if opts.CloneRatio < 0 || opts.CloneRatio > 1 {
		return fmt.Errorf("clone-ratio must be within [0, 1]")
	}
	if opts.ConfigFile == "" && opts.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive")
	}
	if opts.ConfigFile == "" && opts.Distinct <= 0 {
		return fmt.Errorf("distinct must be positive")
	}
	return nil
}
