// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// sharedstring-bench drives churn and contention workloads against the
// interning pools and reports the pool's internal metrics.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/wavefronthq/go-sharedstring/internal/configuration"
	"github.com/wavefronthq/go-sharedstring/internal/filter"
	"github.com/wavefronthq/go-sharedstring/internal/options"
	"github.com/wavefronthq/go-sharedstring/internal/report"
	"github.com/wavefronthq/go-sharedstring/sharedstring"
)

var (
	version string
	commit  string
)

func main() {
	opts := options.NewBenchRunOptions()
	if err := opts.Parse(pflag.CommandLine, os.Args[1:]); err != nil {
		log.Fatalf("error parsing flags: %v", err)
	}
	if opts.Version {
		fmt.Printf("version: %s\ncommit: %s\n", version, commit)
		os.Exit(0)
	}

	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	if level, err := log.ParseLevel(opts.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatal(err)
	}

	if opts.ProxyAddress != "" {
		reporter, err := report.StartWavefront(opts.ProxyAddress, cfg.StatsPrefix, opts.ReportInterval)
		if err != nil {
			log.Fatalf("error starting wavefront reporter: %v", err)
		}
		defer reporter.Close()
	}

	metrics.RegisterRuntimeMemStats(metrics.DefaultRegistry)

	for _, w := range cfg.Workloads {
		if err := runWorkload(w); err != nil {
			log.Fatalf("workload %s: %v", w.Name, err)
		}
	}

	metrics.CaptureRuntimeMemStatsOnce(metrics.DefaultRegistry)
	points := report.Snapshot(metrics.DefaultRegistry, filter.NewGlobFilter(cfg.MetricAllowList, cfg.MetricDenyList))
	if opts.ReportJSON {
		err = report.JSON(os.Stdout, points)
	} else {
		err = report.Text(os.Stdout, points)
	}
	if err != nil {
		log.Fatalf("error writing report: %v", err)
	}
}

func loadConfig(opts *options.BenchRunOptions) (*configuration.Config, error) {
	var cfg *configuration.Config
	if opts.ConfigFile != "" {
		var err error
		cfg, err = configuration.FromFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		// filters given on the command line extend the file's
		cfg.MetricAllowList = append(cfg.MetricAllowList, opts.MetricAllowList...)
		cfg.MetricDenyList = append(cfg.MetricDenyList, opts.MetricDenyList...)
	} else {
		cfg = &configuration.Config{
			MetricAllowList: opts.MetricAllowList,
			MetricDenyList:  opts.MetricDenyList,
			Workloads: []*configuration.WorkloadConfig{{
				Name:        "default",
				Workers:     opts.Workers,
				Iterations:  opts.Iterations,
				Distinct:    opts.Distinct,
				ValueLength: opts.ValueLength,
				CloneRatio:  opts.CloneRatio,
			}},
		}
	}
	return cfg, cfg.Validate()
}

func runWorkload(w *configuration.WorkloadConfig) error {
	w.ApplyDefaults()
	log.Infof("running workload %s: workers=%d iterations=%d distinct=%d valueLength=%d cloneRatio=%.2f wide=%t",
		w.Name, w.Workers, w.Iterations, w.Distinct, w.ValueLength, w.CloneRatio, w.Wide)

	start := time.Now()
	var err error
	if w.Wide {
		err = churn[rune](w)
	} else {
		err = churn[byte](w)
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	ops := w.Workers * w.Iterations
	log.Infof("workload %s: %d ops in %s (%.0f ops/sec)", w.Name, ops, elapsed, float64(ops)/elapsed.Seconds())
	return nil
}

func churn[E sharedstring.Element](w *configuration.WorkloadConfig) error {
	values := make([][]E, w.Distinct)
	for i := range values {
		values[i] = makeValue[E](i, w.ValueLength)
	}

	cloneEvery := 0
	if w.CloneRatio > 0 {
		cloneEvery = int(1 / w.CloneRatio)
	}

	var group errgroup.Group
	for n := 0; n < w.Workers; n++ {
		n := n
		group.Go(func() error {
			held := sharedstring.Make(values[n%len(values)])
			for i := 1; i <= w.Iterations; i++ {
				if cloneEvery > 0 && i%cloneEvery == 0 {
					c := held.Clone()
					c.Release()
					continue
				}
				next := sharedstring.Make(values[(n+i)%len(values)])
				if got, want := next.Len(), len(values[(n+i)%len(values)]); got != want {
					next.Release()
					held.Release()
					return fmt.Errorf("interned length %d, want %d", got, want)
				}
				held.MoveFrom(&next)
				// no-op move (same record) leaves next bound
				next.Release()
			}
			held.Release()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if leaked := sharedstring.PoolSize[E](); leaked != 0 {
		return fmt.Errorf("pool still holds %d contents after cleanup", leaked)
	}
	return nil
}

// makeValue builds a deterministic value of exactly length elements for
// distinct index i.
func makeValue[E sharedstring.Element](i, length int) []E {
	seed := []byte(fmt.Sprintf("%06d-value-", i))
	out := make([]E, 0, length)
	for len(out) < length {
		for _, b := range seed {
			if len(out) == length {
				break
			}
			out = append(out, E(b))
		}
	}
	return out
}
