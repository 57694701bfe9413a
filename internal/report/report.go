// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package report renders the internal metrics registry as text, JSON or a
// Wavefront metrics stream.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rcrowley/go-metrics"
	"github.com/wavefronthq/go-metrics-wavefront/reporting"
	"github.com/wavefronthq/wavefront-sdk-go/application"
	"github.com/wavefronthq/wavefront-sdk-go/senders"

	"github.com/wavefronthq/go-sharedstring/internal/filter"
)

// Point is one reported metric value.
type Point struct {
	Name  string            `json:"name"`
	Tags  map[string]string `json:"tags,omitempty"`
	Value float64           `json:"value"`
}

// Snapshot walks the registry and returns the current counter and gauge
// values, filtered by decoded metric name and sorted for stable output.
func Snapshot(registry metrics.Registry, f filter.Filter) []Point {
	var points []Point
	registry.Each(func(encoded string, i interface{}) {
		name, tags := reporting.DecodeKey(encoded)
		if f != nil && !f.Match(name) {
			return
		}
		switch metric := i.(type) {
		case metrics.Counter:
			points = append(points, Point{Name: name, Tags: tags, Value: float64(metric.Count())})
		case metrics.Gauge:
			points = append(points, Point{Name: name, Tags: tags, Value: float64(metric.Value())})
		case metrics.GaugeFloat64:
			points = append(points, Point{Name: name, Tags: tags, Value: metric.Value()})
		}
	})
	sort.Slice(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return fmt.Sprint(points[i].Tags) < fmt.Sprint(points[j].Tags)
	})
	return points
}

// Text writes one aligned line per point.
func Text(w io.Writer, points []Point) error {
	for _, pt := range points {
		line := pt.Name
		if len(pt.Tags) > 0 {
			pairs := make([]string, 0, len(pt.Tags))
			for k, v := range pt.Tags {
				pairs = append(pairs, k+"="+v)
			}
			sort.Strings(pairs)
			line += "[" + strings.Join(pairs, " ") + "]"
		}
		if _, err := fmt.Fprintf(w, "%-64s %s\n", line, strconv.FormatFloat(pt.Value, 'f', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes the points as a single JSON array.
func JSON(w io.Writer, points []Point) error {
	out, err := jsoniter.ConfigFastest.Marshal(points)
	if err != nil {
		return err
	}
	_, err = w.Write(append(out, '\n'))
	return err
}

// StartWavefront begins periodic reporting of the default registry to a
// Wavefront proxy. Close the returned reporter to flush and stop.
func StartWavefront(proxyAddress, prefix string, interval time.Duration) (reporting.WavefrontMetricsReporter, error) {
	host, portStr, found := strings.Cut(proxyAddress, ":")
	if !found {
		return nil, fmt.Errorf("invalid proxy address %q: expected host:port", proxyAddress)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing proxy port: %s", err.Error())
	}
	sender, err := senders.NewProxySender(&senders.ProxyConfiguration{
		Host:        host,
		MetricsPort: port,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating proxy sender: %s", err.Error())
	}
	return reporting.NewReporter(
		sender,
		application.New("go-sharedstring", "bench"),
		reporting.Prefix(prefix),
		reporting.Interval(interval),
	), nil
}
