// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"testing"

	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavefronthq/go-metrics-wavefront/reporting"

	"github.com/wavefronthq/go-sharedstring/internal/filter"
)

func sampleRegistry() metrics.Registry {
	registry := metrics.NewRegistry()
	tags := map[string]string{"element": "uint8"}
	metrics.GetOrRegisterCounter(reporting.EncodeKey("sharedstring.pool.hits", tags), registry).Inc(42)
	metrics.GetOrRegisterCounter(reporting.EncodeKey("sharedstring.pool.misses", tags), registry).Inc(7)
	metrics.GetOrRegisterGauge("bench.workers", registry).Update(8)
	return registry
}

func TestSnapshot(t *testing.T) {
	points := Snapshot(sampleRegistry(), nil)
	require.Len(t, points, 3)

	// sorted by decoded name
	assert.Equal(t, "bench.workers", points[0].Name)
	assert.Equal(t, float64(8), points[0].Value)
	assert.Empty(t, points[0].Tags)

	assert.Equal(t, "sharedstring.pool.hits", points[1].Name)
	assert.Equal(t, float64(42), points[1].Value)
	assert.Equal(t, map[string]string{"element": "uint8"}, points[1].Tags)

	assert.Equal(t, "sharedstring.pool.misses", points[2].Name)
}

func TestSnapshotFiltered(t *testing.T) {
	f := filter.NewGlobFilter([]string{"sharedstring.pool.*"}, []string{"*.misses"})
	points := Snapshot(sampleRegistry(), f)
	require.Len(t, points, 1)
	assert.Equal(t, "sharedstring.pool.hits", points[0].Name)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, Snapshot(sampleRegistry(), nil)))

	out := buf.String()
	assert.Contains(t, out, "bench.workers")
	assert.Contains(t, out, "sharedstring.pool.hits[element=uint8]")
	assert.Contains(t, out, "42")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, Snapshot(sampleRegistry(), nil)))

	assert.Contains(t, buf.String(), `"name":"sharedstring.pool.hits"`)
	assert.Contains(t, buf.String(), `"tags":{"element":"uint8"}`)
	assert.Contains(t, buf.String(), `"value":42`)
}

func TestStartWavefrontRejectsBadAddress(t *testing.T) {
	_, err := StartWavefront("no-port", "bench.", 0)
	assert.Error(t, err)

	_, err = StartWavefront("host:nan", "bench.", 0)
	assert.Error(t, err)
}
