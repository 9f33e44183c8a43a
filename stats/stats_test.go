// Package stats records the per-context operation events.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package stats_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/droplet/stats"
)

func TestRecorderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	r, err := stats.NewRecorder(path)
	require.NoError(t, err)

	r.Record(stats.CategoryData, stats.OpIn, 1024)
	r.Record(stats.CategoryRequest, stats.OpList, 0)
	assert.EqualValues(t, 2, r.NEvents())
	require.NoError(t, r.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], ";DATA;IN;1024"))
	assert.True(t, strings.HasSuffix(lines[1], ";REQUEST;LIST;0"))
}

func TestRecorderWithoutFile(t *testing.T) {
	r, err := stats.NewRecorder("")
	require.NoError(t, err)
	r.Record(stats.CategoryData, stats.OpOut, 10)
	assert.EqualValues(t, 1, r.NEvents())
	require.NoError(t, r.Close())
}

func TestNilRecorder(t *testing.T) {
	var r *stats.Recorder
	r.Record(stats.CategoryData, stats.OpGet, 0) // must not panic
	assert.EqualValues(t, 0, r.NEvents())
	assert.NoError(t, r.Close())
}
