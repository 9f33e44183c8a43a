// Package stats records the per-context operation events (category and
// subcategory with a byte count) to the profile's event log and to
// prometheus counters.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// Event categories and subcategories, as written to the event log.
const (
	CategoryData     = "DATA"
	CategoryRequest  = "REQUEST"
	CategoryLinkData = "LINKDATA"

	OpIn     = "IN"
	OpOut    = "OUT"
	OpGet    = "GET"
	OpPut    = "PUT"
	OpDelete = "DELETE"
	OpList   = "LIST"
)

var (
	registerOnce sync.Once

	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "droplet_requests_total",
		Help: "Completed droplet operations by category and subcategory.",
	}, []string{"category", "op"})

	bytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "droplet_bytes_total",
		Help: "Bytes moved by droplet operations, by category and subcategory.",
	}, []string{"category", "op"})
)

type (
	// Recorder appends events to one context's event log. A nil Recorder is
	// valid and only feeds the process-wide counters.
	Recorder struct {
		mu      sync.Mutex
		file    *os.File
		nEvents atomic.Int64
	}
)

// NewRecorder opens (appends to) the event-log file; an empty path disables
// the file side.
func NewRecorder(path string) (*Recorder, error) {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, bytesTotal)
	})
	r := &Recorder{}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		r.file = f
	}
	return r, nil
}

// Record logs one completed operation.
func (r *Recorder) Record(category, op string, bytes int64) {
	requestsTotal.WithLabelValues(category, op).Inc()
	if bytes > 0 {
		bytesTotal.WithLabelValues(category, op).Add(float64(bytes))
	}
	if r == nil {
		return
	}
	r.nEvents.Inc()
	if r.file == nil {
		return
	}
	line := fmt.Sprintf("%d;%s;%s;%d\n", time.Now().Unix(), category, op, bytes)
	r.mu.Lock()
	_, err := r.file.WriteString(line)
	r.mu.Unlock()
	if err != nil {
		glog.Errorf("event log write failed: %v", err)
	}
}

// NEvents returns the number of recorded events.
func (r *Recorder) NEvents() int64 {
	if r == nil {
		return 0
	}
	return r.nEvents.Load()
}

// Close flushes and closes the event log.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}
