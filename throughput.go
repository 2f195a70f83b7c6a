// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package tickimport

import (
	"context"
	"time"
)

// ThroughputRecorder times bulk inserts and stores a ThroughputMetric for
// each one in a metrics sink that is separate from the data sink.
type ThroughputRecorder struct {
	metrics Sink
	log     Logger
	stats   Statter
	now     func() time.Time
}

// RecorderOption is a functional option for ThroughputRecorder.
type RecorderOption func(r *ThroughputRecorder)

// OptRecorderLogger sets the logger metrics sink failures are reported to.
func OptRecorderLogger(l Logger) RecorderOption {
	return func(r *ThroughputRecorder) {
		r.log = l
	}
}

// OptRecorderStatter sets the Statter which receives flush timings.
func OptRecorderStatter(s Statter) RecorderOption {
	return func(r *ThroughputRecorder) {
		r.stats = s
	}
}

// OptRecorderClock replaces time.Now. It's used by tests.
func OptRecorderClock(now func() time.Time) RecorderOption {
	return func(r *ThroughputRecorder) {
		r.now = now
	}
}

// NewThroughputRecorder returns a recorder which writes its metrics to
// metrics. A nil metrics sink keeps the measurements but stores nothing.
func NewThroughputRecorder(metrics Sink, opts ...RecorderOption) *ThroughputRecorder {
	r := &ThroughputRecorder{
		metrics: metrics,
		log:     NopLogger{},
		stats:   NopStatter{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TimedInsert calls sink.Insert(records) and measures how long it takes. A
// metric is recorded whether or not the insert succeeds; on failure it
// covers the time up to the failure and the sink's error is returned as a
// *SinkWriteError. Failing to store the metric is logged and never returned.
func (r *ThroughputRecorder) TimedInsert(ctx context.Context, sink Sink, records []Record) (ThroughputMetric, error) {
	start := r.now()
	_, err := sink.Insert(ctx, records)
	end := r.now()

	m := ThroughputMetric{
		Timestamp:       end,
		InsertAmount:    len(records),
		InsertType:      sinkName(sink),
		Start:           unixSeconds(start),
		End:             unixSeconds(end),
		SecondsToInsert: end.Sub(start).Seconds(),
	}
	r.stats.Timing(StatFlush, end.Sub(start), 1)
	r.store(ctx, m)

	if err != nil {
		r.stats.Count(StatFlushFailed, 1, 1)
		return m, &SinkWriteError{Sink: m.InsertType, Count: len(records), Err: err}
	}
	return m, nil
}

func (r *ThroughputRecorder) store(ctx context.Context, m ThroughputMetric) {
	if r.metrics == nil {
		return
	}
	metric := m
	if _, err := r.metrics.Insert(ctx, []Record{&metric}); err != nil {
		r.log.Printf("storing insertion speed metric (%d records in %.3fs): %v", m.InsertAmount, m.SecondsToInsert, err)
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
