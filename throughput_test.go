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

package tickimport_test

import (
	"context"
	"testing"
	"time"

	"github.com/dbbench/tickimport"
	"github.com/dbbench/tickimport/mock"
	"github.com/dbbench/tickimport/test"
	"github.com/pkg/errors"
)

type logRecorder struct {
	lines []string
}

func (l *logRecorder) Printf(format string, v ...interface{}) { l.lines = append(l.lines, format) }
func (l *logRecorder) Debugf(format string, v ...interface{}) {}

// clock returns times one and a half seconds apart.
func clock() func() time.Time {
	t := time.Date(2011, 7, 19, 9, 30, 0, 0, time.UTC)
	return func() time.Time {
		now := t
		t = t.Add(1500 * time.Millisecond)
		return now
	}
}

func TestTimedInsert(t *testing.T) {
	metrics := &mock.Sink{}
	data := &mock.Sink{Name: "leveldb:historical"}
	stats := &mock.RecordingStatter{}
	r := tickimport.NewThroughputRecorder(metrics, tickimport.OptRecorderClock(clock()), tickimport.OptRecorderStatter(stats))

	m, err := r.TimedInsert(context.Background(), data, trades(5))
	test.ErrNil(t, err, "inserting")
	test.MustBe(t, m.InsertAmount, 5)
	test.MustBe(t, m.InsertType, "leveldb:historical")
	test.MustBe(t, m.SecondsToInsert, 1.5)
	test.MustBe(t, m.End-m.Start, 1.5)
	test.MustBe(t, m.EntryType(), tickimport.EntryTypeInsertion)

	test.MustBe(t, len(metrics.Calls), 1, "metric stored")
	stored := metrics.Calls[0][0].(*tickimport.ThroughputMetric)
	test.MustBe(t, *stored, m)
	test.MustBe(t, len(stats.Timings[tickimport.StatFlush]), 1)
}

func TestTimedInsertFailureStillRecords(t *testing.T) {
	metrics := &mock.Sink{}
	data := &mock.Sink{Err: errors.New("disk full")}
	r := tickimport.NewThroughputRecorder(metrics)

	m, err := r.TimedInsert(context.Background(), data, trades(2))
	swe, ok := err.(*tickimport.SinkWriteError)
	if !ok {
		t.Fatalf("expected *SinkWriteError, got %T: %v", err, err)
	}
	test.MustBe(t, swe.Count, 2)
	test.MustBe(t, m.InsertAmount, 2)
	test.MustBe(t, len(metrics.Calls), 1, "metric for the failed insert")
}

func TestTimedInsertMetricsFailureIgnored(t *testing.T) {
	metrics := &mock.Sink{Err: errors.New("metrics store down")}
	data := &mock.Sink{}
	log := &logRecorder{}
	r := tickimport.NewThroughputRecorder(metrics, tickimport.OptRecorderLogger(log))

	_, err := r.TimedInsert(context.Background(), data, trades(1))
	test.ErrNil(t, err, "a metrics failure must not fail the insert")
	test.MustBe(t, len(data.Records()), 1)
	test.MustBe(t, len(log.lines), 1, "metrics failure logged")
}

func TestTimedInsertNoMetricsSink(t *testing.T) {
	r := tickimport.NewThroughputRecorder(nil)
	_, err := r.TimedInsert(context.Background(), &mock.Sink{}, trades(1))
	test.ErrNil(t, err, "inserting without metrics")
}
