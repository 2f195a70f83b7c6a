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

	"github.com/pkg/errors"
)

// Default flush thresholds. Compressed files flush less often since
// decompression makes each line more expensive to produce.
const (
	DefaultFlushThreshold           = 10000
	DefaultCompressedFlushThreshold = 100000
)

// Accumulator buffers records and hands them to a Sink in bulk once
// FlushThreshold records are held, which bounds memory for arbitrarily
// large files. It is not safe for concurrent use.
type Accumulator struct {
	sink      Sink
	recorder  *ThroughputRecorder
	threshold int

	buf      []Record
	inserted int
	flushes  int
}

// NewAccumulator returns an Accumulator which flushes to sink through
// recorder every threshold records. A nil recorder times inserts without
// storing metrics; a threshold below 1 uses DefaultFlushThreshold.
func NewAccumulator(sink Sink, recorder *ThroughputRecorder, threshold int) *Accumulator {
	if recorder == nil {
		recorder = NewThroughputRecorder(nil)
	}
	if threshold < 1 {
		threshold = DefaultFlushThreshold
	}
	return &Accumulator{
		sink:      sink,
		recorder:  recorder,
		threshold: threshold,
		buf:       make([]Record, 0, threshold),
	}
}

// Append adds rec to the buffer and flushes when the buffer reaches the
// threshold. If an earlier flush failed and left a full buffer, Append
// retries that flush first and doesn't add rec unless it succeeds.
func (a *Accumulator) Append(ctx context.Context, rec Record) error {
	if len(a.buf) >= a.threshold {
		if err := a.Flush(ctx); err != nil {
			return err
		}
	}
	a.buf = append(a.buf, rec)
	if len(a.buf) >= a.threshold {
		return a.Flush(ctx)
	}
	return nil
}

// Flush sends the buffered records as one insert. The buffer is released to
// the sink only on success; on failure it is kept intact and the error is
// returned. Flushing an empty buffer does nothing, and nothing is sent once
// ctx is done.
func (a *Accumulator) Flush(ctx context.Context) error {
	if len(a.buf) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "flushing batch %d", a.flushes+1)
	}
	if _, err := a.recorder.TimedInsert(ctx, a.sink, a.buf); err != nil {
		return errors.Wrapf(err, "flushing batch %d", a.flushes+1)
	}
	a.inserted += len(a.buf)
	a.flushes++
	a.buf = make([]Record, 0, a.threshold)
	return nil
}

// Close flushes whatever is left in the buffer, even if it is below the
// threshold.
func (a *Accumulator) Close(ctx context.Context) error {
	return a.Flush(ctx)
}

// Len returns the number of buffered records.
func (a *Accumulator) Len() int { return len(a.buf) }

// Inserted returns the number of records successfully handed to the sink.
func (a *Accumulator) Inserted() int { return a.inserted }

// Flushes returns the number of successful flushes.
func (a *Accumulator) Flushes() int { return a.flushes }

// Threshold returns the flush threshold.
func (a *Accumulator) Threshold() int { return a.threshold }
