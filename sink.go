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
	"io"
)

// Sink stores batches of records. Implementations own the slice passed to
// Insert once it returns successfully. Parallel imports give each worker its
// own Sink, except for embedded stores that allow a single open handle;
// those sinks must be safe for concurrent Inserts.
type Sink interface {
	// Insert stores records as one bulk operation and returns the ids the
	// store assigned, in record order. Sinks that don't assign ids return
	// nil.
	Insert(ctx context.Context, records []Record) ([]string, error)
	// Drop removes everything the sink has stored.
	Drop(ctx context.Context) error
	// Close releases the sink's connection.
	Close() error
}

// NamedReadCloser is a ReadCloser for a named resource such as a file on
// disk or an object in a bucket.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource hands out the resources of an import one at a time.
// NextReader returns io.EOF once every resource has been returned.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// SinkFunc adapts a function to the Insert half of Sink. Drop and Close do
// nothing.
type SinkFunc func(ctx context.Context, records []Record) ([]string, error)

// Insert calls f.
func (f SinkFunc) Insert(ctx context.Context, records []Record) ([]string, error) {
	return f(ctx, records)
}

// Drop does nothing.
func (f SinkFunc) Drop(ctx context.Context) error { return nil }

// Close does nothing.
func (f SinkFunc) Close() error { return nil }

// NopSink discards everything.
type NopSink struct{}

// Insert does nothing.
func (NopSink) Insert(ctx context.Context, records []Record) ([]string, error) { return nil, nil }

// Drop does nothing.
func (NopSink) Drop(ctx context.Context) error { return nil }

// Close does nothing.
func (NopSink) Close() error { return nil }

// sinkName returns a printable name for s.
func sinkName(s Sink) string {
	if str, ok := s.(interface{ String() string }); ok {
		return str.String()
	}
	return "sink"
}
