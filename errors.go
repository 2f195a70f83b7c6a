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
	"fmt"

	"github.com/pkg/errors"
)

// Error is a constant error string.
type Error string

func (e Error) Error() string { return string(e) }

// ErrUnrecognizedLineTag is reported for lines whose first field is not one
// of the known tick tags.
const ErrUnrecognizedLineTag = Error("unrecognized line tag")

// ErrLineTooLong is reported for lines longer than the stream's limit. The
// rest of the line is discarded and reading carries on with the next one.
const ErrLineTooLong = Error("line too long")

// Reasons recorded in LineError.Reason.
const (
	ReasonUnrecognizedLineTag = "UnrecognizedLineTag"
	ReasonLineParse           = "LineParseError"
	ReasonLineTooLong         = "LineTooLong"
)

// MalformedFilenameError is returned when the region code or historical date
// can't be derived from a file name. The file is skipped.
type MalformedFilenameError struct {
	Name   string
	Reason string
}

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("malformed filename '%s': %s", e.Name, e.Reason)
}

// LineParseError is returned when a required column of a trade, quote or
// daily line is missing or can't be converted.
type LineParseError struct {
	Field string
	Value string
	Err   error
}

func (e *LineParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parsing %s: missing value", e.Field)
	}
	return fmt.Sprintf("parsing %s from '%s': %v", e.Field, e.Value, e.Err)
}

// SinkWriteError wraps a failed bulk insert. The records of the failed batch
// are still held by the Accumulator that attempted the flush.
type SinkWriteError struct {
	Sink  string
	Count int
	Err   error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("inserting %d records into %s: %v", e.Count, e.Sink, e.Err)
}

// Cause returns the underlying sink error so errors.Cause can see through a
// SinkWriteError.
func (e *SinkWriteError) Cause() error { return e.Err }

// IsMalformedFilename reports whether the cause of err is a
// MalformedFilenameError.
func IsMalformedFilename(err error) bool {
	_, ok := errors.Cause(err).(*MalformedFilenameError)
	return ok
}

// IsSinkWrite reports whether err is, or wraps, a SinkWriteError.
func IsSinkWrite(err error) bool {
	for err != nil {
		if _, ok := err.(*SinkWriteError); ok {
			return true
		}
		c, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}

// LineError describes a single skipped line.
type LineError struct {
	Line   int
	Reason string
	Err    error
}

func (e LineError) String() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
}

// OpenError is returned when a resource of an import can't be opened.
type OpenError struct {
	Name string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening '%s': %v", e.Name, e.Err)
}

// Cause returns the underlying error.
func (e *OpenError) Cause() error { return e.Err }
