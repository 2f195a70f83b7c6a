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

package mock

import (
	"context"
	"strconv"

	"github.com/dbbench/tickimport"
)

// Sink records every Insert call. Not threadsafe.
type Sink struct {
	Name string
	// Calls holds the records of each successful or failed Insert, in order.
	Calls [][]tickimport.Record
	// Err, if set, is returned from Insert calls once FailAfter calls have
	// succeeded.
	Err       error
	FailAfter int

	Drops  int
	Closed bool

	nextID int
}

// Insert implements tickimport.Sink.
func (s *Sink) Insert(ctx context.Context, records []tickimport.Record) ([]string, error) {
	s.Calls = append(s.Calls, records)
	if s.Err != nil && len(s.Calls) > s.FailAfter {
		return nil, s.Err
	}
	ids := make([]string, len(records))
	for i := range records {
		s.nextID++
		ids[i] = strconv.Itoa(s.nextID)
	}
	return ids, nil
}

// Drop implements tickimport.Sink.
func (s *Sink) Drop(ctx context.Context) error {
	s.Drops++
	s.Calls = nil
	return nil
}

// Close implements tickimport.Sink.
func (s *Sink) Close() error {
	s.Closed = true
	return nil
}

func (s *Sink) String() string {
	if s.Name == "" {
		return "mock"
	}
	return s.Name
}

// Records returns every record passed to a successful Insert.
func (s *Sink) Records() []tickimport.Record {
	var all []tickimport.Record
	for i, c := range s.Calls {
		if s.Err != nil && i+1 > s.FailAfter {
			continue
		}
		all = append(all, c...)
	}
	return all
}

// Sizes returns the size of each Insert call.
func (s *Sink) Sizes() []int {
	sizes := make([]int, len(s.Calls))
	for i, c := range s.Calls {
		sizes[i] = len(c)
	}
	return sizes
}
