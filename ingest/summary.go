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

package ingest

import (
	"fmt"

	"github.com/dbbench/tickimport"
)

// Summary reports what happened to one file.
type Summary struct {
	Path            string
	RecordsRead     int
	RecordsInserted int
	RecordsSkipped  int
	// ControlLines counts session start/end and end of file markers, which
	// are read but neither stored nor skipped.
	ControlLines int
	Errors       []tickimport.LineError
	// Err is set when the file as a whole failed.
	Err error
}

func (s Summary) counts() string {
	return fmt.Sprintf("read=%d inserted=%d skipped=%d", s.RecordsRead, s.RecordsInserted, s.RecordsSkipped)
}

// Totals aggregates a set of summaries.
type Totals struct {
	Files           int
	FailedFiles     int
	RecordsRead     int
	RecordsInserted int
	RecordsSkipped  int
}

// Total adds up summaries.
func Total(summaries []Summary) Totals {
	var t Totals
	for _, s := range summaries {
		t.Files++
		if s.Err != nil {
			t.FailedFiles++
		}
		t.RecordsRead += s.RecordsRead
		t.RecordsInserted += s.RecordsInserted
		t.RecordsSkipped += s.RecordsSkipped
	}
	return t
}

func (t Totals) String() string {
	return fmt.Sprintf("files=%d failed=%d read=%d inserted=%d skipped=%d",
		t.Files, t.FailedFiles, t.RecordsRead, t.RecordsInserted, t.RecordsSkipped)
}
