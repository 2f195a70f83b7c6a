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

package boltdb

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dbbench/tickimport"
)

func TestSink(t *testing.T) {
	ctx := context.Background()
	dir, err := ioutil.TempDir("", "boltsink")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	filename := filepath.Join(dir, "benchmarks")

	s, err := NewSink(filename, "insertion_speed")
	if err != nil {
		t.Fatalf("getting sink: %v", err)
	}
	m := &tickimport.ThroughputMetric{
		Timestamp:       time.Now(),
		InsertAmount:    2,
		InsertType:      "mock",
		SecondsToInsert: 0.5,
	}
	ids, err := s.Insert(ctx, []tickimport.Record{m, m})
	if err != nil {
		t.Fatalf("inserting: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	// documents survive reopening
	s, err = NewSink(filename, "insertion_speed")
	if err != nil {
		t.Fatalf("reopening sink: %v", err)
	}
	defer s.Close()
	docs, err := s.Documents()
	if err != nil {
		t.Fatalf("reading documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0]["EntryType"] != tickimport.EntryTypeInsertion || docs[0]["InsertAmount"] != float64(2) {
		t.Fatalf("unexpected document %v", docs[0])
	}

	if err := s.Drop(ctx); err != nil {
		t.Fatalf("dropping: %v", err)
	}
	docs, err = s.Documents()
	if err != nil || len(docs) != 0 {
		t.Fatalf("expected no documents after drop, got %v, %v", docs, err)
	}
}

func TestNewSinkNoCollection(t *testing.T) {
	if _, err := NewSink(filepath.Join(os.TempDir(), "x"), ""); err == nil {
		t.Fatal("expected error for empty collection")
	}
}
