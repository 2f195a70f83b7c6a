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

package leveldb

import (
	"context"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/dbbench/tickimport"
	"github.com/shopspring/decimal"
)

func TestSink(t *testing.T) {
	ctx := context.Background()
	dir, err := ioutil.TempDir("", "leveldbsink")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	s, err := NewSink(dir, "historical")
	if err != nil {
		t.Fatalf("getting sink: %v", err)
	}
	trade := &tickimport.Trade{
		IngestTimestamp: time.Now(),
		Region:          "NYS",
		Symbol:          "MSFT",
		Price:           decimal.RequireFromString("100.50"),
		Volume:          500,
		ExchangeID:      12,
	}
	ids, err := s.Insert(ctx, []tickimport.Record{trade, trade})
	if err != nil {
		t.Fatalf("inserting: %v", err)
	}
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Fatalf("expected two distinct ids, got %v", ids)
	}

	doc, err := s.Get(ids[0])
	if err != nil {
		t.Fatalf("getting document: %v", err)
	}
	if doc["Symbol"] != "MSFT" || doc["TickType"] != "Trade" || doc["_id"] != ids[0] {
		t.Fatalf("unexpected document %v", doc)
	}
	if doc["EntryType"] != tickimport.EntryTypeTick {
		t.Fatalf("unexpected entry type %v", doc["EntryType"])
	}

	// inserting the same records again creates new documents
	if _, err := s.Insert(ctx, []tickimport.Record{trade}); err != nil {
		t.Fatalf("inserting again: %v", err)
	}
	if n, err := s.Count(); err != nil || n != 3 {
		t.Fatalf("expected 3 documents, got %d, %v", n, err)
	}

	if err := s.Drop(ctx); err != nil {
		t.Fatalf("dropping: %v", err)
	}
	if n, err := s.Count(); err != nil || n != 0 {
		t.Fatalf("expected 0 documents after drop, got %d, %v", n, err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
}

func TestSinkSyncCancelled(t *testing.T) {
	dir, err := ioutil.TempDir("", "leveldbsync")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	s, err := NewSink(dir, "historical", OptSinkSync(true))
	if err != nil {
		t.Fatalf("getting sink: %v", err)
	}
	defer s.Close()
	daily := &tickimport.HistoricalDaily{Ticker: "MSFT", Close: decimal.RequireFromString("22.4"), Volume: 100000}
	if _, err := s.Insert(context.Background(), []tickimport.Record{daily}); err != nil {
		t.Fatalf("inserting: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Insert(ctx, []tickimport.Record{daily}); err == nil {
		t.Fatal("expected error inserting with a cancelled context")
	}
	if n, err := s.Count(); err != nil || n != 1 {
		t.Fatalf("expected 1 document, got %d, %v", n, err)
	}
}
