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

package parquet

import (
	"bytes"
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
	dir, err := ioutil.TempDir("", "parquetsink")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	s, err := NewSink(dir, "historical", "snappy")
	if err != nil {
		t.Fatalf("getting sink: %v", err)
	}
	records := []tickimport.Record{
		&tickimport.Trade{IngestTimestamp: time.Now(), Symbol: "MSFT", Price: decimal.RequireFromString("100.50"), Volume: 500},
		&tickimport.Quote{IngestTimestamp: time.Now(), Symbol: "MSFT", AskPrice: decimal.RequireFromString("100.60")},
	}
	ids, err := s.Insert(ctx, records)
	if err != nil {
		t.Fatalf("inserting: %v", err)
	}
	if len(ids) != 2 || ids[0] != ids[1] {
		t.Fatalf("expected both records in one file, got %v", ids)
	}
	if _, err := s.Insert(ctx, records[:1]); err != nil {
		t.Fatalf("inserting again: %v", err)
	}

	files, err := s.Files()
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected one file per insert, got %v", files)
	}
	data, err := ioutil.ReadFile(ids[0])
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
		t.Fatalf("not a parquet file: %q...", data[:8])
	}

	if err := s.Drop(ctx); err != nil {
		t.Fatalf("dropping: %v", err)
	}
	if files, _ := s.Files(); len(files) != 0 {
		t.Fatalf("expected no files after drop, got %v", files)
	}
}

func TestRecordRow(t *testing.T) {
	row := RecordRow(&tickimport.HistoricalDaily{Ticker: "ITG", Open: decimal.RequireFromString("12.10"), Volume: 7})
	if row.Symbol != "ITG" || row.Open != "12.1" || row.Volume != 7 || row.EntryType != tickimport.EntryTypeDaily {
		t.Fatalf("unexpected row %+v", row)
	}
	row = RecordRow(&tickimport.ThroughputMetric{InsertAmount: 3, InsertType: "mock"})
	if row.InsertAmount != 3 || row.InsertType != "mock" || row.InsertTime != 0 {
		t.Fatalf("unexpected row %+v", row)
	}
}
