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

package pilosa

import (
	"io"
	"testing"
	"time"

	"github.com/dbbench/tickimport"
	gopilosa "github.com/pilosa/go-pilosa"
	"github.com/shopspring/decimal"
)

func TestRecordValues(t *testing.T) {
	day := time.Date(2011, 7, 19, 9, 30, 0, 0, time.UTC)
	v := RecordValues(&tickimport.Trade{EventTime: day, Region: "NYS", Symbol: "MSFT", Price: decimal.RequireFromString("100.50"), Volume: 500})
	if v.Rows[FieldSymbol] != "MSFT" || v.Rows[FieldRegion] != "NYS" || v.Rows[FieldDate] != "20110719" || v.Rows[FieldTickType] != "Trade" {
		t.Fatalf("unexpected rows %v", v.Rows)
	}
	if v.Ints[FieldPrice] != 1005000 || v.Ints[FieldVolume] != 500 {
		t.Fatalf("unexpected ints %v", v.Ints)
	}

	v = RecordValues(&tickimport.HistoricalDaily{Date: day, Ticker: "ITG", Close: decimal.RequireFromString("12.4"), Volume: 200000})
	if v.Rows[FieldEntryType] != tickimport.EntryTypeDaily || v.Rows[FieldSymbol] != "ITG" {
		t.Fatalf("unexpected rows %v", v.Rows)
	}
	if v.Ints[FieldClose] != 124000 {
		t.Fatalf("unexpected close %d", v.Ints[FieldClose])
	}
	if _, ok := v.Rows[FieldTickType]; ok {
		t.Fatal("daily data has no tick type")
	}
}

func TestIndexSchema(t *testing.T) {
	index := IndexSchema(gopilosa.NewSchema(), "ticks")
	if got, want := len(index.Fields()), len(setFields)+len(intFields); got != want {
		t.Fatalf("expected %d fields, got %d", want, got)
	}
}

func TestRecordIterator(t *testing.T) {
	it := &recordIterator{recs: []gopilosa.Record{gopilosa.Column{ColumnID: 1}, gopilosa.FieldValue{ColumnID: 2}}}
	n := 0
	for {
		_, err := it.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 records, got %d", n)
	}
}
