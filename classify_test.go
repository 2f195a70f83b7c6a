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
	"strings"
	"testing"
	"time"

	"github.com/dbbench/tickimport"
	"github.com/dbbench/tickimport/test"
	"github.com/shopspring/decimal"
)

var nys = tickimport.FileContext{
	Region:         "NYS",
	HistoricalDate: time.Date(2011, 7, 19, 0, 0, 0, 0, time.UTC),
}

func fields(line, delim string) []string {
	return tickimport.NormalizeFields(strings.Split(line, delim))
}

func TestNormalize(t *testing.T) {
	test.MustBe(t, tickimport.Normalize(""), "0")
	test.MustBe(t, tickimport.Normalize("12"), "12")
	test.MustBe(t, tickimport.Normalize(" "), " ")
	test.MustBe(t, tickimport.NormalizeFields([]string{"T", "", "MSFT"}), []string{"T", "0", "MSFT"})
}

func TestClassifyTrade(t *testing.T) {
	cl, err := tickimport.ClassifyTick(fields("T|093000123|MSFT|100.50|500|12", "|"), nys)
	test.ErrNil(t, err, "classifying trade")
	test.MustBe(t, cl.Kind, tickimport.KindTrade)
	tr, ok := cl.Record.(*tickimport.Trade)
	if !ok {
		t.Fatalf("expected *Trade, got %T", cl.Record)
	}
	test.MustBe(t, tr.EventTime, time.Date(2011, 7, 19, 9, 30, 0, 0, time.UTC), "event time")
	test.MustBe(t, tr.Region, "NYS")
	test.MustBe(t, tr.Symbol, "MSFT")
	if !tr.Price.Equal(decimal.RequireFromString("100.5")) {
		t.Fatalf("unexpected price %v", tr.Price)
	}
	test.MustBe(t, tr.Volume, int64(500))
	test.MustBe(t, tr.ExchangeID, int64(12))
	if tr.IngestTimestamp.IsZero() {
		t.Fatal("ingest timestamp not set")
	}
}

func TestClassifyQuote(t *testing.T) {
	cl, err := tickimport.ClassifyTick(fields("Q|09:30:01|MSFT|100.40|300|12|100.60|200|", "|"), nys)
	test.ErrNil(t, err, "classifying quote")
	q, ok := cl.Record.(*tickimport.Quote)
	if !ok {
		t.Fatalf("expected *Quote, got %T", cl.Record)
	}
	test.MustBe(t, q.EventTime, time.Date(2011, 7, 19, 9, 30, 1, 0, time.UTC), "event time")
	test.MustBe(t, q.AskSize, int64(300))
	test.MustBe(t, q.BidSize, int64(200))
	// blank trailing column normalizes to zero
	test.MustBe(t, q.BidExchangeID, int64(0))
	if !q.BidPrice.Equal(decimal.RequireFromString("100.6")) {
		t.Fatalf("unexpected bid price %v", q.BidPrice)
	}
}

func TestClassifyControlLines(t *testing.T) {
	tests := []struct {
		line  string
		kind  tickimport.LineKind
		label string
	}{
		{"s||session1", tickimport.KindSessionStart, "session1"},
		{"e||session1", tickimport.KindSessionEnd, "session1"},
		{"z", tickimport.KindEOFMarker, ""},
		{"s", tickimport.KindSessionStart, ""},
	}
	for _, tst := range tests {
		cl, err := tickimport.ClassifyTick(fields(tst.line, "|"), nys)
		test.ErrNil(t, err, tst.line)
		test.MustBe(t, cl.Kind, tst.kind, tst.line)
		test.MustBe(t, cl.Label, tst.label, tst.line)
		if cl.Record != nil {
			t.Fatalf("%s: control line produced a record", tst.line)
		}
	}
}

func TestClassifyInvalid(t *testing.T) {
	for _, line := range []string{"X|badline", "t|093000|MSFT|1|1|1", ""} {
		cl, err := tickimport.ClassifyTick(fields(line, "|"), nys)
		test.ErrNil(t, err, line)
		test.MustBe(t, cl.Kind, tickimport.KindInvalid, line)
		test.MustBe(t, cl.Kind.String(), "Invalid")
	}
}

func TestClassifyParseErrors(t *testing.T) {
	for _, line := range []string{
		"T|093000|MSFT|abc|500|12",
		"T|093000|MSFT|100.5|5.5|12",
		"T|093000|MSFT",
		"Q|093000|MSFT|1|1|1|1|1",
		"T|0930|MSFT|1|1|1",
		"T|ab:cd:ef|MSFT|1|1|1",
	} {
		_, err := tickimport.ClassifyTick(fields(line, "|"), nys)
		if _, ok := err.(*tickimport.LineParseError); !ok {
			t.Fatalf("%s: expected *LineParseError, got %v", line, err)
		}
	}
}

func TestClassifyDaily(t *testing.T) {
	cl, err := tickimport.ClassifyDaily(strings.Split("20110719,MSFT,22.1,23.9,21.8,22.4,100000", ","), tickimport.FileContext{})
	test.ErrNil(t, err, "classifying daily")
	d := cl.Record.(*tickimport.HistoricalDaily)
	test.MustBe(t, d.Ticker, "MSFT")
	test.MustBe(t, d.Date, time.Date(2011, 7, 19, 0, 0, 0, 0, time.UTC))
	test.MustBe(t, d.Volume, int64(100000))
	if !d.High.Equal(decimal.RequireFromString("23.9")) {
		t.Fatalf("unexpected high %v", d.High)
	}

	cl, err = tickimport.ClassifyDaily(strings.Fields("20110719 12.1 13.9 11.8 12.4 200000"), tickimport.FileContext{Ticker: "ITG"})
	test.ErrNil(t, err, "classifying per-ticker daily")
	d = cl.Record.(*tickimport.HistoricalDaily)
	test.MustBe(t, d.Ticker, "ITG")
	if !d.Close.Equal(decimal.RequireFromString("12.4")) {
		t.Fatalf("unexpected close %v", d.Close)
	}

	if _, err := tickimport.ClassifyDaily([]string{"2011-07-19", "MSFT"}, tickimport.FileContext{}); err == nil {
		t.Fatal("expected error for bad date")
	}
}

func TestLineKindString(t *testing.T) {
	test.MustBe(t, tickimport.KindQuote.String(), "Quote")
	test.MustBe(t, tickimport.LineKind(42).String(), "LineKind(42)")
}
