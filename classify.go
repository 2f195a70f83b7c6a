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
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// LineKind is the kind of a classified line.
type LineKind int

// Line kinds.
const (
	KindInvalid LineKind = iota
	KindTrade
	KindQuote
	KindSessionStart
	KindSessionEnd
	KindEOFMarker
	KindDaily
)

var kindNames = [...]string{
	KindInvalid:      "Invalid",
	KindTrade:        "Trade",
	KindQuote:        "Quote",
	KindSessionStart: "SessionStart",
	KindSessionEnd:   "SessionEnd",
	KindEOFMarker:    "EOFMarker",
	KindDaily:        "Daily",
}

func (k LineKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "LineKind(" + strconv.Itoa(int(k)) + ")"
}

// Tick line tags.
const (
	TagTrade        = "T"
	TagQuote        = "Q"
	TagSessionStart = "s"
	TagSessionEnd   = "e"
	TagEOF          = "z"
)

// ClassifiedLine is the result of classifying one split line.
type ClassifiedLine struct {
	Kind LineKind
	// Record is set for Trade, Quote and Daily lines.
	Record Record
	// Label is the session label carried by SessionStart and SessionEnd.
	Label string
	// Fields holds the raw fields of Invalid lines for diagnostics.
	Fields []string
}

// Normalize maps an empty column to "0" so that blank numeric fields parse
// as zero. Any other value is returned unchanged.
func Normalize(field string) string {
	if field == "" {
		return "0"
	}
	return field
}

// NormalizeFields applies Normalize to every field in place and returns the
// slice.
func NormalizeFields(fields []string) []string {
	for i, f := range fields {
		fields[i] = Normalize(f)
	}
	return fields
}

// ClassifyTick turns the fields of a '|' delimited tick line into a
// ClassifiedLine. Lines with an unknown tag come back as KindInvalid with a
// nil error. A trade or quote with a missing or non-numeric column returns a
// *LineParseError; callers skip the line and carry on.
//
// The event clock is taken from the first 8 characters of fields[1]
// regardless of its length. That is a property of the source format and is
// not validated further.
func ClassifyTick(fields []string, ctx FileContext) (ClassifiedLine, error) {
	if len(fields) == 0 {
		return ClassifiedLine{Kind: KindInvalid}, nil
	}
	switch fields[0] {
	case TagTrade:
		t, err := parseTrade(fields, ctx)
		if err != nil {
			return ClassifiedLine{Kind: KindTrade, Fields: fields}, err
		}
		return ClassifiedLine{Kind: KindTrade, Record: t}, nil
	case TagQuote:
		q, err := parseQuote(fields, ctx)
		if err != nil {
			return ClassifiedLine{Kind: KindQuote, Fields: fields}, err
		}
		return ClassifiedLine{Kind: KindQuote, Record: q}, nil
	case TagSessionStart:
		return ClassifiedLine{Kind: KindSessionStart, Label: field(fields, 2)}, nil
	case TagSessionEnd:
		return ClassifiedLine{Kind: KindSessionEnd, Label: field(fields, 2)}, nil
	case TagEOF:
		return ClassifiedLine{Kind: KindEOFMarker}, nil
	default:
		return ClassifiedLine{Kind: KindInvalid, Fields: fields}, nil
	}
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func parseTrade(fields []string, ctx FileContext) (*Trade, error) {
	p := lineParser{fields: fields}
	t := &Trade{
		IngestTimestamp: time.Now(),
		Region:          ctx.Region,
	}
	t.EventTime = p.clock(1, ctx.HistoricalDate)
	t.Symbol = p.str(2, "Symbol")
	t.Price = p.dec(3, "Price")
	t.Volume = p.integer(4, "Volume")
	t.ExchangeID = p.integer(5, "ExchangeID")
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

func parseQuote(fields []string, ctx FileContext) (*Quote, error) {
	p := lineParser{fields: fields}
	q := &Quote{
		IngestTimestamp: time.Now(),
		Region:          ctx.Region,
	}
	q.EventTime = p.clock(1, ctx.HistoricalDate)
	q.Symbol = p.str(2, "Symbol")
	q.AskPrice = p.dec(3, "AskPrice")
	q.AskSize = p.integer(4, "AskSize")
	q.AskExchangeID = p.integer(5, "AskExchangeID")
	q.BidPrice = p.dec(6, "BidPrice")
	q.BidSize = p.integer(7, "BidSize")
	q.BidExchangeID = p.integer(8, "BidExchangeID")
	if p.err != nil {
		return nil, p.err
	}
	return q, nil
}

// ClassifyDaily parses a historical daily line. When ctx.Ticker is set the
// line is date,open,high,low,close,volume and the ticker comes from the file
// name; otherwise the ticker is the second column.
func ClassifyDaily(fields []string, ctx FileContext) (ClassifiedLine, error) {
	p := lineParser{fields: fields}
	d := &HistoricalDaily{IngestTimestamp: time.Now()}
	i := 0
	d.Date = p.date(i, "HistoricalDate")
	i++
	if ctx.Ticker != "" {
		d.Ticker = ctx.Ticker
	} else {
		d.Ticker = p.str(i, "Ticker")
		i++
	}
	d.Open = p.dec(i, "Open")
	d.High = p.dec(i+1, "High")
	d.Low = p.dec(i+2, "Low")
	d.Close = p.dec(i+3, "Close")
	d.Volume = p.integer(i+4, "Volume")
	if p.err != nil {
		return ClassifiedLine{Kind: KindDaily, Fields: fields}, p.err
	}
	return ClassifiedLine{Kind: KindDaily, Record: d}, nil
}

// lineParser converts positional fields, remembering the first failure so a
// record can be built with straight line code.
type lineParser struct {
	fields []string
	err    error
}

func (p *lineParser) get(i int, name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	if i >= len(p.fields) {
		p.err = &LineParseError{Field: name}
		return "", false
	}
	return p.fields[i], true
}

func (p *lineParser) str(i int, name string) string {
	s, _ := p.get(i, name)
	return s
}

func (p *lineParser) dec(i int, name string) decimal.Decimal {
	s, ok := p.get(i, name)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		p.err = &LineParseError{Field: name, Value: s, Err: err}
	}
	return d
}

func (p *lineParser) integer(i int, name string) int64 {
	s, ok := p.get(i, name)
	if !ok {
		return 0
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		p.err = &LineParseError{Field: name, Value: s, Err: err}
	}
	return v
}

func (p *lineParser) date(i int, name string) time.Time {
	s, ok := p.get(i, name)
	if !ok {
		return time.Time{}
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		p.err = &LineParseError{Field: name, Value: s, Err: err}
	}
	return d
}

func (p *lineParser) clock(i int, day time.Time) time.Time {
	s, ok := p.get(i, "HistoricalTimestamp")
	if !ok {
		return time.Time{}
	}
	clock := s
	if len(clock) > 8 {
		clock = clock[:8]
	}
	ts, err := parseClock(clock)
	if err != nil {
		p.err = &LineParseError{Field: "HistoricalTimestamp", Value: s, Err: err}
		return time.Time{}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, time.UTC)
}

// parseClock accepts HH:MM:SS, or a compact clock whose leading six digits
// are HHMMSS (the tail of 093000123 is sub-second precision).
func parseClock(clock string) (time.Time, error) {
	if strings.Contains(clock, ":") {
		return time.Parse("15:04:05", clock)
	}
	if len(clock) < 6 {
		return time.Time{}, errors.Errorf("clock '%s' shorter than HHMMSS", clock)
	}
	return time.Parse("150405", clock[:6])
}
