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
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Entry types written alongside every stored record. The strings match what
// existing document collections and the Ticks table already contain.
const (
	EntryTypeTick      = "Historical Tick Data"
	EntryTypeDaily     = "Historical Stock Data"
	EntryTypeInsertion = "Insertion Speed"

	TickTypeTrade = "Trade"
	TickTypeQuote = "Quote"
)

// Record is a single typed value headed for a Sink. The concrete types are
// *Trade, *Quote, *HistoricalDaily and *ThroughputMetric.
type Record interface {
	// EntryType is the discriminator stored with the record.
	EntryType() string
	// IngestedAt is the wall clock time at which the record was parsed.
	IngestedAt() time.Time
}

// Trade is a single executed trade from a tick file.
type Trade struct {
	IngestTimestamp time.Time       `json:"Timestamp"`
	EventTime       time.Time       `json:"HistoricalTimestamp"`
	Region          string          `json:"Region"`
	Symbol          string          `json:"Symbol"`
	Price           decimal.Decimal `json:"Price"`
	Volume          int64           `json:"Volume"`
	ExchangeID      int64           `json:"ExchangeID"`
}

// EntryType implements Record.
func (t *Trade) EntryType() string { return EntryTypeTick }

// IngestedAt implements Record.
func (t *Trade) IngestedAt() time.Time { return t.IngestTimestamp }

// TickType returns "Trade".
func (t *Trade) TickType() string { return TickTypeTrade }

// Quote is a top of book quote from a tick file.
type Quote struct {
	IngestTimestamp time.Time       `json:"Timestamp"`
	EventTime       time.Time       `json:"HistoricalTimestamp"`
	Region          string          `json:"Region"`
	Symbol          string          `json:"Symbol"`
	AskPrice        decimal.Decimal `json:"AskPrice"`
	AskSize         int64           `json:"AskSize"`
	AskExchangeID   int64           `json:"AskExchangeID"`
	BidPrice        decimal.Decimal `json:"BidPrice"`
	BidSize         int64           `json:"BidSize"`
	BidExchangeID   int64           `json:"BidExchangeID"`
}

// EntryType implements Record.
func (q *Quote) EntryType() string { return EntryTypeTick }

// IngestedAt implements Record.
func (q *Quote) IngestedAt() time.Time { return q.IngestTimestamp }

// TickType returns "Quote".
func (q *Quote) TickType() string { return TickTypeQuote }

// HistoricalDaily is one day of open/high/low/close data for a ticker.
type HistoricalDaily struct {
	IngestTimestamp time.Time       `json:"Timestamp"`
	Date            time.Time       `json:"HistoricalDate"`
	Ticker          string          `json:"Ticker"`
	Open            decimal.Decimal `json:"Open"`
	High            decimal.Decimal `json:"High"`
	Low             decimal.Decimal `json:"Low"`
	Close           decimal.Decimal `json:"Close"`
	Volume          int64           `json:"Volume"`
}

// EntryType implements Record.
func (h *HistoricalDaily) EntryType() string { return EntryTypeDaily }

// IngestedAt implements Record.
func (h *HistoricalDaily) IngestedAt() time.Time { return h.IngestTimestamp }

// ThroughputMetric describes one bulk insert. It is created once per flush
// and never modified afterwards.
type ThroughputMetric struct {
	Timestamp       time.Time `json:"Timestamp"`
	InsertAmount    int       `json:"InsertAmount"`
	InsertType      string    `json:"InsertType"`
	Start           float64   `json:"Start"`
	End             float64   `json:"End"`
	SecondsToInsert float64   `json:"SecondsToInsert"`
}

// EntryType implements Record.
func (m *ThroughputMetric) EntryType() string { return EntryTypeInsertion }

// IngestedAt implements Record.
func (m *ThroughputMetric) IngestedAt() time.Time { return m.Timestamp }

// Ticker is implemented by tick records (*Trade and *Quote).
type Ticker interface {
	Record
	TickType() string
}

// Document returns the flat key/value form of r that document sinks store.
// The key names match the existing collections.
func Document(r Record) map[string]interface{} {
	doc := map[string]interface{}{
		"EntryType": r.EntryType(),
		"Timestamp": r.IngestedAt(),
	}
	switch v := r.(type) {
	case *Trade:
		doc["TickType"] = TickTypeTrade
		doc["HistoricalTimestamp"] = v.EventTime
		doc["Region"] = v.Region
		doc["Symbol"] = v.Symbol
		doc["Price"] = v.Price
		doc["Volume"] = v.Volume
		doc["ExchangeID"] = v.ExchangeID
	case *Quote:
		doc["TickType"] = TickTypeQuote
		doc["HistoricalTimestamp"] = v.EventTime
		doc["Region"] = v.Region
		doc["Symbol"] = v.Symbol
		doc["AskPrice"] = v.AskPrice
		doc["AskSize"] = v.AskSize
		doc["AskExchangeID"] = v.AskExchangeID
		doc["BidPrice"] = v.BidPrice
		doc["BidSize"] = v.BidSize
		doc["BidExchangeID"] = v.BidExchangeID
	case *HistoricalDaily:
		doc["HistoricalDate"] = v.Date
		doc["Ticker"] = v.Ticker
		doc["Open"] = v.Open
		doc["High"] = v.High
		doc["Low"] = v.Low
		doc["Close"] = v.Close
		doc["Volume"] = v.Volume
	case *ThroughputMetric:
		doc["InsertAmount"] = v.InsertAmount
		doc["InsertType"] = v.InsertType
		doc["Start"] = v.Start
		doc["End"] = v.End
		doc["SecondsToInsert"] = v.SecondsToInsert
	}
	return doc
}

// MarshalDocument encodes r as a JSON document with its id stored under
// "_id".
func MarshalDocument(r Record, id string) ([]byte, error) {
	doc := Document(r)
	doc["_id"] = id
	return json.Marshal(doc)
}
