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

package postgres

import (
	"fmt"
	"strings"

	"github.com/dbbench/tickimport"
	"github.com/pkg/errors"
)

// Table names.
const (
	TicksTable   = "Ticks"
	MetricsTable = "insertion_speed"
)

// Row is one record flattened into a table's columns.
type Row struct {
	Table   string
	Columns []string
	Values  []interface{}
}

// InsertSQL returns a parameterized INSERT for the row.
func (r Row) InsertSQL() string {
	params := make([]string, len(r.Columns))
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.Table, strings.Join(r.Columns, ", "), strings.Join(params, ", "))
}

// RecordRow maps rec onto the Ticks or insertion_speed columns. Document
// keys which don't match a column name are renamed: Ticker is stored as
// Symbol, Timestamp as InsertTime, HistoricalDate as HistoricalTimestamp,
// a trade's ExchangeID as QuoteExchangeId and its Price as QuotePrice.
func RecordRow(rec tickimport.Record) (Row, error) {
	switch r := rec.(type) {
	case *tickimport.Trade:
		return Row{
			Table:   TicksTable,
			Columns: []string{"EntryType", "TickType", "InsertTime", "HistoricalTimestamp", "Region", "Symbol", "QuotePrice", "Volume", "QuoteExchangeId"},
			Values:  []interface{}{r.EntryType(), r.TickType(), r.IngestTimestamp, r.EventTime, r.Region, r.Symbol, r.Price, r.Volume, r.ExchangeID},
		}, nil
	case *tickimport.Quote:
		return Row{
			Table:   TicksTable,
			Columns: []string{"EntryType", "TickType", "InsertTime", "HistoricalTimestamp", "Region", "Symbol", "AskPrice", "AskSize", "AskExchangeId", "BidPrice", "BidSize", "BidExchangeId"},
			Values:  []interface{}{r.EntryType(), r.TickType(), r.IngestTimestamp, r.EventTime, r.Region, r.Symbol, r.AskPrice, r.AskSize, r.AskExchangeID, r.BidPrice, r.BidSize, r.BidExchangeID},
		}, nil
	case *tickimport.HistoricalDaily:
		return Row{
			Table:   TicksTable,
			Columns: []string{"EntryType", "InsertTime", "HistoricalTimestamp", "Symbol", "Open", "High", "Low", "Close", "Volume"},
			Values:  []interface{}{r.EntryType(), r.IngestTimestamp, r.Date, r.Ticker, r.Open, r.High, r.Low, r.Close, r.Volume},
		}, nil
	case *tickimport.ThroughputMetric:
		return Row{
			Table:   MetricsTable,
			Columns: []string{"EntryType", "InsertTime", "InsertAmount", "InsertType", "StartTime", "EndTime", "SecondsToInsert"},
			Values:  []interface{}{r.EntryType(), r.Timestamp, r.InsertAmount, r.InsertType, r.Start, r.End, r.SecondsToInsert},
		}, nil
	}
	return Row{}, errors.Errorf("no table for record type %T", rec)
}

// schema creates the tables and the indexes queries depend on.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS Ticks (
		EntryType varchar(30),
		TickType char(6),
		InsertTime timestamp,
		HistoricalTimestamp timestamp,
		Region varchar(10),
		Symbol varchar(20),
		QuotePrice dec(10,2),
		Volume bigint,
		QuoteExchangeId bigint,
		AskPrice dec(10,2),
		AskSize bigint,
		AskExchangeId bigint,
		BidPrice dec(10,2),
		BidSize bigint,
		BidExchangeId bigint,
		Open dec(10,2),
		High dec(10,2),
		Low dec(10,2),
		Close dec(10,2)
	)`,
	`CREATE INDEX IF NOT EXISTS SymbolIndex ON Ticks (Symbol)`,
	`CREATE INDEX IF NOT EXISTS HistTime ON Ticks (HistoricalTimestamp)`,
	`CREATE TABLE IF NOT EXISTS insertion_speed (
		EntryType varchar(30),
		InsertTime timestamp,
		InsertAmount integer,
		InsertType varchar(64),
		StartTime double precision,
		EndTime double precision,
		SecondsToInsert double precision
	)`,
}
