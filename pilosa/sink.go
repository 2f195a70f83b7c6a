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

// Package pilosa provides a tickimport.Sink which indexes records in a
// Pilosa index. Every record becomes one column; categorical values are set
// fields with row keys and numeric values are int fields.
package pilosa

import (
	"context"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dbbench/tickimport"
	gopilosa "github.com/pilosa/go-pilosa"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var _ tickimport.Sink = &Sink{}

// Set fields, stored with row keys.
const (
	FieldEntryType = "entry_type"
	FieldTickType  = "tick_type"
	FieldRegion    = "region"
	FieldSymbol    = "symbol"
	FieldDate      = "date"
)

// Int fields. Prices are stored in units of 1/PriceScale.
const (
	FieldVolume   = "volume"
	FieldPrice    = "price"
	FieldAskPrice = "ask_price"
	FieldBidPrice = "bid_price"
	FieldAskSize  = "ask_size"
	FieldBidSize  = "bid_size"
	FieldClose    = "close"

	PriceScale = 10000
)

var setFields = []string{FieldEntryType, FieldTickType, FieldRegion, FieldSymbol, FieldDate}

var intFields = []string{FieldVolume, FieldPrice, FieldAskPrice, FieldBidPrice, FieldAskSize, FieldBidSize, FieldClose}

// Main holds the pilosa connection options.
type Main struct {
	Hosts     []string
	Index     string
	BatchSize int
}

// NewMain returns a Main with local defaults.
func NewMain() *Main {
	return &Main{
		Hosts:     []string{"localhost:10101"},
		Index:     "ticks",
		BatchSize: 100000,
	}
}

// Sink imports records into one index.
type Sink struct {
	client    *gopilosa.Client
	index     *gopilosa.Index
	fields    map[string]*gopilosa.Field
	batchSize int
	nextCol   *uint64
}

// SinkOption is a functional option for Sink.
type SinkOption func(s *Sink)

// OptSinkColumnCounter shares a column id counter between sinks writing to
// the same index so their columns don't collide.
func OptSinkColumnCounter(c *uint64) SinkOption {
	return func(s *Sink) {
		s.nextCol = c
	}
}

// NewSink connects to m.Hosts and creates the index and its fields.
func NewSink(m *Main, opts ...SinkOption) (*Sink, error) {
	client, err := gopilosa.NewClient(m.Hosts,
		gopilosa.OptClientSocketTimeout(time.Minute*60),
		gopilosa.OptClientConnectTimeout(time.Second*60))
	if err != nil {
		return nil, errors.Wrap(err, "creating pilosa cluster client")
	}
	schema := gopilosa.NewSchema()
	s := &Sink{
		client:    client,
		index:     IndexSchema(schema, m.Index),
		fields:    make(map[string]*gopilosa.Field),
		batchSize: m.BatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.nextCol == nil {
		s.nextCol = new(uint64)
	}
	if err := client.SyncSchema(schema); err != nil {
		return nil, errors.Wrap(err, "synchronizing schema")
	}
	for _, f := range s.index.Fields() {
		s.fields[f.Name()] = f
	}
	return s, nil
}

// IndexSchema adds the index and all of its fields to schema.
func IndexSchema(schema *gopilosa.Schema, name string) *gopilosa.Index {
	index := schema.Index(name)
	for _, name := range setFields {
		index.Field(name, gopilosa.OptFieldKeys(true))
	}
	for _, name := range intFields {
		index.Field(name, gopilosa.OptFieldTypeInt(0, 1<<40))
	}
	return index
}

func (s *Sink) String() string { return "pilosa:" + s.index.Name() }

// Values is one record broken into field values.
type Values struct {
	Rows map[string]string
	Ints map[string]int64
}

// RecordValues maps rec onto the index's fields.
func RecordValues(rec tickimport.Record) Values {
	v := Values{
		Rows: map[string]string{FieldEntryType: rec.EntryType()},
		Ints: make(map[string]int64),
	}
	switch r := rec.(type) {
	case *tickimport.Trade:
		v.Rows[FieldTickType] = r.TickType()
		v.Rows[FieldRegion] = r.Region
		v.Rows[FieldSymbol] = r.Symbol
		v.Rows[FieldDate] = r.EventTime.Format(tickimport.DateLayout)
		v.Ints[FieldPrice] = scaled(r.Price)
		v.Ints[FieldVolume] = r.Volume
	case *tickimport.Quote:
		v.Rows[FieldTickType] = r.TickType()
		v.Rows[FieldRegion] = r.Region
		v.Rows[FieldSymbol] = r.Symbol
		v.Rows[FieldDate] = r.EventTime.Format(tickimport.DateLayout)
		v.Ints[FieldAskPrice] = scaled(r.AskPrice)
		v.Ints[FieldBidPrice] = scaled(r.BidPrice)
		v.Ints[FieldAskSize] = r.AskSize
		v.Ints[FieldBidSize] = r.BidSize
	case *tickimport.HistoricalDaily:
		v.Rows[FieldSymbol] = r.Ticker
		v.Rows[FieldDate] = r.Date.Format(tickimport.DateLayout)
		v.Ints[FieldClose] = scaled(r.Close)
		v.Ints[FieldVolume] = r.Volume
	}
	return v
}

func scaled(d decimal.Decimal) int64 {
	return d.Shift(4).IntPart()
}

type recordIterator struct {
	recs []gopilosa.Record
	i    int
}

func (it *recordIterator) NextRecord() (gopilosa.Record, error) {
	if it.i >= len(it.recs) {
		return nil, io.EOF
	}
	rec := it.recs[it.i]
	it.i++
	return rec, nil
}

// Insert assigns each record a column and imports the batch field by
// field. The returned ids are the column ids.
func (s *Sink) Insert(ctx context.Context, records []tickimport.Record) ([]string, error) {
	ids := make([]string, len(records))
	perField := make(map[string][]gopilosa.Record)
	first := atomic.AddUint64(s.nextCol, uint64(len(records))) - uint64(len(records))
	for i, rec := range records {
		col := first + uint64(i)
		ids[i] = strconv.FormatUint(col, 10)
		v := RecordValues(rec)
		for name, key := range v.Rows {
			perField[name] = append(perField[name], gopilosa.Column{ColumnID: col, RowKey: key})
		}
		for name, val := range v.Ints {
			perField[name] = append(perField[name], gopilosa.FieldValue{ColumnID: col, Value: val})
		}
	}
	for name, recs := range perField {
		field, ok := s.fields[name]
		if !ok {
			return nil, errors.Errorf("unknown field '%s'", name)
		}
		err := s.client.ImportField(field, &recordIterator{recs: recs}, gopilosa.OptImportBatchSize(s.batchSize))
		if err != nil {
			return nil, errors.Wrapf(err, "importing field '%s'", name)
		}
	}
	return ids, nil
}

// Drop deletes the index and recreates it empty.
func (s *Sink) Drop(ctx context.Context) error {
	if err := s.client.DeleteIndex(s.index); err != nil {
		return errors.Wrap(err, "deleting index")
	}
	schema := gopilosa.NewSchema()
	s.index = IndexSchema(schema, s.index.Name())
	if err := s.client.SyncSchema(schema); err != nil {
		return errors.Wrap(err, "recreating index")
	}
	for _, f := range s.index.Fields() {
		s.fields[f.Name()] = f
	}
	return nil
}

// Close does nothing; the pilosa client holds no open connections between
// requests.
func (s *Sink) Close() error { return nil }
