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

// Package parquet provides an archive tickimport.Sink which writes every
// Insert as one parquet file in a directory.
package parquet

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbbench/tickimport"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

var _ tickimport.Sink = &Sink{}

// Row is the flattened form of every record type. Columns that don't apply
// to a record are left zero.
type Row struct {
	EntryType           string  `parquet:"name=entry_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	TickType            string  `parquet:"name=tick_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	InsertTime          int64   `parquet:"name=insert_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	HistoricalTimestamp int64   `parquet:"name=historical_timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Region              string  `parquet:"name=region, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol              string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price               string  `parquet:"name=price, type=BYTE_ARRAY, convertedtype=UTF8"`
	Volume              int64   `parquet:"name=volume, type=INT64"`
	ExchangeID          int64   `parquet:"name=exchange_id, type=INT64"`
	AskPrice            string  `parquet:"name=ask_price, type=BYTE_ARRAY, convertedtype=UTF8"`
	AskSize             int64   `parquet:"name=ask_size, type=INT64"`
	AskExchangeID       int64   `parquet:"name=ask_exchange_id, type=INT64"`
	BidPrice            string  `parquet:"name=bid_price, type=BYTE_ARRAY, convertedtype=UTF8"`
	BidSize             int64   `parquet:"name=bid_size, type=INT64"`
	BidExchangeID       int64   `parquet:"name=bid_exchange_id, type=INT64"`
	Open                string  `parquet:"name=open, type=BYTE_ARRAY, convertedtype=UTF8"`
	High                string  `parquet:"name=high, type=BYTE_ARRAY, convertedtype=UTF8"`
	Low                 string  `parquet:"name=low, type=BYTE_ARRAY, convertedtype=UTF8"`
	Close               string  `parquet:"name=close, type=BYTE_ARRAY, convertedtype=UTF8"`
	InsertAmount        int64   `parquet:"name=insert_amount, type=INT64"`
	InsertType          string  `parquet:"name=insert_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	SecondsToInsert     float64 `parquet:"name=seconds_to_insert, type=DOUBLE"`
}

// RecordRow flattens rec. Prices keep their exact decimal text.
func RecordRow(rec tickimport.Record) Row {
	row := Row{EntryType: rec.EntryType(), InsertTime: millis(rec.IngestedAt())}
	switch r := rec.(type) {
	case *tickimport.Trade:
		row.TickType = r.TickType()
		row.HistoricalTimestamp = millis(r.EventTime)
		row.Region = r.Region
		row.Symbol = r.Symbol
		row.Price = r.Price.String()
		row.Volume = r.Volume
		row.ExchangeID = r.ExchangeID
	case *tickimport.Quote:
		row.TickType = r.TickType()
		row.HistoricalTimestamp = millis(r.EventTime)
		row.Region = r.Region
		row.Symbol = r.Symbol
		row.AskPrice = r.AskPrice.String()
		row.AskSize = r.AskSize
		row.AskExchangeID = r.AskExchangeID
		row.BidPrice = r.BidPrice.String()
		row.BidSize = r.BidSize
		row.BidExchangeID = r.BidExchangeID
	case *tickimport.HistoricalDaily:
		row.HistoricalTimestamp = millis(r.Date)
		row.Symbol = r.Ticker
		row.Open = r.Open.String()
		row.High = r.High.String()
		row.Low = r.Low.String()
		row.Close = r.Close.String()
		row.Volume = r.Volume
	case *tickimport.ThroughputMetric:
		row.InsertAmount = int64(r.InsertAmount)
		row.InsertType = r.InsertType
		row.SecondsToInsert = r.SecondsToInsert
	}
	return row
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano() / int64(time.Millisecond)
}

// memFile is a write only source.ParquetFile over a buffer.
type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, errors.New("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

// Sink writes parquet files named <collection>_<time>_<uuid>.parquet.
type Sink struct {
	dir         string
	collection  string
	compression parquet.CompressionCodec
}

// NewSink creates dir if needed. compression is "snappy", "gzip" or
// anything else for uncompressed.
func NewSink(dir, collection, compression string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	s := &Sink{dir: dir, collection: collection}
	switch strings.ToLower(compression) {
	case "snappy":
		s.compression = parquet.CompressionCodec_SNAPPY
	case "gzip":
		s.compression = parquet.CompressionCodec_GZIP
	default:
		s.compression = parquet.CompressionCodec_UNCOMPRESSED
	}
	return s, nil
}

func (s *Sink) String() string { return "parquet:" + s.collection }

// Insert writes records to a new file and returns the file's path as the
// id of every record in it.
func (s *Sink) Insert(ctx context.Context, records []tickimport.Record) ([]string, error) {
	data, err := s.encode(records)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s_%s_%s.parquet", s.collection, time.Now().UTC().Format("20060102150405"), uuid.NewString())
	path := filepath.Join(s.dir, name)
	if err := ioutil.WriteFile(path, data, 0600); err != nil {
		return nil, errors.Wrapf(err, "writing %s", path)
	}
	ids := make([]string, len(records))
	for i := range ids {
		ids[i] = path
	}
	return ids, nil
}

func (s *Sink) encode(records []tickimport.Record) ([]byte, error) {
	mem := newMemFile()
	pw, err := writer.NewParquetWriter(mem, new(Row), 1)
	if err != nil {
		return nil, errors.Wrap(err, "new parquet writer")
	}
	pw.CompressionType = s.compression
	for _, rec := range records {
		if err := pw.Write(RecordRow(rec)); err != nil {
			pw.WriteStop()
			return nil, errors.Wrap(err, "writing parquet row")
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, errors.Wrap(err, "finalizing parquet")
	}
	return mem.Bytes(), nil
}

// Files lists the collection's files.
func (s *Sink) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, s.collection+"_*.parquet"))
	return files, errors.Wrap(err, "listing parquet files")
}

// Drop removes the collection's files.
func (s *Sink) Drop(ctx context.Context) error {
	files, err := s.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return errors.Wrap(err, "removing parquet file")
		}
	}
	return nil
}

// Close does nothing; every Insert writes a complete file.
func (s *Sink) Close() error { return nil }
